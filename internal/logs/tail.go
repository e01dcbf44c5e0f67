package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"spritebridge/internal/services"
)

const (
	component    = "logs"
	pollInterval = 250 * time.Millisecond
	maxLineBytes = 1024 * 1024
)

// TailOptions controls a single Tail call. A negative Offset means "start
// from the last Limit lines"; otherwise reading resumes at Offset.
type TailOptions struct {
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
}

// TailResult carries the lines read and the offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail reads lines from the log at path. A missing file yields no lines
// and a zero offset so callers can keep polling until the watcher starts.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	result := TailResult{Offset: opts.Offset}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			result.Offset = 0
			return result, nil
		}
		return result, services.Wrap(services.ErrIO, component, "stat log", path, err)
	}
	if info.IsDir() {
		return result, services.Wrap(services.ErrInput, component, "stat log", fmt.Sprintf("%s is a directory", path), nil)
	}
	opts.Wait = max(opts.Wait, 0)

	var lines []string
	var offset int64
	if opts.Offset < 0 {
		lines, offset, err = lastLines(path, opts.Limit)
	} else {
		start := opts.Offset
		if start > info.Size() {
			// rotated or truncated
			start = 0
		}
		lines, offset, err = readFrom(path, start)
	}
	if err != nil {
		return result, err
	}
	result.Lines, result.Offset = lines, offset

	if opts.Follow && opts.Wait > 0 && len(lines) == 0 {
		return waitForLines(ctx, path, offset, opts.Wait)
	}
	return result, nil
}

func lastLines(path string, limit int) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, services.Wrap(services.ErrIO, component, "open log", path, err)
	}
	defer file.Close()

	if limit <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, services.Wrap(services.ErrIO, component, "seek log", path, err)
		}
		return nil, end, nil
	}

	scanner := newScanner(file)
	ring := make([]string, limit)
	count, next := 0, 0
	for scanner.Scan() {
		ring[next] = scanner.Text()
		next = (next + 1) % limit
		count = min(count+1, limit)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, services.Wrap(services.ErrIO, component, "read log", path, err)
	}
	end, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, services.Wrap(services.ErrIO, component, "seek log", path, err)
	}

	lines := make([]string, count)
	if count == limit {
		for i := range count {
			lines[i] = ring[(next+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, end, nil
}

// readFrom returns complete lines after offset. A trailing partial line is
// left for the next call so a writer mid-flush never yields half a record.
func readFrom(path string, offset int64) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, services.Wrap(services.ErrIO, component, "open log", path, err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, services.Wrap(services.ErrIO, component, "seek log", path, err)
	}

	reader := bufio.NewReaderSize(file, 64*1024)
	var lines []string
	for {
		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, services.Wrap(services.ErrIO, component, "read log", path, err)
		}
		offset += int64(len(line))
		lines = append(lines, line[:len(line)-1])
	}
	return lines, offset, nil
}

func waitForLines(ctx context.Context, path string, offset int64, wait time.Duration) (TailResult, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		lines, next, err := readFrom(path, offset)
		if err != nil {
			return TailResult{Offset: offset}, err
		}
		if len(lines) > 0 || time.Now().After(deadline) {
			return TailResult{Lines: lines, Offset: next}, nil
		}
		select {
		case <-ctx.Done():
			return TailResult{Offset: offset}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return scanner
}
