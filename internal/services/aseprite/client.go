package aseprite

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"spritebridge/internal/logging"
	"spritebridge/internal/services"
)

const (
	component    = "aseprite"
	exportPrefix = "JSON_EXPORT:"
)

// SheetInfo describes one sprite sheet written by the exporter script.
type SheetInfo struct {
	Path       string `json:"path"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	FrameCount int    `json:"frame_count"`
	TagName    string `json:"tag_name"`
}

// Exporter is the behaviour the pipeline needs from the editor.
type Exporter interface {
	Export(ctx context.Context, asePath, outDir string) ([]SheetInfo, error)
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onLine func(string)) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithLogger sets the logger used for tool output and parse warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client wraps Aseprite CLI interactions.
type Client struct {
	binary    string
	timeout   time.Duration
	scriptDir string
	exec      Executor
	logger    *slog.Logger
}

// New constructs an Aseprite client. The exporter script is materialized in
// scriptDir on first use.
func New(binary string, timeoutSeconds int, scriptDir string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, services.Wrap(services.ErrConfiguration, component, "new client", "aseprite binary required", nil)
	}
	client := &Client{
		binary:    binary,
		timeout:   time.Duration(timeoutSeconds) * time.Second,
		scriptDir: scriptDir,
		exec:      services.CommandExecutor{},
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, component)
	return client, nil
}

// Export runs the exporter script against asePath, writing sheets into
// outDir, and returns one SheetInfo per exported tag.
func (c *Client) Export(ctx context.Context, asePath, outDir string) ([]SheetInfo, error) {
	if _, err := os.Stat(asePath); err != nil {
		return nil, services.Wrap(services.ErrInput, component, "export", asePath, err)
	}
	script, err := EnsureScript(c.scriptDir)
	if err != nil {
		return nil, err
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := []string{
		"-b",
		"-script-param", "filepath=" + asePath,
		"-script-param", "outputdir=" + outDir,
		"-script", script,
	}
	logger := logging.WithContext(ctx, c.logger)
	var sheets []SheetInfo
	var toolOutput []string
	runErr := c.exec.Run(runCtx, c.binary, args, func(line string) {
		info, ok, parseErr := parseExportLine(line)
		switch {
		case parseErr != nil:
			logging.WarnWithContext(logger, "malformed export line skipped", "aseprite_export_line_invalid",
				logging.String("line", line),
				logging.Error(parseErr),
				logging.String(logging.FieldErrorHint, "check the exporter script matches this build"),
				logging.String(logging.FieldImpact, "one tag is not imported"),
			)
		case ok:
			sheets = append(sheets, info)
		case strings.TrimSpace(line) != "":
			toolOutput = append(toolOutput, line)
			logger.Debug("aseprite output", logging.String("line", line))
		}
	})
	if runErr != nil {
		msg := asePath
		if len(toolOutput) > 0 {
			msg = fmt.Sprintf("%s: %s", asePath, toolOutput[len(toolOutput)-1])
		}
		return nil, services.Wrap(services.ErrExternalTool, component, "export", msg, runErr)
	}
	if len(sheets) == 0 {
		logging.WarnWithContext(logger, "aseprite reported no sheets", "aseprite_export_empty",
			logging.String(logging.FieldSource, asePath),
			logging.String(logging.FieldErrorHint, "confirm the file has frames and the script prints JSON_EXPORT lines"),
			logging.String(logging.FieldImpact, "nothing is produced for this file"),
		)
	}
	return sheets, nil
}

// Version returns the first line of `aseprite --version`.
func (c *Client) Version(ctx context.Context) (string, error) {
	var first string
	err := c.exec.Run(ctx, c.binary, []string{"--version"}, func(line string) {
		if first == "" {
			first = strings.TrimSpace(line)
		}
	})
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, component, "version", c.binary, err)
	}
	return first, nil
}

// parseExportLine decodes a JSON_EXPORT: line. ok is false for any other
// line; err is set when the prefix is present but the payload is invalid.
func parseExportLine(line string) (SheetInfo, bool, error) {
	payload, found := strings.CutPrefix(strings.TrimSpace(line), exportPrefix)
	if !found {
		return SheetInfo{}, false, nil
	}
	var info SheetInfo
	if err := json.Unmarshal([]byte(payload), &info); err != nil {
		return SheetInfo{}, false, err
	}
	if info.Path == "" || info.Width <= 0 || info.Height <= 0 || info.FrameCount <= 0 {
		return SheetInfo{}, false, fmt.Errorf("incomplete export info %q", payload)
	}
	return info, true, nil
}
