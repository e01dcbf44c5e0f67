package deps

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

const defaultFFprobe = "ffprobe"

// ResolveFFprobe picks the ffprobe binary to run. An explicitly configured
// value other than the bare default wins. Otherwise an ffprobe that sits next
// to the resolved ffmpeg binary is preferred, so static builds unpacked into
// one directory stay paired, and the default name is the fallback.
func ResolveFFprobe(ffmpegCommand, ffprobeCommand string) string {
	configured := strings.TrimSpace(ffprobeCommand)
	if configured != "" && configured != defaultFFprobe {
		return configured
	}
	if ffmpeg := strings.TrimSpace(ffmpegCommand); ffmpeg != "" {
		if resolved, err := exec.LookPath(ffmpeg); err == nil {
			candidate := siblingBinary(resolved, defaultFFprobe)
			if info, statErr := os.Stat(candidate); statErr == nil && isExecutable(info) {
				return candidate
			}
		}
	}
	return defaultFFprobe
}

func siblingBinary(path, name string) string {
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(filepath.Dir(path), name)
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
