package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"spritebridge/internal/config"
)

// Requirement defines an external tool spritebridge shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the binaries the configuration refers to. Aseprite is
// required for every export; the audio tools only serve the music command.
func Requirements(cfg *config.Config) []Requirement {
	if cfg == nil {
		return nil
	}
	return []Requirement{
		{
			Name:        "Aseprite",
			Command:     cfg.Aseprite.Binary,
			Description: "Required for sprite export",
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.Audio.FFmpegBinary,
			Description: "Converts music to Ogg Vorbis",
			Optional:    true,
		},
		{
			Name:        "FFprobe",
			Command:     ResolveFFprobe(cfg.Audio.FFmpegBinary, cfg.Audio.FFprobeBinary),
			Description: "Measures music duration for trimming",
			Optional:    true,
		},
	}
}

// CheckConfig evaluates Requirements(cfg).
func CheckConfig(cfg *config.Config) []Status {
	return CheckBinaries(Requirements(cfg))
}

// MissingRequired returns the required dependencies that are unavailable.
func MissingRequired(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Optional && !s.Available {
			missing = append(missing, s)
		}
	}
	return missing
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Command = resolved
		status.Available = true
		results = append(results, status)
	}
	return results
}
