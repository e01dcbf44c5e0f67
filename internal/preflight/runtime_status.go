package preflight

import (
	"fmt"
	"time"

	"spritebridge/internal/config"
	"spritebridge/internal/staging"
)

// CheckProjectFromConfig evaluates the project status for display.
func CheckProjectFromConfig(cfg *config.Config) Result {
	const name = "Project"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if !cfg.ProjectMode() {
		return Result{Name: name, Passed: true, Detail: "Standalone mode"}
	}
	return CheckProjectFile(cfg.Project.YYP)
}

// StagingProbe summarizes leftover staging directories in the project.
type StagingProbe struct {
	Count  int
	Bytes  int64
	Oldest time.Time
}

// ProbeStaging reports leftover staging directories from interrupted
// imports. Standalone mode has no project and reports nothing.
func ProbeStaging(cfg *config.Config) (StagingProbe, error) {
	if cfg == nil || !cfg.ProjectMode() || cfg.Project.YYP == "" {
		return StagingProbe{}, nil
	}
	dirs, err := staging.ListDirectories(cfg.SpritesDir())
	if err != nil {
		return StagingProbe{}, err
	}
	var probe StagingProbe
	for _, d := range dirs {
		probe.Count++
		probe.Bytes += d.Size
		if probe.Oldest.IsZero() || d.ModTime.Before(probe.Oldest) {
			probe.Oldest = d.ModTime
		}
	}
	return probe, nil
}

// Detail renders a display-friendly summary for status output.
func (p StagingProbe) Detail() string {
	if p.Count == 0 {
		return "No leftover staging"
	}
	return fmt.Sprintf("%d leftover dirs, %d bytes, oldest %s", p.Count, p.Bytes, p.Oldest.Format(time.RFC3339))
}
