package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateProject(); err != nil {
		return err
	}
	if err := c.validateEncode(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := ensurePositiveMap(map[string]int{
		"aseprite.timeout_seconds":    c.Aseprite.TimeoutSeconds,
		"watch.debounce_ms":           c.Watch.DebounceMS,
		"watch.staging_max_age_hours": c.Watch.StagingMaxAgeHours,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateProject() error {
	switch c.Project.Mode {
	case ModeStandalone:
	case ModeProject:
		if strings.TrimSpace(c.Project.YYP) == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = "~/.config/spritebridge/config.toml"
			}
			return fmt.Errorf("project.yyp is required when project.mode is %q. Edit %s (create with 'spritebridge config init')", ModeProject, defaultPath)
		}
		if !strings.HasSuffix(strings.ToLower(c.Project.YYP), ".yyp") {
			return fmt.Errorf("project.yyp must point at a .yyp file, got %q", c.Project.YYP)
		}
	default:
		return fmt.Errorf("project.mode must be %q or %q, got %q", ModeStandalone, ModeProject, c.Project.Mode)
	}
	return nil
}

func (c *Config) validateEncode() error {
	if c.Encode.FrameDelayCS < 1 || c.Encode.FrameDelayCS > maxFrameDelayCS {
		return fmt.Errorf("encode.frame_delay_cs must be between 1 and %d", maxFrameDelayCS)
	}
	switch c.Encode.SingleFrameFormat {
	case "png", "webp":
	default:
		return fmt.Errorf("encode.single_frame_format must be png or webp, got %q", c.Encode.SingleFrameFormat)
	}
	if c.Encode.Scale < 1 || c.Encode.Scale > maxScale {
		return fmt.Errorf("encode.scale must be between 1 and %d", maxScale)
	}
	return nil
}

func (c *Config) validateAudio() error {
	if c.Audio.Quality < 0 || c.Audio.Quality > 10 {
		return errors.New("audio.quality must be between 0 and 10")
	}
	if c.Audio.TrimStartSeconds < 0 {
		return errors.New("audio.trim_start_seconds must be >= 0")
	}
	if c.Audio.TrimEndSeconds < 0 {
		return errors.New("audio.trim_end_seconds must be >= 0")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
