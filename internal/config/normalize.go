package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeProject(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeEncode()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WatchDir) == "" {
		c.Paths.WatchDir = defaultWatchDir
	}
	if c.Paths.WatchDir, err = expandPath(c.Paths.WatchDir); err != nil {
		return fmt.Errorf("paths.watch_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.History.Path, err = expandPath(strings.TrimSpace(c.History.Path)); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeProject() error {
	var err error
	c.Project.Mode = strings.ToLower(strings.TrimSpace(c.Project.Mode))
	if c.Project.Mode == "" {
		c.Project.Mode = ModeStandalone
	}
	if c.Project.YYP, err = expandPath(strings.TrimSpace(c.Project.YYP)); err != nil {
		return fmt.Errorf("project.yyp: %w", err)
	}
	c.Project.FolderRoot = strings.Trim(strings.TrimSpace(c.Project.FolderRoot), "/")
	if c.Project.FolderRoot == "" {
		c.Project.FolderRoot = defaultFolderRoot
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Aseprite.Binary = strings.TrimSpace(c.Aseprite.Binary)
	if c.Aseprite.Binary == "" {
		c.Aseprite.Binary = defaultAsepriteBinary
	}
	if c.Aseprite.TimeoutSeconds <= 0 {
		c.Aseprite.TimeoutSeconds = defaultAsepriteTimeout
	}
	c.Audio.FFmpegBinary = strings.TrimSpace(c.Audio.FFmpegBinary)
	if c.Audio.FFmpegBinary == "" {
		c.Audio.FFmpegBinary = defaultFFmpegBinary
	}
	c.Audio.FFprobeBinary = strings.TrimSpace(c.Audio.FFprobeBinary)
	if c.Audio.FFprobeBinary == "" {
		c.Audio.FFprobeBinary = defaultFFprobeBinary
	}
	c.Audio.OutputDir = strings.TrimSpace(c.Audio.OutputDir)
	if c.Audio.OutputDir == "" {
		c.Audio.OutputDir = defaultAudioOutputDir
	}
	if c.Watch.DebounceMS <= 0 {
		c.Watch.DebounceMS = defaultDebounceMS
	}
	if c.Watch.StagingMaxAgeHours <= 0 {
		c.Watch.StagingMaxAgeHours = defaultStagingMaxAgeHours
	}
}

func (c *Config) normalizeEncode() {
	c.Encode.SingleFrameFormat = strings.ToLower(strings.TrimSpace(c.Encode.SingleFrameFormat))
	if c.Encode.SingleFrameFormat == "" {
		c.Encode.SingleFrameFormat = defaultSingleFrameFormat
	}
	if c.Encode.FrameDelayCS == 0 {
		c.Encode.FrameDelayCS = defaultFrameDelayCS
	}
	if c.Encode.Scale == 0 {
		c.Encode.Scale = defaultScale
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
