package config

const (
	// ModeStandalone writes GIF/PNG files next to the source.
	ModeStandalone = "standalone"
	// ModeProject imports sprites into a GameMaker project.
	ModeProject = "project"

	defaultWatchDir           = "."
	defaultLogDir             = "~/.local/share/spritebridge/logs"
	defaultStateDir           = "~/.local/share/spritebridge"
	defaultLogRetentionDays   = 30
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultFolderRoot         = "Sprites"
	defaultAsepriteBinary     = "aseprite"
	defaultAsepriteTimeout    = 120
	defaultFrameDelayCS       = 10
	defaultSingleFrameFormat  = "png"
	defaultScale              = 1
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultAudioOutputDir     = "GameMusic"
	defaultAudioQuality       = 5
	defaultTrimStartSeconds   = 0.084
	defaultTrimEndSeconds     = 0.1
	defaultDebounceMS         = 500
	defaultStagingMaxAgeHours = 24
	maxFrameDelayCS           = 65535
	maxScale                  = 16
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WatchDir: defaultWatchDir,
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		Project: Project{
			Mode:       ModeStandalone,
			FolderRoot: defaultFolderRoot,
		},
		Aseprite: Aseprite{
			Binary:         defaultAsepriteBinary,
			TimeoutSeconds: defaultAsepriteTimeout,
		},
		Encode: Encode{
			FrameDelayCS:      defaultFrameDelayCS,
			SingleFrameFormat: defaultSingleFrameFormat,
			Scale:             defaultScale,
		},
		Audio: Audio{
			FFmpegBinary:     defaultFFmpegBinary,
			FFprobeBinary:    defaultFFprobeBinary,
			OutputDir:        defaultAudioOutputDir,
			Quality:          defaultAudioQuality,
			TrimStartSeconds: defaultTrimStartSeconds,
			TrimEndSeconds:   defaultTrimEndSeconds,
		},
		Watch: Watch{
			DebounceMS:         defaultDebounceMS,
			StagingMaxAgeHours: defaultStagingMaxAgeHours,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
