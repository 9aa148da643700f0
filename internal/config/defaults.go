package config

const (
	defaultDataDir              = "~/.local/share/framestash"
	defaultWorkDir              = "~/.local/share/framestash/work"
	defaultLogDir               = "~/.local/share/framestash/logs"
	defaultFFmpegPath           = "ffmpeg"
	defaultEncodeFormat         = "mkv"
	defaultDecodeFormat         = "zip"
	defaultVideoWidth           = 1280
	defaultVideoHeight          = 720
	defaultFramerate            = 30
	defaultMacroBlockDimensions = 8
	defaultEncodingLibrary      = "libx264"
	defaultFFmpegLogLevel       = "info"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// FFmpegLogLevels lists the values ffmpeg accepts for -loglevel.
var FFmpegLogLevels = []string{"quiet", "panic", "fatal", "error", "warning", "info", "verbose", "debug", "trace"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			WorkDir: defaultWorkDir,
			LogDir:  defaultLogDir,
		},
		FFmpeg: FFmpeg{
			Path:                 defaultFFmpegPath,
			EncodeFormat:         defaultEncodeFormat,
			DecodeFormat:         defaultDecodeFormat,
			VideoWidth:           defaultVideoWidth,
			VideoHeight:          defaultVideoHeight,
			Framerate:            defaultFramerate,
			MacroBlockDimensions: defaultMacroBlockDimensions,
			EncodingLibrary:      defaultEncodingLibrary,
			LogLevel:             defaultFFmpegLogLevel,
		},
		Padding: Padding{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
