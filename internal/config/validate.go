package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFFmpeg(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateFFmpeg() error {
	if strings.TrimSpace(c.FFmpeg.Path) == "" {
		return errors.New("ffmpeg.ffmpeg_path must be set")
	}
	if err := ensurePositive(map[string]int{
		"ffmpeg.video_width":            c.FFmpeg.VideoWidth,
		"ffmpeg.video_height":           c.FFmpeg.VideoHeight,
		"ffmpeg.framerate":              c.FFmpeg.Framerate,
		"ffmpeg.macro_block_dimensions": c.FFmpeg.MacroBlockDimensions,
	}); err != nil {
		return err
	}
	if c.FFmpeg.MacroBlockDimensions > c.FFmpeg.VideoWidth || c.FFmpeg.MacroBlockDimensions > c.FFmpeg.VideoHeight {
		return errors.New("ffmpeg.macro_block_dimensions must not exceed the video width or height")
	}
	if c.FFmpeg.EncodeFormat == "" {
		return errors.New("ffmpeg.encode_format must be set")
	}
	if c.FFmpeg.DecodeFormat == "" {
		return errors.New("ffmpeg.decode_format must be set")
	}
	if c.FFmpeg.EncodingLibrary == "" {
		return errors.New("ffmpeg.encoding_library must be set")
	}
	if !slices.Contains(FFmpegLogLevels, c.FFmpeg.LogLevel) {
		return fmt.Errorf("ffmpeg.log_level %q must be one of %s", c.FFmpeg.LogLevel, strings.Join(FFmpegLogLevels, ", "))
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
}

func ensurePositive(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
