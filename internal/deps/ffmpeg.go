package deps

import "strings"

// FFmpegRequirement describes the ffmpeg binary named in configuration. An
// empty name means "ffmpeg".
func FFmpegRequirement(configured string) Requirement {
	name := strings.TrimSpace(configured)
	if name == "" {
		name = "ffmpeg"
	}
	return Requirement{
		Name:        "FFmpeg",
		Command:     name,
		Description: "Encodes files to video and decodes them back",
	}
}

// ResolveFFmpeg reports the ffmpeg binary encode and decode commands will run.
func ResolveFFmpeg(configured string) Status {
	return Resolve(FFmpegRequirement(configured))
}
