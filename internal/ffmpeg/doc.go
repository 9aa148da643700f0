// Package ffmpeg builds and executes the ffmpeg commands that turn files into
// monochrome video and back.
//
// Build produces one Command per input file: either the structured raw-video
// template driven by the [ffmpeg] configuration, or the user's fully custom
// template with FILE_INPUT/FILE_OUTPUT substituted. The literal command text is
// kept alongside the argument vector so callers can show users exactly what ran.
//
// Runner executes a Command synchronously, streaming its output line by line.
// No validation of paths, numeric ranges, or codec availability happens here;
// those failures surface when ffmpeg runs.
package ffmpeg
