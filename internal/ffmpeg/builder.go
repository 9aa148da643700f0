package ffmpeg

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"framestash/internal/config"
)

// Direction selects which side of the round trip a command performs.
type Direction string

const (
	DirectionEncode Direction = "encode"
	DirectionDecode Direction = "decode"
)

// Placeholders substituted into fully custom templates.
const (
	InputPlaceholder  = "FILE_INPUT"
	OutputPlaceholder = "FILE_OUTPUT"
)

// encodeThreads is fixed; the structured encode template does not expose it.
const encodeThreads = 8

// Command is a fully assembled ffmpeg invocation for one file.
type Command struct {
	// Text is the literal command line, including quotes, as reported to users.
	Text string
	// Program and Args are handed to the process unchanged. Paths in Args are
	// never re-parsed, so quotes and backslashes in file names survive.
	Program string
	Args    []string
	// Input and Output are the resolved file paths the command reads and writes.
	Input  string
	Output string
	// Custom reports whether a fully custom template produced the command.
	Custom bool
}

// Build assembles the ffmpeg command that converts inputPath in the given
// direction, writing into outputDir.
func Build(cfg config.FFmpeg, direction Direction, inputPath, outputDir string) (Command, error) {
	input, err := filepath.Abs(inputPath)
	if err != nil {
		return Command{}, fmt.Errorf("resolve input path %q: %w", inputPath, err)
	}
	output := OutputPath(cfg, direction, input, outputDir)
	cmd := Command{Program: cfg.Path, Input: input, Output: output}

	template, custom := customTemplate(cfg, direction)
	switch {
	case direction != DirectionEncode && direction != DirectionDecode:
		return Command{}, fmt.Errorf("unknown direction %q", direction)
	case custom:
		args, err := customArgs(template, input, output)
		if err != nil {
			return Command{}, err
		}
		cmd.Text = customCommand(cfg.Path, template, input, output)
		cmd.Args = args
		cmd.Custom = true
	case cfg.MacroBlockDimensions <= 0:
		// The structured templates divide by the macroblock size.
		return Command{}, fmt.Errorf("macro block dimensions must be positive, got %d", cfg.MacroBlockDimensions)
	case direction == DirectionEncode:
		cmd.Args = encodeArgs(cfg, input, output)
		cmd.Text = encodeCommand(cfg, input, output)
	default:
		cmd.Args = decodeArgs(cfg, input, output)
		cmd.Text = decodeCommand(cfg, input, output)
	}
	if strings.TrimSpace(cmd.Program) == "" {
		return Command{}, fmt.Errorf("empty ffmpeg program for %s", input)
	}
	return cmd, nil
}

// OutputPath returns <outputDir>/<base name>.<format> for the direction, where
// the base name is the input file name without its final extension.
func OutputPath(cfg config.FFmpeg, direction Direction, inputPath, outputDir string) string {
	format := cfg.EncodeFormat
	if direction == DirectionDecode {
		format = cfg.DecodeFormat
	}
	name := filepath.Base(inputPath)
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return filepath.Join(outputDir, base+"."+format)
}

// customTemplate returns the template that applies to direction, verbatim.
// ok is false when the structured command should be used, including for an
// enabled template that is empty or only whitespace.
func customTemplate(cfg config.FFmpeg, direction Direction) (string, bool) {
	if !cfg.UseFullyCustomOptions {
		return "", false
	}
	template := cfg.CustomEncodingTemplate
	if direction == DirectionDecode {
		template = cfg.CustomDecodingTemplate
	}
	if strings.TrimSpace(template) == "" {
		return "", false
	}
	return template, true
}

func customCommand(ffmpegPath, template, input, output string) string {
	text := fmt.Sprintf("%s %s", quote(ffmpegPath), template)
	text = strings.ReplaceAll(text, InputPlaceholder, quote(input))
	return strings.ReplaceAll(text, OutputPlaceholder, quote(output))
}

// customArgs splits the template with shell quoting rules and only then
// substitutes the placeholders, so the paths are never tokenized.
func customArgs(template, input, output string) ([]string, error) {
	tokens, err := shlex.Split(template)
	if err != nil {
		return nil, fmt.Errorf("split custom template %q: %w", template, err)
	}
	replacer := strings.NewReplacer(InputPlaceholder, input, OutputPlaceholder, output)
	for i, token := range tokens {
		tokens[i] = replacer.Replace(token)
	}
	return tokens, nil
}

func encodeArgs(cfg config.FFmpeg, input, output string) []string {
	mb := cfg.MacroBlockDimensions
	return []string{
		"-f", "rawvideo",
		"-pix_fmt", "monob",
		"-s", fmt.Sprintf("%dx%d", cfg.VideoWidth/mb, cfg.VideoHeight/mb),
		"-r", strconv.Itoa(cfg.Framerate),
		"-i", input,
		"-vf", fmt.Sprintf("scale=iw*%d:-1", mb),
		"-sws_flags", "neighbor",
		"-c:v", cfg.EncodingLibrary,
		"-threads", strconv.Itoa(encodeThreads),
		"-loglevel", cfg.LogLevel,
		"-y", output,
	}
}

func decodeArgs(cfg config.FFmpeg, input, output string) []string {
	return []string{
		"-i", input,
		"-vf", fmt.Sprintf("format=pix_fmts=monob,scale=iw*%f:-1", 1.0/float64(cfg.MacroBlockDimensions)),
		"-sws_flags", "area",
		"-loglevel", cfg.LogLevel,
		"-f", "rawvideo",
		output,
	}
}

func encodeCommand(cfg config.FFmpeg, input, output string) string {
	mb := cfg.MacroBlockDimensions
	return fmt.Sprintf(
		`%s -f rawvideo -pix_fmt monob -s %dx%d -r %d -i %s -vf "scale=iw*%d:-1" -sws_flags neighbor -c:v %s -threads %d -loglevel %s -y %s`,
		quote(cfg.Path),
		cfg.VideoWidth/mb,
		cfg.VideoHeight/mb,
		cfg.Framerate,
		quote(input),
		mb,
		cfg.EncodingLibrary,
		encodeThreads,
		cfg.LogLevel,
		quote(output),
	)
}

func decodeCommand(cfg config.FFmpeg, input, output string) string {
	return fmt.Sprintf(
		`%s -i %s -vf "format=pix_fmts=monob,scale=iw*%f:-1" -sws_flags area -loglevel %s -f rawvideo %s`,
		quote(cfg.Path),
		quote(input),
		1.0/float64(cfg.MacroBlockDimensions),
		cfg.LogLevel,
		quote(output),
	)
}

func quote(value string) string {
	return `"` + value + `"`
}
