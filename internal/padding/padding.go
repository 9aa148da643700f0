// Package padding extends encode inputs to a whole number of raw monob frames
// so the final frame ffmpeg reads is never truncated.
package padding

import (
	"fmt"
	"os"
	"path/filepath"

	"framestash/internal/config"
	"framestash/internal/fileutil"
)

// FrameBytes returns the size of one raw monob frame (one bit per pixel) at
// the downscaled geometry the encode command declares with -s.
func FrameBytes(cfg config.FFmpeg) int64 {
	if cfg.MacroBlockDimensions <= 0 {
		return 0
	}
	pixels := int64(cfg.VideoWidth/cfg.MacroBlockDimensions) * int64(cfg.VideoHeight/cfg.MacroBlockDimensions)
	return (pixels + 7) / 8
}

// PaddedSize returns size rounded up to the next multiple of frameBytes.
func PaddedSize(size, frameBytes int64) int64 {
	if frameBytes <= 0 || size%frameBytes == 0 {
		return size
	}
	return size + frameBytes - size%frameBytes
}

// Pad appends zero bytes to path until it holds a whole number of frames and
// returns the number of bytes added.
func Pad(path string, frameBytes int64) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	target := PaddedSize(info.Size(), frameBytes)
	added := target - info.Size()
	if added == 0 {
		return 0, nil
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return 0, fmt.Errorf("open %s for padding: %w", path, err)
	}
	if _, err := f.Write(make([]byte, added)); err != nil {
		_ = f.Close()
		return 0, fmt.Errorf("pad %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", path, err)
	}
	return added, nil
}

// Stage copies src into workDir and pads the copy, leaving the user's file
// untouched. The caller removes the returned path when done.
func Stage(src, workDir string, frameBytes int64) (string, error) {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", fmt.Errorf("create work directory: %w", err)
	}
	staged := filepath.Join(workDir, filepath.Base(src))
	if same, err := samePath(src, staged); err != nil {
		return "", err
	} else if same {
		return "", fmt.Errorf("refusing to stage %s onto itself", src)
	}
	if err := fileutil.CopyFileVerified(src, staged); err != nil {
		return "", fmt.Errorf("stage %s: %w", src, err)
	}
	if _, err := Pad(staged, frameBytes); err != nil {
		_ = fileutil.RemoveIfExists(staged)
		return "", err
	}
	return staged, nil
}

func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return absA == absB, nil
}
