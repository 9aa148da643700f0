// Package archive bundles an encode job's files into one zip so a single video
// carries them all, and unpacks such archives after a decode.
package archive

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"framestash/internal/services"
)

// Name returns the archive file name for a job.
func Name(jobID int64, files []string) string {
	base := "job"
	if len(files) > 0 {
		name := filepath.Base(files[0])
		if stem := strings.TrimSuffix(name, filepath.Ext(name)); stem != "" {
			base = stem
		}
	}
	return fmt.Sprintf("%d-%s.zip", jobID, base)
}

// Pack writes files into workDir/Name(jobID, files) and returns the archive path.
// Entries keep their base names; duplicate base names are rejected.
func Pack(jobID int64, files []string, workDir string) (string, error) {
	if len(files) == 0 {
		return "", services.Wrap(services.ErrValidation, "archive", "pack", "no files to archive", nil)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", fmt.Errorf("create work directory: %w", err)
	}

	seen := make(map[string]struct{}, len(files))
	for _, file := range files {
		name := filepath.Base(file)
		if _, dup := seen[name]; dup {
			return "", services.Wrap(services.ErrValidation, "archive", "pack", fmt.Sprintf("duplicate file name %q", name), nil)
		}
		seen[name] = struct{}{}
	}

	target := filepath.Join(workDir, Name(jobID, files))
	out, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}

	zw := zip.NewWriter(out)
	for _, file := range files {
		if err := addFile(zw, file); err != nil {
			_ = zw.Close()
			_ = out.Close()
			_ = os.Remove(target)
			return "", err
		}
	}
	if err := zw.Close(); err != nil {
		_ = out.Close()
		_ = os.Remove(target)
		return "", fmt.Errorf("finalize archive: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("close archive: %w", err)
	}
	return target, nil
}

func addFile(zw *zip.Writer, path string) error {
	in, err := os.Open(path)
	if err != nil {
		return services.Wrap(services.ErrNotFound, "archive", "pack", "open "+path, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return services.Wrap(services.ErrValidation, "archive", "pack", path+" is a directory", nil)
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("zip header for %s: %w", path, err)
	}
	header.Name = filepath.Base(path)
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("add %s: %w", path, err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Unpack extracts archivePath into destDir and returns the extracted paths.
// Trailing zero padding after the zip directory is tolerated.
func Unpack(archivePath, destDir string) ([]string, error) {
	zr, closer, err := openArchive(archivePath)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "archive", "unpack", "open "+archivePath, err)
	}
	defer closer.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("create destination: %w", err)
	}
	root, err := filepath.Abs(destDir)
	if err != nil {
		return nil, err
	}

	var extracted []string
	for _, entry := range zr.File {
		target, err := entryPath(root, entry.Name)
		if err != nil {
			return extracted, err
		}
		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return extracted, err
			}
			continue
		}
		if err := extractEntry(entry, target); err != nil {
			return extracted, err
		}
		extracted = append(extracted, target)
	}
	return extracted, nil
}

// openArchive opens a zip that may carry trailing zero padding. archive/zip
// only searches the last 64 KiB for the end of central directory record, so a
// file padded by more than that is read through a section ending at the
// record instead.
func openArchive(path string) (*zip.Reader, io.Closer, error) {
	rc, err := zip.OpenReader(path)
	if err == nil {
		return &rc.Reader, rc, nil
	}
	f, openErr := os.Open(path)
	if openErr != nil {
		return nil, nil, err
	}
	size, sizeErr := unpaddedSize(f)
	if sizeErr != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("%w (%v)", err, sizeErr)
	}
	zr, readErr := zip.NewReader(io.NewSectionReader(f, 0, size), size)
	if readErr != nil {
		_ = f.Close()
		return nil, nil, readErr
	}
	return zr, f, nil
}

const (
	endRecordSize       = 22
	maxEndRecordComment = 0xffff
	scanChunk           = 32 * 1024
)

var endRecordSignature = []byte{'P', 'K', 0x05, 0x06}

// unpaddedSize returns the length of the zip data in f with any trailing zero
// bytes removed. The end record's own fields may end in zeros, so the cut is
// placed after the last end record signature rather than at the last non-zero
// byte.
func unpaddedSize(f *os.File) (int64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	last, err := lastNonZero(f, info.Size())
	if err != nil {
		return 0, err
	}
	if last < 0 {
		return 0, errors.New("file contains only zero bytes")
	}

	start := max(last+1-(endRecordSize+maxEndRecordComment), 0)
	end := min(last+1+endRecordSize, info.Size())
	window := make([]byte, end-start)
	if _, err := f.ReadAt(window, start); err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}
	idx := bytes.LastIndex(window, endRecordSignature)
	if idx < 0 || idx+endRecordSize > len(window) {
		return 0, errors.New("end of central directory record not found")
	}
	commentLen := int64(binary.LittleEndian.Uint16(window[idx+20 : idx+22]))
	size := start + int64(idx) + endRecordSize + commentLen
	if size <= last || size > info.Size() {
		return 0, errors.New("data found after end of central directory record")
	}
	return size, nil
}

// lastNonZero returns the offset of the last non-zero byte in the first size
// bytes of r, or -1 when there is none.
func lastNonZero(r io.ReaderAt, size int64) (int64, error) {
	buf := make([]byte, scanChunk)
	for end := size; end > 0; {
		start := max(end-scanChunk, 0)
		chunk := buf[:end-start]
		if _, err := r.ReadAt(chunk, start); err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}
		for i := len(chunk) - 1; i >= 0; i-- {
			if chunk[i] != 0 {
				return start + int64(i), nil
			}
		}
		end = start
	}
	return -1, nil
}

func entryPath(root, name string) (string, error) {
	if name == "" || filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", services.Wrap(services.ErrValidation, "archive", "unpack", fmt.Sprintf("unsafe entry name %q", name), nil)
	}
	target := filepath.Join(root, filepath.FromSlash(name))
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", services.Wrap(services.ErrValidation, "archive", "unpack", fmt.Sprintf("entry %q escapes destination", name), nil)
	}
	return target, nil
}

func extractEntry(entry *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := entry.Open()
	if err != nil {
		return fmt.Errorf("open entry %s: %w", entry.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return fmt.Errorf("extract %s: %w", entry.Name, err)
	}
	return out.Close()
}
