// Package fileutil provides small filesystem and media-type helpers shared
// by the upload pipeline and the drop-folder watcher.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// MediaKind classifies an input file for job submission.
type MediaKind string

const (
	KindAudio    MediaKind = "audio"
	KindVideo    MediaKind = "video"
	KindDocument MediaKind = "document"
	KindText     MediaKind = "text"
)

var kindByExtension = map[string]MediaKind{
	".mp3":  KindAudio,
	".m4a":  KindAudio,
	".wav":  KindAudio,
	".ogg":  KindAudio,
	".opus": KindAudio,
	".flac": KindAudio,
	".mp4":  KindVideo,
	".mkv":  KindVideo,
	".mov":  KindVideo,
	".webm": KindVideo,
	".avi":  KindVideo,
	".pdf":  KindDocument,
	".docx": KindDocument,
	".txt":  KindText,
	".md":   KindText,
}

var contentTypeByExtension = map[string]string{
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".opus": "audio/opus",
	".flac": "audio/flac",
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
	".md":   "text/markdown",
}

// DetectMediaKind classifies a file by extension.
func DetectMediaKind(path string) (MediaKind, bool) {
	kind, ok := kindByExtension[strings.ToLower(filepath.Ext(path))]
	return kind, ok
}

// ContentTypeFor returns the MIME type for a file, defaulting to
// application/octet-stream for unknown extensions.
func ContentTypeFor(path string) string {
	if ct, ok := contentTypeByExtension[strings.ToLower(filepath.Ext(path))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// IsSupportedMedia reports whether the watcher should pick up a file.
func IsSupportedMedia(path string) bool {
	_, ok := DetectMediaKind(path)
	return ok
}

// MoveFile renames src to dst, falling back to copy-and-remove when the two
// paths live on different filesystems.
func MoveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create target directory: %w", err)
	}
	if err := os.Rename(src, dst); err != nil {
		var linkErr *os.LinkError
		if errors.As(err, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV) {
			if err := copyFileContents(src, dst); err != nil {
				return fmt.Errorf("copy file across devices: %w", err)
			}
			if err := os.Remove(src); err != nil {
				return fmt.Errorf("remove source after copy: %w", err)
			}
			return nil
		}
		return fmt.Errorf("move file: %w", err)
	}
	return nil
}

func copyFileContents(src, dst string) error {
	source, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer source.Close()

	info, err := source.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	dest, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	if _, err := io.Copy(dest, source); err != nil {
		dest.Close()
		return fmt.Errorf("copy data: %w", err)
	}
	if err := dest.Sync(); err != nil {
		dest.Close()
		return fmt.Errorf("sync destination: %w", err)
	}
	if err := dest.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}
	return nil
}
