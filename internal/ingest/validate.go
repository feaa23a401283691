package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrValidation marks files that fail the upload security checks. A job
// whose source file fails validation never starts processing.
var ErrValidation = errors.New("file validation failed")

var magicByExt = map[string][]byte{
	".docx": []byte("PK"),
	".pdf":  []byte("%PDF"),
}

// ValidateFile checks that the file exists, fits the size ceiling, carries
// an allowed extension and starts with the matching magic bytes.
func ValidateFile(path string, maxBytes int64) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrValidation, path)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return fmt.Errorf("%w: file size %d exceeds limit %d", ErrValidation, info.Size(), maxBytes)
	}

	ext := strings.ToLower(filepath.Ext(path))
	magic, ok := magicByExt[ext]
	if !ok {
		return fmt.Errorf("%w: unsupported file type %q", ErrValidation, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	defer f.Close()

	head := make([]byte, len(magic))
	if _, err := io.ReadFull(f, head); err != nil {
		return fmt.Errorf("%w: read header: %v", ErrValidation, err)
	}
	if !bytes.Equal(head, magic) {
		return fmt.Errorf("%w: file content does not match %s signature", ErrValidation, ext)
	}
	return nil
}
