// Package docx reads and writes the main document part of a .docx archive.
package docx

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DocumentPart is the archive entry holding the main document body.
const DocumentPart = "word/document.xml"

// ErrNoDocument is returned when an archive has no main document part.
var ErrNoDocument = errors.New("missing " + DocumentPart)

// File is an open .docx archive.
type File struct {
	zr     *zip.ReadCloser
	markup string
}

// Open opens a .docx archive and reads its main document part.
func Open(path string) (*File, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening ZIP archive: %w", err)
	}

	f := &File{zr: zr}
	data, err := f.read(DocumentPart)
	if err != nil {
		zr.Close()
		return nil, err
	}
	f.markup = string(data)

	return f, nil
}

// Close releases the archive.
func (f *File) Close() error {
	if f.zr != nil {
		err := f.zr.Close()
		f.zr = nil
		return err
	}
	return nil
}

// Markup returns the main document part as read from the archive.
func (f *File) Markup() string {
	return f.markup
}

func (f *File) read(name string) ([]byte, error) {
	for _, zf := range f.zr.File {
		if zf.Name != name {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		return data, nil
	}
	return nil, ErrNoDocument
}

// Save writes a copy of the archive to path with the main document part
// replaced by markup. Every other entry is copied without recompression.
// The file is written to a temp file and renamed into place.
func (f *File) Save(path, markup string) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*.docx")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on error
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	zw := zip.NewWriter(tmpFile)
	for _, zf := range f.zr.File {
		if zf.Name != DocumentPart {
			if err := zw.Copy(zf); err != nil {
				tmpFile.Close()
				return fmt.Errorf("copying %s: %w", zf.Name, err)
			}
			continue
		}

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     zf.Name,
			Method:   zip.Deflate,
			Modified: zf.Modified,
		})
		if err != nil {
			tmpFile.Close()
			return fmt.Errorf("creating %s: %w", DocumentPart, err)
		}
		if _, err := io.WriteString(w, markup); err != nil {
			tmpFile.Close()
			return fmt.Errorf("writing %s: %w", DocumentPart, err)
		}
	}

	if err := zw.Close(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("finishing archive: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	success = true
	return nil
}

// ReadMarkup opens path and returns its main document part.
func ReadMarkup(path string) (string, error) {
	f, err := Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return f.Markup(), nil
}
