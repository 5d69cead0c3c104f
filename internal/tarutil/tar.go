// Package tarutil implements the File Packager (§4.2): building a POSIX
// tar byte stream from logical files for injection via put_archive.
package tarutil

import (
	"archive/tar"
	"bytes"
	"errors"
	"io"
	"time"

	"github.com/burenotti/runbox/pkg/models"
)

// BuildArchive packages files into a tar stream with one entry per file at
// the archive root, the file's Name as the entry path, mode 0644, owner
// root, size exact, and mtime set to now (§4.2/§6).
func BuildArchive(files []models.File) ([]byte, error) {
	var buf bytes.Buffer
	w := tar.NewWriter(&buf)
	now := time.Now()

	for _, f := range files {
		hdr := &tar.Header{
			Name:    f.Name,
			Mode:    0644,
			Size:    int64(len(f.Content)),
			ModTime: now,
			Uid:     0,
			Gid:     0,
		}
		if err := w.WriteHeader(hdr); err != nil {
			return nil, err
		}
		if _, err := w.Write(f.Content); err != nil {
			return nil, err
		}
	}

	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExtractFiles reverses BuildArchive, for round-trip tests (§8).
func ExtractFiles(data []byte) ([]models.File, error) {
	r := tar.NewReader(bytes.NewReader(data))
	var out []models.File
	for {
		hdr, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		content := make([]byte, hdr.Size)
		if _, err := io.ReadFull(r, content); err != nil {
			return nil, err
		}
		file, err := models.NewFile(hdr.Name, content, models.FileKindBinary)
		if err != nil {
			return nil, err
		}
		out = append(out, file)
	}
	return out, nil
}
