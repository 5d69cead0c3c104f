package loader

import (
	"encoding/base64"
	"os"

	"github.com/burenotti/runbox/internal/pipeline"
	"github.com/burenotti/runbox/pkg/models"
	"github.com/burenotti/runbox/pkg/rberrors"
)

// fileOrLoadableDoc is the declarative File | LoadableFile union (§4.9/§6):
// LoadableFile adds an optional path, and requires exactly one of
// path/content.
type fileOrLoadableDoc struct {
	Name    string  `json:"name"`
	Content *string `json:"content"`
	Path    *string `json:"path"`
	Type    string  `json:"type"`
}

func (f fileOrLoadableDoc) toFile() (models.File, error) {
	hasContent := f.Content != nil
	hasPath := f.Path != nil
	if hasContent == hasPath {
		return models.File{}, &rberrors.ConfigError{
			Message: "file \"" + f.Name + "\": exactly one of path or content must be set",
		}
	}

	kind := models.FileKind(f.Type)
	if kind == "" {
		kind = models.FileKindText
	}

	var raw []byte
	if hasPath {
		data, err := os.ReadFile(*f.Path)
		if err != nil {
			return models.File{}, &rberrors.ConfigError{Message: "loading file \"" + f.Name + "\": " + err.Error()}
		}
		raw = data
	} else if kind == models.FileKindBinary {
		decoded, err := base64.StdEncoding.DecodeString(*f.Content)
		if err != nil {
			return models.File{}, &rberrors.ConfigError{Message: "decoding file \"" + f.Name + "\": " + err.Error()}
		}
		raw = decoded
	} else {
		raw = []byte(*f.Content)
	}

	return models.NewFile(f.Name, raw, kind)
}

// useSandboxDoc is the wire shape of use_sandbox's params (§6), kept
// separate from pipeline.UseSandboxParams because Files here accepts the
// richer File|LoadableFile union.
type useSandboxDoc struct {
	Key     string                         `json:"key"`
	Profile models.DockerProfile           `json:"profile"`
	Limits  *models.Limits                 `json:"limits"`
	Files   []fileOrLoadableDoc            `json:"files"`
	Mounts  []pipeline.SandboxMountParams  `json:"mounts"`
	// Attach is a pointer so an omitted field can be told apart from an
	// explicit false; resolve() passes it through unchanged and
	// pipeline.NewUseSandbox turns a nil value into true.
	Attach *bool `json:"attach"`
}

func decodeUseSandboxDoc(raw []byte) (useSandboxDoc, error) {
	var doc useSandboxDoc
	if err := unmarshalJSON(raw, &doc); err != nil {
		return useSandboxDoc{}, err
	}
	return doc, nil
}

func (doc useSandboxDoc) resolve() (pipeline.UseSandboxParams, error) {
	files := make([]models.File, 0, len(doc.Files))
	for _, f := range doc.Files {
		file, err := f.toFile()
		if err != nil {
			return pipeline.UseSandboxParams{}, err
		}
		files = append(files, file)
	}

	return pipeline.UseSandboxParams{
		Key:     doc.Key,
		Profile: doc.Profile,
		Limits:  doc.Limits,
		Files:   files,
		Mounts:  doc.Mounts,
		Attach:  doc.Attach,
	}, nil
}
