package models

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// FileKind distinguishes how a File's content is encoded on injection.
type FileKind string

const (
	FileKindText   FileKind = "text"
	FileKindBinary FileKind = "binary"
)

// File is an immutable logical file destined for a sandbox's working
// directory (§3). Text content is UTF-8 on injection; binary content is
// passed through untouched.
type File struct {
	Name    string
	Content []byte
	Kind    FileKind
}

// NewFile validates and constructs a File.
func NewFile(name string, content []byte, kind FileKind) (File, error) {
	if name == "" {
		return File{}, fmt.Errorf("models: file name must not be empty")
	}
	if kind == "" {
		kind = FileKindText
	}
	return File{Name: name, Content: content, Kind: kind}, nil
}

type fileDoc struct {
	Name    string `json:"name" yaml:"name"`
	Content string `json:"content" yaml:"content"`
	Type    string `json:"type,omitempty" yaml:"type,omitempty"`
}

func decodeFileDoc(name, content, kind string) (File, error) {
	fk := FileKind(kind)
	if fk == "" {
		fk = FileKindText
	}
	var raw []byte
	if fk == FileKindBinary {
		decoded, err := base64.StdEncoding.DecodeString(content)
		if err != nil {
			return File{}, fmt.Errorf("models: decode binary file %q: %w", name, err)
		}
		raw = decoded
	} else {
		raw = []byte(content)
	}
	return NewFile(name, raw, fk)
}

// UnmarshalJSON accepts the declarative File schema (§6): {name, content,
// type?}. content is a plain string for text files and base64 for binary.
func (f *File) UnmarshalJSON(data []byte) error {
	var doc fileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	file, err := decodeFileDoc(doc.Name, doc.Content, doc.Type)
	if err != nil {
		return err
	}
	*f = file
	return nil
}

func (f File) MarshalJSON() ([]byte, error) {
	doc := fileDoc{Name: f.Name, Type: string(f.Kind)}
	if f.Kind == FileKindBinary {
		doc.Content = base64.StdEncoding.EncodeToString(f.Content)
	} else {
		doc.Content = string(f.Content)
	}
	return json.Marshal(doc)
}

// UnmarshalYAML mirrors UnmarshalJSON for YAML pipeline documents (§6).
func (f *File) UnmarshalYAML(value *yaml.Node) error {
	var doc fileDoc
	if err := value.Decode(&doc); err != nil {
		return err
	}
	file, err := decodeFileDoc(doc.Name, doc.Content, doc.Type)
	if err != nil {
		return err
	}
	*f = file
	return nil
}
