// Package codec converts whiteboards to and from their persisted and exported
// file forms (JSON and YAML).
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/easel/pkg/core"
)

// Document is the on-disk form of a whiteboard. Elements keep the exported
// element shape.
type Document struct {
	ID           string         `json:"id" yaml:"id"`
	Owner        string         `json:"owner,omitempty" yaml:"owner,omitempty"`
	Title        string         `json:"title" yaml:"title"`
	CreatedAt    time.Time      `json:"createdAt" yaml:"createdAt"`
	LastModified time.Time      `json:"lastModified" yaml:"lastModified"`
	Elements     []core.Element `json:"elements" yaml:"elements"`
}

// FromWhiteboard builds the file form of wb.
func FromWhiteboard(wb core.Whiteboard) Document {
	elems := wb.Snapshot.Elements()
	if elems == nil {
		elems = []core.Element{}
	}
	return Document{
		ID:           wb.ID,
		Owner:        wb.Owner,
		Title:        wb.Title,
		CreatedAt:    wb.CreatedAt,
		LastModified: wb.UpdatedAt,
		Elements:     elems,
	}
}

// Whiteboard rebuilds the domain value. When an element breaks an invariant the
// header is still returned together with an error wrapping core.ErrMalformed.
func (d Document) Whiteboard() (core.Whiteboard, error) {
	wb := core.Whiteboard{
		ID:        d.ID,
		Owner:     d.Owner,
		Title:     d.Title,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.LastModified,
	}
	snap, err := core.FromElements(d.Title, d.Elements)
	if err != nil {
		wb.Snapshot = core.NewSnapshot(d.Title).Touch(d.LastModified)
		return wb, fmt.Errorf("%w: board %s: %w", core.ErrMalformed, d.ID, err)
	}
	wb.Snapshot = snap.Touch(d.LastModified)
	return wb, nil
}

// Serializer defines how to read and write a specific file format.
type Serializer interface {
	// Ext is the file extension, dot included.
	Ext() string
	// Encode converts the Document to bytes.
	Encode(doc Document) ([]byte, error)
	// Decode parses a Document. Syntax errors wrap core.ErrMalformed.
	Decode(data []byte) (Document, error)
	// EncodeElements writes the bare element array used for exports.
	EncodeElements(elems []core.Element) ([]byte, error)
}

// For returns the serializer for a format name ("json", "yaml", "yml") or an
// extension (".json", ...).
func For(format string) (Serializer, error) {
	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "", "json":
		return JSON{}, nil
	case "yaml", "yml":
		return YAML{}, nil
	}
	return nil, fmt.Errorf("%w: unknown format %q", core.ErrValidation, format)
}

// --- JSON ---

// JSON handles reading and writing JSON files.
type JSON struct{}

func (JSON) Ext() string { return ".json" }

func (JSON) Encode(doc Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

func (JSON) Decode(data []byte) (Document, error) {
	var doc Document
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("%w: invalid json: %w", core.ErrMalformed, err)
	}
	return doc, nil
}

func (JSON) EncodeElements(elems []core.Element) ([]byte, error) {
	if elems == nil {
		elems = []core.Element{}
	}
	return json.MarshalIndent(elems, "", "  ")
}

// --- YAML ---

// YAML handles reading and writing YAML files.
type YAML struct{}

func (YAML) Ext() string { return ".yaml" }

func (YAML) Encode(doc Document) ([]byte, error) {
	return yaml.Marshal(doc)
}

func (YAML) Decode(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: invalid yaml: %w", core.ErrMalformed, err)
	}
	return doc, nil
}

func (YAML) EncodeElements(elems []core.Element) ([]byte, error) {
	if elems == nil {
		elems = []core.Element{}
	}
	return yaml.Marshal(elems)
}

// Export renders the element array of snap in format and returns the download
// file name derived from the whiteboard title.
func Export(snap core.Snapshot, title, format string) (data []byte, filename string, err error) {
	s, err := For(format)
	if err != nil {
		return nil, "", err
	}
	data, err = s.EncodeElements(snap.Elements())
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode export: %w", err)
	}
	return data, Filename(title, s.Ext()), nil
}

// Filename turns a title into a safe file name with ext appended.
func Filename(title, ext string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, strings.TrimSpace(title))
	name = strings.Trim(name, ". ")
	if name == "" {
		name = "whiteboard"
	}
	return filepath.Clean(name) + ext
}
