package document

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Format is a serialization of the persisted schema.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatHCL  Format = "hcl"
)

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".hcl":
		return FormatHCL, nil
	}
	return "", fmt.Errorf("unsupported document extension %q", filepath.Ext(path))
}

// Marshal serializes doc. HCL is read-only: it is an authoring format.
func (c *Codec) Marshal(doc *domain.Document, format Format) ([]byte, error) {
	f, err := c.Encode(doc)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatJSON:
		return json.MarshalIndent(f, "", "  ")
	case FormatYAML:
		return yaml.Marshal(f)
	}
	return nil, fmt.Errorf("cannot export format %q", format)
}

// Unmarshal parses data in the given format.
// The filename is only used in HCL diagnostics.
func (c *Codec) Unmarshal(data []byte, format Format, filename string) (*domain.Document, error) {
	var f File
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case FormatHCL:
		parsed, err := parseHCL(data, filename)
		if err != nil {
			return nil, err
		}
		f = parsed
	default:
		return nil, fmt.Errorf("cannot import format %q", format)
	}
	if f.ID == "" {
		f.ID = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	return c.Decode(f)
}

// ReadFile loads a document, picking the format from the extension.
func ReadFile(path string) (*domain.Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return defaultCodec.Unmarshal(data, format, path)
}

// WriteFile saves a document as JSON or YAML, picking the format from the extension.
func WriteFile(path string, doc *domain.Document) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := defaultCodec.Marshal(doc, format)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Marshal serializes doc with the built-in registries.
func Marshal(doc *domain.Document, format Format) ([]byte, error) {
	return defaultCodec.Marshal(doc, format)
}

// Unmarshal parses a document with the built-in registries.
func Unmarshal(data []byte, format Format, filename string) (*domain.Document, error) {
	return defaultCodec.Unmarshal(data, format, filename)
}
