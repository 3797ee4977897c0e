// Package export converts a forest to and from the interchange formats the
// CLI reads and writes: the JSON document, the same document as YAML, and
// zstd-compressed JSON.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/nanotree/types"
	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"
)

// Format is an interchange format.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
	FormatJSONZstd
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatJSONZstd:
		return "json.zst"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat maps a format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "json.zst", "zst", "zstd":
		return FormatJSONZstd, nil
	default:
		return 0, fmt.Errorf("unknown format %q (want json, yaml or zst)", name)
	}
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".zst":
		return FormatJSONZstd, nil
	default:
		return 0, fmt.Errorf("cannot infer format from %q", path)
	}
}

// Encode writes forest to w in format f.
func Encode(w io.Writer, forest []*types.Node, f Format) error {
	doc, err := types.EncodeDocument(forest)
	if err != nil {
		return err
	}
	switch f {
	case FormatJSON:
		_, err = w.Write(append(doc, '\n'))
		return err
	case FormatYAML:
		return encodeYAML(w, doc)
	case FormatJSONZstd:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return fmt.Errorf("creating zstd encoder: %w", err)
		}
		if _, err := enc.Write(doc); err != nil {
			enc.Close()
			return fmt.Errorf("compressing: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("closing encoder: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format %s", f)
	}
}

// Decode reads a forest in format f from r.
func Decode(r io.Reader, f Format) ([]*types.Node, error) {
	switch f {
	case FormatJSON:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return types.DecodeDocument(data)
	case FormatYAML:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return decodeYAML(data)
	case FormatJSONZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("creating zstd decoder: %w", err)
		}
		defer dec.Close()
		data, err := io.ReadAll(dec)
		if err != nil {
			return nil, fmt.Errorf("decompressing: %w", err)
		}
		return types.DecodeDocument(data)
	default:
		return nil, fmt.Errorf("unsupported format %s", f)
	}
}

// encodeYAML re-renders the JSON document as block YAML. Going through a
// yaml.Node keeps the JSON field order.
func encodeYAML(w io.Writer, doc []byte) error {
	var root yaml.Node
	if err := yaml.Unmarshal(doc, &root); err != nil {
		return fmt.Errorf("converting to yaml: %w", err)
	}
	clearStyle(&root)
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&root); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}

func clearStyle(n *yaml.Node) {
	n.Style = 0
	for _, child := range n.Content {
		clearStyle(child)
	}
}

func decodeYAML(data []byte) ([]*types.Node, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	if doc == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return nil, fmt.Errorf("converting yaml to json: %w", err)
	}
	return types.DecodeDocument(buf.Bytes())
}
