package checks

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/samvad-hq/restprobe/pkg/rest"
	"gopkg.in/yaml.v3"
)

// Data is request data that keeps the key order written in the checks file.
type Data rest.Fields

// Fields converts Data to rest.Fields.
func (d Data) Fields() rest.Fields { return rest.Fields(d) }

// UnmarshalYAML decodes a YAML mapping preserving key order.
func (d *Data) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*d = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("data must be a mapping (line %d)", node.Line)
	}

	out := make(Data, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var key string
		if err := node.Content[i].Decode(&key); err != nil {
			return fmt.Errorf("data key (line %d): %w", node.Content[i].Line, err)
		}
		var val any
		if err := node.Content[i+1].Decode(&val); err != nil {
			return fmt.Errorf("data %q: %w", key, err)
		}
		out = append(out, rest.F(key, val))
	}
	*d = out
	return nil
}

// UnmarshalJSON decodes a JSON object preserving key order.
func (d *Data) UnmarshalJSON(raw []byte) error {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		*d = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("data must be a JSON object")
	}

	var out Data
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("data key must be a string")
		}
		var val any
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("data %q: %w", key, err)
		}
		out = append(out, rest.F(key, val))
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*d = out
	return nil
}
