package simulator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/safedep/covenant/simulator/prng"
	"gopkg.in/yaml.v3"
)

// Weights is an ordered category to weight map. Order is significant: it
// decides which category a weighted draw lands on.
type Weights []prng.Entry

// Get returns the weight for key.
func (w Weights) Get(key string) (float64, bool) {
	for _, e := range w {
		if e.Value == key {
			return e.Weight, true
		}
	}
	return 0, false
}

// Entries returns the weights as generator entries.
func (w Weights) Entries() []prng.Entry {
	return []prng.Entry(w)
}

// MarshalJSON encodes the weights as an object in insertion order.
func (w Weights) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range w {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(e.Weight)
		if err != nil {
			return nil, fmt.Errorf("weight %q: %w", e.Value, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object, keeping key order. Values that are not
// numbers are kept as NaN so normalization drops them.
func (w *Weights) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*w = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("weights must be an object")
	}

	out := Weights{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		out = out.set(key, parseWeight(raw))
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*w = out
	return nil
}

// UnmarshalYAML decodes a mapping node, keeping key order.
func (w *Weights) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("weights must be a mapping")
	}

	out := Weights{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		weight := math.NaN()
		var f float64
		if err := node.Content[i+1].Decode(&f); err == nil {
			weight = f
		}
		out = out.set(node.Content[i].Value, weight)
	}

	*w = out
	return nil
}

// set replaces an existing key in place or appends a new one.
func (w Weights) set(key string, weight float64) Weights {
	for i := range w {
		if w[i].Value == key {
			w[i].Weight = weight
			return w
		}
	}
	return append(w, prng.Entry{Value: key, Weight: weight})
}

func parseWeight(raw json.RawMessage) float64 {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if f, err := n.Float64(); err == nil {
			return f
		}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return math.NaN()
}
