package policy

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/safedep/covenant/utils/stablejson"
	"gopkg.in/yaml.v3"
)

// DefaultPolicyFile is the policy path used when none is given.
const DefaultPolicyFile = "covenant.yml"

// Loaded is a parsed and validated policy together with its provenance.
type Loaded struct {
	Path   string
	Raw    []byte
	Policy *Policy
	Hash   string
}

// Parse decodes a YAML (or JSON) policy document, validates it and returns
// the policy with its content hash.
func Parse(data []byte) (*Policy, string, error) {
	var document any
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, "", fmt.Errorf("failed to parse policy: %w", err)
	}
	root, ok := normalizeDocument(document).(map[string]any)
	if !ok {
		return nil, "", &ValidationError{Issues: []Issue{{Path: "$", Message: "policy must be an object"}}}
	}

	hash, err := HashDocument(document)
	if err != nil {
		return nil, "", err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var p Policy
	if err := dec.Decode(&p); err != nil {
		return nil, "", &ValidationError{Issues: []Issue{{Path: "$", Message: err.Error()}}}
	}

	issues := missingKeys(root)
	var verr *ValidationError
	if err := Validate(&p); errors.As(err, &verr) {
		for _, issue := range verr.Issues {
			if !slices.Contains(issues, issue) {
				issues = append(issues, issue)
			}
		}
	} else if err != nil {
		return nil, "", err
	}
	if len(issues) > 0 {
		return nil, "", &ValidationError{Issues: issues}
	}

	return &p, hash, nil
}

// Load reads and parses the policy file at path.
func Load(path string) (*Loaded, error) {
	if path == "" {
		path = DefaultPolicyFile
	}

	absolute, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve policy path: %w", err)
	}

	raw, err := os.ReadFile(absolute)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy: %w", err)
	}

	p, hash, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	return &Loaded{
		Path:   absolute,
		Raw:    raw,
		Policy: p,
		Hash:   hash,
	}, nil
}

// HashDocument returns the lowercase hex SHA-256 of the key-sorted JSON
// encoding of a generic policy document.
func HashDocument(document any) (string, error) {
	canonical, err := stablejson.Marshal(normalizeDocument(document))
	if err != nil {
		return "", fmt.Errorf("failed to encode policy for hashing: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Hash computes the content hash of a typed policy by round-tripping it
// through its YAML form. Policies loaded from disk should use the hash
// returned by Parse, which is computed over the source document.
func Hash(p *Policy) (string, error) {
	if p == nil {
		return "", errors.New("policy is nil")
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode policy: %w", err)
	}
	var document any
	if err := yaml.Unmarshal(data, &document); err != nil {
		return "", fmt.Errorf("failed to decode policy: %w", err)
	}
	return HashDocument(document)
}

// normalizeDocument converts YAML maps with interface keys into string keyed
// maps.
func normalizeDocument(v any) any {
	switch value := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(value))
		for k, item := range value {
			out[fmt.Sprint(k)] = normalizeDocument(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(value))
		for k, item := range value {
			out[k] = normalizeDocument(item)
		}
		return out
	case []any:
		out := make([]any, len(value))
		for i, item := range value {
			out[i] = normalizeDocument(item)
		}
		return out
	default:
		return v
	}
}
