package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/safedep/dry/log"

	"github.com/safedep/covenant/core/events"
	"github.com/safedep/covenant/core/policy"
	"github.com/safedep/covenant/simulator"
)

// ensureWithinWorkingDir rejects paths that resolve outside the current
// working directory.
func ensureWithinWorkingDir(path string) error {
	resolved, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path %s: %w", path, err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}

	if resolved != cwd && !strings.HasPrefix(resolved, cwd+string(filepath.Separator)) {
		return fmt.Errorf("path is outside the working directory and cannot be read: %s", path)
	}
	return nil
}

// loadPolicy loads a policy file inside the working directory.
func loadPolicy(path string) (*policy.Loaded, error) {
	if err := ensureWithinWorkingDir(path); err != nil {
		return nil, NewCLIError(ExitGeneral, err.Error())
	}

	loaded, err := policy.Load(path)
	if err != nil {
		return nil, ErrPolicy(path, err)
	}

	log.Debugf("loaded policy %s (%s)", loaded.Path, loaded.Hash)
	return loaded, nil
}

// loadPolicyEntries loads every policy for a comparison run. Each policy is
// identified by its file name.
func loadPolicyEntries(paths []string) ([]simulator.PolicyEntry, error) {
	var entries []simulator.PolicyEntry
	taken := make(map[string]bool, len(paths))
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}

		loaded, err := loadPolicy(path)
		if err != nil {
			return nil, err
		}

		id := policyEntryID(path, len(entries), taken)
		taken[id] = true

		entries = append(entries, simulator.PolicyEntry{
			ID:         id,
			Policy:     loaded.Policy,
			PolicyHash: loaded.Hash,
			Source:     loaded.Path,
		})
	}

	if len(entries) == 0 {
		return nil, NewCLIError(ExitGeneral, "at least one policy path must be provided")
	}
	return entries, nil
}

// policyEntryID names a policy by its file name. Colliding names fall back
// to the path as given, then to a positional suffix.
func policyEntryID(path string, position int, taken map[string]bool) string {
	id := filepath.Base(path)
	if id == "" || id == "." || id == string(filepath.Separator) {
		id = fmt.Sprintf("policy-%d", position+1)
	}
	if !taken[id] {
		return id
	}

	if cleaned := filepath.ToSlash(filepath.Clean(path)); !taken[cleaned] {
		return cleaned
	}
	for n := position + 1; ; n++ {
		candidate := fmt.Sprintf("%s#%d", id, n)
		if !taken[candidate] {
			return candidate
		}
	}
}

// readJSONInput returns the contents of raw when it names an existing
// file, otherwise raw itself.
func readJSONInput(raw string) ([]byte, error) {
	if raw == "" {
		return nil, fmt.Errorf("input must be a non-empty JSON string or file path")
	}

	if stat, err := os.Stat(raw); err == nil && stat.Mode().IsRegular() {
		data, err := os.ReadFile(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", raw, err)
		}
		return data, nil
	}

	return []byte(raw), nil
}

// parseJSONInput decodes a JSON document given inline or as a file path.
func parseJSONInput(raw string, v any) error {
	data, err := readJSONInput(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("JSON parsing error: %w", err)
	}
	return nil
}

// parseEventInput decodes a canonical event given inline or as a file path.
func parseEventInput(raw string) (*events.Event, error) {
	data, err := readJSONInput(raw)
	if err != nil {
		return nil, err
	}
	return events.Parse(data)
}
