package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/safedep/covenant/cli"
	"github.com/safedep/covenant/storage"
)

const testPolicy = `spec_version: 1.0.0
defaults:
  unmatched: deny
actors:
  humans:
    - id: maintainers
      match:
        usernames: [alice, bob]
  agents:
    - id: bots
      match:
        usernames: ["ci-bot[bot]"]
rules:
  - id: humans-comment
    actor: human
    action: issue.comment
    outcome: allow
  - id: agent-pr-open
    actor: agent
    action: pull_request.open
    requirements:
      attestation: required
    outcome: allow
  - id: pr-any
    actor: any
    action: pull_request.*
    outcome: warn
requirements:
  on_failure: deny
attestation:
  contract: covenant.attestation.v1
  max_age_seconds: 600
  nonce_ttl_seconds: 1800
enforcement:
  deny:
    - type: fail_status
      context: covenant/policy
policies:
  agent_eligible_labels:
    labels: [agent-friendly]
`

const openPolicy = `spec_version: 1.0.0
defaults:
  unmatched: allow
rules:
  - id: never
    actor: manager
    action: routing.to_develop_bot
    outcome: allow
`

const humanComment = `{"action":"issue.comment","actor":{"id":"alice"},"repository":{"name":"acme/project"},"target":{"labels":[]}}`

const agentPullRequest = `{"action":"pull_request.open","actor":{"id":"ci-bot[bot]"},"repository":{"name":"acme/project"},"target":{"branch":"main","labels":[]}}`

type testEnv struct {
	t          *testing.T
	tmpDir     string
	dbPath     string
	configPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, "")
}

// newTestEnvWithConfig creates a working directory holding covenant.yml
// and open.yml and changes into it.
func newTestEnvWithConfig(t *testing.T, configYAML string) *testEnv {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	configPath := filepath.Join(tmpDir, "config.yaml")

	if configYAML == "" {
		configYAML = fmt.Sprintf(`simulation:
  count: 40
  seed: e2e
  hours: 4
storage:
  path: %s
  retention_days: 90
display:
  colors: never
`, dbPath)
	}

	require.NoError(t, os.WriteFile(configPath, []byte(configYAML), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "covenant.yml"), []byte(testPolicy), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "open.yml"), []byte(openPolicy), 0o600))

	t.Chdir(tmpDir)

	return &testEnv{
		t:          t,
		tmpDir:     tmpDir,
		dbPath:     dbPath,
		configPath: configPath,
	}
}

func (env *testEnv) run(args ...string) (stdout, stderr string, err error) {
	env.t.Helper()

	var outBuf, errBuf bytes.Buffer
	rootCmd := cli.NewRootCmd()
	rootCmd.SetOut(&outBuf)
	rootCmd.SetErr(&errBuf)

	fullArgs := append([]string{"--config", env.configPath, "--no-color"}, args...)
	rootCmd.SetArgs(fullArgs)
	err = rootCmd.ExecuteContext(context.Background())
	return outBuf.String(), errBuf.String(), err
}

func (env *testEnv) writeFile(name, content string) string {
	env.t.Helper()

	path := filepath.Join(env.tmpDir, name)
	require.NoError(env.t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (env *testEnv) openStore() (storage.Store, func()) {
	env.t.Helper()

	store, err := storage.NewSQLiteStore(env.dbPath)
	require.NoError(env.t, err)
	err = store.Init(context.Background())
	require.NoError(env.t, err)

	return store, func() {
		err := store.Close()
		require.NoError(env.t, err)
	}
}

func (env *testEnv) savedRuns() []*storage.Run {
	env.t.Helper()

	store, cleanup := env.openStore()
	defer cleanup()

	runs, err := store.QueryRuns(context.Background(), storage.NewRunFilter())
	require.NoError(env.t, err)
	return runs
}

func decodeJSON(t *testing.T, s string) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &out), s)
	return out
}

func exitCode(err error) int {
	if err == nil {
		return cli.ExitSuccess
	}
	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return cli.ExitGeneral
}
