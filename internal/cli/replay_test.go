package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayDeterministic(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(scenariosDir, "team_partition.yaml"), "--runs", "5"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "team_partition: 5 run(s)")
	assert.Contains(t, buf.String(), "✓ deterministic")
}

func TestReplayJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewReplayCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(scenariosDir, "pick_two_of_three.yaml")})

	require.NoError(t, cmd.Execute())

	var result ReplayResult
	resp := decodeResponse(t, buf.Bytes(), &result)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, result.Deterministic)
	assert.Equal(t, 2, result.Runs)
	assert.Equal(t, "selected=1,2", result.Result)
	assert.Positive(t, result.Events)
	assert.Zero(t, result.FirstDivergence)
}

func TestReplayRejectsSingleRun(t *testing.T) {
	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{filepath.Join(scenariosDir, "pick_two_of_three.yaml"), "--runs", "1"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "--runs must be at least 2")
}

func TestReplayMissingScenario(t *testing.T) {
	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"/nonexistent/scenario.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
