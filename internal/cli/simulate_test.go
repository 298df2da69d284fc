package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fingerpick/internal/harness"
)

func TestSimulateText(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewSimulateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(scenariosDir, "pick_two_of_three.yaml")})

	require.NoError(t, cmd.Execute())
	out := buf.String()
	assert.Contains(t, out, "pick_two_of_three")
	assert.Contains(t, out, "tracking->deciding")
	assert.Contains(t, out, "+3000ms")
	assert.Contains(t, out, "selected=1,2")
	assert.Contains(t, out, "scenario passed")
}

func TestSimulateJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewSimulateCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(scenariosDir, "team_partition.yaml")})

	require.NoError(t, cmd.Execute())

	var result SimulateResult
	resp := decodeResponse(t, buf.Bytes(), &result)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, result.Pass)
	assert.Equal(t, "team_partition", result.Scenario)
	assert.Equal(t, "teams=0:0,1:0,2:1,3:1,4:2,5:2,6:0,7:1", result.Result)
	require.NotEmpty(t, result.Trace)
	assert.Equal(t, "down", result.Trace[0].Kind)
}

func TestSimulateFailingScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fails.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`name: fails
description: Expects a lock that never comes.
steps:
  - down:
      - {id: 1}
    expect:
      phase: locked
`), 0644))

	buf := &bytes.Buffer{}
	cmd := NewSimulateCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result SimulateResult
	resp := decodeResponse(t, buf.Bytes(), &result)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_SCENARIO_FAILED", resp.Error.Code)
	assert.False(t, result.Pass)
	assert.NotEmpty(t, result.Errors)
}

func TestSimulateMissingFile(t *testing.T) {
	cmd := NewSimulateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"/nonexistent/scenario.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTraceTable(t *testing.T) {
	table, err := TraceTable([]harness.TraceEvent{
		{Seq: 1, AtMs: 0, Kind: "down", Detail: "1"},
		{Seq: 2, AtMs: 1000, Kind: "sound", Detail: "trigger"},
	})
	require.NoError(t, err)
	assert.Contains(t, table, "seq")
	assert.Contains(t, table, "+1000ms")
	assert.Contains(t, table, "trigger")
}
