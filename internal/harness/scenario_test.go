package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")

	content := `
name: test_scenario
description: "Test scenario for validation"
config:
  threshold: 2
  mode: team
seed: 7
steps:
  - down:
      - {id: 1, x: 10, y: 20}
      - {id: 2}
  - move:
      - {id: 1, x: 11, y: 21}
  - up: [2]
  - hide: true
  - advance: 250
    expect:
      phase: idle
      touches: 0
      pending: []
assertions:
  - type: trace_contains
    event: hide
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	s, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", s.Name)
	assert.Equal(t, 2, s.Config.Threshold)
	assert.Equal(t, "team", s.Config.Mode)
	assert.Equal(t, 2, s.Config.TeamCount, "unset keys keep their defaults")
	require.NotNil(t, s.Seed)
	assert.Equal(t, uint64(7), *s.Seed)

	require.Len(t, s.Steps, 5)
	assert.Equal(t, "down", s.Steps[0].Action())
	assert.Equal(t, Pointer{ID: 1, X: 10, Y: 20}, s.Steps[0].Down[0])
	assert.Equal(t, "move", s.Steps[1].Action())
	assert.Equal(t, "up", s.Steps[2].Action())
	assert.Equal(t, "hide", s.Steps[3].Action())
	assert.Equal(t, "advance", s.Steps[4].Action())
	require.NotNil(t, s.Steps[4].Expect)
	require.NotNil(t, s.Steps[4].Expect.Pending)
	assert.Empty(t, *s.Steps[4].Expect.Pending)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\nsteps:\n  - hide: true\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\nsteps:\n  - hide: true\n",
			wantErr: "description is required",
		},
		{
			name:    "no steps",
			content: "name: n\ndescription: d\n",
			wantErr: "steps list is required",
		},
		{
			name:    "unknown field",
			content: "name: n\ndescription: d\nflow: []\nsteps:\n  - hide: true\n",
			wantErr: "field flow not found",
		},
		{
			name:    "empty step",
			content: "name: n\ndescription: d\nsteps:\n  - expect:\n      phase: idle\n",
			wantErr: "steps[0]: one of down",
		},
		{
			name:    "two actions",
			content: "name: n\ndescription: d\nsteps:\n  - hide: true\n    advance: 10\n",
			wantErr: "steps[0]: 2 actions in one step",
		},
		{
			name:    "unknown phase",
			content: "name: n\ndescription: d\nsteps:\n  - hide: true\n    expect:\n      phase: sleeping\n",
			wantErr: `unknown phase "sleeping"`,
		},
		{
			name:    "unknown timer",
			content: "name: n\ndescription: d\nsteps:\n  - hide: true\n    expect:\n      pending: [nap]\n",
			wantErr: `unknown timer "nap"`,
		},
		{
			name:    "bad mode",
			content: "name: n\ndescription: d\nconfig:\n  mode: shuffle\nsteps:\n  - hide: true\n",
			wantErr: "config:",
		},
		{
			name:    "assertion without type",
			content: "name: n\ndescription: d\nsteps:\n  - hide: true\nassertions:\n  - event: hide\n",
			wantErr: "assertions[0]: type is required",
		},
		{
			name:    "trace_order without events",
			content: "name: n\ndescription: d\nsteps:\n  - hide: true\nassertions:\n  - type: trace_order\n",
			wantErr: "events list is required",
		},
		{
			name:    "final_state without expect",
			content: "name: n\ndescription: d\nsteps:\n  - hide: true\nassertions:\n  - type: final_state\n",
			wantErr: "expect is required for final_state",
		},
		{
			name:    "unknown assertion",
			content: "name: n\ndescription: d\nsteps:\n  - hide: true\nassertions:\n  - type: eventually\n",
			wantErr: `unknown assertion type "eventually"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseScenario_InvalidTeamCountIsAllowed(t *testing.T) {
	s, err := ParseScenario([]byte("name: n\ndescription: d\nconfig:\n  team_count: 0\nsteps:\n  - hide: true\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, s.Config.TeamCount)
}

func TestConfigPatch_Apply(t *testing.T) {
	s, err := ParseScenario([]byte("name: n\ndescription: d\nsteps:\n  - configure:\n      threshold: 3\n      keep_locked: false\n"))
	require.NoError(t, err)

	before := s.Config
	after := s.Steps[0].Configure.Apply(before)
	assert.Equal(t, 3, after.Threshold)
	assert.False(t, after.KeepLocked)
	assert.Equal(t, before.Mode, after.Mode)
	assert.Equal(t, before.TeamCount, after.TeamCount)
}

func TestLoadScenarios_SortedByFileName(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)

	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
	}
	assert.Equal(t, []string{
		"configure_team",
		"hide_interrupts",
		"invalid_team_count",
		"pick_two_of_three",
		"team_partition",
		"unknown_touch_up",
	}, names)
}

func TestLoadScenarios_ReportsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: x\n"), 0644))

	_, err := LoadScenarios(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yaml")
}
