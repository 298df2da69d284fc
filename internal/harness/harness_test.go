package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fingerpick/internal/config"
)

func intp(v int) *int { return &v }

func newScenario(name string, steps ...Step) *Scenario {
	return &Scenario{
		Name:        name,
		Description: "test scenario " + name,
		Config:      config.Default(),
		Steps:       steps,
	}
}

func TestRun_MinimalScenario(t *testing.T) {
	s := newScenario("minimal",
		Step{Down: []Pointer{{ID: 0}}},
	)

	result, err := Run(s)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Pass)
	assert.Empty(t, result.Errors)

	labels := make([]string, len(result.Trace))
	for i, ev := range result.Trace {
		labels[i] = ev.Label()
	}
	assert.Equal(t, []string{"down:0", "pressed:true", "phase:idle->tracking"}, labels)
	assert.Equal(t, "tracking", result.Final.Phase)
	assert.Equal(t, []string{"explain"}, result.Final.Pending)
}

func TestRun_SeqsAreDense(t *testing.T) {
	s := newScenario("seqs",
		Step{Down: []Pointer{{ID: 0}, {ID: 1}}},
		Step{Advance: 3000},
	)

	result, err := Run(s)
	require.NoError(t, err)
	for i, ev := range result.Trace {
		assert.Equal(t, int64(i+1), ev.Seq)
	}
}

func TestRun_AdvanceFiresInDeadlineOrder(t *testing.T) {
	s := newScenario("deadlines",
		Step{Down: []Pointer{{ID: 0}, {ID: 1}}},
		Step{Advance: 10000},
	)

	result, err := Run(s)
	require.NoError(t, err)

	at := map[string]int64{}
	for _, ev := range result.Trace {
		at[ev.Label()] = ev.AtMs
	}
	assert.Equal(t, int64(1000), at["sound:trigger"])
	assert.Equal(t, int64(3000), at["sound:select"])
	assert.Equal(t, int64(5000), at["phase:locked->idle"])
	assert.Equal(t, "idle", result.Final.Phase)
}

func TestRun_ExpectFailureIsReported(t *testing.T) {
	s := newScenario("expect_fail",
		Step{
			Down:   []Pointer{{ID: 0}},
			Expect: &Expect{Phase: "locked", Touches: intp(3)},
		},
	)

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "steps[0] (down)")
	assert.Contains(t, result.Errors[0], "phase = tracking, want locked")
	assert.Contains(t, result.Errors[1], "touches = 1, want 3")
}

func TestRun_ExpectResultWithoutPick(t *testing.T) {
	s := newScenario("no_result",
		Step{
			Down:   []Pointer{{ID: 0}},
			Expect: &Expect{Selected: intp(1)},
		},
	)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "no result")
}

func TestRun_SeededSourceIsDeterministic(t *testing.T) {
	seed := uint64(42)
	build := func() *Scenario {
		s := newScenario("seeded",
			Step{Down: []Pointer{{ID: 0}, {ID: 1}, {ID: 2}, {ID: 3}}},
			Step{Advance: 3000},
		)
		s.Seed = &seed
		return s
	}

	first, err := Run(build())
	require.NoError(t, err)
	second, err := Run(build())
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
	require.NotNil(t, first.Final.Result)
	assert.Len(t, first.Final.Result.Selected, 1)
}

func TestRun_ConfigureStep(t *testing.T) {
	mode := "team"
	s := newScenario("configure",
		Step{Configure: &ConfigPatch{Mode: &mode, TeamCount: intp(2)}},
		Step{Down: []Pointer{{ID: 0}, {ID: 1}, {ID: 2}, {ID: 3}}},
		Step{Advance: 3000, Expect: &Expect{Phase: "locked", TeamSizes: []int{2, 2}}},
	)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.Equal(t, "configure", result.Trace[0].Kind)
	assert.Equal(t, "mode=team threshold=1 team_count=2", result.Trace[0].Detail)
}

func TestRun_ConfigureToUnknownModeFails(t *testing.T) {
	mode := "bogus"
	s := newScenario("bad_configure",
		Step{Configure: &ConfigPatch{Mode: &mode}},
	)

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps[0]")
}

func TestRun_MoveIsTracedWithoutPhaseChange(t *testing.T) {
	s := newScenario("move",
		Step{Down: []Pointer{{ID: 0, X: 1, Y: 1}}},
		Step{Move: []Pointer{{ID: 0, X: 50, Y: 60}}},
	)

	result, err := Run(s)
	require.NoError(t, err)

	last := result.Trace[len(result.Trace)-1]
	assert.Equal(t, "move:0", last.Label())
	require.Len(t, result.Final.Snapshot.Points, 1)
	assert.Equal(t, 50.0, result.Final.Snapshot.Points[0].X)
	assert.Equal(t, 60.0, result.Final.Snapshot.Points[0].Y)
}

func TestScenarioFiles(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_KeepsLockedResultAfterReset(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/pick_two_of_three.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.Equal(t, "idle", result.Final.Phase)
	assert.Nil(t, result.Final.Result)
	require.NotNil(t, result.Locked)
	assert.Equal(t, []int{1, 2}, result.Locked.Selected)
	assert.Equal(t, "selected=1,2", FormatResult(result.Locked))
}

func TestRun_NoLockedResultWithoutPick(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/unknown_touch_up.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.Nil(t, result.Locked)
	assert.Equal(t, "none", FormatResult(result.Locked))
}
