// Package harness replays touch scenarios against the interaction machine.
//
// The harness drives a real engine.Engine synchronously (Engine.Step) over a
// clockwork fake clock, records a trace of inputs, phase changes and
// intents, and evaluates assertions against it.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: pick_two_of_three
//	description: "Three fingers, threshold two"
//	config:            # same keys as the fingerpick config file
//	  threshold: 2
//	seed: 42           # optional; without it shuffles keep input order
//	steps:
//	  - down: [{id: 1}, {id: 2}, {id: 3}]
//	    expect: {phase: deciding}
//	  - advance: 3000  # milliseconds
//	    expect: {phase: locked, selected_ids: [1, 2]}
//	  - up: [1, 2, 3]
//	assertions:
//	  - type: trace_contains
//	    event: sound
//	    detail: select
//	  - type: trace_order
//	    events: ["phase:tracking->deciding", "sound:select"]
//	  - type: trace_count
//	    event: vibrate
//	    count: 1
//	  - type: final_state
//	    expect: {phase: idle, touches: 0, pending: []}
//
// Each step holds exactly one of down, move, up, hide, advance or
// configure. The scenario config is converted but not schema-validated, so
// fixtures can exercise configurations the CLI would refuse (team_count: 0).
//
// # Deterministic Testing
//
// Every scenario runs with:
//   - a fake clock starting at testutil.Epoch
//   - testutil.StableSource unless a seed is given
//   - trace seq numbers from engine.Clock
//
// Advance moves the clock deadline by deadline, so every trace entry is
// stamped with the exact millisecond its timer was due. Redraw intents and
// animation ticks are left out of the trace; they would swamp it.
//
// # Golden Files
//
// RunWithGolden compares the JSON trace with testdata/golden/<name>.golden.
// Regenerate with:
//
//	go test ./internal/harness -update
package harness
