package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/fingerpick/internal/interaction"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] +%dms %s\n", event.Seq, event.AtMs, event.Label())
		}
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion against a finished result and
// returns one message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertFinalState:
			if msgs := checkExpect("final_state", a.Expect, result.Final); len(msgs) > 0 {
				err = &AssertionError{
					Type:     AssertFinalState,
					Expected: "final state to match",
					Actual:   strings.Join(msgs, "; "),
				}
			}
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func matches(event TraceEvent, kind, detail string) bool {
	return event.Kind == kind && (detail == "" || event.Detail == detail)
}

// assertTraceContains checks that some entry has the event kind and, when
// given, the exact detail.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if matches(event, assertion.Event, assertion.Detail) {
			return nil
		}
	}
	want := assertion.Event
	if assertion.Detail != "" {
		want += ":" + assertion.Detail
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: want,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the labels appear in order. Entries need not
// be consecutive; each label matches either a kind or a kind:detail.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	pos := 0
	for _, want := range assertion.Events {
		found := false
		for pos < len(trace) {
			event := trace[pos]
			pos++
			if event.Label() == want || event.Kind == want {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("events in order: %v", assertion.Events),
				Actual:   fmt.Sprintf("%s missing or out of order", want),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks the exact number of matching entries.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if matches(event, assertion.Event, assertion.Detail) {
			count++
		}
	}
	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Event),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// checkExpect compares state against the set fields of e.
func checkExpect(where string, e *Expect, state FinalState) []string {
	if e == nil {
		return nil
	}
	var msgs []string
	fail := func(format string, args ...any) {
		msgs = append(msgs, where+": "+fmt.Sprintf(format, args...))
	}

	if e.Phase != "" && e.Phase != state.Phase {
		fail("phase = %s, want %s", state.Phase, e.Phase)
	}
	if e.Touches != nil && *e.Touches != state.Touches {
		fail("touches = %d, want %d", state.Touches, *e.Touches)
	}
	if e.Pending != nil {
		got := slices.Clone(state.Pending)
		want := slices.Clone(*e.Pending)
		slices.Sort(got)
		slices.Sort(want)
		if !slices.Equal(got, want) {
			fail("pending = %v, want %v", got, want)
		}
	}

	needResult := e.Selected != nil || len(e.SelectedIDs) > 0 || len(e.TeamSizes) > 0
	if !needResult {
		return msgs
	}
	r := state.Result
	if r == nil {
		fail("no result")
		return msgs
	}
	if e.Selected != nil && len(r.Selected) != *e.Selected {
		fail("selected %d identities, want %d", len(r.Selected), *e.Selected)
	}
	if len(e.SelectedIDs) > 0 && !slices.Equal(r.Selected, e.SelectedIDs) {
		fail("selected = %v, want %v", r.Selected, e.SelectedIDs)
	}
	if len(e.TeamSizes) > 0 {
		if got := TeamSizes(r); !slices.Equal(got, e.TeamSizes) {
			fail("team sizes = %v, want %v", got, e.TeamSizes)
		}
	}
	return msgs
}

// TeamSizes counts members per team, indexed by team.
func TeamSizes(r *interaction.Result) []int {
	if r == nil || len(r.Teams) == 0 {
		return nil
	}
	top := 0
	for _, team := range r.Teams {
		top = max(top, team)
	}
	sizes := make([]int, top+1)
	for _, team := range r.Teams {
		sizes[team]++
	}
	return sizes
}
