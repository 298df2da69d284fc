package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/fingerpick/internal/config"
	"github.com/roach88/fingerpick/internal/interaction"
	"github.com/roach88/fingerpick/internal/scheduler"
)

// Scenario defines a touch scenario: a config, a list of timed inputs and
// assertions on the resulting trace and final state.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config starts from config.Default; only listed keys change.
	Config config.Config `yaml:"config"`

	// Seed selects a seeded PCG source. Nil keeps shuffles stable.
	Seed *uint64 `yaml:"seed,omitempty"`

	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	// Supported types: trace_contains, trace_order, trace_count, final_state
	Assertions []Assertion `yaml:"assertions"`
}

// Pointer is one contact in a down or move step.
type Pointer struct {
	ID int     `yaml:"id"`
	X  float64 `yaml:"x"`
	Y  float64 `yaml:"y"`
}

// Step is one input. Exactly one of the action fields is set.
type Step struct {
	Down      []Pointer    `yaml:"down,omitempty"`
	Move      []Pointer    `yaml:"move,omitempty"`
	Up        []int        `yaml:"up,omitempty"`
	Hide      bool         `yaml:"hide,omitempty"`
	Advance   int          `yaml:"advance,omitempty"`
	Configure *ConfigPatch `yaml:"configure,omitempty"`

	Expect *Expect `yaml:"expect,omitempty"`
}

// Action names the step's input kind.
func (s Step) Action() string {
	switch {
	case len(s.Down) > 0:
		return "down"
	case len(s.Move) > 0:
		return "move"
	case len(s.Up) > 0:
		return "up"
	case s.Hide:
		return "hide"
	case s.Advance > 0:
		return "advance"
	case s.Configure != nil:
		return "configure"
	default:
		return ""
	}
}

func (s Step) actionCount() int {
	n := 0
	for _, set := range []bool{len(s.Down) > 0, len(s.Move) > 0, len(s.Up) > 0, s.Hide, s.Advance > 0, s.Configure != nil} {
		if set {
			n++
		}
	}
	return n
}

// ConfigPatch changes selected settings mid-scenario.
type ConfigPatch struct {
	Threshold  *int    `yaml:"threshold,omitempty"`
	Mode       *string `yaml:"mode,omitempty"`
	TeamCount  *int    `yaml:"team_count,omitempty"`
	MovePolicy *string `yaml:"move_policy,omitempty"`
	KeepLocked *bool   `yaml:"keep_locked,omitempty"`
	Explain    *bool   `yaml:"explain,omitempty"`
}

// Apply returns cfg with the patch applied.
func (p ConfigPatch) Apply(cfg config.Config) config.Config {
	if p.Threshold != nil {
		cfg.Threshold = *p.Threshold
	}
	if p.Mode != nil {
		cfg.Mode = *p.Mode
	}
	if p.TeamCount != nil {
		cfg.TeamCount = *p.TeamCount
	}
	if p.MovePolicy != nil {
		cfg.MovePolicy = *p.MovePolicy
	}
	if p.KeepLocked != nil {
		cfg.KeepLocked = *p.KeepLocked
	}
	if p.Explain != nil {
		cfg.Explain = *p.Explain
	}
	return cfg
}

// Expect lists checks on the machine state. Unset fields are not checked.
type Expect struct {
	Phase   string    `yaml:"phase,omitempty"`
	Touches *int      `yaml:"touches,omitempty"`
	Pending *[]string `yaml:"pending,omitempty"`
	// Selected is the number of selected identities in a pick result.
	Selected    *int  `yaml:"selected,omitempty"`
	SelectedIDs []int `yaml:"selected_ids,omitempty"`
	TeamSizes   []int `yaml:"team_sizes,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type is one of trace_contains, trace_order, trace_count, final_state.
	Type string `yaml:"type"`

	// Event is the trace kind (trace_contains, trace_count).
	Event string `yaml:"event,omitempty"`

	// Detail must equal the entry's detail when set.
	Detail string `yaml:"detail,omitempty"`

	// Count is the expected number of matches (trace_count).
	Count int `yaml:"count,omitempty"`

	// Events are kind or kind:detail labels in expected order (trace_order).
	Events []string `yaml:"events,omitempty"`

	// Expect is checked against the final state (final_state).
	Expect *Expect `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	scenario := Scenario{Config: config.Default()}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	slices.Sort(paths)

	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		out = append(out, s)
	}
	return out, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if _, err := s.Config.Machine(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	for i, step := range s.Steps {
		switch n := step.actionCount(); {
		case n == 0:
			return fmt.Errorf("steps[%d]: one of down, move, up, hide, advance or configure is required", i)
		case n > 1:
			return fmt.Errorf("steps[%d]: %d actions in one step", i, n)
		}
		if step.Advance < 0 {
			return fmt.Errorf("steps[%d]: advance must be positive", i)
		}
		if step.Expect != nil {
			if err := validateExpect(step.Expect); err != nil {
				return fmt.Errorf("steps[%d].expect: %w", i, err)
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateExpect(e *Expect) error {
	if e.Phase != "" {
		if _, ok := interaction.ParsePhase(e.Phase); !ok {
			return fmt.Errorf("unknown phase %q", e.Phase)
		}
	}
	if e.Pending != nil {
		for _, name := range *e.Pending {
			if _, ok := scheduler.ParseTag(name); !ok {
				return fmt.Errorf("unknown timer %q", name)
			}
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Expect == nil {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
		if err := validateExpect(a.Expect); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
