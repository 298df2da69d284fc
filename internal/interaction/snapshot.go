package interaction

import "fmt"

// Phase is the machine's position in the wait → decide → lock → reset cycle.
type Phase int

const (
	// PhaseIdle has no touches and nothing locked.
	PhaseIdle Phase = iota
	// PhaseTracking has touches but no decision armed.
	PhaseTracking
	// PhaseDeciding has the sound cue, pick and animation timers armed.
	PhaseDeciding
	// PhaseLocked shows a fixed result until the reset timer fires.
	PhaseLocked
)

var phaseNames = map[Phase]string{
	PhaseIdle:     "idle",
	PhaseTracking: "tracking",
	PhaseDeciding: "deciding",
	PhaseLocked:   "locked",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "unknown"
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText decodes a phase name.
func (p *Phase) UnmarshalText(b []byte) error {
	parsed, ok := ParsePhase(string(b))
	if !ok {
		return fmt.Errorf("unknown phase %q", b)
	}
	*p = parsed
	return nil
}

// ParsePhase resolves a phase name.
func ParsePhase(s string) (Phase, bool) {
	for p, name := range phaseNames {
		if name == s {
			return p, true
		}
	}
	return 0, false
}

// Gray is the colour of untagged points in team mode.
const Gray = "#9e9e9e"

// DefaultPalette holds one colour per possible finger.
var DefaultPalette = []string{
	"#f44336", "#2196f3", "#4caf50", "#ffeb3b", "#9c27b0",
	"#ff9800", "#00bcd4", "#e91e63", "#8bc34a", "#3f51b5",
}

// DrawPoint is one circle to draw.
type DrawPoint struct {
	ID       int     `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Color    string  `json:"color"`
	Team     int     `json:"team"`
	Selected bool    `json:"selected"`
}

// Snapshot is an immutable description of what to draw.
//
// Unlocked, every tracked point is drawn (identity colours in pick mode,
// gray in team mode). Locked in pick mode, only the selected points are
// drawn; locked in team mode, every point is drawn in its team colour.
type Snapshot struct {
	Phase  Phase       `json:"phase"`
	Mode   Mode        `json:"mode"`
	Locked bool        `json:"locked"`
	Radius float64     `json:"radius"`
	Points []DrawPoint `json:"points"`
}

// SelectedIDs returns the identities marked selected.
func (s Snapshot) SelectedIDs() []int {
	var out []int
	for _, p := range s.Points {
		if p.Selected {
			out = append(out, p.ID)
		}
	}
	return out
}
