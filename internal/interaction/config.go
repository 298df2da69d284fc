package interaction

import (
	"fmt"
	"time"

	"github.com/roach88/fingerpick/internal/touch"
)

// Mode selects the decision algorithm.
type Mode int

const (
	// ModePick selects Threshold identities at random.
	ModePick Mode = iota
	// ModeTeam partitions every identity into TeamCount teams.
	ModeTeam
	// ModeRank has no algorithm; picks fail with UNSUPPORTED_MODE.
	ModeRank
)

var modeNames = map[Mode]string{
	ModePick: "pick",
	ModeTeam: "team",
	ModeRank: "rank",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// MarshalText encodes the mode by name.
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText decodes a mode name.
func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMode resolves "pick", "team" or "rank".
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q: must be pick, team or rank", s)
}

// MovePolicy decides whether moves update positions while locked.
type MovePolicy int

const (
	// MoveIgnoreWhenLocked freezes positions once a result is locked.
	MoveIgnoreWhenLocked MovePolicy = iota
	// MoveAlways keeps tracking positions in every phase.
	MoveAlways
)

var movePolicyNames = map[MovePolicy]string{
	MoveIgnoreWhenLocked: "ignore_when_locked",
	MoveAlways:           "always",
}

func (p MovePolicy) String() string {
	if name, ok := movePolicyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("move_policy(%d)", int(p))
}

// ParseMovePolicy resolves "ignore_when_locked" or "always".
func ParseMovePolicy(s string) (MovePolicy, error) {
	for p, name := range movePolicyNames {
		if name == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown move policy %q: must be ignore_when_locked or always", s)
}

// Delays holds every timer length the machine arms.
type Delays struct {
	Pick          time.Duration
	SoundCue      time.Duration
	AnimStart     time.Duration
	AnimRepeat    time.Duration
	AnimAfterPick time.Duration
	PickReset     time.Duration
	TeamReset     time.Duration
	Explain       time.Duration
}

// DefaultDelays mirrors the timings of the handheld picker.
func DefaultDelays() Delays {
	return Delays{
		Pick:          3000 * time.Millisecond,
		SoundCue:      1000 * time.Millisecond,
		AnimStart:     300 * time.Millisecond,
		AnimRepeat:    15 * time.Millisecond,
		AnimAfterPick: 30 * time.Millisecond,
		PickReset:     2000 * time.Millisecond,
		TeamReset:     4000 * time.Millisecond,
		Explain:       2000 * time.Millisecond,
	}
}

// ResetFor returns the lock duration for a mode. Teams take longer to read.
func (d Delays) ResetFor(m Mode) time.Duration {
	if m == ModeTeam {
		return d.TeamReset
	}
	return d.PickReset
}

// Radius bounds a pulsing circle. The radius grows by Step per tick and
// wraps to Min once it reaches Max.
type Radius struct {
	Min  float64
	Max  float64
	Step float64
}

// next advances r by one tick.
func (b Radius) next(r float64) float64 {
	r += b.Step
	if r >= b.Max {
		return b.Min
	}
	return r
}

// Config parameterises a Machine.
type Config struct {
	// Threshold is the finger count a pick selects. Deciding arms only when
	// strictly more fingers than Threshold are down.
	Threshold int
	Mode      Mode
	// TeamCount is the number of teams in ModeTeam. Not validated here: a
	// value below 1 makes the pick fail with INVALID_ARGUMENT.
	TeamCount int
	Capacity  int

	MovePolicy MovePolicy
	// KeepLocked ignores touch-downs and moves while a result is shown.
	// When false, a new touch-down unlocks immediately.
	KeepLocked bool
	// Explain arms a delayed "not enough fingers" notification when the
	// touch count is at or below Threshold.
	Explain bool

	Delays Delays

	Tracking Radius
	Selected Radius

	VibrateDuration  time.Duration
	VibrateAmplitude int
}

// DefaultConfig returns a pick-one configuration with the stock timings.
func DefaultConfig() Config {
	return Config{
		Threshold:        1,
		Mode:             ModePick,
		TeamCount:        2,
		Capacity:         touch.DefaultCapacity,
		MovePolicy:       MoveIgnoreWhenLocked,
		KeepLocked:       true,
		Explain:          true,
		Delays:           DefaultDelays(),
		Tracking:         Radius{Min: 50, Max: 60, Step: 1},
		Selected:         Radius{Min: 100, Max: 110, Step: 1},
		VibrateDuration:  100 * time.Millisecond,
		VibrateAmplitude: 100,
	}
}
