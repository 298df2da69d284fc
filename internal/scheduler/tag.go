package scheduler

// Tag names a timer. The set is closed: decoding an unknown integer is not
// possible because tags never leave the process.
type Tag int

const (
	// TagSoundCue plays the "about to pick" cue.
	TagSoundCue Tag = iota + 1
	// TagPick makes the decision.
	TagPick
	// TagAnimBeforePick pulses the circles while deciding.
	TagAnimBeforePick
	// TagAnimAfterPick pulses the selected circles while locked.
	TagAnimAfterPick
	// TagReset unlocks and returns to idle.
	TagReset
	// TagExplain tells the user more fingers are needed.
	TagExplain
)

// AllTags lists every tag in declaration order.
var AllTags = []Tag{
	TagSoundCue,
	TagPick,
	TagAnimBeforePick,
	TagAnimAfterPick,
	TagReset,
	TagExplain,
}

var tagNames = map[Tag]string{
	TagSoundCue:       "sound_cue",
	TagPick:           "pick",
	TagAnimBeforePick: "anim_before_pick",
	TagAnimAfterPick:  "anim_after_pick",
	TagReset:          "reset",
	TagExplain:        "explain",
}

// String returns the snake_case name used in logs and scenario files.
func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseTag resolves a snake_case name back to its tag.
func ParseTag(name string) (Tag, bool) {
	for tag, n := range tagNames {
		if n == name {
			return tag, true
		}
	}
	return 0, false
}
