package interaction

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_JSON(t *testing.T) {
	s := Snapshot{
		Phase:  PhaseLocked,
		Mode:   ModeTeam,
		Locked: true,
		Radius: 100,
		Points: []DrawPoint{{ID: 2, X: 1, Y: 2, Color: "#f44336", Team: 1}},
	}

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"phase":"locked"`)
	assert.Contains(t, string(data), `"mode":"team"`)

	var back Snapshot
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s, back)
}

func TestPhase_UnmarshalUnknown(t *testing.T) {
	var p Phase
	err := json.Unmarshal([]byte(`"asleep"`), &p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown phase "asleep"`)
}

func TestMode_UnmarshalUnknown(t *testing.T) {
	var m Mode
	assert.Error(t, json.Unmarshal([]byte(`"shuffle"`), &m))
	require.NoError(t, json.Unmarshal([]byte(`"rank"`), &m))
	assert.Equal(t, ModeRank, m)
}
