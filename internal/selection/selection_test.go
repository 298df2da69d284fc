package selection

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fingerpick/internal/testutil"
)

func ids(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestPickN_ReturnsExactlyNUniqueMembers(t *testing.T) {
	src := NewSource(7)
	for size := 1; size <= 10; size++ {
		for n := 0; n <= size; n++ {
			t.Run(fmt.Sprintf("size=%d/n=%d", size, n), func(t *testing.T) {
				all := ids(size)
				got, err := PickN(all, n, src)
				require.NoError(t, err)
				assert.Len(t, got, n)

				seen := make(map[int]bool)
				for _, id := range got {
					assert.Contains(t, all, id)
					assert.False(t, seen[id], "duplicate identity %d", id)
					seen[id] = true
				}
			})
		}
	}
}

func TestPickN_SortedResult(t *testing.T) {
	got, err := PickN([]int{5, 1, 3, 9}, 3, testutil.ReverseSource{})
	require.NoError(t, err)
	// reversed order is 9,3,1,5; the first three sorted
	assert.Equal(t, []int{1, 3, 9}, got)
}

func TestPickN_CountAtLeastSizeReturnsAll(t *testing.T) {
	got, err := PickN([]int{4, 2}, 5, NewSource(1))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4}, got)
}

func TestPickN_EmptyInput(t *testing.T) {
	got, err := PickN(nil, 2, NewSource(1))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPickN_NegativeCount(t *testing.T) {
	_, err := PickN([]int{1, 2}, -1, NewSource(1))
	require.Error(t, err)
	assert.True(t, IsInvalidArgument(err))
}

func TestPickN_DoesNotMutateInput(t *testing.T) {
	in := []int{1, 2, 3}
	_, err := PickN(in, 1, testutil.ReverseSource{})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, in)
}

func TestPickN_EveryIdentityCanWin(t *testing.T) {
	src := NewSource(42)
	wins := make(map[int]int)
	for i := 0; i < 600; i++ {
		got, err := PickN([]int{0, 1, 2}, 1, src)
		require.NoError(t, err)
		wins[got[0]]++
	}
	for id := 0; id < 3; id++ {
		assert.Greater(t, wins[id], 100, "identity %d won %d times", id, wins[id])
	}
}

func TestPartitionTeams_ScenarioB(t *testing.T) {
	teams, err := PartitionTeams(ids(8), 3, testutil.StableSource{})
	require.NoError(t, err)

	assert.Equal(t, map[int]int{
		0: 0, 1: 0,
		2: 1, 3: 1,
		4: 2, 5: 2,
		6: 0, 7: 1,
	}, teams)
	assert.Equal(t, []int{3, 3, 2}, TeamSizes(teams, 3))
}

func TestPartitionTeams_OverflowFollowsShuffledOrder(t *testing.T) {
	teams, err := PartitionTeams(ids(8), 3, testutil.ReverseSource{})
	require.NoError(t, err)

	// encounter order 7,6,...: 7 is dealt to team 0, 6 to team 1
	assert.Equal(t, 0, teams[7])
	assert.Equal(t, 1, teams[6])
	assert.Equal(t, []int{3, 3, 2}, TeamSizes(teams, 3))
}

func TestPartitionTeams_TotalMapping(t *testing.T) {
	src := NewSource(3)
	for size := 1; size <= 10; size++ {
		for teamCount := 1; teamCount <= 6; teamCount++ {
			t.Run(fmt.Sprintf("size=%d/teams=%d", size, teamCount), func(t *testing.T) {
				all := ids(size)
				teams, err := PartitionTeams(all, teamCount, src)
				require.NoError(t, err)
				require.Len(t, teams, size)
				for _, id := range all {
					team, ok := teams[id]
					require.True(t, ok, "identity %d unmapped", id)
					assert.GreaterOrEqual(t, team, 0)
					assert.Less(t, team, teamCount)
				}
			})
		}
	}
}

func TestPartitionTeams_FewerIdentitiesThanTeams(t *testing.T) {
	teams, err := PartitionTeams([]int{0, 1}, 4, testutil.StableSource{})
	require.NoError(t, err)
	assert.Equal(t, map[int]int{0: 0, 1: 1}, teams)
}

func TestPartitionTeams_SparseIdentities(t *testing.T) {
	// base = 4/2 = 2; 9/2 and 8/2 overflow
	teams, err := PartitionTeams([]int{0, 3, 8, 9}, 2, testutil.StableSource{})
	require.NoError(t, err)
	assert.Equal(t, map[int]int{0: 0, 3: 1, 8: 0, 9: 1}, teams)
}

func TestPartitionTeams_SingleTeam(t *testing.T) {
	teams, err := PartitionTeams(ids(5), 1, NewSource(9))
	require.NoError(t, err)
	for _, team := range teams {
		assert.Equal(t, 0, team)
	}
}

func TestPartitionTeams_InvalidTeamCount(t *testing.T) {
	for _, tc := range []int{0, -1} {
		teams, err := PartitionTeams(ids(4), tc, NewSource(1))
		require.Error(t, err)
		assert.Nil(t, teams)
		assert.True(t, IsInvalidArgument(err))
		assert.Contains(t, err.Error(), "INVALID_ARGUMENT")
	}
}

func TestPickRank_Unsupported(t *testing.T) {
	got, err := PickRank(ids(3), 1)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, IsUnsupportedMode(err))
	assert.False(t, IsInvalidArgument(err))
}

func TestErrorHelpers_Wrapped(t *testing.T) {
	err := fmt.Errorf("pick: %w", NewInvalidArgument("team_count", 0, 1))
	assert.True(t, IsInvalidArgument(err))
	assert.False(t, IsUnsupportedMode(err))
	assert.False(t, IsInvalidArgument(fmt.Errorf("plain")))
}

func TestTeamSizes(t *testing.T) {
	assert.Equal(t, []int{2, 1}, TeamSizes(map[int]int{0: 0, 1: 1, 2: 0}, 2))
	assert.Nil(t, TeamSizes(map[int]int{0: 0}, 0))
}
