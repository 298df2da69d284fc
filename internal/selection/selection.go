// Package selection computes random picks and team partitions over a set
// of pointer identities.
//
// Every function here is pure given its inputs and the Source: nothing is
// retained between calls, and results are fresh snapshots.
package selection

import (
	"math/rand/v2"
	"slices"
	"time"
)

// Source is the randomness a selection draws from.
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	Shuffle(n int, swap func(i, j int))
}

// NewSource returns a PCG-backed source. A zero seed is replaced by the
// current time so production pickers never repeat.
func NewSource(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// shuffled returns a shuffled copy of ids.
func shuffled(ids []int, src Source) []int {
	out := slices.Clone(ids)
	src.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// PickN draws a uniformly random permutation of ids and keeps the first
// min(n, len(ids)) entries. The result is sorted ascending.
//
// Callers normally have a strict surplus (len(ids) > n); when they do not,
// every identity is returned.
func PickN(ids []int, n int, src Source) ([]int, error) {
	if n < 0 {
		return nil, NewInvalidArgument("count", n, 0)
	}
	perm := shuffled(ids, src)
	if n < len(perm) {
		perm = perm[:n]
	}
	slices.Sort(perm)
	return perm, nil
}

// overflow marks an identity whose value-derived team is out of range.
const overflow = -1

// PartitionTeams maps every identity to a team in [0, teamCount).
//
// Let base = len(ids) / teamCount. Each identity v is first placed on team
// v/base when that is in range; the rest are overflow and are dealt
// round-robin from team 0 in shuffled encounter order. The team index is
// derived from the identity value, not its shuffled position, so repeated
// partitions of the same identity set only differ in where overflow lands.
// With fewer identities than teams (base == 0) every identity is overflow.
func PartitionTeams(ids []int, teamCount int, src Source) (map[int]int, error) {
	if teamCount < 1 {
		return nil, NewInvalidArgument("team_count", teamCount, 1)
	}

	order := shuffled(ids, src)
	base := len(ids) / teamCount

	teams := make(map[int]int, len(ids))
	for _, id := range order {
		team := overflow
		if base > 0 && id/base < teamCount {
			team = id / base
		}
		teams[id] = team
	}

	next := 0
	for _, id := range order {
		if teams[id] != overflow {
			continue
		}
		teams[id] = next % teamCount
		next++
	}
	return teams, nil
}

// PickRank has no algorithm; it always reports UNSUPPORTED_MODE.
func PickRank(ids []int, n int) ([]int, error) {
	return nil, NewUnsupportedMode("rank")
}

// TeamSizes counts members per team index.
func TeamSizes(teams map[int]int, teamCount int) []int {
	if teamCount < 1 {
		return nil
	}
	sizes := make([]int, teamCount)
	for _, team := range teams {
		if team >= 0 && team < teamCount {
			sizes[team]++
		}
	}
	return sizes
}
