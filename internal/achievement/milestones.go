package achievement

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Milestones are the counter thresholds that unlock a badge of each kind.
var Milestones = []int{1, 5, 10, 20, 50, 100}

const (
	standardPrefix = "goal_"
	perfectPrefix  = "perfect_"
)

// MedalID builds the badge id for a kind and threshold, e.g. goal_5 or perfect_10.
func MedalID(kind Kind, threshold int) string {
	if kind == KindPerfect {
		return perfectPrefix + strconv.Itoa(threshold)
	}
	return standardPrefix + strconv.Itoa(threshold)
}

// ParseMedalID splits a badge id into its kind and threshold. Ids that do not
// follow the goal_N / perfect_N shape are reported as not ok.
func ParseMedalID(id string) (Kind, int, bool) {
	var kind Kind
	var raw string
	switch {
	case strings.HasPrefix(id, standardPrefix):
		kind, raw = KindStandard, strings.TrimPrefix(id, standardPrefix)
	case strings.HasPrefix(id, perfectPrefix):
		kind, raw = KindPerfect, strings.TrimPrefix(id, perfectPrefix)
	default:
		return "", 0, false
	}
	threshold, err := strconv.Atoi(raw)
	if err != nil || threshold < 0 {
		return "", 0, false
	}
	return kind, threshold, true
}

// Describe returns the display form of a badge.
func Describe(kind Kind, threshold int) Achievement {
	a := Achievement{
		ID:        MedalID(kind, threshold),
		Type:      kind,
		Threshold: threshold,
	}
	if kind == KindPerfect {
		a.Title = fmt.Sprintf("Perfectionist Level %d", threshold)
		a.Description = fmt.Sprintf("Completed %d perfect goals!", threshold)
		a.Icon = "star-outline"
		return a
	}
	a.Title = fmt.Sprintf("Achiever Level %d", threshold)
	a.Description = fmt.Sprintf("Completed %d goals!", threshold)
	a.Icon = "trophy-outline"
	return a
}

// Catalog lists every badge, standard ones first, in threshold order.
func Catalog() []Achievement {
	out := make([]Achievement, 0, 2*len(Milestones))
	for _, kind := range []Kind{KindStandard, KindPerfect} {
		for _, m := range Milestones {
			out = append(out, Describe(kind, m))
		}
	}
	return out
}

// sortMedals orders badge ids by kind, then threshold; unrecognised ids go last.
func sortMedals(ids []string) {
	rank := func(id string) (int, int) {
		kind, threshold, ok := ParseMedalID(id)
		switch {
		case !ok:
			return 2, 0
		case kind == KindPerfect:
			return 1, threshold
		default:
			return 0, threshold
		}
	}
	sort.SliceStable(ids, func(i, j int) bool {
		ki, ti := rank(ids[i])
		kj, tj := rank(ids[j])
		if ki != kj {
			return ki < kj
		}
		if ti != tj {
			return ti < tj
		}
		return ids[i] < ids[j]
	})
}
