package achievement

import "slices"

var kinds = []Kind{KindStandard, KindPerfect}

// RecordCompletion appends entry to the history, bumps the counters and
// returns the badges this completion unlocked.
func (s *Stats) RecordCompletion(entry CompletedGoalEntry) []Achievement {
	s.TotalGoalsCompleted++
	if entry.IsPerfect {
		s.PerfectGoalsCompleted++
	}
	s.History = append(s.History, entry)
	return s.reconcileMedals()
}

// RemoveCompletion drops the history entry with the given id and re-derives the
// badge set from the decremented counters. It reports false when no entry matched.
func (s *Stats) RemoveCompletion(entryID string) (CompletedGoalEntry, bool) {
	idx := s.historyIndex(entryID)
	if idx < 0 {
		return CompletedGoalEntry{}, false
	}

	entry := s.History[idx]
	s.History = slices.Delete(s.History, idx, idx+1)
	s.TotalGoalsCompleted = max(0, s.TotalGoalsCompleted-1)
	if entry.IsPerfect {
		s.PerfectGoalsCompleted = max(0, s.PerfectGoalsCompleted-1)
	}
	s.reconcileMedals()
	return entry, true
}

// HasMedal reports whether the badge id is unlocked.
func (s *Stats) HasMedal(id string) bool {
	return slices.Contains(s.UnlockedMedals, id)
}

func (s *Stats) historyIndex(entryID string) int {
	return slices.IndexFunc(s.History, func(e CompletedGoalEntry) bool {
		return e.ID == entryID
	})
}

func (s *Stats) counter(kind Kind) int {
	if kind == KindPerfect {
		return s.PerfectGoalsCompleted
	}
	return s.TotalGoalsCompleted
}

// reconcileMedals makes the badge set match the counters: every milestone that
// is met is held, every recognised badge whose threshold is no longer met is
// dropped, and unrecognised ids are kept. It returns the badges that were added.
func (s *Stats) reconcileMedals() []Achievement {
	held := make(map[string]bool, len(s.UnlockedMedals))
	for _, id := range s.UnlockedMedals {
		held[id] = true
	}

	var unlocked []Achievement
	for _, kind := range kinds {
		count := s.counter(kind)
		for _, m := range Milestones {
			id := MedalID(kind, m)
			if count >= m && !held[id] {
				held[id] = true
				unlocked = append(unlocked, Describe(kind, m))
			}
		}
	}

	medals := make([]string, 0, len(held))
	for id := range held {
		if kind, threshold, ok := ParseMedalID(id); ok && s.counter(kind) < threshold {
			continue
		}
		medals = append(medals, id)
	}
	sortMedals(medals)
	s.UnlockedMedals = medals
	return unlocked
}

// Replay builds stats from scratch by recording every history entry in order.
func Replay(userID string, history []CompletedGoalEntry) Stats {
	stats := emptyStats(userID)
	for _, entry := range history {
		stats.RecordCompletion(entry)
	}
	return stats
}
