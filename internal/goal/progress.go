package goal

import (
	"maps"
	"math"
	"slices"
	"sort"
)

// DailyPercentage converts a day's value into a completion percentage capped at 100.
func DailyPercentage(value, dailyTarget float64) int {
	return int(math.Min(100, math.Round(value/dailyTarget*100)))
}

// effectiveDailyTarget resolves the divisor for per-day percentages.
func (g *Goal) effectiveDailyTarget() (float64, error) {
	switch t := g.DailyTarget; {
	case math.IsNaN(t) || math.IsInf(t, 0) || t < 0:
		return 0, ErrInvalidDailyTarget
	case t == 0:
		return DefaultDailyTarget, nil
	default:
		return t, nil
	}
}

// RecordDailyProgress stores value as the day's entry, replacing any earlier
// entry for the same day, and keeps the running total and the completed-day
// set in step with it.
func (g *Goal) RecordDailyProgress(day string, value float64) (DailyProgressEntry, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return DailyProgressEntry{}, ErrInvalidProgress
	}
	target, err := g.effectiveDailyTarget()
	if err != nil {
		return DailyProgressEntry{}, err
	}

	entry := DailyProgressEntry{
		Progress:   value,
		Target:     target,
		Percentage: DailyPercentage(value, target),
	}

	previous := g.DailyProgress[day]
	total := g.ProgressTotal + (value - previous.Progress)
	if math.IsInf(total, 0) || math.IsNaN(total) {
		return DailyProgressEntry{}, ErrInvalidProgress
	}

	if g.DailyProgress == nil {
		g.DailyProgress = make(map[string]DailyProgressEntry)
	}
	g.DailyProgress[day] = entry
	g.ProgressTotal = total
	g.setDayCompleted(day, entry.Percentage >= 100)

	return entry, nil
}

// RollbackDailyProgress removes the day's entry. It reports false when the day
// had nothing logged.
func (g *Goal) RollbackDailyProgress(day string) (DailyProgressEntry, bool) {
	entry, ok := g.DailyProgress[day]
	if !ok {
		return DailyProgressEntry{}, false
	}

	delete(g.DailyProgress, day)
	g.ProgressTotal -= entry.Progress
	g.setDayCompleted(day, false)
	return entry, true
}

// RecomputeProgress rebuilds the running total and the completed-day set from
// the per-day entries. It reports whether anything changed. The goal is left
// untouched when the entries do not sum to a finite total.
func (g *Goal) RecomputeProgress() (bool, error) {
	var total float64
	completed := make([]string, 0, len(g.DailyProgress))
	for day, entry := range g.DailyProgress {
		total += entry.Progress
		if entry.Percentage >= 100 {
			completed = append(completed, day)
		}
	}
	if math.IsInf(total, 0) || math.IsNaN(total) {
		return false, ErrInvalidProgress
	}
	sort.Strings(completed)

	changed := total != g.ProgressTotal || !slices.Equal(completed, g.Progress)
	g.ProgressTotal = total
	g.Progress = completed
	return changed, nil
}

// IsDayCompleted reports whether day is in the completed-day set.
func (g *Goal) IsDayCompleted(day string) bool {
	i := sort.SearchStrings(g.Progress, day)
	return i < len(g.Progress) && g.Progress[i] == day
}

// setDayCompleted keeps Progress sorted and free of duplicates.
func (g *Goal) setDayCompleted(day string, completed bool) {
	i := sort.SearchStrings(g.Progress, day)
	present := i < len(g.Progress) && g.Progress[i] == day

	switch {
	case completed && !present:
		g.Progress = append(g.Progress, "")
		copy(g.Progress[i+1:], g.Progress[i:])
		g.Progress[i] = day
	case !completed && present:
		g.Progress = append(g.Progress[:i], g.Progress[i+1:]...)
	}
}

func (g Goal) clone() Goal {
	out := g
	out.Progress = slices.Clone(g.Progress)
	out.DailyProgress = maps.Clone(g.DailyProgress)
	if g.CompletedAt != nil {
		completedAt := *g.CompletedAt
		out.CompletedAt = &completedAt
	}
	return out
}
