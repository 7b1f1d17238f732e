package goal

import (
	"math"
	"time"
)

// IsComplete reports whether the running total has reached the goal's target.
func (g *Goal) IsComplete() bool {
	return g.ProgressTotal >= g.Target
}

// EvaluatePerfection reports whether the goal was completed "perfectly": no
// more days were logged than the minimum needed at the daily target. Only the
// number of logged days counts; gaps between them are not inspected.
func (g *Goal) EvaluatePerfection() bool {
	return len(g.DailyProgress) <= g.ExpectedDays()
}

// ExpectedDays is the minimum number of days needed to reach the target when
// meeting the daily target every day. Ratios beyond the int range saturate at
// math.MaxInt.
func (g *Goal) ExpectedDays() int {
	daily, err := g.effectiveDailyTarget()
	if err != nil {
		daily = DefaultDailyTarget
	}
	days := math.Ceil(g.Target / daily)
	if !(days < math.MaxInt) {
		return math.MaxInt
	}
	return int(days)
}

// Percentage is the overall progress towards the target, capped at 100.
func (g *Goal) Percentage() int {
	if g.Target <= 0 {
		return 0
	}
	return int(math.Min(100, math.Round(g.ProgressTotal/g.Target*100)))
}

// needsCompletion is the guard of the completion flow: it runs once, the first
// time the goal reaches its target.
func (g *Goal) needsCompletion() bool {
	return g.CompletedAt == nil && g.IsComplete()
}

func (g *Goal) markCompleted(at time.Time, entryID string) {
	completedAt := at
	g.CompletedAt = &completedAt
	g.CompletionEntryID = entryID
}

// reopen clears CompletedAt but keeps CompletionEntryID, so the next
// completion of the goal records under the same history entry id.
func (g *Goal) reopen() {
	g.CompletedAt = nil
}

// clearCompletion reopens the goal and forgets its history entry.
func (g *Goal) clearCompletion() {
	g.CompletedAt = nil
	g.CompletionEntryID = ""
}
