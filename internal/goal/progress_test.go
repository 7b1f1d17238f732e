package goal

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGoal(target, daily float64) *Goal {
	return &Goal{
		ID:            "g1",
		Target:        target,
		DailyTarget:   daily,
		Progress:      []string{},
		DailyProgress: map[string]DailyProgressEntry{},
	}
}

func dayN(n int) string {
	return fmt.Sprintf("2024-01-%02d", n)
}

func assertCompletedSetConsistent(t *testing.T, g *Goal) {
	t.Helper()
	for day, entry := range g.DailyProgress {
		assert.Equal(t, entry.Percentage >= 100, g.IsDayCompleted(day), "day %s", day)
	}
	for _, day := range g.Progress {
		entry, ok := g.DailyProgress[day]
		assert.True(t, ok && entry.Percentage >= 100, "day %s in completed set without a full entry", day)
	}
	var sum float64
	for _, entry := range g.DailyProgress {
		sum += entry.Progress
	}
	assert.InDelta(t, sum, g.ProgressTotal, 1e-9)
}

func TestDailyPercentage(t *testing.T) {
	tests := []struct {
		value, target float64
		want          int
	}{
		{5, 5, 100},
		{3, 5, 60},
		{15, 10, 100},
		{0.5, 3, 17},
		{0, 10, 0},
		{2.5, 10, 25},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DailyPercentage(tt.value, tt.target), "%v/%v", tt.value, tt.target)
	}
}

func TestRecordDailyProgress_SameValueIsIdempotent(t *testing.T) {
	g := newGoal(50, 5)

	first, err := g.RecordDailyProgress("2024-01-01", 4)
	require.NoError(t, err)
	total := g.ProgressTotal

	second, err := g.RecordDailyProgress("2024-01-01", 4)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, total, g.ProgressTotal)
	assert.Equal(t, first, g.DailyProgress["2024-01-01"])
}

func TestRecordDailyProgress_LastValueWins(t *testing.T) {
	g := newGoal(50, 5)

	for _, v := range []float64{1, 7, 2, 3} {
		_, err := g.RecordDailyProgress("2024-01-01", v)
		require.NoError(t, err)
		assertCompletedSetConsistent(t, g)
	}
	_, err := g.RecordDailyProgress("2024-01-02", 5)
	require.NoError(t, err)

	assert.Equal(t, 8.0, g.ProgressTotal)
	assert.Equal(t, 3.0, g.DailyProgress["2024-01-01"].Progress)
}

func TestRecordDailyProgress_CompletedSetFollowsPercentage(t *testing.T) {
	g := newGoal(100, 10)

	ops := []struct {
		day      string
		value    float64
		rollback bool
	}{
		{day: dayN(1), value: 10},
		{day: dayN(2), value: 4},
		{day: dayN(1), value: 9.94},
		{day: dayN(1), value: 9.96},
		{day: dayN(3), value: 25},
		{day: dayN(2), rollback: true},
		{day: dayN(3), value: 0},
		{day: dayN(4), rollback: true},
		{day: dayN(1), rollback: true},
	}
	for _, op := range ops {
		if op.rollback {
			g.RollbackDailyProgress(op.day)
		} else {
			_, err := g.RecordDailyProgress(op.day, op.value)
			require.NoError(t, err)
		}
		assertCompletedSetConsistent(t, g)
	}

	assert.Empty(t, g.Progress)
	assert.Len(t, g.DailyProgress, 1)
}

func TestRecordDailyProgress_KeepsCompletedSetSortedWithoutDuplicates(t *testing.T) {
	g := newGoal(100, 1)
	for _, n := range []int{5, 2, 9, 2, 1, 5} {
		_, err := g.RecordDailyProgress(dayN(n), 1)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{dayN(1), dayN(2), dayN(5), dayN(9)}, g.Progress)
}

func TestRecordDailyProgress_RejectsInvalidValues(t *testing.T) {
	for _, v := range []float64{-1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		g := newGoal(10, 1)
		_, err := g.RecordDailyProgress(dayN(1), v)
		assert.ErrorIs(t, err, ErrInvalidProgress, "value %v", v)
		assert.ErrorIs(t, err, ErrInvalidInput, "value %v", v)
		assert.Empty(t, g.DailyProgress)
		assert.Zero(t, g.ProgressTotal)
	}
}

func TestRecordDailyProgress_RejectsOverflowingTotal(t *testing.T) {
	g := newGoal(10, 1)
	_, err := g.RecordDailyProgress(dayN(1), 1e308)
	require.NoError(t, err)

	_, err = g.RecordDailyProgress(dayN(2), 1e308)
	assert.ErrorIs(t, err, ErrInvalidProgress)
	_, ok := g.DailyProgress[dayN(2)]
	assert.False(t, ok)
	assert.Equal(t, 1e308, g.ProgressTotal)

	_, err = g.RecordDailyProgress(dayN(1), 0)
	require.NoError(t, err)
	assert.Zero(t, g.ProgressTotal)
	assertCompletedSetConsistent(t, g)

	// replacing a large entry with another large one stays finite
	_, err = g.RecordDailyProgress(dayN(3), math.MaxFloat64)
	require.NoError(t, err)
	_, err = g.RecordDailyProgress(dayN(3), math.MaxFloat64/2)
	require.NoError(t, err)
	assert.Equal(t, math.MaxFloat64/2, g.ProgressTotal)
}

func TestRecordDailyProgress_DailyTargetFallback(t *testing.T) {
	g := newGoal(10, 0)

	entry, err := g.RecordDailyProgress(dayN(1), 1)
	require.NoError(t, err)
	assert.Equal(t, DefaultDailyTarget, entry.Target)
	assert.Equal(t, 100, entry.Percentage)
	assert.True(t, g.IsDayCompleted(dayN(1)))

	g.DailyTarget = -2
	_, err = g.RecordDailyProgress(dayN(2), 1)
	assert.ErrorIs(t, err, ErrInvalidDailyTarget)
	_, ok := g.DailyProgress[dayN(2)]
	assert.False(t, ok)
}

func TestRecordDailyProgress_CapturesTargetAtLoggingTime(t *testing.T) {
	g := newGoal(100, 10)
	_, err := g.RecordDailyProgress(dayN(1), 10)
	require.NoError(t, err)

	g.DailyTarget = 20
	_, err = g.RecordDailyProgress(dayN(2), 10)
	require.NoError(t, err)

	assert.Equal(t, 10.0, g.DailyProgress[dayN(1)].Target)
	assert.Equal(t, 100, g.DailyProgress[dayN(1)].Percentage)
	assert.Equal(t, 20.0, g.DailyProgress[dayN(2)].Target)
	assert.Equal(t, 50, g.DailyProgress[dayN(2)].Percentage)
}

func TestRollbackDailyProgress(t *testing.T) {
	g := newGoal(50, 5)
	_, err := g.RecordDailyProgress(dayN(1), 5)
	require.NoError(t, err)
	_, err = g.RecordDailyProgress(dayN(2), 2)
	require.NoError(t, err)

	removed, ok := g.RollbackDailyProgress(dayN(1))
	require.True(t, ok)
	assert.Equal(t, 5.0, removed.Progress)
	assert.Equal(t, 2.0, g.ProgressTotal)
	assert.False(t, g.IsDayCompleted(dayN(1)))

	before := g.clone()
	_, ok = g.RollbackDailyProgress(dayN(7))
	assert.False(t, ok)
	assert.Equal(t, before, *g)
}

func TestRecomputeProgress_RepairsDrift(t *testing.T) {
	g := newGoal(50, 5)
	g.DailyProgress = map[string]DailyProgressEntry{
		dayN(1): {Progress: 5, Target: 5, Percentage: 100},
		dayN(2): {Progress: 3, Target: 5, Percentage: 60},
		dayN(3): {Progress: 6, Target: 5, Percentage: 100},
	}
	g.ProgressTotal = 42
	g.Progress = []string{dayN(2), dayN(9)}

	changed, err := g.RecomputeProgress()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 14.0, g.ProgressTotal)
	assert.Equal(t, []string{dayN(1), dayN(3)}, g.Progress)
	assertCompletedSetConsistent(t, g)

	changed, err = g.RecomputeProgress()
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestRecomputeProgress_RepairsInfiniteTotal(t *testing.T) {
	g := newGoal(10, 1)
	g.DailyProgress = map[string]DailyProgressEntry{
		dayN(1): {Progress: math.MaxFloat64, Target: 1, Percentage: 100},
	}
	g.ProgressTotal = math.Inf(1)

	changed, err := g.RecomputeProgress()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, math.MaxFloat64, g.ProgressTotal)
}

func TestRecomputeProgress_RejectsOverflowingEntries(t *testing.T) {
	g := newGoal(10, 1)
	g.DailyProgress = map[string]DailyProgressEntry{
		dayN(1): {Progress: math.MaxFloat64, Target: 1, Percentage: 100},
		dayN(2): {Progress: math.MaxFloat64, Target: 1, Percentage: 100},
	}
	g.ProgressTotal = 7

	_, err := g.RecomputeProgress()
	assert.ErrorIs(t, err, ErrInvalidProgress)
	assert.Equal(t, 7.0, g.ProgressTotal)
}

func TestEvaluatePerfection_Boundary(t *testing.T) {
	g := newGoal(100, 10)
	for n := 1; n <= 10; n++ {
		_, err := g.RecordDailyProgress(dayN(n), 10)
		require.NoError(t, err)
	}
	assert.True(t, g.IsComplete())
	assert.Equal(t, 10, g.ExpectedDays())
	assert.True(t, g.EvaluatePerfection())

	_, err := g.RecordDailyProgress(dayN(11), 0)
	require.NoError(t, err)
	assert.True(t, g.IsComplete())
	assert.False(t, g.EvaluatePerfection())
}

func TestEvaluatePerfection_IgnoresGaps(t *testing.T) {
	g := newGoal(20, 10)
	_, err := g.RecordDailyProgress(dayN(1), 10)
	require.NoError(t, err)
	_, err = g.RecordDailyProgress(dayN(28), 10)
	require.NoError(t, err)

	assert.True(t, g.IsComplete())
	assert.True(t, g.EvaluatePerfection())
}

func TestExpectedDays_SaturatesHugeRatios(t *testing.T) {
	g := newGoal(1e300, 1e-300)
	assert.Equal(t, math.MaxInt, g.ExpectedDays())

	_, err := g.RecordDailyProgress(dayN(1), 1e300)
	require.NoError(t, err)
	assert.True(t, g.IsComplete())
	assert.True(t, g.EvaluatePerfection())
}

func TestEvaluatePerfection_UsesDailyTargetFallback(t *testing.T) {
	g := newGoal(3, 0)
	assert.Equal(t, 3, g.ExpectedDays())
	assert.True(t, g.EvaluatePerfection())
}

func TestIsComplete(t *testing.T) {
	g := newGoal(10, 5)
	assert.False(t, g.IsComplete())

	_, err := g.RecordDailyProgress(dayN(1), 5)
	require.NoError(t, err)
	assert.False(t, g.IsComplete())
	assert.Equal(t, 50, g.Percentage())

	_, err = g.RecordDailyProgress(dayN(2), 7)
	require.NoError(t, err)
	assert.True(t, g.IsComplete())
	assert.Equal(t, 100, g.Percentage())
}

func TestScenario_RunFiveKilometres(t *testing.T) {
	g := newGoal(50, 5)

	entry, err := g.RecordDailyProgress(dayN(1), 5)
	require.NoError(t, err)
	assert.Equal(t, 100, entry.Percentage)
	assert.Equal(t, 5.0, g.ProgressTotal)

	entry, err = g.RecordDailyProgress(dayN(2), 3)
	require.NoError(t, err)
	assert.Equal(t, 60, entry.Percentage)
	assert.Equal(t, 8.0, g.ProgressTotal)
	assert.False(t, g.IsDayCompleted(dayN(2)))

	entry, err = g.RecordDailyProgress(dayN(2), 5)
	require.NoError(t, err)
	assert.Equal(t, 100, entry.Percentage)
	assert.Equal(t, 10.0, g.ProgressTotal)
	assert.True(t, g.IsDayCompleted(dayN(2)))

	for n := 3; n <= 10; n++ {
		_, err := g.RecordDailyProgress(dayN(n), 5)
		require.NoError(t, err)
	}
	assert.Equal(t, 50.0, g.ProgressTotal)
	assert.True(t, g.IsComplete())
	assert.True(t, g.EvaluatePerfection())
	assert.Len(t, g.Progress, 10)
}
