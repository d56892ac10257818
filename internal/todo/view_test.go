package todo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func task(id, text string, prio Priority, done bool, minute int) Task {
	return Task{
		ID:        id,
		Text:      text,
		Priority:  prio,
		Completed: done,
		CreatedAt: testEpoch.Add(time.Duration(minute) * time.Minute),
	}
}

func TestRender_EmptyList(t *testing.T) {
	v := Render(nil, FilterAll, "")
	assert.True(t, v.Empty)
	assert.Empty(t, v.Rows)
	assert.Equal(t, Stats{}, v.Stats)
	assert.Equal(t, "0/0 tasks completed", v.Stats.String())
}

func TestRender_SortsByPriorityThenCreation(t *testing.T) {
	tasks := []Task{
		task("1", "plain old", PriorityNone, false, 1),
		task("2", "low", PriorityLow, false, 2),
		task("3", "high late", PriorityHigh, false, 5),
		task("4", "medium", PriorityMedium, false, 3),
		task("5", "high early", PriorityHigh, false, 4),
		task("6", "plain new", PriorityNone, false, 6),
	}
	v := Render(tasks, FilterAll, "")
	assert.Equal(t, []string{"high early", "high late", "medium", "low", "plain old", "plain new"}, rowTexts(v))
	assert.Equal(t, "1", tasks[0].ID, "input is not reordered")
}

func TestRender_Filters(t *testing.T) {
	tasks := []Task{
		task("1", "a", PriorityNone, true, 1),
		task("2", "b", PriorityNone, false, 2),
		task("3", "c", PriorityNone, true, 3),
	}

	tests := []struct {
		filter Filter
		want   []string
	}{
		{FilterAll, []string{"a", "b", "c"}},
		{FilterActive, []string{"b"}},
		{FilterCompleted, []string{"a", "c"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			v := Render(tasks, tt.filter, "")
			assert.Equal(t, tt.want, rowTexts(v))
			assert.Equal(t, Stats{Completed: 2, Total: 3, Percent: 67}, v.Stats)
		})
	}
}

func TestRender_CompletedFilterWithNoneDoneIsEmpty(t *testing.T) {
	tasks := []Task{task("1", "a", PriorityNone, false, 1)}
	v := Render(tasks, FilterCompleted, "")
	assert.True(t, v.Empty)
	assert.Equal(t, 1, v.Stats.Total)
}

func TestRender_SearchIsCaseInsensitiveSubstring(t *testing.T) {
	tasks := []Task{
		task("1", "Buy MILK", PriorityNone, false, 1),
		task("2", "Call bank", PriorityNone, false, 2),
		task("3", "milkshake", PriorityNone, true, 3),
	}
	v := Render(tasks, FilterAll, "  Milk ")
	assert.Equal(t, []string{"Buy MILK", "milkshake"}, rowTexts(v))

	v = Render(tasks, FilterActive, "milk")
	assert.Equal(t, []string{"Buy MILK"}, rowTexts(v))

	v = Render(tasks, FilterAll, "dentist")
	assert.True(t, v.Empty)
}

func TestRender_DueLabel(t *testing.T) {
	due := time.Date(2026, 3, 7, 15, 0, 0, 0, time.Local)
	tasks := []Task{
		{ID: "1", Text: "due", DueDate: &due, CreatedAt: testEpoch},
		{ID: "2", Text: "none", CreatedAt: testEpoch.Add(time.Second)},
	}
	v := Render(tasks, FilterAll, "")
	require.Len(t, v.Rows, 2)
	assert.Equal(t, "Mar 7", v.Rows[0].DueLabel)
	assert.Empty(t, v.Rows[1].DueLabel)
}

func TestComputeStats_Rounds(t *testing.T) {
	tests := []struct {
		done, total, want int
	}{
		{0, 2, 0},
		{1, 2, 50},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},
		{3, 3, 100},
	}
	for _, tt := range tests {
		var tasks []Task
		for i := range tt.total {
			tasks = append(tasks, Task{Completed: i < tt.done})
		}
		st := ComputeStats(tasks)
		assert.Equal(t, tt.want, st.Percent, "%d/%d", tt.done, tt.total)
		assert.Equal(t, tt.done, st.Completed)
	}
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, f)

	f, err = ParseFilter(" Completed ")
	require.NoError(t, err)
	assert.Equal(t, FilterCompleted, f)

	_, err = ParseFilter("overdue")
	assert.Error(t, err)

	assert.Equal(t, FilterActive, FilterAll.Next())
	assert.Equal(t, FilterAll, FilterCompleted.Next())
}

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority("HIGH")
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, p)

	p, err = ParsePriority("")
	require.NoError(t, err)
	assert.Equal(t, PriorityNone, p)

	_, err = ParsePriority("urgent")
	assert.ErrorIs(t, err, ErrInvalidPriority)

	assert.Equal(t, PriorityNone, PriorityLow.Next())
}
