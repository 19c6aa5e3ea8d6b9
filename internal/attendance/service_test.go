package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rollbook/internal/model"
	"rollbook/internal/store"
)

func setupTracker(t *testing.T, statuses ...model.Status) (*Service, *store.Memory, []model.Student) {
	t.Helper()
	st := store.NewMemory()
	base := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	for i, s := range statuses {
		st.PutStudent(model.Student{
			Name:         "s",
			DepartmentID: "d",
			ClassID:      "c",
			Status:       s,
			LastUpdated:  base.Add(time.Duration(i) * time.Second),
		})
	}
	students, err := st.ListStudents(context.Background(), "c")
	require.NoError(t, err)
	svc := NewService(st, zap.NewNop())
	svc.now = func() time.Time { return base.Add(time.Hour) }
	return svc, st, students
}

func TestMarkNext_Cycle(t *testing.T) {
	svc, _, students := setupTracker(t, model.StatusPresent)
	ctx := context.Background()
	id := students[0].ID

	want := []model.Status{model.StatusAbsent, model.StatusLate, model.StatusPresent}
	for _, w := range want {
		got, err := svc.MarkNext(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, w, got.Status)
	}
}

func TestMarkNext_ThreeMarksReturnToStart(t *testing.T) {
	for _, start := range []model.Status{model.StatusPresent, model.StatusAbsent, model.StatusLate} {
		svc, _, students := setupTracker(t, start)
		var got model.Student
		var err error
		for i := 0; i < 3; i++ {
			got, err = svc.MarkNext(context.Background(), students[0].ID)
			require.NoError(t, err)
		}
		assert.Equal(t, start, got.Status)
	}
}

func TestMarkNext_MissingStatusReadsAsPresent(t *testing.T) {
	svc, _, students := setupTracker(t, "")
	got, err := svc.MarkNext(context.Background(), students[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAbsent, got.Status)
}

func TestMarkNext_StampsLastUpdated(t *testing.T) {
	svc, _, students := setupTracker(t, model.StatusAbsent)
	got, err := svc.MarkNext(context.Background(), students[0].ID)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC), got.LastUpdated)
}

func TestMarkNext_NotFound(t *testing.T) {
	svc, _, _ := setupTracker(t)
	_, err := svc.MarkNext(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, "Student not found", model.Message(err))
}

func TestSetStatus(t *testing.T) {
	svc, _, students := setupTracker(t, model.StatusAbsent)
	ctx := context.Background()

	got, err := svc.SetStatus(ctx, students[0].ID, model.StatusPresent)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPresent, got.Status)

	_, err = svc.SetStatus(ctx, students[0].ID, "Sick")
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.SetStatus(ctx, "missing", model.StatusLate)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestUpdateStudent_Partial(t *testing.T) {
	svc, st, students := setupTracker(t, model.StatusAbsent)
	ctx := context.Background()
	id := students[0].ID
	before := students[0].LastUpdated

	name := "Fatima"
	got, err := svc.UpdateStudent(ctx, id, model.StudentPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Fatima", got.Name)
	assert.Equal(t, model.StatusAbsent, got.Status)
	assert.Equal(t, before, got.LastUpdated, "name-only update keeps lastUpdated")

	late := model.StatusLate
	got, err = svc.UpdateStudent(ctx, id, model.StudentPatch{Status: &late})
	require.NoError(t, err)
	assert.Equal(t, "Fatima", got.Name)
	assert.Equal(t, model.StatusLate, got.Status)
	assert.True(t, got.LastUpdated.After(before))

	got, err = svc.UpdateStudent(ctx, id, model.StudentPatch{})
	require.NoError(t, err)
	assert.Equal(t, model.StatusLate, got.Status)

	empty := " "
	_, err = svc.UpdateStudent(ctx, id, model.StudentPatch{Name: &empty})
	assert.ErrorIs(t, err, model.ErrValidation)

	bad := model.Status("late")
	_, err = svc.UpdateStudent(ctx, id, model.StudentPatch{Status: &bad})
	assert.ErrorIs(t, err, model.ErrValidation)

	stored, err := st.GetStudent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusLate, stored.Status)
}

func TestSummary_MissingStatusCountsAsPresent(t *testing.T) {
	svc, _, _ := setupTracker(t, model.StatusPresent, "", model.StatusLate)

	sum, err := svc.Summary(context.Background(), "c")
	require.NoError(t, err)
	assert.Equal(t, model.Summary{ClassID: "c", Present: 2, Absent: 0, Late: 1, Total: 3}, sum)
}

func TestSummarize_OutOfEnumCountsAsPresent(t *testing.T) {
	sum := Summarize([]model.Student{
		{Status: model.StatusAbsent},
		{Status: "Excused"},
		{Status: model.StatusAbsent},
		{Status: model.StatusLate},
	})
	assert.Equal(t, 1, sum.Present)
	assert.Equal(t, 2, sum.Absent)
	assert.Equal(t, 1, sum.Late)
	assert.Equal(t, 4, sum.Total)
}

func TestSummary_EmptyClass(t *testing.T) {
	svc, _, _ := setupTracker(t)
	sum, err := svc.Summary(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Total)

	_, err = svc.Summary(context.Background(), "")
	assert.ErrorIs(t, err, model.ErrValidation)
}
