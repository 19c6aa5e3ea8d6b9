package roster

import (
	"context"
	"fmt"

	"rollbook/internal/model"
	"rollbook/internal/store"
)

// Query derives read-only views from the store. It holds no state of its own.
type Query struct {
	store store.Store
}

// NewQuery creates a query engine over st.
func NewQuery(st store.Store) *Query {
	return &Query{store: st}
}

// ClassesOf lists classes referencing departmentID in insertion order, whether or
// not the department still exists.
func (q *Query) ClassesOf(ctx context.Context, departmentID string) ([]model.Class, error) {
	if departmentID == "" {
		return nil, model.Validation("ClassesOf", "departmentId is required")
	}
	classes, err := q.store.ListClasses(ctx, departmentID)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// StudentsOf lists the roster of classID in insertion order, whether or not the
// class still exists.
func (q *Query) StudentsOf(ctx context.Context, classID string) ([]model.Student, error) {
	if classID == "" {
		return nil, model.Validation("StudentsOf", "classId is required")
	}
	students, err := q.store.ListStudents(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// AllData returns every record. Student references are resolved to the
// referenced records; dangling references resolve to nil.
func (q *Query) AllData(ctx context.Context) (model.Snapshot, error) {
	depts, err := q.store.ListDepartments(ctx)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("list departments: %w", err)
	}
	classes, err := q.store.ListClasses(ctx, "")
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("list classes: %w", err)
	}
	students, err := q.store.ListStudents(ctx, "")
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("list students: %w", err)
	}

	deptByID := make(map[string]*model.Department, len(depts))
	for i := range depts {
		deptByID[depts[i].ID] = &depts[i]
	}
	classByID := make(map[string]*model.Class, len(classes))
	for i := range classes {
		classByID[classes[i].ID] = &classes[i]
	}

	views := make([]model.StudentView, 0, len(students))
	for _, st := range students {
		views = append(views, model.StudentView{
			ID:           st.ID,
			Name:         st.Name,
			DepartmentID: st.DepartmentID,
			ClassID:      st.ClassID,
			Department:   deptByID[st.DepartmentID],
			Class:        classByID[st.ClassID],
			Status:       st.Status,
			LastUpdated:  st.LastUpdated,
		})
	}

	return model.Snapshot{
		Departments: depts,
		Classes:     classes,
		Students:    views,
	}, nil
}
