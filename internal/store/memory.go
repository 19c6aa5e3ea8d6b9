package store

import (
	"context"
	"sync"

	"rollbook/internal/model"
)

// Memory is a process-local store for dev and tests.
type Memory struct {
	mu          sync.RWMutex
	departments []model.Department
	classes     []model.Class
	students    []model.Student
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) CreateDepartment(_ context.Context, d *model.Department) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = NewID()
	m.departments = append(m.departments, *d)
	return nil
}

func (m *Memory) GetDepartment(_ context.Context, id string) (model.Department, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.departments {
		if d.ID == id {
			return d, nil
		}
	}
	return model.Department{}, ErrNotFound
}

func (m *Memory) ListDepartments(_ context.Context) ([]model.Department, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Department, len(m.departments))
	copy(out, m.departments)
	return out, nil
}

func (m *Memory) RenameDepartment(_ context.Context, id, name string) (model.Department, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.departments {
		if m.departments[i].ID == id {
			m.departments[i].Name = name
			return m.departments[i], nil
		}
	}
	return model.Department{}, ErrNotFound
}

func (m *Memory) DeleteDepartment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.departments {
		if m.departments[i].ID == id {
			m.departments = append(m.departments[:i], m.departments[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) CreateClass(_ context.Context, c *model.Class) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = NewID()
	m.classes = append(m.classes, *c)
	return nil
}

func (m *Memory) GetClass(_ context.Context, id string) (model.Class, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.classes {
		if c.ID == id {
			return c, nil
		}
	}
	return model.Class{}, ErrNotFound
}

func (m *Memory) ListClasses(_ context.Context, departmentID string) ([]model.Class, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Class, 0, len(m.classes))
	for _, c := range m.classes {
		if departmentID == "" || c.DepartmentID == departmentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *Memory) RenameClass(_ context.Context, id, name string) (model.Class, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.classes {
		if m.classes[i].ID == id {
			m.classes[i].Name = name
			return m.classes[i], nil
		}
	}
	return model.Class{}, ErrNotFound
}

func (m *Memory) DeleteClass(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.classes {
		if m.classes[i].ID == id {
			m.classes = append(m.classes[:i], m.classes[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) AdmitStudent(_ context.Context, s *model.Student, limit int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.countLocked(s.ClassID) >= limit {
		return ErrClassFull
	}
	s.ID = NewID()
	m.students = append(m.students, *s)
	return nil
}

func (m *Memory) GetStudent(_ context.Context, id string) (model.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.students {
		if s.ID == id {
			return s, nil
		}
	}
	return model.Student{}, ErrNotFound
}

func (m *Memory) ListStudents(_ context.Context, classID string) ([]model.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Student, 0, len(m.students))
	for _, s := range m.students {
		if classID == "" || s.ClassID == classID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *Memory) CountStudents(_ context.Context, classID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.countLocked(classID), nil
}

func (m *Memory) countLocked(classID string) int {
	n := 0
	for _, s := range m.students {
		if s.ClassID == classID {
			n++
		}
	}
	return n
}

func (m *Memory) UpdateStudent(_ context.Context, id string, u model.StudentUpdate) (model.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.students {
		if m.students[i].ID != id {
			continue
		}
		if u.Name != nil {
			m.students[i].Name = *u.Name
		}
		if u.Status != nil {
			m.students[i].Status = *u.Status
		}
		if u.LastUpdated != nil {
			m.students[i].LastUpdated = *u.LastUpdated
		}
		return m.students[i], nil
	}
	return model.Student{}, ErrNotFound
}

func (m *Memory) DeleteStudent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.students {
		if m.students[i].ID == id {
			m.students = append(m.students[:i], m.students[i+1:]...)
			break
		}
	}
	return nil
}

// PutStudent stores s as-is, bypassing admission. Used to load records whose
// status predates the enum, e.g. imported documents without a status field.
func (m *Memory) PutStudent(s model.Student) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = NewID()
	}
	m.students = append(m.students, s)
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.departments, m.classes, m.students = nil, nil, nil
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
