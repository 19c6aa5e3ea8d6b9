// Package attendance owns the status field of each student.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"rollbook/internal/metrics"
	"rollbook/internal/model"
	"rollbook/internal/store"
)

// Service advances, sets and aggregates attendance status.
type Service struct {
	store store.Store
	log   *zap.Logger
	now   func() time.Time
}

// NewService creates a tracker backed by st.
func NewService(st store.Store, log *zap.Logger) *Service {
	return &Service{
		store: st,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// MarkNext moves a student one step along Present -> Absent -> Late -> Present.
// A missing status is read as Present, so the first mark yields Absent.
func (s *Service) MarkNext(ctx context.Context, studentID string) (model.Student, error) {
	st, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		return model.Student{}, s.lookupErr("MarkNext", studentID, err)
	}
	next := st.Status.Next()
	return s.write(ctx, "MarkNext", studentID, model.StudentUpdate{Status: &next}, "mark")
}

// SetStatus writes status directly, outside the cycle. Used for corrections.
func (s *Service) SetStatus(ctx context.Context, studentID string, status model.Status) (model.Student, error) {
	if !status.Valid() {
		return model.Student{}, model.Validation("SetStatus", fmt.Sprintf("status must be one of Present, Absent, Late (got %q)", status))
	}
	return s.write(ctx, "SetStatus", studentID, model.StudentUpdate{Status: &status}, "set")
}

// UpdateStudent applies a partial profile update. Only supplied fields change;
// lastUpdated moves only when the status is supplied.
func (s *Service) UpdateStudent(ctx context.Context, studentID string, patch model.StudentPatch) (model.Student, error) {
	var u model.StudentUpdate
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return model.Student{}, model.Validation("UpdateStudent", "Student name cannot be empty")
		}
		u.Name = &name
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return model.Student{}, model.Validation("UpdateStudent", fmt.Sprintf("status must be one of Present, Absent, Late (got %q)", *patch.Status))
		}
		u.Status = patch.Status
	}
	return s.write(ctx, "UpdateStudent", studentID, u, "set")
}

// Summary counts a class roster. Present is everyone not explicitly Absent or
// Late, so records without a status count as present.
func (s *Service) Summary(ctx context.Context, classID string) (model.Summary, error) {
	if classID == "" {
		return model.Summary{}, model.Validation("Summary", "classId is required")
	}
	students, err := s.store.ListStudents(ctx, classID)
	if err != nil {
		return model.Summary{}, fmt.Errorf("list students: %w", err)
	}
	sum := Summarize(students)
	sum.ClassID = classID
	return sum, nil
}

// Summarize computes the aggregate over an arbitrary roster.
func Summarize(students []model.Student) model.Summary {
	var sum model.Summary
	for _, st := range students {
		switch st.Status {
		case model.StatusAbsent:
			sum.Absent++
		case model.StatusLate:
			sum.Late++
		}
		if st.Status.Effective() == model.StatusPresent {
			sum.Present++
		}
	}
	sum.Total = len(students)
	return sum
}

func (s *Service) write(ctx context.Context, op, studentID string, u model.StudentUpdate, path string) (model.Student, error) {
	if u.Status != nil {
		now := s.now()
		u.LastUpdated = &now
	}
	st, err := s.store.UpdateStudent(ctx, studentID, u)
	if err != nil {
		return model.Student{}, s.lookupErr(op, studentID, err)
	}
	if u.Status != nil {
		metrics.StatusChanges.WithLabelValues(string(*u.Status), path).Inc()
	}
	return st, nil
}

func (s *Service) lookupErr(op, studentID string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return model.NotFound(op, "Student")
	}
	s.log.Error("student write failed", zap.String("op", op), zap.String("id", studentID), zap.Error(err))
	return fmt.Errorf("%s: %w", op, err)
}
