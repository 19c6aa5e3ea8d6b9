// Package roster owns departments, classes and student admission.
package roster

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

// Delete acknowledgements. Deletes never cascade; children keep their references.
const (
	AckDepartmentDeleted = "Dept deleted"
	AckClassDeleted      = "Class deleted. Dept is safe!"
	AckStudentDeleted    = "Student deleted"
)

// Service creates, renames and deletes roster records.
type Service struct {
	store     store.Store
	validator *Validator
	locker    Locker
	log       *zap.Logger
	now       func() time.Time
}

// NewService creates a roster service. locker serializes admissions per class.
func NewService(st store.Store, locker Locker, log *zap.Logger) *Service {
	return &Service{
		store:     st,
		validator: NewValidator(st),
		locker:    locker,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// AddDepartment creates a department.
func (s *Service) AddDepartment(ctx context.Context, name string) (model.Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Department{}, model.Validation("AddDepartment", "Department name is required")
	}
	d := model.Department{Name: name}
	if err := s.store.CreateDepartment(ctx, &d); err != nil {
		s.log.Error("create department failed", zap.Error(err))
		return model.Department{}, fmt.Errorf("create department: %w", err)
	}
	return d, nil
}

// AddClass creates a class under an existing department.
func (s *Service) AddClass(ctx context.Context, name, departmentID string) (model.Class, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Class{}, model.Validation("AddClass", "Class name is required")
	}
	if departmentID == "" {
		return model.Class{}, model.Validation("AddClass", "departmentId is required")
	}
	if err := s.validator.ValidateClass(ctx, departmentID); err != nil {
		return model.Class{}, err
	}

	c := model.Class{Name: name, DepartmentID: departmentID}
	if err := s.store.CreateClass(ctx, &c); err != nil {
		s.log.Error("create class failed", zap.String("department_id", departmentID), zap.Error(err))
		return model.Class{}, fmt.Errorf("create class: %w", err)
	}
	return c, nil
}

// AddStudent admits a student to a class. The roster count and the insert run
// under the class lock, so concurrent admissions cannot push a class past MaxClassSize.
func (s *Service) AddStudent(ctx context.Context, name, departmentID, classID string) (model.Student, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return model.Student{}, s.rejected(model.Validation("AddStudent", "Student name is required"))
	case departmentID == "":
		return model.Student{}, s.rejected(model.Validation("AddStudent", "departmentId is required"))
	case classID == "":
		return model.Student{}, s.rejected(model.Validation("AddStudent", "classId is required"))
	}
	if err := s.validator.ValidateStudent(ctx, departmentID, classID); err != nil {
		return model.Student{}, s.rejected(err)
	}

	unlock, err := s.locker.Lock(ctx, "class:"+classID)
	if err != nil {
		return model.Student{}, fmt.Errorf("lock class %s: %w", classID, err)
	}
	defer unlock()

	st := model.Student{
		Name:         name,
		DepartmentID: departmentID,
		ClassID:      classID,
		Status:       model.DefaultStatus,
		LastUpdated:  s.now(),
	}
	if err := s.store.AdmitStudent(ctx, &st, model.MaxClassSize); err != nil {
		if errors.Is(err, store.ErrClassFull) {
			metrics.Admissions.WithLabelValues("full").Inc()
			return model.Student{}, model.Capacity("AddStudent")
		}
		s.log.Error("admit student failed", zap.String("class_id", classID), zap.Error(err))
		return model.Student{}, fmt.Errorf("admit student: %w", err)
	}
	metrics.Admissions.WithLabelValues("admitted").Inc()
	return st, nil
}

func (s *Service) rejected(err error) error {
	if model.IsDomain(err) {
		metrics.Admissions.WithLabelValues("rejected").Inc()
	}
	return err
}

// EditDepartment renames a department.
func (s *Service) EditDepartment(ctx context.Context, id, name string) (model.Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Department{}, model.Validation("EditDepartment", "Department name is required")
	}
	d, err := s.store.RenameDepartment(ctx, id, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Department{}, model.NotFound("EditDepartment", "Department")
		}
		s.log.Error("rename department failed", zap.String("id", id), zap.Error(err))
		return model.Department{}, fmt.Errorf("rename department: %w", err)
	}
	return d, nil
}

// EditClass renames a class. The department reference never changes.
func (s *Service) EditClass(ctx context.Context, id, name string) (model.Class, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Class{}, model.Validation("EditClass", "Class name is required")
	}
	c, err := s.store.RenameClass(ctx, id, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Class{}, model.NotFound("EditClass", "Class")
		}
		s.log.Error("rename class failed", zap.String("id", id), zap.Error(err))
		return model.Class{}, fmt.Errorf("rename class: %w", err)
	}
	return c, nil
}

// DeleteDepartment removes only the department; its classes keep pointing at it.
func (s *Service) DeleteDepartment(ctx context.Context, id string) (string, error) {
	if err := s.store.DeleteDepartment(ctx, id); err != nil {
		s.log.Error("delete department failed", zap.String("id", id), zap.Error(err))
		return "", fmt.Errorf("delete department: %w", err)
	}
	metrics.Deletes.WithLabelValues("department").Inc()
	return AckDepartmentDeleted, nil
}

// DeleteClass removes only the class; its students keep pointing at it.
func (s *Service) DeleteClass(ctx context.Context, id string) (string, error) {
	if err := s.store.DeleteClass(ctx, id); err != nil {
		s.log.Error("delete class failed", zap.String("id", id), zap.Error(err))
		return "", fmt.Errorf("delete class: %w", err)
	}
	metrics.Deletes.WithLabelValues("class").Inc()
	return AckClassDeleted, nil
}

// DeleteStudent removes a student.
func (s *Service) DeleteStudent(ctx context.Context, id string) (string, error) {
	if err := s.store.DeleteStudent(ctx, id); err != nil {
		s.log.Error("delete student failed", zap.String("id", id), zap.Error(err))
		return "", fmt.Errorf("delete student: %w", err)
	}
	metrics.Deletes.WithLabelValues("student").Inc()
	return AckStudentDeleted, nil
}
