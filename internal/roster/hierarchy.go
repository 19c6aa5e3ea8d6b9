package roster

import (
	"context"
	"errors"
	"fmt"

	"rollbook/internal/model"
	"rollbook/internal/store"
)

// Validator checks parent references against the current store contents.
// It runs when a class or student is created and never repairs anything.
type Validator struct {
	store store.Store
}

// NewValidator creates a hierarchy validator over st.
func NewValidator(st store.Store) *Validator {
	return &Validator{store: st}
}

// ValidateClass requires departmentID to name an existing department.
func (v *Validator) ValidateClass(ctx context.Context, departmentID string) error {
	if _, err := v.store.GetDepartment(ctx, departmentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.NotFound("AddClass", "Department")
		}
		return fmt.Errorf("lookup department %s: %w", departmentID, err)
	}
	return nil
}

// ValidateStudent requires both parents to exist and the class to belong to the department.
func (v *Validator) ValidateStudent(ctx context.Context, departmentID, classID string) error {
	if _, err := v.store.GetDepartment(ctx, departmentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.NotFound("AddStudent", "Department")
		}
		return fmt.Errorf("lookup department %s: %w", departmentID, err)
	}
	class, err := v.store.GetClass(ctx, classID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.NotFound("AddStudent", "Class")
		}
		return fmt.Errorf("lookup class %s: %w", classID, err)
	}
	if class.DepartmentID != departmentID {
		return model.Mismatch("AddStudent")
	}
	return nil
}
