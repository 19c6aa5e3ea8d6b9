package main

import (
	"context"
	"fmt"

	"rollbook/internal/roster"
	"rollbook/internal/store"
)

// Seed clears st and creates three departments, two classes under the first
// and one sample student.
func Seed(ctx context.Context, st store.Store, svc *roster.Service) error {
	if err := st.Reset(ctx); err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	var deptIDs []string
	for _, name := range []string{"Islamic Studies", "Arabic Language", "Computer Science"} {
		d, err := svc.AddDepartment(ctx, name)
		if err != nil {
			return fmt.Errorf("department %q: %w", name, err)
		}
		deptIDs = append(deptIDs, d.ID)
	}

	year1, err := svc.AddClass(ctx, "Year 1", deptIDs[0])
	if err != nil {
		return fmt.Errorf("class Year 1: %w", err)
	}
	if _, err := svc.AddClass(ctx, "Year 2", deptIDs[0]); err != nil {
		return fmt.Errorf("class Year 2: %w", err)
	}

	if _, err := svc.AddStudent(ctx, "Sample Student", deptIDs[0], year1.ID); err != nil {
		return fmt.Errorf("sample student: %w", err)
	}
	return nil
}
