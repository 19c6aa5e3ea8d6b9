package model

import "time"

// MaxClassSize is the roster limit enforced when a student is admitted.
const MaxClassSize = 10

// Department is the root of the hierarchy.
type Department struct {
	ID   string `json:"_id" db:"id" bson:"_id"`
	Name string `json:"name" db:"name" bson:"name"`
}

// Class belongs to a department. DepartmentID is only checked when the class is created.
type Class struct {
	ID           string `json:"_id" db:"id" bson:"_id"`
	Name         string `json:"name" db:"name" bson:"name"`
	DepartmentID string `json:"department" db:"department_id" bson:"department"`
}

// Student is admitted to a class and carries its latest attendance status.
type Student struct {
	ID           string    `json:"_id" db:"id" bson:"_id"`
	Name         string    `json:"name" db:"name" bson:"name"`
	DepartmentID string    `json:"department" db:"department_id" bson:"department"`
	ClassID      string    `json:"className" db:"class_id" bson:"className"`
	Status       Status    `json:"status" db:"status" bson:"status,omitempty"`
	LastUpdated  time.Time `json:"lastUpdated" db:"last_updated" bson:"lastUpdated"`
}

// StudentUpdate lists the fields a store update may change. Nil fields are left alone.
type StudentUpdate struct {
	Name        *string
	Status      *Status
	LastUpdated *time.Time
}

// Empty reports whether the update would change nothing.
func (u StudentUpdate) Empty() bool {
	return u.Name == nil && u.Status == nil && u.LastUpdated == nil
}

// StudentPatch is the partial profile update accepted from callers.
type StudentPatch struct {
	Name   *string `json:"name"`
	Status *Status `json:"status"`
}

// StudentView is a student with its department and class resolved.
// Department and Class are nil when the reference is dangling.
type StudentView struct {
	ID           string      `json:"_id"`
	Name         string      `json:"name"`
	DepartmentID string      `json:"departmentId"`
	ClassID      string      `json:"classId"`
	Department   *Department `json:"department"`
	Class        *Class      `json:"className"`
	Status       Status      `json:"status"`
	LastUpdated  time.Time   `json:"lastUpdated"`
}

// Snapshot is the full dataset returned by the all-data query.
type Snapshot struct {
	Departments []Department  `json:"departments"`
	Classes     []Class       `json:"classes"`
	Students    []StudentView `json:"students"`
}

// Summary holds per-class attendance counts.
type Summary struct {
	ClassID string `json:"classId"`
	Present int    `json:"presentCount"`
	Absent  int    `json:"absentCount"`
	Late    int    `json:"lateCount"`
	Total   int    `json:"total"`
}
