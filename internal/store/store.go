// Package store persists departments, classes and students.
//
// References between records are plain identifiers; the store never enforces them.
// Deleting a record leaves anything that pointed at it untouched.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"rollbook/internal/config"
	"rollbook/internal/model"
)

var (
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("store: record not found")
	// ErrClassFull is returned by AdmitStudent when the class roster is at the limit.
	ErrClassFull = errors.New("store: class full")
)

// Store is the entity store contract shared by every backend.
//
// List methods return records in insertion order. An empty filter id lists everything.
type Store interface {
	CreateDepartment(ctx context.Context, d *model.Department) error
	GetDepartment(ctx context.Context, id string) (model.Department, error)
	ListDepartments(ctx context.Context) ([]model.Department, error)
	RenameDepartment(ctx context.Context, id, name string) (model.Department, error)
	DeleteDepartment(ctx context.Context, id string) error

	CreateClass(ctx context.Context, c *model.Class) error
	GetClass(ctx context.Context, id string) (model.Class, error)
	ListClasses(ctx context.Context, departmentID string) ([]model.Class, error)
	RenameClass(ctx context.Context, id, name string) (model.Class, error)
	DeleteClass(ctx context.Context, id string) error

	// AdmitStudent inserts s only if fewer than limit students reference s.ClassID.
	// The count and the insert happen as one operation.
	AdmitStudent(ctx context.Context, s *model.Student, limit int) error
	GetStudent(ctx context.Context, id string) (model.Student, error)
	ListStudents(ctx context.Context, classID string) ([]model.Student, error)
	CountStudents(ctx context.Context, classID string) (int, error)
	UpdateStudent(ctx context.Context, id string, u model.StudentUpdate) (model.Student, error)
	DeleteStudent(ctx context.Context, id string) error

	// Reset removes every record. Used by the seeder.
	Reset(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// NewID returns a time ordered identifier, so sorting by id keeps insertion order.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Open builds the backend selected by cfg.StoreBackend.
func Open(ctx context.Context, cfg config.App) (Store, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		return NewMemory(), nil
	case config.StorePostgres:
		db, err := OpenSQL(ctx, DriverPostgres, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return NewSQL(ctx, db)
	case config.StoreSQLite:
		db, err := OpenSQL(ctx, DriverSQLite, SQLiteDSN(cfg.SQLitePath))
		if err != nil {
			return nil, err
		}
		return NewSQL(ctx, db)
	case config.StoreMongo:
		return OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	}
	return nil, fmt.Errorf("store: unknown backend %q", cfg.StoreBackend)
}
