package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"rollbook/internal/model"
)

// SQL persists records in Postgres or SQLite. Queries are written with '?' and
// rebound for the driver.
type SQL struct {
	db *sqlx.DB
}

// NewSQL wraps an open connection and creates the schema if needed.
func NewSQL(ctx context.Context, db *sqlx.DB) (*SQL, error) {
	s := &SQL{db: db}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQL) postgres() bool { return s.db.DriverName() == DriverPostgres }

func (s *SQL) migrate(ctx context.Context) error {
	// "C" collation keeps text ids in byte order on Postgres.
	idType, tsType := `TEXT COLLATE "C"`, "TIMESTAMPTZ"
	if !s.postgres() {
		idType, tsType = "TEXT", "DATETIME"
	}
	schema := []string{
		`CREATE TABLE IF NOT EXISTS departments (
			id   ` + idType + ` PRIMARY KEY,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS classes (
			id            ` + idType + ` PRIMARY KEY,
			name          TEXT NOT NULL,
			department_id TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_classes_department ON classes(department_id)`,
		`CREATE TABLE IF NOT EXISTS students (
			id            ` + idType + ` PRIMARY KEY,
			name          TEXT NOT NULL,
			department_id TEXT NOT NULL,
			class_id      TEXT NOT NULL,
			status        TEXT,
			last_updated  ` + tsType + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_students_class ON students(class_id)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

const studentColumns = `id, name, department_id, class_id, COALESCE(status, '') AS status, last_updated`

func (s *SQL) CreateDepartment(ctx context.Context, d *model.Department) error {
	d.ID = NewID()
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO departments (id, name) VALUES (:id, :name)`, d)
	return err
}

func (s *SQL) GetDepartment(ctx context.Context, id string) (model.Department, error) {
	var d model.Department
	err := s.db.GetContext(ctx, &d, s.db.Rebind(`SELECT id, name FROM departments WHERE id = ?`), id)
	return d, notFound(err)
}

func (s *SQL) ListDepartments(ctx context.Context) ([]model.Department, error) {
	out := []model.Department{}
	err := s.db.SelectContext(ctx, &out, `SELECT id, name FROM departments ORDER BY id`)
	return out, err
}

func (s *SQL) RenameDepartment(ctx context.Context, id, name string) (model.Department, error) {
	if err := s.execOne(ctx, `UPDATE departments SET name = ? WHERE id = ?`, name, id); err != nil {
		return model.Department{}, err
	}
	return s.GetDepartment(ctx, id)
}

func (s *SQL) DeleteDepartment(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM departments WHERE id = ?`), id)
	return err
}

func (s *SQL) CreateClass(ctx context.Context, c *model.Class) error {
	c.ID = NewID()
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO classes (id, name, department_id) VALUES (:id, :name, :department_id)`, c)
	return err
}

func (s *SQL) GetClass(ctx context.Context, id string) (model.Class, error) {
	var c model.Class
	err := s.db.GetContext(ctx, &c,
		s.db.Rebind(`SELECT id, name, department_id FROM classes WHERE id = ?`), id)
	return c, notFound(err)
}

func (s *SQL) ListClasses(ctx context.Context, departmentID string) ([]model.Class, error) {
	out := []model.Class{}
	query, args := `SELECT id, name, department_id FROM classes`, []any{}
	if departmentID != "" {
		query += ` WHERE department_id = ?`
		args = append(args, departmentID)
	}
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(query+` ORDER BY id`), args...)
	return out, err
}

func (s *SQL) RenameClass(ctx context.Context, id, name string) (model.Class, error) {
	if err := s.execOne(ctx, `UPDATE classes SET name = ? WHERE id = ?`, name, id); err != nil {
		return model.Class{}, err
	}
	return s.GetClass(ctx, id)
}

func (s *SQL) DeleteClass(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM classes WHERE id = ?`), id)
	return err
}

func (s *SQL) AdmitStudent(ctx context.Context, st *model.Student, limit int) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if s.postgres() {
			// Serializes admissions to the same class until the transaction ends.
			if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, st.ClassID); err != nil {
				return fmt.Errorf("class lock: %w", err)
			}
		}
		var n int
		if err := tx.GetContext(ctx, &n, tx.Rebind(`SELECT COUNT(*) FROM students WHERE class_id = ?`), st.ClassID); err != nil {
			return err
		}
		if n >= limit {
			return ErrClassFull
		}
		st.ID = NewID()
		_, err := tx.NamedExecContext(ctx, `INSERT INTO students (id, name, department_id, class_id, status, last_updated)
			VALUES (:id, :name, :department_id, :class_id, :status, :last_updated)`, st)
		return err
	})
}

func (s *SQL) GetStudent(ctx context.Context, id string) (model.Student, error) {
	var st model.Student
	err := s.db.GetContext(ctx, &st,
		s.db.Rebind(`SELECT `+studentColumns+` FROM students WHERE id = ?`), id)
	return st, notFound(err)
}

func (s *SQL) ListStudents(ctx context.Context, classID string) ([]model.Student, error) {
	out := []model.Student{}
	query, args := `SELECT `+studentColumns+` FROM students`, []any{}
	if classID != "" {
		query += ` WHERE class_id = ?`
		args = append(args, classID)
	}
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(query+` ORDER BY id`), args...)
	return out, err
}

func (s *SQL) CountStudents(ctx context.Context, classID string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, s.db.Rebind(`SELECT COUNT(*) FROM students WHERE class_id = ?`), classID)
	return n, err
}

func (s *SQL) UpdateStudent(ctx context.Context, id string, u model.StudentUpdate) (model.Student, error) {
	if u.Empty() {
		return s.GetStudent(ctx, id)
	}
	var sets []string
	var args []any
	if u.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *u.Name)
	}
	if u.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*u.Status))
	}
	if u.LastUpdated != nil {
		sets = append(sets, "last_updated = ?")
		args = append(args, *u.LastUpdated)
	}
	args = append(args, id)
	if err := s.execOne(ctx, `UPDATE students SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
		return model.Student{}, err
	}
	return s.GetStudent(ctx, id)
}

func (s *SQL) DeleteStudent(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM students WHERE id = ?`), id)
	return err
}

func (s *SQL) Reset(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, table := range []string{"students", "classes", "departments"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQL) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQL) Close() error { return s.db.Close() }

// execOne runs an update and reports ErrNotFound when no row matched.
func (s *SQL) execOne(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQL) withTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
