// Package employees provides read-only access to the employee directory in
// PostgreSQL. The directory is maintained by an external HR sync; this
// service never writes to it.
package employees

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emposo/cvision/internal/types"
)

const employeeColumns = `alias, name, first_name, last_name, title, department, unit,
	location, email, employee_id, job_code, project_role, experience_level,
	manager, manager_alias, company, phone, office, division, start_date`

// Store wraps a PostgreSQL connection pool for directory lookups.
type Store struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the directory database.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// GetByAlias returns the full record for one employee, or nil when the alias
// is unknown.
func (s *Store) GetByAlias(ctx context.Context, alias string) (*types.EmployeeDetail, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+employeeColumns+`
		 FROM employees
		 WHERE alias = $1 OR employee_id = $1`,
		alias,
	)

	detail, err := scanEmployee(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get employee %s: %w", alias, err)
	}
	return detail, nil
}

// List returns a page of employee summaries ordered by name.
func (s *Store) List(ctx context.Context, skip, limit int) ([]types.EmployeeSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+employeeColumns+`
		 FROM employees
		 ORDER BY name
		 OFFSET $1 LIMIT $2`,
		skip, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	summaries := make([]types.EmployeeSummary, 0, limit)
	for rows.Next() {
		detail, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		summaries = append(summaries, detail.EmployeeSummary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return summaries, nil
}

// CheckConnection verifies the directory is reachable.
func (s *Store) CheckConnection(ctx context.Context) error {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(1) FROM employees`).Scan(&count); err != nil {
		return fmt.Errorf("directory check failed: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (*types.EmployeeDetail, error) {
	var (
		d         types.EmployeeDetail
		name      *string
		fields    [17]*string
		startDate *time.Time
	)

	err := row.Scan(
		&d.ID, &name, &fields[0], &fields[1], &fields[2], &fields[3], &fields[4],
		&fields[5], &fields[6], &fields[7], &fields[8], &fields[9], &fields[10],
		&fields[11], &fields[12], &fields[13], &fields[14], &fields[15], &fields[16],
		&startDate,
	)
	if err != nil {
		return nil, err
	}

	deref := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}

	d.Name = deref(name)
	d.FirstName = deref(fields[0])
	d.LastName = deref(fields[1])
	d.Title = deref(fields[2])
	d.Department = deref(fields[3])
	d.Unit = deref(fields[4])
	d.Location = deref(fields[5])
	d.Email = deref(fields[6])
	d.EmployeeID = deref(fields[7])
	d.JobCode = deref(fields[8])
	d.ProjectRole = deref(fields[9])
	d.ExperienceLevel = deref(fields[10])
	d.Manager = deref(fields[11])
	d.ManagerAlias = deref(fields[12])
	d.Company = deref(fields[13])
	d.Phone = deref(fields[14])
	d.Office = deref(fields[15])
	d.Division = deref(fields[16])

	if startDate != nil {
		d.StartDate = startDate.Format("2006-01-02")
	}
	d.YearsOfExperience = experienceFromStart(startDate, time.Now())

	return &d, nil
}

// experienceFromStart formats tenure in years with one decimal place, or
// "N/A" when the start date is unknown or in the future.
func experienceFromStart(start *time.Time, now time.Time) string {
	if start == nil || start.After(now) {
		return "N/A"
	}
	years := now.Sub(*start).Hours() / 24 / 365.25
	return fmt.Sprintf("%.1f", years)
}
