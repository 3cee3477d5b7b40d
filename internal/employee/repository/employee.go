package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/staffdesk/staffdesk-backend/pkg/database"
	"github.com/staffdesk/staffdesk-backend/pkg/errors"
)

// Employee statuses
const (
	StatusActive     = "Active"
	StatusOnLeave    = "On Leave"
	StatusTerminated = "Terminated"
)

// Employee represents an employee profile with its leave balances
type Employee struct {
	ID             string         `db:"id" json:"id"`
	EmployeeNumber string         `db:"employee_number" json:"employee_number"`
	Name           string         `db:"name" json:"name"`
	Email          string         `db:"email" json:"email"`
	Phone          string         `db:"phone" json:"phone"`
	Address        string         `db:"address" json:"address"`
	Department     string         `db:"department" json:"department"`
	Position       string         `db:"position" json:"position"`
	JoinDate       time.Time      `db:"join_date" json:"join_date"`
	Status         string         `db:"status" json:"status"` // Active, On Leave, Terminated
	Salary         string         `db:"salary" json:"salary"`
	Manager        *string        `db:"manager" json:"manager,omitempty"` // Denormalized display name
	EmergencyName  string         `db:"emergency_contact_name" json:"emergency_contact_name"`
	EmergencyPhone string         `db:"emergency_contact_phone" json:"emergency_contact_phone"`
	Skills         pq.StringArray `db:"skills" json:"skills"`
	Projects       pq.StringArray `db:"projects" json:"projects"`
	Performance    string         `db:"performance" json:"performance"` // Excellent, Good, Average, Poor
	LeaveAnnual    int            `db:"leave_annual" json:"leave_annual"`
	LeaveSick      int            `db:"leave_sick" json:"leave_sick"`
	LeavePersonal  int            `db:"leave_personal" json:"leave_personal"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// UpdateParams holds the optional fields of a partial employee update.
// Every field is present-or-absent: a non-nil pointer is applied even when
// it points at an empty string or zero, so legitimate blank updates are
// never silently dropped.
type UpdateParams struct {
	Name           *string
	Email          *string
	Phone          *string
	Address        *string
	Department     *string
	Position       *string
	JoinDate       *time.Time
	Status         *string
	Salary         *string
	Manager        *string
	EmergencyName  *string
	EmergencyPhone *string
	Skills         *[]string
	Projects       *[]string
	Performance    *string
	LeaveAnnual    *int
	LeaveSick      *int
	LeavePersonal  *int
}

// Fields returns the names of the fields carried by the update, for event payloads.
func (p *UpdateParams) Fields() []string {
	var fields []string
	for name, set := range map[string]bool{
		"name":              p.Name != nil,
		"email":             p.Email != nil,
		"phone":             p.Phone != nil,
		"address":           p.Address != nil,
		"department":        p.Department != nil,
		"position":          p.Position != nil,
		"join_date":         p.JoinDate != nil,
		"status":            p.Status != nil,
		"salary":            p.Salary != nil,
		"manager":           p.Manager != nil,
		"emergency_contact": p.EmergencyName != nil || p.EmergencyPhone != nil,
		"skills":            p.Skills != nil,
		"projects":          p.Projects != nil,
		"performance":       p.Performance != nil,
		"leave_balance":     p.LeaveAnnual != nil || p.LeaveSick != nil || p.LeavePersonal != nil,
	} {
		if set {
			fields = append(fields, name)
		}
	}
	sort.Strings(fields)
	return fields
}

// EmployeeRepository handles employee persistence
type EmployeeRepository struct {
	db *database.DB
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *database.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// Create creates a new employee. The display number is drawn from a
// database sequence inside the INSERT itself, so concurrent creates can
// never collide. When passwordHash is non-empty a paired employee-role
// credential record is created in the same transaction.
func (r *EmployeeRepository) Create(ctx context.Context, emp *Employee, passwordHash string) error {
	if emp.ID == "" {
		emp.ID = uuid.New().String()
	}
	if emp.Status == "" {
		emp.Status = StatusActive
	}
	if emp.Performance == "" {
		emp.Performance = "Good"
	}
	if emp.Skills == nil {
		emp.Skills = pq.StringArray{}
	}
	if emp.Projects == nil {
		emp.Projects = pq.StringArray{}
	}

	err := r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO employees (
				id, employee_number, name, email, phone, address, department, position,
				join_date, status, salary, manager, emergency_contact_name, emergency_contact_phone,
				skills, projects, performance, leave_annual, leave_sick, leave_personal
			) VALUES (
				$1, 'EMP' || lpad(nextval('employee_number_seq')::text, 3, '0'),
				$2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19
			) RETURNING employee_number, created_at, updated_at
		`

		if err := tx.QueryRowxContext(ctx, query,
			emp.ID, emp.Name, emp.Email, emp.Phone, emp.Address, emp.Department, emp.Position,
			emp.JoinDate, emp.Status, emp.Salary, emp.Manager, emp.EmergencyName, emp.EmergencyPhone,
			emp.Skills, emp.Projects, emp.Performance, emp.LeaveAnnual, emp.LeaveSick, emp.LeavePersonal,
		).Scan(&emp.EmployeeNumber, &emp.CreatedAt, &emp.UpdatedAt); err != nil {
			return err
		}

		if passwordHash != "" {
			credQuery := `
				INSERT INTO users (id, email, password_hash, role, employee_id)
				VALUES ($1, $2, $3, 'employee', $4)
			`
			if _, err := tx.ExecContext(ctx, credQuery,
				uuid.New().String(), emp.Email, passwordHash, emp.ID,
			); err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets an employee by id
func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*Employee, error) {
	var emp Employee

	query := `
		SELECT id, employee_number, name, email, phone, address, department, position,
		       join_date, status, salary, manager, emergency_contact_name, emergency_contact_phone,
		       skills, projects, performance, leave_annual, leave_sick, leave_personal,
		       created_at, updated_at
		FROM employees
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &emp, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("employee")
	}
	if err != nil {
		return nil, err
	}

	return &emp, nil
}

// List lists all employees ordered by their display number
func (r *EmployeeRepository) List(ctx context.Context) ([]*Employee, error) {
	var employees []*Employee

	query := `
		SELECT id, employee_number, name, email, phone, address, department, position,
		       join_date, status, salary, manager, emergency_contact_name, emergency_contact_phone,
		       skills, projects, performance, leave_annual, leave_sick, leave_personal,
		       created_at, updated_at
		FROM employees
		ORDER BY employee_number
	`

	if err := r.db.SelectContext(ctx, &employees, query); err != nil {
		return nil, err
	}

	return employees, nil
}

// Update applies a partial update. When the email changes, the paired
// credential record is updated first and the employee second, inside one
// transaction, so login email and profile email cannot drift apart.
func (r *EmployeeRepository) Update(ctx context.Context, id string, params UpdateParams) error {
	set, args := buildUpdateSet(params)
	if len(set) == 0 {
		return nil
	}

	err := r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if params.Email != nil {
			credQuery := `UPDATE users SET email = $1, updated_at = NOW() WHERE employee_id = $2`
			if _, err := tx.ExecContext(ctx, credQuery, *params.Email, id); err != nil {
				return err
			}
		}

		args = append(args, id)
		query := fmt.Sprintf(
			`UPDATE employees SET %s, updated_at = NOW() WHERE id = $%d`,
			strings.Join(set, ", "), len(args),
		)

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}

		affected, _ := result.RowsAffected()
		if affected == 0 {
			return errors.NotFound("employee")
		}

		return nil
	})

	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// Delete removes an employee together with its leave history and its
// paired credential record, in one transaction. The leave rows must go
// first or their foreign key blocks the employee delete. A later login
// with that email fails.
func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	return r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM leaves WHERE employee_id = $1`, id); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE employee_id = $1`, id); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id)
		if err != nil {
			return err
		}

		affected, _ := result.RowsAffected()
		if affected == 0 {
			return errors.NotFound("employee")
		}

		return nil
	})
}

func buildUpdateSet(params UpdateParams) ([]string, []interface{}) {
	var set []string
	var args []interface{}

	add := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.Name != nil {
		add("name", *params.Name)
	}
	if params.Email != nil {
		add("email", *params.Email)
	}
	if params.Phone != nil {
		add("phone", *params.Phone)
	}
	if params.Address != nil {
		add("address", *params.Address)
	}
	if params.Department != nil {
		add("department", *params.Department)
	}
	if params.Position != nil {
		add("position", *params.Position)
	}
	if params.JoinDate != nil {
		add("join_date", *params.JoinDate)
	}
	if params.Status != nil {
		add("status", *params.Status)
	}
	if params.Salary != nil {
		add("salary", *params.Salary)
	}
	if params.Manager != nil {
		add("manager", *params.Manager)
	}
	if params.EmergencyName != nil {
		add("emergency_contact_name", *params.EmergencyName)
	}
	if params.EmergencyPhone != nil {
		add("emergency_contact_phone", *params.EmergencyPhone)
	}
	if params.Skills != nil {
		add("skills", pq.StringArray(*params.Skills))
	}
	if params.Projects != nil {
		add("projects", pq.StringArray(*params.Projects))
	}
	if params.Performance != nil {
		add("performance", *params.Performance)
	}
	if params.LeaveAnnual != nil {
		add("leave_annual", *params.LeaveAnnual)
	}
	if params.LeaveSick != nil {
		add("leave_sick", *params.LeaveSick)
	}
	if params.LeavePersonal != nil {
		add("leave_personal", *params.LeavePersonal)
	}

	return set, args
}
