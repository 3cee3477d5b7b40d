package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/staffdesk/staffdesk-backend/pkg/database"
	"github.com/staffdesk/staffdesk-backend/pkg/errors"
)

// Leave statuses
const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

// Leave types
const (
	TypeAnnual   = "Annual Leave"
	TypeSick     = "Sick Leave"
	TypePersonal = "Personal Leave"
)

// balanceColumns maps each leave type to the employee balance column it
// draws from. The map doubles as the whitelist for the column name that
// is interpolated into the decrement statement.
var balanceColumns = map[string]string{
	TypeAnnual:   "leave_annual",
	TypeSick:     "leave_sick",
	TypePersonal: "leave_personal",
}

// BalanceColumn returns the employee balance column for a leave type.
func BalanceColumn(leaveType string) (string, bool) {
	column, ok := balanceColumns[leaveType]
	return column, ok
}

// Leave represents a leave request. The employee and approver fields are
// joined in on reads for display.
type Leave struct {
	ID         string     `db:"id" json:"id"`
	EmployeeID string     `db:"employee_id" json:"employee_id"`
	Type       string     `db:"type" json:"type"`
	StartDate  time.Time  `db:"start_date" json:"start_date"`
	EndDate    time.Time  `db:"end_date" json:"end_date"`
	Days       int        `db:"days" json:"days"`
	Reason     string     `db:"reason" json:"reason"`
	Status     string     `db:"status" json:"status"` // Pending, Approved, Rejected
	ApprovedBy *string    `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt *time.Time `db:"approved_at" json:"approved_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`

	EmployeeName   string  `db:"employee_name" json:"employee_name"`
	EmployeeNumber string  `db:"employee_number" json:"employee_number"`
	Department     string  `db:"department" json:"department"`
	ApproverEmail  *string `db:"approver_email" json:"approver_email,omitempty"`
}

const leaveSelect = `
	SELECT l.id, l.employee_id, l.type, l.start_date, l.end_date, l.days,
	       l.reason, l.status, l.approved_by, l.approved_at, l.created_at, l.updated_at,
	       e.name AS employee_name, e.employee_number, e.department,
	       u.email AS approver_email
	FROM leaves l
	JOIN employees e ON e.id = l.employee_id
	LEFT JOIN users u ON u.id = l.approved_by
`

// LeaveRepository handles leave request persistence
type LeaveRepository struct {
	db *database.DB
}

// NewLeaveRepository creates a new leave repository
func NewLeaveRepository(db *database.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// Create creates a new pending leave request
func (r *LeaveRepository) Create(ctx context.Context, leave *Leave) error {
	if leave.ID == "" {
		leave.ID = uuid.New().String()
	}
	leave.Status = StatusPending

	query := `
		INSERT INTO leaves (id, employee_id, type, start_date, end_date, days, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		leave.ID, leave.EmployeeID, leave.Type, leave.StartDate, leave.EndDate,
		leave.Days, leave.Reason, leave.Status,
	).Scan(&leave.CreatedAt, &leave.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets a leave request by id
func (r *LeaveRepository) GetByID(ctx context.Context, id string) (*Leave, error) {
	var leave Leave

	err := r.db.GetContext(ctx, &leave, leaveSelect+` WHERE l.id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("leave request")
	}
	if err != nil {
		return nil, err
	}

	return &leave, nil
}

// ListAll lists every leave request, newest first
func (r *LeaveRepository) ListAll(ctx context.Context) ([]*Leave, error) {
	var leaves []*Leave

	if err := r.db.SelectContext(ctx, &leaves, leaveSelect+` ORDER BY l.created_at DESC`); err != nil {
		return nil, err
	}

	return leaves, nil
}

// ListByEmployee lists an employee's leave requests, newest first
func (r *LeaveRepository) ListByEmployee(ctx context.Context, employeeID string) ([]*Leave, error) {
	var leaves []*Leave

	query := leaveSelect + ` WHERE l.employee_id = $1 ORDER BY l.created_at DESC`
	if err := r.db.SelectContext(ctx, &leaves, query, employeeID); err != nil {
		return nil, err
	}

	return leaves, nil
}

// Approve approves a pending leave request and deducts its days from the
// employee's balance in one transaction. The decrement is conditional on
// the balance covering the request, and the status write is conditional on
// the request still being pending, so two concurrent reviews can never
// double-spend a balance.
func (r *LeaveRepository) Approve(ctx context.Context, leave *Leave, approverID string) error {
	column, ok := BalanceColumn(leave.Type)
	if !ok {
		return errors.BadRequest(fmt.Sprintf("unknown leave type: %s", leave.Type))
	}

	return r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		deduct := fmt.Sprintf(
			`UPDATE employees SET %s = %s - $1, updated_at = NOW() WHERE id = $2 AND %s >= $1`,
			column, column, column,
		)

		result, err := tx.ExecContext(ctx, deduct, leave.Days, leave.EmployeeID)
		if err != nil {
			return err
		}
		if affected, _ := result.RowsAffected(); affected == 0 {
			return errors.BadRequest("insufficient leave balance")
		}

		status := `
			UPDATE leaves SET status = $1, approved_by = $2, approved_at = NOW(), updated_at = NOW()
			WHERE id = $3 AND status = $4
		`
		result, err = tx.ExecContext(ctx, status, StatusApproved, approverID, leave.ID, StatusPending)
		if err != nil {
			return err
		}
		if affected, _ := result.RowsAffected(); affected == 0 {
			return errors.Conflict("leave request has already been reviewed")
		}

		return nil
	})
}

// Reject rejects a pending leave request. No balance is touched.
func (r *LeaveRepository) Reject(ctx context.Context, id string, approverID string) error {
	query := `
		UPDATE leaves SET status = $1, approved_by = $2, approved_at = NOW(), updated_at = NOW()
		WHERE id = $3 AND status = $4
	`

	result, err := r.db.ExecContext(ctx, query, StatusRejected, approverID, id, StatusPending)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return errors.Conflict("leave request has already been reviewed")
	}

	return nil
}

// Delete removes a leave request while it is still pending. The guard is
// part of the statement so a concurrent approval cannot be undone.
func (r *LeaveRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM leaves WHERE id = $1 AND status = $2`

	result, err := r.db.ExecContext(ctx, query, id, StatusPending)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return errors.BadRequest("only pending leave requests can be deleted")
	}

	return nil
}
