package service

import (
	"context"
	"math"
	"time"

	"github.com/staffdesk/staffdesk-backend/internal/leave/repository"
	"github.com/staffdesk/staffdesk-backend/pkg/errors"
	"github.com/staffdesk/staffdesk-backend/pkg/identity"
	"github.com/staffdesk/staffdesk-backend/pkg/logger"
)

const dateLayout = "2006-01-02"

// EventSink receives leave lifecycle events. Publishing is best-effort
// and must never fail the request.
type EventSink interface {
	LeaveRequested(ctx context.Context, leave *repository.Leave)
	LeaveReviewed(ctx context.Context, leave *repository.Leave, status, approverID string)
	LeaveDeleted(ctx context.Context, leaveID string)
}

// CreateRequest is the payload for requesting leave
type CreateRequest struct {
	Type      string `json:"type" validate:"required,oneof='Annual Leave' 'Sick Leave' 'Personal Leave'"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
	Reason    string `json:"reason" validate:"required"`
}

// ReviewRequest is the payload for approving or rejecting a leave request
type ReviewRequest struct {
	Status string `json:"status" validate:"required,oneof=Approved Rejected"`
}

// DaySpan returns the number of days a leave request covers. The span is
// inclusive of both endpoints, so a single-day request counts as one day.
func DaySpan(start, end time.Time) int {
	diff := end.Sub(start)
	if diff < 0 {
		diff = -diff
	}
	return int(math.Ceil(diff.Hours()/24)) + 1
}

// LeaveService handles leave request business logic
type LeaveService struct {
	repo   *repository.LeaveRepository
	events EventSink
	log    *logger.Logger
}

// NewLeaveService creates a new leave service
func NewLeaveService(repo *repository.LeaveRepository, events EventSink, log *logger.Logger) *LeaveService {
	return &LeaveService{
		repo:   repo,
		events: events,
		log:    log.WithComponent("leave-service"),
	}
}

// Create files a pending leave request for the caller's own employee record.
func (s *LeaveService) Create(ctx context.Context, req CreateRequest) (*repository.Leave, error) {
	caller, err := identity.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	if caller.EmployeeID == nil {
		return nil, errors.BadRequest("no employee profile linked to this account")
	}

	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, errors.BadRequest("start_date must be in YYYY-MM-DD format")
	}
	endDate, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return nil, errors.BadRequest("end_date must be in YYYY-MM-DD format")
	}

	leave := &repository.Leave{
		EmployeeID: *caller.EmployeeID,
		Type:       req.Type,
		StartDate:  startDate,
		EndDate:    endDate,
		Days:       DaySpan(startDate, endDate),
		Reason:     req.Reason,
	}

	if err := s.repo.Create(ctx, leave); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("leave_id", leave.ID).
		Str("employee_id", leave.EmployeeID).
		Str("type", leave.Type).
		Int("days", leave.Days).
		Msg("leave requested")

	s.events.LeaveRequested(ctx, leave)

	return leave, nil
}

// ListAll lists every leave request. Admin only.
func (s *LeaveService) ListAll(ctx context.Context) ([]*repository.Leave, error) {
	caller, err := identity.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() {
		return nil, errors.Forbidden("admin access required")
	}

	return s.repo.ListAll(ctx)
}

// ListForEmployee lists an employee's leave requests. Admins may list any
// employee's, employees only their own.
func (s *LeaveService) ListForEmployee(ctx context.Context, employeeID string) ([]*repository.Leave, error) {
	caller, err := identity.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !caller.CanAccessEmployee(employeeID) {
		return nil, errors.Forbidden("you may only view your own leave requests")
	}

	return s.repo.ListByEmployee(ctx, employeeID)
}

// Review approves or rejects a pending leave request. Admin only. Approval
// deducts the requested days from the employee's balance; the deduction and
// the status change are a single atomic operation in the store.
func (s *LeaveService) Review(ctx context.Context, id string, req ReviewRequest) (*repository.Leave, error) {
	caller, err := identity.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() {
		return nil, errors.Forbidden("admin access required")
	}

	leave, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if leave.Status != repository.StatusPending {
		return nil, errors.Conflict("leave request has already been reviewed")
	}

	switch req.Status {
	case repository.StatusApproved:
		err = s.repo.Approve(ctx, leave, caller.ID)
	case repository.StatusRejected:
		err = s.repo.Reject(ctx, leave.ID, caller.ID)
	default:
		return nil, errors.BadRequest("status must be Approved or Rejected")
	}
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("leave_id", leave.ID).
		Str("employee_id", leave.EmployeeID).
		Str("status", req.Status).
		Str("approved_by", caller.ID).
		Msg("leave reviewed")

	s.events.LeaveReviewed(ctx, leave, req.Status, caller.ID)

	// The transition is committed; build the response from what is known
	// rather than refetching, so a read hiccup cannot make a committed
	// review look failed.
	now := time.Now().UTC()
	leave.Status = req.Status
	leave.ApprovedBy = &caller.ID
	leave.ApprovedAt = &now
	if caller.Email != "" {
		leave.ApproverEmail = &caller.Email
	}

	return leave, nil
}

// Delete removes a leave request while it is still pending. Admin only.
func (s *LeaveService) Delete(ctx context.Context, id string) error {
	caller, err := identity.FromContext(ctx)
	if err != nil {
		return err
	}
	if !caller.IsAdmin() {
		return errors.Forbidden("admin access required")
	}

	leave, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if leave.Status != repository.StatusPending {
		return errors.BadRequest("only pending leave requests can be deleted")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info().Str("leave_id", id).Msg("leave request deleted")
	s.events.LeaveDeleted(ctx, id)

	return nil
}
