package service

import (
	"context"
	"time"

	"github.com/staffdesk/staffdesk-backend/internal/employee/repository"
	"github.com/staffdesk/staffdesk-backend/pkg/errors"
	"github.com/staffdesk/staffdesk-backend/pkg/identity"
	"github.com/staffdesk/staffdesk-backend/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

// Default leave allocations for new employees
const (
	DefaultLeaveAnnual   = 20
	DefaultLeaveSick     = 10
	DefaultLeavePersonal = 5
)

const dateLayout = "2006-01-02"

// EventSink receives employee lifecycle events. Publishing is best-effort
// and must never fail the request.
type EventSink interface {
	EmployeeCreated(ctx context.Context, emp *repository.Employee, hasCredentials bool)
	EmployeeUpdated(ctx context.Context, employeeID string, fields []string)
	EmployeeDeleted(ctx context.Context, employeeID string)
}

// CreateRequest is the payload for creating an employee
type CreateRequest struct {
	Name           string   `json:"name" validate:"required"`
	Email          string   `json:"email" validate:"required,email"`
	Phone          string   `json:"phone"`
	Address        string   `json:"address"`
	Department     string   `json:"department" validate:"required"`
	Position       string   `json:"position" validate:"required"`
	JoinDate       string   `json:"join_date" validate:"required"`
	Status         string   `json:"status" validate:"omitempty,oneof='Active' 'On Leave' 'Terminated'"`
	Salary         string   `json:"salary"`
	Manager        *string  `json:"manager"`
	EmergencyName  string   `json:"emergency_contact_name"`
	EmergencyPhone string   `json:"emergency_contact_phone"`
	Skills         []string `json:"skills"`
	Projects       []string `json:"projects"`
	Performance    string   `json:"performance" validate:"omitempty,oneof=Excellent Good Average Poor"`
	LeaveAnnual    *int     `json:"leave_annual" validate:"omitempty,min=0"`
	LeaveSick      *int     `json:"leave_sick" validate:"omitempty,min=0"`
	LeavePersonal  *int     `json:"leave_personal" validate:"omitempty,min=0"`

	// Password, when set, creates a login credential for the employee
	Password string `json:"password" validate:"omitempty,min=6"`
}

// UpdateRequest is the payload for a partial employee update. Only fields
// present in the request body are applied.
type UpdateRequest struct {
	Name           *string   `json:"name"`
	Email          *string   `json:"email" validate:"omitempty,email"`
	Phone          *string   `json:"phone"`
	Address        *string   `json:"address"`
	Department     *string   `json:"department"`
	Position       *string   `json:"position"`
	JoinDate       *string   `json:"join_date"`
	Status         *string   `json:"status" validate:"omitempty,oneof='Active' 'On Leave' 'Terminated'"`
	Salary         *string   `json:"salary"`
	Manager        *string   `json:"manager"`
	EmergencyName  *string   `json:"emergency_contact_name"`
	EmergencyPhone *string   `json:"emergency_contact_phone"`
	Skills         *[]string `json:"skills"`
	Projects       *[]string `json:"projects"`
	Performance    *string   `json:"performance" validate:"omitempty,oneof=Excellent Good Average Poor"`
	LeaveAnnual    *int      `json:"leave_annual" validate:"omitempty,min=0"`
	LeaveSick      *int      `json:"leave_sick" validate:"omitempty,min=0"`
	LeavePersonal  *int      `json:"leave_personal" validate:"omitempty,min=0"`
}

// EmployeeService handles employee business logic
type EmployeeService struct {
	repo   *repository.EmployeeRepository
	events EventSink
	log    *logger.Logger
}

// NewEmployeeService creates a new employee service
func NewEmployeeService(repo *repository.EmployeeRepository, events EventSink, log *logger.Logger) *EmployeeService {
	return &EmployeeService{
		repo:   repo,
		events: events,
		log:    log.WithComponent("employee-service"),
	}
}

// Create creates an employee record and, when a password is supplied, a
// paired login credential. Admin only.
func (s *EmployeeService) Create(ctx context.Context, req CreateRequest) (*repository.Employee, error) {
	caller, err := identity.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() {
		return nil, errors.Forbidden("admin access required")
	}

	joinDate, err := time.Parse(dateLayout, req.JoinDate)
	if err != nil {
		return nil, errors.BadRequest("join_date must be in YYYY-MM-DD format")
	}

	emp := &repository.Employee{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Address:        req.Address,
		Department:     req.Department,
		Position:       req.Position,
		JoinDate:       joinDate,
		Status:         req.Status,
		Salary:         req.Salary,
		Manager:        req.Manager,
		EmergencyName:  req.EmergencyName,
		EmergencyPhone: req.EmergencyPhone,
		Skills:         req.Skills,
		Projects:       req.Projects,
		Performance:    req.Performance,
		LeaveAnnual:    DefaultLeaveAnnual,
		LeaveSick:      DefaultLeaveSick,
		LeavePersonal:  DefaultLeavePersonal,
	}
	if req.LeaveAnnual != nil {
		emp.LeaveAnnual = *req.LeaveAnnual
	}
	if req.LeaveSick != nil {
		emp.LeaveSick = *req.LeaveSick
	}
	if req.LeavePersonal != nil {
		emp.LeavePersonal = *req.LeavePersonal
	}

	var passwordHash string
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, errors.Internal("failed to hash password")
		}
		passwordHash = string(hash)
	}

	if err := s.repo.Create(ctx, emp, passwordHash); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("employee_id", emp.ID).
		Str("employee_number", emp.EmployeeNumber).
		Bool("has_credentials", passwordHash != "").
		Msg("employee created")

	s.events.EmployeeCreated(ctx, emp, passwordHash != "")

	return emp, nil
}

// Get returns an employee. Admins may read any record, employees only
// their own.
func (s *EmployeeService) Get(ctx context.Context, id string) (*repository.Employee, error) {
	caller, err := identity.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !caller.CanAccessEmployee(id) {
		return nil, errors.Forbidden("you may only view your own employee record")
	}

	return s.repo.GetByID(ctx, id)
}

// List returns all employees. Admin only.
func (s *EmployeeService) List(ctx context.Context) ([]*repository.Employee, error) {
	caller, err := identity.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() {
		return nil, errors.Forbidden("admin access required")
	}

	return s.repo.List(ctx)
}

// Update applies a partial update and returns the updated record. Admin only.
func (s *EmployeeService) Update(ctx context.Context, id string, req UpdateRequest) (*repository.Employee, error) {
	caller, err := identity.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() {
		return nil, errors.Forbidden("admin access required")
	}

	params := repository.UpdateParams{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Address:        req.Address,
		Department:     req.Department,
		Position:       req.Position,
		Status:         req.Status,
		Salary:         req.Salary,
		Manager:        req.Manager,
		EmergencyName:  req.EmergencyName,
		EmergencyPhone: req.EmergencyPhone,
		Skills:         req.Skills,
		Projects:       req.Projects,
		Performance:    req.Performance,
		LeaveAnnual:    req.LeaveAnnual,
		LeaveSick:      req.LeaveSick,
		LeavePersonal:  req.LeavePersonal,
	}
	if req.JoinDate != nil {
		joinDate, err := time.Parse(dateLayout, *req.JoinDate)
		if err != nil {
			return nil, errors.BadRequest("join_date must be in YYYY-MM-DD format")
		}
		params.JoinDate = &joinDate
	}

	if err := s.repo.Update(ctx, id, params); err != nil {
		return nil, err
	}

	emp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if fields := params.Fields(); len(fields) > 0 {
		s.log.Info().
			Str("employee_id", id).
			Strs("fields", fields).
			Msg("employee updated")
		s.events.EmployeeUpdated(ctx, id, fields)
	}

	return emp, nil
}

// Delete removes an employee and its login credential. Admin only.
func (s *EmployeeService) Delete(ctx context.Context, id string) error {
	caller, err := identity.FromContext(ctx)
	if err != nil {
		return err
	}
	if !caller.IsAdmin() {
		return errors.Forbidden("admin access required")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info().Str("employee_id", id).Msg("employee deleted")
	s.events.EmployeeDeleted(ctx, id)

	return nil
}
