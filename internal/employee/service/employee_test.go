package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/staffdesk/staffdesk-backend/internal/employee/repository"
	"github.com/staffdesk/staffdesk-backend/internal/employee/service"
	"github.com/staffdesk/staffdesk-backend/pkg/database"
	"github.com/staffdesk/staffdesk-backend/pkg/errors"
	"github.com/staffdesk/staffdesk-backend/pkg/identity"
	"github.com/staffdesk/staffdesk-backend/pkg/logger"
	"github.com/staffdesk/staffdesk-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	created []string
	updated []string
	deleted []string
}

func (s *recordingSink) EmployeeCreated(_ context.Context, emp *repository.Employee, _ bool) {
	s.created = append(s.created, emp.ID)
}

func (s *recordingSink) EmployeeUpdated(_ context.Context, employeeID string, _ []string) {
	s.updated = append(s.updated, employeeID)
}

func (s *recordingSink) EmployeeDeleted(_ context.Context, employeeID string) {
	s.deleted = append(s.deleted, employeeID)
}

func newService(t *testing.T) (*service.EmployeeService, *testutil.MockDB, *recordingSink) {
	mockDB := testutil.NewMockDB(t)
	log := logger.New("test", "test")
	repo := repository.NewEmployeeRepository(database.NewWithDB(mockDB.DB, log))
	sink := &recordingSink{}
	return service.NewEmployeeService(repo, sink, log), mockDB, sink
}

func adminContext() context.Context {
	return identity.WithIdentity(context.Background(), &identity.Identity{
		ID:   "admin-1",
		Role: identity.RoleAdmin,
	})
}

func employeeContext(employeeID string) context.Context {
	return identity.WithIdentity(context.Background(), &identity.Identity{
		ID:         "user-1",
		Role:       identity.RoleEmployee,
		EmployeeID: &employeeID,
	})
}

func validCreateRequest() service.CreateRequest {
	return service.CreateRequest{
		Name:       "Jordan Lee",
		Email:      "jordan.lee@example.com",
		Department: "Engineering",
		Position:   "Developer",
		JoinDate:   "2026-01-15",
	}
}

func TestEmployeeService_Create(t *testing.T) {
	svc, mockDB, sink := newService(t)
	defer mockDB.Close()

	now := time.Now()
	mockDB.ExpectBegin()
	mockDB.ExpectQuery("INSERT INTO employees").
		WillReturnRows(testutil.MockRows("employee_number", "created_at", "updated_at").
			AddRow("EMP001", now, now))
	mockDB.ExpectCommit()

	emp, err := svc.Create(adminContext(), validCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, "EMP001", emp.EmployeeNumber)
	assert.Equal(t, service.DefaultLeaveAnnual, emp.LeaveAnnual)
	assert.Equal(t, service.DefaultLeaveSick, emp.LeaveSick)
	assert.Equal(t, service.DefaultLeavePersonal, emp.LeavePersonal)
	assert.Equal(t, []string{emp.ID}, sink.created)
	mockDB.ExpectationsWereMet(t)
}

func TestEmployeeService_Create_WithPassword(t *testing.T) {
	svc, mockDB, _ := newService(t)
	defer mockDB.Close()

	now := time.Now()
	mockDB.ExpectBegin()
	mockDB.ExpectQuery("INSERT INTO employees").
		WillReturnRows(testutil.MockRows("employee_number", "created_at", "updated_at").
			AddRow("EMP001", now, now))
	mockDB.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	req := validCreateRequest()
	req.Password = "secret123"

	_, err := svc.Create(adminContext(), req)
	require.NoError(t, err)
	mockDB.ExpectationsWereMet(t)
}

func TestEmployeeService_Create_AdminOnly(t *testing.T) {
	svc, mockDB, sink := newService(t)
	defer mockDB.Close()

	_, err := svc.Create(employeeContext("emp-1"), validCreateRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrForbidden))
	assert.Empty(t, sink.created)
}

func TestEmployeeService_Create_BadJoinDate(t *testing.T) {
	svc, mockDB, _ := newService(t)
	defer mockDB.Close()

	req := validCreateRequest()
	req.JoinDate = "15.01.2026"

	_, err := svc.Create(adminContext(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
}

func TestEmployeeService_Get_SelfAccess(t *testing.T) {
	svc, mockDB, _ := newService(t)
	defer mockDB.Close()

	// An employee may not read another employee's record.
	_, err := svc.Get(employeeContext("emp-1"), "emp-2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrForbidden))
}

func TestEmployeeService_List_AdminOnly(t *testing.T) {
	svc, mockDB, _ := newService(t)
	defer mockDB.Close()

	_, err := svc.List(employeeContext("emp-1"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrForbidden))
}

func TestEmployeeService_Update(t *testing.T) {
	svc, mockDB, sink := newService(t)
	defer mockDB.Close()

	now := time.Now()
	mockDB.ExpectBegin()
	mockDB.ExpectExec("UPDATE employees SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()
	mockDB.ExpectQuery("SELECT").
		WillReturnRows(testutil.MockRows(
			"id", "employee_number", "name", "email", "phone", "address",
			"department", "position", "join_date", "status", "salary", "manager",
			"emergency_contact_name", "emergency_contact_phone", "skills", "projects",
			"performance", "leave_annual", "leave_sick", "leave_personal",
			"created_at", "updated_at",
		).AddRow(
			"emp-1", "EMP001", "Jordan Lee", "jordan.lee@example.com", "", "",
			"Marketing", "Developer", now, "Active", "", nil,
			"", "", "{}", "{}",
			"Good", 20, 10, 5,
			now, now,
		))

	department := "Marketing"
	emp, err := svc.Update(adminContext(), "emp-1", service.UpdateRequest{
		Department: &department,
	})
	require.NoError(t, err)

	assert.Equal(t, "Marketing", emp.Department)
	assert.Equal(t, []string{"emp-1"}, sink.updated)
	mockDB.ExpectationsWereMet(t)
}

func TestEmployeeService_Update_AdminOnly(t *testing.T) {
	svc, mockDB, _ := newService(t)
	defer mockDB.Close()

	name := "New Name"
	_, err := svc.Update(employeeContext("emp-1"), "emp-1", service.UpdateRequest{Name: &name})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrForbidden))
}

func TestEmployeeService_Delete(t *testing.T) {
	svc, mockDB, sink := newService(t)
	defer mockDB.Close()

	mockDB.ExpectBegin()
	mockDB.ExpectExec("DELETE FROM leaves").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.ExpectExec("DELETE FROM users").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectExec("DELETE FROM employees").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	err := svc.Delete(adminContext(), "emp-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"emp-1"}, sink.deleted)
	mockDB.ExpectationsWereMet(t)
}

func TestEmployeeService_Delete_AdminOnly(t *testing.T) {
	svc, mockDB, sink := newService(t)
	defer mockDB.Close()

	err := svc.Delete(employeeContext("emp-1"), "emp-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrForbidden))
	assert.Empty(t, sink.deleted)
}
