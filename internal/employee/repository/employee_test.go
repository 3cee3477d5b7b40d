package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/staffdesk/staffdesk-backend/internal/employee/repository"
	"github.com/staffdesk/staffdesk-backend/pkg/database"
	"github.com/staffdesk/staffdesk-backend/pkg/errors"
	"github.com/staffdesk/staffdesk-backend/pkg/logger"
	"github.com/staffdesk/staffdesk-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) (*repository.EmployeeRepository, *testutil.MockDB) {
	mockDB := testutil.NewMockDB(t)
	log := logger.New("test", "test")
	repo := repository.NewEmployeeRepository(database.NewWithDB(mockDB.DB, log))
	return repo, mockDB
}

func TestEmployeeRepository_Create_WithCredentials(t *testing.T) {
	repo, mockDB := newRepo(t)
	defer mockDB.Close()

	now := time.Now()
	mockDB.ExpectBegin()
	mockDB.ExpectQuery("INSERT INTO employees").
		WillReturnRows(testutil.MockRows("employee_number", "created_at", "updated_at").
			AddRow("EMP001", now, now))
	mockDB.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	emp := &repository.Employee{
		Name:       "Jordan Lee",
		Email:      "jordan.lee@example.com",
		Department: "Engineering",
		Position:   "Developer",
		JoinDate:   now,
	}

	err := repo.Create(context.Background(), emp, "$2a$10$hash")
	require.NoError(t, err)

	assert.NotEmpty(t, emp.ID)
	assert.Equal(t, "EMP001", emp.EmployeeNumber)
	assert.Equal(t, repository.StatusActive, emp.Status)
	assert.Equal(t, "Good", emp.Performance)
	mockDB.ExpectationsWereMet(t)
}

func TestEmployeeRepository_Create_WithoutCredentials(t *testing.T) {
	repo, mockDB := newRepo(t)
	defer mockDB.Close()

	now := time.Now()
	mockDB.ExpectBegin()
	mockDB.ExpectQuery("INSERT INTO employees").
		WillReturnRows(testutil.MockRows("employee_number", "created_at", "updated_at").
			AddRow("EMP002", now, now))
	mockDB.ExpectCommit()

	emp := &repository.Employee{
		Name:       "Sam Park",
		Email:      "sam.park@example.com",
		Department: "Sales",
		Position:   "Manager",
		JoinDate:   now,
	}

	err := repo.Create(context.Background(), emp, "")
	require.NoError(t, err)
	assert.Equal(t, "EMP002", emp.EmployeeNumber)
	mockDB.ExpectationsWereMet(t)
}

func TestEmployeeRepository_Update_EmailUpdatesCredentialFirst(t *testing.T) {
	repo, mockDB := newRepo(t)
	defer mockDB.Close()

	// sqlmock enforces ordering: the credential record must be
	// updated before the employee row.
	mockDB.ExpectBegin()
	mockDB.ExpectExec("UPDATE users SET email").
		WithArgs("new@example.com", "emp-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectExec("UPDATE employees SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	email := "new@example.com"
	err := repo.Update(context.Background(), "emp-1", repository.UpdateParams{Email: &email})
	require.NoError(t, err)
	mockDB.ExpectationsWereMet(t)
}

func TestEmployeeRepository_Update_NoFields(t *testing.T) {
	repo, mockDB := newRepo(t)
	defer mockDB.Close()

	// An empty update is a no-op: no transaction, no statements.
	err := repo.Update(context.Background(), "emp-1", repository.UpdateParams{})
	require.NoError(t, err)
	mockDB.ExpectationsWereMet(t)
}

func TestEmployeeRepository_Update_NotFound(t *testing.T) {
	repo, mockDB := newRepo(t)
	defer mockDB.Close()

	mockDB.ExpectBegin()
	mockDB.ExpectExec("UPDATE employees SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.ExpectRollback()

	name := "New Name"
	err := repo.Update(context.Background(), "missing", repository.UpdateParams{Name: &name})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	mockDB.ExpectationsWereMet(t)
}

func TestEmployeeRepository_Delete_CascadesLeavesAndCredential(t *testing.T) {
	repo, mockDB := newRepo(t)
	defer mockDB.Close()

	// Leave rows carry a foreign key on the employee, so they are removed
	// first; the credential record follows, then the employee itself.
	mockDB.ExpectBegin()
	mockDB.ExpectExec("DELETE FROM leaves").
		WithArgs("emp-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mockDB.ExpectExec("DELETE FROM users").
		WithArgs("emp-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectExec("DELETE FROM employees").
		WithArgs("emp-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	err := repo.Delete(context.Background(), "emp-1")
	require.NoError(t, err)
	mockDB.ExpectationsWereMet(t)
}

func TestEmployeeRepository_Delete_NotFound(t *testing.T) {
	repo, mockDB := newRepo(t)
	defer mockDB.Close()

	mockDB.ExpectBegin()
	mockDB.ExpectExec("DELETE FROM leaves").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.ExpectExec("DELETE FROM users").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.ExpectExec("DELETE FROM employees").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.ExpectRollback()

	err := repo.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	mockDB.ExpectationsWereMet(t)
}
