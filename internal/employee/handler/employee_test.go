package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/staffdesk/staffdesk-backend/internal/employee/handler"
	"github.com/staffdesk/staffdesk-backend/internal/employee/repository"
	"github.com/staffdesk/staffdesk-backend/internal/employee/service"
	"github.com/staffdesk/staffdesk-backend/pkg/database"
	"github.com/staffdesk/staffdesk-backend/pkg/identity"
	"github.com/staffdesk/staffdesk-backend/pkg/logger"
	"github.com/staffdesk/staffdesk-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopSink struct{}

func (nopSink) EmployeeCreated(context.Context, *repository.Employee, bool) {}
func (nopSink) EmployeeUpdated(context.Context, string, []string)           {}
func (nopSink) EmployeeDeleted(context.Context, string)                     {}

func newRouter(t *testing.T) (chi.Router, *testutil.MockDB) {
	mockDB := testutil.NewMockDB(t)
	log := logger.New("test", "test")
	repo := repository.NewEmployeeRepository(database.NewWithDB(mockDB.DB, log))
	h := handler.NewEmployeeHandler(service.NewEmployeeService(repo, nopSink{}, log))

	r := chi.NewRouter()
	r.Delete("/{id}", h.Delete)

	return r, mockDB
}

func adminContext() context.Context {
	return identity.WithIdentity(context.Background(), &identity.Identity{
		ID:   "admin-1",
		Role: identity.RoleAdmin,
	})
}

func TestEmployeeHandler_Delete_ReturnsMessage(t *testing.T) {
	router, mockDB := newRouter(t)
	defer mockDB.Close()

	mockDB.ExpectBegin()
	mockDB.ExpectExec("DELETE FROM leaves").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectExec("DELETE FROM users").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectExec("DELETE FROM employees").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	req := httptest.NewRequest(http.MethodDelete, "/emp-1", nil).WithContext(adminContext())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "employee deleted successfully", resp.Data["message"])
	mockDB.ExpectationsWereMet(t)
}
