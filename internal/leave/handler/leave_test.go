package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/staffdesk/staffdesk-backend/internal/leave/handler"
	"github.com/staffdesk/staffdesk-backend/internal/leave/repository"
	"github.com/staffdesk/staffdesk-backend/internal/leave/service"
	"github.com/staffdesk/staffdesk-backend/pkg/database"
	"github.com/staffdesk/staffdesk-backend/pkg/identity"
	"github.com/staffdesk/staffdesk-backend/pkg/logger"
	"github.com/staffdesk/staffdesk-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopSink struct{}

func (nopSink) LeaveRequested(context.Context, *repository.Leave)                {}
func (nopSink) LeaveReviewed(context.Context, *repository.Leave, string, string) {}
func (nopSink) LeaveDeleted(context.Context, string)                             {}

// newRouter mounts the handler the way the server does: the review and
// delete operations live directly on the leave request resource.
func newRouter(t *testing.T) (chi.Router, *testutil.MockDB) {
	mockDB := testutil.NewMockDB(t)
	log := logger.New("test", "test")
	repo := repository.NewLeaveRepository(database.NewWithDB(mockDB.DB, log))
	h := handler.NewLeaveHandler(service.NewLeaveService(repo, nopSink{}, log))

	r := chi.NewRouter()
	r.Put("/{id}", h.Review)
	r.Delete("/{id}", h.Delete)

	return r, mockDB
}

func adminContext() context.Context {
	return identity.WithIdentity(context.Background(), &identity.Identity{
		ID:    "admin-1",
		Email: "admin@example.com",
		Role:  identity.RoleAdmin,
	})
}

func pendingRow() *sqlmock.Rows {
	now := time.Now()
	return testutil.MockRows(
		"id", "employee_id", "type", "start_date", "end_date", "days",
		"reason", "status", "approved_by", "approved_at", "created_at", "updated_at",
		"employee_name", "employee_number", "department", "approver_email",
	).AddRow(
		"leave-1", "emp-1", repository.TypeAnnual, now, now.AddDate(0, 0, 2), 3,
		"vacation", repository.StatusPending, nil, nil, now, now,
		"Jordan Lee", "EMP001", "Engineering", nil,
	)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

func TestLeaveHandler_Review_OnResourcePath(t *testing.T) {
	router, mockDB := newRouter(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT").WillReturnRows(pendingRow())
	mockDB.ExpectBegin()
	mockDB.ExpectExec("UPDATE employees SET leave_annual = leave_annual - $1").
		WithArgs(3, "emp-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectExec("UPDATE leaves SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	req := httptest.NewRequest(http.MethodPut, "/leave-1",
		strings.NewReader(`{"status":"Approved"}`)).WithContext(adminContext())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	var leave repository.Leave
	require.NoError(t, json.Unmarshal(resp.Data, &leave))
	assert.Equal(t, repository.StatusApproved, leave.Status)
	require.NotNil(t, leave.ApprovedBy)
	assert.Equal(t, "admin-1", *leave.ApprovedBy)
	mockDB.ExpectationsWereMet(t)
}

func TestLeaveHandler_Delete_ReturnsMessage(t *testing.T) {
	router, mockDB := newRouter(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT").WillReturnRows(pendingRow())
	mockDB.ExpectExec("DELETE FROM leaves").
		WithArgs("leave-1", repository.StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodDelete, "/leave-1", nil).WithContext(adminContext())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	var data map[string]string
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "leave request deleted successfully", data["message"])
	mockDB.ExpectationsWereMet(t)
}
