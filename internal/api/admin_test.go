package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/psych-platform/chatbot-backend/internal/db/repositories"
)

// ---------------------------------------------------------------------------
// Test setup helpers
// ---------------------------------------------------------------------------

// userStatusSQLCols are the columns returned by the access listing queries.
var userStatusSQLCols = []string{"id", "username", "approval_status"}

// exchangeSQLCols are the columns returned by chat exchange SELECT queries.
var exchangeSQLCols = []string{"id", "username", "provider_reply", "admin_reply", "created_at"}

// newAdminRouter creates a gin router with all AdminHandlers routes
// registered, backed by a single sqlmock database.
func newAdminRouter(t *testing.T) (sqlmock.Sqlmock, *gin.Engine) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	h := NewAdminHandlers(
		repositories.NewAccessRepository(db),
		repositories.NewChatRepository(sqlx.NewDb(db, "sqlite3")),
	)

	r := gin.New()
	r.GET("/admin/users", h.ListUsersHandler())
	r.GET("/admin/pending-users", h.ListPendingUsersHandler())
	r.POST("/admin/approve-revert", h.ApproveRevertHandler())
	r.GET("/user-requests", h.ListExchangesHandler())
	r.PUT("/user-requests/:id/chatgpt-response", h.SetProviderReplyHandler())
	r.PUT("/user-requests/:id/admin-response", h.SetAdminReplyHandler())

	return mock, r
}

func doGET(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
	return w
}

// ---------------------------------------------------------------------------
// ListUsersHandler / ListPendingUsersHandler
// ---------------------------------------------------------------------------

func TestListUsersHandler_Success(t *testing.T) {
	mock, r := newAdminRouter(t)
	mock.ExpectQuery("SELECT u.id, u.username, a.approval_status").
		WillReturnRows(sqlmock.NewRows(userStatusSQLCols).
			AddRow("user-1", "alice", "approved").
			AddRow("user-2", "bob", "pending"))

	w := doGET(r, "/admin/users")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	users, ok := getJSON(t, w)["users"].([]interface{})
	if !ok || len(users) != 2 {
		t.Fatalf("users = %v, want 2 entries", users)
	}
	first := users[0].(map[string]interface{})
	if first["username"] != "alice" || first["approval_status"] != "approved" {
		t.Errorf("first user = %v", first)
	}
}

func TestListUsersHandler_EmptyIsArrayNotNull(t *testing.T) {
	mock, r := newAdminRouter(t)
	mock.ExpectQuery("SELECT u.id, u.username, a.approval_status").
		WillReturnRows(sqlmock.NewRows(userStatusSQLCols))

	w := doGET(r, "/admin/users")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if _, ok := getJSON(t, w)["users"].([]interface{}); !ok {
		t.Errorf("users must serialize as [], got: %s", w.Body.String())
	}
}

func TestListUsersHandler_StoreError(t *testing.T) {
	mock, r := newAdminRouter(t)
	mock.ExpectQuery("SELECT u.id, u.username, a.approval_status").
		WillReturnError(errUniqueViolation())

	if w := doGET(r, "/admin/users"); w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestListPendingUsersHandler_Success(t *testing.T) {
	mock, r := newAdminRouter(t)
	mock.ExpectQuery("SELECT u.id, u.username, a.approval_status").
		WillReturnRows(sqlmock.NewRows(userStatusSQLCols).
			AddRow("user-2", "bob", "pending"))

	w := doGET(r, "/admin/pending-users")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	pending, ok := getJSON(t, w)["pendingUsers"].([]interface{})
	if !ok || len(pending) != 1 {
		t.Fatalf("pendingUsers = %v, want 1 entry", pending)
	}
}

// ---------------------------------------------------------------------------
// ApproveRevertHandler
// ---------------------------------------------------------------------------

func TestApproveRevertHandler_Approve(t *testing.T) {
	mock, r := newAdminRouter(t)
	mock.ExpectExec("UPDATE access_records").
		WithArgs("approved", sqlmock.AnyArg(), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(r, "POST", "/admin/approve-revert", map[string]string{
		"userId": "user-1",
		"action": "approve",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	if msg := getJSON(t, w)["message"]; msg != "User approved successfully" {
		t.Errorf("message = %v", msg)
	}
}

func TestApproveRevertHandler_Revert(t *testing.T) {
	mock, r := newAdminRouter(t)
	mock.ExpectExec("UPDATE access_records").
		WithArgs("reverted", sqlmock.AnyArg(), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(r, "POST", "/admin/approve-revert", map[string]string{
		"userId": "user-1",
		"action": "revert",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if msg := getJSON(t, w)["message"]; msg != "User reverted successfully" {
		t.Errorf("message = %v", msg)
	}
}

func TestApproveRevertHandler_NoMatchingRecord(t *testing.T) {
	mock, r := newAdminRouter(t)
	mock.ExpectExec("UPDATE access_records").
		WillReturnResult(sqlmock.NewResult(0, 0))

	w := doJSON(r, "POST", "/admin/approve-revert", map[string]string{
		"userId": "ghost",
		"action": "approve",
	})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if msg := getJSON(t, w)["error"]; msg != "Action failed" {
		t.Errorf("error = %v", msg)
	}
}

func TestApproveRevertHandler_MissingUserID(t *testing.T) {
	_, r := newAdminRouter(t)

	w := doJSON(r, "POST", "/admin/approve-revert", map[string]string{
		"action": "approve",
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

// ---------------------------------------------------------------------------
// ListExchangesHandler
// ---------------------------------------------------------------------------

func TestListExchangesHandler_Success(t *testing.T) {
	mock, r := newAdminRouter(t)
	mock.ExpectQuery("SELECT id, username, provider_reply, admin_reply, created_at").
		WillReturnRows(sqlmock.NewRows(exchangeSQLCols).
			AddRow(2, "alice", "newer reply", "", time.Now()).
			AddRow(1, "alice", "older reply", "looks right", time.Now().Add(-time.Hour)))

	w := doGET(r, "/user-requests")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	records, ok := getJSON(t, w)["userRequests"].([]interface{})
	if !ok || len(records) != 2 {
		t.Fatalf("userRequests = %v, want 2 entries", records)
	}
	first := records[0].(map[string]interface{})
	if first["chatGPTResponse"] != "newer reply" {
		t.Errorf("first record = %v", first)
	}
	second := records[1].(map[string]interface{})
	if second["adminResponse"] != "looks right" {
		t.Errorf("second record = %v", second)
	}
}

func TestListExchangesHandler_StoreError(t *testing.T) {
	mock, r := newAdminRouter(t)
	mock.ExpectQuery("SELECT id, username, provider_reply, admin_reply, created_at").
		WillReturnError(errUniqueViolation())

	if w := doGET(r, "/user-requests"); w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

// ---------------------------------------------------------------------------
// SetProviderReplyHandler / SetAdminReplyHandler
// ---------------------------------------------------------------------------

func TestSetProviderReplyHandler_Success(t *testing.T) {
	mock, r := newAdminRouter(t)
	mock.ExpectExec("UPDATE chat_exchanges SET provider_reply").
		WithArgs("corrected text", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(r, "PUT", "/user-requests/7/chatgpt-response", map[string]string{
		"chatGPTResponse": "corrected text",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSetAdminReplyHandler_Success(t *testing.T) {
	mock, r := newAdminRouter(t)
	mock.ExpectExec("UPDATE chat_exchanges SET admin_reply").
		WithArgs("a note from the operator", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(r, "PUT", "/user-requests/7/admin-response", map[string]string{
		"adminResponse": "a note from the operator",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
}

func TestSetProviderReplyHandler_NotFound(t *testing.T) {
	mock, r := newAdminRouter(t)
	mock.ExpectExec("UPDATE chat_exchanges SET provider_reply").
		WillReturnResult(sqlmock.NewResult(0, 0))

	w := doJSON(r, "PUT", "/user-requests/999/chatgpt-response", map[string]string{
		"chatGPTResponse": "corrected text",
	})

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if msg := getJSON(t, w)["error"]; msg != "Request not found" {
		t.Errorf("error = %v", msg)
	}
}

func TestSetProviderReplyHandler_EmptyText(t *testing.T) {
	_, r := newAdminRouter(t)

	w := doJSON(r, "PUT", "/user-requests/7/chatgpt-response", map[string]string{
		"chatGPTResponse": "   ",
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSetAdminReplyHandler_MissingField(t *testing.T) {
	_, r := newAdminRouter(t)

	w := doJSON(r, "PUT", "/user-requests/7/admin-response", map[string]string{})

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSetAdminReplyHandler_NonNumericID(t *testing.T) {
	_, r := newAdminRouter(t)

	w := doJSON(r, "PUT", "/user-requests/abc/admin-response", map[string]string{
		"adminResponse": "note",
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
