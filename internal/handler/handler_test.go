package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"jewelry-service/internal/provision"
	"jewelry-service/pkg/config"
	"jewelry-service/pkg/database"
	"jewelry-service/pkg/jwtutil"
	"jewelry-service/pkg/password"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	jwtutil.Initialize(&config.JWTConfig{SigningKey: "handler-test-key", ExpirationHours: 24})
}

// newTestRegistry backs the admin connection with sqlmock and lets tenant
// connects succeed with inert handles.
func newTestRegistry(t *testing.T) (*database.Registry, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	adminConn := database.NewConn(gdb, "jewelry_admin")

	cfg := &config.DBConfig{Host: "localhost", AdminDBName: "jewelry_admin"}
	reg := database.NewRegistry(cfg, zap.NewNop(), database.WithOpenFunc(
		func(dsn, name string) (*database.Conn, error) {
			if name == "jewelry_admin" {
				return adminConn, nil
			}
			return database.NewConn(nil, name), nil
		}))
	return reg, mock
}

func doJSON(t *testing.T, h echo.HandlerFunc, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, h(c))
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func TestCreateClientScenario(t *testing.T) {
	reg, mock := newTestRegistry(t)
	h := NewClientHandler(reg, provision.NewService(reg, zap.NewNop()))

	mock.ExpectQuery(`SELECT \* FROM "clients" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`INSERT INTO "clients"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(`CREATE DATABASE "jewelry_client_`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rec := doJSON(t, h.Create, http.MethodPost, "/api/admin/clients",
		`{"businessName":"Acme Jewelry","email":"acme@example.com","password":"secret123"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, true, envelope["success"])

	data, ok := envelope["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Acme Jewelry", data["businessName"])
	assert.Equal(t, "acme@example.com", data["email"])
	assert.Equal(t, true, data["active"])
	assert.Regexp(t, regexp.MustCompile(`^jewelry_client_[a-z0-9]{10}$`), data["dbName"])

	// The password hash must never appear in an outward-facing payload.
	_, leaked := data["passwordHash"]
	assert.False(t, leaked)
	assert.NotContains(t, rec.Body.String(), "passwordHash")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateClientMissingFields(t *testing.T) {
	reg, _ := newTestRegistry(t)
	h := NewClientHandler(reg, provision.NewService(reg, zap.NewNop()))

	rec := doJSON(t, h.Create, http.MethodPost, "/api/admin/clients",
		`{"businessName":"Acme Jewelry"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, false, envelope["success"])
	assert.NotEmpty(t, envelope["message"])
}

func TestClientLoginSuccess(t *testing.T) {
	reg, mock := newTestRegistry(t)
	h := NewAuthHandler(reg)

	hash, err := password.Hash("secret123")
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "clients" WHERE \(email = \$1 AND active = \$2\)`).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "business_name", "email", "password_hash", "db_name", "active"}).
			AddRow(3, "Acme Jewelry", "acme@example.com", hash, "jewelry_client_abc123defg", true))

	rec := doJSON(t, h.ClientLogin, http.MethodPost, "/api/auth/login",
		`{"email":"acme@example.com","password":"secret123"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, true, envelope["success"])

	data := envelope["data"].(map[string]interface{})
	token, ok := data["token"].(string)
	require.True(t, ok)

	// The issued token must resolve to the tenant's database identifier.
	ident, err := jwtutil.Verify(token)
	require.NoError(t, err)
	tenant, ok := ident.(jwtutil.TenantIdentity)
	require.True(t, ok)
	assert.Equal(t, jwtutil.RoleClient, tenant.Role())
	assert.Equal(t, "jewelry_client_abc123defg", tenant.DBName)
}

func TestClientLoginInactiveAccount(t *testing.T) {
	reg, mock := newTestRegistry(t)
	h := NewAuthHandler(reg)

	// Inactive clients never match the active-only lookup.
	mock.ExpectQuery(`SELECT \* FROM "clients" WHERE \(email = \$1 AND active = \$2\)`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rec := doJSON(t, h.ClientLogin, http.MethodPost, "/api/auth/login",
		`{"email":"inactive@example.com","password":"secret123"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, false, envelope["success"])
}

func TestClientLoginWrongPassword(t *testing.T) {
	reg, mock := newTestRegistry(t)
	h := NewAuthHandler(reg)

	hash, err := password.Hash("secret123")
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "clients" WHERE \(email = \$1 AND active = \$2\)`).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "business_name", "email", "password_hash", "db_name", "active"}).
			AddRow(3, "Acme Jewelry", "acme@example.com", hash, "jewelry_client_abc123defg", true))

	rec := doJSON(t, h.ClientLogin, http.MethodPost, "/api/auth/login",
		`{"email":"acme@example.com","password":"wrong"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminLoginSuccess(t *testing.T) {
	reg, mock := newTestRegistry(t)
	h := NewAuthHandler(reg)

	hash, err := password.Hash("Admin@123")
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE \(email = \$1 AND role = \$2\)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "role"}).
			AddRow(1, "admin@example.com", hash, "admin"))

	rec := doJSON(t, h.AdminLogin, http.MethodPost, "/api/admin/login",
		`{"email":"admin@example.com","password":"Admin@123"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]interface{})
	token := data["token"].(string)

	ident, err := jwtutil.Verify(token)
	require.NoError(t, err)
	_, isAdmin := ident.(jwtutil.AdminIdentity)
	assert.True(t, isAdmin)
}
