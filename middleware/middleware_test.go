package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"YourWheels/apperr"
	"YourWheels/models"
	"YourWheels/utils"
)

func newServer(t *testing.T) (*echo.Echo, *utils.TokenAuthority) {
	t.Helper()
	authority, err := utils.NewTokenAuthority("gate-secret")
	require.NoError(t, err)

	e := echo.New()
	e.HTTPErrorHandler = (&ErrorHandler{}).Handle
	ok := func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"success": true, "id": CallerID(c), "role": CallerRole(c)})
	}
	e.GET("/buyer/:id", ok, Authenticate(authority), RequireOwner("id"))
	e.GET("/seller-only", ok, Authenticate(authority, models.RoleSeller))
	e.GET("/admin/things", ok, RequireAdmin(authority))
	return e, authority
}

func call(e *echo.Echo, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func envelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestMissingToken(t *testing.T) {
	e, _ := newServer(t)
	rec := call(e, "/buyer/abc", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := envelope(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Authorization header is required", body["message"])
}

func TestMalformedHeader(t *testing.T) {
	e, _ := newServer(t)
	req := httptest.NewRequest(http.MethodGet, "/buyer/abc", nil)
	req.Header.Set(echo.HeaderAuthorization, "Token abc")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInvalidToken(t *testing.T) {
	e, _ := newServer(t)
	rec := call(e, "/buyer/abc", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid token", envelope(t, rec)["message"])
}

func TestOwnerCheck(t *testing.T) {
	e, authority := newServer(t)
	me := primitive.NewObjectID().Hex()
	other := primitive.NewObjectID().Hex()
	token, err := authority.IssueToken(me, "me@x.com", models.RoleBuyer)
	require.NoError(t, err)

	rec := call(e, "/buyer/"+me, token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, me, envelope(t, rec)["id"])

	rec = call(e, "/buyer/"+strings.ToUpper(me), token)
	assert.Equal(t, http.StatusOK, rec.Code, "ids are compared in canonical form")

	rec = call(e, "/buyer/"+other, token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOwnerCheckIgnoresRole(t *testing.T) {
	e, authority := newServer(t)
	id := primitive.NewObjectID().Hex()
	token, err := authority.IssueToken(id, "s@x.com", models.RoleSeller)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, call(e, "/buyer/"+id, token).Code)
}

func TestRoleGate(t *testing.T) {
	e, authority := newServer(t)
	buyer, err := authority.IssueToken(primitive.NewObjectID().Hex(), "b@x.com", models.RoleBuyer)
	require.NoError(t, err)
	seller, err := authority.IssueToken(primitive.NewObjectID().Hex(), "s@x.com", models.RoleSeller)
	require.NoError(t, err)
	admin, err := authority.IssueAdminToken("root@x.com")
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, call(e, "/seller-only", buyer).Code)
	assert.Equal(t, http.StatusOK, call(e, "/seller-only", seller).Code)
	assert.Equal(t, http.StatusForbidden, call(e, "/admin/things", seller).Code)
	assert.Equal(t, http.StatusOK, call(e, "/admin/things", admin).Code)
}

func TestErrorHandlerKinds(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = (&ErrorHandler{}).Handle
	e.GET("/conflict", func(echo.Context) error {
		return apperr.E(apperr.Conflict, "Vehicle is already rented", nil)
	})
	e.GET("/boom", func(echo.Context) error { return errors.New("db exploded") })

	rec := call(e, "/conflict", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]interface{}{"success": false, "message": "Vehicle is already rented"}, envelope(t, rec))

	rec = call(e, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", envelope(t, rec)["message"])

	rec = call(e, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, envelope(t, rec)["success"])
}

func TestErrorRedirectMode(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = (&ErrorHandler{Redirect: true, FrontendURL: "http://front.test"}).Handle
	e.GET("/boom", func(echo.Context) error { return errors.New("db exploded") })
	e.GET("/missing", func(echo.Context) error { return apperr.E(apperr.NotFound, "Vehicle not found", nil) })

	rec := call(e, "/boom", "")
	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get(echo.HeaderLocation))
	require.NoError(t, err)
	assert.Equal(t, "front.test", loc.Host)
	assert.Equal(t, "/error", loc.Path)
	assert.Equal(t, "500", loc.Query().Get("code"))
	assert.Contains(t, loc.Query().Get("stack"), "db exploded")

	rec = call(e, "/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidator(t *testing.T) {
	v := NewValidator()
	err := v.Validate(&models.LoginRequest{Email: "nope"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Validation))
	assert.Contains(t, apperr.Message(err), "Email must be a valid email")
	assert.Contains(t, apperr.Message(err), "Password is required")

	assert.NoError(t, v.Validate(&models.LoginRequest{Email: "a@b.co", Password: "x"}))
}
