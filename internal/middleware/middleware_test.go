package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auth-be/internal/apperror"
	"auth-be/internal/entities"
	"auth-be/internal/models"
	"auth-be/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(discardLogger()))
	r.GET("/ok", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "success"}) })
	r.GET("/conflict", func(c *gin.Context) {
		c.Error(apperror.NewConflict("User with this email already exists."))
	})
	r.GET("/delivery", func(c *gin.Context) {
		c.Error(apperror.NewDeliveryError("There was an error sending the email. Try again later.", errors.New("smtp down")))
	})
	r.GET("/boom", func(c *gin.Context) {
		c.Error(errors.New("pq: connection refused"))
	})

	t.Run("no error passes through", func(t *testing.T) {
		rec := serve(r, httptest.NewRequest(http.MethodGet, "/ok", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("operational error keeps its message", func(t *testing.T) {
		rec := serve(r, httptest.NewRequest(http.MethodGet, "/conflict", nil))
		assert.Equal(t, http.StatusConflict, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "fail", body.Status)
		assert.Equal(t, "User with this email already exists.", body.Message)
	})

	t.Run("operational server error", func(t *testing.T) {
		rec := serve(r, httptest.NewRequest(http.MethodGet, "/delivery", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "error", body.Status)
		assert.Equal(t, "There was an error sending the email. Try again later.", body.Message)
	})

	t.Run("unexpected error is sanitized", func(t *testing.T) {
		rec := serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "error", body.Status)
		assert.Equal(t, "Something went very wrong", body.Message)
		assert.NotContains(t, rec.Body.String(), "pq:")
	})
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(discardLogger()))
	r.GET("/panic", func(c *gin.Context) { panic("nil map") })

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Something went very wrong", decodeError(t, rec).Message)
}

func TestNotFound(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(discardLogger()))
	r.NoRoute(NotFound)

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/nope/here", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "fail", body.Status)
	assert.Equal(t, "Can't find /nope/here on this server", body.Message)
}

// stubAuthService records the token it was asked to authenticate
type stubAuthService struct {
	service.AuthService
	gotToken string
	user     *entities.User
	err      error
}

func (s *stubAuthService) Authenticate(_ context.Context, token string) (*entities.User, error) {
	s.gotToken = token
	return s.user, s.err
}

func TestAuthMiddleware(t *testing.T) {
	newRouter := func(svc service.AuthService) *gin.Engine {
		r := gin.New()
		r.Use(ErrorHandler(discardLogger()))
		r.GET("/me", AuthMiddleware(svc), func(c *gin.Context) {
			user, ok := CurrentUser(c)
			if !ok {
				c.Status(http.StatusTeapot)
				return
			}
			c.String(http.StatusOK, user.Email)
		})
		return r
	}

	t.Run("bearer token resolves user", func(t *testing.T) {
		svc := &stubAuthService{user: &entities.User{ID: "u1", Email: "a@x.com"}}
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer abc.def.ghi")

		rec := serve(newRouter(svc), req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "a@x.com", rec.Body.String())
		assert.Equal(t, "abc.def.ghi", svc.gotToken)
	})

	t.Run("missing or non-bearer header passes an empty token", func(t *testing.T) {
		for _, header := range []string{"", "Basic dXNlcjpwYXNz", "Bearer"} {
			svc := &stubAuthService{err: apperror.NewUnauthenticated("You are not logged in. Please log in to gain access.", nil)}
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}

			rec := serve(newRouter(svc), req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
			assert.Equal(t, "", svc.gotToken, header)
			assert.Equal(t, "You are not logged in. Please log in to gain access.", decodeError(t, rec).Message)
		}
	})
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(RequestLogger(logger))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request", entry["msg"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/health", entry["path"])
	assert.EqualValues(t, http.StatusNoContent, entry["status"])
}
