package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap/zaptest"
)

const testSecret = "test-secret"

func signed(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func guardedRouter(t *testing.T, roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthGuard(testSecret, zaptest.NewLogger(t), roles...), func(c *gin.Context) {
		id, role, ok := Caller(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id.Hex(), "role": role})
	})
	return r
}

func call(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthGuard(t *testing.T) {
	userID := primitive.NewObjectID()
	valid := jwt.MapClaims{
		"userId": userID.Hex(),
		"role":   "user",
		"exp":    time.Now().Add(time.Hour).Unix(),
	}
	expired := jwt.MapClaims{
		"userId": userID.Hex(),
		"role":   "user",
		"exp":    time.Now().Add(-time.Hour).Unix(),
	}

	tests := []struct {
		name   string
		roles  []string
		header string
		want   int
	}{
		{"missing header", nil, "", http.StatusUnauthorized},
		{"wrong scheme", nil, "Basic abc", http.StatusUnauthorized},
		{"bad signature", nil, "Bearer " + signed(t, valid, "other"), http.StatusUnauthorized},
		{"expired", nil, "Bearer " + signed(t, expired, testSecret), http.StatusUnauthorized},
		{"missing userId", nil, "Bearer " + signed(t, jwt.MapClaims{"role": "user"}, testSecret), http.StatusUnauthorized},
		{"valid user", nil, "Bearer " + signed(t, valid, testSecret), http.StatusOK},
		{"user on admin route", []string{"admin"}, "Bearer " + signed(t, valid, testSecret), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := call(guardedRouter(t, tt.roles...), tt.header)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestAuthGuardExposesCaller(t *testing.T) {
	userID := primitive.NewObjectID()
	token := signed(t, jwt.MapClaims{"userId": userID.Hex(), "role": "admin"}, testSecret)

	w := call(guardedRouter(t, "admin"), "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"`+userID.Hex()+`","role":"admin"}`, w.Body.String())
}
