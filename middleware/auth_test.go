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
)

const (
	testKey    = "unit-test-signing-key"
	testIssuer = "qpgen-idp"
)

func signToken(t *testing.T, key string, c claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func validClaims() claims {
	return claims{
		Email:     "prof@example.edu",
		FacultyID: 42,
		Roles:     []string{"faculty"},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func authTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware(testKey, testIssuer))
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"faculty_id": c.GetInt64("faculty_id"),
			"email":      c.GetString("faculty_email"),
		})
	})
	return r
}

func doAuthRequest(router *gin.Engine, authorization string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	router := authTestRouter()
	w := doAuthRequest(router, "Bearer "+signToken(t, testKey, validClaims()))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"faculty_id":42`)
	assert.Contains(t, w.Body.String(), "prof@example.edu")
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	w := doAuthRequest(authTestRouter(), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareMalformedHeader(t *testing.T) {
	w := doAuthRequest(authTestRouter(), "Token abcdef")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareBadSignature(t *testing.T) {
	w := doAuthRequest(authTestRouter(), "Bearer "+signToken(t, "some-other-key", validClaims()))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "signature")
}

func TestAuthMiddlewareExpiredToken(t *testing.T) {
	c := validClaims()
	c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	w := doAuthRequest(authTestRouter(), "Bearer "+signToken(t, testKey, c))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "expired")
}

func TestAuthMiddlewareWrongIssuer(t *testing.T) {
	c := validClaims()
	c.Issuer = "someone-else"
	w := doAuthRequest(authTestRouter(), "Bearer "+signToken(t, testKey, c))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "issuer")
}

func TestAuthMiddlewareRequiresFacultyIdentity(t *testing.T) {
	c := validClaims()
	c.FacultyID = 0
	w := doAuthRequest(authTestRouter(), "Bearer "+signToken(t, testKey, c))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHasRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.False(t, HasRole(c, "admin"), "no roles in context")
	c.Set("user_roles", []string{"faculty", "admin"})
	assert.True(t, HasRole(c, "admin"))
	assert.False(t, HasRole(c, "student"))
}

func TestRoleCheckMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(roles []string) *gin.Engine {
		r := gin.New()
		r.Use(func(c *gin.Context) {
			if roles != nil {
				c.Set("user_roles", roles)
			}
			c.Next()
		})
		r.Use(RoleCheckMiddleware([]string{"admin", "instructor"}))
		r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
		return r
	}

	cases := []struct {
		name  string
		roles []string
		want  int
	}{
		{"matching role", []string{"faculty", "admin"}, http.StatusOK},
		{"no matching role", []string{"faculty"}, http.StatusForbidden},
		{"no roles in context", nil, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			newRouter(tc.roles).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
			assert.Equal(t, tc.want, w.Code)
		})
	}
}
