package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rongwang/deductible-server/internal/api"
	"github.com/rongwang/deductible-server/internal/backend"
	"github.com/rongwang/deductible-server/internal/config"
	"github.com/rongwang/deductible-server/internal/models"
	"github.com/rongwang/deductible-server/internal/registry"
	"github.com/rongwang/deductible-server/internal/repository"
	"github.com/rongwang/deductible-server/internal/service"
	"github.com/rongwang/deductible-server/internal/utils"
)

// RegistryEIN is the only EIN the stub registry knows.
const RegistryEIN = "53-0196605"

// TestContext holds all dependencies for tests
type TestContext struct {
	Router      *gin.Engine
	Repository  repository.Repository
	Service     service.Service
	JWTSecret   []byte
	Handle      *backend.Handle
	Registry    *httptest.Server
	TestUserID  string
	TestUserJWT string
}

// SetupTestContext creates a new test context backed by a fresh SQLite file
// and a stub registry.
func SetupTestContext(t *testing.T) *TestContext {
	t.Helper()

	cfg := config.LoadConfig()
	cfg.Database.Backend = "sqlite"
	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "api.db")
	cfg.Database.AcquireTimeout = 5 * time.Second
	cfg.Auth.JWTSecret = "test-secret-key"

	h, err := config.SetupDatabase(context.Background(), cfg, utils.NopLogger())
	require.NoError(t, err, "Failed to set up test database")

	reg := httptest.NewServer(http.HandlerFunc(serveRegistry))
	client := registry.NewClient(reg.URL, 2*time.Second, utils.NopLogger())

	repo := repository.New(h)
	svc := service.NewDefaultService(repo, client, cfg.Auth.JWTSecret, utils.NopLogger())
	handler := api.NewHandler(svc, utils.NopLogger(), true)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(cfg.Auth.JWTSecret))
		c.Next()
	})
	handler.SetupRoutes(router)

	testUserID, token := CreateTestUser(t, repo, cfg.Auth.JWTSecret, "testuser@example.com")

	return &TestContext{
		Router:      router,
		Repository:  repo,
		Service:     svc,
		JWTSecret:   []byte(cfg.Auth.JWTSecret),
		Handle:      h,
		Registry:    reg,
		TestUserID:  testUserID,
		TestUserJWT: token,
	}
}

// CleanupTestContext cleans up test resources
func CleanupTestContext(tc *TestContext) {
	if tc.Registry != nil {
		tc.Registry.Close()
	}
	if tc.Handle != nil {
		tc.Handle.Close()
	}
}

// CreateTestUser stores a user and returns its id with a signed token.
func CreateTestUser(t *testing.T, repo repository.Repository, jwtSecret, email string) (string, string) {
	t.Helper()

	user := &models.User{
		ID:       uuid.New().String(),
		Email:    email,
		Name:     "Test User",
		Provider: "test",
	}
	require.NoError(t, repo.UpsertUser(context.Background(), user), "Failed to create test user")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.ID,
		"exp": time.Now().Add(24 * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	})
	tokenString, err := token.SignedString([]byte(jwtSecret))
	require.NoError(t, err, "Failed to generate JWT token")

	return user.ID, tokenString
}

// PerformRequest executes an HTTP request against the router
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// AuthHeaders returns headers with Authorization token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}

// Decode unmarshals a recorded response body into out.
func Decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), "body: %s", w.Body.String())
}

func serveRegistry(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/organizations/530196605.json":
		_, _ = w.Write([]byte(`{"organization": {
			"ein": 530196605,
			"name": "American National Red Cross",
			"city": "Washington",
			"state": "DC",
			"ntee_code": "M20",
			"subsection_code": 3,
			"deductibility_code": 1,
			"exempt_organization_status_code": 1
		}}`))
	case r.URL.Path == "/search.json" && strings.Contains(strings.ToLower(r.URL.Query().Get("q")), "cross"):
		_, _ = w.Write([]byte(`{"organizations": [
			{"ein": 530196605, "name": "American National Red Cross", "city": "Washington", "state": "DC"}
		]}`))
	case r.URL.Path == "/search.json":
		_, _ = w.Write([]byte(`{"organizations": []}`))
	default:
		http.NotFound(w, r)
	}
}
