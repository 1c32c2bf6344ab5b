//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/kwrenn/signet/internal/api"
	"github.com/kwrenn/signet/internal/content"
	"github.com/kwrenn/signet/internal/db"
	"github.com/kwrenn/signet/internal/devices"
	"github.com/kwrenn/signet/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Init("error", false)
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// setupTestDB creates a temp-file test database with migrations applied
func setupTestDB(t *testing.T) (*db.DB, *db.Repositories) {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "signet.db"))
	require.NoError(t, err, "Failed to create test database")
	t.Cleanup(func() {
		_ = database.Close()
	})

	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err, "Failed to get SQL DB")

	// Resolve the migrations directory relative to this file so tests work
	// regardless of working directory
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "Failed to get current file path")

	testDir := filepath.Dir(filename)                         // test/integration
	moduleRoot := filepath.Dir(filepath.Dir(testDir))         // module root
	migrationsPath := "file://" + filepath.Join(moduleRoot, "migrations")

	require.NoError(t, db.RunMigrations(sqlDB, migrationsPath), "Failed to run migrations")

	return database, db.NewRepositories(database)
}

// setupTestRouter wires the full API surface the way the server does
func setupTestRouter(t *testing.T, database *db.DB, repos *db.Repositories) *gin.Engine {
	t.Helper()

	contentService := content.NewService(database, repos)
	deviceService := devices.NewService(repos, 90*time.Second)

	router := gin.New()
	router.Use(gin.Recovery())

	apiGroup := router.Group("/api")
	api.SetupHealthRoutes(apiGroup, database, repos)
	api.SetupMediaRoutes(apiGroup, contentService)
	api.SetupPlaylistRoutes(apiGroup, contentService)
	api.SetupDeviceRoutes(apiGroup, deviceService)

	return router
}

// doRequest performs a JSON request against the router. A non-empty token is
// sent as a Bearer credential.
func doRequest(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err, "Failed to marshal request body")
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// decodeJSON unmarshals a response body into out
func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), "Failed to decode response: %s", w.Body.String())
}
