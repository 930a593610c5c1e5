package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenx-cards/core/internal/config"
	"github.com/tenx-cards/core/internal/database"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func serve(t *testing.T, db *gorm.DB, cache Pinger) (int, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r.Group("/api"), db, cache, nil, config.AIConfig{Provider: config.ProviderMock, Mock: true})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", ":memory:", logger.Silent)
	require.NoError(t, err)
	return db
}

func TestHealth_OK(t *testing.T) {
	db := openDB(t)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	code, body := serve(t, db, stubPinger{err: errors.New("down")})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["database"])
	assert.Equal(t, false, body["redis"])
	ai := body["ai"].(map[string]any)
	assert.Equal(t, true, ai["configured"])
}

func TestHealth_DatabaseDown(t *testing.T) {
	db := openDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	code, body := serve(t, db, nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "degraded", body["status"])
	assert.NotContains(t, body, "redis")
}
