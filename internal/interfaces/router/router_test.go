package router

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bizmart-backend/internal/config"
	"bizmart-backend/internal/infrastructure/database/dbtest"
	"bizmart-backend/internal/infrastructure/events"
	"bizmart-backend/internal/infrastructure/storage"
	"bizmart-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*fiber.App, string) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	root := t.TempDir()
	local, err := storage.NewLocal(root, "/storage")
	require.NoError(t, err)

	cfg := &config.Config{
		Env:              "test",
		PageSize:         15,
		MaxUploadMB:      5,
		StorageDriver:    "local",
		StorageRoot:      root,
		StoragePublicURL: "/storage",
		SubmittedSubject: "businesses.submitted",
	}
	app, err := New(cfg, Deps{
		DB:      dbtest.Open(t),
		Rdb:     rdb,
		Storage: local,
		Bus:     events.Nop{},
	})
	require.NoError(t, err)
	return app, root
}

func TestRoutes_SearchIsNotAListingID(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest("GET", "/businesses/search?search=x", nil)
	req.Header.Set("X-Inertia", "true")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var page struct {
		Component string                     `json:"component"`
		Props     map[string]json.RawMessage `json:"props"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Equal(t, "Businesses", page.Component)
	assert.JSONEq(t, `"x"`, string(page.Props["search"]))
}

func TestRoutes_ProtectedRedirectToLogin(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/businesses/create", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, middleware.LoginPath, resp.Header.Get("Location"))

	resp, err = app.Test(httptest.NewRequest("GET", middleware.LoginPath, nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestRoutes_RegisterThenMe(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest("POST", "/auth/register",
		strings.NewReader(`{"name":"Ada","email":"ada@example.com","password":"Secret123!"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var sid *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == middleware.SessionCookieName {
			sid = ck
		}
	}
	require.NotNil(t, sid)

	req = httptest.NewRequest("GET", "/auth/me", nil)
	req.Header.Set("Accept", "application/json")
	req.AddCookie(&http.Cookie{Name: sid.Name, Value: sid.Value})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "ada@example.com")
}

func TestRoutes_HealthJSONIncludesStorage(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/health/json", nil))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var out struct {
		Service      string `json:"service"`
		Status       string `json:"status"`
		Dependencies map[string]struct {
			Status string `json:"status"`
		} `json:"dependencies"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "bizmart-api", out.Service)
	assert.Equal(t, "connected", out.Dependencies["storage"].Status)
	assert.Equal(t, "connected", out.Dependencies["redis"].Status)
	assert.Equal(t, "connected", out.Dependencies["database"].Status)
	assert.NotContains(t, out.Dependencies, "nats")
}

func TestRoutes_ServesStoredPhotos(t *testing.T) {
	app, root := newTestApp(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "businesses"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "businesses", "a.jpg"), []byte("img"), 0o644))

	resp, err := app.Test(httptest.NewRequest("GET", "/storage/businesses/a.jpg", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "img", string(body))
}
