package view

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"bizmart-backend/internal/application/businesses"
	"bizmart-backend/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T) *fiber.App {
	t.Helper()
	e, err := New("test")
	require.NoError(t, err)
	app := fiber.New()
	app.Get("/businesses/:id", func(c *fiber.Ctx) error {
		Share(c, "auth", &domain.Viewer{UserID: 1, Name: "Ada"})
		var b *domain.Business
		if c.Params("id") == "known" {
			b = &domain.Business{ListingID: "known", BusinessName: "Mama <Put>", TransactionType: domain.Sale, Price: 1250000}
		}
		return e.Render(c, "Business", fiber.Map{"business": b, "bookmarks": []domain.Business{}, "isLoggedIn": true})
	})
	app.Get("/list", func(c *fiber.Ctx) error {
		empty := businesses.Page[domain.Business]{Data: []domain.Business{}, CurrentPage: 1, PerPage: 15, LastPage: 1}
		return e.Render(c, "Businesses", fiber.Map{
			"auction": empty, "sale": empty, "investment": empty, "lease": empty,
			"categories": []domain.Category{{ID: 1, Name: "Food"}},
		})
	})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return e.Render(c, "Nope", nil)
	})
	return app
}

func TestRender_JSONPageObject(t *testing.T) {
	app := newApp(t)
	for _, h := range []map[string]string{
		{"X-Inertia": "true"},
		{"Accept": "application/json"},
	} {
		req := httptest.NewRequest("GET", "/businesses/unknown?x=1", nil)
		for k, v := range h {
			req.Header.Set(k, v)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var page struct {
			Component string                 `json:"component"`
			Props     map[string]interface{} `json:"props"`
			URL       string                 `json:"url"`
			Version   string                 `json:"version"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
		assert.Equal(t, "Business", page.Component)
		assert.Equal(t, "/businesses/unknown?x=1", page.URL)
		assert.Equal(t, "test", page.Version)
		assert.Contains(t, page.Props, "business")
		assert.Nil(t, page.Props["business"])
		assert.Equal(t, true, page.Props["isLoggedIn"])
		assert.NotNil(t, page.Props["auth"])
	}
}

func TestRender_HTML(t *testing.T) {
	app := newApp(t)
	resp, err := app.Test(httptest.NewRequest("GET", "/businesses/known", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "Mama &lt;Put&gt;")
	assert.Contains(t, string(body), "1,250,000.00")
	assert.Contains(t, string(body), "Sale")

	resp, err = app.Test(httptest.NewRequest("GET", "/businesses/unknown", nil))
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "This listing does not exist.")

	resp, err = app.Test(httptest.NewRequest("GET", "/list", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	body, _ = io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "No listings yet.")
}

func TestRender_UnknownComponentFails(t *testing.T) {
	app := newApp(t)
	resp, err := app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "0.00", formatMoney(0))
	assert.Equal(t, "999.50", formatMoney(999.5))
	assert.Equal(t, "1,000.00", formatMoney(1000))
	assert.Equal(t, "-12,345,678.90", formatMoney(-12345678.9))
}
