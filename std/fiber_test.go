package std

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ichaly/ideabase/std/internal"
	"github.com/ichaly/ideabase/utl"
)

func mockConfig(mode string) *Config {
	return &Config{AppConfig: internal.AppConfig{Name: "TestApp", Port: "8080"}, Mode: mode}
}

type coded struct{}

func (coded) Error() string { return "记录不存在" }

func (coded) Extensions() map[string]any { return map[string]any{"code": "NOT_FOUND"} }

func decodeResult(t *testing.T, resp *http.Response) Result {
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var r Result
	require.NoError(t, utl.UnmarshalJSON(body, &r))
	return r
}

func TestNewFiber(t *testing.T) {
	for _, mode := range []string{"dev", "prod"} {
		t.Run(mode, func(t *testing.T) {
			app := NewFiber(mockConfig(mode))
			app.Get("/test", func(c *fiber.Ctx) error { return c.SendString("test") })
			app.Get("/panic", func(c *fiber.Ctx) error { panic("boom") })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))

			resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/panic", nil))
			require.NoError(t, err)
			assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

			resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil))
			require.NoError(t, err)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			assert.NotEmpty(t, decodeResult(t, resp).Errors)
		})
	}
}

func TestWrapHandler(t *testing.T) {
	app := fiber.New()
	app.Get("/ok", WrapHandler(func(c *fiber.Ctx) (any, error) { return fiber.Map{"a": 1}, nil }))
	app.Get("/coded", WrapHandler(func(c *fiber.Ctx) (any, error) {
		return nil, NewException(fiber.StatusBadRequest).WithError(coded{})
	}))
	app.Get("/plain", WrapHandler(func(c *fiber.Ctx) (any, error) { return nil, errors.New("失败") }))
	app.Get("/fiber", WrapHandler(func(c *fiber.Ctx) (any, error) { return nil, fiber.ErrForbidden }))

	tests := []struct {
		name    string
		path    string
		status  int
		message string
		code    any
	}{
		{"成功", "/ok", http.StatusOK, "", nil},
		{"扩展信息", "/coded", http.StatusBadRequest, "记录不存在", "NOT_FOUND"},
		{"普通错误", "/plain", http.StatusInternalServerError, "失败", nil},
		{"fiber错误", "/fiber", http.StatusForbidden, "Forbidden", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			r := decodeResult(t, resp)
			if tt.message == "" {
				assert.Empty(t, r.Errors)
				assert.Equal(t, map[string]any{"a": float64(1)}, r.Data)
				return
			}
			require.Len(t, r.Errors, 1)
			assert.Equal(t, tt.message, r.Errors[0].Message)
			if tt.code != nil {
				assert.Equal(t, tt.code, r.Errors[0].Extensions["code"])
			}
		})
	}
}

type echo struct{ base string }

func (my echo) Base() string { return my.base }

func (my echo) Init(r fiber.Router) {
	r.Get("/ping", func(c *fiber.Ctx) error { return c.SendString(my.base) })
}

func TestMount(t *testing.T) {
	app := fiber.New()
	health := NewHealth()
	health.Register("store", func(ctx context.Context) error { return nil })
	Mount(app, PluginGroup{Plugins: []Plugin{echo{"//api//v1/"}, health}, Middlewares: []Plugin{echo{"/"}}})

	for path, want := range map[string]int{
		"/api/v1/ping":  http.StatusOK,
		"/ping":         http.StatusOK,
		"/health":       http.StatusOK,
		"/health/live":  http.StatusOK,
		"/health/ready": http.StatusOK,
	} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		assert.Equal(t, want, resp.StatusCode, path)
	}

	t.Run("未就绪", func(t *testing.T) {
		health.Register("db", func(ctx context.Context) error { return errors.New("down") })
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}
