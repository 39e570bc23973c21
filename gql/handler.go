package gql

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ichaly/ideabase/std"
)

// Handler GraphQL HTTP插件
type Handler struct {
	engine *Engine
}

func NewHandler(e *Engine) *Handler {
	return &Handler{engine: e}
}

func (my *Handler) Base() string {
	return "/graphql"
}

func (my *Handler) Init(r fiber.Router) {
	r.Post("/", my.Serve)
	r.Get("/schema", my.SDL)
}

// Serve 执行 POST 请求体中的 GraphQL 请求
func (my *Handler) Serve(c *fiber.Ctx) error {
	var req Request
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(failure(CODE_BAD_REQUEST, "请求体不是合法的JSON: "+err.Error()))
	}
	if req.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(failure(CODE_BAD_REQUEST, "query 不能为空"))
	}
	result := my.engine.Do(c.UserContext(), req)
	if result.Data == nil && len(result.Errors) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(result)
	}
	return c.JSON(result)
}

// SDL 返回当前schema文本
func (my *Handler) SDL(c *fiber.Ctx) error {
	s := my.engine.Schema()
	if s == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(std.Result{
			Errors: []*std.Exception{std.NewException(fiber.StatusServiceUnavailable).WithError(ErrNotReady)},
		})
	}
	c.Set(fiber.HeaderContentType, "application/graphql; charset=utf-8")
	return c.SendString(s.SDL)
}
