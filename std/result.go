package std

import (
	"errors"
	"maps"

	"github.com/gofiber/fiber/v2"

	"github.com/ichaly/ideabase/log"
)

// Result GraphQL风格的统一响应结构
type Result struct {
	Data       any          `json:"data,omitempty"`
	Errors     []*Exception `json:"errors,omitempty"`
	Extensions Extension    `json:"extensions,omitempty"`
}

// Extension 扩展信息,与各错误类型的 Extensions() 返回值一致
type Extension = map[string]any

// Location GraphQL错误位置信息
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Exception 符合GraphQL错误格式的异常
type Exception struct {
	Message    string     `json:"message"`
	Locations  []Location `json:"locations,omitempty"`
	Path       []any      `json:"path,omitempty"`
	Extensions Extension  `json:"extensions,omitempty"`

	statusCode int
}

func (my *Exception) Error() string {
	return my.Message
}

// NewException 创建异常实例
func NewException(statusCode int) *Exception {
	return &Exception{statusCode: statusCode}
}

// StatusCode 返回HTTP状态码
func (my *Exception) StatusCode() int {
	return my.statusCode
}

// With 添加扩展字段
func (my *Exception) With(key string, value any) *Exception {
	if value == nil {
		return my
	}
	if my.Extensions == nil {
		my.Extensions = make(Extension)
	}
	my.Extensions[key] = value
	return my
}

// WithMessage 设置错误消息
func (my *Exception) WithMessage(message string) *Exception {
	if message != "" {
		my.Message = message
	}
	return my
}

// WithPath 设置错误路径
func (my *Exception) WithPath(path ...any) *Exception {
	my.Path = path
	return my
}

// WithError 合并错误携带的扩展信息,消息为空时使用错误文本
func (my *Exception) WithError(err error) *Exception {
	var carrier interface{ Extensions() Extension }
	if errors.As(err, &carrier) {
		if ext := carrier.Extensions(); len(ext) > 0 {
			if my.Extensions == nil {
				my.Extensions = maps.Clone(ext)
			} else {
				maps.Copy(my.Extensions, ext)
			}
		}
	}
	if my.Message == "" {
		my.Message = err.Error()
	}
	return my
}

// WrapHandler 包装业务处理函数,统一响应格式
func WrapHandler(handler func(*fiber.Ctx) (any, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data, err := handler(c)
		if err == nil {
			return c.Status(fiber.StatusOK).JSON(Result{Data: data})
		}

		var ex *Exception
		var fe *fiber.Error
		switch {
		case errors.As(err, &ex):
		case errors.As(err, &fe):
			ex = NewException(fe.Code).WithMessage(fe.Message)
		default:
			ex = NewException(fiber.StatusInternalServerError).WithError(err)
		}
		if ex.statusCode >= fiber.StatusInternalServerError {
			log.Error().Err(err).Str("path", c.Path()).Msg("请求处理失败")
		}
		return c.Status(ex.statusCode).JSON(Result{Errors: []*Exception{ex}})
	}
}
