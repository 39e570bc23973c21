package std

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"

	"github.com/ichaly/ideabase/log"
	"github.com/ichaly/ideabase/utl"
)

// NewFiber 创建并配置fiber应用
func NewFiber(c *Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               c.Name,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           60 * time.Second,
		DisableStartupMessage: true,
		JSONEncoder:           utl.MarshalJSON,
		JSONDecoder:           utl.UnmarshalJSON,
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			}
			return ctx.Status(code).JSON(Result{Errors: []*Exception{NewException(code).WithError(err)}})
		},
	})

	app.Use(requestid.New())
	app.Use(recover.New(recover.Config{EnableStackTrace: c.IsDebug()}))
	app.Use(cors.New())
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))

	if c.IsDebug() {
		app.Use(func(ctx *fiber.Ctx) error {
			start := time.Now()
			err := ctx.Next()

			status := ctx.Response().StatusCode()
			var evt *zerolog.Event
			switch {
			case err != nil:
				evt = log.Error().Err(err)
			case status >= fiber.StatusBadRequest:
				evt = log.Warn()
			default:
				evt = log.Info()
			}
			evt.Str("method", ctx.Method()).
				Str("path", ctx.Path()).
				Int("status", status).
				Str("ip", ctx.IP()).
				Dur("latency", time.Since(start)).
				Msg("fiber request")
			return err
		})
	}
	return app
}
