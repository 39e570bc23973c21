package std

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Probe 就绪检查项
type Probe func(ctx context.Context) error

// Health 健康检查插件
type Health struct {
	start  time.Time
	probes map[string]Probe
}

func NewHealth() *Health {
	return &Health{start: time.Now(), probes: map[string]Probe{}}
}

// Register 注册就绪检查项
func (my *Health) Register(name string, p Probe) {
	my.probes[name] = p
}

func (my *Health) Base() string {
	return "/health"
}

func (my *Health) Init(r fiber.Router) {
	r.Get("/", my.Check)
	r.Get("/live", my.Liveness)
	r.Get("/ready", my.Readiness)
}

// Check 通用健康检查
func (my *Health) Check(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "timestamp": time.Now().Unix()})
}

// Liveness 存活检查
func (my *Health) Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "alive",
		"timestamp": time.Now().Unix(),
		"uptime":    time.Since(my.start).Seconds(),
	})
}

// Readiness 就绪检查,任一检查项失败返回503
func (my *Health) Readiness(c *fiber.Ctx) error {
	checks, ready := fiber.Map{}, true
	for name, probe := range my.probes {
		if err := probe(c.UserContext()); err != nil {
			checks[name], ready = err.Error(), false
			continue
		}
		checks[name] = "ok"
	}
	status, code := "ready", fiber.StatusOK
	if !ready {
		status, code = "not_ready", fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{"status": status, "timestamp": time.Now().Unix(), "checks": checks})
}
