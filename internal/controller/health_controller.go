package controller

import (
	"trackbot-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
)

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
}

// HealthInfo is reported by GET /api/health.
type HealthInfo struct {
	Status         string `json:"status"`
	LLMProvider    string `json:"llm_provider"`
	SessionStore   string `json:"session_store"`
	KnowledgeReady bool   `json:"knowledge_ready"`
	EventBus       bool   `json:"event_bus"`
	Archive        bool   `json:"archive"`
}

type healthController struct {
	info HealthInfo
}

func NewHealthController(info HealthInfo) IHealthController {
	if info.Status == "" {
		info.Status = "ok"
	}
	return &healthController{info: info}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Health)
}

func (c *healthController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("ok", c.info))
}
