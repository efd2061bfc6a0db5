package controller

import (
	"trackbot-be/internal/dto"
	"trackbot-be/internal/pkg/serverutils"
	"trackbot-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IKnowledgeController interface {
	RegisterRoutes(r fiber.Router)
	Ingest(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Stats(ctx *fiber.Ctx) error
}

type knowledgeController struct {
	knowledgeService service.IKnowledgeService
	auth             fiber.Handler
}

func NewKnowledgeController(knowledgeService service.IKnowledgeService, auth fiber.Handler) IKnowledgeController {
	return &knowledgeController{
		knowledgeService: knowledgeService,
		auth:             auth,
	}
}

func (c *knowledgeController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/knowledge/v1")
	h.Use(c.auth)
	h.Post("", c.Ingest)
	h.Get("stats", c.Stats)
	h.Delete("", c.Delete)
}

func (c *knowledgeController) Ingest(ctx *fiber.Ctx) error {
	var req dto.IngestKnowledgeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.knowledgeService.Ingest(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	status := fiber.StatusCreated
	if res.Queued {
		status = fiber.StatusAccepted
	}
	return ctx.Status(status).JSON(serverutils.SuccessResponse("Knowledge ingested", res))
}

func (c *knowledgeController) Delete(ctx *fiber.Ctx) error {
	var req dto.DeleteKnowledgeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.knowledgeService.Delete(ctx.UserContext(), req.Source); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Knowledge source deleted", nil))
}

func (c *knowledgeController) Stats(ctx *fiber.Ctx) error {
	res, err := c.knowledgeService.Stats(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get knowledge stats", res))
}
