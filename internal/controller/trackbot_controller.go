package controller

import (
	"trackbot-be/internal/dto"
	"trackbot-be/internal/pkg/serverutils"
	"trackbot-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ITrackbotController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
	Save(ctx *fiber.Ctx) error
	GenerateDocument(ctx *fiber.Ctx) error
	ListDocuments(ctx *fiber.Ctx) error
	ListRecords(ctx *fiber.Ctx) error
}

type trackbotController struct {
	trackbotService service.ITrackbotService
	auth            fiber.Handler
}

// NewTrackbotController protects every route with auth.
func NewTrackbotController(trackbotService service.ITrackbotService, auth fiber.Handler) ITrackbotController {
	return &trackbotController{
		trackbotService: trackbotService,
		auth:            auth,
	}
}

func (c *trackbotController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/trackbot/v1")
	h.Use(c.auth)
	h.Post("sessions", c.CreateSession)
	h.Get("sessions/:id", c.Show)
	h.Post("sessions/:id/messages", c.SendMessage)
	h.Delete("sessions/:id/data", c.Reset)
	h.Post("sessions/:id/save", c.Save)
	h.Get("sessions/:id/records", c.ListRecords)
	h.Post("sessions/:id/documents/:kind", c.GenerateDocument)
	h.Get("sessions/:id/documents", c.ListDocuments)
}

func (c *trackbotController) CreateSession(ctx *fiber.Ctx) error {
	res, err := c.trackbotService.CreateSession(ctx.UserContext(), serverutils.UserID(ctx))
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Session created", res))
}

func (c *trackbotController) Show(ctx *fiber.Ctx) error {
	res, err := c.trackbotService.Show(ctx.UserContext(), serverutils.UserID(ctx), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get session", res))
}

func (c *trackbotController) SendMessage(ctx *fiber.Ctx) error {
	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.trackbotService.SendMessage(ctx.UserContext(), serverutils.UserID(ctx), ctx.Params("id"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Message processed", res))
}

func (c *trackbotController) Reset(ctx *fiber.Ctx) error {
	res, err := c.trackbotService.Reset(ctx.UserContext(), serverutils.UserID(ctx), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("All data and memory cleared", res))
}

func (c *trackbotController) Save(ctx *fiber.Ctx) error {
	res, err := c.trackbotService.Save(ctx.UserContext(), serverutils.UserID(ctx), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse(res.Message, res))
}

func (c *trackbotController) GenerateDocument(ctx *fiber.Ctx) error {
	res, err := c.trackbotService.GenerateDocument(ctx.UserContext(), serverutils.UserID(ctx), ctx.Params("id"), ctx.Params("kind"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse(res.Title+" generated", res))
}

func (c *trackbotController) ListDocuments(ctx *fiber.Ctx) error {
	res, err := c.trackbotService.ListDocuments(ctx.UserContext(), serverutils.UserID(ctx), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get documents", res))
}

func (c *trackbotController) ListRecords(ctx *fiber.Ctx) error {
	res, err := c.trackbotService.ListRecords(ctx.UserContext(), serverutils.UserID(ctx), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get records", res))
}
