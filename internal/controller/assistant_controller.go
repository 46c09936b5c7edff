package controller

import (
	"contactiq-be/internal/dto"
	"contactiq-be/internal/pkg/serverutils"
	"contactiq-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAssistantController interface {
	RegisterRoutes(r fiber.Router)
	Query(ctx *fiber.Ctx) error
	ListInteractions(ctx *fiber.Ctx) error
	ShowInteraction(ctx *fiber.Ctx) error
	AcceptHandoff(ctx *fiber.Ctx) error
}

type assistantController struct {
	assistantService service.IAssistantService
}

func NewAssistantController(assistantService service.IAssistantService) IAssistantController {
	return &assistantController{
		assistantService: assistantService,
	}
}

func (c *assistantController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/assistant/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("query", c.Query)
	h.Get("interactions", c.ListInteractions)
	h.Get("interactions/:id", c.ShowInteraction)
	h.Post("interactions/:id/accept", c.AcceptHandoff)
}

func (c *assistantController) Query(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)

	var req dto.QueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.ProcessQuery(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return serverutils.SuccessResponse(ctx, fiber.StatusOK, res)
}

func (c *assistantController) AcceptHandoff(ctx *fiber.Ctx) error {
	agentId := ctx.Locals("user_id").(string)

	res, err := c.assistantService.AcceptHandoff(ctx.Context(), ctx.Params("id"), agentId)
	if err != nil {
		return err
	}

	return serverutils.SuccessResponse(ctx, fiber.StatusOK, res)
}

func (c *assistantController) ListInteractions(ctx *fiber.Ctx) error {
	var req dto.InteractionListRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query parameters")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.ListInteractions(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return serverutils.SuccessResponse(ctx, fiber.StatusOK, res)
}

func (c *assistantController) ShowInteraction(ctx *fiber.Ctx) error {
	res, err := c.assistantService.GetInteraction(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}
	if res == nil {
		return fiber.NewError(fiber.StatusNotFound, "interaction not found")
	}

	return serverutils.SuccessResponse(ctx, fiber.StatusOK, res)
}
