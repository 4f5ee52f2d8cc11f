package controller

import (
	"oneask-be/internal/dto"
	"oneask-be/internal/pkg/serverutils"
	"oneask-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IQaController interface {
	RegisterRoutes(r fiber.Router)
	Ask(ctx *fiber.Ctx) error
	InvalidateCache(ctx *fiber.Ctx) error
}

type qaController struct {
	askService service.IAskService
}

func NewQaController(askService service.IAskService) IQaController {
	return &qaController{
		askService: askService,
	}
}

func (c *qaController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/qa/v1")
	h.Post("ask", c.Ask)
	h.Post("cache/invalidate", c.InvalidateCache)
}

func (c *qaController) Ask(ctx *fiber.Ctx) error {
	var req dto.AskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.askService.Ask(ctx.Context(), &req)
	if err != nil {
		return err
	}

	// A degraded answer is still rendered to the caller; only the
	// success flag flips.
	if res.Degraded {
		return ctx.JSON(serverutils.Response{
			Success: false,
			Message: "Answer degraded",
			Data:    res,
		})
	}

	return ctx.JSON(serverutils.SuccessResponse("Success answer question", res))
}

func (c *qaController) InvalidateCache(ctx *fiber.Ctx) error {
	var req dto.InvalidateCacheRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res := c.askService.InvalidateCache(&req)

	return ctx.JSON(serverutils.SuccessResponse("Success invalidate answer cache", res))
}
