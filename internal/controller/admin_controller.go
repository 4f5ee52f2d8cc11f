package controller

import (
	"strconv"

	"oneask-be/internal/pkg/logger"
	"oneask-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	GetLogs(ctx *fiber.Ctx) error
	GetLogDetail(ctx *fiber.Ctx) error
}

type adminController struct {
	logger    logger.ILogger
	jwtSecret string
}

func NewAdminController(log logger.ILogger, jwtSecret string) IAdminController {
	return &adminController{
		logger:    log,
		jwtSecret: jwtSecret,
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin/v1")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Get("/logs", c.GetLogs)
	h.Get("/logs/:id", c.GetLogDetail)
}

func (c *adminController) GetLogs(ctx *fiber.Ctx) error {
	limit, _ := strconv.Atoi(ctx.Query("limit", "50"))
	offset, _ := strconv.Atoi(ctx.Query("offset", "0"))
	level := ctx.Query("level", "")

	logs, err := c.logger.GetLogs(level, limit, offset)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("System logs", logs))
}

func (c *adminController) GetLogDetail(ctx *fiber.Ctx) error {
	// Log IDs are MD5 hashes, not UUIDs.
	logId := ctx.Params("id")

	entry, err := c.logger.GetLogById(logId)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "Log not found")
	}

	return ctx.JSON(serverutils.SuccessResponse("Log detail", entry))
}
