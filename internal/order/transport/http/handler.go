package http

import (
	"github.com/JonOng2002/microservices-ecommerce/internal/identity"
	"github.com/JonOng2002/microservices-ecommerce/internal/order/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type OrderHandler struct {
	service service.OrderService
	logger  *zap.Logger
}

func NewOrderHandler(service service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger,
	}
}

func RegisterRoutes(app *fiber.App, h *OrderHandler, authMiddleware fiber.Handler) {
	app.Get("/health", h.Health)

	app.Get("/user-orders", authMiddleware, h.UserOrders)
	app.Get("/orders", h.RecentOrders)
	app.Get("/order-chart", h.OrderChart)
}

func (h *OrderHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// UserOrders returns the caller's orders. An explicit userId query
// parameter wins over the resolved identity so back office tooling can
// inspect any customer.
func (h *OrderHandler) UserOrders(c *fiber.Ctx) error {
	userID := c.Query("userId")
	if userID == "" {
		userID = identity.UserIDFromCtx(c)
	}

	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "userId is required",
		})
	}

	orders, err := h.service.ListUserOrders(c.UserContext(), userID)
	if err != nil {
		h.logger.Warn(
			"list user orders failed",
			zap.String("userId", userID),
			zap.Error(err),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list orders",
		})
	}

	return c.JSON(orders)
}

func (h *OrderHandler) RecentOrders(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)

	orders, err := h.service.ListRecentOrders(c.UserContext(), int64(limit))
	if err != nil {
		h.logger.Warn(
			"list recent orders failed",
			zap.Error(err),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list orders",
		})
	}

	return c.JSON(orders)
}

func (h *OrderHandler) OrderChart(c *fiber.Ctx) error {
	points, err := h.service.OrderChart(c.UserContext())
	if err != nil {
		h.logger.Warn(
			"order chart failed",
			zap.Error(err),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to build order chart",
		})
	}

	return c.JSON(points)
}
