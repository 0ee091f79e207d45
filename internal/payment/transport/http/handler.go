package http

import (
	"errors"

	"github.com/JonOng2002/microservices-ecommerce/internal/identity"
	"github.com/JonOng2002/microservices-ecommerce/internal/payment/domain"
	"github.com/JonOng2002/microservices-ecommerce/internal/payment/gateway"
	"github.com/JonOng2002/microservices-ecommerce/internal/payment/service"
	"github.com/JonOng2002/microservices-ecommerce/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	service  service.CheckoutService
	logger   *zap.Logger
	validate *validator.Validate
}

func NewCheckoutHandler(service service.CheckoutService, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service:  service,
		logger:   logger,
		validate: validator.New(),
	}
}

func RegisterRoutes(app *fiber.App, h *CheckoutHandler, authMiddleware fiber.Handler) {
	app.Get("/health", h.Health)

	sessions := app.Group("/sessions")
	sessions.Post("/create-checkout-session", authMiddleware, h.CreateCheckoutSession)
	sessions.Get("/:sessionId", h.ResolveSession)
}

func (h *CheckoutHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

type createSessionRequest struct {
	Items []domain.CartItem `json:"items" validate:"required,min=1,dive"`
}

func (h *CheckoutHandler) CreateCheckoutSession(c *fiber.Ctx) error {
	input := new(createSessionRequest)

	if err := c.BodyParser(input); err != nil {
		h.logger.Warn(
			"failed to parse checkout body",
			zap.Error(err),
		)

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "error parsing body",
		})
	}

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "validation failed",
			"fields": utils.FormatValidationError(err),
		})
	}

	session, err := h.service.CreateSession(c.UserContext(), identity.UserIDFromCtx(c), input.Items)
	if err != nil {
		return h.mapError(c, err, "create checkout session failed")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"sessionId":    session.ID,
		"clientSecret": session.ClientSecret,
	})
}

func (h *CheckoutHandler) ResolveSession(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "sessionId is required",
		})
	}

	result, err := h.service.ResolveSession(c.UserContext(), sessionID)
	if err != nil {
		return h.mapError(c, err, "resolve session failed")
	}

	return c.JSON(fiber.Map{
		"session":   result.Session,
		"published": result.Published,
		"degraded":  result.Degraded,
	})
}

func (h *CheckoutHandler) mapError(c *fiber.Ctx, err error, msg string) error {
	h.logger.Warn(
		msg,
		zap.Error(err),
	)

	switch {
	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, gateway.ErrProductNotFound),
		errors.Is(err, gateway.ErrPriceNotFound):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, gateway.ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "payment provider temporarily unavailable",
		})
	default:
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "payment provider error",
		})
	}
}
