package http

import (
	"errors"

	"github.com/JonOng2002/microservices-ecommerce/internal/inventory"
	"github.com/JonOng2002/microservices-ecommerce/internal/product/domain"
	"github.com/JonOng2002/microservices-ecommerce/internal/product/repository"
	"github.com/JonOng2002/microservices-ecommerce/internal/product/service"
	"github.com/JonOng2002/microservices-ecommerce/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ProductHandler struct {
	products  service.ProductService
	inventory service.InventoryService
	logger    *zap.Logger
	validate  *validator.Validate
}

func NewProductHandler(products service.ProductService, inv service.InventoryService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		products:  products,
		inventory: inv,
		logger:    logger,
		validate:  validator.New(),
	}
}

func RegisterRoutes(app *fiber.App, h *ProductHandler, authMiddleware fiber.Handler) {
	app.Get("/health", h.Health)

	products := app.Group("/products", authMiddleware)
	products.Post("", h.Create)
	products.Get("", h.List)
	products.Get("/:id", h.GetByID)
	products.Put("/:id", h.Update)
	products.Delete("/:id", h.Delete)

	inv := app.Group("/inventory", authMiddleware)
	inv.Post("", h.SetInventory)
	inv.Get("/low-stock", h.ListLowStock)
	inv.Get("", h.GetInventory)
	inv.Put("/:productId", h.AdjustInventory)
	inv.Delete("/:productId", h.DeleteInventory)
}

func (h *ProductHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	input := new(domain.CreateProductInput)

	if err := c.BodyParser(input); err != nil {
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

	product, err := h.products.Create(c.UserContext(), input)
	if err != nil {
		h.logger.Warn(
			"create product failed",
			zap.Error(err),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create product",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(product)
}

func (h *ProductHandler) List(c *fiber.Ctx) error {
	limit := int64(c.QueryInt("limit", 20))
	offset := int64(c.QueryInt("offset", 0))
	search := c.Query("search")

	products, total, err := h.products.List(c.UserContext(), limit, offset, search)
	if err != nil {
		h.logger.Warn(
			"list products failed",
			zap.Error(err),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list products",
		})
	}

	return c.JSON(fiber.Map{
		"products": products,
		"total":    total,
	})
}

func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	product, err := h.products.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "product not found",
			})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get product",
		})
	}

	return c.JSON(product)
}

func (h *ProductHandler) Update(c *fiber.Ctx) error {
	input := new(domain.UpdateProductInput)

	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "error parsing body",
		})
	}

	err := h.products.Update(c.UserContext(), c.Params("id"), input)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "product not found",
			})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to update product",
		})
	}

	return c.JSON(fiber.Map{"status": "success"})
}

func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	err := h.products.Delete(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "product not found",
			})
		}

		h.logger.Warn(
			"delete product failed",
			zap.Error(err),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete product",
		})
	}

	return c.JSON(fiber.Map{"status": "success"})
}

type setInventoryRequest struct {
	ProductID      string `json:"productId" validate:"required"`
	ProductName    string `json:"productName" validate:"required"`
	ProductSlug    string `json:"productSlug"`
	QuantityL      int64  `json:"quantityL" validate:"gte=0"`
	QuantityM      int64  `json:"quantityM" validate:"gte=0"`
	QuantityS      int64  `json:"quantityS" validate:"gte=0"`
	StockThreshold int64  `json:"stockThreshold" validate:"gte=0"`
}

func (h *ProductHandler) SetInventory(c *fiber.Ctx) error {
	input := new(setInventoryRequest)

	if err := c.BodyParser(input); err != nil {
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

	record := &inventory.Record{
		ProductID:   input.ProductID,
		ProductName: input.ProductName,
		ProductSlug: input.ProductSlug,
		Quantities: inventory.Quantities{
			inventory.SizeLarge:  input.QuantityL,
			inventory.SizeMedium: input.QuantityM,
			inventory.SizeSmall:  input.QuantityS,
		},
		StockThreshold: input.StockThreshold,
	}

	if err := h.inventory.SetInventory(c.UserContext(), record); err != nil {
		h.logger.Warn(
			"set inventory failed",
			zap.String("productId", input.ProductID),
			zap.Error(err),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to set inventory",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "success"})
}

// GetInventory returns one record when productId is supplied and the full
// listing otherwise.
func (h *ProductHandler) GetInventory(c *fiber.Ctx) error {
	productID := c.Query("productId")

	if productID != "" {
		record, err := h.inventory.GetInventory(c.UserContext(), productID)
		if err != nil {
			if errors.Is(err, inventory.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": "inventory record not found",
				})
			}

			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get inventory",
			})
		}

		return c.JSON(record)
	}

	records, err := h.inventory.ListInventory(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list inventory",
		})
	}

	return c.JSON(records)
}

func (h *ProductHandler) ListLowStock(c *fiber.Ctx) error {
	records, err := h.inventory.ListLowStock(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list low stock",
		})
	}

	return c.JSON(records)
}

type adjustInventoryRequest struct {
	Operation string `json:"operation" validate:"required,oneof=set add"`
	QuantityL int64  `json:"quantityL"`
	QuantityM int64  `json:"quantityM"`
	QuantityS int64  `json:"quantityS"`
}

func (h *ProductHandler) AdjustInventory(c *fiber.Ctx) error {
	input := new(adjustInventoryRequest)

	if err := c.BodyParser(input); err != nil {
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

	quantities := inventory.Quantities{
		inventory.SizeLarge:  input.QuantityL,
		inventory.SizeMedium: input.QuantityM,
		inventory.SizeSmall:  input.QuantityS,
	}

	record, err := h.inventory.AdjustInventory(c.UserContext(), c.Params("productId"), input.Operation, quantities)
	if err != nil {
		if errors.Is(err, inventory.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "inventory record not found",
			})
		}

		if errors.Is(err, service.ErrUnknownOperation) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		h.logger.Warn(
			"adjust inventory failed",
			zap.String("productId", c.Params("productId")),
			zap.Error(err),
		)

		if record != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":  "adjustment partially applied",
				"record": record,
			})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to adjust inventory",
		})
	}

	return c.JSON(record)
}

func (h *ProductHandler) DeleteInventory(c *fiber.Ctx) error {
	err := h.inventory.DeleteInventory(c.UserContext(), c.Params("productId"))
	if err != nil {
		if errors.Is(err, inventory.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "inventory record not found",
			})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete inventory",
		})
	}

	return c.JSON(fiber.Map{"status": "success"})
}
