package handlers

import (
	"foodorder/internal/middleware"
	"foodorder/internal/models"
	"foodorder/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// CartHandler handles HTTP requests for the cart of the calling customer.
type CartHandler struct {
	carts    *services.CartService
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(carts *services.CartService) *CartHandler {
	return &CartHandler{carts: carts, validate: services.NewValidator()}
}

// RegisterRoutes registers the cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	cartRoutes := router.Group("/cart", authRequired, middleware.RoleRequired(models.RoleCustomer))
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Patch("/items/:foodId", h.HandleAdjustItem)
	cartRoutes.Delete("/items/:foodId", h.HandleRemoveItem)
}

// CartView is the cart together with its grand total.
type CartView struct {
	Items []models.CartLine `json:"items"`
	Total decimal.Decimal   `json:"total"`
}

func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	lines, err := h.carts.List(c.UserContext(), p)
	if err != nil {
		return err
	}
	view := CartView{Items: lines, Total: decimal.Zero}
	if view.Items == nil {
		view.Items = []models.CartLine{}
	}
	for _, line := range lines {
		view.Total = view.Total.Add(line.TotalPrice)
	}
	return c.JSON(view)
}

// AddItemRequest is the body of POST /cart/items.
type AddItemRequest struct {
	FoodID   string `json:"foodId" validate:"required"`
	Quantity int    `json:"quantity" validate:"required"`
}

// AdjustItemRequest is the body of PATCH /cart/items/:foodId. Quantity is a
// signed delta.
type AdjustItemRequest struct {
	Quantity int `json:"quantity" validate:"required"`
}

func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	return h.upsert(c, req.FoodID, req.Quantity)
}

func (h *CartHandler) HandleAdjustItem(c *fiber.Ctx) error {
	var req AdjustItemRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	return h.upsert(c, c.Params("foodId"), req.Quantity)
}

func (h *CartHandler) upsert(c *fiber.Ctx, foodID string, delta int) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	line, err := h.carts.Upsert(c.UserContext(), p, foodID, delta)
	if err != nil {
		return err
	}
	if line == nil {
		return c.JSON(fiber.Map{"message": "Item removed from the cart"})
	}
	return c.JSON(line)
}

func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	if err := h.carts.Remove(c.UserContext(), p, c.Params("foodId")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
