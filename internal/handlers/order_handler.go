package handlers

import (
	"strings"
	"time"

	"foodorder/internal/apperrors"
	"foodorder/internal/middleware"
	"foodorder/internal/models"
	"foodorder/internal/services"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *services.OrderService
	reviews *services.ReviewService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, reviews *services.ReviewService) *OrderHandler {
	return &OrderHandler{
		service: service,
		reviews: reviews,
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	customerOnly := middleware.RoleRequired(models.RoleCustomer)
	restaurantOnly := middleware.RoleRequired(models.RoleRestaurant)

	orderRoutes := router.Group("/orders", authRequired)
	orderRoutes.Get("/", h.HandleFetchOrders)
	orderRoutes.Get("/:id", h.HandleGetOrder)
	orderRoutes.Get("/:id/history", h.HandleHistory)
	orderRoutes.Post("/", customerOnly, h.HandlePlaceOrder)
	orderRoutes.Post("/:id/cancel", customerOnly, h.HandleCancelOrder)
	orderRoutes.Post("/:id/reviews", customerOnly, h.HandleAddReview)
	orderRoutes.Post("/:id/assign", restaurantOnly, h.HandleAssign)
	orderRoutes.Patch("/:id/status", restaurantOnly, h.HandleUpdateStatus)
}

// HandleFetchOrders lists the orders of the caller, optionally narrowed by ?status=.
func (h *OrderHandler) HandleFetchOrders(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	orders, err := h.service.FetchOrders(c.UserContext(), p, c.Query("status"))
	if err != nil {
		return err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return c.JSON(orders)
}

// HandleGetOrder retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrder(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	order, err := h.service.GetOrder(c.UserContext(), p, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(order)
}

func (h *OrderHandler) HandleHistory(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	history, err := h.service.History(c.UserContext(), p, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(history)
}

type PlaceOrderRequest struct {
	DeliveryAddress string `json:"deliveryAddress"`
}

// HandlePlaceOrder checks out the cart of the caller.
func (h *OrderHandler) HandlePlaceOrder(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	var req PlaceOrderRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing request body: %v", err)
		return apperrors.Validation("Invalid request body")
	}
	order, err := h.service.PlaceOrder(c.UserContext(), p, req.DeliveryAddress)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	order, err := h.service.CancelOrder(c.UserContext(), p, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(order)
}

type ReviewRequest struct {
	Reviews []services.ReviewInput `json:"reviews"`
}

func (h *OrderHandler) HandleAddReview(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing review request body: %v", err)
		return apperrors.Validation("Invalid request body")
	}
	reviews, err := h.reviews.AddReview(c.UserContext(), p, c.Params("id"), req.Reviews)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(reviews)
}

type AssignRequest struct {
	DeliveryPerson string `json:"deliveryPerson"`
}

func (h *OrderHandler) HandleAssign(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	var req AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Validation("Invalid request body")
	}
	order, err := h.service.AssignDeliveryPerson(c.UserContext(), p, c.Params("id"), req.DeliveryPerson)
	if err != nil {
		return err
	}
	return c.JSON(order)
}

// UpdateStatusRequest is the body of PATCH /orders/:id/status. DeliveryTime
// is only read for DELIVERED.
type UpdateStatusRequest struct {
	Status       string     `json:"status"`
	DeliveryTime *time.Time `json:"deliveryTime"`
}

// HandleUpdateStatus updates the status of an existing order.
func (h *OrderHandler) HandleUpdateStatus(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing request body for status update: %v", err)
		return apperrors.Validation("Invalid request body for status update")
	}
	if req.Status == "" {
		return apperrors.Validation("status is required")
	}

	status := models.OrderStatus(strings.ToUpper(req.Status))
	order, err := h.service.UpdateDeliveryStatus(c.UserContext(), p, c.Params("id"), status, req.DeliveryTime)
	if err != nil {
		return err
	}
	return c.JSON(order)
}
