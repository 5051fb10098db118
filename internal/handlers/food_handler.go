package handlers

import (
	"foodorder/internal/apperrors"
	"foodorder/internal/middleware"
	"foodorder/internal/models"
	"foodorder/internal/services"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// FoodHandler handles HTTP requests for the food catalog.
type FoodHandler struct {
	foods   *services.FoodService
	reviews *services.ReviewService
}

// NewFoodHandler creates a new FoodHandler.
func NewFoodHandler(foods *services.FoodService, reviews *services.ReviewService) *FoodHandler {
	return &FoodHandler{foods: foods, reviews: reviews}
}

// RegisterRoutes registers the food routes with the Fiber app.
func (h *FoodHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	foodRoutes := router.Group("/foods")
	foodRoutes.Get("/:id", h.HandleGetFood)
	foodRoutes.Get("/:id/reviews", h.HandleListReviews)

	restaurantOnly := middleware.RoleRequired(models.RoleRestaurant)
	foodRoutes.Post("/", authRequired, restaurantOnly, h.HandleCreateFood)
	foodRoutes.Put("/:id", authRequired, restaurantOnly, h.HandleUpdateFood)
	foodRoutes.Delete("/:id", authRequired, restaurantOnly, h.HandleDeleteFood)
}

func (h *FoodHandler) HandleGetFood(c *fiber.Ctx) error {
	food, err := h.foods.GetFood(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(food)
}

// HandleListReviews returns the reviews of a food item, newest first.
func (h *FoodHandler) HandleListReviews(c *fiber.Ctx) error {
	reviews, err := h.reviews.ListFoodReviews(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(reviews)
}

func (h *FoodHandler) parseInput(c *fiber.Ctx) (services.FoodInput, error) {
	var input services.FoodInput
	if err := c.BodyParser(&input); err != nil {
		log.Printf("Error parsing food request body: %v", err)
		return input, apperrors.Validation("Invalid request body")
	}
	return input, nil
}

func (h *FoodHandler) HandleCreateFood(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	input, err := h.parseInput(c)
	if err != nil {
		return err
	}
	food, err := h.foods.CreateFood(c.UserContext(), p, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(food)
}

func (h *FoodHandler) HandleUpdateFood(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	input, err := h.parseInput(c)
	if err != nil {
		return err
	}
	food, err := h.foods.UpdateFood(c.UserContext(), p, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(food)
}

func (h *FoodHandler) HandleDeleteFood(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	if err := h.foods.DeleteFood(c.UserContext(), p, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
