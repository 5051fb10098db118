package handlers

import (
	"foodorder/internal/middleware"
	"foodorder/internal/models"
	"foodorder/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AddressHandler handles HTTP requests for the address book of a customer.
type AddressHandler struct {
	addresses *services.AddressService
	validate  *validator.Validate
}

func NewAddressHandler(addresses *services.AddressService) *AddressHandler {
	return &AddressHandler{addresses: addresses, validate: services.NewValidator()}
}

func (h *AddressHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	addressRoutes := router.Group("/addresses", authRequired, middleware.RoleRequired(models.RoleCustomer))
	addressRoutes.Get("/", h.HandleList)
	addressRoutes.Post("/", h.HandleAdd)
	addressRoutes.Delete("/:id", h.HandleDelete)
}

func (h *AddressHandler) HandleList(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	addresses, err := h.addresses.ListAddresses(c.UserContext(), p)
	if err != nil {
		return err
	}
	if addresses == nil {
		addresses = []models.CustomerAddress{}
	}
	return c.JSON(addresses)
}

type AddressRequest struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address" validate:"required"`
}

func (h *AddressHandler) HandleAdd(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	var req AddressRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	saved, err := h.addresses.AddAddress(c.UserContext(), p, req.Name, req.Address)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(saved)
}

func (h *AddressHandler) HandleDelete(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	if err := h.addresses.DeleteAddress(c.UserContext(), p, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
