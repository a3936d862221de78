package trip

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req Trip
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		req.CreatedBy, _ = c.Locals("user_id").(string)
		if req.Destination == "" || req.CreatedBy == "" {
			return fiber.NewError(fiber.StatusBadRequest, "destination required")
		}
		trip, err := svc.CreateTrip(c.Context(), req)
		if errors.Is(err, ErrDateRange) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(trip)
	})

	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		trips, err := svc.ListTrips(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(trips)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		trip, err := svc.GetTrip(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "trip not found")
		}
		return c.JSON(trip)
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		var req Trip
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		trip, err := svc.UpdateTrip(c.Context(), c.Params("id"), req)
		if errors.Is(err, ErrDateRange) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(trip)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.DeleteTrip(c.Context(), c.Params("id")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
