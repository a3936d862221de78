package column

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req Column
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.TripID == "" || req.Title == "" {
			return fiber.NewError(fiber.StatusBadRequest, "trip_id and title required")
		}
		col, err := svc.CreateColumn(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(col)
	})

	r.Get("/trip/:tripID", func(c *fiber.Ctx) error {
		cols, err := svc.ListByTrip(c.Context(), c.Params("tripID"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(cols)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		col, err := svc.GetColumn(c.Context(), c.Params("id"))
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "column not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(col)
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Title string `json:"title"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		col, err := svc.UpdateColumn(c.Context(), c.Params("id"), body.Title)
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "column not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(col)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		err := svc.DeleteColumn(c.Context(), c.Params("id"))
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "column not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
