package visit

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts visit endpoints under the attractions resource.
func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/:id/visits", authMiddleware, func(c *fiber.Ctx) error {
		var req Visit
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		req.AttractionID = c.Params("id")
		req.UserID, _ = c.Locals("user_id").(string)
		if req.UserID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user required")
		}
		v, err := svc.AddVisit(c.Context(), req)
		if errors.Is(err, ErrRating) || errors.Is(err, ErrCost) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(v)
	})

	r.Get("/:id/visits", func(c *fiber.Ctx) error {
		visits, err := svc.Visits(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(visits)
	})
}
