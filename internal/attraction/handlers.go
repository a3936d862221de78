package attraction

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			Attraction
			Position *int `json:"position"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.ColumnID == "" || req.Title == "" {
			return fiber.NewError(fiber.StatusBadRequest, "column_id and title required")
		}
		if req.Cost < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "cost cannot be negative")
		}
		card, err := svc.CreateAttraction(c.Context(), req.Attraction, req.Position)
		if err != nil {
			return mapError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(card)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		card, err := svc.GetAttraction(c.Context(), c.Params("id"))
		if err != nil {
			return mapError(err)
		}
		return c.JSON(card)
	})

	r.Put("/:id/move", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			ColumnID string `json:"column_id"`
			Position int    `json:"position"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if body.ColumnID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "column_id required")
		}
		card, err := svc.MoveAttraction(c.Context(), c.Params("id"), body.ColumnID, body.Position)
		if err != nil {
			return mapError(err)
		}
		return c.JSON(card)
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		var req Attraction
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Cost < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "cost cannot be negative")
		}
		card, err := svc.UpdateAttraction(c.Context(), c.Params("id"), req)
		if err != nil {
			return mapError(err)
		}
		return c.JSON(card)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.DeleteAttraction(c.Context(), c.Params("id")); err != nil {
			return mapError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// RegisterBoardRoute mounts the grouped board view under the trips
// resource.
func RegisterBoardRoute(r fiber.Router, svc *Service) {
	r.Get("/:id/board", func(c *fiber.Ctx) error {
		board, err := svc.GetBoard(c.Context(), c.Params("id"))
		if err != nil {
			return mapError(err)
		}
		if board == nil {
			board = []ColumnGroup{}
		}
		return c.JSON(board)
	})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidPosition):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
