package post

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req Post
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		req.AuthorID, _ = c.Locals("user_id").(string)
		if req.Title == "" || req.Content == "" || req.AuthorID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "title and content required")
		}
		p, err := svc.CreatePost(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	})

	r.Get("/recent", func(c *fiber.Ctx) error {
		posts, err := svc.Recent(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if posts == nil {
			posts = []Post{}
		}
		return c.JSON(posts)
	})

	r.Get("/:slug", func(c *fiber.Ctx) error {
		p, err := svc.GetBySlug(c.Context(), c.Params("slug"))
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "post not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(p)
	})

	r.Delete("/:slug", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.DeletePost(c.Context(), c.Params("slug")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
