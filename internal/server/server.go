package server

import (
	"github.com/EleniCharitou/planner/internal/attraction"
	"github.com/EleniCharitou/planner/internal/auth"
	"github.com/EleniCharitou/planner/internal/column"
	"github.com/EleniCharitou/planner/internal/config"
	"github.com/EleniCharitou/planner/internal/post"
	"github.com/EleniCharitou/planner/internal/storage"
	"github.com/EleniCharitou/planner/internal/stream"
	"github.com/EleniCharitou/planner/internal/trip"
	"github.com/EleniCharitou/planner/internal/visit"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	attractionSvc := attraction.NewService(s.DB, s.Stream, s.Redis, s.Cfg.MoveRetryLimit)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB))

	trips := s.App.Group("/trips")
	trip.RegisterRoutes(trips, trip.NewService(s.DB), jwtMiddleware)
	attraction.RegisterBoardRoute(trips, attractionSvc)

	column.RegisterRoutes(s.App.Group("/columns"), column.NewService(s.DB), jwtMiddleware)

	attractions := s.App.Group("/attractions")
	attraction.RegisterRoutes(attractions, attractionSvc, jwtMiddleware)
	visit.RegisterRoutes(attractions, visit.NewService(s.DB), jwtMiddleware)

	post.RegisterRoutes(s.App.Group("/posts"), post.NewService(s.DB), jwtMiddleware)
	storage.RegisterRoutes(s.App.Group("/storage"), storage.NewService(s.DB), jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
