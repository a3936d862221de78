package post

import (
	"context"
	"errors"
	"strings"

	"github.com/EleniCharitou/planner/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("post not found")

const recentLimit = 6

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) CreatePost(ctx context.Context, input Post) (Post, error) {
	input.ID = uuid.NewString()
	input.Slug = slugify(input.Title)

	taken, err := s.slugTaken(ctx, input.Slug)
	if err != nil {
		return Post{}, err
	}
	if taken {
		input.Slug = input.Slug + "-" + input.ID[:8]
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO posts (id, author_id, title, content, slug, picture_url)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at
	`, input.ID, input.AuthorID, input.Title, input.Content, input.Slug, input.PictureURL)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Post{}, err
	}
	return input, nil
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (Post, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, author_id, title, content, slug, picture_url, created_at
		FROM posts WHERE slug=$1
	`, slug)
	var p Post
	if err := row.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Content, &p.Slug, &p.PictureURL, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Post{}, ErrNotFound
		}
		return Post{}, err
	}
	return p, nil
}

func (s *Service) Recent(ctx context.Context) ([]Post, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, author_id, title, content, slug, picture_url, created_at
		FROM posts
		ORDER BY created_at DESC
		LIMIT $1
	`, recentLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Content, &p.Slug, &p.PictureURL, &p.CreatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func (s *Service) DeletePost(ctx context.Context, slug string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM posts WHERE slug=$1`, slug)
	return err
}

func (s *Service) slugTaken(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE slug=$1)`, slug).Scan(&exists)
	return exists, err
}

func slugify(title string) string {
	lowered := strings.ToLower(strings.TrimSpace(title))
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, lowered)
	for strings.Contains(mapped, "--") {
		mapped = strings.ReplaceAll(mapped, "--", "-")
	}
	return strings.Trim(mapped, "-")
}
