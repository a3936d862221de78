package visit

import (
	"context"
	"errors"

	"github.com/EleniCharitou/planner/internal/db"

	"github.com/google/uuid"
)

var (
	ErrRating = errors.New("rating must be between 0 and 5")
	ErrCost   = errors.New("actual cost cannot be negative")
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// AddVisit records a review; a second review by the same user replaces
// the first.
func (s *Service) AddVisit(ctx context.Context, input Visit) (Visit, error) {
	if input.Rating < 0 || input.Rating > 5 {
		return Visit{}, ErrRating
	}
	if input.ActualCost < 0 {
		return Visit{}, ErrCost
	}

	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO visited_attractions (id, attraction_id, user_id, rating, images, moment, actual_cost)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (attraction_id, user_id) DO UPDATE
		SET rating=EXCLUDED.rating, images=EXCLUDED.images, moment=EXCLUDED.moment, actual_cost=EXCLUDED.actual_cost, reviewed_at=NOW()
		RETURNING reviewed_at
	`, input.ID, input.AttractionID, input.UserID, input.Rating, input.Images, input.Moment, input.ActualCost)
	if err := row.Scan(&input.ReviewedAt); err != nil {
		return Visit{}, err
	}
	return input, nil
}

func (s *Service) Visits(ctx context.Context, attractionID string) ([]Visit, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, attraction_id, user_id, rating, images, moment, actual_cost, reviewed_at
		FROM visited_attractions WHERE attraction_id=$1
		ORDER BY reviewed_at DESC
	`, attractionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		var v Visit
		if err := rows.Scan(&v.ID, &v.AttractionID, &v.UserID, &v.Rating, &v.Images, &v.Moment, &v.ActualCost, &v.ReviewedAt); err != nil {
			return nil, err
		}
		visits = append(visits, v)
	}
	return visits, nil
}
