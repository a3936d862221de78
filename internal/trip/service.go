package trip

import (
	"context"
	"errors"
	"time"

	"github.com/EleniCharitou/planner/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrDateRange = errors.New("start date must not be after end date")

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) CreateTrip(ctx context.Context, input Trip) (Trip, error) {
	if err := validateRange(input.StartDate, input.EndDate); err != nil {
		return Trip{}, err
	}

	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO trips (id, destination, trip_members, start_date, end_date, is_public, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, input.ID, input.Destination, input.Members, timePtr(input.StartDate), timePtr(input.EndDate), input.IsPublic, input.CreatedBy)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Trip{}, err
	}
	return input, nil
}

func (s *Service) UpdateTrip(ctx context.Context, id string, patch Trip) (Trip, error) {
	trip, err := s.GetTrip(ctx, id)
	if err != nil {
		return Trip{}, err
	}
	if patch.Destination != "" {
		trip.Destination = patch.Destination
	}
	if patch.Members != "" {
		trip.Members = patch.Members
	}
	if !patch.StartDate.IsZero() {
		trip.StartDate = patch.StartDate
	}
	if !patch.EndDate.IsZero() {
		trip.EndDate = patch.EndDate
	}
	trip.IsPublic = patch.IsPublic

	if err := validateRange(trip.StartDate, trip.EndDate); err != nil {
		return Trip{}, err
	}

	_, err = s.db.Exec(ctx, `
		UPDATE trips
		SET destination=$2, trip_members=$3, start_date=$4, end_date=$5, is_public=$6
		WHERE id=$1
	`, trip.ID, trip.Destination, trip.Members, timePtr(trip.StartDate), timePtr(trip.EndDate), trip.IsPublic)
	if err != nil {
		return Trip{}, err
	}
	return trip, nil
}

func (s *Service) GetTrip(ctx context.Context, id string) (Trip, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, destination, trip_members, start_date, end_date, is_public, created_by, created_at
		FROM trips WHERE id=$1
	`, id)
	return scanTrip(row)
}

func (s *Service) ListTrips(ctx context.Context, userID string) ([]Trip, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, destination, trip_members, start_date, end_date, is_public, created_by, created_at
		FROM trips
		WHERE created_by=$1 OR is_public
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}

// DeleteTrip relies on the FK cascade: columns and their attractions go
// with the trip.
func (s *Service) DeleteTrip(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM trips WHERE id=$1`, id)
	return err
}

// scanTrip tolerates NULL dates: open-ended trips store no range.
func scanTrip(row pgx.Row) (Trip, error) {
	var trip Trip
	var start, end *time.Time
	if err := row.Scan(&trip.ID, &trip.Destination, &trip.Members, &start, &end, &trip.IsPublic, &trip.CreatedBy, &trip.CreatedAt); err != nil {
		return Trip{}, err
	}
	if start != nil {
		trip.StartDate = *start
	}
	if end != nil {
		trip.EndDate = *end
	}
	return trip, nil
}

func validateRange(start, end time.Time) error {
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return ErrDateRange
	}
	return nil
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
