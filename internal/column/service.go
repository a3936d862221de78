package column

import (
	"context"
	"errors"
	"sort"

	"github.com/EleniCharitou/planner/internal/db"
	"github.com/EleniCharitou/planner/internal/ordering"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("column not found")

// Service owns day columns. Column positions within a trip obey the same
// density invariant as card positions within a column, so create appends
// through the ordering engine and delete compacts the survivors, both
// under a trip-scoped lock.
type Service struct {
	db db.TxStarter
}

func NewService(db db.TxStarter) *Service {
	return &Service{db: db}
}

func (s *Service) CreateColumn(ctx context.Context, input Column) (Column, error) {
	input.ID = uuid.NewString()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Column{}, err
	}
	defer tx.Rollback(ctx)

	positions, err := lockedPositions(ctx, tx, input.TripID)
	if err != nil {
		return Column{}, err
	}
	input.Position = ordering.AssignInitialPosition(positions)

	row := tx.QueryRow(ctx, `
		INSERT INTO columns (id, trip_id, title, position)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, input.ID, input.TripID, input.Title, input.Position)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Column{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Column{}, err
	}
	return input, nil
}

func (s *Service) UpdateColumn(ctx context.Context, id, title string) (Column, error) {
	col, err := s.GetColumn(ctx, id)
	if err != nil {
		return Column{}, err
	}
	if title != "" {
		col.Title = title
	}

	_, err = s.db.Exec(ctx, `UPDATE columns SET title=$2 WHERE id=$1`, col.ID, col.Title)
	if err != nil {
		return Column{}, err
	}
	return col, nil
}

func (s *Service) GetColumn(ctx context.Context, id string) (Column, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, trip_id, title, position, created_at
		FROM columns WHERE id=$1
	`, id)
	var col Column
	if err := row.Scan(&col.ID, &col.TripID, &col.Title, &col.Position, &col.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Column{}, ErrNotFound
		}
		return Column{}, err
	}
	return col, nil
}

func (s *Service) ListByTrip(ctx context.Context, tripID string) ([]Column, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, trip_id, title, position, created_at
		FROM columns WHERE trip_id=$1
		ORDER BY position, id
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var col Column
		if err := rows.Scan(&col.ID, &col.TripID, &col.Title, &col.Position, &col.CreatedAt); err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

// DeleteColumn removes the column (attractions go with it via FK
// cascade) and renumbers the trip's remaining columns in the same
// transaction.
func (s *Service) DeleteColumn(ctx context.Context, id string) error {
	col, err := s.GetColumn(ctx, id)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := lockedPositions(ctx, tx, col.TripID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM columns WHERE id=$1`, id); err != nil {
		return err
	}

	siblings, err := remainingSiblings(ctx, tx, col.TripID)
	if err != nil {
		return err
	}
	plan := ordering.CompactAfterRemoval(siblings)
	ids := make([]string, 0, len(plan))
	for colID := range plan {
		ids = append(ids, colID)
	}
	sort.Strings(ids)
	for _, colID := range ids {
		if _, err := tx.Exec(ctx, `UPDATE columns SET position=$2 WHERE id=$1`, colID, plan[colID]); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func lockedPositions(ctx context.Context, tx pgx.Tx, tripID string) ([]int, error) {
	rows, err := tx.Query(ctx, `
		SELECT position FROM columns WHERE trip_id=$1
		ORDER BY position, id
		FOR UPDATE
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []int
	for rows.Next() {
		var pos int
		if err := rows.Scan(&pos); err != nil {
			return nil, err
		}
		positions = append(positions, pos)
	}
	return positions, rows.Err()
}

func remainingSiblings(ctx context.Context, tx pgx.Tx, tripID string) ([]ordering.Entry, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, position FROM columns WHERE trip_id=$1
		ORDER BY position, id
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var siblings []ordering.Entry
	for rows.Next() {
		var e ordering.Entry
		if err := rows.Scan(&e.ID, &e.Position); err != nil {
			return nil, err
		}
		siblings = append(siblings, e)
	}
	return siblings, rows.Err()
}
