package attraction

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sort"
	"time"

	"github.com/EleniCharitou/planner/internal/db"
	"github.com/EleniCharitou/planner/internal/ordering"
	"github.com/EleniCharitou/planner/internal/stream"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
)

var (
	ErrNotFound        = errors.New("attraction or column not found")
	ErrInvalidPosition = ordering.ErrInvalidPosition
	// ErrConflict surfaces once retries for serialization failures
	// are exhausted.
	ErrConflict = errors.New("concurrent move conflict, try again")

	// errStaleCard: the card left the locked columns between the first
	// read and the locks; the unit must restart against fresh state.
	errStaleCard = errors.New("card moved while acquiring locks")
)

const boardCacheTTL = 30 * time.Second

// Service coordinates card lifecycle operations. Every mutation is one
// transaction: lock the affected column rows, read the card and sibling
// snapshot under those locks, let the ordering engine plan the shifts,
// write the plan, commit. Siblings are never re-queried mid-operation
// and no position is cached across requests.
type Service struct {
	db         db.TxStarter
	hub        *stream.Hub
	cache      *redis.Client
	retryLimit int
}

func NewService(db db.TxStarter, hub *stream.Hub, cache *redis.Client, retryLimit int) *Service {
	if retryLimit < 1 {
		retryLimit = 1
	}
	return &Service{db: db, hub: hub, cache: cache, retryLimit: retryLimit}
}

// CreateAttraction inserts a card. A nil position means append: the
// column is locked, current positions are read and the engine picks
// max+1. An explicit position is persisted as given after a sign check.
func (s *Service) CreateAttraction(ctx context.Context, input Attraction, position *int) (Attraction, error) {
	if position != nil && *position < 0 {
		return Attraction{}, ErrInvalidPosition
	}

	input.ID = uuid.NewString()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Attraction{}, err
	}
	defer tx.Rollback(ctx)

	tripID, err := lockColumn(ctx, tx, input.ColumnID)
	if err != nil {
		return Attraction{}, err
	}

	if position != nil {
		input.Position = *position
	} else {
		siblings, err := columnSiblings(ctx, tx, input.ColumnID, "")
		if err != nil {
			return Attraction{}, err
		}
		var existing []int
		for _, sib := range siblings {
			existing = append(existing, sib.Position)
		}
		input.Position = ordering.AssignInitialPosition(existing)
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO attractions (id, column_id, title, location, category, map_url, ticket_url, cost, visited, position)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at
	`, input.ID, input.ColumnID, input.Title, input.Location, input.Category, input.MapURL, input.TicketURL, input.Cost, input.Visited, input.Position)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Attraction{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Attraction{}, err
	}

	s.boardChanged(ctx, "card_created", input.ID, tripID)
	return input, nil
}

// MoveAttraction moves a card to targetColumnID at targetPos. Negative
// targets are rejected before any transaction; targets beyond the end
// of the destination are clamped to the last slot. The whole
// read-plan-write unit retries on serialization failures.
func (s *Service) MoveAttraction(ctx context.Context, id, targetColumnID string, targetPos int) (Attraction, error) {
	if targetPos < 0 {
		return Attraction{}, ErrInvalidPosition
	}

	var moved Attraction
	var tripIDs []string
	for attempt := 0; ; attempt++ {
		var err error
		moved, tripIDs, err = s.moveOnce(ctx, id, targetColumnID, targetPos)
		if err == nil {
			break
		}
		if retryable(err) && attempt+1 < s.retryLimit {
			continue
		}
		if retryable(err) {
			return Attraction{}, ErrConflict
		}
		return Attraction{}, err
	}

	s.boardChanged(ctx, "card_moved", id, tripIDs...)
	return moved, nil
}

func (s *Service) moveOnce(ctx context.Context, id, targetColumnID string, targetPos int) (Attraction, []string, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Attraction{}, nil, err
	}
	defer tx.Rollback(ctx)

	card, err := loadCard(ctx, tx, id)
	if err != nil {
		return Attraction{}, nil, err
	}

	tripIDs, err := lockColumns(ctx, tx, card.ColumnID, targetColumnID)
	if err != nil {
		return Attraction{}, nil, err
	}

	// The first read ran before the locks; a concurrent move can commit
	// in between. Plan only from state read under the locks, and restart
	// the unit when the card escaped the locked columns.
	fresh, err := loadCard(ctx, tx, id)
	if err != nil {
		return Attraction{}, nil, err
	}
	if fresh.ColumnID != card.ColumnID {
		return Attraction{}, nil, errStaleCard
	}
	card = fresh

	if targetColumnID == card.ColumnID {
		err = s.moveWithinColumn(ctx, tx, &card, targetPos)
	} else {
		err = s.moveAcrossColumns(ctx, tx, &card, targetColumnID, targetPos)
	}
	if err != nil {
		return Attraction{}, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Attraction{}, nil, err
	}
	return card, tripIDs, nil
}

func (s *Service) moveWithinColumn(ctx context.Context, tx pgx.Tx, card *Attraction, targetPos int) error {
	siblings, err := columnSiblings(ctx, tx, card.ColumnID, card.ID)
	if err != nil {
		return err
	}
	// Last occupied slot is N-1 with the mover counted back in.
	if targetPos > len(siblings) {
		targetPos = len(siblings)
	}

	plan, err := ordering.PlanSameColumnMove(card.Position, targetPos, siblings)
	if err != nil {
		return err
	}
	if err := applyPlan(ctx, tx, plan); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `UPDATE attractions SET position=$2 WHERE id=$1`, card.ID, targetPos); err != nil {
		return err
	}
	card.Position = targetPos
	return nil
}

func (s *Service) moveAcrossColumns(ctx context.Context, tx pgx.Tx, card *Attraction, targetColumnID string, targetPos int) error {
	targetSiblings, err := columnSiblings(ctx, tx, targetColumnID, "")
	if err != nil {
		return err
	}
	if targetPos > len(targetSiblings) {
		targetPos = len(targetSiblings)
	}

	plan, err := ordering.PlanCrossColumnMove(targetPos, targetSiblings)
	if err != nil {
		return err
	}
	if err := applyPlan(ctx, tx, plan); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `UPDATE attractions SET column_id=$2, position=$3 WHERE id=$1`, card.ID, targetColumnID, targetPos); err != nil {
		return err
	}

	// Repair the gap the card left behind.
	sourceSiblings, err := columnSiblings(ctx, tx, card.ColumnID, card.ID)
	if err != nil {
		return err
	}
	if err := applyPlan(ctx, tx, ordering.CompactAfterRemoval(sourceSiblings)); err != nil {
		return err
	}

	card.ColumnID = targetColumnID
	card.Position = targetPos
	return nil
}

// DeleteAttraction removes a card and compacts its former column in the
// same transaction. Like moves, the unit restarts when a concurrent
// writer invalidates the pre-lock read.
func (s *Service) DeleteAttraction(ctx context.Context, id string) error {
	var tripID string
	for attempt := 0; ; attempt++ {
		var err error
		tripID, err = s.deleteOnce(ctx, id)
		if err == nil {
			break
		}
		if retryable(err) && attempt+1 < s.retryLimit {
			continue
		}
		if retryable(err) {
			return ErrConflict
		}
		return err
	}

	s.boardChanged(ctx, "card_deleted", id, tripID)
	return nil
}

func (s *Service) deleteOnce(ctx context.Context, id string) (string, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	card, err := loadCard(ctx, tx, id)
	if err != nil {
		return "", err
	}
	tripID, err := lockColumn(ctx, tx, card.ColumnID)
	if err != nil {
		return "", err
	}

	// compaction must hit the column the card really sits in, not the
	// one a pre-lock read saw
	fresh, err := loadCard(ctx, tx, id)
	if err != nil {
		return "", err
	}
	if fresh.ColumnID != card.ColumnID {
		return "", errStaleCard
	}
	card = fresh

	if _, err := tx.Exec(ctx, `DELETE FROM attractions WHERE id=$1`, id); err != nil {
		return "", err
	}

	siblings, err := columnSiblings(ctx, tx, card.ColumnID, id)
	if err != nil {
		return "", err
	}
	if err := applyPlan(ctx, tx, ordering.CompactAfterRemoval(siblings)); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return tripID, nil
}

// UpdateAttraction patches card attributes. Position and column are
// owned by MoveAttraction and never touched here.
func (s *Service) UpdateAttraction(ctx context.Context, id string, patch Attraction) (Attraction, error) {
	card, err := s.GetAttraction(ctx, id)
	if err != nil {
		return Attraction{}, err
	}
	if patch.Title != "" {
		card.Title = patch.Title
	}
	if patch.Location != "" {
		card.Location = patch.Location
	}
	if patch.Category != "" {
		card.Category = patch.Category
	}
	if patch.MapURL != "" {
		card.MapURL = patch.MapURL
	}
	if patch.TicketURL != "" {
		card.TicketURL = patch.TicketURL
	}
	if patch.Cost != 0 {
		card.Cost = patch.Cost
	}
	if patch.Visited {
		card.Visited = true
	}

	_, err = s.db.Exec(ctx, `
		UPDATE attractions
		SET title=$2, location=$3, category=$4, map_url=$5, ticket_url=$6, cost=$7, visited=$8
		WHERE id=$1
	`, card.ID, card.Title, card.Location, card.Category, card.MapURL, card.TicketURL, card.Cost, card.Visited)
	if err != nil {
		return Attraction{}, err
	}
	return card, nil
}

func (s *Service) GetAttraction(ctx context.Context, id string) (Attraction, error) {
	return scanCard(s.db.QueryRow(ctx, `
		SELECT id, column_id, title, location, category, map_url, ticket_url, cost, visited, position, created_at
		FROM attractions WHERE id=$1
	`, id))
}

// GetBoard assembles the nested board view: the trip's columns by
// position, each carrying its cards by position. A single consistent
// read, cached briefly in redis when one is configured.
func (s *Service) GetBoard(ctx context.Context, tripID string) ([]ColumnGroup, error) {
	if cached, ok := s.cachedBoard(ctx, tripID); ok {
		return cached, nil
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, title, position FROM columns WHERE trip_id=$1
		ORDER BY position, id
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var board []ColumnGroup
	for rows.Next() {
		group := ColumnGroup{Attractions: []Attraction{}}
		if err := rows.Scan(&group.ColumnID, &group.Title, &group.Position); err != nil {
			return nil, err
		}
		board = append(board, group)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cards, err := s.tripCards(ctx, tripID)
	if err != nil {
		return nil, err
	}
	for i := range board {
		if grouped, ok := cards[board[i].ColumnID]; ok {
			board[i].Attractions = grouped
		}
	}

	s.cacheBoard(ctx, tripID, board)
	return board, nil
}

func (s *Service) tripCards(ctx context.Context, tripID string) (map[string][]Attraction, error) {
	rows, err := s.db.Query(ctx, `
		SELECT a.id, a.column_id, a.title, a.location, a.category, a.map_url, a.ticket_url, a.cost, a.visited, a.position, a.created_at
		FROM attractions a
		JOIN columns c ON c.id = a.column_id
		WHERE c.trip_id=$1
		ORDER BY a.position, a.id
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	grouped := map[string][]Attraction{}
	for rows.Next() {
		var card Attraction
		if err := rows.Scan(&card.ID, &card.ColumnID, &card.Title, &card.Location, &card.Category, &card.MapURL, &card.TicketURL, &card.Cost, &card.Visited, &card.Position, &card.CreatedAt); err != nil {
			return nil, err
		}
		grouped[card.ColumnID] = append(grouped[card.ColumnID], card)
	}
	for colID := range grouped {
		cards := grouped[colID]
		sort.SliceStable(cards, func(i, j int) bool {
			if cards[i].Position != cards[j].Position {
				return cards[i].Position < cards[j].Position
			}
			return cards[i].ID < cards[j].ID
		})
		grouped[colID] = cards
	}
	return grouped, rows.Err()
}

func (s *Service) cachedBoard(ctx context.Context, tripID string) ([]ColumnGroup, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, boardCacheKey(tripID)).Bytes()
	if err != nil {
		return nil, false
	}
	var board []ColumnGroup
	if err := json.Unmarshal(raw, &board); err != nil {
		return nil, false
	}
	return board, true
}

func (s *Service) cacheBoard(ctx context.Context, tripID string, board []ColumnGroup) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(board)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, boardCacheKey(tripID), raw, boardCacheTTL).Err(); err != nil {
		log.Printf("board cache set error: %v", err)
	}
}

// boardChanged drops stale caches and notifies open boards after a
// commit.
func (s *Service) boardChanged(ctx context.Context, kind, cardID string, tripIDs ...string) {
	for _, tripID := range tripIDs {
		if tripID == "" {
			continue
		}
		if s.cache != nil {
			if err := s.cache.Del(ctx, boardCacheKey(tripID)).Err(); err != nil {
				log.Printf("board cache invalidate error: %v", err)
			}
		}
		if s.hub != nil {
			payload, _ := json.Marshal(map[string]string{
				"type":          kind,
				"attraction_id": cardID,
				"trip_id":       tripID,
			})
			s.hub.Broadcast(tripID, payload)
		}
	}
}

func boardCacheKey(tripID string) string {
	return "board:" + tripID
}

func loadCard(ctx context.Context, tx pgx.Tx, id string) (Attraction, error) {
	card, err := scanCard(tx.QueryRow(ctx, `
		SELECT id, column_id, title, location, category, map_url, ticket_url, cost, visited, position, created_at
		FROM attractions WHERE id=$1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Attraction{}, ErrNotFound
	}
	return card, err
}

func scanCard(row pgx.Row) (Attraction, error) {
	var card Attraction
	err := row.Scan(&card.ID, &card.ColumnID, &card.Title, &card.Location, &card.Category, &card.MapURL, &card.TicketURL, &card.Cost, &card.Visited, &card.Position, &card.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Attraction{}, ErrNotFound
	}
	return card, err
}

// lockColumn takes the parent column's row lock, the serialization
// point for all card mutations on that column, and returns its trip id.
func lockColumn(ctx context.Context, tx pgx.Tx, columnID string) (string, error) {
	var tripID string
	err := tx.QueryRow(ctx, `
		SELECT trip_id FROM columns WHERE id=$1 FOR UPDATE
	`, columnID).Scan(&tripID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return tripID, err
}

// lockColumns locks one or both parent columns in ascending id order so
// two opposite-direction cross-column moves can never deadlock.
func lockColumns(ctx context.Context, tx pgx.Tx, columnIDs ...string) ([]string, error) {
	ids := uniqueSorted(columnIDs)
	rows, err := tx.Query(ctx, `
		SELECT id, trip_id FROM columns WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	locked := map[string]bool{}
	var tripIDs []string
	seenTrip := map[string]bool{}
	for rows.Next() {
		var id, tripID string
		if err := rows.Scan(&id, &tripID); err != nil {
			return nil, err
		}
		locked[id] = true
		if !seenTrip[tripID] {
			seenTrip[tripID] = true
			tripIDs = append(tripIDs, tripID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, id := range ids {
		if !locked[id] {
			return nil, ErrNotFound
		}
	}
	return tripIDs, nil
}

// columnSiblings reads the column's card snapshot inside the caller's
// transaction, optionally excluding the moving card.
func columnSiblings(ctx context.Context, tx pgx.Tx, columnID, excludeID string) ([]ordering.Entry, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, position FROM attractions
		WHERE column_id=$1 AND id <> $2
		ORDER BY position, id
	`, columnID, excludeID)
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

// applyPlan writes the engine's deltas in id order so the statement
// sequence is deterministic.
func applyPlan(ctx context.Context, tx pgx.Tx, plan map[string]int) error {
	ids := make([]string, 0, len(plan))
	for id := range plan {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if _, err := tx.Exec(ctx, `UPDATE attractions SET position=$2 WHERE id=$1`, id, plan[id]); err != nil {
			return err
		}
	}
	return nil
}

func retryable(err error) bool {
	if errors.Is(err, errStaleCard) {
		return true
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// serialization_failure and deadlock_detected
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

func uniqueSorted(ids []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
