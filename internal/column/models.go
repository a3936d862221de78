package column

import "time"

type Column struct {
	ID        string    `json:"id"`
	TripID    string    `json:"trip_id"`
	Title     string    `json:"title"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}
