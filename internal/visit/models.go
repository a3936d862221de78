package visit

import "time"

// Visit is a review of an attraction the traveller actually went to.
type Visit struct {
	ID           string    `json:"id"`
	AttractionID string    `json:"attraction_id"`
	UserID       string    `json:"user_id"`
	Rating       int       `json:"rating"`
	Images       string    `json:"images"`
	Moment       string    `json:"moment"`
	ActualCost   float64   `json:"actual_cost"`
	ReviewedAt   time.Time `json:"reviewed_at"`
}
