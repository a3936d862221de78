package trip

import "time"

type Trip struct {
	ID          string    `json:"id"`
	Destination string    `json:"destination"`
	Members     string    `json:"trip_members"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	IsPublic    bool      `json:"is_public"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}
