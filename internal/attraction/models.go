package attraction

import "time"

type Attraction struct {
	ID        string    `json:"id"`
	ColumnID  string    `json:"column_id"`
	Title     string    `json:"title"`
	Location  string    `json:"location"`
	Category  string    `json:"category"`
	MapURL    string    `json:"map_url"`
	TicketURL string    `json:"ticket_url"`
	Cost      float64   `json:"cost"`
	Visited   bool      `json:"visited"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// ColumnGroup is one column of the assembled board view: the column's
// cards in position order, an empty slice when the column has none.
type ColumnGroup struct {
	ColumnID    string       `json:"column_id"`
	Title       string       `json:"title"`
	Position    int          `json:"position"`
	Attractions []Attraction `json:"attractions"`
}
