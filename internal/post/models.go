package post

import "time"

type Post struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Slug       string    `json:"slug"`
	PictureURL string    `json:"picture,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
