package visit

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

func asUser(id string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", id)
		return c.Next()
	}
}

func TestVisitHandlers(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	reviewedAt := time.Now()
	mock.ExpectQuery(`INSERT INTO visited_attractions`).
		WithArgs(pgxmock.AnyArg(), "att-1", "user-1", 5, "", "", 0.0).
		WillReturnRows(pgxmock.NewRows([]string{"reviewed_at"}).AddRow(reviewedAt))

	mock.ExpectQuery(`SELECT id, attraction_id, user_id, rating, images, moment, actual_cost, reviewed_at`).
		WithArgs("att-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "attraction_id", "user_id", "rating", "images", "moment", "actual_cost", "reviewed_at"}).
			AddRow("v-1", "att-1", "user-1", 5, "", "", 0.0, reviewedAt))

	app := fiber.New()
	RegisterRoutes(app.Group("/attractions"), NewService(mock), asUser("user-1"))

	body, _ := json.Marshal(map[string]any{"rating": 5})
	req := httptest.NewRequest(http.MethodPost, "/attractions/att-1/visits", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("visit status: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/attractions/att-1/visits", nil)
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("list status: %v", err)
	}
	var visits []Visit
	if err := json.NewDecoder(resp.Body).Decode(&visits); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(visits) != 1 || visits[0].UserID != "user-1" {
		t.Fatalf("unexpected visits: %+v", visits)
	}
}

func TestVisitHandlersBadRating(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/attractions"), NewService(nil), asUser("user-1"))

	body, _ := json.Marshal(map[string]any{"rating": 9})
	req := httptest.NewRequest(http.MethodPost, "/attractions/att-1/visits", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request for rating out of range")
	}
}
