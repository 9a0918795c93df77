package handlers

import (
	"fmt"
	"math"
	"net/http"
	"testing"

	"gamelog/models"

	"github.com/gin-gonic/gin"
)

func reviewCount(e *testEnv) int64 {
	var n int64
	e.db.Model(&models.Review{}).Count(&n)
	return n
}

func TestCreateReviewRequiresAuth(t *testing.T) {
	e := newTestEnv(t, 0)
	g := e.game("Doom")

	w := e.do(http.MethodPost, "/api/reviews", "", gin.H{"gameId": g.ID, "rating": 5, "text": "rip and tear"})
	expectStatus(t, w, http.StatusUnauthorized)
	if n := reviewCount(e); n != 0 {
		t.Errorf("%d reviews written", n)
	}
}

func TestCreateReviewValidation(t *testing.T) {
	e := newTestEnv(t, 0)
	token, _ := e.register("doomguy")
	g := e.game("Doom")

	cases := []struct {
		name  string
		body  interface{}
		field string
	}{
		{"missing game", gin.H{"rating": 4}, "gameId"},
		{"missing rating", gin.H{"gameId": g.ID}, "rating"},
		{"rating too high", gin.H{"gameId": g.ID, "rating": 6}, "rating"},
		{"rating too low", gin.H{"gameId": g.ID, "rating": -1}, "rating"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := e.do(http.MethodPost, "/api/reviews", token, tc.body)
			expectStatus(t, w, http.StatusBadRequest)
			var body struct {
				Errors map[string]string `json:"errors"`
			}
			decode(t, w, &body)
			if body.Errors[tc.field] == "" {
				t.Errorf("no error for %s: %s", tc.field, w.Body)
			}
		})
	}

	expectStatus(t, e.do(http.MethodPost, "/api/reviews", token, gin.H{"gameId": 777, "rating": 3}), http.StatusNotFound)
	expectStatus(t, e.do(http.MethodPost, "/api/reviews", token, `{"gameId": "x"`), http.StatusBadRequest)

	if n := reviewCount(e); n != 0 {
		t.Errorf("%d reviews written", n)
	}
}

func gameRating(t *testing.T, e *testEnv, id uint) (float64, int64) {
	t.Helper()
	var g models.Game
	decode(t, e.do(http.MethodGet, fmt.Sprintf("/api/games/%d", id), "", nil), &g)
	return g.Rating, g.RatingCount
}

func TestReviewWritesMaintainGameRating(t *testing.T) {
	e := newTestEnv(t, 0)
	alice, aliceID := e.register("alice")
	bob, _ := e.register("bob")
	g := e.game("Portal 2")

	w := e.do(http.MethodPost, "/api/reviews", alice, gin.H{"gameId": g.ID, "rating": 4, "text": "great"})
	expectStatus(t, w, http.StatusCreated)
	var first models.Review
	decode(t, w, &first)
	if first.UserID != aliceID || first.Rating != 4 {
		t.Fatalf("review = %+v", first)
	}
	expectStatus(t, e.do(http.MethodPost, "/api/reviews", bob, gin.H{"gameId": g.ID, "rating": 2}), http.StatusCreated)

	if rating, count := gameRating(t, e, g.ID); rating != 3 || count != 2 {
		t.Errorf("after creates: rating=%v count=%d", rating, count)
	}

	path := fmt.Sprintf("/api/reviews/%d", first.ID)
	w = e.do(http.MethodPut, path, alice, gin.H{"rating": 5})
	expectStatus(t, w, http.StatusOK)
	var updated models.Review
	decode(t, w, &updated)
	if updated.Rating != 5 || updated.Text != "great" {
		t.Errorf("updated = %+v", updated)
	}
	if rating, _ := gameRating(t, e, g.ID); math.Abs(rating-3.5) > 1e-9 {
		t.Errorf("after update: rating=%v", rating)
	}

	// only the author may touch a review
	expectStatus(t, e.do(http.MethodPut, path, bob, gin.H{"rating": 1}), http.StatusForbidden)
	expectStatus(t, e.do(http.MethodDelete, path, bob, nil), http.StatusForbidden)
	expectStatus(t, e.do(http.MethodPut, path, alice, gin.H{"rating": 9}), http.StatusBadRequest)

	expectStatus(t, e.do(http.MethodDelete, path, alice, nil), http.StatusNoContent)
	expectStatus(t, e.do(http.MethodDelete, path, alice, nil), http.StatusNotFound)
	if rating, count := gameRating(t, e, g.ID); rating != 2 || count != 1 {
		t.Errorf("after delete: rating=%v count=%d", rating, count)
	}
}

func TestGetReviewsFilters(t *testing.T) {
	e := newTestEnv(t, 0)
	alice, aliceID := e.register("alice")
	bob, _ := e.register("bob")
	g1, g2 := e.game("Tetris"), e.game("Pac-Man")

	e.do(http.MethodPost, "/api/reviews", alice, gin.H{"gameId": g1.ID, "rating": 5})
	e.do(http.MethodPost, "/api/reviews", alice, gin.H{"gameId": g2.ID, "rating": 3})
	e.do(http.MethodPost, "/api/reviews", bob, gin.H{"gameId": g1.ID, "rating": 1})

	var reviews []models.Review
	decode(t, e.do(http.MethodGet, "/api/reviews", "", nil), &reviews)
	if len(reviews) != 3 {
		t.Fatalf("all reviews = %d", len(reviews))
	}
	if reviews[0].ID < reviews[1].ID {
		t.Errorf("not newest first: %d before %d", reviews[0].ID, reviews[1].ID)
	}

	decode(t, e.do(http.MethodGet, fmt.Sprintf("/api/reviews?game=%d", g1.ID), "", nil), &reviews)
	if len(reviews) != 2 {
		t.Errorf("game filter = %d", len(reviews))
	}
	decode(t, e.do(http.MethodGet, fmt.Sprintf("/api/reviews?game=%d&user=%d", g1.ID, aliceID), "", nil), &reviews)
	if len(reviews) != 1 || reviews[0].Rating != 5 {
		t.Errorf("game+user filter = %+v", reviews)
	}
	expectStatus(t, e.do(http.MethodGet, "/api/reviews?game=abc", "", nil), http.StatusBadRequest)
}
