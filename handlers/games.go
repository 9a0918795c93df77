package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"gamelog/models"

	"github.com/gin-gonic/gin"
)

const (
	defaultGameLimit = 30
	maxGameLimit     = 100
)

// GetGames godoc
// @Summary      List games
// @Description  Lists catalog games, optionally filtered by a case-insensitive title substring.
// @Tags         games
// @Produce      json
// @Param        search query string false "Title substring"
// @Param        limit  query int    false "Max results (default 30, max 100)"
// @Success      200 {array} models.Game
// @Router       /games [get]
func (h *Handler) GetGames(c *gin.Context) {
	limit := parseLimit(c.Query("limit"))

	query := h.db.WithContext(c.Request.Context()).Order("id ASC").Limit(limit)
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		query = query.Where(`LOWER(title) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(search))+"%")
	}

	games := make([]models.Game, 0)
	if err := query.Find(&games).Error; err != nil {
		h.storeError(c, err, "game")
		return
	}
	c.JSON(http.StatusOK, games)
}

// GetGameByID godoc
// @Summary      Get a game
// @Tags         games
// @Produce      json
// @Param        id path int true "Game ID"
// @Success      200 {object} models.Game
// @Failure      404 {object} ErrorResponse
// @Router       /games/{id} [get]
func (h *Handler) GetGameByID(c *gin.Context) {
	id, ok := pathID(c, "id", "game")
	if !ok {
		return
	}

	var game models.Game
	if err := h.db.WithContext(c.Request.Context()).First(&game, id).Error; err != nil {
		h.storeError(c, err, "game")
		return
	}
	c.JSON(http.StatusOK, game)
}

// GetGameReviews godoc
// @Summary      Reviews of a game
// @Tags         games
// @Produce      json
// @Param        id path int true "Game ID"
// @Success      200 {array} models.Review
// @Failure      404 {object} ErrorResponse
// @Router       /games/{id}/reviews [get]
func (h *Handler) GetGameReviews(c *gin.Context) {
	id, ok := pathID(c, "id", "game")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var game models.Game
	if err := h.db.WithContext(ctx).Select("id").First(&game, id).Error; err != nil {
		h.storeError(c, err, "game")
		return
	}

	reviews := make([]models.Review, 0)
	err := h.db.WithContext(ctx).
		Where("game_id = ?", id).
		Order("created_at DESC, id DESC").
		Limit(maxReviewLimit).
		Find(&reviews).Error
	if err != nil {
		h.storeError(c, err, "review")
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func parseLimit(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return defaultGameLimit
	}
	if n > maxGameLimit {
		return maxGameLimit
	}
	return n
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
