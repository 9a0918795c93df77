package handlers

import (
	"context"
	"net/http"
	"strconv"

	"gamelog/models"
	"gamelog/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const maxReviewLimit = 100

// GetReviews godoc
// @Summary      List reviews
// @Description  Newest first, filtered by game and/or author.
// @Tags         reviews
// @Produce      json
// @Param        game query int false "Game ID"
// @Param        user query int false "Author ID"
// @Success      200 {array} models.Review
// @Router       /reviews [get]
func (h *Handler) GetReviews(c *gin.Context) {
	query := h.db.WithContext(c.Request.Context()).
		Order("created_at DESC, id DESC").
		Limit(maxReviewLimit)

	for param, column := range map[string]string{"game": "game_id", "user": "user_id"} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + param + " id"})
			return
		}
		query = query.Where(column+" = ?", id)
	}

	reviews := make([]models.Review, 0)
	if err := query.Find(&reviews).Error; err != nil {
		h.storeError(c, err, "review")
		return
	}
	c.JSON(http.StatusOK, reviews)
}

// CreateReview godoc
// @Summary      Review a game
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body models.CreateReviewInput true "Review"
// @Success      201 {object} models.Review
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /reviews [post]
func (h *Handler) CreateReview(c *gin.Context) {
	var input models.CreateReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if err := utils.ValidateStruct(input); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}
	ctx := c.Request.Context()

	var game models.Game
	if err := h.db.WithContext(ctx).Select("id").First(&game, input.GameID).Error; err != nil {
		h.storeError(c, err, "game")
		return
	}

	review := models.Review{
		UserID: callerID(c),
		GameID: input.GameID,
		Rating: input.Rating,
		Text:   input.Text,
	}
	if err := h.db.WithContext(ctx).Create(&review).Error; err != nil {
		h.storeError(c, err, "review")
		return
	}

	h.metrics.ReviewsWritten.WithLabelValues("create").Inc()
	h.refreshGameRating(ctx, review.GameID)
	c.JSON(http.StatusCreated, review)
}

// UpdateReview godoc
// @Summary      Edit your review
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int                      true "Review ID"
// @Param        input body models.UpdateReviewInput true "Changes"
// @Success      200 {object} models.Review
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /reviews/{id} [put]
func (h *Handler) UpdateReview(c *gin.Context) {
	id, ok := pathID(c, "id", "review")
	if !ok {
		return
	}
	var input models.UpdateReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if err := utils.ValidateStruct(input); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}
	ctx := c.Request.Context()

	review, ok := h.ownReview(c, id)
	if !ok {
		return
	}
	if input.Rating != nil {
		review.Rating = *input.Rating
	}
	if input.Text != nil {
		review.Text = *input.Text
	}
	if err := h.db.WithContext(ctx).Save(&review).Error; err != nil {
		h.storeError(c, err, "review")
		return
	}

	h.metrics.ReviewsWritten.WithLabelValues("update").Inc()
	if input.Rating != nil {
		h.refreshGameRating(ctx, review.GameID)
	}
	c.JSON(http.StatusOK, review)
}

// DeleteReview godoc
// @Summary      Delete your review
// @Tags         reviews
// @Security     BearerAuth
// @Param        id path int true "Review ID"
// @Success      204
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /reviews/{id} [delete]
func (h *Handler) DeleteReview(c *gin.Context) {
	id, ok := pathID(c, "id", "review")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	review, ok := h.ownReview(c, id)
	if !ok {
		return
	}
	if err := h.db.WithContext(ctx).Delete(&review).Error; err != nil {
		h.storeError(c, err, "review")
		return
	}

	h.metrics.ReviewsWritten.WithLabelValues("delete").Inc()
	h.refreshGameRating(ctx, review.GameID)
	c.Status(http.StatusNoContent)
}

// ownReview loads a review and checks the caller wrote it.
func (h *Handler) ownReview(c *gin.Context, id uint) (models.Review, bool) {
	var review models.Review
	if err := h.db.WithContext(c.Request.Context()).First(&review, id).Error; err != nil {
		h.storeError(c, err, "review")
		return review, false
	}
	if review.UserID != callerID(c) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "only the author can change this review"})
		return review, false
	}
	return review, true
}

// refreshGameRating recomputes a game's average and count from its
// reviews. Failures are logged only; the next review write repairs them.
func (h *Handler) refreshGameRating(ctx context.Context, gameID uint) {
	err := h.db.WithContext(ctx).Model(&models.Game{}).
		Where("id = ?", gameID).
		Updates(map[string]interface{}{
			"rating":       gorm.Expr("COALESCE((SELECT AVG(rating) FROM reviews WHERE reviews.game_id = ?), 0)", gameID),
			"rating_count": gorm.Expr("(SELECT COUNT(*) FROM reviews WHERE reviews.game_id = ?)", gameID),
		}).Error
	if err != nil {
		h.log.WithError(err).WithField("game_id", gameID).Warn("refresh game rating")
	}
}
