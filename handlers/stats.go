package handlers

import (
	"net/http"
	"time"

	"gamelog/models"

	"github.com/gin-gonic/gin"
)

// Stats are catalog-wide totals.
type Stats struct {
	TotalUsers    int64   `json:"totalUsers"`
	TotalGames    int64   `json:"totalGames"`
	TotalReviews  int64   `json:"totalReviews"`
	TotalLists    int64   `json:"totalLists"`
	AverageRating float64 `json:"averageRating"`
}

// GetStats godoc
// @Summary      Catalog totals
// @Tags         stats
// @Produce      json
// @Success      200 {object} Stats
// @Router       /stats [get]
func (h *Handler) GetStats(c *gin.Context) {
	start := time.Now()
	db := h.db.WithContext(c.Request.Context())

	var stats Stats
	counts := []struct {
		model interface{}
		dest  *int64
	}{
		{&models.User{}, &stats.TotalUsers},
		{&models.Game{}, &stats.TotalGames},
		{&models.Review{}, &stats.TotalReviews},
		{&models.List{}, &stats.TotalLists},
	}
	for _, q := range counts {
		if err := db.Model(q.model).Count(q.dest).Error; err != nil {
			h.storeError(c, err, "stats")
			return
		}
	}

	err := db.Model(&models.Review{}).Select("COALESCE(AVG(rating), 0)").Row().Scan(&stats.AverageRating)
	if err != nil {
		h.storeError(c, err, "stats")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"statistics":       stats,
		"calculation_time": time.Since(start).String(),
	})
}
