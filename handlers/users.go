package handlers

import (
	"net/http"

	"gamelog/models"
	"gamelog/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UserStats is the profile summary of one user.
type UserStats struct {
	Reviews       int64   `json:"reviews"`
	Lists         int64   `json:"lists"`
	Followers     int     `json:"followers"`
	Following     int     `json:"following"`
	AverageRating float64 `json:"averageRating"`
}

// GetUserByID godoc
// @Summary      Public profile
// @Tags         users
// @Produce      json
// @Param        id path int true "User ID"
// @Success      200 {object} models.User
// @Failure      404 {object} ErrorResponse
// @Router       /users/{id} [get]
func (h *Handler) GetUserByID(c *gin.Context) {
	id, ok := pathID(c, "id", "user")
	if !ok {
		return
	}

	var user models.User
	err := h.db.WithContext(c.Request.Context()).
		Select(models.PublicColumns).
		First(&user, id).Error
	if err != nil {
		h.storeError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateMe godoc
// @Summary      Edit your profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body models.UpdateUserInput true "Changes"
// @Success      200 {object} models.User
// @Failure      400 {object} ErrorResponse
// @Router       /users/me [put]
func (h *Handler) UpdateMe(c *gin.Context) {
	var input models.UpdateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if err := utils.ValidateStruct(input); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}
	ctx := c.Request.Context()

	changes := map[string]interface{}{}
	if input.Bio != nil {
		changes["bio"] = *input.Bio
	}
	if input.Avatar != nil {
		changes["avatar"] = *input.Avatar
	}
	if len(changes) > 0 {
		err := h.db.WithContext(ctx).Model(&models.User{}).
			Where("id = ?", callerID(c)).
			Updates(changes).Error
		if err != nil {
			h.storeError(c, err, "user")
			return
		}
	}

	var user models.User
	if err := h.db.WithContext(ctx).Select(models.PublicColumns).First(&user, callerID(c)).Error; err != nil {
		h.storeError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// FollowUser godoc
// @Summary      Follow a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "User ID"
// @Success      200 {object} models.User "The caller"
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /users/{id}/follow [post]
func (h *Handler) FollowUser(c *gin.Context) {
	h.changeFollow(c, true)
}

// UnfollowUser godoc
// @Summary      Unfollow a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "User ID"
// @Success      200 {object} models.User "The caller"
// @Failure      404 {object} ErrorResponse
// @Router       /users/{id}/follow [delete]
func (h *Handler) UnfollowUser(c *gin.Context) {
	h.changeFollow(c, false)
}

// changeFollow updates both sides of the relation in one transaction.
// Repeating the same call leaves the arrays as they are.
func (h *Handler) changeFollow(c *gin.Context, follow bool) {
	targetID, ok := pathID(c, "id", "user")
	if !ok {
		return
	}
	meID := callerID(c)
	if targetID == meID {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "you cannot follow yourself"})
		return
	}

	var me models.User
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var target models.User
		if err := tx.Select(models.PublicColumns).First(&target, targetID).Error; err != nil {
			return err
		}
		if err := tx.Select(models.PublicColumns).First(&me, meID).Error; err != nil {
			return err
		}

		following, followers := me.Following, target.Followers
		if follow {
			if !containsID(following, targetID) {
				following = append(following, targetID)
			}
			if !containsID(followers, meID) {
				followers = append(followers, meID)
			}
		} else {
			following = removeID(following, targetID)
			followers = removeID(followers, meID)
		}

		if err := tx.Model(&me).Update("following", following).Error; err != nil {
			return err
		}
		if err := tx.Model(&target).Update("followers", followers).Error; err != nil {
			return err
		}
		me.Following = following
		return nil
	})
	if err != nil {
		h.storeError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, me)
}

// GetUserStats godoc
// @Summary      Profile counters
// @Tags         users
// @Produce      json
// @Param        id path int true "User ID"
// @Success      200 {object} UserStats
// @Failure      404 {object} ErrorResponse
// @Router       /users/{id}/stats [get]
func (h *Handler) GetUserStats(c *gin.Context) {
	id, ok := pathID(c, "id", "user")
	if !ok {
		return
	}
	db := h.db.WithContext(c.Request.Context())

	var user models.User
	if err := db.Select("id", "followers", "following").First(&user, id).Error; err != nil {
		h.storeError(c, err, "user")
		return
	}

	stats := UserStats{Followers: len(user.Followers), Following: len(user.Following)}
	if err := db.Model(&models.Review{}).Where("user_id = ?", id).Count(&stats.Reviews).Error; err != nil {
		h.storeError(c, err, "review")
		return
	}
	if err := db.Model(&models.List{}).Where("owner_id = ? AND is_public = ?", id, true).Count(&stats.Lists).Error; err != nil {
		h.storeError(c, err, "list")
		return
	}
	err := db.Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0)").
		Where("user_id = ?", id).
		Row().Scan(&stats.AverageRating)
	if err != nil {
		h.storeError(c, err, "review")
		return
	}
	c.JSON(http.StatusOK, stats)
}
