package handlers

import (
	"net/http"

	"gamelog/models"
	"gamelog/utils"

	"github.com/gin-gonic/gin"
)

// CreateList godoc
// @Summary      Create a list
// @Tags         lists
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body models.CreateListInput true "List"
// @Success      201 {object} models.List
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse "Unknown game"
// @Router       /lists [post]
func (h *Handler) CreateList(c *gin.Context) {
	var input models.CreateListInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if err := utils.ValidateStruct(input); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}
	ctx := c.Request.Context()

	games := dedupeIDs(input.Games)
	if !h.gamesExist(c, games) {
		return
	}

	list := models.List{
		OwnerID:     callerID(c),
		Title:       input.Title,
		Description: input.Description,
		Games:       games,
		IsPublic:    input.IsPublic == nil || *input.IsPublic,
	}
	if err := h.db.WithContext(ctx).Create(&list).Error; err != nil {
		h.storeError(c, err, "list")
		return
	}
	c.JSON(http.StatusCreated, list)
}

// GetMyLists godoc
// @Summary      Lists owned by the caller
// @Tags         lists
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} models.List
// @Router       /lists/user [get]
func (h *Handler) GetMyLists(c *gin.Context) {
	lists := make([]models.List, 0)
	err := h.db.WithContext(c.Request.Context()).
		Where("owner_id = ?", callerID(c)).
		Order("created_at DESC, id DESC").
		Find(&lists).Error
	if err != nil {
		h.storeError(c, err, "list")
		return
	}
	c.JSON(http.StatusOK, lists)
}

// GetList godoc
// @Summary      Get a list
// @Description  Private lists are only visible to their owner.
// @Tags         lists
// @Produce      json
// @Param        id path int true "List ID"
// @Success      200 {object} models.List
// @Failure      404 {object} ErrorResponse
// @Router       /lists/{id} [get]
func (h *Handler) GetList(c *gin.Context) {
	id, ok := pathID(c, "id", "list")
	if !ok {
		return
	}

	var list models.List
	if err := h.db.WithContext(c.Request.Context()).First(&list, id).Error; err != nil {
		h.storeError(c, err, "list")
		return
	}
	if !list.IsPublic && list.OwnerID != callerID(c) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "list not found"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// UpdateList godoc
// @Summary      Edit a list
// @Tags         lists
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int                    true "List ID"
// @Param        input body models.UpdateListInput true "Changes"
// @Success      200 {object} models.List
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /lists/{id} [put]
func (h *Handler) UpdateList(c *gin.Context) {
	id, ok := pathID(c, "id", "list")
	if !ok {
		return
	}
	var input models.UpdateListInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if err := utils.ValidateStruct(input); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	list, ok := h.ownList(c, id)
	if !ok {
		return
	}
	if input.Title != nil {
		list.Title = *input.Title
	}
	if input.Description != nil {
		list.Description = *input.Description
	}
	if input.IsPublic != nil {
		list.IsPublic = *input.IsPublic
	}
	if input.Games != nil {
		games := dedupeIDs(*input.Games)
		if !h.gamesExist(c, games) {
			return
		}
		list.Games = games
	}

	h.saveList(c, &list)
}

// DeleteList godoc
// @Summary      Delete a list
// @Tags         lists
// @Security     BearerAuth
// @Param        id path int true "List ID"
// @Success      204
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /lists/{id} [delete]
func (h *Handler) DeleteList(c *gin.Context) {
	id, ok := pathID(c, "id", "list")
	if !ok {
		return
	}
	list, ok := h.ownList(c, id)
	if !ok {
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Delete(&list).Error; err != nil {
		h.storeError(c, err, "list")
		return
	}
	c.Status(http.StatusNoContent)
}

// AddGameToList godoc
// @Summary      Append a game to a list
// @Tags         lists
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int                  true "List ID"
// @Param        input body models.ListGameInput true "Game"
// @Success      200 {object} models.List
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /lists/{id}/games [post]
func (h *Handler) AddGameToList(c *gin.Context) {
	id, ok := pathID(c, "id", "list")
	if !ok {
		return
	}
	var input models.ListGameInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if err := utils.ValidateStruct(input); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	list, ok := h.ownList(c, id)
	if !ok {
		return
	}
	if list.HasGame(input.GameID) {
		c.JSON(http.StatusOK, list)
		return
	}
	if !h.gamesExist(c, []uint{input.GameID}) {
		return
	}
	list.Games = append(list.Games, input.GameID)

	h.saveList(c, &list)
}

// RemoveGameFromList godoc
// @Summary      Remove a game from a list
// @Tags         lists
// @Produce      json
// @Security     BearerAuth
// @Param        id     path int true "List ID"
// @Param        gameId path int true "Game ID"
// @Success      200 {object} models.List
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /lists/{id}/games/{gameId} [delete]
func (h *Handler) RemoveGameFromList(c *gin.Context) {
	id, ok := pathID(c, "id", "list")
	if !ok {
		return
	}
	gameID, ok := pathID(c, "gameId", "game")
	if !ok {
		return
	}

	list, ok := h.ownList(c, id)
	if !ok {
		return
	}
	if !list.HasGame(gameID) {
		c.JSON(http.StatusOK, list)
		return
	}
	list.Games = removeID(list.Games, gameID)

	h.saveList(c, &list)
}

// GetUserLists godoc
// @Summary      Lists of a user
// @Description  Public lists; the owner also sees private ones.
// @Tags         users
// @Produce      json
// @Param        id path int true "User ID"
// @Success      200 {array} models.List
// @Failure      404 {object} ErrorResponse
// @Router       /users/{id}/lists [get]
func (h *Handler) GetUserLists(c *gin.Context) {
	id, ok := pathID(c, "id", "user")
	if !ok {
		return
	}
	if !h.userExists(c, id) {
		return
	}

	query := h.db.WithContext(c.Request.Context()).Where("owner_id = ?", id)
	if callerID(c) != id {
		query = query.Where("is_public = ?", true)
	}

	lists := make([]models.List, 0)
	if err := query.Order("created_at DESC, id DESC").Find(&lists).Error; err != nil {
		h.storeError(c, err, "list")
		return
	}
	c.JSON(http.StatusOK, lists)
}

// ownList loads a list and checks the caller owns it.
func (h *Handler) ownList(c *gin.Context, id uint) (models.List, bool) {
	var list models.List
	if err := h.db.WithContext(c.Request.Context()).First(&list, id).Error; err != nil {
		h.storeError(c, err, "list")
		return list, false
	}
	if list.OwnerID != callerID(c) {
		// a private list stays hidden from everyone else
		if !list.IsPublic {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "list not found"})
			return list, false
		}
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "only the owner can change this list"})
		return list, false
	}
	return list, true
}

func (h *Handler) saveList(c *gin.Context, list *models.List) {
	if err := h.db.WithContext(c.Request.Context()).Save(list).Error; err != nil {
		h.storeError(c, err, "list")
		return
	}
	c.JSON(http.StatusOK, list)
}

// gamesExist answers 404 unless every id names a game.
func (h *Handler) gamesExist(c *gin.Context, ids []uint) bool {
	if len(ids) == 0 {
		return true
	}
	var count int64
	err := h.db.WithContext(c.Request.Context()).
		Model(&models.Game{}).
		Where("id IN ?", ids).
		Count(&count).Error
	if err != nil {
		h.storeError(c, err, "game")
		return false
	}
	if count != int64(len(ids)) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "game not found"})
		return false
	}
	return true
}

func (h *Handler) userExists(c *gin.Context, id uint) bool {
	var user models.User
	if err := h.db.WithContext(c.Request.Context()).Select("id").First(&user, id).Error; err != nil {
		h.storeError(c, err, "user")
		return false
	}
	return true
}
