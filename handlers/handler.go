// Package handlers implements the REST API served under /api.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"gamelog/auth"
	"gamelog/middleware"
	"gamelog/monitoring"
	"gamelog/redisstore"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrorResponse is the body of every non-validation error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler carries the dependencies shared by every route.
type Handler struct {
	db       *gorm.DB
	auth     *auth.Service
	sessions *redisstore.Store
	metrics  *monitoring.Metrics
	log      *logrus.Logger
}

func NewHandler(db *gorm.DB, authSvc *auth.Service, sessions *redisstore.Store, metrics *monitoring.Metrics, log *logrus.Logger) *Handler {
	return &Handler{db: db, auth: authSvc, sessions: sessions, metrics: metrics, log: log}
}

// pathID reads a numeric path parameter. Anything that cannot be an id
// cannot name a record, so it answers 404 like a missing one.
func pathID(c *gin.Context, name, what string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: what + " not found"})
		return 0, false
	}
	return uint(id), true
}

// storeError maps a store failure to a response: not-found becomes 404,
// everything else a generic 500 with the cause logged.
func (h *Handler) storeError(c *gin.Context, err error, what string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: what + " not found"})
		return
	}
	h.log.WithError(err).WithField("path", c.FullPath()).Error("store operation failed")
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

func callerID(c *gin.Context) uint {
	id, _ := middleware.CurrentIdentity(c)
	return id.UserID
}

// dedupeIDs drops repeated ids while keeping first-seen order.
func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func removeID(ids []uint, target uint) []uint {
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

func containsID(ids []uint, target uint) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}
