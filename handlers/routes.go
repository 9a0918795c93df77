package handlers

import (
	"net/http"
	"time"

	"gamelog/auth"
	"gamelog/middleware"
	"gamelog/monitoring"
	"gamelog/redisstore"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Deps is everything NewRouter wires into the engine.
type Deps struct {
	DB       *gorm.DB
	Auth     *auth.Service
	Sessions *redisstore.Store // nil disables login rate limiting
	Metrics  *monitoring.Metrics
	Log      *logrus.Logger

	LoginLimit     int
	LoginWindow    time.Duration
	AllowedOrigins []string
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(d Deps) *gin.Engine {
	h := NewHandler(d.DB, d.Auth, d.Sessions, d.Metrics, d.Log)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(middleware.SecurityHeaders())
	r.Use(d.Metrics.Middleware())
	if len(d.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     d.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
			ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/metrics", d.Metrics.Handler())

	requireAuth := middleware.Authenticate(d.Auth, d.Log)
	optionalAuth := middleware.OptionalAuthenticate(d.Auth)

	api := r.Group("/api")
	{
		games := api.Group("/games")
		games.GET("", h.GetGames)
		games.GET("/:id", h.GetGameByID)
		games.GET("/:id/reviews", h.GetGameReviews)

		authRoutes := api.Group("/auth")
		authRoutes.POST("/register", h.Register)
		authRoutes.POST("/login",
			h.countLimited,
			middleware.RateLimit(d.Sessions, d.LoginLimit, d.LoginWindow, d.Log),
			h.Login,
		)
		authRoutes.GET("/me", requireAuth, h.Me)
		authRoutes.POST("/logout", requireAuth, h.Logout)

		reviews := api.Group("/reviews")
		reviews.GET("", h.GetReviews)
		reviews.POST("", requireAuth, h.CreateReview)
		reviews.PUT("/:id", requireAuth, h.UpdateReview)
		reviews.DELETE("/:id", requireAuth, h.DeleteReview)

		lists := api.Group("/lists")
		lists.POST("", requireAuth, h.CreateList)
		lists.GET("/user", requireAuth, h.GetMyLists)
		lists.GET("/:id", optionalAuth, h.GetList)
		lists.PUT("/:id", requireAuth, h.UpdateList)
		lists.DELETE("/:id", requireAuth, h.DeleteList)
		lists.POST("/:id/games", requireAuth, h.AddGameToList)
		lists.DELETE("/:id/games/:gameId", requireAuth, h.RemoveGameFromList)

		users := api.Group("/users")
		users.PUT("/me", requireAuth, h.UpdateMe)
		users.GET("/:id", h.GetUserByID)
		users.GET("/:id/lists", optionalAuth, h.GetUserLists)
		users.GET("/:id/stats", h.GetUserStats)
		users.POST("/:id/follow", requireAuth, h.FollowUser)
		users.DELETE("/:id/follow", requireAuth, h.UnfollowUser)

		api.GET("/stats", h.GetStats)
	}

	return r
}
