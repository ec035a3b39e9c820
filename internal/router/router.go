package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/prepmitra/prepmitra-client/internal/config"
	"github.com/prepmitra/prepmitra-client/internal/handler"
	"github.com/prepmitra/prepmitra-client/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Exam     *handler.ExamHandler
	Practice *handler.PracticeHandler
	Sync     *handler.SyncHandler
	Session  *handler.SessionHandler
	WS       *handler.WSHandler
}

// SetupRouter configures all Gin route groups. The agent listens on loopback
// for its own UI, so there is no auth middleware here; the backend token is
// attached by the outbound client, not checked on the inbound edge.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 1. Session Group ──────────────────────────────────────────────
	sessionAPI := router.Group("/api/v1/session")
	{
		sessionAPI.GET("", handlers.Session.Status)
		sessionAPI.PUT("/token", handlers.Session.SetToken)
		sessionAPI.DELETE("/token", handlers.Session.ClearToken)
	}

	// ─── 2. Exam Group ─────────────────────────────────────────────────
	examAPI := router.Group("/api/v1/exam")
	{
		examAPI.POST("/start", handlers.Exam.Start)
		examAPI.GET("/status", handlers.Exam.Status)
		examAPI.POST("/answer", handlers.Exam.Answer)
		examAPI.POST("/flag", handlers.Exam.ToggleFlag)
		examAPI.POST("/next", handlers.Exam.Next)
		examAPI.POST("/previous", handlers.Exam.Previous)
		examAPI.POST("/jump", handlers.Exam.Jump)
		examAPI.GET("/questions/:question_id", handlers.Exam.Question)
		examAPI.POST("/submit", handlers.Exam.Submit)
		examAPI.POST("/abandon", handlers.Exam.Abandon)
		examAPI.GET("/result", handlers.Exam.Result)
		examAPI.GET("/attempts", handlers.Exam.History)
		examAPI.GET("/attempts/:attempt_id", handlers.Exam.Review)
	}

	// ─── 3. Practice Group ─────────────────────────────────────────────
	practiceAPI := router.Group("/api/v1/practice")
	{
		practiceAPI.GET("/questions", handlers.Practice.Questions)
		practiceAPI.POST("/answers", handlers.Practice.Answer)
		practiceAPI.POST("/bookmarks/toggle", handlers.Practice.ToggleBookmark)
		practiceAPI.GET("/bookmarks", handlers.Practice.Bookmarks)
		practiceAPI.GET("/progress", handlers.Practice.Progress)
	}

	// ─── 4. Sync Group ─────────────────────────────────────────────────
	syncAPI := router.Group("/api/v1/sync")
	{
		syncAPI.GET("/status", handlers.Sync.Status)
		syncAPI.POST("/drain", handlers.Sync.Drain)
		syncAPI.POST("/online", handlers.Sync.Online)
	}

	// ─── 5. WebSocket Group ────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/stream", handlers.WS.Stream)
	}

	return router
}
