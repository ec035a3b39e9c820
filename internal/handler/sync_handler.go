package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prepmitra/prepmitra-client/internal/response"
	"github.com/prepmitra/prepmitra-client/internal/service"
	"github.com/prepmitra/prepmitra-client/internal/worker"
)

// SyncHandler exposes the offline outbox and its drain controls.
type SyncHandler struct {
	practiceService *service.PracticeService
	outboxWorker    *worker.OutboxWorker
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(practiceService *service.PracticeService, outboxWorker *worker.OutboxWorker) *SyncHandler {
	return &SyncHandler{practiceService: practiceService, outboxWorker: outboxWorker}
}

// Status godoc
// GET /api/v1/sync/status
// Returns the queued mutations awaiting replay.
func (h *SyncHandler) Status(c *gin.Context) {
	items := h.practiceService.PendingItems(c.Request.Context())
	response.Success(c, http.StatusOK, gin.H{
		"pending": len(items),
		"items":   items,
	})
}

// Drain godoc
// POST /api/v1/sync/drain
// Forces a drain pass now. Returns skipped=true when one is already running.
func (h *SyncHandler) Drain(c *gin.Context) {
	result := h.outboxWorker.Drain(c.Request.Context())
	response.Success(c, http.StatusOK, gin.H{"drain": result})
}

// Online godoc
// POST /api/v1/sync/online
// Signals regained connectivity. The drain runs after a settle delay.
func (h *SyncHandler) Online(c *gin.Context) {
	h.outboxWorker.NotifyOnline()
	response.Success(c, http.StatusAccepted, gin.H{})
}
