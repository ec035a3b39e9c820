package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/prepmitra/prepmitra-client/internal/service"
	"github.com/prepmitra/prepmitra-client/internal/worker"
	ws "github.com/prepmitra/prepmitra-client/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams the countdown and attempt state to the UI.
type WSHandler struct {
	examService     *service.ExamService
	practiceService *service.PracticeService
	outboxWorker    *worker.OutboxWorker
	log             zerolog.Logger
	upgrader        websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(examService *service.ExamService, practiceService *service.PracticeService, outboxWorker *worker.OutboxWorker, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		examService:     examService,
		practiceService: practiceService,
		outboxWorker:    outboxWorker,
		log:             log.With().Str("component", "ws_handler").Logger(),
		upgrader:        buildUpgrader(allowedOrigins),
	}
}

// Stream godoc
// WS /ws/v1/stream
// Pushes one countdown frame per second plus a one-shot time_up event per
// attempt. Accepts ping and online actions from the client.
func (h *WSHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Reader: ping/online actions. A read error means the client went away.
	go func() {
		defer cancel()
		for {
			var envelope ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &envelope); err != nil {
				return
			}
			switch envelope.Action {
			case ws.ActionPing:
				if err := ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong}); err != nil {
					return
				}
			case ws.ActionOnline:
				h.outboxWorker.NotifyOnline()
			}
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var timeUpSentFor int64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status := h.examService.Status()
			frame := ws.TickResponse{
				Event:            ws.EventTick,
				State:            string(status.State),
				AttemptID:        status.AttemptID,
				RemainingSeconds: status.RemainingSeconds,
				PendingOutbox:    len(h.practiceService.PendingItems(ctx)),
			}
			if err := ws.WriteTyped(conn, frame); err != nil {
				return
			}

			running := status.State == service.StateInProgress || status.State == service.StateSubmitting
			if running && status.RemainingSeconds == 0 && status.AttemptID != timeUpSentFor {
				timeUpSentFor = status.AttemptID
				if err := ws.WriteTyped(conn, ws.TimeUpResponse{Event: ws.EventTimeUp, AttemptID: status.AttemptID}); err != nil {
					return
				}
			}
		}
	}
}
