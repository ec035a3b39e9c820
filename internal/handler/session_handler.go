package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prepmitra/prepmitra-client/internal/auth"
	"github.com/prepmitra/prepmitra-client/internal/model"
	"github.com/prepmitra/prepmitra-client/internal/response"
	"github.com/prepmitra/prepmitra-client/internal/validator"
)

// SessionHandler manages the backend session token held by the agent.
type SessionHandler struct {
	sessionContext *auth.SessionContext
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionContext *auth.SessionContext) *SessionHandler {
	return &SessionHandler{sessionContext: sessionContext}
}

// Status godoc
// GET /api/v1/session
// Reports whether a usable token is installed and when it expires.
func (h *SessionHandler) Status(c *gin.Context) {
	data := gin.H{
		"authenticated": h.sessionContext.Valid(),
	}
	if exp, ok := h.sessionContext.ExpiresAt(); ok {
		data["expires_at"] = exp.UTC().Format(time.RFC3339)
	}
	response.Success(c, http.StatusOK, data)
}

// SetToken godoc
// PUT /api/v1/session/token
// Installs a backend session token and persists it across restarts.
func (h *SessionHandler) SetToken(c *gin.Context) {
	var req model.SetTokenRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	h.sessionContext.SetToken(c.Request.Context(), req.Token)
	response.Success(c, http.StatusOK, gin.H{"authenticated": h.sessionContext.Valid()})
}

// ClearToken godoc
// DELETE /api/v1/session/token
// Drops the token from memory and the store.
func (h *SessionHandler) ClearToken(c *gin.Context) {
	h.sessionContext.Clear(c.Request.Context())
	response.Success(c, http.StatusOK, gin.H{})
}
