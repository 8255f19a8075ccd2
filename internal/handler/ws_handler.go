package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/pathwise/compass-backend/internal/middleware"
	"github.com/pathwise/compass-backend/internal/session"
	ws "github.com/pathwise/compass-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
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

// WSHandler streams session state over WebSocket. The server pushes a
// full state frame once per second so the client clock can never
// drift from the authoritative timers.
type WSHandler struct {
	manager  *session.Manager
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(manager *session.Manager, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		manager:  manager,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// AssessmentStream godoc
// WS /ws/v1/assessment/stream?token=...
// Upgrades to WebSocket for the live state feed and in-band answers.
func (h *WSHandler) AssessmentStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ctrl, err := h.manager.Attach(c.Request.Context(), claims.StudentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session unavailable"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Int("student_id", claims.StudentID).Logger()
	wsLog.Info().Msg("Student connected")

	// The pusher owns all writes; reader requests go through pushNow.
	pushNow := make(chan struct{}, 1)
	done := make(chan struct{})
	go h.pushLoop(conn, ctrl, pushNow, done)
	defer close(done)

	requestPush := func() {
		select {
		case pushNow <- struct{}{}:
		default:
		}
	}
	requestPush() // initial frame

	for {
		raw, err := ws.ReadRaw(conn)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		var envelope ws.RequestEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			requestPush()
			continue
		}

		switch envelope.Action {
		case ws.ActionPing, ws.ActionState:
			requestPush()
		case ws.ActionAnswer:
			var req ws.AnswerRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				requestPush()
				continue
			}
			if err := ctrl.AnswerQuestion(context.Background(), req.Answer); err != nil {
				wsLog.Debug().Err(err).Msg("In-band answer rejected")
			}
			requestPush()
		default:
			wsLog.Warn().Str("action", string(envelope.Action)).Msg("Unknown action")
			requestPush()
		}
	}
}

// pushLoop writes one state frame per second until done closes.
func (h *WSHandler) pushLoop(conn *websocket.Conn, ctrl *session.Controller, pushNow <-chan struct{}, done <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-pushNow:
		case <-ticker.C:
		}
		if err := ws.WriteTyped(conn, ws.StateResponse{
			Event: ws.EventState,
			State: ctrl.State(),
		}); err != nil {
			return
		}
	}
}
