package campaign

import (
	"crowdx-backend/internal/utils"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

type wsMessage struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	CampaignID uint   `json:"campaign_id"`
}

// Stream godoc
// @Summary Live campaign progress
// @Description Upgrades to a websocket and pushes a progress event after every contribution.
// @Tags campaigns
// @Param id path int true "Campaign ID"
// @Success 101 {string} string "Switching Protocols"
// @Failure 404 {object} utils.Response
// @Router /campaigns/{id}/ws [get]
func (h *Handler) Stream(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}
	if _, err := h.campaigns.Get(c.Request.Context(), id); err != nil {
		utils.RespondError(c, err)
		return
	}

	upgrader := websocket.Upgrader{CheckOrigin: h.checkOrigin}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Uint("campaign_id", id), zap.Error(err))
		return
	}
	defer conn.Close()

	sub := h.hub.Subscribe(id)
	defer sub.Close()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// The reader only watches for the client going away; clients send nothing
	// meaningful.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.log.Info("websocket read error", zap.Uint("campaign_id", id), zap.Error(err))
				}
				return
			}
		}
	}()

	if err := h.write(conn, wsMessage{Type: "connected", Message: "WebSocket connection established", CampaignID: id}); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, open := <-sub.Events():
			if !open {
				// The campaign was deleted.
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "campaign deleted"),
					time.Now().Add(writeWait))
				return
			}
			if err := h.write(conn, ev); err != nil {
				h.log.Info("websocket write failed", zap.Uint("campaign_id", id), zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *Handler) write(conn *websocket.Conn, v interface{}) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}

// checkOrigin admits same-host requests without an Origin header and
// otherwise the configured CORS origins.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}
