package realtime

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"farm-to-keells/internal/logger"
	"farm-to-keells/internal/utils"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// WSHandler streams notification inserts to a websocket client. Farmers
// receive rows addressed to them; admins receive every insert.
type WSHandler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *Hub, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, o := range allowedOrigins {
					if strings.EqualFold(o, origin) {
						return true
					}
				}
				return false
			},
		},
	}
}

func notificationFilter(r *http.Request) (Filter, bool) {
	filter := Filter{Table: "notifications", Type: EventInsert}
	if id, ok := utils.GetFarmerIDFromContext(r.Context()); ok {
		filter.Column = "farmer_id"
		filter.Value = strconv.FormatInt(id, 10)
		return filter, true
	}
	return filter, utils.GetUserRoleFromContext(r.Context()) == "ADMIN"
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logger.FromCtx(r.Context()).With(
		zap.String("layer", "realtime"),
		zap.String("method", "ServeWS"),
	)

	filter, ok := notificationFilter(r)
	if !ok {
		utils.WriteJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	out := make(chan Event, defaultBuffer)
	sub := h.hub.Subscribe(filter, func(ev Event) {
		select {
		case out <- ev:
		default:
			h.hub.Dropped.Inc()
		}
	})
	defer sub.Close()

	log.Info("websocket client connected", zap.String("subscription_id", sub.ID()))

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			log.Info("websocket client disconnected", zap.String("subscription_id", sub.ID()))
			return
		case ev := <-out:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				log.Warn("websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
