package http

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"medicohub-assessment-service/internal/app"
	"medicohub-assessment-service/internal/domain"
)

// WSHandler streams live competition standings to websocket clients.
// Clients receive the current snapshot on connect and an update after
// every recorded competition attempt.
type WSHandler struct {
	competitions *app.CompetitionService
	upgrader     websocket.Upgrader
	log          *zap.Logger
}

func NewWSHandler(competitions *app.CompetitionService, log *zap.Logger) *WSHandler {
	return &WSHandler{
		competitions: competitions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

type standingsMessage struct {
	Type    string           `json:"type"`
	Payload domain.Standings `json:"payload"`
}

// ServeWS upgrades the request and streams standings until the client
// disconnects.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	competitionID := r.URL.Query().Get("competitionId")
	if competitionID == "" {
		http.Error(w, "missing competitionId", http.StatusBadRequest)
		return
	}

	updates, cancel, err := h.competitions.Subscribe(r.Context(), competitionID)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// The read loop only detects disconnects; clients send nothing.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(standingsMessage{Type: "standings", Payload: update}); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
