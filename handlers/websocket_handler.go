package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Dosada05/competition-ledger/live"
	"github.com/Dosada05/competition-ledger/services"
)

type WebSocketHandler struct {
	hub            *live.Hub
	ledgerService  services.LedgerService
	upgrader       websocket.Upgrader
	allowedOrigins map[string]bool
}

// NewWebSocketHandler: пустой allowedOrigins разрешает любой Origin (для разработки).
func NewWebSocketHandler(hub *live.Hub, ls services.LedgerService, allowedOrigins []string) *WebSocketHandler {
	h := &WebSocketHandler{hub: hub, ledgerService: ls, allowedOrigins: make(map[string]bool)}
	for _, o := range allowedOrigins {
		if o != "*" {
			h.allowedOrigins[o] = true
		}
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if len(h.allowedOrigins) == 0 || origin == "" {
		return true
	}
	return h.allowedOrigins[origin]
}

// ServeWs подписывает клиента на изменения реестра соревнования.
// Клиент подключается к /ws/competitions/{competitionID} и сразу получает текущее состояние.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.ledgerService.GetLedger(r.Context(), competitionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отправляет HTTP ошибку клиенту
		slog.WarnContext(r.Context(), "Failed to upgrade websocket connection", slog.Int64("competition_id", competitionID), slog.Any("error", err))
		return
	}

	roomID := live.CompetitionRoom(competitionID)
	client := &live.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: roomID,
	}
	// Начальное состояние кладём в буфер до регистрации, чтобы оно пришло раньше broadcast'ов.
	if initial, err := json.Marshal(live.Message{Type: live.MessageLedgerUpdated, Payload: view, RoomID: roomID}); err == nil {
		client.Send <- initial
	}
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
