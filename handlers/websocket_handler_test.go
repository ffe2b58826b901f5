package handlers

import (
	"context"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/competition-ledger/live"
	"github.com/Dosada05/competition-ledger/models"
	"github.com/Dosada05/competition-ledger/repositories"
	"github.com/Dosada05/competition-ledger/services"
	"github.com/Dosada05/competition-ledger/storage"
)

func TestServeWsSendsLedgerAndBroadcasts(t *testing.T) {
	store := repositories.NewStore(storage.NewMemoryStore())
	comp := &models.Competition{Name: "Cup", Type: models.CompetitionTypeTeam, MaxTeams: 4}
	require.NoError(t, store.Update(context.Background(), func(sess *repositories.Session) error {
		return sess.Competitions().Create(context.Background(), comp)
	}))

	hub := live.NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(hubDone)
	}()

	h := NewWebSocketHandler(hub, services.NewLedgerService(store, nil, hub, nil), nil)
	router := chi.NewRouter()
	router.Get("/ws/competitions/{competitionID}", h.ServeWs)
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		cancel()
		<-hubDone
		server.Close()
	})

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/competitions/" + strconv.FormatInt(comp.ID, 10)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var first live.Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, live.MessageLedgerUpdated, first.Type)
	assert.Equal(t, live.CompetitionRoom(comp.ID), first.RoomID)

	room := live.CompetitionRoom(comp.ID)
	require.Eventually(t, func() bool { return hub.RoomSize(room) == 1 }, 5*time.Second, 10*time.Millisecond)

	hub.BroadcastToRoom(room, live.Message{Type: live.MessageLedgerUpdated, Payload: "next", RoomID: room})

	var second live.Message
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, "next", second.Payload)
}

func TestServeWsUnknownCompetition(t *testing.T) {
	store := repositories.NewStore(storage.NewMemoryStore())
	h := NewWebSocketHandler(live.NewHub(nil), services.NewLedgerService(store, nil, nil, nil), nil)
	router := chi.NewRouter()
	router.Get("/ws/competitions/{competitionID}", h.ServeWs)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/ws/competitions/99", nil))
	assert.Equal(t, 404, rec.Code)
}
