package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"anoa.com/kopilka/internal/entity"
	notifRepo "anoa.com/kopilka/internal/modules/notification/repository"
	notifService "anoa.com/kopilka/internal/modules/notification/service"
	"anoa.com/kopilka/internal/realtime"
	"anoa.com/kopilka/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestWebSocketReceivesNotification(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	log := testutil.Logger(t)
	broker := realtime.NewBroker(log, 4)
	svc := notifService.NewNotificationService(notifRepo.NewNotificationRepository(db), broker, log)
	h := NewNotificationHandler(svc, broker, func(*http.Request) bool { return true }, log)
	user := testutil.CreateUser(t, db, "ivan")

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		c.Set("user_id", user.ID.String())
		c.Next()
	}, h.HandleWebSocket)
	r.GET("/count", func(c *gin.Context) {
		c.Set("user_id", user.ID.String())
		c.Next()
	}, h.UnreadCount)

	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return broker.SubscriberCount(user.ID) == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, svc.CreateNotification(context.Background(), &entity.Notification{
		UserID: user.ID, EntityType: "story", Type: entity.NotificationStoryLiked, Message: "someone liked your story",
	}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Event string              `json:"event"`
		Data  entity.Notification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(payload, &msg))
	require.Equal(t, realtime.EventNotification, msg.Event)
	require.Equal(t, entity.NotificationStoryLiked, msg.Data.Type)

	conn.Close()
	require.Eventually(t, func() bool { return broker.SubscriberCount(user.ID) == 0 }, 2*time.Second, 10*time.Millisecond)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/count", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"count":1}`, w.Body.String())
}
