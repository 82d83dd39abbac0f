package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/forgesyte/forgesyte/internal/apperrors"
	"github.com/forgesyte/forgesyte/internal/logger"
	"github.com/forgesyte/forgesyte/internal/streaming"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Origin is enforced by the key/permission check that runs before the
	// upgrade, not by the websocket handshake itself.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// stream implements the /v1/stream handshake (§6.2): plugin name from the
// query string, no automatic topic subscription.
func (h *handlers) stream(c *gin.Context) {
	h.serveWebSocket(c, c.Query("plugin"), "")
}

// streamJob implements /ws/jobs/{job_id}, auto-subscribing the connecting
// client to that job's progress topic.
func (h *handlers) streamJob(c *gin.Context) {
	jobID := c.Param("job_id")
	h.serveWebSocket(c, "", streaming.JobTopic(jobID))
}

func (h *handlers) serveWebSocket(c *gin.Context, pluginName, autoSubscribeTopic string) {
	if h.deps.Hub == nil || h.deps.Frames == nil {
		apperrors.AbortWithError(c, apperrors.ServiceUnavailable("streaming channel"))
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Streaming().Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	clientID := uuid.NewString()
	sender := streaming.NewWSSender(conn)
	h.deps.Hub.Connect(clientID, sender)
	if autoSubscribeTopic != "" {
		h.deps.Hub.Subscribe(clientID, autoSubscribeTopic)
	}

	stop := make(chan struct{})
	go sender.KeepAlive(stop)
	defer close(stop)
	defer h.deps.Hub.Disconnect(clientID)

	h.deps.Hub.SendPersonal(clientID, []byte(`{"type":"connected"}`))

	for {
		raw, err := sender.ReadMessage()
		if err != nil {
			return
		}
		pluginName = h.deps.Frames.HandleMessage(clientID, pluginName, raw)
	}
}
