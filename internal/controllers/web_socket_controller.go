package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"trip_tracker/internal/apperr"
	"trip_tracker/internal/middleware"
	"trip_tracker/internal/models"
)

const (
	wsWriteWait   = 10 * time.Second
	wsPongWait    = 60 * time.Second
	wsPingPeriod  = wsPongWait * 9 / 10
	wsMaxMessage  = 8 << 10
	wsAppendLimit = 10 * time.Second
)

// upgrader configures the WebSocket connection.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // rider apps are native clients without a stable Origin
	},
}

var errSocketRole = errors.New("role may not stream checkpoints")

// CheckpointSocket streams checkpoints from rider devices. Every text frame
// is one checkpoint and is answered with an ack or an error frame.
type CheckpointSocket struct {
	ingest CheckpointIngestor
}

func NewCheckpointSocket(ingest CheckpointIngestor) *CheckpointSocket {
	return &CheckpointSocket{ingest: ingest}
}

type socketReply struct {
	Type       string             `json:"type"`
	Checkpoint *models.Checkpoint `json:"checkpoint,omitempty"`
	Code       string             `json:"code,omitempty"`
	Error      string             `json:"error,omitempty"`
	Retryable  bool               `json:"retryable,omitempty"`
}

// authenticateSocket validates the token query parameter, since browsers and
// most mobile socket clients cannot set an Authorization header.
func authenticateSocket(c *gin.Context) (*middleware.Claims, error) {
	tokenString := c.Query("token")
	if tokenString == "" {
		return nil, errors.New("missing authentication token")
	}
	claims, err := middleware.ValidateToken(tokenString)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !slices.Contains([]string{middleware.RoleRider, middleware.RoleAdmin}, claims.Role) {
		return nil, errSocketRole
	}
	return claims, nil
}

// HandleCheckpointWebSocket upgrades GET /ws/checkpoints?token=...
func (s *CheckpointSocket) HandleCheckpointWebSocket(c *gin.Context) {
	claims, err := authenticateSocket(c)
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, errSocketRole) {
			status = http.StatusForbidden
		}
		logrus.WithError(err).Warn("WebSocket connection attempt rejected")
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	log := logrus.WithFields(logrus.Fields{
		"user_id":  claims.Subject,
		"role":     claims.Role,
		"conn_ptr": fmt.Sprintf("%p", conn),
	})
	log.Info("Checkpoint WebSocket connection established")

	done := make(chan struct{})
	defer close(done)
	s.keepAlive(conn, done)

	for {
		messageType, p, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Info("Checkpoint WebSocket closed by client")
			} else {
				log.WithError(err).Warn("Checkpoint WebSocket read failed")
			}
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}
		reply := s.process(c.Request.Context(), claims, p)
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			log.WithError(err).Warn("Failed to write WebSocket reply")
			break
		}
	}
	log.Info("Checkpoint WebSocket connection closed")
}

// keepAlive sets read limits and pings the client until done is closed.
func (s *CheckpointSocket) keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	conn.SetReadLimit(wsMaxMessage)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
					return
				}
			}
		}
	}()
}

func (s *CheckpointSocket) process(ctx context.Context, claims *middleware.Claims, p []byte) socketReply {
	var in models.CheckpointInput
	if err := json.Unmarshal(p, &in); err != nil {
		return errorReply(apperr.Invalid("invalid checkpoint payload: %v", err))
	}
	if claims.Role == middleware.RoleRider {
		in.RiderID = claims.Subject
	}

	ctx, cancel := context.WithTimeout(ctx, wsAppendLimit)
	defer cancel()
	cp, err := s.ingest.Append(ctx, in)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id": claims.Subject,
			"ride_id": in.RideID,
		}).Warn("WebSocket checkpoint rejected")
		return errorReply(err)
	}
	return socketReply{Type: "ack", Checkpoint: cp}
}

func errorReply(err error) socketReply {
	r := socketReply{Type: "error", Code: apperr.Code(err), Error: err.Error()}
	if apperr.IsRetryable(err) {
		r.Retryable = true
		r.Error = "storage temporarily unavailable, retry later"
	}
	return r
}
