package rpc

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"tonide/internal/build"
	"tonide/internal/gateway/service/buildlog"
)

// BuildLogHandler streams build events of one project over a websocket.
type BuildLogHandler struct {
	hub    *buildlog.Hub
	logger *zap.Logger
}

func NewBuildLogHandler(hub *buildlog.Hub, logger *zap.Logger) *BuildLogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BuildLogHandler{hub: hub, logger: logger}
}

const (
	buildLogWSWriteWait = 10 * time.Second
	buildLogWSPongWait  = 60 * time.Second
	buildLogWSPingEvery = (buildLogWSPongWait * 9) / 10
)

var buildLogWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type buildLogWSInbound struct {
	Type string `json:"type"`
	// Filter fields for "history".
	Level string `json:"level,omitempty"`
	Text  string `json:"text,omitempty"`
}

type buildLogWSOutbound struct {
	Type      string     `json:"type"`
	ProjectID string     `json:"projectId,omitempty"`
	Event     *LogEvent  `json:"event,omitempty"`
	Events    []LogEvent `json:"events,omitempty"`
	Code      string     `json:"code,omitempty"`
	Message   string     `json:"message,omitempty"`
}

func (h *BuildLogHandler) HandleBuildLogWS(w http.ResponseWriter, r *http.Request) {
	projectID := strings.TrimSpace(r.URL.Query().Get("project_id"))
	if projectID == "" {
		http.Error(w, "project_id is required", http.StatusBadRequest)
		return
	}

	conn, err := buildLogWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	logger := h.logger.With(zap.String("project_id", projectID))
	if err := conn.SetReadDeadline(time.Now().Add(buildLogWSPongWait)); err != nil {
		logger.Warn("build log ws set read deadline failed", zap.Error(err))
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(buildLogWSPongWait))
	})

	subCh, err := h.hub.Subscribe(ctx, projectID)
	if err != nil {
		_ = conn.SetWriteDeadline(time.Now().Add(buildLogWSWriteWait))
		_ = conn.WriteJSON(buildLogWSOutbound{
			Type:    "error",
			Code:    "invalid_argument",
			Message: err.Error(),
		})
		return
	}

	writeCh := make(chan buildLogWSOutbound, 64)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(buildLogWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(buildLogWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(buildLogWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	pushBuildLogWS(writeCh, buildLogWSOutbound{
		Type:      "subscribed",
		ProjectID: projectID,
		Events:    h.history(projectID, buildlog.Filter{}),
	})

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-subCh:
				if !ok {
					return
				}
				out := toLogEvent(ev)
				pushBuildLogWS(writeCh, buildLogWSOutbound{
					Type:      "event",
					ProjectID: projectID,
					Event:     &out,
				})
			}
		}
	}()

	for {
		var in buildLogWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		switch strings.ToLower(strings.TrimSpace(in.Type)) {
		case "ping":
			pushBuildLogWS(writeCh, buildLogWSOutbound{Type: "pong"})
		case "history":
			pushBuildLogWS(writeCh, buildLogWSOutbound{
				Type:      "history",
				ProjectID: projectID,
				Events: h.history(projectID, buildlog.Filter{
					Type: build.EventType(strings.TrimSpace(in.Level)),
					Text: in.Text,
				}),
			})
		case "clear":
			h.hub.Clear(projectID)
			pushBuildLogWS(writeCh, buildLogWSOutbound{Type: "cleared", ProjectID: projectID})
		case "":
			pushBuildLogWS(writeCh, buildLogWSOutbound{
				Type:    "error",
				Code:    "invalid_argument",
				Message: "type is required",
			})
		default:
			pushBuildLogWS(writeCh, buildLogWSOutbound{
				Type:    "error",
				Code:    "invalid_argument",
				Message: "unsupported type: " + in.Type,
			})
		}
	}
}

func (h *BuildLogHandler) history(projectID string, f buildlog.Filter) []LogEvent {
	events := h.hub.History(projectID, f)
	out := make([]LogEvent, 0, len(events))
	for _, ev := range events {
		out = append(out, toLogEvent(ev))
	}
	return out
}

// pushBuildLogWS never blocks the caller; when the writer lags the oldest
// queued message is dropped.
func pushBuildLogWS(writeCh chan buildLogWSOutbound, out buildLogWSOutbound) {
	if writeCh == nil {
		return
	}
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}
