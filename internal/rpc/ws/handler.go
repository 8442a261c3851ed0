// Package ws exposes internal/rpc's GenericServer over a plain websocket,
// for browser or CLI observers that cannot speak gRPC — a second, thin
// transport over the same envelope, grounded on the teacher's
// internal/handler/ws/delivery.go pump-loop shape (upgrade, then loop
// reading/writing JSON frames until the connection or context ends).
package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/nexosim/nexosim-go/internal/rpc"
)

// Handler upgrades each incoming HTTP request to a websocket and services
// AnyRequest/AnyReply JSON frames against one GenericServer for the
// connection's lifetime.
type Handler struct {
	logger   *slog.Logger
	generic  *rpc.GenericServer
	upgrader websocket.Upgrader
}

// New builds a Handler around an already-constructed GenericServer.
func New(logger *slog.Logger, generic *rpc.GenericServer) *Handler {
	return &Handler{
		logger:  logger,
		generic: generic,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws upgrade failed", slog.Any("err", err))
		return
	}
	defer conn.Close()

	h.logger.Info("control ws opened", slog.String("remote", r.RemoteAddr))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			h.logger.Debug("control ws closed", slog.Any("err", err))
			return
		}

		var req rpc.AnyRequest
		var reply *rpc.AnyReply
		if err := json.Unmarshal(data, &req); err != nil {
			reply = &rpc.AnyReply{Err: &rpc.Error{Code: rpc.ErrorCodeUnknownRequest, Message: "bad request: " + err.Error()}}
		} else {
			reply = h.generic.ServiceRequest(&req)
		}

		out, err := json.Marshal(reply)
		if err != nil {
			h.logger.Error("failed to marshal control reply", slog.Any("err", err))
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
			h.logger.Warn("control ws send failed", slog.Any("err", err))
			return
		}
	}
}
