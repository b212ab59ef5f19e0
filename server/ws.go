// Copyright 2019 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

const wsWriteWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the repl page may be served from anywhere
	CheckOrigin: func(r *http.Request) bool { return true },
}

// replSocket serves GET /api/repl. Every text frame carries one SQL
// statement and gets one reply envelope back, the session lives until
// the client hangs up or the server closes.
func (s *Server) replSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("upgrade repl session failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}

	s.trackWSConn(conn)
	wsConnectionGauge.Inc()
	log.Info("repl session opened", zap.String("remote", conn.RemoteAddr().String()))

	defer func() {
		s.untrackWSConn(conn)
		wsConnectionGauge.Dec()
		conn.Close()
		log.Info("repl session closed", zap.String("remote", conn.RemoteAddr().String()))
	}()

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("repl session aborted", zap.String("remote", conn.RemoteAddr().String()), zap.Error(err))
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var resp *ExecuteResponse
		sql := strings.TrimSpace(string(payload))
		if sql == "" {
			resp = &ExecuteResponse{Success: false, Error: "no sql provided"}
		} else {
			_, resp = s.runStatement(sql)
		}

		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(resp); err != nil {
			log.Warn("write repl reply failed", zap.String("remote", conn.RemoteAddr().String()), zap.Error(err))
			return
		}
	}
}

func (s *Server) trackWSConn(conn *websocket.Conn) {
	s.wsMu.Lock()
	s.wsConns[conn] = struct{}{}
	s.wsMu.Unlock()
}

func (s *Server) untrackWSConn(conn *websocket.Conn) {
	s.wsMu.Lock()
	delete(s.wsConns, conn)
	s.wsMu.Unlock()
}

// closeWSConns hangs up every open repl session so Shutdown does not
// wait on hijacked connections.
func (s *Server) closeWSConns() {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()

	for conn := range s.wsConns {
		deadline := time.Now().Add(wsWriteWait)
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
		if err := conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil && err != websocket.ErrCloseSent {
			log.Warn("send close to repl session failed", zap.Error(err))
		}
		conn.Close()
	}
}
