// cmd/dronescript/stream.go - websocket relay of poses and console lines

// Copyright (C) 2018-2026  Steve Merrony

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	ds "github.com/SMerrony/dronescript"
)

// frame is one JSON message on the /stream websocket.
type frame struct {
	Type    string         `json:"type"` // "pose" or "console"
	Pose    *ds.PoseUpdate `json:"pose,omitempty"`
	Console *ds.LogEntry   `json:"console,omitempty"`
}

const (
	streamBuffer = 64
	writeTimeout = time.Second
)

// streamServer relays an engine's pose and console streams to websocket clients.
type streamServer struct {
	engine   *ds.Engine
	lg       *slog.Logger
	upgrader websocket.Upgrader
}

func newStreamServer(e *ds.Engine, lg *slog.Logger) *streamServer {
	return &streamServer{
		engine: e,
		lg:     lg,
		upgrader: websocket.Upgrader{
			EnableCompression: false,
			CheckOrigin:       func(*http.Request) bool { return true }, // local renderer only
		},
	}
}

func (ss *streamServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/stream", ss.handleStream)
	return mux
}

func (ss *streamServer) handleStream(w http.ResponseWriter, r *http.Request) {
	poses, unsubPoses := ss.engine.SubscribePoses(streamBuffer)
	defer unsubPoses()
	console, unsubConsole := ss.engine.SubscribeConsole(streamBuffer)
	defer unsubConsole()

	conn, err := ss.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ss.lg.Error("Unable to upgrade stream websocket", slog.Any("error", err))
		return
	}
	defer conn.Close()
	ss.lg.Info("stream client connected", slog.String("remote", r.RemoteAddr))

	// the client never talks, reading only notices when it goes away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				var cerr *websocket.CloseError
				if !errors.As(err, &cerr) {
					ss.lg.Debug("stream read", slog.Any("error", err))
				}
				return
			}
		}
	}()

	for {
		var f frame
		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case p, ok := <-poses:
			if !ok {
				return
			}
			f = frame{Type: "pose", Pose: &p}
		case c, ok := <-console:
			if !ok {
				return
			}
			f = frame{Type: "console", Console: &c}
		}
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(f); err != nil {
			ss.lg.Warn("stream write failed", slog.String("remote", r.RemoteAddr), slog.Any("error", err))
			return
		}
	}
}

// serve runs the stream server on addr until ctx ends.
func (ss *streamServer) serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: ss.Handler(), ReadHeaderTimeout: 5 * time.Second}
	ss.lg.Info("stream server listening", slog.String("addr", ln.Addr().String()))

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx) //nolint:errcheck
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
