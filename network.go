// network.go - UDP link to a physical drone

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

package dronescript

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// Transport is what the Engine needs from a physical drone connection.
type Transport interface {
	// Connected reports whether the drone has been heard from recently.
	Connected() bool
	// Discover asks the drone to identify itself.
	Discover(ctx context.Context) error
	// SendSetpoint transmits one control setpoint.
	SendSetpoint(ctx context.Context, sp Setpoint) error
	// Telemetry returns the latest known drone state.
	Telemetry() Telemetry
}

// Link is a best-effort UDP connection to a drone.  Nothing is acknowledged or retransmitted.
type Link struct {
	conn    *net.UDPConn
	peer    *net.UDPAddr
	tel     *TelemetryCache
	limiter *rate.Limiter
	log     *slog.Logger
	sendMu  sync.Mutex // serialises writes
	done    chan struct{}
}

// Dial opens the local UDP port and starts listening for telemetry from the drone.
func Dial(cfg LinkConfig, lg *slog.Logger) (*Link, error) {
	if lg == nil {
		lg = discardLogger()
	}
	def := DefaultLinkConfig()
	if cfg.SendInterval <= 0 {
		cfg.SendInterval = def.SendInterval
	}
	peer, err := net.ResolveUDPAddr("udp", net.JoinHostPort(cfg.DroneAddr, strconv.Itoa(cfg.DronePort)))
	if err != nil {
		return nil, errors.Wrap(err, "resolve drone address")
	}
	local, err := net.ResolveUDPAddr("udp", ":"+strconv.Itoa(cfg.LocalPort))
	if err != nil {
		return nil, errors.Wrap(err, "resolve local address")
	}
	conn, err := net.ListenUDP("udp", local)
	if err != nil {
		return nil, errors.Wrapf(err, "listen on UDP port %d", cfg.LocalPort)
	}

	l := &Link{
		conn:    conn,
		peer:    peer,
		tel:     NewTelemetryCache(cfg.Freshness),
		limiter: rate.NewLimiter(rate.Every(cfg.SendInterval), 1),
		log:     lg.With(slog.String("drone", peer.String())),
		done:    make(chan struct{}),
	}
	go l.listener()
	return l, nil
}

// DialDefault dials a drone on the default network addresses.
func DialDefault(lg *slog.Logger) (*Link, error) {
	return Dial(DefaultLinkConfig(), lg)
}

// LocalAddr is the address telemetry is received on.
func (l *Link) LocalAddr() *net.UDPAddr {
	return l.conn.LocalAddr().(*net.UDPAddr)
}

// Close stops the listener and releases the socket.
func (l *Link) Close() error {
	err := l.conn.Close()
	<-l.done
	return err
}

// Connected is true if telemetry arrived within the freshness window.
func (l *Link) Connected() bool {
	return l.tel.Fresh()
}

// Telemetry returns the latest telemetry received.
func (l *Link) Telemetry() Telemetry {
	return l.tel.Get()
}

// Discover sends a telemetry request; a live drone answers with telemetry.
func (l *Link) Discover(ctx context.Context) error {
	return l.send(ctx, EncodeTelemetryRequest())
}

// SendSetpoint transmits one setpoint, waiting for the next free send slot.
func (l *Link) SendSetpoint(ctx context.Context, sp Setpoint) error {
	return l.send(ctx, EncodeControlSetpoint(sp.Roll, sp.Pitch, sp.YawRate, sp.Thrust))
}

func (l *Link) send(ctx context.Context, buff []byte) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return err
	}
	l.sendMu.Lock()
	defer l.sendMu.Unlock()
	if _, err := l.conn.WriteToUDP(buff, l.peer); err != nil {
		return errors.Wrap(err, "send datagram")
	}
	return nil
}

func (l *Link) listener() {
	defer close(l.done)
	buff := make([]byte, 256)
	for {
		n, from, err := l.conn.ReadFromUDP(buff)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				l.log.Debug("telemetry listener stopped")
				return
			}
			l.log.Warn("network read error", slog.Any("error", err))
			continue
		}
		if !from.IP.Equal(l.peer.IP) {
			l.log.Debug("ignoring datagram from stranger", slog.String("from", from.String()))
			continue
		}
		if !l.tel.Update(buff[:n]) {
			l.log.Debug("unusable telemetry datagram", slog.Int("len", n), slog.Int("header", int(buff[0])))
		}
	}
}
