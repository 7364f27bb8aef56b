// Package remote accepts OSC control messages so external gear can start
// and stop performances.
package remote

import (
	"context"
	"net"
	"sync"

	"github.com/gruntwork-io/go-commons/errors"
	"github.com/hypebeast/go-osc/osc"
	"github.com/sirupsen/logrus"

	"github.com/joeberkovitz/gmnx-viewer/logger"
)

// Addresses the server answers on. Play takes an optional int32 performance
// index and defaults to the first performance.
const (
	PlayAddress = "/gmnx/play"
	StopAddress = "/gmnx/stop"
)

// Controller is the slice of the engine the OSC surface drives.
type Controller interface {
	Play(index int) error
	StopAll()
}

// Server listens for OSC control messages over UDP.
type Server struct {
	addr string
	ctrl Controller
	log  *logrus.Entry

	mu    sync.Mutex
	bound net.Addr
}

// NewServer creates a new Server object that will listen on addr.
func NewServer(addr string, ctrl Controller) *Server {
	return &Server{
		addr: addr,
		ctrl: ctrl,
		log:  logger.GetProjectLogger().WithField("addr", addr),
	}
}

// LocalAddr returns the bound address once the server is listening.
func (s *Server) LocalAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bound
}

// ListenAndServe serves OSC packets until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	conn, err := net.ListenPacket("udp", s.addr)
	if err != nil {
		return errors.WithStackTrace(err)
	}
	s.mu.Lock()
	s.bound = conn.LocalAddr()
	s.mu.Unlock()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
			conn.Close()
		}
	}()

	s.log.Info("osc control listening")
	srv := &osc.Server{Addr: s.addr, Dispatcher: &dispatcher{ctrl: s.ctrl, log: s.log}}
	err = srv.Serve(conn)
	if ctx.Err() != nil {
		// the canceled context closed the connection
		return nil
	}
	return err
}

// dispatcher routes incoming packets to the controller.
type dispatcher struct {
	ctrl Controller
	log  *logrus.Entry
}

func (d *dispatcher) Dispatch(packet osc.Packet) {
	if packet == nil {
		return
	}
	switch packet := packet.(type) {
	case *osc.Message:
		d.message(packet)
	case *osc.Bundle:
		for _, msg := range packet.Messages {
			d.message(msg)
		}
	}
}

func (d *dispatcher) message(msg *osc.Message) {
	switch msg.Address {
	case PlayAddress:
		var index int32
		if len(msg.Arguments) > 0 {
			if v, ok := msg.Arguments[0].(int32); ok {
				index = v
			}
		}
		if err := d.ctrl.Play(int(index)); err != nil {
			d.log.Warnf("osc play %d: %v", index, err)
			return
		}
		d.log.WithField("index", index).Info("osc play")
	case StopAddress:
		d.ctrl.StopAll()
		d.log.Info("osc stop")
	default:
		d.log.WithField("address", msg.Address).Debug("ignoring osc message")
	}
}
