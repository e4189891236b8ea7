package network

import (
	"sync"

	"github.com/automoto/ld51/shared/messages"
)

// Transport moves input frames between session participants. Poll must
// not block.
type Transport interface {
	Send(msg messages.InputFrame) error
	Poll() []messages.InputFrame
}

// Loopback is an in-memory hub connecting sessions in one process. Every
// frame sent by an endpoint is delivered to all other endpoints.
type Loopback struct {
	mu        sync.Mutex
	endpoints []*LoopbackEndpoint
}

// NewLoopback returns an empty hub.
func NewLoopback() *Loopback {
	return &Loopback{}
}

// Endpoint attaches a new participant to the hub.
func (l *Loopback) Endpoint() *LoopbackEndpoint {
	l.mu.Lock()
	defer l.mu.Unlock()
	ep := &LoopbackEndpoint{hub: l}
	l.endpoints = append(l.endpoints, ep)
	return ep
}

func (l *Loopback) broadcast(from *LoopbackEndpoint, msg messages.InputFrame) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, ep := range l.endpoints {
		if ep == from {
			continue
		}
		if ep.held {
			ep.pending = append(ep.pending, msg)
		} else {
			ep.inbox = append(ep.inbox, msg)
		}
	}
}

// LoopbackEndpoint is one participant of a Loopback hub.
type LoopbackEndpoint struct {
	hub     *Loopback
	inbox   []messages.InputFrame
	pending []messages.InputFrame
	held    bool
	closed  bool
}

// Send delivers msg to every other endpoint.
func (e *LoopbackEndpoint) Send(msg messages.InputFrame) error {
	e.hub.mu.Lock()
	closed := e.closed
	e.hub.mu.Unlock()
	if closed {
		return ErrNotConnected
	}
	e.hub.broadcast(e, msg)
	return nil
}

// Poll returns the frames delivered since the last call.
func (e *LoopbackEndpoint) Poll() []messages.InputFrame {
	e.hub.mu.Lock()
	defer e.hub.mu.Unlock()
	out := e.inbox
	e.inbox = nil
	return out
}

// Hold delays delivery to e until Release.
func (e *LoopbackEndpoint) Hold() {
	e.hub.mu.Lock()
	defer e.hub.mu.Unlock()
	e.held = true
}

// Release delivers the held frames in order and resumes delivery.
func (e *LoopbackEndpoint) Release() {
	e.hub.mu.Lock()
	defer e.hub.mu.Unlock()
	e.held = false
	e.inbox = append(e.inbox, e.pending...)
	e.pending = nil
}

// Close stops e from sending, as if its process went away.
func (e *LoopbackEndpoint) Close() {
	e.hub.mu.Lock()
	defer e.hub.mu.Unlock()
	e.closed = true
}
