package core

import (
	"time"

	"github.com/leap-fish/necs/router"
	"github.com/leap-fish/necs/transports"

	"github.com/automoto/ld51/logger"
	"github.com/automoto/ld51/shared/messages"
)

// Server accepts websocket clients and relays their inputs
type Server struct {
	relay     *Relay
	loop      *StatsLoop
	transport *transports.WsServerTransport
}

// NewServer creates a relay server for a match of players, waiting for at
// least spectators spectators before the match starts
func NewServer(players, spectators int, version string, statsInterval time.Duration) *Server {
	s := &Server{
		relay: NewRelay(players, spectators, version),
	}
	s.loop = NewStatsLoop(s.relay, statsInterval)

	// Register router callbacks
	s.setupRouterCallbacks()

	return s
}

// Start begins the server on the given port
func (s *Server) Start(port uint) error {
	go s.loop.Run()

	// Create and start WebSocket transport
	s.transport = transports.NewWsServerTransport(port, "", nil)
	return s.transport.Start()
}

// Stop gracefully shuts down the server
func (s *Server) Stop() {
	s.loop.Stop()
}

// Relay returns the match relay
func (s *Server) Relay() *Relay {
	return s.relay
}

func (s *Server) setupRouterCallbacks() {
	log := logger.Component("server")

	router.OnConnect(func(client *router.NetworkClient) {
		log.WithField("client", client.Id()).Info("client connected")
	})

	router.OnDisconnect(func(client *router.NetworkClient, err error) {
		entry := log.WithField("client", client.Id())
		if err != nil {
			entry = entry.WithError(err)
		}
		entry.Info("client disconnected")
		s.relay.Leave(client)
	})

	router.On(func(client *router.NetworkClient, req messages.JoinRequest) {
		s.relay.Join(client, req)
	})

	router.On(func(client *router.NetworkClient, frame messages.InputFrame) {
		s.relay.Forward(client, frame)
	})

	router.OnError(func(client *router.NetworkClient, err error) {
		log.WithError(err).Warn("client error")
	})
}
