package network

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/leap-fish/necs/router"
	"github.com/leap-fish/necs/transports"
	"github.com/sirupsen/logrus"

	"github.com/automoto/ld51/logger"
	"github.com/automoto/ld51/shared/messages"
)

const relayWriteTimeout = 2 * time.Second

// RelayClient is a Transport over a websocket connection to the input
// relay. All shared fields are protected by mu (router callbacks run on
// necs goroutines).
type RelayClient struct {
	mu sync.Mutex

	conn    *websocket.Conn
	inbox   []messages.InputFrame
	matchID string
	players int

	joinCh  chan error // Result of the join handshake
	startCh chan error // Match start, or the disconnect that prevented it
	log     *logrus.Entry
}

// DialRelay connects to the relay at address and joins the match with req.
// It returns once the relay accepted or rejected the request.
func DialRelay(ctx context.Context, address string, req messages.JoinRequest) (*RelayClient, error) {
	c := &RelayClient{
		joinCh:  make(chan error, 1),
		startCh: make(chan error, 1),
		log:     logger.Component("relay-client").WithField("address", address),
	}

	router.OnConnect(func(_ *router.NetworkClient) {
		c.log.Info("connected to relay")
		if err := c.write(req); err != nil {
			c.finishJoin(fmt.Errorf("send join request: %w", err))
		}
	})

	router.On(func(_ *router.NetworkClient, msg messages.JoinAccepted) {
		c.log.WithFields(logrus.Fields{
			"match":   msg.MatchID,
			"players": msg.Players,
		}).Info("join accepted")
		c.mu.Lock()
		c.matchID = msg.MatchID
		c.players = msg.Players
		c.mu.Unlock()
		c.finishJoin(nil)
	})

	router.On(func(_ *router.NetworkClient, msg messages.JoinRejected) {
		c.log.WithField("reason", msg.Reason).Warn("join rejected")
		c.finishJoin(fmt.Errorf("join rejected: %s", msg.Reason))
	})

	router.On(func(_ *router.NetworkClient, msg messages.MatchStarted) {
		c.log.WithField("spectators", msg.Spectators).Info("match started")
		c.finishStart(nil)
	})

	router.On(func(_ *router.NetworkClient, msg messages.InputFrame) {
		c.mu.Lock()
		c.inbox = append(c.inbox, msg)
		c.mu.Unlock()
	})

	router.OnDisconnect(func(_ *router.NetworkClient, err error) {
		c.log.WithError(err).Warn("disconnected from relay")
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		c.finishJoin(ErrNotConnected)
		c.finishStart(ErrNotConnected)
	})

	router.OnError(func(_ *router.NetworkClient, err error) {
		c.log.WithError(err).Warn("relay error")
	})

	go func() {
		url := address
		if !strings.Contains(url, "://") {
			url = "ws://" + url
		}
		transport := transports.NewWsClientTransport(url)
		err := transport.Start(func(conn *websocket.Conn) {
			c.mu.Lock()
			c.conn = conn
			c.mu.Unlock()
		})
		if err != nil {
			c.finishJoin(fmt.Errorf("connection failed: %w", err))
		}
	}()

	select {
	case err := <-c.joinCh:
		if err != nil {
			c.Close()
			return nil, err
		}
		return c, nil
	case <-ctx.Done():
		c.Close()
		return nil, ctx.Err()
	}
}

func (c *RelayClient) finishJoin(err error) {
	select {
	case c.joinCh <- err:
	default:
	}
}

func (c *RelayClient) finishStart(err error) {
	select {
	case c.startCh <- err:
	default:
	}
}

// WaitStarted blocks until the relay announces that every seat is taken.
// Inputs sent before that may reach only part of the match.
func (c *RelayClient) WaitStarted(ctx context.Context) error {
	select {
	case err := <-c.startCh:
		if err != nil {
			return err
		}
		c.finishStart(nil)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MatchID returns the identifier assigned by the relay.
func (c *RelayClient) MatchID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.matchID
}

// Players returns the player count of the match.
func (c *RelayClient) Players() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.players
}

// Send writes msg to the relay.
func (c *RelayClient) Send(msg messages.InputFrame) error {
	return c.write(msg)
}

// Poll returns the frames received since the last call.
func (c *RelayClient) Poll() []messages.InputFrame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.inbox
	c.inbox = nil
	return out
}

// Close drops the connection and the router callbacks.
func (c *RelayClient) Close() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		_ = conn.CloseNow()
	}

	router.ResetRouter()
}

func (c *RelayClient) write(msg any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return ErrNotConnected
	}

	payload, err := router.Serialize(msg)
	if err != nil {
		return fmt.Errorf("serialize: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), relayWriteTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageBinary, payload)
}
