package core

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/automoto/ld51/logger"
	"github.com/automoto/ld51/shared/messages"
)

// Peer is a connected client. *router.NetworkClient satisfies it.
type Peer interface {
	Id() string
	SendMessage(msg any) error
}

type member struct {
	peer      Peer
	handle    int
	spectator bool
}

// RelayStats is a point-in-time view of a relay.
type RelayStats struct {
	Players    int
	Spectators int
	Forwarded  uint64
	Dropped    uint64
}

// Relay forwards input frames between the members of one match. It never
// simulates the game; every player runs the full rollback session. The
// match starts once every seat is taken and the expected spectators have
// joined; later joins are rejected.
type Relay struct {
	matchID string
	version string
	players int

	mu         sync.RWMutex
	members    map[string]*member
	spectators int // Expected spectators
	started    bool
	forwarded  uint64
	dropped    uint64

	log *logrus.Entry
}

// NewRelay returns a relay for a match of players that waits for at least
// spectators spectators. An empty version accepts any client.
func NewRelay(players, spectators int, version string) *Relay {
	id := uuid.NewString()
	return &Relay{
		matchID:    id,
		version:    version,
		players:    players,
		spectators: spectators,
		members:    make(map[string]*member),
		log:        logger.Component("relay").WithField("match", id),
	}
}

// MatchID returns the identifier of the match.
func (r *Relay) MatchID() string {
	return r.matchID
}

// Join seats p according to req and answers with JoinAccepted or
// JoinRejected.
func (r *Relay) Join(p Peer, req messages.JoinRequest) {
	if reason := r.admit(p, req); reason != "" {
		r.log.WithFields(logrus.Fields{
			"client": p.Id(),
			"handle": req.Handle,
			"reason": reason,
		}).Warn("join rejected")
		r.send(p, messages.JoinRejected{Reason: reason})
		return
	}

	r.log.WithFields(logrus.Fields{
		"client":    p.Id(),
		"handle":    req.Handle,
		"spectator": req.Spectator,
	}).Info("client joined")
	r.send(p, messages.JoinAccepted{
		MatchID: r.matchID,
		Handle:  req.Handle,
		Players: r.players,
	})
	r.maybeStart()
}

// maybeStart announces the match to every member once it is full.
func (r *Relay) maybeStart() {
	r.mu.Lock()
	players, spectators := r.counts()
	if r.started || players < r.players || spectators < r.spectators {
		r.mu.Unlock()
		return
	}
	r.started = true
	members := make([]Peer, 0, len(r.members))
	for _, m := range r.members {
		members = append(members, m.peer)
	}
	r.mu.Unlock()

	r.log.WithFields(logrus.Fields{
		"players":    players,
		"spectators": spectators,
	}).Info("match started")
	for _, p := range members {
		r.send(p, messages.MatchStarted{MatchID: r.matchID, Spectators: spectators})
	}
}

// Started reports whether the match has started.
func (r *Relay) Started() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.started
}

func (r *Relay) admit(p Peer, req messages.JoinRequest) string {
	if r.version != "" && req.Version != r.version {
		return fmt.Sprintf("version mismatch: relay runs %q", r.version)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[p.Id()]; ok {
		return "already joined"
	}
	if r.started {
		return "match already started"
	}
	if req.Spectator {
		r.members[p.Id()] = &member{peer: p, handle: -1, spectator: true}
		return ""
	}
	if req.Handle < 0 || req.Handle >= r.players {
		return fmt.Sprintf("handle %d outside 0..%d", req.Handle, r.players-1)
	}
	for _, m := range r.members {
		if !m.spectator && m.handle == req.Handle {
			return fmt.Sprintf("handle %d is taken", req.Handle)
		}
	}
	r.members[p.Id()] = &member{peer: p, handle: req.Handle}
	r.spectators = max(r.spectators, req.Spectators)
	return ""
}

// Forward sends an input frame from a seated player to every other member.
// Frames from spectators, strangers or for another handle are dropped.
func (r *Relay) Forward(p Peer, frame messages.InputFrame) {
	r.mu.Lock()
	sender, ok := r.members[p.Id()]
	if !ok || sender.spectator || sender.handle != frame.Handle {
		r.dropped++
		r.mu.Unlock()
		return
	}
	recipients := make([]Peer, 0, len(r.members)-1)
	for id, m := range r.members {
		if id != p.Id() {
			recipients = append(recipients, m.peer)
		}
	}
	r.forwarded++
	r.mu.Unlock()

	for _, to := range recipients {
		r.send(to, frame)
	}
}

// Leave removes p from the match.
func (r *Relay) Leave(p Peer) {
	r.mu.Lock()
	m, ok := r.members[p.Id()]
	delete(r.members, p.Id())
	r.mu.Unlock()

	if ok {
		r.log.WithFields(logrus.Fields{
			"client": p.Id(),
			"handle": m.handle,
		}).Info("client left")
	}
}

// Stats returns the current member counts and traffic totals.
func (r *Relay) Stats() RelayStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st := RelayStats{Forwarded: r.forwarded, Dropped: r.dropped}
	st.Players, st.Spectators = r.counts()
	return st
}

// counts must be called with mu held.
func (r *Relay) counts() (players, spectators int) {
	for _, m := range r.members {
		if m.spectator {
			spectators++
		} else {
			players++
		}
	}
	return players, spectators
}

func (r *Relay) send(p Peer, msg any) {
	if err := p.SendMessage(msg); err != nil {
		r.log.WithField("client", p.Id()).WithError(err).Warn("send failed")
	}
}
