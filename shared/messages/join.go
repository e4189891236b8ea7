package messages

// JoinRequest is sent by a client after connecting to request a seat in the
// match. Spectators receive every input and send none. Spectators is the
// number of spectators a player expects; the match waits for them.
type JoinRequest struct {
	Version    string
	Handle     int
	Spectator  bool
	Spectators int
}

// JoinAccepted is sent by the relay when a client's join request is accepted.
type JoinAccepted struct {
	MatchID string
	Handle  int
	Players int
}

// JoinRejected is sent by the relay when a client's join request is rejected.
type JoinRejected struct {
	Reason string
}

// MatchStarted is sent to every member once all seats and expected
// spectators are taken. Clients must not send inputs before it.
type MatchStarted struct {
	MatchID    string
	Spectators int
}
