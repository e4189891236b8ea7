package messages

// InputFrame carries a run of one player's encoded actions starting at
// Frame. Senders repeat every input a peer has not acknowledged yet, so a
// lost or early message is recovered by the next one. A sender may attach
// the checksum of a frame whose state it holds as final.
type InputFrame struct {
	Handle int       // Player handle of the sender
	Frame  int       // Frame of Inputs[0]
	Inputs [][3]byte // Encoded actions for Frame, Frame+1, ...
	// Acks[h] is the highest frame through which the sender holds every
	// input of player h.
	Acks          []int
	HasChecksum   bool
	ChecksumFrame int
	Checksum      uint64
}
