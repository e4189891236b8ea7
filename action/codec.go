package action

// EncodedSize is the width of an encoded action in bytes.
const EncodedSize = 3

// Encoded is the fixed-width form of an Action shared by the network input
// and the replay log: [tag, x, y].
type Encoded [EncodedSize]byte

// Encode returns the 3-byte form of a. Coordinates are written as zero for
// tags that carry none, and an unassigned tag encodes as Empty.
func Encode(a Action) Encoded {
	if !a.Tag.Valid() {
		return Encoded{}
	}
	if !a.Tag.HasCoords() {
		return Encoded{byte(a.Tag)}
	}
	return Encoded{byte(a.Tag), a.X, a.Y}
}

// Decode returns the action held in e. Decode never fails: an unassigned
// tag byte decodes to Empty so every peer interprets every input alike.
func Decode(e Encoded) Action {
	t := Tag(e[0])
	if !t.Valid() {
		return Empty
	}
	if !t.HasCoords() {
		return Action{Tag: t}
	}
	return Action{Tag: t, X: e[1], Y: e[2]}
}

// DecodeBytes decodes the first EncodedSize bytes of b. Short input
// decodes to Empty.
func DecodeBytes(b []byte) Action {
	if len(b) < EncodedSize {
		return Empty
	}
	return Decode(Encoded{b[0], b[1], b[2]})
}

// Bytes returns e as a slice.
func (e Encoded) Bytes() []byte {
	return []byte{e[0], e[1], e[2]}
}
