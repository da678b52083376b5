// Package wire implements xtask's two fixed-width wire formats: the
// management message exchanged between a kernel and its Communication
// Server, and the ring frame exchanged between Communication Servers.
// Both are hand-marshaled with encoding/binary the way the block-device runner's
// internal/uapi/marshal.go hand-marshals fixed kernel-UAPI structs, because
// both formats are fixed-size C-style records (spec.md §6), not a case for
// a general-purpose codec.
package wire

import (
	"encoding/binary"

	"github.com/xtask-project/xtask/internal/constants"
)

// Message is the fixed six-parameter management message record (spec.md
// §3): bidirectional, cmd identifies a request on the forward path (kernel
// to CS) and a notification category on the reverse (CS to kernel).
type Message struct {
	Cmd uint32
	P0  uint32
	P1  uint32
	P2  uint32
	P3  uint32
	P4  uint32
	P5  uint32
}

// MessageByteLen is the wire length of a Message: 7 little-endian uint32 words.
const MessageByteLen = constants.ManagementMessageWords * 4

// Marshal encodes m as 7 little-endian uint32 words.
func Marshal(m Message) []byte {
	buf := make([]byte, MessageByteLen)
	binary.LittleEndian.PutUint32(buf[0:4], m.Cmd)
	binary.LittleEndian.PutUint32(buf[4:8], m.P0)
	binary.LittleEndian.PutUint32(buf[8:12], m.P1)
	binary.LittleEndian.PutUint32(buf[12:16], m.P2)
	binary.LittleEndian.PutUint32(buf[16:20], m.P3)
	binary.LittleEndian.PutUint32(buf[20:24], m.P4)
	binary.LittleEndian.PutUint32(buf[24:28], m.P5)
	return buf
}

// Unmarshal decodes a Message from its wire form.
func Unmarshal(data []byte) (Message, error) {
	if len(data) < MessageByteLen {
		return Message{}, ErrShortBuffer
	}
	return Message{
		Cmd: binary.LittleEndian.Uint32(data[0:4]),
		P0:  binary.LittleEndian.Uint32(data[4:8]),
		P1:  binary.LittleEndian.Uint32(data[8:12]),
		P2:  binary.LittleEndian.Uint32(data[12:16]),
		P3:  binary.LittleEndian.Uint32(data[16:20]),
		P4:  binary.LittleEndian.Uint32(data[20:24]),
		P5:  binary.LittleEndian.Uint32(data[24:28]),
	}, nil
}

// wireError mirrors the block-device runner's MarshalError: a string-backed error type for
// the small, fixed set of framing failures this package can produce.
type wireError string

func (e wireError) Error() string { return string(e) }

const (
	ErrShortBuffer  wireError = "wire: buffer too short to decode"
	ErrPayloadTooBig wireError = "wire: payload_size exceeds frame limit"
)
