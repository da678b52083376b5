package wire

import "encoding/binary"

// Ring frame types (spec.md §4.5 / §6).
const (
	FrameConnectivityProbe uint8 = 1 // discover CS ids
	FrameCreateRemote      uint8 = 2 // create remote worker thread
	FrameDeliverOutbox     uint8 = 3 // deliver mailbox outbox
	FrameBroadcastReady    uint8 = 4 // broadcast "mailbox N ready" (ITC_ANYWHERE)
)

// Status codes carried on reply frames.
const (
	StatusOK               uint8 = 1
	StatusNotFound         uint8 = 0
	StatusRecipientNotReady uint8 = 2
)

// MaxPayloadSize bounds a single ring frame's payload, matching the
// original CS's 512-byte payload scratch buffer (original_source/xtask/src/comserver.c).
const MaxPayloadSize = 512

// RingFrame is the wire frame carried by the ring bus: a FrameHeaderLen
// (10-byte) header (origin_cs_id, msg_type, status, payload_size) followed
// by payload_size bytes (spec.md §6).
type RingFrame struct {
	Origin      uint32
	Type        uint8
	Status      uint8
	PayloadSize uint32
	Payload     []byte
}

// FrameHeaderLen is the wire length of the fixed header: origin (4 bytes),
// type (1 byte), status (1 byte), payload_size (4 bytes).
const FrameHeaderLen = 10

// MarshalFrame encodes f as a length-prefixed byte stream: 4-byte origin,
// 1-byte type, 1-byte status, 4-byte payload_size, then the payload bytes.
func MarshalFrame(f RingFrame) []byte {
	buf := make([]byte, 10+len(f.Payload))
	binary.LittleEndian.PutUint32(buf[0:4], f.Origin)
	buf[4] = f.Type
	buf[5] = f.Status
	binary.LittleEndian.PutUint32(buf[6:10], uint32(len(f.Payload)))
	copy(buf[10:], f.Payload)
	return buf
}

// UnmarshalFrame decodes a RingFrame from its wire form.
func UnmarshalFrame(data []byte) (RingFrame, error) {
	if len(data) < 10 {
		return RingFrame{}, ErrShortBuffer
	}
	size := binary.LittleEndian.Uint32(data[6:10])
	if size > MaxPayloadSize {
		return RingFrame{}, ErrPayloadTooBig
	}
	if uint32(len(data)-10) < size {
		return RingFrame{}, ErrShortBuffer
	}
	payload := make([]byte, size)
	copy(payload, data[10:10+size])
	return RingFrame{
		Origin:      binary.LittleEndian.Uint32(data[0:4]),
		Type:        data[4],
		Status:      data[5],
		PayloadSize: size,
		Payload:     payload,
	}, nil
}
