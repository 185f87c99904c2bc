package rcon

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// PacketType identifies the kind of an RCON frame, as defined by the
// Minecraft RCON protocol.
type PacketType int32

const (
	PacketTypeError   PacketType = -1  // carried on a response whose id is -1
	PacketTypeMulti   PacketType = 0   // response continuation
	PacketTypeCommand PacketType = 2   // command execution request
	PacketTypeAuth    PacketType = 3   // authentication request
	PacketTypeDummy   PacketType = 200 // client-side multi-packet terminator trick
)

// packetMetadataSize is the size, in bytes, of everything in a frame after
// the length prefix except the body: id (4) + type (4) + two null bytes (2).
const packetMetadataSize = 10

// maxPacketSize bounds the length field to guard against a corrupt or
// malicious length prefix causing an unbounded allocation.
const maxPacketSize = 1 << 20

// packet is one decoded RCON frame.
type packet struct {
	ID   int32
	Type PacketType
	Body string
}

// encodePacket serializes a frame as
// length(i32 le) id(i32 le) type(i32 le) body(utf8) 0x00 0x00, where
// length = len(body) + packetMetadataSize.
func encodePacket(id int32, typ PacketType, body string) []byte {
	bodyBytes := []byte(body)
	length := int32(len(bodyBytes) + packetMetadataSize)

	buf := bytes.NewBuffer(make([]byte, 0, 4+length))
	_ = binary.Write(buf, binary.LittleEndian, length)
	_ = binary.Write(buf, binary.LittleEndian, id)
	_ = binary.Write(buf, binary.LittleEndian, int32(typ))
	buf.Write(bodyBytes)
	buf.WriteByte(0)
	buf.WriteByte(0)
	return buf.Bytes()
}

// readPacket reads exactly one frame from r: 4 bytes of length, then exactly
// length bytes of id+type+body+terminator. A short read anywhere is reported
// as ErrProtocolError, since the server closed or truncated mid-frame; any
// other read error (a deadline expiry, a reset) is returned unchanged.
//
// Bodies are decoded as UTF-8 on a best-effort basis: Minecraft has been
// observed to emit invalid byte sequences in command output, and a decode
// failure there must not take down the connection.
func readPacket(r io.Reader) (*packet, error) {
	lengthBuf := make([]byte, 4)
	if _, err := io.ReadFull(r, lengthBuf); err != nil {
		if err != io.EOF && err != io.ErrUnexpectedEOF {
			return nil, err
		}
		return nil, fmt.Errorf("%w: reading frame length: %v", ErrProtocolError, err)
	}

	length := int32(binary.LittleEndian.Uint32(lengthBuf))
	if length < packetMetadataSize || length > maxPacketSize {
		return nil, fmt.Errorf("%w: implausible frame length %d", ErrProtocolError, length)
	}

	rest := make([]byte, length)
	if _, err := io.ReadFull(r, rest); err != nil {
		if err != io.EOF && err != io.ErrUnexpectedEOF {
			return nil, err
		}
		return nil, fmt.Errorf("%w: reading frame body: %v", ErrProtocolError, err)
	}

	id := int32(binary.LittleEndian.Uint32(rest[0:4]))
	typ := PacketType(int32(binary.LittleEndian.Uint32(rest[4:8])))

	// Body is everything between the 8-byte header and the two trailing
	// null bytes. Embedded nulls inside the body itself are preserved.
	body := rest[8 : len(rest)-2]

	return &packet{ID: id, Type: typ, Body: decodeLossy(body)}, nil
}

// decodeLossy converts body to a string without validating it: string(b)
// never fails and carries any invalid UTF-8 byte sequence through unchanged,
// so malformed command output never becomes a decode error.
func decodeLossy(b []byte) string {
	return string(b)
}
