package dmx

import (
	"encoding/binary"
)

// Enttec USB DMX Pro framing. The byte layout is a hardware-interop contract
// shared with every adapter in that family; do not change it.
const (
	frameStart   = 0x7E // start-of-message delimiter
	frameEnd     = 0xE7 // end-of-message delimiter
	labelSendDMX = 0x06 // "output only send DMX packet" label
	dmxStartCode = 0x00 // DMX512 null start code

	// FrameSize is the length of a framed full universe:
	// start + label + 2 length bytes + start code + 512 channels + end.
	FrameSize = NumChannels + 6
)

// Frame encodes a universe snapshot as an Enttec USB DMX Pro message:
//
//	0x7E 0x06 <len LSB> <len MSB> 0x00 <512 channel values> 0xE7
//
// The length field covers the start code plus the channel data (513, little
// endian). Encoding cannot fail; the snapshot is well-formed by construction.
func Frame(snapshot [NumChannels]byte) []byte {
	var length [2]byte
	binary.LittleEndian.PutUint16(length[:], uint16(NumChannels+1))

	frame := make([]byte, 0, FrameSize)
	frame = append(frame, frameStart, labelSendDMX, length[0], length[1], dmxStartCode)
	frame = append(frame, snapshot[:]...)
	frame = append(frame, frameEnd)
	return frame
}
