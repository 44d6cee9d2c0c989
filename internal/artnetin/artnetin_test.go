package artnetin

import (
	"testing"

	"github.com/Haba1234/go-artnet/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/At1re/uking-dmx-controller/internal/config"
	"github.com/At1re/uking-dmx-controller/internal/logger"
)

type recordingControl struct {
	start  int
	values []int
	calls  int
}

func (r *recordingControl) SetChannels(start int, values []int) int {
	r.start = start
	r.values = values
	r.calls++
	return len(values)
}

func newTestReceiver(t *testing.T, control Control, universe uint16) *Receiver {
	t.Helper()
	log, err := logger.NewLogger(config.LogConf{Level: "error"})
	require.NoError(t, err)
	return NewReceiver(log, control, ":6454", universe)
}

func marshalDMX(t *testing.T, subUni, net uint8, data []byte) []byte {
	t.Helper()
	p := &packet.ArtDMXPacket{
		SubUni: subUni,
		Net:    net,
		Length: uint16(len(data)),
	}
	copy(p.Data[:], data)
	raw, err := p.MarshalBinary()
	require.NoError(t, err)
	return raw
}

func TestHandlePacketAppliesDMXData(t *testing.T) {
	control := &recordingControl{}
	r := newTestReceiver(t, control, 0)

	r.handlePacket(marshalDMX(t, 0, 0, []byte{255, 128, 10}))

	require.Equal(t, 1, control.calls)
	assert.Equal(t, 1, control.start)
	assert.Equal(t, []int{255, 128, 10}, control.values)
}

func TestHandlePacketIgnoresOtherUniverses(t *testing.T) {
	control := &recordingControl{}
	r := newTestReceiver(t, control, 0)

	r.handlePacket(marshalDMX(t, 3, 0, []byte{1, 2, 3}))

	assert.Zero(t, control.calls)
}

func TestHandlePacketMatchesConfiguredUniverse(t *testing.T) {
	control := &recordingControl{}
	// universe 0x0103: Net 1, SubUni 3
	r := newTestReceiver(t, control, 0x0103)

	r.handlePacket(marshalDMX(t, 3, 1, []byte{42}))

	require.Equal(t, 1, control.calls)
	assert.Equal(t, []int{42}, control.values)
}

func TestHandlePacketDropsGarbage(t *testing.T) {
	control := &recordingControl{}
	r := newTestReceiver(t, control, 0)

	r.handlePacket([]byte("definitely not art-net"))
	r.handlePacket(nil)

	assert.Zero(t, control.calls)
}
