// Package dmx holds the in-memory model of a single DMX512 universe and the
// wire framing used to push it to a USB-DMX interface.
package dmx

import (
	"sync"
)

// NumChannels is the number of addressable channels in one DMX512 universe.
const NumChannels = 512

// Universe is the 512-channel value buffer shared between the control surface
// and the transmit loop. All access goes through the methods below; writes and
// snapshots are exclusive over the whole buffer so the transmit loop never
// observes a half-applied update.
type Universe struct {
	mu   sync.RWMutex
	data [NumChannels]byte
}

// NewUniverse returns a universe with all channels at zero.
func NewUniverse() *Universe {
	return &Universe{}
}

// SetChannel stores the clamped value at the given channel (1..512).
// Out-of-range channels are a silent no-op: a bad address from a controller
// must never take down the refresh loop.
func (u *Universe) SetChannel(channel, value int) {
	if channel < 1 || channel > NumChannels {
		return
	}
	u.mu.Lock()
	u.data[channel-1] = clamp(value)
	u.mu.Unlock()
}

// SetChannels applies values to consecutive channels starting at start,
// following the same clamp/no-op rule per channel. Entries that fall outside
// 1..512 are dropped. Returns the number of channels actually written.
func (u *Universe) SetChannels(start int, values []int) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	applied := 0
	for i, v := range values {
		ch := start + i
		if ch < 1 || ch > NumChannels {
			continue
		}
		u.data[ch-1] = clamp(v)
		applied++
	}
	return applied
}

// Blackout resets every channel to zero in one step.
func (u *Universe) Blackout() {
	u.mu.Lock()
	u.data = [NumChannels]byte{}
	u.mu.Unlock()
}

// Snapshot returns a copy of all 512 channel values. The copy is the caller's
// to keep; later writes to the universe do not affect it.
func (u *Universe) Snapshot() [NumChannels]byte {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.data
}

func clamp(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
