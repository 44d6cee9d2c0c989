// Package artnetin is an optional Art-Net ingress. It accepts ArtDMX packets
// for a single universe over UDP and applies them to the DMX controller, so
// lighting desks that speak Art-Net can drive the USB interface directly.
package artnetin

import (
	"context"
	"errors"
	"net"

	"github.com/Haba1234/go-artnet/packet"

	"github.com/At1re/uking-dmx-controller/internal/dmx"
	"github.com/At1re/uking-dmx-controller/internal/logger"
)

// Control is the slice of the controller surface the receiver needs.
type Control interface {
	SetChannels(start int, values []int) int
}

// Receiver listens for Art-Net DMX packets on UDP.
type Receiver struct {
	log      logger.Logger
	control  Control
	bind     string
	universe uint16
	conn     *net.UDPConn
}

// NewReceiver builds an Art-Net receiver feeding the given controller.
// Only packets addressed to the configured universe are applied.
func NewReceiver(log logger.Logger, control Control, bind string, universe uint16) *Receiver {
	return &Receiver{
		log:      log,
		control:  control,
		bind:     bind,
		universe: universe,
	}
}

// Start binds the UDP socket and begins processing packets.
func (r *Receiver) Start(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp4", r.bind)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return err
	}
	r.conn = conn
	r.log.With(logger.Fields{"module": "art-net"}).Infof("listening for ArtDMX on %s (universe %d)", r.bind, r.universe)

	go func() {
		<-ctx.Done()
		r.conn.Close()
	}()
	go r.readLoop()
	return nil
}

// Stop closes the socket, which ends the read loop.
func (r *Receiver) Stop() {
	if r.conn != nil {
		r.conn.Close()
	}
}

func (r *Receiver) readLoop() {
	buf := make([]byte, 1024)
	for {
		n, _, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			r.log.With(logger.Fields{"module": "art-net"}).Errorf("read error: %v", err)
			continue
		}
		r.handlePacket(buf[:n])
	}
}

func (r *Receiver) handlePacket(raw []byte) {
	p, err := packet.Unmarshal(raw)
	if err != nil {
		r.log.With(logger.Fields{"module": "art-net"}).Debugf("dropping unparseable packet: %v", err)
		return
	}
	d, ok := p.(*packet.ArtDMXPacket)
	if !ok {
		return
	}
	// Art-Net address: Net is the high byte, SubUni the low byte.
	if uint16(d.Net)<<8|uint16(d.SubUni) != r.universe {
		return
	}

	length := int(d.Length)
	if length > dmx.NumChannels {
		length = dmx.NumChannels
	}
	values := make([]int, length)
	for i := 0; i < length; i++ {
		values[i] = int(d.Data[i])
	}
	applied := r.control.SetChannels(1, values)
	r.log.With(logger.Fields{"module": "art-net"}).Debugf("ArtDMX applied: %d channels", applied)
}
