// Package controller ties the universe buffer, the frame encoder and the
// serial transport together behind one synchronized control surface, and owns
// the background loop that refreshes the hardware.
package controller

import (
	"errors"
	"sync"
	"time"

	"github.com/At1re/uking-dmx-controller/internal/dmx"
	"github.com/At1re/uking-dmx-controller/internal/logger"
	"github.com/At1re/uking-dmx-controller/internal/serialdmx"
)

const (
	// framePeriod is the DMX refresh cadence (~44 Hz). Frames are resent at
	// this rate whether or not channel values changed.
	framePeriod = time.Second / 44

	// stopTimeout bounds the wait for an in-flight tick during Stop. The
	// port is closed when it elapses even if a write is still hung.
	stopTimeout = 2 * time.Second
)

// Status describes the connection and transmit state.
type Status struct {
	Connected bool   `json:"connected"`
	Device    string `json:"port"`
	Running   bool   `json:"running"`
}

// Controller is the thread-safe boundary object exposed to the HTTP, MQTT
// and Art-Net ingress layers. Construct with New; nothing here runs at
// import time.
type Controller struct {
	log      logger.Logger
	universe *dmx.Universe

	// injected for tests
	open      serialdmx.OpenFunc
	enumerate serialdmx.Enumerate
	matcher   serialdmx.Matcher
	period    time.Duration
	stopWait  time.Duration

	mu      sync.Mutex
	port    serialdmx.Port
	device  string
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// New builds a disconnected controller. Call Connect to attach hardware and
// start the refresh loop.
func New(log logger.Logger) *Controller {
	return &Controller{
		log:       log,
		universe:  dmx.NewUniverse(),
		open:      serialdmx.Open,
		enumerate: serialdmx.SystemPorts,
		matcher:   serialdmx.DefaultMatcher(),
		period:    framePeriod,
		stopWait:  stopTimeout,
	}
}

// Connect attaches the DMX interface and starts the refresh loop. With an
// empty device it auto-detects by scanning attached serial ports. Reports
// whether hardware is now connected; failure is not an error condition, the
// controller simply keeps running in simulation mode where every operation
// succeeds but no bytes reach the wire.
func (c *Controller) Connect(device string, baud int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.port != nil {
		return true
	}

	var (
		port serialdmx.Port
		name = device
		err  error
	)
	if device != "" {
		port, err = c.open(device, baud)
	} else {
		port, name, err = serialdmx.Discover(c.log, c.enumerate, c.open, c.matcher, baud)
	}
	if err != nil {
		if errors.Is(err, serialdmx.ErrNoDevice) {
			c.log.With(logger.Fields{"module": "controller"}).Warn("no USB-DMX interface found, running in simulation mode")
		} else {
			c.log.With(logger.Fields{"module": "controller"}).Warnf("connection failed: %v, running in simulation mode", err)
		}
		return false
	}

	c.port = port
	c.device = name
	c.log.With(logger.Fields{"module": "controller"}).Infof("connected to DMX interface: %s", name)
	c.startLocked()
	return true
}

// SetChannel sets one channel (1..512) to the clamped value.
func (c *Controller) SetChannel(channel, value int) {
	c.universe.SetChannel(channel, value)
}

// SetChannels sets consecutive channels starting at start and returns the
// number of channels applied.
func (c *Controller) SetChannels(start int, values []int) int {
	return c.universe.SetChannels(start, values)
}

// Blackout forces every channel to zero immediately.
func (c *Controller) Blackout() {
	c.universe.Blackout()
	c.log.With(logger.Fields{"module": "controller"}).Info("blackout activated")
}

// Snapshot returns a copy of the current universe.
func (c *Controller) Snapshot() [dmx.NumChannels]byte {
	return c.universe.Snapshot()
}

// Status reports the current connection and transmit state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		Connected: c.port != nil,
		Device:    c.device,
		Running:   c.running,
	}
}

// startLocked starts the refresh loop. Idempotent; caller holds c.mu.
func (c *Controller) startLocked() {
	if c.running {
		return
	}
	c.running = true
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.transmitLoop(c.port, c.stop, c.done)
	c.log.With(logger.Fields{"module": "controller"}).Infof("DMX refresh loop started (%.0f Hz)", float64(time.Second)/float64(c.period))
}

// transmitLoop snapshots, frames and writes the universe once per period
// until stop is closed. A failed write is dropped; the next tick carries a
// fresh snapshot, which is the recovery mechanism. No retries, no backoff.
func (c *Controller) transmitLoop(port serialdmx.Port, stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			frame := dmx.Frame(c.universe.Snapshot())
			if _, err := port.Write(frame); err != nil {
				c.log.With(logger.Fields{"module": "controller"}).Debugf("frame write failed: %v", err)
			}
		}
	}
}

// Stop signals the refresh loop, waits up to stopTimeout for the tick in
// flight, then releases the serial port unconditionally. A timeout is not an
// error; closing the port is what unblocks a hung write. Safe to call more
// than once and while disconnected.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		close(c.stop)
		select {
		case <-c.done:
		case <-time.After(c.stopWait):
			c.log.With(logger.Fields{"module": "controller"}).Warn("refresh loop did not stop in time, closing port anyway")
		}
		c.running = false
	}

	if c.port != nil {
		if err := c.port.Close(); err != nil {
			c.log.With(logger.Fields{"module": "controller"}).Warnf("failed to close serial port: %v", err)
		}
		c.port = nil
		c.device = ""
	}
	c.log.With(logger.Fields{"module": "controller"}).Info("DMX controller stopped")
}
