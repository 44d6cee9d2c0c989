package serialdmx

import (
	"errors"
	"strings"

	"go.bug.st/serial/enumerator"

	"github.com/At1re/uking-dmx-controller/internal/logger"
)

// ErrNoDevice is returned by Discover when no attached serial device matches
// a known USB-DMX adapter family. Callers treat it as "run without hardware",
// not as a fault.
var ErrNoDevice = errors.New("no USB-DMX interface found")

// PortInfo describes one enumerated serial device.
type PortInfo struct {
	Device      string // Device - serial device path, e.g. /dev/ttyUSB0.
	Description string // Description - human-readable product description.
}

// Enumerate lists the serial devices currently attached. Injected so
// discovery can be tested without hardware.
type Enumerate func() ([]PortInfo, error)

// SystemPorts enumerates real serial devices via the OS.
func SystemPorts() ([]PortInfo, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}
	infos := make([]PortInfo, 0, len(ports))
	for _, p := range ports {
		desc := p.Product
		if desc == "" {
			desc = p.Name
		}
		infos = append(infos, PortInfo{Device: p.Name, Description: desc})
	}
	return infos, nil
}

// Predicate reports whether a port description identifies a usable adapter.
type Predicate func(description string) bool

// Matcher is an ordered list of predicates tried against each enumerated
// port's description. Keeping the heuristic as data makes it testable and
// extensible without touching the discovery loop.
type Matcher []Predicate

// Match reports whether any predicate accepts the description.
func (m Matcher) Match(description string) bool {
	for _, p := range m {
		if p(description) {
			return true
		}
	}
	return false
}

// Contains builds a case-insensitive substring predicate.
func Contains(keyword string) Predicate {
	keyword = strings.ToLower(keyword)
	return func(description string) bool {
		return strings.Contains(strings.ToLower(description), keyword)
	}
}

// DefaultMatcher recognizes the common USB-DMX adapter families.
func DefaultMatcher() Matcher {
	return Matcher{
		Contains("dmx"),
		Contains("enttec"),
		Contains("ftdi"),
		Contains("dmxking"),
		Contains("usb serial"),
	}
}

// Discover scans the attached serial devices and connects to the first one
// whose description matches. Devices that match but fail to open are skipped.
// Returns ErrNoDevice when nothing matches or every attempt fails.
func Discover(log logger.Logger, list Enumerate, open OpenFunc, match Matcher, baud int) (Port, string, error) {
	ports, err := list()
	if err != nil {
		return nil, "", err
	}

	for _, p := range ports {
		log.With(logger.Fields{"module": "serial"}).Debugf("found port %s (%s)", p.Device, p.Description)
		if !match.Match(p.Description) {
			continue
		}
		port, err := open(p.Device, baud)
		if err != nil {
			log.With(logger.Fields{"module": "serial"}).Warnf("failed to open %s: %v", p.Device, err)
			continue
		}
		return port, p.Device, nil
	}
	return nil, "", ErrNoDevice
}
