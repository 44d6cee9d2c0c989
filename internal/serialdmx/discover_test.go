package serialdmx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/At1re/uking-dmx-controller/internal/config"
	"github.com/At1re/uking-dmx-controller/internal/logger"
)

func testLogger(t *testing.T) *logger.Log {
	t.Helper()
	log, err := logger.NewLogger(config.LogConf{Level: "error"})
	require.NoError(t, err)
	return log
}

func TestDefaultMatcher(t *testing.T) {
	tests := []struct {
		description string
		match       bool
	}{
		{"ENTTEC USB DMX PRO", true},
		{"DMXking ultraDMX Micro", true},
		{"FTDI FT232R USB UART", true},
		{"USB Serial Converter", true},
		{"generic dmx widget", true},
		{"Arduino Uno", false},
		{"Bluetooth modem", false},
		{"", false},
	}

	m := DefaultMatcher()
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			assert.Equal(t, tc.match, m.Match(tc.description))
		})
	}
}

func TestMatcherIsOrderedAndPluggable(t *testing.T) {
	var hits []string
	record := func(name string, accept bool) Predicate {
		return func(string) bool {
			hits = append(hits, name)
			return accept
		}
	}

	m := Matcher{record("first", false), record("second", true), record("third", true)}
	assert.True(t, m.Match("anything"))
	// stops at the first accepting predicate
	assert.Equal(t, []string{"first", "second"}, hits)
}

func TestDiscoverPicksFirstMatch(t *testing.T) {
	list := func() ([]PortInfo, error) {
		return []PortInfo{
			{Device: "/dev/ttyS0", Description: "motherboard serial"},
			{Device: "/dev/ttyUSB0", Description: "ENTTEC USB DMX PRO"},
			{Device: "/dev/ttyUSB1", Description: "DMXking ultraDMX"},
		}, nil
	}
	mock := NewMockPort()
	var opened []string
	open := func(device string, baud int) (Port, error) {
		opened = append(opened, device)
		return mock, nil
	}

	port, device, err := Discover(testLogger(t), list, open, DefaultMatcher(), DefaultBaudRate)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", device)
	assert.Same(t, mock, port)
	assert.Equal(t, []string{"/dev/ttyUSB0"}, opened)
}

func TestDiscoverSkipsFailedOpen(t *testing.T) {
	list := func() ([]PortInfo, error) {
		return []PortInfo{
			{Device: "/dev/ttyUSB0", Description: "ENTTEC USB DMX PRO"},
			{Device: "/dev/ttyUSB1", Description: "FTDI FT232R"},
		}, nil
	}
	mock := NewMockPort()
	open := func(device string, baud int) (Port, error) {
		if device == "/dev/ttyUSB0" {
			return nil, errors.New("device busy")
		}
		return mock, nil
	}

	port, device, err := Discover(testLogger(t), list, open, DefaultMatcher(), DefaultBaudRate)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB1", device)
	assert.Same(t, mock, port)
}

func TestDiscoverNoMatchingDevice(t *testing.T) {
	list := func() ([]PortInfo, error) {
		return []PortInfo{{Device: "/dev/ttyACM0", Description: "Arduino Uno"}}, nil
	}
	open := func(device string, baud int) (Port, error) {
		t.Fatalf("open should not be called for %s", device)
		return nil, nil
	}

	port, device, err := Discover(testLogger(t), list, open, DefaultMatcher(), DefaultBaudRate)
	assert.ErrorIs(t, err, ErrNoDevice)
	assert.Nil(t, port)
	assert.Empty(t, device)
}

func TestDiscoverAllOpensFail(t *testing.T) {
	list := func() ([]PortInfo, error) {
		return []PortInfo{{Device: "/dev/ttyUSB0", Description: "ENTTEC USB DMX PRO"}}, nil
	}
	open := func(device string, baud int) (Port, error) {
		return nil, errors.New("permission denied")
	}

	_, _, err := Discover(testLogger(t), list, open, DefaultMatcher(), DefaultBaudRate)
	assert.ErrorIs(t, err, ErrNoDevice)
}

func TestDiscoverEnumerationError(t *testing.T) {
	enumErr := errors.New("enumeration failed")
	list := func() ([]PortInfo, error) { return nil, enumErr }
	open := func(device string, baud int) (Port, error) { return nil, nil }

	_, _, err := Discover(testLogger(t), list, open, DefaultMatcher(), DefaultBaudRate)
	assert.ErrorIs(t, err, enumErr)
}

func TestOpenNonexistentDevice(t *testing.T) {
	// no real serial hardware in unit tests; opening a bogus path must fail
	// cleanly rather than hang or panic
	port, err := Open("/dev/nonexistent-serial-port-12345", DefaultBaudRate)
	assert.Error(t, err)
	assert.Nil(t, port)
}

func TestMockPortCapturesWrites(t *testing.T) {
	mock := NewMockPort()
	n, err := mock.Write([]byte{0x7E, 0x06})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte{0x7E, 0x06}, mock.Writes())
	assert.Equal(t, 1, mock.CallCount())

	require.NoError(t, mock.Close())
	_, err = mock.Write([]byte{0x00})
	assert.Error(t, err)
}
