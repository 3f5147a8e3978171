package sensors

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// DefaultIIOIndex maps each monitored input onto an 8-channel Linux IIO ADC.
var DefaultIIOIndex = map[Channel]int{
	ChannelTempInlet:      0,
	ChannelTempOutlet:     1,
	ChannelTempAmbient:    2,
	ChannelTempCompressor: 3,
	ChannelVoltage:        4,
	ChannelCurrent:        5,
	ChannelPressureHigh:   6,
	ChannelPressureLow:    7,
}

// IIOSource samples an ADC exposed through the Linux industrial I/O sysfs
// interface (in_voltage<N>_raw). A failed read yields 0 and marks the
// channel as failed until TakeFailed is called.
type IIOSource struct {
	dir   string
	index map[Channel]int

	mu     sync.Mutex
	failed map[Channel]error
}

func NewIIOSource(dir string, index map[Channel]int) *IIOSource {
	if index == nil {
		index = DefaultIIOIndex
	}
	return &IIOSource{dir: dir, index: index}
}

func (s *IIOSource) ReadRaw(ch Channel) int {
	n, ok := s.index[ch]
	if !ok {
		s.fail(ch, fmt.Errorf("channel %d has no iio mapping", ch))
		return 0
	}
	b, err := os.ReadFile(filepath.Join(s.dir, fmt.Sprintf("in_voltage%d_raw", n)))
	if err != nil {
		s.fail(ch, err)
		return 0
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		s.fail(ch, fmt.Errorf("parse in_voltage%d_raw: %w", n, err))
		return 0
	}
	return v
}

// TakeFailed returns the channels that failed since the last call, with the
// first error seen on each, and clears them. It returns nil when every read
// succeeded.
func (s *IIOSource) TakeFailed() map[Channel]error {
	s.mu.Lock()
	defer s.mu.Unlock()
	failed := s.failed
	s.failed = nil
	return failed
}

func (s *IIOSource) fail(ch Channel, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed == nil {
		s.failed = make(map[Channel]error)
	}
	if _, seen := s.failed[ch]; !seen {
		s.failed[ch] = err
	}
}
