package grovepwmd

import (
	"slices"
	"sync"

	"github.com/mdouchement/logger"
)

type DummyWrite struct {
	Addr     uint16
	Register byte
	Data     []byte
}

// A DummyBus should only be used for dev & tests.
type DummyBus struct {
	sync   sync.Mutex
	writes []DummyWrite
	err    error
	log    logger.Logger
}

func NewDummyBus() *DummyBus {
	return &DummyBus{}
}

func (b *DummyBus) SetLogger(l logger.Logger) {
	b.log = l
}

// Fail makes all the following writes fail with err, nil restores the bus.
func (b *DummyBus) Fail(err error) {
	b.sync.Lock()
	defer b.sync.Unlock()

	b.err = err
}

func (b *DummyBus) String() string {
	return "x-testing"
}

func (b *DummyBus) WriteBlock(addr uint16, reg byte, data []byte) error {
	b.sync.Lock()
	defer b.sync.Unlock()

	if b.err != nil {
		return b.err
	}

	b.writes = append(b.writes, DummyWrite{
		Addr:     addr,
		Register: reg,
		Data:     slices.Clone(data),
	})

	if b.log != nil {
		b.log.Debugf("[dummy] addr: 0x%02x, reg: 0x%02x, data: %v", addr, reg, data)
	}
	return nil
}

// Writes returns a copy of all the recorded block writes.
func (b *DummyBus) Writes() []DummyWrite {
	b.sync.Lock()
	defer b.sync.Unlock()

	return slices.Clone(b.writes)
}
