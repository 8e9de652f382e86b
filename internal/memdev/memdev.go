// Package memdev implements an in-memory ecsfs.BlockDevice over a plain
// byte slice, grounded on the fake block devices soypat/fat's test suite
// uses to exercise the library without a real file (BytesBlocks/BlockMap),
// promoted here to a real package since ecsfs treats an in-memory image as
// a first-class collaborator, not just a test fixture.
package memdev

import (
	"errors"
	"fmt"
)

// BlockSize matches ecsfs.BlockSize; duplicated here (rather than imported)
// to keep this package free of a dependency on the root module, the same
// decoupling the teacher's own test fixtures have from its package.
const BlockSize = 4096

// Device is a fixed-capacity, in-memory block device.
type Device struct {
	buf    []byte
	opened bool
}

// New allocates a Device with numBlocks blocks, all zeroed.
func New(numBlocks int) *Device {
	return &Device{buf: make([]byte, numBlocks*BlockSize)}
}

// NewFromImage wraps an existing image, whose length must be a multiple of
// BlockSize. Useful for pre-seeding a device from a formatted image.
func NewFromImage(image []byte) (*Device, error) {
	if len(image)%BlockSize != 0 {
		return nil, fmt.Errorf("memdev: image length %d not a multiple of %d", len(image), BlockSize)
	}
	return &Device{buf: image}, nil
}

func (d *Device) Open() error {
	d.opened = true
	return nil
}

func (d *Device) Close() error {
	d.opened = false
	return nil
}

func (d *Device) BlockCount() (int, error) {
	return len(d.buf) / BlockSize, nil
}

func (d *Device) ReadBlock(index int, dst []byte) error {
	if !d.opened {
		return errors.New("memdev: device not open")
	}
	if len(dst) != BlockSize {
		return errors.New("memdev: buffer length must equal BlockSize")
	}
	off := index * BlockSize
	if index < 0 || off+BlockSize > len(d.buf) {
		return fmt.Errorf("memdev: block index %d out of range", index)
	}
	copy(dst, d.buf[off:off+BlockSize])
	return nil
}

func (d *Device) WriteBlock(index int, src []byte) error {
	if !d.opened {
		return errors.New("memdev: device not open")
	}
	if len(src) != BlockSize {
		return errors.New("memdev: buffer length must equal BlockSize")
	}
	off := index * BlockSize
	if index < 0 || off+BlockSize > len(d.buf) {
		return fmt.Errorf("memdev: block index %d out of range", index)
	}
	copy(d.buf[off:off+BlockSize], src)
	return nil
}

// Bytes exposes the backing image, primarily for tests that want to
// inspect or persist the raw bytes of a mounted-then-unmounted device.
func (d *Device) Bytes() []byte {
	return d.buf
}
