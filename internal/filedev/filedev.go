// Package filedev implements an ecsfs.BlockDevice backed by a host file,
// the primary deployment spec.md §1 describes ("a single host-file backing
// image"). Grounded on the same shape as soypat/fat's test fixtures, but
// addressing a real *os.File via ReadAt/WriteAt instead of a byte slice.
package filedev

import (
	"errors"
	"os"
)

// BlockSize matches ecsfs.BlockSize.
const BlockSize = 4096

// Device is a block device backed by an existing host file. New does not
// create the file; Create makes a new zero-filled one (it does not format
// it).
type Device struct {
	path string
	f    *os.File
}

// New wraps an existing file at path. The file must already exist; Open
// fails otherwise.
func New(path string) *Device {
	return &Device{path: path}
}

// Create makes a new zero-filled file of size numBlocks*BlockSize at path,
// truncating any existing file, and wraps it.
func Create(path string, numBlocks int) (*Device, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if err := f.Truncate(int64(numBlocks) * BlockSize); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return New(path), nil
}

func (d *Device) Open() error {
	f, err := os.OpenFile(d.path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	d.f = f
	return nil
}

func (d *Device) Close() error {
	if d.f == nil {
		return errors.New("filedev: device not open")
	}
	err := d.f.Close()
	d.f = nil
	return err
}

func (d *Device) BlockCount() (int, error) {
	if d.f == nil {
		return 0, errors.New("filedev: device not open")
	}
	fi, err := d.f.Stat()
	if err != nil {
		return 0, err
	}
	return int(fi.Size() / BlockSize), nil
}

func (d *Device) ReadBlock(index int, dst []byte) error {
	if d.f == nil {
		return errors.New("filedev: device not open")
	}
	if len(dst) != BlockSize {
		return errors.New("filedev: buffer length must equal BlockSize")
	}
	_, err := d.f.ReadAt(dst, int64(index)*BlockSize)
	return err
}

func (d *Device) WriteBlock(index int, src []byte) error {
	if d.f == nil {
		return errors.New("filedev: device not open")
	}
	if len(src) != BlockSize {
		return errors.New("filedev: buffer length must equal BlockSize")
	}
	_, err := d.f.WriteAt(src, int64(index)*BlockSize)
	return err
}
