package ecsfs

import (
	"io"
	"log/slog"
)

// maxDescriptors is the fixed capacity of the open-file table.
const maxDescriptors = 32

// descriptor is one open-file-table slot: a per-descriptor cursor over a
// named file. free slots carry no filename/offset.
type descriptor struct {
	free     bool
	filename string
	offset   uint32
}

// Open finds the root entry named name and allocates the lowest free
// descriptor slot for it, positioned at offset 0.
func (fsys *FS) Open(name string) (*File, error) {
	fsys.trace("open", slog.String("name", name))
	if !fsys.mounted {
		return nil, ErrNotMounted
	}
	normalized, err := validateFilename(name)
	if err != nil {
		return nil, err
	}
	if fsys.root.indexOf(normalized) == -1 {
		return nil, ErrNotFound
	}
	slot := -1
	for i := range fsys.files {
		if fsys.files[i].free {
			slot = i
			break
		}
	}
	if slot == -1 {
		return nil, ErrTableFull
	}
	fsys.files[slot] = descriptor{free: false, filename: normalized, offset: 0}
	return &File{fsys: fsys, fd: slot}, nil
}

// markAllFree resets the descriptor table to all-free; called by Mount so
// a freshly decoded (zero-valued) table doesn't read as fully occupied,
// since the zero value of descriptor.free is false.
func (fsys *FS) markAllFree() {
	for i := range fsys.files {
		fsys.files[i] = descriptor{free: true}
	}
}

// Close validates fd against the half-open bound mandated by the Design
// Notes (fd < 0 || fd >= maxDescriptors) and frees its slot.
func (fsys *FS) Close(fd int) error {
	fsys.trace("close", slog.Int("fd", fd))
	if !fsys.mounted {
		return ErrNotMounted
	}
	if fd < 0 || fd >= maxDescriptors {
		return ErrBadDescriptor
	}
	if fsys.files[fd].free {
		return ErrDescriptorFree
	}
	fsys.files[fd] = descriptor{free: true}
	return nil
}

// Stat returns the current file_size backing fd.
func (fsys *FS) Stat(fd int) (int, error) {
	if !fsys.mounted {
		return 0, ErrNotMounted
	}
	if fd < 0 || fd >= maxDescriptors {
		return 0, ErrBadDescriptor
	}
	if fsys.files[fd].free {
		return 0, ErrDescriptorFree
	}
	idx := fsys.root.indexOf(fsys.files[fd].filename)
	if idx == -1 {
		return 0, ErrNotFound
	}
	return int(fsys.root.entries[idx].fileSize), nil
}

// Seek repositions fd's cursor, rejecting any offset beyond the file's
// current size.
func (fsys *FS) Seek(fd int, offset int) error {
	fsys.trace("seek", slog.Int("fd", fd), slog.Int("offset", offset))
	size, err := fsys.Stat(fd)
	if err != nil {
		return err
	}
	if offset < 0 || offset > size {
		return ErrBadOffset
	}
	fsys.files[fd].offset = uint32(offset)
	return nil
}

// File is a handle returned by FS.Open. It implements io.Reader, io.Writer,
// io.Seeker and io.Closer over the session's Read/Write/Seek/Close
// primitives, the same shape as the teacher's exported File type wrapping
// f_read/f_write/f_close.
type File struct {
	fsys *FS
	fd   int
}

var (
	_ io.Reader = (*File)(nil)
	_ io.Writer = (*File)(nil)
	_ io.Seeker = (*File)(nil)
	_ io.Closer = (*File)(nil)
)

// Fd returns the underlying descriptor table index.
func (f *File) Fd() int { return f.fd }

// Read implements io.Reader.
func (f *File) Read(p []byte) (int, error) {
	n, err := f.fsys.Read(f.fd, p)
	if err == nil && n == 0 && len(p) > 0 {
		size, statErr := f.fsys.Stat(f.fd)
		if statErr == nil {
			off := int(f.fsys.files[f.fd].offset)
			if off >= size {
				return 0, io.EOF
			}
		}
	}
	return n, err
}

// Write implements io.Writer.
func (f *File) Write(p []byte) (int, error) {
	return f.fsys.Write(f.fd, p)
}

// Seek implements io.Seeker. whence is interpreted the same as
// io.SeekStart/io.SeekCurrent/io.SeekEnd.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	var base int
	switch whence {
	case 0: // io.SeekStart
		base = 0
	case 1: // io.SeekCurrent
		base = int(f.fsys.files[f.fd].offset)
	case 2: // io.SeekEnd
		size, err := f.fsys.Stat(f.fd)
		if err != nil {
			return 0, err
		}
		base = size
	default:
		return 0, ErrBadOffset
	}
	target := base + int(offset)
	if err := f.fsys.Seek(f.fd, target); err != nil {
		return 0, err
	}
	return int64(target), nil
}

// Close implements io.Closer.
func (f *File) Close() error {
	return f.fsys.Close(f.fd)
}

// Stat returns the file's current size in bytes.
func (f *File) Stat() (int, error) {
	return f.fsys.Stat(f.fd)
}

// Name returns the filename this handle was opened with.
func (f *File) Name() string {
	return f.fsys.files[f.fd].filename
}
