package ecsfs_test

import (
	"bytes"
	"testing"

	"github.com/ecsfs/ecsfs"
	"github.com/stretchr/testify/require"
)

// TestRoundTripScenario reproduces scenario 3: write then seek(0)+read
// yields the same bytes.
func TestRoundTripScenario(t *testing.T) {
	fsys := mustMount(t, 10, 1)
	require.NoError(t, fsys.Create("a.txt"))
	f, err := fsys.Open("a.txt")
	require.NoError(t, err)
	defer f.Close()

	n, err := fsys.Write(f.Fd(), []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)

	size, err := f.Stat()
	require.NoError(t, err)
	require.Equal(t, 5, size)

	require.NoError(t, fsys.Seek(f.Fd(), 0))
	buf := make([]byte, 5)
	n, err = fsys.Read(f.Fd(), buf)
	require.NoError(t, err)
	require.Equal(t, "hello", string(buf[:n]))
}

// TestMultiBlockWriteScenario reproduces scenario 4: an 8192-byte write
// spans two 4096-byte blocks and consumes two data blocks; a subsequent
// partial read at offset 4096 returns the second half of the pattern.
func TestMultiBlockWriteScenario(t *testing.T) {
	fsys := mustMount(t, 10, 1)
	require.NoError(t, fsys.Create("a.txt"))
	f, err := fsys.Open("a.txt")
	require.NoError(t, err)
	defer f.Close()

	pattern := make([]byte, 8192)
	for i := range pattern {
		pattern[i] = byte(i)
	}
	n, err := fsys.Write(f.Fd(), pattern)
	require.NoError(t, err)
	require.Equal(t, 8192, n)

	out, err := fsys.Info()
	require.NoError(t, err)
	require.Contains(t, out, "fat_free_ratio=5/7")

	require.NoError(t, fsys.Seek(f.Fd(), 4096))
	buf := make([]byte, 4096)
	n, err = fsys.Read(f.Fd(), buf)
	require.NoError(t, err)
	require.Equal(t, 4096, n)
	require.True(t, bytes.Equal(buf, pattern[4096:]))
}

// TestFillDiskScenario reproduces scenario 6: filling the disk with a
// 28672-byte write (7 data blocks * 4096), then a further write short-
// writes 0 bytes and a seek beyond file_size fails.
func TestFillDiskScenario(t *testing.T) {
	fsys := mustMount(t, 10, 1)
	require.NoError(t, fsys.Create("a.txt"))
	f, err := fsys.Open("a.txt")
	require.NoError(t, err)
	defer f.Close()

	data := bytes.Repeat([]byte{0xAB}, 7*4096)
	n, err := fsys.Write(f.Fd(), data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)

	n, err = fsys.Write(f.Fd(), []byte("x"))
	require.NoError(t, err)
	require.Equal(t, 0, n)

	err = fsys.Seek(f.Fd(), len(data)+1)
	require.ErrorIs(t, err, ecsfs.ErrBadOffset)
}

// TestShortWriteOnFullAllocator exercises a second file failing to extend
// once every data block belongs to the first file.
func TestShortWriteOnFullAllocator(t *testing.T) {
	fsys := mustMount(t, 10, 1)
	require.NoError(t, fsys.Create("a.txt"))
	require.NoError(t, fsys.Create("b.txt"))
	fa, err := fsys.Open("a.txt")
	require.NoError(t, err)
	defer fa.Close()
	fb, err := fsys.Open("b.txt")
	require.NoError(t, err)
	defer fb.Close()

	_, err = fsys.Write(fa.Fd(), bytes.Repeat([]byte{1}, 7*4096))
	require.NoError(t, err)

	n, err := fsys.Write(fb.Fd(), []byte("overflow"))
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

// TestAppendAtExactBlockBoundary covers a write whose starting offset lands
// exactly on the end of the file's last allocated block (file_size is a
// multiple of 4096): the chain must still extend by a new block rather than
// being mistaken for already exhausted.
func TestAppendAtExactBlockBoundary(t *testing.T) {
	fsys := mustMount(t, 10, 1)
	require.NoError(t, fsys.Create("a.txt"))
	f, err := fsys.Open("a.txt")
	require.NoError(t, err)
	defer f.Close()

	first := bytes.Repeat([]byte{0x11}, 4096)
	n, err := fsys.Write(f.Fd(), first)
	require.NoError(t, err)
	require.Equal(t, 4096, n)

	second := []byte("appended-after-full-block")
	n, err = fsys.Write(f.Fd(), second)
	require.NoError(t, err)
	require.Equal(t, len(second), n)

	size, err := f.Stat()
	require.NoError(t, err)
	require.Equal(t, 4096+len(second), size)

	require.NoError(t, fsys.Seek(f.Fd(), 4096))
	buf := make([]byte, len(second))
	n, err = fsys.Read(f.Fd(), buf)
	require.NoError(t, err)
	require.Equal(t, second, buf[:n])
}

func TestWriteZeroBytesIsNoop(t *testing.T) {
	fsys := mustMount(t, 10, 1)
	require.NoError(t, fsys.Create("a.txt"))
	f, err := fsys.Open("a.txt")
	require.NoError(t, err)
	defer f.Close()

	n, err := fsys.Write(f.Fd(), nil)
	require.NoError(t, err)
	require.Equal(t, 0, n)
	size, err := f.Stat()
	require.NoError(t, err)
	require.Equal(t, 0, size)
}
