package ecsfs_test

import (
	"testing"

	"github.com/ecsfs/ecsfs"
	"github.com/ecsfs/ecsfs/internal/memdev"
	"github.com/stretchr/testify/require"
)

func newFormattedMemImage(t *testing.T, totalBlocks, fatBlocks int) *memdev.Device {
	t.Helper()
	dev := memdev.New(totalBlocks)
	require.NoError(t, dev.Open())
	var f ecsfs.Formatter
	require.NoError(t, f.Format(dev, ecsfs.FormatConfig{
		TotalBlocks: totalBlocks,
		FATBlocks:   fatBlocks,
	}))
	return dev
}

// TestInfoScenario reproduces the literal mount+info scenario: a 10-block
// image (1 superblock, 1 FAT, 1 root, 7 data). FAT entry 0 is reserved, so
// 6 of the 7 entries are free.
func TestInfoScenario(t *testing.T) {
	dev := newFormattedMemImage(t, 10, 1)

	fsys := ecsfs.New(nil)
	require.NoError(t, fsys.Mount(dev))
	defer func() { require.NoError(t, fsys.Unmount()) }()

	out, err := fsys.Info()
	require.NoError(t, err)
	require.Equal(t, "FS Info:\n"+
		"total_blk_count=10\n"+
		"fat_blk_count=1\n"+
		"rdir_blk=2\n"+
		"data_blk=3\n"+
		"data_blk_count=7\n"+
		"fat_free_ratio=7/7\n"+
		"rdir_free_ratio=128/128\n", out)
}

func TestMountRejectsBadSignature(t *testing.T) {
	dev := memdev.New(10)
	require.NoError(t, dev.Open())
	// Never formatted: block 0 is all zeros, signature mismatch.
	fsys := ecsfs.New(nil)
	err := fsys.Mount(dev)
	require.ErrorIs(t, err, ecsfs.ErrFormat)
}

func TestMountRejectsDoubleMount(t *testing.T) {
	dev := newFormattedMemImage(t, 10, 1)
	fsys := ecsfs.New(nil)
	require.NoError(t, fsys.Mount(dev))
	defer func() { require.NoError(t, fsys.Unmount()) }()

	require.ErrorIs(t, fsys.Mount(dev), ecsfs.ErrAlreadyMounted)
}

func TestPersistenceAcrossMount(t *testing.T) {
	dev := newFormattedMemImage(t, 10, 1)
	fsys := ecsfs.New(nil)
	require.NoError(t, fsys.Mount(dev))
	require.NoError(t, fsys.Create("a.txt"))
	f, err := fsys.Open("a.txt")
	require.NoError(t, err)
	n, err := fsys.Write(f.Fd(), []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.NoError(t, f.Close())
	require.NoError(t, fsys.Unmount())

	// Remount the same backing device and expect identical state.
	fsys2 := ecsfs.New(nil)
	require.NoError(t, fsys2.Mount(dev))
	defer func() { require.NoError(t, fsys2.Unmount()) }()

	ls, err := fsys2.Ls()
	require.NoError(t, err)
	require.Contains(t, ls, "file: a.txt, size: 5")

	f2, err := fsys2.Open("a.txt")
	require.NoError(t, err)
	buf := make([]byte, 5)
	n, err = fsys2.Read(f2.Fd(), buf)
	require.NoError(t, err)
	require.Equal(t, "hello", string(buf[:n]))
	require.NoError(t, f2.Close())
}
