package ecsfs

import (
	"errors"

	"github.com/google/renameio/v2"
)

// FormatConfig describes the layout of a freshly formatted image.
type FormatConfig struct {
	// TotalBlocks is the image's total block count, including the
	// superblock, FAT block(s) and root directory block.
	TotalBlocks int
	// FATBlocks is the number of FAT blocks (1-4, see superblock layout
	// invariants). Defaults to 1 if zero.
	FATBlocks int
}

// resolve fills in defaults and computes the derived layout fields,
// returning an error if the configuration cannot produce a valid image.
func (cfg FormatConfig) resolve() (superblock, error) {
	if cfg.FATBlocks == 0 {
		cfg.FATBlocks = 1
	}
	if cfg.FATBlocks < 1 || cfg.FATBlocks > 4 {
		return superblock{}, errors.New("ecsfs: fat block count must be 1-4")
	}
	// total = 2 (superblock + root) + fatBlocks + dataBlocks
	dataBlocks := cfg.TotalBlocks - 2 - cfg.FATBlocks
	if dataBlocks <= 0 {
		return superblock{}, errors.New("ecsfs: image too small for requested FAT block count")
	}
	maxEntries := cfg.FATBlocks * (BlockSize / 2)
	if dataBlocks > maxEntries {
		return superblock{}, errors.New("ecsfs: too many data blocks for fat block count")
	}
	sb := superblock{
		totalBlockCount:     uint16(cfg.TotalBlocks),
		fatBlockCount:       uint8(cfg.FATBlocks),
		rootDirIndex:        uint16(cfg.FATBlocks + 1),
		dataBlockStartIndex: uint16(cfg.FATBlocks + 2),
		dataBlockCount:      uint16(dataBlocks),
	}
	return sb, nil
}

// blankFATImage builds a fresh FAT image for sb: every entry free (0)
// except entry 0, which is always reserved with sentinel fatEOC.
func blankFATImage(sb superblock) []byte {
	fat := decodeFATTable(make([]byte, int(sb.fatBlockCount)*BlockSize), int(sb.dataBlockCount))
	fat.set(0, fatEOC)
	return fat.encode()
}

// Formatter lays out a fresh superblock, zeroed FAT and empty root
// directory on a blank block device. It has no state of its own; each
// Format/FormatFile call is independent, mirroring the teacher's
// Formatter type but with a working FAT32-equivalent body instead of a
// stub.
type Formatter struct{}

// Format writes a fresh image directly to dev via its BlockDevice
// interface (dev must already be open).
func (Formatter) Format(dev BlockDevice, cfg FormatConfig) error {
	sb, err := cfg.resolve()
	if err != nil {
		return err
	}
	if err := dev.WriteBlock(0, sb.encode()); err != nil {
		return wrapIO(err)
	}
	fatRaw := blankFATImage(sb)
	for i := 0; i < int(sb.fatBlockCount); i++ {
		if err := dev.WriteBlock(1+i, fatRaw[i*BlockSize:(i+1)*BlockSize]); err != nil {
			return wrapIO(err)
		}
	}
	var root rootDir
	if err := dev.WriteBlock(int(sb.rootDirIndex), root.encode()); err != nil {
		return wrapIO(err)
	}
	return nil
}

// FormatFile writes a complete image of cfg.TotalBlocks*BlockSize bytes to
// path atomically: the blocks are written one after another to a temp file,
// which is fsynced, then renamed into place, so a crash mid-format never leaves a
// half-written image at path. Grounded on distr1-distri's use of
// github.com/google/renameio/v2 for publishing finished build artifacts.
func (f Formatter) FormatFile(path string, cfg FormatConfig) error {
	sb, err := cfg.resolve()
	if err != nil {
		return err
	}

	t, err := renameio.TempFile("", path)
	if err != nil {
		return err
	}
	defer t.Cleanup()

	if _, err := t.Write(sb.encode()); err != nil {
		return err
	}
	if _, err := t.Write(blankFATImage(sb)); err != nil {
		return err
	}
	var root rootDir
	if _, err := t.Write(root.encode()); err != nil {
		return err
	}
	zeroData := make([]byte, BlockSize)
	for i := 0; i < int(sb.dataBlockCount); i++ {
		if _, err := t.Write(zeroData); err != nil {
			return err
		}
	}
	return t.CloseAtomicallyReplace()
}
