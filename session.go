package ecsfs

import (
	"fmt"
	"log/slog"
	"strings"
)

// FS is a mount session: the single owned value created by Mount and
// destroyed by Unmount, replacing the original's process-wide superblock,
// FAT, root and descriptor-table globals with one handle whose methods are
// the file API. Accessing any method before a successful Mount, or after
// Unmount, returns ErrNotMounted.
type FS struct {
	device BlockDevice
	sb     superblock
	fat    fatTable
	root   rootDir
	files  [maxDescriptors]descriptor

	mounted bool
	log     *slog.Logger
}

// New constructs an unmounted session. log may be nil to silence all
// ambient tracing.
func New(log *slog.Logger) *FS {
	return &FS{log: log}
}

// Mount opens dev, validates its superblock, and loads the FAT and root
// directory caches into memory. Only one image may be mounted on a given
// *FS at a time.
func (fsys *FS) Mount(dev BlockDevice) error {
	fsys.trace("mount")
	if fsys.mounted {
		return ErrAlreadyMounted
	}
	if err := dev.Open(); err != nil {
		fsys.logerror("mount: device open failed", slog.Any("err", err))
		return wrapIO(err)
	}

	buf := make([]byte, BlockSize)
	if err := dev.ReadBlock(0, buf); err != nil {
		dev.Close()
		fsys.logerror("mount: superblock read failed", slog.Any("err", err))
		return wrapIO(err)
	}
	if !hasValidSignature(buf) {
		dev.Close()
		return ErrFormat
	}
	sb, err := decodeSuperblock(buf)
	if err != nil {
		dev.Close()
		return wrapIO(err)
	}
	count, err := dev.BlockCount()
	if err != nil {
		dev.Close()
		fsys.logerror("mount: block count failed", slog.Any("err", err))
		return wrapIO(err)
	}
	if int(sb.totalBlockCount) != count {
		dev.Close()
		return ErrFormat
	}

	fatRaw := make([]byte, int(sb.fatBlockCount)*BlockSize)
	for i := 0; i < int(sb.fatBlockCount); i++ {
		if err := dev.ReadBlock(1+i, fatRaw[i*BlockSize:(i+1)*BlockSize]); err != nil {
			dev.Close()
			fsys.logerror("mount: fat read failed", slog.Int("block", 1+i), slog.Any("err", err))
			return wrapIO(err)
		}
	}
	fat := decodeFATTable(fatRaw, int(sb.dataBlockCount))

	rootBuf := make([]byte, BlockSize)
	if err := dev.ReadBlock(int(sb.rootDirIndex), rootBuf); err != nil {
		dev.Close()
		fsys.logerror("mount: root read failed", slog.Any("err", err))
		return wrapIO(err)
	}
	root := decodeRootDir(rootBuf)

	fsys.device = dev
	fsys.sb = sb
	fsys.fat = fat
	fsys.root = root
	fsys.mounted = true
	fsys.markAllFree()
	fsys.info("mounted", slog.String("superblock", sb.String()))
	return nil
}

// Unmount refuses to proceed if any descriptor slot is still open (the
// Design Note's resolved safety behavior), otherwise writes the FAT and
// root caches back to the device and releases it.
func (fsys *FS) Unmount() error {
	fsys.trace("unmount")
	if !fsys.mounted {
		return ErrNotMounted
	}
	for i := range fsys.files {
		if !fsys.files[i].free {
			return ErrFilesOpen
		}
	}

	raw := fsys.fat.encode()
	for i := 0; i < int(fsys.sb.fatBlockCount); i++ {
		if err := fsys.device.WriteBlock(1+i, raw[i*BlockSize:(i+1)*BlockSize]); err != nil {
			fsys.logerror("unmount: fat write failed", slog.Int("block", 1+i), slog.Any("err", err))
			fsys.mounted = false
			fsys.device = nil
			return wrapIO(err)
		}
	}
	if err := fsys.device.WriteBlock(int(fsys.sb.rootDirIndex), fsys.root.encode()); err != nil {
		fsys.logerror("unmount: root write failed", slog.Any("err", err))
		fsys.mounted = false
		fsys.device = nil
		return wrapIO(err)
	}

	err := fsys.device.Close()
	fsys.mounted = false
	fsys.device = nil
	if err != nil {
		fsys.logerror("unmount: device close failed", slog.Any("err", err))
		return wrapIO(err)
	}
	fsys.info("unmounted")
	return nil
}

// Info renders the exact textual report specified for the info operation.
func (fsys *FS) Info() (string, error) {
	if !fsys.mounted {
		return "", ErrNotMounted
	}
	var b strings.Builder
	fmt.Fprintf(&b, "FS Info:\n")
	fmt.Fprintf(&b, "total_blk_count=%d\n", fsys.sb.totalBlockCount)
	fmt.Fprintf(&b, "fat_blk_count=%d\n", fsys.sb.fatBlockCount)
	fmt.Fprintf(&b, "rdir_blk=%d\n", fsys.sb.rootDirIndex)
	fmt.Fprintf(&b, "data_blk=%d\n", fsys.sb.dataBlockStartIndex)
	fmt.Fprintf(&b, "data_blk_count=%d\n", fsys.sb.dataBlockCount)
	fmt.Fprintf(&b, "fat_free_ratio=%d/%d\n", fsys.fat.freeCount(), fsys.sb.dataBlockCount)
	fmt.Fprintf(&b, "rdir_free_ratio=%d/%d\n", fsys.root.freeCount(), maxRootEntries)
	return b.String(), nil
}

// DebugDump renders the superblock's and root directory's diagnostic String
// representations, one line per non-empty root slot in storage order. Intended for
// verbose CLI/log output, not the contractual Info/Ls text from §6.
func (fsys *FS) DebugDump() (string, error) {
	if !fsys.mounted {
		return "", ErrNotMounted
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", fsys.sb.String())
	b.WriteString(fsys.root.String())
	return b.String(), nil
}

// Create adds a new, empty entry named name to the root directory.
func (fsys *FS) Create(name string) error {
	fsys.trace("create", slog.String("name", name))
	if !fsys.mounted {
		return ErrNotMounted
	}
	normalized, err := validateFilename(name)
	if err != nil {
		return err
	}
	if normalized != name {
		fsys.debug("create: filename normalized", slog.String("requested", name), slog.String("normalized", normalized))
	}
	if fsys.root.indexOf(normalized) != -1 {
		return ErrExists
	}
	idx := fsys.root.firstEmpty()
	if idx == -1 {
		return ErrTableFull
	}
	fsys.root.entries[idx] = dirEntry{
		filename: packFilename(normalized),
		fileSize: 0,
		firstBlk: fatEOC,
	}
	return fsys.persistRoot()
}

// Delete removes the entry named name, freeing its FAT chain in memory
// (the FAT image itself is persisted only at Unmount, per the Design
// Note's accepted no-journal behavior). Fails if any descriptor still has
// the file open.
func (fsys *FS) Delete(name string) error {
	fsys.trace("delete", slog.String("name", name))
	if !fsys.mounted {
		return ErrNotMounted
	}
	normalized, err := validateFilename(name)
	if err != nil {
		return err
	}
	idx := fsys.root.indexOf(normalized)
	if idx == -1 {
		return ErrNotFound
	}
	for i := range fsys.files {
		if !fsys.files[i].free && fsys.files[i].filename == normalized {
			return ErrFilesOpen
		}
	}
	first := fsys.root.entries[idx].firstBlk
	if err := fsys.fat.freeChain(first); err != nil {
		fsys.warn("delete: fat chain corrupt, entry left unlinked", slog.String("name", normalized))
		return err
	}
	fsys.root.entries[idx] = dirEntry{}
	return fsys.persistRoot()
}

// Ls renders the exact textual listing specified for the ls operation, one
// line per non-empty entry in storage order.
func (fsys *FS) Ls() (string, error) {
	if !fsys.mounted {
		return "", ErrNotMounted
	}
	var b strings.Builder
	fmt.Fprintf(&b, "FS Ls:\n")
	for i := range fsys.root.entries {
		e := &fsys.root.entries[i]
		if e.empty() {
			continue
		}
		fmt.Fprintf(&b, "file: %s, size: %d, data_blk: %d\n", e.name(), e.fileSize, e.firstBlk)
	}
	return b.String(), nil
}

// persistRoot writes the root directory cache to the device immediately;
// unlike FAT mutations, root directory mutations are persisted on every
// mutating call per spec.md §2's cache description.
func (fsys *FS) persistRoot() error {
	if err := fsys.device.WriteBlock(int(fsys.sb.rootDirIndex), fsys.root.encode()); err != nil {
		fsys.logerror("persistRoot failed", slog.Any("err", err))
		return wrapIO(err)
	}
	return nil
}
