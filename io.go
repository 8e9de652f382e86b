package ecsfs

import "log/slog"

// absBlock offsets a relative (FAT-indexed) data block by
// dataBlockStartIndex to obtain its absolute on-disk block index.
func (fsys *FS) absBlock(rel uint16) int {
	return int(fsys.sb.dataBlockStartIndex) + int(rel)
}

// Read implements the read operation against descriptor fd, copying into
// buf and returning the number of bytes actually transferred (clamped to
// the file's remaining length, per the clamped-read law).
func (fsys *FS) Read(fd int, buf []byte) (int, error) {
	fsys.trace("read", slog.Int("fd", fd), slog.Int("len", len(buf)))
	if !fsys.mounted {
		return 0, ErrNotMounted
	}
	if fd < 0 || fd >= maxDescriptors {
		return 0, ErrBadDescriptor
	}
	d := &fsys.files[fd]
	if d.free {
		return 0, ErrDescriptorFree
	}
	idx := fsys.root.indexOf(d.filename)
	if idx == -1 {
		return 0, ErrNotFound
	}
	entry := &fsys.root.entries[idx]

	offset := int(d.offset)
	count := len(buf)
	if offset+count > int(entry.fileSize) {
		count = int(entry.fileSize) - offset
	}
	if count < 0 {
		count = 0
	}
	if count == 0 {
		return 0, nil
	}

	// cur is the relative (FAT-indexed) block currently positioned at
	// offset, reached by following the chain k = offset/BlockSize times.
	cur := fsys.fat.nth(entry.firstBlk, offset/BlockSize)

	var bounce [BlockSize]byte
	bytesDone := 0
	for count > 0 {
		if cur == fatEOC {
			break
		}
		head := offset % BlockSize
		var n int
		switch {
		case head != 0:
			n = min(count, BlockSize-head)
		case count < BlockSize:
			n = count
		default:
			n = BlockSize
		}

		blk := fsys.absBlock(cur)
		bounced := head != 0 || n < BlockSize
		fsys.blockTrace("read: block", blk, bounced)
		if bounced {
			if err := fsys.device.ReadBlock(blk, bounce[:]); err != nil {
				fsys.logerror("read: block read failed", slog.Any("err", err))
				return bytesDone, wrapIO(err)
			}
			copy(buf[bytesDone:bytesDone+n], bounce[head:head+n])
		} else {
			if err := fsys.device.ReadBlock(blk, buf[bytesDone:bytesDone+n]); err != nil {
				fsys.logerror("read: block read failed", slog.Any("err", err))
				return bytesDone, wrapIO(err)
			}
		}

		offset += n
		bytesDone += n
		count -= n

		if count > 0 && offset%BlockSize == 0 {
			cur = fsys.fat.get(int(cur))
		}
	}

	d.offset = uint32(offset)
	return bytesDone, nil
}

// Write implements the write operation against descriptor fd, extending
// the file's block chain on demand and returning the number of bytes
// actually transferred (short of count only on allocation exhaustion,
// never an error — per the capacity-is-a-short-write policy).
func (fsys *FS) Write(fd int, buf []byte) (int, error) {
	fsys.trace("write", slog.Int("fd", fd), slog.Int("len", len(buf)))
	if !fsys.mounted {
		return 0, ErrNotMounted
	}
	if fd < 0 || fd >= maxDescriptors {
		return 0, ErrBadDescriptor
	}
	d := &fsys.files[fd]
	if d.free {
		return 0, ErrDescriptorFree
	}
	idx := fsys.root.indexOf(d.filename)
	if idx == -1 {
		return 0, ErrNotFound
	}
	entry := &fsys.root.entries[idx]

	count := len(buf)
	if count == 0 {
		return 0, nil
	}

	if entry.firstBlk == fatEOC {
		blk := fsys.fat.allocate()
		if blk == -1 {
			return 0, nil
		}
		fsys.fat.set(blk, fatEOC)
		entry.firstBlk = uint16(blk)
	}

	offset := int(d.offset)
	nBlocksIn := offset / BlockSize
	cur := fsys.fat.nth(entry.firstBlk, nBlocksIn)
	if cur == fatEOC && nBlocksIn > 0 {
		// offset lands exactly on the boundary one past the chain's
		// current end (appending to a file whose size is an exact
		// multiple of BlockSize): extend the chain before the main loop
		// instead of treating this position as already exhausted.
		prev := fsys.fat.nth(entry.firstBlk, nBlocksIn-1)
		allocated := fsys.fat.allocate()
		if allocated == -1 {
			return 0, nil
		}
		fsys.fat.set(int(prev), uint16(allocated))
		fsys.fat.set(allocated, fatEOC)
		cur = uint16(allocated)
	}

	var bounce [BlockSize]byte
	bytesDone := 0
	for count > 0 {
		if cur == fatEOC {
			// Chain ended before reaching offset; only possible if the
			// caller seeked past EOC, which Seek already forbids.
			break
		}
		head := offset % BlockSize
		blk := fsys.absBlock(cur)
		var n int
		switch {
		case head != 0:
			n = min(count, BlockSize-head)
			fsys.blockTrace("write: block", blk, true)
			if err := fsys.device.ReadBlock(blk, bounce[:]); err != nil {
				fsys.logerror("write: block read failed", slog.Any("err", err))
				return bytesDone, wrapIO(err)
			}
			copy(bounce[head:head+n], buf[bytesDone:bytesDone+n])
			if err := fsys.device.WriteBlock(blk, bounce[:]); err != nil {
				fsys.logerror("write: block write failed", slog.Any("err", err))
				return bytesDone, wrapIO(err)
			}
		case count < BlockSize:
			n = count
			fsys.blockTrace("write: block", blk, true)
			if err := fsys.device.ReadBlock(blk, bounce[:]); err != nil {
				fsys.logerror("write: block read failed", slog.Any("err", err))
				return bytesDone, wrapIO(err)
			}
			copy(bounce[0:n], buf[bytesDone:bytesDone+n])
			if err := fsys.device.WriteBlock(blk, bounce[:]); err != nil {
				fsys.logerror("write: block write failed", slog.Any("err", err))
				return bytesDone, wrapIO(err)
			}
		default:
			n = BlockSize
			fsys.blockTrace("write: block", blk, false)
			if err := fsys.device.WriteBlock(blk, buf[bytesDone:bytesDone+n]); err != nil {
				fsys.logerror("write: block write failed", slog.Any("err", err))
				return bytesDone, wrapIO(err)
			}
		}

		offset += n
		bytesDone += n
		count -= n

		if count > 0 && offset%BlockSize == 0 {
			next := fsys.fat.get(int(cur))
			if next == fatEOC {
				allocated := fsys.fat.allocate()
				if allocated == -1 {
					break
				}
				fsys.fat.set(int(cur), uint16(allocated))
				fsys.fat.set(allocated, fatEOC)
				next = uint16(allocated)
			}
			cur = next
		}
	}

	if offset > int(entry.fileSize) {
		entry.fileSize = uint32(offset)
	}
	d.offset = uint32(offset)
	if err := fsys.persistRoot(); err != nil {
		return bytesDone, err
	}
	return bytesDone, nil
}

