package ecsfs

import "encoding/binary"

// fatTable is the in-memory copy of the file allocation table: an index-
// addressed array of 16-bit entries, one per data block, per the Design
// Note replacing the original's raw pointer arithmetic into a flat buffer.
// The on-disk image backing it is always exactly fatBlockCount * BlockSize
// bytes; only the first len(entries) entries are meaningful; the tail is
// reserved padding, preserved verbatim across decode/encode.
type fatTable struct {
	entries []uint16
	raw     []byte // the full fatBlockCount*BlockSize backing image
}

func decodeFATTable(raw []byte, dataBlockCount int) fatTable {
	entries := make([]uint16, dataBlockCount)
	for i := range entries {
		entries[i] = binary.LittleEndian.Uint16(raw[i*2:])
	}
	return fatTable{entries: entries, raw: raw}
}

// encode flushes fat.entries back into fat.raw and returns it, ready to be
// written out as fatBlockCount blocks starting at block 1.
func (fat *fatTable) encode() []byte {
	for i, v := range fat.entries {
		binary.LittleEndian.PutUint16(fat.raw[i*2:], v)
	}
	return fat.raw
}

// get returns the FAT entry at idx as stored. Entry 0 holds fatEOC on a
// formatted image (the formatter reserves it); get does not special-case it.
func (fat *fatTable) get(idx int) uint16 {
	return fat.entries[idx]
}

func (fat *fatTable) set(idx int, v uint16) {
	fat.entries[idx] = v
}

// chain walks the FAT starting at start, returning the ordered list of
// visited data-block indices (relative, not yet offset by
// dataBlockStartIndex) up to and excluding the terminating fatEOC. The walk
// is bounded to len(entries) iterations to defend against a corrupt image
// whose chain forms a cycle instead of terminating.
func (fat *fatTable) chain(start uint16) ([]uint16, error) {
	if start == fatEOC {
		return nil, nil
	}
	var blocks []uint16
	cur := start
	for i := 0; i <= len(fat.entries); i++ {
		if int(cur) < 0 || int(cur) >= len(fat.entries) {
			return nil, codeFormat
		}
		blocks = append(blocks, cur)
		next := fat.get(int(cur))
		if next == fatEOC {
			return blocks, nil
		}
		if next == 0 {
			// A chain should never dereference a free (0) entry; the
			// image is corrupt.
			return nil, codeFormat
		}
		cur = next
	}
	return nil, codeFormat
}

// nth follows the chain starting at start exactly n links forward (n may be
// 0, returning start itself) and returns the block index reached, or
// fatEOC if the chain is shorter than n. The walk is bounded by n; unlike
// chain, it does not check that visited indices are in range.
func (fat *fatTable) nth(start uint16, n int) uint16 {
	cur := start
	for i := 0; i < n; i++ {
		if cur == fatEOC {
			return fatEOC
		}
		cur = fat.get(int(cur))
	}
	return cur
}

// allocate performs a linear scan over entries [1, len(entries)) for the
// lowest index whose value is 0 (free), returning -1 if none is free. Entry
// 0 is the reserved sentinel and is never handed out.
// Allocation never merges or defragments; freed indices simply re-enter the
// same linear pool.
func (fat *fatTable) allocate() int {
	for i := 1; i < len(fat.entries); i++ {
		if fat.entries[i] == 0 {
			return i
		}
	}
	return -1
}

// freeCount returns the number of entries equal to 0 over indices
// [1, len(entries)), used by Info's fat_free_ratio (entry 0 is always the
// reserved EOC sentinel and is excluded, matching spec.md §4.2).
func (fat *fatTable) freeCount() int {
	n := 0
	for i := 1; i < len(fat.entries); i++ {
		if fat.entries[i] == 0 {
			n++
		}
	}
	return n
}

// freeChain walks the chain starting at start, zeroing every visited entry,
// returning freed blocks to the allocator's pool. Bounded the same way as
// chain.
func (fat *fatTable) freeChain(start uint16) error {
	cur := start
	for i := 0; i <= len(fat.entries); i++ {
		if cur == fatEOC {
			return nil
		}
		if int(cur) < 0 || int(cur) >= len(fat.entries) {
			return codeFormat
		}
		next := fat.get(int(cur))
		fat.set(int(cur), 0)
		cur = next
	}
	return codeFormat
}
