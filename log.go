package ecsfs

import (
	"context"
	"log/slog"
)

// slogLevelTrace sits below slog.LevelDebug for call-tracing that is
// noisy even for debug builds; only surfaces with an explicit handler
// level of slogLevelTrace or lower.
const slogLevelTrace = slog.LevelDebug - 2

// slogLevelBlockIO sits below slogLevelTrace: the read/write path walks a
// FAT chain one 4096-byte block at a time, and logging every block touched
// at slogLevelTrace would drown out the one-line-per-call tracing everything
// else uses. A separate, even quieter level lets a caller dial in per-block
// bounce-buffer tracing (block index, aligned vs. bounced) without paying
// for it by default.
const slogLevelBlockIO = slogLevelTrace - 2

func (fsys *FS) logattrs(level slog.Level, msg string, attrs ...slog.Attr) {
	if fsys.log != nil {
		fsys.log.LogAttrs(context.Background(), level, msg, attrs...)
	}
}

func (fsys *FS) trace(msg string, attrs ...slog.Attr) {
	fsys.logattrs(slogLevelTrace, msg, attrs...)
}

// blockTrace logs one iteration of the read/write bounce-buffer loop:
// the block visited and whether the transfer went through the bounce
// buffer or took the aligned fast path.
func (fsys *FS) blockTrace(msg string, blk int, bounced bool) {
	fsys.logattrs(slogLevelBlockIO, msg, slog.Int("block", blk), slog.Bool("bounced", bounced))
}

func (fsys *FS) debug(msg string, attrs ...slog.Attr) {
	fsys.logattrs(slog.LevelDebug, msg, attrs...)
}

func (fsys *FS) info(msg string, attrs ...slog.Attr) {
	fsys.logattrs(slog.LevelInfo, msg, attrs...)
}

func (fsys *FS) warn(msg string, attrs ...slog.Attr) {
	fsys.logattrs(slog.LevelWarn, msg, attrs...)
}

func (fsys *FS) logerror(msg string, attrs ...slog.Attr) {
	fsys.logattrs(slog.LevelError, msg, attrs...)
}
