package pagealloc

import (
	"io"
	"log/slog"
)

// logger is the package-level diagnostics sink. It discards everything by
// default and stays silent until a caller opts in. Allocators log page
// creation and GC sweep results at Debug level.
var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

// SetLogger redirects package diagnostics to l. Passing nil restores the
// silent default. Safe to call before any Allocator is constructed;
// changing it while allocators are in use is not synchronized with their
// operations, matching the package's single-threaded-core contract.
func SetLogger(l *slog.Logger) {
	if l == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		return
	}
	logger = l
}
