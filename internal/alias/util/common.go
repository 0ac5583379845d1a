package util

import (
	"io"
	"log/slog"
)

// CloseFileFunc closes f and logs instead of returning the error, for defers.
func CloseFileFunc(f io.Closer) {
	if err := f.Close(); err != nil {
		slog.Error("close file", "err", err)
	}
}
