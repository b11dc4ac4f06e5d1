package actions

import (
	"io"
	"sync"
)

// limitedWriter caps the bytes written to w. Once the cap is exceeded the
// excess is discarded and onOverflow fires once.
type limitedWriter struct {
	w          io.Writer
	max        int64
	written    int64
	truncated  bool
	onOverflow func()
	once       sync.Once
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)

	if lw.written >= lw.max {
		lw.overflow()
		return n, nil
	}

	remaining := lw.max - lw.written
	if int64(n) > remaining {
		if _, err := lw.w.Write(p[:remaining]); err != nil {
			return 0, err
		}
		lw.written += remaining
		lw.overflow()
		return n, nil
	}

	written, err := lw.w.Write(p)
	lw.written += int64(written)
	return written, err
}

func (lw *limitedWriter) overflow() {
	lw.truncated = true
	lw.once.Do(func() {
		if lw.onOverflow != nil {
			lw.onOverflow()
		}
	})
}
