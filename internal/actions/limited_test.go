package actions

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimitedWriter(t *testing.T) {
	var buf bytes.Buffer
	calls := 0
	lw := &limitedWriter{w: &buf, max: 5, onOverflow: func() { calls++ }}

	n, err := lw.Write([]byte("abc"))
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.False(t, lw.truncated)

	n, err = lw.Write([]byte("defgh"))
	assert.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.True(t, lw.truncated)

	_, _ = lw.Write([]byte("more"))
	assert.Equal(t, "abcde", buf.String())
	assert.Equal(t, 1, calls)
}
