package scan

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineReader_KeepsTerminators(t *testing.T) {
	lr := newLineReader(strings.NewReader("a\nb\r\n\nlast"))
	var got []string
	var nums []int64
	for {
		line, n, err := lr.next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, string(line))
		nums = append(nums, n)
	}
	assert.Equal(t, []string{"a\n", "b\r\n", "\n", "last"}, got)
	assert.Equal(t, []int64{1, 2, 3, 4}, nums)
}

func TestLineReader_LongLine(t *testing.T) {
	long := strings.Repeat("x", 3<<20) + "\n"
	lr := newLineReader(strings.NewReader(long + "tail\n"))
	line, n, err := lr.next()
	require.NoError(t, err)
	assert.Equal(t, long, string(line))
	assert.Equal(t, int64(1), n)
	line, _, err = lr.next()
	require.NoError(t, err)
	assert.Equal(t, "tail\n", string(line))
	_, _, err = lr.next()
	assert.Equal(t, io.EOF, err)
}

func TestLineReader_Empty(t *testing.T) {
	_, _, err := newLineReader(strings.NewReader("")).next()
	assert.Equal(t, io.EOF, err)
}
