package writers

import (
	"errors"
	"fmt"
	"io"
	"syscall"
	"testing"
)

func TestIsBrokenPipe(t *testing.T) {
	if !IsBrokenPipe(fmt.Errorf("write stdout: %w", syscall.EPIPE)) {
		t.Fatal("wrapped EPIPE must count as broken pipe")
	}
	if !IsBrokenPipe(io.ErrClosedPipe) {
		t.Fatal("io.ErrClosedPipe must count as broken pipe")
	}
	if IsBrokenPipe(nil) || IsBrokenPipe(errors.New("disk full")) {
		t.Fatal("unrelated errors are not broken pipes")
	}
}
