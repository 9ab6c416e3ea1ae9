package integration

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"catrapid/internal/app"
)

func TestCtrlC_MidScan_Exit130(t *testing.T) {
	// Big enough that the scan is still running when the cancel lands.
	dir := t.TempDir()
	fn := filepath.Join(dir, "cancel_big.tsv")
	line := "sp|P12345|ABC_HUMAN ENST00000123456\t-12.33\t0.10\t0.00\n"
	if err := os.WriteFile(fn, []byte(strings.Repeat(line, 1000000)), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	outDir := filepath.Join(dir, "out")

	for _, mode := range [][]string{{}, {"--pipeline"}} {
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(5 * time.Millisecond)
			cancel()
		}()
		argv := append(append([]string{"-q", "--batch-size", "1000", "--if-exists", "overwrite"}, mode...), fn, outDir)
		code := app.RunContext(ctx, argv, io.Discard, io.Discard)
		cancel()
		if code != 130 {
			t.Fatalf("%v: expected exit 130 on cancel, got %d", mode, code)
		}
		ents, err := os.ReadDir(outDir)
		if err != nil {
			t.Fatalf("read out dir: %v", err)
		}
		if len(ents) != 0 {
			t.Fatalf("%v: canceled run left %d files behind", mode, len(ents))
		}
	}
}

func TestCanceledBeforeStart(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "in.tsv")
	if err := os.WriteFile(fn, []byte(example), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if code := app.RunContext(ctx, []string{"-q", fn, filepath.Join(dir, "out")}, io.Discard, io.Discard); code != 130 {
		t.Fatalf("expected 130, got %d", code)
	}
}
