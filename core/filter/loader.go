// core/filter/loader.go
package filter

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrMalformedFilterLine marks an allow-list line that does not have the
// expected number of columns.
var ErrMalformedFilterLine = errors.New("malformed filter line")

// LoadIDs reads a single-column allow-list, one ID per line. An empty path
// returns an empty (disabled) set. Blank lines are skipped; a line with
// internal whitespace is rejected.
func LoadIDs(path string) (Set, error) {
	set := Set{}
	if path == "" {
		return set, nil
	}
	err := eachLine(path, func(ln int, line string) error {
		if strings.ContainsAny(line, " \t") {
			return fmt.Errorf("%s:%d: %w: want one ID per line, got %q", path, ln, ErrMalformedFilterLine, line)
		}
		set[line] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// LoadPairs reads a two-column, tab-separated allow-list of protein/RNA
// pairs and keys them as "protein_rna". An empty path returns an empty set.
func LoadPairs(path string) (Set, error) {
	set := Set{}
	if path == "" {
		return set, nil
	}
	err := eachLine(path, func(ln int, line string) error {
		f := strings.Split(line, "\t")
		if len(f) != 2 || f[0] == "" || f[1] == "" {
			return fmt.Errorf("%s:%d: %w: want 2 tab-separated columns, got %d", path, ln, ErrMalformedFilterLine, len(f))
		}
		set[PairKey(f[0], f[1])] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

func eachLine(path string, fn func(ln int, line string) error) error {
	fh, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = fh.Close() }()

	sc := bufio.NewScanner(fh)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	ln := 0
	for sc.Scan() {
		ln++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if err := fn(ln, line); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
