// internal/jsonutil/json.go
package jsonutil

import (
	"encoding/json"
	"io"

	"catrapid/internal/writers"
)

// EncodePretty writes v as indented JSON to w.
func EncodePretty(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteFile writes v as indented JSON to path, replacing it atomically.
func WriteFile(path string, v any) error {
	return writers.WriteFileAtomic(path, func(af *writers.AtomicFile) error {
		return EncodePretty(af, v)
	})
}

// Stage writes v as indented JSON to a member of g for path.
func Stage(g *writers.Group, path string, v any) error {
	af, err := g.Create(path)
	if err != nil {
		return err
	}
	return EncodePretty(af, v)
}
