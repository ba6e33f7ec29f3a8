// Package serialize implements the two-pass graph serializer (spec
// §4.10): a JSON envelope writer and an optional Turtle/RDF writer, both
// sharing the same gzip-on-suffix and atomic-write convention.
package serialize

import (
	"compress/gzip"
	"io"
	"os"
	"strings"

	"github.com/grimmgraph/grimm/internal/diagnostics"
)

// create opens path for writing, wrapping it in a gzip writer when path
// ends in ".gz" (spec §6: "`.gz` suffix selects compression"). Writes go
// to a sibling temp file first and are renamed into place only on a clean
// Close, so a run aborted mid-write never leaves partial output at path
// (spec §5: "partial serializer output is considered invalid and deleted
// on abort").
func create(path string) (io.Writer, func() error, error) {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return nil, nil, diagnostics.Wrap(diagnostics.IoError, err)
	}

	var w io.Writer = f
	var gz *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		gz = gzip.NewWriter(f)
		w = gz
	}

	closeFn := func() error {
		if gz != nil {
			if err := gz.Close(); err != nil {
				f.Close()
				os.Remove(tmp)
				return diagnostics.Wrap(diagnostics.IoError, err)
			}
		}
		if err := f.Close(); err != nil {
			os.Remove(tmp)
			return diagnostics.Wrap(diagnostics.IoError, err)
		}
		if err := os.Rename(tmp, path); err != nil {
			os.Remove(tmp)
			return diagnostics.Wrap(diagnostics.IoError, err)
		}
		return nil
	}
	return w, closeFn, nil
}

// abort discards a partial write started by create, removing the temp
// file without renaming it into place.
func abort(path string) {
	os.Remove(path + ".tmp")
}
