// Package memframe is a minimal in-memory columnar engine.
//
// It exists so the cache can be used and tested without binding to a real
// dataframe library: a [Frame] is a named set of string columns, a [Plan]
// is a deferred read of one, and [Engine] persists frames as
// zstd-compressed gob files. Production users adapt their dataframe
// library to [table.Engine] instead.
package memframe

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
)

// Frame is an eagerly materialized table: column names plus rows of string
// cells. Rows must all have len(Names) cells.
type Frame struct {
	Names []string
	Rows  [][]string
}

// NewFrame builds a frame from column names and rows.
func NewFrame(names []string, rows [][]string) *Frame {
	return &Frame{Names: names, Rows: rows}
}

// Equal reports whether two frames hold identical names and cells.
func (f *Frame) Equal(other *Frame) bool {
	if f == nil || other == nil {
		return f == other
	}
	if len(f.Names) != len(other.Names) || len(f.Rows) != len(other.Rows) {
		return false
	}
	for i, n := range f.Names {
		if other.Names[i] != n {
			return false
		}
	}
	for i, row := range f.Rows {
		if len(row) != len(other.Rows[i]) {
			return false
		}
		for j, cell := range row {
			if other.Rows[i][j] != cell {
				return false
			}
		}
	}
	return true
}

// Fingerprint returns a short stable token for the frame's schema and
// shape (column names plus row count), suitable for canonicalizing a frame
// passed as a cached-call argument. It deliberately ignores cell contents.
func (f *Frame) Fingerprint() string {
	h := xxhash.New()
	for _, n := range f.Names {
		_, _ = h.WriteString(n)
		_, _ = h.WriteString("\x00")
	}
	_, _ = h.WriteString(strconv.Itoa(len(f.Rows)))
	return strconv.FormatUint(h.Sum64(), 16)
}

// Plan is a deferred query: it yields a Frame only when collected.
type Plan struct {
	src func() (*Frame, error)
}

// Defer wraps a frame producer into a lazy plan.
func Defer(src func() (*Frame, error)) *Plan {
	return &Plan{src: src}
}

// Collect materializes the plan.
func (p *Plan) Collect() (*Frame, error) {
	if p == nil || p.src == nil {
		return nil, errors.New("memframe: empty plan")
	}
	return p.src()
}

// Engine implements table.Engine for frames and plans. It is stateless and
// safe for concurrent use.
type Engine struct{}

// FileExt is the columnar file extension Engine reports.
const FileExt = "mf"

// Ext returns the memframe file extension.
func (Engine) Ext() string { return FileExt }

// Write persists a frame as a zstd-compressed gob stream.
func (Engine) Write(frame *Frame, path string) error {
	if frame == nil {
		return errors.New("memframe: nil frame")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	zw, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return err
	}
	if err := gob.NewEncoder(zw).Encode(frame); err != nil {
		zw.Close()
		f.Close()
		return fmt.Errorf("encode frame: %w", err)
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Sink materializes a plan and persists the resulting frame.
func (e Engine) Sink(plan *Plan, path string) error {
	frame, err := plan.Collect()
	if err != nil {
		return err
	}
	return e.Write(frame, path)
}

// Read loads a frame from a columnar file.
func (Engine) Read(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	var frame Frame
	if err := gob.NewDecoder(zr).Decode(&frame); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return &frame, nil
}

// Scan opens a columnar file as a lazy plan; the file is read only when
// the plan is collected.
func (e Engine) Scan(path string) (*Plan, error) {
	return Defer(func() (*Frame, error) { return e.Read(path) }), nil
}
