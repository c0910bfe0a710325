// =============================================================================
// Trade Reconciliation - JSON Writer Module
// =============================================================================
//
// This module writes the two run outputs as JSON arrays, one element at a
// time, so a run never holds its results in memory.
//
// OUTPUT STRUCTURE:
//
//   [
//     {
//       "trade_id": "TRD001",
//       ...
//     },
//     {
//       ...
//     }
//   ]
//
//   An output with no elements is written as "[]".
//
// Every element is flushed to disk as soon as it is emitted. The closing
// bracket is only written by Close, so an interrupted run leaves a truncated
// array behind.
//
// =============================================================================

package jsonwriter

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go.uber.org/multierr"

	"github.com/ginjaninja78/trade-reconciliation/pkg/utils"
)

// ErrClosed is returned when emitting to a finalized writer.
var ErrClosed = errors.New("json writer is closed")

const indent = "  "

// =============================================================================
// ARRAY WRITER
// =============================================================================

// ArrayWriter appends pretty-printed elements to a JSON array file.
type ArrayWriter struct {
	path   string
	file   *os.File
	buf    *bufio.Writer
	count  int
	closed bool
}

// Create creates (or truncates) the file at path, creating parent
// directories as needed, and writes the opening bracket.
func Create(path string) (*ArrayWriter, error) {
	if err := utils.EnsureParentDir(path); err != nil {
		return nil, err
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file %s: %w", path, err)
	}

	w := &ArrayWriter{
		path: path,
		file: file,
		buf:  bufio.NewWriter(file),
	}
	if _, err := w.buf.WriteString("["); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return w, nil
}

// Path returns the output file path.
func (w *ArrayWriter) Path() string {
	return w.path
}

// Count returns the number of elements written so far.
func (w *ArrayWriter) Count() int {
	return w.count
}

// Write appends one element and flushes it to the file.
func (w *ArrayWriter) Write(v interface{}) error {
	if w.closed {
		return ErrClosed
	}

	element, err := marshalElement(v)
	if err != nil {
		return fmt.Errorf("failed to encode element for %s: %w", w.path, err)
	}

	separator := ",\n" + indent
	if w.count == 0 {
		separator = "\n" + indent
	}
	if _, err := w.buf.WriteString(separator); err != nil {
		return fmt.Errorf("failed to write %s: %w", w.path, err)
	}
	if _, err := w.buf.Write(element); err != nil {
		return fmt.Errorf("failed to write %s: %w", w.path, err)
	}
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", w.path, err)
	}

	w.count++
	return nil
}

// Close writes the closing bracket and closes the file. Closing twice is a no-op.
func (w *ArrayWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	closing := "\n]\n"
	if w.count == 0 {
		closing = "]\n"
	}

	_, werr := w.buf.WriteString(closing)
	ferr := w.buf.Flush()
	cerr := w.file.Close()

	if err := multierr.Combine(werr, ferr, cerr); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", w.path, err)
	}
	return nil
}

// marshalElement encodes v indented one level deep, without HTML escaping.
func marshalElement(v interface{}) ([]byte, error) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	enc.SetIndent(indent, indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(b.Bytes(), "\n"), nil
}
