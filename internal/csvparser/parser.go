// =============================================================================
// Trade Reconciliation - CSV Parser Module
// =============================================================================
//
// This module streams delimited input files (symbols, fills, trades) one
// line at a time. It never loads a whole file into memory.
//
// FEATURES:
//   - Header line required; the file is rejected before any row is yielded
//     if it has none
//   - Quote-aware tokenization: a delimiter inside double quotes is literal
//   - Quote characters are stripped and every token is trimmed
//   - Blank lines are skipped, but still advance the line counter
//   - Short rows map their missing trailing columns to absent values
//
// LINE FRAMING:
//   Each physical line is exactly one record. A quoted field cannot span
//   lines, which keeps line numbers in exception reports equal to the line
//   numbers a user sees in an editor.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ginjaninja78/trade-reconciliation/internal/types"
)

// ErrEmptyFile is returned when a source file has no header line.
var ErrEmptyFile = errors.New("empty CSV file")

// DefaultDelimiter separates fields when no other delimiter is configured.
const DefaultDelimiter = ','

// =============================================================================
// STREAMING PARSER
// =============================================================================

// StreamingParser yields the data rows of a delimited file lazily.
//
// USAGE:
//
//	parser, err := NewStreamingParser(filePath)
//	if err != nil {
//	    return err
//	}
//	defer parser.Close()
//
//	for parser.Next() {
//	    row := parser.Row()
//	    // Process the row...
//	}
//
//	if err := parser.Err(); err != nil {
//	    return err
//	}
type StreamingParser struct {
	path       string
	closer     io.Closer
	scanner    *bufio.Scanner
	delimiter  rune
	headers    []string
	currentRow types.RawRow
	lineNumber int
	err        error
}

// NewStreamingParser opens a CSV file and reads its header line.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//
// RETURNS:
//   - A pointer to the StreamingParser, positioned before the first data row.
//   - An error wrapping ErrEmptyFile if the file has no header line, or the
//     underlying error if the file cannot be opened or read.
func NewStreamingParser(filePath string) (*StreamingParser, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	parser, err := NewStreamingParserFromReader(filePath, file, DefaultDelimiter)
	if err != nil {
		file.Close()
		return nil, err
	}
	parser.closer = file

	return parser, nil
}

// NewStreamingParserFromReader builds a parser over an already-open reader.
// The name is used in error messages only. Closing the parser does not close r.
func NewStreamingParserFromReader(name string, r io.Reader, delimiter rune) (*StreamingParser, error) {
	scanner := bufio.NewScanner(r)
	// Allow long lines; the default 64KB token limit is too small for wide exports.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	parser := &StreamingParser{
		path:      name,
		scanner:   scanner,
		delimiter: delimiter,
	}

	if err := parser.readHeaders(); err != nil {
		return nil, err
	}

	return parser, nil
}

// readHeaders reads and tokenizes line 1.
func (p *StreamingParser) readHeaders() error {
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return fmt.Errorf("error reading header of %s: %w", p.path, err)
		}
		return fmt.Errorf("%w: %s", ErrEmptyFile, p.path)
	}

	p.lineNumber = 1
	p.headers = Tokenize(stripBOM(p.scanner.Text()), p.delimiter)

	return nil
}

// Next advances to the next non-blank row. Returns false when there are no
// more rows or a read error occurred.
func (p *StreamingParser) Next() bool {
	if p.err != nil {
		return false
	}

	for p.scanner.Scan() {
		p.lineNumber++
		line := p.scanner.Text()

		// Skip blank lines.
		if strings.TrimSpace(line) == "" {
			continue
		}

		p.currentRow = types.RawRow{
			Line:   p.lineNumber,
			Fields: toFields(p.headers, Tokenize(line, p.delimiter)),
		}
		return true
	}

	if err := p.scanner.Err(); err != nil {
		p.err = fmt.Errorf("error reading line %d of %s: %w", p.lineNumber+1, p.path, err)
	}
	return false
}

// Row returns the current row.
func (p *StreamingParser) Row() types.RawRow {
	return p.currentRow
}

// Headers returns the parsed headers.
func (p *StreamingParser) Headers() []string {
	return p.headers
}

// Path returns the name the parser was opened with.
func (p *StreamingParser) Path() string {
	return p.path
}

// Err returns any error that occurred during parsing.
func (p *StreamingParser) Err() error {
	return p.err
}

// Close closes the underlying file, if the parser opened it.
func (p *StreamingParser) Close() error {
	if p.closer == nil {
		return nil
	}
	err := p.closer.Close()
	p.closer = nil
	return err
}

// =============================================================================
// TOKENIZER
// =============================================================================

// Tokenize splits one line into trimmed tokens. A double quote toggles quoted
// mode and is dropped from the output; the delimiter is literal while quoted.
func Tokenize(line string, delimiter rune) []string {
	var tokens []string
	var current strings.Builder
	inQuotes := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == delimiter && !inQuotes:
			tokens = append(tokens, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	tokens = append(tokens, strings.TrimSpace(current.String()))

	return tokens
}

// toFields pairs tokens with headers. Missing or empty tokens become nil.
func toFields(headers, tokens []string) types.RawFields {
	fields := make(types.RawFields, len(headers))

	for i, header := range headers {
		if i < len(tokens) && tokens[i] != "" {
			value := tokens[i]
			fields[header] = &value
		} else {
			fields[header] = nil
		}
	}

	return fields
}

// stripBOM removes a UTF-8 byte order mark left by spreadsheet exports.
func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}
