package csvparser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/trade-reconciliation/internal/types"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func drain(t *testing.T, p *StreamingParser) []types.RawRow {
	t.Helper()
	var rows []types.RawRow
	for p.Next() {
		rows = append(rows, p.Row())
	}
	require.NoError(t, p.Err())
	return rows
}

func value(t *testing.T, row types.RawRow, column string) string {
	t.Helper()
	v, ok := row.Fields.Get(column)
	require.True(t, ok, "column %s absent", column)
	return v
}

func TestStreamingParserReadsRows(t *testing.T) {
	p, err := NewStreamingParser(writeCSV(t, "id,name\n1,foo\n2,bar\n"))
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, []string{"id", "name"}, p.Headers())

	rows := drain(t, p)
	require.Len(t, rows, 2)
	assert.Equal(t, "1", value(t, rows[0], "id"))
	assert.Equal(t, "foo", value(t, rows[0], "name"))
	assert.Equal(t, "2", value(t, rows[1], "id"))
	assert.Equal(t, "bar", value(t, rows[1], "name"))
}

func TestStreamingParserLineNumbers(t *testing.T) {
	p, err := NewStreamingParser(writeCSV(t, "id\n1\n\n   \n2\n"))
	require.NoError(t, err)
	defer p.Close()

	rows := drain(t, p)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Line)
	// Blank lines 3 and 4 are skipped but still counted.
	assert.Equal(t, 5, rows[1].Line)
}

func TestStreamingParserQuotedDelimiter(t *testing.T) {
	p, err := NewStreamingParser(writeCSV(t, "id,name\n1,\"foo, bar\"\n"))
	require.NoError(t, err)
	defer p.Close()

	rows := drain(t, p)
	require.Len(t, rows, 1)
	assert.Equal(t, "foo, bar", value(t, rows[0], "name"))
}

func TestStreamingParserMissingColumnsAreAbsent(t *testing.T) {
	p, err := NewStreamingParser(writeCSV(t, "id,name,value\n1,foo\n2,,x\n"))
	require.NoError(t, err)
	defer p.Close()

	rows := drain(t, p)
	require.Len(t, rows, 2)

	v, present := rows[0].Fields["value"]
	assert.True(t, present, "header key should exist")
	assert.Nil(t, v)

	_, ok := rows[1].Fields.Get("name")
	assert.False(t, ok, "empty token should be absent")
}

func TestStreamingParserCRLFAndBOM(t *testing.T) {
	p, err := NewStreamingParser(writeCSV(t, "\ufeffid,name\r\n1,foo\r\n"))
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, []string{"id", "name"}, p.Headers())
	rows := drain(t, p)
	require.Len(t, rows, 1)
	assert.Equal(t, "foo", value(t, rows[0], "name"))
}

func TestStreamingParserEmptyFile(t *testing.T) {
	_, err := NewStreamingParser(writeCSV(t, ""))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyFile))
}

func TestStreamingParserHeaderOnly(t *testing.T) {
	p, err := NewStreamingParser(writeCSV(t, "id,name\n"))
	require.NoError(t, err)
	defer p.Close()

	assert.Empty(t, drain(t, p))
}

func TestStreamingParserMissingFile(t *testing.T) {
	_, err := NewStreamingParser(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestStreamingParserFromReader(t *testing.T) {
	p, err := NewStreamingParserFromReader("inline", strings.NewReader("a|b\n1|\"x|y\"\n"), '|')
	require.NoError(t, err)
	defer p.Close()

	rows := drain(t, p)
	require.Len(t, rows, 1)
	assert.Equal(t, "x|y", value(t, rows[0], "b"))
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{name: "plain", line: "a,b,c", want: []string{"a", "b", "c"}},
		{name: "trims", line: " a , b ,c ", want: []string{"a", "b", "c"}},
		{name: "quoted", line: `"a,1",b`, want: []string{"a,1", "b"}},
		{name: "trailing empty", line: "a,", want: []string{"a", ""}},
		{name: "empty line", line: "", want: []string{""}},
		{name: "quotes stripped mid token", line: `ab"c"d,e`, want: []string{"abcd", "e"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.line, DefaultDelimiter))
		})
	}
}
