package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prymochenkovictoria/sql-create-parser/internal"
)

func newTestSession(t *testing.T, format string) (*session, *bytes.Buffer, string) {
	t.Helper()
	var out bytes.Buffer
	path := filepath.Join(t.TempDir(), "hist", "history")
	return &session{
		out:     &out,
		format:  format,
		history: NewHistory(path, 0),
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, &out, path
}

func TestSession_MultilineStatement(t *testing.T) {
	s, out, histPath := newTestSession(t, internal.OutputJSON)

	prompt, quit := s.feed("CREATE TABLE users (")
	assert.False(t, quit)
	assert.Equal(t, promptCont, prompt)

	prompt, _ = s.feed("  id INT NOT NULL,")
	assert.Equal(t, promptCont, prompt)

	prompt, _ = s.feed("  name TEXT);")
	assert.Equal(t, promptMain, prompt)
	assert.Contains(t, out.String(), `"table": "users"`)

	raw, err := os.ReadFile(histPath)
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE users ( id INT NOT NULL, name TEXT);\n", string(raw))
}

func TestSession_ParseError(t *testing.T) {
	s, out, _ := newTestSession(t, internal.OutputDebug)

	prompt, quit := s.feed("CREATE TABLE users (name VARCHAR(abc));")
	assert.False(t, quit)
	assert.Equal(t, promptMain, prompt)
	assert.Contains(t, out.String(), "error: column name: invalid VARCHAR length")
}

func TestSession_MetaCommands(t *testing.T) {
	s, out, _ := newTestSession(t, internal.OutputDebug)

	_, quit := s.feed("\\help")
	assert.False(t, quit)
	assert.Contains(t, out.String(), "meta commands:")

	s.feed("create table t (a int);")
	out.Reset()
	s.feed("\\history")
	assert.Equal(t, "    1  create table t (a int);\n", out.String())

	out.Reset()
	s.feed("\\nope")
	assert.Contains(t, out.String(), "unknown command: \\nope")

	for _, q := range []string{"\\q", "quit", "exit"} {
		_, quit = s.feed(q)
		assert.True(t, quit, q)
	}
}

func TestSession_MetaInsideStatementIsSQL(t *testing.T) {
	s, _, _ := newTestSession(t, internal.OutputDebug)

	s.feed("CREATE TABLE t (")
	_, quit := s.feed("exit")
	assert.False(t, quit)
	assert.Equal(t, promptCont, s.prompt())

	assert.True(t, s.reset())
	assert.Equal(t, promptMain, s.prompt())
	assert.False(t, s.reset())
}

func TestHistory_LoadBounded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	require.NoError(t, os.WriteFile(path, []byte("a;\n\nb;\nc;\n"), 0o644))

	h := NewHistory(path, 2)
	require.NoError(t, h.Load())
	assert.Equal(t, []string{"b;", "c;"}, h.lines)

	var out bytes.Buffer
	h.Print(&out, 0)
	assert.Equal(t, "    1  b;\n    2  c;\n", out.String())

	missing := NewHistory(filepath.Join(t.TempDir(), "none"), 10)
	assert.NoError(t, missing.Load())
	assert.Empty(t, missing.lines)
}

func TestHistory_InMemoryOnly(t *testing.T) {
	h := NewHistory("", 0)
	require.NoError(t, h.Append("  CREATE TABLE t\n(a INT);  "))
	require.NoError(t, h.Append("   "))
	assert.Equal(t, []string{"CREATE TABLE t (a INT);"}, h.lines)
}

func TestHistory_AppendBounded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	h := NewHistory(path, 2)

	for _, stmt := range []string{"a;", "b;", "c;", "d;"} {
		require.NoError(t, h.Append(stmt))
	}
	assert.Equal(t, []string{"c;", "d;"}, h.lines)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "c;\nd;\n", string(raw))

	reloaded := NewHistory(path, 2)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, []string{"c;", "d;"}, reloaded.lines)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestHistory_InMemoryBounded(t *testing.T) {
	h := NewHistory("", 1)
	require.NoError(t, h.Append("a;"))
	require.NoError(t, h.Append("b;"))
	assert.Equal(t, []string{"b;"}, h.lines)
}

func TestCompactOneLine(t *testing.T) {
	assert.Equal(t, "a b c", compactOneLine(" a\t\tb\r\n  c "))
	assert.True(t, statementComplete("CREATE TABLE t (a INT)\n;"))
	assert.False(t, strings.Contains(compactOneLine("x\ny"), "\n"))
}
