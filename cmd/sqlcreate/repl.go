package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/prymochenkovictoria/sql-create-parser/internal"
	"github.com/prymochenkovictoria/sql-create-parser/internal/sql/parser"
)

const (
	promptMain = "sqlcreate> "
	promptCont = "...> "
)

// ---- History (own file) ----

// History keeps at most max statements (0 = unbounded), in memory and on disk.
type History struct {
	path  string
	max   int
	lines []string
}

func NewHistory(path string, max int) *History {
	return &History{path: path, max: max}
}

func (h *History) Load() error {
	if h.path == "" {
		return nil
	}
	f, err := os.Open(h.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" {
			continue
		}
		h.lines = append(h.lines, s)
		h.trim()
	}
	return sc.Err()
}

// trim drops the oldest lines past max and reports whether it dropped any.
func (h *History) trim() bool {
	if h.max <= 0 || len(h.lines) <= h.max {
		return false
	}
	h.lines = append([]string(nil), h.lines[len(h.lines)-h.max:]...)
	return true
}

func (h *History) Append(stmt string) error {
	stmt = compactOneLine(stmt)
	if stmt == "" {
		return nil
	}
	h.lines = append(h.lines, stmt)
	trimmed := h.trim()
	if h.path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return err
	}
	if trimmed {
		return h.rewrite()
	}

	f, err := os.OpenFile(h.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	_, err = fmt.Fprintln(f, stmt)
	return err
}

// rewrite replaces the file with the in-memory lines via a temp file + rename.
func (h *History) rewrite() error {
	tmp := h.path + ".tmp"
	body := strings.Join(h.lines, "\n") + "\n"
	if err := os.WriteFile(tmp, []byte(body), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, h.path)
}

func (h *History) Print(w io.Writer, last int) {
	if last <= 0 || last > len(h.lines) {
		last = len(h.lines)
	}
	start := len(h.lines) - last
	for i := start; i < len(h.lines); i++ {
		fmt.Fprintf(w, "%5d  %s\n", i+1, h.lines[i])
	}
}

// compactOneLine collapses all whitespace runs into single spaces.
func compactOneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// statementComplete reports whether buf contains a ';'.
func statementComplete(buf string) bool {
	return strings.Contains(buf, ";")
}

// ---- session ----

// session accumulates input lines into statements and parses each one.
type session struct {
	out     io.Writer
	format  string
	history *History
	log     *slog.Logger
	buf     strings.Builder
}

// feed handles one input line. It returns the prompt for the next line and
// whether the user asked to quit.
func (s *session) feed(line string) (prompt string, quit bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return s.prompt(), false
	}

	if s.buf.Len() == 0 && isMetaCommand(line) {
		return promptMain, s.meta(line)
	}

	if s.buf.Len() > 0 {
		s.buf.WriteByte('\n')
	}
	s.buf.WriteString(line)

	if !statementComplete(s.buf.String()) {
		return promptCont, false
	}

	stmt := strings.TrimSpace(s.buf.String())
	s.buf.Reset()

	if err := s.history.Append(stmt); err != nil {
		s.log.Warn("repl: history append", "err", err)
	}

	parsed, err := parser.Parse(stmt)
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return promptMain, false
	}
	if err := renderStmt(s.out, s.format, parsed); err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
	}
	return promptMain, false
}

// reset drops a half-typed statement.
func (s *session) reset() bool {
	had := s.buf.Len() > 0
	s.buf.Reset()
	return had
}

func (s *session) prompt() string {
	if s.buf.Len() > 0 {
		return promptCont
	}
	return promptMain
}

func isMetaCommand(line string) bool {
	return strings.HasPrefix(line, "\\") || line == "quit" || line == "exit"
}

func (s *session) meta(line string) bool {
	switch line {
	case "\\q", "quit", "exit":
		return true
	case "\\help":
		fmt.Fprintln(s.out, `meta commands:
  \q | quit | exit       quit
  \history               print history
  \help                  show help

sql:
  end a CREATE TABLE statement with ';'
  multiline input is supported (waits until ';')`)
	case "\\history":
		s.history.Print(s.out, 50)
	default:
		fmt.Fprintf(s.out, "unknown command: %s\n", line)
	}
	return false
}

func cmdRepl(cfg *internal.Config, logger *slog.Logger, stdout, stderr io.Writer) int {
	h := NewHistory(cfg.Repl.History, cfg.Repl.HistoryMax)
	if err := h.Load(); err != nil {
		logger.Warn("repl: history load", "path", cfg.Repl.History, "err", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          promptMain,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          stdout,
		Stderr:          stderr,
	})
	if err != nil {
		fmt.Fprintf(stderr, "readline: %v\n", err)
		return 1
	}
	defer func() { _ = rl.Close() }()

	for _, line := range h.lines {
		_ = rl.SaveHistory(line)
	}

	s := &session{out: stdout, format: cfg.Output.Format, history: h, log: logger}
	fmt.Fprintln(stdout, "type \\help for help")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if !s.reset() {
				fmt.Fprintln(stdout, "^C")
			}
			rl.SetPrompt(promptMain)
			continue
		}
		if err != nil {
			// EOF
			fmt.Fprintln(stdout)
			return 0
		}

		prompt, quit := s.feed(line)
		if quit {
			return 0
		}
		rl.SetPrompt(prompt)
	}
}
