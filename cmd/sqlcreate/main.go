package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/davecgh/go-spew/spew"

	"github.com/prymochenkovictoria/sql-create-parser/internal"
	"github.com/prymochenkovictoria/sql-create-parser/internal/sql/parser"
	"github.com/prymochenkovictoria/sql-create-parser/server/sqlwire"
	"github.com/prymochenkovictoria/sql-create-parser/sqlclient"
)

var dumper = spew.ConfigState{
	Indent:                  "    ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("sqlcreate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "", "path to a YAML config file")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := internal.LoadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.Log.Slog}))

	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Fprintln(stderr, "Error: No command provided.")
		printHelp(stdout)
		return 1
	}

	switch rest[0] {
	case "parse":
		if len(rest) < 2 {
			fmt.Fprintln(stderr, "Error: No file name provided for 'parse' command.")
			return 1
		}
		return cmdParse(cfg, rest[1], stdout, stderr)
	case "help":
		printHelp(stdout)
		return 0
	case "credits":
		printCredits(stdout)
		return 0
	case "repl":
		return cmdRepl(cfg, logger, stdout, stderr)
	case "serve":
		return cmdServe(cfg, logger, stderr)
	case "remote":
		if len(rest) < 2 {
			fmt.Fprintln(stderr, "Error: No file name provided for 'remote' command.")
			return 1
		}
		return cmdRemote(cfg, rest[1], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Error: Unrecognized command '%s'\n", rest[0])
		printHelp(stdout)
		return 1
	}
}

func printHelp(w io.Writer) {
	fmt.Fprint(w, `SQL CREATE TABLE Parser CLI
Usage:
  sqlcreate [-config <file>] <command> [args]
Commands:
  parse <file_name>      Parses the specified schema file.
  remote <file_name>     Parses the file on a running server.
  repl                   Parses statements interactively.
  serve                  Runs the parse server.
  help                   Displays this help message.
  credits                Shows credits and author information.
`)
}

func printCredits(w io.Writer) {
	fmt.Fprint(w, `SQL CREATE TABLE Parser
Developed by Victoria Prymochenko

This tool parses SQL CREATE TABLE queries and outputs their abstract syntax tree (AST).
`)
}

func cmdParse(cfg *internal.Config, path string, stdout, stderr io.Writer) int {
	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to read file '%s': %v\n", path, err)
		return 1
	}

	stmt, err := parser.Parse(string(content))
	if err != nil {
		fmt.Fprintf(stderr, "Error parsing schema: %v\n", err)
		return 1
	}

	if err := renderStmt(stdout, cfg.Output.Format, stmt); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func cmdRemote(cfg *internal.Config, path string, stdout, stderr io.Writer) int {
	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to read file '%s': %v\n", path, err)
		return 1
	}

	c, err := sqlclient.Dial(cfg.Server.Addr, 3*time.Second)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { _ = c.Close() }()
	c.SetRWTimeout(cfg.Server.Timeout)

	schema, err := c.Parse(string(content))
	if err != nil {
		var re *sqlclient.RemoteError
		if errors.As(err, &re) {
			fmt.Fprintf(stderr, "Error parsing schema: %v\n", err)
		} else {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}

	if err := render(stdout, cfg.Output.Format, schema, schema); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func cmdServe(cfg *internal.Config, logger *slog.Logger, stderr io.Writer) int {
	srv, err := sqlwire.NewServer(sqlwire.Options{
		Addr:      cfg.Server.Addr,
		CacheSize: cfg.Server.CacheSize,
		Timeout:   cfg.Server.Timeout,
		Logger:    logger,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func renderStmt(w io.Writer, format string, stmt *parser.CreateTableStmt) error {
	return render(w, format, stmt, sqlwire.SchemaFromStmt(stmt))
}

// render dumps debug in the debug format, or wire as JSON.
func render(w io.Writer, format string, debug any, wire *sqlwire.TableSchema) error {
	if format == internal.OutputJSON {
		b, err := json.MarshalIndent(wire, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", b)
		return err
	}
	_, err := fmt.Fprintf(w, "Parsed Query:\n%s", dumper.Sdump(debug))
	return err
}
