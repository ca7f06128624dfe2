// Command segtag segments words, writes BIO-labelled datasets and validates
// them.
//
//	segtag analyze [-config file] [-in words.txt] [word ...]
//	segtag dataset [-config file] -in words.txt -out data.jsonl [-format jsonl|msgpack] [-db dsn]
//	segtag validate -in data.jsonl [-format jsonl|msgpack]
//	segtag vocab -in data.jsonl [-kind char|affix|label]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

const usage = `usage: segtag <command> [flags]

commands:
  analyze   segment words from arguments or -in and print JSON lines
  dataset   write BIO-labelled records for every word in -in
  validate  check a dataset file record by record
  vocab     print the character, affix or label vocabulary of a dataset
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			slog.Error("segtag failed", slog.String("err", err.Error()))
		}
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "analyze":
		return analyzeCmd(ctx, rest, stdin, stdout, stderr)
	case "dataset":
		return datasetCmd(ctx, rest, stdin, stdout, stderr)
	case "validate":
		return validateCmd(rest, stdin, stdout, stderr)
	case "vocab":
		return vocabCmd(rest, stdin, stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return errUsage
	}
}
