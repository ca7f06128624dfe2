package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/oarkflow/segtag/nlp/bio"
	"github.com/oarkflow/segtag/nlp/config"
	"github.com/oarkflow/segtag/nlp/dataset"
	"github.com/oarkflow/segtag/nlp/export"
	"github.com/oarkflow/segtag/nlp/logging"
	"github.com/oarkflow/segtag/nlp/morphology"
	"github.com/oarkflow/segtag/nlp/pipeline"
	"github.com/oarkflow/segtag/nlp/stopwords"
	"github.com/oarkflow/segtag/nlp/store"
)

// engine loads configuration and builds the analyzer every command shares.
func engine(configPath string, stderr io.Writer) (*morphology.Analyzer, *config.Config, error) {
	if err := config.LoadEnvFile(""); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	opts, err := cfg.Morphology.Options()
	if err != nil {
		return nil, nil, err
	}
	opts = append(opts, morphology.WithLogger(logger))
	return morphology.New(opts...), cfg, nil
}

// openInput returns stdin for "" or "-".
func openInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(stdin), nil
	}
	return os.Open(path)
}

func pipelineOptions(cfg *config.Config) pipeline.Options {
	return pipeline.Options{Workers: cfg.Pipeline.Workers, RatePerSecond: cfg.Pipeline.RatePerSecond}
}

func analyzeCmd(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "config file (.yaml, .bcl or .json)")
	in := fs.String("in", "", "read words from file, - for stdin")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	a, cfg, err := engine(*configPath, stderr)
	if err != nil {
		return err
	}
	enc, err := export.NewEncoder(stdout, export.JSONL)
	if err != nil {
		return err
	}
	emit := func(r morphology.Result) error { return enc.Encode(r) }

	if words := fs.Args(); len(words) > 0 && *in == "" {
		results, err := pipeline.Run(ctx, a, words, pipelineOptions(cfg))
		if err != nil {
			return err
		}
		for _, r := range results {
			if err := emit(r); err != nil {
				return err
			}
		}
		return enc.Flush()
	}

	r, err := openInput(*in, stdin)
	if err != nil {
		return err
	}
	defer r.Close()
	if err := pipeline.Stream(ctx, r, a, pipelineOptions(cfg), emit); err != nil {
		return err
	}
	return enc.Flush()
}

func datasetCmd(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("dataset", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "config file (.yaml, .bcl or .json)")
	in := fs.String("in", "", "word list, - for stdin")
	out := fs.String("out", "", "output file, - or empty for stdout")
	format := fs.String("format", string(export.JSONL), "jsonl or msgpack")
	dsn := fs.String("db", "", "also persist records to this sqlite database")
	stop := fs.String("stopwords", "", `skip words in this list ("english" for the built-in list)`)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	f, err := export.ParseFormat(*format)
	if err != nil {
		return err
	}
	a, cfg, err := engine(*configPath, stderr)
	if err != nil {
		return err
	}
	if *dsn == "" && cfg.Store.Enabled() {
		*dsn = cfg.Store.DSN
	}

	var st *store.Store
	batchID := store.NewBatchID()
	if *dsn != "" {
		st, err = store.Open(cfg.Store.Driver, *dsn)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(); err != nil {
			return err
		}
	}

	src, err := openInput(*in, stdin)
	if err != nil {
		return err
	}
	defer src.Close()

	dst := io.Writer(stdout)
	if *out != "" && *out != "-" {
		file, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer file.Close()
		dst = file
	}
	w, err := dataset.NewWriter(dst, f)
	if err != nil {
		return err
	}

	popts := pipelineOptions(cfg)
	if *stop != "" {
		set, err := stopwords.LoadFile(*stop)
		if err != nil {
			return err
		}
		popts.Skip = set.Contains
	}
	err = pipeline.Stream(ctx, src, a, popts, func(r morphology.Result) error {
		rec, err := dataset.FromResult(r)
		if err != nil {
			return err
		}
		if err := w.Write(rec); err != nil {
			return err
		}
		if st != nil {
			return st.Save(rec, batchID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(stderr, "wrote %d records (batch %s)\n", w.Count(), batchID)
	return nil
}

func validateCmd(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "", "dataset file, - for stdin")
	format := fs.String("format", string(export.JSONL), "jsonl or msgpack")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	f, err := export.ParseFormat(*format)
	if err != nil {
		return err
	}
	src, err := openInput(*in, stdin)
	if err != nil {
		return err
	}
	defer src.Close()

	var valid, invalid int
	report := func(n int, err error) {
		invalid++
		fmt.Fprintf(stdout, "record %d: %v\n", n, err)
	}

	switch f {
	case export.JSONL:
		scanner := bufio.NewScanner(src)
		scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)
		n := 0
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(strings.TrimSpace(string(line))) == 0 {
				continue
			}
			n++
			if _, err := dataset.DecodeLine(line); err != nil {
				report(n, err)
				continue
			}
			valid++
		}
		if err := scanner.Err(); err != nil {
			return err
		}
	default:
		r, err := dataset.NewReader(src, f)
		if err != nil {
			return err
		}
		for n := 1; ; n++ {
			rec, err := r.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return err
			}
			if err := dataset.Validate(rec); err != nil {
				report(n, err)
				continue
			}
			valid++
		}
	}

	fmt.Fprintf(stdout, "%d valid, %d invalid\n", valid, invalid)
	if invalid > 0 {
		return fmt.Errorf("%d invalid records", invalid)
	}
	return nil
}

func vocabCmd(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("vocab", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "", "dataset file, - for stdin")
	format := fs.String("format", string(export.JSONL), "jsonl or msgpack")
	kind := fs.String("kind", "char", "char, affix or label")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	f, err := export.ParseFormat(*format)
	if err != nil {
		return err
	}
	src, err := openInput(*in, stdin)
	if err != nil {
		return err
	}
	defer src.Close()
	r, err := dataset.NewReader(src, f)
	if err != nil {
		return err
	}
	records, err := r.ReadAll()
	if err != nil {
		return err
	}

	var table map[string]int
	switch *kind {
	case "char":
		words := make([]string, len(records))
		for i, rec := range records {
			words[i] = rec.Word
		}
		table = dataset.BuildCharVocab(words).Table()
	case "affix":
		table = dataset.BuildAffixVocab(records).Table()
	case "label":
		table = make(map[string]int, len(bio.Tags))
		for i, tag := range bio.Tags {
			table[tag] = i
		}
	default:
		fmt.Fprintf(stderr, "unknown vocabulary kind %q\n", *kind)
		return errUsage
	}
	out, err := export.ToJSON(table)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, out)
	return err
}
