// Package cli builds the rjoin command line surface: flag parsing,
// config resolution, and wiring the rollbuf/structidx/csvparse/
// rgroup/join/printer pipeline end to end.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"
	"github.com/natefinch/atomic"

	"github.com/gocsv/rjoin/csvparse"
	"github.com/gocsv/rjoin/internal/config"
	"github.com/gocsv/rjoin/join"
	"github.com/gocsv/rjoin/printer"
	"github.com/gocsv/rjoin/rgroup"
	"github.com/gocsv/rjoin/rollbuf"
	"github.com/gocsv/rjoin/structidx"
)

const (
	inBufCap  = 4 * (1 << 12)
	outBufCap = 4 * (1 << 14)
)

// Run parses args, resolves configuration, joins the two input files
// and writes the result to stdout or to the configured output path.
// It returns the process exit code; callers pass it to os.Exit.
func Run(stdin io.Reader, stdout, stderr io.Writer, args []string) int {
	cfg, err := parseArgs(args, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "rjoin:", err)
		return 1
	}
	if cfg == nil {
		return 0 // --help
	}

	if err := run(cfg, stdout); err != nil {
		fmt.Fprintln(stderr, "rjoin:", err)
		return 1
	}
	return 0
}

func parseArgs(args []string, stderr io.Writer) (*config.Config, error) {
	fs := flag.NewFlagSet("rjoin", flag.ContinueOnError)
	fs.SetInterspersed(true)
	fs.Usage = func() {}
	fs.SetOutput(io.Discard)

	var f config.Flags
	help := fs.BoolP("help", "h", false, "show usage")
	fs.BoolVarP(&f.ShowLeft, "show-left", "l", false, "show unmatched left records")
	fs.BoolVarP(&f.ShowRight, "show-right", "r", false, "show unmatched right records")
	fs.BoolVarP(&f.ShowBoth, "show-both", "b", false, "show matched records from both sides")
	fs.BoolVar(&f.Header, "header", false, "treat the first record of each input as a header")
	fs.StringSliceVarP(&f.Key, "key", "k", nil, "1-based key field(s), applied to both sides")
	fs.StringSliceVar(&f.LeftKey, "left-key", nil, "1-based key field(s) for the left side, overrides --key")
	fs.StringSliceVar(&f.RightKey, "right-key", nil, "1-based key field(s) for the right side, overrides --key")
	fs.StringVarP(&f.Delimiter, "delimiter", "d", "", "field delimiter for both input and output")
	fs.StringVar(&f.InDelimiter, "in-delimiter", "", "field delimiter for both inputs")
	fs.StringVar(&f.OutDelimiter, "out-delimiter", "", "field delimiter for output")
	fs.StringVar(&f.InLeftDelimiter, "in-left-delimiter", "", "field delimiter for the left input")
	fs.StringVar(&f.InRightDelimiter, "in-right-delimiter", "", "field delimiter for the right input")
	fs.StringVarP(&f.Terminator, "terminator", "t", "", "record terminator for both input and output")
	fs.StringVar(&f.InTerminator, "in-terminator", "", "record terminator for both inputs")
	fs.StringVar(&f.OutTerminator, "out-terminator", "", "record terminator for output")
	fs.StringVar(&f.InLeftTerminator, "in-left-terminator", "", "record terminator for the left input")
	fs.StringVar(&f.InRightTerminator, "in-right-terminator", "", "record terminator for the right input")
	configPath := fs.String("config", "", "load defaults from a HUJSON config file")
	fs.StringVarP(&f.Output, "output", "o", "", "write to file instead of stdout")

	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}
	if *help {
		return nil, nil
	}

	f.ShowAnySet = fs.Changed("show-left") || fs.Changed("show-right") || fs.Changed("show-both")

	if *configPath != "" {
		fc, err := config.LoadFile(*configPath)
		if err != nil {
			return nil, err
		}
		changed := map[string]bool{}
		fs.Visit(func(fl *flag.Flag) { changed[fl.Name] = true })
		config.ApplyFile(&f, fc, changed)
	}

	positional := fs.Args()
	switch len(positional) {
	case 2:
		f.LeftPath, f.RightPath = positional[0], positional[1]
	case 0, 1:
		// leave paths empty; Resolve reports ErrMissingFile
	default:
		return nil, fmt.Errorf("unexpected extra arguments: %v", positional[2:])
	}

	return config.Resolve(f)
}

func run(cfg *config.Config, stdout io.Writer) error {
	left, err := os.Open(cfg.LeftPath)
	if err != nil {
		return err
	}
	defer left.Close()

	right, err := os.Open(cfg.RightPath)
	if err != nil {
		return err
	}
	defer right.Close()

	parser0 := csvparse.NewParser(
		rollbuf.NewSize(left, inBufCap),
		structidx.New(cfg.InLeftDelimiter, cfg.InLeftTerminator),
	)
	parser1 := csvparse.NewParser(
		rollbuf.NewSize(right, inBufCap),
		structidx.New(cfg.InRightDelimiter, cfg.InRightTerminator),
	)

	p := printer.NewKeyFirst(cfg.OutDelimiter, cfg.OutTerminator, cfg.LeftKey, cfg.RightKey)
	opts := join.Options{ShowLeft: cfg.ShowLeft, ShowRight: cfg.ShowRight, ShowBoth: cfg.ShowBoth}

	out, closeOut, err := openOutput(cfg.Output, stdout)
	if err != nil {
		return err
	}
	defer closeOut()

	if cfg.Header {
		if _, err := join.Header(out, parser0, parser1, p, opts); err != nil {
			return err
		}
	}

	g0, err := rgroup.Init(parser0, cfg.LeftKey)
	if err != nil {
		return err
	}
	g1, err := rgroup.Init(parser1, cfg.RightKey)
	if err != nil {
		return err
	}

	if err := join.Join(out, g0, g1, p, opts); err != nil {
		return err
	}
	return out.Flush()
}

// openOutput returns a buffered writer targeting either stdout or an
// atomically-replaced file, plus a close func that flushes any
// underlying file writer and commits it into place.
func openOutput(path string, stdout io.Writer) (*bufio.Writer, func() error, error) {
	if path == "" {
		return bufio.NewWriterSize(stdout, outBufCap), func() error { return nil }, nil
	}

	tmp, err := os.CreateTemp("", "rjoin-*")
	if err != nil {
		return nil, nil, err
	}
	w := bufio.NewWriterSize(tmp, outBufCap)
	closeFn := func() error {
		if err := w.Flush(); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return err
		}
		if err := tmp.Close(); err != nil {
			os.Remove(tmp.Name())
			return err
		}
		defer os.Remove(tmp.Name())
		return atomic.ReplaceFile(tmp.Name(), path)
	}
	return w, closeFn, nil
}
