// Package dataset turns a labelled text file into BPE feature vectors and prepares them for
// a classifier: splitting, class balancing, fixed-width padding and feature selection.
package dataset

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/bpetok/bpetok/internal/tokenizer"
	"github.com/bpetok/bpetok/internal/vocab"
)

// Label is the class of a record.
type Label uint8

const (
	Ham Label = iota
	Spam
)

func (l Label) String() string {
	if l == Spam {
		return "spam"
	}
	return "ham"
}

// Record is one labelled message. Tokens is the output of an independent merge-engine run
// over the message text, so IDs above 255 are only meaningful within the record.
type Record struct {
	Label  Label
	Tokens []vocab.TokenID
}

// Options controls Load.
type Options struct {
	// Delimiter separates the label from the text. Empty means a tab.
	Delimiter string
	// Parallel bounds the number of records encoded at once. Values below 1 mean
	// runtime.NumCPU().
	Parallel int
	// Engine is passed to every merge-engine run.
	Engine tokenizer.Options
}

// Dataset holds the loaded records in file order.
type Dataset struct {
	Records []Record
}

// IOError is returned when the input cannot be read.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("dataset %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("dataset %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

type line struct {
	label Label
	text  string
}

// Load reads "label<delim>text" lines from r. The label "spam" maps to Spam and anything
// else to Ham. Empty lines and lines without the delimiter are skipped.
func Load(ctx context.Context, r io.Reader, opts Options) (*Dataset, error) {
	delim := opts.Delimiter
	if delim == "" {
		delim = "\t"
	}
	parallel := opts.Parallel
	if parallel < 1 {
		parallel = runtime.NumCPU()
	}

	tr := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	sc := bufio.NewScanner(transform.NewReader(r, tr))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []line
	skipped := 0
	for sc.Scan() {
		text := sc.Text()
		if text == "" {
			continue
		}

		label, msg, ok := strings.Cut(text, delim)
		if !ok {
			skipped++
			continue
		}

		l := line{label: Ham, text: msg}
		if label == "spam" {
			l.label = Spam
		}
		lines = append(lines, l)
	}
	if err := sc.Err(); err != nil {
		return nil, &IOError{Op: "read", Err: errors.WithStack(err)}
	}

	records := make([]Record, len(lines))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, l := range lines {
		g.Go(func() error {
			res, err := tokenizer.RunContext(ctx, []byte(l.text), opts.Engine)
			if err != nil {
				return errors.Wrapf(err, "encode record %d", i)
			}
			records[i] = Record{Label: l.label, Tokens: res.Tokens}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.Info("loaded dataset", "records", len(records), "skipped", skipped)
	return &Dataset{Records: records}, nil
}

// LoadFile is Load on the file at path.
func LoadFile(ctx context.Context, path string, opts Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: errors.WithStack(err)}
	}
	defer f.Close()

	d, err := Load(ctx, f, opts)
	if err != nil {
		var ioErr *IOError
		if errors.As(err, &ioErr) {
			ioErr.Path = path
		}
		return nil, err
	}
	return d, nil
}
