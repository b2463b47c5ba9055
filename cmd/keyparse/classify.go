package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/cosmez/keyparse-go/internal/cluster"
	"github.com/cosmez/keyparse-go/internal/command"
	"github.com/cosmez/keyparse-go/internal/conn"
	"github.com/cosmez/keyparse-go/internal/output"
	"github.com/cosmez/keyparse-go/internal/resp"
	"github.com/cosmez/keyparse-go/internal/serializer"
	"github.com/cosmez/keyparse-go/internal/tui"
)

// errFailures is returned when at least one request did not parse.
var errFailures = errors.New("some requests failed to parse")

// classifier parses requests, routes them and prints the result.
type classifier struct {
	w      io.Writer
	alloc  *command.Allocator
	parser command.Parser
	split  bool
	tsv    bool
	opts   output.PrintOpts

	failed int
}

func newClassifier(w io.Writer) *classifier {
	cl := &classifier{
		w:      w,
		alloc:  command.NewAllocator(),
		parser: command.Parser{MaxKeys: maxKeys},
		split:  split,
		tsv:    format == "tsv",
		opts:   output.PrintOpts{Color: !color.NoColor, Newline: true},
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 40 {
			cl.opts.MaxKeyWidth = width - 24
		}
	} else {
		cl.opts.Color = false
	}
	return cl
}

// classify handles one framed request and releases it.
func (cl *classifier) classify(raw []byte) {
	c := cl.alloc.New(raw)
	defer cl.alloc.Release(c)

	if err := cl.parser.Parse(c); err != nil {
		cl.failed++
	} else if err := cluster.Assign(c); errors.Is(err, cluster.ErrCrossSlot) && cl.split {
		// Unsplittable classes keep slot -1; the key list still shows why.
		_ = cluster.Split(cl.alloc, &cl.parser, c)
	}

	if cl.tsv {
		output.WriteTSV(cl.w, c)
		return
	}
	output.PrintCommand(cl.w, c, cl.opts)
}

// classifyLine tokenizes an inline command and classifies its RESP form.
func (cl *classifier) classifyLine(line string) error {
	args, err := resp.Tokenize(line)
	if err != nil {
		return fmt.Errorf("tokenize: %w", err)
	}
	if len(args) == 0 {
		return nil
	}
	raw := make([][]byte, len(args))
	for i, a := range args {
		raw[i] = []byte(a)
	}
	cl.classify(resp.EncodeRequest(raw))
	return cl.result()
}

// classifyStream classifies every request read from r.
func (cl *classifier) classifyStream(r io.Reader) error {
	for raw, err := range conn.Requests(r, 0) {
		if err != nil {
			return fmt.Errorf("read request: %w", err)
		}
		cl.classify(raw)
	}
	return cl.result()
}

// classifyDump decodes a dump file with the named codec and classifies it.
func (cl *classifier) classifyDump(path, codecName string) error {
	data, err := readDump(path, codecName)
	if err != nil {
		return err
	}
	return cl.classifyStream(bytes.NewReader(data))
}

func (cl *classifier) result() error {
	if cl.failed > 0 {
		return fmt.Errorf("%d request(s): %w", cl.failed, errFailures)
	}
	return nil
}

func readDump(path, codecName string) ([]byte, error) {
	s, err := serializer.Get(codecName)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data, err = s.Deserialize(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s as %s: %w", path, codecName, err)
	}
	return data, nil
}

// runTUI loads the requests of -f (or of stdin when it is not a terminal)
// and opens the browser.
func runTUI(cmd *cobra.Command) error {
	var requests [][]byte
	var err error
	switch {
	case dumpFile != "":
		var data []byte
		if data, err = readDump(dumpFile, codec); err == nil {
			requests, err = frameAll(data)
		}
	case !isTerminal(cmd.InOrStdin()):
		var data []byte
		if data, err = io.ReadAll(cmd.InOrStdin()); err == nil {
			requests, err = frameAll(data)
		}
	}
	if err != nil {
		return err
	}
	return tui.Run(requests, command.Parser{MaxKeys: maxKeys}, split)
}
