package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cosmez/keyparse-go/internal/conn"
	"github.com/cosmez/keyparse-go/internal/output"
	"github.com/cosmez/keyparse-go/internal/replay"
)

func newReplayCmd() *cobra.Command {
	var (
		addr        string
		commands    []string
		file        string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Send captured requests to a server and print the replies",
		RunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				color.NoColor = true
			}
			requests, err := collectRequests(commands, file, codec)
			if err != nil {
				return err
			}
			if len(requests) == 0 {
				return errors.New("nothing to replay: use -c or -f")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			client := replay.NewClient(ctx, addr, concurrency)
			defer client.Close(context.Background())

			results := client.Replay(ctx, requests, concurrency)
			return printResults(cmd.OutOrStdout(), results)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&addr, "addr", "127.0.0.1:6379", "server address")
	flags.StringArrayVarP(&commands, "command", "c", nil, "inline command to send (repeatable)")
	flags.StringVarP(&file, "file", "f", "", "dump of concatenated RESP requests")
	flags.IntVar(&concurrency, "concurrency", 4, "parallel connections")
	return cmd
}

// collectRequests frames inline commands and dump requests in that order.
func collectRequests(commands []string, file, codecName string) ([][]byte, error) {
	var requests [][]byte
	if len(commands) > 0 {
		dump, err := encodeDump(commands, "none")
		if err != nil {
			return nil, err
		}
		requests, err = frameAll(dump)
		if err != nil {
			return nil, err
		}
	}
	if file != "" {
		dump, err := readDump(file, codecName)
		if err != nil {
			return nil, err
		}
		more, err := frameAll(dump)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		requests = append(requests, more...)
	}
	return requests, nil
}

func frameAll(dump []byte) ([][]byte, error) {
	var requests [][]byte
	for raw, err := range conn.Requests(bytes.NewReader(dump), 0) {
		if err != nil {
			return nil, err
		}
		requests = append(requests, raw)
	}
	return requests, nil
}

func printResults(w io.Writer, results []replay.Result) error {
	opts := output.PrintOpts{Color: !color.NoColor, Newline: true}
	failed := 0
	for _, r := range results {
		fmt.Fprintf(w, "[%d] ", r.Index+1)
		if r.Err != nil {
			failed++
			color.New(color.FgRed).Fprintf(w, "error: %v\n", r.Err)
			continue
		}
		output.PrintRedisValue(w, r.Reply, opts)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d requests failed", failed, len(results))
	}
	return nil
}
