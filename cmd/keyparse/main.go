package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	version = "dev" // set at build time via -ldflags "-X main.version=..."

	cmdStr   string
	dumpFile string
	codec    string
	format   string
	maxKeys  int
	split    bool
	noColor  bool
	useTUI   bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "keyparse",
		Short: "Classify Redis requests and extract their keys",
		Long: "keyparse reads Redis unified-protocol requests, resolves the command, " +
			"extracts key positions and computes the cluster slot of every key.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				color.NoColor = true
			}
			cl := newClassifier(cmd.OutOrStdout())

			switch {
			case useTUI:
				return runTUI(cmd)
			case cmdStr != "":
				return cl.classifyLine(cmdStr)
			case dumpFile != "":
				return cl.classifyDump(dumpFile, codec)
			case isTerminal(cmd.InOrStdin()):
				return runRepl(cl)
			default:
				return cl.classifyStream(cmd.InOrStdin())
			}
		},
	}

	rootCmd.Flags().StringVarP(&cmdStr, "command", "c", "", "classify a single inline command and exit")
	rootCmd.Flags().StringVarP(&dumpFile, "file", "f", "", "classify every request in a dump of concatenated RESP requests")
	rootCmd.PersistentFlags().StringVar(&codec, "codec", "none", "dump codec: none, base64, gzip or snappy")
	rootCmd.Flags().StringVar(&format, "format", "text", "output format: text or tsv")
	rootCmd.Flags().IntVar(&maxKeys, "max-keys", 0, "fail requests with more keys than this (0 = no limit)")
	rootCmd.Flags().BoolVar(&split, "split", true, "split cross-slot multi-key requests into per-slot sub-commands")
	rootCmd.Flags().BoolVar(&useTUI, "tui", false, "browse the requests of -f or stdin in a terminal UI")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newEncodeCmd(), newServeCmd(), newReplayCmd())
	return rootCmd
}
