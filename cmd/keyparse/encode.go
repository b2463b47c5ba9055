package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cosmez/keyparse-go/internal/resp"
	"github.com/cosmez/keyparse-go/internal/serializer"
)

func newEncodeCmd() *cobra.Command {
	var commands []string

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode inline commands as a RESP request dump",
		Example: "  keyparse encode -c 'MSET a 1 b 2' -c 'GET a' --codec gzip > dump.gz\n" +
			"  keyparse -f dump.gz --codec gzip",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(commands) == 0 {
				return errors.New("at least one -c command is required")
			}
			dump, err := encodeDump(commands, codec)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(dump)
			return err
		},
	}
	cmd.Flags().StringArrayVarP(&commands, "command", "c", nil, "inline command to encode (repeatable)")
	return cmd
}

// encodeDump concatenates the RESP form of every inline command and applies
// the named codec to the result.
func encodeDump(commands []string, codecName string) ([]byte, error) {
	s, err := serializer.Get(codecName)
	if err != nil {
		return nil, err
	}

	var dump []byte
	for i, line := range commands {
		args, err := resp.Tokenize(line)
		if err != nil {
			return nil, fmt.Errorf("command %d: %w", i+1, err)
		}
		if len(args) == 0 {
			continue
		}
		dump = append(dump, resp.EncodeStrings(args...)...)
	}
	return s.Serialize(dump)
}
