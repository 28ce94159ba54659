package cmd

import (
	"encoding/hex"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/ssargent/rowcheck/pkg/codec"
)

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <hex>",
		Short: "Decode a hex-encoded row",
		Long: `Decode a hex-encoded row and print its fields.

Example:
  rowcheck decode 7fffffffffffffff0178800000000000002a`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := hex.DecodeString(strings.TrimSpace(args[0]))
			if err != nil {
				return errors.Wrap(err, "invalid hex")
			}

			row, err := codec.NewRowCodec().Decode(data)
			if err != nil {
				return err
			}

			cmd.Printf("sort_key: %d\n", row.SortKey())
			cmd.Printf("name:     %q\n", row.Name())
			cmd.Printf("offset:   %d\n", row.Offset())
			return nil
		},
	}
}
