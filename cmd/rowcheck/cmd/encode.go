package cmd

import (
	"encoding/hex"

	"github.com/spf13/cobra"
	"github.com/ssargent/rowcheck/pkg/codec"
)

func newEncodeCmd() *cobra.Command {
	encodeCmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode a row and print it as hex",
		Long: `Encode a row and print it as hex.

Examples:
  rowcheck encode --sort-key -1 --name x --offset 42
  rowcheck encode --name series --offset 7 --derive-key`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sortKey, _ := cmd.Flags().GetInt64("sort-key")
			name, _ := cmd.Flags().GetString("name")
			offset, _ := cmd.Flags().GetInt64("offset")
			deriveKey, _ := cmd.Flags().GetBool("derive-key")

			row := codec.RowOf(sortKey, name, offset)
			if deriveKey {
				row = codec.NewRow(name, offset)
			}

			encoded, err := codec.NewRowCodec().Encode(row)
			if err != nil {
				return err
			}

			cmd.Println(hex.EncodeToString(encoded))
			return nil
		},
	}

	encodeCmd.Flags().Int64("sort-key", 0, "Sort key")
	encodeCmd.Flags().String("name", "", "Row name")
	encodeCmd.Flags().Int64("offset", 0, "Row offset")
	encodeCmd.Flags().Bool("derive-key", false, "Derive the sort key from the name")
	encodeCmd.MarkFlagsMutuallyExclusive("sort-key", "derive-key")

	return encodeCmd
}
