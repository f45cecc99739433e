package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bniss/aposynthese/pkg/piano"
)

// keysCmd prints the static 88-key equal-tempered frequency table
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Print the 88-key equal-tempered frequency table",
	RunE: func(cmd *cobra.Command, args []string) error {
		keys := piano.Keys()

		if outputFormat == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(keys)
		}

		for _, k := range keys {
			fmt.Printf("%2d  %-3s %10.3f Hz\n", k.Number, k.Name, k.Frequency)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keysCmd)
}
