package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/bniss/aposynthese/internal/app"
)

var (
	decomposeOutput  string
	decomposeMIDI    string
	decomposeMaxTime time.Duration
	decomposeNoCache bool
	decomposeDebug   bool
	decomposeNoBar   bool
)

// decomposeCmd runs the analysis pipeline on one source file
var decomposeCmd = &cobra.Command{
	Use:   "decompose <file>",
	Short: "Analyze an audio file into piano-key note events",
	Long: `Decompose an audio file (mp3, m4a, wav, ...) into per-frame active
piano keys and finalized note events.

The result is written as JSON or YAML; pass --midi to additionally export the
note events as a standard MIDI file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := &app.Context{
			Input:        args[0],
			OutputFile:   decomposeOutput,
			OutputFormat: outputFormat,
			MIDIFile:     decomposeMIDI,
			MaxTime:      decomposeMaxTime,
			NoCache:      decomposeNoCache,
			Debug:        decomposeDebug,
			NoProgress:   decomposeNoBar,
			Verbose:      verbose,
		}

		application, err := app.NewDecomposerApp(ctx)
		if err != nil {
			return err
		}
		return application.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(decomposeCmd)

	decomposeCmd.Flags().StringVar(&decomposeOutput, "out", "",
		"write the result to this file instead of stdout")
	decomposeCmd.Flags().StringVar(&decomposeMIDI, "midi", "",
		"also export note events as a MIDI file")
	decomposeCmd.Flags().DurationVarP(&decomposeMaxTime, "max-time", "m", 0,
		"truncate the input to this duration before analysis")
	decomposeCmd.Flags().BoolVar(&decomposeNoCache, "no-cache", false,
		"skip the result cache")
	decomposeCmd.Flags().BoolVar(&decomposeDebug, "debug", false,
		"include raw spectrogram slices and unfiltered peaks in the result")
	decomposeCmd.Flags().BoolVar(&decomposeNoBar, "no-progress", false,
		"disable the progress bar")
}
