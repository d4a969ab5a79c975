package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	flags := &runFlags{}

	ctx := newCommandContext(&configFlag, flags)

	rootCmd := &cobra.Command{
		Use:   "prosody",
		Short: "Extract per-word prosodic features from TextGrid/audio pairs",
		Long: "prosody walks a corpus directory, reads the word tier of every TextGrid,\n" +
			"measures pitch and intensity over each word in the paired recording and\n" +
			"writes one row per word: Legendre coefficients of both contours and,\n" +
			"optionally, summary statistics and the speaking rate.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig(cmd)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtraction(cmd, ctx)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	flags.register(rootCmd.Flags(), rootCmd.PersistentFlags())

	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newDepsCommand(ctx))

	return rootCmd
}
