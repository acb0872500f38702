// SPDX-License-Identifier: MIT

// Package cmd parses the command line into run options. Runtime tuning
// lives in the YAML configuration; flags only pick the mode and point
// at inputs.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"audioviz/internal/waveform"
	"audioviz/pkg/build"
)

// Options is what the command line resolved to: which command should
// run and the arguments it needs. An empty Command means cobra already
// handled everything (help, completion, version flag).
type Options struct {
	ConfigPath string
	Verbose    bool

	Command string

	// Live engine switches.
	Tone     bool
	Headless bool

	// thumb arguments.
	ThumbFile   string
	ThumbBlocks int
	ThumbOut    string
}

// ParseArgs builds the command tree, runs it against os.Args and
// returns the selected options.
func ParseArgs() (*Options, error) {
	info := build.Get()
	name := info.Name
	if name == "unknown" {
		name = "audioviz"
	}

	options := &Options{}

	rootCmd := &cobra.Command{
		Use:           name,
		Short:         "Realtime audio analysis with terminal, WebSocket and UDP outputs",
		Version:       info.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Command = "live"
			return nil
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.PersistentFlags().StringVarP(&options.ConfigPath, "config", "c", "",
		"Path to the YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&options.Verbose, "verbose", "v", false,
		"Show verbose output")

	// Live engine configuration
	rootCmd.Flags().BoolVarP(&options.Tone, "tone", "t", false,
		"Analyze the built-in test tone instead of a capture device")
	rootCmd.Flags().BoolVar(&options.Headless, "headless", false,
		"Run without the terminal meter, transports only")

	// Devices command
	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "List available audio devices",
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = "devices"
		},
	}
	rootCmd.AddCommand(devicesCmd)

	// Thumbnail command
	thumbCmd := &cobra.Command{
		Use:   "thumb <file>",
		Short: "Summarize an audio file into a waveform thumbnail",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = "thumb"
			options.ThumbFile = args[0]
		},
	}
	thumbCmd.Flags().IntVarP(&options.ThumbBlocks, "blocks", "n", waveform.DefaultBlockCount,
		"Number of envelope blocks in the thumbnail")
	thumbCmd.Flags().StringVarP(&options.ThumbOut, "out", "o", "",
		"Write the thumbnail JSON to this file instead of stdout")
	rootCmd.AddCommand(thumbCmd)

	// Version command
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = "version"
		},
	}
	rootCmd.AddCommand(versionCmd)

	// Execute the CLI
	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return options, nil
}
