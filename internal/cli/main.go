package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/reelcut/reelcut/internal/logging"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "reelcut <input>",
		Short:        "Select and cut highlight segments from a local video",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			logging.Init(verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	root.Flags().String("out", "out", "Output directory")
	root.Flags().String("prompt", "", "What to look for, e.g. \"catching a pokemon\"")
	root.Flags().String("example", "", "Example range as start-end seconds, e.g. 45-52")
	root.Flags().Float64("target", 60, "Target total duration in seconds")
	root.Flags().Bool("extended", false, "Use the long-video coarse scan")
	root.Flags().Float64("max-cost", 0, "Cost ceiling for extended runs in dollars")
	root.Flags().String("config", "", "Path to reelcut.yaml")
	root.Flags().BoolP("verbose", "v", false, "Debug logging")

	// Hidden tuning flag (internal)
	root.Flags().Float64("padding", 0, "Context padding seconds")
	_ = root.Flags().MarkHidden("padding")

	return root
}
