package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joeberkovitz/gmnx-viewer/config"
)

var inspectDemo bool

func init() {
	inspectCmd.Flags().BoolVar(&inspectDemo, "demo", false, "inspect the built-in demo score")
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [score.yaml]",
	Short: "Print the resolved schedule of a score",
	Long:  `Resolves every performance of a score and prints its actions in playback order.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(args)
	},
}

func runInspect(args []string) error {
	cfg := config.GetViewerConfig()
	eng, err := newEngine(cfg, true)
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := buildFromArgs(eng, args, inspectDemo); err != nil {
		return err
	}

	fmt.Printf("%s\n", eng.Document().Title)
	for _, p := range eng.Performances() {
		fmt.Printf("\nperformance %q (%s): unit %.3fs, horizon %s, %d decorations\n",
			p.Name(), p.Kind(), p.UnitSeconds(), p.Horizon(), p.DecorationCount())
		for _, a := range p.Actions() {
			fmt.Printf("  %12s  %-5s  %s\n", a.At, a.Kind, a.Target)
		}
	}
	return nil
}
