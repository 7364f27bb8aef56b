package cmd

import (
	"github.com/spf13/cobra"

	"github.com/joeberkovitz/gmnx-viewer/config"
	"github.com/joeberkovitz/gmnx-viewer/export"
	"github.com/joeberkovitz/gmnx-viewer/logger"
)

var (
	exportDemo  bool
	exportIndex int
	exportOut   string
)

func init() {
	exportCmd.Flags().BoolVar(&exportDemo, "demo", false, "export the built-in demo score")
	exportCmd.Flags().IntVar(&exportIndex, "index", 0, "performance to export")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "score.mid", "output MIDI file")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export [score.yaml]",
	Short: "Export a data performance as a standard MIDI file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(args)
	},
}

func runExport(args []string) error {
	cfg := config.GetViewerConfig()
	eng, err := newEngine(cfg, true)
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := buildFromArgs(eng, args, exportDemo); err != nil {
		return err
	}
	p, err := eng.Performance(exportIndex)
	if err != nil {
		return err
	}
	if err := export.WriteFile(p, exportOut); err != nil {
		return err
	}
	logger.GetProjectLogger().Infof("wrote %s", exportOut)
	return nil
}
