package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joeberkovitz/gmnx-viewer/config"
	"github.com/joeberkovitz/gmnx-viewer/logger"
	"github.com/joeberkovitz/gmnx-viewer/remote"
	"github.com/joeberkovitz/gmnx-viewer/tui"
)

var (
	playDemo    bool
	playTUI     bool
	playIndex   int
	playNoAudio bool
	playOSC     string
)

func init() {
	playCmd.Flags().BoolVar(&playDemo, "demo", false, "play the built-in demo score")
	playCmd.Flags().BoolVar(&playTUI, "tui", false, "show the terminal interface")
	playCmd.Flags().IntVar(&playIndex, "index", 0, "performance to play")
	playCmd.Flags().BoolVar(&playNoAudio, "no-audio", false, "run without the speaker")
	playCmd.Flags().StringVar(&playOSC, "osc", "", "listen for OSC control on this address")
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play [score.yaml]",
	Short: "Play a score",
	Long:  `Plays one performance of a score, sounding its events and decorating the score as it goes.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(args)
	},
}

func runPlay(args []string) error {
	log := logger.GetProjectLogger()
	cfg := config.GetViewerConfig()

	eng, err := newEngine(cfg, playNoAudio)
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := buildFromArgs(eng, args, playDemo); err != nil {
		return err
	}

	if playOSC != "" {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		srv := remote.NewServer(playOSC, eng)
		go func() {
			if err := srv.ListenAndServe(ctx); err != nil {
				log.Warnf("osc server: %v", err)
			}
		}()
	}

	if playTUI {
		return tui.Run(eng, playIndex)
	}

	if err := eng.Play(playIndex); err != nil {
		return err
	}
	p, err := eng.Performance(playIndex)
	if err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	if playOSC != "" {
		// remote control keeps the process alive until interrupted
		<-sig
		log.Info("interrupted")
	} else {
		select {
		case <-sig:
			log.Info("interrupted")
		case <-time.After(cfg.LeadIn + p.Horizon() + time.Second):
		}
	}
	eng.StopAll()
	return nil
}
