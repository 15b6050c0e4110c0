package cmd

import (
	"fmt"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kenesis-labs/kenesis-engine/internal/config"
)

var cfg = config.New()

var rootCmd = &cobra.Command{
	Use:   "kenesis",
	Short: "Kenesis marketplace purchase engine",
	Long: `kenesis drives the Kenesis course-marketplace flows from the command line:
wallet sign-in, payment quoting, the full on-chain purchase state machine and
NFT metadata pinning.

Environment Variables:
  BACKEND_BASE_URL  Kenesis backend API URL (default: http://localhost:5000)
  PINATA_JWT        Pinning service credential
  SESSION_FILE      Session persistence path (default: ./data/session.json)`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		config.LoadDotEnv()
		level, err := zerolog.ParseLevel(cfg.GetLogLevel())
		if err != nil {
			level = zerolog.InfoLevel
		}
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func displayBanner() {
	myFigure := figure.NewFigure(cfg.GetAppName(), "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
