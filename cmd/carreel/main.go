package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AnshulGupta2004/Video-Automation/internal/config"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "carreel",
	Short: "Narrated promo videos from vehicle photo folders",
	Long: `carreel turns a delimited narration script and one photo folder per vehicle
into a single captioned promo video: opening, three stills and a turntable
loop per vehicle, closing.`,
	SilenceUsage: true,
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "[-] Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (defaults are used when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	rootCmd.AddCommand(composeCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(fetchCmd)
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return nil, err
		}
	}
	cfg.Speech.APIKey = os.Getenv("ELEVENLABS_API_KEY")
	if url := os.Getenv("REMBG_URL"); url != "" && cfg.RemoverURL == "" {
		cfg.RemoverURL = url
	}
	return cfg, nil
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
