package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ashrobertsdragon/lorebinder/internal/config"
	"github.com/ashrobertsdragon/lorebinder/internal/extractor"
)

var (
	dataDir    string
	narrator   string
	verbose    bool
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "lorebinder",
	Short: "Build a story bible from a book's chapters using AI entity extraction",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// API keys live in the environment; a .env file is optional.
		godotenv.Load()

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if !cmd.Flags().Changed("data-dir") {
			dataDir = cfg.Data.Dir
		}
		if !cmd.Flags().Changed("narrator") {
			narrator = cfg.Book.Narrator
		}

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.toml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "data", "Directory for storing pipeline data")
	rootCmd.PersistentFlags().StringVar(&narrator, "narrator", "", "Name of the first-person narrator, if any")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}

func Execute() error {
	return rootCmd.Execute()
}

func logVerbose(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

// newLLM builds the shared rate-limited OpenAI client from config.
func newLLM() (extractor.LLM, error) {
	llm, err := extractor.NewOpenAILLM(extractor.LLMConfig{
		Model:       cfg.AI.Model,
		MaxTokens:   cfg.AI.MaxTokens,
		Temperature: cfg.AI.Temperature,
	})
	if err != nil {
		return nil, err
	}
	return extractor.RateLimited(llm, extractor.NewRateLimiter(cfg.Extract.RateLimit)), nil
}
