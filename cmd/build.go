package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/ashrobertsdragon/lorebinder/internal/aggregator"
	"github.com/ashrobertsdragon/lorebinder/internal/analyzer"
	"github.com/ashrobertsdragon/lorebinder/internal/store"
)

var buildSummarize bool

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Merge chapter attributes into the lorebinder",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.New(dataDir)
		if err != nil {
			return err
		}
		defer s.Close()

		chapters, err := s.ReadAllChapterAttributes()
		if err != nil {
			return err
		}
		if len(chapters) == 0 {
			return fmt.Errorf("no analyzed chapters; run 'lorebinder analyze' first")
		}

		merger := aggregator.New(narrator, aggregator.DefaultRules())
		merger.Logf = logVerbose

		binder, err := merger.Merge(chapters)
		if err != nil {
			return fmt.Errorf("merging chapter attributes: %w", err)
		}

		entries := 0
		for _, names := range binder {
			entries += len(names)
		}
		fmt.Printf("Built lorebinder: %d categories, %d entries from %d chapters\n",
			len(binder), entries, len(chapters))

		if buildSummarize {
			llm, err := newLLM()
			if err != nil {
				return err
			}
			ana := analyzer.New(llm, nil)
			ana.Logf = logVerbose

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			fmt.Println("Summarizing entries...")
			written, err := ana.Summarize(ctx, binder)
			fmt.Printf("Summarized %d entries\n", written)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: summarization incomplete: %v\n", err)
			}
		}

		builtAt := time.Now().UTC().Format(time.RFC3339)
		if err := s.WriteLorebinder(binder, builtAt); err != nil {
			return fmt.Errorf("saving lorebinder: %w", err)
		}
		return nil
	},
}

func init() {
	buildCmd.Flags().BoolVar(&buildSummarize, "summarize", false, "Generate summaries for well-covered entries")
	rootCmd.AddCommand(buildCmd)
}
