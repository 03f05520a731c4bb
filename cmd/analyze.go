package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ashrobertsdragon/lorebinder/internal/analyzer"
	"github.com/ashrobertsdragon/lorebinder/internal/store"
)

var analyzeForce bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze extracted names for per-chapter attributes",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.New(dataDir)
		if err != nil {
			return err
		}
		defer s.Close()

		chapters, err := s.ReadChapters()
		if err != nil {
			return err
		}
		if len(chapters) == 0 {
			return fmt.Errorf("no chapters ingested; run 'lorebinder ingest' first")
		}

		llm, err := newLLM()
		if err != nil {
			return err
		}
		ana := analyzer.New(llm, nil)
		ana.Logf = logVerbose

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		analyzed := 0
		for _, ch := range chapters {
			if ctx.Err() != nil {
				fmt.Println("\nInterrupted, progress saved")
				break
			}
			if !s.EntityBlockExists(ch.Index) {
				logVerbose("chapter %d not extracted yet, skipping", ch.Index)
				continue
			}
			if !analyzeForce && s.AttributesExist(ch.Index) {
				logVerbose("chapter %d already analyzed, skipping", ch.Index)
				continue
			}

			names, err := s.ReadCategorizedNames(ch.Index)
			if err != nil {
				return fmt.Errorf("loading names for chapter %d: %w", ch.Index, err)
			}
			if len(names) == 0 {
				logVerbose("chapter %d has no names, skipping", ch.Index)
				continue
			}

			fmt.Printf("Analyzing chapter %d: %s\n", ch.Index, ch.Title)
			attrs, err := ana.Analyze(ctx, ch, names)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: chapter %d analysis failed: %v\n", ch.Index, err)
				continue
			}
			if err := s.WriteChapterAttributes(ch.Index, attrs); err != nil {
				return fmt.Errorf("saving chapter %d attributes: %w", ch.Index, err)
			}
			analyzed++
		}

		fmt.Printf("Analyzed %d of %d chapters\n", analyzed, len(chapters))
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeForce, "force", false, "Re-analyze chapters that already have results")
	rootCmd.AddCommand(analyzeCmd)
}
