package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ashrobertsdragon/lorebinder/internal/extractor"
	"github.com/ashrobertsdragon/lorebinder/internal/sorter"
	"github.com/ashrobertsdragon/lorebinder/internal/store"
)

var extractForce bool

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run named-entity extraction over ingested chapters",
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
		ext := extractor.New(llm, cfg.AI.Model, cfg.Book.CustomCategories)
		srt := sorter.New(narrator, sorter.DefaultRules())

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		extracted := 0
		for _, ch := range chapters {
			if ctx.Err() != nil {
				fmt.Println("\nInterrupted, progress saved")
				break
			}
			if !extractForce && s.EntityBlockExists(ch.Index) {
				logVerbose("chapter %d already extracted, skipping", ch.Index)
				continue
			}

			fmt.Printf("Extracting chapter %d: %s\n", ch.Index, ch.Title)
			block, err := ext.Extract(ctx, ch)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: chapter %d extraction failed: %v\n", ch.Index, err)
				continue
			}

			names := srt.Sort(block.Text)
			if err := s.WriteEntityBlock(block, names); err != nil {
				return fmt.Errorf("saving chapter %d extraction: %w", ch.Index, err)
			}
			for cat, list := range names {
				logVerbose("  %s: %d names", cat, len(list))
			}
			extracted++
		}

		fmt.Printf("Extracted %d of %d chapters\n", extracted, len(chapters))
		return nil
	},
}

func init() {
	extractCmd.Flags().BoolVar(&extractForce, "force", false, "Re-extract chapters that already have results")
	rootCmd.AddCommand(extractCmd)
}
