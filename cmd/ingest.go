package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ashrobertsdragon/lorebinder/internal/converter"
	"github.com/ashrobertsdragon/lorebinder/internal/store"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <book-file>",
	Short: "Convert a book file into stored chapters",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		chapters, err := converter.Convert(path)
		if err != nil {
			return fmt.Errorf("converting book: %w", err)
		}
		if len(chapters) == 0 {
			return fmt.Errorf("no chapters found in %s", path)
		}

		s, err := store.New(dataDir)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.WriteChapters(chapters); err != nil {
			return fmt.Errorf("saving chapters: %w", err)
		}
		if err := s.SetMeta("book_file", filepath.Base(path)); err != nil {
			return err
		}

		fmt.Printf("Ingested %d chapters from %s\n", len(chapters), path)
		for _, ch := range chapters {
			logVerbose("  [%d] %s (%d chars)", ch.Index, ch.Title, len(ch.Body))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
