package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ashrobertsdragon/lorebinder/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pipeline progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.New(dataDir)
		if err != nil {
			return err
		}
		defer s.Close()

		book := s.GetMeta("book_file")
		if book == "" {
			book = "(none ingested)"
		}

		fmt.Printf("Book:      %s\n", book)
		fmt.Printf("Chapters:  %d\n", s.ChapterCount())
		fmt.Printf("Extracted: %d\n", s.ExtractedCount())
		fmt.Printf("Analyzed:  %d\n", s.AnalyzedCount())
		if s.HasLorebinder() {
			fmt.Println("Lorebinder: built")
		} else {
			fmt.Println("Lorebinder: not built")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
