package converter

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func TestSplitTextSceneBreaks(t *testing.T) {
	content := "First chapter text.\nMore text.\n***\nSecond chapter text.\n***\n***\nThird."
	chapters := SplitText(content)

	if len(chapters) != 3 {
		t.Fatalf("got %d chapters, want 3", len(chapters))
	}
	if chapters[0].Body != "First chapter text.\nMore text." {
		t.Errorf("chapter 1 body = %q", chapters[0].Body)
	}
	if chapters[1].Index != 2 || chapters[2].Index != 3 {
		t.Errorf("indices = %d, %d, want 2, 3", chapters[1].Index, chapters[2].Index)
	}
	if chapters[2].Body != "Third." {
		t.Errorf("chapter 3 body = %q", chapters[2].Body)
	}
}

func TestSplitTextChapterHeadings(t *testing.T) {
	content := "Chapter One\nIt begins.\nChapter Two\nIt continues."
	chapters := SplitText(content)

	if len(chapters) != 2 {
		t.Fatalf("got %d chapters, want 2", len(chapters))
	}
	if chapters[0].Title != "Chapter One" || chapters[0].Body != "It begins." {
		t.Errorf("chapter 1 = %q / %q", chapters[0].Title, chapters[0].Body)
	}
	if chapters[1].Title != "Chapter Two" || chapters[1].Body != "It continues." {
		t.Errorf("chapter 2 = %q / %q", chapters[1].Title, chapters[1].Body)
	}
}

func TestSplitTextDefaultTitles(t *testing.T) {
	chapters := SplitText("only text, no breaks")
	if len(chapters) != 1 {
		t.Fatalf("got %d chapters, want 1", len(chapters))
	}
	if chapters[0].Title != "Chapter 1" {
		t.Errorf("Title = %q, want Chapter 1", chapters[0].Title)
	}
}

func TestSplitTextEmpty(t *testing.T) {
	if got := SplitText("\n\n  \n"); len(got) != 0 {
		t.Errorf("got %d chapters from blank input, want 0", len(got))
	}
}

func TestConvertUnsupportedExtension(t *testing.T) {
	if _, err := Convert("book.docx"); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestConvertEpub(t *testing.T) {
	path := writeTestEpub(t, map[string]string{
		"OEBPS/nav.xhtml":   `<html><body><p>skip me</p></body></html>`,
		"OEBPS/ch001.xhtml": `<html><head><title>One</title></head><body><h1>The Cafeteria</h1><p>Kalia sat down.</p><p>She waited.</p></body></html>`,
		"OEBPS/ch002.xhtml": `<html><head><title>Two</title></head><body><p>Esgeril arrived.</p></body></html>`,
	})

	chapters, err := Convert(path)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(chapters) != 2 {
		t.Fatalf("got %d chapters, want 2", len(chapters))
	}
	if chapters[0].Title != "The Cafeteria" {
		t.Errorf("chapter 1 title = %q", chapters[0].Title)
	}
	if chapters[0].Body != "Kalia sat down.\n\nShe waited." {
		t.Errorf("chapter 1 body = %q", chapters[0].Body)
	}
	if chapters[1].Title != "Two" {
		t.Errorf("chapter 2 title = %q, want title element fallback", chapters[1].Title)
	}
}

func writeTestEpub(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book.epub")
	out, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()

	w := zip.NewWriter(out)
	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}
