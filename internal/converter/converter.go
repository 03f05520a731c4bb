// Package converter turns a book file into ordered chapter texts.
// Epub files are zip archives of XHTML documents; plain text and
// markdown split on scene-break and chapter-heading lines.
package converter

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ashrobertsdragon/lorebinder/internal/model"
)

var (
	chapterHeadingRe = regexp.MustCompile(`(?i)^\s*chapter\s|\schapter\s*$`)
	sceneBreakRe     = regexp.MustCompile(`^\s*\*{3,}\s*$`)
)

// Convert reads the book at path and splits it into chapters. The
// format is chosen by file extension; unsupported extensions are an
// error.
func Convert(path string) ([]model.Chapter, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".epub":
		return convertEpub(path)
	case ".txt", ".text", ".md":
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		return SplitText(string(raw)), nil
	default:
		return nil, fmt.Errorf("unsupported book format %q", ext)
	}
}

// SplitText breaks plain book text into chapters. A chapter starts at
// a "***" scene break or a line mentioning "chapter" at its start or
// end. Heading lines become the chapter title and are excluded from
// the body; runs of breaks with no text between them produce no empty
// chapters.
func SplitText(content string) []model.Chapter {
	var chapters []model.Chapter
	var body []string
	title := ""

	flush := func() {
		text := strings.TrimSpace(strings.Join(body, "\n"))
		body = body[:0]
		if text == "" {
			return
		}
		index := len(chapters) + 1
		t := title
		if t == "" {
			t = fmt.Sprintf("Chapter %d", index)
		}
		chapters = append(chapters, model.Chapter{Index: index, Title: t, Body: text})
	}

	for _, line := range strings.Split(content, "\n") {
		switch {
		case sceneBreakRe.MatchString(line):
			flush()
			title = ""
		case chapterHeadingRe.MatchString(line):
			flush()
			title = strings.TrimSpace(line)
		default:
			body = append(body, line)
		}
	}
	flush()
	return chapters
}

// convertEpub extracts one chapter per content document in the
// archive, in archive name order. Navigation, cover and table of
// contents documents are skipped by filename.
func convertEpub(path string) ([]model.Chapter, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening epub %s: %w", path, err)
	}
	defer archive.Close()

	var docs []*zip.File
	for _, file := range archive.File {
		if isContentDocument(file.Name) {
			docs = append(docs, file)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })

	var chapters []model.Chapter
	for _, file := range docs {
		title, text, err := extractDocument(file)
		if err != nil {
			return nil, fmt.Errorf("epub document %s: %w", file.Name, err)
		}
		if text == "" {
			continue
		}
		index := len(chapters) + 1
		if title == "" {
			title = fmt.Sprintf("Chapter %d", index)
		}
		chapters = append(chapters, model.Chapter{Index: index, Title: title, Body: text})
	}
	return chapters, nil
}

func isContentDocument(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xhtml", ".html", ".htm":
	default:
		return false
	}
	lower := strings.ToLower(filepath.Base(name))
	for _, skip := range []string{"nav", "toc", "cover", "title", "copyright"} {
		if strings.Contains(lower, skip) {
			return false
		}
	}
	return true
}

// extractDocument pulls the visible text out of one XHTML document.
// The title comes from the first heading, falling back to <title>.
func extractDocument(file *zip.File) (title, text string, err error) {
	reader, err := file.Open()
	if err != nil {
		return "", "", err
	}
	defer reader.Close()

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return "", "", err
	}

	title = strings.TrimSpace(doc.Find("h1, h2, h3").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	var paragraphs []string
	doc.Find("body p").Each(func(_ int, sel *goquery.Selection) {
		if p := strings.TrimSpace(sel.Text()); p != "" {
			paragraphs = append(paragraphs, p)
		}
	})
	if len(paragraphs) == 0 {
		// Some epubs put prose in bare divs instead of paragraphs.
		if body := strings.TrimSpace(doc.Find("body").Text()); body != "" {
			paragraphs = []string{body}
		}
	}
	return title, strings.Join(paragraphs, "\n\n"), nil
}
