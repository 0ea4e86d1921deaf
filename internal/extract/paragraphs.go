package extract

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"rsc.io/pdf"
)

// MinParagraphRunes is the length a trimmed paragraph must exceed to count as body text.
const MinParagraphRunes = 50

const paragraphSeparator = "\n\n"

// Paragraphs parses an HTML document and joins the text of every <p> longer
// than MinParagraphRunes.
func Paragraphs(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	return DocumentParagraphs(doc), nil
}

// DocumentParagraphs applies the paragraph rule to an already parsed document.
func DocumentParagraphs(doc *goquery.Document) string {
	kept := make([]string, 0, 16)
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		if text, ok := qualifyingParagraph(sel.Text()); ok {
			kept = append(kept, text)
		}
	})
	return strings.Join(kept, paragraphSeparator)
}

// PDFParagraphs rebuilds text lines from a PDF and keeps the long ones.
// rsc.io/pdf panics on malformed content streams; those panics come back as errors.
func PDFParagraphs(body []byte) (text string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			text, err = "", fmt.Errorf("malformed pdf: %v", recovered)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return "", err
	}

	kept := make([]string, 0, 16)
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		var line strings.Builder
		lastY := -1.0
		flush := func() {
			if text, ok := qualifyingParagraph(line.String()); ok {
				kept = append(kept, text)
			}
			line.Reset()
		}
		for _, item := range page.Content().Text {
			if lastY >= 0 && item.Y != lastY {
				flush()
			}
			lastY = item.Y
			line.WriteString(item.S)
		}
		flush()
	}

	return strings.Join(kept, paragraphSeparator), nil
}

func qualifyingParagraph(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if utf8.RuneCountInString(trimmed) <= MinParagraphRunes {
		return "", false
	}
	return trimmed, true
}
