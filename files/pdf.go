package files

import (
	"bytes"
	"errors"
	"os"
	"strings"

	pdf "rsc.io/pdf"
)

// Page holds the text extracted from a single document page.
type Page struct {
	Text string
}

// defaultMaxChars caps total extracted text (~2-3k tokens) so a huge report
// doesn't blow the model context.
const defaultMaxChars = 12000

// ExtractPages opens a PDF at filePath and returns its text page by page, up to
// maxChars characters in total. If maxChars <= 0, a sane default is used.
// PDFs without a text layer degrade to a single page with the raw content.
func ExtractPages(filePath string, maxChars int) ([]Page, error) {
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}

	r, err := pdf.Open(filePath)
	if err != nil {
		return nil, err
	}

	var pages []Page
	total := 0
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		var buf bytes.Buffer
		for _, t := range p.Content().Text {
			buf.WriteString(t.S)
		}
		text := buf.String()
		if total+len(text) > maxChars {
			text = text[:maxChars-total]
		}
		if strings.TrimSpace(text) != "" {
			pages = append(pages, Page{Text: text})
			total += len(text)
		}
		if total >= maxChars {
			return pages, nil
		}
	}

	if len(pages) > 0 {
		return pages, nil
	}

	// No text layer: fall back to raw content so the model still gets something.
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("pdf appears empty")
	}
	if len(data) > maxChars {
		data = data[:maxChars]
	}
	raw := string(bytes.ReplaceAll(data, []byte{'\x00'}, []byte{' '}))
	return []Page{{Text: raw}}, nil
}

// JoinPages flattens extracted pages into the single report text handed to the
// prompt builder, separating pages with a blank line.
func JoinPages(pages []Page) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n\n")
}
