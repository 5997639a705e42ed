package source

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/accelml/livingreview/internal/paper"
)

// doiRe matches a DOI anywhere in extracted PDF text.
var doiRe = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// pdfScanPages limits how deep into each PDF the scan looks. Identifiers
// sit on the first page in practice.
const pdfScanPages = 3

// PDFDir scans a local drop folder of PDF files and extracts bibliographic
// identifiers from them. It is the manual intake path: drop a PDF in the
// folder and the next run picks it up.
type PDFDir struct {
	dir string
}

// NewPDFDir creates the drop-folder adapter.
func NewPDFDir(dir string) *PDFDir {
	return &PDFDir{dir: dir}
}

func (p *PDFDir) Name() string { return "pdfdir" }

// Fetch walks the drop folder and returns one record per readable PDF
// modified inside the query window. Unreadable files are skipped.
func (p *PDFDir) Fetch(ctx context.Context, q Query) ([]paper.Record, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &FetchError{Source: p.Name(), URL: p.dir, Err: err}
	}

	var records []paper.Record
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}

		info, err := entry.Info()
		if err != nil || !q.InWindow(info.ModTime()) {
			continue
		}

		path := filepath.Join(p.dir, entry.Name())
		rec, ok := p.fileRecord(path, info.ModTime())
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (p *PDFDir) fileRecord(path string, modTime time.Time) (paper.Record, bool) {
	text, err := readPDFText(path, pdfScanPages)
	if err != nil {
		return paper.Record{}, false
	}

	title := firstTitleLine(text)
	if title == "" {
		// Fall back to the filename so the record survives review.
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		title = strings.ReplaceAll(title, "_", " ")
	}

	rec := paper.Record{
		Title:       title,
		Date:        modTime.Format("2006-01-02"),
		Year:        modTime.Year(),
		Status:      paper.StatusSubmitted,
		Identifiers: map[string]string{},
		Links:       map[string]string{"file": path},
		Source:      p.Name(),
		FetchedAt:   time.Now().UTC(),
	}
	if doi := findDOI(text); doi != "" {
		rec.Identifiers[paper.SchemeDOI] = doi
	}
	return rec, true
}

// readPDFText extracts plain text from the first maxPages pages.
func readPDFText(path string, maxPages int) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if maxPages > r.NumPage() {
		maxPages = r.NumPage()
	}

	var b strings.Builder
	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// findDOI returns the first plausible DOI in the text, with trailing
// punctuation trimmed.
func findDOI(text string) string {
	for _, match := range doiRe.FindAllString(text, -1) {
		match = strings.TrimRight(match, ".,;:)")
		if slash := strings.Index(match, "/"); slash > 3 && slash < len(match)-1 {
			return match
		}
	}
	return ""
}

// firstTitleLine returns the first substantial line of the first page,
// skipping obvious header and footer lines.
func firstTitleLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > 20 && !isBoilerplate(line) {
			return line
		}
	}
	return ""
}

func isBoilerplate(line string) bool {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "journal"),
		strings.Contains(lower, "copyright"),
		strings.Contains(lower, "volume") && strings.Contains(lower, "issue"),
		strings.Contains(lower, "proceedings of"):
		return true
	}
	return false
}
