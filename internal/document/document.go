package document

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Document describes a single scanned file. The containing directory of
// Path is the document's stage; everything else is reporting metadata.
type Document struct {
	Identity  string
	Path      string
	SizeBytes int64
	PageCount int
	Title     string
	Author    string
	CreatedAt time.Time
}

// Stem returns the filename without directory or extension. The stem is the
// document's expected reference code, verified against optical recognition.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Read collects document metadata on a best-effort basis: a file that
// cannot be opened or parsed still yields a usable Document with zero-value
// metadata, because metadata is for reporting only and must never block the
// pipeline.
func Read(path string) Document {
	doc := Document{
		Identity: Stem(path),
		Path:     path,
	}

	info, err := os.Stat(path)
	if err != nil {
		return doc
	}
	doc.SizeBytes = info.Size()
	doc.CreatedAt = info.ModTime()

	file, err := os.Open(path)
	if err != nil {
		return doc
	}
	defer file.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	pdfInfo, err := api.PDFInfo(file, filepath.Base(path), nil, false, conf)
	if err != nil || pdfInfo == nil {
		return doc
	}

	doc.PageCount = pdfInfo.PageCount
	doc.Title = strings.TrimSpace(pdfInfo.Title)
	doc.Author = strings.TrimSpace(pdfInfo.Author)
	if created, ok := parsePDFDate(pdfInfo.CreationDate); ok {
		doc.CreatedAt = created
	}
	return doc
}

// parsePDFDate handles the common shapes of the PDF CreationDate string
// ("D:YYYYMMDDHHmmSS" with optional timezone suffix).
func parsePDFDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "D:")
	if value == "" {
		return time.Time{}, false
	}
	// Timezone suffixes use apostrophes (+01'00'); strip to the offset-free core.
	if idx := strings.IndexAny(value, "+-Z"); idx > 0 {
		value = value[:idx]
	}
	for _, layout := range []string{"20060102150405", "200601021504", "20060102"} {
		if len(value) == len(layout) {
			if ts, err := time.ParseInLocation(layout, value, time.Local); err == nil {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}
