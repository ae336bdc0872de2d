// Package document loads COSD report HTML into a parse tree and exposes the
// report's section structure to the extractors.
package document

import (
	"bytes"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"golang.org/x/net/html/charset"
)

// ErrLoad marks a document that could not be read or parsed as markup.
// Fatal for the document that triggered it, never for the batch.
var ErrLoad = eris.New("document: unreadable or malformed markup")

// Document is one parsed COSD report plus its source path. It is created per
// input file and discarded after extraction completes.
type Document struct {
	Path string
	doc  *goquery.Document
}

// Load reads the file at path into a parse tree. The file handle is released
// before Load returns on every path, including parse failure.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(ErrLoad, "open %s: %v", path, err)
	}
	defer f.Close()

	// Reports from older sites arrive in Windows-1252; honour any charset
	// declaration before handing bytes to the HTML parser.
	r, err := charset.NewReader(f, "text/html")
	if err != nil {
		return nil, eris.Wrapf(ErrLoad, "detect charset %s: %v", path, err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, eris.Wrapf(ErrLoad, "read %s: %v", path, err)
	}
	if !strings.Contains(buf.String(), "<") {
		return nil, eris.Wrapf(ErrLoad, "%s contains no markup", path)
	}

	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		return nil, eris.Wrapf(ErrLoad, "parse %s: %v", path, err)
	}

	return &Document{Path: path, doc: doc}, nil
}

// Parse builds a Document from in-memory HTML. Used by tests and by callers
// that already hold the file contents.
func Parse(path, html string) (*Document, error) {
	if !strings.Contains(html, "<") {
		return nil, eris.Wrapf(ErrLoad, "%s contains no markup", path)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrapf(ErrLoad, "parse %s: %v", path, err)
	}
	return &Document{Path: path, doc: doc}, nil
}

// Find exposes the underlying selection for the extractors.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}
