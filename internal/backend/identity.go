// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"regexp"
	"strings"
)

// arxivURLPattern matches arxiv.org abstract and PDF links and captures
// the identifier without its version suffix.
var arxivURLPattern = regexp.MustCompile(`arxiv\.org/(?:abs|pdf)/(\d{4}\.\d{4,5}|[a-z\-]+(?:\.[A-Z]{2})?/\d{7})(?:v\d+)?(?:\.pdf)?/?$`)

// PaperID returns the identifier the metadata endpoints expect for a paper
// URL: the arXiv ID for arXiv links, the URL itself otherwise.
func PaperID(paperURL string) string {
	paperURL = strings.TrimSpace(paperURL)
	if m := arxivURLPattern.FindStringSubmatch(paperURL); m != nil {
		return m[1]
	}
	return paperURL
}

// PDFURL rewrites an arXiv abstract link to its PDF link. Other URLs are
// returned unchanged.
func PDFURL(paperURL string) string {
	return strings.Replace(paperURL, "/abs/", "/pdf/", 1)
}

// IsPDFURL reports whether a URL can be opened as a PDF: either it ends
// in .pdf or it is an arXiv abstract page.
func IsPDFURL(paperURL string) bool {
	lower := strings.ToLower(paperURL)
	return strings.HasSuffix(lower, ".pdf") || strings.Contains(lower, "arxiv.org/abs/")
}

var arxivIDPattern = regexp.MustCompile(`^(\d{4}\.\d{4,5}|[a-z\-]+(?:\.[A-Z]{2})?/\d{7})$`)

// IsArxivID reports whether id is a bare arXiv identifier as returned by
// PaperID for arXiv links.
func IsArxivID(id string) bool {
	return arxivIDPattern.MatchString(id)
}
