package source

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
)

// blockElements get a trailing space so adjacent blocks don't run together.
const blockElements = "p, div, li, tr, td, th, h1, h2, h3, h4, h5, h6, section, article"

// HTMLToText strips markup from a SAM notice description and collapses whitespace.
// Input that fails to parse is returned with whitespace collapsed.
func HTMLToText(html string) string {
	if !strings.Contains(html, "<") {
		return collapseSpace(html)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return collapseSpace(html)
	}
	doc.Find("script, style").Remove()
	doc.Find("br").ReplaceWithHtml(" ")
	doc.Find(blockElements).AppendHtml(" ")
	return collapseSpace(doc.Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var (
	clearanceTerms = []string{"security clearance", "facility clearance", "top secret", "secret clearance"}
	itarTerms      = []string{"international traffic in arms"}
)

// DetectRequirements reports whether the notice text asks for a security
// clearance or ITAR registration. Matching is literal substring matching,
// except the bare acronym "itar" which must stand alone ("military" contains it).
func DetectRequirements(text string) (clearance, itar bool) {
	folded := cases.Fold().String(text)
	clearance = containsAny(folded, clearanceTerms)
	itar = containsAny(folded, itarTerms) || hasWord(folded, "itar")
	return clearance, itar
}

func hasWord(s, word string) bool {
	for _, f := range strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if f == word {
			return true
		}
	}
	return false
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
