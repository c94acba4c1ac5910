package documents

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

const (
	topSectionsPerDocument = 3
	headingMatchBonus      = 5
	maxSnippetLength       = 600
)

// domainVocabulary holds fixed multi-word domain terms matched by substring
// against the lower-cased question. They survive tokenization intact, so
// "Adam Smith" is searched as a phrase rather than two generic words.
var domainVocabulary = []string{
	"adam smith",
	"wealth of nations",
	"invisible hand",
	"division of labour",
	"division of labor",
	"free market",
	"political economy",
	"moral sentiments",
	"supply and demand",
	"labor theory of value",
}

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "do": true, "does": true, "did": true,
	"what": true, "which": true, "who": true, "whom": true, "whose": true,
	"when": true, "where": true, "why": true, "how": true, "about": true,
	"tell": true, "me": true, "can": true, "you": true, "your": true, "i": true,
	"of": true, "in": true, "on": true, "at": true, "to": true, "for": true,
	"and": true, "or": true, "not": true, "with": true, "from": true,
	"this": true, "that": true, "these": true, "those": true, "it": true,
	"there": true, "their": true, "they": true, "his": true, "her": true,
	"my": true, "please": true, "have": true, "has": true, "had": true,
}

// extractTerms pulls search terms from a question two ways: domain
// vocabulary matched by substring, and stop-word-filtered tokens.
func extractTerms(question string) []string {
	lower := strings.ToLower(question)

	var terms []string
	seen := map[string]bool{}

	for _, term := range domainVocabulary {
		if strings.Contains(lower, term) {
			terms = append(terms, term)
			seen[term] = true
		}
	}

	for _, tok := range strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	}) {
		if len(tok) < 3 || stopWords[tok] || seen[tok] {
			continue
		}
		terms = append(terms, tok)
		seen[tok] = true
	}

	return terms
}

// scoreSection sums term frequency over the section body and adds a fixed
// bonus when a term hits the section heading itself.
func scoreSection(sec section, terms []string) int {
	heading := strings.ToLower(sec.heading)
	body := strings.ToLower(sec.body)

	score := 0
	for _, term := range terms {
		score += strings.Count(body, term)
		if heading != "" && strings.Contains(heading, term) {
			score += headingMatchBonus
		}
	}
	return score
}

// Search returns the most relevant sections across all documents, ranked by
// score descending with stable original order on ties. An empty result with
// a nil error means "found nothing relevant", as opposed to a search
// failure, which returns an error.
func (p *Provider) Search(ctx context.Context, question string) ([]SearchResult, error) {
	if p.docs == nil {
		return nil, fmt.Errorf("documents provider is not initialized")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	terms := extractTerms(question)
	if len(terms) == 0 {
		return []SearchResult{}, nil
	}

	var results []SearchResult
	for _, name := range p.order {
		var docResults []SearchResult
		for _, sec := range p.docs[name] {
			score := scoreSection(sec, terms)
			if score <= 0 {
				continue
			}
			docResults = append(docResults, SearchResult{
				Document: name,
				Snippet:  snippet(sec),
				Score:    score,
			})
		}

		sort.SliceStable(docResults, func(i, j int) bool {
			return docResults[i].Score > docResults[j].Score
		})
		if len(docResults) > topSectionsPerDocument {
			docResults = docResults[:topSectionsPerDocument]
		}
		results = append(results, docResults...)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if results == nil {
		results = []SearchResult{}
	}
	return results, nil
}

func snippet(sec section) string {
	text := sec.body
	if sec.heading != "" {
		text = sec.heading + "\n" + text
	}
	if len(text) > maxSnippetLength {
		text = text[:maxSnippetLength] + "..."
	}
	return text
}

// Description announces the capability, naming the loaded documents
func (p *Provider) Description() string {
	if len(p.order) == 0 {
		return "Search text documents (unavailable: no documents loaded)."
	}
	return fmt.Sprintf("Search %d text documents for relevant excerpts: %s",
		len(p.order), strings.Join(p.order, ", "))
}
