package database

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jvcostta/hiring-challenge-alpha/internal/llm"
)

// QuerySpec is a generated read-only statement bound to one backing store
type QuerySpec struct {
	SQL    string
	Source string // filename of the backing database
}

// ErrRejected is wrapped by validation failures
var writeVerbPattern = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE|DROP|ALTER|CREATE|REPLACE|TRUNCATE|ATTACH|DETACH|PRAGMA|VACUUM)\b`)

var (
	quotedLiteralPattern = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)
	topNPattern          = regexp.MustCompile(`(?i)\b(?:top|first)\s+(\d+)\b`)
)

// Validate rejects anything that is not a single read-only SELECT statement.
// The write-verb check is case-insensitive and runs before execution, always.
func Validate(query string) error {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return fmt.Errorf("query is empty")
	}

	if m := writeVerbPattern.FindString(trimmed); m != "" {
		return fmt.Errorf("query rejected: write operation %q is not allowed (read-only access)", strings.ToUpper(m))
	}

	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return fmt.Errorf("query rejected: only SELECT statements are allowed, got %q", firstWord(trimmed))
	}

	// Single statement only: a semicolon may trail, never separate.
	if idx := strings.Index(trimmed, ";"); idx >= 0 && idx != len(trimmed)-1 {
		return fmt.Errorf("query rejected: multiple statements are not allowed")
	}

	return nil
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// escapeLiteral escapes a user-supplied literal for a value position.
// Identifiers are never built from user text; only values are.
func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// generateDeterministic maps normalized question keywords to parameterized
// templates over the introspected schema. Predicates are evaluated in fixed
// priority order; the first match wins. Returns false when nothing matches.
func (p *Provider) generateDeterministic(question string) (QuerySpec, bool) {
	lower := strings.ToLower(question)
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})

	var table Table
	var found bool
	for _, w := range words {
		if t, ok := p.catalog.FindTable(w); ok {
			table = t
			found = true
			break
		}
	}
	if !found {
		return QuerySpec{}, false
	}

	spec := func(sql string) QuerySpec {
		return QuerySpec{SQL: sql, Source: p.source}
	}

	// count / "how many"
	if strings.Contains(lower, "how many") || strings.Contains(lower, "count") {
		return spec(fmt.Sprintf(`SELECT COUNT(*) FROM "%s"`, table.Name)), true
	}

	// top N / first N
	if m := topNPattern.FindStringSubmatch(question); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n > 0 && n <= 100 {
			return spec(fmt.Sprintf(`SELECT * FROM "%s" LIMIT %d`, table.Name, n)), true
		}
	}

	// quoted literal search on the first text column
	if m := quotedLiteralPattern.FindStringSubmatch(question); m != nil {
		literal := m[1]
		if literal == "" {
			literal = m[2]
		}
		if col, ok := table.FirstTextColumn(); ok {
			return spec(fmt.Sprintf(`SELECT * FROM "%s" WHERE "%s" LIKE '%%%s%%' LIMIT %d`,
				table.Name, col.Name, escapeLiteral(literal), maxDisplayRows)), true
		}
	}

	// list / show / all
	if strings.Contains(lower, "list") || strings.Contains(lower, "show") || strings.Contains(lower, "all ") {
		return spec(fmt.Sprintf(`SELECT * FROM "%s" LIMIT %d`, table.Name, maxDisplayRows)), true
	}

	return QuerySpec{}, false
}

const sqlGenPrompt = `You translate questions into SQLite queries.
Database schema:

%s

Rules:
- Output exactly one SELECT statement, nothing else.
- Never use INSERT, UPDATE, DELETE, DROP, ALTER or any write operation.
- Use only the tables and columns listed above.
- Add LIMIT %d unless the query aggregates to a single row.

Question: %s`

// generateWithModel asks the LLM for a query when no template matches.
// The result goes through the same Validate gate as templated queries.
func (p *Provider) generateWithModel(ctx context.Context, question string) (QuerySpec, error) {
	if p.llm == nil {
		return QuerySpec{}, fmt.Errorf("no query template matched and no model is available")
	}

	resp, err := p.llm.Chat(ctx, llm.ChatRequest{
		SystemPrompt: "You are a SQL generator. Reply with a single SQLite SELECT statement and no commentary.",
		Messages: []llm.Message{
			{Role: "user", Content: fmt.Sprintf(sqlGenPrompt, p.catalog.Describe(), maxDisplayRows, question)},
		},
	})
	if err != nil {
		return QuerySpec{}, fmt.Errorf("model query generation failed: %w", err)
	}

	sql := stripCodeFences(resp.Content)
	if sql == "" {
		return QuerySpec{}, fmt.Errorf("model returned an empty query")
	}

	return QuerySpec{SQL: sql, Source: p.source}, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```sql")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.Index(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}

// GenerateQuery produces a validated QuerySpec for a natural-language
// question: deterministic templates first, model fallback second.
func (p *Provider) GenerateQuery(ctx context.Context, question string) (QuerySpec, error) {
	if spec, ok := p.generateDeterministic(question); ok {
		if err := Validate(spec.SQL); err != nil {
			return QuerySpec{}, err
		}
		return spec, nil
	}

	spec, err := p.generateWithModel(ctx, question)
	if err != nil {
		return QuerySpec{}, err
	}
	if err := Validate(spec.SQL); err != nil {
		return QuerySpec{}, err
	}
	return spec, nil
}
