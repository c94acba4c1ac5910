package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/jvcostta/hiring-challenge-alpha/internal/llm"
)

const maxDisplayRows = 10

// ErrNoDatabases is returned by Init when the directory holds no stores
var ErrNoDatabases = errors.New("no database files found")

// Provider answers natural-language questions against a SQLite database.
// It owns the database handle exclusively and serializes all queries
// through it; every statement is read-only and single-shot.
type Provider struct {
	dir    string
	logger *slog.Logger
	llm    llm.Adapter

	mu      sync.Mutex
	db      *sql.DB
	source  string // filename of the opened store
	catalog *SchemaCatalog
}

// New creates a database provider scanning the given directory.
// The model adapter is used only as a fallback query generator.
func New(dir string, adapter llm.Adapter, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{dir: dir, llm: adapter, logger: logger}
}

// Init discovers database files and introspects the schema of the first
// one. Multiple files may exist; only the first discovered store is
// queried (documented single-store limitation). A failure here degrades
// the provider, not the process.
func (p *Provider) Init(ctx context.Context) error {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return fmt.Errorf("failed to read databases directory %s: %w", p.dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".db", ".sqlite", ".sqlite3":
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	if len(files) == 0 {
		return fmt.Errorf("%w in %s", ErrNoDatabases, p.dir)
	}
	if len(files) > 1 {
		p.logger.Warn("multiple database files found, using first only",
			"using", files[0], "ignored", files[1:])
	}

	path := filepath.Join(p.dir, files[0])
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open database %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to connect to database %s: %w", path, err)
	}

	catalog, err := introspectSchema(db)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to introspect schema of %s: %w", path, err)
	}
	if len(catalog.Tables) == 0 {
		db.Close()
		return fmt.Errorf("database %s contains no tables", files[0])
	}

	p.mu.Lock()
	p.db = db
	p.source = files[0]
	p.catalog = catalog
	p.mu.Unlock()

	p.logger.Info("database provider ready", "source", files[0], "tables", len(catalog.Tables))
	return nil
}

// Catalog returns the introspected schema catalog
func (p *Provider) Catalog() *SchemaCatalog {
	return p.catalog
}

// Source returns the filename of the opened backing store
func (p *Provider) Source() string {
	return p.source
}

// Close releases the database handle
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// Query is the provider's primary operation: generate a safe query for the
// question, execute it, and return a display-ready string. Failures come
// back as structured message strings, never as panics escaping the boundary.
func (p *Provider) Query(ctx context.Context, question string) (string, error) {
	if p.db == nil {
		return "", fmt.Errorf("database provider is not initialized")
	}

	spec, err := p.GenerateQuery(ctx, question)
	if err != nil {
		return "", err
	}

	p.logger.Debug("executing query", "sql", spec.SQL, "source", spec.Source)
	return p.Execute(ctx, spec)
}

// Execute runs a validated QuerySpec and formats the result set.
// Displayed rows are capped; a single-row single-column numeric result is
// rendered as a scalar sentence instead of a table.
func (p *Provider) Execute(ctx context.Context, spec QuerySpec) (string, error) {
	if err := Validate(spec.SQL); err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	rows, err := p.db.QueryContext(ctx, spec.SQL)
	if err != nil {
		return fmt.Sprintf("Query failed: %v\nQuery was: %s\nCheck the schema: %s",
			err, spec.SQL, strings.Join(p.catalog.TableNames(), ", ")), nil
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return "", fmt.Errorf("failed to read result columns: %w", err)
	}

	var records [][]string
	total := 0
	for rows.Next() {
		total++
		if total > maxDisplayRows {
			continue // keep counting, stop collecting
		}
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return "", fmt.Errorf("failed to scan row: %w", err)
		}
		record := make([]string, len(cols))
		for i, v := range values {
			record[i] = formatValue(v)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return fmt.Sprintf("Query failed while reading rows: %v\nQuery was: %s", err, spec.SQL), nil
	}

	return formatResults(cols, records, total), nil
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	dot := false
	digit := false
	for i, r := range s {
		if r == '-' && i == 0 {
			continue
		}
		if r == '.' && !dot {
			dot = true
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
		digit = true
	}
	return digit
}

// formatResults renders a bounded, human-readable result summary
func formatResults(cols []string, records [][]string, total int) string {
	if total == 0 {
		return "The query returned no rows."
	}

	// Scalar special case: one row, one column, numeric
	if total == 1 && len(cols) == 1 && len(records) == 1 && isNumeric(records[0][0]) {
		return fmt.Sprintf("The result is %s.", records[0][0])
	}

	var b strings.Builder
	b.WriteString(strings.Join(cols, " | "))
	b.WriteString("\n")
	for _, record := range records {
		b.WriteString(strings.Join(record, " | "))
		b.WriteString("\n")
	}
	if total > maxDisplayRows {
		fmt.Fprintf(&b, "(+%d more)", total-maxDisplayRows)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Description announces the capability, including the schema names, so the
// decision engine and the model can reference them accurately.
func (p *Provider) Description() string {
	if p.catalog == nil {
		return "Query a relational database (unavailable: no database loaded)."
	}
	return fmt.Sprintf("Query the %s SQLite database (read-only). Schema:\n%s", p.source, p.catalog.Describe())
}
