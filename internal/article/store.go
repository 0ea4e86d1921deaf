package article

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var ErrNotFound = errors.New("article not found")

type Type string

const (
	TypeOriginal Type = "original"
	TypeUpdated  Type = "updated"
)

type Article struct {
	ID         int64    `json:"id"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	SourceURL  string   `json:"source_url"`
	Type       Type     `json:"type"`
	References []string `json:"references"`
	CreatedAt  string   `json:"created_at"`
}

// ValidationError reports a record that cannot be stored as given.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Edit carries the fields an explicit edit may change. Nil fields are left alone.
type Edit struct {
	Title     *string
	Content   *string
	SourceURL *string
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) Store {
	return Store{db: db}
}

const selectColumns = `id, title, content, COALESCE(source_url, ''), type, COALESCE("references", ''), created_at`

func (s Store) Create(ctx context.Context, in Article) (Article, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.SourceURL = strings.TrimSpace(in.SourceURL)
	if in.Type == "" {
		in.Type = TypeOriginal
	}
	if err := validate(in); err != nil {
		return Article{}, err
	}

	query := `
INSERT INTO articles (title, content, source_url, type, "references")
VALUES (?, ?, ?, ?, ?)
RETURNING ` + selectColumns + `;
`
	row := s.db.QueryRowContext(ctx, query, in.Title, in.Content, nullable(in.SourceURL), string(in.Type), JoinReferences(in.References))
	out, err := scanArticle(row)
	if err != nil {
		return Article{}, fmt.Errorf("create article: %w", err)
	}
	return out, nil
}

func (s Store) Get(ctx context.Context, id int64) (Article, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM articles WHERE id = ?;`, id)
	out, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Article{}, ErrNotFound
	}
	if err != nil {
		return Article{}, fmt.Errorf("get article: %w", err)
	}
	return out, nil
}

// List returns every article, or only those of kind when it is non-empty.
func (s Store) List(ctx context.Context, kind Type) ([]Article, error) {
	query := `SELECT ` + selectColumns + ` FROM articles`
	args := []any{}
	if kind != "" {
		query += ` WHERE type = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY id ASC;`

	return s.query(ctx, query, args...)
}

// ListOtherOriginals returns up to limit original articles other than excludeID, oldest first.
func (s Store) ListOtherOriginals(ctx context.Context, excludeID int64, limit int) ([]Article, error) {
	if limit <= 0 {
		return nil, nil
	}
	return s.query(ctx, `
SELECT `+selectColumns+`
FROM articles
WHERE id != ? AND type = ?
ORDER BY id ASC
LIMIT ?;
`, excludeID, string(TypeOriginal), limit)
}

func (s Store) ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error) {
	var found int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM articles WHERE source_url = ? LIMIT 1;`, strings.TrimSpace(sourceURL)).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup article by source url: %w", err)
	}
	return true, nil
}

func (s Store) Update(ctx context.Context, id int64, edit Edit) (Article, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Article{}, err
	}

	if edit.Title != nil {
		current.Title = strings.TrimSpace(*edit.Title)
	}
	if edit.Content != nil {
		current.Content = *edit.Content
	}
	if edit.SourceURL != nil {
		current.SourceURL = strings.TrimSpace(*edit.SourceURL)
	}
	if err := validate(current); err != nil {
		return Article{}, err
	}

	row := s.db.QueryRowContext(ctx, `
UPDATE articles SET title = ?, content = ?, source_url = ?
WHERE id = ?
RETURNING `+selectColumns+`;
`, current.Title, current.Content, nullable(current.SourceURL), id)
	out, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Article{}, ErrNotFound
	}
	if err != nil {
		return Article{}, fmt.Errorf("update article: %w", err)
	}
	return out, nil
}

func (s Store) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM articles WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s Store) query(ctx context.Context, query string, args ...any) ([]Article, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	out := make([]Article, 0, 8)
	for rows.Next() {
		item, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArticle(row scanner) (Article, error) {
	var (
		out        Article
		kind       string
		references string
	)
	if err := row.Scan(&out.ID, &out.Title, &out.Content, &out.SourceURL, &kind, &references, &out.CreatedAt); err != nil {
		return Article{}, err
	}
	out.Type = Type(kind)
	out.References = SplitReferences(references)
	return out, nil
}

func validate(in Article) error {
	if in.Title == "" {
		return ValidationError{Field: "title", Message: "is required"}
	}
	if strings.TrimSpace(in.Content) == "" {
		return ValidationError{Field: "content", Message: "is required"}
	}
	switch in.Type {
	case TypeOriginal:
	case TypeUpdated:
		if len(SplitReferences(JoinReferences(in.References))) == 0 {
			return ValidationError{Field: "references", Message: "must list at least one entry for updated articles"}
		}
	default:
		return ValidationError{Field: "type", Message: fmt.Sprintf("must be %q or %q", TypeOriginal, TypeUpdated)}
	}
	return nil
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// JoinReferences serializes references into the stored comma-joined form.
func JoinReferences(refs []string) string {
	return strings.Join(refs, ",")
}

// SplitReferences parses the stored comma-joined form. Blank entries are dropped.
func SplitReferences(raw string) []string {
	out := make([]string, 0, 2)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
