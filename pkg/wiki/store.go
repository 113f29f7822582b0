package wiki

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// PageStore persists wiki pages
type PageStore interface {
	// GetPage returns the page for an API name, or ErrPageNotFound
	GetPage(ctx context.Context, apiName string) (*Page, error)
	// SavePage writes a page. expectedRevision is the revision the caller
	// read before editing; 0 creates a new page. A mismatch returns
	// ErrRevisionConflict and leaves the stored page unchanged.
	SavePage(ctx context.Context, page *Page, expectedRevision int64) error
	// ListPages returns all page names in lexical order
	ListPages(ctx context.Context) ([]string, error)
}

// SQLPageStore stores pages in a SQL database. The statements are kept
// portable across PostgreSQL and SQLite.
type SQLPageStore struct {
	db *sql.DB
}

// NewSQLPageStore creates a new SQL-backed page store
func NewSQLPageStore(db *sql.DB) *SQLPageStore {
	return &SQLPageStore{db: db}
}

// Migrate creates the wiki tables if they do not exist
func (s *SQLPageStore) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS wiki_pages (
			api_name TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			revision BIGINT NOT NULL,
			updated_by BIGINT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run wiki migration: %w", err)
		}
	}
	return nil
}

// GetPage returns the page for an API name, or ErrPageNotFound
func (s *SQLPageStore) GetPage(ctx context.Context, apiName string) (*Page, error) {
	var page Page
	err := s.db.QueryRowContext(ctx,
		`SELECT api_name, content, revision, updated_by, updated_at FROM wiki_pages WHERE api_name = $1`,
		apiName,
	).Scan(&page.APIName, &page.Content, &page.Revision, &page.UpdatedBy, &page.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read wiki page %q: %w", apiName, err)
	}
	return &page, nil
}

// SavePage writes a page guarded by an optimistic revision check
func (s *SQLPageStore) SavePage(ctx context.Context, page *Page, expectedRevision int64) error {
	now := time.Now().UTC()
	page.UpdatedAt = now

	if expectedRevision == 0 {
		page.Revision = 1
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO wiki_pages (api_name, content, revision, updated_by, updated_at) VALUES ($1, $2, $3, $4, $5)`,
			page.APIName, page.Content, page.Revision, page.UpdatedBy, now,
		)
		if err != nil {
			// A concurrent creator wins the unique constraint race
			if existing, getErr := s.GetPage(ctx, page.APIName); getErr == nil && existing != nil {
				return ErrRevisionConflict
			}
			return fmt.Errorf("failed to create wiki page %q: %w", page.APIName, err)
		}
		return nil
	}

	page.Revision = expectedRevision + 1
	result, err := s.db.ExecContext(ctx,
		`UPDATE wiki_pages SET content = $1, revision = $2, updated_by = $3, updated_at = $4 WHERE api_name = $5 AND revision = $6`,
		page.Content, page.Revision, page.UpdatedBy, now, page.APIName, expectedRevision,
	)
	if err != nil {
		return fmt.Errorf("failed to update wiki page %q: %w", page.APIName, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check wiki page update: %w", err)
	}
	if rows == 0 {
		return ErrRevisionConflict
	}
	return nil
}

// ListPages returns all page names in lexical order
func (s *SQLPageStore) ListPages(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT api_name FROM wiki_pages ORDER BY api_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list wiki pages: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan wiki page name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wiki pages: %w", err)
	}
	return names, nil
}

// MemoryPageStore is an in-memory PageStore for tests
type MemoryPageStore struct {
	mu    sync.Mutex
	pages map[string]*Page
}

// NewMemoryPageStore creates an empty in-memory page store
func NewMemoryPageStore() *MemoryPageStore {
	return &MemoryPageStore{pages: make(map[string]*Page)}
}

// GetPage returns the page for an API name, or ErrPageNotFound
func (s *MemoryPageStore) GetPage(ctx context.Context, apiName string) (*Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page, ok := s.pages[apiName]
	if !ok {
		return nil, ErrPageNotFound
	}
	copied := *page
	return &copied, nil
}

// SavePage writes a page guarded by an optimistic revision check
func (s *MemoryPageStore) SavePage(ctx context.Context, page *Page, expectedRevision int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.pages[page.APIName]
	if expectedRevision == 0 {
		if ok {
			return ErrRevisionConflict
		}
		page.Revision = 1
	} else {
		if !ok || existing.Revision != expectedRevision {
			return ErrRevisionConflict
		}
		page.Revision = expectedRevision + 1
	}

	page.UpdatedAt = time.Now().UTC()
	copied := *page
	s.pages[page.APIName] = &copied
	return nil
}

// ListPages returns all page names in lexical order
func (s *MemoryPageStore) ListPages(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.pages))
	for name := range s.pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
