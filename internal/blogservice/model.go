package blogservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hazelwhite/inkwell/internal/common"
)

var (
	ErrDuplicateTitle   = errors.New("duplicate title")
	ErrAuthorForeignKey = errors.New("author does not exist")
)

func newBlogModel(db *sql.DB) *BlogModel {
	return &BlogModel{db: db}
}

// constraintError reports whether err is the given pq constraint violation.
func constraintError(err error, code pq.ErrorCode, name string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == code && pqErr.Constraint == name {
			return true
		}
	}

	return false
}

func (m *BlogModel) insert(ctx context.Context, b *Blog) error {
	query := `
		INSERT INTO blogs (title, description, tags, author_id, body, reading_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, state, read_count, created_at, updated_at, version`

	args := []any{b.Title, b.Description, pq.Array(b.Tags), b.AuthorID, b.Body, b.ReadingTime}

	err := m.db.QueryRowContext(ctx, query, args...).Scan(&b.ID, &b.State, &b.ReadCount, &b.CreatedAt, &b.UpdatedAt, &b.Version)
	if err != nil {
		switch {
		case constraintError(err, "23505", "blogs_title_key"):
			return ErrDuplicateTitle
		case constraintError(err, "23503", "blogs_author_id_fkey"):
			return ErrAuthorForeignKey
		default:
			return err
		}
	}

	return nil
}

// getByID loads a blog in any state without expanding the author. Used by
// update and delete, which need the author reference for the ownership check.
func (m *BlogModel) getByID(ctx context.Context, id int) (*Blog, error) {
	query := `
		SELECT id, title, description, tags, author_id, body, state, read_count, reading_time, created_at, updated_at, version
		FROM blogs
		WHERE id = $1`

	var b Blog
	err := m.db.QueryRowContext(ctx, query, id).Scan(&b.ID, &b.Title, &b.Description, pq.Array(&b.Tags), &b.AuthorID, &b.Body, &b.State, &b.ReadCount, &b.ReadingTime, &b.CreatedAt, &b.UpdatedAt, &b.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &b, nil
}

// fetchPublished returns a published blog with its read count already
// incremented. The increment happens store-side in a single statement, so
// concurrent fetches never lose counts. A draft id falls through to the same
// not-found as a missing id.
func (m *BlogModel) fetchPublished(ctx context.Context, id int) (*Blog, error) {
	query := `
		UPDATE blogs b
		SET read_count = b.read_count + 1
		FROM users u
		WHERE b.id = $1 AND b.state = 'published' AND u.id = b.author_id
		RETURNING b.id, b.title, b.description, b.tags, b.author_id, b.body, b.state, b.read_count, b.reading_time, b.created_at, b.updated_at, b.version,
			u.first_name, u.last_name, u.email`

	var b Blog
	var a Author
	err := m.db.QueryRowContext(ctx, query, id).Scan(&b.ID, &b.Title, &b.Description, pq.Array(&b.Tags), &b.AuthorID, &b.Body, &b.State, &b.ReadCount, &b.ReadingTime, &b.CreatedAt, &b.UpdatedAt, &b.Version, &a.FirstName, &a.LastName, &a.Email)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	b.Author = &a
	return &b, nil
}

type publishedFilter struct {
	authorID   int
	title      string
	tags       []string
	sortColumn string
	limit      int
	offset     int
}

// listPublished builds the WHERE clause from whichever filters are supplied;
// all supplied filters must match. The sort column comes from the enumerated
// sortColumns map, never from raw input.
func (m *BlogModel) listPublished(ctx context.Context, f publishedFilter) ([]Blog, error) {
	query := `
		SELECT b.id, b.title, b.description, b.tags, b.author_id, b.body, b.state, b.read_count, b.reading_time, b.created_at, b.updated_at, b.version,
			u.first_name, u.last_name, u.email
		FROM blogs b
		JOIN users u ON u.id = b.author_id
		WHERE b.state = 'published'`

	var args []any

	if f.authorID > 0 {
		args = append(args, f.authorID)
		query += fmt.Sprintf(" AND b.author_id = $%d", len(args))
	}

	if f.title != "" {
		args = append(args, "%"+f.title+"%")
		query += fmt.Sprintf(" AND b.title ILIKE $%d", len(args))
	}

	if len(f.tags) > 0 {
		args = append(args, pq.Array(f.tags))
		query += fmt.Sprintf(" AND b.tags && $%d", len(args))
	}

	args = append(args, f.limit, f.offset)
	query += fmt.Sprintf(" ORDER BY b.%s DESC LIMIT $%d OFFSET $%d", f.sortColumn, len(args)-1, len(args))

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blogs := []Blog{}
	for rows.Next() {
		var b Blog
		var a Author
		err := rows.Scan(&b.ID, &b.Title, &b.Description, pq.Array(&b.Tags), &b.AuthorID, &b.Body, &b.State, &b.ReadCount, &b.ReadingTime, &b.CreatedAt, &b.UpdatedAt, &b.Version, &a.FirstName, &a.LastName, &a.Email)
		if err != nil {
			return nil, err
		}
		b.Author = &a
		blogs = append(blogs, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return blogs, nil
}

// listByAuthor returns the author's own blogs in any state, newest first,
// optionally narrowed to one state.
func (m *BlogModel) listByAuthor(ctx context.Context, authorID int, state string, limit, offset int) ([]Blog, error) {
	query := `
		SELECT id, title, description, tags, author_id, body, state, read_count, reading_time, created_at, updated_at, version
		FROM blogs
		WHERE author_id = $1`

	args := []any{authorID}

	if state != "" {
		args = append(args, state)
		query += fmt.Sprintf(" AND state = $%d", len(args))
	}

	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blogs := []Blog{}
	for rows.Next() {
		var b Blog
		err := rows.Scan(&b.ID, &b.Title, &b.Description, pq.Array(&b.Tags), &b.AuthorID, &b.Body, &b.State, &b.ReadCount, &b.ReadingTime, &b.CreatedAt, &b.UpdatedAt, &b.Version)
		if err != nil {
			return nil, err
		}
		blogs = append(blogs, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return blogs, nil
}

// update writes every mutable field; the service applies partial input to the
// loaded document first. The author reference is never part of the SET list.
func (m *BlogModel) update(ctx context.Context, b *Blog) error {
	query := `
		UPDATE blogs
		SET title = $1, description = $2, tags = $3, body = $4, state = $5, reading_time = $6, updated_at = now(), version = version + 1
		WHERE id = $7 AND version = $8
		RETURNING updated_at, version`

	args := []any{b.Title, b.Description, pq.Array(b.Tags), b.Body, b.State, b.ReadingTime, b.ID, b.Version}

	err := m.db.QueryRowContext(ctx, query, args...).Scan(&b.UpdatedAt, &b.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return common.ErrRecordNotFound
		case constraintError(err, "23505", "blogs_title_key"):
			return ErrDuplicateTitle
		default:
			return err
		}
	}

	return nil
}

func (m *BlogModel) delete(ctx context.Context, id int) error {
	query := `
		DELETE FROM blogs
		WHERE id = $1`

	res, err := m.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows != 1 {
		switch {
		case rows == 0:
			return common.ErrRecordNotFound
		default:
			return fmt.Errorf("expected 1 row to be affected, got %d", rows)
		}
	}

	return nil
}
