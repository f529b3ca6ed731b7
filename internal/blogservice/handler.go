package blogservice

import (
	"context"
	"database/sql"
	"errors"

	"github.com/hazelwhite/inkwell/internal/common"
)

// ErrNotOwner is returned when the acting user is not the blog's author.
var ErrNotOwner = errors.New("not the blog owner")

func NewBlogService(db *sql.DB) *BlogService {
	return &BlogService{m: newBlogModel(db)}
}

// authorizeOwner is the single ownership predicate: acting identity must equal
// the blog's author reference. There is no role that bypasses it.
func authorizeOwner(userID int, b *Blog) error {
	if b.AuthorID != userID {
		return ErrNotOwner
	}
	return nil
}

type CreateBlogRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Body        string   `json:"body"`
	AuthorID    int      `json:"-"`
}

// CreateBlog persists a new draft owned by the acting user, with the reading
// time derived from the body. Returns the stored document including the
// assigned id and timestamps.
func (s *BlogService) CreateBlog(ctx context.Context, req *CreateBlogRequest) (*Blog, error) {
	v := common.NewValidator()
	validateTitle(v, req.Title)
	validateBody(v, req.Body)
	validateInt(v, req.AuthorID, "author_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	b := &Blog{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		AuthorID:    req.AuthorID,
		Body:        req.Body,
		ReadingTime: EstimateReadingTime(req.Body),
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}

	if err := s.m.insert(ctx, b); err != nil {
		return nil, err
	}

	return b, nil
}

type ListPublishedRequest struct {
	Page     int
	Limit    int
	AuthorID int
	Title    string
	Tags     []string
	OrderBy  string
}

// ListPublished returns published blogs matching every supplied filter,
// sorted descending by the requested key and paginated. Defaults: page 1,
// limit 20, newest first.
func (s *BlogService) ListPublished(ctx context.Context, req ListPublishedRequest) ([]Blog, error) {
	if req.OrderBy == "" {
		req.OrderBy = "timestamp"
	}

	v := common.NewValidator()
	validateOrderBy(v, req.OrderBy)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if req.Page < 1 {
		req.Page = defaultPage
	}
	if req.Limit < 1 {
		req.Limit = defaultLimit
	}

	f := publishedFilter{
		authorID:   req.AuthorID,
		title:      req.Title,
		tags:       req.Tags,
		sortColumn: sortColumns[req.OrderBy],
		limit:      req.Limit,
		offset:     (req.Page - 1) * req.Limit,
	}

	return s.m.listPublished(ctx, f)
}

// GetPublishedBlog fetches one published blog by id and bumps its read count.
// Drafts are invisible here, including to their own author; the caller cannot
// tell a hidden draft, a missing id, or a nonsense id apart.
func (s *BlogService) GetPublishedBlog(ctx context.Context, id int) (*Blog, error) {
	return s.m.fetchPublished(ctx, id)
}

// ListOwn returns the acting user's blogs in any state, optionally filtered to
// one state, newest first.
func (s *BlogService) ListOwn(ctx context.Context, authorID int, state string, page, limit int) ([]Blog, error) {
	v := common.NewValidator()
	validateInt(v, authorID, "author_id")
	if state != "" {
		validateState(v, state)
	}
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}

	return s.m.listByAuthor(ctx, authorID, state, limit, (page-1)*limit)
}

// UpdateBlogRequest carries a partial update: nil means leave the field
// unchanged. The author reference is not updatable.
type UpdateBlogRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
	Body        *string   `json:"body"`
	State       *string   `json:"state"`
}

// UpdateBlog applies the supplied fields to the blog after the ownership
// check. A body change recomputes the reading time; a state change is written
// verbatim, so published blogs may move back to draft.
func (s *BlogService) UpdateBlog(ctx context.Context, id, userID int, req *UpdateBlogRequest) (*Blog, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	validateInt(v, userID, "user_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	b, err := s.m.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := authorizeOwner(userID, b); err != nil {
		return nil, err
	}

	if req.Title != nil {
		b.Title = *req.Title
	}
	if req.Description != nil {
		b.Description = *req.Description
	}
	if req.Tags != nil {
		b.Tags = *req.Tags
	}
	if req.Body != nil {
		b.Body = *req.Body
		b.ReadingTime = EstimateReadingTime(b.Body)
	}
	if req.State != nil {
		b.State = *req.State
	}

	validateTitle(v, b.Title)
	validateBody(v, b.Body)
	validateState(v, b.State)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if err := s.m.update(ctx, b); err != nil {
		return nil, err
	}

	return b, nil
}

// DeleteBlog permanently removes the blog after the ownership check. No soft
// delete, no tombstone.
func (s *BlogService) DeleteBlog(ctx context.Context, id, userID int) error {
	v := common.NewValidator()
	validateInt(v, id, "id")
	validateInt(v, userID, "user_id")
	if !v.Valid() {
		return v.ValidationError()
	}

	b, err := s.m.getByID(ctx, id)
	if err != nil {
		return err
	}

	if err := authorizeOwner(userID, b); err != nil {
		return err
	}

	return s.m.delete(ctx, b.ID)
}
