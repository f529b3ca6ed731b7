package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errorField(t *testing.T, body envelope, field string) string {
	t.Helper()

	errs, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error map in response, got %+v", body)
	}

	msg, _ := errs[field].(string)
	return msg
}

func blogField(t *testing.T, body envelope, field string) any {
	t.Helper()

	blog, ok := body["blog"].(map[string]any)
	if !ok {
		t.Fatalf("expected blog object in response, got %+v", body)
	}

	return blog[field]
}

func TestHealthCheckHandler(t *testing.T) {
	app := &application{
		config: &Config{Environment: "test", Version: "0.1.0"},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	ts := newTestServer(t, app.routes())

	status, _, body := ts.get(t, "/api/healthcheck", nil)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "available", body["status"])
}

func TestRegisterUserHandler(t *testing.T) {
	app, _ := newTestApplication(t)

	ts := newTestServer(t, app.routes())

	testCases := []struct {
		name       string
		payload    any
		wantStatus int
		wantField  string
		wantError  string
	}{
		{
			name: "Valid Request",
			payload: map[string]any{
				"first_name": "Test",
				"last_name":  "User",
				"email":      "testuser@example.com",
				"password":   "Test_1234!",
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "Invalid Email",
			payload: map[string]any{
				"first_name": "Test",
				"last_name":  "User",
				"email":      "test",
				"password":   "Test_1234!",
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantField:  "email",
			wantError:  "must be a valid email address",
		},
		{
			name: "Duplicate Email",
			payload: map[string]any{
				"first_name": "Another",
				"last_name":  "User",
				"email":      "testuser@example.com",
				"password":   "Test_1234!",
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantField:  "email",
			wantError:  "a user with this email address already exists",
		},
		{
			name: "Weak Password",
			payload: map[string]any{
				"first_name": "Test",
				"last_name":  "User",
				"email":      "testuser2@example.com",
				"password":   "password",
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantField:  "password",
			wantError:  "must be between 8 and 72 characters long and contain at least one uppercase letter, one lowercase letter, one number, and one symbol",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, _, body := ts.post(t, "/api/users/register", tc.payload, nil)

			assert.Equal(t, tc.wantStatus, status)

			if tc.wantStatus == http.StatusCreated {
				token, ok := body["token"].(string)
				assert.True(t, ok)
				assert.Len(t, token, 26)
			} else {
				assert.Equal(t, tc.wantError, errorField(t, body, tc.wantField))
			}
		})
	}
}

func TestActivateUserHandler(t *testing.T) {
	app, _ := newTestApplication(t)

	ts := newTestServer(t, app.routes())

	payload := map[string]any{
		"first_name": "Test",
		"last_name":  "User",
		"email":      "testuser@example.com",
		"password":   "Test_1234!",
	}

	status, _, body := ts.post(t, "/api/users/register", payload, nil)
	require.Equal(t, http.StatusCreated, status)

	token := body["token"].(string)

	t.Run("Invalid Token", func(t *testing.T) {
		status, _, body := ts.put(t, "/api/users/activate", nil, map[string]any{"token": "short"})

		assert.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Equal(t, "invalid token", errorField(t, body, "token"))
	})

	t.Run("Valid Token", func(t *testing.T) {
		status, _, body := ts.put(t, "/api/users/activate", nil, map[string]any{"token": token})

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "user account activated", body["message"])
	})

	t.Run("Replayed Token", func(t *testing.T) {
		status, _, _ := ts.put(t, "/api/users/activate", nil, map[string]any{"token": token})

		assert.Equal(t, http.StatusUnprocessableEntity, status)
	})
}

func TestLoginUserHandler(t *testing.T) {
	app, db := newTestApplication(t)

	ts := newTestServer(t, app.routes())

	registerActivatedUser(t, app, db, "Test", "User", "testuser@example.com", "Test_1234!")

	t.Run("Valid Credentials", func(t *testing.T) {
		status, _, body := ts.post(t, "/api/users/login", map[string]any{
			"email":    "testuser@example.com",
			"password": "Test_1234!",
		}, nil)

		assert.Equal(t, http.StatusOK, status)

		token, ok := body["token"].(map[string]any)
		assert.True(t, ok)
		assert.Len(t, token["token"], 26)
	})

	t.Run("Wrong Password", func(t *testing.T) {
		status, _, _ := ts.post(t, "/api/users/login", map[string]any{
			"email":    "testuser@example.com",
			"password": "Wrong_1234!",
		}, nil)

		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("Unknown Email", func(t *testing.T) {
		status, _, _ := ts.post(t, "/api/users/login", map[string]any{
			"email":    "nobody@example.com",
			"password": "Test_1234!",
		}, nil)

		assert.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestLogoutUserHandler(t *testing.T) {
	app, db := newTestApplication(t)

	ts := newTestServer(t, app.routes())

	token, _ := registerActivatedUser(t, app, db, "Test", "User", "testuser@example.com", "Test_1234!")

	status, _, _ := ts.post(t, "/api/users/logout", nil, token)
	assert.Equal(t, http.StatusOK, status)

	// the token no longer authenticates
	status, _, _ = ts.get(t, "/api/blogs/my/blogs", token)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestBlogLifecycle(t *testing.T) {
	app, db := newTestApplication(t)

	ts := newTestServer(t, app.routes())

	writerToken, writerID := registerActivatedUser(t, app, db, "Ada", "Lovelace", "ada@example.com", "Test_1234!")
	otherToken, _ := registerActivatedUser(t, app, db, "Grace", "Hopper", "grace@example.com", "Test_1234!")

	blogBody := strings.TrimSpace(strings.Repeat("word ", 400))

	status, _, body := ts.post(t, "/api/blogs", map[string]any{
		"title":       "Notes on the Analytical Engine",
		"description": "First impressions",
		"tags":        []string{"history", "computing"},
		"body":        blogBody,
	}, writerToken)

	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "draft", blogField(t, body, "state"))
	assert.Equal(t, float64(0), blogField(t, body, "read_count"))
	assert.Equal(t, "2 min read", blogField(t, body, "reading_time"))
	assert.Equal(t, float64(writerID), blogField(t, body, "author_id"))

	blogID := int(blogField(t, body, "id").(float64))
	blogPath := fmt.Sprintf("/api/blogs/%d", blogID)

	t.Run("nonsense ids are plain not found", func(t *testing.T) {
		for _, path := range []string{"/api/blogs/0", "/api/blogs/-1", "/api/blogs/abc"} {
			status, _, _ := ts.get(t, path, nil)
			assert.Equal(t, http.StatusNotFound, status)
		}
	})

	t.Run("draft is publicly invisible", func(t *testing.T) {
		status, _, _ := ts.get(t, blogPath, nil)
		assert.Equal(t, http.StatusNotFound, status)

		status, _, body := ts.get(t, "/api/blogs", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Empty(t, body["blogs"])
	})

	t.Run("draft is visible to its owner", func(t *testing.T) {
		status, _, body := ts.get(t, "/api/blogs/my/blogs", writerToken)
		assert.Equal(t, http.StatusOK, status)

		blogs, ok := body["blogs"].([]any)
		assert.True(t, ok)
		assert.Len(t, blogs, 1)
	})

	t.Run("publish via update", func(t *testing.T) {
		status, _, body := ts.put(t, blogPath, writerToken, map[string]any{"state": "published"})
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "published", blogField(t, body, "state"))
	})

	t.Run("each public fetch increments the read count", func(t *testing.T) {
		var lastCount float64
		for i := 0; i < 3; i++ {
			status, _, body := ts.get(t, blogPath, nil)
			assert.Equal(t, http.StatusOK, status)
			lastCount = blogField(t, body, "read_count").(float64)
		}
		assert.Equal(t, float64(3), lastCount)
	})

	t.Run("public fetch expands the author", func(t *testing.T) {
		status, _, body := ts.get(t, blogPath, nil)
		assert.Equal(t, http.StatusOK, status)

		author, ok := blogField(t, body, "author").(map[string]any)
		assert.True(t, ok)
		assert.Equal(t, "Ada", author["first_name"])
		assert.Equal(t, "ada@example.com", author["email"])
	})

	t.Run("non-owner cannot update", func(t *testing.T) {
		status, _, _ := ts.put(t, blogPath, otherToken, map[string]any{"title": "Hijacked"})
		assert.Equal(t, http.StatusForbidden, status)

		status, _, body := ts.get(t, blogPath, nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "Notes on the Analytical Engine", blogField(t, body, "title"))
	})

	t.Run("non-owner cannot delete", func(t *testing.T) {
		status, _, _ := ts.delete(t, blogPath, otherToken)
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("anonymous cannot update", func(t *testing.T) {
		status, _, _ := ts.put(t, blogPath, nil, map[string]any{"title": "Hijacked"})
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("body update recomputes reading time", func(t *testing.T) {
		status, _, body := ts.put(t, blogPath, writerToken, map[string]any{"body": "Short now."})
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "1 min read", blogField(t, body, "reading_time"))
		assert.Equal(t, "Notes on the Analytical Engine", blogField(t, body, "title"))
	})

	t.Run("owner deletes, then fetch is 404", func(t *testing.T) {
		status, _, _ := ts.delete(t, blogPath, writerToken)
		assert.Equal(t, http.StatusOK, status)

		status, _, _ = ts.get(t, blogPath, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestCreateBlogHandler(t *testing.T) {
	app, db := newTestApplication(t)

	ts := newTestServer(t, app.routes())

	token, _ := registerActivatedUser(t, app, db, "Test", "User", "testuser@example.com", "Test_1234!")

	status, _, _ := ts.post(t, "/api/blogs", map[string]any{
		"title": "A Unique Title",
		"body":  "Some body text.",
	}, token)
	require.Equal(t, http.StatusCreated, status)

	t.Run("Duplicate Title", func(t *testing.T) {
		status, _, body := ts.post(t, "/api/blogs", map[string]any{
			"title": "A Unique Title",
			"body":  "Different body.",
		}, token)

		assert.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Equal(t, "a blog with this title already exists", errorField(t, body, "title"))
	})

	t.Run("Missing Body", func(t *testing.T) {
		status, _, body := ts.post(t, "/api/blogs", map[string]any{
			"title": "Another Title",
		}, token)

		assert.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Equal(t, "must be provided", errorField(t, body, "body"))
	})

	t.Run("Anonymous", func(t *testing.T) {
		status, _, _ := ts.post(t, "/api/blogs", map[string]any{
			"title": "Anonymous Title",
			"body":  "Body.",
		}, nil)

		assert.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestListPublishedBlogsHandler(t *testing.T) {
	app, db := newTestApplication(t)

	ts := newTestServer(t, app.routes())

	token, authorID := registerActivatedUser(t, app, db, "Test", "User", "testuser@example.com", "Test_1234!")

	seed := []struct {
		title string
		tags  []string
	}{
		{"Go Concurrency Patterns", []string{"go", "concurrency"}},
		{"Go Generics in Practice", []string{"go"}},
		{"Rust Ownership Explained", []string{"rust"}},
	}

	for _, s := range seed {
		status, _, body := ts.post(t, "/api/blogs", map[string]any{
			"title": s.title,
			"tags":  s.tags,
			"body":  "Some body text.",
		}, token)
		require.Equal(t, http.StatusCreated, status)

		id := int(blogField(t, body, "id").(float64))
		status, _, _ = ts.put(t, fmt.Sprintf("/api/blogs/%d", id), token, map[string]any{"state": "published"})
		require.Equal(t, http.StatusOK, status)
	}

	listLen := func(t *testing.T, path string) int {
		status, _, body := ts.get(t, path, nil)
		assert.Equal(t, http.StatusOK, status)

		blogs, ok := body["blogs"].([]any)
		if !ok {
			return 0
		}
		return len(blogs)
	}

	t.Run("all published", func(t *testing.T) {
		assert.Equal(t, 3, listLen(t, "/api/blogs"))
	})

	t.Run("title substring filter", func(t *testing.T) {
		assert.Equal(t, 2, listLen(t, "/api/blogs?title=go"))
	})

	t.Run("tags filter", func(t *testing.T) {
		assert.Equal(t, 1, listLen(t, "/api/blogs?tags=rust"))
		assert.Equal(t, 2, listLen(t, "/api/blogs?tags=go,concurrency"))
	})

	t.Run("author filter", func(t *testing.T) {
		assert.Equal(t, 3, listLen(t, fmt.Sprintf("/api/blogs?author=%d", authorID)))
		assert.Equal(t, 0, listLen(t, fmt.Sprintf("/api/blogs?author=%d", authorID+100)))
	})

	t.Run("conjunctive filters", func(t *testing.T) {
		assert.Equal(t, 1, listLen(t, "/api/blogs?title=go&tags=concurrency"))
	})

	t.Run("pagination", func(t *testing.T) {
		assert.Equal(t, 2, listLen(t, "/api/blogs?limit=2"))
		assert.Equal(t, 1, listLen(t, "/api/blogs?page=2&limit=2"))
	})

	t.Run("unknown orderBy is rejected", func(t *testing.T) {
		status, _, _ := ts.get(t, "/api/blogs?orderBy=banana", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, status)
	})

	t.Run("orderBy read_count sorts most read first", func(t *testing.T) {
		// read one blog so the ordering is observable
		status, _, body := ts.get(t, "/api/blogs?title=rust", nil)
		require.Equal(t, http.StatusOK, status)
		read := body["blogs"].([]any)[0].(map[string]any)
		readID := read["id"].(float64)

		_, _, _ = ts.get(t, fmt.Sprintf("/api/blogs/%d", int(readID)), nil)

		status, _, body = ts.get(t, "/api/blogs?orderBy=read_count", nil)
		assert.Equal(t, http.StatusOK, status)

		blogs := body["blogs"].([]any)
		require.Len(t, blogs, 3)
		assert.Equal(t, readID, blogs[0].(map[string]any)["id"])
	})
}

func TestListMyBlogsHandler(t *testing.T) {
	app, db := newTestApplication(t)

	ts := newTestServer(t, app.routes())

	token, _ := registerActivatedUser(t, app, db, "Test", "User", "testuser@example.com", "Test_1234!")

	status, _, body := ts.post(t, "/api/blogs", map[string]any{
		"title": "My Draft",
		"body":  "Body.",
	}, token)
	require.Equal(t, http.StatusCreated, status)

	id := int(blogField(t, body, "id").(float64))

	status, _, _ = ts.post(t, "/api/blogs", map[string]any{
		"title": "My Published",
		"body":  "Body.",
	}, token)
	require.Equal(t, http.StatusCreated, status)

	status, _, _ = ts.put(t, fmt.Sprintf("/api/blogs/%d", id), token, map[string]any{"state": "published"})
	require.Equal(t, http.StatusOK, status)

	t.Run("requires authentication", func(t *testing.T) {
		status, _, _ := ts.get(t, "/api/blogs/my/blogs", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("returns every state", func(t *testing.T) {
		status, _, body := ts.get(t, "/api/blogs/my/blogs", token)
		assert.Equal(t, http.StatusOK, status)

		blogs := body["blogs"].([]any)
		assert.Len(t, blogs, 2)
	})

	t.Run("state filter", func(t *testing.T) {
		status, _, body := ts.get(t, "/api/blogs/my/blogs?state=draft", token)
		assert.Equal(t, http.StatusOK, status)

		blogs := body["blogs"].([]any)
		assert.Len(t, blogs, 1)
	})
}
