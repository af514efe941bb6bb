package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Article is a feed entry as listed by ListArticles.
type Article struct {
	ID       int
	Title    string
	UserName string
	Body     string
}

// UnmarshalJSON decodes the [id, title, user, body] row format.
func (a *Article) UnmarshalJSON(data []byte) error {
	return decodeRow(data, &a.ID, &a.Title, &a.UserName, &a.Body)
}

// ArticleFull is a single article with its announcement.
type ArticleFull struct {
	ID           int    `json:"id"`
	Title        string `json:"title"`
	UserName     string `json:"user_name"`
	Announcement string `json:"announcement"`
	Body         string `json:"article_body"`
}

// UnmarshalJSON decodes the [id, title, user, announcement, body] row format.
func (a *ArticleFull) UnmarshalJSON(data []byte) error {
	return decodeRow(data, &a.ID, &a.Title, &a.UserName, &a.Announcement, &a.Body)
}

// Author is a user profile.
type Author struct {
	ID          int
	Name        string
	Description string
}

// UnmarshalJSON decodes the [id, name, description] row format.
func (a *Author) UnmarshalJSON(data []byte) error {
	return decodeRow(data, &a.ID, &a.Name, &a.Description)
}

// SearchResult is one hit from SearchArticles.
type SearchResult struct {
	ArticleID    int     `json:"article_id"`
	Title        string  `json:"title"`
	Login        string  `json:"login"`
	Announcement string  `json:"announcement,omitempty"`
	Score        float64 `json:"score"`
}

// decodeRow decodes a JSON array positionally into fields. Extra trailing
// elements are ignored.
func decodeRow(data []byte, fields ...interface{}) error {
	var row []json.RawMessage
	if err := json.Unmarshal(data, &row); err != nil {
		return err
	}
	if len(row) < len(fields) {
		return fmt.Errorf("row has %d columns, want %d", len(row), len(fields))
	}
	for i, f := range fields {
		if err := json.Unmarshal(row[i], f); err != nil {
			return fmt.Errorf("column %d: %w", i, err)
		}
	}
	return nil
}

// ListOptions filters and pages ListArticles.
type ListOptions struct {
	Login  string // only this author's articles
	Amount int    // page size
	Chunk  int    // 1-based page number
}

// ListArticles returns a page of the feed.
func (c *Client) ListArticles(ctx context.Context, opts ListOptions) ([]Article, error) {
	q := url.Values{}
	if opts.Login != "" {
		q.Set("login", opts.Login)
	}
	// Paging is only honoured when both values are given.
	if opts.Amount > 0 && opts.Chunk > 0 {
		q.Set("amount", strconv.Itoa(opts.Amount))
		q.Set("chunk", strconv.Itoa(opts.Chunk))
	}

	var resp struct {
		Articles []Article `json:"articles"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/feed/articles", q, nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Articles, nil
}

// GetArticle returns one article in full.
func (c *Client) GetArticle(ctx context.Context, id int) (*ArticleFull, error) {
	q := url.Values{"article_id": {strconv.Itoa(id)}}

	var resp struct {
		Article *ArticleFull `json:"article"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/feed/article_full", q, nil, &resp, true); err != nil {
		return nil, err
	}
	if resp.Article == nil {
		return nil, fmt.Errorf("invalid article_full response: missing article %d", id)
	}
	return resp.Article, nil
}

// SearchOptions configures SearchArticles.
type SearchOptions struct {
	Query        string
	Login        string
	Amount       int  // default 5
	Chunk        int  // default 1
	Announcement bool // also match announcements
}

// ErrSearchFailed is returned when the server answers a search with success=false.
var ErrSearchFailed = errors.New("client: search reported failure")

// SearchArticles runs a full-text search.
func (c *Client) SearchArticles(ctx context.Context, opts SearchOptions) ([]SearchResult, error) {
	if opts.Query == "" {
		return nil, errors.New("client: search query is required")
	}
	if opts.Amount <= 0 {
		opts.Amount = 5
	}
	if opts.Chunk <= 0 {
		opts.Chunk = 1
	}

	q := url.Values{}
	q.Set("query", opts.Query)
	q.Set("amount", strconv.Itoa(opts.Amount))
	q.Set("chunk", strconv.Itoa(opts.Chunk))
	if opts.Login != "" {
		q.Set("login", opts.Login)
	}
	q.Set("announcement", strconv.FormatBool(opts.Announcement))

	var resp struct {
		Success bool           `json:"success"`
		Results []SearchResult `json:"results"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/feed/search_articles", q, nil, &resp, true); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, ErrSearchFailed
	}
	return resp.Results, nil
}

// NewArticle is the payload of AddArticle.
type NewArticle struct {
	Title        string `json:"title"`
	Announcement string `json:"announcement"`
	Body         string `json:"article_body"`
}

// AddArticle publishes an article and returns its id.
func (c *Client) AddArticle(ctx context.Context, a NewArticle) (int, error) {
	var resp struct {
		ArticleID int `json:"article_id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/feed/add_article", nil, a, &resp, true); err != nil {
		return 0, err
	}
	return resp.ArticleID, nil
}

// UpdateArticle replaces an article's text. a.ID selects the article.
func (c *Client) UpdateArticle(ctx context.Context, a ArticleFull) error {
	if a.Title == "" || a.Announcement == "" || a.Body == "" {
		return errors.New("client: title, announcement and body are required")
	}
	return c.doJSON(ctx, http.MethodPut, "/feed/update_article", nil, a, nil, true)
}

// GetAuthor returns an author's profile.
func (c *Client) GetAuthor(ctx context.Context, name string) (*Author, error) {
	q := url.Values{"author_name": {name}}

	var resp struct {
		AuthorInfo *Author `json:"author_info"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/users/author", q, nil, &resp, true); err != nil {
		return nil, err
	}
	if resp.AuthorInfo == nil {
		return nil, fmt.Errorf("invalid author response: missing author %q", name)
	}
	return resp.AuthorInfo, nil
}
