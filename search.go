package notion

import (
	"context"
	"strings"

	"github.com/notioncodes/notion/types"
)

// SearchNamespace provides fluent access to workspace search.
type SearchNamespace struct {
	http *HTTPClient
}

// SearchFilter narrows search results to one object type. The only property
// the API supports filtering on is "object".
type SearchFilter struct {
	Value    types.ObjectType `json:"value"`
	Property string           `json:"property"`
}

// PageFilter returns the filter for page results only.
func PageFilter() *SearchFilter {
	return &SearchFilter{Value: types.ObjectTypePage, Property: "object"}
}

// DatabaseFilter returns the filter for database results only.
func DatabaseFilter() *SearchFilter {
	return &SearchFilter{Value: types.ObjectTypeDatabase, Property: "object"}
}

// SearchSort orders results by last edited time.
type SearchSort struct {
	Direction string `json:"direction"`
	Timestamp string `json:"timestamp"`
}

// SearchRequest carries the query text and optional filter and sort.
// An empty query matches everything shared with the integration.
type SearchRequest struct {
	Query  string        `json:"query,omitempty"`
	Filter *SearchFilter `json:"filter,omitempty"`
	Sort   *SearchSort   `json:"sort,omitempty"`

	// StartCursor resumes the search from a next_cursor returned earlier.
	StartCursor string `json:"start_cursor,omitempty"`

	// PageSize overrides the configured default page size.
	PageSize int `json:"page_size,omitempty"`
}

func (r *SearchRequest) body() map[string]any {
	body := map[string]any{}
	if r == nil {
		return body
	}
	if r.Query != "" {
		body["query"] = r.Query
	}
	if r.Filter != nil {
		body["filter"] = r.Filter
	}
	if r.Sort != nil {
		body["sort"] = r.Sort
	}
	if r.StartCursor != "" {
		body["start_cursor"] = r.StartCursor
	}
	if r.PageSize > 0 {
		body["page_size"] = r.PageSize
	}
	return body
}

// Iterate returns a lazy paginator over search results.
func (ns *SearchNamespace) Iterate(req *SearchRequest) *Paginator[types.Object] {
	size := 0
	if req != nil {
		size = req.PageSize
	}
	return NewPostPaginator[types.Object](ns.http, "/search", req.body(), size)
}

// Search fetches the first page of search results.
func (ns *SearchNamespace) Search(ctx context.Context, req *SearchRequest) (*PaginationResponse[types.Object], error) {
	body := req.body()
	if _, ok := body["page_size"]; !ok {
		body["page_size"] = ns.http.config.PageSize
	}

	var resp PaginationResponse[types.Object]
	if err := ns.http.PostQueryJSON(ctx, "/search", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchAll drains the search across every page of results.
func (ns *SearchNamespace) SearchAll(ctx context.Context, req *SearchRequest) ([]types.Object, error) {
	return ns.Iterate(req).CollectAll(ctx)
}

// Stream delivers search results on a channel as they arrive.
func (ns *SearchNamespace) Stream(ctx context.Context, req *SearchRequest) <-chan Result[types.Object] {
	return ns.Iterate(req).Stream(ctx, ns.http.config.BufferSize)
}

// Pages searches for pages only and decodes the matches.
func (ns *SearchNamespace) Pages(ctx context.Context, query string) ([]types.Page, error) {
	objects, err := ns.SearchAll(ctx, &SearchRequest{Query: query, Filter: PageFilter()})
	if err != nil {
		return nil, err
	}

	pages := make([]types.Page, 0, len(objects))
	for _, obj := range objects {
		page, err := obj.AsPage()
		if err != nil {
			return nil, (&ErrorClassifier{}).WrapSerializationError("unmarshal", "types.Page", "", err)
		}
		pages = append(pages, *page)
	}
	return pages, nil
}

// Databases searches for databases only and decodes the matches.
func (ns *SearchNamespace) Databases(ctx context.Context, query string) ([]types.Database, error) {
	objects, err := ns.SearchAll(ctx, &SearchRequest{Query: query, Filter: DatabaseFilter()})
	if err != nil {
		return nil, err
	}

	databases := make([]types.Database, 0, len(objects))
	for _, obj := range objects {
		db, err := obj.AsDatabase()
		if err != nil {
			return nil, (&ErrorClassifier{}).WrapSerializationError("unmarshal", "types.Database", "", err)
		}
		databases = append(databases, *db)
	}
	return databases, nil
}

// ByTitle searches by title text. With exact set, only results whose full
// rendered title equals the query (case-insensitively) are kept; Notion's
// own matching is fuzzy, so the post-filter runs client side.
func (ns *SearchNamespace) ByTitle(ctx context.Context, title string, filter *SearchFilter, exact bool) ([]types.Object, error) {
	if title == "" {
		return nil, &ValidationError{Field: "title", Message: "title must not be empty"}
	}

	objects, err := ns.SearchAll(ctx, &SearchRequest{Query: title, Filter: filter})
	if err != nil {
		return nil, err
	}
	if !exact {
		return objects, nil
	}

	needle := strings.ToLower(title)
	var matches []types.Object
	for _, obj := range objects {
		if strings.ToLower(objectTitle(obj)) == needle {
			matches = append(matches, obj)
		}
	}
	return matches, nil
}

// objectTitle renders the title of a search result regardless of its type.
func objectTitle(obj types.Object) string {
	switch obj.Object {
	case types.ObjectTypePage:
		page, err := obj.AsPage()
		if err != nil {
			return ""
		}
		return page.Title()
	case types.ObjectTypeDatabase:
		db, err := obj.AsDatabase()
		if err != nil {
			return ""
		}
		return db.Title()
	}
	return ""
}

// FindPage resolves a page from either an ID or a title. A 32-hex value is
// treated as an ID first; anything else falls back to an exact title search.
func (ns *SearchNamespace) FindPage(ctx context.Context, idOrTitle string, pages *PageNamespace) (*types.Page, error) {
	if types.IsObjectID(idOrTitle) {
		id, err := types.ParsePageID(idOrTitle)
		if err == nil {
			return pages.Get(ctx, id)
		}
	}

	matches, err := ns.ByTitle(ctx, idOrTitle, PageFilter(), true)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, &NotFoundError{Resource: "page", Message: "no page titled " + idOrTitle}
	}
	return matches[0].AsPage()
}

// FindDatabase resolves a database from either an ID or a title.
func (ns *SearchNamespace) FindDatabase(ctx context.Context, idOrTitle string, databases *DatabaseNamespace) (*types.Database, error) {
	if types.IsObjectID(idOrTitle) {
		id, err := types.ParseDatabaseID(idOrTitle)
		if err == nil {
			return databases.Get(ctx, id)
		}
	}

	matches, err := ns.ByTitle(ctx, idOrTitle, DatabaseFilter(), true)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, &NotFoundError{Resource: "database", Message: "no database titled " + idOrTitle}
	}
	return matches[0].AsDatabase()
}
