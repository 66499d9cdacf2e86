package notion

import (
	"context"

	"github.com/notioncodes/notion/types"
)

// DatabaseNamespace provides fluent access to database operations.
type DatabaseNamespace struct {
	http *HTTPClient
}

// CreateDatabaseRequest is the payload for creating a database.
type CreateDatabaseRequest struct {
	Parent     types.Parent     `json:"parent"`
	Title      []types.RichText `json:"title,omitempty"`
	Properties map[string]any   `json:"properties"`
	Icon       *types.Icon      `json:"icon,omitempty"`
	Cover      *types.Cover     `json:"cover,omitempty"`
	IsInline   bool             `json:"is_inline,omitempty"`
}

// Validate checks the request before any I/O happens. Every database schema
// must contain exactly one title property; the API enforces the "exactly
// one" half, this checks it exists at all.
func (r *CreateDatabaseRequest) Validate() error {
	if r.Parent.Type == "" {
		return &ValidationError{Field: "parent", Message: "a parent is required"}
	}
	if len(r.Properties) == 0 {
		return &ValidationError{Field: "properties", Message: "a database schema requires at least a title property"}
	}
	return nil
}

// UpdateDatabaseRequest is the payload for updating a database. Properties
// entries map a property name to its new schema, or to nil to remove it.
type UpdateDatabaseRequest struct {
	Title       []types.RichText `json:"title,omitempty"`
	Description []types.RichText `json:"description,omitempty"`
	Properties  map[string]any   `json:"properties,omitempty"`
	Archived    *bool            `json:"archived,omitempty"`
	InTrash     *bool            `json:"in_trash,omitempty"`
	Icon        *types.Icon      `json:"icon,omitempty"`
	Cover       *types.Cover     `json:"cover,omitempty"`
}

// Validate rejects empty updates before any I/O happens.
func (r *UpdateDatabaseRequest) Validate() error {
	if len(r.Title) == 0 && len(r.Description) == 0 && len(r.Properties) == 0 &&
		r.Archived == nil && r.InTrash == nil && r.Icon == nil && r.Cover == nil {
		return &ValidationError{Message: "update requires at least one field"}
	}
	return nil
}

// QueryRequest carries the filter and sort criteria for a database query.
// Filter and sort shapes follow the Notion API reference; both are optional.
type QueryRequest struct {
	Filter map[string]any   `json:"filter,omitempty"`
	Sorts  []map[string]any `json:"sorts,omitempty"`

	// StartCursor resumes the query from a next_cursor returned earlier.
	StartCursor string `json:"start_cursor,omitempty"`

	// PageSize overrides the configured default page size.
	PageSize int `json:"page_size,omitempty"`
}

func (r *QueryRequest) body() map[string]any {
	body := map[string]any{}
	if r == nil {
		return body
	}
	if r.Filter != nil {
		body["filter"] = r.Filter
	}
	if len(r.Sorts) > 0 {
		body["sorts"] = r.Sorts
	}
	if r.StartCursor != "" {
		body["start_cursor"] = r.StartCursor
	}
	if r.PageSize > 0 {
		body["page_size"] = r.PageSize
	}
	return body
}

// Get retrieves a database by ID, including its schema.
func (ns *DatabaseNamespace) Get(ctx context.Context, databaseID types.DatabaseID) (*types.Database, error) {
	if err := databaseID.Validate(); err != nil {
		return nil, &ValidationError{Field: "database_id", Message: err.Error()}
	}

	var db types.Database
	if err := ns.http.GetJSON(ctx, "/databases/"+databaseID.String(), nil, &db); err != nil {
		return nil, err
	}
	return &db, nil
}

// Create creates a new database under a page parent.
func (ns *DatabaseNamespace) Create(ctx context.Context, req *CreateDatabaseRequest) (*types.Database, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var db types.Database
	if err := ns.http.PostJSON(ctx, "/databases", req, &db); err != nil {
		return nil, err
	}
	return &db, nil
}

// Update patches a database's title, description, schema, or archive state.
func (ns *DatabaseNamespace) Update(ctx context.Context, databaseID types.DatabaseID, req *UpdateDatabaseRequest) (*types.Database, error) {
	if err := databaseID.Validate(); err != nil {
		return nil, &ValidationError{Field: "database_id", Message: err.Error()}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var db types.Database
	if err := ns.http.PatchJSON(ctx, "/databases/"+databaseID.String(), req, &db); err != nil {
		return nil, err
	}
	return &db, nil
}

// IteratePages returns a lazy paginator over the pages matching a query.
// Each Next call costs exactly one request.
func (ns *DatabaseNamespace) IteratePages(databaseID types.DatabaseID, req *QueryRequest) (*Paginator[types.Page], error) {
	if err := databaseID.Validate(); err != nil {
		return nil, &ValidationError{Field: "database_id", Message: err.Error()}
	}

	size := 0
	if req != nil {
		size = req.PageSize
	}
	path := "/databases/" + databaseID.String() + "/query"
	return NewPostPaginator[types.Page](ns.http, path, req.body(), size), nil
}

// Query fetches the first page of results for a database query.
//
// Example:
//
//	resp, err := client.Databases().Query(ctx, dbID, &QueryRequest{
//	    Filter: map[string]any{
//	        "property": "Status",
//	        "select":   map[string]any{"equals": "Done"},
//	    },
//	})
func (ns *DatabaseNamespace) Query(ctx context.Context, databaseID types.DatabaseID, req *QueryRequest) (*PaginationResponse[types.Page], error) {
	if err := databaseID.Validate(); err != nil {
		return nil, &ValidationError{Field: "database_id", Message: err.Error()}
	}

	body := req.body()
	if _, ok := body["page_size"]; !ok {
		body["page_size"] = ns.http.config.PageSize
	}

	var resp PaginationResponse[types.Page]
	path := "/databases/" + databaseID.String() + "/query"
	if err := ns.http.PostQueryJSON(ctx, path, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueryAll drains a database query across every page of results.
func (ns *DatabaseNamespace) QueryAll(ctx context.Context, databaseID types.DatabaseID, req *QueryRequest) ([]types.Page, error) {
	pager, err := ns.IteratePages(databaseID, req)
	if err != nil {
		return nil, err
	}
	return pager.CollectAll(ctx)
}

// Stream delivers query results on a channel as pages arrive.
func (ns *DatabaseNamespace) Stream(ctx context.Context, databaseID types.DatabaseID, req *QueryRequest) <-chan Result[types.Page] {
	pager, err := ns.IteratePages(databaseID, req)
	if err != nil {
		resultCh := make(chan Result[types.Page], 1)
		resultCh <- Error[types.Page](err)
		close(resultCh)
		return resultCh
	}
	return pager.Stream(ctx, ns.http.config.BufferSize)
}

// Archive marks a database as archived.
func (ns *DatabaseNamespace) Archive(ctx context.Context, databaseID types.DatabaseID) (*types.Database, error) {
	archived := true
	return ns.Update(ctx, databaseID, &UpdateDatabaseRequest{Archived: &archived})
}

// Unarchive restores an archived database.
func (ns *DatabaseNamespace) Unarchive(ctx context.Context, databaseID types.DatabaseID) (*types.Database, error) {
	archived := false
	return ns.Update(ctx, databaseID, &UpdateDatabaseRequest{Archived: &archived})
}

// Trash moves a database to the trash.
func (ns *DatabaseNamespace) Trash(ctx context.Context, databaseID types.DatabaseID) (*types.Database, error) {
	inTrash := true
	return ns.Update(ctx, databaseID, &UpdateDatabaseRequest{InTrash: &inTrash})
}

// Restore brings a database back out of the trash.
func (ns *DatabaseNamespace) Restore(ctx context.Context, databaseID types.DatabaseID) (*types.Database, error) {
	inTrash := false
	return ns.Update(ctx, databaseID, &UpdateDatabaseRequest{InTrash: &inTrash})
}

// AddProperty adds a column to the database schema.
//
// Example:
//
//	db, err := client.Databases().AddProperty(ctx, dbID, "Priority", map[string]any{
//	    "select": map[string]any{"options": []map[string]any{{"name": "High"}}},
//	})
func (ns *DatabaseNamespace) AddProperty(ctx context.Context, databaseID types.DatabaseID, name string, schema map[string]any) (*types.Database, error) {
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "property name must not be empty"}
	}
	if len(schema) == 0 {
		return nil, &ValidationError{Field: "schema", Message: "property schema must not be empty"}
	}

	return ns.Update(ctx, databaseID, &UpdateDatabaseRequest{
		Properties: map[string]any{name: schema},
	})
}

// RemoveProperty drops a column from the database schema. The API expresses
// removal as mapping the property name to null.
func (ns *DatabaseNamespace) RemoveProperty(ctx context.Context, databaseID types.DatabaseID, name string) (*types.Database, error) {
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "property name must not be empty"}
	}

	return ns.Update(ctx, databaseID, &UpdateDatabaseRequest{
		Properties: map[string]any{name: nil},
	})
}

// RenameProperty renames a column, keeping its schema.
func (ns *DatabaseNamespace) RenameProperty(ctx context.Context, databaseID types.DatabaseID, oldName, newName string) (*types.Database, error) {
	if oldName == "" || newName == "" {
		return nil, &ValidationError{Field: "name", Message: "both the current and new property names are required"}
	}

	return ns.Update(ctx, databaseID, &UpdateDatabaseRequest{
		Properties: map[string]any{oldName: map[string]any{"name": newName}},
	})
}
