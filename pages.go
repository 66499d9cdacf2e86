package notion

import (
	"context"
	"encoding/json"

	"github.com/notioncodes/notion/types"
)

// PageNamespace provides fluent access to page operations.
type PageNamespace struct {
	http *HTTPClient
}

// CreatePageRequest is the payload for creating a page. Properties use plain
// maps so any property type the API understands can be expressed; the
// builders in types (TitleProperty, SelectProperty, ...) cover the common ones.
type CreatePageRequest struct {
	Parent     types.Parent     `json:"parent"`
	Properties map[string]any   `json:"properties"`
	Children   []map[string]any `json:"children,omitempty"`
	Icon       *types.Icon      `json:"icon,omitempty"`
	Cover      *types.Cover     `json:"cover,omitempty"`
}

// Validate checks the request before any I/O happens.
func (r *CreatePageRequest) Validate() error {
	if r.Parent.Type == "" {
		return &ValidationError{Field: "parent", Message: "a parent is required"}
	}
	if len(r.Properties) == 0 {
		return &ValidationError{Field: "properties", Message: "at least one property is required"}
	}
	return nil
}

// UpdatePageRequest is the payload for updating a page. Every field is
// optional but at least one must be set.
type UpdatePageRequest struct {
	Properties map[string]any `json:"properties,omitempty"`
	Archived   *bool          `json:"archived,omitempty"`
	InTrash    *bool          `json:"in_trash,omitempty"`
	Icon       *types.Icon    `json:"icon,omitempty"`
	Cover      *types.Cover   `json:"cover,omitempty"`
}

// Validate rejects empty updates before any I/O happens.
func (r *UpdatePageRequest) Validate() error {
	if len(r.Properties) == 0 && r.Archived == nil && r.InTrash == nil && r.Icon == nil && r.Cover == nil {
		return &ValidationError{Message: "update requires at least one of properties, archived, in_trash, icon, or cover"}
	}
	return nil
}

// Get retrieves a single page by ID.
//
// Example:
//
//	page, err := client.Pages().Get(ctx, pageID)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(page.Title())
func (ns *PageNamespace) Get(ctx context.Context, pageID types.PageID) (*types.Page, error) {
	if err := pageID.Validate(); err != nil {
		return nil, &ValidationError{Field: "page_id", Message: err.Error()}
	}

	var page types.Page
	if err := ns.http.GetJSON(ctx, "/pages/"+pageID.String(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetMany retrieves multiple pages concurrently, bounded by the configured
// concurrency. Results are in the same order as pageIDs.
func (ns *PageNamespace) GetMany(ctx context.Context, pageIDs []types.PageID) []Result[*types.Page] {
	return ProcessConcurrently(ctx, pageIDs, func(ctx context.Context, id types.PageID) (*types.Page, error) {
		return ns.Get(ctx, id)
	}, ns.http.config.Concurrency)
}

// Create creates a new page under a page or database parent.
func (ns *PageNamespace) Create(ctx context.Context, req *CreatePageRequest) (*types.Page, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var page types.Page
	if err := ns.http.PostJSON(ctx, "/pages", req, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Update patches a page's properties, archive state, icon, or cover.
func (ns *PageNamespace) Update(ctx context.Context, pageID types.PageID, req *UpdatePageRequest) (*types.Page, error) {
	if err := pageID.Validate(); err != nil {
		return nil, &ValidationError{Field: "page_id", Message: err.Error()}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var page types.Page
	if err := ns.http.PatchJSON(ctx, "/pages/"+pageID.String(), req, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetProperty retrieves a single page property item. For paginated property
// types (long relations, rollups) only the first slice comes back; use
// GetPropertyAll to drain them.
func (ns *PageNamespace) GetProperty(ctx context.Context, pageID types.PageID, propertyID types.PropertyID) (json.RawMessage, error) {
	if err := pageID.Validate(); err != nil {
		return nil, &ValidationError{Field: "page_id", Message: err.Error()}
	}
	if err := propertyID.Validate(); err != nil {
		return nil, &ValidationError{Field: "property_id", Message: err.Error()}
	}

	var raw json.RawMessage
	path := "/pages/" + pageID.String() + "/properties/" + propertyID.String()
	if err := ns.http.GetJSON(ctx, path, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// GetPropertyAll retrieves every item of a paginated page property.
func (ns *PageNamespace) GetPropertyAll(ctx context.Context, pageID types.PageID, propertyID types.PropertyID) ([]json.RawMessage, error) {
	if err := pageID.Validate(); err != nil {
		return nil, &ValidationError{Field: "page_id", Message: err.Error()}
	}
	if err := propertyID.Validate(); err != nil {
		return nil, &ValidationError{Field: "property_id", Message: err.Error()}
	}

	path := "/pages/" + pageID.String() + "/properties/" + propertyID.String()
	pager := NewGetPaginator[json.RawMessage](ns.http, path, nil, 0)
	return pager.CollectAll(ctx)
}

// Archive marks a page as archived. Archiving an archived page is a no-op on
// the server side.
func (ns *PageNamespace) Archive(ctx context.Context, pageID types.PageID) (*types.Page, error) {
	archived := true
	return ns.Update(ctx, pageID, &UpdatePageRequest{Archived: &archived})
}

// Unarchive restores an archived page.
func (ns *PageNamespace) Unarchive(ctx context.Context, pageID types.PageID) (*types.Page, error) {
	archived := false
	return ns.Update(ctx, pageID, &UpdatePageRequest{Archived: &archived})
}

// Trash moves a page to the trash. This is what the Notion UI calls delete;
// the API has no hard delete for pages.
func (ns *PageNamespace) Trash(ctx context.Context, pageID types.PageID) (*types.Page, error) {
	inTrash := true
	return ns.Update(ctx, pageID, &UpdatePageRequest{InTrash: &inTrash})
}

// Restore brings a page back out of the trash.
func (ns *PageNamespace) Restore(ctx context.Context, pageID types.PageID) (*types.Page, error) {
	inTrash := false
	return ns.Update(ctx, pageID, &UpdatePageRequest{InTrash: &inTrash})
}
