package notion

import (
	"context"

	"github.com/notioncodes/notion/types"
)

// defaultTreeDepth bounds GetTree recursion when the caller passes 0.
const defaultTreeDepth = 10

// BlockNamespace provides fluent access to block operations.
type BlockNamespace struct {
	http *HTTPClient
}

// AppendChildrenRequest is the payload for appending child blocks.
type AppendChildrenRequest struct {
	Children []map[string]any `json:"children"`

	// After inserts the new blocks after this sibling instead of at the end.
	After types.BlockID `json:"after,omitempty"`
}

// Validate checks the request before any I/O happens.
func (r *AppendChildrenRequest) Validate() error {
	if len(r.Children) == 0 {
		return &ValidationError{Field: "children", Message: "at least one child block is required"}
	}
	if r.After != "" {
		if err := r.After.Validate(); err != nil {
			return &ValidationError{Field: "after", Message: err.Error()}
		}
	}
	return nil
}

// Get retrieves a single block by ID.
func (ns *BlockNamespace) Get(ctx context.Context, blockID types.BlockID) (*types.Block, error) {
	if err := blockID.Validate(); err != nil {
		return nil, &ValidationError{Field: "block_id", Message: err.Error()}
	}

	var block types.Block
	if err := ns.http.GetJSON(ctx, "/blocks/"+blockID.String(), nil, &block); err != nil {
		return nil, err
	}
	return &block, nil
}

// GetMany retrieves multiple blocks concurrently, in input order.
func (ns *BlockNamespace) GetMany(ctx context.Context, blockIDs []types.BlockID) []Result[*types.Block] {
	return ProcessConcurrently(ctx, blockIDs, func(ctx context.Context, id types.BlockID) (*types.Block, error) {
		return ns.Get(ctx, id)
	}, ns.http.config.Concurrency)
}

// Update patches a block's content. The body carries the type-specific
// payload, e.g. {"paragraph": {"rich_text": [...]}}.
func (ns *BlockNamespace) Update(ctx context.Context, blockID types.BlockID, body map[string]any) (*types.Block, error) {
	if err := blockID.Validate(); err != nil {
		return nil, &ValidationError{Field: "block_id", Message: err.Error()}
	}
	if len(body) == 0 {
		return nil, &ValidationError{Field: "body", Message: "update requires a non-empty payload"}
	}

	var block types.Block
	if err := ns.http.PatchJSON(ctx, "/blocks/"+blockID.String(), body, &block); err != nil {
		return nil, err
	}
	return &block, nil
}

// Delete moves a block to the trash. The API returns the deleted block.
func (ns *BlockNamespace) Delete(ctx context.Context, blockID types.BlockID) (*types.Block, error) {
	if err := blockID.Validate(); err != nil {
		return nil, &ValidationError{Field: "block_id", Message: err.Error()}
	}

	var block types.Block
	if err := ns.http.DeleteJSON(ctx, "/blocks/"+blockID.String(), &block); err != nil {
		return nil, err
	}
	return &block, nil
}

// Archive marks a block as archived.
func (ns *BlockNamespace) Archive(ctx context.Context, blockID types.BlockID) (*types.Block, error) {
	return ns.Update(ctx, blockID, map[string]any{"archived": true})
}

// Unarchive restores an archived block.
func (ns *BlockNamespace) Unarchive(ctx context.Context, blockID types.BlockID) (*types.Block, error) {
	return ns.Update(ctx, blockID, map[string]any{"archived": false})
}

// Trash moves a block to the trash.
func (ns *BlockNamespace) Trash(ctx context.Context, blockID types.BlockID) (*types.Block, error) {
	return ns.Update(ctx, blockID, map[string]any{"in_trash": true})
}

// Restore brings a block back from the trash.
func (ns *BlockNamespace) Restore(ctx context.Context, blockID types.BlockID) (*types.Block, error) {
	return ns.Update(ctx, blockID, map[string]any{"in_trash": false})
}

// GetChildren returns a lazy paginator over a block's direct children.
// Page IDs work here too: a page's top-level blocks are its children.
func (ns *BlockNamespace) GetChildren(blockID types.BlockID, pageSize int) (*Paginator[types.Block], error) {
	if err := blockID.Validate(); err != nil {
		return nil, &ValidationError{Field: "block_id", Message: err.Error()}
	}

	path := "/blocks/" + blockID.String() + "/children"
	return NewGetPaginator[types.Block](ns.http, path, nil, pageSize), nil
}

// GetAllChildren fetches every direct child of a block.
func (ns *BlockNamespace) GetAllChildren(ctx context.Context, blockID types.BlockID) ([]types.Block, error) {
	pager, err := ns.GetChildren(blockID, 0)
	if err != nil {
		return nil, err
	}
	return pager.CollectAll(ctx)
}

// AppendChildren appends child blocks to a block or page.
func (ns *BlockNamespace) AppendChildren(ctx context.Context, blockID types.BlockID, req *AppendChildrenRequest) ([]types.Block, error) {
	if err := blockID.Validate(); err != nil {
		return nil, &ValidationError{Field: "block_id", Message: err.Error()}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var resp PaginationResponse[types.Block]
	path := "/blocks/" + blockID.String() + "/children"
	if err := ns.http.PatchAppendJSON(ctx, path, req, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// GetTree fetches a block's children recursively up to maxDepth levels,
// descending only into blocks that report has_children. A maxDepth of 0
// means the default of 10.
func (ns *BlockNamespace) GetTree(ctx context.Context, blockID types.BlockID, maxDepth int) ([]types.Block, error) {
	if err := blockID.Validate(); err != nil {
		return nil, &ValidationError{Field: "block_id", Message: err.Error()}
	}
	if maxDepth <= 0 {
		maxDepth = defaultTreeDepth
	}

	return ns.fetchTree(ctx, blockID, maxDepth)
}

func (ns *BlockNamespace) fetchTree(ctx context.Context, blockID types.BlockID, depth int) ([]types.Block, error) {
	children, err := ns.GetAllChildren(ctx, blockID)
	if err != nil {
		return nil, err
	}

	if depth <= 1 {
		return children, nil
	}

	for i := range children {
		if !children[i].HasChildren {
			continue
		}
		nested, err := ns.fetchTree(ctx, children[i].ID, depth-1)
		if err != nil {
			return nil, err
		}
		children[i].Children = nested
	}

	return children, nil
}
