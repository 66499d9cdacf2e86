package types

import (
	"encoding/json"
	"time"
)

// Block is a Notion block object. The type-specific payload lives under a key
// named after Type ("paragraph", "heading_1", ...); it lands in Extra through
// the passthrough mechanism and is reached via Content.
type Block struct {
	Object         ObjectType   `json:"object,omitempty"`
	ID             BlockID      `json:"id"`
	Parent         Parent       `json:"parent"`
	Type           string       `json:"type"`
	CreatedTime    time.Time    `json:"created_time,omitzero"`
	LastEditedTime time.Time    `json:"last_edited_time,omitzero"`
	CreatedBy      *PartialUser `json:"created_by,omitempty"`
	LastEditedBy   *PartialUser `json:"last_edited_by,omitempty"`
	HasChildren    bool         `json:"has_children"`
	Archived       bool         `json:"archived"`
	InTrash        bool         `json:"in_trash"`

	// Children is filled by recursive tree fetches, never by the API itself.
	Children []Block `json:"children,omitempty"`

	Extra Extra `json:"-"`
}

var blockKeys = knownKeys(
	"object", "id", "parent", "type", "created_time", "last_edited_time",
	"created_by", "last_edited_by", "has_children", "archived", "in_trash",
	"children",
)

func (b *Block) UnmarshalJSON(data []byte) error {
	type alias Block
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := splitExtra(data, blockKeys)
	if err != nil {
		return err
	}
	*b = Block(a)
	b.Extra = extra
	return nil
}

func (b Block) MarshalJSON() ([]byte, error) {
	type alias Block
	data, err := json.Marshal(alias(b))
	if err != nil {
		return nil, err
	}
	return mergeExtra(data, b.Extra)
}

// Content returns the raw payload keyed by the block's type, nil when absent.
func (b *Block) Content() json.RawMessage {
	if b.Extra == nil {
		return nil
	}
	return b.Extra[b.Type]
}

// RichText extracts the rich_text spans from the block's content for the
// block types that carry them (paragraphs, headings, list items, quotes).
func (b *Block) RichText() []RichText {
	content := b.Content()
	if content == nil {
		return nil
	}
	var payload struct {
		RichText []RichText `json:"rich_text"`
	}
	if err := json.Unmarshal(content, &payload); err != nil {
		return nil
	}
	return payload.RichText
}

// PlainText returns the joined rendered text of the block's content.
func (b *Block) PlainText() string {
	return PlainText(b.RichText())
}

// NewParagraphBlock builds a paragraph block for append payloads.
func NewParagraphBlock(text string) map[string]any {
	return map[string]any{
		"object": "block",
		"type":   "paragraph",
		"paragraph": map[string]any{
			"rich_text": []RichText{NewText(text)},
		},
	}
}

// NewHeadingBlock builds a heading block of the given level (1 to 3).
func NewHeadingBlock(level int, text string) map[string]any {
	if level < 1 {
		level = 1
	}
	if level > 3 {
		level = 3
	}
	key := map[int]string{1: "heading_1", 2: "heading_2", 3: "heading_3"}[level]
	return map[string]any{
		"object": "block",
		"type":   key,
		key: map[string]any{
			"rich_text": []RichText{NewText(text)},
		},
	}
}
