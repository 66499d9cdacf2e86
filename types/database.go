package types

import (
	"encoding/json"
	"time"
)

// PropertySchema is one column definition in a database schema. Like page
// property values it is kept raw; the Type field tells the caller what the
// payload holds.
type PropertySchema struct {
	ID   string
	Name string
	Type string

	raw json.RawMessage
}

func (s *PropertySchema) UnmarshalJSON(data []byte) error {
	var head struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	s.ID = head.ID
	s.Name = head.Name
	s.Type = head.Type
	s.raw = append(s.raw[:0], data...)
	return nil
}

func (s PropertySchema) MarshalJSON() ([]byte, error) {
	if len(s.raw) > 0 {
		return s.raw, nil
	}
	return []byte("{}"), nil
}

// Raw exposes the retained schema payload.
func (s PropertySchema) Raw() json.RawMessage {
	return s.raw
}

// Database is a Notion database object with unknown-key passthrough.
type Database struct {
	Object         ObjectType                `json:"object,omitempty"`
	ID             DatabaseID                `json:"id"`
	CreatedTime    time.Time                 `json:"created_time,omitzero"`
	LastEditedTime time.Time                 `json:"last_edited_time,omitzero"`
	CreatedBy      *PartialUser              `json:"created_by,omitempty"`
	LastEditedBy   *PartialUser              `json:"last_edited_by,omitempty"`
	TitleSpans     []RichText                `json:"title,omitempty"`
	Description    []RichText                `json:"description,omitempty"`
	Icon           *Icon                     `json:"icon,omitempty"`
	Cover          *Cover                    `json:"cover,omitempty"`
	Properties     map[string]PropertySchema `json:"properties,omitempty"`
	Parent         Parent                    `json:"parent"`
	URL            string                    `json:"url,omitempty"`
	PublicURL      string                    `json:"public_url,omitempty"`
	Archived       bool                      `json:"archived"`
	InTrash        bool                      `json:"in_trash"`
	IsInline       bool                      `json:"is_inline"`

	Extra Extra `json:"-"`
}

var databaseKeys = knownKeys(
	"object", "id", "created_time", "last_edited_time", "created_by",
	"last_edited_by", "title", "description", "icon", "cover", "properties",
	"parent", "url", "public_url", "archived", "in_trash", "is_inline",
)

func (d *Database) UnmarshalJSON(data []byte) error {
	type alias Database
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := splitExtra(data, databaseKeys)
	if err != nil {
		return err
	}
	*d = Database(a)
	d.Extra = extra
	return nil
}

func (d Database) MarshalJSON() ([]byte, error) {
	type alias Database
	data, err := json.Marshal(alias(d))
	if err != nil {
		return nil, err
	}
	return mergeExtra(data, d.Extra)
}

// Title returns the database's rendered title.
func (d *Database) Title() string {
	return PlainText(d.TitleSpans)
}
