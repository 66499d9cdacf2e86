package types

import (
	"encoding/json"
	"time"
)

// Page is a Notion page object. Keys the struct does not declare are kept in
// Extra and written back on marshal.
type Page struct {
	Object         ObjectType               `json:"object,omitempty"`
	ID             PageID                   `json:"id"`
	CreatedTime    time.Time                `json:"created_time,omitzero"`
	LastEditedTime time.Time                `json:"last_edited_time,omitzero"`
	CreatedBy      *PartialUser             `json:"created_by,omitempty"`
	LastEditedBy   *PartialUser             `json:"last_edited_by,omitempty"`
	Parent         Parent                   `json:"parent"`
	Archived       bool                     `json:"archived"`
	InTrash        bool                     `json:"in_trash"`
	Properties     map[string]PropertyValue `json:"properties,omitempty"`
	Icon           *Icon                    `json:"icon,omitempty"`
	Cover          *Cover                   `json:"cover,omitempty"`
	URL            string                   `json:"url,omitempty"`
	PublicURL      string                   `json:"public_url,omitempty"`

	Extra Extra `json:"-"`
}

var pageKeys = knownKeys(
	"object", "id", "created_time", "last_edited_time", "created_by",
	"last_edited_by", "parent", "archived", "in_trash", "properties",
	"icon", "cover", "url", "public_url",
)

func (p *Page) UnmarshalJSON(data []byte) error {
	type alias Page
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := splitExtra(data, pageKeys)
	if err != nil {
		return err
	}
	*p = Page(a)
	p.Extra = extra
	return nil
}

func (p Page) MarshalJSON() ([]byte, error) {
	type alias Page
	data, err := json.Marshal(alias(p))
	if err != nil {
		return nil, err
	}
	return mergeExtra(data, p.Extra)
}

// Title returns the page's rendered title, found by scanning properties for
// the one of type "title". Empty when the page has no title property.
func (p *Page) Title() string {
	for _, prop := range p.Properties {
		if prop.Type != "title" {
			continue
		}
		spans, err := prop.Title()
		if err != nil {
			return ""
		}
		return PlainText(spans)
	}
	return ""
}

// Property returns the named property and whether it exists.
func (p *Page) Property(name string) (PropertyValue, bool) {
	v, ok := p.Properties[name]
	return v, ok
}
