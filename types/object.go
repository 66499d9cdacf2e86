package types

import "encoding/json"

// ObjectType discriminates the top-level Notion object kinds.
type ObjectType string

const (
	ObjectTypePage     ObjectType = "page"
	ObjectTypeDatabase ObjectType = "database"
	ObjectTypeBlock    ObjectType = "block"
	ObjectTypeUser     ObjectType = "user"
	ObjectTypeList     ObjectType = "list"
)

// ParentType discriminates the container an object lives under.
type ParentType string

const (
	ParentTypeDatabase  ParentType = "database_id"
	ParentTypePage      ParentType = "page_id"
	ParentTypeWorkspace ParentType = "workspace"
	ParentTypeBlock     ParentType = "block_id"
)

// Parent locates an object's container. Exactly one of the ID fields is set
// according to Type; the workspace parent carries only the boolean.
type Parent struct {
	Type       ParentType `json:"type"`
	DatabaseID DatabaseID `json:"database_id,omitempty"`
	PageID     PageID     `json:"page_id,omitempty"`
	BlockID    BlockID    `json:"block_id,omitempty"`
	Workspace  bool       `json:"workspace,omitempty"`
}

// DatabaseParent builds a database container reference for create calls.
func DatabaseParent(id DatabaseID) Parent {
	return Parent{Type: ParentTypeDatabase, DatabaseID: id}
}

// PageParent builds a page container reference for create calls.
func PageParent(id PageID) Parent {
	return Parent{Type: ParentTypePage, PageID: id}
}

// ExternalFile is a caller-hosted file reference.
type ExternalFile struct {
	URL string `json:"url"`
}

// HostedFile is a Notion-hosted file with a signed, expiring URL.
type HostedFile struct {
	URL        string `json:"url"`
	ExpiryTime string `json:"expiry_time,omitempty"`
}

// Icon is a page or database icon. One of Emoji, External, or File is set
// according to Type.
type Icon struct {
	Type     string        `json:"type"`
	Emoji    string        `json:"emoji,omitempty"`
	External *ExternalFile `json:"external,omitempty"`
	File     *HostedFile   `json:"file,omitempty"`
}

// EmojiIcon builds an emoji icon value.
func EmojiIcon(emoji string) *Icon {
	return &Icon{Type: "emoji", Emoji: emoji}
}

// ExternalIcon builds an externally hosted icon value.
func ExternalIcon(url string) *Icon {
	return &Icon{Type: "external", External: &ExternalFile{URL: url}}
}

// Cover is a page or database cover image.
type Cover struct {
	Type     string        `json:"type"`
	External *ExternalFile `json:"external,omitempty"`
	File     *HostedFile   `json:"file,omitempty"`
}

// ExternalCover builds an externally hosted cover value.
func ExternalCover(url string) *Cover {
	return &Cover{Type: "external", External: &ExternalFile{URL: url}}
}

// PartialUser is the bare user reference attached to created_by and
// last_edited_by fields.
type PartialUser struct {
	Object string `json:"object,omitempty"`
	ID     UserID `json:"id"`
}

// Object is the minimal envelope shared by every Notion response, used when
// the concrete type is not known up front (search results, block tree walks).
type Object struct {
	Object ObjectType      `json:"object"`
	ID     string          `json:"id"`
	Raw    json.RawMessage `json:"-"`
}

// UnmarshalJSON keeps the full payload alongside the envelope fields so the
// caller can decode into the concrete type once Object is inspected.
func (o *Object) UnmarshalJSON(data []byte) error {
	type envelope struct {
		Object ObjectType `json:"object"`
		ID     string     `json:"id"`
	}
	var e envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return err
	}
	o.Object = e.Object
	o.ID = e.ID
	o.Raw = append(o.Raw[:0], data...)
	return nil
}

// MarshalJSON writes back the retained payload.
func (o Object) MarshalJSON() ([]byte, error) {
	if len(o.Raw) > 0 {
		return o.Raw, nil
	}
	type envelope struct {
		Object ObjectType `json:"object"`
		ID     string     `json:"id"`
	}
	return json.Marshal(envelope{Object: o.Object, ID: o.ID})
}

// AsPage decodes the retained payload as a page.
func (o Object) AsPage() (*Page, error) {
	var p Page
	if err := json.Unmarshal(o.Raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// AsDatabase decodes the retained payload as a database.
func (o Object) AsDatabase() (*Database, error) {
	var d Database
	if err := json.Unmarshal(o.Raw, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
