package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// PropertyValue is a schema-flexible page property. The full payload is
// retained raw and decoded on demand through the typed accessors, so property
// types this package does not model still round-trip untouched.
type PropertyValue struct {
	ID   string
	Type string

	raw json.RawMessage
}

// UnmarshalJSON keeps the payload and lifts out the discriminator fields.
func (p *PropertyValue) UnmarshalJSON(data []byte) error {
	var head struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	p.ID = head.ID
	p.Type = head.Type
	p.raw = append(p.raw[:0], data...)
	return nil
}

// MarshalJSON writes back the retained payload byte for byte.
func (p PropertyValue) MarshalJSON() ([]byte, error) {
	if len(p.raw) > 0 {
		return p.raw, nil
	}
	return []byte("{}"), nil
}

// Raw exposes the retained payload for property types without an accessor.
func (p PropertyValue) Raw() json.RawMessage {
	return p.raw
}

func (p PropertyValue) decodeField(key string, out any) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(p.raw, &m); err != nil {
		return err
	}
	v, ok := m[key]
	if !ok || string(v) == "null" {
		return fmt.Errorf("property has no %q value", key)
	}
	return json.Unmarshal(v, out)
}

// Title returns the rich text spans of a title property.
func (p PropertyValue) Title() ([]RichText, error) {
	var spans []RichText
	if err := p.decodeField("title", &spans); err != nil {
		return nil, err
	}
	return spans, nil
}

// RichText returns the spans of a rich_text property.
func (p PropertyValue) RichText() ([]RichText, error) {
	var spans []RichText
	if err := p.decodeField("rich_text", &spans); err != nil {
		return nil, err
	}
	return spans, nil
}

// Number returns the value of a number property. Unset numbers come back
// as ok == false.
func (p PropertyValue) Number() (float64, bool) {
	var n float64
	if err := p.decodeField("number", &n); err != nil {
		return 0, false
	}
	return n, true
}

// SelectOption is a select or multi_select choice.
type SelectOption struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Select returns the chosen option of a select property, nil when unset.
func (p PropertyValue) Select() *SelectOption {
	var opt SelectOption
	if err := p.decodeField("select", &opt); err != nil {
		return nil
	}
	return &opt
}

// MultiSelect returns the chosen options of a multi_select property.
func (p PropertyValue) MultiSelect() []SelectOption {
	var opts []SelectOption
	if err := p.decodeField("multi_select", &opts); err != nil {
		return nil
	}
	return opts
}

// Checkbox returns the value of a checkbox property.
func (p PropertyValue) Checkbox() bool {
	var v bool
	if err := p.decodeField("checkbox", &v); err != nil {
		return false
	}
	return v
}

// URL returns the value of a url property.
func (p PropertyValue) URL() string {
	var v string
	if err := p.decodeField("url", &v); err != nil {
		return ""
	}
	return v
}

// Email returns the value of an email property.
func (p PropertyValue) Email() string {
	var v string
	if err := p.decodeField("email", &v); err != nil {
		return ""
	}
	return v
}

// DateValue is the payload of a date property.
type DateValue struct {
	Start    string `json:"start"`
	End      string `json:"end,omitempty"`
	TimeZone string `json:"time_zone,omitempty"`
}

// Date returns the value of a date property, nil when unset.
func (p PropertyValue) Date() *DateValue {
	var v DateValue
	if err := p.decodeField("date", &v); err != nil {
		return nil
	}
	return &v
}

// Relation returns the related page references of a relation property.
func (p PropertyValue) Relation() []PageRef {
	var refs []PageRef
	if err := p.decodeField("relation", &refs); err != nil {
		return nil
	}
	return refs
}

// People returns the users of a people property.
func (p PropertyValue) People() []User {
	var users []User
	if err := p.decodeField("people", &users); err != nil {
		return nil
	}
	return users
}

// PageRef is a bare reference to another page, as used by relations.
type PageRef struct {
	ID PageID `json:"id"`
}

// Write-side property builders. Create and update payloads are plain maps so
// callers can express property types the builders do not cover.

// TitleProperty builds a title property value from plain text.
func TitleProperty(text string) map[string]any {
	return map[string]any{"title": []RichText{NewText(text)}}
}

// RichTextProperty builds a rich_text property value from plain text.
func RichTextProperty(text string) map[string]any {
	return map[string]any{"rich_text": []RichText{NewText(text)}}
}

// NumberProperty builds a number property value.
func NumberProperty(n float64) map[string]any {
	return map[string]any{"number": n}
}

// SelectProperty builds a select property value by option name.
func SelectProperty(name string) map[string]any {
	return map[string]any{"select": map[string]any{"name": name}}
}

// CheckboxProperty builds a checkbox property value.
func CheckboxProperty(v bool) map[string]any {
	return map[string]any{"checkbox": v}
}

// DateProperty builds a date property value from a start time.
func DateProperty(start time.Time) map[string]any {
	return map[string]any{"date": map[string]any{"start": start.Format(time.RFC3339)}}
}
