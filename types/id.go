package types

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Notion object identifiers are UUIDs that the API accepts with or without
// dashes. Parsing normalizes to the undashed lowercase form, which is what
// gets interpolated into request paths.

// PageID identifies a page object.
type PageID string

// BlockID identifies a block object.
type BlockID string

// DatabaseID identifies a database object.
type DatabaseID string

// UserID identifies a user object.
type UserID string

// PropertyID identifies a property within a page or database schema.
// Property IDs are short opaque tokens, not UUIDs, so they carry no
// validation beyond being non-empty.
type PropertyID string

func normalizeID(s string) (string, error) {
	stripped := strings.ReplaceAll(s, "-", "")
	if len(stripped) != 32 {
		return "", fmt.Errorf("id %q must be 32 hex characters after removing dashes, got %d", s, len(stripped))
	}
	u, err := uuid.Parse(stripped)
	if err != nil {
		return "", fmt.Errorf("id %q is not valid hex: %w", s, err)
	}
	return strings.ReplaceAll(u.String(), "-", ""), nil
}

// ParsePageID validates and normalizes a page ID.
func ParsePageID(s string) (PageID, error) {
	n, err := normalizeID(s)
	if err != nil {
		return "", err
	}
	return PageID(n), nil
}

// ParseBlockID validates and normalizes a block ID.
func ParseBlockID(s string) (BlockID, error) {
	n, err := normalizeID(s)
	if err != nil {
		return "", err
	}
	return BlockID(n), nil
}

// ParseDatabaseID validates and normalizes a database ID.
func ParseDatabaseID(s string) (DatabaseID, error) {
	n, err := normalizeID(s)
	if err != nil {
		return "", err
	}
	return DatabaseID(n), nil
}

// ParseUserID validates and normalizes a user ID.
func ParseUserID(s string) (UserID, error) {
	n, err := normalizeID(s)
	if err != nil {
		return "", err
	}
	return UserID(n), nil
}

// IsObjectID reports whether s looks like a Notion object ID, meaning it is
// exactly 32 hex characters once dashes are removed.
func IsObjectID(s string) bool {
	_, err := normalizeID(s)
	return err == nil
}

func (id PageID) String() string     { return string(id) }
func (id BlockID) String() string    { return string(id) }
func (id DatabaseID) String() string { return string(id) }
func (id UserID) String() string     { return string(id) }
func (id PropertyID) String() string { return string(id) }

func (id PageID) Validate() error {
	_, err := normalizeID(string(id))
	return err
}

func (id BlockID) Validate() error {
	_, err := normalizeID(string(id))
	return err
}

func (id DatabaseID) Validate() error {
	_, err := normalizeID(string(id))
	return err
}

func (id UserID) Validate() error {
	_, err := normalizeID(string(id))
	return err
}

func (id PropertyID) Validate() error {
	if id == "" {
		return fmt.Errorf("property id must not be empty")
	}
	return nil
}

func dashed(s string) string {
	u, err := uuid.Parse(strings.ReplaceAll(s, "-", ""))
	if err != nil {
		return s
	}
	return u.String()
}

// Dashed returns the canonical 8-4-4-4-12 form, as rendered in Notion URLs.
func (id PageID) Dashed() string { return dashed(string(id)) }

// Dashed returns the canonical 8-4-4-4-12 form.
func (id BlockID) Dashed() string { return dashed(string(id)) }

// Dashed returns the canonical 8-4-4-4-12 form.
func (id DatabaseID) Dashed() string { return dashed(string(id)) }

// Dashed returns the canonical 8-4-4-4-12 form.
func (id UserID) Dashed() string { return dashed(string(id)) }
