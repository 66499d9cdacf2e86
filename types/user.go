package types

import "encoding/json"

// UserType discriminates person accounts from integration bots.
type UserType string

const (
	UserTypePerson UserType = "person"
	UserTypeBot    UserType = "bot"
)

// Person is the person-specific payload of a user object.
type Person struct {
	Email string `json:"email,omitempty"`
}

// Bot is the bot-specific payload of a user object. Owner shapes vary by
// integration kind so the field stays raw.
type Bot struct {
	Owner         json.RawMessage `json:"owner,omitempty"`
	WorkspaceName string          `json:"workspace_name,omitempty"`
}

// User is a Notion user object with unknown-key passthrough.
type User struct {
	Object    ObjectType `json:"object,omitempty"`
	ID        UserID     `json:"id"`
	Type      UserType   `json:"type,omitempty"`
	Name      string     `json:"name,omitempty"`
	AvatarURL string     `json:"avatar_url,omitempty"`
	Person    *Person    `json:"person,omitempty"`
	Bot       *Bot       `json:"bot,omitempty"`

	Extra Extra `json:"-"`
}

var userKeys = knownKeys(
	"object", "id", "type", "name", "avatar_url", "person", "bot",
)

func (u *User) UnmarshalJSON(data []byte) error {
	type alias User
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := splitExtra(data, userKeys)
	if err != nil {
		return err
	}
	*u = User(a)
	u.Extra = extra
	return nil
}

func (u User) MarshalJSON() ([]byte, error) {
	type alias User
	data, err := json.Marshal(alias(u))
	if err != nil {
		return nil, err
	}
	return mergeExtra(data, u.Extra)
}

// IsPerson reports whether the user is a human account.
func (u *User) IsPerson() bool {
	return u.Type == UserTypePerson
}

// IsBot reports whether the user is an integration bot.
func (u *User) IsBot() bool {
	return u.Type == UserTypeBot
}

// Email returns the person email, empty for bots.
func (u *User) Email() string {
	if u.Person == nil {
		return ""
	}
	return u.Person.Email
}

// WorkspaceName returns the bot's workspace name, empty for people.
func (u *User) WorkspaceName() string {
	if u.Bot == nil {
		return ""
	}
	return u.Bot.WorkspaceName
}
