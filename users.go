package notion

import (
	"context"
	"strings"

	"github.com/notioncodes/notion/types"
)

// UserNamespace provides fluent access to user operations.
type UserNamespace struct {
	http *HTTPClient
}

// List returns a lazy paginator over the workspace's users.
func (ns *UserNamespace) List(pageSize int) *Paginator[types.User] {
	return NewGetPaginator[types.User](ns.http, "/users", nil, pageSize)
}

// ListAll fetches every user in the workspace.
func (ns *UserNamespace) ListAll(ctx context.Context) ([]types.User, error) {
	return ns.List(0).CollectAll(ctx)
}

// Stream delivers workspace users on a channel as they arrive.
func (ns *UserNamespace) Stream(ctx context.Context) <-chan Result[types.User] {
	return ns.List(0).Stream(ctx, ns.http.config.BufferSize)
}

// Get retrieves a single user by ID.
func (ns *UserNamespace) Get(ctx context.Context, userID types.UserID) (*types.User, error) {
	if err := userID.Validate(); err != nil {
		return nil, &ValidationError{Field: "user_id", Message: err.Error()}
	}

	var user types.User
	if err := ns.http.GetJSON(ctx, "/users/"+userID.String(), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Me retrieves the bot user the token belongs to.
func (ns *UserNamespace) Me(ctx context.Context) (*types.User, error) {
	var user types.User
	if err := ns.http.GetJSON(ctx, "/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail looks up a person by email, case-insensitively. Returns a
// NotFoundError when no member matches. Bot users have no email and never
// match.
func (ns *UserNamespace) FindByEmail(ctx context.Context, email string) (*types.User, error) {
	if email == "" {
		return nil, &ValidationError{Field: "email", Message: "email must not be empty"}
	}

	// The derived context releases the streaming goroutine on early return.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	needle := strings.ToLower(email)
	for result := range ns.Stream(ctx) {
		if result.IsError() {
			return nil, result.Error
		}
		user := result.Data
		if strings.ToLower(user.Email()) == needle {
			return &user, nil
		}
	}

	return nil, &NotFoundError{Resource: "user", Message: "no user with email " + email}
}

// FindByName looks up users by display name. With exact set, only
// case-insensitive full matches count; otherwise substring matches do.
func (ns *UserNamespace) FindByName(ctx context.Context, name string, exact bool) ([]types.User, error) {
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "name must not be empty"}
	}

	needle := strings.ToLower(name)
	matches := FilterResults(ctx, ns.Stream(ctx), func(u types.User) bool {
		candidate := strings.ToLower(u.Name)
		if exact {
			return candidate == needle
		}
		return strings.Contains(candidate, needle)
	})

	return CollectResults(ctx, matches)
}

// WorkspaceMembers returns the human members of the workspace.
func (ns *UserNamespace) WorkspaceMembers(ctx context.Context) ([]types.User, error) {
	members := FilterResults(ctx, ns.Stream(ctx), func(u types.User) bool {
		return u.IsPerson()
	})
	return CollectResults(ctx, members)
}

// Bots returns the integration bots visible in the workspace.
func (ns *UserNamespace) Bots(ctx context.Context) ([]types.User, error) {
	bots := FilterResults(ctx, ns.Stream(ctx), func(u types.User) bool {
		return u.IsBot()
	})
	return CollectResults(ctx, bots)
}
