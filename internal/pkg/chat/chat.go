// Package chat wraps the hosted chat provider behind a small service
// interface. The provider is treated as best-effort: callers own the
// authoritative membership state and re-sync on every call.
package chat

import "context"

// UserRecord is the minimal remote user representation we upsert.
type UserRecord struct {
	ID        string
	Name      string
	AvatarURL string
}

// Service is the member-management surface the sync engine consumes.
type Service interface {
	// UpsertUser creates or updates the remote user record.
	UpsertUser(ctx context.Context, user UserRecord) error
	// EnsureChannel creates the remote channel if it does not exist yet and
	// reconciles its member list. Safe to call repeatedly with the same id.
	EnsureChannel(ctx context.Context, channelID, creatorID, name string, memberIDs []string) error
	// AddMember adds one user to an existing remote channel.
	AddMember(ctx context.Context, channelID, userID string) error
	// RemoveMember removes one user from the remote channel without touching
	// message history.
	RemoveMember(ctx context.Context, channelID, userID string) error
	// SendSystemMessage posts a platform-authored message into the channel.
	SendSystemMessage(ctx context.Context, channelID, text string) error
	// SendMessage posts a message authored by the given user.
	SendMessage(ctx context.Context, channelID, senderID, text string) error
}
