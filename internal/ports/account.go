package ports

import "context"

// AccountPort defines the interface for account profile writes.
type AccountPort interface {
	// UpdateProfile updates account profile fields for the given user.
	// userID identifies the account; username/displayName are applied as
	// provided. Returns an error if the update fails.
	UpdateProfile(ctx context.Context, userID, username, displayName string) error
	// UpdateMetadata replaces the account metadata document for the given
	// user.
	UpdateMetadata(ctx context.Context, userID string, metadata map[string]interface{}) error
}
