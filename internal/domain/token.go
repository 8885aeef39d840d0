package domain

import "time"

// AccessToken is the decoded form of an opaque media-access token. Tokens
// are ephemeral: nothing about them is persisted server-side.
type AccessToken struct {
	MediaID   string
	ExpiresAt time.Time
}
