package firebase

import (
	"context"

	"firebase.google.com/go/auth"
)

// Client narrows the firebase auth client to what the authenticator
// needs, so tests can swap it for a mock.
type Client struct {
	FirebaseClient *auth.Client `inject:""`
}

func (c *Client) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	return c.FirebaseClient.VerifyIDToken(ctx, idToken)
}

func (c *Client) GetUser(ctx context.Context, uid string) (*auth.UserRecord, error) {
	return c.FirebaseClient.GetUser(ctx, uid)
}
