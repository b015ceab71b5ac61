package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/searchops/imt-exercises/pkg/smm"
)

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// CreateUser registers a new account on the instance.
func (c *Connection) CreateUser(ctx context.Context, username, password string) (smm.User, error) {
	body := map[string]string{
		"username": username,
		"password": password,
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/users/", body)
	if err != nil {
		return smm.User{}, fmt.Errorf("failed to create user %s: %w", username, err)
	}

	var user userResponse
	if err := decodeResponse(resp, &user); err != nil {
		return smm.User{}, fmt.Errorf("failed to decode user response: %w", err)
	}

	return smm.User{ID: user.ID, Username: user.Username}, nil
}
