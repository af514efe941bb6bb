package client

import (
	"context"
	"errors"
	"net/http"
)

type signUpRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type signUpResponse struct {
	Token string `json:"token"`
}

// SignUp registers login and stores the returned token on the client.
func (c *Client) SignUp(ctx context.Context, login, password string) (string, error) {
	var resp signUpResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/sign_up", nil, signUpRequest{Login: login, Password: password}, &resp, false)
	if err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", errors.New("invalid sign-up response: missing token")
	}
	c.SetToken(resp.Token)
	c.log.WithField("login", login).Info("signed up")
	return resp.Token, nil
}

// Logout forgets the token. The server keeps no session to end.
func (c *Client) Logout() {
	c.SetToken("")
}
