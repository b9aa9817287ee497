package client

import (
	"context"
	"net/http"
	"roombook/pkg/model"
)

type AuthClient struct {
	httpClient *HttpClient
}

func NewAuthClient(httpClient *HttpClient) *AuthClient {
	return &AuthClient{httpClient: httpClient}
}

// Register creates the account and keeps its token for later calls.
func (c *AuthClient) Register(ctx context.Context, reg *model.Registration) (*model.Session, error) {
	return c.session(ctx, "/api/v1/auth/register", reg, http.StatusCreated)
}

// Login keeps the issued token on the shared HttpClient.
func (c *AuthClient) Login(ctx context.Context, email, password string) (*model.Session, error) {
	return c.session(ctx, "/api/v1/auth/login", model.Credentials{Email: email, Password: password}, http.StatusOK)
}

func (c *AuthClient) session(ctx context.Context, path string, body any, status int) (*model.Session, error) {
	resp, err := c.httpClient.POST(ctx, path, body)
	if err != nil {
		return nil, err
	}
	if err := expect(resp, status); err != nil {
		return nil, err
	}

	var session model.Session
	if err := decodeData(resp, &session); err != nil {
		return nil, err
	}
	c.httpClient.SetToken(session.Token)
	return &session, nil
}
