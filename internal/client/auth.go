package client

import (
	"context"
	"net/http"

	"github.com/JaimeStill/alphadoc/internal/failures"
	"github.com/JaimeStill/alphadoc/internal/session"
)

type loginResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	WorkspaceID string `json:"workspace_id"`
}

// SignupResult acknowledges a signup. WorkspaceID is set for admin signups.
type SignupResult struct {
	Message     string `json:"message"`
	WorkspaceID string `json:"workspace_id,omitempty"`
}

// Authenticate exchanges credentials for a session. It does not establish
// the session; session.Context.Login does.
func (c *Client) Authenticate(ctx context.Context, creds session.Credentials) (session.Session, error) {
	body, err := jsonBody(creds)
	if err != nil {
		return session.Session{}, err
	}

	var resp loginResponse
	if err := c.do(ctx, request{
		op:          failures.OpLogin,
		method:      http.MethodPost,
		path:        "/auth/login",
		body:        body,
		contentType: "application/json",
		public:      true,
	}, &resp); err != nil {
		return session.Session{}, err
	}

	role, err := session.ParseRole(resp.Role)
	if err != nil {
		return session.Session{}, err
	}

	return session.Session{
		Token:       resp.AccessToken,
		WorkspaceID: resp.WorkspaceID,
		Username:    resp.Username,
		Role:        role,
	}, nil
}

// SignupAdmin creates a workspace and its first admin account.
func (c *Client) SignupAdmin(ctx context.Context, req session.AdminSignup) (*SignupResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return c.signup(ctx, "/auth/signup/admin", req)
}

// SignupResearcher registers a researcher in an existing workspace.
func (c *Client) SignupResearcher(ctx context.Context, req session.ResearcherSignup) (*SignupResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return c.signup(ctx, "/auth/signup/researcher", req)
}

func (c *Client) signup(ctx context.Context, path string, req any) (*SignupResult, error) {
	body, err := jsonBody(req)
	if err != nil {
		return nil, err
	}

	var result SignupResult
	if err := c.do(ctx, request{
		op:          failures.OpSignup,
		method:      http.MethodPost,
		path:        path,
		body:        body,
		contentType: "application/json",
		public:      true,
	}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
