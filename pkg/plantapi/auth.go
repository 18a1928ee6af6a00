package plantapi

import (
	"context"
	"net/http"

	"github.com/rotisserie/eris"

	"github.com/sells-group/plantwatch/internal/model"
	"github.com/sells-group/plantwatch/internal/session"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login exchanges credentials for a session and resolves the operator
// profile. Credential checks and token issuance happen service-side.
func Login(ctx context.Context, email, password string, opts ...Option) (*session.Session, error) {
	c := newHTTPClient(nil, opts...)

	var tok tokenResponse
	r := request{method: http.MethodPost, path: "/auth/login", body: loginRequest{Email: email, Password: password}, anonymous: true}
	if err := c.do(ctx, r, &tok); err != nil {
		return nil, eris.Wrap(err, "plantapi: login")
	}
	if tok.AccessToken == "" {
		return nil, eris.New("plantapi: login returned no access token")
	}

	sess := session.New(tok.AccessToken, model.User{Email: email})
	c.sess = sess
	user, err := c.Me(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "plantapi: resolve operator")
	}
	return session.New(tok.AccessToken, user), nil
}

func (c *httpClient) Me(ctx context.Context) (model.User, error) {
	var u model.User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auth/me", idempotent: true}, &u); err != nil {
		return model.User{}, eris.Wrap(err, "plantapi: current user")
	}
	return u, nil
}
