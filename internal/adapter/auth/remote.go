package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rl1809/storefront/internal/core/domain"
)

// RemoteVerifier asks an identity provider's userinfo endpoint who a token
// belongs to.
type RemoteVerifier struct {
	client *resty.Client
	url    string
}

type userInfo struct {
	ID    string `json:"id"`
	Sub   string `json:"sub"`
	Email string `json:"email"`
}

func NewRemoteVerifier(userInfoURL string) *RemoteVerifier {
	return &RemoteVerifier{
		client: resty.New().SetTimeout(10 * time.Second),
		url:    userInfoURL,
	}
}

func (v *RemoteVerifier) Verify(ctx context.Context, token string) (domain.Identity, error) {
	var info userInfo
	resp, err := v.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Accept", "application/json").
		SetResult(&info).
		Get(v.url)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: userinfo request: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode() == http.StatusUnauthorized, resp.StatusCode() == http.StatusForbidden:
		return domain.Identity{}, ErrInvalidToken
	case resp.StatusCode() != http.StatusOK:
		return domain.Identity{}, fmt.Errorf("%w: userinfo returned status %d", ErrUnavailable, resp.StatusCode())
	}

	userID := info.Sub
	if userID == "" {
		userID = info.ID
	}
	if userID == "" {
		return domain.Identity{}, ErrInvalidToken
	}
	return domain.Identity{UserID: userID, Email: info.Email}, nil
}
