// Package oauth signs buyers and sellers in with Google.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"YourWheels/models"
)

const userInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

var ErrNoEmail = errors.New("oauth: identity has no verified email")

// Identity is what a provider vouches for after a successful login.
type Identity struct {
	ExternalID string
	Email      string
	Profile    models.Profile
}

type Provider interface {
	AuthCodeURL(state string) string
	Identify(ctx context.Context, code string) (*Identity, error)
}

type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Google is one OAuth client. Buyers and sellers use separate clients so the
// callback knows which role is logging in.
type Google struct {
	config      *oauth2.Config
	userInfoURL string
}

func NewGoogle(role models.Role, creds Credentials, callbackBase string) *Google {
	return &Google{
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  strings.TrimRight(callbackBase, "/") + "/auth/" + string(role) + "/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: userInfoURL,
	}
}

func (g *Google) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (g *Google) Identify(ctx context.Context, code string) (*Identity, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch userinfo: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read userinfo: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, errors.New("decode userinfo: invalid json")
	}
	info := gjson.ParseBytes(body)
	email := info.Get("email").String()
	if email == "" || !info.Get("email_verified").Bool() {
		return nil, ErrNoEmail
	}
	return &Identity{
		ExternalID: info.Get("sub").String(),
		Email:      email,
		Profile: models.Profile{
			FirstName: info.Get("given_name").String(),
			LastName:  info.Get("family_name").String(),
			Email:     email,
		},
	}, nil
}

// Providers maps a role to its configured provider. Roles without client
// credentials are left out.
type Providers map[models.Role]Provider

func NewProviders(buyer, seller Credentials, callbackBase string) Providers {
	p := Providers{}
	if buyer.ClientID != "" {
		p[models.RoleBuyer] = NewGoogle(models.RoleBuyer, buyer, callbackBase)
	}
	if seller.ClientID != "" {
		p[models.RoleSeller] = NewGoogle(models.RoleSeller, seller, callbackBase)
	}
	return p
}
