package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Profile is the canonical resolved identity. Everything downstream of this
// package only ever sees these fields.
type Profile struct {
	EnrollmentNumber string
	FullName         string
	DisplayPicture   *string
	Branch           string
	Email            string
}

// Provider exchanges an opaque auth code for a resolved profile. The OAuth
// handshake itself lives behind this interface.
type Provider interface {
	AuthorizationURL(state string) string
	Resolve(ctx context.Context, code string) (Profile, error)
}

// OAuthProvider talks to the institutional SSO service.
type OAuthProvider struct {
	AuthorizeURL string
	TokenURL     string
	UserDataURL  string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	PictureBase  string
	HTTPClient   *http.Client
}

func NewOAuthProviderFromEnv() *OAuthProvider {
	return &OAuthProvider{
		AuthorizeURL: os.Getenv("SSO_AUTHORIZE_URL"),
		TokenURL:     os.Getenv("SSO_TOKEN_URL"),
		UserDataURL:  os.Getenv("SSO_USERDATA_URL"),
		ClientID:     os.Getenv("SSO_CLIENT_ID"),
		ClientSecret: os.Getenv("SSO_CLIENT_SECRET"),
		RedirectURI:  os.Getenv("SSO_REDIRECT_URI"),
		PictureBase:  os.Getenv("SSO_PICTURE_BASE_URL"),
		HTTPClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *OAuthProvider) AuthorizationURL(state string) string {
	q := url.Values{}
	q.Set("client_id", p.ClientID)
	q.Set("redirect_uri", p.RedirectURI)
	q.Set("state", state)
	return p.AuthorizeURL + "?" + q.Encode()
}

func (p *OAuthProvider) Resolve(ctx context.Context, code string) (Profile, error) {
	form := url.Values{}
	form.Set("client_id", p.ClientID)
	form.Set("client_secret", p.ClientSecret)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", p.RedirectURI)
	form.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Profile{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("token exchange: status %d", resp.StatusCode)
	}
	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return Profile{}, fmt.Errorf("token exchange: %w", err)
	}

	ureq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.UserDataURL, nil)
	if err != nil {
		return Profile{}, err
	}
	ureq.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	uresp, err := p.HTTPClient.Do(ureq)
	if err != nil {
		return Profile{}, fmt.Errorf("user data: %w", err)
	}
	defer uresp.Body.Close()
	if uresp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("user data: status %d", uresp.StatusCode)
	}
	var raw map[string]any
	if err := json.NewDecoder(uresp.Body).Decode(&raw); err != nil {
		return Profile{}, fmt.Errorf("user data: %w", err)
	}
	return NormalizeProfile(raw, p.PictureBase)
}
