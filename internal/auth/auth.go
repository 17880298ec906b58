// Package auth implements the OAuth 2.0 device authorization grant and keeps
// the resulting tokens in the secret store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/ensigniasec/jobdeck/internal/config"
	"github.com/ensigniasec/jobdeck/internal/storage"
)

// Secret names used in the store.
const (
	SecretAccessToken  = "access_token"
	SecretRefreshToken = "refresh_token"
	SecretTokenType    = "token_type"
	SecretTokenExpiry  = "token_expiry"
)

// ErrNotLoggedIn is returned when no usable token is stored.
var ErrNotLoggedIn = errors.New("not logged in")

// SecretStore is the subset of storage.Store used here.
type SecretStore interface {
	StoreSecret(name, value string) error
	GetSecret(name string) (string, error)
	DeleteSecret(name string) error
}

// Flow runs device logins against one authorization server.
type Flow struct {
	cfg        *oauth2.Config
	store      SecretStore
	httpClient *http.Client
}

// NewFlow returns a Flow for the configured client.
func NewFlow(ac config.Auth, store SecretStore) *Flow {
	return &Flow{
		cfg: &oauth2.Config{
			ClientID: ac.ClientID,
			Scopes:   ac.Scopes,
			Endpoint: oauth2.Endpoint{
				DeviceAuthURL: ac.DeviceAuthURL,
				TokenURL:      ac.TokenURL,
				AuthStyle:     oauth2.AuthStyleInParams,
			},
		},
		store: store,
	}
}

// WithHTTPClient makes the flow use hc for calls to the authorization server.
func (f *Flow) WithHTTPClient(hc *http.Client) *Flow {
	f.httpClient = hc
	return f
}

func (f *Flow) context(ctx context.Context) context.Context {
	if f.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)
}

// DeviceAuth requests a device and user code.
func (f *Flow) DeviceAuth(ctx context.Context) (*oauth2.DeviceAuthResponse, error) {
	return f.cfg.DeviceAuth(f.context(ctx))
}

// DeviceAccessToken polls the token endpoint until the user approves or denies
// the request, or the code expires.
func (f *Flow) DeviceAccessToken(ctx context.Context, da *oauth2.DeviceAuthResponse) (*oauth2.Token, error) {
	return f.cfg.DeviceAccessToken(f.context(ctx), da)
}

// SaveToken stores tok.
func (f *Flow) SaveToken(tok *oauth2.Token) error {
	if tok == nil || tok.AccessToken == "" {
		return fmt.Errorf("%w: empty access token", ErrNotLoggedIn)
	}
	expiry := ""
	if !tok.Expiry.IsZero() {
		expiry = tok.Expiry.UTC().Format(time.RFC3339)
	}
	for name, value := range map[string]string{
		SecretAccessToken:  tok.AccessToken,
		SecretRefreshToken: tok.RefreshToken,
		SecretTokenType:    tok.TokenType,
		SecretTokenExpiry:  expiry,
	} {
		if err := f.store.StoreSecret(name, value); err != nil {
			return err
		}
	}
	return nil
}

// LoadToken reads the stored token.
func (f *Flow) LoadToken() (*oauth2.Token, error) {
	access, err := f.store.GetSecret(SecretAccessToken)
	if errors.Is(err, storage.ErrSecretNotFound) || (err == nil && access == "") {
		return nil, ErrNotLoggedIn
	}
	if err != nil {
		return nil, err
	}
	tok := &oauth2.Token{AccessToken: access}
	tok.RefreshToken, _ = f.store.GetSecret(SecretRefreshToken)
	tok.TokenType, _ = f.store.GetSecret(SecretTokenType)
	if raw, _ := f.store.GetSecret(SecretTokenExpiry); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			tok.Expiry = t
		} else {
			logrus.WithError(err).Warn("ignoring malformed token expiry")
		}
	}
	return tok, nil
}

// LoggedIn reports whether a token is stored.
func (f *Flow) LoggedIn() bool {
	_, err := f.LoadToken()
	return err == nil
}

// Logout removes every stored token secret.
func (f *Flow) Logout() error {
	var errs []error
	for _, name := range []string{SecretAccessToken, SecretRefreshToken, SecretTokenType, SecretTokenExpiry} {
		errs = append(errs, f.store.DeleteSecret(name))
	}
	return errors.Join(errs...)
}

// TokenSource returns tokens from the store, refreshing and re-storing them
// when they have expired. ctx is used for refresh requests.
func (f *Flow) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &storeTokenSource{ctx: ctx, flow: f}
}

type storeTokenSource struct {
	ctx  context.Context //nolint:containedctx // oauth2.TokenSource has no context parameter.
	flow *Flow
	mu   sync.Mutex
}

func (s *storeTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := s.flow.LoadToken()
	if err != nil {
		return nil, err
	}
	if tok.Valid() {
		return tok, nil
	}
	if tok.RefreshToken == "" {
		return nil, fmt.Errorf("%w: session expired", ErrNotLoggedIn)
	}

	fresh, err := s.flow.cfg.TokenSource(s.flow.context(s.ctx), tok).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	if err := s.flow.SaveToken(fresh); err != nil {
		logrus.WithError(err).Warn("could not store refreshed token")
	}
	logrus.Debug("access token refreshed")
	return fresh, nil
}
