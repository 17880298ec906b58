package port

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/ensigniasec/jobdeck/internal/action"
)

// DeviceAuthorizer performs the OAuth device authorization grant and persists
// the resulting tokens. auth.Flow implements it.
type DeviceAuthorizer interface {
	DeviceAuth(ctx context.Context) (*oauth2.DeviceAuthResponse, error)
	DeviceAccessToken(ctx context.Context, da *oauth2.DeviceAuthResponse) (*oauth2.Token, error)
	SaveToken(tok *oauth2.Token) error
}

// DeviceRequest starts a login attempt. When Details is nil the port requests
// a fresh device code itself.
type DeviceRequest struct {
	Details *oauth2.DeviceAuthResponse
}

type loginPhase int

const (
	loginIdle loginPhase = iota
	loginAwaitingAuthorization
)

// DeviceLogin runs device-code logins one at a time. The verification URL is
// emitted by one poll and the token exchange happens on the next, so the user
// sees where to go before the port starts waiting on the authorization server.
type DeviceLogin struct {
	auth     DeviceAuthorizer
	requests <-chan DeviceRequest

	phase   loginPhase
	details *oauth2.DeviceAuthResponse
}

// NewDeviceLogin returns an idle login port reading from requests.
func NewDeviceLogin(auth DeviceAuthorizer, requests <-chan DeviceRequest) *DeviceLogin {
	return &DeviceLogin{auth: auth, requests: requests}
}

func (p *DeviceLogin) Name() string { return "login" }

func (p *DeviceLogin) Interval() time.Duration { return 0 }

func (p *DeviceLogin) Poll(ctx context.Context) (action.Action, bool) {
	if p.phase == loginAwaitingAuthorization {
		return p.exchange(ctx)
	}

	var req DeviceRequest
	select {
	case r, ok := <-p.requests:
		if !ok {
			<-ctx.Done()
			return nil, false
		}
		req = r
	case <-ctx.Done():
		return nil, false
	}

	details := req.Details
	if details == nil {
		var err error
		details, err = p.auth.DeviceAuth(ctx)
		if err != nil {
			return ErrorAction(fmt.Errorf("start device login: %w", err))
		}
	}

	p.details = details
	p.phase = loginAwaitingAuthorization

	url := details.VerificationURIComplete
	if url == "" {
		url = details.VerificationURI
	}
	logrus.WithField("port", p.Name()).Debug("awaiting device authorization at ", url)
	return action.Info{
		Message: fmt.Sprintf("Open %s and enter the code %s", details.VerificationURI, details.UserCode),
		URL:     url,
	}, true
}

func (p *DeviceLogin) exchange(ctx context.Context) (action.Action, bool) {
	details := p.details
	p.details = nil
	p.phase = loginIdle

	tok, err := p.auth.DeviceAccessToken(ctx, details)
	if err != nil {
		return ErrorAction(fmt.Errorf("device login: %w", err))
	}
	if err := p.auth.SaveToken(tok); err != nil {
		return ErrorAction(fmt.Errorf("store credentials: %w", err))
	}
	logrus.WithField("port", p.Name()).Info("device login complete")
	return action.LoggedIn{}, true
}
