package sensors

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kirsle/configdir"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/poldi1405/eruption/internal/logx"
)

var mailLog = logx.For("sensors[mail]")

// MailProvider publishes the unread-message count for one Gmail label,
// using an OAuth config-from-file flow with its token cache under
// configdir.LocalConfig.
type MailProvider struct {
	CredentialsPath string
	Label           string
	Interval        time.Duration

	// AuthCode, if set, supplies the OAuth exchange code non-interactively
	// (e.g. piped in from profile setup) instead of blocking on stdin;
	// the daemon has no terminal to prompt once running.
	AuthCode func() (string, error)
}

func (p *MailProvider) Name() string { return "mail.unread" }

func (p *MailProvider) Period() time.Duration {
	if p.Interval > 0 {
		return p.Interval
	}
	return time.Minute
}

func (p *MailProvider) Run(stop <-chan struct{}, publish func(Value)) {
	service, err := p.service(context.Background())
	if err != nil {
		mailLog.Warn("mail sensor disabled", "err", err)
		return
	}

	ticker := time.NewTicker(p.Period())
	defer ticker.Stop()

	const user = "me"
	for {
		label, err := service.Users.Labels.Get(user, p.Label).Do()
		if err != nil {
			mailLog.Warn("get label failed", "label", p.Label, "err", err)
		} else {
			publish(Value{Kind: KindScalar, Scalar: float64(label.MessagesUnread)})
		}

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

func (p *MailProvider) service(ctx context.Context) (*gmail.Service, error) {
	raw, err := os.ReadFile(p.CredentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials %s: %w", p.CredentialsPath, err)
	}
	config, err := google.ConfigFromJSON(raw, gmail.GmailLabelsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	dir := configdir.LocalConfig("eruption")
	if err := configdir.MakePath(dir); err != nil {
		return nil, fmt.Errorf("create config dir %s: %w", dir, err)
	}
	tokenFile := filepath.Join(dir, "gmail-token.json")

	token, err := readToken(tokenFile)
	if err != nil {
		token, err = p.fetchToken(ctx, config)
		if err != nil {
			return nil, fmt.Errorf("fetch oauth token: %w", err)
		}
		if err := writeToken(tokenFile, token); err != nil {
			mailLog.Warn("cache oauth token failed", "err", err)
		}
	}

	return gmail.NewService(ctx, option.WithTokenSource(config.TokenSource(ctx, token)))
}

func (p *MailProvider) fetchToken(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	if p.AuthCode == nil {
		return nil, fmt.Errorf("no cached token and no AuthCode source configured")
	}
	code, err := p.AuthCode()
	if err != nil {
		return nil, err
	}
	return config.Exchange(ctx, code)
}

func readToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, err
	}
	return token, nil
}

func writeToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
