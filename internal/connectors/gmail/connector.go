package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/jhillyerd/enmime"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"focorders/internal"
	"focorders/internal/config"
)

type Connector struct {
	service *gmail.Service
	query   string
}

func NewConnector(ctx context.Context, cfg config.Config) (*Connector, error) {
	if err := cfg.Require("GMAIL_CLIENT_ID", cfg.GmailClientID); err != nil {
		return nil, err
	}
	if err := cfg.Require("GMAIL_CLIENT_SECRET", cfg.GmailClientSecret); err != nil {
		return nil, err
	}
	if err := cfg.Require("GMAIL_REFRESH_TOKEN", cfg.GmailRefreshToken); err != nil {
		return nil, err
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.GmailClientID,
		ClientSecret: cfg.GmailClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.GmailRedirectURI,
		Scopes:       []string{gmail.GmailReadonlyScope},
	}

	tokenSource := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.GmailRefreshToken})
	svc, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, err
	}

	return &Connector{service: svc, query: cfg.GmailQuery}, nil
}

// FetchInbox lists messages under label matching the connector's search query
// and downloads each one in raw form.
func (c *Connector) FetchInbox(ctx context.Context, label string, max int) ([]internal.FetchedMailMessage, error) {
	listCall := c.service.Users.Messages.List("me").LabelIds(label).MaxResults(int64(max)).Context(ctx)
	if strings.TrimSpace(c.query) != "" {
		listCall = listCall.Q(c.query)
	}
	listResp, err := listCall.Do()
	if err != nil {
		return nil, err
	}

	out := make([]internal.FetchedMailMessage, 0, len(listResp.Messages))
	for _, msgRef := range listResp.Messages {
		if msgRef.Id == "" {
			continue
		}

		rawResp, err := c.service.Users.Messages.Get("me", msgRef.Id).Format("raw").Context(ctx).Do()
		if err != nil {
			return nil, err
		}
		if rawResp.Raw == "" {
			continue
		}

		rawBytes, err := decodeBase64URL(rawResp.Raw)
		if err != nil {
			return nil, err
		}

		msg := internal.FetchedMailMessage{
			Provider:   "gmail",
			MessageID:  msgRef.Id,
			ReceivedAt: time.UnixMilli(rawResp.InternalDate).UTC().Format(time.RFC3339),
			Raw:        rawBytes,
		}
		if env, err := enmime.ReadEnvelope(bytes.NewReader(rawBytes)); err == nil {
			msg.Subject = env.GetHeader("Subject")
			msg.From = env.GetHeader("From")
			if id := strings.TrimSpace(env.GetHeader("Message-ID")); id != "" {
				msg.MessageID = id
			}
			if rawResp.InternalDate == 0 {
				if t, err := mail.ParseDate(env.GetHeader("Date")); err == nil {
					msg.ReceivedAt = t.UTC().Format(time.RFC3339)
				}
			}
		}
		out = append(out, msg)
	}

	return out, nil
}

func decodeBase64URL(input string) ([]byte, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(input)
	if err == nil {
		return decoded, nil
	}
	decoded, err = base64.URLEncoding.DecodeString(input)
	if err == nil {
		return decoded, nil
	}
	return nil, fmt.Errorf("decode gmail raw payload: %w", err)
}
