package attribution

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/amerigo/quote-service/internal/model"
)

const trackPath = "/track-lead-source"

// Notifier posts marketing attribution for a lead to the CRM analytics
// endpoint. It is a side channel: its outcome is logged and never affects
// the primary submission flow.
type Notifier struct {
	url       string
	userAgent string
	client    *http.Client
	log       zerolog.Logger
}

func NewNotifier(analyticsURL, userAgent string, log zerolog.Logger) *Notifier {
	if userAgent == "" {
		userAgent = "Amerigo-Quote-Form/1.0"
	}
	return &Notifier{
		url:       strings.TrimSuffix(analyticsURL, "/") + trackPath,
		userAgent: userAgent,
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log,
	}
}

// SendAsync fires the attribution POST in the background with its own error
// boundary. Callers never wait on it.
func (n *Notifier) SendAsync(lead model.Lead) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				n.log.Error().Interface("panic", r).Msg("attribution send panicked")
			}
		}()
		if err := n.Send(context.Background(), lead); err != nil {
			n.log.Warn().Err(err).Msg("attribution webhook failed")
		}
	}()
}

// Send posts the attribution payload. Leads without at least one identifier
// (email or phone) are skipped, that is not an error.
func (n *Notifier) Send(ctx context.Context, lead model.Lead) error {
	if lead.Email == "" && lead.Phone == "" {
		n.log.Debug().Msg("attribution skipped, no email or phone identifier")
		return nil
	}

	payload := map[string]any{
		"email":        lead.Email,
		"phone":        lead.Phone,
		"utm_source":   orNil(lead.Attribution.UTMSource),
		"utm_medium":   orNil(lead.Attribution.UTMMedium),
		"utm_campaign": orNil(lead.Attribution.UTMCampaign),
		"utm_term":     orNil(lead.Attribution.UTMTerm),
		"utm_content":  orNil(lead.Attribution.UTMContent),
		"fbclid":       orNil(lead.Attribution.FBCLID),
		"referrer":     orNil(lead.Attribution.Referrer),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Attribution-Source", "quote-calculator")
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("analytics endpoint returned %d", resp.StatusCode)
	}

	n.log.Info().Str("url", n.url).Msg("attribution delivered")
	return nil
}

func orNil(value string) any {
	if value == "" {
		return nil
	}
	return value
}
