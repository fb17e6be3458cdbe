package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/amerigo/quote-service/internal/diagnostics"
	"github.com/amerigo/quote-service/internal/model"
)

// Config holds the delivery endpoints and tuning for the dispatcher.
type Config struct {
	// LeadURL receives quote submissions, OrderURL receives final submissions.
	LeadURL  string
	OrderURL string
	// AlternateURL is the fixed retry target after a 502/503. It is a variant
	// of the lead endpoint regardless of which endpoint failed.
	AlternateURL string
	UserAgent    string
	Timeout      time.Duration
	RetryDelay   time.Duration
}

// Result is what a dispatch reports back to the caller. Success stays true
// after a 502/503 even when the retry fails too: delivery is best effort and
// a platform hiccup must not block the user-facing flow.
type Result struct {
	Success     bool                `json:"success"`
	Message     string              `json:"message"`
	Diagnostics *AttemptDiagnostics `json:"diagnostics,omitempty"`
}

// AttemptDiagnostics summarizes one dispatch for the diagnostic endpoints.
type AttemptDiagnostics struct {
	RequestID       string        `json:"requestId"`
	URL             string        `json:"url"`
	PayloadSize     int           `json:"payloadSizeBytes"`
	StatusCode      int           `json:"statusCode,omitempty"`
	ResponseTime    time.Duration `json:"responseTimeMs"`
	RetryAttempted  bool          `json:"retryAttempted"`
	RetryStatusCode int           `json:"retryStatusCode,omitempty"`
	RetrySuccessful bool          `json:"retrySuccessful,omitempty"`
	Error           string        `json:"error,omitempty"`
}

// Dispatcher relays assembled leads to the automation platform.
type Dispatcher struct {
	cfg      Config
	client   *http.Client
	recorder *diagnostics.Recorder
	log      zerolog.Logger
}

func NewDispatcher(cfg Config, recorder *diagnostics.Recorder, log zerolog.Logger) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.AlternateURL == "" {
		cfg.AlternateURL = strings.TrimSuffix(cfg.LeadURL, "/")
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Amerigo-Auto-Transport/1.0"
	}
	return &Dispatcher{
		cfg:      cfg,
		client:   &http.Client{},
		recorder: recorder,
		log:      log,
	}
}

// Dispatch delivers one lead. Each attempt is bounded by the configured
// timeout; a started dispatch runs to completion independent of the caller,
// which is why there is no context parameter here.
func (d *Dispatcher) Dispatch(lead model.Lead) Result {
	lead = withDefaults(lead)

	url := d.cfg.LeadURL
	if lead.EventType == model.EventFinalSubmission {
		url = d.cfg.OrderURL
	}

	body, err := json.Marshal(BuildPayload(lead))
	if err != nil {
		return Result{Success: false, Message: fmt.Sprintf("failed to encode webhook payload: %v", err)}
	}

	diag := &AttemptDiagnostics{
		RequestID:   uuid.NewString(),
		URL:         url,
		PayloadSize: len(body),
	}

	d.log.Info().
		Str("request_id", diag.RequestID).
		Str("url", url).
		Str("event_type", string(lead.EventType)).
		Int("payload_size", diag.PayloadSize).
		Msg("sending webhook")

	start := time.Now()
	status, err := d.post(url, body, diag.RequestID, false)
	diag.ResponseTime = time.Since(start)
	diag.StatusCode = status

	if err != nil {
		diag.Error = err.Error()
		d.record(diagnostics.KindPrimary, lead, diag.RequestID, url, status, diag.ResponseTime, len(body), false, err.Error())
		d.log.Error().Err(err).Str("request_id", diag.RequestID).Msg("webhook request failed")
		return Result{
			Success:     false,
			Message:     fmt.Sprintf("Network error while sending webhook: %v", err),
			Diagnostics: diag,
		}
	}

	if status == http.StatusBadGateway || status == http.StatusServiceUnavailable {
		// Platform-side transient failure. The payload was received but the
		// automation service is struggling; retry once against the alternate
		// URL form and report success either way.
		d.record(diagnostics.KindPrimary, lead, diag.RequestID, url, status, diag.ResponseTime, len(body), false, fmt.Sprintf("upstream returned %d", status))
		d.log.Warn().
			Int("status", status).
			Str("request_id", diag.RequestID).
			Msg("automation platform transient error, retrying against alternate url")

		time.Sleep(d.cfg.RetryDelay)

		diag.RetryAttempted = true
		retryStart := time.Now()
		retryStatus, retryErr := d.post(d.cfg.AlternateURL, body, diag.RequestID+"_retry", true)
		retryDuration := time.Since(retryStart)
		diag.RetryStatusCode = retryStatus

		switch {
		case retryErr != nil:
			diag.RetrySuccessful = false
			d.record(diagnostics.KindRetry, lead, diag.RequestID+"_retry", d.cfg.AlternateURL, 0, retryDuration, len(body), false, retryErr.Error())
			return Result{
				Success:     true,
				Message:     "Webhook data delivery attempted but the automation platform was unavailable",
				Diagnostics: diag,
			}
		case retryStatus >= 200 && retryStatus < 300:
			diag.RetrySuccessful = true
			d.record(diagnostics.KindRetry, lead, diag.RequestID+"_retry", d.cfg.AlternateURL, retryStatus, retryDuration, len(body), true, "")
			return Result{
				Success:     true,
				Message:     "Webhook data successfully delivered after retry",
				Diagnostics: diag,
			}
		default:
			diag.RetrySuccessful = false
			d.record(diagnostics.KindRetry, lead, diag.RequestID+"_retry", d.cfg.AlternateURL, retryStatus, retryDuration, len(body), false, fmt.Sprintf("retry returned %d", retryStatus))
			return Result{
				Success:     true,
				Message:     "Webhook data delivery attempted but the automation platform returned errors",
				Diagnostics: diag,
			}
		}
	}

	if status < 200 || status >= 300 {
		diag.Error = fmt.Sprintf("upstream returned %d", status)
		d.record(diagnostics.KindPrimary, lead, diag.RequestID, url, status, diag.ResponseTime, len(body), false, diag.Error)
		return Result{
			Success:     false,
			Message:     fmt.Sprintf("Webhook error (%d)", status),
			Diagnostics: diag,
		}
	}

	d.record(diagnostics.KindPrimary, lead, diag.RequestID, url, status, diag.ResponseTime, len(body), true, "")
	d.log.Info().
		Str("request_id", diag.RequestID).
		Int("status", status).
		Dur("response_time", diag.ResponseTime).
		Msg("webhook delivered")

	return Result{Success: true, Message: "Webhook sent successfully", Diagnostics: diag}
}

func (d *Dispatcher) post(url string, body []byte, requestID string, retry bool) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", d.cfg.UserAgent)
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("X-Payload-Size", strconv.Itoa(len(body)))
	if retry {
		req.Header.Set("X-Retry", "true")
	}

	resp, err := d.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return 0, fmt.Errorf("request timed out after %s", d.cfg.Timeout)
		}
		return 0, err
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused; the response body itself is
	// only interesting for diagnostics.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return resp.StatusCode, nil
}

func (d *Dispatcher) record(kind diagnostics.AttemptKind, lead model.Lead, requestID, url string, status int, rt time.Duration, size int, success bool, errMsg string) {
	if d.recorder == nil {
		return
	}
	d.recorder.Record(diagnostics.Attempt{
		RequestID:    requestID,
		URL:          url,
		EventType:    string(lead.EventType),
		Kind:         kind,
		StatusCode:   status,
		ResponseTime: rt,
		PayloadSize:  size,
		Success:      success,
		Error:        errMsg,
	})
}

func withDefaults(lead model.Lead) model.Lead {
	if lead.SubmissionID == "" {
		lead.SubmissionID = fmt.Sprintf("AUTO-%d", time.Now().UnixMilli())
	}
	if lead.SubmissionDate == "" {
		lead.SubmissionDate = time.Now().UTC().Format(time.RFC3339)
	}
	if lead.EventType == "" {
		lead.EventType = model.EventFormSubmission
	}
	return lead
}
