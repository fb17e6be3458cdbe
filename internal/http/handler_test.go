package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/amerigo/quote-service/internal/auth"
	"github.com/amerigo/quote-service/internal/diagnostics"
	"github.com/amerigo/quote-service/internal/distance"
	"github.com/amerigo/quote-service/internal/http/middleware"
	"github.com/amerigo/quote-service/internal/location"
	"github.com/amerigo/quote-service/internal/model"
	"github.com/amerigo/quote-service/internal/pricing"
	"github.com/amerigo/quote-service/internal/service"
	"github.com/amerigo/quote-service/internal/webhook"
)

const testSecret = "test-secret"

type stubDispatcher struct {
	leads  []model.Lead
	result webhook.Result
}

func (s *stubDispatcher) Dispatch(lead model.Lead) webhook.Result {
	s.leads = append(s.leads, lead)
	return s.result
}

type stubAttribution struct{ leads []model.Lead }

func (s *stubAttribution) SendAsync(lead model.Lead) { s.leads = append(s.leads, lead) }

type stubMailer struct {
	enabled bool
	sent    []string
}

func (s *stubMailer) Enabled() bool { return s.enabled }

func (s *stubMailer) SendQuoteConfirmation(to string, _ model.Lead) error {
	s.sent = append(s.sent, to)
	return nil
}

type stubDistance struct {
	result distance.Result
	err    error
}

func (s *stubDistance) Lookup(_ context.Context, _, _ string) (distance.Result, error) {
	return s.result, s.err
}

type testEnv struct {
	router     http.Handler
	dispatcher *stubDispatcher
	mailer     *stubMailer
	recorder   *diagnostics.Recorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dispatcher := &stubDispatcher{result: webhook.Result{Success: true, Message: "ok"}}
	mailer := &stubMailer{enabled: true}
	recorder := diagnostics.NewRecorder(0)

	leads := service.NewLeadService(
		pricing.NewEngine(zerolog.Nop()),
		nil,
		dispatcher,
		&stubAttribution{},
		mailer,
		nil,
		nil,
		zerolog.Nop(),
	)

	index := location.NewIndex([]location.Option{
		{Value: "Miami, FL", City: "Miami", State: "FL", Zips: []string{"33101"}, Population: 450000},
		{Value: "Boston, MA", City: "Boston", State: "MA", Zips: []string{"02108"}, Population: 650000},
	})

	handler := NewHandler(leads, &stubDistance{result: distance.Result{Miles: 1496, TravelTime: "22:10:00"}}, index, recorder, zerolog.Nop())
	authMiddleware := middleware.Auth(auth.NewParser(testSecret))
	router := NewRouter(handler, authMiddleware, "test")

	return &testEnv{router: router, dispatcher: dispatcher, mailer: mailer, recorder: recorder}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp := httptest.NewRecorder()
	e.router.ServeHTTP(resp, req)
	return resp
}

func signToken(t *testing.T, secret string) string {
	return signTokenWithRole(t, secret, "admin")
}

func signTokenWithRole(t *testing.T, secret, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "ops-user",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestSubmitQuoteEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/quotes", map[string]any{
		"name":            "Ron Burgundy",
		"email":           "ron@example.com",
		"pickupLocation":  "Miami, FL 33101",
		"dropoffLocation": "Boston, MA 02108",
		"vehicleType":     "car/truck/suv",
		"distance":        1500,
	}, "")

	if resp.Code != http.StatusOK {
		t.Fatalf("status %d: %s", resp.Code, resp.Body.String())
	}

	var body struct {
		SubmissionID string `json:"submissionId"`
		Quote        struct {
			OpenTransport int `json:"openTransport"`
			TransitTime   int `json:"transitTime"`
		} `json:"quote"`
		Webhook struct {
			Success bool `json:"success"`
		} `json:"webhook"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.SubmissionID == "" {
		t.Fatalf("missing submission id")
	}
	if body.Quote.OpenTransport <= 0 {
		t.Fatalf("expected a priced quote: %s", resp.Body.String())
	}
	if !body.Webhook.Success {
		t.Fatalf("expected webhook success")
	}
	if len(env.dispatcher.leads) != 1 {
		t.Fatalf("expected one dispatched lead, got %d", len(env.dispatcher.leads))
	}
}

func TestSubmitQuoteRejectsMissingFields(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/quotes", map[string]any{
		"name": "Ron Burgundy",
	}, "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status %d: %s", resp.Code, resp.Body.String())
	}
	if len(env.dispatcher.leads) != 0 {
		t.Fatalf("invalid submission was dispatched")
	}
}

func TestFinalSubmissionEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/final-submission", map[string]any{
		"name":                   "Ron Burgundy",
		"phone":                  "555-0100",
		"pickupLocation":         "Miami, FL 33101",
		"dropoffLocation":        "Boston, MA 02108",
		"vehicleType":            "car/truck/suv",
		"distance":               1500,
		"transitTime":            5,
		"openTransportPrice":     1150,
		"enclosedTransportPrice": 1610,
	}, "")

	if resp.Code != http.StatusOK {
		t.Fatalf("status %d: %s", resp.Code, resp.Body.String())
	}
	lead := env.dispatcher.leads[0]
	if lead.EventType != model.EventFinalSubmission {
		t.Fatalf("event type: %s", lead.EventType)
	}
	if lead.OpenTransportPrice != 1150 {
		t.Fatalf("price not carried through: %+v", lead)
	}
}

func TestRelayWebhookEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/webhook", map[string]any{
		"submissionId": "external-123",
		"eventType":    "quote_submission",
		"name":         "Veronica Corningstone",
		"email":        "veronica@example.com",
	}, "")

	if resp.Code != http.StatusOK {
		t.Fatalf("status %d: %s", resp.Code, resp.Body.String())
	}
	if len(env.dispatcher.leads) != 1 {
		t.Fatalf("relay did not dispatch")
	}
	if env.dispatcher.leads[0].SubmissionID != "external-123" {
		t.Fatalf("submission id not preserved: %+v", env.dispatcher.leads[0])
	}
}

func TestRelayWebhookReportsFailure(t *testing.T) {
	env := newTestEnv(t)
	env.dispatcher.result = webhook.Result{Success: false, Message: "endpoint returned 400"}

	resp := env.do(t, http.MethodPost, "/api/webhook", map[string]any{
		"name":  "Brick Tamland",
		"email": "brick@example.com",
	}, "")
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("status %d: %s", resp.Code, resp.Body.String())
	}
}

func TestDistanceEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/distance?origin=Miami,+FL&destination=Boston,+MA", nil, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("status %d: %s", resp.Code, resp.Body.String())
	}

	var body distance.Result
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Miles != 1496 {
		t.Fatalf("miles: %v", body.Miles)
	}

	resp = env.do(t, http.MethodGet, "/api/distance?origin=Miami", nil, "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("missing destination accepted: %d", resp.Code)
	}
}

func TestLocationSearchEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/location-search?q=miami", nil, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("status %d: %s", resp.Code, resp.Body.String())
	}

	var body struct {
		Results []location.Option `json:"results"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Results) != 1 || body.Results[0].City != "Miami" {
		t.Fatalf("unexpected results: %+v", body.Results)
	}
}

func TestDiagnosticsRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/diagnostics/webhooks", nil, "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated request accepted: %d", resp.Code)
	}

	resp = env.do(t, http.MethodGet, "/api/diagnostics/webhooks", nil, signToken(t, "wrong-secret"))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("wrong-secret token accepted: %d", resp.Code)
	}
}

func TestDiagnosticsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.recorder.Record(diagnostics.Attempt{
		Kind:         diagnostics.KindPrimary,
		URL:          "https://hooks.example.com/lead",
		StatusCode:   200,
		Success:      true,
		ResponseTime: 120 * time.Millisecond,
	})

	resp := env.do(t, http.MethodGet, "/api/diagnostics/webhooks", nil, signToken(t, testSecret))
	if resp.Code != http.StatusOK {
		t.Fatalf("status %d: %s", resp.Code, resp.Body.String())
	}

	var body struct {
		Stats struct {
			TotalAttempts int `json:"totalAttempts"`
		} `json:"stats"`
		Attempts []diagnostics.Attempt `json:"attempts"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Stats.TotalAttempts != 1 || len(body.Attempts) != 1 {
		t.Fatalf("unexpected diagnostics: %s", resp.Body.String())
	}
}

func TestExportUnavailableWithoutStorage(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/diagnostics/export", nil, signToken(t, testSecret))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d: %s", resp.Code, resp.Body.String())
	}
}

func TestExportRequiresStaffRole(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/diagnostics/export", nil, signTokenWithRole(t, testSecret, "viewer"))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("viewer token accepted: %d: %s", resp.Code, resp.Body.String())
	}
}

func TestSendQuoteNotificationEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/send-quote-notification", map[string]any{
		"email": "ron@example.com",
		"quoteDetails": map[string]any{
			"name":               "Ron Burgundy",
			"pickupLocation":     "Miami, FL 33101",
			"dropoffLocation":    "Boston, MA 02108",
			"vehicleType":        "car/truck/suv",
			"openTransportPrice": 1150,
		},
	}, "")

	if resp.Code != http.StatusOK {
		t.Fatalf("status %d: %s", resp.Code, resp.Body.String())
	}

	var body struct {
		Success   bool `json:"success"`
		EmailSent bool `json:"emailSent"`
		SMSSent   bool `json:"smsSent"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Success || !body.EmailSent || body.SMSSent {
		t.Fatalf("unexpected response: %s", resp.Body.String())
	}
	if len(env.mailer.sent) != 1 || env.mailer.sent[0] != "ron@example.com" {
		t.Fatalf("mailer not invoked: %v", env.mailer.sent)
	}
	// Notification only, nothing goes to the automation platform.
	if len(env.dispatcher.leads) != 0 {
		t.Fatalf("notification dispatched a webhook: %+v", env.dispatcher.leads)
	}
}

func TestSendQuoteNotificationRequiresDetails(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/send-quote-notification", map[string]any{
		"email": "ron@example.com",
	}, "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("missing quoteDetails accepted: %d", resp.Code)
	}

	resp = env.do(t, http.MethodPost, "/api/send-quote-notification", map[string]any{
		"quoteDetails": map[string]any{"name": "Ron Burgundy"},
	}, "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("missing contact accepted: %d", resp.Code)
	}
}

func TestSendConfirmationsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/send-confirmations", map[string]any{
		"email":              "ron@example.com",
		"name":               "Ron Burgundy",
		"pickupLocation":     "Miami, FL 33101",
		"dropoffLocation":    "Boston, MA 02108",
		"openTransportPrice": 1150,
	}, "")

	if resp.Code != http.StatusOK {
		t.Fatalf("status %d: %s", resp.Code, resp.Body.String())
	}

	var body struct {
		Success   bool `json:"success"`
		EmailSent bool `json:"emailSent"`
		Webhook   struct {
			Success bool `json:"success"`
		} `json:"webhook"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Success || !body.EmailSent || !body.Webhook.Success {
		t.Fatalf("unexpected response: %s", resp.Body.String())
	}
	if len(env.dispatcher.leads) != 1 {
		t.Fatalf("booking not relayed")
	}
	// A booking arriving without an event type is an order.
	if env.dispatcher.leads[0].EventType != model.EventFinalSubmission {
		t.Fatalf("event type: %s", env.dispatcher.leads[0].EventType)
	}
}
