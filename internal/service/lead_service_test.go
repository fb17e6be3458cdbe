package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/amerigo/quote-service/internal/model"
	"github.com/amerigo/quote-service/internal/pricing"
	"github.com/amerigo/quote-service/internal/webhook"
)

type fakeDispatcher struct {
	leads  []model.Lead
	result webhook.Result
}

func (f *fakeDispatcher) Dispatch(lead model.Lead) webhook.Result {
	f.leads = append(f.leads, lead)
	return f.result
}

type fakeAttribution struct {
	leads []model.Lead
}

func (f *fakeAttribution) SendAsync(lead model.Lead) {
	f.leads = append(f.leads, lead)
}

type fakeMailer struct {
	enabled bool
	sent    []string
	err     error
}

func (f *fakeMailer) Enabled() bool { return f.enabled }

func (f *fakeMailer) SendQuoteConfirmation(to string, _ model.Lead) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to)
	return nil
}

func newTestService(dispatcher *fakeDispatcher, attribution *fakeAttribution) *LeadService {
	return newTestServiceWithMailer(dispatcher, attribution, &fakeMailer{})
}

func newTestServiceWithMailer(dispatcher *fakeDispatcher, attribution *fakeAttribution, mailer *fakeMailer) *LeadService {
	return NewLeadService(
		pricing.NewEngine(zerolog.Nop()),
		nil, // persistence disabled
		dispatcher,
		attribution,
		mailer,
		nil,
		nil,
		zerolog.Nop(),
	)
}

func validInput() SubmitQuoteInput {
	return SubmitQuoteInput{
		Name:            "Ron Burgundy",
		Email:           "ron@example.com",
		PickupLocation:  "Miami, FL 33101",
		DropoffLocation: "Boston, MA 02108",
		VehicleType:     "car/truck/suv",
		DistanceMiles:   1500,
	}
}

func TestSubmitQuoteDispatchesLead(t *testing.T) {
	dispatcher := &fakeDispatcher{result: webhook.Result{Success: true, Message: "ok"}}
	attribution := &fakeAttribution{}
	svc := newTestService(dispatcher, attribution)

	result, err := svc.SubmitQuote(context.Background(), validInput())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.SubmissionID == "" {
		t.Fatalf("missing submission id")
	}
	if result.Quote.OpenTransport <= 0 {
		t.Fatalf("expected a priced quote, got %+v", result.Quote)
	}
	if len(dispatcher.leads) != 1 {
		t.Fatalf("expected one dispatched lead, got %d", len(dispatcher.leads))
	}

	lead := dispatcher.leads[0]
	if lead.EventType != model.EventQuoteSubmission {
		t.Fatalf("event type: %s", lead.EventType)
	}
	if lead.OpenTransportPrice != result.Quote.OpenTransport {
		t.Fatalf("lead price %d != quote price %d", lead.OpenTransportPrice, result.Quote.OpenTransport)
	}
	if len(attribution.leads) != 1 {
		t.Fatalf("attribution not fired")
	}
}

func TestSubmitQuoteDispatchesShortHaulLead(t *testing.T) {
	dispatcher := &fakeDispatcher{result: webhook.Result{Success: true}}
	svc := newTestService(dispatcher, &fakeAttribution{})

	input := validInput()
	input.DistanceMiles = 80
	result, err := svc.SubmitQuote(context.Background(), input)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.Quote.OpenTransport != 0 || result.Quote.Message == "" {
		t.Fatalf("expected sentinel quote, got %+v", result.Quote)
	}
	// The lead still goes out even without a price.
	if len(dispatcher.leads) != 1 {
		t.Fatalf("short-haul lead was not relayed")
	}
}

func TestSubmitQuoteValidation(t *testing.T) {
	svc := newTestService(&fakeDispatcher{}, &fakeAttribution{})

	cases := []struct {
		name   string
		mutate func(*SubmitQuoteInput)
	}{
		{"missing name", func(in *SubmitQuoteInput) { in.Name = "" }},
		{"missing contact", func(in *SubmitQuoteInput) { in.Email = ""; in.Phone = "" }},
		{"missing vehicle type", func(in *SubmitQuoteInput) { in.VehicleType = "" }},
		{"missing pickup", func(in *SubmitQuoteInput) { in.PickupLocation = "" }},
		{"negative distance", func(in *SubmitQuoteInput) { in.DistanceMiles = -5 }},
	}
	for _, tc := range cases {
		input := validInput()
		tc.mutate(&input)
		if _, err := svc.SubmitQuote(context.Background(), input); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}
}

func TestSubmitFinalUsesOrderEvent(t *testing.T) {
	dispatcher := &fakeDispatcher{result: webhook.Result{Success: true}}
	svc := newTestService(dispatcher, &fakeAttribution{})

	input := SubmitFinalInput{
		SubmitQuoteInput:       validInput(),
		TransitTime:            5,
		OpenTransportPrice:     1150,
		EnclosedTransportPrice: 1610,
	}
	result, err := svc.SubmitFinal(context.Background(), input)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.SubmissionID == "" {
		t.Fatalf("missing submission id")
	}
	lead := dispatcher.leads[0]
	if lead.EventType != model.EventFinalSubmission {
		t.Fatalf("event type: %s", lead.EventType)
	}
	if lead.OpenTransportPrice != 1150 || lead.EnclosedTransportPrice != 1610 {
		t.Fatalf("prices not carried through: %+v", lead)
	}
}

func TestQuotePDFWithoutStorage(t *testing.T) {
	svc := newTestService(&fakeDispatcher{}, &fakeAttribution{})
	if _, err := svc.QuotePDF(context.Background(), uuid.NewString()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestSendQuoteNotification(t *testing.T) {
	mailer := &fakeMailer{enabled: true}
	svc := newTestServiceWithMailer(&fakeDispatcher{}, &fakeAttribution{}, mailer)

	result, err := svc.SendQuoteNotification(model.Lead{Email: "ron@example.com"})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if !result.EmailSent || result.SMSSent {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(mailer.sent) != 1 || mailer.sent[0] != "ron@example.com" {
		t.Fatalf("mailer not invoked: %v", mailer.sent)
	}

	if _, err := svc.SendQuoteNotification(model.Lead{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without contact, got %v", err)
	}
}

func TestSendQuoteNotificationMailerDisabled(t *testing.T) {
	svc := newTestServiceWithMailer(&fakeDispatcher{}, &fakeAttribution{}, &fakeMailer{enabled: false})

	result, err := svc.SendQuoteNotification(model.Lead{Phone: "555-0100"})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if result.EmailSent {
		t.Fatalf("email reported sent with relay disabled")
	}
}

func TestSendConfirmations(t *testing.T) {
	dispatcher := &fakeDispatcher{result: webhook.Result{Success: true}}
	attribution := &fakeAttribution{}
	mailer := &fakeMailer{enabled: true}
	svc := newTestServiceWithMailer(dispatcher, attribution, mailer)

	lead := model.Lead{
		Email:     "ron@example.com",
		EventType: model.EventFinalSubmission,
	}
	result, err := svc.SendConfirmations(lead)
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if !result.EmailSent || !result.Webhook.Success {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(dispatcher.leads) != 1 {
		t.Fatalf("booking was not relayed")
	}
	if len(attribution.leads) != 1 {
		t.Fatalf("attribution not fired")
	}
}

func TestSendConfirmationsMailFailureStillRelays(t *testing.T) {
	dispatcher := &fakeDispatcher{result: webhook.Result{Success: true}}
	mailer := &fakeMailer{enabled: true, err: errors.New("relay refused")}
	svc := newTestServiceWithMailer(dispatcher, &fakeAttribution{}, mailer)

	result, err := svc.SendConfirmations(model.Lead{Email: "ron@example.com"})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if result.EmailSent {
		t.Fatalf("email reported sent despite relay failure")
	}
	if len(dispatcher.leads) != 1 {
		t.Fatalf("webhook delivery skipped after mail failure")
	}
}
