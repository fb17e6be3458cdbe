package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/amerigo/quote-service/internal/model"
	"github.com/amerigo/quote-service/internal/pricing"
	"github.com/amerigo/quote-service/internal/repository"
	"github.com/amerigo/quote-service/internal/webhook"
)

// Dispatcher relays an assembled lead to the automation platform.
type Dispatcher interface {
	Dispatch(lead model.Lead) webhook.Result
}

// AttributionNotifier forwards marketing attribution on a side channel.
type AttributionNotifier interface {
	SendAsync(lead model.Lead)
}

// PDFGenerator renders a printable quote summary.
type PDFGenerator interface {
	Generate(doc model.QuoteDocument) ([]byte, error)
}

// ExcelGenerator renders the lead export workbook.
type ExcelGenerator interface {
	Generate(records []model.QuoteRecord) ([]byte, error)
}

// Mailer sends confirmation emails to customers.
type Mailer interface {
	Enabled() bool
	SendQuoteConfirmation(to string, lead model.Lead) error
}

// LeadService orchestrates one submission: price it, store it best effort,
// relay it, and fire the attribution side channel.
type LeadService struct {
	engine      *pricing.Engine
	repo        *repository.QuoteRepository
	dispatcher  Dispatcher
	attribution AttributionNotifier
	mailer      Mailer
	pdf         PDFGenerator
	excel       ExcelGenerator
	log         zerolog.Logger
}

func NewLeadService(
	engine *pricing.Engine,
	repo *repository.QuoteRepository,
	dispatcher Dispatcher,
	attribution AttributionNotifier,
	mailer Mailer,
	pdf PDFGenerator,
	excel ExcelGenerator,
	log zerolog.Logger,
) *LeadService {
	return &LeadService{
		engine:      engine,
		repo:        repo,
		dispatcher:  dispatcher,
		attribution: attribution,
		mailer:      mailer,
		pdf:         pdf,
		excel:       excel,
		log:         log,
	}
}

type SubmitQuoteInput struct {
	Name            string
	Email           string
	Phone           string
	PickupLocation  string
	DropoffLocation string
	PickupZip       string
	DropoffZip      string
	VehicleYear     string
	VehicleMake     string
	VehicleModel    string
	VehicleType     string
	DistanceMiles   float64
	ShipmentDate    string
	Attribution     model.Attribution
}

type SubmitQuoteResult struct {
	SubmissionID string
	Quote        pricing.Quote
	Webhook      webhook.Result
}

// SubmitQuote handles a quote-form submission. The lead is relayed even when
// pricing falls back to a custom-quote message: a lead with contact details
// is still a lead.
func (s *LeadService) SubmitQuote(ctx context.Context, input SubmitQuoteInput) (*SubmitQuoteResult, error) {
	if err := validateContact(input.Name, input.Email, input.Phone); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.VehicleType) == "" {
		return nil, fmt.Errorf("%w: vehicle type is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.PickupLocation) == "" || strings.TrimSpace(input.DropoffLocation) == "" {
		return nil, fmt.Errorf("%w: pickup and dropoff locations are required", ErrInvalidInput)
	}
	if input.DistanceMiles < 0 {
		return nil, fmt.Errorf("%w: distance cannot be negative", ErrInvalidInput)
	}

	quote := s.engine.Calculate(
		input.DistanceMiles,
		pricing.VehicleType(input.VehicleType),
		time.Now(),
		input.PickupLocation,
		input.DropoffLocation,
	)

	lead := s.assembleLead(input, quote, model.EventQuoteSubmission)
	s.persist(ctx, lead)

	result := s.dispatcher.Dispatch(lead)
	s.attribution.SendAsync(lead)

	return &SubmitQuoteResult{
		SubmissionID: lead.SubmissionID,
		Quote:        quote,
		Webhook:      result,
	}, nil
}

type SubmitFinalInput struct {
	SubmitQuoteInput
	TransitTime            int
	OpenTransportPrice     int
	EnclosedTransportPrice int
}

type SubmitFinalResult struct {
	SubmissionID string
	Webhook      webhook.Result
}

// SubmitFinal handles a completed booking. Prices were already quoted and
// accepted, so they arrive with the submission instead of being recomputed.
func (s *LeadService) SubmitFinal(ctx context.Context, input SubmitFinalInput) (*SubmitFinalResult, error) {
	if err := validateContact(input.Name, input.Email, input.Phone); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.PickupLocation) == "" || strings.TrimSpace(input.DropoffLocation) == "" {
		return nil, fmt.Errorf("%w: pickup and dropoff locations are required", ErrInvalidInput)
	}

	quote := pricing.Quote{
		OpenTransport:     input.OpenTransportPrice,
		EnclosedTransport: input.EnclosedTransportPrice,
		TransitTime:       input.TransitTime,
	}
	lead := s.assembleLead(input.SubmitQuoteInput, quote, model.EventFinalSubmission)
	s.persist(ctx, lead)

	result := s.dispatcher.Dispatch(lead)
	s.attribution.SendAsync(lead)

	return &SubmitFinalResult{SubmissionID: lead.SubmissionID, Webhook: result}, nil
}

// Relay forwards an already-assembled lead payload as-is. Used by the raw
// webhook endpoint for embedded forms that build their own leads.
func (s *LeadService) Relay(lead model.Lead) webhook.Result {
	result := s.dispatcher.Dispatch(lead)
	if lead.Email != "" || lead.Phone != "" {
		s.attribution.SendAsync(lead)
	}
	return result
}

type NotificationResult struct {
	EmailSent bool
	SMSSent   bool
}

// SendQuoteNotification emails the customer their instant quote. SMS is
// reported but never sent; the result shape keeps the field so callers do not
// have to special-case its absence.
func (s *LeadService) SendQuoteNotification(lead model.Lead) (*NotificationResult, error) {
	if lead.Email == "" && lead.Phone == "" {
		return nil, fmt.Errorf("%w: email or phone is required", ErrInvalidInput)
	}
	return &NotificationResult{EmailSent: s.sendConfirmationEmail(lead)}, nil
}

type ConfirmationResult struct {
	NotificationResult
	Webhook webhook.Result
}

// SendConfirmations handles a completed booking arriving as a pre-assembled
// lead: confirmation email, webhook delivery, and the attribution side
// channel.
func (s *LeadService) SendConfirmations(lead model.Lead) (*ConfirmationResult, error) {
	if lead.Email == "" && lead.Phone == "" {
		return nil, fmt.Errorf("%w: email or phone is required", ErrInvalidInput)
	}

	emailSent := s.sendConfirmationEmail(lead)
	result := s.dispatcher.Dispatch(lead)
	s.attribution.SendAsync(lead)

	return &ConfirmationResult{
		NotificationResult: NotificationResult{EmailSent: emailSent},
		Webhook:            result,
	}, nil
}

// sendConfirmationEmail is best effort: a mail failure is logged and never
// blocks the submission flow.
func (s *LeadService) sendConfirmationEmail(lead model.Lead) bool {
	if s.mailer == nil || !s.mailer.Enabled() || lead.Email == "" {
		return false
	}
	if err := s.mailer.SendQuoteConfirmation(lead.Email, lead); err != nil {
		s.log.Warn().Err(err).Str("email", lead.Email).Msg("confirmation email failed")
		return false
	}
	return true
}

type FileResult struct {
	FileName string
	Content  []byte
}

// QuotePDF renders the stored quote as a printable summary. The id is either
// the row UUID or the submission id the webhook payload carries.
func (s *LeadService) QuotePDF(ctx context.Context, id string) (*FileResult, error) {
	if s.repo == nil {
		return nil, ErrUnavailable
	}
	var record *model.QuoteRecord
	var err error
	if rowID, parseErr := uuid.Parse(id); parseErr == nil {
		record, err = s.repo.GetQuote(ctx, rowID)
	} else {
		record, err = s.repo.GetBySubmissionID(ctx, id)
	}
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	content, err := s.pdf.Generate(model.QuoteDocument{Record: *record, GeneratedAt: time.Now()})
	if err != nil {
		return nil, err
	}
	return &FileResult{
		FileName: fmt.Sprintf("quote-%s.pdf", record.SubmissionID),
		Content:  content,
	}, nil
}

// ExportRecent builds the XLSX export of the latest submissions.
func (s *LeadService) ExportRecent(ctx context.Context, limit int) (*FileResult, error) {
	if s.repo == nil {
		return nil, ErrUnavailable
	}
	records, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}

	content, err := s.excel.Generate(records)
	if err != nil {
		return nil, err
	}
	return &FileResult{
		FileName: fmt.Sprintf("leads-%s.xlsx", time.Now().Format("20060102")),
		Content:  content,
	}, nil
}

func (s *LeadService) assembleLead(input SubmitQuoteInput, quote pricing.Quote, eventType model.EventType) model.Lead {
	return model.Lead{
		SubmissionID:           uuid.NewString(),
		SubmissionDate:         time.Now().UTC().Format(time.RFC3339),
		EventType:              eventType,
		Name:                   input.Name,
		Email:                  input.Email,
		Phone:                  input.Phone,
		PickupLocation:         input.PickupLocation,
		DropoffLocation:        input.DropoffLocation,
		PickupZip:              input.PickupZip,
		DropoffZip:             input.DropoffZip,
		DistanceMiles:          input.DistanceMiles,
		TransitTime:            quote.TransitTime,
		OpenTransportPrice:     quote.OpenTransport,
		EnclosedTransportPrice: quote.EnclosedTransport,
		VehicleYear:            input.VehicleYear,
		VehicleMake:            input.VehicleMake,
		VehicleModel:           input.VehicleModel,
		VehicleType:            input.VehicleType,
		ShipmentDate:           input.ShipmentDate,
		Attribution:            input.Attribution,
	}
}

// persist is best effort: a storage failure is logged and the submission
// continues.
func (s *LeadService) persist(ctx context.Context, lead model.Lead) {
	if s.repo == nil {
		return
	}
	record := model.QuoteRecord{
		SubmissionID:    lead.SubmissionID,
		EventType:       string(lead.EventType),
		Name:            lead.Name,
		Email:           lead.Email,
		Phone:           lead.Phone,
		PickupLocation:  lead.PickupLocation,
		DropoffLocation: lead.DropoffLocation,
		VehicleYear:     lead.VehicleYear,
		VehicleMake:     lead.VehicleMake,
		VehicleModel:    lead.VehicleModel,
		VehicleType:     lead.VehicleType,
		DistanceMiles:   lead.DistanceMiles,
		TransitDays:     lead.TransitTime,
		OpenPrice:       lead.OpenTransportPrice,
		EnclosedPrice:   lead.EnclosedTransportPrice,
		ShipmentDate:    lead.ShipmentDate,
	}
	if err := s.repo.CreateQuote(ctx, record); err != nil {
		s.log.Error().Err(err).Str("submission_id", lead.SubmissionID).Msg("failed to store submission")
	}
}

func validateContact(name, email, phone string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(email) == "" && strings.TrimSpace(phone) == "" {
		return fmt.Errorf("%w: email or phone is required", ErrInvalidInput)
	}
	return nil
}
