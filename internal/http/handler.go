package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/amerigo/quote-service/internal/diagnostics"
	"github.com/amerigo/quote-service/internal/distance"
	"github.com/amerigo/quote-service/internal/http/middleware"
	"github.com/amerigo/quote-service/internal/location"
	"github.com/amerigo/quote-service/internal/model"
	"github.com/amerigo/quote-service/internal/service"
)

type Handler struct {
	leads     *service.LeadService
	distance  distance.Service
	locations *location.Index
	recorder  *diagnostics.Recorder
	log       zerolog.Logger
}

func NewHandler(
	leads *service.LeadService,
	distanceService distance.Service,
	locations *location.Index,
	recorder *diagnostics.Recorder,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		leads:     leads,
		distance:  distanceService,
		locations: locations,
		recorder:  recorder,
		log:       log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	api := router.Group("/api")
	api.POST("/quotes", h.submitQuote)
	api.POST("/final-submission", h.submitFinal)
	api.POST("/webhook", h.relayWebhook)
	api.POST("/send-quote-notification", h.sendQuoteNotification)
	api.POST("/send-confirmations", h.sendConfirmations)
	api.GET("/distance", h.lookupDistance)
	api.GET("/location-search", h.searchLocations)
	api.GET("/location-search/popular", h.popularLocations)

	protected := api.Group("/")
	protected.Use(authMiddleware)
	protected.GET("/diagnostics/webhooks", h.webhookDiagnostics)
	protected.GET("/diagnostics/export", h.exportLeads)
	protected.GET("/quotes/:id/pdf", h.quotePDF)
}

type attributionFields struct {
	UTMSource   string `json:"utm_source"`
	UTMMedium   string `json:"utm_medium"`
	UTMCampaign string `json:"utm_campaign"`
	UTMTerm     string `json:"utm_term"`
	UTMContent  string `json:"utm_content"`
	FBCLID      string `json:"fbclid"`
	Referrer    string `json:"referrer"`
}

func (a attributionFields) toModel() model.Attribution {
	return model.Attribution{
		UTMSource:   a.UTMSource,
		UTMMedium:   a.UTMMedium,
		UTMCampaign: a.UTMCampaign,
		UTMTerm:     a.UTMTerm,
		UTMContent:  a.UTMContent,
		FBCLID:      a.FBCLID,
		Referrer:    a.Referrer,
	}
}

type quoteRequest struct {
	Name            string  `json:"name" binding:"required"`
	Email           string  `json:"email"`
	Phone           string  `json:"phone"`
	PickupLocation  string  `json:"pickupLocation" binding:"required"`
	DropoffLocation string  `json:"dropoffLocation" binding:"required"`
	PickupZip       string  `json:"pickupZip"`
	DropoffZip      string  `json:"dropoffZip"`
	VehicleYear     string  `json:"year"`
	VehicleMake     string  `json:"make"`
	VehicleModel    string  `json:"model"`
	VehicleType     string  `json:"vehicleType" binding:"required"`
	DistanceMiles   float64 `json:"distance"`
	ShipmentDate    string  `json:"shipmentDate"`
	attributionFields
}

func (r quoteRequest) toInput() service.SubmitQuoteInput {
	return service.SubmitQuoteInput{
		Name:            r.Name,
		Email:           r.Email,
		Phone:           r.Phone,
		PickupLocation:  r.PickupLocation,
		DropoffLocation: r.DropoffLocation,
		PickupZip:       r.PickupZip,
		DropoffZip:      r.DropoffZip,
		VehicleYear:     r.VehicleYear,
		VehicleMake:     r.VehicleMake,
		VehicleModel:    r.VehicleModel,
		VehicleType:     r.VehicleType,
		DistanceMiles:   r.DistanceMiles,
		ShipmentDate:    r.ShipmentDate,
		Attribution:     r.toModel(),
	}
}

func (h *Handler) submitQuote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.leads.SubmitQuote(c.Request.Context(), req.toInput())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"submissionId": result.SubmissionID,
		"quote":        result.Quote,
		"webhook": gin.H{
			"success": result.Webhook.Success,
			"message": result.Webhook.Message,
		},
	})
}

type finalSubmissionRequest struct {
	quoteRequest
	TransitTime            int `json:"transitTime"`
	OpenTransportPrice     int `json:"openTransportPrice"`
	EnclosedTransportPrice int `json:"enclosedTransportPrice"`
}

func (h *Handler) submitFinal(c *gin.Context) {
	var req finalSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.leads.SubmitFinal(c.Request.Context(), service.SubmitFinalInput{
		SubmitQuoteInput:       req.toInput(),
		TransitTime:            req.TransitTime,
		OpenTransportPrice:     req.OpenTransportPrice,
		EnclosedTransportPrice: req.EnclosedTransportPrice,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"submissionId": result.SubmissionID,
		"webhook": gin.H{
			"success": result.Webhook.Success,
			"message": result.Webhook.Message,
		},
	})
}

type relayRequest struct {
	SubmissionID   string `json:"submissionId"`
	SubmissionDate string `json:"submissionDate"`
	EventType      string `json:"eventType"`

	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`

	PickupLocation  string `json:"pickupLocation"`
	DropoffLocation string `json:"dropoffLocation"`
	PickupZip       string `json:"pickupZip"`
	DropoffZip      string `json:"dropoffZip"`

	Distance    float64 `json:"distance"`
	TransitTime int     `json:"transitTime"`

	OpenTransportPrice     int `json:"openTransportPrice"`
	EnclosedTransportPrice int `json:"enclosedTransportPrice"`

	VehicleYear  string `json:"year"`
	VehicleMake  string `json:"make"`
	VehicleModel string `json:"model"`
	VehicleType  string `json:"vehicleType"`

	ShipmentDate string `json:"shipmentDate"`
	attributionFields
}

func (r relayRequest) toLead() model.Lead {
	return model.Lead{
		SubmissionID:           r.SubmissionID,
		SubmissionDate:         r.SubmissionDate,
		EventType:              model.EventType(r.EventType),
		Name:                   r.Name,
		Email:                  r.Email,
		Phone:                  r.Phone,
		PickupLocation:         r.PickupLocation,
		DropoffLocation:        r.DropoffLocation,
		PickupZip:              r.PickupZip,
		DropoffZip:             r.DropoffZip,
		DistanceMiles:          r.Distance,
		TransitTime:            r.TransitTime,
		OpenTransportPrice:     r.OpenTransportPrice,
		EnclosedTransportPrice: r.EnclosedTransportPrice,
		VehicleYear:            r.VehicleYear,
		VehicleMake:            r.VehicleMake,
		VehicleModel:           r.VehicleModel,
		VehicleType:            r.VehicleType,
		ShipmentDate:           r.ShipmentDate,
		Attribution:            r.toModel(),
	}
}

// relayWebhook forwards a pre-assembled lead payload. Embedded forms that
// price on the client side post here directly.
func (h *Handler) relayWebhook(c *gin.Context) {
	var req relayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.leads.Relay(req.toLead())
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	c.JSON(status, result)
}

type quoteDetails struct {
	Name                   string  `json:"name"`
	PickupLocation         string  `json:"pickupLocation"`
	DropoffLocation        string  `json:"dropoffLocation"`
	PickupZip              string  `json:"pickupZip"`
	DropoffZip             string  `json:"dropoffZip"`
	VehicleYear            string  `json:"year"`
	VehicleMake            string  `json:"make"`
	VehicleModel           string  `json:"model"`
	VehicleType            string  `json:"vehicleType"`
	Distance               float64 `json:"distance"`
	TransitTime            int     `json:"transitTime"`
	OpenTransportPrice     int     `json:"openTransportPrice"`
	EnclosedTransportPrice int     `json:"enclosedTransportPrice"`
	ShipmentDate           string  `json:"shipmentDate"`
}

type quoteNotificationRequest struct {
	Email        string        `json:"email"`
	Phone        string        `json:"phone"`
	QuoteDetails *quoteDetails `json:"quoteDetails" binding:"required"`
}

func (h *Handler) sendQuoteNotification(c *gin.Context) {
	var req quoteNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	details := req.QuoteDetails
	lead := model.Lead{
		EventType:              model.EventQuoteSubmission,
		Name:                   details.Name,
		Email:                  req.Email,
		Phone:                  req.Phone,
		PickupLocation:         details.PickupLocation,
		DropoffLocation:        details.DropoffLocation,
		PickupZip:              details.PickupZip,
		DropoffZip:             details.DropoffZip,
		DistanceMiles:          details.Distance,
		TransitTime:            details.TransitTime,
		OpenTransportPrice:     details.OpenTransportPrice,
		EnclosedTransportPrice: details.EnclosedTransportPrice,
		VehicleYear:            details.VehicleYear,
		VehicleMake:            details.VehicleMake,
		VehicleModel:           details.VehicleModel,
		VehicleType:            details.VehicleType,
		ShipmentDate:           details.ShipmentDate,
	}

	result, err := h.leads.SendQuoteNotification(lead)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   result.EmailSent || result.SMSSent,
		"emailSent": result.EmailSent,
		"smsSent":   result.SMSSent,
	})
}

// sendConfirmations accepts a completed booking as a flat lead payload and
// fans it out: confirmation email, webhook delivery, attribution.
func (h *Handler) sendConfirmations(c *gin.Context) {
	var req relayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lead := req.toLead()
	if lead.EventType == "" {
		lead.EventType = model.EventFinalSubmission
	}

	result, err := h.leads.SendConfirmations(lead)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   result.EmailSent || result.SMSSent || result.Webhook.Success,
		"emailSent": result.EmailSent,
		"smsSent":   result.SMSSent,
		"webhook": gin.H{
			"success": result.Webhook.Success,
			"message": result.Webhook.Message,
		},
	})
}

func (h *Handler) lookupDistance(c *gin.Context) {
	origin := strings.TrimSpace(c.Query("origin"))
	destination := strings.TrimSpace(c.Query("destination"))
	if origin == "" || destination == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "origin and destination are required"})
		return
	}

	result, err := h.distance.Lookup(c.Request.Context(), origin, destination)
	if err != nil {
		h.log.Warn().Err(err).Str("origin", origin).Str("destination", destination).Msg("distance lookup failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "distance unavailable"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) searchLocations(c *gin.Context) {
	query := c.Query("q")
	limit := intQuery(c, "limit", 200)
	c.JSON(http.StatusOK, gin.H{"results": h.locations.Search(query, limit)})
}

func (h *Handler) popularLocations(c *gin.Context) {
	limit := intQuery(c, "limit", 200)
	c.JSON(http.StatusOK, gin.H{"results": h.locations.Popular(limit)})
}

func (h *Handler) webhookDiagnostics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"stats":    h.recorder.Stats(),
		"attempts": h.recorder.Snapshot(),
	})
}

// exportLeads hands out customer contact data, so beyond a valid token it
// requires a staff or admin role.
func (h *Handler) exportLeads(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	if !principal.IsStaff() {
		h.handleError(c, service.ErrPermissionDenied)
		return
	}

	limit := intQuery(c, "limit", 100)
	result, err := h.leads.ExportRecent(c.Request.Context(), limit)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.Content)
}

func (h *Handler) quotePDF(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quote id"})
		return
	}

	result, err := h.leads.QuotePDF(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
