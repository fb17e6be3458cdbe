package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/amerigo/quote-service/internal/model"
)

type QuoteRepository struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

func (r *QuoteRepository) CreateQuote(ctx context.Context, record model.QuoteRecord) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO quote_submissions (
			submission_id, event_type, name, email, phone,
			pickup_location, dropoff_location,
			vehicle_year, vehicle_make, vehicle_model, vehicle_type,
			distance_miles, transit_days, open_price, enclosed_price, shipment_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (submission_id) DO NOTHING
	`,
		record.SubmissionID, record.EventType, record.Name, record.Email, record.Phone,
		record.PickupLocation, record.DropoffLocation,
		record.VehicleYear, record.VehicleMake, record.VehicleModel, record.VehicleType,
		record.DistanceMiles, record.TransitDays, record.OpenPrice, record.EnclosedPrice, record.ShipmentDate,
	).Error
}

func (r *QuoteRepository) GetQuote(ctx context.Context, id uuid.UUID) (*model.QuoteRecord, error) {
	var record model.QuoteRecord
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, submission_id, event_type, name, email, phone,
			pickup_location, dropoff_location,
			vehicle_year, vehicle_make, vehicle_model, vehicle_type,
			distance_miles, transit_days, open_price, enclosed_price,
			shipment_date, created_at
		FROM quote_submissions
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&record).Error; err != nil {
		return nil, err
	}
	if record.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &record, nil
}

func (r *QuoteRepository) GetBySubmissionID(ctx context.Context, submissionID string) (*model.QuoteRecord, error) {
	var record model.QuoteRecord
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, submission_id, event_type, name, email, phone,
			pickup_location, dropoff_location,
			vehicle_year, vehicle_make, vehicle_model, vehicle_type,
			distance_miles, transit_days, open_price, enclosed_price,
			shipment_date, created_at
		FROM quote_submissions
		WHERE submission_id = ?
		LIMIT 1
	`, submissionID).Scan(&record).Error; err != nil {
		return nil, err
	}
	if record.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &record, nil
}

func (r *QuoteRepository) ListRecent(ctx context.Context, limit int) ([]model.QuoteRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	var records []model.QuoteRecord
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, submission_id, event_type, name, email, phone,
			pickup_location, dropoff_location,
			vehicle_year, vehicle_make, vehicle_model, vehicle_type,
			distance_miles, transit_days, open_price, enclosed_price,
			shipment_date, created_at
		FROM quote_submissions
		ORDER BY created_at DESC
		LIMIT ?
	`, limit).Scan(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
