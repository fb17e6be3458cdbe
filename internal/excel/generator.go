package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/amerigo/quote-service/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate builds the lead export workbook: a summary sheet plus one row per
// submission.
func (g *Generator) Generate(records []model.QuoteRecord) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Summary"
	file.SetSheetName("Sheet1", summarySheet)
	if err := g.writeSummary(file, summarySheet, records); err != nil {
		return nil, err
	}

	leadsSheet := "Leads"
	file.NewSheet(leadsSheet)
	if err := g.writeLeads(file, leadsSheet, records); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, records []model.QuoteRecord) error {
	quoteCount := 0
	orderCount := 0
	totalOpen := 0
	for _, record := range records {
		switch record.EventType {
		case string(model.EventFinalSubmission):
			orderCount++
		default:
			quoteCount++
		}
		totalOpen += record.OpenPrice
	}

	rows := [][2]any{
		{"Total submissions", len(records)},
		{"Quotes", quoteCount},
		{"Orders", orderCount},
		{"Combined open-transport value", totalOpen},
	}
	for i, row := range rows {
		if err := file.SetCellValue(sheet, fmt.Sprintf("A%d", i+1), row[0]); err != nil {
			return err
		}
		if err := file.SetCellValue(sheet, fmt.Sprintf("B%d", i+1), row[1]); err != nil {
			return err
		}
	}
	return nil
}

var leadHeaders = []string{
	"Submission ID", "Event", "Name", "Email", "Phone",
	"Pickup", "Dropoff", "Vehicle", "Distance (mi)", "Transit (days)",
	"Open $", "Enclosed $", "Shipment Date", "Created",
}

func (g *Generator) writeLeads(file *excelize.File, sheet string, records []model.QuoteRecord) error {
	for col, header := range leadHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
	}

	for i, record := range records {
		vehicle := fmt.Sprintf("%s %s %s", record.VehicleYear, record.VehicleMake, record.VehicleModel)
		values := []any{
			record.SubmissionID,
			record.EventType,
			record.Name,
			record.Email,
			record.Phone,
			record.PickupLocation,
			record.DropoffLocation,
			vehicle,
			record.DistanceMiles,
			record.TransitDays,
			record.OpenPrice,
			record.EnclosedPrice,
			record.ShipmentDate,
			record.CreatedAt.Format("2006-01-02 15:04"),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}
	return nil
}
