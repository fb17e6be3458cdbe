package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/amerigo/quote-service/internal/model"
)

type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Helvetica"}
}

// Generate renders a one-page printable quote summary.
func (g *Generator) Generate(doc model.QuoteDocument) ([]byte, error) {
	record := doc.Record

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 16)
	pdf.CellFormat(0, 10, "Auto Transport Quote", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Quote %s - %s", record.SubmissionID, doc.GeneratedAt.Format("January 2, 2006")), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	g.addSection(pdf, "Contact", [][2]string{
		{"Name", record.Name},
		{"Email", record.Email},
		{"Phone", record.Phone},
	})

	g.addSection(pdf, "Route", [][2]string{
		{"Pickup", record.PickupLocation},
		{"Dropoff", record.DropoffLocation},
		{"Distance", fmt.Sprintf("%.0f miles", record.DistanceMiles)},
		{"Estimated transit", fmt.Sprintf("%d days", record.TransitDays)},
		{"Shipment date", record.ShipmentDate},
	})

	g.addSection(pdf, "Vehicle", [][2]string{
		{"Year", record.VehicleYear},
		{"Make", record.VehicleMake},
		{"Model", record.VehicleModel},
		{"Type", record.VehicleType},
	})

	g.addSection(pdf, "Pricing", [][2]string{
		{"Open transport", dollars(record.OpenPrice)},
		{"Enclosed transport", dollars(record.EnclosedPrice)},
	})

	pdf.Ln(8)
	pdf.SetFont(g.fontName, "I", 9)
	pdf.MultiCell(0, 5, "Quoted prices are valid for 14 days. Enclosed transport includes full coverage against road debris and weather.", "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render quote pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) addSection(pdf *gofpdf.Fpdf, title string, rows [][2]string) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	for _, row := range rows {
		value := strings.TrimSpace(row[1])
		if value == "" {
			value = "-"
		}
		pdf.CellFormat(45, 6, row[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, value, "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)
}

func dollars(amount int) string {
	if amount == 0 {
		return "-"
	}
	return fmt.Sprintf("$%d", amount)
}
