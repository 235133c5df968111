package itinerary

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"go.mongodb.org/mongo-driver/bson"

	"voyagr/db"
	"voyagr/models"
	"voyagr/utils"
)

// GET /api/itineraries/:id/pdf
// ExportItineraryPDF renders the day-by-day schedule as a printable PDF.
func ExportItineraryPDF(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	itineraryID := ps.ByName("id")
	userID := utils.GetUserIDFromRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var itin models.Itinerary
	err := db.ItineraryCollection.FindOne(ctx,
		bson.M{"itineraryid": itineraryID, "deleted": bson.M{"$ne": true}}).Decode(&itin)
	if err != nil {
		http.Error(w, "Itinerary not found", http.StatusNotFound)
		return
	}
	if !itin.Published && itin.UserID != userID {
		http.Error(w, "Itinerary not found", http.StatusNotFound)
		return
	}

	data, err := renderItineraryPDF(itin)
	if err != nil {
		http.Error(w, "Error generating PDF", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="itinerary-%s.pdf"`, itin.ItineraryID))
	w.Write(data)
}

func renderItineraryPDF(itin models.Itinerary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 15, itin.Name, "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 12)
	pdf.MultiCell(0, 8, fmt.Sprintf("%s - %s\n%s", itin.StartDate, itin.EndDate, itin.Description), "", "L", false)
	pdf.Ln(4)

	for _, day := range itin.Days {
		pdf.SetFont("Arial", "B", 14)
		pdf.SetFillColor(235, 240, 250)
		pdf.CellFormat(0, 10, day.Date, "", 1, "L", true, 0, "")
		pdf.Ln(1)

		pdf.SetFont("Arial", "", 11)
		for _, visit := range day.Visits {
			line := fmt.Sprintf("%s - %s  %s", visit.StartTime, visit.EndTime, visit.Location)
			if visit.Transport != nil {
				line += fmt.Sprintf("  (via %s)", *visit.Transport)
			}
			pdf.CellFormat(0, 7, line, "", 1, "L", false, 0, "")
		}
		pdf.Ln(3)
	}

	pdf.SetY(-25)
	pdf.SetFont("Arial", "I", 9)
	pdf.CellFormat(0, 8, "Generated by Voyagr", "T", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
