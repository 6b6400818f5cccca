package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/phpdave11/gofpdf"

	"SeedLab/internal/calc/formulation"
)

type Input struct {
	Recipe      string             `json:"recipe"`
	Author      string             `json:"author"`
	Title       string             `json:"title"`
	Notes       string             `json:"notes"`
	Formulation *formulation.Input `json:"formulation"`
}

type Handler struct{}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	params := formulation.DefaultInput()
	input := Input{Formulation: &params}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if input.Formulation == nil {
		input.Formulation = &params
	}
	res, err := formulation.Calculate(*input.Formulation)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := Write(&buf, input, res, time.Now()); err != nil {
		http.Error(w, "Report generation error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=\"recipe.pdf\"")
	w.Write(buf.Bytes())
}

// Write renders a one-page recipe sheet for the bench.
func Write(out io.Writer, input Input, res formulation.Result, now time.Time) error {
	if input.Title == "" {
		input.Title = "Seed Synthesis Recipe Sheet"
	}
	p := formulation.DefaultInput()
	if input.Formulation != nil {
		p = *input.Formulation
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, input.Title)
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("Recipe: %s", input.Recipe))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Author: %s", input.Author))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", now.Format("2006-01-02")))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Parameters")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	params := []string{
		fmt.Sprintf("Ca/Si ratio: %.2f", p.CaSiRatio),
		fmt.Sprintf("Target solids: %.2f %%", p.TargetSolidsPct),
		fmt.Sprintf("Ca(NO3)2: %.2f M   Na2SiO3: %.2f M", p.MolarityCa, p.MolaritySi),
		fmt.Sprintf("PCE: %.2f %% (%s), solution %.1f %%", p.PCEDosage, pceBasisLabel(p.PCEDosageBasis), p.PCESolutionConcPct),
		fmt.Sprintf("Densities (g/mL): Ca %.3f  Si %.3f  PCE %.3f  water %.3f", p.DensityCa, p.DensitySi, p.DensityPCE, p.DensityWater),
	}
	for _, line := range params {
		pdf.Cell(0, 5, line)
		pdf.Ln(5)
	}
	pdf.Ln(4)

	widths := []float64{60, 30, 30, 30, 30}
	pdf.SetFont("Helvetica", "B", 10)
	for i, head := range []string{"Ingredient", "Mass (g)", "Volume (mL)", "n (mmol)", "Solid (g)"} {
		pdf.CellFormat(widths[i], 7, head, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 10)
	for _, row := range res.Ingredients {
		moles := "-"
		if row.MolesMmol != nil {
			moles = fmt.Sprintf("%.2f", *row.MolesMmol)
		}
		pdf.CellFormat(widths[0], 6, row.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, fmt.Sprintf("%.2f", row.MassG), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 6, fmt.Sprintf("%.2f", row.VolumeML), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, moles, "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, fmt.Sprintf("%.2f", row.SolidMassG), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(widths[0], 6, "TOTAL", "1", 0, "L", false, 0, "")
	pdf.CellFormat(widths[1], 6, fmt.Sprintf("%.2f", res.TotalMassG), "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[2], 6, fmt.Sprintf("%.1f", res.TotalVolumeML), "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], 6, "", "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[4], 6, fmt.Sprintf("%.2f", res.TotalSolidMassG), "1", 0, "R", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 5, fmt.Sprintf("Weighing equivalents: Ca(NO3)2.4H2O %.2f g, Na2SiO3.5H2O %.2f g", res.CaHydrateG, res.SiHydrateG))
	pdf.Ln(7)

	if len(res.Conditions) > 0 {
		pdf.SetTextColor(180, 0, 0)
		for _, c := range res.Conditions {
			pdf.Cell(0, 5, "Warning: "+c.Message())
			pdf.Ln(5)
		}
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(2)
	}

	if input.Notes != "" {
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, input.Notes, "", "L", false)
	}
	return pdf.Output(out)
}

func pceBasisLabel(b formulation.PCEBasis) string {
	if b == formulation.PCECaReactantMass {
		return "of Ca reactant"
	}
	return "of total batch"
}
