package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"SeedLab/internal/importer"
	"SeedLab/internal/repo"
)

const dateLayout = "2006-01-02"

// BackupName is the file name of a backup taken at t.
func BackupName(t time.Time) string {
	return fmt.Sprintf("seedlab_backup_%s.xlsx", t.Format("20060102_150405"))
}

// Workbook builds one sheet per entity. Materials, stock and recipes lead
// with the import headers so a backup can be loaded back in.
func Workbook(ctx context.Context, store repo.LabRepository) (*excelize.File, error) {
	materials, err := store.ListMaterials(ctx)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	stock, err := store.ListStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	recipes, err := store.ListRecipes(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	batches, err := store.ListBatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}

	var qc [][]any
	var perf [][]any
	for _, b := range batches {
		qs, err := store.ListQC(ctx, b.ID)
		if err != nil {
			return nil, fmt.Errorf("list qc: %w", err)
		}
		for _, q := range qs {
			qc = append(qc, qcRow(b, q))
		}
		ps, err := store.ListPerformance(ctx, b.ID)
		if err != nil {
			return nil, fmt.Errorf("list performance: %w", err)
		}
		for _, p := range ps {
			perf = append(perf, performanceRow(b, p))
		}
	}

	lots := make(map[uuid.UUID]string, len(materials))
	for _, m := range materials {
		lots[m.ID] = m.LotNumber
	}

	f := excelize.NewFile()
	sheets := []struct {
		name   string
		header []string
		rows   [][]any
	}{
		{importer.SheetNames[importer.Materials], slices.Concat(importer.Headers[importer.Materials], []string{"remaining_quantity_kg", "notes", "id"}), materialRows(materials)},
		{importer.SheetNames[importer.Stock], slices.Concat(importer.Headers[importer.Stock], []string{"notes", "id"}), stockRows(stock, lots)},
		{importer.SheetNames[importer.Recipes], slices.Concat(importer.Headers[importer.Recipes], recipeExtraHeaders), recipeRows(recipes)},
		{"Batches", []string{"batch_ref", "recipe_name", "execution_date", "operator", "status", "id", "recipe_id"}, batchRows(batches)},
		{"QC", []string{"batch_ref", "measured_at", "ageing_hours", "ph", "solid_content_measured", "settling_height_mm",
			"d50_before_volume", "d50_after_volume", "ssa_before_volume", "agglomeration", "notes"}, qc},
		{"Performance", []string{"batch_ref", "test_type", "cast_date", "cement_mass_g", "seed_dosage_pct", "flow_mm",
			"fresh_density", "air_content", "strength_12h", "strength_16h", "strength_1d", "strength_2d", "strength_7d", "strength_28d"}, perf},
	}
	for i, s := range sheets {
		if err := writeSheet(f, i, s.name, s.header, s.rows); err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %s: %w", s.name, err)
		}
	}
	return f, nil
}

func Write(ctx context.Context, store repo.LabRepository, w io.Writer) error {
	f, err := Workbook(ctx, store)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// WriteBackup saves a timestamped workbook into dir and returns its path.
func WriteBackup(ctx context.Context, store repo.LabRepository, dir string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	f, err := Workbook(ctx, store)
	if err != nil {
		return "", err
	}
	defer f.Close()
	path := filepath.Join(dir, BackupName(now))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save %s: %w", path, err)
	}
	return path, nil
}

func writeSheet(f *excelize.File, index int, name string, header []string, rows [][]any) error {
	if index == 0 {
		if err := f.SetSheetName("Sheet1", name); err != nil {
			return err
		}
	} else if _, err := f.NewSheet(name); err != nil {
		return err
	}
	head := make([]any, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &head); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// opt renders a nullable reading as an empty cell when absent.
func opt(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func materialRows(list []repo.RawMaterial) [][]any {
	rows := make([][]any, 0, len(list))
	for _, m := range list {
		rows = append(rows, []any{m.MaterialName, m.ChemicalType, m.Brand, m.LotNumber, m.MolecularWeight,
			m.PurityPercent, m.InitialQuantityKg, date(m.ReceivedDate), m.RemainingQuantityKg, m.Notes, m.ID.String()})
	}
	return rows
}

func stockRows(list []repo.StockSolutionBatch, lots map[uuid.UUID]string) [][]any {
	rows := make([][]any, 0, len(list))
	for _, s := range list {
		lot := ""
		if s.RawMaterialID != nil {
			lot = lots[*s.RawMaterialID]
		}
		rows = append(rows, []any{s.Code, s.ChemicalType, s.Molarity, s.TargetVolumeML, s.ActualMassG,
			date(s.PreparationDate), s.Operator, lot, s.Notes, s.ID.String()})
	}
	return rows
}

var recipeExtraHeaders = []string{"pce_dosage_basis", "pce_solution_conc_pct", "anchor_basis", "anchor_value",
	"density_ca", "density_si", "density_pce", "density_water", "mw_ca_anhydrous", "mw_si_anhydrous",
	"recipe_date", "version", "created_by", "ca_source", "si_source", "pce_source", "feeding_sequence", "procedure_notes", "id"}

func recipeRows(list []repo.Recipe) [][]any {
	rows := make([][]any, 0, len(list))
	for _, r := range list {
		p := r.Params
		rows = append(rows, []any{r.Name, p.CaSiRatio, p.MolarityCa, p.MolaritySi, p.TargetSolidsPct, p.PCEDosage, opt(r.TargetPH),
			string(p.PCEDosageBasis), p.PCESolutionConcPct, string(p.AnchorBasis), p.AnchorValue,
			p.DensityCa, p.DensitySi, p.DensityPCE, p.DensityWater, p.MWCaAnhydrous, p.MWSiAnhydrous,
			date(r.RecipeDate), r.Version, r.CreatedBy,
			r.Provenance[repo.ProvenanceCaSource], r.Provenance[repo.ProvenanceSiSource], r.Provenance[repo.ProvenancePCESource],
			r.Provenance[repo.ProvenanceFeedingSequence], r.Provenance[repo.ProvenanceProcedureNotes], r.ID.String()})
	}
	return rows
}

func batchRows(list []repo.SynthesisBatch) [][]any {
	rows := make([][]any, 0, len(list))
	for _, b := range list {
		rows = append(rows, []any{b.LabNotebookRef, b.RecipeName, date(b.ExecutionDate), b.Operator, string(b.Status),
			b.ID.String(), b.RecipeID.String()})
	}
	return rows
}

func qcRow(b repo.SynthesisBatch, q repo.QCMeasurement) []any {
	return []any{b.LabNotebookRef, date(q.MeasuredAt), q.AgeingHours, opt(q.PH), opt(q.SolidContentMeasured),
		opt(q.SettlingHeightMM), q.PSD.BeforeVolume.D50, q.PSD.AfterVolume.D50, q.PSD.BeforeVolume.SSA,
		q.PSD.Agglomeration(), q.Notes}
}

func performanceRow(b repo.SynthesisBatch, p repo.PerformanceTest) []any {
	return []any{b.LabNotebookRef, p.TestType, date(p.CastDate), p.MixDesign.CementMassG, p.MixDesign.SeedDosagePct,
		opt(p.FlowMM), opt(p.FreshDensity), opt(p.AirContent), opt(p.Strength12h), opt(p.Strength16h),
		opt(p.Strength1d), opt(p.Strength2d), opt(p.Strength7d), opt(p.Strength28d)}
}
