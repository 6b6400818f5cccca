package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"SeedLab/internal/calc/formulation"
	"SeedLab/internal/repo"
)

type Category string

const (
	Materials Category = "materials"
	Stock     Category = "stock"
	Recipes   Category = "recipes"
	Results   Category = "results"
)

var ErrUnknownCategory = errors.New("importer: unknown category")

// Headers lists the columns each category expects. Extra columns are
// ignored unless a category reads them as optional fields.
var Headers = map[Category][]string{
	Materials: {"material_name", "chemical_type", "brand", "lot_number", "molecular_weight", "purity_percent", "initial_quantity_kg", "received_date"},
	Stock:     {"code", "chemical_type", "molarity", "target_volume_ml", "actual_mass_g", "preparation_date", "operator", "source_lot_number"},
	Recipes:   {"name", "ca_si_ratio", "molarity_ca", "molarity_si", "solids_percent", "pce_dosage", "target_ph"},
	Results:   {"recipe_name", "batch_ref", "execution_date", "operator", "ph", "solids_measured", "strength_1d", "strength_28d", "flow"},
}

// SheetNames are the sheet titles the exporter writes; an import prefers
// the matching sheet and falls back to the first one.
var SheetNames = map[Category]string{
	Materials: "Materials",
	Stock:     "Stock",
	Recipes:   "Recipes",
	Results:   "Results",
}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := Headers[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

type RowError struct {
	Row int    `json:"row"`
	Err string `json:"error"`
}

type Summary struct {
	Category Category   `json:"category"`
	Imported int        `json:"imported"`
	Skipped  int        `json:"skipped"`
	Errors   []RowError `json:"errors,omitempty"`
}

type Importer struct {
	Repo repo.LabRepository
	Now  func() time.Time
}

func (im *Importer) now() time.Time {
	if im.Now != nil {
		return im.Now()
	}
	return time.Now()
}

// Import reads one category from an xlsx workbook. Rows that fail to parse
// or store are skipped and reported; only an unreadable workbook or a sheet
// without the required name column is an error.
func (im *Importer) Import(ctx context.Context, cat Category, r io.Reader) (Summary, error) {
	if _, ok := Headers[cat]; !ok {
		return Summary{}, fmt.Errorf("%w: %q", ErrUnknownCategory, cat)
	}
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Summary{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	for _, name := range f.GetSheetList() {
		if name == SheetNames[cat] {
			sheet = name
		}
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return Summary{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return Summary{}, fmt.Errorf("sheet %q is empty", sheet)
	}
	header := newRecord(rows[0])
	key := Headers[cat][0]
	if !header.has(key) {
		return Summary{}, fmt.Errorf("sheet %q has no %q column", sheet, key)
	}

	var materials []repo.RawMaterial
	if cat == Stock {
		if materials, err = im.Repo.ListMaterials(ctx); err != nil {
			return Summary{}, err
		}
	}

	sum := Summary{Category: cat}
	for i, cells := range rows[1:] {
		row := header.row(cells)
		if row.empty() {
			continue
		}
		var err error
		switch cat {
		case Materials:
			err = im.material(ctx, row)
		case Stock:
			err = im.stock(ctx, row, materials)
		case Recipes:
			err = im.recipe(ctx, row)
		case Results:
			err = im.result(ctx, row)
		}
		if err != nil {
			sum.Skipped++
			sum.Errors = append(sum.Errors, RowError{Row: i + 2, Err: err.Error()})
			continue
		}
		sum.Imported++
	}
	return sum, nil
}

func (im *Importer) material(ctx context.Context, row record) error {
	name := row.str("material_name", "")
	if name == "" {
		return errors.New("material_name is empty")
	}
	m := repo.RawMaterial{
		MaterialName: name,
		ChemicalType: row.str("chemical_type", "Other"),
		Brand:        row.str("brand", "Unknown"),
		LotNumber:    row.str("lot_number", ""),
		Notes:        row.str("notes", ""),
	}
	var err error
	if m.MolecularWeight, err = row.float("molecular_weight", 100); err != nil {
		return err
	}
	if m.PurityPercent, err = row.float("purity_percent", 99); err != nil {
		return err
	}
	if m.InitialQuantityKg, err = row.float("initial_quantity_kg", 0); err != nil {
		return err
	}
	if m.RemainingQuantityKg, err = row.float("remaining_quantity_kg", m.InitialQuantityKg); err != nil {
		return err
	}
	if m.ReceivedDate, err = row.date("received_date", im.now()); err != nil {
		return err
	}
	return im.Repo.CreateMaterial(ctx, &m)
}

func (im *Importer) stock(ctx context.Context, row record, materials []repo.RawMaterial) error {
	code := row.str("code", "")
	if code == "" {
		return errors.New("code is empty")
	}
	s := repo.StockSolutionBatch{
		Code:         code,
		ChemicalType: row.str("chemical_type", ""),
		Operator:     row.str("operator", "Import"),
		Notes:        row.str("notes", ""),
	}
	var err error
	if s.Molarity, err = row.float("molarity", 0); err != nil {
		return err
	}
	if s.TargetVolumeML, err = row.float("target_volume_ml", 0); err != nil {
		return err
	}
	if s.ActualMassG, err = row.float("actual_mass_g", 0); err != nil {
		return err
	}
	if s.PreparationDate, err = row.date("preparation_date", im.now()); err != nil {
		return err
	}
	if lot := row.str("source_lot_number", ""); lot != "" {
		for _, m := range materials {
			if m.LotNumber == lot {
				id := m.ID
				s.RawMaterialID = &id
				break
			}
		}
	}
	return im.Repo.CreateStock(ctx, &s)
}

// importDefaults are the values assumed for recipe columns a sheet leaves out.
func importDefaults() formulation.Input {
	in := formulation.DefaultInput()
	in.MolarityCa = 1.5
	in.MolaritySi = 0.75
	in.PCEDosage = 2.0
	return in
}

func (im *Importer) recipe(ctx context.Context, row record) error {
	name := row.str("name", "")
	if name == "" {
		return errors.New("name is empty")
	}
	in := importDefaults()
	fields := []struct {
		col string
		dst *float64
	}{
		{"ca_si_ratio", &in.CaSiRatio},
		{"molarity_ca", &in.MolarityCa},
		{"molarity_si", &in.MolaritySi},
		{"solids_percent", &in.TargetSolidsPct},
		{"pce_dosage", &in.PCEDosage},
		{"pce_solution_conc_pct", &in.PCESolutionConcPct},
		{"anchor_value", &in.AnchorValue},
		{"density_ca", &in.DensityCa},
		{"density_si", &in.DensitySi},
		{"density_pce", &in.DensityPCE},
		{"density_water", &in.DensityWater},
		{"mw_ca_anhydrous", &in.MWCaAnhydrous},
		{"mw_si_anhydrous", &in.MWSiAnhydrous},
	}
	for _, fd := range fields {
		v, err := row.float(fd.col, *fd.dst)
		if err != nil {
			return err
		}
		*fd.dst = v
	}
	in.PCEDosageBasis = formulation.PCEBasis(row.str("pce_dosage_basis", string(in.PCEDosageBasis)))
	in.AnchorBasis = formulation.AnchorBasis(row.str("anchor_basis", string(in.AnchorBasis)))
	res, err := formulation.Calculate(in)
	if err != nil {
		return err
	}
	if !res.Feasible() {
		msgs := make([]string, 0, len(res.Conditions))
		for _, c := range res.Conditions {
			msgs = append(msgs, c.Message())
		}
		return fmt.Errorf("recipe %q not saved: %s", name, strings.Join(msgs, "; "))
	}

	ph, err := row.float("target_ph", 11.5)
	if err != nil {
		return err
	}
	rec := repo.Recipe{
		Name:      name,
		Params:    in,
		TargetPH:  &ph,
		CreatedBy: row.str("created_by", "Import"),
	}
	if rec.RecipeDate, err = row.date("recipe_date", im.now()); err != nil {
		return err
	}
	for _, k := range []repo.ProvenanceKey{
		repo.ProvenanceCaSource, repo.ProvenanceSiSource, repo.ProvenancePCESource,
		repo.ProvenanceFeedingSequence, repo.ProvenanceProcedureNotes,
	} {
		if v := row.str(string(k), ""); v != "" {
			if rec.Provenance == nil {
				rec.Provenance = repo.Provenance{}
			}
			rec.Provenance[k] = v
		}
	}
	return im.Repo.CreateRecipe(ctx, &rec)
}

// result imports one synthesis outcome: the batch, its QC readout and a
// mortar test. Unknown recipe names get a placeholder recipe.
func (im *Importer) result(ctx context.Context, row record) error {
	name := row.str("recipe_name", "")
	if name == "" {
		return errors.New("recipe_name is empty")
	}
	recipeID, err := im.recipeByName(ctx, name)
	if err != nil {
		return err
	}

	b := repo.SynthesisBatch{
		RecipeID:       recipeID,
		LabNotebookRef: row.str("batch_ref", "IMP-"+uuid.NewString()[:6]),
		Operator:       row.str("operator", "Import"),
		Status:         repo.StatusCompleted,
	}
	if b.ExecutionDate, err = row.date("execution_date", im.now()); err != nil {
		return err
	}
	ph, err := row.optFloat("ph")
	if err != nil {
		return err
	}
	solids, err := row.optFloat("solids_measured")
	if err != nil {
		return err
	}
	s1, err := row.optFloat("strength_1d")
	if err != nil {
		return err
	}
	s28, err := row.optFloat("strength_28d")
	if err != nil {
		return err
	}
	flow, err := row.optFloat("flow")
	if err != nil {
		return err
	}

	if err := im.Repo.CreateBatch(ctx, &b); err != nil {
		return err
	}
	if ph != nil || solids != nil {
		q := repo.QCMeasurement{BatchID: b.ID, MeasuredAt: b.ExecutionDate, PH: ph, SolidContentMeasured: solids}
		if err := im.Repo.AddQC(ctx, &q); err != nil {
			return err
		}
	}
	if s1 != nil || s28 != nil || flow != nil {
		p := repo.PerformanceTest{BatchID: b.ID, TestType: "Mortar", CastDate: b.ExecutionDate,
			Strength1d: s1, Strength28d: s28, FlowMM: flow}
		if err := im.Repo.AddPerformance(ctx, &p); err != nil {
			return err
		}
	}
	return nil
}

func (im *Importer) recipeByName(ctx context.Context, name string) (uuid.UUID, error) {
	list, err := im.Repo.ListRecipes(ctx, name)
	if err != nil {
		return uuid.Nil, err
	}
	for _, r := range list {
		if r.Name == name {
			return r.ID, nil
		}
	}
	rec := repo.Recipe{Name: name, Params: importDefaults(), CreatedBy: "Auto-Import", RecipeDate: im.now()}
	if err := im.Repo.CreateRecipe(ctx, &rec); err != nil {
		return uuid.Nil, err
	}
	return rec.ID, nil
}

type record struct {
	index  map[string]int
	values []string
}

func newRecord(header []string) record {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return record{index: idx}
}

func (r record) has(col string) bool {
	_, ok := r.index[col]
	return ok
}

func (r record) row(values []string) record {
	return record{index: r.index, values: values}
}

func (r record) empty() bool {
	for _, v := range r.values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func (r record) str(col, fallback string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.values) {
		return fallback
	}
	if v := strings.TrimSpace(r.values[i]); v != "" {
		return v
	}
	return fallback
}

func (r record) float(col string, fallback float64) (float64, error) {
	v := r.str(col, "")
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", col, v)
	}
	return f, nil
}

func (r record) optFloat(col string) (*float64, error) {
	if r.str(col, "") == "" {
		return nil, nil
	}
	f, err := r.float(col, 0)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339, "01-02-06", "1/2/06", "1/2/06 15:04", "02.01.2006"}

func (r record) date(col string, fallback time.Time) (time.Time, error) {
	v := r.str(col, "")
	if v == "" {
		return fallback, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%s: %q is not a date", col, v)
}
