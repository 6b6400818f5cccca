package repo

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"SeedLab/internal/calc/formulation"
)

var ErrNotFound = errors.New("repo: not found")

type User struct {
	ID          int       `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

type RawMaterial struct {
	ID                  uuid.UUID `json:"id"`
	MaterialName        string    `json:"material_name"`
	ChemicalType        string    `json:"chemical_type"`
	Brand               string    `json:"brand"`
	LotNumber           string    `json:"lot_number"`
	MolecularWeight     float64   `json:"molecular_weight"`
	PurityPercent       float64   `json:"purity_percent"`
	InitialQuantityKg   float64   `json:"initial_quantity_kg"`
	RemainingQuantityKg float64   `json:"remaining_quantity_kg"`
	ReceivedDate        time.Time `json:"received_date"`
	Notes               string    `json:"notes"`
	CreatedAt           time.Time `json:"created_at"`
}

type StockSolutionBatch struct {
	ID              uuid.UUID  `json:"id"`
	Code            string     `json:"code"`
	ChemicalType    string     `json:"chemical_type"`
	Molarity        float64    `json:"molarity"`
	TargetVolumeML  float64    `json:"target_volume_ml"`
	ActualMassG     float64    `json:"actual_mass_g"`
	PreparationDate time.Time  `json:"preparation_date"`
	RawMaterialID   *uuid.UUID `json:"raw_material_id,omitempty"`
	Operator        string     `json:"operator"`
	Notes           string     `json:"notes"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Recipe is a committed formulation: every solver input plus process data.
type Recipe struct {
	ID             uuid.UUID         `json:"id"`
	Name           string            `json:"name"`
	ParentID       *uuid.UUID        `json:"parent_recipe_id,omitempty"`
	Version        int               `json:"version"`
	RecipeDate     time.Time         `json:"recipe_date"`
	Params         formulation.Input `json:"params"`
	CaAdditionRate *float64          `json:"ca_addition_rate,omitempty"` // mL/min
	SiAdditionRate *float64          `json:"si_addition_rate,omitempty"` // mL/min
	TargetPH       *float64          `json:"target_ph,omitempty"`
	CaStockBatchID *uuid.UUID        `json:"ca_stock_batch_id,omitempty"`
	SiStockBatchID *uuid.UUID        `json:"si_stock_batch_id,omitempty"`
	Provenance     Provenance        `json:"provenance"`
	CreatedAt      time.Time         `json:"created_at"`
	CreatedBy      string            `json:"created_by"`
}

// FormulationInput rebuilds the solver request the recipe was saved from.
// Hydrate molar masses are display-only and not stored.
func (r Recipe) FormulationInput() formulation.Input {
	in := r.Params
	if in.MWCaHydrate == 0 {
		in.MWCaHydrate = formulation.MWCaHydrate
	}
	if in.MWSiHydrate == 0 {
		in.MWSiHydrate = formulation.MWSiHydrate
	}
	return in
}

type BatchStatus string

const (
	StatusPlanned    BatchStatus = "planned"
	StatusInProgress BatchStatus = "in_progress"
	StatusCompleted  BatchStatus = "completed"
)

func (s BatchStatus) Valid() bool {
	switch s {
	case StatusPlanned, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type SynthesisBatch struct {
	ID             uuid.UUID   `json:"id"`
	RecipeID       uuid.UUID   `json:"recipe_id"`
	RecipeName     string      `json:"recipe_name,omitempty"`
	LabNotebookRef string      `json:"lab_notebook_ref"`
	ExecutionDate  time.Time   `json:"execution_date"`
	Operator       string      `json:"operator"`
	Status         BatchStatus `json:"status"`
}

// PSD is one particle size distribution readout, µm except SSA (m²/cm³).
type PSD struct {
	D10  float64 `json:"d10"`
	D50  float64 `json:"d50"`
	D90  float64 `json:"d90"`
	Mean float64 `json:"mean"`
	SSA  float64 `json:"ssa"`
}

type PSDData struct {
	BeforeVolume PSD `json:"before_volume"`
	BeforeNumber PSD `json:"before_number"`
	AfterVolume  PSD `json:"after_volume"`
	AfterNumber  PSD `json:"after_number"`
}

// Agglomeration is the before/after sonication d50 ratio on the volume
// distribution; 0 when no after-sonication reading exists.
func (p PSDData) Agglomeration() float64 {
	if p.AfterVolume.D50 <= 0 {
		return 0
	}
	return p.BeforeVolume.D50 / p.AfterVolume.D50
}

func (p PSDData) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *PSDData) Scan(src any) error {
	return scanJSON(src, p)
}

type QCMeasurement struct {
	ID                   uuid.UUID `json:"id"`
	BatchID              uuid.UUID `json:"batch_id"`
	MeasuredAt           time.Time `json:"measured_at"`
	AgeingHours          float64   `json:"ageing_hours"`
	PH                   *float64  `json:"ph,omitempty"`
	SolidContentMeasured *float64  `json:"solid_content_measured,omitempty"`
	SettlingHeightMM     *float64  `json:"settling_height_mm,omitempty"`
	PSD                  PSDData   `json:"psd"`
	Notes                string    `json:"notes"`
}

type MixDesign struct {
	CementType      string  `json:"cement_type"`
	CementMassG     float64 `json:"cement_mass_g"`
	SandMassG       float64 `json:"sand_mass_g"`
	WaterCement     float64 `json:"water_cement_ratio"`
	SeedSolidsPct   float64 `json:"seed_solids_pct"`   // measured solids of the seed suspension
	SeedDosagePct   float64 `json:"seed_dosage_pct"`   // solid seed, % of cement
	SeedSuspensionG float64 `json:"seed_suspension_g"` // derived
}

// SuspensionMass returns the grams of seed suspension that deliver the
// target solid dosage.
func (m MixDesign) SuspensionMass() float64 {
	if m.SeedSolidsPct <= 0 {
		return 0
	}
	return m.CementMassG * m.SeedDosagePct / m.SeedSolidsPct
}

func (m MixDesign) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *MixDesign) Scan(src any) error {
	return scanJSON(src, m)
}

type PerformanceTest struct {
	ID           uuid.UUID `json:"id"`
	BatchID      uuid.UUID `json:"batch_id"`
	TestType     string    `json:"test_type"` // Mortar or Cement Paste
	CastDate     time.Time `json:"cast_date"`
	MixDesign    MixDesign `json:"mix_design"`
	FreshDensity *float64  `json:"fresh_density,omitempty"`
	FlowMM       *float64  `json:"flow_mm,omitempty"`
	AirContent   *float64  `json:"air_content,omitempty"`
	TemperatureC *float64  `json:"temperature_c,omitempty"`
	HumidityPct  *float64  `json:"humidity_pct,omitempty"`
	Strength12h  *float64  `json:"compressive_strength_12h,omitempty"`
	Strength16h  *float64  `json:"compressive_strength_16h,omitempty"`
	Strength1d   *float64  `json:"compressive_strength_1d,omitempty"`
	Strength2d   *float64  `json:"compressive_strength_2d,omitempty"`
	Strength7d   *float64  `json:"compressive_strength_7d,omitempty"`
	Strength28d  *float64  `json:"compressive_strength_28d,omitempty"`
}

// TrainingRow is one recipe/strength pair in the strength model's feature
// contract.
type TrainingRow struct {
	CaSiRatio   float64  `json:"ca_si_ratio"`
	MolarityCa  float64  `json:"molarity_ca"`
	SolidsPct   float64  `json:"solids_pct"`
	PCEDosage   float64  `json:"pce_dosage"`
	Strength1d  *float64 `json:"compressive_strength_1d,omitempty"`
	Strength28d *float64 `json:"compressive_strength_28d,omitempty"`
}

func scanJSON(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("repo: cannot scan %T as JSON", src)
	}
}
