package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
)

func (r *PostgresLabRepository) CreateBatch(ctx context.Context, b *SynthesisBatch) error {
	newID(&b.ID)
	if b.Status == "" {
		b.Status = StatusInProgress
	}
	if b.ExecutionDate.IsZero() {
		b.ExecutionDate = time.Now()
	}
	query := `INSERT INTO synthesis_batches (id, recipe_id, lab_notebook_ref, execution_date, operator, status)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, b.ID, b.RecipeID, b.LabNotebookRef, b.ExecutionDate, b.Operator, string(b.Status))
	return err
}

func (r *PostgresLabRepository) ListBatches(ctx context.Context) ([]SynthesisBatch, error) {
	query := `SELECT b.id, b.recipe_id, r.name, b.lab_notebook_ref, b.execution_date, b.operator, b.status
		FROM synthesis_batches b JOIN recipes r ON r.id = b.recipe_id
		ORDER BY b.execution_date DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SynthesisBatch
	for rows.Next() {
		var b SynthesisBatch
		var status string
		if err := rows.Scan(&b.ID, &b.RecipeID, &b.RecipeName, &b.LabNotebookRef, &b.ExecutionDate, &b.Operator, &status); err != nil {
			return nil, err
		}
		b.Status = BatchStatus(status)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PostgresLabRepository) AddQC(ctx context.Context, q *QCMeasurement) error {
	newID(&q.ID)
	if q.MeasuredAt.IsZero() {
		q.MeasuredAt = time.Now()
	}
	query := `INSERT INTO qc_measurements (id, batch_id, measured_at, ageing_hours, ph, solid_content_measured,
		settling_height_mm, psd, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query, q.ID, q.BatchID, q.MeasuredAt, q.AgeingHours, q.PH, q.SolidContentMeasured,
		q.SettlingHeightMM, q.PSD, q.Notes)
	return err
}

func (r *PostgresLabRepository) ListQC(ctx context.Context, batchID uuid.UUID) ([]QCMeasurement, error) {
	query := `SELECT id, batch_id, measured_at, ageing_hours, ph, solid_content_measured, settling_height_mm, psd, notes
		FROM qc_measurements WHERE batch_id=$1 ORDER BY ageing_hours, measured_at`
	rows, err := r.db.QueryContext(ctx, query, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []QCMeasurement
	for rows.Next() {
		var q QCMeasurement
		if err := rows.Scan(&q.ID, &q.BatchID, &q.MeasuredAt, &q.AgeingHours, &q.PH, &q.SolidContentMeasured,
			&q.SettlingHeightMM, &q.PSD, &q.Notes); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

const performanceColumns = `id, batch_id, test_type, cast_date, mix_design, fresh_density, flow_mm, air_content,
	temperature_c, humidity_pct, compressive_strength_12h, compressive_strength_16h, compressive_strength_1d,
	compressive_strength_2d, compressive_strength_7d, compressive_strength_28d`

func (r *PostgresLabRepository) AddPerformance(ctx context.Context, p *PerformanceTest) error {
	newID(&p.ID)
	if p.CastDate.IsZero() {
		p.CastDate = time.Now()
	}
	if p.MixDesign.SeedSuspensionG == 0 {
		p.MixDesign.SeedSuspensionG = p.MixDesign.SuspensionMass()
	}
	query := "INSERT INTO performance_tests (" + performanceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.db.ExecContext(ctx, query, p.ID, p.BatchID, p.TestType, p.CastDate, p.MixDesign, p.FreshDensity,
		p.FlowMM, p.AirContent, p.TemperatureC, p.HumidityPct, p.Strength12h, p.Strength16h, p.Strength1d,
		p.Strength2d, p.Strength7d, p.Strength28d)
	return err
}

func (r *PostgresLabRepository) ListPerformance(ctx context.Context, batchID uuid.UUID) ([]PerformanceTest, error) {
	query := "SELECT " + performanceColumns + " FROM performance_tests WHERE batch_id=$1 ORDER BY cast_date"
	rows, err := r.db.QueryContext(ctx, query, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PerformanceTest
	for rows.Next() {
		var p PerformanceTest
		if err := rows.Scan(&p.ID, &p.BatchID, &p.TestType, &p.CastDate, &p.MixDesign, &p.FreshDensity,
			&p.FlowMM, &p.AirContent, &p.TemperatureC, &p.HumidityPct, &p.Strength12h, &p.Strength16h, &p.Strength1d,
			&p.Strength2d, &p.Strength7d, &p.Strength28d); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// TrainingRows joins recipe features with measured strengths. Rows without
// any 1d or 28d strength are left out.
func (r *PostgresLabRepository) TrainingRows(ctx context.Context) ([]TrainingRow, error) {
	query := `SELECT r.ca_si_ratio, r.molarity_ca, r.solids_pct, r.pce_dosage,
		p.compressive_strength_1d, p.compressive_strength_28d
		FROM performance_tests p
		JOIN synthesis_batches b ON b.id = p.batch_id
		JOIN recipes r ON r.id = b.recipe_id
		WHERE p.compressive_strength_1d IS NOT NULL OR p.compressive_strength_28d IS NOT NULL`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TrainingRow
	for rows.Next() {
		var t TrainingRow
		if err := rows.Scan(&t.CaSiRatio, &t.MolarityCa, &t.SolidsPct, &t.PCEDosage, &t.Strength1d, &t.Strength28d); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
