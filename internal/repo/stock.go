package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
)

func (r *PostgresLabRepository) ListStock(ctx context.Context) ([]StockSolutionBatch, error) {
	query := `SELECT id, code, chemical_type, molarity, target_volume_ml, actual_mass_g, preparation_date,
		raw_material_id, operator, notes, created_at
		FROM stock_solution_batches ORDER BY preparation_date DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StockSolutionBatch
	for rows.Next() {
		var s StockSolutionBatch
		var material uuid.NullUUID
		if err := rows.Scan(&s.ID, &s.Code, &s.ChemicalType, &s.Molarity, &s.TargetVolumeML, &s.ActualMassG,
			&s.PreparationDate, &material, &s.Operator, &s.Notes, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.RawMaterialID = nullID(material)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresLabRepository) CreateStock(ctx context.Context, s *StockSolutionBatch) error {
	newID(&s.ID)
	if s.PreparationDate.IsZero() {
		s.PreparationDate = time.Now()
	}
	query := `INSERT INTO stock_solution_batches (id, code, chemical_type, molarity, target_volume_ml,
		actual_mass_g, preparation_date, raw_material_id, operator, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING created_at`
	return r.db.QueryRowContext(ctx, query, s.ID, s.Code, s.ChemicalType, s.Molarity, s.TargetVolumeML,
		s.ActualMassG, s.PreparationDate, s.RawMaterialID, s.Operator, s.Notes).Scan(&s.CreatedAt)
}

func (r *PostgresLabRepository) StockCodes(ctx context.Context, prefix string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT code FROM stock_solution_batches WHERE code LIKE $1 ORDER BY code", prefix+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		codes = append(codes, c)
	}
	return codes, rows.Err()
}

func (r *PostgresLabRepository) DeleteStock(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM stock_solution_batches WHERE id=$1", id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func nullID(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}
