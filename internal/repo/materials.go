package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const materialColumns = `id, material_name, chemical_type, brand, lot_number, molecular_weight,
	purity_percent, initial_quantity_kg, remaining_quantity_kg, received_date, notes, created_at`

func (r *PostgresLabRepository) ListMaterials(ctx context.Context) ([]RawMaterial, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+materialColumns+" FROM raw_materials ORDER BY received_date DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RawMaterial
	for rows.Next() {
		var m RawMaterial
		if err := rows.Scan(&m.ID, &m.MaterialName, &m.ChemicalType, &m.Brand, &m.LotNumber, &m.MolecularWeight,
			&m.PurityPercent, &m.InitialQuantityKg, &m.RemainingQuantityKg, &m.ReceivedDate, &m.Notes, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PostgresLabRepository) CreateMaterial(ctx context.Context, m *RawMaterial) error {
	newID(&m.ID)
	if m.ReceivedDate.IsZero() {
		m.ReceivedDate = time.Now()
	}
	query := `INSERT INTO raw_materials (id, material_name, chemical_type, brand, lot_number, molecular_weight,
		purity_percent, initial_quantity_kg, remaining_quantity_kg, received_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING created_at`
	return r.db.QueryRowContext(ctx, query, m.ID, m.MaterialName, m.ChemicalType, m.Brand, m.LotNumber, m.MolecularWeight,
		m.PurityPercent, m.InitialQuantityKg, m.RemainingQuantityKg, m.ReceivedDate, m.Notes).Scan(&m.CreatedAt)
}

func (r *PostgresLabRepository) DeleteMaterial(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM raw_materials WHERE id=$1", id)
	if err != nil {
		return err
	}
	return expectOne(res)
}
