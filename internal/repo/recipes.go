package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"SeedLab/internal/calc/formulation"
)

const recipeColumns = `id, name, parent_recipe_id, version, recipe_date,
	ca_si_ratio, molarity_ca, molarity_si, solids_pct, pce_dosage, pce_dosage_basis, pce_solution_conc_pct,
	anchor_basis, anchor_value, density_ca, density_si, density_pce, density_water,
	mw_ca_anhydrous, mw_si_anhydrous, ca_addition_rate, si_addition_rate, target_ph,
	ca_stock_batch_id, si_stock_batch_id, provenance, created_at, created_by`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row rowScanner) (Recipe, error) {
	var rec Recipe
	var parent, caStock, siStock uuid.NullUUID
	var pceBasis, anchor string
	p := &rec.Params
	err := row.Scan(&rec.ID, &rec.Name, &parent, &rec.Version, &rec.RecipeDate,
		&p.CaSiRatio, &p.MolarityCa, &p.MolaritySi, &p.TargetSolidsPct, &p.PCEDosage, &pceBasis, &p.PCESolutionConcPct,
		&anchor, &p.AnchorValue, &p.DensityCa, &p.DensitySi, &p.DensityPCE, &p.DensityWater,
		&p.MWCaAnhydrous, &p.MWSiAnhydrous, &rec.CaAdditionRate, &rec.SiAdditionRate, &rec.TargetPH,
		&caStock, &siStock, &rec.Provenance, &rec.CreatedAt, &rec.CreatedBy)
	if err != nil {
		return Recipe{}, err
	}
	p.PCEDosageBasis = formulation.PCEBasis(pceBasis)
	p.AnchorBasis = formulation.AnchorBasis(anchor)
	rec.ParentID = nullID(parent)
	rec.CaStockBatchID = nullID(caStock)
	rec.SiStockBatchID = nullID(siStock)
	return rec, nil
}

// ListRecipes returns recipes newest first, optionally filtered by a
// case-insensitive name fragment.
func (r *PostgresLabRepository) ListRecipes(ctx context.Context, name string) ([]Recipe, error) {
	query := "SELECT " + recipeColumns + " FROM recipes WHERE $1 = '' OR name ILIKE '%' || $1 || '%' ORDER BY recipe_date DESC"
	rows, err := r.db.QueryContext(ctx, query, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Recipe
	for rows.Next() {
		rec, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PostgresLabRepository) GetRecipe(ctx context.Context, id uuid.UUID) (Recipe, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+recipeColumns+" FROM recipes WHERE id=$1", id)
	rec, err := scanRecipe(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Recipe{}, ErrNotFound
	}
	return rec, err
}

func (r *PostgresLabRepository) CreateRecipe(ctx context.Context, rec *Recipe) error {
	if err := rec.Provenance.Validate(); err != nil {
		return err
	}
	newID(&rec.ID)
	if rec.Version == 0 {
		rec.Version = 1
	}
	if rec.RecipeDate.IsZero() {
		rec.RecipeDate = time.Now()
	}
	p := rec.Params
	if p.PCEDosageBasis == "" {
		p.PCEDosageBasis = formulation.PCETotalBatchMass
	}
	if p.AnchorBasis == "" {
		p.AnchorBasis = formulation.AnchorTotalMass
	}
	rec.Params = p
	query := `INSERT INTO recipes (id, name, parent_recipe_id, version, recipe_date,
		ca_si_ratio, molarity_ca, molarity_si, solids_pct, pce_dosage, pce_dosage_basis, pce_solution_conc_pct,
		anchor_basis, anchor_value, density_ca, density_si, density_pce, density_water,
		mw_ca_anhydrous, mw_si_anhydrous, ca_addition_rate, si_addition_rate, target_ph,
		ca_stock_batch_id, si_stock_batch_id, provenance, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
		$19, $20, $21, $22, $23, $24, $25, $26, $27) RETURNING created_at`
	return r.db.QueryRowContext(ctx, query, rec.ID, rec.Name, rec.ParentID, rec.Version, rec.RecipeDate,
		p.CaSiRatio, p.MolarityCa, p.MolaritySi, p.TargetSolidsPct, p.PCEDosage, string(p.PCEDosageBasis), p.PCESolutionConcPct,
		string(p.AnchorBasis), p.AnchorValue, p.DensityCa, p.DensitySi, p.DensityPCE, p.DensityWater,
		p.MWCaAnhydrous, p.MWSiAnhydrous, rec.CaAdditionRate, rec.SiAdditionRate, rec.TargetPH,
		rec.CaStockBatchID, rec.SiStockBatchID, rec.Provenance, rec.CreatedBy).Scan(&rec.CreatedAt)
}

func (r *PostgresLabRepository) DeleteRecipe(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM recipes WHERE id=$1", id)
	if err != nil {
		return err
	}
	return expectOne(res)
}
