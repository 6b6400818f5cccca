package repo_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SeedLab/internal/calc/formulation"
	"SeedLab/internal/repo"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestUsers_CreateAndLookup(t *testing.T) {
	db, mock := newMock(t)
	users := repo.NewPostgresUserDB(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users (email, display_name, password)")).
		WithArgs("ana@lab.example", "Ana", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	id, err := users.CreateUser(ctx, "ana@lab.example", "Ana", "hash")
	require.NoError(t, err)
	assert.Equal(t, 7, id)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, password FROM users WHERE email=$1")).
		WithArgs("ghost@lab.example").
		WillReturnError(sql.ErrNoRows)
	id, hash, err := users.GetByEmail(ctx, "ghost@lab.example")
	require.NoError(t, err)
	assert.Zero(t, id)
	assert.Empty(t, hash)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, display_name, role, created_at FROM users")).
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)
	_, err = users.GetProfileByID(ctx, 99)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET display_name=$1 WHERE id=$2")).
		WithArgs("Ana B.", 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, users.UpdateProfile(ctx, 7, "Ana B."))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUsers_CreateWrapsError(t *testing.T) {
	db, mock := newMock(t)
	users := repo.NewPostgresUserDB(db)
	boom := errors.New("duplicate key")

	mock.ExpectQuery("INSERT INTO users").WillReturnError(boom)
	_, err := users.CreateUser(context.Background(), "a@b.c", "", "h")
	assert.ErrorIs(t, err, boom)
}

func TestMaterials_CreateAssignsID(t *testing.T) {
	db, mock := newMock(t)
	lab := repo.NewPostgresLabDB(db)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO raw_materials").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	m := &repo.RawMaterial{MaterialName: "Calcium nitrate tetrahydrate", ChemicalType: "Ca", PurityPercent: 99}
	require.NoError(t, lab.CreateMaterial(context.Background(), m))
	assert.NotEqual(t, uuid.Nil, m.ID)
	assert.Equal(t, now, m.CreatedAt)
	assert.False(t, m.ReceivedDate.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterials_DeleteMissing(t *testing.T) {
	db, mock := newMock(t)
	lab := repo.NewPostgresLabDB(db)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM raw_materials WHERE id=$1")).
		WithArgs(id.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, lab.DeleteMaterial(context.Background(), id), repo.ErrNotFound)
}

func TestStock_ListAndCodes(t *testing.T) {
	db, mock := newMock(t)
	lab := repo.NewPostgresLabDB(db)
	ctx := context.Background()
	id, material := uuid.New(), uuid.New()
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM stock_solution_batches ORDER BY").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "chemical_type", "molarity", "target_volume_ml",
			"actual_mass_g", "preparation_date", "raw_material_id", "operator", "notes", "created_at"}).
			AddRow(id.String(), "CA-20240101-01", "Ca", 4.0, 500.0, 472.3, day, material.String(), "ana", "", day).
			AddRow(uuid.NewString(), "SI-20240101-01", "Si", 2.0, 500.0, 212.1, day, nil, "ana", "", day))

	list, err := lab.ListStock(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, id, list[0].ID)
	require.NotNil(t, list[0].RawMaterialID)
	assert.Equal(t, material, *list[0].RawMaterialID)
	assert.Nil(t, list[1].RawMaterialID)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT code FROM stock_solution_batches WHERE code LIKE $1")).
		WithArgs("CA-20240101-%").
		WillReturnRows(sqlmock.NewRows([]string{"code"}).AddRow("CA-20240101-01"))
	codes, err := lab.StockCodes(ctx, "CA-20240101-")
	require.NoError(t, err)
	assert.Equal(t, []string{"CA-20240101-01"}, codes)

	require.NoError(t, mock.ExpectationsWereMet())
}

func recipeRow(id uuid.UUID, day time.Time) *sqlmock.Rows {
	cols := []string{"id", "name", "parent_recipe_id", "version", "recipe_date",
		"ca_si_ratio", "molarity_ca", "molarity_si", "solids_pct", "pce_dosage", "pce_dosage_basis", "pce_solution_conc_pct",
		"anchor_basis", "anchor_value", "density_ca", "density_si", "density_pce", "density_water",
		"mw_ca_anhydrous", "mw_si_anhydrous", "ca_addition_rate", "si_addition_rate", "target_ph",
		"ca_stock_batch_id", "si_stock_batch_id", "provenance", "created_at", "created_by"}
	return sqlmock.NewRows(cols).AddRow(id.String(), "CSH-1.5", nil, 1, day,
		1.5, 1.5, 0.75, 5.0, 2.0, "ca_reactant_mass", 50.0,
		"total_mass", 415.0, 1.401, 1.230, 1.080, 0.998,
		164.09, 122.06, 2.5, nil, 11.5,
		nil, nil, []byte(`{"ca_source":"Sigma"}`), day, "ana@lab.example")
}

func TestRecipes_GetRoundTripsSolverInput(t *testing.T) {
	db, mock := newMock(t)
	lab := repo.NewPostgresLabDB(db)
	id := uuid.New()
	day := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM recipes WHERE id=\\$1").WithArgs(id.String()).WillReturnRows(recipeRow(id, day))

	rec, err := lab.GetRecipe(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "CSH-1.5", rec.Name)
	assert.Nil(t, rec.ParentID)
	require.NotNil(t, rec.CaAdditionRate)
	assert.Equal(t, 2.5, *rec.CaAdditionRate)
	assert.Nil(t, rec.SiAdditionRate)
	assert.Equal(t, "Sigma", rec.Provenance[repo.ProvenanceCaSource])

	in := rec.FormulationInput()
	assert.Equal(t, formulation.PCECaReactantMass, in.PCEDosageBasis)
	assert.Equal(t, formulation.AnchorTotalMass, in.AnchorBasis)
	assert.Equal(t, formulation.MWCaHydrate, in.MWCaHydrate)
	assert.Equal(t, 1.5, in.CaSiRatio)
	assert.Equal(t, 0.75, in.MolaritySi)
}

func TestRecipes_GetMissing(t *testing.T) {
	db, mock := newMock(t)
	lab := repo.NewPostgresLabDB(db)

	mock.ExpectQuery("FROM recipes WHERE id").WillReturnError(sql.ErrNoRows)
	_, err := lab.GetRecipe(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestRecipes_ListFiltersByName(t *testing.T) {
	db, mock := newMock(t)
	lab := repo.NewPostgresLabDB(db)
	day := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM recipes WHERE \\$1 = ''").WithArgs("csh").WillReturnRows(recipeRow(uuid.New(), day))
	list, err := lab.ListRecipes(context.Background(), "csh")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecipes_CreateRejectsUnknownProvenance(t *testing.T) {
	db, mock := newMock(t)
	lab := repo.NewPostgresLabDB(db)

	rec := &repo.Recipe{Name: "x", Params: formulation.DefaultInput(), Provenance: repo.Provenance{"oven": "3"}}
	err := lab.CreateRecipe(context.Background(), rec)
	assert.ErrorIs(t, err, repo.ErrUnknownProvenanceKey)
	require.NoError(t, mock.ExpectationsWereMet(), "no query may run")
}

func TestRecipes_CreateFillsDefaults(t *testing.T) {
	db, mock := newMock(t)
	lab := repo.NewPostgresLabDB(db)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO recipes").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	in := formulation.DefaultInput()
	in.AnchorBasis = ""
	in.PCEDosageBasis = ""
	rec := &repo.Recipe{Name: "CSH-1.0", Params: in}
	require.NoError(t, lab.CreateRecipe(context.Background(), rec))
	assert.Equal(t, 1, rec.Version)
	assert.Equal(t, formulation.AnchorTotalMass, rec.Params.AnchorBasis)
	assert.Equal(t, formulation.PCETotalBatchMass, rec.Params.PCEDosageBasis)
	assert.NotEqual(t, uuid.Nil, rec.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBatches_CreateDefaultsStatus(t *testing.T) {
	db, mock := newMock(t)
	lab := repo.NewPostgresLabDB(db)

	mock.ExpectExec("INSERT INTO synthesis_batches").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "NB-12-034", sqlmock.AnyArg(), "ana", "in_progress").
		WillReturnResult(sqlmock.NewResult(0, 1))

	b := &repo.SynthesisBatch{RecipeID: uuid.New(), LabNotebookRef: "NB-12-034", Operator: "ana"}
	require.NoError(t, lab.CreateBatch(context.Background(), b))
	assert.Equal(t, repo.StatusInProgress, b.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBatches_QCRoundTrip(t *testing.T) {
	db, mock := newMock(t)
	lab := repo.NewPostgresLabDB(db)
	batch := uuid.New()
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM qc_measurements WHERE batch_id=\\$1").
		WithArgs(batch.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "batch_id", "measured_at", "ageing_hours", "ph",
			"solid_content_measured", "settling_height_mm", "psd", "notes"}).
			AddRow(uuid.NewString(), batch.String(), day, 24.0, 11.8, nil, 3.5,
				[]byte(`{"before_volume":{"d50":2.4},"after_volume":{"d50":1.2}}`), ""))

	qc, err := lab.ListQC(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, qc, 1)
	require.NotNil(t, qc[0].PH)
	assert.Equal(t, 11.8, *qc[0].PH)
	assert.Nil(t, qc[0].SolidContentMeasured)
	assert.InDelta(t, 2.0, qc[0].PSD.Agglomeration(), 1e-12)
}

func TestBatches_AddPerformanceDerivesSuspension(t *testing.T) {
	db, mock := newMock(t)
	lab := repo.NewPostgresLabDB(db)

	mock.ExpectExec("INSERT INTO performance_tests").WillReturnResult(sqlmock.NewResult(0, 1))

	p := &repo.PerformanceTest{
		BatchID:   uuid.New(),
		TestType:  "Mortar",
		MixDesign: repo.MixDesign{CementMassG: 450, SeedDosagePct: 0.5, SeedSolidsPct: 5},
	}
	require.NoError(t, lab.AddPerformance(context.Background(), p))
	assert.InDelta(t, 45.0, p.MixDesign.SeedSuspensionG, 1e-9)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBatches_TrainingRows(t *testing.T) {
	db, mock := newMock(t)
	lab := repo.NewPostgresLabDB(db)

	mock.ExpectQuery("FROM performance_tests p").
		WillReturnRows(sqlmock.NewRows([]string{"ca_si_ratio", "molarity_ca", "solids_pct", "pce_dosage",
			"compressive_strength_1d", "compressive_strength_28d"}).
			AddRow(1.5, 1.5, 5.0, 2.0, 18.2, nil))

	rows, err := lab.TrainingRows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].Strength1d)
	assert.Equal(t, 18.2, *rows[0].Strength1d)
	assert.Nil(t, rows[0].Strength28d)
}

func TestEnsureSchema(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, repo.EnsureSchema(context.Background(), db))
	require.NoError(t, mock.ExpectationsWereMet())
}
