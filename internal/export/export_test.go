package export_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"SeedLab/internal/calc/formulation"
	"SeedLab/internal/export"
	"SeedLab/internal/importer"
	"SeedLab/internal/repo"
	"SeedLab/internal/repo/repotest"
)

func seeded(t *testing.T) *repotest.Memory {
	t.Helper()
	ctx := context.Background()
	m := repotest.NewMemory()
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mat := repo.RawMaterial{MaterialName: "Calcium nitrate tetrahydrate", ChemicalType: "Ca", LotNumber: "L-7731",
		MolecularWeight: 236.15, PurityPercent: 99, InitialQuantityKg: 2.5, ReceivedDate: day}
	require.NoError(t, m.CreateMaterial(ctx, &mat))
	st := repo.StockSolutionBatch{Code: "CA-20240101-01", ChemicalType: "Ca", Molarity: 4, TargetVolumeML: 500,
		ActualMassG: 472.3, PreparationDate: day, RawMaterialID: &mat.ID, Operator: "ana"}
	require.NoError(t, m.CreateStock(ctx, &st))

	in := formulation.DefaultInput()
	in.CaSiRatio = 1.5
	ph := 11.5
	rec := repo.Recipe{Name: "CSH-1.5", Params: in, TargetPH: &ph, RecipeDate: day, CreatedBy: "ana@lab.example",
		Provenance: repo.Provenance{repo.ProvenanceCaSource: "Sigma"}}
	require.NoError(t, m.CreateRecipe(ctx, &rec))

	b := repo.SynthesisBatch{RecipeID: rec.ID, RecipeName: rec.Name, LabNotebookRef: "NB-1", ExecutionDate: day}
	require.NoError(t, m.CreateBatch(ctx, &b))
	require.NoError(t, m.AddQC(ctx, &repo.QCMeasurement{BatchID: b.ID, AgeingHours: 24, PH: &ph,
		PSD: repo.PSDData{BeforeVolume: repo.PSD{D50: 3}, AfterVolume: repo.PSD{D50: 1.5}}}))
	s28 := 61.0
	require.NoError(t, m.AddPerformance(ctx, &repo.PerformanceTest{BatchID: b.ID, TestType: "Mortar", Strength28d: &s28}))
	return m
}

func TestWorkbook_Sheets(t *testing.T) {
	f, err := export.Workbook(context.Background(), seeded(t))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Materials", "Stock", "Recipes", "Batches", "QC", "Performance"}, f.GetSheetList())

	rows, err := f.GetRows("Stock")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, importer.Headers[importer.Stock], rows[0][:len(importer.Headers[importer.Stock])])
	assert.Equal(t, "L-7731", rows[1][7], "stock rows carry the source lot")

	rows, err = f.GetRows("QC")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "NB-1", rows[1][0])
	assert.Equal(t, "2", rows[1][9])

	rows, err = f.GetRows("Performance")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "61", rows[1][13])
}

func TestWorkbook_RoundTripsThroughImport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.Write(context.Background(), seeded(t), &buf))

	target := repotest.NewMemory()
	im := &importer.Importer{Repo: target}
	for _, cat := range []importer.Category{importer.Materials, importer.Stock, importer.Recipes} {
		sum, err := im.Import(context.Background(), cat, bytes.NewReader(buf.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, 1, sum.Imported, cat)
		assert.Zero(t, sum.Skipped, cat)
	}

	recipes, _ := target.ListRecipes(context.Background(), "")
	require.Len(t, recipes, 1)
	r := recipes[0]
	assert.Equal(t, 1.5, r.Params.CaSiRatio)
	assert.Equal(t, 4.0, r.Params.MolarityCa, "exported columns override import defaults")
	assert.Equal(t, 1.25, r.Params.PCEDosage)
	assert.Equal(t, "Sigma", r.Provenance[repo.ProvenanceCaSource])
	assert.Equal(t, "ana@lab.example", r.CreatedBy)

	stock, _ := target.ListStock(context.Background())
	require.Len(t, stock, 1)
	require.NotNil(t, stock[0].RawMaterialID, "lot link restored")
}

func TestWriteBackup(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backups")
	now := time.Date(2024, 6, 30, 23, 59, 1, 0, time.UTC)

	path, err := export.WriteBackup(context.Background(), seeded(t), dir, now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "seedlab_backup_20240630_235901.xlsx"), path)

	_, err = os.Stat(path)
	require.NoError(t, err)
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Len(t, f.GetSheetList(), 6)
}

func TestWorkbook_StoreError(t *testing.T) {
	m := repotest.NewMemory()
	m.Err = errors.New("db down")
	_, err := export.Workbook(context.Background(), m)
	assert.ErrorIs(t, err, m.Err)
}

func TestHandler_Download(t *testing.T) {
	h := &export.Handler{Repo: seeded(t)}
	rec := httptest.NewRecorder()
	h.Download(rec, httptest.NewRequest(http.MethodGet, "/export", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "seedlab_backup_")
	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	f.Close()
}
