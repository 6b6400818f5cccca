// Package repotest provides an in-memory lab store for handler tests.
package repotest

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"SeedLab/internal/repo"
)

// Memory implements repo.LabRepository over maps. Err, when set, fails
// every call.
type Memory struct {
	Materials   map[uuid.UUID]repo.RawMaterial
	Stock       map[uuid.UUID]repo.StockSolutionBatch
	Recipes     map[uuid.UUID]repo.Recipe
	Batches     []repo.SynthesisBatch
	QC          []repo.QCMeasurement
	Performance []repo.PerformanceTest
	Err         error
}

func NewMemory() *Memory {
	return &Memory{
		Materials: map[uuid.UUID]repo.RawMaterial{},
		Stock:     map[uuid.UUID]repo.StockSolutionBatch{},
		Recipes:   map[uuid.UUID]repo.Recipe{},
	}
}

func assign(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (f *Memory) ListMaterials(context.Context) ([]repo.RawMaterial, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	var out []repo.RawMaterial
	for _, m := range f.Materials {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MaterialName < out[j].MaterialName })
	return out, nil
}

func (f *Memory) CreateMaterial(_ context.Context, m *repo.RawMaterial) error {
	if f.Err != nil {
		return f.Err
	}
	assign(&m.ID)
	f.Materials[m.ID] = *m
	return nil
}

func (f *Memory) DeleteMaterial(_ context.Context, id uuid.UUID) error {
	if f.Err != nil {
		return f.Err
	}
	if _, ok := f.Materials[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.Materials, id)
	return nil
}

func (f *Memory) ListStock(context.Context) ([]repo.StockSolutionBatch, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	var out []repo.StockSolutionBatch
	for _, s := range f.Stock {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (f *Memory) CreateStock(_ context.Context, s *repo.StockSolutionBatch) error {
	if f.Err != nil {
		return f.Err
	}
	assign(&s.ID)
	f.Stock[s.ID] = *s
	return nil
}

func (f *Memory) StockCodes(_ context.Context, prefix string) ([]string, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	var out []string
	for _, s := range f.Stock {
		if strings.HasPrefix(s.Code, prefix) {
			out = append(out, s.Code)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *Memory) DeleteStock(_ context.Context, id uuid.UUID) error {
	if f.Err != nil {
		return f.Err
	}
	if _, ok := f.Stock[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.Stock, id)
	return nil
}

func (f *Memory) ListRecipes(_ context.Context, name string) ([]repo.Recipe, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	var out []repo.Recipe
	for _, r := range f.Recipes {
		if name == "" || strings.Contains(strings.ToLower(r.Name), strings.ToLower(name)) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *Memory) GetRecipe(_ context.Context, id uuid.UUID) (repo.Recipe, error) {
	if f.Err != nil {
		return repo.Recipe{}, f.Err
	}
	r, ok := f.Recipes[id]
	if !ok {
		return repo.Recipe{}, repo.ErrNotFound
	}
	return r, nil
}

func (f *Memory) CreateRecipe(_ context.Context, r *repo.Recipe) error {
	if f.Err != nil {
		return f.Err
	}
	assign(&r.ID)
	if r.Version == 0 {
		r.Version = 1
	}
	f.Recipes[r.ID] = *r
	return nil
}

func (f *Memory) DeleteRecipe(_ context.Context, id uuid.UUID) error {
	if f.Err != nil {
		return f.Err
	}
	if _, ok := f.Recipes[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.Recipes, id)
	return nil
}

func (f *Memory) CreateBatch(_ context.Context, b *repo.SynthesisBatch) error {
	if f.Err != nil {
		return f.Err
	}
	assign(&b.ID)
	if b.Status == "" {
		b.Status = repo.StatusInProgress
	}
	f.Batches = append(f.Batches, *b)
	return nil
}

func (f *Memory) ListBatches(context.Context) ([]repo.SynthesisBatch, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Batches, nil
}

func (f *Memory) AddQC(_ context.Context, q *repo.QCMeasurement) error {
	if f.Err != nil {
		return f.Err
	}
	assign(&q.ID)
	f.QC = append(f.QC, *q)
	return nil
}

func (f *Memory) ListQC(_ context.Context, batchID uuid.UUID) ([]repo.QCMeasurement, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	var out []repo.QCMeasurement
	for _, q := range f.QC {
		if q.BatchID == batchID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *Memory) AddPerformance(_ context.Context, p *repo.PerformanceTest) error {
	if f.Err != nil {
		return f.Err
	}
	assign(&p.ID)
	f.Performance = append(f.Performance, *p)
	return nil
}

func (f *Memory) ListPerformance(_ context.Context, batchID uuid.UUID) ([]repo.PerformanceTest, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	var out []repo.PerformanceTest
	for _, p := range f.Performance {
		if p.BatchID == batchID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *Memory) TrainingRows(context.Context) ([]repo.TrainingRow, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	var out []repo.TrainingRow
	for _, p := range f.Performance {
		if p.Strength1d == nil && p.Strength28d == nil {
			continue
		}
		for _, b := range f.Batches {
			if b.ID != p.BatchID {
				continue
			}
			if r, ok := f.Recipes[b.RecipeID]; ok {
				out = append(out, repo.TrainingRow{
					CaSiRatio:   r.Params.CaSiRatio,
					MolarityCa:  r.Params.MolarityCa,
					SolidsPct:   r.Params.TargetSolidsPct,
					PCEDosage:   r.Params.PCEDosage,
					Strength1d:  p.Strength1d,
					Strength28d: p.Strength28d,
				})
			}
		}
	}
	return out, nil
}
