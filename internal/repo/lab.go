package repo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

type MaterialRepository interface {
	ListMaterials(ctx context.Context) ([]RawMaterial, error)
	CreateMaterial(ctx context.Context, m *RawMaterial) error
	DeleteMaterial(ctx context.Context, id uuid.UUID) error
}

type StockRepository interface {
	ListStock(ctx context.Context) ([]StockSolutionBatch, error)
	CreateStock(ctx context.Context, s *StockSolutionBatch) error
	// StockCodes lists existing batch codes starting with prefix.
	StockCodes(ctx context.Context, prefix string) ([]string, error)
	DeleteStock(ctx context.Context, id uuid.UUID) error
}

type RecipeRepository interface {
	ListRecipes(ctx context.Context, name string) ([]Recipe, error)
	GetRecipe(ctx context.Context, id uuid.UUID) (Recipe, error)
	CreateRecipe(ctx context.Context, rec *Recipe) error
	DeleteRecipe(ctx context.Context, id uuid.UUID) error
}

type BatchRepository interface {
	CreateBatch(ctx context.Context, b *SynthesisBatch) error
	ListBatches(ctx context.Context) ([]SynthesisBatch, error)
	AddQC(ctx context.Context, q *QCMeasurement) error
	ListQC(ctx context.Context, batchID uuid.UUID) ([]QCMeasurement, error)
	AddPerformance(ctx context.Context, p *PerformanceTest) error
	ListPerformance(ctx context.Context, batchID uuid.UUID) ([]PerformanceTest, error)
	TrainingRows(ctx context.Context) ([]TrainingRow, error)
}

// LabRepository is every record store the lab service needs.
type LabRepository interface {
	MaterialRepository
	StockRepository
	RecipeRepository
	BatchRepository
}

type PostgresLabRepository struct {
	db *sql.DB
}

func NewPostgresLabDB(db *sql.DB) *PostgresLabRepository {
	return &PostgresLabRepository{db: db}
}

// newID assigns a fresh id when the caller left it zero.
func newID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
