// Package adapters はsymbollistフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stock_chart/internal/feature/symbollist/domain/entity"
	"stock_chart/internal/feature/symbollist/usecase"
)

// symbolStore はSymbolRepositoryインターフェースのGORM実装です（SQLite/PostgreSQL）。
type symbolStore struct {
	db *gorm.DB
}

var _ usecase.SymbolRepository = (*symbolStore)(nil)

// NewSymbolRepository は指定されたDB接続でsymbolStoreの新しいインスタンスを生成します。
func NewSymbolRepository(db *gorm.DB) *symbolStore {
	return &symbolStore{db: db}
}

// SymbolModel は symbols テーブルの行です。
type SymbolModel struct {
	ID        uint      `gorm:"primaryKey"`
	Code      string    `gorm:"size:20;not null;uniqueIndex"`
	Name      string    `gorm:"size:255;not null"`
	Market    string    `gorm:"size:100;not null;index"`
	IsActive  bool      `gorm:"not null;default:true"`
	SortKey   int       `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (SymbolModel) TableName() string {
	return "symbols"
}

func toEntity(m SymbolModel) entity.Symbol {
	return entity.Symbol{
		Code:     m.Code,
		Name:     m.Name,
		Market:   m.Market,
		IsActive: m.IsActive,
		SortKey:  m.SortKey,
	}
}

// ListActive はsort_key順にアクティブな銘柄を返します。market が空でなければその市場に絞り込みます。
func (r *symbolStore) ListActive(ctx context.Context, market string) ([]entity.Symbol, error) {
	var rows []SymbolModel
	q := r.db.WithContext(ctx).Where(map[string]any{"is_active": true})
	if market != "" {
		q = q.Where(map[string]any{"market": market})
	}
	if err := q.Order("sort_key ASC").Order("code ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.Symbol, 0, len(rows))
	for _, m := range rows {
		out = append(out, toEntity(m))
	}
	return out, nil
}

// ListActiveCodes はsort_key順にアクティブな銘柄のコードのみを返します。
func (r *symbolStore) ListActiveCodes(ctx context.Context) ([]string, error) {
	var codes []string
	if err := r.db.WithContext(ctx).
		Model(&SymbolModel{}).
		Where(map[string]any{"is_active": true}).
		Order("sort_key ASC").
		Order("code ASC").
		Pluck("code", &codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

// UpsertBatch は銘柄を code 単位で挿入または更新します。
func (r *symbolStore) UpsertBatch(ctx context.Context, symbols []entity.Symbol) error {
	if len(symbols) == 0 {
		return nil
	}
	ms := make([]SymbolModel, 0, len(symbols))
	for _, s := range symbols {
		ms = append(ms, SymbolModel{
			Code:     s.Code,
			Name:     s.Name,
			Market:   s.Market,
			IsActive: s.IsActive,
			SortKey:  s.SortKey,
		})
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "market", "is_active", "sort_key", "updated_at"}),
	}).Create(&ms).Error
}
