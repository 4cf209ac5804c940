// Package usecase implements the business logic for symbol-related operations.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stock_chart/internal/feature/symbollist/domain/entity"
)

// ErrEmptyCode is returned when a seeded symbol has no code.
var ErrEmptyCode = errors.New("symbol code is empty")

// SymbolRepository abstracts the persistence layer for symbol (stock ticker) data.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type SymbolRepository interface {
	ListActive(ctx context.Context, market string) ([]entity.Symbol, error)
	ListActiveCodes(ctx context.Context) ([]string, error)
	UpsertBatch(ctx context.Context, symbols []entity.Symbol) error
}

// SymbolUsecase provides business logic for symbol operations.
type SymbolUsecase struct {
	repo SymbolRepository
}

// NewSymbolUsecase creates a new SymbolUsecase with the given repository.
func NewSymbolUsecase(r SymbolRepository) *SymbolUsecase {
	return &SymbolUsecase{repo: r}
}

// ListActiveSymbols returns active symbols, optionally restricted to one market.
func (u *SymbolUsecase) ListActiveSymbols(ctx context.Context, market string) ([]entity.Symbol, error) {
	return u.repo.ListActive(ctx, strings.TrimSpace(market))
}

// ListActiveCodes returns the codes of all active symbols in display order.
func (u *SymbolUsecase) ListActiveCodes(ctx context.Context) ([]string, error) {
	return u.repo.ListActiveCodes(ctx)
}

// SeedSymbols は設定ファイル等で与えられた銘柄を有効な状態で登録します。
// コードは前後の空白を除去し、重複は先勝ちで除きます。SortKey が 0 の銘柄には並び順を割り当てます。
func (u *SymbolUsecase) SeedSymbols(ctx context.Context, symbols []entity.Symbol) (int, error) {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]entity.Symbol, 0, len(symbols))
	for i, s := range symbols {
		s.Code = strings.TrimSpace(s.Code)
		if s.Code == "" {
			return 0, fmt.Errorf("symbol #%d: %w", i, ErrEmptyCode)
		}
		if _, dup := seen[s.Code]; dup {
			continue
		}
		seen[s.Code] = struct{}{}
		if s.Name == "" {
			s.Name = s.Code
		}
		if s.SortKey == 0 {
			s.SortKey = i + 1
		}
		s.IsActive = true
		out = append(out, s)
	}
	if err := u.repo.UpsertBatch(ctx, out); err != nil {
		return 0, err
	}
	return len(out), nil
}
