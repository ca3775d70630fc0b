package catalog

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memCategoryStore struct {
	nextID int64
	rows   map[int64]*Category
}

func newMemCategoryStore() *memCategoryStore {
	return &memCategoryStore{rows: make(map[int64]*Category)}
}

func (s *memCategoryStore) ByID(_ context.Context, id int64) (*Category, error) {
	c, ok := s.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *memCategoryStore) ByName(_ context.Context, name string) (*Category, error) {
	ids := make([]int64, 0, len(s.rows))
	for id := range s.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if s.rows[id].Name == name {
			cp := *s.rows[id]
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memCategoryStore) Create(_ context.Context, name string, parentID *int64) (*Category, error) {
	s.nextID++
	c := &Category{ID: s.nextID, Name: name, ParentID: parentID}
	s.rows[c.ID] = c
	cp := *c
	return &cp, nil
}

func (s *memCategoryStore) count() int {
	return len(s.rows)
}

type memPriceStore struct {
	nextID int64
	rows   []Price
}

func (s *memPriceStore) Latest(_ context.Context, asin string) (*Price, error) {
	for i := len(s.rows) - 1; i >= 0; i-- {
		if s.rows[i].ProductASIN == asin {
			cp := s.rows[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memPriceStore) Insert(_ context.Context, asin string, amount decimal.Decimal) (*Price, error) {
	s.nextID++
	row := Price{
		ID:          s.nextID,
		ProductASIN: asin,
		Amount:      amount,
		CreatedAt:   time.Now(),
	}
	s.rows = append(s.rows, row)
	return &row, nil
}

func (s *memPriceStore) History(_ context.Context, asin string) ([]Price, error) {
	var out []Price
	for i := len(s.rows) - 1; i >= 0; i-- {
		if s.rows[i].ProductASIN == asin {
			out = append(out, s.rows[i])
		}
	}
	return out, nil
}
