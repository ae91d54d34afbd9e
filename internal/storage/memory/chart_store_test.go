package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"kundali-lab/internal/domain"
	"kundali-lab/internal/storage"
)

func newRecord(id string) *domain.ChartRecord {
	return &domain.ChartRecord{
		ChartID:    id,
		ShortID:    "s-" + id,
		Name:       "Asha",
		BirthUTCMs: 836456400000,
		Latitude:   27.56,
		Longitude:  80.67,
		TZOffset:   5.5,
		Depth:      2,
		Payload:    []byte(`{"name":"Asha"}`),
	}
}

func TestChartStore_InsertAndGet(t *testing.T) {
	store := NewChartStore()
	ctx := context.Background()

	rec := newRecord("chart1")
	if err := store.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "chart1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "Asha" || got.TZOffset != 5.5 || got.Depth != 2 {
		t.Errorf("record mismatch: %+v", got)
	}
	if got.CreatedAt == 0 {
		t.Error("CreatedAt should be set by the store")
	}

	byShort, err := store.GetByShortID(ctx, "s-chart1")
	if err != nil {
		t.Fatalf("GetByShortID failed: %v", err)
	}
	if byShort.ChartID != "chart1" {
		t.Errorf("ChartID mismatch: got %s", byShort.ChartID)
	}
}

func TestChartStore_DuplicateKey(t *testing.T) {
	store := NewChartStore()
	ctx := context.Background()

	if err := store.Insert(ctx, newRecord("chart1")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	err := store.Insert(ctx, newRecord("chart1"))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}

	sameShort := newRecord("chart2")
	sameShort.ShortID = "s-chart1"
	err = store.Insert(ctx, sameShort)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey for short id, got %v", err)
	}
}

func TestChartStore_InvalidInput(t *testing.T) {
	store := NewChartStore()
	ctx := context.Background()

	for _, r := range []*domain.ChartRecord{nil, {ShortID: "x"}, {ChartID: "x"}} {
		if err := store.Insert(ctx, r); !errors.Is(err, storage.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	}
}

func TestChartStore_NotFound(t *testing.T) {
	store := NewChartStore()
	ctx := context.Background()

	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetByShortID(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestChartStore_CopyOnReadAndWrite(t *testing.T) {
	store := NewChartStore()
	ctx := context.Background()

	rec := newRecord("chart1")
	if err := store.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	rec.Name = "mutated"
	rec.Payload[0] = 'X'

	got, _ := store.GetByID(ctx, "chart1")
	if got.Name != "Asha" || got.Payload[0] != '{' {
		t.Errorf("stored record was mutated through caller pointer: %+v", got)
	}

	got.Payload[0] = 'Y'
	again, _ := store.GetByID(ctx, "chart1")
	if again.Payload[0] != '{' {
		t.Error("stored payload was mutated through returned record")
	}
}

func TestChartStore_ListRecent(t *testing.T) {
	store := NewChartStore()
	store.now = func() int64 { return 1000 } // force identical wall clock
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := store.Insert(ctx, newRecord(fmt.Sprintf("chart%d", i))); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := store.ListRecent(ctx, 3)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	want := []string{"chart4", "chart3", "chart2"}
	for i, r := range got {
		if r.ChartID != want[i] {
			t.Errorf("position %d: got %s, want %s", i, r.ChartID, want[i])
		}
	}

	if _, err := store.ListRecent(ctx, 0); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
