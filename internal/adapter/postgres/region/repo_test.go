package region_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrimatrix/mandi-prices/internal/adapter/postgres/region"
	"github.com/agrimatrix/mandi-prices/internal/adapter/postgres/testhelper"
	"github.com/agrimatrix/mandi-prices/internal/domain"
)

// newRepo is a test helper that sets up the DB and returns a ready Repo.
func newRepo(t *testing.T) (*region.Repo, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return region.New(pool), pool
}

func uniqueName(prefix string) string {
	return prefix + "-" + uuid.New().String()[:8]
}

// ---------------------------------------------------------------------------
// ResolveState
// ---------------------------------------------------------------------------

func TestRepo_ResolveState_CreatesOnFirstUse(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	name := uniqueName("Karnataka")

	id, err := repo.ResolveState(ctx, name)
	if err != nil {
		t.Fatalf("ResolveState: unexpected error: %v", err)
	}
	if id == 0 {
		t.Fatal("ResolveState: expected non-zero id")
	}
}

func TestRepo_ResolveState_StableAcrossCalls(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	name := uniqueName("Punjab")

	first, err := repo.ResolveState(ctx, name)
	if err != nil {
		t.Fatalf("ResolveState first: %v", err)
	}

	// Re-resolving (including with surrounding whitespace) must return the
	// same id, never a new row.
	second, err := repo.ResolveState(ctx, "  "+name+"  ")
	if err != nil {
		t.Fatalf("ResolveState second: %v", err)
	}
	if first != second {
		t.Errorf("ids differ across calls: %d vs %d", first, second)
	}
}

func TestRepo_ResolveState_Concurrent(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	name := uniqueName("Maharashtra")

	const workers = 10
	ids := make([]int64, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids[i], errs[i] = repo.ResolveState(ctx, name)
		}()
	}
	wg.Wait()

	for i := range workers {
		if errs[i] != nil {
			t.Fatalf("ResolveState[%d]: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("concurrent resolves diverged: ids = %v", ids)
		}
	}
}

func TestRepo_ResolveState_EmptyName(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)

	_, err := repo.ResolveState(context.Background(), "   ")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("ResolveState: error = %v, want ErrValidation", err)
	}
}

// ---------------------------------------------------------------------------
// ResolveDistrict / ResolveMarket
// ---------------------------------------------------------------------------

func TestRepo_ResolveDistrict_ScopedToState(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	stateA, err := repo.ResolveState(ctx, uniqueName("StateA"))
	if err != nil {
		t.Fatalf("ResolveState A: %v", err)
	}
	stateB, err := repo.ResolveState(ctx, uniqueName("StateB"))
	if err != nil {
		t.Fatalf("ResolveState B: %v", err)
	}

	// The same district name under different states yields distinct rows.
	name := uniqueName("Nagpur")
	inA, err := repo.ResolveDistrict(ctx, stateA, name)
	if err != nil {
		t.Fatalf("ResolveDistrict in A: %v", err)
	}
	inB, err := repo.ResolveDistrict(ctx, stateB, name)
	if err != nil {
		t.Fatalf("ResolveDistrict in B: %v", err)
	}
	if inA == inB {
		t.Errorf("district ids must differ across states, both = %d", inA)
	}

	again, err := repo.ResolveDistrict(ctx, stateA, name)
	if err != nil {
		t.Fatalf("ResolveDistrict again: %v", err)
	}
	if again != inA {
		t.Errorf("re-resolve returned %d, want %d", again, inA)
	}
}

func TestRepo_ResolveMarket_UnknownDistrict(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)

	_, err := repo.ResolveMarket(context.Background(), 999999999, uniqueName("Ghost"))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("ResolveMarket: error = %v, want ErrNotFound (FK violation)", err)
	}
}

func TestRepo_ResolveHierarchy(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	stateID, err := repo.ResolveState(ctx, uniqueName("Karnataka"))
	if err != nil {
		t.Fatalf("ResolveState: %v", err)
	}
	districtID, err := repo.ResolveDistrict(ctx, stateID, uniqueName("Bangalore"))
	if err != nil {
		t.Fatalf("ResolveDistrict: %v", err)
	}
	marketID, err := repo.ResolveMarket(ctx, districtID, uniqueName("Binny Mill"))
	if err != nil {
		t.Fatalf("ResolveMarket: %v", err)
	}
	if marketID == 0 {
		t.Fatal("expected non-zero market id")
	}
}

// ---------------------------------------------------------------------------
// ListStates / ListMarkets
// ---------------------------------------------------------------------------

func TestRepo_ListStates_ContainsResolved(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	name := uniqueName("Kerala")
	id, err := repo.ResolveState(ctx, name)
	if err != nil {
		t.Fatalf("ResolveState: %v", err)
	}

	states, err := repo.ListStates(ctx)
	if err != nil {
		t.Fatalf("ListStates: %v", err)
	}

	found := false
	for _, s := range states {
		if s.ID == id && s.Name == name {
			found = true
		}
	}
	if !found {
		t.Errorf("ListStates does not contain %q (id %d)", name, id)
	}
}

func TestRepo_ListMarkets_FilterByState(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	stateName := uniqueName("Gujarat")
	stateID, err := repo.ResolveState(ctx, stateName)
	if err != nil {
		t.Fatalf("ResolveState: %v", err)
	}
	districtID, err := repo.ResolveDistrict(ctx, stateID, uniqueName("Rajkot"))
	if err != nil {
		t.Fatalf("ResolveDistrict: %v", err)
	}
	marketName := uniqueName("Rajkot Yard")
	if _, err := repo.ResolveMarket(ctx, districtID, marketName); err != nil {
		t.Fatalf("ResolveMarket: %v", err)
	}

	// Case-insensitive state filter.
	markets, err := repo.ListMarkets(ctx, "  "+stateName+" ", "", 100, 0)
	if err != nil {
		t.Fatalf("ListMarkets: %v", err)
	}
	if len(markets) != 1 {
		t.Fatalf("len(markets) = %d, want 1", len(markets))
	}
	if markets[0].Name != marketName || markets[0].State != stateName {
		t.Errorf("unexpected market row: %+v", markets[0])
	}

	none, err := repo.ListMarkets(ctx, uniqueName("NoSuchState"), "", 100, 0)
	if err != nil {
		t.Fatalf("ListMarkets empty: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no markets for unknown state, got %d", len(none))
	}
}
