package importer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/catalogkit/attrimport/internal/catalog"
)

// storeResolver caches store-code lookups for the duration of one run.
// Negative results are cached too so an unknown code in every row costs a
// single lookup. The cache is never invalidated mid-run.
type storeResolver struct {
	views catalog.StoreViews
	ids   map[string]int64
	miss  map[string]bool
}

func newStoreResolver(views catalog.StoreViews) *storeResolver {
	return &storeResolver{
		views: views,
		ids:   make(map[string]int64),
		miss:  make(map[string]bool),
	}
}

// resolve returns the store id for a code. Unknown codes and lookup
// failures both report ok=false; the caller decides whether that is worth a
// diagnostic.
func (r *storeResolver) resolve(ctx context.Context, code string) (int64, bool) {
	if id, ok := r.ids[code]; ok {
		return id, true
	}
	if r.miss[code] {
		return 0, false
	}

	id, err := r.views.StoreID(ctx, code)
	if err != nil {
		if !errors.Is(err, catalog.ErrNotFound) {
			slog.Debug("store lookup failed", "store_code", code, "error", err)
		}
		r.miss[code] = true
		return 0, false
	}

	r.ids[code] = id
	return id, true
}
