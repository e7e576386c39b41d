package importer

import (
	"context"

	"github.com/catalogkit/attrimport/internal/catalog"
)

// applyStoreLabels merges the row's label_{storeCode} cells into the
// attribute's store-scoped labels. Existing labels for stores the row does
// not mention are kept; overridden stores are replaced. The save is skipped
// when the merged set is identical to what is already stored.
func (r *Runner) applyStoreLabels(ctx context.Context, v rowView, code string, res *Result) {
	cells := v.storeLabelCells()
	if len(cells) == 0 {
		return
	}

	updates := make(map[int64]string)
	var order []int64
	for _, sc := range cells {
		id, ok := r.stores.resolve(ctx, sc.StoreCode)
		if !ok {
			r.log.Debug("ignoring label column for unknown store",
				"line", v.line(), "store_code", sc.StoreCode)
			continue
		}
		if _, dup := updates[id]; !dup {
			order = append(order, id)
		}
		updates[id] = sc.Value
	}
	if len(updates) == 0 {
		return
	}

	current, err := r.store.AttributeLabels(ctx, code)
	if err != nil {
		r.log.Error("failed to read store labels",
			"line", v.line(), "attribute_code", code, "error", err)
		res.Errors++
		return
	}

	currentByID := make(map[int64]string, len(current))
	for _, l := range current {
		currentByID[l.StoreID] = l.Label
	}

	changed := false
	for id, label := range updates {
		if cur, ok := currentByID[id]; !ok || cur != label {
			changed = true
			break
		}
	}
	if !changed {
		r.log.Debug("store labels unchanged, skipping save",
			"line", v.line(), "attribute_code", code)
		return
	}

	merged := make([]catalog.StoreLabel, 0, len(current)+len(updates))
	for _, l := range current {
		if _, overridden := updates[l.StoreID]; overridden {
			continue
		}
		merged = append(merged, l)
	}
	for _, id := range order {
		merged = append(merged, catalog.StoreLabel{StoreID: id, Label: updates[id]})
	}

	if err := r.store.SetAttributeLabels(ctx, code, merged); err != nil {
		r.log.Error("failed to save store labels",
			"line", v.line(), "attribute_code", code, "error", err)
		res.Errors++
	}
}
