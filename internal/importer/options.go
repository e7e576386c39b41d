package importer

import (
	"context"
	"strconv"
	"strings"

	"github.com/catalogkit/attrimport/internal/catalog"
	"github.com/catalogkit/attrimport/internal/csvfile"
	"github.com/catalogkit/attrimport/internal/normalize"
)

const (
	inputSelect      = "select"
	inputMultiselect = "multiselect"

	strategyReplace = "replace"

	// syntheticOrderStep spaces out options that carry no explicit
	// option_order value, leaving room for manual reordering later.
	syntheticOrderStep = 10
)

// optionEntry is one planned option for the current row: the admin label,
// its identity key, per-store overrides, and the resolved sort order.
// Entries are row-scoped and never persisted directly.
type optionEntry struct {
	Key         string
	Label       string
	SortOrder   int
	StoreLabels map[int64]string
}

// optionsApply reports whether option handling runs for this row at all.
// A source model disables it: the source supplies the values, so option
// cells would fight it.
func (r *Runner) optionsApply(v rowView, input string) bool {
	if input != inputSelect && input != inputMultiselect {
		return false
	}
	if v.cell(colSource) != "" {
		if v.cell(colOption) != "" {
			r.log.Warn("row sets both source and option; source wins, options dropped",
				"line", v.line(), "attribute_code", v.code())
		}
		return false
	}
	return true
}

// buildOptionPlan turns the row's option cells into the ordered,
// de-duplicated option plan. Returns nil when the row carries no usable
// options.
func (r *Runner) buildOptionPlan(ctx context.Context, v rowView) []optionEntry {
	optionCell := v.cell(colOption)
	if optionCell == "" {
		return nil
	}
	baseRaw := csvfile.ParseListRaw(optionCell)

	// Store-scoped option lists, in column order, aligned by raw position
	// to the base list. Columns for unknown store codes are dropped.
	type scopedList struct {
		storeCode string
		storeID   int64
		values    []string
	}
	var scoped []scopedList
	for _, sc := range v.storeOptionCells() {
		id, ok := r.stores.resolve(ctx, sc.StoreCode)
		if !ok {
			r.log.Debug("ignoring option column for unknown store",
				"line", v.line(), "store_code", sc.StoreCode)
			continue
		}
		scoped = append(scoped, scopedList{
			storeCode: sc.StoreCode,
			storeID:   id,
			values:    csvfile.ParseListRaw(sc.Value),
		})
	}

	var entries []optionEntry
	seen := make(map[string]bool)
	for i, base := range baseRaw {
		label := base
		if label == "" {
			// Promote the first non-empty scoped label at this position.
			for _, sl := range scoped {
				if i < len(sl.values) && sl.values[i] != "" {
					label = sl.values[i]
					r.log.Warn("option has no base label, promoting store label",
						"line", v.line(), "position", i+1,
						"store_code", sl.storeCode, "label", label)
					break
				}
			}
		}
		if label == "" {
			r.log.Debug("skipping empty option entry", "line", v.line(), "position", i+1)
			continue
		}

		key := normalize.Key(label)
		if seen[key] {
			r.log.Debug("duplicate option label dropped",
				"line", v.line(), "label", label)
			continue
		}
		seen[key] = true

		entry := optionEntry{Key: key, Label: label, StoreLabels: make(map[int64]string)}
		for _, sl := range scoped {
			if i < len(sl.values) && sl.values[i] != "" {
				entry.StoreLabels[sl.storeID] = sl.values[i]
			}
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil
	}

	assignSortOrders(entries, baseRaw, v.cell(colOptionOrder))
	return entries
}

// assignSortOrders resolves each entry's sort order from the option_order
// cell. Order values align positionally with the raw, pre-dedup option
// list; each normalized label takes the value at its first occurrence.
// Entries left without an order get max(resolved)+10, +20, ... in plan
// order.
func assignSortOrders(entries []optionEntry, baseRaw []string, orderCell string) {
	orderByKey := make(map[string]int)
	if orderCell != "" {
		orderVals := csvfile.ParseListRaw(orderCell)
		for i, base := range baseRaw {
			if base == "" {
				continue
			}
			key := normalize.Key(base)
			if _, ok := orderByKey[key]; ok {
				continue
			}
			if i < len(orderVals) {
				if n, ok := parseOrder(orderVals[i]); ok {
					orderByKey[key] = n
				}
			}
		}
	}

	maxOrder := 0
	resolved := make([]bool, len(entries))
	for i := range entries {
		if n, ok := orderByKey[entries[i].Key]; ok {
			entries[i].SortOrder = n
			resolved[i] = true
			if n > maxOrder {
				maxOrder = n
			}
		}
	}

	missing := 0
	for i := range entries {
		if !resolved[i] {
			missing++
			entries[i].SortOrder = maxOrder + syntheticOrderStep*missing
		}
	}
}

// optionInputs converts plan entries into the store's create payload form.
func optionInputs(entries []optionEntry) []catalog.OptionInput {
	if len(entries) == 0 {
		return nil
	}
	inputs := make([]catalog.OptionInput, 0, len(entries))
	for _, e := range entries {
		inputs = append(inputs, catalog.OptionInput{
			Label:       e.Label,
			SortOrder:   e.SortOrder,
			StoreLabels: e.StoreLabels,
		})
	}
	return inputs
}

// addMissingOptions runs the merge path against an existing attribute:
// planned options whose identity already exists are suppressed, the rest
// are added one by one. A failed add is counted and skipped; earlier adds
// stay committed.
func (r *Runner) addMissingOptions(ctx context.Context, v rowView, code string, entries []optionEntry, res *Result) {
	existing, err := r.store.Options(ctx, code)
	if err != nil {
		r.log.Error("failed to read existing options",
			"line", v.line(), "attribute_code", code, "error", err)
		res.Errors++
		return
	}

	have := make(map[string]bool, len(existing))
	for _, o := range existing {
		have[normalize.Key(o.Label)] = true
	}

	for _, e := range entries {
		if have[e.Key] {
			r.log.Debug("option already exists, skipping",
				"line", v.line(), "attribute_code", code, "label", e.Label)
			continue
		}
		if err := r.store.AddOption(ctx, code, catalog.OptionInput{
			Label:       e.Label,
			SortOrder:   e.SortOrder,
			StoreLabels: e.StoreLabels,
		}); err != nil {
			r.log.Error("failed to add option",
				"line", v.line(), "attribute_code", code, "label", e.Label, "error", err)
			res.Errors++
			continue
		}
	}
}

// resolveDefault maps the row's default cell onto option identifiers once
// the options exist, and persists the result when it differs from the
// current default. Values resolve as option ids first, then by normalized
// label, including store-scoped labels introduced by this same row.
// Unresolvable values are dropped, never fatal.
func (r *Runner) resolveDefault(ctx context.Context, v rowView, code, input, current string, entries []optionEntry, res *Result) {
	cell := v.cell(colDefault)
	if cell == "" {
		return
	}

	multi := strings.EqualFold(input, inputMultiselect)
	var values []string
	if multi {
		values = csvfile.ParseList(cell)
	} else {
		values = []string{cell}
	}

	opts, err := r.store.Options(ctx, code)
	if err != nil {
		r.log.Error("failed to read options for default resolution",
			"line", v.line(), "attribute_code", code, "error", err)
		res.Errors++
		return
	}

	idByKey := make(map[string]string, len(opts))
	idSet := make(map[string]bool, len(opts))
	labels := make([]string, 0, len(opts))
	for _, o := range opts {
		id := strconv.FormatInt(o.ID, 10)
		idSet[id] = true
		labels = append(labels, o.Label)
		key := normalize.Key(o.Label)
		if _, ok := idByKey[key]; !ok {
			idByKey[key] = id
		}
	}

	// Store-scoped labels from this row's plan alias the admin label key,
	// so a default written in a store view's language still resolves.
	aliasKey := make(map[string]string)
	for _, e := range entries {
		for _, sl := range e.StoreLabels {
			k := normalize.Key(sl)
			if _, ok := aliasKey[k]; !ok {
				aliasKey[k] = e.Key
			}
		}
	}

	var ids []string
	seen := make(map[string]bool)
	for _, val := range values {
		id := ""
		if allDigits(val) && idSet[val] {
			id = val
		} else {
			key := normalize.Key(val)
			if mapped, ok := idByKey[key]; ok {
				id = mapped
			} else if adminKey, ok := aliasKey[key]; ok {
				if mapped, ok := idByKey[adminKey]; ok {
					id = mapped
				}
			}
		}

		if id == "" {
			r.log.Warn("default value does not match any option",
				"line", v.line(), "attribute_code", code, "value", val)
			r.log.Debug("valid option labels", "attribute_code", code, "labels", labels)
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return
	}

	final := ids[0]
	if multi {
		final = strings.Join(ids, ",")
	}
	if final == current {
		return
	}

	if err := r.store.SetDefaultValue(ctx, code, final); err != nil {
		r.log.Error("failed to set default value",
			"line", v.line(), "attribute_code", code, "value", final, "error", err)
		res.Errors++
	}
}
