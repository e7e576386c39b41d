package importer

import (
	"context"
	"errors"
	"strconv"

	"github.com/catalogkit/attrimport/internal/catalog"
	"github.com/catalogkit/attrimport/internal/csvfile"
	"github.com/catalogkit/attrimport/internal/normalize"
)

// defaultSetKey is the protected attribute-set name; the set is never
// deleted regardless of how the CSV spells it.
const defaultSetKey = "default"

// assignToSets attaches the attribute to every set named in the row, or to
// the default set when the attribute_set cell is blank. Sets and groups are
// created on demand.
func (r *Runner) assignToSets(ctx context.Context, v rowView, code string, res *Result) {
	idents := csvfile.ParseList(v.cell(colAttributeSet))
	orders := csvfile.ParseList(v.cell(colSetOrder))
	if len(orders) > 1 && len(orders) != len(idents) {
		r.log.Debug("attribute_set_order count does not match attribute_set count",
			"line", v.line(), "sets", len(idents), "orders", len(orders))
	}

	groupName := v.cell(colGroup)
	groupOrder, hasGroupOrder := parseOrder(v.cell(colGroupOrder))
	if !hasGroupOrder {
		groupOrder = 0
	}

	var rowOrder *int
	if n, ok := parseOrder(v.cell(colSortOrder)); ok {
		rowOrder = &n
	}

	// orderFor resolves the attachment sort order for the i-th set: a
	// single attribute_set_order value applies to every set, multiple
	// values map positionally, and the plain sort_order cell is the
	// fallback.
	orderFor := func(i int) *int {
		var cell string
		switch {
		case len(orders) == 1:
			cell = orders[0]
		case i < len(orders):
			cell = orders[i]
		}
		if n, ok := parseOrder(cell); ok {
			return &n
		}
		return rowOrder
	}

	if len(idents) == 0 {
		set, err := r.store.DefaultSet(ctx)
		if err != nil {
			r.log.Error("failed to resolve default attribute set",
				"line", v.line(), "attribute_code", code, "error", err)
			res.Errors++
			return
		}
		r.attachToSet(ctx, v, code, set, groupName, groupOrder, orderFor(0), res)
		return
	}

	seen := make(map[int64]bool)
	for i, ident := range idents {
		set := r.resolveOrCreateSet(ctx, v, ident, res)
		if set == nil {
			continue
		}
		if seen[set.ID] {
			continue
		}
		seen[set.ID] = true
		r.attachToSet(ctx, v, code, set, groupName, groupOrder, orderFor(i), res)
	}
}

// resolveOrCreateSet resolves a name-or-numeric-id set identifier. Missing
// names are created; a missing numeric id cannot be and is skipped with a
// warning.
func (r *Runner) resolveOrCreateSet(ctx context.Context, v rowView, ident string, res *Result) *catalog.AttributeSet {
	if allDigits(ident) {
		id, _ := strconv.ParseInt(ident, 10, 64)
		set, err := r.store.SetByID(ctx, id)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				r.log.Warn("attribute set id does not exist, skipping",
					"line", v.line(), "set_id", id)
				return nil
			}
			r.log.Error("attribute set lookup failed",
				"line", v.line(), "set_id", id, "error", err)
			res.Errors++
			return nil
		}
		return set
	}

	set, err := r.store.SetByName(ctx, ident)
	if err == nil {
		return set
	}
	if !errors.Is(err, catalog.ErrNotFound) {
		r.log.Error("attribute set lookup failed",
			"line", v.line(), "set", ident, "error", err)
		res.Errors++
		return nil
	}

	set, err = r.store.CreateSet(ctx, ident)
	if err != nil {
		r.log.Error("failed to create attribute set",
			"line", v.line(), "set", ident, "error", err)
		res.Errors++
		return nil
	}
	r.log.Debug("created attribute set", "line", v.line(), "set", ident, "set_id", set.ID)
	return set
}

// attachToSet resolves the target group within the set and attaches the
// attribute. Group resolution falls back to the set's default group when
// the named group cannot be found or created.
func (r *Runner) attachToSet(ctx context.Context, v rowView, code string, set *catalog.AttributeSet, groupName string, groupOrder int, sortOrder *int, res *Result) {
	var group *catalog.Group
	var err error

	if groupName == "" {
		group, err = r.store.DefaultGroup(ctx, set.ID)
	} else {
		group = r.getOrCreateGroup(ctx, v, set, groupName, groupOrder)
		if group == nil {
			group, err = r.store.DefaultGroup(ctx, set.ID)
		}
	}
	if err != nil {
		r.log.Error("failed to resolve attribute group",
			"line", v.line(), "attribute_code", code, "set", set.Name, "error", err)
		res.Errors++
		return
	}

	if err := r.store.AssignAttribute(ctx, set.ID, group.ID, code, sortOrder); err != nil {
		r.log.Error("failed to assign attribute to set",
			"line", v.line(), "attribute_code", code, "set", set.Name, "error", err)
		res.Errors++
	}
}

func (r *Runner) getOrCreateGroup(ctx context.Context, v rowView, set *catalog.AttributeSet, name string, sortOrder int) *catalog.Group {
	group, err := r.store.GroupByName(ctx, set.ID, name)
	if err == nil {
		return group
	}
	if !errors.Is(err, catalog.ErrNotFound) {
		r.log.Debug("group lookup failed, falling back to default group",
			"line", v.line(), "set", set.Name, "group", name, "error", err)
		return nil
	}

	group, err = r.store.CreateGroup(ctx, set.ID, name, sortOrder)
	if err != nil {
		r.log.Debug("group creation failed, falling back to default group",
			"line", v.line(), "set", set.Name, "group", name, "error", err)
		return nil
	}
	r.log.Debug("created attribute group",
		"line", v.line(), "set", set.Name, "group", name, "group_id", group.ID)
	return group
}

// deleteSets handles the attribute-set import mode: every unique set named
// anywhere in the file is deleted, except the protected default set.
// Nonexistent sets are skipped without counting as errors.
func (r *Runner) deleteSets(ctx context.Context, tbl *csvfile.Table, res *Result) {
	var idents []string
	seen := make(map[string]bool)
	for _, row := range tbl.Rows() {
		for _, ident := range csvfile.ParseList(tbl.Cell(row, colAttributeSet)) {
			key := normalize.Key(ident)
			if seen[key] {
				continue
			}
			seen[key] = true
			idents = append(idents, ident)
		}
	}

	for _, ident := range idents {
		if normalize.Key(ident) == defaultSetKey {
			r.log.Warn("default attribute set is protected, skipping", "set", ident)
			res.Skipped++
			continue
		}

		var set *catalog.AttributeSet
		var err error
		if allDigits(ident) {
			var id int64
			id, _ = strconv.ParseInt(ident, 10, 64)
			set, err = r.store.SetByID(ctx, id)
		} else {
			set, err = r.store.SetByName(ctx, ident)
		}
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				r.log.Info("attribute set does not exist, skipping", "set", ident)
				res.Skipped++
				continue
			}
			r.log.Error("attribute set lookup failed", "set", ident, "error", err)
			res.Errors++
			continue
		}

		// A numeric id can still point at the default set.
		if normalize.Key(set.Name) == defaultSetKey {
			r.log.Warn("default attribute set is protected, skipping", "set", set.Name)
			res.Skipped++
			continue
		}

		if err := r.store.DeleteSet(ctx, set.ID); err != nil {
			r.log.Error("failed to delete attribute set",
				"set", set.Name, "set_id", set.ID, "error", err)
			res.Errors++
			continue
		}
		res.Deleted++
		r.log.Info("deleted attribute set", "set", set.Name, "set_id", set.ID)
	}
}
