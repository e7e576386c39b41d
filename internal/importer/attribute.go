package importer

import (
	"context"
	"errors"
	"strings"

	"github.com/catalogkit/attrimport/internal/catalog"
	"github.com/catalogkit/attrimport/internal/normalize"
)

// processAttributeRow runs the full reconciliation sequence for one row:
// existence lookup, behavior dispatch, payload build with inheritance,
// option planning, save, and the post-save steps (defaults, store labels,
// set assignment). Failures are counted and logged; the row never aborts
// the run.
func (r *Runner) processAttributeRow(ctx context.Context, v rowView, res *Result) {
	code := v.code()
	if code == "" {
		r.log.Error("row has no attribute_code", "line", v.line())
		res.Errors++
		return
	}

	existing, err := r.store.Attribute(ctx, code)
	if err != nil {
		if !errors.Is(err, catalog.ErrNotFound) {
			r.log.Error("attribute lookup failed",
				"line", v.line(), "attribute_code", code, "error", err)
			res.Errors++
			return
		}
		existing = nil
	}

	switch r.opts.Behavior {
	case BehaviorDelete:
		if existing == nil {
			r.log.Warn("attribute does not exist, nothing to delete",
				"line", v.line(), "attribute_code", code)
			res.Skipped++
			return
		}
		if err := r.store.DeleteAttribute(ctx, code); err != nil {
			r.log.Error("failed to delete attribute",
				"line", v.line(), "attribute_code", code, "error", err)
			res.Errors++
			return
		}
		res.Deleted++
		return

	case BehaviorAdd:
		if existing != nil {
			r.log.Warn("attribute already exists, skipping",
				"line", v.line(), "attribute_code", code)
			res.Skipped++
			return
		}
	}

	// BehaviorUpdate acts as upsert: create when absent, modify when
	// present.
	r.saveAttributeRow(ctx, v, code, existing, res)
}

func (r *Runner) saveAttributeRow(ctx context.Context, v rowView, code string, existing *catalog.Attribute, res *Result) {
	fields := v.scalarFields()
	if applyTo := joinApplyTo(v.cell(colApplyTo)); applyTo != "" {
		fields[colApplyTo] = applyTo
	}

	data := catalog.AttributeData{
		Code:          code,
		FrontendInput: take(fields, colInput),
		DefaultLabel:  take(fields, colLabel),
		DefaultValue:  take(fields, colDefault),
		BackendModel:  take(fields, colBackendModel),
		Fields:        fields,
	}

	// Blank row fields inherit from the stored entity so an update row
	// can touch a single column without wiping the rest.
	if existing != nil {
		if data.FrontendInput == "" {
			data.FrontendInput = existing.FrontendInput
		}
		if data.DefaultValue == "" {
			data.DefaultValue = existing.DefaultValue
		}
		if data.DefaultLabel == "" {
			data.DefaultLabel = existing.DefaultLabel
		}
	}

	input := strings.ToLower(data.FrontendInput)

	// A changed input type makes the stored option ids meaningless for the
	// new type. Warn unconditionally and rebuild options from the row.
	typeChanged := existing != nil &&
		v.cell(colInput) != "" && existing.FrontendInput != "" &&
		!strings.EqualFold(v.cell(colInput), existing.FrontendInput)
	if typeChanged {
		r.log.Warn("input type change invalidates existing option ids",
			"line", v.line(), "attribute_code", code,
			"from", existing.FrontendInput, "to", data.FrontendInput)
	}

	optionable := r.optionsApply(v, input)
	var plan []optionEntry
	if optionable {
		plan = r.buildOptionPlan(ctx, v)
	}

	replaced := false
	if existing != nil && len(plan) > 0 && normalize.Key(v.cell(colOptionStrategy)) == strategyReplace {
		if err := r.store.DeleteAllOptions(ctx, code); err != nil {
			r.log.Error("failed to delete existing options for replace strategy",
				"line", v.line(), "attribute_code", code, "error", err)
			res.Errors++
		}
		// Proceed as if the attribute had no prior options even when the
		// delete failed; the row philosophy is best-effort, no rollback.
		replaced = true
	}

	// New attributes, replaced option sets, and type changes all take the
	// create path: the plan is embedded in the definition save. A type
	// change additionally re-runs the merge path afterwards (two-phase
	// rebuild) so duplicate suppression sees the fresh option set instead
	// of the stale pre-change ids.
	createSide := existing == nil || replaced || typeChanged
	if createSide {
		data.Options = optionInputs(plan)
	}

	if input == inputMultiselect && data.BackendModel == "" {
		data.BackendModel = catalog.ArrayBackendModel
	}

	if err := r.store.SaveAttribute(ctx, data); err != nil {
		r.log.Error("failed to save attribute",
			"line", v.line(), "attribute_code", code, "error", err)
		res.Errors++
		return
	}
	if existing != nil {
		res.Updated++
	} else {
		res.Added++
	}

	// Post-save steps run independently; a failure in one is counted but
	// the rest still execute. The row already counts as added/updated
	// because the definition save succeeded.
	if len(plan) > 0 && (!createSide || typeChanged) {
		r.addMissingOptions(ctx, v, code, plan, res)
	}
	if optionable {
		r.resolveDefault(ctx, v, code, input, data.DefaultValue, plan, res)
	}
	r.applyStoreLabels(ctx, v, code, res)
	r.assignToSets(ctx, v, code, res)
}

// take removes key from the map and returns its value.
func take(m map[string]string, key string) string {
	v := m[key]
	delete(m, key)
	return v
}
