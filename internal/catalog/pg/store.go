// Package pg implements the catalog store on PostgreSQL.
//
// The schema is EAV-flavored: attribute definitions with a jsonb properties
// column for free-form scalar fields, option and label tables keyed by
// store scope (store 0 is the admin scope), and set/group membership
// tables. See schema.sql.
package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/catalogkit/attrimport/internal/catalog"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Store is the PostgreSQL-backed catalog store.
type Store struct {
	db DBTX
}

// New returns a Store over the given connection or pool.
func New(db DBTX) *Store {
	return &Store{db: db}
}

var _ catalog.Store = (*Store)(nil)

// Attribute implements catalog.AttributeStore.
func (s *Store) Attribute(ctx context.Context, code string) (*catalog.Attribute, error) {
	const q = `
		SELECT attribute_id, frontend_input, backend_model, default_value, default_label, properties
		FROM catalog_attribute
		WHERE attribute_code = $1`

	attr := &catalog.Attribute{Code: code}
	var props []byte
	err := s.db.QueryRow(ctx, q, code).Scan(
		&attr.ID, &attr.FrontendInput, &attr.BackendModel,
		&attr.DefaultValue, &attr.DefaultLabel, &props,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("query attribute %q: %w", code, err)
	}

	if len(props) > 0 {
		if err := json.Unmarshal(props, &attr.Fields); err != nil {
			return nil, fmt.Errorf("decode attribute properties for %q: %w", code, err)
		}
	}
	return attr, nil
}

// SaveAttribute implements catalog.AttributeStore. Empty input, backend
// model, and label fields leave the stored values untouched on update;
// properties merge key-wise.
func (s *Store) SaveAttribute(ctx context.Context, data catalog.AttributeData) error {
	props, err := json.Marshal(nonNil(data.Fields))
	if err != nil {
		return fmt.Errorf("encode attribute properties for %q: %w", data.Code, err)
	}

	const q = `
		INSERT INTO catalog_attribute
			(attribute_code, frontend_input, backend_model, default_value, default_label, properties)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (attribute_code) DO UPDATE SET
			frontend_input = COALESCE(NULLIF(EXCLUDED.frontend_input, ''), catalog_attribute.frontend_input),
			backend_model  = COALESCE(NULLIF(EXCLUDED.backend_model, ''), catalog_attribute.backend_model),
			default_value  = EXCLUDED.default_value,
			default_label  = COALESCE(NULLIF(EXCLUDED.default_label, ''), catalog_attribute.default_label),
			properties     = catalog_attribute.properties || EXCLUDED.properties
		RETURNING attribute_id`

	var attrID int64
	err = s.db.QueryRow(ctx, q,
		data.Code, data.FrontendInput, data.BackendModel,
		data.DefaultValue, data.DefaultLabel, props,
	).Scan(&attrID)
	if err != nil {
		return fmt.Errorf("save attribute %q: %w", data.Code, err)
	}

	for _, opt := range data.Options {
		if err := s.insertOption(ctx, attrID, opt); err != nil {
			return fmt.Errorf("save attribute %q: %w", data.Code, err)
		}
	}
	return nil
}

// DeleteAttribute implements catalog.AttributeStore. Options, labels, and
// set assignments go with it via foreign-key cascade.
func (s *Store) DeleteAttribute(ctx context.Context, code string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM catalog_attribute WHERE attribute_code = $1`, code)
	if err != nil {
		return fmt.Errorf("delete attribute %q: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// SetDefaultValue implements catalog.AttributeStore.
func (s *Store) SetDefaultValue(ctx context.Context, code, value string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE catalog_attribute SET default_value = $2 WHERE attribute_code = $1`, code, value)
	if err != nil {
		return fmt.Errorf("set default value for %q: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// Options implements catalog.AttributeStore.
func (s *Store) Options(ctx context.Context, code string) ([]catalog.Option, error) {
	const q = `
		SELECT o.option_id, COALESCE(l.label, ''), o.sort_order
		FROM catalog_attribute_option o
		JOIN catalog_attribute a ON a.attribute_id = o.attribute_id
		LEFT JOIN catalog_attribute_option_label l
			ON l.option_id = o.option_id AND l.store_id = 0
		WHERE a.attribute_code = $1
		ORDER BY o.sort_order, o.option_id`

	rows, err := s.db.Query(ctx, q, code)
	if err != nil {
		return nil, fmt.Errorf("query options for %q: %w", code, err)
	}
	defer rows.Close()

	var opts []catalog.Option
	for rows.Next() {
		var o catalog.Option
		if err := rows.Scan(&o.ID, &o.Label, &o.SortOrder); err != nil {
			return nil, fmt.Errorf("scan option for %q: %w", code, err)
		}
		opts = append(opts, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read options for %q: %w", code, err)
	}
	return opts, nil
}

// AddOption implements catalog.AttributeStore.
func (s *Store) AddOption(ctx context.Context, code string, opt catalog.OptionInput) error {
	attrID, err := s.attributeID(ctx, code)
	if err != nil {
		return err
	}
	if err := s.insertOption(ctx, attrID, opt); err != nil {
		return fmt.Errorf("add option to %q: %w", code, err)
	}
	return nil
}

func (s *Store) insertOption(ctx context.Context, attrID int64, opt catalog.OptionInput) error {
	var optionID int64
	err := s.db.QueryRow(ctx,
		`INSERT INTO catalog_attribute_option (attribute_id, sort_order) VALUES ($1, $2) RETURNING option_id`,
		attrID, opt.SortOrder,
	).Scan(&optionID)
	if err != nil {
		return fmt.Errorf("insert option: %w", err)
	}

	if _, err := s.db.Exec(ctx,
		`INSERT INTO catalog_attribute_option_label (option_id, store_id, label) VALUES ($1, $2, $3)`,
		optionID, catalog.AdminStoreID, opt.Label,
	); err != nil {
		return fmt.Errorf("insert option label: %w", err)
	}

	for storeID, label := range opt.StoreLabels {
		if storeID == catalog.AdminStoreID {
			continue
		}
		if _, err := s.db.Exec(ctx,
			`INSERT INTO catalog_attribute_option_label (option_id, store_id, label)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (option_id, store_id) DO UPDATE SET label = EXCLUDED.label`,
			optionID, storeID, label,
		); err != nil {
			return fmt.Errorf("insert option store label: %w", err)
		}
	}
	return nil
}

// DeleteAllOptions implements catalog.AttributeStore.
func (s *Store) DeleteAllOptions(ctx context.Context, code string) error {
	attrID, err := s.attributeID(ctx, code)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx,
		`DELETE FROM catalog_attribute_option WHERE attribute_id = $1`, attrID); err != nil {
		return fmt.Errorf("delete options for %q: %w", code, err)
	}
	return nil
}

// AttributeLabels implements catalog.AttributeStore.
func (s *Store) AttributeLabels(ctx context.Context, code string) ([]catalog.StoreLabel, error) {
	const q = `
		SELECT l.store_id, l.label
		FROM catalog_attribute_label l
		JOIN catalog_attribute a ON a.attribute_id = l.attribute_id
		WHERE a.attribute_code = $1 AND l.store_id <> 0
		ORDER BY l.store_id`

	rows, err := s.db.Query(ctx, q, code)
	if err != nil {
		return nil, fmt.Errorf("query labels for %q: %w", code, err)
	}
	defer rows.Close()

	var labels []catalog.StoreLabel
	for rows.Next() {
		var l catalog.StoreLabel
		if err := rows.Scan(&l.StoreID, &l.Label); err != nil {
			return nil, fmt.Errorf("scan label for %q: %w", code, err)
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read labels for %q: %w", code, err)
	}
	return labels, nil
}

// SetAttributeLabels implements catalog.AttributeStore. The stored
// store-scoped label set is replaced wholesale; the admin label lives on
// the attribute row and is untouched.
func (s *Store) SetAttributeLabels(ctx context.Context, code string, labels []catalog.StoreLabel) error {
	attrID, err := s.attributeID(ctx, code)
	if err != nil {
		return err
	}

	if _, err := s.db.Exec(ctx,
		`DELETE FROM catalog_attribute_label WHERE attribute_id = $1 AND store_id <> 0`, attrID); err != nil {
		return fmt.Errorf("clear labels for %q: %w", code, err)
	}

	for _, l := range labels {
		if l.StoreID == catalog.AdminStoreID {
			continue
		}
		if _, err := s.db.Exec(ctx,
			`INSERT INTO catalog_attribute_label (attribute_id, store_id, label) VALUES ($1, $2, $3)`,
			attrID, l.StoreID, l.Label,
		); err != nil {
			return fmt.Errorf("insert label for %q: %w", code, err)
		}
	}
	return nil
}

// SetByID implements catalog.SetStore.
func (s *Store) SetByID(ctx context.Context, id int64) (*catalog.AttributeSet, error) {
	set := &catalog.AttributeSet{ID: id}
	err := s.db.QueryRow(ctx,
		`SELECT name FROM catalog_attribute_set WHERE attribute_set_id = $1`, id).Scan(&set.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("query attribute set %d: %w", id, err)
	}
	return set, nil
}

// SetByName implements catalog.SetStore. Matching is case-insensitive.
func (s *Store) SetByName(ctx context.Context, name string) (*catalog.AttributeSet, error) {
	set := &catalog.AttributeSet{}
	err := s.db.QueryRow(ctx,
		`SELECT attribute_set_id, name FROM catalog_attribute_set WHERE LOWER(name) = LOWER($1)`,
		name).Scan(&set.ID, &set.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("query attribute set %q: %w", name, err)
	}
	return set, nil
}

// CreateSet implements catalog.SetStore. New sets get a default "General"
// group so attributes always have somewhere to land.
func (s *Store) CreateSet(ctx context.Context, name string) (*catalog.AttributeSet, error) {
	set := &catalog.AttributeSet{Name: name}
	err := s.db.QueryRow(ctx,
		`INSERT INTO catalog_attribute_set (name) VALUES ($1) RETURNING attribute_set_id`,
		name).Scan(&set.ID)
	if err != nil {
		return nil, fmt.Errorf("create attribute set %q: %w", name, err)
	}

	if _, err := s.db.Exec(ctx,
		`INSERT INTO catalog_attribute_group (attribute_set_id, name, sort_order, is_default)
		 VALUES ($1, 'General', 1, true)`, set.ID); err != nil {
		return nil, fmt.Errorf("create default group for set %q: %w", name, err)
	}
	return set, nil
}

// DefaultSet implements catalog.SetStore.
func (s *Store) DefaultSet(ctx context.Context) (*catalog.AttributeSet, error) {
	set, err := s.SetByName(ctx, "Default")
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, fmt.Errorf("default attribute set is missing: %w", err)
		}
		return nil, err
	}
	return set, nil
}

// DeleteSet implements catalog.SetStore.
func (s *Store) DeleteSet(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM catalog_attribute_set WHERE attribute_set_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete attribute set %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// DefaultGroup implements catalog.SetStore.
func (s *Store) DefaultGroup(ctx context.Context, setID int64) (*catalog.Group, error) {
	g := &catalog.Group{SetID: setID}
	err := s.db.QueryRow(ctx,
		`SELECT group_id, name, sort_order FROM catalog_attribute_group
		 WHERE attribute_set_id = $1 AND is_default
		 ORDER BY group_id LIMIT 1`, setID).Scan(&g.ID, &g.Name, &g.SortOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("query default group for set %d: %w", setID, err)
	}
	return g, nil
}

// GroupByName implements catalog.SetStore. Matching is case-insensitive.
func (s *Store) GroupByName(ctx context.Context, setID int64, name string) (*catalog.Group, error) {
	g := &catalog.Group{SetID: setID}
	err := s.db.QueryRow(ctx,
		`SELECT group_id, name, sort_order FROM catalog_attribute_group
		 WHERE attribute_set_id = $1 AND LOWER(name) = LOWER($2)`,
		setID, name).Scan(&g.ID, &g.Name, &g.SortOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("query group %q in set %d: %w", name, setID, err)
	}
	return g, nil
}

// CreateGroup implements catalog.SetStore.
func (s *Store) CreateGroup(ctx context.Context, setID int64, name string, sortOrder int) (*catalog.Group, error) {
	g := &catalog.Group{SetID: setID, Name: name, SortOrder: sortOrder}
	err := s.db.QueryRow(ctx,
		`INSERT INTO catalog_attribute_group (attribute_set_id, name, sort_order, is_default)
		 VALUES ($1, $2, $3, false) RETURNING group_id`,
		setID, name, sortOrder).Scan(&g.ID)
	if err != nil {
		return nil, fmt.Errorf("create group %q in set %d: %w", name, setID, err)
	}
	return g, nil
}

// AssignAttribute implements catalog.SetStore. Re-assigning moves the
// attribute to the new group; a nil sortOrder keeps any stored one.
func (s *Store) AssignAttribute(ctx context.Context, setID, groupID int64, code string, sortOrder *int) error {
	attrID, err := s.attributeID(ctx, code)
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO catalog_entity_attribute (attribute_set_id, attribute_group_id, attribute_id, sort_order)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (attribute_set_id, attribute_id) DO UPDATE SET
			attribute_group_id = EXCLUDED.attribute_group_id,
			sort_order = COALESCE(EXCLUDED.sort_order, catalog_entity_attribute.sort_order)`

	if _, err := s.db.Exec(ctx, q, setID, groupID, attrID, sortOrder); err != nil {
		return fmt.Errorf("assign attribute %q to set %d: %w", code, setID, err)
	}
	return nil
}

// StoreID implements catalog.StoreViews.
func (s *Store) StoreID(ctx context.Context, code string) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx,
		`SELECT store_id FROM catalog_store WHERE code = $1`, code).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, catalog.ErrNotFound
		}
		return 0, fmt.Errorf("query store %q: %w", code, err)
	}
	return id, nil
}

func (s *Store) attributeID(ctx context.Context, code string) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx,
		`SELECT attribute_id FROM catalog_attribute WHERE attribute_code = $1`, code).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, catalog.ErrNotFound
		}
		return 0, fmt.Errorf("query attribute %q: %w", code, err)
	}
	return id, nil
}

// nonNil keeps jsonb properties an object instead of SQL null.
func nonNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
