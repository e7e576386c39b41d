package importer

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/catalogkit/attrimport/internal/catalog"
	"github.com/catalogkit/attrimport/internal/normalize"
)

// fakeStore is an in-memory catalog.Store for reconciler tests. It mirrors
// the merge semantics of the PostgreSQL store: blank input/backend/label
// fields keep stored values, properties merge key-wise, embedded options
// append.
type fakeStore struct {
	attrs       map[string]*catalog.Attribute
	options     map[string][]catalog.Option
	optLabels   map[int64]map[int64]string
	attrLabels  map[string][]catalog.StoreLabel
	sets        map[int64]*catalog.AttributeSet
	groups      map[int64]*catalog.Group
	assignments map[string]assignment
	storeIDs    map[string]int64

	nextAttrID   int64
	nextOptionID int64
	nextSetID    int64
	nextGroupID  int64

	labelSaves     int
	deletedSets    []string
	failAddOption  map[string]bool
	failDeleteOpts bool
}

type assignment struct {
	GroupID   int64
	SortOrder *int
}

func newFakeStore() *fakeStore {
	f := &fakeStore{
		attrs:         make(map[string]*catalog.Attribute),
		options:       make(map[string][]catalog.Option),
		optLabels:     make(map[int64]map[int64]string),
		attrLabels:    make(map[string][]catalog.StoreLabel),
		sets:          make(map[int64]*catalog.AttributeSet),
		groups:        make(map[int64]*catalog.Group),
		assignments:   make(map[string]assignment),
		storeIDs:      make(map[string]int64),
		failAddOption: make(map[string]bool),
	}
	// Every catalog ships with a default set and group.
	_, _ = f.CreateSet(context.Background(), "Default")
	return f
}

// seedAttribute installs an existing attribute with the given options.
func (f *fakeStore) seedAttribute(code, input string, optionLabels ...string) *catalog.Attribute {
	f.nextAttrID++
	a := &catalog.Attribute{
		ID:            f.nextAttrID,
		Code:          code,
		FrontendInput: input,
		Fields:        map[string]string{},
	}
	f.attrs[code] = a
	for i, label := range optionLabels {
		f.addOption(code, catalog.OptionInput{Label: label, SortOrder: (i + 1) * 10})
	}
	return a
}

func (f *fakeStore) Attribute(_ context.Context, code string) (*catalog.Attribute, error) {
	a, ok := f.attrs[code]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeStore) SaveAttribute(_ context.Context, data catalog.AttributeData) error {
	a, ok := f.attrs[data.Code]
	if !ok {
		f.nextAttrID++
		a = &catalog.Attribute{ID: f.nextAttrID, Code: data.Code, Fields: map[string]string{}}
		f.attrs[data.Code] = a
	}
	if data.FrontendInput != "" {
		a.FrontendInput = data.FrontendInput
	}
	if data.BackendModel != "" {
		a.BackendModel = data.BackendModel
	}
	a.DefaultValue = data.DefaultValue
	if data.DefaultLabel != "" {
		a.DefaultLabel = data.DefaultLabel
	}
	for k, v := range data.Fields {
		a.Fields[k] = v
	}
	for _, opt := range data.Options {
		f.addOption(data.Code, opt)
	}
	return nil
}

func (f *fakeStore) DeleteAttribute(_ context.Context, code string) error {
	if _, ok := f.attrs[code]; !ok {
		return catalog.ErrNotFound
	}
	delete(f.attrs, code)
	delete(f.options, code)
	delete(f.attrLabels, code)
	return nil
}

func (f *fakeStore) SetDefaultValue(_ context.Context, code, value string) error {
	a, ok := f.attrs[code]
	if !ok {
		return catalog.ErrNotFound
	}
	a.DefaultValue = value
	return nil
}

func (f *fakeStore) Options(_ context.Context, code string) ([]catalog.Option, error) {
	opts := append([]catalog.Option(nil), f.options[code]...)
	sort.Slice(opts, func(i, j int) bool {
		if opts[i].SortOrder != opts[j].SortOrder {
			return opts[i].SortOrder < opts[j].SortOrder
		}
		return opts[i].ID < opts[j].ID
	})
	return opts, nil
}

func (f *fakeStore) AddOption(_ context.Context, code string, opt catalog.OptionInput) error {
	if f.failAddOption[opt.Label] {
		return errors.New("option insert failed")
	}
	f.addOption(code, opt)
	return nil
}

func (f *fakeStore) addOption(code string, opt catalog.OptionInput) {
	f.nextOptionID++
	f.options[code] = append(f.options[code], catalog.Option{
		ID:        f.nextOptionID,
		Label:     opt.Label,
		SortOrder: opt.SortOrder,
	})
	if len(opt.StoreLabels) > 0 {
		labels := make(map[int64]string, len(opt.StoreLabels))
		for k, v := range opt.StoreLabels {
			labels[k] = v
		}
		f.optLabels[f.nextOptionID] = labels
	}
}

func (f *fakeStore) DeleteAllOptions(_ context.Context, code string) error {
	if f.failDeleteOpts {
		return errors.New("option delete failed")
	}
	f.options[code] = nil
	return nil
}

func (f *fakeStore) AttributeLabels(_ context.Context, code string) ([]catalog.StoreLabel, error) {
	return append([]catalog.StoreLabel(nil), f.attrLabels[code]...), nil
}

func (f *fakeStore) SetAttributeLabels(_ context.Context, code string, labels []catalog.StoreLabel) error {
	f.labelSaves++
	f.attrLabels[code] = append([]catalog.StoreLabel(nil), labels...)
	return nil
}

func (f *fakeStore) SetByID(_ context.Context, id int64) (*catalog.AttributeSet, error) {
	set, ok := f.sets[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	cp := *set
	return &cp, nil
}

func (f *fakeStore) SetByName(_ context.Context, name string) (*catalog.AttributeSet, error) {
	key := normalize.Key(name)
	for _, set := range f.sets {
		if normalize.Key(set.Name) == key {
			cp := *set
			return &cp, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (f *fakeStore) CreateSet(_ context.Context, name string) (*catalog.AttributeSet, error) {
	f.nextSetID++
	set := &catalog.AttributeSet{ID: f.nextSetID, Name: name}
	f.sets[set.ID] = set

	f.nextGroupID++
	f.groups[f.nextGroupID] = &catalog.Group{
		ID: f.nextGroupID, SetID: set.ID, Name: "General", SortOrder: 1,
	}
	cp := *set
	return &cp, nil
}

func (f *fakeStore) DefaultSet(ctx context.Context) (*catalog.AttributeSet, error) {
	return f.SetByName(ctx, "Default")
}

func (f *fakeStore) DeleteSet(_ context.Context, id int64) error {
	set, ok := f.sets[id]
	if !ok {
		return catalog.ErrNotFound
	}
	f.deletedSets = append(f.deletedSets, set.Name)
	delete(f.sets, id)
	return nil
}

func (f *fakeStore) DefaultGroup(_ context.Context, setID int64) (*catalog.Group, error) {
	var def *catalog.Group
	for _, g := range f.groups {
		if g.SetID == setID && (def == nil || g.ID < def.ID) {
			def = g
		}
	}
	if def == nil {
		return nil, catalog.ErrNotFound
	}
	cp := *def
	return &cp, nil
}

func (f *fakeStore) GroupByName(_ context.Context, setID int64, name string) (*catalog.Group, error) {
	key := normalize.Key(name)
	for _, g := range f.groups {
		if g.SetID == setID && normalize.Key(g.Name) == key {
			cp := *g
			return &cp, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (f *fakeStore) CreateGroup(_ context.Context, setID int64, name string, sortOrder int) (*catalog.Group, error) {
	f.nextGroupID++
	g := &catalog.Group{ID: f.nextGroupID, SetID: setID, Name: name, SortOrder: sortOrder}
	f.groups[g.ID] = g
	cp := *g
	return &cp, nil
}

func (f *fakeStore) AssignAttribute(_ context.Context, setID, groupID int64, code string, sortOrder *int) error {
	if _, ok := f.attrs[code]; !ok {
		return catalog.ErrNotFound
	}
	f.assignments[assignKey(setID, code)] = assignment{GroupID: groupID, SortOrder: sortOrder}
	return nil
}

func (f *fakeStore) StoreID(_ context.Context, code string) (int64, error) {
	id, ok := f.storeIDs[code]
	if !ok {
		return 0, catalog.ErrNotFound
	}
	return id, nil
}

func assignKey(setID int64, code string) string {
	return fmt.Sprintf("%d:%s", setID, code)
}

// optionLabelList returns the attribute's admin option labels in sort order.
func (f *fakeStore) optionLabelList(code string) []string {
	opts, _ := f.Options(context.Background(), code)
	labels := make([]string, 0, len(opts))
	for _, o := range opts {
		labels = append(labels, o.Label)
	}
	return labels
}
