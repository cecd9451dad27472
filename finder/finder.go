package finder

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/quarry/dedup"
	"github.com/poiesic/quarry/locator"
)

// Dimensions handled by the engine for every finder.
const (
	DimensionCount       = "count"
	DimensionStart       = "start"
	DimensionLookupLimit = "lookupLimit"
	DimensionUnique      = "unique"
)

const countAny = "any"

// Finder runs locator lookups against a Source.
type Finder[T any] struct {
	source      Source[T]
	pageSize    int
	lookupLimit int
	duplicates  dedup.Factory[T]
	logger      *slog.Logger
}

// New creates a finder for the source.
func New[T any](source Source[T], opts ...Option) (*Finder[T], error) {
	if source == nil {
		return nil, ErrSourceRequired
	}

	o := &options{
		logger:      slog.Default(),
		pageSize:    DefaultPageSize,
		lookupLimit: NoLimit,
	}
	if ps, ok := source.(PageSizer); ok {
		o.pageSize = ps.DefaultPageItemsCount()
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	f := &Finder[T]{
		source:      source,
		pageSize:    o.pageSize,
		lookupLimit: o.lookupLimit,
		logger:      o.logger,
	}
	if df, ok := source.(DuplicateCheckerFactory[T]); ok {
		f.duplicates = df.NewDuplicateChecker
	}
	if o.duplicates != nil {
		factory, ok := o.duplicates.(dedup.Factory[T])
		if !ok {
			return nil, ErrDuplicateCheckerType
		}
		f.duplicates = factory
	}
	return f, nil
}

// Name returns the source name.
func (f *Finder[T]) Name() string {
	return f.source.Name()
}

// Dimensions lists every dimension the finder accepts: the source's own
// followed by the engine's.
func (f *Finder[T]) Dimensions() []Dimension {
	dims := slices.Clone(f.source.Dimensions())
	dims = append(dims,
		Dimension{Name: DimensionCount, Description: "maximum number of items to return, or \"any\""},
		Dimension{Name: DimensionStart, Description: "number of matching items to skip"},
		Dimension{Name: DimensionLookupLimit, Description: "maximum number of candidates to scan"},
	)
	if f.duplicates != nil {
		dims = append(dims, Dimension{Name: DimensionUnique, Description: "true to drop duplicate items"})
	}
	dims = append(dims,
		Dimension{Name: locator.DimensionItem, Description: "locator of items to include; repeat to list several"},
		Dimension{Name: locator.DimensionAnd, Description: "locator whose conditions must all match"},
		Dimension{Name: locator.DimensionOr, Description: "locator whose dimensions are alternatives"},
		Dimension{Name: locator.DimensionNot, Description: "locator whose matches are excluded"},
	)
	return dims
}

// ItemLocator returns the locator of a single item.
func (f *Finder[T]) ItemLocator(item T) string {
	return f.source.ItemLocator(item)
}

// FindItems returns the page of items matching the locator text. Empty text
// matches every candidate.
func (f *Finder[T]) FindItems(ctx context.Context, text string) (*PagedResult[T], error) {
	loc, err := f.parse(text)
	if err != nil {
		return nil, f.fail(text, err)
	}
	result, err := f.run(ctx, loc, false)
	if err != nil {
		return nil, f.fail(text, err)
	}
	return result, nil
}

// FindItem returns the first item matching the locator text. A single-value
// locator is first resolved through the source's natural key, if it has one.
func (f *Finder[T]) FindItem(ctx context.Context, text string) (T, error) {
	var zero T
	loc, err := f.parse(text)
	if err != nil {
		return zero, f.fail(text, err)
	}
	result, err := f.run(ctx, loc, true)
	if err != nil {
		return zero, f.fail(text, err)
	}
	if len(result.Items) == 0 {
		return zero, f.fail(text, ErrNotFound)
	}
	return result.Items[0], nil
}

// FindLocator runs a lookup for an already parsed locator. It is used by
// sources whose dimensions hold locators of other finders.
func (f *Finder[T]) FindLocator(ctx context.Context, loc *locator.Locator) (*PagedResult[T], error) {
	if loc.IsHelpRequested() {
		return nil, f.fail(loc.Text(), ErrHelpRequested)
	}
	result, err := f.run(ctx, loc, false)
	if err != nil {
		return nil, f.fail(loc.Text(), err)
	}
	return result, nil
}

func (f *Finder[T]) parse(text string) (*locator.Locator, error) {
	if text == "" {
		return locator.Empty(), nil
	}
	loc, err := locator.Parse(text)
	if err != nil {
		return nil, err
	}
	if loc.IsHelpRequested() {
		return nil, ErrHelpRequested
	}
	return loc, nil
}

func (f *Finder[T]) fail(text string, err error) error {
	var le *LocatorError
	if errors.As(err, &le) {
		return err
	}
	le = &LocatorError{Finder: f.source.Name(), Locator: text, Err: err}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrHelpRequested) || errors.Is(err, locator.ErrSyntax) {
		le.Dimensions = f.Dimensions()
	}
	return le
}

// window holds the paging parameters of one lookup.
type window struct {
	start       int
	count       int
	lookupLimit int
	unique      bool
}

// query tracks every locator involved in one lookup, so that dimensions left
// unread anywhere in the tree of nested locators can be reported.
type query struct {
	locators []*locator.Locator
}

func (q *query) track(loc *locator.Locator) {
	q.locators = append(q.locators, loc)
}

func (f *Finder[T]) run(ctx context.Context, loc *locator.Locator, single bool) (*PagedResult[T], error) {
	ctx = withMemo(ctx)
	if err := f.checkKnown(loc, true); err != nil {
		return nil, err
	}
	w, err := f.window(loc, single)
	if err != nil {
		return nil, err
	}

	if single && loc.IsSingleValue() {
		if sf, ok := f.source.(SingleItemFinder[T]); ok {
			item, found, err := sf.FindSingleItem(ctx, loc)
			if err != nil {
				return nil, dimensionError(err)
			}
			result := &PagedResult[T]{Start: w.start, Count: w.count, LookupLimit: w.lookupLimit, Scanned: 1}
			if found {
				result.Items = []T{item}
			}
			return result, nil
		}
	}

	q := &query{}
	filter, err := f.buildFilter(ctx, q, loc)
	if err != nil {
		return nil, err
	}

	var candidates iter.Seq2[T, error]
	if loc.Has(locator.DimensionItem) {
		candidates, err = f.itemCandidates(ctx, loc)
	} else {
		candidates, err = f.source.PrefilteredItems(ctx, loc)
	}
	if err != nil {
		return nil, dimensionError(err)
	}

	if err := f.checkUnused(q); err != nil {
		return nil, err
	}

	result, err := f.scan(candidates, filter, w)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("locator processed",
		"finder", f.source.Name(),
		"locator", loc.Text(),
		"scanned", result.Scanned,
		"returned", len(result.Items),
		"lookupLimitReached", result.LookupLimitReached)
	return result, nil
}

func (f *Finder[T]) window(loc *locator.Locator, single bool) (window, error) {
	w := window{count: f.pageSize, lookupLimit: f.lookupLimit}

	start, ok, err := loc.DimensionAsInt64(DimensionStart)
	if err != nil {
		return w, dimensionError(err)
	}
	if ok {
		if start < 0 {
			return w, badRequest("start must not be negative, got %d", start)
		}
		w.start = int(start)
	}

	limit, limitSet, err := loc.DimensionAsInt64(DimensionLookupLimit)
	if err != nil {
		return w, dimensionError(err)
	}
	if limitSet {
		if limit < 0 {
			return w, badRequest("lookupLimit must not be negative, got %d", limit)
		}
		w.lookupLimit = int(limit)
	}

	rawCount, countSet, err := loc.Dimension(DimensionCount)
	if err != nil {
		return w, dimensionError(err)
	}
	switch {
	case countSet && rawCount == countAny:
		w.count = NoLimit
	case countSet:
		count, _, err := loc.DimensionAsInt64(DimensionCount)
		if err != nil {
			return w, dimensionError(err)
		}
		if count < 0 {
			return w, badRequest("count must not be negative, got %d", count)
		}
		w.count = int(count)
	case limitSet:
		w.count = NoLimit
	}
	if single {
		w.count = 1
	}

	unique, _, err := loc.DimensionAsBool(DimensionUnique)
	if err != nil {
		return w, dimensionError(err)
	}
	if unique && f.duplicates == nil {
		return w, badRequest("dimension %q is not supported by %s", DimensionUnique, f.source.Name())
	}
	w.unique = unique
	return w, nil
}

// buildFilter combines the source filter for loc with the filters of its
// logical dimensions.
func (f *Finder[T]) buildFilter(ctx context.Context, q *query, loc *locator.Locator) (Filter[T], error) {
	q.track(loc)

	filter := NewMultiCheckerFilter[T]()
	base, err := f.source.Filter(ctx, loc)
	if err != nil {
		return nil, dimensionError(err)
	}
	filter.Add(base)

	ands, err := loc.Nested(locator.DimensionAnd)
	if err != nil {
		return nil, err
	}
	for _, nested := range ands {
		sub, err := f.nestedFilter(ctx, q, nested)
		if err != nil {
			return nil, err
		}
		filter.Add(sub)
	}

	ors, err := loc.Nested(locator.DimensionOr)
	if err != nil {
		return nil, err
	}
	for _, nested := range ors {
		if nested.IsHelpRequested() {
			return nil, ErrHelpRequested
		}
		q.track(nested)
		if err := f.checkKnown(nested, false); err != nil {
			return nil, err
		}
		var alternatives []Filter[T]
		for _, part := range nested.Split() {
			sub, err := f.nestedFilter(ctx, q, part)
			if err != nil {
				return nil, err
			}
			alternatives = append(alternatives, sub)
		}
		filter.Add(AnyOf(alternatives...))
	}

	nots, err := loc.Nested(locator.DimensionNot)
	if err != nil {
		return nil, err
	}
	for _, nested := range nots {
		sub, err := f.nestedFilter(ctx, q, nested)
		if err != nil {
			return nil, err
		}
		filter.Add(Not(sub))
	}

	return filter, nil
}

func (f *Finder[T]) nestedFilter(ctx context.Context, q *query, loc *locator.Locator) (Filter[T], error) {
	if loc.IsHelpRequested() {
		return nil, ErrHelpRequested
	}
	if err := f.checkKnown(loc, false); err != nil {
		return nil, err
	}
	return f.buildFilter(ctx, q, loc)
}

// itemCandidates chains the results of every item:(...) locator. Every
// locator is checked up front, so paging never hides an invalid one.
func (f *Finder[T]) itemCandidates(ctx context.Context, loc *locator.Locator) (iter.Seq2[T, error], error) {
	items, err := loc.Nested(locator.DimensionItem)
	if err != nil {
		return nil, err
	}
	for _, nested := range items {
		if nested.IsHelpRequested() {
			return nil, ErrHelpRequested
		}
		if err := f.checkKnown(nested, true); err != nil {
			return nil, err
		}
	}
	seqs := make([]iter.Seq2[T, error], 0, len(items))
	for _, nested := range items {
		seqs = append(seqs, Lazy(func() (iter.Seq2[T, error], error) {
			result, err := f.run(ctx, nested, false)
			if err != nil {
				return nil, err
			}
			return FromSlice(result.Items), nil
		}))
	}
	return Concat(seqs...), nil
}

func (f *Finder[T]) scan(candidates iter.Seq2[T, error], filter Filter[T], w window) (*PagedResult[T], error) {
	result := &PagedResult[T]{
		Start:       w.start,
		Count:       w.count,
		LookupLimit: w.lookupLimit,
	}
	if w.count == 0 {
		return result, nil
	}

	var checker dedup.Checker[T]
	if w.unique {
		checker = f.duplicates()
	}

	skipped := 0
	for item, err := range candidates {
		if err != nil {
			return nil, err
		}
		if w.lookupLimit != NoLimit && result.Scanned >= w.lookupLimit {
			result.LookupLimitReached = true
			break
		}
		result.Scanned++

		if !filter.Accept(item) {
			continue
		}
		if checker != nil && checker.IsDuplicate(item) {
			continue
		}
		if skipped < w.start {
			skipped++
			continue
		}
		result.Items = append(result.Items, item)
		if w.count != NoLimit && len(result.Items) >= w.count {
			break
		}
	}
	return result, nil
}

func (f *Finder[T]) known(topLevel bool) map[string]bool {
	known := map[string]bool{
		locator.DimensionAnd:  true,
		locator.DimensionOr:   true,
		locator.DimensionNot:  true,
		locator.HelpLiteral:   true,
		locator.DimensionItem: topLevel,
	}
	for _, d := range f.Dimensions() {
		if _, reserved := known[d.Name]; !reserved {
			known[d.Name] = true
		}
	}
	return known
}

// checkKnown rejects dimensions the finder has never heard of before any
// candidate is scanned.
func (f *Finder[T]) checkKnown(loc *locator.Locator, topLevel bool) error {
	known := f.known(topLevel)
	var unknown []string
	for _, name := range loc.DimensionNames() {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return dimensionsError("unknown dimension(s) %s", strings.Join(unknown, ", "))
	}
	return nil
}

// checkUnused rejects dimensions that are known but were not consumed in the
// place they were used, such as paging dimensions inside "or".
func (f *Finder[T]) checkUnused(q *query) error {
	var unused []string
	for _, loc := range q.locators {
		for _, name := range loc.Unused() {
			if !slices.Contains(unused, name) {
				unused = append(unused, name)
			}
		}
	}
	if len(unused) == 0 {
		return nil
	}
	if slices.Contains(unused, locator.SingleValueKey) {
		return dimensionsError("single value locators are not supported by %s", f.source.Name())
	}
	return dimensionsError("dimension(s) %s are not supported in this context", strings.Join(unused, ", "))
}

// dimensionError maps value errors from locator accessors to bad requests.
func dimensionError(err error) error {
	if err == nil {
		return nil
	}
	var de *locator.DimensionError
	if errors.As(err, &de) && !errors.Is(err, ErrBadRequest) {
		return errors.Join(ErrBadRequest, err)
	}
	return err
}
