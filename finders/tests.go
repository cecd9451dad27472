package finders

import (
	"context"
	"errors"
	"fmt"
	"iter"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/dedup"
	"github.com/poiesic/quarry/finder"
	"github.com/poiesic/quarry/locator"
	"github.com/poiesic/quarry/storage"
)

// Test occurrence locator dimensions. DimensionID and DimensionStatus are
// shared with builds.
const (
	DimensionBuild = "build"
	DimensionName  = "name"
	DimensionTest  = "test"
	DimensionMuted = "muted"
)

// TestOccurrenceFinder finds stored test occurrences by locator.
type TestOccurrenceFinder struct {
	*finder.Finder[*core.TestOccurrence]
}

// NewTestOccurrenceFinder creates a test occurrence finder. Build locators
// nested in the "build" dimension are resolved by builds.
func NewTestOccurrenceFinder(repo storage.TestOccurrenceRepository, builds *BuildFinder, opts ...finder.Option) (*TestOccurrenceFinder, error) {
	if repo == nil {
		return nil, errors.New("test occurrence repository is required")
	}
	if builds == nil {
		return nil, errors.New("build finder is required")
	}
	f, err := finder.New[*core.TestOccurrence](&testSource{repo: repo, builds: builds}, opts...)
	if err != nil {
		return nil, err
	}
	return &TestOccurrenceFinder{Finder: f}, nil
}

type testSource struct {
	repo   storage.TestOccurrenceRepository
	builds *BuildFinder
}

var (
	_ finder.Source[*core.TestOccurrence]                  = (*testSource)(nil)
	_ finder.SingleItemFinder[*core.TestOccurrence]        = (*testSource)(nil)
	_ finder.DuplicateCheckerFactory[*core.TestOccurrence] = (*testSource)(nil)
)

func (s *testSource) Name() string {
	return "testOccurrences"
}

func (s *testSource) Dimensions() []finder.Dimension {
	return []finder.Dimension{
		{Name: DimensionID, Description: "test occurrence id"},
		{Name: DimensionBuild, Description: "build locator; only tests of the matched builds"},
		{Name: DimensionName, Description: "full test name"},
		{Name: DimensionTest, Description: "test name id, shared by every run of a test"},
		{Name: DimensionStatus, Description: "SUCCESS, FAILURE or IGNORED"},
		{Name: DimensionMuted, Description: "true, false or any"},
	}
}

// resolvedBuilds keys the builds of a locator's "build" dimension in the
// lookup memo.
type resolvedBuilds struct {
	loc *locator.Locator
}

// resolveBuilds returns the builds matched by the nested build locator. The
// filter and the prefilter of one lookup share a single resolution.
func (s *testSource) resolveBuilds(ctx context.Context, loc *locator.Locator) ([]*core.Build, bool, error) {
	value, ok, err := loc.Dimension(DimensionBuild)
	if err != nil || !ok {
		return nil, ok, err
	}
	builds, err := finder.Memoize(ctx, resolvedBuilds{loc}, func() ([]*core.Build, error) {
		nested, err := locator.Parse(value)
		if err != nil {
			return nil, err
		}
		result, err := s.builds.FindLocator(ctx, nested)
		if err != nil {
			return nil, err
		}
		return result.Items, nil
	})
	if err != nil {
		return nil, true, err
	}
	return builds, true, nil
}

// PrefilteredItems reads only the tests of the matched builds when the
// locator has a "build" dimension. Builds are resolved when the scan starts.
func (s *testSource) PrefilteredItems(ctx context.Context, loc *locator.Locator) (iter.Seq2[*core.TestOccurrence, error], error) {
	id, ok, err := idDimension(loc, DimensionID)
	if err != nil {
		return nil, err
	}
	if ok {
		return finder.Lazy(func() (iter.Seq2[*core.TestOccurrence, error], error) {
			test, err := s.repo.GetTestOccurrence(ctx, id)
			if errors.Is(err, storage.ErrNotFound) {
				return finder.FromSlice[*core.TestOccurrence](nil), nil
			}
			if err != nil {
				return nil, err
			}
			return finder.FromSlice([]*core.TestOccurrence{test}), nil
		}), nil
	}

	if !loc.Has(DimensionBuild) {
		return s.repo.ScanTestOccurrences(ctx), nil
	}
	return finder.Lazy(func() (iter.Seq2[*core.TestOccurrence, error], error) {
		builds, _, err := s.resolveBuilds(ctx, loc)
		if err != nil {
			return nil, err
		}
		seqs := make([]iter.Seq2[*core.TestOccurrence, error], len(builds))
		for i, b := range builds {
			seqs[i] = s.repo.ScanBuildTestOccurrences(ctx, b.Id)
		}
		return finder.Concat(seqs...), nil
	}), nil
}

func (s *testSource) Filter(ctx context.Context, loc *locator.Locator) (finder.Filter[*core.TestOccurrence], error) {
	filter := finder.NewMultiCheckerFilter[*core.TestOccurrence]()

	if value, ok := loc.SingleValue(); ok {
		id, isID := singleID(value)
		if !isID {
			return nil, invalidValue(locator.SingleValueKey, value)
		}
		filter.AddFunc(func(t *core.TestOccurrence) bool { return t.Id == id })
		return filter, nil
	}

	id, ok, err := idDimension(loc, DimensionID)
	if err != nil {
		return nil, err
	}
	if ok {
		filter.AddFunc(func(t *core.TestOccurrence) bool { return t.Id == id })
	}

	testID, ok, err := idDimension(loc, DimensionTest)
	if err != nil {
		return nil, err
	}
	if ok {
		filter.AddFunc(func(t *core.TestOccurrence) bool { return t.TestNameId == testID })
	}

	name, ok, err := loc.Dimension(DimensionName)
	if err != nil {
		return nil, err
	}
	if ok {
		filter.AddFunc(func(t *core.TestOccurrence) bool { return t.Name == name })
	}

	rawStatus, ok, err := loc.Dimension(DimensionStatus)
	if err != nil {
		return nil, err
	}
	if ok {
		status, err := core.ParseTestStatus(rawStatus)
		if err != nil {
			return nil, invalidValue(DimensionStatus, rawStatus)
		}
		filter.AddFunc(func(t *core.TestOccurrence) bool { return t.Status == status })
	}

	muted, ok, err := loc.DimensionAsBool(DimensionMuted)
	if err != nil {
		return nil, err
	}
	if ok {
		filter.AddFunc(func(t *core.TestOccurrence) bool { return t.Muted == muted })
	}

	builds, ok, err := s.resolveBuilds(ctx, loc)
	if err != nil {
		return nil, err
	}
	if ok {
		ids := mapset.NewThreadUnsafeSet[core.ID]()
		for _, b := range builds {
			ids.Add(b.Id)
		}
		filter.AddFunc(func(t *core.TestOccurrence) bool { return ids.Contains(t.BuildId) })
	}

	return filter, nil
}

func (s *testSource) ItemLocator(t *core.TestOccurrence) string {
	return fmt.Sprintf("%s:(%s:%d),%s:%d", DimensionBuild, DimensionID, t.BuildId, DimensionID, t.Id)
}

// FindSingleItem resolves a bare value as a test occurrence id.
func (s *testSource) FindSingleItem(ctx context.Context, loc *locator.Locator) (*core.TestOccurrence, bool, error) {
	value, _ := loc.SingleValue()
	id, ok := singleID(value)
	if !ok {
		return nil, false, invalidValue(locator.SingleValueKey, value)
	}
	test, err := s.repo.GetTestOccurrence(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return test, true, nil
}

// NewDuplicateChecker treats runs of the same test as equal.
func (s *testSource) NewDuplicateChecker() dedup.Checker[*core.TestOccurrence] {
	return dedup.NewKeyChecker(func(t *core.TestOccurrence) core.ID { return t.TestNameId })
}
