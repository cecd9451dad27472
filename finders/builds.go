package finders

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/dedup"
	"github.com/poiesic/quarry/finder"
	"github.com/poiesic/quarry/locator"
	"github.com/poiesic/quarry/storage"
)

// Build locator dimensions.
const (
	DimensionID        = "id"
	DimensionNumber    = "number"
	DimensionBuildType = "buildType"
	DimensionBranch    = "branch"
	DimensionStatus    = "status"
	DimensionPinned    = "pinned"
)

// BuildFinder finds stored builds by locator.
type BuildFinder struct {
	*finder.Finder[*core.Build]
}

// NewBuildFinder creates a build finder over the repository.
func NewBuildFinder(repo storage.BuildRepository, opts ...finder.Option) (*BuildFinder, error) {
	if repo == nil {
		return nil, errors.New("build repository is required")
	}
	f, err := finder.New[*core.Build](&buildSource{repo: repo}, opts...)
	if err != nil {
		return nil, err
	}
	return &BuildFinder{Finder: f}, nil
}

type buildSource struct {
	repo storage.BuildRepository
}

var (
	_ finder.Source[*core.Build]                  = (*buildSource)(nil)
	_ finder.SingleItemFinder[*core.Build]        = (*buildSource)(nil)
	_ finder.DuplicateCheckerFactory[*core.Build] = (*buildSource)(nil)
)

func (s *buildSource) Name() string {
	return "builds"
}

func (s *buildSource) Dimensions() []finder.Dimension {
	return []finder.Dimension{
		{Name: DimensionID, Description: "build id"},
		{Name: DimensionNumber, Description: "build number"},
		{Name: DimensionBuildType, Description: "build configuration id"},
		{Name: DimensionBranch, Description: "branch name"},
		{Name: DimensionStatus, Description: "SUCCESS, FAILURE or UNKNOWN"},
		{Name: DimensionPinned, Description: "true, false or any"},
	}
}

// PrefilteredItems narrows the scan with the id, number and build type indexes.
func (s *buildSource) PrefilteredItems(ctx context.Context, loc *locator.Locator) (iter.Seq2[*core.Build, error], error) {
	id, ok, err := idDimension(loc, DimensionID)
	if err != nil {
		return nil, err
	}
	if ok {
		builds, err := s.repo.GetBuilds(ctx, id)
		if err != nil {
			return nil, err
		}
		return finder.FromSlice(builds), nil
	}

	buildType, _, err := loc.Dimension(DimensionBuildType)
	if err != nil {
		return nil, err
	}

	number, ok, err := loc.Dimension(DimensionNumber)
	if err != nil {
		return nil, err
	}
	if ok {
		return finder.Lazy(func() (iter.Seq2[*core.Build, error], error) {
			builds, err := s.repo.FindBuildsByNumber(ctx, buildType, number)
			if err != nil {
				return nil, err
			}
			return finder.FromSlice(builds), nil
		}), nil
	}
	return s.repo.ScanBuilds(ctx, buildType), nil
}

func (s *buildSource) Filter(_ context.Context, loc *locator.Locator) (finder.Filter[*core.Build], error) {
	filter := finder.NewMultiCheckerFilter[*core.Build]()

	if value, ok := loc.SingleValue(); ok {
		id, isID := singleID(value)
		filter.AddFunc(func(b *core.Build) bool {
			return (isID && b.Id == id) || b.Number == value
		})
		return filter, nil
	}

	id, ok, err := idDimension(loc, DimensionID)
	if err != nil {
		return nil, err
	}
	if ok {
		filter.AddFunc(func(b *core.Build) bool { return b.Id == id })
	}

	buildType, ok, err := loc.Dimension(DimensionBuildType)
	if err != nil {
		return nil, err
	}
	if ok {
		filter.AddFunc(func(b *core.Build) bool { return b.BuildTypeId == buildType })
	}

	number, ok, err := loc.Dimension(DimensionNumber)
	if err != nil {
		return nil, err
	}
	if ok {
		filter.AddFunc(func(b *core.Build) bool { return b.Number == number })
	}

	branch, ok, err := loc.Dimension(DimensionBranch)
	if err != nil {
		return nil, err
	}
	if ok {
		filter.AddFunc(func(b *core.Build) bool { return b.Branch == branch })
	}

	rawStatus, ok, err := loc.Dimension(DimensionStatus)
	if err != nil {
		return nil, err
	}
	if ok {
		status, err := core.ParseBuildStatus(rawStatus)
		if err != nil {
			return nil, invalidValue(DimensionStatus, rawStatus)
		}
		filter.AddFunc(func(b *core.Build) bool { return b.Status == status })
	}

	pinned, ok, err := loc.DimensionAsBool(DimensionPinned)
	if err != nil {
		return nil, err
	}
	if ok {
		filter.AddFunc(func(b *core.Build) bool { return b.Pinned == pinned })
	}

	return filter, nil
}

func (s *buildSource) ItemLocator(b *core.Build) string {
	return fmt.Sprintf("%s:%d", DimensionID, b.Id)
}

// FindSingleItem resolves a bare value as a build id, then as the newest
// build with that number.
func (s *buildSource) FindSingleItem(ctx context.Context, loc *locator.Locator) (*core.Build, bool, error) {
	value, _ := loc.SingleValue()
	if id, ok := singleID(value); ok {
		build, err := s.repo.GetBuild(ctx, id)
		switch {
		case err == nil:
			return build, true, nil
		case !errors.Is(err, storage.ErrNotFound):
			return nil, false, err
		}
	}

	builds, err := s.repo.FindBuildsByNumber(ctx, "", value)
	if err != nil {
		return nil, false, err
	}
	if len(builds) == 0 {
		return nil, false, nil
	}
	return builds[0], true, nil
}

// NewDuplicateChecker treats builds with the same build type and number as equal.
func (s *buildSource) NewDuplicateChecker() dedup.Checker[*core.Build] {
	return dedup.NewComparatorChecker(func(a, b *core.Build) int {
		return cmp.Or(
			strings.Compare(a.BuildTypeId, b.BuildTypeId),
			strings.Compare(a.Number, b.Number),
		)
	})
}
