package testtree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/finder"
	"github.com/poiesic/quarry/finders"
	"github.com/poiesic/quarry/locator"
	"github.com/poiesic/quarry/scopetree"
)

// Locator dimensions of a tree request, besides the slicing dimensions of
// package scopetree.
const (
	DimensionTestOccurrences = "testOccurrences"
	DimensionBuild           = "build"
	DimensionScopeType       = "scopeType"
)

// Scope types, from the root down.
const (
	ScopeRoot    = "root"
	ScopeSuite   = "suite"
	ScopePackage = "package"
	ScopeClass   = "class"
	ScopeTest    = "test"
)

// DefaultScopeName names the suite, package or class a test name lacks.
const DefaultScopeName = "<default>"

// RootName is the name of the root scope, and so the id of the root node.
const RootName = "tests"

var rootScope = scopetree.Scope{Name: RootName, Type: ScopeRoot}

var scopeTypes = []string{ScopeSuite, ScopePackage, ScopeClass, ScopeTest}

type (
	Tree = scopetree.Tree[*core.TestOccurrence, TestCounters]
	Node = scopetree.Node[*core.TestOccurrence, TestCounters]
)

// Result is a sliced test tree.
type Result struct {
	// Tree is the whole merged tree; Nodes is the requested slice of it.
	Tree  *Tree
	Nodes []Node

	Tests  int // Matched test occurrences
	Builds int // Builds the occurrences belong to
}

// Collector builds test trees for locator requests.
type Collector struct {
	tests  *finders.TestOccurrenceFinder
	pool   *ants.Pool
	logger *slog.Logger
}

// Option configures a Collector.
type Option func(*Collector) error

// WithPoolSize sets the number of trees built concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(c *Collector) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if c.pool != nil {
			c.pool.Release()
		}
		c.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewCollector creates a collector selecting leaves with tests.
func NewCollector(tests *finders.TestOccurrenceFinder, opts ...Option) (*Collector, error) {
	if tests == nil {
		return nil, ErrTestFinderRequired
	}

	poolSize := max(runtime.NumCPU()/2, 1)
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	c := &Collector{
		tests:  tests,
		pool:   pool,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			c.Release()
			return nil, err
		}
	}
	return c, nil
}

// Release stops the worker pool. The collector must not be used afterwards.
func (c *Collector) Release() {
	if c.pool != nil {
		c.pool.Release()
	}
}

// Name identifies the collector in errors.
func (c *Collector) Name() string {
	return "testTree"
}

// Dimensions lists the dimensions of a tree request.
func (c *Collector) Dimensions() []finder.Dimension {
	return []finder.Dimension{
		{Name: DimensionTestOccurrences, Description: "test occurrence locator selecting the leaves"},
		{Name: DimensionBuild, Description: "build locator; every test of the matched builds"},
		{Name: DimensionScopeType, Description: "deepest scope to return: suite, package, class or test"},
		{Name: scopetree.DimensionMaxChildren, Description: "maximum number of children per node"},
		{Name: scopetree.DimensionOrderBy, Description: "name or count, optionally followed by :asc or :desc"},
		{Name: scopetree.DimensionSubTreeRootID, Description: "id of the node to start from"},
	}
}

// Collect builds the tree of the tests matched by the request and slices it.
func (c *Collector) Collect(ctx context.Context, text string) (*Result, error) {
	result, err := c.collect(ctx, text)
	if err != nil {
		return nil, c.fail(text, err)
	}
	return result, nil
}

func (c *Collector) collect(ctx context.Context, text string) (*Result, error) {
	if text == "" {
		return nil, errors.Join(finder.ErrBadRequest, ErrLeafLocatorRequired)
	}
	loc, err := locator.Parse(text)
	if err != nil {
		return nil, err
	}
	if loc.IsHelpRequested() {
		return nil, finder.ErrHelpRequested
	}
	if err := c.checkKnown(loc); err != nil {
		return nil, err
	}

	scopeType, err := parseScopeType(loc)
	if err != nil {
		return nil, errors.Join(finder.ErrBadRequest, err)
	}
	opts, err := scopetree.SliceOptionsFromLocator[*core.TestOccurrence, TestCounters](loc)
	if err != nil {
		return nil, errors.Join(finder.ErrBadRequest, err)
	}
	opts.Stop = func(n Node) bool { return n.Scope().Type == scopeType }

	testsText, err := testsLocator(loc)
	if err != nil {
		return nil, err
	}

	found, err := c.tests.FindItems(ctx, testsText)
	if err != nil {
		return nil, err
	}

	tree, builds, err := c.buildTree(ctx, found.Items)
	if err != nil {
		return nil, err
	}

	nodes, err := tree.Slice(opts)
	if err != nil {
		return nil, errors.Join(finder.ErrBadRequest, err)
	}

	c.logger.Debug("test tree collected",
		"locator", text,
		"tests", len(found.Items),
		"builds", builds,
		"nodes", tree.Len(),
		"returned", len(nodes))

	return &Result{
		Tree:   tree,
		Nodes:  nodes,
		Tests:  len(found.Items),
		Builds: builds,
	}, nil
}

func (c *Collector) checkKnown(loc *locator.Locator) error {
	if loc.IsSingleValue() {
		return fmt.Errorf("%w: single value locators are not supported by %s", locator.ErrSyntax, c.Name())
	}
	var unknown []string
	for _, name := range loc.DimensionNames() {
		if !slices.ContainsFunc(c.Dimensions(), func(d finder.Dimension) bool { return d.Name == name }) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("%w: unknown dimension(s) %s", locator.ErrSyntax, strings.Join(unknown, ", "))
	}
	return nil
}

func (c *Collector) fail(text string, err error) error {
	var le *finder.LocatorError
	if errors.As(err, &le) {
		return err
	}
	le = &finder.LocatorError{Finder: c.Name(), Locator: text, Err: err}
	if errors.Is(err, finder.ErrBadRequest) || errors.Is(err, finder.ErrHelpRequested) || errors.Is(err, locator.ErrSyntax) {
		le.Dimensions = c.Dimensions()
	}
	return le
}

func parseScopeType(loc *locator.Locator) (string, error) {
	value, ok, err := loc.Dimension(DimensionScopeType)
	if err != nil {
		return "", err
	}
	if !ok {
		return ScopeTest, nil
	}
	for _, t := range scopeTypes {
		if strings.EqualFold(t, value) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidScopeType, value)
}

// testsLocator returns the test occurrence locator selecting the leaves.
func testsLocator(loc *locator.Locator) (string, error) {
	tests, hasTests, err := loc.Dimension(DimensionTestOccurrences)
	if err != nil {
		return "", errors.Join(finder.ErrBadRequest, err)
	}
	build, hasBuild, err := loc.Dimension(DimensionBuild)
	if err != nil {
		return "", errors.Join(finder.ErrBadRequest, err)
	}

	switch {
	case hasTests && hasBuild:
		return "", fmt.Errorf("%w: use either %s or %s", finder.ErrBadRequest, DimensionTestOccurrences, DimensionBuild)
	case hasTests:
		return tests, nil
	case hasBuild:
		return fmt.Sprintf("%s:%s,%s:any", finders.DimensionBuild, locator.FormatValue(build), finder.DimensionCount), nil
	default:
		return "", errors.Join(finder.ErrBadRequest, ErrLeafLocatorRequired)
	}
}

// buildTree builds one tree per build concurrently and merges them in the
// order the builds were first seen.
func (c *Collector) buildTree(ctx context.Context, tests []*core.TestOccurrence) (*Tree, int, error) {
	groups := groupByBuild(tests)

	trees := make([]*Tree, len(groups))
	errs := make([]error, len(groups))
	var wg sync.WaitGroup
	for i, group := range groups {
		wg.Add(1)
		err := c.pool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			trees[i], errs[i] = scopetree.Build(rootScope, leaves(group), countTests)
		})
		if err != nil {
			wg.Done()
			errs[i] = err
		}
	}
	wg.Wait()
	if err := errors.Join(errs...); err != nil {
		return nil, 0, err
	}

	tree, err := scopetree.Build(rootScope, nil, countTests)
	if err != nil {
		return nil, 0, err
	}
	for _, t := range trees {
		if err := tree.Merge(t); err != nil {
			return nil, 0, err
		}
	}
	return tree, len(groups), nil
}

func groupByBuild(tests []*core.TestOccurrence) [][]*core.TestOccurrence {
	index := map[core.ID]int{}
	var groups [][]*core.TestOccurrence
	for _, t := range tests {
		i, ok := index[t.BuildId]
		if !ok {
			i = len(groups)
			index[t.BuildId] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], t)
	}
	return groups
}

// leaves places every test at suite/package/class/test, so that all leaves
// share one depth.
func leaves(tests []*core.TestOccurrence) []scopetree.Leaf[*core.TestOccurrence] {
	out := make([]scopetree.Leaf[*core.TestOccurrence], len(tests))
	for i, t := range tests {
		name := core.ParseTestName(t.Name)
		out[i] = scopetree.Leaf[*core.TestOccurrence]{
			Path: []scopetree.Scope{
				{Name: orDefault(name.Suite), Type: ScopeSuite},
				{Name: orDefault(name.Package), Type: ScopePackage},
				{Name: orDefault(name.Class), Type: ScopeClass},
				{Name: orDefault(name.Method), Type: ScopeTest},
			},
			Data: []*core.TestOccurrence{t},
		}
	}
	return out
}

func orDefault(name string) string {
	if name == "" {
		return DefaultScopeName
	}
	return name
}
