package tree

import (
	"context"
	"fmt"

	"bestsellers/scraper/internal/domain"
	"bestsellers/scraper/internal/domain/task"

	log "github.com/sirupsen/logrus"
)

// SubcategoryFetcher discovers the subcategory links listed in a category page menu.
type SubcategoryFetcher interface {
	GetSubcategoryLinks(ctx context.Context, pageURL string) ([]string, error)
}

// BranchFailure describes a node whose branch was dropped from a crawl.
type BranchFailure struct {
	URL   string
	Depth int
	Stage string // task.StageBuild or task.StageTraverse
	Err   error
}

// BuildStats summarises one tree build.
type BuildStats struct {
	Nodes            int
	CycleStops       int
	DepthLimited     int
	SkippedBacklinks int
	Failures         []BranchFailure
}

type Builder struct {
	fetcher  SubcategoryFetcher
	maxDepth int
}

// NewBuilder creates a tree builder. maxDepth <= 0 disables the depth limit.
func NewBuilder(fetcher SubcategoryFetcher, maxDepth int) *Builder {
	return &Builder{
		fetcher:  fetcher,
		maxDepth: maxDepth,
	}
}

// Build constructs the category tree rooted at seedURL. Fetch and parse
// failures below the root are recorded in the stats and on the failed node.
// A failure of the root, any other error, or a cancelled context is returned.
func (b *Builder) Build(ctx context.Context, seedURL string) (*CategoryNode, *BuildStats, error) {
	root := NewRoot(seedURL)
	stats := &BuildStats{}
	ancestors := make(map[string]struct{})

	if err := b.expand(ctx, root, ancestors, stats); err != nil {
		return root, stats, fmt.Errorf("failed to build tree for %s: %w", root.url, err)
	}

	return root, stats, nil
}

func (b *Builder) expand(ctx context.Context, node *CategoryNode, ancestors map[string]struct{}, stats *BuildStats) error {
	stats.Nodes++

	if err := ctx.Err(); err != nil {
		node.setChildren(Failed(err))
		return err
	}

	if b.maxDepth > 0 && node.depth >= b.maxDepth {
		node.setChildren(DepthLimit())
		stats.DepthLimited++
		log.Debugf("Depth limit %d reached at %s", b.maxDepth, node.url)
		return nil
	}

	links, err := b.fetcher.GetSubcategoryLinks(ctx, node.url)
	if err != nil {
		node.setChildren(Failed(err))
		return err
	}

	candidates := make([]string, 0, len(links))
	for _, link := range links {
		if canonical := domain.CanonicalURL(link); canonical != "" {
			candidates = append(candidates, canonical)
		}
	}

	if node.parent != nil {
		for _, candidate := range candidates {
			if candidate == node.parent.url {
				node.setChildren(CycleStop())
				stats.CycleStops++
				log.Debugf("Parent backlink found on %s, not descending", node.url)
				return nil
			}
		}
	}

	ancestors[node.url] = struct{}{}
	defer delete(ancestors, node.url)

	children := make([]*CategoryNode, 0, len(candidates))
	for _, candidate := range candidates {
		if _, seen := ancestors[candidate]; seen {
			stats.SkippedBacklinks++
			log.Debugf("Skipping ancestor link %s on %s", candidate, node.url)
			continue
		}
		children = append(children, newChild(node, candidate))
	}
	node.setChildren(Expanded(children))

	for _, child := range children {
		err := b.expand(ctx, child, ancestors, stats)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !domain.IsBranchError(err) {
			return err
		}

		log.Warnf("⚠️ Skipping subcategory branch %s: %v", child.url, err)
		stats.Failures = append(stats.Failures, BranchFailure{
			URL:   child.url,
			Depth: child.depth,
			Stage: task.StageBuild,
			Err:   err,
		})
	}

	return nil
}
