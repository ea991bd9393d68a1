package tree

import (
	"context"
	"fmt"

	"bestsellers/scraper/internal/domain"
	"bestsellers/scraper/internal/domain/task"

	log "github.com/sirupsen/logrus"
)

// ListingFetcher retrieves the top-N identifiers listed for a category.
type ListingFetcher interface {
	GetTopListing(ctx context.Context, categoryURL string) ([]string, error)
}

// Accumulator receives identifiers in traversal order.
type Accumulator interface {
	Append(ids ...string) int
}

// TraverseStats summarises one traversal.
type TraverseStats struct {
	Visited     int
	Identifiers int
	Skipped     int // nodes not visited because their branch failed
	Failures    []BranchFailure
}

type Traverser struct {
	fetcher ListingFetcher
}

func NewTraverser(fetcher ListingFetcher) *Traverser {
	return &Traverser{fetcher: fetcher}
}

// Traverse walks the tree in pre-order and appends every visited node's
// listing to acc before descending into its children. Branches failing with a
// fetch or parse error are skipped; any other error or a cancelled context
// stops the walk.
func (t *Traverser) Traverse(ctx context.Context, root *CategoryNode, acc Accumulator) (*TraverseStats, error) {
	stats := &TraverseStats{}
	if err := t.visit(ctx, root, acc, stats); err != nil {
		return stats, err
	}
	return stats, nil
}

func (t *Traverser) visit(ctx context.Context, node *CategoryNode, acc Accumulator, stats *TraverseStats) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if node.children.Kind() == KindFailed {
		log.Debugf("Skipping branch %s, subcategory discovery failed: %v", node.url, node.children.Err())
		stats.Skipped++
		return nil
	}

	ids, err := t.fetcher.GetTopListing(ctx, node.url)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !domain.IsBranchError(err) {
			return fmt.Errorf("failed to read listing of %s: %w", node.url, err)
		}
		skipped := Size(node)
		log.Warnf("⚠️ Skipping listing branch %s (%d nodes): %v", node.url, skipped, err)
		stats.Skipped += skipped
		stats.Failures = append(stats.Failures, BranchFailure{
			URL:   node.url,
			Depth: node.depth,
			Stage: task.StageTraverse,
			Err:   err,
		})
		return nil
	}

	stats.Visited++
	stats.Identifiers += acc.Append(ids...)
	log.Debugf("Collected %d identifiers from %s", len(ids), node.url)

	if !node.children.Descend() {
		return nil
	}

	for _, child := range node.children.nodes {
		if err := t.visit(ctx, child, acc, stats); err != nil {
			return err
		}
	}

	return nil
}
