package service

import (
	"context"
	"fmt"
	"sync"

	"bestsellers/scraper/internal/collector"
	"bestsellers/scraper/internal/domain"
	"bestsellers/scraper/internal/domain/task"
	"bestsellers/scraper/internal/queue"
	"bestsellers/scraper/internal/repository"
	"bestsellers/scraper/internal/state"
	"bestsellers/scraper/internal/tree"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type Service struct {
	builder         *tree.Builder
	traverser       *tree.Traverser
	repository      repository.IdentifierRepository
	checkpoints     state.CheckpointStore
	queue           queue.Queue
	collection      *collector.Collection
	seedConcurrency int
}

// NewService creates the crawl orchestrator. retryQueue may be nil, in which
// case failed branches are only logged.
func NewService(
	builder *tree.Builder,
	traverser *tree.Traverser,
	repository repository.IdentifierRepository,
	checkpoints state.CheckpointStore,
	retryQueue queue.Queue,
	collection *collector.Collection,
	seedConcurrency int,
) *Service {
	return &Service{
		builder:         builder,
		traverser:       traverser,
		repository:      repository,
		checkpoints:     checkpoints,
		queue:           retryQueue,
		collection:      collection,
		seedConcurrency: max(1, seedConcurrency),
	}
}

// SeedReport describes the outcome of one seed.
type SeedReport struct {
	SeedURL        string
	Nodes          int
	Collected      int // identifiers found in the seed's tree
	Kept           int // identifiers left after the dedup policy
	FromCheckpoint bool
	Failures       []tree.BranchFailure
	Err            error // root failure; the seed contributed nothing
}

type Report struct {
	Seeds       []SeedReport
	Identifiers int
}

// FailureCount returns the number of failed seeds and branches.
func (r *Report) FailureCount() int {
	count := 0
	for _, seed := range r.Seeds {
		if seed.Err != nil {
			count++
		}
		count += len(seed.Failures)
	}
	return count
}

type seedResult struct {
	report SeedReport
	ids    []string
}

// CollectAll crawls every seed and saves its identifiers in seed order as
// soon as all earlier seeds are saved. Branch and seed failures are reported,
// not returned; the error is reserved for cancellation, repository failures
// and errors that are neither fetch nor parse errors.
func (s *Service) CollectAll(ctx context.Context, seeds []string) (*Report, error) {
	report := &Report{Seeds: make([]SeedReport, 0, len(seeds))}

	var mu sync.Mutex
	results := make([]*seedResult, len(seeds))
	next := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.seedConcurrency)

	log.Infof("🔄 Processing %d seeds. This might take some time...", len(seeds))

	for i, seedURL := range seeds {
		g.Go(func() error {
			result, err := s.collectSeed(gctx, seedURL)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()

			results[i] = result
			for next < len(results) && results[next] != nil {
				if err := s.flush(gctx, results[next], report); err != nil {
					return err
				}
				results[next] = nil
				next++
			}
			return nil
		})
	}

	err := g.Wait()
	report.Identifiers = s.collection.Len()
	if err != nil {
		return report, err
	}

	log.Infof("✅ Completed all seeds: %d identifiers, %d failures", report.Identifiers, report.FailureCount())
	return report, nil
}

func (s *Service) flush(ctx context.Context, result *seedResult, report *Report) error {
	kept := s.collection.Merge(result.ids)
	if err := s.repository.SaveIdentifiers(ctx, result.report.SeedURL, kept); err != nil {
		return fmt.Errorf("failed to save identifiers for %s: %w", result.report.SeedURL, err)
	}

	result.report.Kept = len(kept)
	report.Seeds = append(report.Seeds, result.report)

	if result.report.Err == nil {
		log.Infof("✅ Best seller identifiers for %.21s have been scraped (%d kept)", result.report.SeedURL, len(kept))
	}
	return nil
}

// collectSeed builds and traverses the tree of one seed. Fetch and parse
// failures are reported on the result; the error is non-nil only when ctx is
// done or an unexpected error ends the run.
func (s *Service) collectSeed(ctx context.Context, seedURL string) (*seedResult, error) {
	result := &seedResult{report: SeedReport{SeedURL: seedURL}}

	ids, ok, err := s.checkpoints.LoadSeed(ctx, seedURL)
	if err != nil {
		log.Warnf("⚠️ Ignoring checkpoint for %s: %v", seedURL, err)
	} else if ok {
		log.Infof("🔄 Using checkpoint for %s (%d identifiers)", seedURL, len(ids))
		result.ids = ids
		result.report.Collected = len(ids)
		result.report.FromCheckpoint = true
		return result, nil
	}

	root, buildStats, err := s.builder.Build(ctx, seedURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !domain.IsBranchError(err) {
			return nil, err
		}
		log.Errorf("❌ Failed to build category tree for %s: %v", seedURL, err)
		result.report.Err = err
		s.enqueueRetry(ctx, seedURL, tree.BranchFailure{URL: root.URL(), Stage: task.StageBuild, Err: err})
		return result, nil
	}

	acc := collector.New(collector.PolicyNone)
	traverseStats, err := s.traverser.Traverse(ctx, root, acc)
	if err != nil {
		return nil, err
	}

	result.ids = acc.Items()
	result.report.Nodes = buildStats.Nodes
	result.report.Collected = len(result.ids)
	result.report.Failures = append(append([]tree.BranchFailure{}, buildStats.Failures...), traverseStats.Failures...)

	log.Infof("🌳 %s: %d nodes, %d cycle stops, %d identifiers, %d failed branches",
		root.URL(), buildStats.Nodes, buildStats.CycleStops, len(result.ids), len(result.report.Failures))

	for _, failure := range result.report.Failures {
		s.enqueueRetry(ctx, seedURL, failure)
	}

	if len(result.report.Failures) == 0 {
		if err := s.checkpoints.SaveSeed(ctx, seedURL, result.ids); err != nil {
			log.Warnf("⚠️ Failed to checkpoint %s: %v", seedURL, err)
		}
	}

	return result, nil
}

func (s *Service) enqueueRetry(ctx context.Context, seedURL string, failure tree.BranchFailure) {
	if s.queue == nil {
		return
	}

	retryTask := &task.BranchRetryTask{
		SeedURL:     seedURL,
		CategoryURL: failure.URL,
		Depth:       failure.Depth,
		Stage:       failure.Stage,
		Error:       failure.Err.Error(),
	}

	if _, err := s.queue.AddTask(ctx, retryTask); err != nil {
		log.Errorf("❌ Failed to add branch %s to retry queue: %v", failure.URL, err)
		return
	}
	log.Warnf("🔄 Added branch %s to retry queue", failure.URL)
}
