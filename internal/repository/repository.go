package repository

import (
	"context"
	"errors"
)

// IdentifierRepository persists the identifiers collected for one seed.
// Seeds are saved in crawl order; ids are already deduplicated per policy.
type IdentifierRepository interface {
	SaveIdentifiers(ctx context.Context, seedURL string, ids []string) error
	Close() error
}

type multiRepository struct {
	repos []IdentifierRepository
}

// NewMultiRepository fans every save out to all repos in order, stopping at the first error.
func NewMultiRepository(repos ...IdentifierRepository) IdentifierRepository {
	return &multiRepository{repos: repos}
}

func (r *multiRepository) SaveIdentifiers(ctx context.Context, seedURL string, ids []string) error {
	for _, repo := range r.repos {
		if err := repo.SaveIdentifiers(ctx, seedURL, ids); err != nil {
			return err
		}
	}
	return nil
}

func (r *multiRepository) Close() error {
	var errs []error
	for _, repo := range r.repos {
		if err := repo.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
