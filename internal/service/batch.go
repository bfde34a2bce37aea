package service

import (
	"context"
	"sync"

	"github.com/wealthsim/wealthsim/internal/domain"
)

// BatchItem is one request's outcome within a batch. Exactly one of Result
// and Err is set.
type BatchItem struct {
	Index  int
	Result *domain.CalculationResult
	Err    error
}

// CalculateBatch runs requests with bounded concurrency. Failures are
// isolated per item: one invalid request never fails the rest of the batch.
// maxConcurrency values below 1, or above the service's configured bound,
// use the configured bound.
func (s *Service) CalculateBatch(ctx context.Context, reqs []*domain.CalculationRequest, maxConcurrency int) []BatchItem {
	if maxConcurrency < 1 || maxConcurrency > s.batchMaxConcurrency {
		maxConcurrency = s.batchMaxConcurrency
	}

	items := make([]BatchItem, len(reqs))
	sem := make(chan struct{}, maxConcurrency)
	var wg sync.WaitGroup

	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req *domain.CalculationRequest) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result, err := s.Calculate(ctx, req)
			items[i] = BatchItem{Index: i, Result: result, Err: err}
		}(i, req)
	}
	wg.Wait()
	return items
}
