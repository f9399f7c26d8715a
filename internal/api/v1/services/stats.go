package services

import (
	"context"

	"green-needle/internal/api/errors"
	"green-needle/internal/api/v1/dto"
	"green-needle/internal/app/repository"
)

// StatsService summarizes the history store.
type StatsService struct {
	history repository.HistoryDAO
}

// NewStatsService wires the service to the optional history store.
func NewStatsService(history repository.HistoryDAO) *StatsService {
	return &StatsService{history: history}
}

// Summary aggregates the store across all sources.
func (s *StatsService) Summary(ctx context.Context) (*dto.StatsResponse, error) {
	if s.history == nil {
		return nil, errors.Unavailable("transcription history is disabled")
	}

	total, err := s.history.Count(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := s.history.StatsBySource(ctx)
	if err != nil {
		return nil, err
	}

	response := dto.ToStatsResponse(total, stats)
	return &response, nil
}
