package dto

import (
	"github.com/samber/lo"

	"green-needle/internal/app/repository"
)

// SourceStatsResponse aggregates history for one source collection.
type SourceStatsResponse struct {
	Source          string  `json:"source"`
	Files           int64   `json:"files"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// StatsResponse summarizes the whole history store.
type StatsResponse struct {
	TotalTranscriptions int64                 `json:"total_transcriptions"`
	Sources             []SourceStatsResponse `json:"sources"`
}

// ToStatsResponse converts the store aggregates.
func ToStatsResponse(total int64, stats []repository.SourceStats) StatsResponse {
	return StatsResponse{
		TotalTranscriptions: total,
		Sources: lo.Map(stats, func(s repository.SourceStats, _ int) SourceStatsResponse {
			return SourceStatsResponse{Source: s.Source, Files: s.Files, DurationSeconds: s.Duration}
		}),
	}
}
