// Package dto defines the request and response shapes of the v1 API.
package dto

import (
	"time"

	"github.com/samber/lo"

	"green-needle/internal/app/model"
)

// TranscribeOptions are the form fields accepted alongside an uploaded
// audio file.
type TranscribeOptions struct {
	Provider string `form:"provider"`
	Language string `form:"language"`
	Model    string `form:"model"`
	Task     string `form:"task" binding:"omitempty,oneof=transcribe translate"`
	Source   string `form:"source"`
}

// TranscriptionResponse is one transcription in API responses. A fresh
// upload carries segments; rows read back from history do not, because the
// store keeps only the text.
type TranscriptionResponse struct {
	ID           int             `json:"id,omitempty"`
	FileName     string          `json:"file_name"`
	Source       string          `json:"source,omitempty"`
	Text         string          `json:"text"`
	Segments     []model.Segment `json:"segments,omitempty"`
	Language     string          `json:"language,omitempty"`
	Model        string          `json:"model,omitempty"`
	Provider     string          `json:"provider,omitempty"`
	Duration     float64         `json:"duration_seconds,omitempty"`
	WordCount    int             `json:"word_count,omitempty"`
	Error        string          `json:"error,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	ProcessingMs int64           `json:"processing_ms,omitempty"`
}

// ListTranscriptionsQuery filters and bounds the history listing.
type ListTranscriptionsQuery struct {
	Limit  int    `form:"limit,default=20" binding:"min=1,max=500"`
	Source string `form:"source"`
	Search string `form:"search"`
}

// TranscriptionListResponse wraps the listing with its length.
type TranscriptionListResponse struct {
	Transcriptions []TranscriptionResponse `json:"transcriptions"`
	Count          int                     `json:"count"`
}

// FromResult converts a finished transcription.
func FromResult(result *model.TranscriptionResult, providerName string, elapsed time.Duration) TranscriptionResponse {
	return TranscriptionResponse{
		Text:         result.Text,
		Segments:     result.Segments,
		Language:     result.Language,
		Model:        result.Model,
		Provider:     providerName,
		Duration:     result.Duration,
		WordCount:    result.WordCount,
		CreatedAt:    result.CreatedAt,
		ProcessingMs: elapsed.Milliseconds(),
	}
}

// FromRecord converts a history row.
func FromRecord(record model.HistoryRecord) TranscriptionResponse {
	return TranscriptionResponse{
		ID:        record.ID,
		FileName:  record.FileName,
		Source:    record.Source,
		Text:      record.Text,
		Language:  record.Language,
		Model:     record.Model,
		Provider:  record.Provider,
		Duration:  record.AudioDuration,
		Error:     record.ErrorMessage,
		CreatedAt: record.CreatedAt,
	}
}

// FromRecords converts a history listing.
func FromRecords(records []model.HistoryRecord) []TranscriptionResponse {
	return lo.Map(records, func(record model.HistoryRecord, _ int) TranscriptionResponse {
		return FromRecord(record)
	})
}
