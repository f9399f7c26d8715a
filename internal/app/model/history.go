package model

import "time"

// HistoryRecord is one row of the transcription history store. Source groups
// records by the collection they were transcribed from, usually the input
// directory's base name.
type HistoryRecord struct {
	ID            int       `json:"id"`
	Source        string    `json:"source"`
	InputDir      string    `json:"input_dir"`
	FileName      string    `json:"file_name"`
	FileHash      string    `json:"file_hash,omitempty"`
	FileSize      int64     `json:"file_size,omitempty"`
	AudioDuration float64   `json:"audio_duration"`
	Text          string    `json:"text"`
	Provider      string    `json:"provider,omitempty"`
	Model         string    `json:"model,omitempty"`
	Language      string    `json:"language,omitempty"`
	HasError      bool      `json:"has_error"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
