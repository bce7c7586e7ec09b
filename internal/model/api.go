package model

type ErrorResponse struct {
	Error     string `json:"error"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ValidationDetails struct {
	WordCount          int `json:"word_count"`
	UniqueWordCount    int `json:"unique_word_count"`
	MinWordCount       int `json:"min_word_count"`
	MinUniqueWordCount int `json:"min_unique_word_count"`
}

type HealthResponse struct {
	OK bool `json:"ok"`
}

type ReadyResponse struct {
	OK          bool   `json:"ok"`
	ServiceName string `json:"service_name,omitempty"`
}

type TranscriptionResponse struct {
	Text string `json:"text"`
}

type FeedbackRequest struct {
	Transcription string `json:"transcription"`
	Question      string `json:"question"`
	FeedbackType  string `json:"feedbackType,omitempty"`
}
