package model

import "time"

// ExamSession is one user's attempt at an exam. Answers has one slot per
// question; a nil slot is unanswered.
// swagger:model ExamSession
type ExamSession struct {
	SessionID      string     `json:"sessionId"`
	UserID         string     `json:"userId"`
	ExamType       string     `json:"examType"`
	Questions      []string   `json:"questions"`
	Answers        []*int     `json:"answers"`
	StartTime      time.Time  `json:"startTime"`
	EndTime        *time.Time `json:"endTime,omitempty"`
	Score          int        `json:"score"`
	CorrectAnswers int        `json:"correctAnswers"`
	IsCompleted    bool       `json:"isCompleted"`

	// ETag is the store version captured when the session was read.
	ETag string `json:"-"`
}

// Summary is what Start hands back: no answers, no grading.
func (s *ExamSession) Summary() ExamSessionSummary {
	return ExamSessionSummary{
		SessionID:   s.SessionID,
		UserID:      s.UserID,
		ExamType:    s.ExamType,
		Questions:   s.Questions,
		StartTime:   s.StartTime,
		IsCompleted: s.IsCompleted,
	}
}

// Result reports the graded outcome of a completed session.
func (s *ExamSession) Result() ExamResult {
	r := ExamResult{
		SessionID:      s.SessionID,
		Score:          s.Score,
		CorrectAnswers: s.CorrectAnswers,
		TotalQuestions: len(s.Questions),
	}
	if s.EndTime != nil {
		r.CompletionTime = *s.EndTime
	}
	return r
}

// swagger:model ExamSessionSummary
type ExamSessionSummary struct {
	SessionID   string    `json:"sessionId"`
	UserID      string    `json:"userId"`
	ExamType    string    `json:"examType"`
	Questions   []string  `json:"questions"`
	StartTime   time.Time `json:"startTime"`
	IsCompleted bool      `json:"isCompleted"`
}

// swagger:model ExamResult
type ExamResult struct {
	SessionID      string    `json:"sessionId"`
	Score          int       `json:"score"`
	CorrectAnswers int       `json:"correctAnswers"`
	TotalQuestions int       `json:"totalQuestions"`
	CompletionTime time.Time `json:"completionTime"`
}
