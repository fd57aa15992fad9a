package model

// Question is an exam question as served over the API. ExamType is the
// partition key (stored uppercased), ID is unique within an exam type.
// swagger:model Question
type Question struct {
	ID            string   `json:"id" validate:"required,max=191"`
	ExamType      string   `json:"examType" validate:"required,max=191"`
	Category      string   `json:"category"`
	Difficulty    string   `json:"difficulty"`
	QuestionText  string   `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"min=1,dive,required"`
	CorrectAnswer int      `json:"correctAnswer" validate:"gte=0"`
	Explanation   string   `json:"explanation"`
}

// StudentView strips the answer key.
func (q Question) StudentView() Question {
	q.CorrectAnswer = 0
	q.Explanation = ""
	return q
}

// PlaceholderOptions replace an option list that cannot be decoded.
func PlaceholderOptions() []string {
	return []string{"Option A", "Option B", "Option C", "Option D"}
}
