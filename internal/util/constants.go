package util

const (
	// RequestIDKey is the gin context key and response header carrying the request id.
	RequestIDKey = "X-Request-ID"

	// AnonymousUser owns sessions started without a user id.
	AnonymousUser = "anonymous"
)

const (
	QuestionsTable    = "Questions"
	ExamSessionsTable = "ExamSessions"
)
