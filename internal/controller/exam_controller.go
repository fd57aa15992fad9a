package controller

import (
	"practice_exam_backend/internal/service"
	"practice_exam_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ExamController struct {
	ExamService *service.ExamSessionService
}

func NewExamController(examService *service.ExamSessionService) *ExamController {
	return &ExamController{ExamService: examService}
}

type StartExamRequest struct {
	ExamType      string `json:"examType" binding:"required"`
	UserID        string `json:"userId"`
	QuestionCount *int   `json:"questionCount"`
}

type SubmitAnswerRequest struct {
	SessionID      string `json:"sessionId" binding:"required"`
	UserID         string `json:"userId"`
	QuestionIndex  *int   `json:"questionIndex" binding:"required"`
	SelectedAnswer *int   `json:"selectedAnswer" binding:"required"`
}

type CompleteExamRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	UserID    string `json:"userId"`
}

// @Summary Start an exam session
// @Tags exam
// @Accept json
// @Produce json
// @Param request body StartExamRequest true "Exam type, optional user and question count"
// @Success 201 {object} model.ExamSessionSummary
// @Failure 400 {object} util.Response
// @Failure 500 {object} util.Response
// @Router /exam/start [post]
func (c *ExamController) StartExam(ctx *gin.Context) {
	var req StartExamRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "examType is required")
		return
	}

	count := 0
	if req.QuestionCount != nil {
		if *req.QuestionCount <= 0 {
			util.BadRequest(ctx, "questionCount must be positive")
			return
		}
		count = *req.QuestionCount
	}

	summary, err := c.ExamService.Start(ctx.Request.Context(), req.ExamType, req.UserID, count)
	if err != nil {
		util.HandleError(ctx, "Failed to start exam", err)
		return
	}
	util.Created(ctx, summary)
}

// @Summary Submit an answer
// @Description Records the selected option for one question. Indexes outside the session are ignored.
// @Tags exam
// @Accept json
// @Produce plain
// @Param request body SubmitAnswerRequest true "Answer"
// @Success 200 {string} string "Answer submitted successfully"
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Failure 500 {object} util.Response
// @Router /exam/answer [post]
func (c *ExamController) SubmitAnswer(ctx *gin.Context) {
	var req SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "sessionId, questionIndex and selectedAnswer are required")
		return
	}

	err := c.ExamService.Answer(ctx.Request.Context(), req.SessionID, req.UserID, *req.QuestionIndex, *req.SelectedAnswer)
	if err != nil {
		util.HandleError(ctx, "Failed to submit answer", err)
		return
	}
	util.Message(ctx, "Answer submitted successfully")
}

// @Summary Complete an exam session
// @Description Grades the session. Completing an already completed session returns the stored result.
// @Tags exam
// @Accept json
// @Produce json
// @Param request body CompleteExamRequest true "Session"
// @Success 200 {object} model.ExamResult
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Failure 500 {object} util.Response
// @Router /exam/complete [post]
func (c *ExamController) CompleteExam(ctx *gin.Context) {
	var req CompleteExamRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "sessionId is required")
		return
	}

	result, err := c.ExamService.Complete(ctx.Request.Context(), req.SessionID, req.UserID)
	if err != nil {
		util.HandleError(ctx, "Failed to complete exam", err)
		return
	}
	util.Success(ctx, result)
}

// @Summary Get an exam session
// @Tags exam
// @Produce json
// @Param sessionId path string true "Session id"
// @Param userId query string false "User id, anonymous when omitted"
// @Success 200 {object} model.ExamSession
// @Failure 404 {object} util.Response
// @Router /exam/{sessionId} [get]
func (c *ExamController) GetSession(ctx *gin.Context) {
	session, err := c.ExamService.GetSession(ctx.Request.Context(), ctx.Param("sessionId"), ctx.Query("userId"))
	if err != nil {
		util.HandleError(ctx, "Failed to load session", err)
		return
	}
	util.Success(ctx, session)
}

// @Summary Questions of an exam session
// @Description The session's questions in order. Answer keys are included only after completion.
// @Tags exam
// @Produce json
// @Param sessionId path string true "Session id"
// @Param userId query string false "User id, anonymous when omitted"
// @Success 200 {array} model.Question
// @Failure 404 {object} util.Response
// @Router /exam/{sessionId}/questions [get]
func (c *ExamController) SessionQuestions(ctx *gin.Context) {
	questions, err := c.ExamService.SessionQuestions(ctx.Request.Context(), ctx.Param("sessionId"), ctx.Query("userId"))
	if err != nil {
		util.HandleError(ctx, "Failed to load session questions", err)
		return
	}
	util.Success(ctx, questions)
}
