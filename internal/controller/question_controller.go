package controller

import (
	"practice_exam_backend/internal/model"
	"practice_exam_backend/internal/service"
	"practice_exam_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuestionController struct {
	QuestionService *service.QuestionService
}

func NewQuestionController(questionService *service.QuestionService) *QuestionController {
	return &QuestionController{QuestionService: questionService}
}

// @Summary List questions
// @Description All questions stored for an exam type, answer key included
// @Tags questions
// @Produce json
// @Param examType path string true "Exam type, e.g. AZ-900"
// @Success 200 {array} model.Question
// @Failure 500 {object} util.Response
// @Router /questions/{examType} [get]
func (c *QuestionController) ListQuestions(ctx *gin.Context) {
	questions, err := c.QuestionService.ListQuestions(ctx.Request.Context(), ctx.Param("examType"))
	if err != nil {
		util.HandleError(ctx, "Failed to list questions", err)
		return
	}
	util.Success(ctx, questions)
}

// @Summary Random questions
// @Tags questions
// @Produce json
// @Param examType path string true "Exam type"
// @Param count path int true "Maximum number of questions"
// @Success 200 {array} model.Question
// @Failure 400 {object} util.Response
// @Failure 500 {object} util.Response
// @Router /questions/{examType}/random/{count} [get]
func (c *QuestionController) RandomQuestions(ctx *gin.Context) {
	count, ok := util.ParseCount(ctx.Param("count"))
	if !ok {
		util.BadRequest(ctx, "count must be a non-negative integer")
		return
	}

	questions, err := c.QuestionService.RandomQuestions(ctx.Request.Context(), ctx.Param("examType"), count)
	if err != nil {
		util.HandleError(ctx, "Failed to sample questions", err)
		return
	}
	util.Success(ctx, questions)
}

// @Summary Add a question
// @Description Stores a question; an id is generated when none is given
// @Tags questions
// @Accept json
// @Produce json
// @Param question body model.Question true "Question"
// @Success 201 {object} model.Question
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response
// @Failure 500 {object} util.Response
// @Router /questions [post]
func (c *QuestionController) AddQuestion(ctx *gin.Context) {
	var req model.Question
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Invalid question payload")
		return
	}

	question, err := c.QuestionService.AddQuestion(ctx.Request.Context(), &req)
	if err != nil {
		util.HandleError(ctx, "Failed to add question", err)
		return
	}
	util.Created(ctx, question)
}
