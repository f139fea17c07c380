package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"smartstudy/internal/app"
	"smartstudy/internal/rag"
	"smartstudy/internal/transport/http/response"
)

type QuizHandler struct {
	studyService *app.StudyService
}

type SubmitScoreRequest struct {
	Score int `json:"score" binding:"min=0"`
}

func NewQuizHandler(studyService *app.StudyService) *QuizHandler {
	return &QuizHandler{studyService: studyService}
}

func (h *QuizHandler) Generate(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	result, err := h.studyService.GenerateQuiz(c.Request.Context(), userID)
	if err != nil {
		var malformed *rag.MalformedQuizError
		switch {
		case errors.Is(err, app.ErrNoStudyMaterial):
			response.Error(c, http.StatusNotFound, response.CodeNoStudyMaterial, err.Error())
		case errors.Is(err, app.ErrEmbeddingFailed), errors.Is(err, app.ErrGenerationFailed):
			response.Error(c, http.StatusServiceUnavailable, response.CodeUpstreamDown, "language model service unavailable")
		case errors.As(err, &malformed):
			response.Error(c, http.StatusInternalServerError, response.CodeMalformedQuiz, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "generate quiz failed")
		}
		return
	}

	response.OK(c, result)
}

func (h *QuizHandler) SubmitScore(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	attemptID64, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || attemptID64 == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid attempt id")
		return
	}

	var req SubmitScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	if err := h.studyService.SubmitQuizScore(userID, uint(attemptID64), req.Score); err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "submit score failed")
		}
		return
	}

	response.OK(c, gin.H{"attempt_id": uint(attemptID64), "score": req.Score})
}

func (h *QuizHandler) ListAttempts(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	attempts, err := h.studyService.ListQuizAttempts(userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list attempts failed")
		return
	}
	response.OK(c, attempts)
}
