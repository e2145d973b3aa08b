package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	uuid "github.com/satori/go.uuid"

	"exam-mex-backend/internal/client"
	"exam-mex-backend/internal/ctxlog"
	"exam-mex-backend/internal/model"
	"exam-mex-backend/internal/service"
)

type ExamHandler struct {
	examService *service.ExamService
}

func NewExamHandler(examService *service.ExamService) *ExamHandler {
	return &ExamHandler{examService: examService}
}

func (h *ExamHandler) handleConversionError(c *gin.Context, err error, contextMsg string) {
	switch {
	case errors.Is(err, client.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "mastering service is busy, try again later"})
	case errors.Is(err, service.ErrConversionFailed):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   contextMsg,
			"details": err.Error(),
		})
	default:
		ctxlog.FromContext(c.Request.Context()).Error(contextMsg, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   contextMsg,
			"details": err.Error(),
		})
	}
}

func validateExamUUID(examUUID string) error {
	if _, err := uuid.FromString(examUUID); err != nil {
		return fmt.Errorf("examUuid %q is not a valid UUID", examUUID)
	}
	return nil
}

func bindExam(c *gin.Context) (*model.Exam, bool) {
	var exam model.Exam
	if err := c.ShouldBindJSON(&exam); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return nil, false
	}
	if err := validateExamUUID(exam.ExamUUID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return &exam, true
}

func (h *ExamHandler) GenerateXMLHandler(c *gin.Context) {
	exam, ok := bindExam(c)
	if !ok {
		return
	}
	result, err := h.examService.GenerateXML(c.Request.Context(), exam)
	if err != nil {
		h.handleConversionError(c, err, "XML generation failed")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ExamHandler) ConvertToMexHandler(c *gin.Context) {
	exam, ok := bindExam(c)
	if !ok {
		return
	}
	result, err := h.examService.ConvertToMex(c.Request.Context(), exam)
	if err != nil {
		h.handleConversionError(c, err, "Mex conversion failed")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ExamHandler) MasterXMLHandler(c *gin.Context) {
	exam, ok := bindExam(c)
	if !ok {
		return
	}
	result, err := h.examService.MasterXML(c.Request.Context(), exam)
	if err != nil {
		h.handleConversionError(c, err, "XML mastering failed")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ExamHandler) ConvertBatchHandler(c *gin.Context) {
	var req model.BatchConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	for i, exam := range req.Exams {
		if err := validateExamUUID(exam.ExamUUID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("exam %d: %s", i, err)})
			return
		}
	}

	results := h.examService.ConvertBatch(c.Request.Context(), req.Exams)
	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	ctxlog.FromContext(c.Request.Context()).Info("batch conversion finished", "exams", len(results), "failed", failed)
	c.JSON(http.StatusOK, gin.H{"results": results})
}
