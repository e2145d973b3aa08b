package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sourcegraph/conc/iter"

	"exam-mex-backend/internal/ctxlog"
	"exam-mex-backend/internal/examxml"
	"exam-mex-backend/internal/model"
)

type ExamService struct {
	mastering      *MasteringService
	maxConcurrency int
}

func NewExamService(mastering *MasteringService, maxConcurrency int) *ExamService {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &ExamService{
		mastering:      mastering,
		maxConcurrency: maxConcurrency,
	}
}

// ClassifyAttachments derives attachment types from mimetypes. Audio, image
// and video attachments must have recorded metadata.
func ClassifyAttachments(exam *model.Exam) ([]model.Attachment, error) {
	attachments := make([]model.Attachment, 0, len(exam.Attachments))
	for _, file := range exam.Attachments {
		major, _, _ := strings.Cut(file.Mimetype, "/")
		attachmentType := model.AttachmentType(major)
		if !attachmentType.IsMedia() {
			attachments = append(attachments, model.Attachment{Filename: file.Filename, Type: model.AttachmentTypeFile})
			continue
		}
		if _, ok := exam.AttachmentsMetadata[file.Filename]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingMetadata, file.Filename)
		}
		attachments = append(attachments, model.Attachment{Filename: file.Filename, Type: attachmentType})
	}
	return attachments, nil
}

func buildExamXML(exam *model.Exam) (string, []model.Attachment, error) {
	if exam.Content == nil {
		return "", nil, ErrMissingContent
	}
	attachments, err := ClassifyAttachments(exam)
	if err != nil {
		return "", nil, err
	}
	xml, err := examxml.Build(exam.Content, attachments)
	if err != nil {
		return "", nil, err
	}
	return xml, attachments, nil
}

// GenerateXML returns the exam markup without mastering it.
func (s *ExamService) GenerateXML(ctx context.Context, exam *model.Exam) (*model.GeneratedXML, error) {
	xml, attachments, err := buildExamXML(exam)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("XML generation failed", "examUuid", exam.ExamUUID, "error", err)
		return nil, &ConversionError{ExamUUID: exam.ExamUUID, Op: "xml generation", Err: err}
	}
	return &model.GeneratedXML{XML: xml, Attachments: attachments}, nil
}

// ConvertToMex builds exam markup, masters it and stamps answer ids onto the
// mastered markup.
func (s *ExamService) ConvertToMex(ctx context.Context, exam *model.Exam) (*model.MexConversionResult, error) {
	result, err := s.convertToMex(ctx, exam)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Mex conversion failed", "examUuid", exam.ExamUUID, "error", err)
		return nil, &ConversionError{ExamUUID: exam.ExamUUID, Op: "mex conversion", Err: err}
	}
	return result, nil
}

func (s *ExamService) convertToMex(ctx context.Context, exam *model.Exam) (*model.MexConversionResult, error) {
	xml, _, err := buildExamXML(exam)
	if err != nil {
		return nil, err
	}

	throwOnLatexError := false
	mastered, err := s.mastering.callExamMastering(ctx, exam, xml, model.MasteringOptions{ThrowOnLatexError: &throwOnLatexError})
	if err != nil {
		return nil, err
	}

	withIDs, err := examxml.AllocateAnswerIDs(mastered.XML, exam.Content)
	if err != nil {
		return nil, err
	}
	return &model.MexConversionResult{XML: withIDs, Attachments: mastered.Attachments}, nil
}

// MasterXML masters exam markup supplied by the caller.
func (s *ExamService) MasterXML(ctx context.Context, exam *model.Exam) (*model.XMLMasteringResult, error) {
	return s.mastering.MasterXML(ctx, exam)
}

// ConvertBatch converts exams concurrently. Results keep the input order and
// a failed exam does not stop the others.
func (s *ExamService) ConvertBatch(ctx context.Context, exams []model.Exam) []model.BatchItemResult {
	mapper := iter.Mapper[model.Exam, model.BatchItemResult]{MaxGoroutines: s.maxConcurrency}
	return mapper.Map(exams, func(exam *model.Exam) model.BatchItemResult {
		item := model.BatchItemResult{ExamUUID: exam.ExamUUID}
		if err := ctx.Err(); err != nil {
			item.Error = err.Error()
			return item
		}
		result, err := s.ConvertToMex(ctx, exam)
		if err != nil {
			item.Error = err.Error()
			return item
		}
		item.Result = result
		return item
	})
}
