package service

import (
	"context"
	"fmt"

	"exam-mex-backend/internal/ctxlog"
	"exam-mex-backend/internal/model"
)

// Placeholder metadata handed to the mastering engine when nothing is recorded.
const (
	defaultDuration = 999
	defaultWidth    = 640
	defaultHeight   = 480
)

// Masterer runs the external exam mastering transform.
type Masterer interface {
	MasterExam(
		ctx context.Context,
		xml string,
		examID func() string,
		resolve model.MediaMetadataResolver,
		opts model.MasteringOptions,
	) ([]model.MasteringResult, error)
}

type MasteringService struct {
	masterer      Masterer
	shuffleSecret string
}

func NewMasteringService(masterer Masterer, shuffleSecret string) *MasteringService {
	return &MasteringService{masterer: masterer, shuffleSecret: shuffleSecret}
}

// metadataResolver answers lookups from recorded attachment metadata. Files
// without an entry resolve to placeholders so that markup can be mastered
// before its attachments are uploaded.
func metadataResolver(recorded map[string]model.MediaMetadata) model.MediaMetadataResolver {
	return func(filename string, mediaType model.AttachmentType) (model.MediaMetadata, error) {
		m, ok := recorded[filename]
		if !ok {
			return model.MediaMetadata{Duration: defaultDuration, Width: defaultWidth, Height: defaultHeight}, nil
		}
		if mediaType == model.AttachmentTypeAudio {
			return model.MediaMetadata{Duration: orDefault(m.Duration, defaultDuration)}, nil
		}
		return model.MediaMetadata{
			Width:  orDefault(m.Width, defaultWidth),
			Height: orDefault(m.Height, defaultHeight),
		}, nil
	}
}

func orDefault[T int | float64](v, def T) T {
	if v == 0 {
		return def
	}
	return v
}

func (s *MasteringService) callExamMastering(ctx context.Context, exam *model.Exam, xml string, opts model.MasteringOptions) (model.MasteringResult, error) {
	results, err := s.masterer.MasterExam(ctx, xml,
		func() string { return exam.ExamUUID },
		metadataResolver(exam.AttachmentsMetadata),
		opts,
	)
	if err != nil {
		return model.MasteringResult{}, err
	}
	switch {
	case len(results) > 1:
		return model.MasteringResult{}, fmt.Errorf("%w: got %d results", ErrMultiLanguageExam, len(results))
	case len(results) == 0:
		return model.MasteringResult{}, ErrNoMasteringResult
	}
	return results[0], nil
}

// MasterXML masters exam markup supplied by the caller. Multiple choice
// options are shuffled with the configured secret.
func (s *MasteringService) MasterXML(ctx context.Context, exam *model.Exam) (*model.XMLMasteringResult, error) {
	result, err := s.masterXML(ctx, exam)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("XML mastering failed", "examUuid", exam.ExamUUID, "error", err)
		return nil, &ConversionError{ExamUUID: exam.ExamUUID, Op: "xml mastering", Err: err}
	}
	return result, nil
}

func (s *MasteringService) masterXML(ctx context.Context, exam *model.Exam) (*model.XMLMasteringResult, error) {
	if exam.ContentXML == "" {
		return nil, ErrMissingContent
	}
	opts := model.MasteringOptions{MultiChoiceShuffleSecret: s.shuffleSecret}
	result, err := s.callExamMastering(ctx, exam, exam.ContentXML, opts)
	if err != nil {
		return nil, err
	}
	return &model.XMLMasteringResult{
		XML:              result.XML,
		Attachments:      result.Attachments,
		GradingStructure: result.GradingStructure,
		ExamTitle:        result.Title,
	}, nil
}
