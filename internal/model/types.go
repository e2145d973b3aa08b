package model

import "encoding/json"

type AttachmentType string

const (
	AttachmentTypeImage AttachmentType = "image"
	AttachmentTypeAudio AttachmentType = "audio"
	AttachmentTypeVideo AttachmentType = "video"
	AttachmentTypeFile  AttachmentType = "file"
)

// IsMedia reports whether mastering needs recorded metadata for the type.
func (t AttachmentType) IsMedia() bool {
	return t == AttachmentTypeImage || t == AttachmentTypeAudio || t == AttachmentTypeVideo
}

type Attachment struct {
	Filename string         `json:"filename"`
	Type     AttachmentType `json:"type"`
}

type AttachmentFile struct {
	Filename string `json:"filename" binding:"required"`
	Mimetype string `json:"mimetype"`
}

type MediaMetadata struct {
	Duration float64 `json:"duration,omitempty"`
	Width    int     `json:"width,omitempty"`
	Height   int     `json:"height,omitempty"`
}

// MediaMetadataResolver answers the mastering engine's metadata lookups.
type MediaMetadataResolver func(filename string, mediaType AttachmentType) (MediaMetadata, error)

type Exam struct {
	ExamUUID            string                   `json:"examUuid" binding:"required"`
	Content             *ExamContent             `json:"content,omitempty"`
	ContentXML          string                   `json:"contentXml,omitempty"`
	Attachments         []AttachmentFile         `json:"attachments,omitempty"`
	AttachmentsMetadata map[string]MediaMetadata `json:"attachmentsMetadata,omitempty"`
}

type MasteringOptions struct {
	ThrowOnLatexError        *bool  `json:"throwOnLatexError,omitempty"`
	MultiChoiceShuffleSecret string `json:"multiChoiceShuffleSecret,omitempty"`
}

type MasteredAttachment struct {
	Filename   string `json:"filename"`
	Restricted bool   `json:"restricted,omitempty"`
}

type MasteringResult struct {
	XML              string               `json:"xml"`
	Attachments      []MasteredAttachment `json:"attachments"`
	Title            string               `json:"title,omitempty"`
	GradingStructure json.RawMessage      `json:"gradingStructure,omitempty"`
}

type GeneratedXML struct {
	XML         string       `json:"xml"`
	Attachments []Attachment `json:"attachments"`
}

type MexConversionResult struct {
	XML         string               `json:"xml"`
	Attachments []MasteredAttachment `json:"attachments"`
}

type XMLMasteringResult struct {
	XML              string               `json:"xml"`
	Attachments      []MasteredAttachment `json:"attachments"`
	GradingStructure json.RawMessage      `json:"gradingStructure,omitempty"`
	ExamTitle        string               `json:"examTitle,omitempty"`
}

type BatchConversionRequest struct {
	Exams []Exam `json:"exams" binding:"required,dive"`
}

type BatchItemResult struct {
	ExamUUID string               `json:"examUuid"`
	Result   *MexConversionResult `json:"result,omitempty"`
	Error    string               `json:"error,omitempty"`
}
