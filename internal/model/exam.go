package model

import (
	"encoding/json"
	"fmt"
)

type QuestionType string

const (
	QuestionTypeText           QuestionType = "text"
	QuestionTypeChoiceGroup    QuestionType = "choicegroup"
	QuestionTypeMultiChoiceGap QuestionType = "multichoicegap"
	QuestionTypeAudioTest      QuestionType = "audiotest"
)

type ExamContent struct {
	Title       string    `json:"title"`
	Instruction string    `json:"instruction"`
	Sections    []Section `json:"sections"`
}

type Section struct {
	Title        string    `json:"title,omitempty"`
	CasForbidden bool      `json:"casForbidden,omitempty"`
	Questions    Questions `json:"questions"`
}

// Question is one of TextQuestion, ChoiceGroupQuestion, MultiChoiceGapQuestion,
// AudioTestQuestion or UnsupportedQuestion.
type Question interface {
	QuestionType() QuestionType
}

type TextQuestion struct {
	ID                 int    `json:"id"`
	Text               string `json:"text"`
	MaxScore           int    `json:"maxScore"`
	ScreenshotExpected bool   `json:"screenshotExpected,omitempty"`
}

type ChoiceGroupQuestion struct {
	Text     string   `json:"text"`
	MaxScore int      `json:"maxScore"`
	Choices  []Choice `json:"choices"`
}

type Choice struct {
	ID         int      `json:"id"`
	Text       string   `json:"text"`
	BreakAfter bool     `json:"breakAfter,omitempty"`
	Options    []Option `json:"options"`
}

type Option struct {
	ID      int    `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

type MultiChoiceGapQuestion struct {
	Text     string      `json:"text"`
	MaxScore int         `json:"maxScore"`
	Content  GapContents `json:"content"`
}

// GapContent is either a GapText segment or a Gap.
type GapContent interface {
	gapContent()
}

type GapText struct {
	Text string `json:"text"`
}

type Gap struct {
	ID      int      `json:"id"`
	Options []Option `json:"options"`
}

// AudioTestQuestion is never emitted into exam markup.
type AudioTestQuestion struct {
	Text string `json:"text,omitempty"`
}

// UnsupportedQuestion keeps the tag of a question type this service does not know,
// so that the markup builder can reject it instead of dropping it.
type UnsupportedQuestion struct {
	Type string `json:"type"`
}

func (TextQuestion) QuestionType() QuestionType { return QuestionTypeText }
func (ChoiceGroupQuestion) QuestionType() QuestionType { return QuestionTypeChoiceGroup }
func (MultiChoiceGapQuestion) QuestionType() QuestionType { return QuestionTypeMultiChoiceGap }
func (AudioTestQuestion) QuestionType() QuestionType { return QuestionTypeAudioTest }
func (q UnsupportedQuestion) QuestionType() QuestionType { return QuestionType(q.Type) }

func (GapText) gapContent() {}
func (Gap) gapContent() {}

// Gaps returns the gap items of the question in content order.
func (q MultiChoiceGapQuestion) Gaps() []Gap {
	var gaps []Gap
	for _, c := range q.Content {
		if gap, ok := c.(Gap); ok {
			gaps = append(gaps, gap)
		}
	}
	return gaps
}

// EmittedQuestions returns the questions of the section that appear in exam markup.
// Both the builder and the answer id allocator count positions over this list.
func (s Section) EmittedQuestions() []Question {
	questions := make([]Question, 0, len(s.Questions))
	for _, q := range s.Questions {
		if q.QuestionType() == QuestionTypeAudioTest {
			continue
		}
		questions = append(questions, q)
	}
	return questions
}

type Questions []Question

type typeTag struct {
	Type string `json:"type"`
}

func (qs *Questions) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	questions := make(Questions, 0, len(raws))
	for i, raw := range raws {
		q, err := decodeQuestion(raw)
		if err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
		questions = append(questions, q)
	}
	*qs = questions
	return nil
}

func (qs Questions) MarshalJSON() ([]byte, error) {
	out := make([]json.RawMessage, 0, len(qs))
	for _, q := range qs {
		raw, err := marshalTagged(string(q.QuestionType()), q)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return json.Marshal(out)
}

func decodeQuestion(raw json.RawMessage) (Question, error) {
	var tag typeTag
	if err := json.Unmarshal(raw, &tag); err != nil {
		return nil, err
	}
	switch QuestionType(tag.Type) {
	case QuestionTypeText:
		var q TextQuestion
		err := json.Unmarshal(raw, &q)
		return q, err
	case QuestionTypeChoiceGroup:
		var q ChoiceGroupQuestion
		err := json.Unmarshal(raw, &q)
		return q, err
	case QuestionTypeMultiChoiceGap:
		var q MultiChoiceGapQuestion
		err := json.Unmarshal(raw, &q)
		return q, err
	case QuestionTypeAudioTest:
		var q AudioTestQuestion
		err := json.Unmarshal(raw, &q)
		return q, err
	default:
		return UnsupportedQuestion{Type: tag.Type}, nil
	}
}

type GapContents []GapContent

func (gc *GapContents) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	contents := make(GapContents, 0, len(raws))
	for i, raw := range raws {
		var tag typeTag
		if err := json.Unmarshal(raw, &tag); err != nil {
			return fmt.Errorf("gap content %d: %w", i, err)
		}
		switch tag.Type {
		case "text":
			var t GapText
			if err := json.Unmarshal(raw, &t); err != nil {
				return fmt.Errorf("gap content %d: %w", i, err)
			}
			contents = append(contents, t)
		case "gap":
			var g Gap
			if err := json.Unmarshal(raw, &g); err != nil {
				return fmt.Errorf("gap content %d: %w", i, err)
			}
			contents = append(contents, g)
		default:
			return fmt.Errorf("gap content %d: unsupported type %q", i, tag.Type)
		}
	}
	*gc = contents
	return nil
}

func (gc GapContents) MarshalJSON() ([]byte, error) {
	out := make([]json.RawMessage, 0, len(gc))
	for _, c := range gc {
		var tag string
		switch c.(type) {
		case GapText:
			tag = "text"
		case Gap:
			tag = "gap"
		default:
			return nil, fmt.Errorf("unsupported gap content %T", c)
		}
		raw, err := marshalTagged(tag, c)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return json.Marshal(out)
}

// marshalTagged encodes v as a JSON object with an added "type" member.
func marshalTagged(tag string, v any) (json.RawMessage, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	typeValue, err := json.Marshal(tag)
	if err != nil {
		return nil, err
	}
	fields["type"] = typeValue
	return json.Marshal(fields)
}
