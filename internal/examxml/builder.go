// Package examxml converts exam content into exam markup and stamps answer
// ids back onto mastered markup.
package examxml

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/antchfx/xmlquery"

	"exam-mex-backend/internal/model"
)

const (
	SchemaVersion  = "0.1"
	ExamNamespace  = "http://ylioppilastutkinto.fi/exam.xsd"
	XHTMLNamespace = "http://www.w3.org/1999/xhtml"
	Language       = "fi-FI"
)

const (
	textQuestionTitle           = "Tekstitehtävä / textuppgift"
	choiceGroupQuestionTitle    = "Monivalintatehtävä / flervalsuppgift"
	multiChoiceGapQuestionTitle = "Aukkomonivalintatehtävä / uppgift med flervalsluckor"
	choiceBreakClass            = "e-font-size-xl e-mrg-y-4 e-color-link"
)

var ErrUnsupportedQuestionType = errors.New("unsupported question type")

// Build renders exam content and its attachments as exam markup.
func Build(content *model.ExamContent, attachments []model.Attachment) (string, error) {
	if content == nil {
		return "", errors.New("build exam: no content")
	}

	doc := &xmlquery.Node{Type: xmlquery.DocumentNode}
	decl := &xmlquery.Node{Type: xmlquery.DeclarationNode, Data: "xml"}
	xmlquery.AddAttr(decl, "version", "1.0")
	xmlquery.AddAttr(decl, "encoding", "UTF-8")
	xmlquery.AddChild(doc, decl)

	root := newElement("exam")
	xmlquery.AddAttr(root, "exam-schema-version", SchemaVersion)
	xmlquery.AddAttr(root, "xmlns", XHTMLNamespace)
	xmlquery.AddAttr(root, "xmlns:e", ExamNamespace)
	xmlquery.AddChild(doc, root)

	appendText(appendElement(appendElement(root, "languages"), "language"), Language)
	if err := appendHTML(appendElement(root, "exam-title"), content.Title); err != nil {
		return "", fmt.Errorf("exam title: %w", err)
	}
	if err := appendHTML(appendElement(root, "exam-instruction"), content.Instruction); err != nil {
		return "", fmt.Errorf("exam instruction: %w", err)
	}
	appendElement(root, "table-of-contents")

	if len(attachments) > 0 {
		xmlquery.AddChild(root, BuildExternalMaterial(attachments))
	}

	for i, section := range content.Sections {
		el, err := buildSection(section)
		if err != nil {
			return "", fmt.Errorf("section %d: %w", i+1, err)
		}
		xmlquery.AddChild(root, el)
	}

	return doc.OutputXMLWithOptions(xmlquery.WithEmptyTagSupport()), nil
}

func buildSection(section model.Section) (*xmlquery.Node, error) {
	el := newElement("section")
	if section.CasForbidden {
		el.SetAttr("cas-forbidden", "true")
	}
	if err := appendHTML(appendElement(el, "section-title"), section.Title); err != nil {
		return nil, fmt.Errorf("title: %w", err)
	}

	for i, q := range section.EmittedQuestions() {
		question, err := buildQuestion(q)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		xmlquery.AddChild(el, question)
	}
	return el, nil
}

func buildQuestion(q model.Question) (*xmlquery.Node, error) {
	switch q := q.(type) {
	case model.TextQuestion:
		return buildTextQuestion(q)
	case model.ChoiceGroupQuestion:
		return buildChoiceGroupQuestion(q)
	case model.MultiChoiceGapQuestion:
		return buildMultiChoiceGapQuestion(q)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedQuestionType, q.QuestionType())
	}
}

func buildTextQuestion(q model.TextQuestion) (*xmlquery.Node, error) {
	el, err := newQuestion(textQuestionTitle, q.Text)
	if err != nil {
		return nil, err
	}
	answerType := "multi-line"
	if q.ScreenshotExpected {
		answerType = "rich-text"
	}
	answer := appendElement(el, "text-answer")
	answer.SetAttr("type", answerType)
	answer.SetAttr("max-score", strconv.Itoa(q.MaxScore))
	return el, nil
}

func buildChoiceGroupQuestion(q model.ChoiceGroupQuestion) (*xmlquery.Node, error) {
	el, err := newQuestion(choiceGroupQuestionTitle, q.Text)
	if err != nil {
		return nil, err
	}

	for i, choice := range q.Choices {
		choiceEl, err := newQuestion("", choice.Text)
		if err != nil {
			return nil, fmt.Errorf("choice %d: %w", i+1, err)
		}
		answer := appendElement(choiceEl, "choice-answer")
		score := q.MaxScore / len(q.Choices)
		for j, option := range choice.Options {
			optionEl := appendElement(answer, "choice-answer-option")
			optionEl.SetAttr("score", strconv.Itoa(optionScore(option, score)))
			if err := appendHTML(optionEl, option.Text); err != nil {
				return nil, fmt.Errorf("choice %d option %d: %w", i+1, j+1, err)
			}
		}
		xmlquery.AddChild(el, choiceEl)

		if choice.BreakAfter {
			div := &xmlquery.Node{Type: xmlquery.ElementNode, Data: "div", NamespaceURI: XHTMLNamespace}
			div.SetAttr("class", choiceBreakClass)
			appendText(div, "***")
			xmlquery.AddChild(el, div)
		}
	}
	return el, nil
}

func buildMultiChoiceGapQuestion(q model.MultiChoiceGapQuestion) (*xmlquery.Node, error) {
	el, err := newQuestion(multiChoiceGapQuestionTitle, q.Text)
	if err != nil {
		return nil, err
	}

	var score int
	if gapCount := len(q.Gaps()); gapCount > 0 {
		score = q.MaxScore / gapCount
	}

	for i, content := range q.Content {
		switch c := content.(type) {
		case model.GapText:
			if err := appendHTML(el, c.Text); err != nil {
				return nil, fmt.Errorf("content %d: %w", i+1, err)
			}
		case model.Gap:
			dropdown := newElement("dropdown-answer")
			for j, option := range c.Options {
				optionEl := appendElement(dropdown, "dropdown-answer-option")
				optionEl.SetAttr("score", strconv.Itoa(optionScore(option, score)))
				if err := appendHTML(optionEl, option.Text); err != nil {
					return nil, fmt.Errorf("content %d option %d: %w", i+1, j+1, err)
				}
			}
			// Spaces keep adjacent dropdowns apart when rendered.
			appendText(el, " ")
			xmlquery.AddChild(el, dropdown)
			appendText(el, " ")
		}
	}
	return el, nil
}

func optionScore(option model.Option, score int) int {
	if option.Correct {
		return score
	}
	return 0
}

func newQuestion(title, instruction string) (*xmlquery.Node, error) {
	el := newElement("question")
	appendText(appendElement(el, "question-title"), title)
	if err := appendHTML(appendElement(el, "question-instruction"), instruction); err != nil {
		return nil, fmt.Errorf("instruction: %w", err)
	}
	return el, nil
}

func newElement(name string) *xmlquery.Node {
	return &xmlquery.Node{
		Type:         xmlquery.ElementNode,
		Data:         name,
		Prefix:       "e",
		NamespaceURI: ExamNamespace,
	}
}

func appendElement(parent *xmlquery.Node, name string) *xmlquery.Node {
	el := newElement(name)
	xmlquery.AddChild(parent, el)
	return el
}

func appendText(parent *xmlquery.Node, text string) {
	if text == "" {
		return
	}
	xmlquery.AddChild(parent, &xmlquery.Node{Type: xmlquery.TextNode, Data: text})
}

// appendHTML sanitizes raw rich text and appends the result to parent.
func appendHTML(parent *xmlquery.Node, raw string) error {
	nodes, err := Sanitize(raw)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		xmlquery.AddChild(parent, n)
	}
	return nil
}
