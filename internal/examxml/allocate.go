package examxml

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"exam-mex-backend/internal/model"
)

// ErrStructureMismatch means the mastered markup lacks an element that the
// exam content expects at some position.
var ErrStructureMismatch = errors.New("mastered markup does not match exam content")

var (
	sectionsExpr              = compileExamXPath(".//e:section")
	questionsExpr             = compileExamXPath("./e:question")
	textAnswerExpr            = compileExamXPath("./e:text-answer")
	choiceAnswerExpr          = compileExamXPath("./e:choice-answer")
	choiceAnswerOptionExpr    = compileExamXPath("./e:choice-answer-option")
	dropdownAnswerExpr        = compileExamXPath("./e:dropdown-answer")
	dropdownAnswerOptionsExpr = compileExamXPath("./e:dropdown-answer-option")
)

func compileExamXPath(expr string) *xpath.Expr {
	compiled, err := xpath.CompileWithNS(expr, map[string]string{"e": ExamNamespace})
	if err != nil {
		panic(fmt.Sprintf("examxml: compile %q: %v", expr, err))
	}
	return compiled
}

// AllocateAnswerIDs stamps question and option ids from content onto mastered
// markup. Elements are paired purely by position, in the order Build emits
// them; extra mastered elements are left untouched.
func AllocateAnswerIDs(masteredXML string, content *model.ExamContent) (string, error) {
	if content == nil {
		return "", errors.New("allocate answer ids: no content")
	}
	doc, err := xmlquery.Parse(strings.NewReader(masteredXML))
	if err != nil {
		return "", fmt.Errorf("parse mastered markup: %w", err)
	}

	sections := xmlquery.QuerySelectorAll(doc, sectionsExpr)
	for i, section := range content.Sections {
		sectionEl, err := nth(sections, i, "section %d", i+1)
		if err != nil {
			return "", err
		}
		questions := xmlquery.QuerySelectorAll(sectionEl, questionsExpr)
		for j, q := range section.EmittedQuestions() {
			questionEl, err := nth(questions, j, "section %d question %d", i+1, j+1)
			if err != nil {
				return "", err
			}
			pos := fmt.Sprintf("section %d question %d", i+1, j+1)
			if err := allocateQuestion(questionEl, q, pos); err != nil {
				return "", err
			}
		}
	}

	return doc.OutputXMLWithOptions(xmlquery.WithEmptyTagSupport()), nil
}

func allocateQuestion(el *xmlquery.Node, q model.Question, pos string) error {
	switch q := q.(type) {
	case model.TextQuestion:
		answer, err := nth(xmlquery.QuerySelectorAll(el, textAnswerExpr), 0, "%s text answer", pos)
		if err != nil {
			return err
		}
		answer.SetAttr("question-id", strconv.Itoa(q.ID))
	case model.ChoiceGroupQuestion:
		choices := xmlquery.QuerySelectorAll(el, questionsExpr)
		for i, choice := range q.Choices {
			choiceEl, err := nth(choices, i, "%s choice %d", pos, i+1)
			if err != nil {
				return err
			}
			answer, err := nth(xmlquery.QuerySelectorAll(choiceEl, choiceAnswerExpr), 0, "%s choice %d answer", pos, i+1)
			if err != nil {
				return err
			}
			answer.SetAttr("question-id", strconv.Itoa(choice.ID))
			if err := allocateOptions(answer, choiceAnswerOptionExpr, choice.Options, fmt.Sprintf("%s choice %d", pos, i+1)); err != nil {
				return err
			}
		}
	case model.MultiChoiceGapQuestion:
		dropdowns := xmlquery.QuerySelectorAll(el, dropdownAnswerExpr)
		for i, gap := range q.Gaps() {
			dropdown, err := nth(dropdowns, i, "%s gap %d", pos, i+1)
			if err != nil {
				return err
			}
			dropdown.SetAttr("question-id", strconv.Itoa(gap.ID))
			if err := allocateOptions(dropdown, dropdownAnswerOptionsExpr, gap.Options, fmt.Sprintf("%s gap %d", pos, i+1)); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%s: %w: %q", pos, ErrUnsupportedQuestionType, q.QuestionType())
	}
	return nil
}

func allocateOptions(answer *xmlquery.Node, expr *xpath.Expr, options []model.Option, pos string) error {
	optionEls := xmlquery.QuerySelectorAll(answer, expr)
	for i, option := range options {
		optionEl, err := nth(optionEls, i, "%s option %d", pos, i+1)
		if err != nil {
			return err
		}
		optionEl.SetAttr("option-id", strconv.Itoa(option.ID))
	}
	return nil
}

func nth(nodes []*xmlquery.Node, i int, format string, args ...any) (*xmlquery.Node, error) {
	if i < len(nodes) {
		return nodes[i], nil
	}
	return nil, fmt.Errorf("%w: missing %s", ErrStructureMismatch, fmt.Sprintf(format, args...))
}
