// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// QuestionHierarchy is the decomposition of an essay topic into ordered
// sub-questions. Sub-question order determines body-paragraph order in
// the final essay and is preserved end-to-end.
type QuestionHierarchy struct {
	// MainQuestion is the topic-level research question.
	MainQuestion string `json:"main_question" yaml:"main_question"`

	// SubQuestions are the questions each body paragraph answers, in
	// rendering order.
	SubQuestions []string `json:"sub_questions" yaml:"sub_questions"`
}

// GenerationStatus marks a generation result as usable or failed.
type GenerationStatus string

const (
	StatusSuccess GenerationStatus = "success"
	StatusError   GenerationStatus = "error"
)

// ParagraphResult is the outcome of generating one body paragraph.
// Failures cross the orchestration boundary as a status, not an error,
// so batch assembly can continue with partial results.
type ParagraphResult struct {
	// Question is the sub-question this paragraph answers.
	Question string `json:"question" yaml:"question"`

	// Paragraph is the generated academic paragraph.
	Paragraph string `json:"paragraph" yaml:"paragraph"`

	// Thesis is the paragraph's core argument in ten words or fewer.
	Thesis string `json:"thesis" yaml:"thesis"`

	Status GenerationStatus `json:"status" yaml:"status"`

	// ErrorMessage describes the failure when Status is StatusError.
	ErrorMessage string `json:"error_message,omitempty" yaml:"error_message,omitempty"`
}

// OK reports whether the paragraph is usable.
func (r ParagraphResult) OK() bool { return r.Status == StatusSuccess }

// IntroResult is the outcome of generating the introduction.
type IntroResult struct {
	Introduction string           `json:"introduction" yaml:"introduction"`
	Status       GenerationStatus `json:"status" yaml:"status"`
	ErrorMessage string           `json:"error_message,omitempty" yaml:"error_message,omitempty"`
}

// OK reports whether the introduction is usable.
func (r IntroResult) OK() bool { return r.Status == StatusSuccess }

// SummaryResult is the outcome of generating the closing summary.
type SummaryResult struct {
	Summary      string           `json:"summary" yaml:"summary"`
	Status       GenerationStatus `json:"status" yaml:"status"`
	ErrorMessage string           `json:"error_message,omitempty" yaml:"error_message,omitempty"`
}

// OK reports whether the summary is usable.
func (r SummaryResult) OK() bool { return r.Status == StatusSuccess }

// Essay is a fully assembled essay plus the per-section records it was
// built from, for auditing failed sections.
type Essay struct {
	// Topic is the global topic the essay was generated for.
	Topic string `json:"topic" yaml:"topic"`

	// Hierarchy is the question decomposition used.
	Hierarchy QuestionHierarchy `json:"hierarchy" yaml:"hierarchy"`

	// Introduction, Body, and Summary are the section records in
	// assembly order. Body follows sub-question order.
	Introduction IntroResult       `json:"introduction" yaml:"introduction"`
	Body         []ParagraphResult `json:"body" yaml:"body"`
	Summary      SummaryResult     `json:"summary" yaml:"summary"`

	// Text is the assembled essay: introduction, body paragraphs, and
	// summary separated by blank lines. Failed sections appear as
	// marked placeholders, never as silent omissions.
	Text string `json:"text" yaml:"text"`
}
