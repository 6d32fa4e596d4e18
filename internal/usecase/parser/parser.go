// Package parser extracts a multiple-choice question from free-form model output.
//
// The model is asked for a fixed layout:
//
//	1-¿Pregunta?
//	1-Opción uno
//	2-Opción dos
//	3-Opción tres
//	RESPUESTA_CORRECTA:2
//
// but stylistic drift is common, so every rule is lenient. Parse never fails loudly:
// a missing answer marker defaults to option 1, and output without a question or
// without three options is rejected as a whole.
package parser

import (
	"strconv"
	"strings"
)

const (
	optionsPerQuestion = 3
	defaultAnswer      = 1
	answerMarker       = "CORRECTA"
)

// Question is the structured form of one generated question.
type Question struct {
	Text          string
	Options       []string
	CorrectAnswer int
}

type state int

const (
	awaitingQuestion state = iota
	collectingOptions
	awaitingAnswerMarker
)

func (s state) String() string {
	switch s {
	case awaitingQuestion:
		return "AWAITING_QUESTION"
	case collectingOptions:
		return "COLLECTING_OPTIONS"
	case awaitingAnswerMarker:
		return "AWAITING_ANSWER_MARKER"
	default:
		return "UNKNOWN"
	}
}

// machine consumes one trimmed line at a time. Options seen before the
// question are kept: the model sometimes emits the question last.
type machine struct {
	state    state
	question string
	found    bool
	options  []string
	answer   int
	marked   bool
}

func newMachine() *machine {
	return &machine{
		state:   awaitingQuestion,
		options: make([]string, 0, optionsPerQuestion),
	}
}

// Parse returns the question found in text. ok is false when no question
// line or fewer than three options were found.
func Parse(text string) (Question, bool) {
	m := newMachine()
	for _, line := range splitLines(text) {
		m.feed(line)
	}
	return m.result()
}

func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func (m *machine) feed(line string) {
	switch m.state {
	case awaitingQuestion:
		if isQuestionLine(line) {
			m.setQuestion(line)
			return
		}
		if m.tryOption(line) {
			return
		}
		m.tryMarker(line)
	case collectingOptions:
		if m.tryOption(line) {
			return
		}
		m.tryMarker(line)
	case awaitingAnswerMarker:
		m.tryMarker(line)
	}
}

func (m *machine) setQuestion(line string) {
	m.question = stripNumberPrefix(line)
	m.found = true
	m.advance()
}

func (m *machine) tryOption(line string) bool {
	if len(m.options) >= optionsPerQuestion || !isOptionLine(line) {
		return false
	}
	// "2-" with no text is consumed but not counted.
	if text := strings.TrimSpace(line[2:]); text != "" {
		m.options = append(m.options, text)
	}
	m.advance()
	return true
}

// tryMarker records the answer index. Later markers override earlier ones.
func (m *machine) tryMarker(line string) {
	if !strings.Contains(strings.ToUpper(line), answerMarker) {
		return
	}
	m.answer = answerFromMarker(line)
	m.marked = true
}

func (m *machine) advance() {
	switch {
	case !m.found:
		m.state = awaitingQuestion
	case len(m.options) < optionsPerQuestion:
		m.state = collectingOptions
	default:
		m.state = awaitingAnswerMarker
	}
}

func (m *machine) result() (Question, bool) {
	if !m.found || m.question == "" || len(m.options) < optionsPerQuestion {
		return Question{}, false
	}

	answer := defaultAnswer
	if m.marked {
		answer = clampAnswer(m.answer)
	}

	return Question{
		Text:          m.question,
		Options:       append([]string(nil), m.options[:optionsPerQuestion]...),
		CorrectAnswer: answer,
	}, true
}

func isQuestionLine(line string) bool {
	return strings.Contains(line, "?") || strings.HasSuffix(line, ".")
}

func isOptionLine(line string) bool {
	return strings.HasPrefix(line, "1-") || strings.HasPrefix(line, "2-") || strings.HasPrefix(line, "3-")
}

// stripNumberPrefix removes a leading "<digits>-" numbering marker.
func stripNumberPrefix(line string) string {
	head, tail, ok := strings.Cut(line, "-")
	if !ok || !isDigits(strings.TrimSpace(head)) {
		return strings.TrimSpace(line)
	}
	return strings.TrimSpace(tail)
}

// answerFromMarker prefers the number right after the colon, then the first
// number anywhere on the line, then the default.
func answerFromMarker(line string) int {
	if _, after, ok := strings.Cut(line, ":"); ok {
		if n, ok := atoi(leadingDigits(strings.TrimSpace(after))); ok {
			return n
		}
	}
	if n, ok := atoi(firstDigitRun(line)); ok {
		return n
	}
	return defaultAnswer
}

func clampAnswer(n int) int {
	if n < 1 {
		return 1
	}
	if n > optionsPerQuestion {
		return optionsPerQuestion
	}
	return n
}

func atoi(digits string) (int, bool) {
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

func leadingDigits(s string) string {
	end := 0
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	return s[:end]
}

func firstDigitRun(s string) string {
	start := strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' })
	if start < 0 {
		return ""
	}
	return leadingDigits(s[start:])
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
