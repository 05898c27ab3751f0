package domain

// Status is the backend's view of the current quiz phase. Question is nil
// when no question is open for answering; Registration and a running
// question are mutually exclusive on the backend, but consumers render
// whatever they receive.
type Status struct {
	UpdateID     int64  `json:"update_id"`
	QuizID       string `json:"quiz_id"`
	Language     string `json:"language"`
	Question     *int   `json:"question,omitempty"`
	Time         string `json:"time"`
	Registration bool   `json:"registration"`
}

// Team is a registered quiz team. Identity is ID; Name may change and is
// re-sent under a fresh UpdateID.
type Team struct {
	UpdateID int64  `json:"update_id"`
	ID       int64  `json:"id"`
	Name     string `json:"name"`
}

// Answer is one team's answer to one question. Identity is the pair
// (Question, TeamID). Points is nil until the answer is graded.
type Answer struct {
	UpdateID int64  `json:"update_id"`
	Question int    `json:"question"`
	TeamID   int64  `json:"team_id"`
	Answer   string `json:"answer"`
	Points   *int   `json:"points,omitempty"`
}

// Graded reports whether points have been assigned.
func (a Answer) Graded() bool {
	return a.Points != nil
}

// UpdateBatch is one delta bundle returned by a poll. All three parts may
// be empty; an empty batch is a normal long-poll timeout, not an error.
type UpdateBatch struct {
	Status  *Status  `json:"status,omitempty"`
	Teams   []Team   `json:"teams"`
	Answers []Answer `json:"answers"`
}

// Empty reports whether the batch carries no updates at all.
func (b UpdateBatch) Empty() bool {
	return b.Status == nil && len(b.Teams) == 0 && len(b.Answers) == 0
}

// Grade is the tri-state classification of one answer cell.
type Grade int

const (
	// GradeMissing covers both "no answer record" and "answered but not yet graded".
	GradeMissing Grade = iota
	GradeCorrect
	GradeWrong
)

func (g Grade) String() string {
	switch g {
	case GradeCorrect:
		return "correct"
	case GradeWrong:
		return "wrong"
	default:
		return "missing"
	}
}

// ClassifyPoints maps a graded score to its display classification.
// Zero and negative points both read as a wrong answer; nil means the
// answer has not been graded.
func ClassifyPoints(points *int) Grade {
	switch {
	case points == nil:
		return GradeMissing
	case *points > 0:
		return GradeCorrect
	default:
		return GradeWrong
	}
}

// CellContent is what a rendering surface puts in one table cell: either
// plain text or an action bound to a backend command.
type CellContent struct {
	Text   string
	Action *CellAction
}

// CellAction names a fire-and-forget backend command a cell can trigger,
// e.g. grading an answer correct or wrong.
type CellAction struct {
	Command  string
	Question int
	TeamID   int64
	Points   int
}

// TextCell builds a plain-text cell.
func TextCell(text string) CellContent {
	return CellContent{Text: text}
}

// ActionCell builds a cell bound to a command.
func ActionCell(label string, action CellAction) CellContent {
	a := action
	return CellContent{Text: label, Action: &a}
}

// IntPtr is a convenience for literal optional fields in constructors and tests.
func IntPtr(v int) *int {
	return &v
}
