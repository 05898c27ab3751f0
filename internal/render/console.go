// Package render draws the operator's view of the synchronized quiz
// state on a terminal. Redrawing is a pure function of the store: the
// same snapshot always produces the same frame.
package render

import (
	"fmt"
	"io"
	"strconv"
	"sync"
	"text/tabwriter"

	"quiz-admin-console/internal/domain"
	"quiz-admin-console/internal/state"
)

const (
	correctMark = "✔" // ✔
	wrongMark   = "✖" // ✖
)

// Console renders the status block, the results table and the answers
// table for the viewed question. Redraws are serialized: the sync loop
// and the operator's command loop both trigger them.
type Console struct {
	out               io.Writer
	numberOfQuestions int

	mu sync.Mutex
}

func NewConsole(out io.Writer, numberOfQuestions int) *Console {
	return &Console{out: out, numberOfQuestions: numberOfQuestions}
}

// Redraw writes one full frame. Frames never interleave.
func (c *Console) Redraw(store *state.Store) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drawStatus(store)
	c.drawResults(store)
	c.drawAnswers(store)
}

func (c *Console) drawStatus(store *state.Store) {
	status, ok := store.Status()
	if !ok {
		fmt.Fprintln(c.out, "status: waiting for first update")
		return
	}

	question := "-"
	if status.Question != nil {
		question = strconv.Itoa(*status.Question)
	}
	registration := "closed"
	if status.Registration {
		registration = "open"
	}
	fmt.Fprintf(c.out, "quiz: %s  language: %s  time: %s  registration: %s  question: %s\n",
		status.QuizID, status.Language, status.Time, registration, question)
}

func (c *Console) drawResults(store *state.Store) {
	header := []domain.CellContent{domain.TextCell("Team"), domain.TextCell("Total")}
	for question := 1; question <= c.numberOfQuestions; question++ {
		header = append(header, domain.TextCell(strconv.Itoa(question)))
	}

	rows := [][]domain.CellContent{header}
	for _, result := range store.Results(c.numberOfQuestions) {
		row := []domain.CellContent{
			domain.TextCell(result.Team.Name),
			domain.TextCell(strconv.Itoa(result.Total)),
		}
		for _, points := range result.Points {
			if points == nil {
				row = append(row, domain.TextCell(""))
			} else {
				row = append(row, domain.TextCell(strconv.Itoa(*points)))
			}
		}
		rows = append(rows, row)
	}

	fmt.Fprintln(c.out, "\nResults")
	c.drawTable(rows)
}

func (c *Console) drawAnswers(store *state.Store) {
	question := store.ViewedQuestion()
	fmt.Fprintf(c.out, "\nAnswers for question %d\n", question)

	rows := [][]domain.CellContent{{
		domain.TextCell("Team"),
		domain.TextCell("Answer"),
		domain.TextCell("Grade"),
		domain.TextCell(""),
		domain.TextCell(""),
	}}
	for _, view := range store.AnswerViews(question) {
		rows = append(rows, []domain.CellContent{
			domain.TextCell(view.Team.Name),
			domain.TextCell(view.Answer),
			domain.TextCell(gradeMark(view.Grade)),
			domain.ActionCell(correctMark, domain.CellAction{
				Command:  "setAnswerPoints",
				Question: question,
				TeamID:   view.Team.ID,
				Points:   1,
			}),
			domain.ActionCell(wrongMark, domain.CellAction{
				Command:  "setAnswerPoints",
				Question: question,
				TeamID:   view.Team.ID,
				Points:   0,
			}),
		})
	}
	c.drawTable(rows)
}

// drawTable prints rows of cell content; action cells are shown as
// bracketed labels.
func (c *Console) drawTable(rows [][]domain.CellContent) {
	w := tabwriter.NewWriter(c.out, 2, 0, 2, ' ', 0)
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			if cell.Action != nil {
				fmt.Fprintf(w, "[%s]", cell.Text)
			} else {
				fmt.Fprint(w, cell.Text)
			}
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}

func gradeMark(grade domain.Grade) string {
	switch grade {
	case domain.GradeCorrect:
		return correctMark
	case domain.GradeWrong:
		return wrongMark
	default:
		return "?"
	}
}
