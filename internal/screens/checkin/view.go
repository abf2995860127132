package checkin

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/memoir/internal/recall"
	"github.com/abhisek/memoir/internal/store"
	"github.com/abhisek/memoir/internal/ui/theme"
)

func (s *Screen) View(width, height int) string {
	var body string
	switch {
	case s.errMsg != "":
		body = theme.Fail.Render("Something went wrong") + "\n\n" +
			theme.Hint.Render(s.errMsg) + "\n\n" +
			theme.Hint.Render("Press any key to go back.")
	case s.stage == stageLoading:
		body = theme.Hint.Render("Finding today's question...")
	case s.stage == stageDone:
		body = s.renderDone()
	case s.stage == stageNewQuestion:
		body = s.renderNewQuestion()
	case s.stage == stageSaved:
		body = theme.Pass.Render("Your memory is saved.") + "\n\n" +
			theme.Hint.Render("Press Enter to continue.")
	case s.result != nil:
		body = s.renderCheck()
	default:
		body = theme.Hint.Render("Preparing your memory check...")
	}

	card := theme.Card.Width(min(width-4, 76)).Render(body)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}

func (s *Screen) renderDone() string {
	q := s.selection.Quota
	return theme.Title.Render("That's all for today") + "\n\n" +
		theme.Body.Render(fmt.Sprintf("New memories: %d   Memory checks: %d", q.NewToday, q.ChecksToday)) + "\n\n" +
		theme.Hint.Render("Come back tomorrow. Press Enter to go home.")
}

func (s *Screen) renderNewQuestion() string {
	var b strings.Builder
	b.WriteString(theme.Hint.Render("A new question"))
	b.WriteString("\n\n")
	b.WriteString(questionStyle.Render(s.selection.Question.Text))
	b.WriteString("\n\n")
	b.WriteString(s.input.View())
	if s.busy {
		b.WriteString("\n\n" + theme.Hint.Render("Saving..."))
	}
	return b.String()
}

var questionStyle = lipgloss.NewStyle().Foreground(theme.Text).Bold(true)

func (s *Screen) renderCheck() string {
	res := s.result
	a := res.Attempt

	var b strings.Builder
	b.WriteString(theme.Hint.Render("Do you remember your answer to this question?"))
	b.WriteString("\n\n")
	b.WriteString(questionStyle.Render(a.QuestionText))
	b.WriteString("\n\n")

	switch a.State {
	case recall.StateAwaitConfidence:
		b.WriteString(s.choice.View())

	case recall.StateAwaitFirstRecall:
		b.WriteString(theme.Body.Render("Write down what you remember."))
		b.WriteString("\n\n" + s.input.View())

	case recall.StateAwaitHintResponse:
		b.WriteString(renderHint(res.HintURL, res.HintErr))
		b.WriteString("\n\n")
		b.WriteString(theme.Body.Render("Do you remember now?"))
		b.WriteString("\n\n" + s.choice.View())

	case recall.StateAwaitSecondRecall:
		b.WriteString(renderHint(res.HintURL, res.HintErr))
		b.WriteString("\n\n")
		b.WriteString(theme.Body.Render("Write down what you remember."))
		b.WriteString("\n\n" + s.input.View())

	case recall.StateRevealOriginal:
		b.WriteString(theme.Body.Render("This is what you told us before:"))
		b.WriteString("\n\n")
		b.WriteString(theme.Quote.Render(res.OriginalAnswer))
		b.WriteString("\n\n" + theme.Hint.Render("Press Enter to continue."))

	case recall.StateTerminalPass, recall.StateTerminalFail:
		b.WriteString(renderVerdict(res.Verdict, a.MatchCount))
		b.WriteString("\n\n" + theme.Hint.Render("Press Enter to continue."))
	}

	if s.busy {
		b.WriteString("\n\n" + theme.Hint.Render("One moment..."))
	}
	return b.String()
}

func renderHint(url, hintErr string) string {
	if url == "" {
		msg := "No picture is available this time."
		if hintErr != "" && hintErr != recall.ErrNoHint.Error() {
			msg = "The picture could not be made this time."
		}
		return theme.Hint.Render(msg)
	}
	return theme.Body.Render("Here is a picture that may help:") + "\n" +
		lipgloss.NewStyle().Foreground(theme.Secondary).Underline(true).Render(url)
}

func renderVerdict(v store.CheckResult, matches int) string {
	if v == store.ResultPass {
		return theme.Pass.Render("Well remembered!") + "\n" +
			theme.Hint.Render(fmt.Sprintf("%d key details matched.", matches))
	}
	return theme.Fail.Render("That's alright.") + "\n" +
		theme.Hint.Render("We won't ask this question again.")
}
