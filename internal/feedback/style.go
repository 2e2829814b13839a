package feedback

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/roach88/isolate/internal/engine"
	"github.com/roach88/isolate/internal/ir"
)

var (
	colorAccent = lipgloss.Color("#20B9B4")
	colorMuted  = lipgloss.Color("#6C7A89")
	colorWarn   = lipgloss.Color("#F4D03F")
)

var styles = struct {
	Step    lipgloss.Style
	Item    lipgloss.Style
	Detail  lipgloss.Style
	Culprit lipgloss.Style
	Box     lipgloss.Style
}{
	Step:    lipgloss.NewStyle().Foreground(colorMuted),
	Item:    lipgloss.NewStyle().Bold(true),
	Detail:  lipgloss.NewStyle().Foreground(colorMuted).Italic(true),
	Culprit: lipgloss.NewStyle().Bold(true).Foreground(colorWarn),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Padding(0, 1),
}

// QuestionText is the question shown for an active subset.
func QuestionText(subset ir.ItemSet) string {
	if len(subset) == 1 {
		return "This extension has been enabled. Are you still having issues?"
	}
	return "These extensions have been enabled. Are you still having issues?"
}

// ResultText announces a finished search.
func ResultText(culprit *ir.Item) string {
	if culprit == nil {
		return "There are no extensions to isolate."
	}
	return "The extension possibly causing issues is: " + displayName(*culprit)
}

// RenderSubset lists the enabled items of a question, one per line.
func RenderSubset(q engine.Question) string {
	var b strings.Builder
	b.WriteString(styles.Step.Render(fmt.Sprintf("step %d, %d candidates left", q.Step+1, q.Remaining)))
	for _, item := range q.Subset {
		b.WriteString("\n  ")
		b.WriteString(styles.Item.Render(displayName(item)))
		if item.Description != "" {
			b.WriteString(" ")
			b.WriteString(styles.Detail.Render(item.Description))
		}
	}
	return b.String()
}

// RenderResult boxes the result line for a terminal.
func RenderResult(culprit *ir.Item) string {
	if culprit == nil {
		return styles.Box.Render(ResultText(nil))
	}
	return styles.Box.Render("The extension possibly causing issues is: " + styles.Culprit.Render(displayName(*culprit)))
}

func displayName(item ir.Item) string {
	if item.Name == "" {
		return item.ID
	}
	return item.Name
}
