package studio

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lehigh-university-libraries/coursemarketer/internal/models"
	"github.com/lehigh-university-libraries/coursemarketer/internal/session"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginBottom(1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1).
			Width(60)
	ctaCardStyle = cardStyle.BorderForeground(lipgloss.Color("212"))
)

func renderStrategy(pp models.PainPoint) string {
	var sb strings.Builder
	sb.WriteString(infoStyle.Render(pp.TargetGroup) + "\n")
	sb.WriteString(lipgloss.NewStyle().Bold(true).Render(pp.Title) + "\n")
	sb.WriteString(pp.Description + "\n")
	sb.WriteString(mutedStyle.Render("Hook: "+pp.MarketingHook) + "\n")
	sb.WriteString(mutedStyle.Render(strings.Join(hashed(pp.SEOKeywords), " ")))
	return cardStyle.Render(sb.String())
}

func hashed(keywords []string) []string {
	out := make([]string, len(keywords))
	for i, kw := range keywords {
		out[i] = "#" + kw
	}
	return out
}

func imageLabel(sl models.SlideData) string {
	switch sl.ImageState {
	case models.ImagePending:
		return warnStyle.Render("generating art…")
	case models.ImageReady:
		return successStyle.Render("art ready")
	case models.ImageFailed:
		if sl.BackgroundImage != "" {
			return warnStyle.Render("regeneration failed, keeping previous art")
		}
		return warnStyle.Render("art unavailable, using gradient")
	default:
		return mutedStyle.Render("gradient background")
	}
}

func renderSlides(view session.SlidesView) string {
	switch view.Status {
	case session.StatusLoading:
		return infoStyle.Render("Writing slides…")
	case session.StatusFailed:
		return errorStyle.Render(view.Error.Message)
	case session.StatusIdle:
		return mutedStyle.Render("Slides not generated yet")
	}

	cards := make([]string, 0, len(view.Slides))
	for i, sl := range view.Slides {
		style := cardStyle
		label := fmt.Sprintf("Slide %d/%d", i+1, len(view.Slides))
		if sl.IsCallToAction {
			style = ctaCardStyle
			label += " · CTA"
		}
		body := strings.Join([]string{
			mutedStyle.Render(label + " · " + imageLabel(sl)),
			lipgloss.NewStyle().Bold(true).Render(sl.Content.Headline),
			sl.Content.Subtext,
		}, "\n")
		cards = append(cards, style.Render(body))
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func renderScript(view session.ScriptView) string {
	switch view.Status {
	case session.StatusLoading:
		return infoStyle.Render("Writing script…")
	case session.StatusFailed:
		return errorStyle.Render(view.Error.Message)
	case session.StatusIdle:
		return mutedStyle.Render("Script not generated yet")
	}

	rows := make([]string, 0, len(view.Scenes))
	for _, sc := range view.Scenes {
		rows = append(rows, fmt.Sprintf("%s  %s\n   %s",
			infoStyle.Render("["+sc.Scene+"]"),
			mutedStyle.Render("Visual: "+sc.Visual),
			sc.Audio,
		))
	}
	return strings.Join(rows, "\n\n")
}

func renderVideo(view session.VideoView) string {
	switch view.Status {
	case session.StatusLoading:
		return infoStyle.Render("Generating video, this can take a few minutes…")
	case session.StatusFailed:
		return errorStyle.Render(view.Error.Message)
	case session.StatusReady:
		return successStyle.Render("Video ready") + "\n" + view.Video.URI
	default:
		return mutedStyle.Render("No video yet")
	}
}

func renderTips(tips []string) string {
	lines := make([]string, len(tips))
	for i, tip := range tips {
		lines[i] = "• " + tip
	}
	return titleStyle.Render("Traffic tips") + "\n" + strings.Join(lines, "\n")
}
