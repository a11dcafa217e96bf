package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kailas-cloud/modelsearch/internal/domain/item"
	"github.com/kailas-cloud/modelsearch/internal/domain/tag"
	"github.com/kailas-cloud/modelsearch/internal/usecase/pipeline"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	groupStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	tagOnStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62"))
	tagOffStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	detailStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1)
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("modelsearch"))
	b.WriteRune('\n')
	b.WriteString(m.input.View())
	b.WriteRune('\n')

	if m.focus == focusDetail && m.snap.Selected != nil {
		b.WriteString(m.viewDetail(*m.snap.Selected))
		b.WriteRune('\n')
		b.WriteString(dimStyle.Render("esc back"))
		return b.String()
	}

	b.WriteString(m.viewContent())
	b.WriteRune('\n')
	if m.notice != "" {
		b.WriteString(errorStyle.Render(m.notice))
		b.WriteRune('\n')
	}
	b.WriteString(dimStyle.Render(m.help()))
	return b.String()
}

func (m Model) viewContent() string {
	switch {
	case m.snap.Loading:
		return dimStyle.Render("Searching...")
	case m.snap.Err != "":
		return errorStyle.Render("Error: " + m.snap.Err)
	case m.snap.Seq == 0:
		return dimStyle.Render("Type a query and press enter")
	}

	var b strings.Builder
	b.WriteString(m.viewFacets())
	b.WriteRune('\n')
	b.WriteString(m.viewFilterSummary())
	b.WriteRune('\n')
	if len(m.snap.Items) == 0 {
		b.WriteString(dimStyle.Render("No models match the current filters"))
		return b.String()
	}
	b.WriteString(m.viewGroups())
	return b.String()
}

func (m Model) viewFacets() string {
	tags := m.snap.Facets.AvailableTags
	parts := make([]string, 0, min(len(tags), 9))
	for i, t := range tags {
		if i >= 9 {
			parts = append(parts, dimStyle.Render(fmt.Sprintf("+%d more", len(tags)-9)))
			break
		}
		label := fmt.Sprintf("%d:%s", i+1, t)
		if m.snap.Filter.IsSelected(t) {
			parts = append(parts, tagOnStyle.Render(label))
		} else {
			parts = append(parts, tagOffStyle.Render(label))
		}
	}
	return strings.Join(parts, " ")
}

func (m Model) viewFilterSummary() string {
	rng := m.snap.Filter.Downloads()
	return dimStyle.Render(fmt.Sprintf("sort %s | limit %d | downloads %s-%s | %d shown",
		m.snap.Filter.Sort(), m.snap.Filter.Limit(),
		FormatCount(rng.Low), FormatCount(rng.High), len(m.snap.Items)))
}

func (m Model) viewGroups() string {
	var b strings.Builder
	idx := 0
	for gi, g := range m.snap.Groups {
		if gi > 0 {
			b.WriteRune('\n')
		}
		if !g.Group.IsSingle() {
			b.WriteString(groupStyle.Render(groupHeader(g)))
			b.WriteRune('\n')
		}
		for ii, it := range g.Group.Items() {
			line := itemLine(it)
			if !g.Group.IsSingle() {
				line = "  " + line
			}
			if idx == m.cursor && m.focus == focusResults {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString(normalStyle.Render("  " + line))
			}
			if ii < g.Group.Len()-1 {
				b.WriteRune('\n')
			}
			idx++
		}
	}
	return b.String()
}

func (m Model) viewDetail(it item.Item) string {
	var b strings.Builder
	b.WriteString(groupStyle.Render(it.ID()))
	b.WriteRune('\n')
	fmt.Fprintf(&b, "relevance %.3f  distance %.4f\n", it.Relevance(), it.Distance())
	fmt.Fprintf(&b, "downloads %s\n", downloadsText(it))
	if tags := tag.Displayable(it.Tags()); len(tags) > 0 {
		fmt.Fprintf(&b, "tags %s\n", strings.Join(tags, ", "))
	}
	if d := strings.TrimSpace(it.Description()); d != "" {
		b.WriteRune('\n')
		b.WriteString(d)
		b.WriteRune('\n')
	}
	b.WriteRune('\n')
	b.WriteString(it.ProfileURL(m.host))
	return detailStyle.Render(b.String())
}

func (m Model) help() string {
	switch m.focus {
	case focusInput:
		return "enter search | tab results | esc quit"
	default:
		return "↑/↓ move | enter details | 1-9 tags | s sort | +/- limit | d downloads | c clear | / search | q quit"
	}
}

func groupHeader(g pipeline.GroupView) string {
	header := fmt.Sprintf("%s (%d variants, best %.3f", g.Group.BaseName(), g.Group.Len(), 1-g.Stats.BestDistance)
	if g.Stats.HasDownloads {
		header += fmt.Sprintf(", %s-%s downloads", FormatCount(g.Stats.MinDownloads), FormatCount(g.Stats.MaxDownloads))
	}
	return header + ")"
}

func itemLine(it item.Item) string {
	return fmt.Sprintf("%s  %.3f  %s", it.ID(), it.Relevance(), downloadsText(it))
}

func downloadsText(it item.Item) string {
	if !it.HasDownloads() {
		return "n/a"
	}
	return FormatCount(it.Downloads())
}

// FormatCount renders a download counter compactly: 950, 1.2k, 3.4M.
func FormatCount(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return strconv.FormatFloat(float64(n)/1e9, 'f', 1, 64) + "B"
	case n >= 1_000_000:
		return strconv.FormatFloat(float64(n)/1e6, 'f', 1, 64) + "M"
	case n >= 1_000:
		return strconv.FormatFloat(float64(n)/1e3, 'f', 1, 64) + "k"
	default:
		return strconv.FormatInt(n, 10)
	}
}
