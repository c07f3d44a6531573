// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sessionview

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"filippo.io/age"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/junegunn/fzf/src/util"

	"github.com/bureau-foundation/tracer/lib/sessionstore"
)

// BrowserOptions configures a [Browser].
type BrowserOptions struct {
	Theme *Theme

	// Color enables styling. The interactive browser always runs on a
	// terminal; tests turn it off.
	Color bool

	// Identities open sealed raw text when raw display is toggled on.
	Identities []age.Identity
}

type browserMode int

const (
	modeList browserMode = iota
	modeFilter
	modeDetail
)

// Browser is a bubbletea model over a sessions directory listing: a
// filterable list of sessions, and a scrollable view of one session.
type Browser struct {
	entries []sessionstore.Entry
	options BrowserOptions
	keys    KeyMap

	// visible indexes entries, in display order after filtering.
	visible []int
	cursor  int
	offset  int

	width  int
	height int
	mode   browserMode

	filter textinput.Model
	detail viewport.Model

	// raw shows unmasked text in the detail view.
	raw bool
	// detailError is shown instead of the session when rendering
	// failed, for example for sealed text without an identity.
	detailError string
}

// NewBrowser returns a browser over entries, shown in the order given.
func NewBrowser(entries []sessionstore.Entry, options BrowserOptions) Browser {
	filter := textinput.New()
	filter.Placeholder = "filter sessions"
	filter.Prompt = "/ "
	filter.CharLimit = 200

	browser := Browser{
		entries: entries,
		options: options,
		keys:    DefaultKeyMap,
		width:   DefaultWidth,
		height:  30,
		filter:  filter,
		detail:  viewport.New(DefaultWidth, 27),
	}
	browser.applyFilter()
	return browser
}

// Browse runs the browser on the terminal until the operator quits.
func Browse(entries []sessionstore.Entry, options BrowserOptions) error {
	options.Color = true
	program := tea.NewProgram(NewBrowser(entries, options), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running session browser: %w", err)
	}
	return nil
}

// Selected returns the entry under the cursor.
func (browser Browser) Selected() (sessionstore.Entry, bool) {
	if len(browser.visible) == 0 {
		return sessionstore.Entry{}, false
	}
	return browser.entries[browser.visible[browser.cursor]], true
}

func (browser Browser) Init() tea.Cmd {
	return nil
}

func (browser Browser) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		browser.width = message.Width
		browser.height = message.Height
		browser.detail.Width = message.Width
		browser.detail.Height = max(message.Height-2, 1)
		if browser.mode == modeDetail {
			browser.renderDetail()
		}
		browser.clampOffset()
		return browser, nil

	case tea.KeyMsg:
		switch browser.mode {
		case modeFilter:
			return browser.updateFilter(message)
		case modeDetail:
			return browser.updateDetail(message)
		default:
			return browser.updateList(message)
		}
	}
	return browser, nil
}

func (browser Browser) updateList(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := browser.keys
	switch {
	case key.Matches(message, keys.Quit):
		return browser, tea.Quit
	case key.Matches(message, keys.Up):
		browser.moveCursor(-1)
	case key.Matches(message, keys.Down):
		browser.moveCursor(1)
	case key.Matches(message, keys.PageUp):
		browser.moveCursor(-browser.listHeight())
	case key.Matches(message, keys.PageDown):
		browser.moveCursor(browser.listHeight())
	case key.Matches(message, keys.Home):
		browser.moveCursor(-len(browser.visible))
	case key.Matches(message, keys.End):
		browser.moveCursor(len(browser.visible))
	case key.Matches(message, keys.FilterActivate):
		browser.mode = modeFilter
		return browser, browser.filter.Focus()
	case key.Matches(message, keys.FilterClear):
		browser.filter.SetValue("")
		browser.applyFilter()
	case key.Matches(message, keys.Open):
		if _, ok := browser.Selected(); ok {
			browser.mode = modeDetail
			browser.renderDetail()
			browser.detail.GotoTop()
		}
	}
	return browser, nil
}

func (browser Browser) updateFilter(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch message.Type {
	case tea.KeyEnter:
		browser.filter.Blur()
		browser.mode = modeList
		return browser, nil
	case tea.KeyEsc:
		browser.filter.Blur()
		browser.filter.SetValue("")
		browser.mode = modeList
		browser.applyFilter()
		return browser, nil
	case tea.KeyCtrlC:
		return browser, tea.Quit
	}
	var command tea.Cmd
	browser.filter, command = browser.filter.Update(message)
	browser.applyFilter()
	return browser, command
}

func (browser Browser) updateDetail(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := browser.keys
	switch {
	case key.Matches(message, keys.Quit):
		return browser, tea.Quit
	case key.Matches(message, keys.Back):
		browser.mode = modeList
		return browser, nil
	case key.Matches(message, keys.ToggleRaw):
		browser.raw = !browser.raw
		browser.renderDetail()
		return browser, nil
	}
	var command tea.Cmd
	browser.detail, command = browser.detail.Update(message)
	return browser, command
}

func (browser *Browser) moveCursor(delta int) {
	if len(browser.visible) == 0 {
		return
	}
	browser.cursor = min(max(browser.cursor+delta, 0), len(browser.visible)-1)
	browser.clampOffset()
}

// listHeight is the number of session rows that fit: the screen minus
// the title and the footer.
func (browser Browser) listHeight() int {
	return max(browser.height-2, 1)
}

func (browser *Browser) clampOffset() {
	height := browser.listHeight()
	if browser.cursor < browser.offset {
		browser.offset = browser.cursor
	}
	if browser.cursor >= browser.offset+height {
		browser.offset = browser.cursor - height + 1
	}
	browser.offset = max(browser.offset, 0)
}

// searchText is what the filter matches a session against.
func searchText(entry sessionstore.Entry) string {
	parts := []string{entry.ID()}
	if artifact := entry.Artifact; artifact != nil {
		parts = append(parts, artifact.Metadata.Command, artifact.ProjectPath, string(artifact.Status))
		if len(artifact.Interactions) > 0 {
			parts = append(parts, artifact.Interactions[0].UserPrompt)
		}
	}
	return strings.Join(parts, " ")
}

// applyFilter recomputes the visible rows, best fuzzy match first. An
// empty filter shows every entry in its original order.
func (browser *Browser) applyFilter() {
	query := strings.TrimSpace(browser.filter.Value())
	browser.visible = browser.visible[:0]
	if query == "" {
		for index := range browser.entries {
			browser.visible = append(browser.visible, index)
		}
	} else {
		pattern := []rune(strings.ToLower(query))
		slab := util.MakeSlab(100*1024, 2048)
		scores := make(map[int]int)
		for index, entry := range browser.entries {
			if score, _, ok := fuzzyMatch(searchText(entry), pattern, slab); ok {
				browser.visible = append(browser.visible, index)
				scores[index] = score
			}
		}
		sort.SliceStable(browser.visible, func(i, j int) bool {
			return scores[browser.visible[i]] > scores[browser.visible[j]]
		})
	}
	browser.cursor = min(browser.cursor, max(len(browser.visible)-1, 0))
	browser.offset = 0
	browser.clampOffset()
}

func (browser *Browser) printer() *Printer {
	return NewPrinter(io.Discard, Options{Theme: browser.options.Theme, Width: browser.width, Color: browser.options.Color})
}

func (browser *Browser) renderDetail() {
	browser.detailError = ""
	entry, ok := browser.Selected()
	if !ok {
		browser.detail.SetContent("")
		return
	}
	if entry.Artifact == nil {
		browser.detailError = fmt.Sprintf("%s is unreadable: %v", entry.Name, entry.Err)
		browser.detail.SetContent("")
		return
	}
	rendered, err := browser.printer().Render(*entry.Artifact.Session(), ShowOptions{
		Raw:        browser.raw,
		Identities: browser.options.Identities,
		Markdown:   true,
	})
	if err != nil {
		browser.detailError = err.Error()
		browser.detail.SetContent("")
		return
	}
	browser.detail.SetContent(rendered)
}

func (browser Browser) View() string {
	printer := browser.printer()
	if browser.mode == modeDetail {
		body := browser.detail.View()
		if browser.detailError != "" {
			body = printer.style().Foreground(printer.theme.StatusError).Render(browser.detailError)
		}
		help := "Esc back · r raw text · q quit"
		if browser.raw {
			help = "Esc back · r masked text · q quit"
		}
		return body + "\n" + printer.style().Foreground(printer.theme.HelpText).Render(help)
	}

	var builder strings.Builder
	title := fmt.Sprintf("Sessions (%d of %d)", len(browser.visible), len(browser.entries))
	builder.WriteString(printer.bold(title))
	builder.WriteString("\n")

	end := min(browser.offset+browser.listHeight(), len(browser.visible))
	for row := browser.offset; row < end; row++ {
		line := ansi.Truncate(browser.row(browser.entries[browser.visible[row]]), browser.width, "…")
		if row == browser.cursor {
			line = printer.style().
				Background(printer.theme.SelectedBackground).
				Foreground(printer.theme.SelectedForeground).
				Render("> " + line)
		} else {
			line = "  " + line
		}
		builder.WriteString(line)
		builder.WriteString("\n")
	}
	if len(browser.visible) == 0 {
		builder.WriteString(printer.faint("  no sessions match"))
		builder.WriteString("\n")
	}

	if browser.mode == modeFilter || browser.filter.Value() != "" {
		builder.WriteString(browser.filter.View())
	} else {
		builder.WriteString(printer.style().Foreground(printer.theme.HelpText).Render("Enter open · / filter · q quit"))
	}
	return builder.String()
}

func (browser Browser) row(entry sessionstore.Entry) string {
	artifact := entry.Artifact
	if artifact == nil {
		return entry.ID() + "  unreadable"
	}
	first := ""
	if len(artifact.Interactions) > 0 {
		first = strings.Join(strings.Fields(artifact.Interactions[0].UserPrompt), " ")
	}
	return fmt.Sprintf("%s  %-9s %3d turns  %s", entry.ID(), artifact.Status, artifact.TotalInteractions, first)
}
