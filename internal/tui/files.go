package tui

import (
	"fmt"
	"io"
	"path"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ensigniasec/jobdeck/internal/action"
	"github.com/ensigniasec/jobdeck/internal/api"
	"github.com/ensigniasec/jobdeck/internal/bus"
)

// fileItem is the list item backing a remote directory entry.
type fileItem struct {
	api.PathEntry
}

// List item interface methods.
func (it fileItem) Title() string       { return it.Name }
func (it fileItem) Description() string { return it.Type }
func (it fileItem) FilterValue() string { return it.Name }

// filesDelegate renders entries with a right-justified size and modification time.
type filesDelegate struct{}

func (d filesDelegate) Height() int                             { return 1 }
func (d filesDelegate) Spacing() int                            { return 0 }
func (d filesDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d filesDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	it, ok := listItem.(fileItem)
	if !ok {
		return
	}
	selected := index == m.Index()
	leftPrefix := "  "
	lineStyle := lipgloss.NewStyle()
	if selected {
		leftPrefix = "> "
		lineStyle = selectedLine
	}

	name := it.Name
	right := humanSize(it.Size)
	if it.IsDir() {
		name += "/"
		right = "dir"
	}
	if !it.ModifiedAt.IsZero() {
		right += "  " + it.ModifiedAt.Format("2006-01-02 15:04")
	}
	left := leftPrefix + name

	_, _ = fmt.Fprint(w, lineStyle.Render(padBetween(left, mutedStyle.Render(right), m.Width())))
}

// filesPane browses the remote filesystem and starts downloads.
type filesPane struct {
	bus.Base
	focus       paneFocus
	keys        keyMap
	list        list.Model
	cwd         string
	loaded      bool
	loading     bool
	downloadDir string
}

func newFilesPane(keys keyMap, downloadDir string) *filesPane {
	l := list.New(nil, filesDelegate{}, defaultWidth, defaultHeight)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetStatusBarItemName("entry", "entries")
	return &filesPane{
		Base:        bus.Base{Name: filesID},
		focus:       paneFocus{id: filesID},
		keys:        keys,
		list:        l,
		cwd:         defaultRemoteRoot,
		downloadDir: downloadDir,
	}
}

func (p *filesPane) slot() slot    { return slotMain }
func (p *filesPane) visible() bool { return p.focus.shown }

func (p *filesPane) Update(a action.Action) []action.Action {
	if p.focus.observe(a) && !p.loaded && !p.loading {
		return p.open(p.cwd)
	}
	switch v := a.(type) {
	case action.PathsListed:
		p.cwd = v.Path
		p.loaded = true
		p.loading = false
		p.setEntries(v.Entries)
	case action.Error:
		p.loading = false
	case action.LoggedIn:
		if p.focus.shown {
			return p.open(p.cwd)
		}
		p.loaded = false
	case action.LoggedOut:
		p.loaded = false
		p.setEntries(nil)
	}
	return nil
}

func (p *filesPane) HandleEvent(a action.Action) []action.Action {
	k, ok := a.(action.Key)
	if !ok || !p.focus.shown {
		return nil
	}
	switch {
	case key.Matches(k, p.keys.Up):
		p.list.CursorUp()
	case key.Matches(k, p.keys.Down):
		p.list.CursorDown()
	case key.Matches(k, p.keys.Enter):
		if it, ok := p.selected(); ok && it.IsDir() {
			return p.open(path.Join(p.cwd, it.Name))
		}
	case key.Matches(k, p.keys.Back):
		if p.cwd != defaultRemoteRoot {
			return p.open(path.Dir(p.cwd))
		}
	case key.Matches(k, p.keys.Refresh):
		return p.open(p.cwd)
	case key.Matches(k, p.keys.Download):
		if it, ok := p.selected(); ok && !it.IsDir() {
			name, ok := localName(it.Name)
			if !ok {
				return []action.Action{action.Error{
					Message:    fmt.Sprintf("Cannot download %q: not a plain file name.", it.Name),
					Suggestion: "Rename the file on the remote system first.",
				}}
			}
			return []action.Action{action.Enqueue{Task: action.DownloadFile{
				Remote: path.Join(p.cwd, it.Name),
				Local:  filepath.Join(p.downloadDir, name),
			}}}
		}
	}
	return nil
}

func (p *filesPane) View(width, height int) string {
	title := titleStyle.Render(p.cwd)
	if p.loading {
		title += mutedStyle.Render("  loading…")
	}
	p.list.SetSize(width, max(height-1, 1))
	if p.loaded && len(p.list.Items()) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title, mutedStyle.Render("  (empty directory)"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, p.list.View())
}

// localName reduces a remote entry name to a single path element.
func localName(name string) (string, bool) {
	base := filepath.Base(filepath.FromSlash(name))
	switch base {
	case "", ".", "..", string(filepath.Separator):
		return "", false
	}
	return base, true
}

func (p *filesPane) open(dir string) []action.Action {
	p.loading = true
	return []action.Action{action.Enqueue{Task: action.ListPaths{Path: dir}}}
}

func (p *filesPane) setEntries(entries []api.PathEntry) {
	sorted := append([]api.PathEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].IsDir() != sorted[j].IsDir() {
			return sorted[i].IsDir()
		}
		return sorted[i].Name < sorted[j].Name
	})
	items := make([]list.Item, 0, len(sorted))
	for _, e := range sorted {
		items = append(items, fileItem{PathEntry: e})
	}
	p.list.SetItems(items)
	p.list.Select(0)
}

func (p *filesPane) selected() (fileItem, bool) {
	it, ok := p.list.SelectedItem().(fileItem)
	return it, ok
}

// humanSize formats n bytes with a binary unit.
func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
