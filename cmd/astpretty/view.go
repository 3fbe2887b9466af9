package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/skrider/astpretty/pkg/colorize"
	"github.com/skrider/astpretty/pkg/lang"
	"github.com/skrider/astpretty/pkg/pretty"
	"github.com/skrider/astpretty/pkg/tree"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

const headerHeight = 2
const footerHeight = 1

func newViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view [flags] <file>",
		Short: "Browse the tree of one file interactively",
		Long: `view opens a scrollable view of a file's tree.

Keys: o toggles source offsets, arrows/pgup/pgdown scroll, q quits.`,
		Args: cobra.ExactArgs(1),
		RunE: runView,
	}
}

func runView(cmd *cobra.Command, args []string) error {
	cfg, err := settings(cmd)
	if err != nil {
		return err
	}
	path := args[0]

	name := cfg.Lang
	if name == "" {
		if name, err = lang.ForPath(path); err != nil {
			return err
		}
	}
	parser, err := lang.Lookup(name)
	if err != nil {
		return err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	root, err := parser.Parse(cmd.Context(), path, src)
	if err != nil {
		return err
	}

	pc := cfg.Pretty()
	render := func(showOffsets bool) string {
		pc.ShowOffsets = showOffsets
		out := pretty.New(pretty.WithConfig(pc)).FormatNode(root)
		if cfg.Colorize {
			out = colorize.New(tree.TypeNames(root)).Colorize(out)
		}
		return out
	}

	m := viewModel{
		path:        path,
		lang:        name,
		showOffsets: cfg.ShowOffsets,
		pages: map[bool]string{
			true:  render(true),
			false: render(false),
		},
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
	return err
}

type viewModel struct {
	path        string
	lang        string
	showOffsets bool
	pages       map[bool]string

	ready    bool
	viewport viewport.Model
}

func (m viewModel) Init() tea.Cmd { return nil }

func (m viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "o":
			m.showOffsets = !m.showOffsets
			if m.ready {
				m.viewport.SetContent(m.pages[m.showOffsets])
			}
			return m, nil
		}
	case tea.WindowSizeMsg:
		height := msg.Height - headerHeight - footerHeight
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.viewport.YPosition = headerHeight
			m.viewport.SetContent(m.pages[m.showOffsets])
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m viewModel) View() string {
	if !m.ready {
		return "loading..."
	}
	offsets := "off"
	if m.showOffsets {
		offsets = "on"
	}
	header := titleStyle.Render(m.path) + " " + infoStyle.Render(fmt.Sprintf("[%s, offsets %s]", m.lang, offsets))
	footer := infoStyle.Render(fmt.Sprintf("%3.f%%  o offsets  q quit", m.viewport.ScrollPercent()*100))
	return header + "\n\n" + m.viewport.View() + "\n" + footer
}
