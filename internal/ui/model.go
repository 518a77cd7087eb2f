package ui

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/nconklindev/sheetpdf/internal/artifact"
	"github.com/nconklindev/sheetpdf/internal/config"
	"github.com/nconklindev/sheetpdf/internal/converter"
	"github.com/nconklindev/sheetpdf/internal/session"
	"github.com/nconklindev/sheetpdf/internal/types"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

type Model struct {
	cfg          config.Config
	controller   *session.Controller
	store        *artifact.Store
	filepicker   filepicker.Model
	previewData  types.Preview
	preview      table.Model
	status       string
	actionErr    error
	width        int
	height       int
	progress     progress.Model
	progressChan chan float64
	resultChan   chan conversionResultMsg
}

type conversionResultMsg struct {
	gen    uint64
	result *types.ConversionResult
	err    error
}

type conversionCompleteMsg struct {
	gen    uint64
	result *types.ConversionResult
	err    error
}

type progressMsg struct {
	gen     uint64
	percent float64
}

type waitForProgressMsg struct {
	gen uint64
}

// actionDoneMsg reports the outcome of a preview or download.
type actionDoneMsg struct {
	status string
	err    error
}

func New(cfg config.Config, controller *session.Controller, store *artifact.Store) Model {
	fp := filepicker.New()
	fp.AllowedTypes = converter.AllowedExtensions
	fp.CurrentDirectory = cfg.StartDir

	// Set filepicker colors to match theme
	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent))
	fp.Styles.Symlink = lipgloss.NewStyle().Foreground(lipgloss.Color(colorHighlight))
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(lipgloss.Color(colorHighlight))
	fp.Styles.File = lipgloss.NewStyle().Foreground(lipgloss.Color(colorText))
	fp.Styles.Permission = lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted))
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent)).Bold(true)
	fp.Styles.FileSize = lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted))
	fp.Styles.DisabledFile = lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted))

	prog := progress.New(progress.WithGradient(colorAccent, colorAccentSoft))

	return Model{
		cfg:        cfg,
		controller: controller,
		store:      store,
		filepicker: fp,
		progress:   prog,
	}
}

func (m Model) Init() tea.Cmd {
	return m.filepicker.Init()
}

func (m Model) phase() session.Phase {
	return m.controller.State().Phase
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Subtract space for title, subtitle, help text, and padding
		height := msg.Height - 14
		if height < 5 {
			height = 5 // Minimum height
		}
		m.filepicker.SetHeight(height)
		m.progress.Width = min(max(msg.Width-16, 20), 80)
		if len(m.previewData.Headers) > 0 {
			m.preview.SetWidth(max(msg.Width-8, 20))
		}

		return m, nil

	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.phase() {
		case session.PhaseIdle:
			if key == "q" {
				return m, tea.Quit
			}
			// Everything else drives the file picker below.

		case session.PhaseFileSelected:
			switch key {
			case "q":
				return m, tea.Quit
			case "enter", "c":
				return m.convertFile()
			case "esc", "o":
				return m.chooseFile()
			}
			return m, nil

		case session.PhaseConverting:
			switch key {
			case "q":
				return m, tea.Quit
			case "esc":
				return m.chooseFile()
			}
			// Convert is disabled until the running conversion resolves.
			return m, nil

		case session.PhaseConverted:
			switch key {
			case "q":
				return m, tea.Quit
			case "p":
				return m, m.openPreview()
			case "d":
				return m, m.download()
			case "r":
				return m.convertFile()
			case "esc", "o":
				return m.chooseFile()
			}
			var cmd tea.Cmd
			m.preview, cmd = m.preview.Update(msg)
			return m, cmd

		case session.PhaseFailed:
			switch key {
			case "q":
				return m, tea.Quit
			case "enter", "r":
				return m.convertFile()
			case "esc", "o":
				return m.chooseFile()
			}
			return m, nil
		}

	case conversionCompleteMsg:
		st, current := m.controller.Finish(msg.gen, msg.result, msg.err)
		if !current {
			return m, nil
		}
		if st.Phase == session.PhaseConverted {
			m.previewData = converter.RenderPreview(st.Table(), m.cfg.PreviewRows)
			m.preview = newPreviewTable(m.previewData, m.width)
		}
		return m, nil

	case actionDoneMsg:
		m.status, m.actionErr = msg.status, msg.err
		if msg.err != nil {
			log.Error("action failed", "err", msg.err)
		}
		return m, nil

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case progressMsg:
		st := m.controller.State()
		if st.Phase == session.PhaseConverting && st.Gen == msg.gen {
			cmd := m.progress.SetPercent(msg.percent)
			return m, tea.Batch(cmd, waitForProgress(msg.gen, m.progressChan, m.resultChan))
		}
		return m, nil

	case waitForProgressMsg:
		if m.controller.State().Gen != msg.gen {
			return m, nil
		}
		return m, waitForProgress(msg.gen, m.progressChan, m.resultChan)
	}

	// Handle filepicker updates
	if m.phase() == session.PhaseIdle {
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)

		if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
			return m.selectFile(path)
		}
		if didSelect, path := m.filepicker.DidSelectDisabledFile(msg); didSelect {
			m.status = ""
			m.actionErr = fmt.Errorf("%s is not an Excel file (.xlsx or .xls)", filepath.Base(path))
			return m, cmd
		}

		return m, cmd
	}

	return m, nil
}

func (m Model) selectFile(path string) (Model, tea.Cmd) {
	m.controller.Select(path)
	log.Info("file selected", "path", path)
	m.resetResult()
	return m, nil
}

func (m Model) chooseFile() (Model, tea.Cmd) {
	m.controller.Clear()
	m.resetResult()
	return m, m.filepicker.Init()
}

func (m *Model) resetResult() {
	m.status, m.actionErr = "", nil
	m.previewData = types.Preview{}
	m.preview = table.Model{}
	m.progressChan, m.resultChan = nil, nil
}

func (m Model) convertFile() (Model, tea.Cmd) {
	ctx, gen, ok := m.controller.Start(context.Background())
	if !ok {
		return m, nil
	}
	m.resetResult()
	m.progressChan = make(chan float64, 100)
	m.resultChan = make(chan conversionResultMsg, 1)

	// Capture channels for the goroutine
	progressChan := m.progressChan
	resultChan := m.resultChan
	selectedFile := m.controller.State().Path
	opts := m.cfg.ConverterOptions()

	cmd := tea.Batch(
		func() tea.Msg {
			go func() {
				var result *types.ConversionResult
				data, err := converter.ReadFile(selectedFile)
				if err == nil {
					result, err = converter.Convert(ctx, filepath.Base(selectedFile), data, opts, progressChan)
				}

				// Send result
				resultChan <- conversionResultMsg{gen: gen, result: result, err: err}

				// Close channels
				close(progressChan)
				close(resultChan)
			}()

			return waitForProgressMsg{gen: gen}
		},
		m.progress.SetPercent(0),
	)

	return m, cmd
}

func waitForProgress(gen uint64, progressChan chan float64, resultChan chan conversionResultMsg) tea.Cmd {
	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}

		p, ok := <-progressChan
		if !ok {
			// Progress channel closed, check result
			res, ok := <-resultChan
			if ok {
				return conversionCompleteMsg(res)
			}
			return nil
		}

		return progressMsg{gen: gen, percent: p}
	}
}

func (m Model) openPreview() tea.Cmd {
	a := m.controller.State().Artifact
	if a == nil {
		return nil
	}
	return func() tea.Msg {
		if err := m.store.Open(a); err != nil {
			return actionDoneMsg{err: fmt.Errorf("open preview: %w", err)}
		}
		return actionDoneMsg{status: fmt.Sprintf("Opened %s in your PDF viewer", a.Name)}
	}
}

// outputDir is where downloads go: the configured directory, or next to the input.
func (m Model) outputDir() string {
	if m.cfg.OutputDir != "" {
		return m.cfg.OutputDir
	}
	return filepath.Dir(m.controller.State().Path)
}

func (m Model) download() tea.Cmd {
	a := m.controller.State().Artifact
	if a == nil {
		return nil
	}
	dir := m.outputDir()
	return func() tea.Msg {
		dest, err := m.store.Save(a, dir)
		if err != nil {
			return actionDoneMsg{err: fmt.Errorf("download: %w", err)}
		}
		return actionDoneMsg{status: "Saved " + dest}
	}
}
