package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertwitch/blockfs/internal/queue"
	"github.com/desertwitch/blockfs/internal/store"
	"github.com/dustin/go-humanize"
)

//nolint:gochecknoglobals
var (
	// titleStyle defines the style for a panel's title.
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	// borderStyle defines the style for a panel's borders.
	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4"))

	// infoStyle defines the style for a panel's text.
	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	// helpStyle defines the style for the help panel's text.
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Padding(0, 1)
)

// StoreStatusMsg is a [tea.Msg] containing a snapshot of the file store and
// the [queue.Progress] of any scripted operations.
type StoreStatusMsg struct {
	t      time.Time
	usage  *store.Usage
	files  []store.FileInfo
	script queue.Progress
}

// TeaModel is the principal [tea.Model] for the command-line user interface.
type TeaModel struct {
	width  int
	height int

	cancel context.CancelFunc

	uiHandler *Handler

	fullWidthWithBorders  int
	splitWidthWithBorders int

	usage      *store.Usage
	files      []store.FileInfo
	scriptData queue.Progress

	blocksProgress progress.Model
	inodesProgress progress.Model
	scriptProgress progress.Model
	logsViewport   viewport.Model
	commandInput   textinput.Model
	logs           []string

	ready bool
}

// NewTeaModel returns an initial new [TeaModel].
//
//nolint:mnd
func NewTeaModel(uiHandler *Handler, cancel context.CancelFunc) TeaModel {
	blocksProgress := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(80),
	)
	inodesProgress := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(80),
	)
	scriptProgress := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(80),
	)

	logsViewport := viewport.New(80, 20)

	commandInput := textinput.New()
	commandInput.Prompt = "> "
	commandInput.Placeholder = "enter a store command (try: help)"
	commandInput.CharLimit = 256
	commandInput.Focus()

	return TeaModel{
		uiHandler:      uiHandler,
		blocksProgress: blocksProgress,
		inodesProgress: inodesProgress,
		scriptProgress: scriptProgress,
		scriptData:     queue.Progress{},
		logsViewport:   logsViewport,
		commandInput:   commandInput,
		logs:           make([]string, 0, 100),
		cancel:         cancel,
		ready:          false,
	}
}

// Init initializes the model within a [tea.Program].
func (m TeaModel) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		textinput.Blink,
		updateStoreStatus(m.uiHandler.store, m.uiHandler.script),
	)
}

// updateStoreStatus produces a [tea.Cmd] for later scheduling in a
// [tea.Program]. When executed, a [StoreStatusMsg] with the store's current
// occupancy, inode table and script [queue.Progress] is returned.
func updateStoreStatus(storeProv storeProvider, scriptProv scriptProvider) tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { //nolint:mnd
		statusMsg := StoreStatusMsg{
			t:      t,
			script: scriptProv.Progress(),
		}

		if usage, err := storeProv.Usage(); err != nil {
			slog.Error("Failed to read the medium usage.",
				"err", err,
			)
		} else {
			statusMsg.usage = usage
		}

		if files, err := storeProv.Files(); err != nil {
			slog.Error("Failed to read the inode table.",
				"err", err,
			)
		} else {
			statusMsg.files = files
		}

		return statusMsg
	})
}

// Update is the principal message handling method of the model.
// It sets the internal state of the model, for later rendering.
//
//nolint:mnd,funlen,ireturn
func (m TeaModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()

			return m, tea.Quit
		case "esc":
			if m.commandInput.Focused() {
				m.commandInput.Blur()
			} else {
				m.commandInput.Focus()
			}
		case "enter":
			if m.commandInput.Focused() {
				if quitCmd := m.runCommand(); quitCmd != nil {
					return m, quitCmd
				}
			}
		case "q":
			if !m.commandInput.Focused() {
				return m, tea.Quit
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		m.fullWidthWithBorders = m.width - 2
		m.splitWidthWithBorders = (m.width / 3) - 2

		// Progress bars should match the content width.
		m.blocksProgress.Width = m.splitWidthWithBorders
		m.inodesProgress.Width = m.splitWidthWithBorders
		m.scriptProgress.Width = m.splitWidthWithBorders

		// We want upper panels to take about 40% of the height.
		upperHeight := m.height * 2 / 5
		lowerHeight := m.height - upperHeight

		// Viewport height: lower section minus borders, title and the
		// bordered command line.
		viewportHeight := lowerHeight - 6

		// Set viewport width to full width minus borders.
		m.logsViewport.Width = m.fullWidthWithBorders
		m.logsViewport.Height = viewportHeight

		// Command input width: full width minus borders and prompt.
		m.commandInput.Width = m.fullWidthWithBorders - 4

		// Update viewport content with current logs.
		if len(m.logs) > 0 {
			logs := lipgloss.NewStyle().
				Width(m.logsViewport.Width).
				Render(strings.TrimSuffix(strings.Join(m.logs, ""), "\n"))

			m.logsViewport.SetContent(logs)
			m.logsViewport.GotoBottom()
		}

		if !m.ready {
			m.ready = true
			m.uiHandler.Ready.Store(true)
		}

	case StoreStatusMsg:
		if msg.usage != nil {
			m.usage = msg.usage
		}
		if msg.files != nil {
			m.files = msg.files
		}
		m.scriptData = msg.script

		var blocksPct, inodesPct float64
		if m.usage != nil {
			blocksPct = m.usage.BlocksUsedPercent()
			inodesPct = m.usage.InodesUsedPercent()
		}

		cmds = append(cmds,
			m.blocksProgress.SetPercent(blocksPct/100),
			m.inodesProgress.SetPercent(inodesPct/100),
			m.scriptProgress.SetPercent(m.scriptData.ProgressPct/100),
		)

		// Queue the next update.
		cmds = append(cmds, updateStoreStatus(m.uiHandler.store, m.uiHandler.script))

	case LogMsg:
		m.appendLog(string(msg))

	case progress.FrameMsg:
		// Update block utilization progress.
		updatedBlocks, cmd := m.blocksProgress.Update(msg)
		if progressModel, ok := updatedBlocks.(progress.Model); ok {
			m.blocksProgress = progressModel
		}
		cmds = append(cmds, cmd)

		// Update inode table progress.
		updatedInodes, cmd := m.inodesProgress.Update(msg)
		if progressModel, ok := updatedInodes.(progress.Model); ok {
			m.inodesProgress = progressModel
		}
		cmds = append(cmds, cmd)

		// Update script queue progress.
		updatedScript, cmd := m.scriptProgress.Update(msg)
		if progressModel, ok := updatedScript.(progress.Model); ok {
			m.scriptProgress = progressModel
		}
		cmds = append(cmds, cmd)
	}

	// Handle viewport updates (keys only scroll while the input is blurred).
	if _, isKey := msg.(tea.KeyMsg); !isKey || !m.commandInput.Focused() {
		m.logsViewport, cmd = m.logsViewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	// Handle command input updates (ignores keys while blurred).
	m.commandInput, cmd = m.commandInput.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// runCommand executes the current command line against the file store and
// appends the output to the log section. A non-nil [tea.Cmd] is returned only
// when the command requested closing the interface.
func (m *TeaModel) runCommand() tea.Cmd {
	line := strings.TrimSpace(m.commandInput.Value())
	m.commandInput.SetValue("")

	if line == "" {
		return nil
	}

	m.appendLog("> " + line + "\n")

	out, err := m.uiHandler.execute.Execute(line)
	if err != nil {
		if errors.Is(err, ErrShellQuit) {
			return tea.Quit
		}

		m.appendLog(fmt.Sprintf("error: %v\n", err))

		return nil
	}

	if out != "" {
		m.appendLog(strings.TrimSuffix(out, "\n") + "\n")
	}

	return nil
}

// appendLog adds a line to the log section, discards the oldest lines beyond
// the retention cap and scrolls the viewport to the bottom.
//
//nolint:mnd
func (m *TeaModel) appendLog(line string) {
	if len(m.logs) >= 100 {
		m.logs = m.logs[1:]
	}

	m.logs = append(m.logs, line)

	logs := lipgloss.NewStyle().
		Width(m.logsViewport.Width).
		Render(strings.TrimSuffix(strings.Join(m.logs, ""), "\n"))

	m.logsViewport.SetContent(logs)
	m.logsViewport.GotoBottom()
}

// View is the principal rendering function of the model.
func (m TeaModel) View() string {
	if !m.ready {
		return "Loading the GUI..."
	}

	var s strings.Builder

	mediumView := m.formatUsageView("Medium", m.blocksProgress.View())
	tableView := m.formatTableView("Inode Table", m.inodesProgress.View())
	scriptView := m.formatScriptView("Script Queue", m.scriptProgress.View())

	statusSection := lipgloss.JoinHorizontal(
		lipgloss.Top,
		borderStyle.Width(m.splitWidthWithBorders).Render(mediumView),
		borderStyle.Width(m.splitWidthWithBorders).Render(tableView),
		borderStyle.Width(m.splitWidthWithBorders).Render(scriptView),
	)

	logsSection := borderStyle.
		Width(m.fullWidthWithBorders).
		Render(
			lipgloss.JoinVertical(
				lipgloss.Left,
				titleStyle.Width(m.fullWidthWithBorders).Render("Store Activity"),
				lipgloss.NewStyle().Width(m.fullWidthWithBorders).Render(m.logsViewport.View()),
			),
		)

	inputSection := borderStyle.
		Width(m.fullWidthWithBorders).
		Render(m.commandInput.View())

	helpSection := helpStyle.
		Width(m.fullWidthWithBorders).
		Render("enter: run command • esc: focus/blur input • q: quit gui (input blurred) • ctrl+c: quit program")

	s.WriteString(lipgloss.JoinVertical(
		lipgloss.Left,
		statusSection,
		logsSection,
		inputSection,
		helpSection,
	))

	return s.String()
}

// formatUsageView is a helper function for rendering the medium panel.
func (m TeaModel) formatUsageView(title string, progressBar string) string {
	details := "Awaiting first scan of the medium...\n"

	if m.usage != nil {
		details = fmt.Sprintf(
			"Allocated: %.2f%% (%d/%d blocks)\n"+
				"Content: %s of %s\n"+
				"Block size: %s\n",
			m.usage.BlocksUsedPercent(),
			m.usage.BlocksUsed,
			m.usage.BlockCount,
			humanize.IBytes(uint64(m.usage.BytesUsed)),
			humanize.IBytes(uint64(m.usage.BytesTotal)),
			humanize.IBytes(uint64(m.usage.BlockSize)),
		)
	}

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Width(m.splitWidthWithBorders).Render(title),
		"", // Empty line for spacing.
		progressBar,
		"", // Empty line for spacing.
		infoStyle.Width(m.splitWidthWithBorders).Render(details),
	)

	return content
}

// formatTableView is a helper function for rendering the inode table panel.
//
//nolint:mnd
func (m TeaModel) formatTableView(title string, progressBar string) string {
	details := "Awaiting first scan of the medium...\n"

	if m.usage != nil {
		var sb strings.Builder

		fmt.Fprintf(&sb, "Claimed: %.2f%% (%d/%d inodes)\n",
			m.usage.InodesUsedPercent(),
			m.usage.InodesUsed,
			m.usage.InodeCount,
		)

		if len(m.files) == 0 {
			sb.WriteString("No files on the medium.\n")
		}

		for i, f := range m.files {
			if i >= 6 {
				fmt.Fprintf(&sb, "... and %d more\n", len(m.files)-i)

				break
			}

			var open string
			if f.Open {
				open = " (open)"
			}

			if f.Size < 0 {
				fmt.Fprintf(&sb, "[%d] %s: never written%s\n", f.Index, f.Name, open)
			} else {
				fmt.Fprintf(&sb, "[%d] %s: %s, %d blocks%s\n",
					f.Index, f.Name, humanize.IBytes(uint64(f.Size)), f.Blocks, open)
			}
		}

		details = sb.String()
	}

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Width(m.splitWidthWithBorders).Render(title),
		"", // Empty line for spacing.
		progressBar,
		"", // Empty line for spacing.
		infoStyle.Width(m.splitWidthWithBorders).Render(details),
	)

	return content
}

// formatScriptView is a helper function for rendering the script queue panel.
func (m TeaModel) formatScriptView(title string, progressBar string) string {
	details := m.formatScriptDetails(m.scriptData)

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Width(m.splitWidthWithBorders).Render(title),
		"", // Empty line for spacing.
		progressBar,
		"", // Empty line for spacing.
		infoStyle.Width(m.splitWidthWithBorders).Render(details),
	)

	return content
}

// formatScriptDetails is a helper function for rendering script queue
// [queue.Progress] information.
func (m TeaModel) formatScriptDetails(scriptData queue.Progress) string {
	if !scriptData.HasStarted && scriptData.TotalItems == 0 {
		return "No scripted operations queued.\n"
	}

	var timeLeft time.Duration
	var timeLeftMin float64

	if !scriptData.ETA.IsZero() {
		timeLeft = time.Until(scriptData.ETA)
		timeLeftMin = float64(timeLeft.Minutes())
	}

	var throughput string
	if scriptData.ThroughputUnit == "bytes/sec" {
		throughput = humanize.Bytes(uint64(scriptData.Throughput)) + "/s"
	} else {
		throughput = fmt.Sprintf("%d %s", int(scriptData.Throughput), scriptData.ThroughputUnit)
	}

	var details string
	if !scriptData.HasFinished {
		details = fmt.Sprintf(
			"Progress: %.2f%% (%d/%d)\n"+
				"Items: InProgress=%d, Success=%d, Skipped=%d\n"+
				"Time: Started=%v, ETA=%v (%.1f%s left)\n"+
				"Speed: %s\n",
			scriptData.ProgressPct,
			scriptData.ProcessedItems,
			scriptData.TotalItems,
			scriptData.InProgressItems,
			scriptData.SuccessItems,
			scriptData.SkippedItems,
			scriptData.StartTime.Format("15:04:05"),
			scriptData.ETA.Format("15:04:05"),
			timeLeftMin, "min",
			throughput,
		)
	} else {
		details = fmt.Sprintf(
			"Progress: %.2f%% (%d/%d)\n"+
				"Items: InProgress=%d, Success=%d, Skipped=%d\n"+
				"Time: Started=%v, Finished=%v\n\n",
			scriptData.ProgressPct,
			scriptData.ProcessedItems,
			scriptData.TotalItems,
			scriptData.InProgressItems,
			scriptData.SuccessItems,
			scriptData.SkippedItems,
			scriptData.StartTime.Format("15:04:05"),
			scriptData.FinishTime.Format("15:04:05"),
		)
	}

	return details
}
