package tui

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"pitchdesk/internal/configedit"
	"pitchdesk/internal/dashboard"
	"pitchdesk/internal/model"
	"pitchdesk/internal/nav"
	"pitchdesk/internal/store"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

type loginState struct {
	username textinput.Model
	password textinput.Model
	busy     bool
}

type dashState struct {
	list  *dashboard.ListController
	edits *dashboard.Edits
	panel dashboard.Panel
	focus dashFocus

	search   textinput.Model
	draft    textarea.Model
	viewport viewport.Model
}

type genState struct {
	description textarea.Model
	questions   textarea.Model
	focus       genFocus

	busy   bool
	seq    int
	result string

	editing  bool
	editor   textarea.Model
	viewport viewport.Model
}

type searchState struct {
	query     textinput.Model
	busy      bool
	seq       int
	lastQuery string
	results   []model.LinkResult
	cursor    int
}

// ratingRow is one line of the rating tab: a field, or one rule of a rule-list field.
type ratingRow struct {
	field *configedit.RatingField
	rule  int
}

type configState struct {
	tab     configTab
	loading map[configTab]bool
	loaded  map[configTab]bool

	prompts       []model.Prompt
	promptCursor  int
	promptEditing bool
	promptEditor  textarea.Model
	syncing       bool

	keywords  *configedit.KeywordSets
	kwSection int
	kwCursor  int
	kwSaving  bool

	rating       *configedit.RatingConfig
	ratingRows   []ratingRow
	ratingCursor int
	ratingSaving bool
}

// editorTarget names the textarea an external editor session writes back to.
type editorTarget int

const (
	editorNone editorTarget = iota
	editorPanelDraft
	editorPrompt
	editorGenerated
)

type appModel struct {
	opts      Options
	ctx       context.Context
	log       *slog.Logger
	contextID string
	uiStore   store.Store
	uiState   *store.UIState
	now       func() time.Time

	width  int
	height int

	route     nav.Route
	requested nav.Route
	showHelp  bool

	modal      modalKind
	modalInput textinput.Model

	toaster *dashboard.Toaster
	spinner spinner.Model
	help    help.Model

	login  loginState
	dash   dashState
	gen    genState
	search searchState
	cfg    configState

	externalEditorPath   string
	externalEditorBefore string
	externalEditorFor    editorTarget

	// initCmd is the first screen's load, issued while building the model.
	initCmd tea.Cmd
}

func newTextInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Width = 40
	return ti
}

func newTextarea(placeholder string, height int) textarea.Model {
	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetWidth(72)
	ta.SetHeight(height)
	return ta
}

func withDefaults(opts Options) Options {
	if opts.PageSize <= 0 {
		opts.PageSize = dashboard.DefaultPageSize
	}
	if opts.Debounce <= 0 {
		opts.Debounce = dashboard.DebounceWindow
	}
	if opts.ToastDuration <= 0 {
		opts.ToastDuration = dashboard.DefaultToastDuration
	}
	if opts.SearchK <= 0 {
		opts.SearchK = 5
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return opts
}

func newAppModel(ctx context.Context, opts Options) appModel {
	opts = withDefaults(opts)
	m := appModel{
		opts:       opts,
		ctx:        ctx,
		log:        opts.Logger,
		contextID:  uuid.NewString(),
		uiStore:    opts.State,
		now:        time.Now,
		toaster:    dashboard.NewToaster(opts.ToastDuration),
		help:       help.New(),
		modalInput: newTextInput("", 200),
	}
	m.spinner = spinner.New(spinner.WithSpinner(spinner.Dot))

	m.login.username = newTextInput("Username", 120)
	m.login.password = newTextInput("Password", 200)
	m.login.password.EchoMode = textinput.EchoPassword
	m.login.password.EchoCharacter = '•'

	list := dashboard.NewListController(opts.PageSize)
	m.dash = dashState{
		list:     list,
		edits:    dashboard.NewEdits(list),
		search:   newTextInput("Search title, description, comments…", 200),
		draft:    newTextarea("Proposal…", 12),
		viewport: viewport.New(60, 20),
	}

	m.gen = genState{
		description: newTextarea("Paste the job description…", 8),
		questions:   newTextarea("Screening questions, one per line", 4),
		editor:      newTextarea("Proposal…", 12),
		viewport:    viewport.New(60, 12),
	}

	m.search.query = newTextInput("Search reference links…", 200)

	m.cfg = configState{
		tab:          tabPrompts,
		loading:      map[configTab]bool{},
		loaded:       map[configTab]bool{},
		promptEditor: newTextarea("Prompt text…", 14),
	}

	st, err := m.uiStore.LoadUIState()
	if err != nil || st == nil {
		st = &store.UIState{Version: 1}
	}
	m.uiState = st
	m.cfg.tab = parseConfigTab(st.ConfigTab)

	start := strings.TrimSpace(opts.Route)
	if start == "" {
		start = st.Route
	}
	m.requested = nav.Parse(start)
	m.route = nav.Resolve(start, opts.Session)
	m.initCmd = m.enterRoute("")
	return m
}

func (m appModel) Init() tea.Cmd { return m.initCmd }

func (m *appModel) saveUIState() {
	if err := m.uiStore.SaveUIState(m.uiState); err != nil {
		m.log.Debug("save ui state failed", "err", err)
	}
}

// busy reports whether a request the user is waiting on is in flight.
func (m appModel) busy() bool {
	return m.login.busy || m.dash.list.Loading || m.gen.busy || m.search.busy ||
		m.cfg.loading[m.cfg.tab] || m.cfg.syncing || m.cfg.kwSaving || m.cfg.ratingSaving
}
