package tui

import (
	"encoding/json"

	"pitchdesk/internal/api"
	"pitchdesk/internal/configedit"
	"pitchdesk/internal/dashboard"
	"pitchdesk/internal/model"
)

type toastExpireMsg struct{ seq uint64 }

type loginDoneMsg struct {
	res api.LoginResult
	err error
}

type recordsLoadedMsg struct{ res dashboard.Result }

type searchDebounceMsg struct{ token uint64 }

type recordSavedMsg struct {
	id  string
	err error
}

type generatedMsg struct {
	seq int
	res api.GenerateResult
	err error
}

type linksMsg struct {
	seq   int
	query string
	links []model.LinkResult
	err   error
}

type promptsLoadedMsg struct {
	prompts []model.Prompt
	err     error
}

type promptSavedMsg struct {
	location string
	text     string
	err      error
}

type promptsSyncedMsg struct {
	target string
	err    error
}

type keywordsLoadedMsg struct {
	data map[string][]string
	err  error
}

// keywordsSavedMsg carries the lists that were sent; they become the baseline
// of editor on success.
type keywordsSavedMsg struct {
	editor *configedit.KeywordSets
	sent   map[string][]string
	err    error
}

type ratingLoadedMsg struct {
	raw json.RawMessage
	err error
}

type ratingSavedMsg struct {
	editor *configedit.RatingConfig
	sent   configedit.RatingBaseline
	err    error
}

// modalKind is the single text prompt that may be open on top of a screen.
type modalKind int

const (
	modalNone modalKind = iota
	modalComments
	modalGoToPage
	modalAddKeyword
	modalEditRatingValue
	modalEditRule
)

// dashFocus is where dashboard keystrokes go.
type dashFocus int

const (
	focusList dashFocus = iota
	focusSearch
	focusPanel
)

type genFocus int

const (
	genFocusDescription genFocus = iota
	genFocusQuestions
	genFocusResult
)

type configTab string

const (
	tabPrompts  configTab = "prompts"
	tabKeywords configTab = "keywords"
	tabRating   configTab = "rating"
)

var configTabs = []configTab{tabPrompts, tabKeywords, tabRating}

func parseConfigTab(s string) configTab {
	for _, t := range configTabs {
		if string(t) == s {
			return t
		}
	}
	return tabPrompts
}

func (t configTab) title() string {
	switch t {
	case tabKeywords:
		return "Keywords"
	case tabRating:
		return "Rating"
	default:
		return "Prompts"
	}
}

func (k modalKind) title() string {
	switch k {
	case modalComments:
		return "Comments"
	case modalGoToPage:
		return "Go to page"
	case modalAddKeyword:
		return "Add keyword"
	case modalEditRatingValue:
		return "Edit value"
	case modalEditRule:
		return "Edit rule"
	default:
		return ""
	}
}
