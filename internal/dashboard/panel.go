package dashboard

import (
	"errors"
	"fmt"
	"strings"

	"pitchdesk/internal/model"
)

var ErrInvalidTransition = errors.New("invalid panel transition")

type ViewMode string

const (
	ViewJob      ViewMode = "job"
	ViewProposal ViewMode = "proposal"
	ViewSplit    ViewMode = "split"
)

var ViewModes = []ViewMode{ViewSplit, ViewJob, ViewProposal}

func ParseViewMode(s string) (ViewMode, error) {
	switch ViewMode(strings.ToLower(strings.TrimSpace(s))) {
	case ViewJob:
		return ViewJob, nil
	case ViewProposal:
		return ViewProposal, nil
	case ViewSplit, "":
		return ViewSplit, nil
	default:
		return "", fmt.Errorf("invalid view mode: %q", s)
	}
}

// Next cycles split -> job -> proposal.
func (m ViewMode) Next() ViewMode {
	for i, v := range ViewModes {
		if v == m {
			return ViewModes[(i+1)%len(ViewModes)]
		}
	}
	return ViewSplit
}

// Panel is the detail view of one record. It is either closed or open with a
// view mode and an edit flag. Record is a copy taken at Open; refetching the
// list does not rebind it.
type Panel struct {
	open    bool
	View    ViewMode
	Editing bool
	Draft   string
	Record  model.Record
}

func (p *Panel) IsOpen() bool { return p.open }

func seedDraft(r model.Record) string {
	if r.Comments != "" {
		return r.Comments
	}
	return r.ProposalText()
}

// Open shows r in split view, not editing. Opening while open switches records.
func (p *Panel) Open(r model.Record) {
	p.open = true
	p.View = ViewSplit
	p.Editing = false
	p.Record = r
	p.Draft = seedDraft(r)
}

func (p *Panel) SetViewMode(m ViewMode) error {
	if !p.open {
		return fmt.Errorf("%w: set view mode while closed", ErrInvalidTransition)
	}
	p.View = m
	return nil
}

func (p *Panel) EnterEdit() error {
	if !p.open || p.Editing {
		return fmt.Errorf("%w: enter edit", ErrInvalidTransition)
	}
	p.Editing = true
	return nil
}

// SetDraft replaces the edit buffer.
func (p *Panel) SetDraft(text string) error {
	if !p.open || !p.Editing {
		return fmt.Errorf("%w: draft outside edit mode", ErrInvalidTransition)
	}
	p.Draft = text
	return nil
}

// CancelEdit leaves edit mode and reseeds the draft from the record.
func (p *Panel) CancelEdit() error {
	if !p.open || !p.Editing {
		return fmt.Errorf("%w: cancel edit", ErrInvalidTransition)
	}
	p.Editing = false
	p.Draft = seedDraft(p.Record)
	return nil
}

// SaveEdit writes the draft into Comments and Proposal of the matching item.
// GeneratedProposal keeps the original text. The panel stays open.
func (p *Panel) SaveEdit(items []model.Record) error {
	if !p.open || !p.Editing {
		return fmt.Errorf("%w: save edit", ErrInvalidTransition)
	}
	idx := -1
	for i := range items {
		if items[i].ID == p.Record.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRecord, p.Record.ID)
	}

	text := p.Draft
	rec := &items[idx]
	if rec.GeneratedProposal == nil && rec.Proposal != nil {
		orig := *rec.Proposal
		rec.GeneratedProposal = &orig
	}
	rec.Comments = text
	rec.Proposal = &text

	p.Record = *rec
	p.Editing = false
	return nil
}

// Close discards the draft.
func (p *Panel) Close() error {
	if !p.open {
		return fmt.Errorf("%w: close while closed", ErrInvalidTransition)
	}
	*p = Panel{}
	return nil
}
