package dashboard

import (
	"errors"
	"testing"

	"pitchdesk/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetFieldThenSavePayload(t *testing.T) {
	t.Parallel()

	c := loaded(t, 2, rec("7"), rec("8"))
	e := NewEdits(c)

	require.NoError(t, e.SetField("7", model.FieldComments, "Good fit"))
	require.NoError(t, e.SetField("7", model.FieldApplied, "yes"))

	p, send := e.BeginSave("7")
	require.True(t, send)
	assert.Equal(t, model.UpdatePayload{Comments: "Good fit", Applied: model.AppliedYes}, p)
	assert.True(t, e.Saving("7"))

	other := c.Page.Items[1]
	assert.Equal(t, rec("8"), other)
}

func TestSetFieldLeavesOtherFields(t *testing.T) {
	t.Parallel()

	r := rec("1")
	r.Comments = "keep"
	c := loaded(t, 1, r)
	e := NewEdits(c)

	require.NoError(t, e.SetField("1", model.FieldApplied, "not_relevant"))
	p, _ := e.Payload("1")
	assert.Equal(t, model.UpdatePayload{Comments: "keep", Applied: model.AppliedNotRelevant}, p)
	assert.Equal(t, "job 1", c.Page.Items[0].Title)
}

func TestSetFieldErrors(t *testing.T) {
	t.Parallel()

	c := loaded(t, 1, rec("1"))
	e := NewEdits(c)

	assert.ErrorIs(t, e.SetField("nope", model.FieldComments, "x"), ErrUnknownRecord)
	assert.Error(t, e.SetField("1", model.FieldApplied, "maybe"))
	assert.Error(t, e.SetField("1", model.EditableField("title"), "x"))
	assert.Equal(t, model.AppliedNo, c.Page.Items[0].Applied)
}

func TestPayloadIsReadAtSendTime(t *testing.T) {
	t.Parallel()

	c := loaded(t, 1, rec("1"))
	e := NewEdits(c)
	require.NoError(t, e.SetField("1", model.FieldComments, "draft"))
	require.NoError(t, e.SetField("1", model.FieldComments, "final"))

	p, send := e.BeginSave("1")
	require.True(t, send)
	assert.Equal(t, "final", p.Comments)
}

func TestFailedSaveKeepsLocalValues(t *testing.T) {
	t.Parallel()

	c := loaded(t, 1, rec("1"))
	e := NewEdits(c)
	require.NoError(t, e.SetField("1", model.FieldComments, "mine"))
	_, send := e.BeginSave("1")
	require.True(t, send)

	assert.False(t, e.FinishSave("1", errors.New("boom")))
	assert.False(t, e.Saving("1"))
	assert.Equal(t, "mine", c.Page.Items[0].Comments)
	assert.True(t, e.Unsaved("1"))
}

func TestUnsavedTracksLocalChanges(t *testing.T) {
	t.Parallel()

	c := loaded(t, 2, rec("1"), rec("2"))
	e := NewEdits(c)
	assert.False(t, e.Unsaved("1"))

	require.NoError(t, e.SetField("1", model.FieldComments, "Good fit"))
	require.NoError(t, e.SetField("1", model.FieldApplied, "yes"))
	assert.True(t, e.Unsaved("1"))
	assert.False(t, e.Unsaved("2"))

	p, send := e.BeginSave("1")
	require.True(t, send)
	assert.Equal(t, model.UpdatePayload{Comments: "Good fit", Applied: model.AppliedYes}, p)
	assert.False(t, e.Unsaved("1"))

	// An edit during the flight stays unsaved after the save lands.
	require.NoError(t, e.SetField("1", model.FieldComments, "Great fit"))
	assert.False(t, e.FinishSave("1", nil))
	assert.True(t, e.Unsaved("1"))
}

func TestOverlappingSavesCoalesce(t *testing.T) {
	t.Parallel()

	c := loaded(t, 2, rec("1"), rec("2"))
	e := NewEdits(c)

	_, send := e.BeginSave("1")
	require.True(t, send)

	// A different id saves independently.
	_, send = e.BeginSave("2")
	assert.True(t, send)

	require.NoError(t, e.SetField("1", model.FieldComments, "v2"))
	_, send = e.BeginSave("1")
	assert.False(t, send)
	require.NoError(t, e.SetField("1", model.FieldComments, "v3"))
	_, send = e.BeginSave("1")
	assert.False(t, send)

	// One follow-up carrying the latest values, then nothing more.
	require.True(t, e.FinishSave("1", nil))
	p, send := e.BeginSave("1")
	require.True(t, send)
	assert.Equal(t, "v3", p.Comments)
	assert.False(t, e.FinishSave("1", nil))
	assert.False(t, e.Saving("1"))
}

func TestCoalescedSaveDroppedWhenRecordGone(t *testing.T) {
	t.Parallel()

	c := loaded(t, 1, rec("1"))
	e := NewEdits(c)
	_, _ = e.BeginSave("1")
	_, _ = e.BeginSave("1")

	req := c.Refresh()
	c.Apply(Result{Req: req, Rows: recs("9"), Count: 1})
	assert.False(t, e.FinishSave("1", nil))
}

func TestBeginSaveUnknownID(t *testing.T) {
	t.Parallel()

	e := NewEdits(loaded(t, 0))
	_, send := e.BeginSave("missing")
	assert.False(t, send)
}
