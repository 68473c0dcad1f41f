package dashboard

import (
	"fmt"

	"pitchdesk/internal/model"
)

// Edits applies local field changes to the controller's items and tracks saves per id.
// Local values are never rolled back; a failed save leaves them for a retry.
type Edits struct {
	list   *ListController
	saving map[string]bool
	// dirty ids had another save requested while one was in flight.
	dirty map[string]bool
	// unsaved ids carry local changes no successful save has sent yet.
	unsaved map[string]bool
}

func NewEdits(list *ListController) *Edits {
	return &Edits{
		list:    list,
		saving:  map[string]bool{},
		dirty:   map[string]bool{},
		unsaved: map[string]bool{},
	}
}

// SetField changes one field of one record in place.
func (e *Edits) SetField(id string, field model.EditableField, value string) error {
	i := e.list.Find(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRecord, id)
	}
	rec := &e.list.Page.Items[i]
	switch field {
	case model.FieldComments:
		rec.Comments = value
	case model.FieldApplied:
		a, err := model.ParseApplied(value)
		if err != nil {
			return err
		}
		rec.Applied = a
	default:
		return fmt.Errorf("field is not editable: %q", field)
	}
	e.unsaved[id] = true
	return nil
}

// Payload returns the current editable values of id.
func (e *Edits) Payload(id string) (model.UpdatePayload, bool) {
	i := e.list.Find(id)
	if i < 0 {
		return model.UpdatePayload{}, false
	}
	rec := e.list.Page.Items[i]
	applied := rec.Applied
	if applied == "" {
		applied = model.AppliedNo
	}
	return model.UpdatePayload{Comments: rec.Comments, Applied: applied}, true
}

// BeginSave returns the payload to send and whether to send it now.
// While a save for id is in flight the request is coalesced: nothing is
// sent and FinishSave will ask for one more save with the latest values.
func (e *Edits) BeginSave(id string) (model.UpdatePayload, bool) {
	p, ok := e.Payload(id)
	if !ok {
		return model.UpdatePayload{}, false
	}
	if e.saving[id] {
		e.dirty[id] = true
		return p, false
	}
	e.saving[id] = true
	delete(e.unsaved, id)
	return p, true
}

// FinishSave clears the saving flag; call it after success and failure alike.
// A failed save marks id unsaved again. again reports that a coalesced save
// is waiting and the record is still on the page; the caller should
// BeginSave(id) once more.
func (e *Edits) FinishSave(id string, err error) (again bool) {
	delete(e.saving, id)
	if err != nil {
		e.unsaved[id] = true
	}
	again = e.dirty[id] && e.list.Find(id) >= 0
	delete(e.dirty, id)
	return again
}

func (e *Edits) Saving(id string) bool { return e.saving[id] }

// Unsaved reports local changes of id that have not been sent yet.
func (e *Edits) Unsaved(id string) bool { return e.unsaved[id] }
