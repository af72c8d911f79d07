package upload

import (
	"sort"

	"careerflow/internal/application/form"
)

// Slot binds a document field of the form to the control that guards it.
type Slot struct {
	Field         string
	AcceptedTypes []string
	MaxSizeMB     int
	Required      bool
}

var slots = map[string]Slot{
	form.FieldResume: {
		Field:         form.FieldResume,
		AcceptedTypes: []string{".pdf", ".doc", ".docx"},
		MaxSizeMB:     10,
		Required:      true,
	},
	form.FieldCoverLetter: {
		Field:         form.FieldCoverLetter,
		AcceptedTypes: []string{".pdf", ".doc", ".docx"},
		MaxSizeMB:     10,
	},
	form.FieldPortfolio: {
		Field:         form.FieldPortfolio,
		AcceptedTypes: []string{".pdf", ".zip"},
		MaxSizeMB:     25,
	},
}

// SlotFor looks up a document slot by its field name.
func SlotFor(field string) (Slot, bool) {
	s, ok := slots[field]
	return s, ok
}

// SlotNames lists the document slots in a stable order.
func SlotNames() []string {
	names := make([]string, 0, len(slots))
	for n := range slots {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Control builds the upload control for the slot on the given clock.
func (s Slot) Control(clock Clock) *Control {
	return &Control{
		AcceptedTypes: append([]string{}, s.AcceptedTypes...),
		MaxSizeMB:     s.MaxSizeMB,
		Progress:      Progress{Clock: clock},
	}
}
