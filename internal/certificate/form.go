// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package certificate

// State is the position of a form in the generation cycle.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateLoading    State = "loading"
	StatePopulated  State = "populated"
	StateError      State = "error"
)

// Form is the state a single visitor edits: the record plus the flags the
// page derives from it. Like Record it is passed and returned by value.
type Form struct {
	Record Record `json:"record"`
	State  State  `json:"state"`
	Error  string `json:"error,omitempty"`
}

// NewForm returns an idle form holding the placeholder record.
func NewForm(defaultStatement string) Form {
	return Form{Record: Default(defaultStatement), State: StateIdle}
}

// IsLoading reports whether a generation is running.
func (f Form) IsLoading() bool { return f.State == StateLoading }

// IsGenerated reports whether the record reflects a successful generation
// that has not been edited since.
func (f Form) IsGenerated() bool { return f.State == StatePopulated }

// Edit carries text field changes. Nil fields are left alone.
type Edit struct {
	UserName      *string
	CelebrityName *string
	UserVows      *string
	CelebrityVows *string
	NameFont      *string
	VowsFont      *string
}

// Edit applies e. A populated form that changes goes back to idle, and any
// stale error is cleared.
func (f Form) Edit(e Edit) Form {
	rec := f.Record
	changed := false
	set := func(dst *string, v *string) {
		if v != nil && *dst != *v {
			*dst = *v
			changed = true
		}
	}
	set(&rec.UserName, e.UserName)
	set(&rec.CelebrityName, e.CelebrityName)
	set(&rec.UserVows, e.UserVows)
	set(&rec.CelebrityVows, e.CelebrityVows)
	set(&rec.NameFont, e.NameFont)
	set(&rec.VowsFont, e.VowsFont)

	if !changed {
		return f
	}
	f.Record = rec
	f.Error = ""
	if f.State == StatePopulated || f.State == StateError {
		f.State = StateIdle
	}
	return f
}

// WithUserPhoto replaces the user's photo and nothing else.
func (f Form) WithUserPhoto(ref string) Form {
	f.Record.UserPhoto = ref
	return f
}

// Reset discards everything the visitor entered.
func (f Form) Reset(defaultStatement string) Form {
	return NewForm(defaultStatement)
}

// Settle applies the outcome of a generation cycle to f, the form as it is
// stored once the generators return. Only the state and the generated
// fields are taken from outcome, so a photo uploaded meanwhile survives.
func (f Form) Settle(outcome Form) Form {
	f.State = outcome.State
	f.Error = outcome.Error
	if outcome.State == StatePopulated {
		out := outcome.Record
		f.Record = f.Record.withGenerated(out.WitnessStatement, out.CelebrityPhoto, out.Number, out.IssuedAt)
	}
	return f
}
