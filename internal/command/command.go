// Package command defines the closed set of commands a dashboard session accepts.
//
// Command is a sealed interface: only the types in this package implement it, and
// Types lists every one of them. The dispatcher uses Types to check at construction
// that its handler table is exhaustive.
//
// Commands are values. Dispatch copies them, so a caller can reuse a command value
// after dispatching it without affecting the in-flight copy.
package command

import (
	"time"

	"github.com/dshills/dashflow/internal/model"
)

// Type names a command kind. Names are dot-hierarchical.
type Type string

// Command type names.
const (
	TypeInitialize              Type = "dash.cmd.initialize"
	TypeSave                    Type = "dash.cmd.save"
	TypeSaveAs                  Type = "dash.cmd.save_as"
	TypeRename                  Type = "dash.cmd.rename"
	TypeReset                   Type = "dash.cmd.reset"
	TypeDelete                  Type = "dash.cmd.delete"
	TypeAddLayoutSection        Type = "dash.cmd.fluid_layout.add_section"
	TypeRemoveLayoutSection     Type = "dash.cmd.fluid_layout.remove_section"
	TypeChangeInsightProperties Type = "dash.cmd.insight_widget.change_properties"
	TypeChangeWidgetHeader      Type = "dash.cmd.widget.change_header"
	TypeChangeFilterContext     Type = "dash.cmd.filter_context.change"
)

// Types returns every command type.
func Types() []Type {
	return []Type{
		TypeInitialize,
		TypeSave,
		TypeSaveAs,
		TypeRename,
		TypeReset,
		TypeDelete,
		TypeAddLayoutSection,
		TypeRemoveLayoutSection,
		TypeChangeInsightProperties,
		TypeChangeWidgetHeader,
		TypeChangeFilterContext,
	}
}

// Meta is carried by every command.
type Meta struct {
	// ID is assigned by the dispatcher.
	ID string `json:"id,omitempty"`

	// CorrelationID is supplied by the caller and copied onto every event the
	// command produces.
	CorrelationID string `json:"correlationId,omitempty"`

	// IssuedAt is assigned by the dispatcher.
	IssuedAt time.Time `json:"issuedAt"`
}

// Metadata returns m. It is promoted to every command type.
func (m Meta) Metadata() Meta { return m }

// Command is an intent addressed to a dashboard session.
type Command interface {
	// CommandType returns the command kind.
	CommandType() Type

	// Metadata returns the command metadata.
	Metadata() Meta

	// withMeta returns a copy carrying m.
	withMeta(m Meta) Command
}

// Correlate returns a copy of cmd carrying the correlation id.
func Correlate(cmd Command, correlationID string) Command {
	m := cmd.Metadata()
	m.CorrelationID = correlationID
	return cmd.withMeta(m)
}

// Stamp returns a copy of cmd carrying a dispatcher-assigned id and issue time.
// The correlation id is kept.
func Stamp(cmd Command, id string, at time.Time) Command {
	m := cmd.Metadata()
	m.ID = id
	m.IssuedAt = at
	return cmd.withMeta(m)
}

// Initialize loads a dashboard into the session. A zero Ref starts an empty draft.
type Initialize struct {
	Meta
	Ref model.Ref `json:"ref"`
}

// Save persists the current dashboard.
type Save struct {
	Meta
}

// SaveAs persists a copy of the current dashboard.
type SaveAs struct {
	Meta

	// Title of the copy. Empty keeps the current title.
	Title string `json:"title,omitempty"`

	// SwitchToCopy makes the copy the session's dashboard.
	SwitchToCopy bool `json:"switchToCopy"`

	// UseOriginalFilterContext makes the copy reference the source's stored filter
	// context instead of a new one.
	UseOriginalFilterContext bool `json:"useOriginalFilterContext"`
}

// Rename changes the dashboard title.
type Rename struct {
	Meta
	Title string `json:"title" validate:"required,max=256"`
}

// Reset reverts the dashboard to its persisted state.
type Reset struct {
	Meta
}

// Delete removes the dashboard from the backend.
type Delete struct {
	Meta
}

// NewItem describes a layout item added to a new section.
type NewItem struct {
	GridWidth int `json:"gridWidth" validate:"min=1,max=12"`

	Type       model.WidgetType `json:"type" validate:"oneof=insight kpi"`
	Title      string           `json:"title"`
	Insight    model.Ref        `json:"insight"`
	KPI        *model.KPI       `json:"kpi,omitempty"`
	Properties map[string]any   `json:"properties,omitempty"`
}

// AddLayoutSection inserts a new section. Index -1 appends.
type AddLayoutSection struct {
	Meta
	Index  int                 `json:"index" validate:"min=-1"`
	Header model.SectionHeader `json:"header"`
	Items  []NewItem           `json:"items" validate:"dive"`
}

// RemoveLayoutSection removes the section at Index.
type RemoveLayoutSection struct {
	Meta
	Index int `json:"index" validate:"min=0"`
}

// ChangeInsightProperties replaces the visualization properties of an insight
// widget. Nil Properties clears them; an empty map sets them to empty.
type ChangeInsightProperties struct {
	Meta
	Ref        model.Ref      `json:"ref"`
	Properties map[string]any `json:"properties"`
}

// ChangeWidgetHeader changes the title of any widget.
type ChangeWidgetHeader struct {
	Meta
	Ref   model.Ref `json:"ref"`
	Title string    `json:"title" validate:"max=256"`
}

// ChangeFilterContext replaces the in-memory filters.
type ChangeFilterContext struct {
	Meta
	Filters []model.Filter `json:"filters" validate:"dive"`
}
