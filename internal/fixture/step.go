package fixture

import (
	"fmt"
	"strings"

	"github.com/dshills/dashflow/internal/command"
	"github.com/dshills/dashflow/internal/event/topic"
	"github.com/dshills/dashflow/internal/model"
)

// Step is one scripted command. Command names the command by its short name
// ("save_as") or its full type ("dash.cmd.save_as"); the other fields apply to the
// commands that carry them.
type Step struct {
	Command     string `toml:"command"`
	Correlation string `toml:"correlation"`

	// Expect, when set, is the event type the step is expected to end with.
	Expect string `toml:"expect"`

	Ref                      string         `toml:"ref"`
	Title                    string         `toml:"title"`
	SwitchToCopy             bool           `toml:"switch_to_copy"`
	UseOriginalFilterContext bool           `toml:"use_original_filter_context"`
	Index                    *int           `toml:"index"`
	Description              string         `toml:"description"`
	Items                    []Item         `toml:"item"`
	Properties               map[string]any `toml:"properties"`
	Filters                  []Filter       `toml:"filter"`
}

// ExpectedType returns the expected terminal event type, or "" for none.
func (s Step) ExpectedType() topic.Topic {
	return topic.Topic(s.Expect)
}

// ToCommand converts the step to a command carrying its correlation id.
func (s Step) ToCommand() (command.Command, error) {
	cmd, err := s.build()
	if err != nil {
		return nil, err
	}
	if s.Correlation != "" {
		cmd = command.Correlate(cmd, s.Correlation)
	}
	return cmd, nil
}

func (s Step) build() (command.Command, error) {
	ref := model.ParseRef(s.Ref)

	switch commandType(s.Command) {
	case command.TypeInitialize:
		return command.Initialize{Ref: ref}, nil
	case command.TypeSave:
		return command.Save{}, nil
	case command.TypeSaveAs:
		return command.SaveAs{
			Title:                    s.Title,
			SwitchToCopy:             s.SwitchToCopy,
			UseOriginalFilterContext: s.UseOriginalFilterContext,
		}, nil
	case command.TypeRename:
		return command.Rename{Title: s.Title}, nil
	case command.TypeReset:
		return command.Reset{}, nil
	case command.TypeDelete:
		return command.Delete{}, nil
	case command.TypeAddLayoutSection:
		items := make([]command.NewItem, 0, len(s.Items))
		for _, it := range s.Items {
			items = append(items, it.newItem())
		}
		index := -1
		if s.Index != nil {
			index = *s.Index
		}
		return command.AddLayoutSection{
			Index:  index,
			Header: model.SectionHeader{Title: s.Title, Description: s.Description},
			Items:  items,
		}, nil
	case command.TypeRemoveLayoutSection:
		if s.Index == nil {
			return nil, fmt.Errorf("%s requires index", s.Command)
		}
		return command.RemoveLayoutSection{Index: *s.Index}, nil
	case command.TypeChangeInsightProperties:
		return command.ChangeInsightProperties{Ref: ref, Properties: s.Properties}, nil
	case command.TypeChangeWidgetHeader:
		return command.ChangeWidgetHeader{Ref: ref, Title: s.Title}, nil
	case command.TypeChangeFilterContext:
		filters, err := Filters(s.Filters)
		if err != nil {
			return nil, err
		}
		return command.ChangeFilterContext{Filters: filters}, nil
	default:
		return nil, fmt.Errorf("unknown command %q", s.Command)
	}
}

func (it Item) newItem() command.NewItem {
	n := command.NewItem{
		GridWidth:  width(it.Width),
		Type:       model.WidgetType(it.Type),
		Title:      it.Title,
		Properties: it.Properties,
	}
	if it.Insight != "" {
		n.Insight = model.ParseRef(it.Insight)
	}
	if it.Measure != "" {
		n.KPI = &model.KPI{Measure: model.ParseRef(it.Measure), ComparisonType: it.Comparison}
	}
	return n
}

var aliases = map[string]command.Type{
	"add_section":               command.TypeAddLayoutSection,
	"remove_section":            command.TypeRemoveLayoutSection,
	"change_insight_properties": command.TypeChangeInsightProperties,
	"change_widget_header":      command.TypeChangeWidgetHeader,
	"change_filter_context":     command.TypeChangeFilterContext,
}

// commandType maps short and full command names to the command type.
func commandType(name string) command.Type {
	if t, ok := aliases[name]; ok {
		return t
	}
	full := command.Type(name)
	if !strings.HasPrefix(name, "dash.cmd.") {
		full = command.Type("dash.cmd." + name)
	}
	for _, t := range command.Types() {
		if t == full {
			return t
		}
	}
	return ""
}

// Commands converts every step of the document, reporting the first bad step.
func (d *Document) Commands() ([]command.Command, error) {
	cmds := make([]command.Command, 0, len(d.Steps))
	for i, s := range d.Steps {
		cmd, err := s.ToCommand()
		if err != nil {
			return nil, fmt.Errorf("fixture: step %d: %w", i+1, err)
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}
