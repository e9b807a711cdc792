package events

import (
	"github.com/dshills/dashflow/internal/event/topic"
	"github.com/dshills/dashflow/internal/model"
)

// Layout and widget event topics.
const (
	TopicLayoutSectionAdded                topic.Topic = "dash.evt.fluid_layout.section_added"
	TopicLayoutSectionRemoved              topic.Topic = "dash.evt.fluid_layout.section_removed"
	TopicInsightWidgetVisPropertiesChanged topic.Topic = "dash.evt.insight_widget.properties_changed"
	TopicWidgetHeaderChanged               topic.Topic = "dash.evt.widget.header_changed"
	TopicFilterContextChanged              topic.Topic = "dash.evt.filter_context.changed"
)

// LayoutSectionAdded is published when a section is inserted.
type LayoutSectionAdded struct {
	Section *model.Section `json:"section"`
	Index   int            `json:"index"`
}

func (LayoutSectionAdded) EventType() topic.Topic { return TopicLayoutSectionAdded }

// LayoutSectionRemoved is published when a section is removed.
type LayoutSectionRemoved struct {
	Section *model.Section `json:"section"`
	Index   int            `json:"index"`
}

func (LayoutSectionRemoved) EventType() topic.Topic { return TopicLayoutSectionRemoved }

// InsightWidgetVisPropertiesChanged is published when an insight widget's
// visualization properties are replaced.
type InsightWidgetVisPropertiesChanged struct {
	Ref        model.Ref      `json:"ref"`
	Properties map[string]any `json:"properties"`
}

func (InsightWidgetVisPropertiesChanged) EventType() topic.Topic {
	return TopicInsightWidgetVisPropertiesChanged
}

// WidgetHeaderChanged is published when a widget title changes.
type WidgetHeaderChanged struct {
	Ref   model.Ref `json:"ref"`
	Title string    `json:"title"`
}

func (WidgetHeaderChanged) EventType() topic.Topic { return TopicWidgetHeaderChanged }

// FilterContextChanged is published when the in-memory filters are replaced.
type FilterContextChanged struct {
	Filters []model.Filter `json:"filters"`
}

func (FilterContextChanged) EventType() topic.Topic { return TopicFilterContextChanged }
