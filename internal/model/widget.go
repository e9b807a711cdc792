package model

// WidgetType distinguishes insight-backed widgets from KPI widgets.
type WidgetType string

const (
	// WidgetInsight renders a saved insight and carries visualization properties.
	WidgetInsight WidgetType = "insight"

	// WidgetKPI renders a single measure. KPIs have no properties.
	WidgetKPI WidgetType = "kpi"
)

// Drill is a drill-target definition attached to a widget.
type Drill struct {
	// Type is the drill kind, e.g. "drillToInsight", "drillToDashboard", "drillToCustomUrl".
	Type string `json:"type"`

	// Origin is the measure or attribute the drill starts from.
	Origin string `json:"origin"`

	// Target is the drill destination (insight ref, dashboard ref or url).
	Target string `json:"target"`
}

// KPI holds the definition of a KPI widget.
type KPI struct {
	Measure        Ref    `json:"measure"`
	ComparisonType string `json:"comparisonType,omitempty"`
}

// Widget is a dashboard widget placed in exactly one layout item.
type Widget struct {
	ObjectIdentity

	Type        WidgetType `json:"type"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`

	// Insight references the insight rendered by an insight widget.
	Insight Ref `json:"insight,omitempty"`

	// KPI is set for KPI widgets only.
	KPI *KPI `json:"kpi,omitempty"`

	// Properties is the visualization configuration of an insight widget.
	// A nil map means no properties; an empty map means explicitly empty properties.
	Properties map[string]any `json:"properties"`

	Drills []Drill `json:"drills,omitempty"`
}

// IsInsight returns true for insight widgets.
func (w *Widget) IsInsight() bool {
	return w != nil && w.Type == WidgetInsight
}

// IsKPI returns true for KPI widgets.
func (w *Widget) IsKPI() bool {
	return w != nil && w.Type == WidgetKPI
}

// Clone returns a deep copy of the widget.
func (w *Widget) Clone() *Widget {
	if w == nil {
		return nil
	}
	c := *w
	c.Properties = CloneProperties(w.Properties)
	if w.KPI != nil {
		kpi := *w.KPI
		c.KPI = &kpi
	}
	if w.Drills != nil {
		c.Drills = append([]Drill(nil), w.Drills...)
	}
	return &c
}

// WithProperties returns a copy of the widget with properties replaced.
func (w *Widget) WithProperties(props map[string]any) *Widget {
	c := w.Clone()
	c.Properties = CloneProperties(props)
	return c
}

// WithTitle returns a copy of the widget with the title replaced.
func (w *Widget) WithTitle(title string) *Widget {
	c := w.Clone()
	c.Title = title
	return c
}

// WithIdentity returns a copy of the widget carrying a different identity.
func (w *Widget) WithIdentity(id ObjectIdentity) *Widget {
	c := w.Clone()
	c.ObjectIdentity = id
	return c
}

// CloneProperties deep-copies a property map, preserving the nil versus empty distinction.
func CloneProperties(props map[string]any) map[string]any {
	if props == nil {
		return nil
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneProperties(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
