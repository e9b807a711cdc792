package model

import "time"

// PluginLink attaches a plugin to a dashboard.
type PluginLink struct {
	Plugin     Ref    `json:"plugin"`
	URL        string `json:"url"`
	Parameters string `json:"parameters,omitempty"`
}

// ClonePlugins copies a plugin link list, preserving nil.
func ClonePlugins(plugins []PluginLink) []PluginLink {
	if plugins == nil {
		return nil
	}
	return append([]PluginLink(nil), plugins...)
}

// Dashboard is the aggregate root. A draft that was never persisted has a zero identity.
type Dashboard struct {
	ObjectIdentity

	Title         string         `json:"title"`
	Description   string         `json:"description,omitempty"`
	Layout        *Layout        `json:"layout,omitempty"`
	FilterContext *FilterContext `json:"filterContext,omitempty"`
	Plugins       []PluginLink   `json:"plugins,omitempty"`

	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// IsPersisted returns true if the dashboard has a backend identity.
func (d *Dashboard) IsPersisted() bool {
	return d != nil && !d.Ref.IsZero()
}

// Clone returns a deep copy of the dashboard.
func (d *Dashboard) Clone() *Dashboard {
	if d == nil {
		return nil
	}
	c := *d
	c.Layout = d.Layout.Clone(nil)
	c.FilterContext = d.FilterContext.Clone()
	c.Plugins = ClonePlugins(d.Plugins)
	return &c
}

// DashboardDefinition is what gets sent to the backend on create and update.
type DashboardDefinition struct {
	// Identity is zero when creating.
	Identity ObjectIdentity `json:"identity"`

	Title         string                  `json:"title"`
	Description   string                  `json:"description,omitempty"`
	Layout        *Layout                 `json:"layout,omitempty"`
	FilterContext FilterContextDefinition `json:"filterContext"`
	Plugins       []PluginLink            `json:"plugins,omitempty"`
}

// Clone returns a deep copy of the definition.
func (def DashboardDefinition) Clone() DashboardDefinition {
	def.Layout = def.Layout.Clone(nil)
	def.FilterContext.Filters = CloneFilters(def.FilterContext.Filters)
	def.Plugins = ClonePlugins(def.Plugins)
	return def
}

// Insight is a saved visualization rendered by insight widgets.
type Insight struct {
	ObjectIdentity

	Title            string         `json:"title"`
	VisualizationURL string         `json:"visualizationUrl"`
	Properties       map[string]any `json:"properties"`
}

// Clone returns a deep copy of the insight.
func (i *Insight) Clone() *Insight {
	if i == nil {
		return nil
	}
	c := *i
	c.Properties = CloneProperties(i.Properties)
	return &c
}
