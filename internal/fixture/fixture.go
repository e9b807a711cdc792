// Package fixture reads TOML documents describing backend objects and command
// scripts.
//
// A document may hold insights, dashboards and steps:
//
//	[[insight]]
//	identifier = "insight-sales"
//	uri = "/gdc/md/demo/obj/901"
//	title = "Sales by region"
//	visualization_url = "local:bar"
//
//	[[dashboard]]
//	identifier = "dashboard-complex"
//	title = "Complex"
//
//	[[dashboard.section]]
//	title = "Overview"
//
//	[[dashboard.section.item]]
//	type = "insight"
//	identifier = "widget-sales"
//	insight = "insight-sales"
//	width = 6
//
//	[[step]]
//	command = "initialize"
//	ref = "dashboard-complex"
//
// Refs in fixtures use the "id:" and "uri:" forms of model.ParseRef; a bare value is an
// identifier.
package fixture

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/dashflow/internal/model"
)

// Document is a decoded fixture file.
type Document struct {
	Insights   []Insight   `toml:"insight"`
	Dashboards []Dashboard `toml:"dashboard"`
	Steps      []Step      `toml:"step"`
}

// Insight describes a stored insight.
type Insight struct {
	Identifier       string         `toml:"identifier"`
	URI              string         `toml:"uri"`
	Title            string         `toml:"title"`
	VisualizationURL string         `toml:"visualization_url"`
	Properties       map[string]any `toml:"properties"`
}

// Dashboard describes a stored dashboard.
type Dashboard struct {
	Identifier    string         `toml:"identifier"`
	URI           string         `toml:"uri"`
	Title         string         `toml:"title"`
	Description   string         `toml:"description"`
	FilterContext *FilterContext `toml:"filter_context"`
	Sections      []Section      `toml:"section"`
	Plugins       []Plugin       `toml:"plugin"`
}

// FilterContext describes a stored filter context.
type FilterContext struct {
	Identifier string   `toml:"identifier"`
	URI        string   `toml:"uri"`
	Title      string   `toml:"title"`
	Filters    []Filter `toml:"filter"`
}

// Filter describes one filter.
type Filter struct {
	Type        string   `toml:"type"`
	DisplayForm string   `toml:"display_form"`
	Values      []string `toml:"values"`
	Negative    bool     `toml:"negative"`
	Granularity string   `toml:"granularity"`
	From        int      `toml:"from"`
	To          int      `toml:"to"`
}

// Section describes a layout section.
type Section struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
	Items       []Item `toml:"item"`
}

// Item describes a layout item and its widget.
type Item struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`

	Type        string         `toml:"type"`
	Identifier  string         `toml:"identifier"`
	URI         string         `toml:"uri"`
	Title       string         `toml:"title"`
	Description string         `toml:"description"`
	Insight     string         `toml:"insight"`
	Measure     string         `toml:"measure"`
	Comparison  string         `toml:"comparison"`
	Properties  map[string]any `toml:"properties"`
	Drills      []Drill        `toml:"drill"`
}

// Drill describes a widget drill.
type Drill struct {
	Type   string `toml:"type"`
	Origin string `toml:"origin"`
	Target string `toml:"target"`
}

// Plugin describes a dashboard plugin link.
type Plugin struct {
	Plugin     string `toml:"plugin"`
	URL        string `toml:"url"`
	Parameters string `toml:"parameters"`
}

// Load reads and decodes the fixture file at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixture: %w", err)
	}
	return Parse(data, path)
}

// Parse decodes fixture data. Unknown keys are rejected.
func Parse(data []byte, source string) (*Document, error) {
	var doc Document
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("fixture: %s:%d:%d: %w", source, row, col, err)
		}
		return nil, fmt.Errorf("fixture: %s: %w", source, err)
	}
	return &doc, nil
}

// Merge appends the objects and steps of other to d.
func (d *Document) Merge(other *Document) {
	d.Insights = append(d.Insights, other.Insights...)
	d.Dashboards = append(d.Dashboards, other.Dashboards...)
	d.Steps = append(d.Steps, other.Steps...)
}

// Objects converts the document to model objects whose refs use kind, falling back
// to the identifier when an object has no uri.
func (d *Document) Objects(kind model.RefKind) ([]*model.Dashboard, []*model.Insight, error) {
	insights := make([]*model.Insight, 0, len(d.Insights))
	for _, in := range d.Insights {
		insights = append(insights, &model.Insight{
			ObjectIdentity:   identity(kind, in.Identifier, in.URI),
			Title:            in.Title,
			VisualizationURL: in.VisualizationURL,
			Properties:       in.Properties,
		})
	}

	dashboards := make([]*model.Dashboard, 0, len(d.Dashboards))
	for i, db := range d.Dashboards {
		md, err := db.model(kind)
		if err != nil {
			return nil, nil, fmt.Errorf("fixture: dashboard %d (%s): %w", i, db.Identifier, err)
		}
		dashboards = append(dashboards, md)
	}
	return dashboards, insights, nil
}

func (db Dashboard) model(kind model.RefKind) (*model.Dashboard, error) {
	d := &model.Dashboard{
		ObjectIdentity: identity(kind, db.Identifier, db.URI),
		Title:          db.Title,
		Description:    db.Description,
		Layout:         &model.Layout{Sections: []*model.Section{}},
	}

	if fc := db.FilterContext; fc != nil {
		filters, err := Filters(fc.Filters)
		if err != nil {
			return nil, err
		}
		d.FilterContext = &model.FilterContext{
			ObjectIdentity: identity(kind, fc.Identifier, fc.URI),
			Title:          fc.Title,
			Filters:        filters,
		}
	}

	for si, s := range db.Sections {
		sec := &model.Section{
			Header: model.SectionHeader{Title: s.Title, Description: s.Description},
			Items:  make([]*model.Item, 0, len(s.Items)),
		}
		for ii, it := range s.Items {
			w, err := it.widget(kind)
			if err != nil {
				return nil, fmt.Errorf("section %d item %d: %w", si, ii, err)
			}
			sec.Items = append(sec.Items, &model.Item{
				Size:   model.ItemSize{GridWidth: width(it.Width), GridHeight: it.Height},
				Widget: w,
			})
		}
		d.Layout.Sections = append(d.Layout.Sections, sec)
	}

	for _, p := range db.Plugins {
		d.Plugins = append(d.Plugins, model.PluginLink{
			Plugin:     model.ParseRef(p.Plugin),
			URL:        p.URL,
			Parameters: p.Parameters,
		})
	}
	return d, nil
}

func (it Item) widget(kind model.RefKind) (*model.Widget, error) {
	w := &model.Widget{
		ObjectIdentity: identity(kind, it.Identifier, it.URI),
		Type:           model.WidgetType(it.Type),
		Title:          it.Title,
		Description:    it.Description,
	}
	for _, dr := range it.Drills {
		w.Drills = append(w.Drills, model.Drill{Type: dr.Type, Origin: dr.Origin, Target: dr.Target})
	}

	switch w.Type {
	case model.WidgetInsight:
		if it.Insight == "" {
			return nil, errors.New("insight widget without insight")
		}
		w.Insight = model.ParseRef(it.Insight)
		w.Properties = it.Properties
	case model.WidgetKPI:
		if it.Measure == "" {
			return nil, errors.New("kpi widget without measure")
		}
		if it.Properties != nil {
			return nil, errors.New("kpi widgets have no properties")
		}
		w.KPI = &model.KPI{Measure: model.ParseRef(it.Measure), ComparisonType: it.Comparison}
	default:
		return nil, fmt.Errorf("unknown widget type %q", it.Type)
	}
	return w, nil
}

// Filters converts fixture filters to model filters.
func Filters(in []Filter) ([]model.Filter, error) {
	out := make([]model.Filter, 0, len(in))
	for i, f := range in {
		t := model.FilterType(f.Type)
		if t != model.FilterAttribute && t != model.FilterDate {
			return nil, fmt.Errorf("filter %d: unknown type %q", i, f.Type)
		}
		out = append(out, model.Filter{
			Type:        t,
			DisplayForm: model.ParseRef(f.DisplayForm),
			Values:      f.Values,
			Negative:    f.Negative,
			Granularity: f.Granularity,
			From:        f.From,
			To:          f.To,
		})
	}
	return out, nil
}

func identity(kind model.RefKind, identifier, uri string) model.ObjectIdentity {
	id := model.ObjectIdentity{Identifier: identifier, URI: uri}
	switch {
	case kind == model.RefURI && uri != "":
		id.Ref = model.URIRef(uri)
	case identifier != "":
		id.Ref = model.IdentifierRef(identifier)
	case uri != "":
		id.Ref = model.URIRef(uri)
	}
	return id
}

func width(w int) int {
	if w <= 0 {
		return 12
	}
	return w
}
