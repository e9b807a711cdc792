package selector

import (
	"github.com/dshills/dashflow/internal/model"
	"github.com/dshills/dashflow/internal/store"
)

// BasicLayout selects the dashboard layout.
var BasicLayout = Create(func(s *store.State) *model.Layout {
	return s.Layout
})

// Widgets selects every widget in layout order.
var Widgets = Combine(BasicLayout, func(l *model.Layout) []*model.Widget {
	return l.Widgets()
})

// InsightWidgets selects the insight widgets in layout order.
var InsightWidgets = Combine(BasicLayout, func(l *model.Layout) []*model.Widget {
	var out []*model.Widget
	l.Walk(func(w *model.Widget, _ model.Path) bool {
		if w.IsInsight() {
			out = append(out, w)
		}
		return true
	})
	return out
})

// WidgetByRef selects the widget addressed by ref in identifier or uri form.
var WidgetByRef = Family(func(ref model.Ref) Selector[*model.Widget] {
	return Combine(BasicLayout, func(l *model.Layout) *model.Widget {
		w, _, _ := l.FindWidget(ref)
		return w
	})
})

// AnalyticalWidgetByRef selects an insight or KPI widget by ref.
var AnalyticalWidgetByRef = Family(func(ref model.Ref) Selector[*model.Widget] {
	return Combine(WidgetByRef(ref), func(w *model.Widget) *model.Widget {
		if w.IsInsight() || w.IsKPI() {
			return w
		}
		return nil
	})
})

// InsightWidgetByRef selects an insight widget by ref. KPI widgets resolve to nil.
var InsightWidgetByRef = Family(func(ref model.Ref) Selector[*model.Widget] {
	return Combine(WidgetByRef(ref), func(w *model.Widget) *model.Widget {
		if w.IsInsight() {
			return w
		}
		return nil
	})
})

// WidgetPath selects where the widget addressed by ref sits in the layout.
var WidgetPath = Family(func(ref model.Ref) Selector[*model.Path] {
	return Combine(BasicLayout, func(l *model.Layout) *model.Path {
		_, p, ok := l.FindWidget(ref)
		if !ok {
			return nil
		}
		return &p
	})
})

// IsWidgetTemporary selects whether the widget addressed by ref still has a
// placeholder identity. Unknown widgets report false.
var IsWidgetTemporary = Family(func(ref model.Ref) Selector[bool] {
	return Combine(WidgetByRef(ref), func(w *model.Widget) bool {
		return w != nil && model.IsTemporaryIdentity(w.ObjectIdentity)
	})
})

// HasTemporaryWidgets selects whether any widget is still unsaved.
var HasTemporaryWidgets = Combine(BasicLayout, func(l *model.Layout) bool {
	found := false
	l.Walk(func(w *model.Widget, _ model.Path) bool {
		found = model.IsTemporaryIdentity(w.ObjectIdentity)
		return !found
	})
	return found
})
