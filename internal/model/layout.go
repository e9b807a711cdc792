package model

// SectionHeader is the optional title block of a layout section.
type SectionHeader struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// ItemSize is the grid size of a layout item.
type ItemSize struct {
	GridWidth  int `json:"gridWidth"`
	GridHeight int `json:"gridHeight,omitempty"`
}

// Item is a layout cell holding at most one widget.
type Item struct {
	Size   ItemSize `json:"size"`
	Widget *Widget  `json:"widget,omitempty"`
}

// Section is a row of layout items.
type Section struct {
	Header SectionHeader `json:"header"`
	Items  []*Item       `json:"items"`
}

// Layout is the fluid layout tree of a dashboard.
type Layout struct {
	Sections []*Section `json:"sections"`
}

// Path locates an item in the layout.
type Path struct {
	Section int `json:"section"`
	Item    int `json:"item"`
}

// SectionCount returns the number of sections. A nil layout has none.
func (l *Layout) SectionCount() int {
	if l == nil {
		return 0
	}
	return len(l.Sections)
}

// Walk calls fn for every widget in layout order until fn returns false.
func (l *Layout) Walk(fn func(w *Widget, p Path) bool) {
	if l == nil {
		return
	}
	for si, s := range l.Sections {
		if s == nil {
			continue
		}
		for ii, it := range s.Items {
			if it == nil || it.Widget == nil {
				continue
			}
			if !fn(it.Widget, Path{Section: si, Item: ii}) {
				return
			}
		}
	}
}

// Widgets returns all widgets in layout order.
func (l *Layout) Widgets() []*Widget {
	var out []*Widget
	l.Walk(func(w *Widget, _ Path) bool {
		out = append(out, w)
		return true
	})
	return out
}

// FindWidget returns the widget addressed by ref in any of its forms.
func (l *Layout) FindWidget(ref Ref) (*Widget, Path, bool) {
	var (
		found *Widget
		at    Path
	)
	l.Walk(func(w *Widget, p Path) bool {
		if w.Matches(ref) {
			found, at = w, p
			return false
		}
		return true
	})
	return found, at, found != nil
}

// WidgetAt returns the widget at the path, or nil.
func (l *Layout) WidgetAt(p Path) *Widget {
	if l == nil || p.Section < 0 || p.Section >= len(l.Sections) {
		return nil
	}
	s := l.Sections[p.Section]
	if s == nil || p.Item < 0 || p.Item >= len(s.Items) || s.Items[p.Item] == nil {
		return nil
	}
	return s.Items[p.Item].Widget
}

// WithWidget returns a new layout with the widget at p replaced. Only the nodes on the
// path are copied; every other section and item is shared with the receiver.
func (l *Layout) WithWidget(p Path, w *Widget) *Layout {
	if l.WidgetAt(p) == nil {
		return l
	}
	nl := &Layout{Sections: append([]*Section(nil), l.Sections...)}

	s := *l.Sections[p.Section]
	s.Items = append([]*Item(nil), s.Items...)
	it := *s.Items[p.Item]
	it.Widget = w
	s.Items[p.Item] = &it
	nl.Sections[p.Section] = &s

	return nl
}

// InsertSection returns a new layout with s inserted at index. An index of -1 or
// SectionCount appends.
func (l *Layout) InsertSection(index int, s *Section) *Layout {
	count := l.SectionCount()
	if index < 0 || index > count {
		index = count
	}
	sections := make([]*Section, 0, count+1)
	if l != nil {
		sections = append(sections, l.Sections[:index]...)
	}
	sections = append(sections, s)
	if l != nil {
		sections = append(sections, l.Sections[index:]...)
	}
	return &Layout{Sections: sections}
}

// RemoveSection returns a new layout without the section at index and the removed
// section. The receiver is returned unchanged if index is out of range.
func (l *Layout) RemoveSection(index int) (*Layout, *Section) {
	if index < 0 || index >= l.SectionCount() {
		return l, nil
	}
	removed := l.Sections[index]
	sections := make([]*Section, 0, len(l.Sections)-1)
	sections = append(sections, l.Sections[:index]...)
	sections = append(sections, l.Sections[index+1:]...)
	return &Layout{Sections: sections}, removed
}

// Clone returns a deep copy of the layout. Widgets for which strip returns true lose
// their identity, the way a backend converter removes identifiers before creating a
// new entity. A nil strip keeps every identity.
func (l *Layout) Clone(strip func(*Widget) bool) *Layout {
	if l == nil {
		return nil
	}
	out := &Layout{Sections: make([]*Section, len(l.Sections))}
	for si, s := range l.Sections {
		if s == nil {
			continue
		}
		ns := &Section{Header: s.Header, Items: make([]*Item, len(s.Items))}
		for ii, it := range s.Items {
			if it == nil {
				continue
			}
			ni := &Item{Size: it.Size, Widget: it.Widget.Clone()}
			if ni.Widget != nil && strip != nil && strip(it.Widget) {
				ni.Widget.ObjectIdentity = ObjectIdentity{}
			}
			ns.Items[ii] = ni
		}
		out.Sections[si] = ns
	}
	return out
}

// StripAll is a Clone strip predicate removing every widget identity.
func StripAll(*Widget) bool { return true }

// StripTemporary is a Clone strip predicate removing placeholder identities only.
func StripTemporary(w *Widget) bool { return IsTemporaryIdentity(w.ObjectIdentity) }
