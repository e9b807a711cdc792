package model

// FilterType distinguishes attribute filters from date filters.
type FilterType string

const (
	FilterAttribute FilterType = "attribute"
	FilterDate      FilterType = "date"
)

// Filter is one entry of a dashboard filter context.
type Filter struct {
	Type FilterType `json:"type" validate:"oneof=attribute date"`

	// DisplayForm references the attribute display form (attribute filters) or the
	// date dataset (date filters).
	DisplayForm Ref `json:"displayForm"`

	// Values selected in an attribute filter.
	Values []string `json:"values,omitempty"`

	// Negative turns an attribute filter into a "not in" filter.
	Negative bool `json:"negative,omitempty"`

	// Granularity, From and To describe a relative date filter.
	Granularity string `json:"granularity,omitempty"`
	From        int    `json:"from,omitempty"`
	To          int    `json:"to,omitempty"`
}

// Clone returns a deep copy of the filter.
func (f Filter) Clone() Filter {
	if f.Values != nil {
		f.Values = append([]string(nil), f.Values...)
	}
	return f
}

// CloneFilters deep-copies a filter list, preserving nil.
func CloneFilters(filters []Filter) []Filter {
	if filters == nil {
		return nil
	}
	out := make([]Filter, len(filters))
	for i, f := range filters {
		out[i] = f.Clone()
	}
	return out
}

// FilterContext is a persisted, ordered list of filters owned by a dashboard.
type FilterContext struct {
	ObjectIdentity

	Title   string   `json:"title,omitempty"`
	Filters []Filter `json:"filters"`
}

// Clone returns a deep copy of the filter context.
func (fc *FilterContext) Clone() *FilterContext {
	if fc == nil {
		return nil
	}
	c := *fc
	c.Filters = CloneFilters(fc.Filters)
	return &c
}

// FilterContextIdentity marks which stored filter context the in-memory filters track
// and for which dashboard. Two markers compare equal only if both parts are equal.
type FilterContextIdentity struct {
	Ref   Ref `json:"ref"`
	Owner Ref `json:"owner"`
}

// IsZero returns true for a filter context never persisted.
func (id FilterContextIdentity) IsZero() bool {
	return id.Ref.IsZero() && id.Owner.IsZero()
}

// FilterContextDefinition is the filter context part of a dashboard definition.
//
// When Ref is set the dashboard links the stored filter context it names. A non-nil
// Filters then replaces that filter context's filters; a nil Filters links it as is.
// When Ref is zero a new filter context holding Filters is created.
type FilterContextDefinition struct {
	Ref     Ref      `json:"ref,omitempty"`
	Filters []Filter `json:"filters,omitempty"`
}
