// Package handlers assembles the dashboard command handler table.
package handlers

import (
	"github.com/dshills/dashflow/internal/command"
	"github.com/dshills/dashflow/internal/dispatcher/handler"
	"github.com/dshills/dashflow/internal/dispatcher/handlers/dashboard"
	"github.com/dshills/dashflow/internal/dispatcher/handlers/filter"
	"github.com/dshills/dashflow/internal/dispatcher/handlers/layout"
	"github.com/dshills/dashflow/internal/dispatcher/handlers/widget"
)

// Namespaces returns every handler namespace.
func Namespaces() []*handler.Namespace {
	return []*handler.Namespace{
		dashboard.Namespace(),
		layout.Namespace(),
		widget.Namespace(),
		filter.Namespace(),
	}
}

// Table returns the handler for every command type.
func Table() map[command.Type]handler.Handler {
	table := make(map[command.Type]handler.Handler, len(command.Types()))
	for _, ns := range Namespaces() {
		for t, h := range ns.Handlers() {
			table[t] = h
		}
	}
	return table
}
