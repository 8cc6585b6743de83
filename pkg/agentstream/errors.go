package agentstream

import (
	"context"
	"errors"
	"log/slog"
)

// errNoChartSpec marks a chart frame whose chart_spec field is absent.
var errNoChartSpec = errors.New("chart frame has no chart_spec")

// discardHandler is the default destination for skip diagnostics when no
// logger is configured.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }
