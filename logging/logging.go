package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Log modes accepted by New and the "log" config key.
const (
	ModeOff  = "off"
	ModeProd = "prod"
	ModeDev  = "dev"
	ModeText = "text"
)

// PrettyJSONHandler prints every record as an indented JSON object.
type PrettyJSONHandler struct {
	*slog.JSONHandler
	writer io.Writer
	attrs  []slog.Attr
}

func (h *PrettyJSONHandler) Handle(ctx context.Context, r slog.Record) error {
	fields := make(map[string]any, r.NumAttrs()+len(h.attrs)+3)
	for _, a := range h.attrs {
		fields[a.Key] = attrValue(a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fields[a.Key] = attrValue(a.Value)
		return true
	})

	fields["time"] = r.Time.Format(time.RFC3339)
	fields["level"] = r.Level.String()
	fields["msg"] = r.Message

	pretty, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return err
	}

	_, err = h.writer.Write(append(pretty, '\n'))
	return err
}

func (h *PrettyJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &PrettyJSONHandler{
		JSONHandler: h.JSONHandler.WithAttrs(attrs).(*slog.JSONHandler),
		writer:      h.writer,
		attrs:       append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

// attrValue converts errors to their message so they survive marshalling.
func attrValue(v slog.Value) any {
	if err, ok := v.Any().(error); ok {
		return err.Error()
	}
	return v.Any()
}

// NewPrettyJSONHandler creates a pretty JSON handler writing to w.
func NewPrettyJSONHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyJSONHandler {
	return &PrettyJSONHandler{
		JSONHandler: slog.NewJSONHandler(w, opts),
		writer:      w,
	}
}

// Discard drops every record.
var Discard = slog.New(slog.DiscardHandler)

var ProdLogger = slog.New(slog.NewJSONHandler(os.Stderr, nil))

var DevLogger = slog.New(NewPrettyJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

// New builds a logger for mode writing to w. Every mode except off logs at
// debug level when debug is set.
func New(w io.Writer, mode string, debug bool) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
	}

	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeOff:
		return Discard, nil
	case ModeProd:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case ModeDev:
		return slog.New(NewPrettyJSONHandler(w, opts)), nil
	case ModeText:
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown log mode %q (want %s, %s, %s or %s)", mode, ModeOff, ModeProd, ModeDev, ModeText)
}
