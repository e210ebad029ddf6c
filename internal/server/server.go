// Package server exposes the compiler over HTTP.
//
//	POST /v1/compile/{kind}   compile a JSON pipeline
//	GET  /v1/tables           list the configured tables
//	GET  /healthz             liveness
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/shipq/cqlc/httperror"
	"github.com/shipq/cqlc/internal/config"
	"github.com/shipq/cqlc/query"
	"github.com/shipq/cqlc/query/compile"
)

// MaxBodyBytes bounds the size of a compile request.
const MaxBodyBytes = 1 << 20

// RequestIDHeader carries the request id. An incoming value is kept,
// otherwise a new one is generated.
const RequestIDHeader = "X-Request-Id"

// CompileRequest is the body of POST /v1/compile/{kind}.
type CompileRequest struct {
	Pipeline  json.RawMessage `json:"pipeline"`
	Inline    *bool           `json:"inline,omitempty"`
	TTL       *int            `json:"ttl,omitempty"`
	Timestamp *time.Time      `json:"timestamp,omitempty"`
}

// CompileResponse is the result of a compile. Values and Literals are set
// for positional output only; Literals holds the CQL literal form of each
// value.
type CompileResponse struct {
	Kind     compile.StatementKind `json:"kind"`
	CQL      string                `json:"cql"`
	Values   []any                 `json:"values,omitempty"`
	Literals []string              `json:"literals,omitempty"`
}

// TableInfo describes one configured table.
type TableInfo struct {
	Key            string       `json:"key"`
	Table          string       `json:"table"`
	Columns        []ColumnInfo `json:"columns"`
	AllowFiltering bool         `json:"allow_filtering"`
}

// ColumnInfo maps a member to its column.
type ColumnInfo struct {
	Member string `json:"member"`
	Column string `json:"column"`
}

// Server serves compile requests against one config.
type Server struct {
	cfg    *config.Config
	opts   []compile.Option
	logger *slog.Logger
	mux    *http.ServeMux
}

// New creates a server. Each request compiles with a compiler built from
// opts, since a Compiler must not be shared between goroutines.
func New(cfg *config.Config, logger *slog.Logger, opts ...compile.Option) *Server {
	s := &Server{
		cfg:    cfg,
		opts:   append([]compile.Option{compile.WithLogger(logger)}, opts...),
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.mux.HandleFunc("POST /v1/compile/{kind}", s.handleCompile)
	s.mux.HandleFunc("GET /v1/tables", s.handleTables)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := r.Header.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, id)

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	s.logger.Info("request",
		"request_id", id,
		"method", r.Method,
		"path", r.URL.Path,
		"status", rec.status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	resp, err := s.compile(r)
	if err != nil {
		httperror.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) compile(r *http.Request) (*CompileResponse, error) {
	kind, err := compile.ParseKind(r.PathValue("kind"))
	if err != nil {
		return nil, httperror.NotFoundf("%v", err)
	}

	var req CompileRequest
	body := io.LimitReader(r.Body, MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return nil, httperror.BadRequestf("invalid request body: %v", err)
	}
	if len(req.Pipeline) == 0 {
		return nil, httperror.BadRequestf("missing pipeline")
	}

	stmt, err := compile.NewStatement(kind, compile.StatementOptions{TTL: req.TTL, Timestamp: req.Timestamp})
	if err != nil {
		return nil, httperror.BadRequestf("%v", err)
	}

	root, err := query.UnmarshalNode(req.Pipeline, s.cfg.Resolve)
	if err != nil {
		if errors.Is(err, query.ErrUnknownTable) {
			return nil, httperror.Unprocessable("unknown_table", err)
		}
		return nil, httperror.BadRequestf("invalid pipeline: %v", err)
	}

	compiler := compile.NewCompiler(s.opts...)
	inline := s.cfg.Inline()
	if req.Inline != nil {
		inline = *req.Inline
	}

	if inline {
		cql, err := compiler.CompileInline(root, stmt)
		if err != nil {
			return nil, compileError(err)
		}
		return &CompileResponse{Kind: kind, CQL: cql}, nil
	}

	res, err := compiler.Compile(root, stmt)
	if err != nil {
		return nil, compileError(err)
	}
	resp := &CompileResponse{Kind: kind, CQL: res.CQL, Values: res.Values}
	for _, v := range res.Values {
		lit, err := compile.EncodeLiteral(v)
		if err != nil {
			lit = fmt.Sprintf("%v", v)
		}
		resp.Literals = append(resp.Literals, lit)
	}
	return resp, nil
}

// compileErrorKinds maps compile failures to response error codes.
var compileErrorKinds = []struct {
	target error
	kind   string
}{
	{compile.ErrUnknownColumn, "unknown_column"},
	{compile.ErrUnsupportedOperator, "unsupported_operator"},
	{compile.ErrUnsupportedNode, "unsupported_node"},
	{compile.ErrEmptyMembershipSet, "empty_membership_set"},
	{compile.ErrNoAssignments, "no_assignments"},
	{compile.ErrPartialDelete, "partial_delete"},
	{compile.ErrNotConstant, "not_constant"},
}

func compileError(err error) error {
	for _, k := range compileErrorKinds {
		if errors.Is(err, k.target) {
			return httperror.Unprocessable(k.kind, err)
		}
	}
	return httperror.Unprocessable("compile_error", err)
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	tables := make([]TableInfo, 0, len(s.cfg.Tables))
	for _, key := range s.cfg.TableKeys() {
		t := s.cfg.Tables[key]
		info := TableInfo{
			Key:            key,
			Table:          t.QuotedTableName(),
			AllowFiltering: t.AllowFiltering(),
		}
		for _, c := range t.Columns() {
			info.Columns = append(info.Columns, ColumnInfo{Member: c.Member, Column: c.Name})
		}
		tables = append(tables, info)
	}
	writeJSON(w, http.StatusOK, tables)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
