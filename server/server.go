// Copyright 2019 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server exposes a database over REST and WebSocket. Every
// statement endpoint replies with the same envelope: success flag, rows
// and columns for reads, the affected row count for writes.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/unrolled/render"
	"go.uber.org/zap"

	"github.com/reldb/reldb/db"
	"github.com/reldb/reldb/pkg/util"
	"github.com/reldb/reldb/schema"
	"github.com/reldb/reldb/storage"
)

const collectInterval = 30 * time.Second

// Server is the database front-end daemon
type Server struct {
	cfg  *Config
	db   *db.DB
	port int

	rd      *render.Render
	httpSrv *http.Server

	// rate limits the log of rejected statements, a client in a retry
	// loop must not flood the log
	rejectedLog *util.Log

	metrics *util.MetricClient
	cancel  context.CancelFunc

	start time.Time

	wsMu    sync.Mutex
	wsConns map[*websocket.Conn]struct{}

	closed bool
	mu     sync.Mutex
}

// NewServer opens the database under cfg.DataDir and prepares the routes
func NewServer(cfg *Config) (*Server, error) {
	_, portStr, err := net.SplitHostPort(cfg.ListenAddr)
	if err != nil {
		return nil, errors.Annotatef(err, "wrong ListenAddr: %s", cfg.ListenAddr)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, errors.Annotatef(err, "ListenAddr: %s", cfg.ListenAddr)
	}

	opts := storage.DefaultOptions().WithSync(!cfg.NoSync)
	database, err := db.Open(cfg.DataDir, opts)
	if err != nil {
		return nil, errors.Trace(err)
	}

	srv := &Server{
		cfg:  cfg,
		db:   database,
		port: port,
		rd: render.New(render.Options{
			IndentJSON: true,
		}),
		rejectedLog: util.NewLog(),
		start:       time.Now(),
		wsConns:     make(map[*websocket.Conn]struct{}),
	}
	srv.rejectedLog.Add("rejected", 10*time.Second)

	if cfg.MetricsAddr != "" && cfg.MetricsInterval != 0 {
		srv.metrics = util.NewMetricClient(
			cfg.MetricsAddr,
			time.Duration(cfg.MetricsInterval)*time.Second,
			Registry,
		)
	}

	router := mux.NewRouter()
	router.HandleFunc("/api/execute", srv.Execute).Methods("POST")
	router.HandleFunc("/api/batch", srv.Batch).Methods("POST")
	router.HandleFunc("/api/schema", srv.AllSchemas).Methods("GET")
	router.HandleFunc("/api/schema/{table}", srv.TableSchema).Methods("GET")
	router.HandleFunc("/api/tables", srv.Tables).Methods("GET")
	router.HandleFunc("/api/tables/{table}", srv.TableData).Methods("GET")
	router.HandleFunc("/api/tables/{table}", srv.DropTable).Methods("DELETE")
	router.HandleFunc("/api/repl", srv.replSocket).Methods("GET")
	router.HandleFunc("/status", srv.Status).Methods("GET")
	router.Handle("/metrics", promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))

	srv.httpSrv = &http.Server{Handler: router}

	return srv, nil
}

// Run listens on the configured addr and serves until Close is called
func (s *Server) Run() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.New("server is closed")
	}
	var ctx context.Context
	ctx, s.cancel = context.WithCancel(context.Background())
	s.mu.Unlock()

	listener, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return errors.Annotatef(err, "fail to listen on %s", s.cfg.ListenAddr)
	}

	// push metrics if need
	if s.metrics != nil {
		go s.metrics.Start(ctx, map[string]string{"instance": instanceName(s.port)})
	}
	go s.collectMetrics(ctx)

	log.Info("server started",
		zap.String("addr", s.cfg.ListenAddr),
		zap.String("data dir", s.cfg.DataDir),
		zap.Int("tables", len(s.db.Tables())))

	err = s.httpSrv.Serve(listener)
	if err == http.ErrServerClosed {
		err = nil
	}

	return errors.Trace(err)
}

// Close stops serving, hangs up open repl sessions and closes every table
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	// websocket connections are hijacked, Shutdown would wait on them
	// forever unless they are hung up first
	s.closeWSConns()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		log.Error("shutdown http server failed", zap.Error(err))
	}

	return errors.Trace(s.db.Close())
}

func (s *Server) collectMetrics(ctx context.Context) {
	tick := time.NewTicker(collectInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if err := storage.ReportStorageSize(s.cfg.DataDir); err != nil {
				log.Warn("report storage size failed", zap.Error(err))
			}
		}
	}
}

// ExecuteRequest is the body of POST /api/execute.
type ExecuteRequest struct {
	SQL string `json:"sql"`
}

// ExecuteResponse is the reply envelope of every statement endpoint.
// Data and Columns are null for statements that return no rows.
type ExecuteResponse struct {
	Success  bool                     `json:"success"`
	Data     []map[string]interface{} `json:"data"`
	Columns  []string                 `json:"columns"`
	RowCount int                      `json:"rowcount"`
	Error    string                   `json:"error,omitempty"`
}

// BatchRequest is the body of POST /api/batch.
type BatchRequest struct {
	Queries []string `json:"queries"`
}

// BatchResult is the outcome of one statement of a batch.
type BatchResult struct {
	SQL      string `json:"sql"`
	Success  bool   `json:"success"`
	RowCount int    `json:"rowcount"`
	Error    string `json:"error,omitempty"`
}

// BatchResponse is the reply of POST /api/batch.
type BatchResponse struct {
	Success bool          `json:"success"`
	Results []BatchResult `json:"results"`
}

// SchemasResponse lists every table with its schema.
type SchemasResponse struct {
	Success bool           `json:"success"`
	Schemas []db.TableDesc `json:"schemas"`
}

// TableSchemaResponse is the schema of a single table.
type TableSchemaResponse struct {
	Success bool                `json:"success"`
	Table   string              `json:"table"`
	Schema  *schema.TableSchema `json:"schema"`
}

// TablesResponse lists the tables with their row counts.
type TablesResponse struct {
	Tables []db.TableInfo `json:"tables"`
}

// TableDataResponse is a full table dump.
type TableDataResponse struct {
	Success  bool                     `json:"success"`
	Table    string                   `json:"table"`
	Data     []map[string]interface{} `json:"data"`
	Columns  []string                 `json:"columns"`
	RowCount int                      `json:"rowcount"`
}

// DropResponse is the reply of DELETE /api/tables/{table}.
type DropResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	RowCount int    `json:"rowcount"`
}

// StatusResponse describes the running node.
type StatusResponse struct {
	Addr    string `json:"addr"`
	DataDir string `json:"data_dir"`
	Tables  int    `json:"tables"`
	Rows    int    `json:"rows"`
	Uptime  string `json:"uptime"`
}

// runStatement executes sql and maps the outcome to a status code and
// the reply envelope. Statement faults are the client's problem (400),
// anything else means the engine is in trouble (500).
func (s *Server) runStatement(sql string) (int, *ExecuteResponse) {
	res, err := s.db.Execute(sql)
	if err != nil {
		status := http.StatusInternalServerError
		if db.IsUserErr(err) {
			status = http.StatusBadRequest
			s.rejectedLog.Print("rejected", func() {
				log.Warn("statement rejected", zap.String("sql", sql), zap.Error(err))
			})
		} else {
			log.Error("statement failed", zap.String("sql", sql), zap.Error(err))
		}
		return status, &ExecuteResponse{Success: false, Error: err.Error()}
	}

	resp := &ExecuteResponse{Success: true, RowCount: res.RowCount}
	if res.Columns != nil {
		resp.Columns = res.Columns
		resp.Data = res.RowObjects()
	}

	return http.StatusOK, resp
}

func (s *Server) writeJSON(w http.ResponseWriter, path string, status int, v interface{}) {
	requestCounter.WithLabelValues(path, strconv.Itoa(status)).Add(1.0)
	if err := s.rd.JSON(w, status, v); err != nil {
		log.Error("write response failed", zap.String("path", path), zap.Error(err))
	}
}

// Execute runs one SQL statement posted as {"sql": "..."}.
func (s *Server) Execute(w http.ResponseWriter, r *http.Request) {
	begin := time.Now()
	defer func() {
		requestDurationHistogram.WithLabelValues("/api/execute").Observe(time.Since(begin).Seconds())
	}()

	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, "/api/execute", http.StatusBadRequest, &ExecuteResponse{Success: false, Error: "invalid request body"})
		return
	}
	sql := strings.TrimSpace(req.SQL)
	if sql == "" {
		s.writeJSON(w, "/api/execute", http.StatusBadRequest, &ExecuteResponse{Success: false, Error: "no sql provided"})
		return
	}

	status, resp := s.runStatement(sql)
	s.writeJSON(w, "/api/execute", status, resp)
}

// Batch runs the statements posted as {"queries": [...]} one by one.
// Each statement succeeds or fails on its own, like the interactive
// shell would run them.
func (s *Server) Batch(w http.ResponseWriter, r *http.Request) {
	begin := time.Now()
	defer func() {
		requestDurationHistogram.WithLabelValues("/api/batch").Observe(time.Since(begin).Seconds())
	}()

	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, "/api/batch", http.StatusBadRequest, &ExecuteResponse{Success: false, Error: "invalid request body"})
		return
	}
	if len(req.Queries) == 0 {
		s.writeJSON(w, "/api/batch", http.StatusBadRequest, &ExecuteResponse{Success: false, Error: "no queries provided"})
		return
	}

	results := make([]BatchResult, 0, len(req.Queries))
	for _, sql := range req.Queries {
		_, resp := s.runStatement(strings.TrimSpace(sql))
		br := BatchResult{SQL: sql, Success: resp.Success, RowCount: resp.RowCount, Error: resp.Error}
		results = append(results, br)
	}

	s.writeJSON(w, "/api/batch", http.StatusOK, &BatchResponse{Success: true, Results: results})
}

// AllSchemas serves GET /api/schema.
func (s *Server) AllSchemas(w http.ResponseWriter, r *http.Request) {
	descs, err := s.db.DescribeSchema("")
	if err != nil {
		s.writeJSON(w, "/api/schema", http.StatusInternalServerError, &ExecuteResponse{Success: false, Error: err.Error()})
		return
	}

	s.writeJSON(w, "/api/schema", http.StatusOK, &SchemasResponse{Success: true, Schemas: descs})
}

// TableSchema serves GET /api/schema/{table}.
func (s *Server) TableSchema(w http.ResponseWriter, r *http.Request) {
	table := mux.Vars(r)["table"]

	descs, err := s.db.DescribeSchema(table)
	if err != nil {
		status := http.StatusInternalServerError
		if db.IsUserErr(err) {
			status = http.StatusBadRequest
		}
		s.writeJSON(w, "/api/schema/{table}", status, &ExecuteResponse{Success: false, Error: err.Error()})
		return
	}

	s.writeJSON(w, "/api/schema/{table}", http.StatusOK, &TableSchemaResponse{
		Success: true,
		Table:   table,
		Schema:  descs[0].Schema,
	})
}

// Tables serves GET /api/tables.
func (s *Server) Tables(w http.ResponseWriter, r *http.Request) {
	infos := s.db.Tables()
	if infos == nil {
		infos = []db.TableInfo{}
	}
	s.writeJSON(w, "/api/tables", http.StatusOK, &TablesResponse{Tables: infos})
}

// TableData serves GET /api/tables/{table}, a full dump of the table.
func (s *Server) TableData(w http.ResponseWriter, r *http.Request) {
	table := mux.Vars(r)["table"]

	status, resp := s.runStatement(fmt.Sprintf("SELECT * FROM %s", table))
	if !resp.Success {
		s.writeJSON(w, "/api/tables/{table}", status, resp)
		return
	}

	s.writeJSON(w, "/api/tables/{table}", http.StatusOK, &TableDataResponse{
		Success:  true,
		Table:    table,
		Data:     resp.Data,
		Columns:  resp.Columns,
		RowCount: resp.RowCount,
	})
}

// DropTable serves DELETE /api/tables/{table}.
func (s *Server) DropTable(w http.ResponseWriter, r *http.Request) {
	table := mux.Vars(r)["table"]

	status, resp := s.runStatement(fmt.Sprintf("DROP TABLE %s", table))
	if !resp.Success {
		s.writeJSON(w, "/api/tables/{table}", status, resp)
		return
	}

	log.Info("table dropped over http", zap.String("table", table), zap.Int("rows", resp.RowCount))
	s.writeJSON(w, "/api/tables/{table}", http.StatusOK, &DropResponse{
		Success:  true,
		Message:  fmt.Sprintf("table %s dropped", table),
		RowCount: resp.RowCount,
	})
}

// Status serves GET /status.
func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	infos := s.db.Tables()
	rows := 0
	for _, t := range infos {
		rows += t.Rows
	}

	s.writeJSON(w, "/status", http.StatusOK, &StatusResponse{
		Addr:    s.cfg.ListenAddr,
		DataDir: s.db.Dir(),
		Tables:  len(infos),
		Rows:    rows,
		Uptime:  time.Since(s.start).Truncate(time.Second).String(),
	})
}
