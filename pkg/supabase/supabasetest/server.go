// Package supabasetest provides an in-process fake of the PostgREST
// endpoints used by the supabase client.
package supabasetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

const Key = "test-anon-key"

// Server records inserted rows per table and hands out sequential ids.
type Server struct {
	*httptest.Server

	mu     sync.Mutex
	rows   map[string][]map[string]interface{}
	nextID map[string]int64
	// fail decides whether an insert is answered with an empty body.
	fail func(table string, row map[string]interface{}) bool
	// status, when non-zero for a table, is returned instead of inserting.
	status map[string]int
}

func NewServer() *Server {
	s := &Server{
		rows:   make(map[string][]map[string]interface{}),
		nextID: make(map[string]int64),
		status: make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// FailWhen makes matching inserts succeed at HTTP level but return no rows.
func (s *Server) FailWhen(fn func(table string, row map[string]interface{}) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fn
}

// RespondWith makes every insert into table answer with the given status.
func (s *Server) RespondWith(table string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[table] = status
}

// Rows returns a copy of the rows stored in table.
func (s *Server) Rows(table string) []map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]interface{}, len(s.rows[table]))
	copy(out, s.rows[table])
	return out
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("apikey") != Key || r.Header.Get("Authorization") != "Bearer "+Key {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid API key"}`))
		return
	}

	table := strings.Trim(strings.TrimPrefix(r.URL.Path, "/rest/v1"), "/")

	switch {
	case table == "" && r.Method == http.MethodGet:
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"swagger":"2.0"}`))
	case r.Method == http.MethodPost:
		s.insert(w, r, table)
	case r.Method == http.MethodHead:
		s.mu.Lock()
		n := len(s.rows[table])
		s.mu.Unlock()
		w.Header().Set("Content-Range", fmt.Sprintf("*/%d", n))
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *Server) insert(w http.ResponseWriter, r *http.Request, table string) {
	var row map[string]interface{}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&row); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = fmt.Fprintf(w, `{"message":%q}`, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if status := s.status[table]; status != 0 {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"message":"injected failure"}`))
		return
	}
	if s.fail != nil && s.fail(table, row) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`[]`))
		return
	}

	s.nextID[table]++
	row["id"] = s.nextID[table]
	s.rows[table] = append(s.rows[table], row)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode([]map[string]interface{}{row})
}
