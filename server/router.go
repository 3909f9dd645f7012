// Package server exposes a container over HTTP for browsing and querying.
package server

import (
	"net/http"
	"sync"

	"github.com/carbocation/qfeatures"
	"github.com/gorilla/mux"
	"github.com/interpose/middleware"
	"github.com/justinas/alice"
)

type logger interface {
	Print(v ...interface{})
	Printf(format string, v ...interface{})
	Println(v ...interface{})
}

// Server holds the container being served. The container may be swapped while
// requests are in flight; each request sees one version throughout.
type Server struct {
	log logger

	m         sync.RWMutex
	container *qfeatures.Container
}

func New(c *qfeatures.Container, log logger) *Server {
	return &Server{container: c, log: log}
}

func (s *Server) Container() *qfeatures.Container {
	s.m.RLock()
	defer s.m.RUnlock()

	return s.container
}

// Swap replaces the container served to subsequent requests.
func (s *Server) Swap(c *qfeatures.Container) {
	s.m.Lock()
	defer s.m.Unlock()

	s.container = c
}

// Router builds the HTTP handler, with requests logged to stdout.
func (s *Server) Router() http.Handler {
	router := mux.NewRouter()
	GET := router.Methods("GET", "HEAD").Subrouter()

	h := handler{Server: s}

	GET.HandleFunc("/assays", h.ListAssays).Name("assays")
	GET.HandleFunc("/assays/{assay}", h.Assay).Name("assay")
	GET.HandleFunc("/assays/{assay}/long.csv", h.LongCSV).Name("longcsv")
	GET.HandleFunc("/assays/{assay}/features/{feature}/related", h.Related).Name("related")
	GET.HandleFunc("/filter", h.Filter).Name("filter")

	standard := alice.New(
		// Log all requests to STDOUT
		middleware.GorillaLog(),
	)

	return standard.Then(router)
}
