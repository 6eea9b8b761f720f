package dashboard

import (
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vhostlog/internal/tally"
)

// Source provides the per-destination counters to display
type Source interface {
	List() []tally.Entry
}

// Stats summarizes all destinations
type Stats struct {
	Files   int            `json:"files"`
	Domains int            `json:"domains"`
	Lines   int64          `json:"lines"`
	Bytes   int64          `json:"bytes"`
	Months  map[string]int `json:"months"`
	Top     []DomainCount  `json:"top_domains"`
}

// DomainCount is the number of lines routed for one domain
type DomainCount struct {
	Domain string `json:"domain"`
	Lines  int64  `json:"lines"`
}

const topDomains = 10

// Server represents the stats HTTP server
type Server struct {
	source Source
	addr   string
}

// NewServer creates a new stats server
func NewServer(source Source, addr string) *Server {
	return &Server{
		source: source,
		addr:   addr,
	}
}

// Handler returns the HTTP routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/v1/destinations", s.handleAPIDestinations)
	mux.HandleFunc("/api/v1/stats", s.handleAPIStats)

	return mux
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Printf("[DASHBOARD] Starting on %s", s.addr)
	return http.ListenAndServe(s.addr, s.Handler())
}

// handleAPIDestinations returns destination counters as JSON,
// optionally filtered by ?domain= and capped by ?limit=
func (s *Server) handleAPIDestinations(w http.ResponseWriter, r *http.Request) {
	domain := r.URL.Query().Get("domain")
	limit := -1
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = l
	}

	entries := []tally.Entry{}
	for _, e := range s.source.List() {
		if domain != "" && e.Domain != domain {
			continue
		}
		if limit >= 0 && len(entries) >= limit {
			break
		}
		entries = append(entries, e)
	}

	writeJSON(w, entries)
}

// handleAPIStats returns totals as JSON
func (s *Server) handleAPIStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, Summarize(s.source.List()))
}

// Summarize aggregates destination counters
func Summarize(entries []tally.Entry) *Stats {
	stats := &Stats{Months: make(map[string]int)}
	perDomain := make(map[string]int64)

	for _, e := range entries {
		stats.Files++
		stats.Lines += e.Lines
		stats.Bytes += e.Bytes
		stats.Months[e.Month]++
		perDomain[e.Domain] += e.Lines
	}
	stats.Domains = len(perDomain)

	for d, n := range perDomain {
		stats.Top = append(stats.Top, DomainCount{Domain: d, Lines: n})
	}
	sort.Slice(stats.Top, func(i, j int) bool {
		if stats.Top[i].Lines != stats.Top[j].Lines {
			return stats.Top[i].Lines > stats.Top[j].Lines
		}
		return stats.Top[i].Domain < stats.Top[j].Domain
	})
	if len(stats.Top) > topDomains {
		stats.Top = stats.Top[:topDomains]
	}

	return stats
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[DASHBOARD] Failed to encode response: %v", err)
	}
}
