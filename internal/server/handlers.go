package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/wardstone/newswire/internal/annotate"
	"github.com/wardstone/newswire/internal/events"
	"github.com/wardstone/newswire/internal/news"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"service": "newswire",
	}

	if s.clientDB != nil {
		if err := s.clientDB.HealthCheck(r.Context()); err != nil {
			response["status"] = "degraded"
			response["client_db"] = err.Error()
		}
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleSystemStatus reports process and pipeline health for the ops view.
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuAvg, memUsed := s.systemStats()

	breakers := make(map[string]map[string]string, len(s.pools))
	for _, pool := range s.pools {
		breakers[pool.Name()] = pool.BreakerStates()
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"uptime_seconds": int(time.Since(s.startupTime).Seconds()),
		"cpu_percent":    cpuAvg,
		"memory_percent": memUsed,
		"goroutines":     runtime.NumGoroutine(),
		"subscribers":    s.hub.SubscriberCount(),
		"ledger_size":    s.ledger.Len(),
		"cards_held":     s.store.Len(),
		"breakers":       breakers,
		"snapshot_ages": map[string]interface{}{
			"market":      s.market.UpdatedAt(),
			"macro":       s.macro.UpdatedAt(),
			"fx":          s.fx.UpdatedAt(),
			"commodity":   s.commodity.UpdatedAt(),
			"predictions": s.predictions.UpdatedAt(),
		},
	})
}

// handleSnapshots returns the current snapshot set over plain HTTP, for
// clients that do not hold a websocket open.
func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"market":      s.market.All(),
		"macro":       s.macro.All(),
		"fx":          s.fx.All(),
		"commodity":   s.commodity.All(),
		"predictions": s.predictions.All(),
	})
}

// handleListCards returns the replay history, oldest first.
func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"cards": s.store.Snapshot(),
	})
}

type submitCardRequest struct {
	Headline string `json:"headline"`
	Column   string `json:"column"`
	Link     string `json:"link"`
	Source   string `json:"source"`
	Impact   int    `json:"impact"`
}

// handleSubmitCard accepts a manual operator card. It skips the polling
// pipeline entirely: no dedup, no recency gate, no annotation. The card is
// marked unverified so clients can render it differently.
func (s *Server) handleSubmitCard(w http.ResponseWriter, r *http.Request) {
	var req submitCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Headline = strings.TrimSpace(req.Headline)
	if req.Headline == "" {
		s.writeError(w, http.StatusBadRequest, "headline is required")
		return
	}
	if req.Column == "" {
		req.Column = news.ColumnBreaking
	}
	if req.Source == "" {
		req.Source = "manual"
	}

	now := time.Now()
	card := news.Card{
		ID:         uuid.NewString(),
		Time:       now,
		Column:     req.Column,
		Headline:   req.Headline,
		Link:       req.Link,
		Source:     req.Source,
		Verified:   false,
		Impact:     clamp(req.Impact, 0, 3),
		Horizon:    annotate.HorizonNone,
		Direction:  annotate.DirectionNeutral,
		Confidence: 10,
	}

	s.bus.Publish(&events.Event{
		Type:   events.CardCreated,
		Module: "server",
		Data:   card,
	})

	s.log.Info().Str("headline", card.Headline).Msg("Manual card submitted")
	s.writeJSON(w, http.StatusCreated, card)
}

type analysisRequest struct {
	Headline string `json:"headline"`
}

// handleAnalysis runs the on-demand deep analysis. Failures surface to the
// caller; this path has no cache or fallback.
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.llm == nil {
		s.writeError(w, http.StatusServiceUnavailable, "analysis is not configured")
		return
	}

	var req analysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Headline) == "" {
		s.writeError(w, http.StatusBadRequest, "headline is required")
		return
	}

	analysis, err := s.llm.Analyze(r.Context(), req.Headline, s.snapshotText())
	if err != nil {
		s.log.Error().Err(err).Msg("Analysis request failed")
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"headline": req.Headline,
		"analysis": analysis,
	})
}

// snapshotText flattens the current snapshots into the prompt context.
func (s *Server) snapshotText() string {
	var b strings.Builder
	for _, q := range s.market.All() {
		fmt.Fprintf(&b, "%s %.2f (%+.2f%%)\n", q.Symbol, q.Value, q.Change)
	}
	for _, q := range s.macro.All() {
		fmt.Fprintf(&b, "%s %.2f (prior %.2f)\n", q.Symbol, q.Value, q.Prior)
	}
	for _, q := range s.fx.All() {
		fmt.Fprintf(&b, "%s %.4f (%+.2f%%)\n", q.Symbol, q.Value, q.Change)
	}
	for _, q := range s.commodity.All() {
		fmt.Fprintf(&b, "%s %.2f (%+.2f%%)\n", q.Symbol, q.Value, q.Change)
	}
	return b.String()
}

func (s *Server) systemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return cpuPercent[0], 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
