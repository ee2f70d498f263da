package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/pokymono/kisame-sub001/internal/analysis"
	"github.com/pokymono/kisame-sub001/internal/progress"
	"github.com/pokymono/kisame-sub001/internal/shellenv"
)

// surfaceIDHeader names the UI surface that issued an RPC so pushes land on
// the right WebSocket. An absent or stale id means pushes go nowhere, which
// is the documented drop-not-queue behavior.
const surfaceIDHeader = "X-Surface-ID"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"message": err.Error()})
}

// ─── Analysis ────────────────────────────────────────────

type analyzeRequest struct {
	Path       string `json:"path"`
	ClientID   string `json:"client_id,omitempty"`
	MaxPackets int    `json:"max_packets,omitempty"`
	SkipHash   bool   `json:"skip_hash,omitempty"`
}

type analyzeResponse struct {
	Canceled bool            `json:"canceled"`
	Path     string          `json:"path,omitempty"`
	Analysis json.RawMessage `json:"analysis,omitempty"`
}

// handleAnalyze runs the full orchestration: health check, upload, remote
// analyze, local fallback. The UI's file dialog happens client-side; an
// empty path means the user dismissed it.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusOK, analyzeResponse{Canceled: true})
		return
	}

	surfaceID := r.Header.Get(surfaceIDHeader)
	maxPackets := req.MaxPackets
	if maxPackets == 0 {
		maxPackets = s.cfg.MaxPackets
	}
	skipHash := req.SkipHash
	if s.cfg.NoSkipHash {
		skipHash = false
	}

	remote := &analysis.HTTPRemote{Client: s.client, BaseURL: s.locator.Resolve()}
	orch := analysis.New(remote, s.engine)

	payload, err := orch.Run(r.Context(), analysis.Request{
		Path:       req.Path,
		ClientID:   req.ClientID,
		MaxPackets: maxPackets,
		SkipHash:   skipHash,
	}, func(e progress.Event) {
		s.hub.UploadProgress(surfaceID, e)
	})
	if err != nil {
		log.Error().Err(err).Str("capture", req.Path).Msg("analysis failed on both paths")
		writeError(w, http.StatusBadGateway, err)
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{Path: req.Path, Analysis: payload})
}

func (s *Server) handleBackendURL(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"url": s.locator.Resolve()})
}

type chatRequest struct {
	Query   string `json:"query"`
	Context string `json:"context,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	reply, err := s.client.Chat(r.Context(), s.locator.Resolve(), req.Query, req.Context)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// ─── Shells & terminals ──────────────────────────────────

type shellEntry struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

func (s *Server) handleListShells(w http.ResponseWriter, r *http.Request) {
	shells := shellenv.ListShells(s.platform)
	out := make([]shellEntry, 0, len(shells))
	for _, d := range shells {
		out = append(out, shellEntry{Label: d.Label, Path: d.Path})
	}
	writeJSON(w, http.StatusOK, out)
}

type createTerminalRequest struct {
	Cols  uint16 `json:"cols"`
	Rows  uint16 `json:"rows"`
	Shell string `json:"shell,omitempty"`
}

type createTerminalResponse struct {
	Success bool   `json:"success"`
	ID      int64  `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) handleCreateTerminal(w http.ResponseWriter, r *http.Request) {
	var req createTerminalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Cols == 0 {
		req.Cols = 80
	}
	if req.Rows == 0 {
		req.Rows = 24
	}

	id, err := s.terminals.Create(r.Header.Get(surfaceIDHeader), req.Cols, req.Rows, req.Shell)
	if err != nil {
		// Exhausting the candidate matrix is a result, not an HTTP fault.
		writeJSON(w, http.StatusOK, createTerminalResponse{Success: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, createTerminalResponse{Success: true, ID: id})
}

// terminalID parses the id route parameter; 0 is never issued, so it works
// as the "unknown" value and falls into the silent no-op path.
func terminalID(r *http.Request) int64 {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

type writeTerminalRequest struct {
	Data string `json:"data"` // base64
}

func (s *Server) handleWriteTerminal(w http.ResponseWriter, r *http.Request) {
	var req writeTerminalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.terminals.Write(terminalID(r), data)
	w.WriteHeader(http.StatusNoContent)
}

type resizeTerminalRequest struct {
	Cols uint16 `json:"cols"`
	Rows uint16 `json:"rows"`
}

func (s *Server) handleResizeTerminal(w http.ResponseWriter, r *http.Request) {
	var req resizeTerminalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.terminals.Resize(terminalID(r), req.Cols, req.Rows)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleKillTerminal(w http.ResponseWriter, r *http.Request) {
	s.terminals.Kill(terminalID(r))
	w.WriteHeader(http.StatusNoContent)
}

// ─── Health ──────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
