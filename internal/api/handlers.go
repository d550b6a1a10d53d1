package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MalithGihan/blueprint-service/internal/export"
	"github.com/MalithGihan/blueprint-service/internal/ingest"
	"github.com/MalithGihan/blueprint-service/internal/layout"
	"github.com/MalithGihan/blueprint-service/internal/observability"
	"github.com/MalithGihan/blueprint-service/internal/quality"
	"github.com/MalithGihan/blueprint-service/internal/store"
	"github.com/MalithGihan/blueprint-service/internal/validate"
	"github.com/MalithGihan/blueprint-service/pkg/types"
)

type graphRequest struct {
	Nodes []types.Node `json:"nodes"`
	Edges []types.Edge `json:"edges"`
	Mode  string       `json:"mode,omitempty"`
}

type mermaidRequest struct {
	graphRequest
	Direction        string `json:"direction,omitempty"`
	IncludeSubgraphs *bool  `json:"includeSubgraphs,omitempty"`
}

type mermaidResponse struct {
	Code    string         `json:"code"`
	Quality quality.Report `json:"quality"`
}

type boundsRequest struct {
	Nodes   []types.Node `json:"nodes"`
	Padding *float64     `json:"padding,omitempty"`
}

type exportRequest struct {
	graphRequest
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type exportResponse struct {
	ID        string               `json:"id"`
	Artifacts []store.ManifestFile `json:"artifacts"`
	Quality   quality.Report       `json:"quality"`
}

type blockedResponse struct {
	Error    string         `json:"error"`
	Code     Code           `json:"code"`
	Blockers []string       `json:"blockers"`
	Quality  quality.Report `json:"quality"`
}

type ingestResponse struct {
	JobID   string         `json:"jobId"`
	Graph   types.Graph    `json:"graph"`
	Quality quality.Report `json:"quality"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "service": "blueprint-service"})
}

// decodeGraph reads a size-capped body, checks it against a payload schema and
// the node/edge limits, then decodes it into dst.
func (s *Server) decodeGraph(w http.ResponseWriter, r *http.Request, schema func([]byte) error, dst any, nodes, edges func() int) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.Limits.MaxBodyBytes))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return tooLarge(fmt.Sprintf("request body exceeds %d bytes", mbe.Limit))
		}
		return badRequest("failed to read body", err)
	}
	if err := schema(body); err != nil {
		return badRequest("invalid graph payload", err)
	}
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(dst); err != nil {
		return badRequest("invalid graph payload", err)
	}
	return s.checkLimits(nodes(), edges())
}

func (s *Server) checkLimits(nodes, edges int) error {
	if nodes > s.cfg.Limits.MaxNodes {
		return tooLarge(fmt.Sprintf("graph has %d nodes, the limit is %d", nodes, s.cfg.Limits.MaxNodes))
	}
	if edges > s.cfg.Limits.MaxEdges {
		return tooLarge(fmt.Sprintf("graph has %d edges, the limit is %d", edges, s.cfg.Limits.MaxEdges))
	}
	return nil
}

func (s *Server) decodeGraphRequest(w http.ResponseWriter, r *http.Request, g *graphRequest, dst any) error {
	return s.decodeGraph(w, r, validate.ValidateGraphPayload, dst, func() int { return len(g.Nodes) }, func() int { return len(g.Edges) })
}

func (s *Server) analyze(nodes []types.Node, edges []types.Edge, mode string) quality.Report {
	if strings.TrimSpace(mode) == "" {
		mode = s.cfg.Export.DefaultMode
	}
	report := s.analyzer.Analyze(nodes, edges, mode)
	observability.QualityScore.WithLabelValues(string(report.Mode)).Observe(float64(report.Score))
	observability.GraphNodes.Observe(float64(len(nodes)))
	return report
}

func (s *Server) handleQuality(w http.ResponseWriter, r *http.Request) {
	var req graphRequest
	if err := s.decodeGraphRequest(w, r, &req, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.analyze(req.Nodes, req.Edges, req.Mode))
}

func (s *Server) handleMermaid(w http.ResponseWriter, r *http.Request) {
	var req mermaidRequest
	if err := s.decodeGraphRequest(w, r, &req.graphRequest, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts := export.DefaultMermaidOptions()
	if req.Direction != "" {
		opts.Direction = req.Direction
	}
	if req.IncludeSubgraphs != nil {
		opts.IncludeSubgraphs = *req.IncludeSubgraphs
	}
	code := export.GenerateMermaidFlowchart(req.Nodes, req.Edges, opts)
	writeJSON(w, http.StatusOK, mermaidResponse{
		Code:    strings.TrimSpace(code),
		Quality: s.analyze(req.Nodes, req.Edges, req.Mode),
	})
}

func (s *Server) handleBounds(w http.ResponseWriter, r *http.Request) {
	var req boundsRequest
	err := s.decodeGraph(w, r, validate.ValidateBoundsPayload, &req, func() int { return len(req.Nodes) }, func() int { return 0 })
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	padding := s.cfg.Export.Padding
	if req.Padding != nil {
		padding = *req.Padding
	}
	if padding < 0 {
		s.writeError(w, r, badRequest("padding must not be negative", nil))
		return
	}
	writeJSON(w, http.StatusOK, layout.CalculateGraphExportBounds(req.Nodes, padding))
}

func (s *Server) handleCreateExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := s.decodeGraphRequest(w, r, &req.graphRequest, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		s.writeError(w, r, badRequest("name is required", nil))
		return
	}

	report := s.analyze(req.Nodes, req.Edges, req.Mode)
	project := export.Project{Name: name, Description: strings.TrimSpace(req.Description)}
	bundle, err := export.BuildBundle(project, req.Nodes, req.Edges, report)
	if errors.Is(err, export.ErrExportBlocked) {
		observability.ExportsTotal.WithLabelValues("blocked").Inc()
		writeJSON(w, http.StatusUnprocessableEntity, blockedResponse{
			Error:    "export blocked by quality gate",
			Code:     CodeExportBlocked,
			Blockers: report.Blockers,
			Quality:  report,
		})
		return
	}
	if err != nil {
		observability.ExportsTotal.WithLabelValues("failed").Inc()
		s.writeError(w, r, err)
		return
	}

	files := make([]store.File, 0, len(bundle))
	for _, a := range bundle {
		files = append(files, store.File{Name: a.Name, ContentType: a.ContentType, Body: a.Body})
	}
	id := store.NewID()
	manifest, err := s.store.SaveExport(id, name, files)
	if err != nil {
		observability.ExportsTotal.WithLabelValues("failed").Inc()
		s.writeError(w, r, fmt.Errorf("save export %s: %w", id, err))
		return
	}
	observability.ExportsTotal.WithLabelValues("created").Inc()
	s.log.Info("export created", "id", id, "project", name, "score", report.Score, "files", len(files))
	writeJSON(w, http.StatusCreated, exportResponse{ID: id, Artifacts: manifest.Files, Quality: report})
}

func (s *Server) handleGetExport(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.Manifest(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, id, name string) {
	f, err := s.store.ReadExportFile(id, name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ct := f.ContentType
	if ct == "" {
		ct = export.ContentType(f.Name)
	}
	w.Header().Set("Content-Type", ct)
	_, _ = w.Write(f.Body)
}

func (s *Server) handleExportFile(w http.ResponseWriter, r *http.Request) {
	s.serveFile(w, r, chi.URLParam(r, "id"), chi.URLParam(r, "*"))
}

func (s *Server) handleExportContext(w http.ResponseWriter, r *http.Request) {
	s.serveFile(w, r, chi.URLParam(r, "id"), export.FileContext)
}

func (s *Server) handleSkillZip(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	m, err := s.store.Manifest(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var files []export.Artifact
	for _, mf := range m.Files {
		if !strings.HasPrefix(mf.Name, export.SkillDir) {
			continue
		}
		f, err := s.store.ReadExportFile(id, mf.Name)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		files = append(files, export.Artifact{Name: f.Name, ContentType: f.ContentType, Body: f.Body})
	}
	files = export.SkillFiles(files)
	if len(files) == 0 {
		s.writeError(w, r, store.ErrNotFound)
		return
	}

	dir := export.SkillName(m.Project)
	var buf bytes.Buffer
	if err := export.WriteZip(&buf, dir, files); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.zip"`, dir))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Limits.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			s.writeError(w, r, tooLarge(fmt.Sprintf("upload exceeds %d bytes", mbe.Limit)))
			return
		}
		s.writeError(w, r, badRequest("invalid multipart upload", err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	uploads := r.MultipartForm.File["files"]
	if len(uploads) == 0 {
		s.writeError(w, r, badRequest("no files uploaded", nil))
		return
	}

	jobID := store.NewID()
	g, err := s.ingestFiles(jobID, uploads)
	if err == nil {
		err = s.checkLimits(len(g.Nodes), len(g.Edges))
	}
	if err != nil {
		if rmErr := s.store.RemoveJob(jobID); rmErr != nil {
			s.log.Warn("failed to remove job", "job", jobID, "err", rmErr)
		}
		s.writeError(w, r, err)
		return
	}

	s.respondGraph(w, r, jobID, g, r.FormValue("mode"))
}

// ingestFiles stores every upload under a new job and parses them in order.
func (s *Server) ingestFiles(jobID string, uploads []*multipart.FileHeader) (types.Graph, error) {
	if _, err := s.store.MkJob(jobID); err != nil {
		return types.Graph{}, err
	}
	var parsed []ingest.ParsedFile
	for _, fh := range uploads {
		src, err := fh.Open()
		if err != nil {
			return types.Graph{}, err
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return types.Graph{}, err
		}
		if err := s.store.SaveUpload(jobID, fh.Filename, data); err != nil {
			return types.Graph{}, err
		}
		observability.IngestFilesTotal.WithLabelValues(ingest.DetectType(fh.Filename)).Inc()
		parsed = append(parsed, ingest.Parse(fh.Filename, data))
	}
	return ingest.BuildGraph(parsed), nil
}

// jobGraph rebuilds a job's graph from its stored uploads, in upload order.
func (s *Server) jobGraph(id string) (types.Graph, error) {
	uploads, err := s.store.Uploads(id)
	if err != nil {
		return types.Graph{}, err
	}
	var parsed []ingest.ParsedFile
	for _, u := range uploads {
		parsed = append(parsed, ingest.Parse(u.Name, u.Data))
	}
	return ingest.BuildGraph(parsed), nil
}

func (s *Server) handleJobGraph(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	g, err := s.jobGraph(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondGraph(w, r, id, g, r.URL.Query().Get("mode"))
}

// handleJobFuse turns a job's diagrams into a service blueprint.
func (s *Server) handleJobFuse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	g, err := s.jobGraph(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.checkLimits(len(g.Nodes), len(g.Edges)); err != nil {
		s.writeError(w, r, err)
		return
	}
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		name = id
	}
	report := s.analyze(g.Nodes, g.Edges, r.URL.Query().Get("mode"))
	writeJSON(w, http.StatusOK, export.BuildBlueprint(export.Project{Name: name}, g.Nodes, g.Edges, report))
}

func (s *Server) respondGraph(w http.ResponseWriter, r *http.Request, jobID string, g types.Graph, mode string) {
	if err := s.checkLimits(len(g.Nodes), len(g.Edges)); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ingestResponse{
		JobID:   jobID,
		Graph:   g,
		Quality: s.analyze(g.Nodes, g.Edges, mode),
	})
}
