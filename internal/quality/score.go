package quality

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/MalithGihan/blueprint-service/pkg/types"
)

// Validator classifies architectural problems in a graph.
type Validator interface {
	Validate(nodes []types.Node, edges []types.Edge, mode types.Mode) []types.Issue
}

// MinExportScore is the lowest score that still allows an export.
const MinExportScore = 50

const maxTopIssues = 5

type Weights struct {
	ErrorPenalty         float64
	WarningPenalty       float64
	SuggestionPenalty    float64
	IsolatedNodePenalty  float64
	SparsePenalty        float64
	DenseBonus           float64
	SingleComponentBonus float64
	SparseThreshold      float64
	DenseThreshold       float64
	DensityCap           float64
}

func DefaultWeights() Weights {
	return Weights{
		ErrorPenalty:         30,
		WarningPenalty:       12,
		SuggestionPenalty:    4,
		IsolatedNodePenalty:  7,
		SparsePenalty:        8,
		DenseBonus:           4,
		SingleComponentBonus: 3,
		SparseThreshold:      0.4,
		DenseThreshold:       0.9,
		DensityCap:           1.5,
	}
}

type Summary struct {
	TotalIssues         int     `json:"totalIssues"`
	Errors              int     `json:"errors"`
	Warnings            int     `json:"warnings"`
	Suggestions         int     `json:"suggestions"`
	NodeCount           int     `json:"nodeCount"`
	EdgeCount           int     `json:"edgeCount"`
	ConnectedComponents int     `json:"connectedComponents"`
	IsolatedNodes       int     `json:"isolatedNodes"`
	Density             float64 `json:"density"`
}

type Report struct {
	Mode            types.Mode    `json:"mode"`
	Score           int           `json:"score"`
	Grade           string        `json:"grade"`
	Status          string        `json:"status"`
	IsExportBlocked bool          `json:"isExportBlocked"`
	Blockers        []string      `json:"blockers"`
	Summary         Summary       `json:"summary"`
	TopIssues       []types.Issue `json:"topIssues"`
}

const (
	StatusHealthy  = "healthy"
	StatusWarning  = "warning"
	StatusCritical = "critical"
)

type Analyzer struct {
	Validator Validator
	Weights   Weights
}

func NewAnalyzer(v Validator) *Analyzer {
	return &Analyzer{Validator: v, Weights: DefaultWeights()}
}

// NormalizeMode maps anything outside the known modes to ModeDefault.
func NormalizeMode(mode string) types.Mode {
	switch types.Mode(strings.ToLower(strings.TrimSpace(mode))) {
	case types.ModeStartup:
		return types.ModeStartup
	case types.ModeEnterprise:
		return types.ModeEnterprise
	default:
		return types.ModeDefault
	}
}

// AnalyzeArchitectureQuality scores a graph with the given validator and the
// default weights.
func AnalyzeArchitectureQuality(nodes []types.Node, edges []types.Edge, mode string, v Validator) Report {
	return NewAnalyzer(v).Analyze(nodes, edges, mode)
}

func (a *Analyzer) Analyze(nodes []types.Node, edges []types.Edge, mode string) Report {
	m := NormalizeMode(mode)

	var issues []types.Issue
	if a.Validator != nil {
		issues = a.Validator.Validate(nodes, edges, m)
	}

	var errs, warns, suggs int
	for _, is := range issues {
		switch is.Type {
		case types.IssueError:
			errs++
		case types.IssueWarning:
			warns++
		case types.IssueSuggestion:
			suggs++
		}
	}

	nodeCount := len(nodes)
	edgeCount := len(edges)
	components := CountConnectedComponents(nodes, edges)
	isolated := CountIsolatedNodes(nodes, edges)

	summaryDensity := 0.0
	if nodeCount > 0 {
		summaryDensity = round2(float64(edgeCount) / float64(nodeCount))
	}

	score := a.score(errs, warns, suggs, isolated, components, nodeCount, edgeCount)

	blockers := []string{}
	if errs > 0 {
		blockers = append(blockers, fmt.Sprintf("%d blocking validation error(s)", errs))
	}
	if maxIsolated := max(1, int(math.Floor(float64(nodeCount)*0.35))); isolated > maxIsolated {
		blockers = append(blockers, fmt.Sprintf("%d isolated node(s) exceed the allowed maximum of %d", isolated, maxIsolated))
	}
	if maxComponents := max(1, nodeCount/3); components > maxComponents {
		blockers = append(blockers, fmt.Sprintf("%d disconnected component(s) exceed the allowed maximum of %d", components, maxComponents))
	}
	if score < MinExportScore {
		blockers = append(blockers, fmt.Sprintf("Quality score is below minimum export threshold (%d)", MinExportScore))
	}

	return Report{
		Mode:            m,
		Score:           score,
		Grade:           Grade(score),
		Status:          status(score, errs, warns),
		IsExportBlocked: len(blockers) > 0,
		Blockers:        blockers,
		Summary: Summary{
			TotalIssues:         len(issues),
			Errors:              errs,
			Warnings:            warns,
			Suggestions:         suggs,
			NodeCount:           nodeCount,
			EdgeCount:           edgeCount,
			ConnectedComponents: components,
			IsolatedNodes:       isolated,
			Density:             summaryDensity,
		},
		TopIssues: topIssues(issues),
	}
}

func (a *Analyzer) score(errs, warns, suggs, isolated, components, nodeCount, edgeCount int) int {
	w := a.Weights
	raw := 100.0
	raw -= float64(errs) * w.ErrorPenalty
	raw -= float64(warns) * w.WarningPenalty
	raw -= float64(suggs) * w.SuggestionPenalty
	raw -= float64(isolated) * w.IsolatedNodePenalty

	if nodeCount > 0 {
		expected := max(1, nodeCount-1)
		density := math.Min(w.DensityCap, float64(edgeCount)/float64(expected))
		if density < w.SparseThreshold {
			raw -= w.SparsePenalty
		} else if density > w.DenseThreshold {
			raw += w.DenseBonus
		}
	}

	if components == 1 && isolated == 0 && nodeCount >= 4 {
		raw += w.SingleComponentBonus
	}

	return int(math.Round(math.Max(0, math.Min(100, raw))))
}

func Grade(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

func status(score, errs, warns int) string {
	if errs > 0 || score < 50 {
		return StatusCritical
	}
	if warns > 0 || score < 75 {
		return StatusWarning
	}
	return StatusHealthy
}

func issuePriority(t types.IssueType) int {
	switch t {
	case types.IssueError:
		return 0
	case types.IssueWarning:
		return 1
	default:
		return 2
	}
}

func topIssues(issues []types.Issue) []types.Issue {
	sorted := append([]types.Issue{}, issues...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return issuePriority(sorted[i].Type) < issuePriority(sorted[j].Type)
	})
	if len(sorted) > maxTopIssues {
		sorted = sorted[:maxTopIssues]
	}
	return sorted
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
