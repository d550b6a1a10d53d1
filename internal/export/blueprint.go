package export

import (
	"strings"

	"github.com/MalithGihan/blueprint-service/internal/quality"
	"github.com/MalithGihan/blueprint-service/pkg/types"
)

const (
	FileBlueprint          = "blueprint.json"
	BlueprintSchemaVersion = "0.1.0"
)

// Dependency kinds.
const (
	KindREST  = "rest"
	KindGRPC  = "grpc"
	KindEvent = "event"
	KindData  = "data"
)

type BlueprintService struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type Datastore struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Engine string `json:"engine"`
	// OwnerService is set when exactly one service talks to the store.
	OwnerService *string `json:"ownerService"`
}

type Topic struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Semantics string `json:"semantics"`
}

type Dependency struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Kind     string `json:"kind"`
	Sync     bool   `json:"sync"`
	Protocol string `json:"protocol,omitempty"`
}

type BlueprintMetadata struct {
	Generator     string `json:"generator"`
	SchemaVersion string `json:"schemaVersion"`
	Project       string `json:"project"`
	Score         int    `json:"score"`
}

// Blueprint is the service-level spec derived from a diagram: services, the
// stores and topics they use, and how they call each other.
type Blueprint struct {
	Services     []BlueprintService `json:"services"`
	Dependencies []Dependency       `json:"dependencies"`
	Datastores   []Datastore        `json:"datastores"`
	Topics       []Topic            `json:"topics"`
	Gaps         []string           `json:"gaps"`
	Metadata     BlueprintMetadata  `json:"metadata"`
}

func BuildBlueprint(p Project, nodes []types.Node, edges []types.Edge, report quality.Report) Blueprint {
	bp := Blueprint{
		Services:     []BlueprintService{},
		Dependencies: []Dependency{},
		Datastores:   []Datastore{},
		Topics:       []Topic{},
		Gaps:         []string{},
		Metadata: BlueprintMetadata{
			Generator:     "blueprint-service",
			SchemaVersion: BlueprintSchemaVersion,
			Project:       p.Name,
			Score:         report.Score,
		},
	}

	aliases := AssignAliases(nodes)
	kinds := make(map[string]string, len(nodes))
	for _, n := range nodes {
		if _, ok := kinds[n.ID]; ok {
			continue
		}
		t := n.NormalizedType()
		kinds[n.ID] = t
		name := nodeLabel(n, aliases[n.ID])
		switch {
		case types.IsStorageType(t):
			bp.Datastores = append(bp.Datastores, Datastore{ID: n.ID, Name: name, Engine: t})
		case types.IsQueueType(t):
			bp.Topics = append(bp.Topics, Topic{ID: n.ID, Name: name, Semantics: "at-least-once"})
		default:
			bp.Services = append(bp.Services, BlueprintService{ID: n.ID, Name: name, Type: t})
		}
	}

	users := map[string]map[string]bool{}
	for _, e := range edges {
		from, okFrom := kinds[e.Source]
		to, okTo := kinds[e.Target]
		if !okFrom || !okTo {
			continue
		}
		kind, sync := dependencyKind(e, to)
		bp.Dependencies = append(bp.Dependencies, Dependency{
			From:     e.Source,
			To:       e.Target,
			Kind:     kind,
			Sync:     sync,
			Protocol: EdgeLabel(e),
		})
		if types.IsStorageType(to) && !types.IsStorageType(from) {
			if users[e.Target] == nil {
				users[e.Target] = map[string]bool{}
			}
			users[e.Target][e.Source] = true
		}
	}
	for i, ds := range bp.Datastores {
		if len(users[ds.ID]) != 1 {
			continue
		}
		for owner := range users[ds.ID] {
			bp.Datastores[i].OwnerService = &owner
		}
	}

	for _, is := range report.TopIssues {
		bp.Gaps = append(bp.Gaps, is.Message)
	}
	return bp
}

// dependencyKind classifies an edge by its protocol, falling back to what the
// target is when the protocol says nothing.
func dependencyKind(e types.Edge, targetType string) (string, bool) {
	proto := strings.ToLower(SanitizeLabel(e.Data.Protocol))
	if proto == "" {
		proto = strings.ToLower(SanitizeLabel(e.Data.Label))
	}
	switch {
	case strings.Contains(proto, "grpc"):
		return KindGRPC, true
	case proto == "pub", proto == "sub", strings.Contains(proto, "event"),
		strings.Contains(proto, "kafka"), strings.Contains(proto, "amqp"), strings.Contains(proto, "mqtt"):
		return KindEvent, false
	case types.IsQueueType(targetType):
		return KindEvent, false
	case types.IsStorageType(targetType):
		return KindData, true
	}
	return KindREST, true
}
