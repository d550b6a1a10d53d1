package types

import "strings"

const DefaultNodeType = "service"

// NormalizedType prefers data.serviceType over the node type, lowercased.
func (n Node) NormalizedType() string {
	if t := strings.ToLower(strings.TrimSpace(n.Data.ServiceType)); t != "" {
		return t
	}
	if t := strings.ToLower(strings.TrimSpace(n.Type)); t != "" {
		return t
	}
	return DefaultNodeType
}

// DisplayLabel falls back to the id when the label is blank.
func (n Node) DisplayLabel() string {
	if l := strings.TrimSpace(n.Data.Label); l != "" {
		return l
	}
	return n.ID
}

func IsStorageType(t string) bool {
	switch t {
	case "database", "db", "vector-db", "bucket", "storage", "cache":
		return true
	}
	return false
}

func IsQueueType(t string) bool {
	return t == "queue" || t == "messaging"
}

func IsFrontendType(t string) bool {
	return t == "frontend" || t == "client" || t == "web"
}

func IsSecurityType(t string) bool {
	return t == "auth" || t == "security"
}

func IsGatewayType(t string) bool {
	return t == "gateway" || t == "loadbalancer"
}
