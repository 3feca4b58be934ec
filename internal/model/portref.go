package model

import (
	"fmt"
	"regexp"
	"strings"
)

// refRegex validates one segment of a port reference, e.g. `fetch_price`.
var refRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// PortRef is the structured form of a `node.port` reference as written in
// flow files, e.g. `fetch_price.body`.
type PortRef struct {
	Node string
	Port string
}

// String serializes the reference into its canonical form.
func (p PortRef) String() string {
	return p.Node + "." + p.Port
}

// ParsePortRef parses the canonical `node.port` string form.
func ParsePortRef(raw string) (PortRef, error) {
	if raw == "" {
		return PortRef{}, fmt.Errorf("port reference cannot be empty")
	}

	parts := strings.Split(raw, ".")
	if len(parts) != 2 {
		return PortRef{}, fmt.Errorf("invalid port reference %q: want exactly one '.' separating node and port", raw)
	}
	for _, part := range parts {
		if !refRegex.MatchString(part) {
			return PortRef{}, fmt.Errorf("invalid port reference segment %q in %q", part, raw)
		}
	}

	return PortRef{Node: parts[0], Port: parts[1]}, nil
}
