package guard

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"caseportal/internal/portal/model"
)

//go:embed routes/routes.json
var routesFS embed.FS

// Route declares the role a destination requires. An empty RequiredRole
// admits any authenticated principal.
type Route struct {
	Prefix       string     `json:"prefix"`
	RequiredRole model.Role `json:"required_role"`
}

// RouteTable resolves a path to its declared required role by longest prefix.
type RouteTable struct {
	routes []Route
}

// LoadRouteTable reads the embedded route declarations.
func LoadRouteTable() (*RouteTable, error) {
	data, err := routesFS.ReadFile("routes/routes.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read routes.json: %w", err)
	}

	var doc struct {
		Routes []Route `json:"routes"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse routes.json: %w", err)
	}
	return NewRouteTable(doc.Routes)
}

// NewRouteTable validates routes and orders them longest prefix first.
func NewRouteTable(routes []Route) (*RouteTable, error) {
	seen := make(map[string]bool, len(routes))
	out := make([]Route, 0, len(routes))
	for _, r := range routes {
		if !strings.HasPrefix(r.Prefix, "/") {
			return nil, fmt.Errorf("route prefix %q must start with /", r.Prefix)
		}
		if r.RequiredRole != model.RoleNone && !r.RequiredRole.Valid() {
			return nil, fmt.Errorf("route %s: unknown role %q", r.Prefix, r.RequiredRole)
		}
		if seen[r.Prefix] {
			return nil, fmt.Errorf("duplicate route prefix %s", r.Prefix)
		}
		seen[r.Prefix] = true
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].Prefix) > len(out[j].Prefix)
	})
	return &RouteTable{routes: out}, nil
}

// RequiredRole returns the role declared for path. Undeclared paths require
// only authentication.
func (t *RouteTable) RequiredRole(path string) model.Role {
	if t == nil {
		return model.RoleNone
	}
	for _, r := range t.routes {
		if matchPrefix(path, r.Prefix) {
			return r.RequiredRole
		}
	}
	return model.RoleNone
}

func matchPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	rest := path[len(prefix):]
	return rest == "" || strings.HasPrefix(rest, "/") || strings.HasPrefix(rest, "?") || prefix == "/"
}
