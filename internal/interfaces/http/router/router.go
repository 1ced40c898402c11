package router

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

// Route binds one handler to a method and a path relative to its group
type Route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
}

func GET(path string, h gin.HandlerFunc) Route {
	return Route{Method: http.MethodGet, Path: path, Handler: h}
}

func POST(path string, h gin.HandlerFunc) Route {
	return Route{Method: http.MethodPost, Path: path, Handler: h}
}

// Group is one area of the API: a path prefix, optional middleware that
// applies to the group only, its routes and nested groups.
type Group struct {
	Name       string
	Prefix     string
	Middleware []gin.HandlerFunc
	Routes     []Route
	Groups     []Group
}

// Mount registers the groups under /api/{version} and returns the API group
func Mount(engine *gin.Engine, version string, groups ...Group) *gin.RouterGroup {
	api := engine.Group("/api/" + version)
	for _, g := range groups {
		g.mount(api)
	}
	return api
}

func (g Group) mount(parent *gin.RouterGroup) {
	rg := parent.Group(g.Prefix, g.Middleware...)
	for _, r := range g.Routes {
		rg.Handle(r.Method, r.Path, r.Handler)
	}
	for _, sub := range g.Groups {
		sub.mount(rg)
	}
}

// Endpoints lists "METHOD path" for every route in g, nested groups
// included, with paths joined onto base.
func (g Group) Endpoints(base string) []string {
	prefix := joinPath(base, g.Prefix)
	out := make([]string, 0, len(g.Routes))
	for _, r := range g.Routes {
		out = append(out, r.Method+" "+joinPath(prefix, r.Path))
	}
	for _, sub := range g.Groups {
		out = append(out, sub.Endpoints(prefix)...)
	}
	return out
}

func joinPath(base, rel string) string {
	if rel == "" {
		return base
	}
	joined := path.Join(base, rel)
	// path.Join drops a trailing slash gin would keep
	if rel[len(rel)-1] == '/' && joined[len(joined)-1] != '/' {
		joined += "/"
	}
	return joined
}
