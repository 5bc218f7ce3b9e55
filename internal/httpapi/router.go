// Package httpapi implements the HTTP surface described in spec.md §6: dump
// and symbol upload/management endpoints, server capability probes, and an
// MCP transport mount, all sitting on top of the same services the MCP
// tool dispatcher (internal/mcp) uses.
package httpapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/config"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/dumpstore"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/mcp"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/obs"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/session"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/symbolstore"
)

// Deps bundles every shared service the HTTP surface calls into. Each
// field is a singleton owned by cmd/dbgmcpd and also handed to the MCP
// dispatcher, per spec.md §9's "shared-object ownership across HTTP and
// MCP" note.
type Deps struct {
	Sessions  *session.Manager
	Dumps     *dumpstore.Store
	Symbols   *symbolstore.Store
	MCP       *mcp.Dispatcher
	Config    config.Config
	Telemetry *obs.Telemetry
	Version   string
}

// NewRouter builds the full route table from spec.md §6. Routes registered
// before the API-key middleware is attached (health, metrics) stay
// unauthenticated; every route registered afterward inherits it, since gin
// bakes a route's middleware chain in at registration time.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(requestLoggingMiddleware(obs.NewComponentLogger("HTTPAPI")))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders:    []string{"Origin", "Content-Type", "X-API-Key"},
	}))

	r.GET("/health", handleHealth)
	if deps.Telemetry != nil && deps.Telemetry.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Telemetry.Registry, promhttp.HandlerOpts{})))
	}

	r.Use(apiKeyMiddleware(deps.Config.APIKey))
	r.Use(maxBodyBytesMiddleware(deps.Config.MaxBodyBytes))

	srv := &serverHandler{version: deps.Version}
	r.GET("/api/server/capabilities", srv.capabilities)
	r.GET("/api/server/info", srv.info)

	dh := &dumpHandler{deps: deps, logger: obs.NewComponentLogger("HTTPAPI.Dumps")}
	r.POST("/api/dumps/upload", dh.upload)
	r.GET("/api/dumps/stats", dh.stats)
	r.GET("/api/dumps/user/:userId", dh.list)
	r.GET("/api/dumps/:userId/:dumpId", dh.get)
	r.DELETE("/api/dumps/:userId/:dumpId", dh.delete)
	r.POST("/api/dumps/:userId/:dumpId/binary", dh.uploadBinary)

	sh := &symbolHandler{deps: deps, logger: obs.NewComponentLogger("HTTPAPI.Symbols")}
	r.POST("/api/symbols/upload", sh.upload)
	r.POST("/api/symbols/upload-batch", sh.uploadBatch)
	r.POST("/api/symbols/upload-zip", sh.uploadZip)
	r.GET("/api/symbols/dump/:dumpId", sh.list)
	r.GET("/api/symbols/dump/:dumpId/exists", sh.exists)
	r.DELETE("/api/symbols/dump/:dumpId", sh.clear)
	r.GET("/api/symbols/servers", sh.servers(deps.Config.DefaultSymbolServer))

	mh := &mcpHandler{dispatcher: deps.MCP}
	r.GET("/mcp", mh.stream)
	r.POST("/mcp", mh.call)

	return r
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
