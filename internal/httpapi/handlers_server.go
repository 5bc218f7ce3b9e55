package httpapi

import (
	"fmt"
	"net/http"
	"os"
	"runtime"

	"github.com/gin-gonic/gin"

	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/debugger"
)

type serverHandler struct {
	version string
}

// capabilitiesResponse is GET /api/server/capabilities's body, per
// spec.md §6.
type capabilitiesResponse struct {
	Platform       string `json:"platform"`
	Architecture   string `json:"architecture"`
	IsAlpine       bool   `json:"isAlpine"`
	DebuggerType   string `json:"debuggerType"`
	RuntimeVersion string `json:"runtimeVersion"`
	Hostname       string `json:"hostname"`
	Version        string `json:"version"`
}

func (s *serverHandler) buildCapabilities() capabilitiesResponse {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return capabilitiesResponse{
		Platform:       runtime.GOOS,
		Architecture:   runtime.GOARCH,
		IsAlpine:       isAlpineHost(),
		DebuggerType:   string(debugger.DetectBackend()),
		RuntimeVersion: runtime.Version(),
		Hostname:       hostname,
		Version:        s.version,
	}
}

// isAlpineHost probes for musl libc's release marker file. No library in
// the retrieved pack does this kind of single-file OS fingerprinting, so
// it stays on the standard library (see DESIGN.md).
func isAlpineHost() bool {
	_, err := os.Stat("/etc/alpine-release")
	return err == nil
}

func (s *serverHandler) capabilities(c *gin.Context) {
	c.JSON(http.StatusOK, s.buildCapabilities())
}

// info returns capabilities plus an auto-generated display name, e.g.
// "alpine-arm64" or "linux-x64", per spec.md §6.
func (s *serverHandler) info(c *gin.Context) {
	caps := s.buildCapabilities()
	c.JSON(http.StatusOK, gin.H{
		"platform":       caps.Platform,
		"architecture":   caps.Architecture,
		"isAlpine":       caps.IsAlpine,
		"debuggerType":   caps.DebuggerType,
		"runtimeVersion": caps.RuntimeVersion,
		"hostname":       caps.Hostname,
		"version":        caps.Version,
		"name":           generatedName(caps),
	})
}

func generatedName(caps capabilitiesResponse) string {
	family := "linux"
	if caps.IsAlpine {
		family = "alpine"
	}
	arch := caps.Architecture
	switch arch {
	case "amd64":
		arch = "x64"
	case "arm64":
		arch = "arm64"
	}
	return fmt.Sprintf("%s-%s", family, arch)
}
