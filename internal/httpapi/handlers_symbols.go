package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/apperr"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/obs"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/symbolstore"
)

type symbolHandler struct {
	deps   Deps
	logger obs.Logger
}

// upload handles POST /api/symbols/upload (multipart: file, dumpId).
func (h *symbolHandler) upload(c *gin.Context) {
	dumpID := c.PostForm("dumpId")
	if dumpID == "" {
		respondError(c, h.logger, apperr.Validation("dumpId is required"))
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, h.logger, apperr.Validation("file is required"))
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		respondError(c, h.logger, apperr.Wrap(apperr.KindTransient, "open uploaded file", err))
		return
	}
	defer f.Close()

	info, err := h.deps.Symbols.Put(dumpID, fileHeader.Filename, f)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// uploadBatch handles POST /api/symbols/upload-batch (multipart: files[],
// dumpId), storing each file concurrently bounded by the configured
// UploadConcurrency and failing on the first error encountered.
func (h *symbolHandler) uploadBatch(c *gin.Context) {
	dumpID := c.PostForm("dumpId")
	if dumpID == "" {
		respondError(c, h.logger, apperr.Validation("dumpId is required"))
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, h.logger, apperr.Validation("multipart form is required"))
		return
	}
	files := form.File["files[]"]
	if len(files) == 0 {
		files = form.File["files"]
	}
	if len(files) == 0 {
		respondError(c, h.logger, apperr.Validation("at least one file is required"))
		return
	}

	limit := h.deps.Config.UploadConcurrency
	if limit <= 0 {
		limit = 1
	}

	results := make([]symbolstore.SymInfo, len(files))
	g, _ := errgroup.WithContext(c.Request.Context())
	g.SetLimit(limit)
	for i, fh := range files {
		i, fh := i, fh
		g.Go(func() error {
			f, err := fh.Open()
			if err != nil {
				return apperr.Wrap(apperr.KindTransient, "open uploaded file", err)
			}
			defer f.Close()
			info, err := h.deps.Symbols.Put(dumpID, fh.Filename, f)
			if err != nil {
				return err
			}
			results[i] = info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": results})
}

// uploadZip handles POST /api/symbols/upload-zip (multipart: file, dumpId).
func (h *symbolHandler) uploadZip(c *gin.Context) {
	dumpID := c.PostForm("dumpId")
	if dumpID == "" {
		respondError(c, h.logger, apperr.Validation("dumpId is required"))
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, h.logger, apperr.Validation("file is required"))
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		respondError(c, h.logger, apperr.Wrap(apperr.KindTransient, "open uploaded file", err))
		return
	}
	defer f.Close()

	info, err := h.deps.Symbols.PutZip(dumpID, f, fileHeader.Size)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *symbolHandler) list(c *gin.Context) {
	files, err := h.deps.Symbols.List(c.Param("dumpId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

func (h *symbolHandler) exists(c *gin.Context) {
	files, err := h.deps.Symbols.List(c.Param("dumpId"))
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			c.JSON(http.StatusOK, gin.H{"hasSymbols": false})
			return
		}
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hasSymbols": len(files) > 0})
}

func (h *symbolHandler) clear(c *gin.Context) {
	if err := h.deps.Symbols.Clear(c.Param("dumpId")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// servers returns GET /api/symbols/servers: a static list of common
// symbol-server URLs with the configured default folded in.
func (h *symbolHandler) servers(defaultServer string) gin.HandlerFunc {
	list := commonSymbolServers(defaultServer)
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"servers": list})
	}
}

func commonSymbolServers(defaultServer string) []string {
	servers := []string{
		"https://msdl.microsoft.com/download/symbols",
		"https://symbols.mozilla.org/",
		"https://debuginfod.elfutils.org/",
	}
	if defaultServer == "" {
		return servers
	}
	for _, s := range servers {
		if s == defaultServer {
			return servers
		}
	}
	return append([]string{defaultServer}, servers...)
}
