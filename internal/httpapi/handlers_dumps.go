package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/apperr"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/obs"
)

type dumpHandler struct {
	deps   Deps
	logger obs.Logger
}

// upload handles POST /api/dumps/upload (multipart: file, userId,
// description?), wrapping dumpstore.Store.Put per spec.md §4.1.
func (h *dumpHandler) upload(c *gin.Context) {
	userID := c.PostForm("userId")
	if userID == "" {
		respondError(c, h.logger, apperr.Validation("userId is required"))
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

	info, err := h.deps.Dumps.Put(userID, fileHeader.Filename, f, h.deps.Config.MaxBodyBytes, c.PostForm("description"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *dumpHandler) get(c *gin.Context) {
	info, err := h.deps.Dumps.Get(c.Param("userId"), c.Param("dumpId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *dumpHandler) list(c *gin.Context) {
	infos, err := h.deps.Dumps.List(c.Param("userId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, infos)
}

func (h *dumpHandler) delete(c *gin.Context) {
	if err := h.deps.Dumps.Delete(c.Param("userId"), c.Param("dumpId")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// uploadBinary handles POST /api/dumps/{userId}/{dumpId}/binary (multipart:
// file), wrapping dumpstore.Store.PutExecutable.
func (h *dumpHandler) uploadBinary(c *gin.Context) {
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

	err = h.deps.Dumps.PutExecutable(c.Param("userId"), c.Param("dumpId"), fileHeader.Filename, f, h.deps.Config.MaxBodyBytes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "stored"})
}

func (h *dumpHandler) stats(c *gin.Context) {
	stats, err := h.deps.Dumps.Stats()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
