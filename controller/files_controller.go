package controller

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ahmedy167-eng/learn-dash-audit-sub000/utils"
)

// FilesController serves attachments addressed by signed URLs only. The path
// is confined to the attachment directory.
type FilesController struct {
	signer *utils.URLSigner
	dir    string
}

func NewFilesController(signer *utils.URLSigner, dir string) *FilesController {
	return &FilesController{signer: signer, dir: dir}
}

func (f *FilesController) Serve(c *gin.Context) {
	path := strings.TrimPrefix(c.Param("path"), "/")
	if !f.signer.Verify(path, c.Query("expires"), c.Query("sig")) {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid or expired link"})
		return
	}
	clean := filepath.Clean(path)
	if clean == ".." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid path"})
		return
	}
	c.File(filepath.Join(f.dir, clean))
}
