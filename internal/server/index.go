package server

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/joseph-ayodele/pdf-markup/constants"
	"github.com/joseph-ayodele/pdf-markup/internal/common"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexPage = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type indexData struct {
	MaxFileSizeMB int
	HasServerKey  bool
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := indexPage.Execute(w, indexData{
		MaxFileSizeMB: constants.MaxFileSizeMB,
		HasServerKey:  common.ValidAPIKey(s.cfg.LLM.APIKey),
	})
	if err != nil {
		s.logger.Error("index.render.failed", "err", err)
	}
}
