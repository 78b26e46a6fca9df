package server

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/joseph-ayodele/pdf-markup/constants"
)

// handleDownload serves the edited output by default; ?which=original
// returns the upload unchanged for comparison.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("session unknown or expired"))
		return
	}

	var data []byte
	var name string
	switch r.URL.Query().Get("which") {
	case "", "edited":
		data = sess.Output()
		if data == nil {
			writeError(w, http.StatusNotFound, errors.New("no edited document on this session yet"))
			return
		}
		name = downloadName(sess.Filename, time.Now())
	case "original":
		data = sess.Data
		name = "original_" + sess.Filename
	default:
		writeError(w, http.StatusBadRequest, errors.New(`which must be "edited" or "original"`))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

// downloadName stamps the edited file: edited_<base>_<YYYYMMDD_HHMMSS>.pdf.
func downloadName(original string, now time.Time) string {
	base := strings.TrimSuffix(original, filepath.Ext(original))
	return fmt.Sprintf("edited_%s_%s.pdf", base, now.Format(constants.TimestampLayout))
}
