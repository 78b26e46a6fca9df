package server

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/joseph-ayodele/pdf-markup/constants"
	"github.com/joseph-ayodele/pdf-markup/internal/common"
	"github.com/joseph-ayodele/pdf-markup/internal/extract"
	"github.com/joseph-ayodele/pdf-markup/internal/history"
)

type uploadResponse struct {
	SessionID string        `json:"session_id"`
	Filename  string        `json:"filename"`
	Size      int64         `json:"size"`
	SizeHuman string        `json:"size_human"`
	Hash      string        `json:"content_hash"`
	Stats     extract.Stats `json:"stats"`
	NoText    bool          `json:"no_text"`
	Text      string        `json:"text,omitempty"`
}

// handleUpload receives the PDF, extracts text and layout up front, and
// opens the session the plan and apply calls work against.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Slack over the document cap covers the multipart envelope.
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxFileSizeBytes+1<<20)
	if err := r.ParseMultipartForm(constants.MaxFileSizeBytes); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("upload too large or malformed: %w", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing file field: %w", err))
		return
	}
	defer file.Close()

	v := common.NewValidator()
	v.Field("filename", header.Filename, common.Required, common.PDFExtension)
	if err := common.ValidateAndReturnError(v); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("reading upload: %w", err))
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("uploaded file is empty"))
		return
	}
	if int64(len(data)) > constants.MaxFileSizeBytes {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Errorf("file exceeds the %d MB limit", constants.MaxFileSizeMB))
		return
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	doc, err := s.extract.Run(r.Context(), data)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	sess := &Session{
		Filename: header.Filename,
		Data:     data,
		Hash:     hash,
		Doc:      doc,
	}
	s.sessions.Put(sess)

	resp := uploadResponse{
		SessionID: sess.ID.String(),
		Filename:  sess.Filename,
		Size:      int64(len(data)),
		SizeHuman: constants.FormatFileSize(int64(len(data))),
		Hash:      hash,
		Stats:     doc.Stats,
		NoText:    doc.Empty(),
	}
	if resp.NoText {
		// Terminal state: this upload never reaches plan or apply.
		s.recordRun(r.Context(), sess, "", history.Outcome{
			Status:     constants.JobStatusNoText,
			Pages:      doc.Stats.Pages,
			Fragments:  doc.Stats.Fragments,
			Characters: doc.Stats.Characters,
		})
	} else {
		resp.Text = doc.Text()
	}

	s.logger.Info("upload.ok",
		"session_id", sess.ID,
		"filename", sess.Filename,
		"size", len(data),
		"pages", doc.Stats.Pages,
		"fragments", doc.Stats.Fragments,
		"no_text", resp.NoText,
	)
	writeJSON(w, http.StatusCreated, resp)
}
