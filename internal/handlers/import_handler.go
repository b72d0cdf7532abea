package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"treasury-backend/internal/ingest"
	"treasury-backend/internal/services"
	"treasury-backend/internal/spreadsheet"
	"treasury-backend/pkg/utils"
)

type ImportHandler struct {
	Service        *services.ImportService
	Exports        *services.ExportService
	MaxUploadBytes int64
}

func NewImportHandler(s *services.ImportService, exports *services.ExportService, maxUploadBytes int64) *ImportHandler {
	return &ImportHandler{Service: s, Exports: exports, MaxUploadBytes: maxUploadBytes}
}

// Upload accepts a multipart "file" field and returns the extracted preview.
func (h *ImportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	tid, ok := treasurerID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, ingest.NewError(ingest.CategoryInputRejected, "The file is too large.", err))
			return
		}
		writeError(w, ingest.NewError(ingest.CategoryInputRejected, spreadsheet.UploadHint, err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, ingest.NewError(ingest.CategoryInputRejected, spreadsheet.UploadHint, err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, ingest.NewError(ingest.CategoryInputRejected, spreadsheet.UploadHint, err))
		return
	}

	res, err := h.Service.Upload(r.Context(), tid, header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, res)
}

func (h *ImportHandler) Get(w http.ResponseWriter, r *http.Request) {
	tid, ok := treasurerID(w, r)
	if !ok {
		return
	}
	res, err := h.Service.Get(r.Context(), tid, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, res)
}

func (h *ImportHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	tid, ok := treasurerID(w, r)
	if !ok {
		return
	}
	res, err := h.Service.Confirm(r.Context(), tid, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, res)
}

func (h *ImportHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	tid, ok := treasurerID(w, r)
	if !ok {
		return
	}
	if err := h.Service.Cancel(r.Context(), tid, mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Template downloads the blank import workbook.
func (h *ImportHandler) Template(w http.ResponseWriter, r *http.Request) {
	f, err := h.Exports.Template(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	utils.File(w, f.FileName, f.ContentType, f.Data)
}
