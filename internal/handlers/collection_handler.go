package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"treasury-backend/internal/models"
	"treasury-backend/internal/services"
	"treasury-backend/pkg/utils"
)

type CollectionHandler struct {
	Service *services.CollectionService
	Exports *services.ExportService
}

func NewCollectionHandler(s *services.CollectionService, exports *services.ExportService) *CollectionHandler {
	return &CollectionHandler{Service: s, Exports: exports}
}

// List accepts ?filter=active|remitted.
func (h *CollectionHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.Service.List(r.Context(), r.URL.Query().Get("filter"))
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, views)
}

func (h *CollectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.Service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, view)
}

func (h *CollectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCollectionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	c, err := h.Service.Create(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, c)
}

func (h *CollectionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateCollectionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	c, err := h.Service.Update(r.Context(), mux.Vars(r)["id"], &req)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, c)
}

func (h *CollectionHandler) Remit(w http.ResponseWriter, r *http.Request) {
	var req models.RemitCollectionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.Service.Remit(r.Context(), mux.Vars(r)["id"], &req); err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "Collection remitted"})
}

// DeleteMany removes the collections listed in the body.
func (h *CollectionHandler) DeleteMany(w http.ResponseWriter, r *http.Request) {
	var req models.DeleteCollectionsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	n, err := h.Service.DeleteMany(r.Context(), req.IDs)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func (h *CollectionHandler) MarkAll(w http.ResponseWriter, r *http.Request) {
	var req models.MarkAllRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	records, err := h.Service.MarkAll(r.Context(), mux.Vars(r)["id"], req.Paid)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, records)
}

func (h *CollectionHandler) SetPayment(w http.ResponseWriter, r *http.Request) {
	var req models.UpdatePaymentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	vars := mux.Vars(r)
	rec, err := h.Service.SetPayment(r.Context(), vars["id"], vars["member_id"], req.PaidAmount)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, rec)
}

// Members lists member rows, narrowed by ?status= and ?q=.
func (h *CollectionHandler) Members(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := h.Service.MemberRows(r.Context(), mux.Vars(r)["id"], q.Get("status"), q.Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, rows)
}

func (h *CollectionHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	tid, ok := treasurerID(w, r)
	if !ok {
		return
	}
	f, err := h.Exports.CollectionXLSX(r.Context(), tid, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	utils.File(w, f.FileName, f.ContentType, f.Data)
}

func (h *CollectionHandler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	tid, ok := treasurerID(w, r)
	if !ok {
		return
	}
	f, err := h.Exports.CollectionPDF(r.Context(), tid, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	utils.File(w, f.FileName, f.ContentType, f.Data)
}
