package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"

	"treasury-backend/internal/ingest"
	"treasury-backend/internal/middleware"
	"treasury-backend/internal/repositories"
	"treasury-backend/internal/services"
	"treasury-backend/pkg/utils"
)

// Categories for failures outside the import pipeline.
const (
	categoryInvalidRequest = "invalid_request"
	categoryUnauthorized   = "unauthorized"
	categoryConflict       = "conflict"
)

var validate = validator.New()

var errInvalidBody = errors.New("invalid request body")

// decode reads a JSON body into dst and checks its validate tags.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errInvalidBody
	}
	return validate.Struct(dst)
}

var importStatus = map[ingest.Category]int{
	ingest.CategoryInputRejected:     http.StatusBadRequest,
	ingest.CategoryExtractionAuth:    http.StatusBadGateway,
	ingest.CategoryExtractionFailed:  http.StatusBadGateway,
	ingest.CategoryMalformedResponse: http.StatusBadGateway,
	ingest.CategoryStructural:        http.StatusUnprocessableEntity,
	ingest.CategoryNoValidPayments:   http.StatusUnprocessableEntity,
	ingest.CategoryBusy:              http.StatusConflict,
	ingest.CategoryPersistence:       http.StatusInternalServerError,
	ingest.CategoryNotFound:          http.StatusNotFound,
	ingest.CategoryUnknown:           http.StatusInternalServerError,
}

// writeError renders err as {"category", "error"} with a matching status.
func writeError(w http.ResponseWriter, err error) {
	var ie *ingest.Error
	if errors.As(err, &ie) {
		status, ok := importStatus[ie.Category]
		if !ok {
			status = http.StatusInternalServerError
		}
		body := utils.ErrorBody{
			Category: string(ie.Category),
			Error:    ie.Message,
			Label:    ie.Category.Label(),
		}
		if len(ie.Details) > 0 {
			body.Details = ie.Details
		}
		if ie.Candidate != nil {
			body.Candidate = ie.Candidate
		}
		if status >= 500 {
			log.Printf("[API] %s: %v", ie.Category, err)
		}
		utils.JSON(w, status, body)
		return
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make(map[string]string, len(ve))
		for _, fe := range ve {
			fields[fe.Field()] = fe.Tag()
		}
		utils.JSON(w, http.StatusBadRequest, utils.ErrorBody{
			Category: categoryInvalidRequest,
			Error:    "Validation failed",
			Details:  fields,
		})
		return
	}

	switch {
	case errors.Is(err, errInvalidBody):
		utils.Error(w, http.StatusBadRequest, categoryInvalidRequest, "Invalid request body")
	case errors.Is(err, services.ErrInvalidInput):
		utils.Error(w, http.StatusBadRequest, categoryInvalidRequest, err.Error())
	case errors.Is(err, repositories.ErrNotFound):
		utils.Error(w, http.StatusNotFound, string(ingest.CategoryNotFound), "Not found")
	case errors.Is(err, repositories.ErrDuplicate):
		utils.Error(w, http.StatusConflict, categoryConflict, "Already exists")
	case errors.Is(err, repositories.ErrAlreadyRemitted):
		utils.Error(w, http.StatusConflict, categoryConflict, "Collection has already been remitted")
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.Error(w, http.StatusUnauthorized, categoryUnauthorized, "Invalid email or password")
	default:
		log.Printf("[API] Unhandled error: %v", err)
		utils.Error(w, http.StatusInternalServerError, string(ingest.CategoryUnknown), "Internal server error")
	}
}

func treasurerID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, ok := middleware.GetTreasurerIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, categoryUnauthorized, "Unauthorized")
	}
	return id, ok
}
