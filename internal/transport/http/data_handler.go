package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "electionpulse/internal/errors"
	"electionpulse/internal/infrastructure"
	"electionpulse/internal/services"
)

type contextKey string

// datasetKey carries the validated dataset name through the request context
const datasetKey contextKey = "dataset"

var validate = validator.New()

// yearQuery is the validated shape of ?year=&compare= parameters
type yearQuery struct {
	Year    int `validate:"required,min=1776"`
	Compare int `validate:"omitempty,min=1776"`
}

// rangeQuery is the validated shape of ?from=&to= parameters
type rangeQuery struct {
	From int `validate:"required,min=1776"`
	To   int `validate:"required,min=1776,gtefield=From"`
}

// DataHandler handles election data HTTP requests with RFC 7807 compliance
type DataHandler struct {
	service      DataServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDataHandler creates a new data handler with RFC 7807 error handling
func NewDataHandler(service DataServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	return &DataHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "data_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the data routes with proper Chi patterns
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/datasets", h.GetDatasets)

	r.Route("/{dataset}", func(r chi.Router) {
		r.Use(h.DatasetCtx)
		r.Get("/years", h.GetYears)
		r.Get("/party-votes", h.GetPartyVotes)
		r.Get("/turnout", h.GetTurnout)
		r.Get("/winners", h.GetWinners)
		r.Get("/vote-share", h.GetVoteShare)
		r.Get("/flips", h.GetFlips)
		r.Get("/state-split", h.GetStateSplit)
		r.Get("/distribution", h.GetDistribution)
		r.Get("/coverage", h.GetCoverage)
		r.Get("/export/summary.csv", h.ExportSummaryCSV)
		r.Get("/export/summary.xlsx", h.ExportSummaryWorkbook)
	})

	return r
}

// DatasetCtx validates the {dataset} URL parameter
func (h *DataHandler) DatasetCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "dataset")
		switch name {
		case services.DatasetPresident, services.DatasetSenate:
		default:
			h.errorHandler.HandleError(w, r, apierrors.DatasetNotFoundError(name))
			return
		}

		ctx := context.WithValue(r.Context(), datasetKey, name)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func datasetName(r *http.Request) string {
	name, _ := r.Context().Value(datasetKey).(string)
	return name
}

// GetDatasets handles GET /api/data/datasets
func (h *DataHandler) GetDatasets(w http.ResponseWriter, r *http.Request) {
	infos := h.service.Datasets(r.Context())
	h.respondList(w, r, infos, len(infos))
}

// GetYears handles GET /api/data/{dataset}/years
func (h *DataHandler) GetYears(w http.ResponseWriter, r *http.Request) {
	years, err := h.service.Years(r.Context(), datasetName(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondList(w, r, years, len(years))
}

// GetPartyVotes handles GET /api/data/{dataset}/party-votes
func (h *DataHandler) GetPartyVotes(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.PartyVotes(r.Context(), datasetName(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondList(w, r, rows, len(rows))
}

// GetTurnout handles GET /api/data/{dataset}/turnout with an optional
// ?state= filter.
func (h *DataHandler) GetTurnout(w http.ResponseWriter, r *http.Request) {
	name := datasetName(r)

	if state := r.URL.Query().Get("state"); state != "" {
		if len(state) != 2 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("state", "state must be a two-letter postal code"))
			return
		}
		rows, err := h.service.TurnoutForState(r.Context(), name, state)
		if err != nil {
			h.handleServiceError(w, r, err)
			return
		}
		h.respondList(w, r, rows, len(rows))
		return
	}

	rows, err := h.service.Turnout(r.Context(), name)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondList(w, r, rows, len(rows))
}

// GetWinners handles GET /api/data/{dataset}/winners?year=&compare=
func (h *DataHandler) GetWinners(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseYearQuery(w, r)
	if !ok {
		return
	}

	result, err := h.service.Winners(r.Context(), datasetName(r), q.Year, q.Compare)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respond(w, r, result)
}

// GetVoteShare handles GET /api/data/{dataset}/vote-share?year=
func (h *DataHandler) GetVoteShare(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseYearQuery(w, r)
	if !ok {
		return
	}

	rows, err := h.service.VoteShare(r.Context(), datasetName(r), q.Year)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondList(w, r, rows, len(rows))
}

// GetFlips handles GET /api/data/{dataset}/flips?from=&to=
func (h *DataHandler) GetFlips(w http.ResponseWriter, r *http.Request) {
	q := rangeQuery{
		From: intParam(r, "from"),
		To:   intParam(r, "to"),
	}
	if err := validate.Struct(q); err != nil {
		h.errorHandler.HandleError(w, r, validationProblem(err))
		return
	}

	result, err := h.service.Flips(r.Context(), datasetName(r), q.From, q.To)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respond(w, r, result)
}

// GetStateSplit handles GET /api/data/{dataset}/state-split?year=
func (h *DataHandler) GetStateSplit(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseYearQuery(w, r)
	if !ok {
		return
	}

	rows, err := h.service.StateSplits(r.Context(), datasetName(r), q.Year)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondList(w, r, rows, len(rows))
}

// GetDistribution handles GET /api/data/{dataset}/distribution?year=
func (h *DataHandler) GetDistribution(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseYearQuery(w, r)
	if !ok {
		return
	}

	rows, err := h.service.Distribution(r.Context(), datasetName(r), q.Year)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondList(w, r, rows, len(rows))
}

// GetCoverage handles GET /api/data/{dataset}/coverage?year=
func (h *DataHandler) GetCoverage(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseYearQuery(w, r)
	if !ok {
		return
	}

	cov, err := h.service.Coverage(r.Context(), datasetName(r), q.Year)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respond(w, r, cov)
}

// ExportSummaryCSV handles GET /api/data/{dataset}/export/summary.csv
func (h *DataHandler) ExportSummaryCSV(w http.ResponseWriter, r *http.Request) {
	name := datasetName(r)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+"-summary.csv"))

	if err := h.service.WriteSummaryCSV(r.Context(), name, w); err != nil {
		// headers are gone at this point, log only
		h.logger.ErrorContext(r.Context(), "csv export failed",
			slog.String("dataset", name),
			slog.String("error", err.Error()))
	}
}

// ExportSummaryWorkbook handles GET /api/data/{dataset}/export/summary.xlsx
func (h *DataHandler) ExportSummaryWorkbook(w http.ResponseWriter, r *http.Request) {
	name := datasetName(r)

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+"-summary.xlsx"))

	if err := h.service.WriteSummaryWorkbook(r.Context(), name, w); err != nil {
		h.logger.ErrorContext(r.Context(), "workbook export failed",
			slog.String("dataset", name),
			slog.String("error", err.Error()))
	}
}

// parseYearQuery validates the ?year=&compare= parameters, writing the error
// response itself when validation fails.
func (h *DataHandler) parseYearQuery(w http.ResponseWriter, r *http.Request) (yearQuery, bool) {
	q := yearQuery{
		Year:    intParam(r, "year"),
		Compare: intParam(r, "compare"),
	}
	if err := validate.Struct(q); err != nil {
		h.errorHandler.HandleError(w, r, validationProblem(err))
		return q, false
	}
	return q, true
}

// handleServiceError maps service sentinels to API errors
func (h *DataHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := infrastructure.GetTraceID(r.Context())
	h.logger.WarnContext(r.Context(), "data request failed",
		slog.String("error", err.Error()),
		slog.String("request_id", reqID),
	)

	switch {
	case errors.Is(err, services.ErrDatasetNotFound):
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusNotFound, "DATASET_NOT_FOUND", err.Error(), nil))
	case errors.Is(err, services.ErrYearNotFound):
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusNotFound, "YEAR_NOT_FOUND", err.Error(), nil))
	case errors.Is(err, services.ErrFlipsNotSupported):
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusUnprocessableEntity, "FLIPS_NOT_SUPPORTED", err.Error(), nil))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}

func (h *DataHandler) respond(w http.ResponseWriter, r *http.Request, data interface{}) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   data,
	})
}

func (h *DataHandler) respondList(w http.ResponseWriter, r *http.Request, data interface{}, count int) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   data,
		"count":  count,
	})
}

// intParam parses an integer query parameter, 0 when absent or malformed;
// validation catches required fields left at zero.
func intParam(r *http.Request, name string) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

// validationProblem converts validator errors to field-level API errors
func validationProblem(err error) *apierrors.APIError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]apierrors.ValidationError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, apierrors.ValidationError{
				Field:   fe.Field(),
				Message: fmt.Sprintf("failed %s validation", fe.Tag()),
			})
		}
		return apierrors.NewValidationErrors(fields)
	}
	return apierrors.InvalidRequestWithError(err)
}
