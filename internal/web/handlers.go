package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/trainfuel/internal/core"
)

// ----------------------------------------------------------------------------
// Health
// ----------------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":  "ok",
		"imports": s.service.ImportStatus(),
	})
}

func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.service.ImportStatus())
}

// ----------------------------------------------------------------------------
// Imports
// ----------------------------------------------------------------------------

// uploadedFile opens the "file" part of a multipart request. The body is
// capped at the import limit plus form overhead; the service enforces the
// exact file limit while streaming.
func (s *Server) uploadedFile(w http.ResponseWriter, r *http.Request) (multipart.File, string, error) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", core.ErrFileTooLarge
		}
		return nil, "", fmt.Errorf("%w: %v", core.ErrInvalidRequest, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", core.ErrNoFile
	}
	return file, header.Filename, nil
}

func (s *Server) handlePreviewImport(w http.ResponseWriter, r *http.Request) {
	file, name, err := s.uploadedFile(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer file.Close()

	result, err := s.service.PreviewImport(r.Context(), name, file)
	if err != nil {
		respondError(w, r, err)
		return
	}

	// Preview never returns the full row set
	result.Rows = nil
	writeJSON(w, r, http.StatusOK, result)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	file, name, err := s.uploadedFile(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer file.Close()

	result, err := s.service.ImportWorkouts(r.Context(), userID, name, file)
	if err != nil {
		respondError(w, r, err)
		return
	}

	result.Rows = nil
	writeJSON(w, r, http.StatusCreated, result)
}

// ----------------------------------------------------------------------------
// Workouts
// ----------------------------------------------------------------------------

func (s *Server) handleWorkoutSummary(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	q := r.URL.Query()

	start, end, err := parseRange(q.Get("start"), q.Get("end"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	switch group := strings.ToLower(q.Get("group")); group {
	case "", "daily", "day":
		days, err := s.service.DailySummary(r.Context(), userID, start, end)
		if err != nil {
			respondError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, map[string]any{"group": "daily", "days": days})
	case "weekly", "week":
		weeks, err := s.service.WeeklySummary(r.Context(), userID, start, end)
		if err != nil {
			respondError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, map[string]any{"group": "weekly", "weeks": weeks})
	default:
		respondError(w, r, fmt.Errorf("%w: unknown group %q", core.ErrInvalidRequest, group))
	}
}

// parseRange reads an inclusive ISO date range.
func parseRange(startStr, endStr string) (core.Date, core.Date, error) {
	start, err := core.ParseISODate(startStr)
	if err != nil {
		return core.Date{}, core.Date{}, fmt.Errorf("%w: start: %v", core.ErrInvalidRange, err)
	}
	end, err := core.ParseISODate(endStr)
	if err != nil {
		return core.Date{}, core.Date{}, fmt.Errorf("%w: end: %v", core.ErrInvalidRange, err)
	}
	return start, end, nil
}

// ----------------------------------------------------------------------------
// Nutrition plans
// ----------------------------------------------------------------------------

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req core.PlanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	plan, err := s.service.CreateNutritionPlan(r.Context(), userID, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, plan)
}

func (s *Server) handleUploadPlan(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	file, name, err := s.uploadedFile(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer file.Close()

	weight, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("weight_kg")), 64)
	if err != nil {
		respondError(w, r, fmt.Errorf("%w: weight_kg is required", core.ErrInvalidWeight))
		return
	}

	plan, err := s.service.CreatePlanFromFile(r.Context(), userID, name, file, weight)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, plan)
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	q := r.URL.Query()

	limit, err := queryInt(q.Get("limit"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	offset, err := queryInt(q.Get("offset"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	plans, err := s.service.ListPlans(r.Context(), userID, limit, offset)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if plans == nil {
		plans = []core.NutritionPlan{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"plans": plans})
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	// A malformed ID cannot name a stored plan
	planID, err := uuid.Parse(chi.URLParam(r, "planID"))
	if err != nil {
		respondError(w, r, core.ErrPlanNotFound)
		return
	}

	plan, err := s.service.GetPlan(r.Context(), userID, planID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, plan)
}

// ----------------------------------------------------------------------------
// Calendar
// ----------------------------------------------------------------------------

func (s *Server) handleResolveSchedule(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var moved core.MovedItem
	if err := decodeJSON(w, r, &moved); err != nil {
		respondError(w, r, err)
		return
	}

	result, err := s.service.ResolveSchedule(r.Context(), userID, moved)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if result.Adjustments == nil {
		result.Adjustments = []core.ScheduleAdjustment{}
	}
	writeJSON(w, r, http.StatusOK, result)
}

func (s *Server) handleDayLayout(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	date, err := core.ParseISODate(chi.URLParam(r, "date"))
	if err != nil {
		respondError(w, r, fmt.Errorf("%w: %v", core.ErrInvalidRequest, err))
		return
	}

	opts, err := layoutQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	items, err := s.service.DayLayout(r.Context(), userID, date, opts)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if items == nil {
		items = []core.PositionedItem{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"date": date, "items": items})
}

// layoutRequest is the body of the stateless layout endpoint.
type layoutRequest struct {
	Items   []core.CalendarItem `json:"items"`
	Options core.LayoutOptions  `json:"options"`
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	for _, it := range req.Items {
		if !it.Start.Valid() || !it.End.Valid() || it.End <= it.Start {
			respondError(w, r, fmt.Errorf("%w: item %q must end after it starts", core.ErrInvalidRequest, it.ID))
			return
		}
	}

	items := core.Layout(req.Items, s.service.LayoutOptions(req.Options))
	if items == nil {
		items = []core.PositionedItem{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"items": items})
}

// layoutQuery reads optional grid overrides from the query string.
func layoutQuery(r *http.Request) (core.LayoutOptions, error) {
	q := r.URL.Query()
	var opts core.LayoutOptions
	var err error

	if opts.VisibleStartHour, err = queryInt(q.Get("start_hour")); err != nil {
		return opts, err
	}
	if opts.VisibleEndHour, err = queryInt(q.Get("end_hour")); err != nil {
		return opts, err
	}
	if v := q.Get("px_per_hour"); v != "" {
		if opts.PixelsPerHour, err = strconv.ParseFloat(v, 64); err != nil {
			return opts, fmt.Errorf("%w: px_per_hour: %v", core.ErrInvalidRequest, err)
		}
	}
	return opts, nil
}

// ----------------------------------------------------------------------------
// Request helpers
// ----------------------------------------------------------------------------

// maxJSONBody bounds decoded request bodies.
const maxJSONBody = 1 << 20

// decodeJSON decodes a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidRequest, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: body must contain a single JSON object", core.ErrInvalidRequest)
	}
	return nil
}

// queryInt parses an optional non-negative integer parameter; empty is 0.
func queryInt(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q is not a non-negative integer", core.ErrInvalidRequest, v)
	}
	return n, nil
}
