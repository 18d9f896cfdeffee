package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Kerhoff/DoseboT/internal/adherence"
	"github.com/Kerhoff/DoseboT/internal/models"
	"github.com/Kerhoff/DoseboT/internal/repository"
	"github.com/Kerhoff/DoseboT/internal/service"
	"github.com/sirupsen/logrus"
)

// Server provides the HTTP JSON API.
type Server struct {
	svc    *service.Service
	logger *logrus.Logger
	mux    *http.ServeMux
}

// NewServer creates a Server, registers all routes, and returns it.
func NewServer(svc *service.Service, logger *logrus.Logger) *Server {
	s := &Server{svc: svc, logger: logger, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes() {
	// API – Medications
	s.mux.HandleFunc("GET /api/medications", s.handleGetMedications)
	s.mux.HandleFunc("POST /api/medications", s.handleCreateMedication)
	s.mux.HandleFunc("DELETE /api/medications/{id}", s.handleDeleteMedication)

	// API – Doses
	s.mux.HandleFunc("GET /api/day", s.handleGetDay)
	s.mux.HandleFunc("POST /api/doses/mark", s.handleMarkDose)
	s.mux.HandleFunc("POST /api/doses/cycle", s.handleCycleDose)

	// API – Analytics
	s.mux.HandleFunc("GET /api/stats", s.handleGetStats)
	s.mux.HandleFunc("GET /api/streak", s.handleGetStreak)
	s.mux.HandleFunc("GET /api/trend", s.handleGetTrend)

	s.mux.HandleFunc("GET /healthz", s.handleHealth)
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads the request body into dst and returns an error message on
// failure.  The caller should return immediately when ok == false.
func (s *Server) decodeJSON(r *http.Request, dst any) (ok bool, errMsg string) {
	if r.Body == nil {
		return false, "request body is empty"
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return false, fmt.Sprintf("invalid JSON: %v", err)
	}
	return true, ""
}

// pathID extracts the {id} path value and converts it to int64.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	if raw == "" {
		return 0, fmt.Errorf("missing id in path")
	}
	return strconv.ParseInt(raw, 10, 64)
}

// requireChatID reads the chat_id query parameter.  It writes an error
// response and returns 0 when the parameter is absent or invalid.
func (s *Server) requireChatID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("chat_id")
	if raw == "" {
		s.respondError(w, http.StatusBadRequest, "chat_id query parameter is required")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "chat_id must be an integer")
		return 0, false
	}
	return id, true
}

// queryDate reads an optional YYYY-MM-DD query parameter, defaulting to today.
func (s *Server) queryDate(w http.ResponseWriter, r *http.Request, name string) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return s.svc.Today(), true
	}
	day, err := time.Parse("2006-01-02", raw)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, name+" must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return day, true
}

// queryInt reads an optional positive integer query parameter.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	if v, err := strconv.Atoi(raw); err == nil && v > 0 {
		return v
	}
	return fallback
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---------------------------------------------------------------------------
// Medications
// ---------------------------------------------------------------------------

type createMedicationRequest struct {
	ChatID      int64    `json:"chat_id"`
	CreatedByID int64    `json:"created_by_id"`
	Name        string   `json:"name"`
	Dosage      string   `json:"dosage"`
	Frequency   string   `json:"frequency"`
	Weekdays    []int64  `json:"weekdays"` // Sunday=1..Saturday=7
	Times       []string `json:"times"`
	StartDate   string   `json:"start_date"` // YYYY-MM-DD
	EndDate     string   `json:"end_date"`   // YYYY-MM-DD, optional
}

func (s *Server) handleGetMedications(w http.ResponseWriter, r *http.Request) {
	chatID, ok := s.requireChatID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filters := repository.MedicationFilters{
		ActiveOnly: q.Get("active") != "all",
	}
	if limit := q.Get("limit"); limit != "" {
		if v, err := strconv.Atoi(limit); err == nil {
			filters.Limit = v
		}
	}
	if offset := q.Get("offset"); offset != "" {
		if v, err := strconv.Atoi(offset); err == nil {
			filters.Offset = v
		}
	}

	meds, err := s.svc.Medications.GetByChatID(r.Context(), chatID, filters)
	if err != nil {
		s.logger.WithError(err).Error("failed to get medications")
		s.respondError(w, http.StatusInternalServerError, "failed to get medications")
		return
	}

	s.respondJSON(w, http.StatusOK, meds)
}

func (s *Server) handleCreateMedication(w http.ResponseWriter, r *http.Request) {
	var req createMedicationRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		s.respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.ChatID == 0 {
		s.respondError(w, http.StatusBadRequest, "chat_id is required")
		return
	}

	startDate := s.svc.Today()
	if req.StartDate != "" {
		t, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
			return
		}
		startDate = t
	}

	med := &models.Medication{
		ChatID:      req.ChatID,
		CreatedByID: req.CreatedByID,
		Name:        strings.TrimSpace(req.Name),
		Dosage:      strings.TrimSpace(req.Dosage),
		Frequency:   adherence.Frequency(req.Frequency),
		Weekdays:    req.Weekdays,
		Times:       req.Times,
		StartDate:   startDate,
	}
	if med.Frequency == "" {
		med.Frequency = adherence.FrequencyDaily
	}
	if req.EndDate != "" {
		t, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
			return
		}
		med.EndDate = &t
	}

	created, err := s.svc.CreateMedication(r.Context(), med)
	if err != nil {
		var invalid *adherence.InvalidScheduleError
		if errors.As(err, &invalid) {
			s.respondError(w, http.StatusBadRequest, invalid.Error())
			return
		}
		s.logger.WithError(err).Error("failed to create medication")
		s.respondError(w, http.StatusInternalServerError, "failed to create medication")
		return
	}

	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteMedication(w http.ResponseWriter, r *http.Request) {
	chatID, ok := s.requireChatID(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid medication id")
		return
	}

	if err := s.svc.DeleteMedication(r.Context(), chatID, id); err != nil {
		s.logger.WithError(err).Error("failed to delete medication")
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ---------------------------------------------------------------------------
// Doses
// ---------------------------------------------------------------------------

type markDoseRequest struct {
	ChatID       int64  `json:"chat_id"`
	MedicationID int64  `json:"medication_id"`
	Date         string `json:"date"` // YYYY-MM-DD, defaults to today
	Time         string `json:"time"` // HH:MM
	Status       string `json:"status"`
	MarkedByID   int64  `json:"marked_by_id"`
}

func (s *Server) handleGetDay(w http.ResponseWriter, r *http.Request) {
	chatID, ok := s.requireChatID(w, r)
	if !ok {
		return
	}
	day, ok := s.queryDate(w, r, "date")
	if !ok {
		return
	}

	overview, err := s.svc.DayForChat(r.Context(), chatID, day)
	if err != nil {
		s.logger.WithError(err).Error("failed to build day overview")
		s.respondError(w, http.StatusInternalServerError, "failed to build day overview")
		return
	}

	s.respondJSON(w, http.StatusOK, overview)
}

func (s *Server) decodeMarkRequest(w http.ResponseWriter, r *http.Request) (*markDoseRequest, time.Time, bool) {
	var req markDoseRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return nil, time.Time{}, false
	}
	if req.ChatID == 0 || req.MedicationID == 0 || req.Time == "" {
		s.respondError(w, http.StatusBadRequest, "chat_id, medication_id and time are required")
		return nil, time.Time{}, false
	}

	day := s.svc.Today()
	if req.Date != "" {
		t, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return nil, time.Time{}, false
		}
		day = t
	}
	return &req, day, true
}

func (s *Server) handleMarkDose(w http.ResponseWriter, r *http.Request) {
	req, day, ok := s.decodeMarkRequest(w, r)
	if !ok {
		return
	}

	status, err := s.svc.MarkDose(r.Context(), req.ChatID, req.MedicationID, day, req.Time,
		adherence.Status(req.Status), req.MarkedByID)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

func (s *Server) handleCycleDose(w http.ResponseWriter, r *http.Request) {
	req, day, ok := s.decodeMarkRequest(w, r)
	if !ok {
		return
	}

	status, err := s.svc.CycleDose(r.Context(), req.ChatID, req.MedicationID, day, req.Time, req.MarkedByID)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

// ---------------------------------------------------------------------------
// Analytics
// ---------------------------------------------------------------------------

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	chatID, ok := s.requireChatID(w, r)
	if !ok {
		return
	}

	report, err := s.svc.Report(r.Context(), chatID, queryInt(r, "days", 30))
	if err != nil {
		s.logger.WithError(err).Error("failed to build adherence report")
		s.respondError(w, http.StatusInternalServerError, "failed to build adherence report")
		return
	}

	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleGetStreak(w http.ResponseWriter, r *http.Request) {
	chatID, ok := s.requireChatID(w, r)
	if !ok {
		return
	}

	report, err := s.svc.Streaks(r.Context(), chatID, queryInt(r, "days", 90))
	if err != nil {
		s.logger.WithError(err).Error("failed to build streak report")
		s.respondError(w, http.StatusInternalServerError, "failed to build streak report")
		return
	}

	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleGetTrend(w http.ResponseWriter, r *http.Request) {
	chatID, ok := s.requireChatID(w, r)
	if !ok {
		return
	}

	buckets, err := s.svc.WeeklyTrend(r.Context(), chatID, queryInt(r, "weeks", 8))
	if err != nil {
		s.logger.WithError(err).Error("failed to build weekly trend")
		s.respondError(w, http.StatusInternalServerError, "failed to build weekly trend")
		return
	}

	s.respondJSON(w, http.StatusOK, buckets)
}
