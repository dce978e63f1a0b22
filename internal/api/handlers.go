package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	apperr "github.com/julianstephens/habitlog/internal/errors"
	"github.com/julianstephens/habitlog/internal/logger"
	"github.com/julianstephens/habitlog/internal/service"
	"github.com/julianstephens/habitlog/internal/utils"
)

// logRequest is the body accepted by the habit-log write endpoints.
type logRequest struct {
	HabitID   string  `json:"habitId"`
	Date      string  `json:"date"`
	Completed *bool   `json:"completed,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

type messageBody struct {
	Message string `json:"message"`
}

func (s *Server) listHabits(w http.ResponseWriter, r *http.Request) {
	habits, err := s.svc.ListHabits(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, habits)
}

func (s *Server) createHabit(w http.ResponseWriter, r *http.Request) {
	var input service.HabitInput
	if !decodeJSON(w, r, &input) {
		return
	}
	habit, err := s.svc.CreateHabit(r.Context(), ownerFrom(r.Context()), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, habit)
}

func (s *Server) getHabit(w http.ResponseWriter, r *http.Request) {
	habit, err := s.svc.GetHabit(r.Context(), ownerFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, habit)
}

func (s *Server) updateHabit(w http.ResponseWriter, r *http.Request) {
	var update service.HabitUpdate
	if !decodeJSON(w, r, &update) {
		return
	}
	habit, err := s.svc.UpdateHabit(r.Context(), ownerFrom(r.Context()), mux.Vars(r)["id"], update)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, habit)
}

func (s *Server) deleteHabit(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteHabit(r.Context(), ownerFrom(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Habit deleted successfully"})
}

func (s *Server) listLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := service.LogFilter{
		HabitID: q.Get("habitId"),
		Date:    q.Get("date"),
	}
	logs, err := s.svc.ListLogs(r.Context(), ownerFrom(r.Context()), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) recordLog(w http.ResponseWriter, r *http.Request) {
	var req logRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	completed := req.Completed != nil && *req.Completed
	res, err := s.svc.RecordCompletion(r.Context(), ownerFrom(r.Context()), req.HabitID, req.Date, completed, req.Notes)
	s.writeLogResult(w, r, "record", res, err)
}

func (s *Server) toggleLog(w http.ResponseWriter, r *http.Request) {
	var req logRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.svc.ToggleCompletion(r.Context(), ownerFrom(r.Context()), req.HabitID, req.Date, req.Notes)
	s.writeLogResult(w, r, "toggle", res, err)
}

func (s *Server) writeLogResult(w http.ResponseWriter, r *http.Request, op string, res service.WriteResult, err error) {
	if err != nil {
		s.metrics.recordWrite(op, "error")
		writeError(w, r, err)
		return
	}
	if res.Created {
		s.metrics.recordWrite(op, "created")
		writeJSON(w, http.StatusCreated, res.Log)
		return
	}
	s.metrics.recordWrite(op, "merged")
	writeJSON(w, http.StatusOK, res.Log)
}

func (s *Server) habitStats(w http.ResponseWriter, r *http.Request) {
	today, window, err := s.analyticsParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	stats, err := s.svc.HabitStats(r.Context(), ownerFrom(r.Context()), mux.Vars(r)["id"], today, window)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	today, window, err := s.analyticsParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	dash, err := s.svc.Dashboard(r.Context(), ownerFrom(r.Context()), today, window)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

// analyticsParams reads the optional today and window query parameters.
func (s *Server) analyticsParams(r *http.Request) (utils.Day, int, error) {
	q := r.URL.Query()

	var window int
	if raw := strings.TrimSpace(q.Get("window")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return utils.Day{}, 0, apperr.Invalid("window", "must be a non-negative integer, got %q", raw)
		}
		window = n
	}
	window = s.svc.ResolveWindow(r.Context(), window)

	if raw := strings.TrimSpace(q.Get("today")); raw != "" {
		day, err := utils.ParseDay(raw)
		if err != nil {
			return utils.Day{}, 0, apperr.Invalid("today", "expected YYYY-MM-DD, got %q", raw)
		}
		return day, window, nil
	}
	today, err := s.svc.Today(r.Context())
	if err != nil {
		return utils.Day{}, 0, err
	}
	return today, window, nil
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if _, err := s.svc.Store().GetSettings(r.Context()); err != nil {
		logger.Warn("health check failed", "error", err)
		writeMessage(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
