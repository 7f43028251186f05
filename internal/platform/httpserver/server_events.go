package httpserver

import (
	"errors"
	"net/http"

	eventerrors "meetfix/contexts/event-coordination/event-service/domain/errors"
	eventhttp "meetfix/contexts/event-coordination/event-service/transport/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) registerEventRoutes(r chi.Router) {
	r.Get("/groups/{group_id}/events", s.handleListGroupEvents)

	r.Post("/events", s.handleCreateEvent)
	r.Get("/events/nearest", s.handleNearestEvent)
	r.Get("/events/{event_id}", s.handleGetEvent)
	r.Delete("/events/{event_id}", s.handleDeleteEvent)
	r.Get("/events/{event_id}/tally", s.handleEventTally)
	r.Get("/events/{event_id}/calendar.ics", s.handleExportICS)
	r.Post("/events/{event_id}/slots", s.handleAddSlot)
	r.Post("/events/{event_id}/activities", s.handleAddActivity)
	r.Put("/events/{event_id}/timeline", s.handleSetTimeline)
	r.Post("/events/{event_id}/votes", s.handleToggleVote)
	r.Post("/events/{event_id}/auto-fix", s.handleAutoFix)
	r.Post("/events/{event_id}/finalize", s.handleFinalize)
	r.Post("/events/{event_id}/pack-up", s.handlePackUp)
	r.Post("/events/{event_id}/reopen", s.handleReopen)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req eventhttp.CreateEventRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	resp, err := s.events.Handler.CreateEventHandler(r.Context(), userID, r.Header.Get("Idempotency-Key"), req)
	if err != nil {
		s.writeEventDomainError(w, r, err)
		return
	}
	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleListGroupEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.events.Handler.ListGroupEventsHandler(r.Context(), userID, chi.URLParam(r, "group_id"))
	if err != nil {
		s.writeEventDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNearestEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.events.Handler.NearestEventHandler(r.Context(), userID)
	if err != nil {
		s.writeEventDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.events.Handler.GetEventHandler(r.Context(), userID, chi.URLParam(r, "event_id"))
	if err != nil {
		s.writeEventDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := s.events.Handler.DeleteEventHandler(r.Context(), userID, chi.URLParam(r, "event_id")); err != nil {
		s.writeEventDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEventTally(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.events.Handler.TallyHandler(r.Context(), userID, chi.URLParam(r, "event_id"))
	if err != nil {
		s.writeEventDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExportICS(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	eventID := chi.URLParam(r, "event_id")
	body, err := s.events.Handler.ExportICSHandler(r.Context(), userID, eventID)
	if err != nil {
		s.writeEventDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+eventID+`.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleAddSlot(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req eventhttp.AddSlotRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	resp, err := s.events.Handler.AddSlotHandler(r.Context(), userID, chi.URLParam(r, "event_id"), req)
	if err != nil {
		s.writeEventDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleAddActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req eventhttp.AddActivityRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	resp, err := s.events.Handler.AddActivityHandler(r.Context(), userID, chi.URLParam(r, "event_id"), req)
	if err != nil {
		s.writeEventDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleSetTimeline(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req eventhttp.SetTimelineRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	resp, err := s.events.Handler.SetTimelineHandler(r.Context(), userID, chi.URLParam(r, "event_id"), req)
	if err != nil {
		s.writeEventDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleToggleVote(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req eventhttp.ToggleVoteRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	resp, err := s.events.Handler.ToggleVoteHandler(r.Context(), userID, chi.URLParam(r, "event_id"), req)
	if err != nil {
		s.writeEventDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAutoFix(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.events.Handler.AutoFixHandler(r.Context(), userID, chi.URLParam(r, "event_id"))
	if err != nil {
		s.writeEventDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req eventhttp.FinalizeRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	resp, err := s.events.Handler.FinalizeHandler(r.Context(), userID, chi.URLParam(r, "event_id"), req)
	if err != nil {
		s.writeEventDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePackUp(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.events.Handler.PackUpHandler(r.Context(), userID, chi.URLParam(r, "event_id"))
	if err != nil {
		s.writeEventDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReopen(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.events.Handler.ReopenHandler(r.Context(), userID, chi.URLParam(r, "event_id"))
	if err != nil {
		s.writeEventDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeEventDomainError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeDomainError(w, r, eventErrorCode(err), err)
}

func eventErrorCode(err error) string {
	switch {
	case errors.Is(err, eventerrors.ErrNotGroupMember):
		return "not_group_member"
	case errors.Is(err, eventerrors.ErrNotEventOwner):
		return "not_event_owner"
	case errors.Is(err, eventerrors.ErrEventNotFound):
		return "event_not_found"
	case errors.Is(err, eventerrors.ErrSlotNotFound):
		return "slot_not_found"
	case errors.Is(err, eventerrors.ErrActivityNotFound):
		return "activity_not_found"
	case errors.Is(err, eventerrors.ErrTimelineNotFound):
		return "timeline_not_found"
	case errors.Is(err, eventerrors.ErrNoFinalizedEvent):
		return "no_finalized_event"
	case errors.Is(err, eventerrors.ErrEventLocked):
		return "event_locked"
	case errors.Is(err, eventerrors.ErrInvalidStateTransition):
		return "invalid_state_transition"
	case errors.Is(err, eventerrors.ErrNoSlots):
		return "no_slots"
	case errors.Is(err, eventerrors.ErrEventNotFinalized):
		return "event_not_finalized"
	case errors.Is(err, eventerrors.ErrOptionLimitReached):
		return "option_limit_reached"
	case errors.Is(err, eventerrors.ErrIdempotencyConflict):
		return "idempotency_conflict"
	case errors.Is(err, eventerrors.ErrIdempotencyKeyRequired):
		return "idempotency_key_required"
	case errors.Is(err, eventerrors.ErrInvalidEventInput),
		errors.Is(err, eventerrors.ErrInvalidVoteInput):
		return "invalid_request"
	case errors.Is(err, eventerrors.ErrConflict):
		return "conflict"
	}
	return ""
}
