package httpserver

import (
	"errors"
	"net/http"

	notificationerrors "meetfix/contexts/event-coordination/notification-service/domain/errors"

	"github.com/go-chi/chi/v5"
)

func (s *Server) registerNotificationRoutes(r chi.Router) {
	r.Get("/notifications", s.handleListNotifications)
	r.Get("/notifications/unread-count", s.handleUnreadCount)
	r.Post("/notifications/read-all", s.handleMarkAllRead)
	r.Post("/notifications/{notification_id}/read", s.handleMarkRead)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid_limit", "limit must be an integer")
		return
	}
	resp, err := s.notifications.Handler.ListNotificationsHandler(r.Context(), userID, limit)
	if err != nil {
		s.writeNotificationDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.notifications.Handler.UnreadCountHandler(r.Context(), userID)
	if err != nil {
		s.writeNotificationDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.notifications.Handler.MarkAllReadHandler(r.Context(), userID)
	if err != nil {
		s.writeNotificationDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := s.notifications.Handler.MarkReadHandler(r.Context(), userID, chi.URLParam(r, "notification_id")); err != nil {
		s.writeNotificationDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeNotificationDomainError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeDomainError(w, r, notificationErrorCode(err), err)
}

func notificationErrorCode(err error) string {
	switch {
	case errors.Is(err, notificationerrors.ErrNotificationNotFound):
		return "notification_not_found"
	case errors.Is(err, notificationerrors.ErrInvalidRequest):
		return "invalid_request"
	}
	return ""
}
