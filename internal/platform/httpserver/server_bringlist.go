package httpserver

import (
	"errors"
	"net/http"

	bringlisterrors "meetfix/contexts/event-coordination/bringlist-service/domain/errors"
	bringlisthttp "meetfix/contexts/event-coordination/bringlist-service/transport/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) registerBringlistRoutes(r chi.Router) {
	r.Get("/events/{event_id}/items", s.handleListItems)
	r.Post("/events/{event_id}/items", s.handleAddItem)
	r.Delete("/items/{item_id}", s.handleDeleteItem)
	r.Post("/items/{item_id}/claim", s.handleClaimItem)
	r.Delete("/items/{item_id}/claim", s.handleUnclaimItem)
	r.Get("/emoji/suggestions", s.handleSuggestEmoji)
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.bringlist.Handler.ListItemsHandler(r.Context(), userID, chi.URLParam(r, "event_id"))
	if err != nil {
		s.writeBringlistDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req bringlisthttp.AddItemRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	resp, err := s.bringlist.Handler.AddItemHandler(r.Context(), userID, chi.URLParam(r, "event_id"), req)
	if err != nil {
		s.writeBringlistDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := s.bringlist.Handler.DeleteItemHandler(r.Context(), userID, chi.URLParam(r, "item_id")); err != nil {
		s.writeBringlistDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClaimItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.bringlist.Handler.ClaimItemHandler(r.Context(), userID, chi.URLParam(r, "item_id"))
	if err != nil {
		s.writeBringlistDomainError(w, r, err)
		return
	}
	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleUnclaimItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := s.bringlist.Handler.UnclaimItemHandler(r.Context(), userID, chi.URLParam(r, "item_id")); err != nil {
		s.writeBringlistDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSuggestEmoji(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid_limit", "limit must be an integer")
		return
	}
	writeJSON(w, http.StatusOK, s.bringlist.Handler.SuggestEmojiHandler(r.URL.Query().Get("q"), limit))
}

func (s *Server) writeBringlistDomainError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeDomainError(w, r, bringlistErrorCode(err), err)
}

func bringlistErrorCode(err error) string {
	switch {
	case errors.Is(err, bringlisterrors.ErrNotGroupMember):
		return "not_group_member"
	case errors.Is(err, bringlisterrors.ErrNotItemCreator):
		return "not_item_creator"
	case errors.Is(err, bringlisterrors.ErrItemNotFound):
		return "item_not_found"
	case errors.Is(err, bringlisterrors.ErrEventNotFound):
		return "event_not_found"
	case errors.Is(err, bringlisterrors.ErrClaimLimitReached):
		return "claim_limit_reached"
	case errors.Is(err, bringlisterrors.ErrInvalidItemRequest):
		return "invalid_request"
	case errors.Is(err, bringlisterrors.ErrConflict):
		return "conflict"
	}
	return ""
}
