package httpserver

import (
	"errors"
	"net/http"

	grouperrors "meetfix/contexts/event-coordination/group-service/domain/errors"
	grouphttp "meetfix/contexts/event-coordination/group-service/transport/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) registerGroupRoutes(r chi.Router) {
	r.Post("/groups", s.handleCreateGroup)
	r.Get("/groups", s.handleListMyGroups)
	r.Post("/groups/join", s.handleJoinGroup)
	r.Get("/groups/{group_id}", s.handleGetGroup)
	r.Patch("/groups/{group_id}", s.handleUpdateGroup)
	r.Delete("/groups/{group_id}", s.handleDeleteGroup)
	r.Post("/groups/{group_id}/leave", s.handleLeaveGroup)
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req grouphttp.CreateGroupRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	resp, err := s.groups.Handler.CreateGroupHandler(r.Context(), r.Header.Get("Idempotency-Key"), userID, req)
	if err != nil {
		s.writeGroupDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListMyGroups(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.groups.Handler.ListMyGroupsHandler(r.Context(), userID)
	if err != nil {
		s.writeGroupDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleJoinGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req grouphttp.JoinGroupRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	resp, err := s.groups.Handler.JoinGroupHandler(r.Context(), userID, req)
	if err != nil {
		s.writeGroupDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.groups.Handler.GetGroupHandler(r.Context(), userID, chi.URLParam(r, "group_id"))
	if err != nil {
		s.writeGroupDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req grouphttp.UpdateGroupRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	resp, err := s.groups.Handler.UpdateGroupHandler(r.Context(), userID, chi.URLParam(r, "group_id"), req)
	if err != nil {
		s.writeGroupDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := s.groups.Handler.DeleteGroupHandler(r.Context(), userID, chi.URLParam(r, "group_id")); err != nil {
		s.writeGroupDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLeaveGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := s.groups.Handler.LeaveGroupHandler(r.Context(), userID, chi.URLParam(r, "group_id")); err != nil {
		s.writeGroupDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeGroupDomainError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeDomainError(w, r, groupErrorCode(err), err)
}

func groupErrorCode(err error) string {
	switch {
	case errors.Is(err, grouperrors.ErrNotGroupMember):
		return "not_group_member"
	case errors.Is(err, grouperrors.ErrNotGroupOwner):
		return "not_group_owner"
	case errors.Is(err, grouperrors.ErrGroupNotFound):
		return "group_not_found"
	case errors.Is(err, grouperrors.ErrInviteCodeNotFound):
		return "invite_code_not_found"
	case errors.Is(err, grouperrors.ErrGroupFull):
		return "group_full"
	case errors.Is(err, grouperrors.ErrOwnerCannotLeave):
		return "owner_cannot_leave"
	case errors.Is(err, grouperrors.ErrMaxMembersBelowCount):
		return "max_members_below_count"
	case errors.Is(err, grouperrors.ErrIdempotencyConflict):
		return "idempotency_conflict"
	case errors.Is(err, grouperrors.ErrRequestInProgress):
		return "request_in_progress"
	case errors.Is(err, grouperrors.ErrIdempotencyKeyRequired):
		return "idempotency_key_required"
	case errors.Is(err, grouperrors.ErrInviteCodeExhausted):
		return "invite_code_exhausted"
	case errors.Is(err, grouperrors.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, grouperrors.ErrConflict):
		return "conflict"
	}
	return ""
}
