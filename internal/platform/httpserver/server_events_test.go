package httpserver

import (
	"net/http"
	"strings"
	"testing"

	eventhttp "meetfix/contexts/event-coordination/event-service/transport/http"
)

const createEventBody = `{"group_id":"%s","name":"Board games","slots":[{"date":"2030-06-01","time":"19:00","duration":"2h"},{"date":"2030-06-02","time":"18:00"}],"activities":["Catan"]}`

func createEvent(t *testing.T, server *Server, owner string, groupID string) eventhttp.CreateEventResponse {
	t.Helper()
	body := strings.Replace(createEventBody, "%s", groupID, 1)
	rr := doRequest(server, http.MethodPost, "/v1/events", owner, body, map[string]string{"Idempotency-Key": "event-" + groupID})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var created eventhttp.CreateEventResponse
	decodeBody(t, rr, &created)
	return created
}

func TestCreateEventRequiresIdempotencyKey(t *testing.T) {
	server := newTestServer()
	group := createGroupWithMember(t, server, "owner", "")
	body := strings.Replace(createEventBody, "%s", group.Group.GroupID, 1)

	rr := doRequest(server, http.MethodPost, "/v1/events", "owner", body, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp errorResponse
	decodeBody(t, rr, &resp)
	if resp.Code != "idempotency_key_required" {
		t.Fatalf("unexpected error code %q", resp.Code)
	}
}

func TestCreateEventReplaysWithSameKey(t *testing.T) {
	server := newTestServer()
	group := createGroupWithMember(t, server, "owner", "")
	created := createEvent(t, server, "owner", group.Group.GroupID)

	body := strings.Replace(createEventBody, "%s", group.Group.GroupID, 1)
	rr := doRequest(server, http.MethodPost, "/v1/events", "owner", body, map[string]string{"Idempotency-Key": "event-" + group.Group.GroupID})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 replay, got %d body=%s", rr.Code, rr.Body.String())
	}
	var replayed eventhttp.CreateEventResponse
	decodeBody(t, rr, &replayed)
	if !replayed.Replayed || replayed.Event.EventID != created.Event.EventID {
		t.Fatalf("expected replay of %s, got %+v", created.Event.EventID, replayed.Event)
	}
}

func TestEventRejectsOutsiders(t *testing.T) {
	server := newTestServer()
	group := createGroupWithMember(t, server, "owner", "")
	created := createEvent(t, server, "owner", group.Group.GroupID)

	rr := doRequest(server, http.MethodGet, "/v1/events/"+created.Event.EventID, "stranger", "", nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
	rr = doRequest(server, http.MethodGet, "/v1/events/missing", "owner", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestVoteFinalizeAndPackUpFlow(t *testing.T) {
	server := newTestServer()
	group := createGroupWithMember(t, server, "owner", "ana")
	created := createEvent(t, server, "owner", group.Group.GroupID)
	eventPath := "/v1/events/" + created.Event.EventID
	slotID := created.Slots[1].SlotID

	rr := doRequest(server, http.MethodPost, eventPath+"/votes", "ana", `{"category":"slot","target_id":"`+slotID+`"}`, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var vote eventhttp.ToggleVoteResponse
	decodeBody(t, rr, &vote)
	if !vote.Voted || vote.OptionID != slotID {
		t.Fatalf("unexpected vote response %+v", vote)
	}

	rr = doRequest(server, http.MethodGet, eventPath+"/tally", "ana", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var tally eventhttp.TallyResponse
	decodeBody(t, rr, &tally)
	if tally.TotalSlotVotes != 1 {
		t.Fatalf("expected one slot vote, got %+v", tally)
	}
	if len(tally.RankedSlotIDs) == 0 || tally.RankedSlotIDs[0] != slotID {
		t.Fatalf("expected voted slot to rank first, got %v", tally.RankedSlotIDs)
	}

	rr = doRequest(server, http.MethodGet, eventPath+"/calendar.ics", "owner", "", nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 before finalize, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doRequest(server, http.MethodPost, eventPath+"/finalize", "ana", `{"slot_id":"`+slotID+`"}`, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-owner finalize, got %d body=%s", rr.Code, rr.Body.String())
	}
	var denied errorResponse
	decodeBody(t, rr, &denied)
	if denied.Kind != "unauthorized" || denied.Code != "not_event_owner" {
		t.Fatalf("unexpected error body %+v", denied)
	}
	rr = doRequest(server, http.MethodPost, eventPath+"/finalize", "owner", `{"slot_id":"`+slotID+`"}`, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var finalized eventhttp.EventResponse
	decodeBody(t, rr, &finalized)
	if finalized.Status != "finalized" || finalized.FinalizedSlotID != slotID {
		t.Fatalf("unexpected finalized event %+v", finalized)
	}

	rr = doRequest(server, http.MethodPost, eventPath+"/votes", "ana", `{"category":"slot","currently_voted":true}`, nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 on locked event, got %d body=%s", rr.Code, rr.Body.String())
	}
	var locked errorResponse
	decodeBody(t, rr, &locked)
	if locked.Kind != "invalid_state" || locked.Code != "event_locked" {
		t.Fatalf("unexpected error body %+v", locked)
	}

	rr = doRequest(server, http.MethodGet, eventPath+"/calendar.ics", "ana", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.HasPrefix(rr.Header().Get("Content-Type"), "text/calendar") || !strings.Contains(rr.Body.String(), "BEGIN:VCALENDAR") {
		t.Fatalf("unexpected calendar response %q", rr.Body.String())
	}

	rr = doRequest(server, http.MethodGet, "/v1/events/nearest", "ana", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doRequest(server, http.MethodPost, eventPath+"/pack-up", "owner", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var packed eventhttp.EventResponse
	decodeBody(t, rr, &packed)
	if !packed.PackedUp {
		t.Fatalf("expected packed up event %+v", packed)
	}

	rr = doRequest(server, http.MethodPost, eventPath+"/reopen", "owner", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var reopened eventhttp.EventResponse
	decodeBody(t, rr, &reopened)
	if reopened.Status != "open" || reopened.PackedUp {
		t.Fatalf("unexpected reopened event %+v", reopened)
	}
}

func TestNearestEventWithoutFinalizedEvents(t *testing.T) {
	server := newTestServer()
	createGroupWithMember(t, server, "owner", "")
	rr := doRequest(server, http.MethodGet, "/v1/events/nearest", "owner", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}
