package httpserver

import (
	"net/http"
	"testing"

	bringlisthttp "meetfix/contexts/event-coordination/bringlist-service/transport/http"
)

func TestClaimRespectsMaxQuantity(t *testing.T) {
	server := newTestServer()
	group := createGroupWithMember(t, server, "owner", "ana")
	created := createEvent(t, server, "owner", group.Group.GroupID)
	itemsPath := "/v1/events/" + created.Event.EventID + "/items"

	rr := doRequest(server, http.MethodPost, itemsPath, "ana", `{"name":"Chips","max_quantity":1}`, nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var item bringlisthttp.ItemResponse
	decodeBody(t, rr, &item)
	if item.Emoji == "" || item.MaxQuantity != 1 {
		t.Fatalf("unexpected item %+v", item)
	}
	claimPath := "/v1/items/" + item.ItemID + "/claim"

	rr = doRequest(server, http.MethodPost, claimPath, "ana", "", nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	rr = doRequest(server, http.MethodPost, claimPath, "ana", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on repeated claim, got %d body=%s", rr.Code, rr.Body.String())
	}
	rr = doRequest(server, http.MethodPost, claimPath, "owner", "", nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}
	var conflict errorResponse
	decodeBody(t, rr, &conflict)
	if conflict.Code != "claim_limit_reached" {
		t.Fatalf("unexpected error code %q", conflict.Code)
	}

	rr = doRequest(server, http.MethodDelete, claimPath, "ana", "", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d body=%s", rr.Code, rr.Body.String())
	}
	rr = doRequest(server, http.MethodPost, claimPath, "owner", "", nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 after release, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doRequest(server, http.MethodGet, itemsPath, "ana", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var list bringlisthttp.ListItemsResponse
	decodeBody(t, rr, &list)
	if len(list.Items) != 1 || list.Items[0].ClaimCount != 1 || list.Items[0].ClaimedByMe || list.Items[0].Remaining != 0 {
		t.Fatalf("unexpected item list %+v", list.Items)
	}
}

func TestDeleteItemOnlyByCreator(t *testing.T) {
	server := newTestServer()
	group := createGroupWithMember(t, server, "owner", "ana")
	created := createEvent(t, server, "owner", group.Group.GroupID)

	rr := doRequest(server, http.MethodPost, "/v1/events/"+created.Event.EventID+"/items", "ana", `{"name":"Cups"}`, nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var item bringlisthttp.ItemResponse
	decodeBody(t, rr, &item)

	rr = doRequest(server, http.MethodDelete, "/v1/items/"+item.ItemID, "owner", "", nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
	rr = doRequest(server, http.MethodDelete, "/v1/items/"+item.ItemID, "ana", "", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d body=%s", rr.Code, rr.Body.String())
	}
	rr = doRequest(server, http.MethodPost, "/v1/items/"+item.ItemID+"/claim", "ana", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestItemsForUnknownEvent(t *testing.T) {
	server := newTestServer()
	rr := doRequest(server, http.MethodGet, "/v1/events/missing/items", "owner", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestEmojiSuggestions(t *testing.T) {
	server := newTestServer()
	rr := doRequest(server, http.MethodGet, "/v1/emoji/suggestions?q=piz&limit=3", "", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp bringlisthttp.SuggestEmojiResponse
	decodeBody(t, rr, &resp)
	if len(resp.Items) == 0 || resp.Items[0].Keyword != "pizza" {
		t.Fatalf("unexpected suggestions %+v", resp.Items)
	}

	rr = doRequest(server, http.MethodGet, "/v1/emoji/suggestions?q=piz&limit=many", "", "", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}
