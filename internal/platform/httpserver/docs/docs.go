// Package docs serves the OpenAPI document for the MeetFix API.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "UserID": {"type": "apiKey", "name": "X-User-Id", "in": "header"}
    },
    "security": [{"UserID": []}],
    "paths": {
        "/groups": {
            "get": {"tags": ["groups"], "summary": "List the caller's groups", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["groups"], "summary": "Create a group", "parameters": [{"name": "Idempotency-Key", "in": "header", "required": true, "type": "string"}], "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}
        },
        "/groups/join": {
            "post": {"tags": ["groups"], "summary": "Join a group by invite code", "responses": {"200": {"description": "OK"}, "404": {"description": "Unknown code"}, "409": {"description": "Group full"}}}
        },
        "/groups/{group_id}": {
            "get": {"tags": ["groups"], "summary": "Get a group with members", "responses": {"200": {"description": "OK"}, "403": {"description": "Not a member"}}},
            "patch": {"tags": ["groups"], "summary": "Update a group (owner)", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["groups"], "summary": "Delete a group (owner)", "responses": {"204": {"description": "Deleted"}}}
        },
        "/groups/{group_id}/leave": {
            "post": {"tags": ["groups"], "summary": "Leave a group", "responses": {"204": {"description": "Left"}}}
        },
        "/groups/{group_id}/events": {
            "get": {"tags": ["events"], "summary": "List a group's events", "responses": {"200": {"description": "OK"}}}
        },
        "/events": {
            "post": {"tags": ["events"], "summary": "Create an event with slots and activities", "parameters": [{"name": "Idempotency-Key", "in": "header", "required": true, "type": "string"}], "responses": {"201": {"description": "Created"}}}
        },
        "/events/nearest": {
            "get": {"tags": ["events"], "summary": "Nearest finalized event across the caller's groups", "responses": {"200": {"description": "OK"}, "404": {"description": "None"}}}
        },
        "/events/{event_id}": {
            "get": {"tags": ["events"], "summary": "Event detail with tallies", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["events"], "summary": "Delete an event (owner)", "responses": {"204": {"description": "Deleted"}}}
        },
        "/events/{event_id}/tally": {
            "get": {"tags": ["events"], "summary": "Slot and activity tallies", "responses": {"200": {"description": "OK"}}}
        },
        "/events/{event_id}/calendar.ics": {
            "get": {"tags": ["events"], "summary": "iCalendar export of a finalized event", "produces": ["text/calendar"], "responses": {"200": {"description": "OK"}, "409": {"description": "Not finalized"}}}
        },
        "/events/{event_id}/slots": {
            "post": {"tags": ["events"], "summary": "Add a time slot", "responses": {"201": {"description": "Created"}}}
        },
        "/events/{event_id}/activities": {
            "post": {"tags": ["events"], "summary": "Add an activity", "responses": {"201": {"description": "Created"}}}
        },
        "/events/{event_id}/timeline": {
            "put": {"tags": ["events"], "summary": "Set the caller's dress-up and travel times", "responses": {"200": {"description": "OK"}}}
        },
        "/events/{event_id}/votes": {
            "post": {"tags": ["votes"], "summary": "Toggle a slot or activity vote", "responses": {"200": {"description": "OK"}, "409": {"description": "Event locked"}}}
        },
        "/events/{event_id}/auto-fix": {
            "post": {"tags": ["votes"], "summary": "Vote for the current leaders when the caller has not voted", "responses": {"200": {"description": "OK"}}}
        },
        "/events/{event_id}/finalize": {
            "post": {"tags": ["lifecycle"], "summary": "Finalize an open event (owner)", "responses": {"200": {"description": "OK"}}}
        },
        "/events/{event_id}/pack-up": {
            "post": {"tags": ["lifecycle"], "summary": "Mark a finalized event packed up (owner)", "responses": {"200": {"description": "OK"}}}
        },
        "/events/{event_id}/reopen": {
            "post": {"tags": ["lifecycle"], "summary": "Reopen a finalized event (owner)", "responses": {"200": {"description": "OK"}}}
        },
        "/events/{event_id}/items": {
            "get": {"tags": ["bringlist"], "summary": "List bring items with claims", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["bringlist"], "summary": "Add a bring item", "responses": {"201": {"description": "Created"}}}
        },
        "/items/{item_id}": {
            "delete": {"tags": ["bringlist"], "summary": "Delete a bring item (creator)", "responses": {"204": {"description": "Deleted"}}}
        },
        "/items/{item_id}/claim": {
            "post": {"tags": ["bringlist"], "summary": "Claim a bring item", "responses": {"201": {"description": "Claimed"}, "200": {"description": "Already claimed"}, "409": {"description": "Claim limit reached"}}},
            "delete": {"tags": ["bringlist"], "summary": "Release a claim", "responses": {"204": {"description": "Released"}}}
        },
        "/emoji/suggestions": {
            "get": {"tags": ["bringlist"], "summary": "Suggest emojis for an item name", "parameters": [{"name": "q", "in": "query", "type": "string"}, {"name": "limit", "in": "query", "type": "integer"}], "responses": {"200": {"description": "OK"}}}
        },
        "/notifications": {
            "get": {"tags": ["notifications"], "summary": "Due reminders, newest first", "parameters": [{"name": "limit", "in": "query", "type": "integer"}], "responses": {"200": {"description": "OK"}}}
        },
        "/notifications/unread-count": {
            "get": {"tags": ["notifications"], "summary": "Unread due reminders", "responses": {"200": {"description": "OK"}}}
        },
        "/notifications/read-all": {
            "post": {"tags": ["notifications"], "summary": "Mark every due reminder read", "responses": {"200": {"description": "OK"}}}
        },
        "/notifications/{notification_id}/read": {
            "post": {"tags": ["notifications"], "summary": "Mark one reminder read", "responses": {"204": {"description": "Read"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "MeetFix API",
	Description:      "Group event coordination: voting, finalization, bring lists and reminders.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
