package httpapi

import (
	"net/http"

	"github.com/Guilhem-Bonnet/bookclub/internal/httpjson"
)

// handleOpenAPI renvoie une description OpenAPI minimale de l'API.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	jsonOK := func(schemaRef string) map[string]any {
		return map[string]any{
			"description": "OK",
			"content": map[string]any{
				"application/json": map[string]any{
					"schema": map[string]any{"$ref": schemaRef},
				},
			},
		}
	}
	jsonBody := func(schemaRef string) map[string]any {
		return map[string]any{
			"required": true,
			"content": map[string]any{
				"application/json": map[string]any{
					"schema": map[string]any{"$ref": schemaRef},
				},
			},
		}
	}
	jsonErr := map[string]any{
		"description": "Error",
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{"$ref": "#/components/schemas/Error"},
			},
		},
	}
	noContent := map[string]any{"description": "No Content"}
	str := map[string]any{"type": "string"}
	date := map[string]any{"type": "string", "format": "date", "example": "2025-03-15"}
	ref := func(name string) map[string]any { return map[string]any{"$ref": "#/components/schemas/" + name} }
	arrayOf := func(name string) map[string]any { return map[string]any{"type": "array", "items": ref(name)} }

	entry := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"date":       date,
			"bookName":   map[string]any{"type": "string", "example": "第12期 百年孤独"},
			"leaderName": str,
			"hostName":   str,
			"period":     map[string]any{"type": "integer"},
		},
		"required": []any{"date", "bookName"},
	}

	spec := map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "Bookclub API",
			"version": "v1",
		},
		"components": map[string]any{
			"schemas": map[string]any{
				"OpenAPIDocument": map[string]any{"type": "object", "additionalProperties": true},
				"Error": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"error": str,
						"code":  map[string]any{"type": "string", "example": "date_taken"},
					},
					"required": []any{"error"},
				},
				"ScheduleEntry": entry,
				"Schedule": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"lastUpdated": map[string]any{"type": "string", "format": "date-time"},
						"schedule":    arrayOf("ScheduleEntry"),
					},
				},
				"Leader": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":   str,
						"title":  str,
						"intro":  str,
						"isHost": map[string]any{"type": "boolean"},
					},
					"required": []any{"name"},
				},
				"Conflict": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"local":  ref("ScheduleEntry"),
						"remote": ref("ScheduleEntry"),
						"fields": map[string]any{"type": "array", "items": str},
					},
				},
				"DiffResult": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"localOnly":  arrayOf("ScheduleEntry"),
						"remoteOnly": arrayOf("ScheduleEntry"),
						"conflicts":  arrayOf("Conflict"),
						"warnings":   map[string]any{"type": "array", "items": str},
					},
				},
				"SyncReport": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":           str,
						"direction":    map[string]any{"type": "string", "enum": []any{"push", "push-upsert", "pull"}},
						"results":      map[string]any{"type": "array", "items": map[string]any{"type": "object", "additionalProperties": true}},
						"totalCreated": map[string]any{"type": "integer"},
						"totalUpdated": map[string]any{"type": "integer"},
						"totalErrors":  map[string]any{"type": "integer"},
						"refreshed":    map[string]any{"type": "boolean"},
						"refreshError": str,
						"dropped":      arrayOf("ScheduleEntry"),
					},
				},
				"SyncRun": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":         str,
						"direction":  str,
						"state":      map[string]any{"type": "string", "enum": []any{"completed", "partial", "failed"}},
						"created":    map[string]any{"type": "integer"},
						"updated":    map[string]any{"type": "integer"},
						"failed":     map[string]any{"type": "integer"},
						"startedAt":  map[string]any{"type": "string", "format": "date-time"},
						"finishedAt": map[string]any{"type": "string", "format": "date-time"},
						"report":     ref("SyncReport"),
					},
				},
				"Settings": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"roomNumber":       str,
						"wechatLink":       str,
						"refreshAfterPush": map[string]any{"type": "boolean"},
					},
					"additionalProperties": false,
				},
				"InvitationRequest": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"date":       date,
						"period":     map[string]any{"type": "integer"},
						"bookName":   str,
						"bookIntro":  str,
						"leaderName": str,
						"roomNumber": str,
						"wechatLink": str,
					},
				},
				"InvitationResponse": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"invitation": map[string]any{"type": "object", "additionalProperties": true},
						"params":     ref("InvitationRequest"),
						"text":       str,
						"fileName":   map[string]any{"type": "string", "example": "邀请函-12-2025-03-15.txt"},
					},
				},
				"Object": map[string]any{"type": "object", "additionalProperties": true},
			},
		},
		"paths": map[string]any{
			"/api/v1/health": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": map[string]any{"description": "OK"}}},
			},
			"/api/v1/version": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": map[string]any{"description": "OK"}}},
			},
			"/api/v1/openapi.json": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": jsonOK("#/components/schemas/OpenAPIDocument")}},
			},
			"/api/v1/events": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": map[string]any{"description": "SSE"}}},
			},
			"/api/v1/notion/ws": map[string]any{
				"get": map[string]any{
					"description": "WebSocket: GET_PAGE {pageId} -> PAGE_DATA, UPDATE_PAGE {pageId, properties} -> PAGE_UPDATED, sinon ERROR.",
					"responses": map[string]any{
						"101": map[string]any{"description": "Switching Protocols"},
						"503": jsonErr,
					},
				},
			},
			"/api/v1/fields": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": jsonOK("#/components/schemas/Object"), "500": jsonErr}},
			},
			"/api/v1/leaders": map[string]any{
				"get": map[string]any{
					"parameters": []any{
						map[string]any{"name": "q", "in": "query", "schema": str},
						map[string]any{"name": "hosts", "in": "query", "schema": map[string]any{"type": "boolean"}},
					},
					"responses": map[string]any{"200": map[string]any{"description": "OK"}, "500": jsonErr},
				},
				"post": map[string]any{
					"requestBody": jsonBody("#/components/schemas/Leader"),
					"responses":   map[string]any{"201": jsonOK("#/components/schemas/Leader"), "400": jsonErr, "409": jsonErr},
				},
			},
			"/api/v1/leaders/{name}": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": jsonOK("#/components/schemas/Leader"), "404": jsonErr}},
				"put": map[string]any{
					"requestBody": jsonBody("#/components/schemas/Leader"),
					"responses":   map[string]any{"200": jsonOK("#/components/schemas/Leader"), "400": jsonErr, "404": jsonErr, "409": jsonErr},
				},
				"delete": map[string]any{"responses": map[string]any{"204": noContent, "404": jsonErr}},
			},
			"/api/v1/schedules": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": jsonOK("#/components/schemas/Schedule"), "500": jsonErr}},
				"post": map[string]any{
					"requestBody": jsonBody("#/components/schemas/ScheduleEntry"),
					"responses":   map[string]any{"201": jsonOK("#/components/schemas/ScheduleEntry"), "400": jsonErr, "409": jsonErr},
				},
			},
			"/api/v1/schedules/latest": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": jsonOK("#/components/schemas/ScheduleEntry"), "404": jsonErr}},
			},
			"/api/v1/schedules/{date}": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": jsonOK("#/components/schemas/ScheduleEntry"), "404": jsonErr}},
				"put": map[string]any{
					"requestBody": jsonBody("#/components/schemas/ScheduleEntry"),
					"responses":   map[string]any{"200": jsonOK("#/components/schemas/ScheduleEntry"), "400": jsonErr, "404": jsonErr, "409": jsonErr},
				},
				"delete": map[string]any{"responses": map[string]any{"204": noContent, "404": jsonErr}},
			},
			"/api/v1/schedules/diff": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": jsonOK("#/components/schemas/DiffResult"), "503": jsonErr}},
			},
			"/api/v1/schedules/validation": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": jsonOK("#/components/schemas/Object"), "500": jsonErr}},
			},
			"/api/v1/schedules/analysis": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": jsonOK("#/components/schemas/Object"), "500": jsonErr}},
			},
			"/api/v1/schedules/sync": map[string]any{
				"post": map[string]any{
					"parameters": []any{
						map[string]any{"name": "mode", "in": "query", "schema": map[string]any{"type": "string", "enum": []any{"diff", "upsert"}}},
						map[string]any{"name": "refresh", "in": "query", "schema": map[string]any{"type": "boolean"}},
					},
					"responses": map[string]any{"200": jsonOK("#/components/schemas/SyncReport"), "400": jsonErr, "503": jsonErr},
				},
			},
			"/api/v1/schedules/pull": map[string]any{
				"post": map[string]any{
					"parameters": []any{
						map[string]any{"name": "confirm", "in": "query", "required": true, "schema": map[string]any{"type": "boolean"}},
					},
					"responses": map[string]any{"200": jsonOK("#/components/schemas/SyncReport"), "428": jsonErr, "503": jsonErr},
				},
			},
			"/api/v1/sync-runs": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": map[string]any{"description": "OK"}, "500": jsonErr}},
			},
			"/api/v1/sync-runs/{id}": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": jsonOK("#/components/schemas/SyncRun"), "404": jsonErr}},
			},
			"/api/v1/settings": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": jsonOK("#/components/schemas/Settings"), "500": jsonErr}},
				"put": map[string]any{
					"requestBody": jsonBody("#/components/schemas/Settings"),
					"responses":   map[string]any{"200": jsonOK("#/components/schemas/Settings"), "400": jsonErr, "500": jsonErr},
				},
			},
			"/api/v1/invitations": map[string]any{
				"post": map[string]any{
					"requestBody": jsonBody("#/components/schemas/InvitationRequest"),
					"responses":   map[string]any{"200": jsonOK("#/components/schemas/InvitationResponse"), "400": jsonErr, "404": jsonErr},
				},
			},
		},
	}

	httpjson.Write(w, http.StatusOK, spec)
}
