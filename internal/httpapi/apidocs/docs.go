// Package apidocs registers the swagger description of the HTTP API with swag.
package apidocs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {"name": "MIT", "url": "https://opensource.org/licenses/MIT"},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/status": {
            "get": {
                "produces": ["application/json"],
                "summary": "Coordinator state and registration slots",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}}
            }
        },
        "/update": {
            "post": {
                "produces": ["application/json"],
                "summary": "Ask the waiting worker to activate",
                "responses": {
                    "200": {"description": "Nothing to activate", "schema": {"$ref": "#/definitions/types.UpdateResponse"}},
                    "202": {"description": "Activation message sent", "schema": {"$ref": "#/definitions/types.UpdateResponse"}},
                    "500": {"description": "Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/check": {
            "post": {
                "produces": ["application/json"],
                "summary": "Re-read the worker script and install a new candidate if it changed",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.CheckResponse"}},
                    "404": {"description": "Script not found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/events": {
            "get": {
                "produces": ["application/json"],
                "summary": "Recent coordinator events, newest first",
                "parameters": [{"type": "integer", "name": "limit", "in": "query"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.EventsResponse"}},
                    "400": {"description": "Bad limit", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/healthz": {"get": {"summary": "Liveness", "responses": {"200": {"description": "ok"}}}},
        "/readyz": {"get": {"summary": "Readiness", "responses": {"200": {"description": "ready"}, "503": {"description": "registering"}}}}
    },
    "definitions": {
        "types.WorkerStatus": {
            "type": "object",
            "properties": {"id": {"type": "string"}, "state": {"type": "string"}}
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "phase": {"type": "string", "example": "update_detected"},
                "update_available": {"type": "boolean"},
                "reloaded": {"type": "boolean"},
                "detections": {"type": "integer"},
                "script_url": {"type": "string"},
                "controller": {"$ref": "#/definitions/types.WorkerStatus"},
                "active": {"$ref": "#/definitions/types.WorkerStatus"},
                "installing": {"$ref": "#/definitions/types.WorkerStatus"},
                "waiting": {"$ref": "#/definitions/types.WorkerStatus"},
                "uptime_seconds": {"type": "integer"},
                "server_time_unix": {"type": "integer"}
            }
        },
        "types.UpdateResponse": {
            "type": "object",
            "properties": {"sent": {"type": "boolean"}, "phase": {"type": "string"}}
        },
        "types.CheckResponse": {
            "type": "object",
            "properties": {"installed": {"type": "boolean"}, "worker_id": {"type": "string"}, "digest": {"type": "string"}}
        },
        "types.EventRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "worker_id": {"type": "string"},
                "fields": {"type": "object"},
                "at_unix_ms": {"type": "integer"}
            }
        },
        "types.EventsResponse": {
            "type": "object",
            "properties": {"events": {"type": "array", "items": {"$ref": "#/definitions/types.EventRecord"}}}
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}, "code": {"type": "integer"}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "swupdate API",
	Description:      "Worker update detection and activation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
