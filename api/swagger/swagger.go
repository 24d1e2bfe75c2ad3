package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Enrollment Gate API",
        "description": "Eligibility decisions and seat availability for course enrollment forms",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Eligibility", "description": "One-shot enrollment decisions"},
        {"name": "Sessions", "description": "Debounced identity lookups for open forms"},
        {"name": "Availability", "description": "Cached seat availability"},
        {"name": "Submissions", "description": "Final enrollment requests"},
        {"name": "Admin", "description": "Operator controls"}
    ],
    "paths": {
        "/eligibility": {
            "post": {
                "tags": ["Eligibility"],
                "summary": "Evaluate enrollment eligibility",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EligibilityRequest"}}
                ],
                "responses": {
                    "200": {"description": "Decision", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid field", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Applicant records could not be checked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Open a form session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OpenSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Session opened", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}/identity": {
            "put": {
                "tags": ["Sessions"],
                "summary": "Submit identity input",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SessionIdentityRequest"}}
                ],
                "responses": {
                    "200": {"description": "Input too short, no lookup scheduled"},
                    "202": {"description": "Lookup scheduled"},
                    "404": {"description": "Session not found"}
                }
            }
        },
        "/sessions/{id}/decision": {
            "get": {
                "tags": ["Sessions"],
                "summary": "Latest session decision",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Decision or pending", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Session not found"}
                }
            }
        },
        "/sessions/{id}": {
            "delete": {
                "tags": ["Sessions"],
                "summary": "Close a form session",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Closed"}
                }
            }
        },
        "/availability": {
            "get": {
                "tags": ["Availability"],
                "summary": "Seat availability per course type",
                "responses": {
                    "200": {"description": "Snapshot; meta.stale marks data kept after a failed refresh", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/availability/{courseTypeId}/{shift}": {
            "get": {
                "tags": ["Availability"],
                "summary": "Seats left in one shift",
                "parameters": [
                    {"name": "courseTypeId", "in": "path", "required": true, "type": "integer"},
                    {"name": "shift", "in": "path", "required": true, "type": "string", "enum": ["morning", "evening"]}
                ],
                "responses": {
                    "200": {"description": "Seats", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid field", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/submissions": {
            "post": {
                "tags": ["Submissions"],
                "summary": "Submit an enrollment request",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "catalog_key", "in": "formData", "required": true, "type": "string"},
                    {"name": "document_type", "in": "formData", "required": true, "type": "string", "enum": ["national", "foreign"]},
                    {"name": "document_value", "in": "formData", "required": true, "type": "string"},
                    {"name": "schedule_shift", "in": "formData", "required": true, "type": "string", "enum": ["morning", "evening"]},
                    {"name": "first_name", "in": "formData", "type": "string"},
                    {"name": "surname", "in": "formData", "type": "string"},
                    {"name": "email", "in": "formData", "type": "string"},
                    {"name": "phone", "in": "formData", "type": "string"},
                    {"name": "address", "in": "formData", "type": "string"},
                    {"name": "payment_method", "in": "formData", "required": true, "type": "string", "enum": ["transfer", "cash", "card"]},
                    {"name": "receipt_number", "in": "formData", "type": "string"},
                    {"name": "bank", "in": "formData", "type": "string"},
                    {"name": "transfer_date", "in": "formData", "type": "string", "format": "date"},
                    {"name": "receiver_name", "in": "formData", "type": "string"},
                    {"name": "identity_document", "in": "formData", "type": "file"},
                    {"name": "legal_status_document", "in": "formData", "type": "file"},
                    {"name": "payment_proof", "in": "formData", "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Accepted by the enrollment backend", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid field or missing evidence", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Blocked, closed or duplicate receipt", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "413": {"description": "Oversized file", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "415": {"description": "Unsupported file", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/availability/refresh": {
            "post": {
                "tags": ["Admin"],
                "summary": "Force an availability refresh",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Refreshed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized"},
                    "503": {"description": "Refresh failed"}
                }
            }
        },
        "/admin/availability/state": {
            "get": {
                "tags": ["Admin"],
                "summary": "Availability cache state",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "State", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "EligibilityRequest": {
            "type": "object",
            "required": ["catalog_key"],
            "properties": {
                "catalog_key": {"type": "string"},
                "document_type": {"type": "string", "enum": ["national", "foreign"]},
                "document_value": {"type": "string"}
            }
        },
        "OpenSessionRequest": {
            "type": "object",
            "required": ["catalog_key"],
            "properties": {
                "catalog_key": {"type": "string"}
            }
        },
        "SessionIdentityRequest": {
            "type": "object",
            "required": ["document_type"],
            "properties": {
                "document_type": {"type": "string", "enum": ["national", "foreign"]},
                "document_value": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "field": {"type": "string"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
