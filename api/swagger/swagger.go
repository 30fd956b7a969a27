package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Exam Registration API",
        "description": "Students reserve exam time slots; staff manage the roster.",
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
        {"name": "Authentication", "description": "Login, logout and current principal"},
        {"name": "Reservations", "description": "Exam slot reservations"},
        {"name": "Accounts", "description": "Staff account provisioning"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate account",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token issued", "schema": {"$ref": "#/definitions/Envelope"}},
                    "400": {"description": "Email is not a CSN address", "schema": {"$ref": "#/definitions/Envelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/Envelope"}},
                    "429": {"description": "Too many attempts", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Revoke the presented token",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "Revoked"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current account",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/catalog": {
            "get": {
                "tags": ["Reservations"],
                "summary": "Exam types, time slots and limits",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/slots/availability": {
            "get": {
                "tags": ["Reservations"],
                "summary": "Occupancy per time slot",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/reservations": {
            "get": {
                "tags": ["Reservations"],
                "summary": "Reservation roster (staff)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "account_id", "type": "string"},
                    {"in": "query", "name": "exam_type", "type": "string"},
                    {"in": "query", "name": "time_slot", "type": "string"},
                    {"in": "query", "name": "page", "type": "integer"},
                    {"in": "query", "name": "page_size", "type": "integer"},
                    {"in": "query", "name": "sort_by", "type": "string"},
                    {"in": "query", "name": "sort_order", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}},
                    "403": {"description": "Staff only", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            },
            "post": {
                "tags": ["Reservations"],
                "summary": "Reserve an exam slot",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/SubmitReservationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Reserved", "schema": {"$ref": "#/definitions/Envelope"}},
                    "400": {"description": "INVALID_EXAM_TYPE or INVALID_TIME_SLOT", "schema": {"$ref": "#/definitions/Envelope"}},
                    "409": {"description": "DUPLICATE_RESERVATION or SLOT_FULL", "schema": {"$ref": "#/definitions/Envelope"}},
                    "422": {"description": "EXAM_DIVERSITY_EXCEEDED", "schema": {"$ref": "#/definitions/Envelope"}},
                    "500": {"description": "PERSISTENCE_FAILURE", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/reservations/me": {
            "get": {
                "tags": ["Reservations"],
                "summary": "My reservations",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/reservations/quota": {
            "get": {
                "tags": ["Reservations"],
                "summary": "My exam diversity quota",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/reservations/export": {
            "get": {
                "tags": ["Reservations"],
                "summary": "Download roster as CSV or PDF (staff)",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"in": "query", "name": "format", "type": "string", "enum": ["csv", "pdf"]},
                    {"in": "query", "name": "exam_type", "type": "string"},
                    {"in": "query", "name": "time_slot", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Staff only", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/reservations/{id}": {
            "delete": {
                "tags": ["Reservations"],
                "summary": "Cancel a reservation",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Cancelled"},
                    "403": {"description": "UNAUTHORIZED", "schema": {"$ref": "#/definitions/Envelope"}},
                    "404": {"description": "NOT_FOUND", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/accounts": {
            "get": {
                "tags": ["Accounts"],
                "summary": "List accounts (staff)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "is_staff", "type": "boolean"},
                    {"in": "query", "name": "search", "type": "string"},
                    {"in": "query", "name": "page", "type": "integer"},
                    {"in": "query", "name": "page_size", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            },
            "post": {
                "tags": ["Accounts"],
                "summary": "Provision account (staff)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/CreateAccountRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Envelope"}},
                    "409": {"description": "Email or NSHE ID taken", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string", "example": "1234567890@student.csn.edu"},
                "password": {"type": "string"}
            }
        },
        "SubmitReservationRequest": {
            "type": "object",
            "required": ["exam_type", "time_slot"],
            "properties": {
                "exam_type": {"type": "string", "example": "MATH"},
                "time_slot": {"type": "string", "example": "09:00"}
            }
        },
        "CreateAccountRequest": {
            "type": "object",
            "required": ["nshe_id", "first_name", "last_name", "email", "password"],
            "properties": {
                "nshe_id": {"type": "string", "example": "1234567890"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "is_staff": {"type": "boolean"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "Envelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
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
