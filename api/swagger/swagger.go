package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Hostel Facility API",
        "description": "Hostel facility management: complaints, cleaning tasks and electrical tickets",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication and account access"},
        {"name": "Complaints", "description": "Student complaint filing and tracking"},
        {"name": "Warden", "description": "Complaint triage and ticket issuing"},
        {"name": "Cleaner", "description": "Assigned cleaning tasks"},
        {"name": "Electrician", "description": "Electrical ticket resolution"},
        {"name": "Admin", "description": "User management, register and exports"},
        {"name": "Dashboard", "description": "Aggregate complaint and ticket stats"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Register a student account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and obtain tokens",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange a refresh token for a new pair",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Revoke the active refresh token",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/auth/change-password": {
            "post": {
                "tags": ["Auth"],
                "summary": "Change the caller's password",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current user profile",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/complaints": {
            "post": {
                "tags": ["Complaints"],
                "summary": "File a complaint (student)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FileComplaintRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/complaints/my-complaints": {
            "get": {
                "tags": ["Complaints"],
                "summary": "List the caller's complaints",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/warden/complaints": {
            "get": {
                "tags": ["Warden"],
                "summary": "List complaints for triage",
                "parameters": [
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/warden/tickets": {
            "post": {
                "tags": ["Warden"],
                "summary": "Issue a ticket for an electrical complaint",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTicketRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Ticket already exists or complaint closed"}
                }
            }
        },
        "/warden/complaints/{id}/approve-cleaning": {
            "post": {
                "tags": ["Warden"],
                "summary": "Approve a cleaning complaint and assign a cleaner",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "cleanerId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/warden/complaints/{id}/reject": {
            "post": {
                "tags": ["Warden"],
                "summary": "Reject a complaint",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/warden/cleaners": {
            "get": {
                "tags": ["Warden"],
                "summary": "List active cleaners",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/cleaner/tasks": {
            "get": {
                "tags": ["Cleaner"],
                "summary": "List the caller's open cleaning tasks",
                "parameters": [
                    {"name": "cleanerId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Cannot view another cleaner's tasks"}
                }
            }
        },
        "/cleaner/tasks/{id}/complete": {
            "post": {
                "tags": ["Cleaner"],
                "summary": "Mark an assigned task completed",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/electrician/tickets": {
            "get": {
                "tags": ["Electrician"],
                "summary": "List tickets assigned to the caller",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/electrician/tickets/{id}/resolve": {
            "patch": {
                "tags": ["Electrician"],
                "summary": "Resolve an assigned ticket",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/ResolveTicketRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/users": {
            "post": {
                "tags": ["Admin"],
                "summary": "Create a user with any role",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateUserRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "get": {
                "tags": ["Admin"],
                "summary": "List users by role",
                "parameters": [
                    {"name": "role", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/users/all": {
            "get": {
                "tags": ["Admin"],
                "summary": "List all users",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/complaints/all": {
            "get": {
                "tags": ["Admin"],
                "summary": "Full complaint register with tickets",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/complaints/export": {
            "get": {
                "tags": ["Admin"],
                "summary": "Export the complaint register",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        },
        "/admin/perf": {
            "get": {
                "tags": ["Admin"],
                "summary": "Runtime performance snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard/stats": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Complaint and ticket counts",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Complaint": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "student_id": {"type": "string"},
                "assigned_to_id": {"type": "string"},
                "complaint_type": {"type": "string"},
                "location": {"type": "string"},
                "description": {"type": "string"},
                "status": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "Ticket": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "ticket_number": {"type": "string"},
                "complaint_id": {"type": "string"},
                "warden_id": {"type": "string"},
                "assigned_to_id": {"type": "string"},
                "status": {"type": "string"},
                "resolution_notes": {"type": "string"},
                "created_at": {"type": "string"},
                "resolved_at": {"type": "string"}
            }
        },
        "User": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "full_name": {"type": "string"},
                "role": {"type": "string"},
                "active": {"type": "boolean"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "RegisterStudentRequest": {
            "type": "object",
            "required": ["email", "password", "full_name"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "full_name": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "FileComplaintRequest": {
            "type": "object",
            "required": ["complaint_type", "location", "description"],
            "properties": {
                "complaint_type": {"type": "string", "enum": ["CLEANER", "ELECTRICIAN"]},
                "location": {"type": "string"},
                "description": {"type": "string"}
            }
        },
        "CreateTicketRequest": {
            "type": "object",
            "required": ["complaint_id", "electrician_id"],
            "properties": {
                "complaint_id": {"type": "string"},
                "electrician_id": {"type": "string"}
            }
        },
        "ResolveTicketRequest": {
            "type": "object",
            "properties": {
                "resolution_notes": {"type": "string"}
            }
        },
        "CreateUserRequest": {
            "type": "object",
            "required": ["email", "password", "full_name", "role"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "full_name": {"type": "string"},
                "role": {"type": "string", "enum": ["STUDENT", "WARDEN", "CLEANER", "ELECTRICIAN", "ADMIN"]}
            }
        },
        "DashboardStats": {
            "type": "object",
            "properties": {
                "total_complaints": {"type": "integer"},
                "pending_complaints": {"type": "integer"},
                "completed_complaints": {"type": "integer"},
                "open_tickets": {"type": "integer"},
                "resolved_tickets": {"type": "integer"}
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
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
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
