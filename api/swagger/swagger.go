package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "ClassTrack API",
        "description": "Per-user subject attendance ledger with reminders",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Registration and login"},
        {"name": "Attendance", "description": "Subject ledger and summaries"},
        {"name": "Reminders", "description": "Scheduled reminder emails"}
    ],
    "paths": {
        "/auth/send-otp": {
            "post": {
                "tags": ["Auth"],
                "summary": "Send a registration OTP",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SendOTPRequest"}}],
                "responses": {"200": {"description": "OTP sent"}, "400": {"description": "Email already registered"}}
            }
        },
        "/auth/verify-otp": {
            "post": {
                "tags": ["Auth"],
                "summary": "Verify a registration OTP",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/VerifyOTPRequest"}}],
                "responses": {"204": {"description": "Verified"}, "400": {"description": "Invalid or expired OTP"}}
            }
        },
        "/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Register a new account",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}],
                "responses": {"201": {"description": "Account created"}, "400": {"description": "Validation or OTP failure"}}
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate with email and password",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {"200": {"description": "Authenticated"}, "401": {"description": "Invalid credentials"}}
            }
        },
        "/attendance/subjects": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Add a subject",
                "responses": {"201": {"description": "Subject added"}, "409": {"description": "Subject already exists"}}
            }
        },
        "/attendance/subjects/{subject}": {
            "delete": {
                "tags": ["Attendance"],
                "summary": "Delete a subject and all its records",
                "parameters": [{"name": "subject", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Deleted"}, "404": {"description": "Not found"}, "500": {"description": "Deletion verification failed"}}
            }
        },
        "/attendance/mark": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Mark attendance for a subject on a date",
                "responses": {"200": {"description": "Marked"}}
            }
        },
        "/attendance/records/{subject}/{date}": {
            "delete": {
                "tags": ["Attendance"],
                "summary": "Reset attendance for a date",
                "parameters": [
                    {"name": "subject", "in": "path", "required": true, "type": "string"},
                    {"name": "date", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {"204": {"description": "Reset"}, "404": {"description": "No records for this date"}}
            }
        },
        "/attendance/records": {
            "get": {
                "tags": ["Attendance"],
                "summary": "List expanded attendance records",
                "responses": {"200": {"description": "Records"}}
            }
        },
        "/attendance/summary": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Per-subject summary with percentage and history",
                "responses": {"200": {"description": "Summaries"}}
            }
        },
        "/attendance/summary/export": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Export the summary as CSV or PDF",
                "parameters": [{"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}],
                "responses": {"200": {"description": "File download"}}
            }
        },
        "/reminders": {
            "get": {
                "tags": ["Reminders"],
                "summary": "List reminders",
                "responses": {"200": {"description": "Reminders"}}
            },
            "post": {
                "tags": ["Reminders"],
                "summary": "Schedule a reminder",
                "responses": {"201": {"description": "Reminder created"}}
            }
        },
        "/reminders/{id}": {
            "delete": {
                "tags": ["Reminders"],
                "summary": "Delete a reminder",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/reminders/send": {
            "post": {
                "tags": ["Reminders"],
                "summary": "Send one reminder email immediately",
                "responses": {"204": {"description": "Sent"}}
            }
        },
        "/reminders/trigger-daily": {
            "post": {
                "tags": ["Reminders"],
                "summary": "Run the daily dispatch immediately",
                "responses": {"200": {"description": "Dispatch result"}}
            }
        }
    },
    "definitions": {
        "SendOTPRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}}
        },
        "VerifyOTPRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "otp": {"type": "string"}}
        },
        "RegisterRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "usn": {"type": "string"},
                "branch": {"type": "string"},
                "section": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "password": {"type": "string"},
                "otp": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
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
