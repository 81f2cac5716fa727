package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "School Report API",
        "description": "Staff reporting backend: per-period teacher reports, homework quotas, principal dashboard",
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
        {"name": "Authentication", "description": "Login, refresh and password management"},
        {"name": "Reports", "description": "Per-period teacher report lifecycle"},
        {"name": "Dashboard", "description": "Principal oversight and approvals"},
        {"name": "Homework", "description": "Class homework quota and summaries"},
        {"name": "Notifications", "description": "Homework lifecycle notifications"},
        {"name": "Teachers", "description": "Staff onboarding and profiles"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "responses": {
                    "200": {"description": "Token pair issued"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "responses": {
                    "200": {"description": "New token pair"},
                    "401": {"description": "Expired or revoked token"}
                }
            }
        },
        "/auth/change-password": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Change password",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "Password updated"}
                }
            }
        },
        "/teacher-report/create": {
            "post": {
                "tags": ["Reports"],
                "summary": "Create a period report",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Report created"},
                    "409": {"description": "Duplicate period or quota exceeded"}
                }
            }
        },
        "/teacher-report/{id}": {
            "put": {
                "tags": ["Reports"],
                "summary": "Update an owned report",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Report updated, status reset to pending"},
                    "404": {"description": "Not found or not owned"}
                }
            }
        },
        "/teacher-report": {
            "get": {
                "tags": ["Reports"],
                "summary": "List today's reports with reference lists",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Reports, subjects and classes"}
                }
            }
        },
        "/teacher-reports": {
            "get": {
                "tags": ["Reports"],
                "summary": "List reports for a date",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Reports for the day"},
                    "400": {"description": "Invalid date"}
                }
            }
        },
        "/teacher-reports/export": {
            "get": {
                "tags": ["Reports"],
                "summary": "Export a day's reports as CSV or PDF",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Rendered file"}
                }
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Load dashboard sections",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Requested sections"}
                }
            },
            "post": {
                "tags": ["Dashboard"],
                "summary": "Approve or reject a report",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Status transitioned"}
                }
            }
        },
        "/homework/count/{classId}": {
            "get": {
                "tags": ["Homework"],
                "summary": "Today's homework count for a class",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Count, limit and headroom"}
                }
            }
        },
        "/classes/{id}/homework-summary": {
            "get": {
                "tags": ["Homework"],
                "summary": "Class homework summary for today",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Aggregated summary"}
                }
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List own notifications",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Notifications with unread count"}
                }
            }
        },
        "/notifications/{id}/read": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Mark a notification read",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "Marked read"}
                }
            }
        },
        "/notifications/read-all": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Mark all notifications read",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "All marked read"}
                }
            }
        },
        "/teachers": {
            "post": {
                "tags": ["Teachers"],
                "summary": "Onboard a teacher",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Teacher created"},
                    "409": {"description": "Duplicate username or teacher code"}
                }
            }
        },
        "/profile": {
            "get": {
                "tags": ["Teachers"],
                "summary": "Role-dependent profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Roster or approved-report count"}
                }
            }
        }
    },
    "definitions": {
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
