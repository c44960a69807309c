package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "School Insights API",
        "description": "Ranked analytics reports over school operational data",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Analytics", "description": "Ranked trend reports per domain"},
        {"name": "Exports", "description": "CSV/PDF report downloads"},
        {"name": "System", "description": "Health and instrumentation"}
    ],
    "paths": {
        "/analytics/attendance": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Ranked per-class attendance report",
                "parameters": [
                    {"name": "tenant_id", "in": "query", "type": "string"},
                    {"name": "academic_year_id", "in": "query", "type": "string"},
                    {"name": "start_date", "in": "query", "type": "string", "format": "date"},
                    {"name": "end_date", "in": "query", "type": "string", "format": "date"},
                    {"name": "class_id", "in": "query", "type": "string"},
                    {"name": "student_id", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid parameters"}
                }
            }
        },
        "/analytics/fees": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Ranked per-student fee dues report",
                "parameters": [
                    {"name": "tenant_id", "in": "query", "type": "string"},
                    {"name": "academic_year_id", "in": "query", "type": "string"},
                    {"name": "start_date", "in": "query", "type": "string", "format": "date"},
                    {"name": "end_date", "in": "query", "type": "string", "format": "date"},
                    {"name": "class_id", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/analytics/academics": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Ranked student+subject performance report",
                "parameters": [
                    {"name": "tenant_id", "in": "query", "type": "string"},
                    {"name": "academic_year_id", "in": "query", "type": "string"},
                    {"name": "start_date", "in": "query", "type": "string", "format": "date"},
                    {"name": "end_date", "in": "query", "type": "string", "format": "date"},
                    {"name": "class_id", "in": "query", "type": "string"},
                    {"name": "subject_id", "in": "query", "type": "string"},
                    {"name": "student_id", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/analytics/tasks": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Ranked per-task completion report",
                "parameters": [
                    {"name": "tenant_id", "in": "query", "type": "string"},
                    {"name": "academic_year_id", "in": "query", "type": "string"},
                    {"name": "start_date", "in": "query", "type": "string", "format": "date"},
                    {"name": "end_date", "in": "query", "type": "string", "format": "date"},
                    {"name": "class_id", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/analytics/syllabus": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Ranked class+subject syllabus coverage report",
                "parameters": [
                    {"name": "tenant_id", "in": "query", "type": "string"},
                    {"name": "academic_year_id", "in": "query", "type": "string"},
                    {"name": "start_date", "in": "query", "type": "string", "format": "date"},
                    {"name": "end_date", "in": "query", "type": "string", "format": "date"},
                    {"name": "class_id", "in": "query", "type": "string"},
                    {"name": "subject_id", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/analytics/operations": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Ranked teacher load report",
                "parameters": [
                    {"name": "tenant_id", "in": "query", "type": "string"},
                    {"name": "academic_year_id", "in": "query", "type": "string"},
                    {"name": "start_date", "in": "query", "type": "string", "format": "date"},
                    {"name": "end_date", "in": "query", "type": "string", "format": "date"},
                    {"name": "teacher_id", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/analytics/system": {
            "get": {
                "tags": ["System"],
                "summary": "Instrumentation snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/analytics/cache": {
            "delete": {
                "tags": ["Analytics"],
                "summary": "Flush cached reports so the next request recomputes them",
                "parameters": [
                    {"name": "domain", "in": "query", "type": "string", "enum": ["attendance", "fees", "academics", "tasks", "syllabus", "operations"]}
                ],
                "responses": {
                    "204": {"description": "Cache flushed"},
                    "404": {"description": "Unknown domain"}
                }
            }
        },
        "/analytics/{domain}/export": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a ranked report as CSV or PDF",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "domain", "in": "path", "required": true, "type": "string", "enum": ["attendance", "fees", "academics", "tasks", "syllabus", "operations"]},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "tenant_id", "in": "query", "type": "string"},
                    {"name": "academic_year_id", "in": "query", "type": "string"},
                    {"name": "start_date", "in": "query", "type": "string", "format": "date"},
                    {"name": "end_date", "in": "query", "type": "string", "format": "date"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "File download"},
                    "403": {"description": "Exports disabled"},
                    "404": {"description": "Unknown domain"}
                }
            }
        }
    },
    "definitions": {
        "Trend": {
            "type": "object",
            "properties": {
                "direction": {"type": "string", "enum": ["up", "down", "flat"]},
                "delta": {"type": "number"}
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
