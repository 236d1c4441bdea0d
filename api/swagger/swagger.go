package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Study Planner API",
        "description": "Study schedule optimization, conflict detection and exam net scoring",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Planner", "description": "Schedule optimization and time blocking"},
        {"name": "Schedules", "description": "Saved schedule versions"},
        {"name": "Preferences", "description": "Learner preferences and commitments"},
        {"name": "Exams", "description": "Net score calculation"}
    ],
    "paths": {
        "/planner/optimize": {
            "post": {
                "tags": ["Planner"],
                "summary": "Optimize a study schedule",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OptimizeRequest"}}
                ],
                "responses": {
                    "200": {"description": "Proposal", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Preferences not set", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "No free slots", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/planner/conflicts": {
            "post": {
                "tags": ["Planner"],
                "summary": "Detect conflicts between a schedule and existing blocks",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ConflictsRequest"}}
                ],
                "responses": {
                    "200": {"description": "Conflicts", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/planner/slots": {
            "post": {
                "tags": ["Planner"],
                "summary": "List free time slots of a horizon",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SlotsRequest"}}
                ],
                "responses": {
                    "200": {"description": "Slots", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/planner/proposals/{id}/save": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Save a proposal as a new schedule version",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/SaveProposalRequest"}}
                ],
                "responses": {
                    "201": {"description": "Saved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Proposal expired or unknown", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Overlaps a stored commitment", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/planner/schedules": {
            "get": {
                "tags": ["Schedules"],
                "summary": "List saved schedules",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "enum": ["DRAFT", "PUBLISHED", "ARCHIVED"]},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/planner/schedules/{id}": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Get a saved schedule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Schedules"],
                "summary": "Delete a saved schedule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/planner/schedules/{id}/export": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Export a saved schedule as CSV",
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "CSV file"}
                }
            }
        },
        "/planner/preferences": {
            "get": {
                "tags": ["Preferences"],
                "summary": "Get stored preferences",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not set", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Preferences"],
                "summary": "Replace stored preferences",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PreferencesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/planner/commitments": {
            "get": {
                "tags": ["Preferences"],
                "summary": "List commitments in a range",
                "parameters": [
                    {"name": "from", "in": "query", "type": "string", "format": "date-time"},
                    {"name": "to", "in": "query", "type": "string", "format": "date-time"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Preferences"],
                "summary": "Register a fixed commitment",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CommitmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exams/score": {
            "post": {
                "tags": ["Exams"],
                "summary": "Score an exam attempt",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScoreExamRequest"}}
                ],
                "responses": {
                    "201": {"description": "Scored", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exams/results": {
            "get": {
                "tags": ["Exams"],
                "summary": "List stored exam results",
                "parameters": [
                    {"name": "subject", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "TimeBlockRequest": {
            "type": "object",
            "required": ["start", "end"],
            "properties": {
                "start": {"type": "string", "format": "date-time"},
                "end": {"type": "string", "format": "date-time"},
                "label": {"type": "string"},
                "priority": {"type": "number", "minimum": 0, "maximum": 1}
            }
        },
        "PreferencesRequest": {
            "type": "object",
            "required": ["maxSessionMinutes", "subjectWeights"],
            "properties": {
                "preferredTimesOfDay": {
                    "type": "array",
                    "items": {"type": "string", "enum": ["early_morning", "morning", "afternoon", "evening", "night"]}
                },
                "energyProfile": {"type": "object", "additionalProperties": {"type": "number"}},
                "maxSessionMinutes": {"type": "integer"},
                "minBreakMinutes": {"type": "integer"},
                "subjectWeights": {"type": "object", "additionalProperties": {"type": "number"}}
            }
        },
        "ConstraintsRequest": {
            "type": "object",
            "required": ["startDate", "dayStart", "dayEnd", "horizonDays"],
            "properties": {
                "startDate": {"type": "string", "format": "date"},
                "timezone": {"type": "string"},
                "dayStart": {"type": "string", "example": "08:00"},
                "dayEnd": {"type": "string", "example": "22:00"},
                "horizonDays": {"type": "integer"},
                "blackoutWindows": {"type": "array", "items": {"$ref": "#/definitions/TimeBlockRequest"}},
                "existingCommitments": {"type": "array", "items": {"$ref": "#/definitions/TimeBlockRequest"}},
                "useStoredCommitments": {"type": "boolean"}
            }
        },
        "OptimizeRequest": {
            "type": "object",
            "properties": {
                "preferences": {"$ref": "#/definitions/PreferencesRequest"},
                "constraints": {"$ref": "#/definitions/ConstraintsRequest"},
                "seed": {"type": "integer", "format": "int64"}
            }
        },
        "ConflictsRequest": {
            "type": "object",
            "required": ["schedule"],
            "properties": {
                "schedule": {"type": "array", "items": {"$ref": "#/definitions/TimeBlockRequest"}},
                "existing": {"type": "array", "items": {"$ref": "#/definitions/TimeBlockRequest"}},
                "useStoredCommitments": {"type": "boolean"}
            }
        },
        "SlotsRequest": {
            "type": "object",
            "properties": {
                "constraints": {"$ref": "#/definitions/ConstraintsRequest"},
                "maxSlotMinutes": {"type": "integer"}
            }
        },
        "SaveProposalRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["DRAFT", "PUBLISHED"]}
            }
        },
        "CommitmentRequest": {
            "type": "object",
            "required": ["label", "start", "end"],
            "properties": {
                "label": {"type": "string"},
                "start": {"type": "string", "format": "date-time"},
                "end": {"type": "string", "format": "date-time"},
                "priority": {"type": "number"}
            }
        },
        "ExamAnswerRequest": {
            "type": "object",
            "properties": {
                "isCorrect": {"type": "boolean"},
                "selectedAnswer": {"type": "string", "x-nullable": true}
            }
        },
        "ScoreExamRequest": {
            "type": "object",
            "required": ["subject"],
            "properties": {
                "subject": {"type": "string"},
                "totalQuestions": {"type": "integer"},
                "answers": {"type": "array", "items": {"$ref": "#/definitions/ExamAnswerRequest"}},
                "wrongPenalty": {"type": "number"}
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
