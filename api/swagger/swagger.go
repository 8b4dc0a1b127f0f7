package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Gym Ops API",
        "description": "Event validation, monthly compliance and portal collection for a gym franchise.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "AdminSession": {
            "type": "apiKey",
            "in": "header",
            "name": "Authorization",
            "description": "Bearer token from /admin/unlock"
        }
    },
    "tags": [
        {
            "name": "Admin"
        },
        {
            "name": "Gyms"
        },
        {
            "name": "Events"
        },
        {
            "name": "Audit"
        },
        {
            "name": "Validation"
        },
        {
            "name": "Rules"
        },
        {
            "name": "Compliance"
        },
        {
            "name": "Requirements"
        },
        {
            "name": "Collector"
        },
        {
            "name": "System"
        }
    ],
    "paths": {
        "/admin/unlock": {
            "post": {
                "tags": [
                    "Admin"
                ],
                "summary": "Unlock admin mode with the PIN",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UnlockRequest"
                        }
                    }
                ]
            }
        },
        "/gyms": {
            "get": {
                "tags": [
                    "Gyms"
                ],
                "summary": "List gyms",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/events": {
            "get": {
                "tags": [
                    "Events"
                ],
                "summary": "List events",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "query",
                        "name": "gym_id",
                        "type": "string",
                        "description": "",
                        "required": false
                    },
                    {
                        "in": "query",
                        "name": "type",
                        "type": "string",
                        "description": "",
                        "required": false
                    },
                    {
                        "in": "query",
                        "name": "month",
                        "type": "string",
                        "description": "Month (YYYY-MM), defaults to the current month",
                        "required": false
                    },
                    {
                        "in": "query",
                        "name": "page",
                        "type": "integer",
                        "description": "",
                        "required": false
                    },
                    {
                        "in": "query",
                        "name": "page_size",
                        "type": "integer",
                        "description": "",
                        "required": false
                    }
                ]
            },
            "post": {
                "tags": [
                    "Events"
                ],
                "summary": "Create event",
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "401": {
                        "description": "Admin session required",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/EventRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "AdminSession": []
                    }
                ]
            }
        },
        "/events/import": {
            "post": {
                "tags": [
                    "Events"
                ],
                "summary": "Import events atomically",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "401": {
                        "description": "Admin session required",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ImportEventsRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "AdminSession": []
                    }
                ]
            }
        },
        "/events/{id}": {
            "get": {
                "tags": [
                    "Events"
                ],
                "summary": "Get event",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true,
                        "description": ""
                    }
                ]
            },
            "put": {
                "tags": [
                    "Events"
                ],
                "summary": "Update event",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "401": {
                        "description": "Admin session required",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true,
                        "description": ""
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UpdateEventRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "AdminSession": []
                    }
                ]
            },
            "delete": {
                "tags": [
                    "Events"
                ],
                "summary": "Delete event",
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "401": {
                        "description": "Admin session required",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true,
                        "description": ""
                    }
                ],
                "security": [
                    {
                        "AdminSession": []
                    }
                ]
            }
        },
        "/events/{id}/audit": {
            "get": {
                "tags": [
                    "Audit"
                ],
                "summary": "Audit history of one event",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true,
                        "description": ""
                    },
                    {
                        "in": "query",
                        "name": "limit",
                        "type": "integer",
                        "description": "",
                        "required": false
                    }
                ]
            }
        },
        "/audit": {
            "get": {
                "tags": [
                    "Audit"
                ],
                "summary": "Recent audit entries",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "query",
                        "name": "gym_id",
                        "type": "string",
                        "description": "",
                        "required": false
                    },
                    {
                        "in": "query",
                        "name": "limit",
                        "type": "integer",
                        "description": "",
                        "required": false
                    }
                ]
            }
        },
        "/validation": {
            "get": {
                "tags": [
                    "Validation"
                ],
                "summary": "Validation report for a gym month",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "query",
                        "name": "gym_id",
                        "type": "string",
                        "description": "",
                        "required": true
                    },
                    {
                        "in": "query",
                        "name": "month",
                        "type": "string",
                        "description": "Month (YYYY-MM), defaults to the current month",
                        "required": false
                    }
                ]
            }
        },
        "/rules": {
            "get": {
                "tags": [
                    "Rules"
                ],
                "summary": "List validation rules",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "query",
                        "name": "include_expired",
                        "type": "boolean",
                        "description": "",
                        "required": false
                    }
                ]
            },
            "post": {
                "tags": [
                    "Rules"
                ],
                "summary": "Create validation rule",
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "401": {
                        "description": "Admin session required",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/RuleRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "AdminSession": []
                    }
                ]
            }
        },
        "/rules/{id}": {
            "put": {
                "tags": [
                    "Rules"
                ],
                "summary": "Replace validation rule",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "401": {
                        "description": "Admin session required",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true,
                        "description": ""
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/RuleRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "AdminSession": []
                    }
                ]
            },
            "delete": {
                "tags": [
                    "Rules"
                ],
                "summary": "Delete validation rule",
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "401": {
                        "description": "Admin session required",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true,
                        "description": ""
                    }
                ],
                "security": [
                    {
                        "AdminSession": []
                    }
                ]
            }
        },
        "/compliance": {
            "get": {
                "tags": [
                    "Compliance"
                ],
                "summary": "Compliance overview for every gym",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "query",
                        "name": "month",
                        "type": "string",
                        "description": "Month (YYYY-MM), defaults to the current month",
                        "required": false
                    }
                ]
            }
        },
        "/compliance/export": {
            "get": {
                "tags": [
                    "Compliance"
                ],
                "summary": "Export the compliance overview",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "query",
                        "name": "month",
                        "type": "string",
                        "description": "Month (YYYY-MM), defaults to the current month",
                        "required": false
                    },
                    {
                        "in": "query",
                        "name": "format",
                        "type": "string",
                        "description": "csv or pdf",
                        "required": false
                    }
                ],
                "produces": [
                    "text/csv",
                    "application/pdf"
                ]
            }
        },
        "/compliance/{gymId}": {
            "get": {
                "tags": [
                    "Compliance"
                ],
                "summary": "Compliance report for one gym",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "gymId",
                        "type": "string",
                        "required": true,
                        "description": ""
                    },
                    {
                        "in": "query",
                        "name": "month",
                        "type": "string",
                        "description": "Month (YYYY-MM), defaults to the current month",
                        "required": false
                    }
                ]
            }
        },
        "/requirements": {
            "get": {
                "tags": [
                    "Requirements"
                ],
                "summary": "List monthly requirements",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/requirements/{eventType}": {
            "put": {
                "tags": [
                    "Requirements"
                ],
                "summary": "Set the monthly minimum for an event type",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "401": {
                        "description": "Admin session required",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "eventType",
                        "type": "string",
                        "required": true,
                        "description": ""
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/RequirementRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "AdminSession": []
                    }
                ]
            }
        },
        "/collector/runs": {
            "get": {
                "tags": [
                    "Collector"
                ],
                "summary": "Recent collection runs",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "query",
                        "name": "limit",
                        "type": "integer",
                        "description": "",
                        "required": false
                    }
                ]
            },
            "post": {
                "tags": [
                    "Collector"
                ],
                "summary": "Start a collection run",
                "responses": {
                    "202": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "401": {
                        "description": "Admin session required",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CollectionRunRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "AdminSession": []
                    }
                ]
            }
        },
        "/collector/runs/{id}": {
            "get": {
                "tags": [
                    "Collector"
                ],
                "summary": "Get a collection run",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true,
                        "description": ""
                    }
                ]
            }
        },
        "/system/metrics": {
            "get": {
                "tags": [
                    "System"
                ],
                "summary": "Instrumentation snapshot",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "UnlockRequest": {
            "type": "object",
            "required": [
                "pin"
            ],
            "properties": {
                "pin": {
                    "type": "string"
                }
            }
        },
        "EventRequest": {
            "type": "object",
            "required": [
                "gym_id",
                "type",
                "title",
                "date",
                "source_url"
            ],
            "properties": {
                "gym_id": {
                    "type": "string"
                },
                "type": {
                    "type": "string"
                },
                "title": {
                    "type": "string"
                },
                "date": {
                    "type": "string",
                    "example": "2025-03-14"
                },
                "time": {
                    "type": "string"
                },
                "price": {
                    "type": "number"
                },
                "source_url": {
                    "type": "string"
                },
                "sold_out": {
                    "type": "boolean"
                }
            }
        },
        "UpdateEventRequest": {
            "type": "object",
            "properties": {
                "gym_id": {
                    "type": "string"
                },
                "type": {
                    "type": "string"
                },
                "title": {
                    "type": "string"
                },
                "date": {
                    "type": "string"
                },
                "time": {
                    "type": "string"
                },
                "price": {
                    "type": "number"
                },
                "clear_price": {
                    "type": "boolean"
                },
                "source_url": {
                    "type": "string"
                },
                "sold_out": {
                    "type": "boolean"
                }
            }
        },
        "ImportEventsRequest": {
            "type": "object",
            "properties": {
                "events": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/EventRequest"
                    }
                }
            }
        },
        "RuleRequest": {
            "type": "object",
            "required": [
                "rule_type",
                "gym_ids",
                "scope",
                "label"
            ],
            "properties": {
                "rule_type": {
                    "type": "string",
                    "enum": [
                        "valid_price",
                        "sibling_price",
                        "valid_time",
                        "program_synonym",
                        "requirement_exception",
                        "exception"
                    ]
                },
                "gym_ids": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "program": {
                    "type": "string"
                },
                "scope": {
                    "type": "string",
                    "enum": [
                        "all_events",
                        "keyword",
                        "single_event"
                    ]
                },
                "keyword": {
                    "type": "string"
                },
                "event_id": {
                    "type": "string"
                },
                "value": {
                    "type": "string"
                },
                "value_kid2": {
                    "type": "string"
                },
                "value_kid3": {
                    "type": "string"
                },
                "is_permanent": {
                    "type": "boolean"
                },
                "end_date": {
                    "type": "string"
                },
                "label": {
                    "type": "string"
                },
                "note": {
                    "type": "string"
                }
            }
        },
        "RequirementRequest": {
            "type": "object",
            "properties": {
                "required_count": {
                    "type": "integer"
                }
            }
        },
        "CollectionRunRequest": {
            "type": "object",
            "properties": {
                "reconcile": {
                    "type": "boolean"
                }
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {
                    "type": "integer"
                },
                "page_size": {
                    "type": "integer"
                },
                "total_count": {
                    "type": "integer"
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                },
                "details": {
                    "type": "object"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "pagination": {
                    "$ref": "#/definitions/Pagination"
                },
                "meta": {
                    "type": "object"
                }
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
