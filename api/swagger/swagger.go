package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "FieldOps API",
        "description": "Field-service coordination: clients, cases, interventions, devices, quotes and review queues",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Clients", "description": "Client accounts and their sites"},
        {"name": "Cases", "description": "Service cases grouping interventions and quotes"},
        {"name": "Interventions", "description": "Field intervention workflow and audit trail"},
        {"name": "Devices", "description": "Equipment register and proposal validation"},
        {"name": "Quotes", "description": "Quote workflow and field quote requests"},
        {"name": "Reviews", "description": "Human-approval backlog"},
        {"name": "Dashboard", "description": "Office coordination counters"},
        {"name": "Exports", "description": "PDF and CSV report rendering"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Degraded"}
                }
            }
        },
        "/clients": {
            "get": {
                "tags": ["Clients"],
                "summary": "List clients",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            },
            "post": {
                "tags": ["Clients"],
                "summary": "Create a client, optionally with initial sites",
                "responses": {"201": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/clients/{id}": {
            "get": {
                "tags": ["Clients"],
                "summary": "Get a client with sites, devices and cases",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"$ref": "#/responses/Envelope"}, "404": {"$ref": "#/responses/Envelope"}}
            },
            "patch": {
                "tags": ["Clients"],
                "summary": "Patch a client record",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/clients/{id}/sites": {
            "post": {
                "tags": ["Clients"],
                "summary": "Attach a site to a client",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"201": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/cases": {
            "get": {
                "tags": ["Cases"],
                "summary": "List cases",
                "parameters": [
                    {"name": "clientId", "in": "query", "type": "string"},
                    {"name": "siteId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string", "description": "Comma separated"},
                    {"name": "priority", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            },
            "post": {
                "tags": ["Cases"],
                "summary": "Open a case",
                "responses": {"201": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/cases/{id}": {
            "get": {
                "tags": ["Cases"],
                "summary": "Get a case with its interventions and quotes",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"$ref": "#/responses/Envelope"}, "404": {"$ref": "#/responses/Envelope"}}
            },
            "patch": {
                "tags": ["Cases"],
                "summary": "Patch a case; status moves ride the transition table",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"$ref": "#/responses/Envelope"}, "409": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/cases/{id}/close": {
            "post": {
                "tags": ["Cases"],
                "summary": "Close a case and open its report review item",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"$ref": "#/responses/Envelope"}, "409": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/cases/{id}/interventions": {
            "post": {
                "tags": ["Cases"],
                "summary": "Attach an intervention; initial status derived from technician presence",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"201": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/interventions": {
            "get": {
                "tags": ["Interventions"],
                "summary": "List interventions",
                "parameters": [
                    {"name": "caseId", "in": "query", "type": "string"},
                    {"name": "technicianId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string", "description": "Comma separated"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/interventions/export.csv": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export the intervention list as CSV",
                "produces": ["text/csv"],
                "responses": {"200": {"description": "CSV payload"}}
            }
        },
        "/interventions/{id}": {
            "get": {
                "tags": ["Interventions"],
                "summary": "Get an intervention with logs, media, quote requests and proposals",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"$ref": "#/responses/Envelope"}, "404": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/interventions/{id}/logs": {
            "get": {
                "tags": ["Interventions"],
                "summary": "Audit trail, oldest first",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/interventions/{id}/assign": {
            "post": {
                "tags": ["Interventions"],
                "summary": "Assign or reassign a technician",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"$ref": "#/responses/Envelope"}, "409": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/interventions/{id}/status": {
            "post": {
                "tags": ["Interventions"],
                "summary": "Apply a status change with its review fan-out",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"$ref": "#/responses/Envelope"}, "409": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/interventions/{id}/media": {
            "post": {
                "tags": ["Interventions"],
                "summary": "Attach field evidence",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"201": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/interventions/{id}/quote-request": {
            "post": {
                "tags": ["Interventions"],
                "summary": "Raise a field quote request and its QUOTE review item",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"201": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/interventions/{id}/device-proposals": {
            "post": {
                "tags": ["Interventions"],
                "summary": "Submit an equipment candidate for validation",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"201": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/interventions/{id}/report": {
            "get": {
                "tags": ["Exports"],
                "summary": "Render an intervention report PDF and return a download token",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/devices": {
            "get": {
                "tags": ["Devices"],
                "summary": "List devices",
                "parameters": [
                    {"name": "siteId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string", "description": "Comma separated"}
                ],
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/devices/proposals": {
            "get": {
                "tags": ["Devices"],
                "summary": "List equipment proposals awaiting validation",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/devices/proposals/{id}/validate": {
            "post": {
                "tags": ["Devices"],
                "summary": "Resolve a proposal; ACTIVE creates the device and retires its predecessor",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"$ref": "#/responses/Envelope"}, "409": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/devices/proposals/{id}/reject": {
            "post": {
                "tags": ["Devices"],
                "summary": "Reject a proposal with a note",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"$ref": "#/responses/Envelope"}, "409": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/devices/{id}": {
            "get": {
                "tags": ["Devices"],
                "summary": "Get a device",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"$ref": "#/responses/Envelope"}, "404": {"$ref": "#/responses/Envelope"}}
            },
            "patch": {
                "tags": ["Devices"],
                "summary": "Patch the device register",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/quotes": {
            "get": {
                "tags": ["Quotes"],
                "summary": "List quotes",
                "parameters": [
                    {"name": "caseId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string", "description": "Comma separated"}
                ],
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            },
            "post": {
                "tags": ["Quotes"],
                "summary": "Open a REQUESTED quote and its review item",
                "responses": {"201": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/quotes/{id}": {
            "get": {
                "tags": ["Quotes"],
                "summary": "Get a quote with its linked field requests",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"$ref": "#/responses/Envelope"}, "404": {"$ref": "#/responses/Envelope"}}
            },
            "patch": {
                "tags": ["Quotes"],
                "summary": "Patch a quote; status moves ride the transition table",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"$ref": "#/responses/Envelope"}, "409": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/quotes/{id}/link-request/{requestId}": {
            "post": {
                "tags": ["Quotes"],
                "summary": "Link a field quote request to a quote",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "requestId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {"200": {"$ref": "#/responses/Envelope"}, "409": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/quotes/{id}/mark-sent": {
            "post": {
                "tags": ["Quotes"],
                "summary": "Mark a quote sent; resolves the open QUOTE review items",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"$ref": "#/responses/Envelope"}, "409": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/quotes/{id}/mark-accepted": {
            "post": {
                "tags": ["Quotes"],
                "summary": "Mark a quote accepted",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"$ref": "#/responses/Envelope"}, "409": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/reviews": {
            "get": {
                "tags": ["Reviews"],
                "summary": "List review items in arrival order",
                "parameters": [
                    {"name": "queue", "in": "query", "type": "string", "description": "REPORT, DEVICE_VALIDATION, ASTREINTE or QUOTE"},
                    {"name": "referenceId", "in": "query", "type": "string"},
                    {"name": "pending", "in": "query", "type": "boolean"}
                ],
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/reviews/{id}/resolve": {
            "post": {
                "tags": ["Reviews"],
                "summary": "Resolve one review item; resolving twice is idempotent",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"$ref": "#/responses/Envelope"}, "404": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Workflow backlog counters",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/exports/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Serve a previously generated export",
                "produces": ["application/pdf"],
                "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "File payload"}, "400": {"description": "Invalid or expired token"}}
            }
        }
    },
    "responses": {
        "Envelope": {
            "description": "Response envelope",
            "schema": {"$ref": "#/definitions/ResponseEnvelope"}
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
