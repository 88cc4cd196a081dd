// Package docs registers the inventory service OpenAPI document with swag.
// Regenerate with `swag init -g cmd/inventoryd/main.go` after changing handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/medications": {
            "get": {
                "produces": ["application/json"],
                "tags": ["medications"],
                "summary": "List medications",
                "parameters": [
                    {"type": "string", "description": "Name contains", "name": "q", "in": "query"},
                    {"type": "string", "description": "Category or all", "name": "category", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Medication"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpapi.errorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["medications"],
                "summary": "Register medication",
                "parameters": [
                    {"description": "Medication", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpapi.createMedicationReq"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/service.Registration"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpapi.errorResponse"}}
                }
            }
        },
        "/medications/low-stock": {
            "get": {
                "description": "Medications at or below their reorder point, empty shelves included.",
                "produces": ["application/json"],
                "tags": ["medications"],
                "summary": "List low-stock medications",
                "parameters": [
                    {"type": "string", "description": "Category or all", "name": "category", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Medication"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpapi.errorResponse"}}
                }
            }
        },
        "/medications/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["medications"],
                "summary": "Get medication by id",
                "parameters": [
                    {"type": "string", "description": "Medication ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Medication"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpapi.errorResponse"}}
                }
            }
        },
        "/medications/{id}/stock": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["medications"],
                "summary": "Adjust stock on hand",
                "parameters": [
                    {"type": "string", "description": "Medication ID", "name": "id", "in": "path", "required": true},
                    {"description": "Signed quantity delta", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpapi.adjustStockReq"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Medication"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpapi.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpapi.errorResponse"}}
                }
            }
        },
        "/restock-orders": {
            "get": {
                "produces": ["application/json"],
                "tags": ["restock-orders"],
                "summary": "List restock orders",
                "parameters": [
                    {"type": "string", "description": "Pending or Completed", "name": "status", "in": "query"},
                    {"type": "string", "description": "Medication ID", "name": "medication_id", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.RestockOrder"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpapi.errorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["restock-orders"],
                "summary": "Create restock order",
                "parameters": [
                    {"description": "Restock order", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpapi.createRestockOrderReq"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.RestockOrder"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpapi.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpapi.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httpapi.errorResponse"}}
                }
            }
        },
        "/restock-orders/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["restock-orders"],
                "summary": "Get restock order by id",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.RestockOrder"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpapi.errorResponse"}}
                }
            },
            "patch": {
                "description": "Moves a Pending order to Completed and restocks the medication. Repeating it on a completed order is a no-op.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["restock-orders"],
                "summary": "Confirm delivery",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "id", "in": "path", "required": true},
                    {"description": "Completion patch", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpapi.updateRestockOrderReq"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.RestockOrder"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpapi.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpapi.errorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Medication": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "quantity": {"type": "integer"},
                "reorderPoint": {"type": "integer"},
                "category": {"type": "string"},
                "batch": {"type": "string"},
                "next_batch": {"type": "string"}
            }
        },
        "domain.RestockOrder": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "medication_id": {"type": "string"},
                "name": {"type": "string"},
                "quantity": {"type": "integer"},
                "next_batch": {"type": "string"},
                "order_date": {"type": "string", "example": "2026-03-10"},
                "expected_delivery_date": {"type": "string", "example": "2026-03-17"},
                "status": {"type": "string", "enum": ["Pending", "Completed"]},
                "isDelivered": {"type": "boolean"},
                "category": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "service.Registration": {
            "type": "object",
            "properties": {
                "medication": {"$ref": "#/definitions/domain.Medication"},
                "supply_level": {"type": "string", "enum": ["Reorder Required", "Low Stock", "Sufficient Stock"]}
            }
        },
        "httpapi.createMedicationReq": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "quantity": {"type": "integer"},
                "reorderPoint": {"type": "integer"},
                "category": {"type": "string"},
                "batch": {"type": "string"}
            }
        },
        "httpapi.adjustStockReq": {
            "type": "object",
            "properties": {
                "delta": {"type": "integer"}
            }
        },
        "httpapi.createRestockOrderReq": {
            "type": "object",
            "properties": {
                "medication_id": {"type": "string"},
                "quantity": {"type": "integer"},
                "next_batch": {"type": "string"},
                "order_date": {"type": "string", "example": "2026-03-10"},
                "expected_delivery_date": {"type": "string", "example": "2026-03-17"}
            }
        },
        "httpapi.updateRestockOrderReq": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "isDelivered": {"type": "boolean"},
                "status": {"type": "string", "enum": ["Completed"]}
            }
        },
        "httpapi.errorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:9091",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Inventory API",
	Description:      "Authoritative medication inventory and restock order service.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
