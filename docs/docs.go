// Package docs registers the swagger document served at /swagger/doc.json.
// It mirrors the swag annotations on the handlers in internal/transport/http
// and is edited by hand alongside them.
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
        "/convert/reset": {
            "post": {
                "description": "Deletes every uploaded and converted file of every job kind.",
                "produces": ["application/json"],
                "tags": ["convert"],
                "summary": "Reset all conversions",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.statusResp"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httptransport.apiError"}}
                }
            }
        },
        "/convert/{kind}/files": {
            "get": {
                "produces": ["application/json"],
                "tags": ["convert"],
                "summary": "List the input and output files of a conversion",
                "parameters": [
                    {"type": "string", "description": "job kind (election|tallies)", "name": "kind", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.filesResp"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httptransport.apiError"}}
                }
            }
        },
        "/convert/{kind}/output": {
            "get": {
                "produces": ["application/octet-stream"],
                "tags": ["convert"],
                "summary": "Download a converted file",
                "parameters": [
                    {"type": "string", "description": "job kind (election|tallies)", "name": "kind", "in": "path", "required": true},
                    {"type": "string", "description": "output slot name", "name": "name", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httptransport.apiError"}}
                }
            }
        },
        "/convert/{kind}/process": {
            "post": {
                "description": "Converts the uploaded inputs. Answers 409 until every input file is uploaded.",
                "produces": ["application/json"],
                "tags": ["convert"],
                "summary": "Run the conversion",
                "parameters": [
                    {"type": "string", "description": "job kind (election|tallies)", "name": "kind", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.statusResp"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httptransport.apiError"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httptransport.statusResp"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/httptransport.apiError"}}
                }
            }
        },
        "/convert/{kind}/runs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["convert"],
                "summary": "Recent conversion runs",
                "parameters": [
                    {"type": "string", "description": "job kind (election|tallies)", "name": "kind", "in": "path", "required": true},
                    {"type": "integer", "description": "max runs (default 20, max 100)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/httptransport.runResp"}}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httptransport.apiError"}}
                }
            }
        },
        "/convert/{kind}/submitfile": {
            "post": {
                "description": "Stores the file in the named input slot, replacing a previous upload.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["convert"],
                "summary": "Upload an input file",
                "parameters": [
                    {"type": "string", "description": "job kind (election|tallies)", "name": "kind", "in": "path", "required": true},
                    {"type": "string", "description": "input slot name", "name": "name", "in": "formData", "required": true},
                    {"type": "file", "description": "file content", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.statusResp"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.apiError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httptransport.apiError"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/httptransport.apiError"}}
                }
            }
        }
    },
    "definitions": {
        "httptransport.apiError": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            }
        },
        "httptransport.filesResp": {
            "type": "object",
            "properties": {
                "inputFiles": {"type": "array", "items": {"$ref": "#/definitions/httptransport.slotDTO"}},
                "outputFiles": {"type": "array", "items": {"$ref": "#/definitions/httptransport.slotDTO"}}
            }
        },
        "httptransport.runResp": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "duration_ms": {"type": "integer"},
                "error": {"type": "string"},
                "id": {"type": "string"},
                "kind": {"type": "string"},
                "output": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "httptransport.slotDTO": {
            "type": "object",
            "properties": {
                "accept": {"type": "string"},
                "assigned": {"type": "boolean"},
                "name": {"type": "string"}
            }
        },
        "httptransport.statusResp": {
            "type": "object",
            "properties": {
                "output": {"type": "string"},
                "status": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "SEMS converter API",
	Description:      "Converts between SEMS election files and Vx election definitions and tallies.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
