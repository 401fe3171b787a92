// Package swagger holds the generated API description.
package swagger

import (
	"github.com/swaggo/swag"
)

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
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login user",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Invalid credentials"},
                    "429": {"description": "Too many attempts"}
                }
            }
        },
        "/catalog/{module}/list": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "List module rows",
                "parameters": [
                    {"type": "string", "description": "Module (news, record, shop, pages)", "name": "module", "in": "path", "required": true},
                    {"type": "string", "description": "Case-insensitive title search", "name": "search", "in": "query"},
                    {"type": "string", "description": "Parent category id", "name": "author", "in": "query"},
                    {"type": "integer", "description": "1 lists the trash", "name": "trash", "in": "query"},
                    {"type": "integer", "description": "Page number", "name": "page", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/catalog/{module}/save": {
            "post": {
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Create or update a module row",
                "parameters": [
                    {"type": "string", "description": "Module", "name": "module", "in": "path", "required": true},
                    {"type": "string", "description": "CSRF token", "name": "X-CSRF-Token", "in": "header", "required": true}
                ],
                "responses": {
                    "200": {"description": "Updated"},
                    "201": {"description": "Created"},
                    "403": {"description": "CSRF token mismatch"},
                    "422": {"description": "Validation error"}
                }
            }
        },
        "/catalog/{module}/bulk": {
            "post": {
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Trash, restore or purge selected rows",
                "parameters": [
                    {"type": "string", "description": "Module", "name": "module", "in": "path", "required": true},
                    {"type": "string", "description": "CSRF token", "name": "X-CSRF-Token", "in": "header", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "CSRF token mismatch"},
                    "422": {"description": "Validation error"}
                }
            }
        },
        "/media/upload": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["media"],
                "summary": "Upload a file",
                "responses": {
                    "201": {"description": "File uploaded successfully"},
                    "400": {"description": "No file provided"}
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"},
        "CSRFToken": {"type": "apiKey", "name": "X-CSRF-Token", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "cms0 API",
	Description:      "Admin backend for the news, record, shop and pages modules",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
