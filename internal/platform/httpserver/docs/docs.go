// Package docs registers the OpenAPI document served at /swagger/doc.json.
// The template is maintained by hand alongside the route table in httpserver.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/auth/register": {
            "post": {
                "tags": ["identity"],
                "summary": "Register a user account",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/api/auth/login": {
            "post": {
                "tags": ["identity"],
                "summary": "Exchange credentials for a bearer token",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/api/applications": {
            "post": {
                "tags": ["applications"],
                "summary": "Submit an official search application",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request"},
                    "401": {"description": "Unauthorized"}
                }
            },
            "get": {
                "tags": ["applications"],
                "summary": "List the caller's applications",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/api/applications/{application_id}/payment": {
            "post": {
                "tags": ["applications"],
                "summary": "Record the search fee payment",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/api/applications/{application_id}/assign": {
            "post": {
                "tags": ["applications"],
                "summary": "Assign a registrar to an application",
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/api/applications/{application_id}/approve": {
            "post": {
                "tags": ["applications"],
                "summary": "Approve an assigned application with a signed certificate",
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/api/applications/{application_id}/reject": {
            "post": {
                "tags": ["applications"],
                "summary": "Reject an assigned application with a review comment",
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/api/applications/{application_id}/certificate": {
            "get": {
                "tags": ["applications"],
                "summary": "Download the signed certificate",
                "produces": ["application/octet-stream"],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Ardhi Land Registry API",
	Description:      "Official search application workflow for the land registry.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
