// Package docs registers the OpenAPI description served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header",
            "description": "Type \"Bearer\" followed by a space and JWT token"
        }
    },
    "tags": [
        {"name": "Users", "description": "Registration, login and profile"},
        {"name": "Households", "description": "Household membership and invite codes"},
        {"name": "Categories", "description": "Task categories of a household"},
        {"name": "Tasks", "description": "Shared task list and its change stream"},
        {"name": "Push", "description": "Web push subscriptions and notifications"}
    ],
    "paths": {
        "/register": {"post": {"tags": ["Users"], "summary": "Register a profile"}},
        "/login": {"post": {"tags": ["Users"], "summary": "Log in and receive a token"}},
        "/me": {
            "get": {"tags": ["Users"], "summary": "Current profile", "security": [{"BearerAuth": []}]},
            "put": {"tags": ["Users"], "summary": "Update nickname or avatar", "security": [{"BearerAuth": []}]}
        },
        "/households": {"post": {"tags": ["Households"], "summary": "Create a household", "security": [{"BearerAuth": []}]}},
        "/households/join": {"post": {"tags": ["Households"], "summary": "Join by invite code", "security": [{"BearerAuth": []}]}},
        "/households/current": {
            "get": {"tags": ["Households"], "summary": "Current household", "security": [{"BearerAuth": []}]},
            "put": {"tags": ["Households"], "summary": "Rename the household", "security": [{"BearerAuth": []}]}
        },
        "/households/current/members": {"get": {"tags": ["Households"], "summary": "List members", "security": [{"BearerAuth": []}]}},
        "/households/current/invite-code": {"post": {"tags": ["Households"], "summary": "Rotate the invite code", "security": [{"BearerAuth": []}]}},
        "/categories": {
            "get": {"tags": ["Categories"], "summary": "List categories", "security": [{"BearerAuth": []}]},
            "post": {"tags": ["Categories"], "summary": "Create a category", "security": [{"BearerAuth": []}]}
        },
        "/categories/{id}": {
            "put": {"tags": ["Categories"], "summary": "Update a category", "security": [{"BearerAuth": []}]},
            "delete": {"tags": ["Categories"], "summary": "Delete a category", "security": [{"BearerAuth": []}]}
        },
        "/tasks": {
            "get": {"tags": ["Tasks"], "summary": "List tasks", "security": [{"BearerAuth": []}]},
            "post": {"tags": ["Tasks"], "summary": "Create a task", "security": [{"BearerAuth": []}]}
        },
        "/tasks/{id}": {
            "get": {"tags": ["Tasks"], "summary": "Task with assignees and images", "security": [{"BearerAuth": []}]},
            "patch": {"tags": ["Tasks"], "summary": "Update task fields", "security": [{"BearerAuth": []}]},
            "delete": {"tags": ["Tasks"], "summary": "Delete a task", "security": [{"BearerAuth": []}]}
        },
        "/tasks/{id}/assignees": {"put": {"tags": ["Tasks"], "summary": "Replace assignees", "security": [{"BearerAuth": []}]}},
        "/tasks/reorder": {"post": {"tags": ["Tasks"], "summary": "Persist a new order", "security": [{"BearerAuth": []}]}},
        "/tasks/stream": {"get": {"tags": ["Tasks"], "summary": "Server-sent task change events", "security": [{"BearerAuth": []}]}},
        "/push/send": {"post": {"tags": ["Push"], "summary": "Notify the other household members", "security": [{"BearerAuth": []}]}},
        "/push/subscribe": {
            "post": {"tags": ["Push"], "summary": "Store a push subscription", "security": [{"BearerAuth": []}]},
            "delete": {"tags": ["Push"], "summary": "Remove a push subscription", "security": [{"BearerAuth": []}]}
        },
        "/push/vapid-public-key": {"get": {"tags": ["Push"], "summary": "Public VAPID key", "security": [{"BearerAuth": []}]}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Family Tasks API",
	Description:      "Shared household task list with realtime sync and web push.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
