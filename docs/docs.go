// Package docs регистрирует OpenAPI описание API для /swagger/*.
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
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Register a user and get a token",
                "parameters": [{"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/RegisterInput"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Email already used"}}
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Log in",
                "parameters": [{"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/LoginInput"}}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid credentials"}}
            }
        },
        "/competitions": {
            "get": {
                "tags": ["competitions"],
                "summary": "List competitions",
                "parameters": [
                    {"in": "query", "name": "type", "type": "string"},
                    {"in": "query", "name": "status", "type": "string"},
                    {"in": "query", "name": "search", "type": "string"},
                    {"in": "query", "name": "limit", "type": "integer"},
                    {"in": "query", "name": "offset", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["competitions"],
                "summary": "Create a competition",
                "responses": {"201": {"description": "Created"}, "400": {"description": "Validation failed"}}
            }
        },
        "/competitions/{competitionID}/ledger": {
            "get": {
                "tags": ["ledger"],
                "summary": "Ledger state of a competition",
                "parameters": [{"in": "path", "name": "competitionID", "type": "integer", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/LedgerView"}}, "404": {"description": "Not Found"}}
            }
        },
        "/competitions/{competitionID}/teams": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["ledger"],
                "summary": "Register a team (free competitions only)",
                "parameters": [
                    {"in": "path", "name": "competitionID", "type": "integer", "required": true},
                    {"in": "body", "name": "input", "required": true, "schema": {"type": "object", "properties": {"team_id": {"type": "integer"}}}}
                ],
                "responses": {"201": {"description": "Registered"}, "402": {"description": "Payment required"}, "409": {"description": "Duplicate registration or capacity exceeded"}, "422": {"description": "Team too large"}}
            }
        },
        "/competitions/{competitionID}/payments": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["payments"],
                "summary": "Pay the entry fee and register",
                "parameters": [
                    {"in": "path", "name": "competitionID", "type": "integer", "required": true},
                    {"in": "query", "name": "wait", "type": "boolean"},
                    {"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/PaymentInput"}}
                ],
                "responses": {"202": {"description": "Payment task started"}, "200": {"description": "Paid (wait=true)"}, "402": {"description": "Declined"}, "422": {"description": "Card validation failed"}}
            }
        },
        "/payments/{paymentID}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["payments"],
                "summary": "Payment task status",
                "parameters": [{"in": "path", "name": "paymentID", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["payments"],
                "summary": "Cancel a pending payment",
                "parameters": [{"in": "path", "name": "paymentID", "type": "string", "required": true}],
                "responses": {"200": {"description": "Cancelled"}, "409": {"description": "Already finished"}}
            }
        },
        "/competitions/{competitionID}/refunds": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["ledger"],
                "summary": "Refund a paid entrant (admin)",
                "parameters": [
                    {"in": "path", "name": "competitionID", "type": "integer", "required": true},
                    {"in": "body", "name": "input", "required": true, "schema": {"type": "object", "properties": {"entrant_id": {"type": "integer"}}}}
                ],
                "responses": {"200": {"description": "Refunded"}, "422": {"description": "Not paid"}}
            }
        },
        "/competitions/{competitionID}/prize-distribution": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["ledger"],
                "summary": "Split the prize pool across paid entrants (admin)",
                "parameters": [{"in": "path", "name": "competitionID", "type": "integer", "required": true}],
                "responses": {"200": {"description": "Distributed"}, "422": {"description": "Not allowed or no paid entrants"}}
            }
        },
        "/leaderboard": {
            "get": {
                "tags": ["leaderboard"],
                "summary": "Teams ranked by prizes won",
                "parameters": [{"in": "query", "name": "limit", "type": "integer"}],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "RegisterInput": {
            "type": "object",
            "properties": {"name": {"type": "string"}, "email": {"type": "string"}, "password": {"type": "string"}}
        },
        "LoginInput": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "CardInput": {
            "type": "object",
            "properties": {"number": {"type": "string"}, "expiry": {"type": "string", "example": "12/30"}, "cvv": {"type": "string"}, "holder": {"type": "string"}}
        },
        "PaymentInput": {
            "type": "object",
            "properties": {"entrant_id": {"type": "integer"}, "card": {"$ref": "#/definitions/CardInput"}, "save_card": {"type": "boolean"}}
        },
        "LedgerView": {
            "type": "object",
            "properties": {
                "competition_id": {"type": "integer"},
                "type": {"type": "string"},
                "status": {"type": "string"},
                "capacity": {"type": "integer"},
                "entrants": {"type": "array", "items": {"type": "integer"}},
                "participant_count": {"type": "integer"},
                "entry_fee": {"type": "integer"},
                "prize_pool": {"type": "integer"},
                "paid_teams": {"type": "array", "items": {"type": "integer"}},
                "refunded_teams": {"type": "array", "items": {"type": "integer"}},
                "payment_log": {"type": "array", "items": {"type": "object"}},
                "prize_distribution": {"type": "array", "items": {"type": "object"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Competition Ledger API",
	Description:      "Registration, payments, refunds and prize settlement for competitions.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
