// Package docs registers the storefront OpenAPI document with swag so that
// gin-swagger can serve it under /swagger.
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
        "/health": {
            "get": {
                "tags": ["health"],
                "summary": "Liveness and backend reachability",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}
            }
        },
        "/products": {
            "get": {
                "tags": ["products"],
                "summary": "List products",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "boolean", "description": "only featured products", "name": "featured", "in": "query"},
                    {"type": "string", "description": "category, e.g. Chair or Sofa", "name": "category", "in": "query"},
                    {"type": "string", "description": "price-low-to-high (default) or price-high-to-low", "name": "sort", "in": "query"},
                    {"type": "integer", "description": "page size: 6, 12 (default) or 18", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/gateway.errorResponse"}}}
            }
        },
        "/products/featured": {
            "get": {
                "tags": ["products"],
                "summary": "Featured products for the landing page",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/products/{id}": {
            "get": {
                "tags": ["products"],
                "summary": "Product detail with related products",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "product id", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/gateway.errorResponse"}}}
            }
        },
        "/cart": {
            "get": {
                "tags": ["cart"],
                "summary": "Current session's cart with totals",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}
            },
            "delete": {
                "tags": ["cart"],
                "summary": "Empty the cart",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/cart/items": {
            "post": {
                "tags": ["cart"],
                "summary": "Add a product to the cart",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"description": "product and quantity", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/gateway.addItemRequest"}}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "409": {"description": "Out of stock"}}
            }
        },
        "/cart/items/{id}": {
            "put": {
                "tags": ["cart"],
                "summary": "Set a cart line's quantity (clamped to stock)",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "product id", "name": "id", "in": "path", "required": true},
                    {"description": "quantity", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/gateway.updateItemRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "delete": {
                "tags": ["cart"],
                "summary": "Remove a product from the cart",
                "parameters": [{"type": "string", "description": "product id", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/checkout": {
            "post": {
                "tags": ["checkout"],
                "summary": "Place an order from the session's cart",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "retry key", "name": "Idempotency-Key", "in": "header"},
                    {"description": "billing form", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.CheckoutForm"}}
                ],
                "responses": {
                    "200": {"description": "Replayed"},
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/gateway.errorResponse"}},
                    "402": {"description": "Payment Required"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/checkout/payment-intent": {
            "post": {
                "tags": ["checkout"],
                "summary": "Open a card payment intent for the cart total",
                "produces": ["application/json"],
                "responses": {"201": {"description": "Created"}, "503": {"description": "Card payments disabled"}}
            }
        },
        "/checkout/prefill": {
            "get": {
                "tags": ["checkout"],
                "summary": "Billing form values from the logged-in identity",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/checkout/last": {
            "get": {
                "tags": ["checkout"],
                "summary": "The session's most recent order",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/auth/signup": {
            "post": {
                "tags": ["auth"],
                "summary": "Create an account",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"description": "account", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.SignupForm"}}],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Email already registered"}}
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Log in and cache the identity in the session",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"description": "credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/gateway.loginRequest"}}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid password"}, "404": {"description": "Unknown email"}}
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["auth"],
                "summary": "Forget the session identity",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["auth"],
                "summary": "The session identity",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Not logged in"}}
            }
        },
        "/messages": {
            "post": {
                "tags": ["messages"],
                "summary": "Submit the contact form",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"description": "message", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.MessageForm"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}
            }
        }
    },
    "definitions": {
        "gateway.errorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}},
                "next": {"type": "string"}
            }
        },
        "gateway.addItemRequest": {
            "type": "object",
            "required": ["product_id"],
            "properties": {"product_id": {"type": "string"}, "quantity": {"type": "integer", "minimum": 1}}
        },
        "gateway.updateItemRequest": {
            "type": "object",
            "required": ["quantity"],
            "properties": {"quantity": {"type": "integer"}}
        },
        "gateway.loginRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "service.CheckoutForm": {
            "type": "object",
            "properties": {
                "full_name": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "address": {"type": "string"},
                "city": {"type": "string"},
                "postal_code": {"type": "string"},
                "country": {"type": "string"},
                "payment_method": {"type": "string", "enum": ["creditCard", "cash"]},
                "payment_intent_id": {"type": "string"},
                "payment_method_id": {"type": "string"}
            }
        },
        "service.SignupForm": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "mobile_number": {"type": "string"},
                "street": {"type": "string"},
                "city": {"type": "string"},
                "state": {"type": "string"},
                "country": {"type": "string"},
                "postal_code": {"type": "string"}
            }
        },
        "service.MessageForm": {
            "type": "object",
            "properties": {"name": {"type": "string"}, "email": {"type": "string"}, "message": {"type": "string"}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Storefront API",
	Description:      "Catalog, cart, checkout, identity and contact endpoints.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
