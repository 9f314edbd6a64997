// Package docs registers the OpenAPI description served at /swagger.
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
        "/adduser": {"post": {"tags": ["Auth"], "summary": "Регистрация", "responses": {"200": {"description": "OK"}}}},
        "/authenticate": {"post": {"tags": ["Auth"], "summary": "Вход в систему", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}},
        "/force-login": {"post": {"tags": ["Auth"], "summary": "Вход в систему", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}},
        "/heartbeat": {"post": {"security": [{"BearerAuth": []}], "tags": ["Auth"], "summary": "Heartbeat", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/logout": {"post": {"security": [{"BearerAuth": []}], "tags": ["Auth"], "summary": "Выход", "responses": {"200": {"description": "OK"}}}},
        "/getinfo": {"get": {"security": [{"BearerAuth": []}], "tags": ["Users"], "summary": "Профиль пользователя", "responses": {"200": {"description": "OK"}}}},
        "/updateDarkMode": {"post": {"security": [{"BearerAuth": []}], "tags": ["Users"], "summary": "Toggle dark mode", "responses": {"200": {"description": "OK"}}}},
        "/updatePracticesSolved": {"post": {"security": [{"BearerAuth": []}], "tags": ["Users"], "summary": "Save practice progress", "responses": {"200": {"description": "OK"}}}},
        "/send-otp": {"post": {"tags": ["Verification"], "summary": "Send email verification code", "responses": {"200": {"description": "OK"}, "429": {"description": "Too Many Requests"}}}},
        "/verify-otp": {"post": {"tags": ["Verification"], "summary": "Verify email with code", "responses": {"200": {"description": "OK"}}}},
        "/resend-otp": {"post": {"tags": ["Verification"], "summary": "Resend email verification code", "responses": {"200": {"description": "OK"}, "429": {"description": "Too Many Requests"}}}},
        "/password-reset/send-otp": {"post": {"tags": ["PasswordReset"], "summary": "Send password reset code", "responses": {"200": {"description": "OK"}}}},
        "/password-reset/verify-otp": {"post": {"tags": ["PasswordReset"], "summary": "Verify password reset code", "responses": {"200": {"description": "OK"}}}},
        "/password-reset/reset": {"post": {"tags": ["PasswordReset"], "summary": "Set a new password after a verified code", "responses": {"200": {"description": "OK"}}}},
        "/practice": {"get": {"tags": ["Content"], "summary": "List practice tests", "responses": {"200": {"description": "OK"}}}},
        "/practice/add": {"post": {"security": [{"AdminKey": []}], "tags": ["Content"], "summary": "Добавить пробный тест", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}},
        "/practice/{index}": {"get": {"tags": ["Content"], "summary": "Get practice test", "parameters": [{"type": "integer", "name": "index", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/subject/add": {"post": {"security": [{"AdminKey": []}], "tags": ["Content"], "summary": "Добавить тест по предмету", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}},
        "/subject/{subject}": {"get": {"tags": ["Content"], "summary": "List subject tests", "parameters": [{"type": "string", "name": "subject", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/subject/{subject}/{index}": {"get": {"tags": ["Content"], "summary": "Get subject test", "parameters": [{"type": "string", "name": "subject", "in": "path", "required": true}, {"type": "integer", "name": "index", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/practice-test-results": {"get": {"security": [{"BearerAuth": []}], "tags": ["PracticeResults"], "summary": "List practice test results", "responses": {"200": {"description": "OK"}}}},
        "/practice-test-results/update": {"post": {"security": [{"BearerAuth": []}], "tags": ["PracticeResults"], "summary": "Сохранить результат пробного теста", "responses": {"200": {"description": "OK"}}}},
        "/practice-test-results/delete": {"post": {"security": [{"BearerAuth": []}], "tags": ["PracticeResults"], "summary": "Удалить результат пробного теста", "responses": {"200": {"description": "OK"}}}},
        "/payment/initialize": {"post": {"tags": ["Payments"], "summary": "Начать оплату", "responses": {"200": {"description": "OK"}}}},
        "/payment/check-status": {"post": {"tags": ["Payments"], "summary": "Статус оплаты", "responses": {"200": {"description": "OK"}}}},
        "/payment/callback": {
            "get": {"tags": ["Payments"], "summary": "iyzico callback", "responses": {"302": {"description": "Found"}}},
            "post": {"tags": ["Payments"], "summary": "iyzico callback", "consumes": ["application/x-www-form-urlencoded"], "responses": {"303": {"description": "See Other"}}}
        },
        "/ai/analyze-question": {"post": {"security": [{"BearerAuth": []}], "tags": ["AI"], "summary": "Разбор вопроса по картинке", "responses": {"200": {"description": "OK"}, "500": {"description": "Internal Server Error"}}}},
        "/ai/chat": {"post": {"security": [{"BearerAuth": []}], "tags": ["AI"], "summary": "Chat with the tutor", "responses": {"200": {"description": "OK"}, "500": {"description": "Internal Server Error"}}}}
    },
    "securityDefinitions": {
        "AdminKey": {"type": "apiKey", "name": "X-Admin-Key", "in": "header"},
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Practico API",
	Description:      "Bocconi exam preparation backend: accounts, sessions, payments, practice content and AI tutor.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
