// Package docs registra la especificación OpenAPI servida en /swagger/doc.json.
// Se mantiene en sincronía con las anotaciones de los handlers (swag init -g cmd/api/main.go).
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
        "/colors": {
            "get": {
                "produces": ["application/json"],
                "tags": ["colors"],
                "summary": "Paleta de colores",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/palette.Swatch"}}}
                }
            }
        },
        "/medications": {
            "get": {
                "produces": ["application/json"],
                "tags": ["medications"],
                "summary": "Listar medicamentos",
                "parameters": [{"$ref": "#/parameters/debugUser"}, {"$ref": "#/parameters/authorization"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/medications.medicationResponse"}}},
                    "401": {"description": "unauthorized", "schema": {"type": "string"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["medications"],
                "summary": "Crear medicamento",
                "parameters": [
                    {"$ref": "#/parameters/debugUser"},
                    {"$ref": "#/parameters/authorization"},
                    {"description": "Medicamento", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/medications.createMedicationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/medications.medicationResponse"}},
                    "400": {"description": "invalid input", "schema": {"type": "string"}},
                    "401": {"description": "unauthorized", "schema": {"type": "string"}}
                }
            }
        },
        "/medications/{medicationID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["medications"],
                "summary": "Obtener medicamento",
                "parameters": [{"$ref": "#/parameters/debugUser"}, {"$ref": "#/parameters/authorization"}, {"$ref": "#/parameters/medicationID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/medications.medicationResponse"}},
                    "404": {"description": "medication not found", "schema": {"type": "string"}}
                }
            },
            "delete": {
                "tags": ["medications"],
                "summary": "Borrar medicamento y sus dosis",
                "parameters": [{"$ref": "#/parameters/debugUser"}, {"$ref": "#/parameters/authorization"}, {"$ref": "#/parameters/medicationID"}],
                "responses": {
                    "204": {"description": "borrado"},
                    "404": {"description": "medication not found", "schema": {"type": "string"}}
                }
            }
        },
        "/medications/{medicationID}/doses": {
            "get": {
                "produces": ["application/json"],
                "tags": ["doses"],
                "summary": "Dosis de un medicamento",
                "parameters": [{"$ref": "#/parameters/debugUser"}, {"$ref": "#/parameters/authorization"}, {"$ref": "#/parameters/medicationID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/doses.doseResponse"}}},
                    "404": {"description": "medication not found", "schema": {"type": "string"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["doses"],
                "summary": "Crear lote de dosis",
                "parameters": [
                    {"$ref": "#/parameters/debugUser"},
                    {"$ref": "#/parameters/authorization"},
                    {"$ref": "#/parameters/medicationID"},
                    {"description": "Horarios RFC3339", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/doses.createDosesRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/doses.createDosesResponse"}},
                    "400": {"description": "invalid input", "schema": {"type": "string"}},
                    "403": {"description": "forbidden", "schema": {"type": "string"}},
                    "404": {"description": "medication not found", "schema": {"type": "string"}},
                    "409": {"description": "medication already scheduled", "schema": {"type": "string"}}
                }
            }
        },
        "/doses/me": {
            "get": {
                "produces": ["application/json"],
                "tags": ["doses"],
                "summary": "Dosis del día",
                "parameters": [
                    {"$ref": "#/parameters/debugUser"},
                    {"$ref": "#/parameters/authorization"},
                    {"type": "string", "description": "Día YYYY-MM-DD (por defecto hoy)", "name": "date", "in": "query"},
                    {"type": "string", "description": "Zona IANA", "name": "tz", "in": "query"},
                    {"type": "boolean", "description": "Sólo desde ahora hasta el fin del día", "name": "upcoming", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/doses.doseResponse"}}},
                    "400": {"description": "invalid input", "schema": {"type": "string"}}
                }
            }
        },
        "/doses/history": {
            "get": {
                "produces": ["application/json"],
                "tags": ["doses"],
                "summary": "Historial de dosis",
                "parameters": [
                    {"$ref": "#/parameters/debugUser"},
                    {"$ref": "#/parameters/authorization"},
                    {"type": "string", "description": "scheduled_at mínimo (RFC3339)", "name": "from", "in": "query"},
                    {"type": "string", "description": "scheduled_at máximo, exclusivo (RFC3339)", "name": "to", "in": "query"},
                    {"type": "boolean", "description": "true = tomadas, false = pendientes", "name": "taken", "in": "query"},
                    {"type": "string", "description": "ID del medicamento", "name": "medication_id", "in": "query"},
                    {"type": "integer", "description": "Máximo de dosis (1-200)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/doses.doseResponse"}}}
                }
            }
        },
        "/doses/{doseID}/taken": {
            "post": {
                "produces": ["application/json"],
                "tags": ["doses"],
                "summary": "Marcar dosis tomada",
                "parameters": [{"$ref": "#/parameters/debugUser"}, {"$ref": "#/parameters/authorization"}, {"$ref": "#/parameters/doseID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/doses.doseResponse"}},
                    "404": {"description": "dose not found", "schema": {"type": "string"}}
                }
            }
        },
        "/me/alerts": {
            "get": {
                "produces": ["application/json"],
                "tags": ["alerts"],
                "summary": "Alerta actual",
                "parameters": [{"$ref": "#/parameters/debugUser"}, {"$ref": "#/parameters/authorization"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/alerts.alertResponse"}},
                    "204": {"description": "sin alerta"},
                    "401": {"description": "unauthorized", "schema": {"type": "string"}},
                    "502": {"description": "no se pudieron obtener las dosis", "schema": {"type": "string"}}
                }
            },
            "delete": {
                "tags": ["alerts"],
                "summary": "Cerrar sesión de alertas",
                "parameters": [{"$ref": "#/parameters/debugUser"}, {"$ref": "#/parameters/authorization"}],
                "responses": {
                    "204": {"description": "cerrada"}
                }
            }
        },
        "/me/alerts/{doseID}/ack": {
            "post": {
                "tags": ["alerts"],
                "summary": "Confirmar dosis",
                "parameters": [{"$ref": "#/parameters/debugUser"}, {"$ref": "#/parameters/authorization"}, {"$ref": "#/parameters/doseID"}],
                "responses": {
                    "204": {"description": "confirmada"},
                    "400": {"description": "dose id inválido", "schema": {"type": "string"}},
                    "502": {"description": "no se pudo marcar la dosis", "schema": {"type": "string"}}
                }
            }
        }
    },
    "parameters": {
        "debugUser": {"type": "string", "description": "Solo en modo dev, ID de usuario para depuración", "name": "X-Debug-User-ID", "in": "header"},
        "authorization": {"type": "string", "description": "Bearer token en producción", "name": "Authorization", "in": "header"},
        "medicationID": {"type": "string", "description": "ID del medicamento", "name": "medicationID", "in": "path", "required": true},
        "doseID": {"type": "string", "description": "ID de la dosis", "name": "doseID", "in": "path", "required": true}
    },
    "definitions": {
        "palette.Swatch": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "hex": {"type": "string"}
            }
        },
        "medications.createMedicationRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "classification": {"type": "string"},
                "color": {"type": "string", "enum": ["Vermelho", "Azul", "Amarelo", "Laranja", "Azul claro", "Branco", "Verde claro", "Verde escuro", "Preto", "Orquídea"]},
                "dose_amount": {"type": "number"},
                "dose_unit": {"type": "string"},
                "box_quantity": {"type": "integer"},
                "expiration_date": {"type": "string"},
                "daily_frequency": {"type": "integer"},
                "treatment_days": {"type": "integer"},
                "reason": {"type": "string"},
                "note": {"type": "string"},
                "first_dose_at": {"type": "string"}
            }
        },
        "medications.medicationResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "user_id": {"type": "string"},
                "name": {"type": "string"},
                "classification": {"type": "string"},
                "color": {"type": "string"},
                "color_hex": {"type": "string"},
                "dose_amount": {"type": "number"},
                "dose_unit": {"type": "string"},
                "dose_label": {"type": "string"},
                "box_quantity": {"type": "integer"},
                "expiration_date": {"type": "string"},
                "daily_frequency": {"type": "integer"},
                "treatment_days": {"type": "integer"},
                "reason": {"type": "string"},
                "note": {"type": "string"},
                "first_dose_at": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "doses.createDosesRequest": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"},
                "doses": {"type": "array", "items": {"type": "string"}}
            }
        },
        "doses.createDosesResponse": {
            "type": "object",
            "properties": {
                "medication_id": {"type": "string"},
                "count": {"type": "integer"},
                "doses": {"type": "array", "items": {"$ref": "#/definitions/doses.doseResponse"}}
            }
        },
        "doses.medicationSummary": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "dose_amount": {"type": "string"},
                "color": {"type": "string"},
                "color_hex": {"type": "string"}
            }
        },
        "doses.doseResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "medication_id": {"type": "string"},
                "scheduled_at": {"type": "string"},
                "taken": {"type": "boolean"},
                "taken_at": {"type": "string"},
                "medication": {"$ref": "#/definitions/doses.medicationSummary"}
            }
        },
        "alerts.alertResponse": {
            "type": "object",
            "properties": {
                "dose_id": {"type": "string"},
                "medication_name": {"type": "string"},
                "dose_amount": {"type": "string"},
                "color": {"type": "string"},
                "color_hex": {"type": "string"},
                "scheduled_at": {"type": "string"},
                "shown_at": {"type": "string"},
                "state": {"type": "string"}
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
	Title:            "med-reminder API",
	Description:      "Medicamentos, calendario de dosis y alertas a pantalla completa.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
