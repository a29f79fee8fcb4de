// Package docs holds the OpenAPI document of the run-history API.
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
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "system"
                ],
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/api/v1/runs": {
            "get": {
                "description": "Most recent pipeline runs, newest first",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "runs"
                ],
                "summary": "List runs",
                "parameters": [
                    {
                        "type": "integer",
                        "default": 50,
                        "description": "Maximum number of runs",
                        "name": "limit",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/model.RunSummary"
                            }
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/api/v1/runs/{id}": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "runs"
                ],
                "summary": "Get run",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Run ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/model.RunSummary"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/api/v1/runs/{id}/report": {
            "get": {
                "description": "Per-stage durations with the longest and shortest stage. Only completed stages before run_information count.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "runs"
                ],
                "summary": "Get run report",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Run ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/model.RunReport"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/api/v1/tables": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "tables"
                ],
                "summary": "Target tables",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Logical date (YYYY-MM-DD or YYYYMMDD), default today",
                        "name": "date",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handler.TablesResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "handler.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "string"
                }
            }
        },
        "handler.TablesResponse": {
            "type": "object",
            "properties": {
                "date": {
                    "type": "string"
                },
                "tables": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/model.TableDescriptor"
                    }
                }
            }
        },
        "model.Category": {
            "type": "object",
            "properties": {
                "label": {
                    "type": "string"
                },
                "slug": {
                    "type": "string"
                }
            }
        },
        "model.TableDescriptor": {
            "type": "object",
            "properties": {
                "category": {
                    "$ref": "#/definitions/model.Category"
                },
                "name": {
                    "type": "string"
                }
            }
        },
        "model.TableCount": {
            "type": "object",
            "properties": {
                "table": {
                    "type": "string"
                },
                "count": {
                    "type": "integer"
                }
            }
        },
        "model.LoadResult": {
            "type": "object",
            "properties": {
                "tables": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/model.TableCount"
                    }
                },
                "unmatched": {
                    "type": "integer"
                }
            }
        },
        "model.TableVerification": {
            "type": "object",
            "properties": {
                "table": {
                    "type": "string"
                },
                "produced_count": {
                    "type": "integer"
                },
                "persisted_count": {
                    "type": "integer"
                },
                "match": {
                    "type": "boolean"
                }
            }
        },
        "model.VerificationResult": {
            "type": "object",
            "properties": {
                "tables": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/model.TableVerification"
                    }
                }
            }
        },
        "model.StageProgress": {
            "type": "object",
            "properties": {
                "stage": {
                    "type": "string"
                },
                "status": {
                    "type": "string"
                },
                "start_time": {
                    "type": "string"
                },
                "end_time": {
                    "type": "string"
                },
                "error": {
                    "type": "string"
                }
            }
        },
        "model.StageDuration": {
            "type": "object",
            "properties": {
                "stage": {
                    "type": "string"
                },
                "duration": {
                    "type": "integer"
                }
            }
        },
        "model.RunReport": {
            "type": "object",
            "properties": {
                "run_id": {
                    "type": "string"
                },
                "logical_time": {
                    "type": "string"
                },
                "start_time": {
                    "type": "string"
                },
                "end_time": {
                    "type": "string"
                },
                "elapsed": {
                    "type": "integer"
                },
                "stages": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/model.StageDuration"
                    }
                },
                "longest": {
                    "$ref": "#/definitions/model.StageDuration"
                },
                "shortest": {
                    "$ref": "#/definitions/model.StageDuration"
                }
            }
        },
        "model.RunSummary": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "logical_time": {
                    "type": "string"
                },
                "input_path": {
                    "type": "string"
                },
                "status": {
                    "type": "string"
                },
                "attempt": {
                    "type": "integer"
                },
                "error": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string"
                },
                "updated_at": {
                    "type": "string"
                },
                "stages": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/model.StageProgress"
                    }
                },
                "load": {
                    "$ref": "#/definitions/model.LoadResult"
                },
                "verification": {
                    "$ref": "#/definitions/model.VerificationResult"
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Consumption Pipeline API",
	Description:      "Read-only run history of the daily consumption load.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
