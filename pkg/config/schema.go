package config

const deploySchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["steps"],
  "properties": {
    "region": {"type": "string"},
    "endpoint": {"type": "string"},
    "credentials": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "profile": {"type": "string"},
        "accessKeyID": {"type": "string"},
        "secretAccessKey": {"type": "string"},
        "sessionToken": {"type": "string"},
        "roleARN": {"type": "string"},
        "roleSessionName": {"type": "string"}
      }
    },
    "vars": {
      "type": "object",
      "additionalProperties": {"type": ["string", "number", "boolean"]}
    },
    "steps": {
      "type": "array",
      "minItems": 1,
      "items": {"$ref": "#/definitions/step"}
    }
  },
  "definitions": {
    "step": {
      "type": "object",
      "minProperties": 1,
      "maxProperties": 1,
      "additionalProperties": false,
      "properties": {
        "registerTaskDefinition": {"$ref": "#/definitions/registerTaskDefinition"},
        "updateService": {"$ref": "#/definitions/updateService"}
      }
    },
    "registerTaskDefinition": {
      "type": "object",
      "additionalProperties": false,
      "required": ["source"],
      "properties": {
        "family": {"type": "string"},
        "source": {"$ref": "#/definitions/source"},
        "changes": {
          "type": "array",
          "items": {
            "type": "object",
            "additionalProperties": false,
            "required": ["path", "value"],
            "properties": {
              "path": {"type": "string", "minLength": 1},
              "value": {"type": ["string", "number", "boolean"]}
            }
          }
        }
      }
    },
    "source": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "file": {"type": "string", "minLength": 1},
        "existingRevision": {"type": "string", "minLength": 1},
        "kind": {"type": "string", "minLength": 1},
        "value": {"type": "string", "minLength": 1}
      },
      "oneOf": [
        {"required": ["file"], "not": {"anyOf": [{"required": ["existingRevision"]}, {"required": ["kind"]}, {"required": ["value"]}]}},
        {"required": ["existingRevision"], "not": {"anyOf": [{"required": ["file"]}, {"required": ["kind"]}, {"required": ["value"]}]}},
        {"required": ["kind", "value"], "not": {"anyOf": [{"required": ["file"]}, {"required": ["existingRevision"]}]}}
      ]
    },
    "updateService": {
      "type": "object",
      "additionalProperties": false,
      "required": ["service"],
      "properties": {
        "cluster": {"type": "string"},
        "service": {"type": "string", "minLength": 1},
        "taskDefinition": {"type": "string"}
      }
    }
  }
}`
