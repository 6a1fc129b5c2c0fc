package dataset

// sampleSchema is the JSON schema every dataset line must satisfy.
const sampleSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "TrainingSample",
  "type": "object",
  "required": ["screen_state", "command", "target_element_id"],
  "properties": {
    "command": {"type": "string", "minLength": 1},
    "target_element_id": {"type": "integer", "minimum": 0},
    "action_type": {"type": "string"},
    "session_id": {"type": "string"},
    "created_at": {"type": "string"},
    "screen_state": {
      "type": "object",
      "required": ["elements", "focused_app", "timestamp", "screen_width", "screen_height"],
      "properties": {
        "focused_app": {"type": "string"},
        "timestamp": {"type": "string"},
        "screen_width": {"type": "integer", "minimum": 0},
        "screen_height": {"type": "integer", "minimum": 0},
        "skipped_count": {"type": "integer", "minimum": 0},
        "max_depth": {"type": "integer", "minimum": 0},
        "generation": {"type": "integer", "minimum": 0},
        "elements": {
          "type": "array",
          "items": {"$ref": "#/definitions/element"}
        }
      }
    }
  },
  "definitions": {
    "bbox": {
      "type": "object",
      "required": ["x", "y", "width", "height"],
      "properties": {
        "x": {"type": "integer"},
        "y": {"type": "integer"},
        "width": {"type": "integer", "minimum": 0},
        "height": {"type": "integer", "minimum": 0}
      }
    },
    "element": {
      "type": "object",
      "required": ["id", "role", "label", "bbox", "enabled", "focused", "depth"],
      "properties": {
        "id": {"type": "integer", "minimum": 0},
        "role": {
          "type": "string",
          "enum": ["button", "link", "textfield", "textarea", "checkbox", "radio",
                   "dropdown", "menuitem", "tab", "slider", "disclosure", "image",
                   "text", "group", "window", "app", "scroll", "table", "row",
                   "cell", "colorpicker", "other"]
        },
        "label": {"type": "string"},
        "bbox": {"$ref": "#/definitions/bbox"},
        "enabled": {"type": "boolean"},
        "focused": {"type": "boolean"},
        "value": {"type": ["string", "null"]},
        "description": {"type": ["string", "null"]},
        "actions": {"type": "array", "items": {"type": "string"}},
        "depth": {"type": "integer", "minimum": 0},
        "parent_id": {"type": ["integer", "null"], "minimum": 0}
      }
    }
  }
}`
