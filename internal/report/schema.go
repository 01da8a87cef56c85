package report

// Schema is the JSON Schema (Draft 2020-12) for mimic execution
// reports. It documents the structure returned by WriteJSON.
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://github.com/unbound-force/mimic/execution-report.schema.json",
  "title": "Mimic Execution Report",
  "description": "Output schema for mimic execution reports and mimic inspect --format=json",
  "type": "object",
  "required": ["version", "execution_id", "phase", "expectations", "history", "errors"],
  "properties": {
    "version": {
      "type": "string",
      "description": "Schema version (semver)"
    },
    "execution_id": {
      "type": "string",
      "description": "Unique identifier of the test execution"
    },
    "test": {
      "type": "string",
      "description": "Name of the test that owned the execution"
    },
    "phase": {
      "type": "string",
      "enum": ["recording", "replaying", "verifying_unordered", "verifying_ordered", "finished"]
    },
    "expectations": {
      "type": "array",
      "items": { "$ref": "#/$defs/Expectation" }
    },
    "history": {
      "type": "array",
      "items": { "$ref": "#/$defs/Call" }
    },
    "errors": {
      "type": "array",
      "items": { "$ref": "#/$defs/Failure" }
    }
  },
  "$defs": {
    "Expectation": {
      "type": "object",
      "required": ["index", "owner", "method", "arguments", "strict", "block", "min", "max", "count", "times", "results"],
      "properties": {
        "index": { "type": "integer", "minimum": 0 },
        "owner": { "type": "string", "description": "Declaring type" },
        "method": { "type": "string", "description": "Name and signature" },
        "arguments": { "type": "string", "description": "Argument matchers" },
        "strict": { "type": "boolean" },
        "block": {
          "type": "integer",
          "description": "Recording block ordinal, -1 when recorded outside a block"
        },
        "min": { "type": "integer", "minimum": 0 },
        "max": {
          "type": "integer",
          "minimum": -1,
          "description": "Maximum invocations, -1 when unbounded"
        },
        "count": { "type": "integer", "minimum": 0 },
        "times": { "type": "string", "description": "Human-readable constraints" },
        "results": {
          "type": "array",
          "items": {
            "type": "string",
            "enum": ["return", "throw", "delegate", "forward", "unknown"]
          }
        }
      }
    },
    "Call": {
      "type": "object",
      "required": ["position", "owner", "method", "arguments", "thread", "expectation", "verified"],
      "properties": {
        "position": { "type": "integer", "minimum": 0 },
        "owner": { "type": "string" },
        "method": { "type": "string" },
        "arguments": { "type": "string" },
        "thread": { "type": "integer", "minimum": 0 },
        "expectation": {
          "type": "integer",
          "minimum": -1,
          "description": "Index of the matched expectation, -1 for none"
        },
        "verified": { "type": "boolean" }
      }
    },
    "Failure": {
      "type": "object",
      "required": ["kind", "message"],
      "properties": {
        "kind": {
          "type": "string",
          "enum": ["MissingInvocation", "UnexpectedInvocation", "UnexpectedInvocationOrder", "ConfigurationError"]
        },
        "message": { "type": "string" },
        "invocation": { "type": "string" },
        "details": { "type": "array", "items": { "type": "string" } },
        "reason": { "type": "string" },
        "cause": { "$ref": "#/$defs/Failure" }
      }
    }
  }
}`
