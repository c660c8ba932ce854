package client

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const analysisSchemaJSON = `{
  "type": "object",
  "required": ["success"],
  "properties": {
    "success": {"type": "boolean"},
    "message": {"type": ["string", "null"]},
    "context_ready": {"type": ["boolean", "null"]},
    "files_used": {"type": ["object", "null"]},
    "results": {
      "type": ["object", "null"],
      "properties": {
        "balance_sheet": {
          "type": ["object", "null"],
          "properties": {
            "title": {"type": ["string", "null"]},
            "pivot_table_html": {"type": ["string", "null"]},
            "summary": {"type": ["string", "null"]},
            "variations": {
              "type": ["object", "null"],
              "properties": {
                "ACTIF": {"$ref": "#/definitions/variation"},
                "PASSIF": {"$ref": "#/definitions/variation"}
              }
            }
          }
        },
        "consumption": {
          "type": ["object", "null"],
          "properties": {
            "title": {"type": ["string", "null"]},
            "consumption_table_html": {"type": ["string", "null"]},
            "analysis_text": {"type": ["string", "null"]},
            "variations": {
              "type": ["object", "null"],
              "properties": {
                "global": {"$ref": "#/definitions/variation"}
              }
            },
            "significant_groups": {
              "type": ["array", "null"],
              "items": {"type": "string"}
            },
            "metier_details": {
              "type": ["object", "null"],
              "properties": {
                "j": {"type": ["array", "null"], "items": {"$ref": "#/definitions/row"}},
                "jMinus1": {"type": ["array", "null"], "items": {"$ref": "#/definitions/row"}}
              }
            },
            "metier_detailed_analysis": {"type": ["string", "null"]}
          }
        }
      }
    }
  },
  "definitions": {
    "variation": {
      "type": ["object", "null"],
      "required": ["j_minus_1", "j", "variation"],
      "properties": {
        "j_minus_1": {"type": "number"},
        "j": {"type": "number"},
        "variation": {"type": "number"}
      }
    },
    "row": {
      "type": "object",
      "required": ["LCR_ECO_GROUPE_METIERS", "Métier", "LCR_ECO_IMPACT_LCR_Bn"],
      "properties": {
        "LCR_ECO_GROUPE_METIERS": {"type": "string"},
        "Métier": {"type": "string"},
        "LCR_ECO_IMPACT_LCR_Bn": {"type": "number"}
      }
    }
  }
}`

var analysisSchema = mustSchema(analysisSchemaJSON)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("invalid analysis schema: %v", err))
	}
	return schema
}

func validateAnalysis(body []byte) error {
	result, err := analysisSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if result.Valid() {
		return nil
	}

	var details []string
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return fmt.Errorf("%w: %s", ErrMalformedPayload, strings.Join(details, "; "))
}
