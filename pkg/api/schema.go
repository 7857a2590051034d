package api

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// claimRequestSchema bounds the intake payload before anything touches
// the pipeline: a numeric beneficiary identifier up to the canonical
// width and a non-empty scheme name.
const claimRequestSchema = `{
	"type": "object",
	"required": ["beneficiary_id", "scheme"],
	"additionalProperties": false,
	"properties": {
		"beneficiary_id": {
			"type": "string",
			"pattern": "^\\s*[0-9]{1,12}\\s*$"
		},
		"scheme": {
			"type": "string",
			"minLength": 1,
			"maxLength": 128
		}
	}
}`

func compileClaimSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	const url = "https://jandhan.schemas.local/claim-request.schema.json"
	if err := c.AddResource(url, strings.NewReader(claimRequestSchema)); err != nil {
		return nil, fmt.Errorf("claim schema load failed: %w", err)
	}
	schema, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("claim schema compile failed: %w", err)
	}
	return schema, nil
}
