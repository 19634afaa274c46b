/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package sidecar

import (
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// sidecarSchema describes the accepted sidecar wire format. Validation is
// advisory: violations are logged but the tolerant parser still runs, so a
// producer that adds extra fields does not break navigation.
const sidecarSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "reading_direction": { "type": "string", "enum": ["ltr", "rtl"] },
    "pages": {
      "oneOf": [
        { "type": "array", "items": { "$ref": "#/definitions/pageEntry" } },
        { "type": "object", "additionalProperties": { "type": "array", "items": { "$ref": "#/definitions/panel" } } }
      ]
    },
    "panels": { "type": "array", "items": { "$ref": "#/definitions/panel" } }
  },
  "definitions": {
    "panel": {
      "type": "object",
      "properties": {
        "x": { "type": "number", "minimum": 0, "maximum": 1 },
        "y": { "type": "number", "minimum": 0, "maximum": 1 },
        "w": { "type": "number", "minimum": 0, "maximum": 1 },
        "h": { "type": "number", "minimum": 0, "maximum": 1 }
      }
    },
    "pageEntry": {
      "type": "object",
      "required": ["page"],
      "properties": {
        "page": { "type": "integer", "minimum": 1 },
        "panels": { "type": "array", "items": { "$ref": "#/definitions/panel" } }
      }
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

// Validate checks sidecar bytes against the schema. A nil return means valid.
func Validate(data []byte) error {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(sidecarSchema))
	})
	if schemaErr != nil {
		return fmt.Errorf("compile sidecar schema: %w", schemaErr)
	}
	res, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validate sidecar: %w", err)
	}
	if !res.Valid() {
		errs := res.Errors()
		if len(errs) > 0 {
			return fmt.Errorf("sidecar schema: %s", errs[0].String())
		}
		return fmt.Errorf("sidecar schema: invalid")
	}
	return nil
}
