//go:build swag

package swaggerkit

import (
	"encoding/json"
	"net/http"
	"strings"

	"churnops/internal/platform/config"

	docs "churnops/internal/services/api/docs"
)

const (
	oasVersion  = "3.0.3"
	defsPrefix  = "#/definitions/"
	compsPrefix = "#/components/schemas/"
	envelopeRef = compsPrefix + "httpkit.Envelope"
)

var docReader = func() string { return docs.SwaggerInfo.ReadDoc() }

// serveDocJSON serves the generated swagger 2.0 doc as OAS 3.0.3, which is
// what the bundled UI renders best, with a default 500 on every operation
func serveDocJSON() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		var spec map[string]any
		if err := json.Unmarshal([]byte(docReader()), &spec); err != nil {
			http.Error(w, "spec parse error", http.StatusInternalServerError)
			return
		}
		toOAS3(spec)

		if v := config.New().Prefix("CHURN_API_").MayString("DOCS_TITLE_SUFFIX", ""); v != "" {
			if info, ok := spec["info"].(map[string]any); ok {
				info["title"] = strings.TrimSpace(stringOf(info["title"]) + " " + v)
			}
		}
		addServerError(spec)

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(spec)
	}
}

// toOAS3 rewrites a swagger 2.0 document in place
// docs that already declare openapi are only pinned to oasVersion
func toOAS3(spec map[string]any) {
	if _, ok := spec["swagger"]; !ok {
		spec["openapi"] = oasVersion
		return
	}
	delete(spec, "swagger")
	spec["openapi"] = oasVersion

	base := stringOf(spec["basePath"])
	if base == "" {
		base = "/"
	}
	spec["servers"] = []any{map[string]any{"url": base}}
	for _, k := range []string{"host", "basePath", "schemes", "consumes", "produces"} {
		delete(spec, k)
	}

	schemas := map[string]any{}
	if defs, ok := spec["definitions"].(map[string]any); ok {
		schemas = defs
		delete(spec, "definitions")
	}
	spec["components"] = map[string]any{"schemas": schemas}

	eachOperation(spec, func(op map[string]any) {
		produces := mediaTypes(op["produces"])
		consumes := mediaTypes(op["consumes"])
		delete(op, "produces")
		delete(op, "consumes")

		if params, ok := op["parameters"].([]any); ok {
			kept := params[:0]
			for _, p := range params {
				pm, ok := p.(map[string]any)
				if !ok {
					continue
				}
				if pm["in"] == "body" {
					op["requestBody"] = map[string]any{
						"required":    pm["required"] == true,
						"description": pm["description"],
						"content":     withMedia(consumes, pm["schema"]),
					}
					continue
				}
				lifted := map[string]any{}
				schema := map[string]any{}
				for k, v := range pm {
					switch k {
					case "type", "format", "enum", "default", "minimum", "maximum", "items":
						schema[k] = v
					default:
						lifted[k] = v
					}
				}
				if len(schema) > 0 {
					lifted["schema"] = schema
				}
				kept = append(kept, lifted)
			}
			if len(kept) == 0 {
				delete(op, "parameters")
			} else {
				op["parameters"] = kept
			}
		}

		responses, _ := op["responses"].(map[string]any)
		for code, r := range responses {
			rm, ok := r.(map[string]any)
			if !ok {
				continue
			}
			if s, ok := rm["schema"]; ok {
				delete(rm, "schema")
				rm["content"] = withMedia(produces, s)
			}
			responses[code] = rm
		}
	})

	rewriteRefs(spec)
}

func withMedia(types []string, schema any) map[string]any {
	out := make(map[string]any, len(types))
	for _, t := range types {
		out[t] = map[string]any{"schema": schema}
	}
	return out
}

func mediaTypes(v any) []string {
	list, _ := v.([]any)
	var out []string
	for _, t := range list {
		if s, ok := t.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		out = []string{"application/json"}
	}
	return out
}

// rewriteRefs points every $ref at components/schemas
func rewriteRefs(node any) {
	switch n := node.(type) {
	case map[string]any:
		for k, v := range n {
			if s, ok := v.(string); ok && k == "$ref" && strings.HasPrefix(s, defsPrefix) {
				n[k] = compsPrefix + strings.TrimPrefix(s, defsPrefix)
				continue
			}
			rewriteRefs(v)
		}
	case []any:
		for _, v := range n {
			rewriteRefs(v)
		}
	}
}

// addServerError gives operations without a 500 the recover middleware's envelope
func addServerError(spec map[string]any) {
	resp := map[string]any{
		"description": "Internal Server Error",
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{"$ref": envelopeRef},
				"example": map[string]any{
					"status_code": 500,
					"status":      "Internal Server Error",
					"code":        1,
					"error":       "panic recovered",
					"request_id":  "a1b2c3/Qx9-000001",
				},
			},
		},
	}
	eachOperation(spec, func(op map[string]any) {
		responses, ok := op["responses"].(map[string]any)
		if !ok {
			responses = map[string]any{}
			op["responses"] = responses
		}
		if _, ok := responses["500"]; !ok {
			responses["500"] = resp
		}
	})
}

func eachOperation(spec map[string]any, fn func(op map[string]any)) {
	paths, _ := spec["paths"].(map[string]any)
	for _, p := range paths {
		methods, ok := p.(map[string]any)
		if !ok {
			continue
		}
		for _, o := range methods {
			if op, ok := o.(map[string]any); ok {
				fn(op)
			}
		}
	}
}

func stringOf(v any) string {
	s, _ := v.(string)
	return s
}
