package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/varlor/calculations/internal/dataset"
	"github.com/varlor/calculations/internal/models"
	"github.com/varlor/calculations/internal/utils"
)

// parsedRequest is the typed form of one analysis request after envelope
// validation.
type parsedRequest struct {
	descriptor   models.DataDescriptor
	options      models.AnalysisOptions
	declaredMime string
	dataset      *dataset.Dataset
	operations   []models.OperationDefinition
}

// decodeRequest parses and validates a request body in the given format.
// Row decoding walks the raw documents directly so that column order
// follows first appearance across the input rows.
func decodeRequest(body []byte, format BodyFormat) (*parsedRequest, error) {
	if format == FormatYAML {
		return decodeYAMLRequest(body)
	}
	return decodeJSONRequest(body)
}

// ---- JSON ----

func decodeJSONRequest(body []byte) (*parsedRequest, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, NewBadRequest("the JSON body is invalid: " + err.Error())
	}

	request := &parsedRequest{}

	rawDescriptor, ok := root["data_descriptor"]
	if !ok || isJSONNull(rawDescriptor) {
		return nil, NewBadRequest("the `data_descriptor` field is required")
	}
	var descriptor map[string]interface{}
	if err := json.Unmarshal(rawDescriptor, &descriptor); err != nil {
		return nil, NewValidation("`data_descriptor` must be an object")
	}
	if err := parseDescriptor(descriptor, request); err != nil {
		return nil, err
	}

	if rawOptions, ok := root["options"]; ok && !isJSONNull(rawOptions) {
		var options map[string]interface{}
		if err := json.Unmarshal(rawOptions, &options); err != nil {
			return nil, NewValidation("`options` must be an object")
		}
		if err := parseOptions(options, request); err != nil {
			return nil, err
		}
	}

	rawData, ok := root["data"]
	if !ok || isJSONNull(rawData) {
		return nil, NewBadRequest("the `data` field is required")
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(rawData, &rows); err != nil {
		return nil, NewValidation("the `data` field must be a sequence of row objects")
	}

	ds := dataset.New(nil)
	for _, rawRow := range rows {
		point, err := decodeJSONRow(rawRow, ds)
		if err != nil {
			return nil, err
		}
		ds.Append(point)
	}
	request.dataset = ds

	if rawOperations, ok := root["operations"]; ok && !isJSONNull(rawOperations) {
		var items []map[string]interface{}
		if err := json.Unmarshal(rawOperations, &items); err != nil {
			return nil, NewValidation("the `operations` field must be a sequence of objects")
		}
		operations, err := parseOperations(items)
		if err != nil {
			return nil, err
		}
		request.operations = operations
	}

	return request, nil
}

// decodeJSONRow walks one row object token by token, preserving the
// order in which its keys appear.
func decodeJSONRow(raw json.RawMessage, ds *dataset.Dataset) (*dataset.Point, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, NewValidation("each entry of `data` must be an object")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, NewValidation("each entry of `data` must be an object")
	}

	point := dataset.NewPoint()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, NewBadRequest("the JSON body is invalid: " + err.Error())
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, NewBadRequest("the JSON body is invalid")
		}

		var rawValue interface{}
		if err := dec.Decode(&rawValue); err != nil {
			return nil, NewBadRequest("the JSON body is invalid: " + err.Error())
		}

		if err := setRowField(point, ds, key, rawValue, FormatJSON); err != nil {
			return nil, err
		}
	}
	return point, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// ---- YAML ----

func decodeYAMLRequest(body []byte) (*parsedRequest, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(body, &doc); err != nil {
		return nil, NewBadRequest("the YAML body is invalid: " + err.Error())
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, NewBadRequest("the request body must be a mapping")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, NewBadRequest("the request body must be a mapping")
	}

	var descriptorNode, optionsNode, dataNode, operationsNode *yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		switch root.Content[i].Value {
		case "data_descriptor":
			descriptorNode = root.Content[i+1]
		case "options":
			optionsNode = root.Content[i+1]
		case "data":
			dataNode = root.Content[i+1]
		case "operations":
			operationsNode = root.Content[i+1]
		}
	}

	request := &parsedRequest{}

	if descriptorNode == nil || isYAMLNull(descriptorNode) {
		return nil, NewBadRequest("the `data_descriptor` field is required")
	}
	var descriptor map[string]interface{}
	if err := descriptorNode.Decode(&descriptor); err != nil {
		return nil, NewValidation("`data_descriptor` must be a mapping")
	}
	if err := parseDescriptor(descriptor, request); err != nil {
		return nil, err
	}

	if optionsNode != nil && !isYAMLNull(optionsNode) {
		var options map[string]interface{}
		if err := optionsNode.Decode(&options); err != nil {
			return nil, NewValidation("`options` must be a mapping")
		}
		if err := parseOptions(options, request); err != nil {
			return nil, err
		}
	}

	if dataNode == nil || isYAMLNull(dataNode) {
		return nil, NewBadRequest("the `data` field is required")
	}
	if dataNode.Kind != yaml.SequenceNode {
		return nil, NewValidation("the `data` field must be a sequence of row mappings")
	}

	ds := dataset.New(nil)
	for _, rowNode := range dataNode.Content {
		point, err := decodeYAMLRow(rowNode, ds)
		if err != nil {
			return nil, err
		}
		ds.Append(point)
	}
	request.dataset = ds

	if operationsNode != nil && !isYAMLNull(operationsNode) {
		var items []map[string]interface{}
		if err := operationsNode.Decode(&items); err != nil {
			return nil, NewValidation("the `operations` field must be a sequence of mappings")
		}
		operations, err := parseOperations(items)
		if err != nil {
			return nil, err
		}
		request.operations = operations
	}

	return request, nil
}

// decodeYAMLRow reads one row mapping, preserving key order.
func decodeYAMLRow(rowNode *yaml.Node, ds *dataset.Dataset) (*dataset.Point, error) {
	if rowNode.Kind != yaml.MappingNode {
		return nil, NewValidation("each entry of `data` must be a mapping")
	}

	point := dataset.NewPoint()
	for i := 0; i+1 < len(rowNode.Content); i += 2 {
		key := rowNode.Content[i].Value
		valueNode := rowNode.Content[i+1]

		var rawValue interface{}
		if err := valueNode.Decode(&rawValue); err != nil {
			return nil, NewBadRequest("the YAML body is invalid: " + err.Error())
		}

		if err := setRowField(point, ds, key, rawValue, FormatYAML); err != nil {
			return nil, err
		}
	}
	return point, nil
}

func isYAMLNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}

// ---- shared envelope parsing ----

func parseDescriptor(descriptor map[string]interface{}, request *parsedRequest) error {
	origin, _ := descriptor["origin"].(string)
	request.descriptor.Origin = strings.TrimSpace(origin)
	if request.descriptor.Origin == "" {
		return NewBadRequest("the `data_descriptor.origin` field is required")
	}

	if contentType, ok := descriptor["content_type"].(string); ok {
		request.descriptor.ContentType = contentType
		request.declaredMime = NormalizeMime(contentType)
	}

	switch autodetect := descriptor["autodetect"].(type) {
	case nil:
	case bool:
		request.descriptor.Autodetect = autodetect
	case string:
		request.descriptor.Autodetect = isTruthyScalar(autodetect)
	default:
		return NewValidation("`data_descriptor.autodetect` must be a boolean")
	}
	return nil
}

func parseOptions(options map[string]interface{}, request *parsedRequest) error {
	raw, ok := options["drop_outliers_percent"]
	if !ok || raw == nil {
		return nil
	}
	multiplier, ok := utils.ToFloat64(raw)
	if !ok {
		return NewValidation("`drop_outliers_percent` must be a number")
	}
	request.options.DropOutliersPercent = &multiplier
	return nil
}

// setRowField stores one decoded row entry on the point. The reserved
// `_meta` key maps to the provenance tree and never becomes a data field.
func setRowField(point *dataset.Point, ds *dataset.Dataset, key string, rawValue interface{}, format BodyFormat) error {
	if key == "_meta" {
		metaMap, ok := rawValue.(map[string]interface{})
		if !ok {
			return NewValidation("the `_meta` field must be an object")
		}
		meta, err := dataset.MetaFromMap(metaMap)
		if err != nil {
			return NewValidation(err.Error())
		}
		if !meta.IsEmpty() {
			*point.Meta() = *meta
		}
		return nil
	}
	if key == "" {
		return NewValidation("a column name cannot be empty")
	}

	value, err := convertFieldValue(rawValue, format)
	if err != nil {
		return err
	}
	ds.EnsureColumn(key)
	point.Set(key, value)
	return nil
}

// convertFieldValue maps one decoded scalar to a field value. YAML string
// scalars additionally coerce truthy/falsy words and fully-numeric text,
// mirroring how untagged YAML scalars are conventionally read.
func convertFieldValue(raw interface{}, format BodyFormat) (dataset.Value, error) {
	switch val := raw.(type) {
	case nil:
		return dataset.Null(), nil
	case bool:
		return dataset.Bool(val), nil
	case string:
		if format == FormatYAML {
			if isTruthyScalar(val) {
				return dataset.Bool(true), nil
			}
			if isFalsyScalar(val) {
				return dataset.Bool(false), nil
			}
			if num, err := strconv.ParseFloat(val, 64); err == nil {
				return dataset.Number(num), nil
			}
		}
		return dataset.Text(val), nil
	case map[string]interface{}, []interface{}:
		return dataset.Null(), NewValidation("nested values are not supported in dataset rows")
	default:
		if num, ok := utils.ToFloat64(raw); ok {
			return dataset.Number(num), nil
		}
		return dataset.Null(), NewValidation(fmt.Sprintf("unsupported value type %T in dataset rows", raw))
	}
}

func parseOperations(items []map[string]interface{}) ([]models.OperationDefinition, error) {
	operations := make([]models.OperationDefinition, 0, len(items))
	for _, item := range items {
		exprText, ok := item["expr"].(string)
		if !ok || strings.TrimSpace(exprText) == "" {
			return nil, NewValidation("each operation must contain a non-empty `expr` field")
		}

		operation := models.OperationDefinition{Expr: strings.TrimSpace(exprText)}
		if alias, ok := item["alias"].(string); ok {
			operation.Alias = strings.TrimSpace(alias)
		}

		if rawParams, ok := item["params"]; ok && rawParams != nil {
			params, ok := rawParams.(map[string]interface{})
			if !ok {
				return nil, NewValidation("`operations.params` must be an object")
			}
			if len(params) > 0 {
				operation.Params = make(map[string]string, len(params))
				for key, rawValue := range params {
					text, err := stringifyParam(rawValue)
					if err != nil {
						return nil, NewValidation(fmt.Sprintf("parameter %q: %s", key, err))
					}
					operation.Params[key] = text
				}
			}
		}
		operations = append(operations, operation)
	}
	return operations, nil
}

func stringifyParam(raw interface{}) (string, error) {
	switch val := raw.(type) {
	case string:
		return val, nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		if num, ok := utils.ToFloat64(raw); ok {
			return strconv.FormatFloat(num, 'g', -1, 64), nil
		}
		return "", fmt.Errorf("parameter values must be scalar")
	}
}

func isTruthyScalar(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "yes", "1", "on":
		return true
	}
	return false
}

func isFalsyScalar(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "false", "no", "0", "off":
		return true
	}
	return false
}
