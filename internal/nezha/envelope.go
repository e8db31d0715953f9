package nezha

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strings"
)

// Shape selects the response envelope an endpoint uses. It is fixed per
// endpoint; both shapes can parse the same bytes, so it is never inferred.
type Shape int

const (
	// ShapeModern is {"success": bool, "error": string, "data": T}.
	ShapeModern Shape = iota
	// ShapeLegacy is {"code": int, "message": string, "result": T}.
	ShapeLegacy
)

func (s Shape) String() string {
	if s == ShapeLegacy {
		return "legacy"
	}
	return "modern"
}

const genericBackendFailure = "request failed"

type modernEnvelope struct {
	Success *bool           `json:"success"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

type legacyEnvelope struct {
	Code    *int            `json:"code"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// Keyed is implemented by payload types whose JSON keys must be present.
// encoding/json cannot tell a missing key from a zero value, so absence is
// checked before decoding.
type Keyed interface {
	RequiredKeys() []string
}

// Decode parses raw as the given envelope shape and returns its payload.
func Decode[T any](raw []byte, shape Shape) (T, error) {
	var out T
	payload, err := open(raw, shape)
	if err != nil {
		return out, err
	}
	if isNull(payload) {
		return out, &InvalidResponseError{Description: payloadKey(shape) + " is missing"}
	}
	if err := checkRequired(payload, reflect.TypeFor[T](), payloadKey(shape)); err != nil {
		return out, err
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return out, classify(err, payloadKey(shape))
	}
	return out, nil
}

// DecodeEmpty checks the envelope of a response whose payload is irrelevant.
func DecodeEmpty(raw []byte, shape Shape) error {
	_, err := open(raw, shape)
	return err
}

func open(raw []byte, shape Shape) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &DecodeError{Kind: DecodeCorrupted, Detail: "response is not a JSON object"}
	}

	if shape == ShapeLegacy {
		var env legacyEnvelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, classify(err, "")
		}
		if env.Code == nil {
			return nil, &DecodeError{Kind: DecodeMissingKey, Detail: `missing key "code"`}
		}
		if !legacySuccess(*env.Code) {
			return nil, &BackendError{Message: orDefault(env.Message)}
		}
		return env.Result, nil
	}

	var env modernEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, classify(err, "")
	}
	if env.Success == nil {
		return nil, &DecodeError{Kind: DecodeMissingKey, Detail: `missing key "success"`}
	}
	if !*env.Success {
		return nil, &BackendError{Message: orDefault(env.Error)}
	}
	return env.Data, nil
}

// legacySuccess accepts both sentinels seen on older dashboards.
func legacySuccess(code int) bool {
	return code == 200 || code == 0
}

func payloadKey(shape Shape) string {
	if shape == ShapeLegacy {
		return "result"
	}
	return "data"
}

func orDefault(message string) string {
	if message == "" {
		return genericBackendFailure
	}
	return message
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func classify(err error, prefix string) *DecodeError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		switch {
		case prefix != "" && field != "":
			field = prefix + "." + field
		case field == "":
			field = prefix
		}
		detail := fmt.Sprintf("%s: cannot use JSON %s as %s", field, typeErr.Value, typeErr.Type)
		if field == "" {
			detail = fmt.Sprintf("cannot use JSON %s as %s", typeErr.Value, typeErr.Type)
		}
		return &DecodeError{Kind: DecodeTypeMismatch, Detail: detail, Err: err}
	}
	return &DecodeError{Kind: DecodeCorrupted, Detail: err.Error(), Err: err}
}

var keyedType = reflect.TypeFor[Keyed]()

// checkRequired verifies required keys for a Keyed struct payload, or for
// every element of a slice or map of Keyed values. Payloads whose outer shape
// does not match are left for json.Unmarshal to reject.
func checkRequired(payload json.RawMessage, t reflect.Type, path string) error {
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		keys := requiredKeys(t.Elem())
		if keys == nil {
			return nil
		}
		var items []map[string]json.RawMessage
		if err := json.Unmarshal(payload, &items); err != nil {
			return nil
		}
		for i, item := range items {
			if err := missing(item, keys, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case reflect.Map:
		keys := requiredKeys(t.Elem())
		if keys == nil {
			return nil
		}
		var items map[string]map[string]json.RawMessage
		if err := json.Unmarshal(payload, &items); err != nil {
			return nil
		}
		ids := make([]string, 0, len(items))
		for id := range items {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			if err := missing(items[id], keys, fmt.Sprintf("%s[%q]", path, id)); err != nil {
				return err
			}
		}
	default:
		keys := requiredKeys(t)
		if keys == nil {
			return nil
		}
		var item map[string]json.RawMessage
		if err := json.Unmarshal(payload, &item); err != nil {
			return nil
		}
		if err := missing(item, keys, path); err != nil {
			return err
		}
		return checkNested(item, t, keys, path)
	}
	return nil
}

// checkNested descends into the required fields of a Keyed struct so a frame
// that wraps a server list checks every server too.
func checkNested(item map[string]json.RawMessage, t reflect.Type, keys []string, path string) error {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name := jsonName(field)
		if name == "" || !slices.Contains(keys, name) {
			continue
		}
		if err := checkRequired(item[name], field.Type, path+"."+name); err != nil {
			return err
		}
	}
	return nil
}

func jsonName(field reflect.StructField) string {
	if !field.IsExported() {
		return ""
	}
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return field.Name
	}
	return name
}

func requiredKeys(t reflect.Type) []string {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if !t.Implements(keyedType) {
		return nil
	}
	return reflect.Zero(t).Interface().(Keyed).RequiredKeys()
}

func missing(item map[string]json.RawMessage, keys []string, path string) error {
	if item == nil {
		return &DecodeError{Kind: DecodeMissingKey, Detail: path + " is null"}
	}
	for _, key := range keys {
		value, ok := item[key]
		if !ok {
			return &DecodeError{Kind: DecodeMissingKey, Detail: fmt.Sprintf("%s: missing key %q", path, key)}
		}
		if isNull(value) {
			return &DecodeError{Kind: DecodeMissingKey, Detail: fmt.Sprintf("%s: key %q is null", path, key)}
		}
	}
	return nil
}
