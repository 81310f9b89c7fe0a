package erp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"focorders/internal/util"
)

const orderNumberField = "SalesOrderWithoutCharge"

// OrderDocument is the "d" object of a created order, kept both verbatim and decoded.
type OrderDocument struct {
	Raw    json.RawMessage
	Fields map[string]any
}

type envelope struct {
	D json.RawMessage `json:"d"`
}

// DecodeOrder unwraps the OData v2 {"d": {...}} envelope.
func DecodeOrder(body []byte) (OrderDocument, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return OrderDocument{}, fmt.Errorf("decode order response: %w", err)
	}
	raw := bytes.TrimSpace(env.D)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return OrderDocument{}, errors.New("order response has no d envelope")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return OrderDocument{}, fmt.Errorf("decode order document: %w", err)
	}
	return OrderDocument{Raw: json.RawMessage(raw), Fields: fields}, nil
}

func (d OrderDocument) OrderNumber() string {
	return util.Deref(d.String(orderNumberField))
}

// String returns a scalar field as text, or nil when absent, null or blank.
func (d OrderDocument) String(key string) *string {
	v, ok := d.Fields[key]
	if !ok || v == nil {
		return nil
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case json.Number:
		s = t.String()
	case bool:
		s = strconv.FormatBool(t)
	default:
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return util.StringPtr(s)
}
