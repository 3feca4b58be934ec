package transform

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/vk/flowgrid/internal/typesys"
)

var addressRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// RegisterBuiltins adds the standard conversion set to a catalog. The type
// registry must already contain the built-in types.
func RegisterBuiltins(c *Catalog) error {
	builtins := []*Transformer{
		{
			ID: "string_to_number", From: typesys.TypeString, To: typesys.TypeNumber, Cost: 1,
			Apply: convertTo(cty.Number),
		},
		{
			ID: "number_to_string", From: typesys.TypeNumber, To: typesys.TypeString, Cost: 0.5,
			Apply: convertTo(cty.String),
		},
		{
			ID: "boolean_to_string", From: typesys.TypeBoolean, To: typesys.TypeString, Cost: 0.5,
			Apply: convertTo(cty.String),
		},
		{
			ID: "string_to_boolean", From: typesys.TypeString, To: typesys.TypeBoolean, Cost: 1,
			Apply: convertTo(cty.Bool),
		},
		{
			ID: "number_to_boolean", From: typesys.TypeNumber, To: typesys.TypeBoolean, Cost: 1, Lossy: true,
			Apply: numberToBool,
		},
		{
			ID: "object_to_json", From: typesys.TypeObject, To: typesys.TypeString, Cost: 1,
			Apply: toJSONString,
		},
		{
			ID: "json_to_object", From: typesys.TypeString, To: typesys.TypeObject, Cost: 2,
			Apply: fromJSONString,
		},
		{
			ID: "object_values", From: typesys.TypeObject, To: typesys.TypeArray, Cost: 1, Lossy: true,
			Apply: objectValues,
		},
		{
			ID: "array_to_json", From: typesys.TypeArray, To: typesys.TypeString, Cost: 1,
			Apply: toJSONString,
		},
		{
			ID: "string_to_address", From: typesys.TypeString, To: typesys.TypeAddress, Cost: 1,
			Apply: stringToAddress,
		},
		{
			ID: "token_amount_to_number", From: typesys.TypeTokenAmount, To: typesys.TypeNumber, Cost: 1, Lossy: true,
			Apply: tokenAmountToNumber,
		},
		{
			ID: "transaction_to_object", From: typesys.TypeTransaction, To: typesys.TypeObject, Cost: 0.5,
			Apply: passthrough,
		},
	}
	for _, t := range builtins {
		if err := c.Register(t); err != nil {
			return err
		}
	}
	return nil
}

func convertTo(target cty.Type) ApplyFunc {
	return func(v cty.Value) (cty.Value, error) {
		return convert.Convert(v, target)
	}
}

func passthrough(v cty.Value) (cty.Value, error) { return v, nil }

func numberToBool(v cty.Value) (cty.Value, error) {
	if v.Type() != cty.Number {
		return cty.NilVal, fmt.Errorf("expected a number, got %s", v.Type().FriendlyName())
	}
	f, _ := v.AsBigFloat().Float64()
	return cty.BoolVal(f != 0), nil
}

func toJSONString(v cty.Value) (cty.Value, error) {
	buf, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return cty.NilVal, err
	}
	return cty.StringVal(string(buf)), nil
}

func fromJSONString(v cty.Value) (cty.Value, error) {
	if v.Type() != cty.String {
		return cty.NilVal, fmt.Errorf("expected a JSON string, got %s", v.Type().FriendlyName())
	}
	raw := []byte(v.AsString())
	implied, err := ctyjson.ImpliedType(raw)
	if err != nil {
		return cty.NilVal, fmt.Errorf("value is not valid JSON: %w", err)
	}
	return ctyjson.Unmarshal(raw, implied)
}

func objectValues(v cty.Value) (cty.Value, error) {
	if !v.Type().IsObjectType() && !v.Type().IsMapType() {
		return cty.NilVal, fmt.Errorf("expected an object, got %s", v.Type().FriendlyName())
	}
	if v.LengthInt() == 0 {
		return cty.EmptyTupleVal, nil
	}
	var vals []cty.Value
	for it := v.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		vals = append(vals, ev)
	}
	return cty.TupleVal(vals), nil
}

func stringToAddress(v cty.Value) (cty.Value, error) {
	if v.Type() != cty.String {
		return cty.NilVal, fmt.Errorf("expected a string, got %s", v.Type().FriendlyName())
	}
	addr := strings.TrimSpace(v.AsString())
	if !addressRegex.MatchString(addr) {
		return cty.NilVal, fmt.Errorf("%q is not a valid address", addr)
	}
	return cty.StringVal(strings.ToLower(addr)), nil
}

// tokenAmountToNumber flattens a {amount, decimals} object into a plain
// number. Lossy: big integer amounts lose precision past float64 range.
func tokenAmountToNumber(v cty.Value) (cty.Value, error) {
	if !v.Type().IsObjectType() || !v.Type().HasAttribute("amount") {
		return cty.NilVal, fmt.Errorf("expected a token amount object with an 'amount' attribute")
	}
	amount, err := convert.Convert(v.GetAttr("amount"), cty.Number)
	if err != nil {
		return cty.NilVal, err
	}
	if v.Type().HasAttribute("decimals") {
		decimals, err := convert.Convert(v.GetAttr("decimals"), cty.Number)
		if err != nil {
			return cty.NilVal, err
		}
		a, _ := amount.AsBigFloat().Float64()
		d, _ := decimals.AsBigFloat().Float64()
		scale := 1.0
		for i := 0; i < int(d); i++ {
			scale *= 10
		}
		return cty.NumberFloatVal(a / scale), nil
	}
	return amount, nil
}
