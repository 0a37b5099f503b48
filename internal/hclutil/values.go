package hclutil

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// StringList converts a list or tuple value into a slice of strings. Each
// element is converted with the usual cty rules, so numbers and bools are
// accepted. A null value yields an empty slice.
func StringList(val cty.Value) ([]string, error) {
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsWhollyKnown() {
		return nil, fmt.Errorf("value is not known")
	}
	ty := val.Type()
	if !ty.IsListType() && !ty.IsTupleType() && !ty.IsSetType() {
		return nil, fmt.Errorf("expected a list, got %s", ty.FriendlyName())
	}

	out := make([]string, 0, val.LengthInt())
	for it := val.ElementIterator(); it.Next(); {
		idx, elem := it.Element()
		str, err := convert.Convert(elem, cty.String)
		if err != nil {
			return nil, fmt.Errorf("element %s: %w", idx.GoString(), err)
		}
		if str.IsNull() {
			return nil, fmt.Errorf("element %s is null", idx.GoString())
		}
		out = append(out, str.AsString())
	}
	return out, nil
}

// StringListVal is the inverse of StringList. Empty input produces an empty
// list rather than a null so that expressions like length(args) still work.
func StringListVal(items []string) cty.Value {
	if len(items) == 0 {
		return cty.ListValEmpty(cty.String)
	}
	vals := make([]cty.Value, len(items))
	for i, item := range items {
		vals[i] = cty.StringVal(item)
	}
	return cty.ListVal(vals)
}
