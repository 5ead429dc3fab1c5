package gamestate

import (
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/rotisserie/eris"
	"github.com/wI2L/jsondiff"
)

func schemaOf[R Row]() ([]byte, error) {
	var row R
	schema, err := jsonschema.ReflectFromType(reflect.TypeOf(row)).MarshalJSON()
	if err != nil {
		return nil, eris.Wrap(err, "row must be json serializable")
	}
	return schema, nil
}

// validateAgainstSchema reports ErrSchemaMismatch, with the diff as message, when stored differs from current.
func validateAgainstSchema(current, stored []byte) error {
	diff, err := jsondiff.CompareJSON(current, stored)
	if err != nil {
		return eris.Wrap(err, "failed to compare row schema")
	}
	if diff.String() != "" {
		return eris.Wrap(ErrSchemaMismatch, diff.String())
	}
	return nil
}
