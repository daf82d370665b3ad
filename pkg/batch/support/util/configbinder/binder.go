// Package configbinder binds loosely-typed maps onto structs with mapstructure.
// Configuration sections (entity profiles, database and storage entries) and
// normalized import records are all decoded through it.
package configbinder

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// BindProperties decodes properties into target using `yaml` tags.
// Weak typing is enabled, so "1000" binds to an int field.
func BindProperties(properties map[string]interface{}, target interface{}) error {
	if len(properties) == 0 {
		return nil
	}
	return decode(properties, target, "yaml", true)
}

// BindValue decodes an arbitrary value (typically one entry of a map[string]interface{}
// loaded from YAML) into target using `yaml` tags.
func BindValue(value interface{}, target interface{}) error {
	if value == nil {
		return nil
	}
	return decode(value, target, "yaml", true)
}

// BindRecord decodes an already-typed field map into target using `field` tags.
// Weak typing is disabled: the values are expected to carry their final types.
func BindRecord(fields map[string]interface{}, target interface{}) error {
	return decode(fields, target, "field", false)
}

func decode(input interface{}, target interface{}, tagName string, weak bool) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          tagName,
		WeaklyTypedInput: weak,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(input); err != nil {
		targetType := reflect.TypeOf(target)
		if targetType != nil && targetType.Kind() == reflect.Ptr {
			targetType = targetType.Elem()
		}
		return fmt.Errorf("failed to bind properties to %v: %w", targetType, err)
	}
	return nil
}
