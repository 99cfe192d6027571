package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
)

var (
	decimalType     = reflect.TypeOf(decimal.Decimal{})
	nullDecimalType = reflect.TypeOf(decimal.NullDecimal{})
)

// DecodeHook returns the mapstructure hook used to decode the configuration.
// YAML numbers and numeric strings both become decimals; strings such as
// "30s" become durations.
func DecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		decimalHook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

func decimalHook(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	switch to {
	case decimalType:
		return toDecimal(data)
	case nullDecimalType:
		if data == nil {
			return decimal.NullDecimal{}, nil
		}
		d, err := toDecimal(data)
		if err != nil {
			return nil, err
		}
		return decimal.NewNullDecimal(d), nil
	}
	return data, nil
}

func toDecimal(data interface{}) (decimal.Decimal, error) {
	switch v := data.(type) {
	case decimal.Decimal:
		return v, nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("invalid decimal %q: %w", v, err)
		}
		return d, nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int32:
		return decimal.NewFromInt32(v), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case uint64:
		return decimal.NewFromString(fmt.Sprint(v))
	case float32:
		return decimal.NewFromFloat32(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	default:
		return decimal.Decimal{}, fmt.Errorf("cannot decode %T into a decimal", data)
	}
}
