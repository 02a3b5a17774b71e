package serialization_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samvad-hq/restyadapter/pkg/serialization"
	"github.com/samvad-hq/restyadapter/pkg/serialization/jsonnode"
)

func TestParsePrimitiveKind(t *testing.T) {
	tests := []struct {
		in   string
		want serialization.PrimitiveKind
	}{
		{"string", serialization.KindString},
		{"Boolean", serialization.KindBool},
		{"long", serialization.KindInt64},
		{"bytes", serialization.KindByteArray},
		{"stream", serialization.KindStream},
		{" uuid ", serialization.KindUUID},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := serialization.ParsePrimitiveKind(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := serialization.ParsePrimitiveKind("complex128")
	assert.True(t, errors.Is(err, serialization.ErrUnsupportedKind))
	assert.Equal(t, "kind(99)", serialization.PrimitiveKind(99).String())
}

func TestSupportsPrimitive(t *testing.T) {
	assert.True(t, serialization.SupportsPrimitive(serialization.KindDuration))
	assert.False(t, serialization.SupportsPrimitive(serialization.KindStream))
	assert.False(t, serialization.SupportsPrimitive(serialization.KindUnknown))
}

func TestGetPrimitiveValue(t *testing.T) {
	id := uuid.MustParse("3f2504e0-4f89-11d3-9a0c-0305e82c3301")
	tests := []struct {
		name    string
		payload string
		kind    serialization.PrimitiveKind
		want    any
	}{
		{"bool", `true`, serialization.KindBool, true},
		{"int8", `-8`, serialization.KindInt8, int8(-8)},
		{"int16", `300`, serialization.KindInt16, int16(300)},
		{"int32", `70000`, serialization.KindInt32, int32(70000)},
		{"int64", `9007199254740993`, serialization.KindInt64, int64(9007199254740993)},
		{"float32", `1.5`, serialization.KindFloat32, float32(1.5)},
		{"float64", `2.25`, serialization.KindFloat64, 2.25},
		{"string", `"x"`, serialization.KindString, "x"},
		{"uuid", `"` + id.String() + `"`, serialization.KindUUID, id},
		{"datetime", `"2024-02-29T10:00:00Z"`, serialization.KindDateTime, time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC)},
		{"bytes", `"aGk="`, serialization.KindByteArray, []byte("hi")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := jsonnode.NewJsonParseNode([]byte(tt.payload))
			require.NoError(t, err)
			got, err := serialization.GetPrimitiveValue(node, tt.kind)
			require.NoError(t, err)
			if want, ok := tt.want.(time.Time); ok {
				assert.True(t, want.Equal(got.(time.Time)))
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}

	node, err := jsonnode.NewJsonParseNode([]byte(`"12.50"`))
	require.NoError(t, err)
	got, err := serialization.GetPrimitiveValue(node, serialization.KindDecimal)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.5").Equal(got.(decimal.Decimal)))

	null, err := jsonnode.NewJsonParseNode([]byte(`null`))
	require.NoError(t, err)
	got, err = serialization.GetPrimitiveValue(null, serialization.KindInt32)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = serialization.GetPrimitiveValue(node, serialization.KindStream)
	assert.ErrorIs(t, err, serialization.ErrUnsupportedKind)
}
