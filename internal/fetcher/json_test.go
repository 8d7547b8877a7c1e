package fetcher

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestDecodeJSONArray(t *testing.T) {
	input := `[{"id":"1","name":"alpha"},{"id":"2","name":"beta"}]`

	ch, errCh := DecodeJSONArray[testRecord](context.Background(), strings.NewReader(input))

	var records []testRecord
	for rec := range ch {
		records = append(records, rec)
	}
	for err := range errCh {
		require.NoError(t, err)
	}

	require.Len(t, records, 2)
	assert.Equal(t, "alpha", records[0].Name)
	assert.Equal(t, "beta", records[1].Name)
}

func TestDecodeJSONArray_InvalidOpeningToken(t *testing.T) {
	ch, errCh := DecodeJSONArray[testRecord](context.Background(), strings.NewReader(`"not an array"`))
	for range ch { //nolint:revive // drain
	}

	var gotErr error
	for err := range errCh {
		gotErr = err
	}
	require.Error(t, gotErr)
	assert.Contains(t, gotErr.Error(), "expected '['")
}

func TestDecodeJSONArray_DecodeError(t *testing.T) {
	input := `[{"id":"1","name":"ok"},{"id":invalid}]`
	ch, errCh := DecodeJSONArray[testRecord](context.Background(), strings.NewReader(input))

	var records []testRecord
	for rec := range ch {
		records = append(records, rec)
	}
	var gotErr error
	for err := range errCh {
		gotErr = err
	}
	require.Error(t, gotErr)
	assert.Contains(t, gotErr.Error(), "json: decode element")
	assert.Len(t, records, 1)
}

func TestDecodeJSONArray_ContextCancellation(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("[")
	for i := range 10000 {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(`{"id":"1","name":"test"}`)
	}
	sb.WriteString("]")

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	time.Sleep(5 * time.Millisecond)

	_, err := CollectJSONArray[testRecord](ctx, strings.NewReader(sb.String()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context")
}

func TestCollectJSONArray_EmptyInput(t *testing.T) {
	got, err := CollectJSONArray[testRecord](context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecodePayload(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr string
	}{
		{name: "bare array", input: `[{"id":"a"},{"id":"b"}]`, want: 2},
		{name: "envelope", input: `{"data":[{"id":"a"}],"total":1}`, want: 1},
		{name: "envelope with whitespace", input: " \n{\"data\": [ {} , 3 ] }", want: 2},
		{name: "empty array", input: `[]`, want: 0},
		{name: "envelope without data", input: `{"total":0}`, want: 0},
		{name: "envelope null data", input: `{"data":null}`, want: 0},
		{name: "envelope object data", input: `{"data":{"id":"a"}}`, wantErr: "not an array"},
		{name: "scalar payload", input: `42`, wantErr: "unexpected payload"},
		{name: "empty body", input: ``, wantErr: "empty payload"},
		{name: "broken envelope", input: `{"data":[`, wantErr: "decode envelope"},
		{name: "broken array", input: `[{"id":`, wantErr: "json:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodePayload(context.Background(), strings.NewReader(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestDecodePayload_KeepsElementsRaw(t *testing.T) {
	got, err := DecodePayload(context.Background(), strings.NewReader(`[{"lat":"1.5"},null,"x"]`))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.JSONEq(t, `{"lat":"1.5"}`, string(got[0]))
	assert.Equal(t, json.RawMessage("null"), got[1])
	assert.Equal(t, json.RawMessage(`"x"`), got[2])
}
