package notifytype

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func TestList_ExposesSchemaInRegistryOrder(t *testing.T) {
	infos := List()
	require.Len(t, infos, 3)

	assert.Equal(t, KindOnce, infos[0].Type)
	assert.Equal(t, KindRepeatBefore30, infos[1].Type)
	assert.Equal(t, KindRepeatBefore30Weekly, infos[2].Type)

	assert.Equal(t, []ArgType{ArgDateTime, ArgInteger, ArgTextArea},
		[]ArgType{infos[2].Arguments[0].Type, infos[2].Arguments[1].Type, infos[2].Arguments[2].Type})

	// Mutating the returned schema must not leak into the registry.
	infos[0].Arguments[0].Label = "changed"
	assert.Equal(t, "Send time (UTC)", List()[0].Arguments[0].Label)
}

func TestLookup(t *testing.T) {
	typ, ok := Lookup("ONCE")
	require.True(t, ok)
	assert.Equal(t, KindOnce, typ.Kind())

	_, ok = Lookup("NEVER")
	assert.False(t, ok)
}

func TestValidatePayload(t *testing.T) {
	future := "2026-03-02T12:10:00Z"

	tests := []struct {
		name     string
		body     string
		wantCode ErrorCode
		wantMsg  string
	}{
		{
			name:     "body not an object",
			body:     `[1,2]`,
			wantCode: CodeShape,
			wantMsg:  "Body must be an object.",
		},
		{
			name:     "missing type",
			body:     `{"arguments":[]}`,
			wantCode: CodeShape,
			wantMsg:  "Missing or invalid 'type'.",
		},
		{
			name:     "arguments not a list",
			body:     `{"type":"ONCE","arguments":"x"}`,
			wantCode: CodeShape,
			wantMsg:  "Missing or invalid 'arguments' (must be an array).",
		},
		{
			name:     "unknown type",
			body:     `{"type":"HOURLY","arguments":[]}`,
			wantCode: CodeUnknownType,
			wantMsg:  "Unknown type 'HOURLY'.",
		},
		{
			name:     "wrong arity",
			body:     `{"type":"ONCE","arguments":["` + future + `"]}`,
			wantCode: CodeArity,
			wantMsg:  "Expected 2 arguments for ONCE.",
		},
		{
			name:     "datetime not a string",
			body:     `{"type":"ONCE","arguments":[5,"hi"]}`,
			wantCode: CodeArgument,
			wantMsg:  "Argument 1 (Send time (UTC)) must be a string.",
		},
		{
			name:     "fractional weeks",
			body:     `{"type":"REPEAT_BEFORE_30_WEEKLY","arguments":["` + future + `",1.5,"hi"]}`,
			wantCode: CodeArgument,
			wantMsg:  "Argument 2 (Weeks between) must be an integer.",
		},
		{
			name:     "once in the past",
			body:     `{"type":"ONCE","arguments":["2026-03-02T11:59:00Z","hi"]}`,
			wantCode: CodeSemantic,
			wantMsg:  "DATETIME must be in the future (UTC).",
		},
		{
			name:     "once unparseable",
			body:     `{"type":"ONCE","arguments":["tomorrow","hi"]}`,
			wantCode: CodeSemantic,
			wantMsg:  "Invalid DATETIME format. Use ISO 8601 UTC (e.g. 2026-01-12T21:30:00Z).",
		},
		{
			name:     "blank message",
			body:     `{"type":"ONCE","arguments":["` + future + `","   "]}`,
			wantCode: CodeSemantic,
			wantMsg:  "String must be at least 1 characters.",
		},
		{
			name:     "repeat target too close",
			body:     `{"type":"REPEAT_BEFORE_30","arguments":["2026-03-02T12:00:30Z","hi"]}`,
			wantCode: CodeSemantic,
			wantMsg:  "Target time must be at least 1 minute in the future (UTC).",
		},
		{
			name:     "weekly zero weeks",
			body:     `{"type":"REPEAT_BEFORE_30_WEEKLY","arguments":["` + future + `",0,"hi"]}`,
			wantCode: CodeSemantic,
			wantMsg:  "Integer must be >= 1.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := DecodePayload([]byte(tt.body))
			require.NoError(t, err)

			_, _, err = ValidatePayload(payload, testNow)
			require.Error(t, err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantCode, verr.Code)
			assert.Equal(t, tt.wantMsg, verr.Message)
		})
	}
}

func TestValidatePayload_Accepts(t *testing.T) {
	bodies := []string{
		`{"type":"ONCE","arguments":["2026-03-02T12:02:00Z","hi"]}`,
		`{"type":"REPEAT_BEFORE_30","arguments":["2026-03-02T13:00:00Z","stand-up"]}`,
		`{"type":"REPEAT_BEFORE_30_WEEKLY","arguments":["2026-03-09T09:00:00Z",2,"gym"]}`,
	}
	for _, body := range bodies {
		payload, err := DecodePayload([]byte(body))
		require.NoError(t, err)

		kind, args, err := ValidatePayload(payload, testNow)
		require.NoError(t, err, body)
		assert.NotEmpty(t, kind)
		assert.NotEmpty(t, args)
	}
}

func TestDecodeArguments_KeepsNumbers(t *testing.T) {
	args, err := DecodeArguments([]byte(`["2026-03-09T09:00:00Z",3,"gym"]`))
	require.NoError(t, err)
	require.Len(t, args, 3)
	assert.Equal(t, json.Number("3"), args[1])
}
