package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeClientMessage_RegisterAdmin(t *testing.T) {
	msg, err := DecodeClientMessage([]byte(`{"event":"register_admin","department":" Sales "}`))
	require.NoError(t, err)
	assert.Equal(t, RegisterAdmin{Department: "Sales"}, msg)
	assert.Equal(t, Department("Sales"), msg.Key())
}

func TestDecodeClientMessage_RegisterUser(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"string id", `{"event":"register_user","userId":"42"}`},
		{"numeric id", `{"event":"register_user","userId":42}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := DecodeClientMessage([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, RegisterUser{UserID: 42}, msg)
			assert.Equal(t, UserID(42), msg.Key())
		})
	}
}

func TestDecodeClientMessage_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"not json", `hello`, ErrMalformedMessage},
		{"no event", `{"department":"Sales"}`, ErrMalformedMessage},
		{"unknown event", `{"event":"subscribe","department":"Sales"}`, ErrUnknownEvent},
		{"missing department", `{"event":"register_admin"}`, ErrMalformedMessage},
		{"blank department", `{"event":"register_admin","department":"  "}`, ErrMalformedMessage},
		{"missing userId", `{"event":"register_user"}`, ErrMalformedMessage},
		{"null userId", `{"event":"register_user","userId":null}`, ErrMalformedMessage},
		{"non-numeric userId", `{"event":"register_user","userId":"abc"}`, ErrMalformedMessage},
		{"zero userId", `{"event":"register_user","userId":0}`, ErrMalformedMessage},
		{"negative userId", `{"event":"register_user","userId":-3}`, ErrMalformedMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := DecodeClientMessage([]byte(tt.raw))
			assert.Nil(t, msg)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
