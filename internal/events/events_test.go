package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_NewUser(t *testing.T) {
	frame, err := Encode(NewUser{ID: 7, Name: "Ann", Email: "ann@corp.io", Department: "Sales"})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(frame, &decoded))

	assert.Equal(t, "new_user", decoded["event"])
	user, ok := decoded["user"].(map[string]any)
	require.True(t, ok, "user должен быть объектом")
	assert.Equal(t, float64(7), user["id"])
	assert.Equal(t, "Ann", user["name"])
	assert.Equal(t, "ann@corp.io", user["email"])
	assert.Equal(t, "Sales", user["department"])
}

func TestEncode_UserUpdated(t *testing.T) {
	frame, err := Encode(UserUpdated{
		UserID:    42,
		UpdatedBy: "root",
		Changes:   map[string]any{"status": "inactive"},
	})
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"event":"user_updated","data":{"userId":"42","updatedBy":"root","changes":{"status":"inactive"}}}`,
		string(frame),
	)
}

func TestEncode_UserUpdatedWithoutChangesRendersEmptyObject(t *testing.T) {
	frame, err := Encode(UserUpdated{UserID: 1, UpdatedBy: "root"})
	require.NoError(t, err)
	assert.Contains(t, string(frame), `"changes":{}`)
}

func TestNormalizeDepartment(t *testing.T) {
	cases := map[string]string{
		"ALL":        AllDepartments,
		" all ":      AllDepartments,
		"All":        AllDepartments,
		"Sales":      "Sales",
		" Finance  ": "Finance",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeDepartment(in), "input %q", in)
	}
	assert.True(t, IsAllDepartments("aLL"))
	assert.False(t, IsAllDepartments("Allies"))
}

func TestUserUpdated_HasUserDetails(t *testing.T) {
	assert.False(t, UserUpdated{UserID: 1}.HasUserDetails())
	assert.True(t, UserUpdated{UserID: 1, UserName: "a", UserEmail: "b", UserDepartment: "c"}.HasUserDetails())
}
