package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestSwaggerDocIsRegistered(t *testing.T) {
	doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	require.NoError(t, err)
	require.True(t, json.Valid([]byte(doc)), "документ должен быть валидным JSON")

	var parsed struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		Paths map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(doc), &parsed))
	assert.Equal(t, "Admin Console API", parsed.Info.Title)

	for path, methods := range map[string][]string{
		"/auth/login":                  {"post"},
		"/notifications/api":           {"get", "delete"},
		"/notifications/api/{id}/read": {"put"},
		"/notifications/user/api":      {"get"},
		"/notifications/user/api/read": {"put"},
		"/polling/api":                 {"get"},
		"/users/api":                   {"get", "post"},
		"/users/{id}":                  {"get", "put", "post", "delete"},
		"/users/{id}/picture":          {"get"},
		"/import/api":                  {"post"},
	} {
		require.Contains(t, parsed.Paths, path)
		for _, m := range methods {
			assert.Contains(t, parsed.Paths[path], m, path)
		}
	}
}
