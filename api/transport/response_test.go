package transport

import (
	"encoding/json"
	"testing"
)

func TestEnvelopeJSON(t *testing.T) {
	cases := []struct {
		name string
		env  Envelope
		want string
	}{
		{"success", NewSuccess(map[string]bool{"success": true}), `{"status":"success","data":{"success":true}}`},
		{"list", NewList([]string{"a", "b"}, Meta{Count: 2}), `{"status":"success","data":["a","b"],"meta":{"count":2}}`},
		{"error", NewError("NOT_FOUND", "task not found"), `{"status":"error","code":"NOT_FOUND","error":"task not found"}`},
		{"degraded", NewError("DEGRADED", "dependencies unhealthy").WithData(map[string]bool{"redis": false}),
			`{"status":"error","code":"DEGRADED","data":{"redis":false},"error":"dependencies unhealthy"}`},
	}
	for _, tc := range cases {
		out, err := json.Marshal(tc.env)
		if err != nil {
			t.Fatalf("%s: marshal: %v", tc.name, err)
		}
		if string(out) != tc.want {
			t.Fatalf("%s: got %s want %s", tc.name, out, tc.want)
		}
	}
}
