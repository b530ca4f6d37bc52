package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAria2SetGlobalOption(t *testing.T) {
	var got aria2Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":"settings-bot","result":"OK"}`))
	}))
	defer srv.Close()

	a := &Aria2{URL: srv.URL, Secret: "s3cret"}
	if err := a.SetGlobalOption(context.Background(), "split", "16"); err != nil {
		t.Fatal(err)
	}
	if got.Method != "aria2.changeGlobalOption" {
		t.Errorf("method = %q", got.Method)
	}
	if len(got.Params) != 2 {
		t.Fatalf("params = %v", got.Params)
	}
	if got.Params[0] != "token:s3cret" {
		t.Errorf("token param = %v", got.Params[0])
	}
	opts, ok := got.Params[1].(map[string]any)
	if !ok || opts["split"] != "16" {
		t.Errorf("option param = %v", got.Params[1])
	}
}

func TestAria2ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":"settings-bot","error":{"code":1,"message":"Unauthorized"}}`))
	}))
	defer srv.Close()

	a := &Aria2{URL: srv.URL}
	err := a.SetGlobalOption(context.Background(), "split", "16")
	if err == nil {
		t.Fatal("rpc error not surfaced")
	}
}
