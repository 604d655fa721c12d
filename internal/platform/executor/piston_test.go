package executor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codeapt/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Run(t *testing.T) {
	var got pistonRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"run":{"stdout":"3\n","stderr":"warn\n","output":"3\nwarn\n","code":0}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	res, err := c.Run(context.Background(), RunRequest{
		Runtime: model.Runtime{Language: "python", Version: "3.10.0"},
		Source:  "print(int(input())+1)",
		Stdin:   "2",
	})
	require.NoError(t, err)

	assert.Equal(t, "python", got.Language)
	assert.Equal(t, "3.10.0", got.Version)
	require.Len(t, got.Files, 1)
	assert.Equal(t, "print(int(input())+1)", got.Files[0].Content)
	assert.Equal(t, "2", got.Stdin)

	assert.Equal(t, "3\n", res.Stdout)
	assert.Equal(t, "3\nwarn\n", res.Combined())
}

func TestClient_RunFailures(t *testing.T) {
	tests := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
		"malformed body": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{not json`))
		},
		"missing run": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"message":"runtime is unknown"}`))
		},
		"too slow": func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte(`{"run":{"stdout":"late"}}`))
		},
	}

	for name, h := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			c := NewClient(srv.URL, 50*time.Millisecond)
			_, err := c.Run(context.Background(), RunRequest{Runtime: model.Runtime{Language: "python", Version: "3.10.0"}})
			assert.Error(t, err)
		})
	}
}
