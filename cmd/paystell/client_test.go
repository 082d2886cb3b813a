package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClient(t *testing.T) {
	var (
		gotMethod, gotPath, gotQuery string
		gotHeaders                   http.Header
		gotBody                      map[string]string
	)
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			gotMethod, gotPath, gotQuery = r.Method, r.URL.Path, r.URL.RawQuery
			gotHeaders = r.Header.Clone()
			gotBody = nil
			if buf, _ := io.ReadAll(r.Body); len(buf) > 0 {
				//nolint
				json.Unmarshal(buf, &gotBody)
			}

			switch r.URL.Path {
			case "/transactions":
				w.WriteHeader(http.StatusConflict)
				//nolint
				w.Write([]byte(`{"message":"Transaction already processed"}`))
			case "/broken":
				w.WriteHeader(http.StatusBadGateway)
			default:
				//nolint
				w.Write([]byte(`{"deposits":[],"total":0}`))
			}
		},
	))
	t.Cleanup(srv.Close)

	c := newClient(srv.URL+"/", "alice", "GALICE")

	t.Run("forwards identity and query", func(t *testing.T) {
		resp, err := c.do(
			http.MethodGet, "/deposit",
			queryOf(map[string]string{"status": "pending", "asset": ""}), nil,
		)
		require.NoError(t, err)
		require.JSONEq(t, `{"deposits":[],"total":0}`, string(resp))
		require.Equal(t, http.MethodGet, gotMethod)
		require.Equal(t, "/deposit", gotPath)
		require.Equal(t, "status=pending", gotQuery)
		require.Equal(t, "alice", gotHeaders.Get("X-User-Id"))
		require.Equal(t, "GALICE", gotHeaders.Get("X-User-Address"))
		require.Empty(t, gotHeaders.Get("Content-Type"))
	})

	t.Run("sends json body", func(t *testing.T) {
		_, err := c.do(http.MethodPost, "/deposit", nil, map[string]string{
			"asset": "XLM",
		})
		require.NoError(t, err)
		require.Equal(t, "application/json", gotHeaders.Get("Content-Type"))
		require.Equal(t, map[string]string{"asset": "XLM"}, gotBody)
	})

	t.Run("returns daemon message on failure", func(t *testing.T) {
		_, err := c.do(http.MethodPost, "/transactions", nil, map[string]string{
			"envelope": "AAAA",
		})
		require.EqualError(t, err, "409: Transaction already processed")

		_, err = c.do(http.MethodGet, "/broken", nil, nil)
		require.EqualError(t, err, "502: Bad Gateway")
	})
}

func TestMerge(t *testing.T) {
	merged := merge(
		map[string]string{"server": "http://a", "user_id": "alice"},
		map[string]string{"server": "http://b"},
	)
	require.Equal(t, map[string]string{
		"server":  "http://b",
		"user_id": "alice",
	}, merged)
}
