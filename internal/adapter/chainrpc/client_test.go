package chainrpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carbonmint/internal/domain"
)

func TestClient_GetTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/transaction/abc123", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{
			"hash":         "abc123",
			"state":        "Halt",
			"result":       "ok",
			"debugComment": "",
		})
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	require.NoError(t, err)

	rec, err := client.GetTransaction(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", rec.Hash)
	// State strings are normalized to lower case.
	assert.Equal(t, domain.TxStateHalt, rec.State)
	assert.Equal(t, "ok", rec.Result)
}

func TestClient_GetToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/token/CARBON", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"symbol":    "CARBON",
			"name":      "Carbon Credits",
			"decimals":  8,
			"fungible":  true,
			"maxSupply": "100000000000000",
			"schema": []map[string]string{
				{"name": "origin", "type": "String"},
				{"name": "vintage", "type": "Int32"},
			},
		})
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	require.NoError(t, err)

	info, err := client.GetToken(context.Background(), "CARBON")
	require.NoError(t, err)
	assert.Equal(t, uint32(8), info.Decimals)
	require.Len(t, info.Schema, 2)
	assert.Equal(t, domain.VMTypeInt32, info.Schema[1].Type)
}

func TestClient_GetAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/account/carbon1xyz", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"address": "carbon1xyz",
			"name":    "treasury",
			"balances": map[string]string{
				"CARBON": "150000000",
			},
		})
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	require.NoError(t, err)

	account, err := client.GetAccount(context.Background(), "carbon1xyz")
	require.NoError(t, err)
	assert.Equal(t, "carbon1xyz", account.Address)
	assert.Equal(t, "treasury", account.Name)
	assert.Equal(t, "150000000", account.Balances["CARBON"])
}

func TestClient_ErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/transaction/missing":
			http.NotFound(w, r)
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	require.NoError(t, err)

	_, err = client.GetTransaction(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = client.GetToken(context.Background(), "ANY")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestClient_SendTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/transaction", r.URL.Path)

		var body struct {
			Tx string `json:"tx"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "0102", body.Tx)

		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"hash": "deadbeef"})
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	require.NoError(t, err)

	hash, err := client.SendTransaction(context.Background(), []byte{0x01, 0x02})
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", hash)
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New("  ")
	assert.ErrorIs(t, err, ErrEmptyBaseURL)
}
