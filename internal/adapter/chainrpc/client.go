// Package chainrpc implements the node API collaborators over HTTP.
package chainrpc

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"carbonmint/internal/domain"
)

const defaultTimeout = 15 * time.Second

var (
	ErrEmptyBaseURL = errors.New("node base URL is required")
	ErrNotFound     = errors.New("not found")
)

// Client talks to a chain node's REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for the node at baseURL.
func New(baseURL string) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrEmptyBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}, nil
}

// transactionDTO mirrors the node's transaction endpoint response.
type transactionDTO struct {
	Hash         string `json:"hash"`
	State        string `json:"state"`
	Result       string `json:"result"`
	DebugComment string `json:"debugComment"`
}

// GetTransaction implements domain.ChainReader.
func (c *Client) GetTransaction(ctx context.Context, hash string) (*domain.TransactionRecord, error) {
	var dto transactionDTO
	if err := c.getJSON(ctx, "/api/v1/transaction/"+url.PathEscape(hash), &dto); err != nil {
		return nil, err
	}
	return &domain.TransactionRecord{
		Hash:         dto.Hash,
		State:        domain.TxState(strings.ToLower(dto.State)),
		Result:       dto.Result,
		DebugComment: dto.DebugComment,
	}, nil
}

type tokenDTO struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	Decimals  uint32 `json:"decimals"`
	Fungible  bool   `json:"fungible"`
	MaxSupply string `json:"maxSupply"`
	Schema    []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"schema"`
}

// GetToken implements domain.ChainReader.
func (c *Client) GetToken(ctx context.Context, symbol string) (*domain.TokenInfo, error) {
	var dto tokenDTO
	if err := c.getJSON(ctx, "/api/v1/token/"+url.PathEscape(symbol), &dto); err != nil {
		return nil, err
	}

	info := &domain.TokenInfo{
		Symbol:    dto.Symbol,
		Name:      dto.Name,
		Decimals:  dto.Decimals,
		Fungible:  dto.Fungible,
		MaxSupply: dto.MaxSupply,
	}
	for _, f := range dto.Schema {
		info.Schema = append(info.Schema, domain.SchemaField{
			Name: f.Name,
			Type: domain.VMType(f.Type),
		})
	}
	return info, nil
}

type accountDTO struct {
	Address  string            `json:"address"`
	Name     string            `json:"name"`
	Balances map[string]string `json:"balances"`
}

// GetAccount implements domain.ChainReader.
func (c *Client) GetAccount(ctx context.Context, address string) (*domain.Account, error) {
	var dto accountDTO
	if err := c.getJSON(ctx, "/api/v1/account/"+url.PathEscape(address), &dto); err != nil {
		return nil, err
	}
	return &domain.Account{
		Address:  dto.Address,
		Name:     dto.Name,
		Balances: dto.Balances,
	}, nil
}

// SendTransaction broadcasts a signed transaction and returns the hash
// the node assigned. Satisfies the local signer's Broadcaster port.
func (c *Client) SendTransaction(ctx context.Context, raw []byte) (string, error) {
	body, err := json.Marshal(map[string]string{"tx": hex.EncodeToString(raw)})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/transaction", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("node returned status %d: %s", resp.StatusCode, readShort(resp.Body))
	}

	var out struct {
		Hash string `json:"hash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding broadcast response: %w", err)
	}
	if out.Hash == "" {
		return "", errors.New("node returned no transaction hash")
	}
	return out.Hash, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%s: node returned status %d: %s", path, resp.StatusCode, readShort(resp.Body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", path, err)
	}
	return nil
}

func readShort(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(data))
}
