package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const requestTimeout = 30 * time.Second

type client struct {
	baseURL string
	userID  string
	address string
	http    *http.Client
}

func getClient() (*client, error) {
	state, err := getState()
	if err != nil {
		return nil, err
	}
	server, ok := state["server"]
	if !ok || server == "" {
		return nil, errors.New("set server with `config set server`")
	}
	return newClient(server, state["user_id"], state["address"]), nil
}

func newClient(server, userID, address string) *client {
	return &client{
		baseURL: strings.TrimSuffix(server, "/"),
		userID:  userID,
		address: address,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// do sends the request to the daemon and returns the response body. Replies
// other than 2xx are turned into errors carrying the daemon's message.
func (c *client) do(
	method, path string, query url.Values, body interface{},
) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userID != "" {
		req.Header.Set("X-User-Id", c.userID)
	}
	if c.address != "" {
		req.Header.Set("X-User-Address", c.address)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to reach daemon: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(payload, &e); err != nil || e.Message == "" {
			e.Message = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("%d: %s", resp.StatusCode, e.Message)
	}
	return payload, nil
}

// queryOf returns the non empty flags as query params.
func queryOf(params map[string]string) url.Values {
	query := url.Values{}
	for k, v := range params {
		if v != "" {
			query.Set(k, v)
		}
	}
	return query
}
