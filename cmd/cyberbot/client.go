package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// getJSON fetches path from the server and decodes the response into out.
func getJSON(path string, out any) error {
	resp, err := http.Get(serverURL + path)
	if err != nil {
		return fmt.Errorf("connecting to server: %w\nIs the server running? Start it with: cyberbot serve", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

// postJSON sends in as JSON to path and decodes the response into out.
func postJSON(path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	resp, err := http.Post(serverURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("connecting to server: %w\nIs the server running? Start it with: cyberbot serve", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return fmt.Errorf("server error (%d): %s", resp.StatusCode, e.Error)
		}
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}
