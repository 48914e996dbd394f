package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"roleplaychat/pkg/worldstate"
)

// The console talks to the HTTP API rather than the stores directly, so
// it exercises the same surface as any other client.

type characterSummary struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type conversationInfo struct {
	ID          int64     `json:"id"`
	CharacterID int64     `json:"character_id"`
	UserID      int64     `json:"user_id"`
	Title       string    `json:"title"`
	Scenario    string    `json:"scenario,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type messageInfo struct {
	ID         int64  `json:"id"`
	Role       string `json:"role"`
	Content    string `json:"content"`
	SenderName string `json:"sender_name,omitempty"`
}

type generationReply struct {
	MessageID int64  `json:"message_id,omitempty"`
	Content   string `json:"content"`
	Reasoning string `json:"reasoning,omitempty"`
}

// errorEnvelope mirrors the API's error response body.
type errorEnvelope struct {
	Error string `json:"error"`
}

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/healthz")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	return resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusServiceUnavailable
}

// decodeResponse reads the body and maps non-2xx replies onto the API's
// error envelope.
func decodeResponse(resp *http.Response, out any) error {
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errorResp errorEnvelope
		if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return fmt.Errorf("%s", errorResp.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func postJSON(client *http.Client, url string, reqBody, out any) error {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	return decodeResponse(resp, out)
}

func listCharacters(client *http.Client, baseURL string) ([]characterSummary, error) {
	resp, err := client.Get(baseURL + "/v1/characters")
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	var chars []characterSummary
	if err := decodeResponse(resp, &chars); err != nil {
		return nil, err
	}
	return chars, nil
}

func createConversation(client *http.Client, baseURL string, characterID int64) (*conversationInfo, error) {
	var conv conversationInfo
	err := postJSON(client, baseURL+"/v1/conversations", map[string]any{
		"character_id": characterID,
	}, &conv)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func listMessages(client *http.Client, baseURL string, conversationID int64) ([]messageInfo, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/conversations/%d/messages", baseURL, conversationID))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	var messages []messageInfo
	if err := decodeResponse(resp, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func sendChat(client *http.Client, baseURL string, conversationID int64, message string) (*generationReply, error) {
	var reply generationReply
	err := postJSON(client, fmt.Sprintf("%s/v1/conversations/%d/chat", baseURL, conversationID), map[string]any{
		"message": message,
	}, &reply)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

func sendImpersonate(client *http.Client, baseURL string, conversationID int64, style string) (*generationReply, error) {
	var reply generationReply
	err := postJSON(client, fmt.Sprintf("%s/v1/conversations/%d/impersonate", baseURL, conversationID), map[string]any{
		"style": style,
	}, &reply)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

func sendNarrate(client *http.Client, baseURL string, conversationID int64, narrationType string) (*generationReply, error) {
	var reply generationReply
	err := postJSON(client, fmt.Sprintf("%s/v1/conversations/%d/narrate", baseURL, conversationID), map[string]any{
		"type": narrationType,
	}, &reply)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

// getWorldState returns the world-state document for the sidebar.
func getWorldState(client *http.Client, baseURL string, conversationID int64) (worldstate.Document, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/conversations/%d/worldstate", baseURL, conversationID))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	var doc worldstate.Document
	if err := decodeResponse(resp, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func refreshWorldState(client *http.Client, baseURL string, conversationID int64) error {
	return postJSON(client, fmt.Sprintf("%s/v1/conversations/%d/worldstate/refresh", baseURL, conversationID), map[string]any{}, nil)
}
