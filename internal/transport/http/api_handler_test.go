package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAPICreateJoinStartResults(t *testing.T) {
	server, _ := newTestServer(t)
	defer server.Close()

	// Create.
	created := struct {
		Pin           string `json:"pin"`
		QuestionCount int    `json:"questionCount"`
	}{}
	doJSON(t, server, "POST", "/games", "host-1", map[string]any{"quizId": "quiz-1"}, http.StatusCreated, &created)
	if created.Pin == "" || created.QuestionCount != 1 {
		t.Fatalf("unexpected create response: %+v", created)
	}

	// Create without identity.
	resp := rawRequest(t, server, "POST", "/games", "", map[string]any{"quizId": "quiz-1"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without host identity, got %d", resp.StatusCode)
	}

	// Create with unknown quiz.
	resp = rawRequest(t, server, "POST", "/games", "host-1", map[string]any{"quizId": "nope"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown quiz, got %d", resp.StatusCode)
	}

	// Join.
	joined := struct {
		PlayerID string `json:"playerId"`
	}{}
	doJSON(t, server, "POST", "/games/"+created.Pin+"/join", "", map[string]any{"name": "Alice"}, http.StatusOK, &joined)
	if joined.PlayerID == "" {
		t.Fatalf("expected player id")
	}

	// Start by non-host.
	resp = rawRequest(t, server, "POST", "/games/"+created.Pin+"/start", joined.PlayerID, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for non-host start, got %d", resp.StatusCode)
	}

	// Results before finish.
	resp = rawRequest(t, server, "GET", "/games/"+created.Pin+"/results", "", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for results before finish, got %d", resp.StatusCode)
	}

	doJSON(t, server, "POST", "/games/"+created.Pin+"/start", "host-1", nil, http.StatusOK, nil)
	doJSON(t, server, "POST", "/games/"+created.Pin+"/end", "host-1", nil, http.StatusOK, nil)

	results := struct {
		TotalQuestions int `json:"totalQuestions"`
		Players        []struct {
			Name  string `json:"name"`
			Score int    `json:"score"`
		} `json:"players"`
	}{}
	doJSON(t, server, "GET", "/games/"+created.Pin+"/results", "", nil, http.StatusOK, &results)
	if results.TotalQuestions != 1 || len(results.Players) != 1 || results.Players[0].Name != "Alice" {
		t.Fatalf("unexpected results: %+v", results)
	}

	// Join after finish fails fast.
	resp = rawRequest(t, server, "POST", "/games/"+created.Pin+"/join", "", map[string]any{"name": "Late"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 joining a finished game, got %d", resp.StatusCode)
	}
}

func TestAPIUnknownPin(t *testing.T) {
	server, _ := newTestServer(t)
	defer server.Close()

	resp := rawRequest(t, server, "GET", "/games/000000", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown pin, got %d", resp.StatusCode)
	}
}

func doJSON(t *testing.T, server *httptest.Server, method, path, hostID string, body map[string]any, wantStatus int, out any) {
	t.Helper()
	resp := rawRequest(t, server, method, path, hostID, body)
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: expected %d, got %d", method, path, wantStatus, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
}

func rawRequest(t *testing.T, server *httptest.Server, method, path, hostID string, body map[string]any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, server.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if hostID != "" {
		req.Header.Set("X-Host-ID", hostID)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}
