package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/editor"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/engine"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/storage"
)

const doubleSolution = "const n = Number(readline());\nconsole.log(n * 2);\n"

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := New(testEngine(t), testStore(t), nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return v
}

func createSession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp := do(t, ts, http.MethodPost, "/api/sessions", map[string]string{"question_id": "double"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	view := decode[map[string]any](t, resp)
	id, _ := view["id"].(string)
	if id == "" {
		t.Fatalf("no id in %v", view)
	}
	return id
}

func TestQuestionsEndpoints(t *testing.T) {
	ts := testServer(t)

	resp := do(t, ts, http.MethodGet, "/api/questions", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	list := decode[[]map[string]any](t, resp)
	if len(list) != 1 || list[0]["id"] != "double" {
		t.Fatalf("questions = %v", list)
	}
	if list[0]["total_cases"] != float64(3) {
		t.Errorf("total_cases = %v", list[0]["total_cases"])
	}

	resp = do(t, ts, http.MethodGet, "/api/questions/double", nil)
	q := decode[map[string]any](t, resp)
	sample, _ := q["sample"].(map[string]any)
	if sample["input"] != "2" {
		t.Errorf("sample = %v", q["sample"])
	}
	if strings.Contains(mustJSON(t, q), "hidden one") {
		t.Error("question view leaks a hidden case")
	}

	resp = do(t, ts, http.MethodGet, "/api/questions/nope", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown question status = %d, want 404", resp.StatusCode)
	}
}

func TestSessionLifecycle(t *testing.T) {
	ts := testServer(t)
	id := createSession(t, ts)

	resp := do(t, ts, http.MethodPut, "/api/sessions/"+id+"/source", map[string]string{"source": doubleSolution})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set source status = %d", resp.StatusCode)
	}

	resp = do(t, ts, http.MethodPost, "/api/sessions/"+id+"/run", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("run status = %d", resp.StatusCode)
	}
	out := decode[editor.RunOutput](t, resp)
	// No stdin: readline() yields null and Number(null) is 0.
	if out.Status != editor.StatusOK || strings.TrimSpace(out.Stdout) != "0" {
		t.Errorf("run output = %+v", out)
	}

	resp = do(t, ts, http.MethodPost, "/api/sessions/"+id+"/tests", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("tests status = %d", resp.StatusCode)
	}
	summary := decode[map[string]any](t, resp)
	if summary["passed_cases"] != float64(3) || summary["total_cases"] != float64(3) {
		t.Errorf("summary = %v", summary)
	}
	perCase := summary["per_case"].([]any)
	sample := perCase[0].(map[string]any)
	if sample["actual"] != "4\n" {
		t.Errorf("sample actual = %v", sample["actual"])
	}
	for i, c := range perCase[1:] {
		hidden := c.(map[string]any)
		for _, key := range []string{"input", "expected", "actual"} {
			if _, ok := hidden[key]; ok {
				t.Errorf("hidden case %d exposes %q", i+1, key)
			}
		}
	}

	resp = do(t, ts, http.MethodGet, "/api/sessions/"+id+"/grades", nil)
	grades := decode[[]storage.Grade](t, resp)
	if len(grades) != 1 || grades[0].Passed != 3 {
		t.Errorf("grades = %+v", grades)
	}

	resp = do(t, ts, http.MethodGet, "/api/sessions/"+id, nil)
	view := decode[map[string]any](t, resp)
	if view["status"] != string(storage.StatusCompleted) {
		t.Errorf("status = %v, want completed", view["status"])
	}
	if view["source"] != doubleSolution {
		t.Errorf("source = %v", view["source"])
	}

	resp = do(t, ts, http.MethodGet, "/api/sessions", nil)
	if list := decode[[]storage.Session](t, resp); len(list) != 1 {
		t.Errorf("sessions = %v", list)
	}

	resp = do(t, ts, http.MethodDelete, "/api/sessions/"+id, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d", resp.StatusCode)
	}
	resp = do(t, ts, http.MethodGet, "/api/sessions/"+id, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", resp.StatusCode)
	}
}

func TestBadRequests(t *testing.T) {
	ts := testServer(t)
	id := createSession(t, ts)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"missing question", http.MethodPost, "/api/sessions", map[string]string{}, http.StatusBadRequest},
		{"unknown question", http.MethodPost, "/api/sessions", map[string]string{"question_id": "nope"}, http.StatusBadRequest},
		{"missing source", http.MethodPut, "/api/sessions/" + id + "/source", map[string]string{}, http.StatusBadRequest},
		{"unknown session run", http.MethodPost, "/api/sessions/nope/run", nil, http.StatusNotFound},
		{"unknown session grades", http.MethodGet, "/api/sessions/nope/grades", nil, http.StatusNotFound},
		{"unknown session delete", http.MethodDelete, "/api/sessions/nope", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, ts, tt.method, tt.path, tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestRuntimesEndpoint(t *testing.T) {
	ts := testServer(t)
	resp := do(t, ts, http.MethodGet, "/api/runtimes", nil)
	runtimes := decode[[]engine.RuntimeStatus](t, resp)
	if len(runtimes) != 3 {
		t.Fatalf("runtimes = %+v", runtimes)
	}
}

func TestWebSocket(t *testing.T) {
	ts := testServer(t)
	id := createSession(t, ts)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/sessions/" + id + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	exchange := func(in wsIncoming) wsOutgoing {
		t.Helper()
		if err := conn.WriteJSON(in); err != nil {
			t.Fatalf("WriteJSON: %v", err)
		}
		var out wsOutgoing
		if err := conn.ReadJSON(&out); err != nil {
			t.Fatalf("ReadJSON: %v", err)
		}
		return out
	}

	if out := exchange(wsIncoming{Type: "source", Source: "console.log('hi')"}); out.Type != "saved" {
		t.Errorf("source reply = %+v", out)
	}
	out := exchange(wsIncoming{Type: "run"})
	if out.Type != "output" || out.Output == nil || out.Output.Stdout != "hi\n" {
		t.Errorf("run reply = %+v", out)
	}
	out = exchange(wsIncoming{Type: "tests"})
	if out.Type != "summary" || out.Summary == nil || out.Summary.PassedCases != 0 {
		t.Errorf("tests reply = %+v", out)
	}
	if out := exchange(wsIncoming{Type: "bogus"}); out.Type != "error" {
		t.Errorf("bogus reply = %+v", out)
	}
	out = exchange(wsIncoming{Type: "reset"})
	if out.Type != "saved" || out.Content != doubleTemplate {
		t.Errorf("reset reply = %+v", out)
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return string(data)
}
