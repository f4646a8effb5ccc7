package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"github.com/quinta-thw/librarymanager-ist4070/internal/catalog"
	"github.com/quinta-thw/librarymanager-ist4070/internal/dialogue"
	"github.com/quinta-thw/librarymanager-ist4070/internal/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubGenerator struct {
	mu     sync.Mutex
	answer string
	err    error
	calls  int
}

func (g *stubGenerator) Generate(_ context.Context, _ string, _ catalog.Role, _ string, _ []catalog.Entry) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.answer, g.err
}

type staticCatalog []catalog.Entry

func (c staticCatalog) Snapshot(context.Context) []catalog.Entry {
	return append([]catalog.Entry(nil), c...)
}

var testBooks = staticCatalog{
	{Title: "Dune", Author: "Frank Herbert", Year: 1965, Genre: "Science Fiction", Status: catalog.StatusAvailable, Rating: 5},
	{Title: "Emma", Author: "Jane Austen", Year: 1815, Genre: "Romance", Status: catalog.StatusCheckedOut},
	{Title: "Neuromancer", Author: "William Gibson", Year: 1984, Genre: "Cyberpunk", Status: catalog.StatusAvailable, Rating: 4},
}

type testEnv struct {
	deps    Deps
	handler http.Handler
	store   *storage.Store
	gen     *stubGenerator
}

func newTestEnv(t *testing.T, token string) *testEnv {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	gen := &stubGenerator{answer: "Dune is on the shelf."}
	mgr := dialogue.NewManager(testBooks, dialogue.Options{
		Archive: store,
		Factory: func(credential, model string) (dialogue.ExternalGenerator, error) {
			if credential == "bad-key" {
				return nil, errors.New("rejected")
			}
			return gen, nil
		},
	})
	deps := Deps{
		Sessions: mgr,
		Catalog:  testBooks,
		Archive:  store,
		Imports:  store,
		Token:    token,
	}
	return &testEnv{deps: deps, handler: NewHandler(deps), store: store, gen: gen}
}

func (e *testEnv) do(t *testing.T, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) createSession(t *testing.T, role, name string) dialogue.Status {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/v1/sessions", `{"role":"`+role+`","display_name":"`+name+`"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create session status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var st dialogue.Status
	if err := json.NewDecoder(rr.Body).Decode(&st); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	return st
}

func decodeReply(t *testing.T, rr *httptest.ResponseRecorder) dialogue.Reply {
	t.Helper()
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var reply dialogue.Reply
	if err := json.NewDecoder(rr.Body).Decode(&reply); err != nil {
		t.Fatalf("decoding reply: %v", err)
	}
	return reply
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, "")
	rr := env.do(t, http.MethodGet, "/health", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	var body map[string]string
	json.NewDecoder(rr.Body).Decode(&body)
	if body["status"] != "ok" {
		t.Errorf("body = %v, want status=ok", body)
	}
}

func TestCreateSession(t *testing.T) {
	env := newTestEnv(t, "")
	st := env.createSession(t, "staff", "Ana")

	if st.ID == "" {
		t.Fatal("expected a session id")
	}
	if st.Role != catalog.RoleStaff {
		t.Errorf("role = %v, want staff", st.Role)
	}
	if st.DisplayName != "Ana" {
		t.Errorf("display name = %q, want Ana", st.DisplayName)
	}
	if st.AIEnabled {
		t.Error("session should start in local mode without a global credential")
	}
}

func TestCreateSession_UnknownRole(t *testing.T) {
	env := newTestEnv(t, "")
	rr := env.do(t, http.MethodPost, "/v1/sessions", `{"role":"wizard"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCreateSession_InvalidJSON(t *testing.T) {
	env := newTestEnv(t, "")
	rr := env.do(t, http.MethodPost, "/v1/sessions", `{not json}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	var body map[string]map[string]string
	json.NewDecoder(rr.Body).Decode(&body)
	if body["error"]["type"] != "invalid_request_error" {
		t.Errorf("error type = %q, want invalid_request_error", body["error"]["type"])
	}
}

func TestCreateSession_BodyTooLarge(t *testing.T) {
	env := newTestEnv(t, "")
	big := `{"display_name":"` + strings.Repeat("a", maxRequestBodySize) + `"}`
	rr := env.do(t, http.MethodPost, "/v1/sessions", big)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusRequestEntityTooLarge)
	}
}

func TestGetAndDeleteSession(t *testing.T) {
	env := newTestEnv(t, "")
	st := env.createSession(t, "patron", "")

	if rr := env.do(t, http.MethodGet, "/v1/sessions/"+st.ID, ""); rr.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", rr.Code)
	}
	if rr := env.do(t, http.MethodDelete, "/v1/sessions/"+st.ID, ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", rr.Code)
	}
	if rr := env.do(t, http.MethodGet, "/v1/sessions/"+st.ID, ""); rr.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", rr.Code)
	}
	if rr := env.do(t, http.MethodDelete, "/v1/sessions/"+st.ID, ""); rr.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rr.Code)
	}
}

func TestMessage_UnknownSession(t *testing.T) {
	env := newTestEnv(t, "")
	rr := env.do(t, http.MethodPost, "/v1/sessions/nope/messages", `{"text":"hello"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestMessage_Blank(t *testing.T) {
	env := newTestEnv(t, "")
	st := env.createSession(t, "patron", "")

	reply := decodeReply(t, env.do(t, http.MethodPost, "/v1/sessions/"+st.ID+"/messages", `{"text":"   "}`))
	if reply.Text != dialogue.BlankReply {
		t.Errorf("reply = %q, want %q", reply.Text, dialogue.BlankReply)
	}
	if reply.Source != dialogue.SourceInput {
		t.Errorf("source = %q, want input", reply.Source)
	}
}

func TestMessage_LocalMode(t *testing.T) {
	env := newTestEnv(t, "")
	st := env.createSession(t, "patron", "")

	reply := decodeReply(t, env.do(t, http.MethodPost, "/v1/sessions/"+st.ID+"/messages", `{"text":"Do you have books by Frank Herbert?"}`))
	if reply.Source != dialogue.SourceLocal {
		t.Errorf("source = %q, want local", reply.Source)
	}
	if reply.AIEnabled {
		t.Error("ai_enabled should be false")
	}
	if !strings.Contains(reply.Text, "Dune") {
		t.Errorf("reply should mention Dune: %q", reply.Text)
	}
	if env.gen.calls != 0 {
		t.Errorf("generator called %d times in local mode", env.gen.calls)
	}
}

func TestGlobalAI_ConfigureAppliesToSessions(t *testing.T) {
	env := newTestEnv(t, "")
	before := env.createSession(t, "patron", "")

	rr := env.do(t, http.MethodPut, "/v1/ai", `{"api_key":"sk-test","model":"gpt-4o-mini"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("configure status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var gs dialogue.GlobalStatus
	json.NewDecoder(rr.Body).Decode(&gs)
	if !gs.Configured || gs.Model != "gpt-4o-mini" || gs.Sessions != 1 {
		t.Errorf("global status = %+v", gs)
	}

	after := env.createSession(t, "patron", "")
	if !after.AIEnabled {
		t.Error("new session should inherit the global credential")
	}

	reply := decodeReply(t, env.do(t, http.MethodPost, "/v1/sessions/"+before.ID+"/messages", `{"text":"Is Dune available?"}`))
	if reply.Source != dialogue.SourceAI {
		t.Errorf("source = %q, want ai", reply.Source)
	}
	if reply.Text != dialogue.AIMarker+"Dune is on the shelf." {
		t.Errorf("reply = %q", reply.Text)
	}

	if rr := env.do(t, http.MethodDelete, "/v1/ai", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("clear status = %d, want 204", rr.Code)
	}
	reply = decodeReply(t, env.do(t, http.MethodPost, "/v1/sessions/"+after.ID+"/messages", `{"text":"Is Dune available?"}`))
	if reply.Source != dialogue.SourceLocal {
		t.Errorf("source after clear = %q, want local", reply.Source)
	}
}

func TestGlobalAI_MissingCredential(t *testing.T) {
	env := newTestEnv(t, "")
	rr := env.do(t, http.MethodPut, "/v1/ai", `{"api_key":"  "}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestGlobalAI_FactoryFailure(t *testing.T) {
	env := newTestEnv(t, "")
	rr := env.do(t, http.MethodPut, "/v1/ai", `{"api_key":"bad-key"}`)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadGateway)
	}
	if env.deps.Sessions.GlobalStatus().Configured {
		t.Error("failed configuration must leave the service unconfigured")
	}
}

func TestGlobalAI_RequiresToken(t *testing.T) {
	env := newTestEnv(t, "secret")

	rr := env.do(t, http.MethodPut, "/v1/ai", `{"api_key":"sk-test"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status without token = %d, want 401", rr.Code)
	}
	if rr.Header().Get("WWW-Authenticate") == "" {
		t.Error("expected WWW-Authenticate header")
	}

	rr = env.do(t, http.MethodPut, "/v1/ai", `{"api_key":"sk-test"}`, "Authorization", "Bearer wrong")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status with wrong token = %d, want 401", rr.Code)
	}

	rr = env.do(t, http.MethodPut, "/v1/ai", `{"api_key":"sk-test"}`, "Authorization", "Bearer secret")
	if rr.Code != http.StatusOK {
		t.Fatalf("status with token = %d, want 200", rr.Code)
	}

	// Session routes stay open.
	env.createSession(t, "patron", "")
}

func TestSessionAI_ConfigureAndClear(t *testing.T) {
	env := newTestEnv(t, "")
	st := env.createSession(t, "staff", "")
	other := env.createSession(t, "staff", "")

	rr := env.do(t, http.MethodPut, "/v1/sessions/"+st.ID+"/ai", `{"api_key":"sk-test","model":"m1"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("configure status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var got dialogue.Status
	json.NewDecoder(rr.Body).Decode(&got)
	if !got.AIEnabled || got.Model != "m1" {
		t.Errorf("status = %+v", got)
	}

	enabled, err := env.deps.Sessions.AIEnabled(other.ID)
	if err != nil || enabled {
		t.Errorf("other session AIEnabled = %v, %v; want false", enabled, err)
	}

	if rr := env.do(t, http.MethodDelete, "/v1/sessions/"+st.ID+"/ai", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("clear status = %d, want 204", rr.Code)
	}
	enabled, _ = env.deps.Sessions.AIEnabled(st.ID)
	if enabled {
		t.Error("session should be back in local mode")
	}
}

func TestSessionAI_UnknownSession(t *testing.T) {
	env := newTestEnv(t, "")
	rr := env.do(t, http.MethodPut, "/v1/sessions/nope/ai", `{"api_key":"sk-test"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestTranscript_MemoryAndArchive(t *testing.T) {
	env := newTestEnv(t, "")
	st := env.createSession(t, "patron", "")
	env.do(t, http.MethodPost, "/v1/sessions/"+st.ID+"/messages", `{"text":"hello"}`)
	env.do(t, http.MethodPost, "/v1/sessions/"+st.ID+"/messages", `{"text":"Do you have Emma?"}`)

	var tr transcriptResponse
	rr := env.do(t, http.MethodGet, "/v1/sessions/"+st.ID+"/transcript", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	json.NewDecoder(rr.Body).Decode(&tr)
	if len(tr.Turns) != 4 {
		t.Fatalf("memory turns = %d, want 4", len(tr.Turns))
	}
	if tr.Turns[0].Speaker != dialogue.SpeakerUser || tr.Turns[1].Speaker != dialogue.SpeakerBot {
		t.Errorf("speakers = %q, %q", tr.Turns[0].Speaker, tr.Turns[1].Speaker)
	}

	rr = env.do(t, http.MethodGet, "/v1/sessions/"+st.ID+"/transcript?limit=1", "")
	json.NewDecoder(rr.Body).Decode(&tr)
	if len(tr.Turns) != 1 || tr.Turns[0].Speaker != dialogue.SpeakerBot {
		t.Errorf("limited transcript = %+v", tr.Turns)
	}

	if rr := env.do(t, http.MethodDelete, "/v1/sessions/"+st.ID+"/transcript", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("clear status = %d", rr.Code)
	}
	rr = env.do(t, http.MethodGet, "/v1/sessions/"+st.ID+"/transcript", "")
	json.NewDecoder(rr.Body).Decode(&tr)
	if len(tr.Turns) != 0 {
		t.Errorf("turns after clear = %d, want 0", len(tr.Turns))
	}

	env.do(t, http.MethodDelete, "/v1/sessions/"+st.ID, "")
	rr = env.do(t, http.MethodGet, "/v1/sessions/"+st.ID+"/transcript?source=archive", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("archive status = %d, body = %s", rr.Code, rr.Body.String())
	}
	json.NewDecoder(rr.Body).Decode(&tr)
	if tr.Source != "archive" || len(tr.Turns) != 4 {
		t.Errorf("archive transcript source = %q, turns = %d; want archive, 4", tr.Source, len(tr.Turns))
	}
}

func TestTranscript_BadLimit(t *testing.T) {
	env := newTestEnv(t, "")
	st := env.createSession(t, "patron", "")
	rr := env.do(t, http.MethodGet, "/v1/sessions/"+st.ID+"/transcript?limit=-2", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestTranscript_NoArchive(t *testing.T) {
	env := newTestEnv(t, "")
	env.deps.Archive = nil
	h := NewHandler(env.deps)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/sessions/x/transcript?source=archive", nil))
	if rr.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotImplemented)
	}
}

func TestCatalog(t *testing.T) {
	env := newTestEnv(t, "")
	rr := env.do(t, http.MethodGet, "/v1/catalog", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var body catalogResponse
	json.NewDecoder(rr.Body).Decode(&body)
	if body.Total != 3 || len(body.Books) != 3 {
		t.Fatalf("catalog = %+v", body)
	}
	if body.Books[0].Title != "Dune" {
		t.Errorf("first book = %q, want Dune", body.Books[0].Title)
	}
}

func TestImports_SubmitAndStatus(t *testing.T) {
	env := newTestEnv(t, "secret")
	auth := []string{"Authorization", "Bearer secret"}

	body := `{"books":[{"title":"Beloved","author":"Toni Morrison","year":1987}]}`
	if rr := env.do(t, http.MethodPost, "/v1/catalog/imports", body); rr.Code != http.StatusUnauthorized {
		t.Fatalf("status without token = %d, want 401", rr.Code)
	}

	rr := env.do(t, http.MethodPost, "/v1/catalog/imports", body, auth...)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var accepted importResponse
	json.NewDecoder(rr.Body).Decode(&accepted)
	if accepted.JobID == "" || accepted.Status != "pending" {
		t.Fatalf("accepted = %+v", accepted)
	}

	rr = env.do(t, http.MethodGet, "/v1/catalog/imports/"+accepted.JobID, "", auth...)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var status importResponse
	json.NewDecoder(rr.Body).Decode(&status)
	if status.JobID != accepted.JobID || status.Status != "pending" || status.Done {
		t.Errorf("status = %+v", status)
	}

	job, err := env.store.GetJob(context.Background(), accepted.JobID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if !strings.Contains(job.PayloadJSON, "Beloved") {
		t.Errorf("payload = %s", job.PayloadJSON)
	}
}

func TestImports_Invalid(t *testing.T) {
	env := newTestEnv(t, "")
	rr := env.do(t, http.MethodPost, "/v1/catalog/imports", `{"books":[{"title":"No Author"}]}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	rr = env.do(t, http.MethodPost, "/v1/catalog/imports", `{"books":[]}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("empty import status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestImports_UnknownJob(t *testing.T) {
	env := newTestEnv(t, "")
	rr := env.do(t, http.MethodGet, "/v1/catalog/imports/missing", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestImports_Disabled(t *testing.T) {
	env := newTestEnv(t, "")
	env.deps.Imports = nil
	h := NewHandler(env.deps)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/catalog/imports", strings.NewReader(`{"books":[]}`))
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotImplemented)
	}
}
