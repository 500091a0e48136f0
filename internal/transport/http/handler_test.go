package httptransport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"go.uber.org/zap"

	"sems-converter/internal/conversion"
	"sems-converter/internal/entity"
	"sems-converter/internal/repository/filestore"
	"sems-converter/internal/service"
	httptransport "sems-converter/internal/transport/http"
)

const (
	semsMain = `E,General Election,2024-11-05,23,Choctaw County,MS
P,6525,District 5
D,100,Countywide
C,775,100,Sheriff,1
K,775,1001,Jane Doe,
`
	semsMapping = "775,1001,jane-doe\n"
)

// ---- helpers ----

func newTestRouter(t *testing.T, opts httptransport.Options) http.Handler {
	t.Helper()
	store, err := filestore.New(t.TempDir())
	if err != nil {
		t.Fatalf("filestore: %v", err)
	}
	conv := conversion.New(store)
	reg, err := service.NewRegistry(store, service.NopRecorder(), zap.NewNop(),
		service.DefinitionJob(conv),
		service.ResultsJob(conv),
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if err := reg.Reset(context.Background()); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if opts.OutputTypes == nil {
		opts.OutputTypes = map[string]string{
			entity.KindElection: "application/json",
			entity.KindTallies:  "text/plain; charset=utf-8",
		}
	}
	return httptransport.Routes(httptransport.NewHandler(reg, zap.NewNop(), opts))
}

func do(router http.Handler, method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func submit(t *testing.T, router http.Handler, kind, name, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if name != "" {
		_ = mw.WriteField("name", name)
	}
	fw, err := mw.CreateFormFile("file", "upload.txt")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	_, _ = fw.Write([]byte(content))
	_ = mw.Close()
	return do(router, http.MethodPost, "/convert/"+kind+"/submitfile", &body, mw.FormDataContentType())
}

func outputURL(kind, name string) string {
	return "/convert/" + kind + "/output?name=" + url.QueryEscape(name)
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid json: %v, body=%s", err, rr.Body.String())
	}
}

// ---- tests ----

func TestHTTP_ListFiles(t *testing.T) {
	router := newTestRouter(t, httptransport.Options{})

	rr := do(router, http.MethodGet, "/convert/election/files", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", rr.Code, rr.Body.String())
	}
	var resp struct {
		InputFiles []struct {
			Name     string `json:"name"`
			Accept   string `json:"accept"`
			Assigned bool   `json:"assigned"`
		} `json:"inputFiles"`
		OutputFiles []struct {
			Name string `json:"name"`
		} `json:"outputFiles"`
	}
	decode(t, rr, &resp)
	if len(resp.InputFiles) != 2 || resp.InputFiles[0].Name != "SEMS main file" || resp.InputFiles[0].Accept != ".txt,text/plain" {
		t.Fatalf("unexpected inputs %+v", resp.InputFiles)
	}
	if len(resp.OutputFiles) != 1 || resp.OutputFiles[0].Name != "Vx Election Definition" {
		t.Fatalf("unexpected outputs %+v", resp.OutputFiles)
	}

	submit(t, router, "election", "SEMS main file", semsMain)
	rr = do(router, http.MethodGet, "/convert/election/files", nil, "")
	decode(t, rr, &resp)
	if !resp.InputFiles[0].Assigned || resp.InputFiles[1].Assigned {
		t.Fatalf("unexpected assigned flags %+v", resp.InputFiles)
	}
}

func TestHTTP_UnknownKind_404(t *testing.T) {
	router := newTestRouter(t, httptransport.Options{})
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/convert/results/files"},
		{http.MethodPost, "/convert/results/process"},
		{http.MethodGet, "/convert/results/output?name=x"},
		{http.MethodGet, "/convert/results/runs"},
	} {
		rr := do(router, tc.method, tc.path, nil, "")
		if rr.Code != http.StatusNotFound {
			t.Fatalf("%s %s: expected 404, got %d", tc.method, tc.path, rr.Code)
		}
	}
	if rr := submit(t, router, "results", "x", "y"); rr.Code != http.StatusNotFound {
		t.Fatalf("submit to unknown kind: expected 404, got %d", rr.Code)
	}
}

func TestHTTP_SubmitFile_Validation(t *testing.T) {
	router := newTestRouter(t, httptransport.Options{MaxUploadBytes: 1024})

	if rr := submit(t, router, "election", "Vx Election Definition", "x"); rr.Code != http.StatusBadRequest {
		t.Fatalf("output slot upload: expected 400, got %d", rr.Code)
	}
	if rr := submit(t, router, "election", "", "x"); rr.Code != http.StatusBadRequest {
		t.Fatalf("missing name: expected 400, got %d", rr.Code)
	}
	rr := do(router, http.MethodPost, "/convert/election/submitfile", bytes.NewBufferString("{}"), "application/json")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("non-multipart: expected 400, got %d", rr.Code)
	}
	if rr := submit(t, router, "election", "SEMS main file", strings.Repeat("x", 4096)); rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized: expected 413, got %d, body=%s", rr.Code, rr.Body.String())
	}
}

func TestHTTP_ElectionFlow(t *testing.T) {
	router := newTestRouter(t, httptransport.Options{})

	if rr := submit(t, router, "election", "SEMS main file", semsMain); rr.Code != http.StatusOK {
		t.Fatalf("submit main: %d %s", rr.Code, rr.Body.String())
	}

	rr := do(router, http.MethodPost, "/convert/election/process", nil, "")
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 before all files are submitted, got %d", rr.Code)
	}
	var st struct {
		Status string `json:"status"`
		Output string `json:"output"`
	}
	decode(t, rr, &st)
	if st.Status != "not all files are ready to process" {
		t.Fatalf("unexpected status %q", st.Status)
	}

	if rr := do(router, http.MethodGet, outputURL("election", "Vx Election Definition"), nil, ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before processing, got %d", rr.Code)
	}

	submit(t, router, "election", "SEMS candidate mapping file", semsMapping)
	rr = do(router, http.MethodPost, "/convert/election/process", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("process: expected 200, got %d, body=%s", rr.Code, rr.Body.String())
	}
	decode(t, rr, &st)
	if st.Status != "ok" || st.Output != "Vx Election Definition" {
		t.Fatalf("unexpected process response %+v", st)
	}

	rr = do(router, http.MethodGet, outputURL("election", "Vx Election Definition"), nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("output: expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="Vx Election Definition"`) {
		t.Fatalf("unexpected content disposition %q", cd)
	}
	var el conversion.Election
	decode(t, rr, &el)
	if el.County.Name != "Choctaw County" || len(el.Contests) != 1 {
		t.Fatalf("unexpected election %+v", el)
	}

	// inputs are not downloadable
	if rr := do(router, http.MethodGet, outputURL("election", "SEMS main file"), nil, ""); rr.Code != http.StatusNotFound {
		t.Fatalf("input download: expected 404, got %d", rr.Code)
	}

	rr = do(router, http.MethodPost, "/convert/reset", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("reset: expected 200, got %d", rr.Code)
	}
	if rr := do(router, http.MethodGet, outputURL("election", "Vx Election Definition"), nil, ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after reset, got %d", rr.Code)
	}
}

func TestHTTP_ConversionFailure_422(t *testing.T) {
	router := newTestRouter(t, httptransport.Options{})
	submit(t, router, "election", "SEMS main file", "E,T,2024-01-01,1,C,MS\nZ,1\n")
	submit(t, router, "election", "SEMS candidate mapping file", "")

	rr := do(router, http.MethodPost, "/convert/election/process", nil, "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d, body=%s", rr.Code, rr.Body.String())
	}
	var e struct {
		Message string `json:"message"`
	}
	decode(t, rr, &e)
	if !strings.Contains(e.Message, `SEMS main file line 2: unknown record type "Z"`) {
		t.Fatalf("expected parse detail in message, got %q", e.Message)
	}
}

func TestHTTP_TalliesFlow(t *testing.T) {
	router := newTestRouter(t, httptransport.Options{})
	submit(t, router, "election", "SEMS main file", semsMain)
	submit(t, router, "election", "SEMS candidate mapping file", semsMapping)
	do(router, http.MethodPost, "/convert/election/process", nil, "")
	def := do(router, http.MethodGet, outputURL("election", "Vx Election Definition"), nil, "").Body.String()

	submit(t, router, "tallies", "Vx Election Definition", def)
	submit(t, router, "tallies", "Vx Tallies", `{"talliesByPrecinct":{"6525":{"775":{"tallies":{"jane-doe":7}}}}}`)
	if rr := do(router, http.MethodPost, "/convert/tallies/process", nil, ""); rr.Code != http.StatusOK {
		t.Fatalf("process tallies: %d %s", rr.Code, rr.Body.String())
	}

	rr := do(router, http.MethodGet, outputURL("tallies", "SEMS Results"), nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.HasPrefix(rr.Body.String(), "23,6525,775,Sheriff,jane-doe,Jane Doe,,7\n") {
		t.Fatalf("unexpected results %q", rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestHTTP_RunsWithoutHistory_EmptyList(t *testing.T) {
	router := newTestRouter(t, httptransport.Options{})
	rr := do(router, http.MethodGet, "/convert/election/runs?limit=5", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != "[]" {
		t.Fatalf("expected empty list, got %s", got)
	}
}

func TestHTTP_Health(t *testing.T) {
	router := newTestRouter(t, httptransport.Options{})
	rr := do(router, http.MethodGet, "/health", nil, "")
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("unexpected health response %d %q", rr.Code, rr.Body.String())
	}
}
