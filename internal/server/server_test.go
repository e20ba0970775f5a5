package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/avaldes/marsight/internal/db"
	"github.com/avaldes/marsight/internal/llm"
	"github.com/avaldes/marsight/internal/models"
	"github.com/avaldes/marsight/internal/retrieval"
	"github.com/avaldes/marsight/internal/service"
	"github.com/avaldes/marsight/internal/vision"
)

const testToken = "test-token-12345"

type fakeObjects struct {
	lastInput models.CapturedObjectInput
	ingestErr error
	deleteErr error
}

func (f *fakeObjects) Ingest(ctx context.Context, input models.CapturedObjectInput) (*models.CapturedObject, error) {
	f.lastInput = input
	if f.ingestErr != nil {
		return nil, f.ingestErr
	}
	return &models.CapturedObject{Name: input.Name, ObjectClass: input.ObjectClass}, nil
}

func (f *fakeObjects) Get(ctx context.Context, id string) (*models.CapturedObject, error) {
	if id == "missing" {
		return nil, db.ErrNotFound
	}
	return &models.CapturedObject{Name: "Roca basáltica"}, nil
}

func (f *fakeObjects) Update(ctx context.Context, id string, upd models.CapturedObjectUpdate) error {
	return f.deleteErr
}

func (f *fakeObjects) Delete(ctx context.Context, id string) error {
	return f.deleteErr
}

type fakeMissions struct {
	missions []models.Mission
	endErr   error
}

func (f *fakeMissions) Start(ctx context.Context, input models.MissionInput) (*models.Mission, error) {
	return &models.Mission{
		ID:    surrealmodels.RecordID{Table: "mission", ID: "m1"},
		Code:  "MISION-20260829-1200",
		Title: input.Title,
		State: models.MissionActive,
	}, nil
}

func (f *fakeMissions) End(ctx context.Context, id string) error { return f.endErr }

func (f *fakeMissions) List(ctx context.Context) ([]models.Mission, error) {
	return f.missions, nil
}

func (f *fakeMissions) Objects(ctx context.Context, missionID string) ([]models.CapturedObject, error) {
	return nil, nil
}

func (f *fakeMissions) Orphaned(ctx context.Context) ([]models.CapturedObject, error) {
	return nil, nil
}

func (f *fakeMissions) Delete(ctx context.Context, id string) error { return nil }

type fakeChat struct {
	resp    service.ChatResponse
	sendErr error
}

func (f *fakeChat) Send(ctx context.Context, req service.ChatRequest) (service.ChatResponse, error) {
	if req.Message == "" {
		return service.ChatResponse{}, service.ErrEmptyMessage
	}
	if f.sendErr != nil {
		return service.ChatResponse{}, f.sendErr
	}
	return f.resp, nil
}

func (f *fakeChat) History(ctx context.Context) ([]models.ConversationSummary, error) {
	return nil, nil
}

func (f *fakeChat) Transcript(ctx context.Context, id string) (*models.Conversation, error) {
	if id == "missing" {
		return nil, db.ErrNotFound
	}
	return &models.Conversation{Title: "Rocas marcianas"}, nil
}

func (f *fakeChat) Rename(ctx context.Context, id, title string) error { return nil }
func (f *fakeChat) Delete(ctx context.Context, id string) error        { return nil }

type fakeNearby struct {
	lastQuery retrieval.NearbyQuery
	result    retrieval.NearbyResult
}

func (f *fakeNearby) Resolve(ctx context.Context, q retrieval.NearbyQuery) retrieval.NearbyResult {
	f.lastQuery = q
	return f.result
}

type fakeSimilar struct {
	result retrieval.SimilarResult
	err    error
}

func (f *fakeSimilar) Resolve(ctx context.Context, imageB64 string) (retrieval.SimilarResult, error) {
	if f.err != nil {
		return retrieval.SimilarResult{}, f.err
	}
	return f.result, nil
}

type fakeEnricher struct{}

func (fakeEnricher) EnrichLabel(ctx context.Context, label string) models.EnrichmentResult {
	if label == "" {
		return models.EnrichmentResult{Description: "No data.", Category: models.CategoryCommon}
	}
	return models.EnrichmentResult{Description: "Roca de origen volcánico", Category: models.CategoryPlace}
}

func (fakeEnricher) ContextualDescription(ctx context.Context, req llm.ContextRequest) string {
	return req.ObjectName + " detectado automáticamente."
}

type fakeVision struct {
	vec []float32
	err error
}

func (f *fakeVision) Encode(ctx context.Context, imageB64 string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

func (f *fakeVision) Model() string  { return "clip-vit-b-32" }
func (f *fakeVision) Dimension() int { return 4 }

type handlerFakes struct {
	objects  *fakeObjects
	missions *fakeMissions
	chat     *fakeChat
	nearby   *fakeNearby
	similar  *fakeSimilar
	vision   *fakeVision
}

func setupHandler(t *testing.T, token string) (http.Handler, *handlerFakes) {
	t.Helper()
	fakes := &handlerFakes{
		objects:  &fakeObjects{},
		missions: &fakeMissions{},
		chat:     &fakeChat{resp: service.ChatResponse{Response: "Entendido.", ChatID: "conversation:abc"}},
		nearby:   &fakeNearby{},
		similar:  &fakeSimilar{},
		vision:   &fakeVision{vec: []float32{0.1, 0.2, 0.3, 0.4}},
	}
	h := NewHandler(Deps{
		Objects:  fakes.objects,
		Missions: fakes.missions,
		Chat:     fakes.chat,
		Nearby:   fakes.nearby,
		Similar:  fakes.similar,
		Enricher: fakeEnricher{},
		Encoder:  fakes.vision,
		Token:    token,
	})
	return h, fakes
}

func authReq(method, url, body, token string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not valid JSON: %v; body = %s", err, rr.Body.String())
	}
	return out
}

func TestRequestIDSharedWithHandlers(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	var seen string
	h := requestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if seen == "" {
		t.Fatal("RequestID() empty inside handler")
	}
	if !strings.Contains(buf.String(), seen) {
		t.Fatalf("log line does not carry the handler's request id %q: %s", seen, buf.String())
	}
}

func TestHealthNoAuth(t *testing.T) {
	h, _ := setupHandler(t, testToken)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestAuthRequired(t *testing.T) {
	h, _ := setupHandler(t, testToken)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/api/missions/list", "", ""))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/api/missions/list", "", "wrong-token"))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/api/missions/list", "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("valid token: status = %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestAuthDisabledWhenNoToken(t *testing.T) {
	h, _ := setupHandler(t, "")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/api/missions/list", "", ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestCreateObject(t *testing.T) {
	h, fakes := setupHandler(t, testToken)

	body := `{"name":"Perseverance","object_class":"rover","confidence":0.93,"location":{"lat":18.44,"lng":77.45}}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/api/objects/create", body, testToken))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body = %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if fakes.objects.lastInput.Name != "Perseverance" {
		t.Fatalf("ingested name = %q, want Perseverance", fakes.objects.lastInput.Name)
	}
	out := decodeBody(t, rr)
	if out["success"] != true {
		t.Fatalf("success = %v, want true", out["success"])
	}
}

func TestCreateObjectValidation(t *testing.T) {
	h, _ := setupHandler(t, testToken)

	for name, body := range map[string]string{
		"missing name": `{"object_class":"rock"}`,
		"invalid json": `{not json`,
	} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, authReq(http.MethodPost, "/api/objects/create", body, testToken))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want %d", name, rr.Code, http.StatusBadRequest)
		}
	}
}

func TestCreateObjectStoreFailure(t *testing.T) {
	h, fakes := setupHandler(t, testToken)
	fakes.objects.ingestErr = errors.New("surrealdb unreachable")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/api/objects/create", `{"name":"Roca"}`, testToken))
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadGateway)
	}
}

func TestGetObject(t *testing.T) {
	h, _ := setupHandler(t, testToken)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/api/objects/obj1", "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	out := decodeBody(t, rr)
	if out["name"] != "Roca basáltica" {
		t.Fatalf("name = %v, want Roca basáltica", out["name"])
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/api/objects/missing", "", testToken))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing object: status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestNearbyDefaultsRadius(t *testing.T) {
	h, fakes := setupHandler(t, testToken)
	fakes.nearby.result = retrieval.NearbyResult{
		Objects:    []db.RetrievedObject{},
		Provenance: retrieval.ProvenanceDistance,
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/api/objects/nearby?lat=18.44&lng=77.45", "", testToken))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if fakes.nearby.lastQuery.RadiusMeters != defaultNearbyRadius {
		t.Fatalf("radius = %v, want %v", fakes.nearby.lastQuery.RadiusMeters, defaultNearbyRadius)
	}
	if fakes.nearby.lastQuery.Lat != 18.44 || fakes.nearby.lastQuery.Lng != 77.45 {
		t.Fatalf("query = %+v, want lat 18.44 lng 77.45", fakes.nearby.lastQuery)
	}
	out := decodeBody(t, rr)
	if out["provenance"] != "distance" {
		t.Fatalf("provenance = %v, want distance", out["provenance"])
	}
}

func TestNearbyRejectsBadParams(t *testing.T) {
	h, _ := setupHandler(t, testToken)

	for name, url := range map[string]string{
		"missing coords":  "/api/objects/nearby",
		"bad lat":         "/api/objects/nearby?lat=abc&lng=77.45",
		"negative radius": "/api/objects/nearby?lat=18.44&lng=77.45&radius=-5",
	} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, authReq(http.MethodGet, url, "", testToken))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want %d", name, rr.Code, http.StatusBadRequest)
		}
	}
}

func TestSearchSimilar(t *testing.T) {
	h, fakes := setupHandler(t, testToken)
	fakes.similar.result = retrieval.SimilarResult{
		Matches: []db.RetrievedObject{{Name: "Roca basáltica"}},
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/api/search-similar", `{"image_base64":"aGVsbG8="}`, testToken))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	out := decodeBody(t, rr)
	matches, ok := out["matches"].([]any)
	if !ok || len(matches) != 1 {
		t.Fatalf("matches = %v, want one entry", out["matches"])
	}
}

func TestSearchSimilarModelUnavailable(t *testing.T) {
	h, fakes := setupHandler(t, testToken)
	fakes.similar.err = vision.ErrModelUnavailable

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/api/search-similar", `{"image_base64":"aGVsbG8="}`, testToken))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}

func TestEnrichData(t *testing.T) {
	h, _ := setupHandler(t, testToken)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/api/enrich-data", `{"label":"rock"}`, testToken))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	out := decodeBody(t, rr)
	if out["category"] == nil || out["description"] == nil {
		t.Fatalf("body = %v, want category and description", out)
	}
}

func TestContextualDescription(t *testing.T) {
	h, _ := setupHandler(t, testToken)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/api/contextual-description", `{"object_name":"Antena UHF"}`, testToken))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	out := decodeBody(t, rr)
	if out["description"] != "Antena UHF detectado automáticamente." {
		t.Fatalf("description = %v", out["description"])
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/api/contextual-description", `{}`, testToken))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing object_name: status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestGenerateEmbedding(t *testing.T) {
	h, _ := setupHandler(t, testToken)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/api/generate-embedding", `{"image_base64":"aGVsbG8="}`, testToken))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	out := decodeBody(t, rr)
	emb, ok := out["embedding"].([]any)
	if !ok || len(emb) != 4 {
		t.Fatalf("embedding = %v, want 4 components", out["embedding"])
	}
	if out["model"] != "clip-vit-b-32" {
		t.Fatalf("model = %v, want clip-vit-b-32", out["model"])
	}
}

func TestGenerateEmbeddingNoEncoder(t *testing.T) {
	h := NewHandler(Deps{
		Objects:  &fakeObjects{},
		Missions: &fakeMissions{},
		Chat:     &fakeChat{},
		Nearby:   &fakeNearby{},
		Similar:  &fakeSimilar{},
		Enricher: fakeEnricher{},
		Token:    testToken,
	})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/api/generate-embedding", `{"image_base64":"aGVsbG8="}`, testToken))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}

func TestChat(t *testing.T) {
	h, _ := setupHandler(t, testToken)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/api/chat", `{"message":"¿Qué es esto?"}`, testToken))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	out := decodeBody(t, rr)
	if out["response"] != "Entendido." || out["chat_id"] != "conversation:abc" {
		t.Fatalf("body = %v", out)
	}
}

func TestChatEmptyMessage(t *testing.T) {
	h, _ := setupHandler(t, testToken)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/api/chat", `{"message":""}`, testToken))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestGetConversationNotFound(t *testing.T) {
	h, _ := setupHandler(t, testToken)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/api/chat/history/missing", "", testToken))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestStartMission(t *testing.T) {
	h, _ := setupHandler(t, testToken)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/api/missions/start", `{"title":"Cráter norte","zone":"sector-7"}`, testToken))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body = %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	out := decodeBody(t, rr)
	if out["mission_id"] != "m1" || out["code"] != "MISION-20260829-1200" {
		t.Fatalf("body = %v", out)
	}
}

func TestEndMissionNotActive(t *testing.T) {
	h, fakes := setupHandler(t, testToken)
	fakes.missions.endErr = db.ErrNotFound

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/api/missions/end", `{"mission_id":"xyz"}`, testToken))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestListMissionsEmpty(t *testing.T) {
	h, _ := setupHandler(t, testToken)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/api/missions/list", "", testToken))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	out := decodeBody(t, rr)
	missions, ok := out["missions"].([]any)
	if !ok {
		t.Fatalf("missions = %v, want empty list not null", out["missions"])
	}
	if len(missions) != 0 {
		t.Fatalf("missions = %v, want empty", missions)
	}
}
