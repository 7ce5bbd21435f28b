package public_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"

	"github.com/boni03200-lang/gomasecure/internal/api/handlers/http/public"
	mock_public "github.com/boni03200-lang/gomasecure/internal/api/handlers/http/public/mocks"
	"github.com/boni03200-lang/gomasecure/internal/domain"
	"github.com/boni03200-lang/gomasecure/pkg/e"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{Level: slog.LevelError}))
}

func decodeJSON[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json response: %v, body=%s", err, rr.Body.String())
	}
	return out
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

type handlerFixture struct {
	reports  *mock_public.MockReports
	votes    *mock_public.MockVotes
	queries  *mock_public.MockQueries
	accounts *mock_public.MockAccounts
	h        *public.Handler
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := &handlerFixture{
		reports:  mock_public.NewMockReports(ctrl),
		votes:    mock_public.NewMockVotes(ctrl),
		queries:  mock_public.NewMockQueries(ctrl),
		accounts: mock_public.NewMockAccounts(ctrl),
	}
	f.h = public.NewHandler(newTestLogger(), f.reports, f.votes, f.queries, f.accounts)
	return f
}

func TestSubmitReport_OK(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)
	reporterID := uuid.NewString()

	reqBody := `{"reporter_id":"` + reporterID + `","type":"FIRE","description":"smoke over the market","lat":-1.67,"lng":29.22}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", bytes.NewBufferString(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	wantReq := domain.SubmitReportRequest{
		ReporterID:  reporterID,
		Type:        domain.IncidentFire,
		Description: "smoke over the market",
		Lat:         -1.67,
		Lng:         29.22,
	}
	created := &domain.Incident{
		ID:     uuid.New(),
		Type:   domain.IncidentFire,
		Status: domain.StatusPending,
	}

	f.reports.EXPECT().
		SubmitReport(gomock.Any(), wantReq).
		Return(created, nil).
		Times(1)

	f.h.SubmitReport(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected %d got %d body=%s", http.StatusCreated, rr.Code, rr.Body.String())
	}
	got := decodeJSON[domain.Incident](t, rr)
	if got.ID != created.ID || got.Status != domain.StatusPending {
		t.Fatalf("unexpected response: %+v", got)
	}
}

func TestSubmitReport_InvalidJSON_400(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)

	for _, body := range []string{
		`{`,
		`{"reporter_id":1}`,
		`{"reporter_id":"x"}{"again":true}`,
		`{"unknown_field":true}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", bytes.NewBufferString(body))
		rr := httptest.NewRecorder()

		f.h.SubmitReport(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400 got %d", body, rr.Code)
		}
	}
}

func TestSubmitReport_ValidationFailure_400(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)

	// type is not a known incident type
	reqBody := `{"reporter_id":"` + uuid.NewString() + `","type":"VOLCANO","lat":0,"lng":0}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	f.h.SubmitReport(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestSubmitReport_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"unknown reporter", e.ErrNotFound, http.StatusNotFound},
		{"banned reporter", e.ErrForbidden, http.StatusForbidden},
		{"bad coordinates", e.ErrInvalidCoordinates, http.StatusBadRequest},
		{"version conflict", e.ErrConflict, http.StatusConflict},
		{"internal", e.ErrInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newHandlerFixture(t)
			f.reports.EXPECT().
				SubmitReport(gomock.Any(), gomock.Any()).
				Return(nil, tt.err)

			reqBody := `{"reporter_id":"` + uuid.NewString() + `","type":"THEFT","lat":0,"lng":0}`
			req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", bytes.NewBufferString(reqBody))
			rr := httptest.NewRecorder()

			f.h.SubmitReport(rr, req)

			if rr.Code != tt.wantCode {
				t.Fatalf("expected %d got %d body=%s", tt.wantCode, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestCastVote_OK(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)
	incID := uuid.New()
	voterID := uuid.NewString()

	wantReq := domain.CastVoteRequest{VoterID: voterID, Vote: domain.VoteLike}
	updated := &domain.Incident{ID: incID, Status: domain.StatusPending, Likes: []uuid.UUID{uuid.New()}}

	f.votes.EXPECT().
		CastVote(gomock.Any(), incID, wantReq).
		Return(updated, nil)

	reqBody := `{"voter_id":"` + voterID + `","vote":"like"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/incidents/"+incID.String()+"/votes", bytes.NewBufferString(reqBody))
	req = withURLParam(req, "id", incID.String())
	rr := httptest.NewRecorder()

	f.h.CastVote(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCastVote_BadIncidentID_400(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/incidents/nope/votes", bytes.NewBufferString(`{}`))
	req = withURLParam(req, "id", "nope")
	rr := httptest.NewRecorder()

	f.h.CastVote(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestCastVote_StateMachineErrors_409(t *testing.T) {
	t.Parallel()

	for _, sentinel := range []error{e.ErrInvalidTransition, e.ErrAlreadyTerminal} {
		sentinel := sentinel
		t.Run(sentinel.Error(), func(t *testing.T) {
			t.Parallel()

			f := newHandlerFixture(t)
			incID := uuid.New()

			f.votes.EXPECT().
				CastVote(gomock.Any(), incID, gomock.Any()).
				Return(nil, sentinel)

			reqBody := `{"voter_id":"` + uuid.NewString() + `","vote":"dislike"}`
			req := httptest.NewRequest(http.MethodPost, "/api/v1/incidents/"+incID.String()+"/votes", bytes.NewBufferString(reqBody))
			req = withURLParam(req, "id", incID.String())
			rr := httptest.NewRecorder()

			f.h.CastVote(rr, req)

			if rr.Code != http.StatusConflict {
				t.Fatalf("expected 409 got %d body=%s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestGetIncident_OK(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)
	inc := &domain.Incident{ID: uuid.New(), Type: domain.IncidentSOS, Status: domain.StatusValidated}

	f.queries.EXPECT().Get(gomock.Any(), inc.ID).Return(inc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/incidents/"+inc.ID.String(), nil)
	req = withURLParam(req, "id", inc.ID.String())
	rr := httptest.NewRecorder()

	f.h.GetIncident(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	got := decodeJSON[domain.Incident](t, rr)
	if got.ID != inc.ID {
		t.Fatalf("unexpected incident: %+v", got)
	}
}

func TestGetIncident_NotFound_404(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)
	id := uuid.New()

	f.queries.EXPECT().Get(gomock.Any(), id).Return(nil, e.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/incidents/"+id.String(), nil)
	req = withURLParam(req, "id", id.String())
	rr := httptest.NewRecorder()

	f.h.GetIncident(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rr.Code)
	}
}

func TestListIncidents_PassesTypeFilter(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)

	f.queries.EXPECT().
		ListActive(gomock.Any(), domain.ListIncidentsRequest{Type: "FIRE"}).
		Return([]domain.Incident{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/incidents?type=FIRE", nil)
	rr := httptest.NewRecorder()

	f.h.ListIncidents(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	got := decodeJSON[map[string][]domain.Incident](t, rr)
	if _, ok := got["incidents"]; !ok {
		t.Fatalf("response missing incidents key: %s", rr.Body.String())
	}
}

func TestRegisterUser_OK(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)

	wantReq := domain.RegisterUserRequest{DisplayName: "amani", Role: domain.RoleCitizen}
	created := &domain.User{
		UID:             uuid.New(),
		DisplayName:     "amani",
		Role:            domain.RoleCitizen,
		Status:          domain.UserActive,
		ReputationScore: 50,
	}

	f.accounts.EXPECT().
		Register(gomock.Any(), wantReq).
		Return(created, nil)

	reqBody := `{"display_name":"amani","role":"CITIZEN"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	f.h.RegisterUser(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", rr.Code, rr.Body.String())
	}
	got := decodeJSON[domain.User](t, rr)
	if got.UID != created.UID || got.ReputationScore != 50 {
		t.Fatalf("unexpected response: %+v", got)
	}
}

func TestRegisterUser_BadRole_400(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)

	reqBody := `{"role":"OVERLORD"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	f.h.RegisterUser(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestGetReputation_OK(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)
	uid := uuid.New()

	f.queries.EXPECT().Reputation(gomock.Any(), uid).Return(67, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/"+uid.String()+"/reputation", nil)
	req = withURLParam(req, "id", uid.String())
	rr := httptest.NewRecorder()

	f.h.GetReputation(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	got := decodeJSON[domain.ReputationResponse](t, rr)
	if got.UserID != uid.String() || got.ReputationScore != 67 {
		t.Fatalf("unexpected response: %+v", got)
	}
}
