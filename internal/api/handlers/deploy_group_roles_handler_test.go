package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iac-studio/rolecfg/internal/api/middleware"
	"github.com/iac-studio/rolecfg/internal/api/types"
	"github.com/iac-studio/rolecfg/internal/models"
	"github.com/iac-studio/rolecfg/internal/repository"
	"github.com/iac-studio/rolecfg/internal/services"
	appErr "github.com/iac-studio/rolecfg/pkg/errors"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *types.APIError `json:"error"`
	Meta    *types.Meta     `json:"meta"`
}

type fixture struct {
	svc      *mockConfigService
	bulk     *mockBulkEditor
	renderer *mockRenderer
	actors   *mockActors
	router   chi.Router
	userID   uuid.UUID
}

func newFixture() *fixture {
	f := &fixture{
		svc:      &mockConfigService{},
		bulk:     &mockBulkEditor{},
		renderer: &mockRenderer{},
		actors:   &mockActors{},
		userID:   uuid.New(),
	}
	h := NewDeployGroupRolesHandler(f.svc, f.bulk, f.renderer, f.actors, 3)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := context.WithValue(req.Context(), middleware.UserIDKey, f.userID)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Get("/deploy_group_roles", h.List)
	r.Post("/deploy_group_roles", h.Create)
	r.Get("/deploy_group_roles/{id}", h.Show)
	r.Put("/deploy_group_roles/{id}", h.Update)
	r.Delete("/deploy_group_roles/{id}", h.Delete)
	r.Get("/projects/{project_id}/deploy_group_roles", h.ListByProject)
	r.Put("/projects/{project_id}/deploy_group_roles", h.BulkUpdate)
	f.router = r
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return rr, env
}

func TestListRejectsInvalidFilter(t *testing.T) {
	f := newFixture()
	rr, env := f.do(t, http.MethodGet, "/deploy_group_roles?project_id=nope", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.False(t, env.Success)
	f.svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestListPassesFilter(t *testing.T) {
	f := newFixture()
	projectID, groupID := uuid.New(), uuid.New()
	items := []models.DeployGroupRole{{ID: uuid.New()}, {ID: uuid.New()}}
	f.svc.On("List", mock.Anything, repository.Filter{ProjectID: &projectID, DeployGroupID: &groupID}).Return(items, nil)

	rr, env := f.do(t, http.MethodGet, "/projects/"+projectID.String()+"/deploy_group_roles?deploy_group_id="+groupID.String(), "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, env.Success)
	require.NotNil(t, env.Meta)
	assert.EqualValues(t, 2, env.Meta.Total)
	f.svc.AssertExpectations(t)
}

func TestCreateValidatesRequest(t *testing.T) {
	f := newFixture()
	rr, env := f.do(t, http.MethodPost, "/deploy_group_roles", `{"project_id":"x","replicas":2}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "invalid", env.Error.Code)

	fields := map[string]string{}
	for _, fe := range env.Error.Fields {
		fields[fe.Field] = fe.Message
	}
	assert.Equal(t, "is not a valid id", fields["project_id"])
	assert.Equal(t, "can't be blank", fields["deploy_group_id"])
	assert.Equal(t, "can't be blank", fields["kubernetes_role_id"])
	f.svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreate(t *testing.T) {
	f := newFixture()
	projectID, groupID, roleID := uuid.New(), uuid.New(), uuid.New()
	created := &models.DeployGroupRole{ID: uuid.New(), ProjectID: projectID, DeployGroupID: groupID, KubernetesRoleID: roleID, Replicas: 3}

	f.svc.On("Create", mock.Anything, mock.MatchedBy(func(in services.CreateInput) bool {
		return in.ProjectID == projectID && in.DeployGroupID == groupID && in.KubernetesRoleID == roleID &&
			in.Values.Replicas != nil && *in.Values.Replicas == 3 && in.Values.LimitsCPU == nil
	})).Return(created, nil)

	body := `{"project_id":"` + projectID.String() + `","deploy_group_id":"` + groupID.String() +
		`","kubernetes_role_id":"` + roleID.String() + `","replicas":3}`
	rr, env := f.do(t, http.MethodPost, "/deploy_group_roles", body)
	require.Equal(t, http.StatusCreated, rr.Code)

	var got models.DeployGroupRole
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, created.ID, got.ID)
	f.svc.AssertExpectations(t)
}

func TestCreateReportsServiceValidation(t *testing.T) {
	f := newFixture()
	verr := &appErr.ValidationError{}
	verr.Add("kubernetes_role_id", "has already been taken for this project and deploy group")
	f.svc.On("Create", mock.Anything, mock.Anything).Return(nil, appErr.Wrap(verr, appErr.CodeInvalid, "invalid deploy group role"))

	body := `{"project_id":"` + uuid.NewString() + `","deploy_group_id":"` + uuid.NewString() +
		`","kubernetes_role_id":"` + uuid.NewString() + `"}`
	rr, env := f.do(t, http.MethodPost, "/deploy_group_roles", body)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "Kubernetes role has already been taken for this project and deploy group", env.Error.Details)
}

func TestShowNotFound(t *testing.T) {
	f := newFixture()
	id := uuid.New()
	f.svc.On("Get", mock.Anything, id).Return(nil, appErr.New(appErr.CodeNotFound, "deploy group role not found"))

	rr, env := f.do(t, http.MethodGet, "/deploy_group_roles/"+id.String(), "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "not_found", env.Error.Code)
}

func TestShowWithoutIncludeSkipsRender(t *testing.T) {
	f := newFixture()
	id := uuid.New()
	f.svc.On("Get", mock.Anything, id).Return(&models.DeployGroupRole{ID: id}, nil)

	rr, env := f.do(t, http.MethodGet, "/deploy_group_roles/"+id.String(), "")
	require.Equal(t, http.StatusOK, rr.Code)

	var got map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.NotContains(t, got, "verification_template")
	f.renderer.AssertNotCalled(t, "RenderConfig", mock.Anything, mock.Anything, mock.Anything)
}

func TestShowIncludesVerificationTemplate(t *testing.T) {
	f := newFixture()
	id := uuid.New()
	cfg := &models.DeployGroupRole{ID: id}
	actor := &models.User{ID: f.userID, Name: "Ada", Email: "ada@example.com"}

	f.svc.On("Get", mock.Anything, id).Return(cfg, nil)
	f.actors.On("Actor", mock.Anything, f.userID).Return(actor, nil)
	f.renderer.On("RenderConfig", mock.Anything, cfg, services.RenderRequest{
		GitRef:       "v1.2",
		Actor:        actor,
		Verification: true,
	}).Return(&services.RenderedConfig{Config: cfg, Revision: services.Revision{Ref: "v1.2", SHA: strings.Repeat("a", 40)}}, nil)

	rr, env := f.do(t, http.MethodGet, "/deploy_group_roles/"+id.String()+"?include=verification_template&git_ref=v1.2&verification=true", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var got struct {
		VerificationTemplate struct {
			Revision services.Revision `json:"revision"`
		} `json:"verification_template"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "v1.2", got.VerificationTemplate.Revision.Ref)
	f.renderer.AssertExpectations(t)
	f.actors.AssertExpectations(t)
}

func TestShowIncludeDefaultsToVerificationBundle(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		verification bool
	}{
		{name: "include alone", query: "?include=verification_template", verification: true},
		{name: "explicit opt out", query: "?include=verification_template&verification=false", verification: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			id := uuid.New()
			cfg := &models.DeployGroupRole{ID: id}
			actor := &models.User{ID: f.userID}

			f.svc.On("Get", mock.Anything, id).Return(cfg, nil)
			f.actors.On("Actor", mock.Anything, f.userID).Return(actor, nil)
			f.renderer.On("RenderConfig", mock.Anything, cfg, services.RenderRequest{
				Actor:        actor,
				Verification: tt.verification,
			}).Return(&services.RenderedConfig{Config: cfg}, nil)

			rr, _ := f.do(t, http.MethodGet, "/deploy_group_roles/"+id.String()+tt.query, "")
			require.Equal(t, http.StatusOK, rr.Code)
			f.renderer.AssertExpectations(t)
		})
	}
}

func TestShowRejectsInvalidVerificationFlag(t *testing.T) {
	f := newFixture()
	id := uuid.New()
	f.svc.On("Get", mock.Anything, id).Return(&models.DeployGroupRole{ID: id}, nil)

	rr, _ := f.do(t, http.MethodGet, "/deploy_group_roles/"+id.String()+"?include=verification_template&verification=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	f.renderer.AssertNotCalled(t, "RenderConfig", mock.Anything, mock.Anything, mock.Anything)
}

func TestShowReportsUnknownRevision(t *testing.T) {
	f := newFixture()
	id := uuid.New()
	cfg := &models.DeployGroupRole{ID: id}
	f.svc.On("Get", mock.Anything, id).Return(cfg, nil)
	f.actors.On("Actor", mock.Anything, f.userID).Return(&models.User{}, nil)
	f.renderer.On("RenderConfig", mock.Anything, cfg, mock.Anything).
		Return(nil, &appErr.RevisionNotFoundError{Ref: "nope"})

	rr, env := f.do(t, http.MethodGet, "/deploy_group_roles/"+id.String()+"?include=verification_template&git_ref=nope", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "revision_not_found", env.Error.Code)
}

func TestUpdate(t *testing.T) {
	f := newFixture()
	id := uuid.New()
	f.svc.On("Update", mock.Anything, id, mock.MatchedBy(func(p services.ConfigPatch) bool {
		return p.LimitsMemory != nil && *p.LimitsMemory == 512 && p.Replicas == nil
	})).Return(&models.DeployGroupRole{ID: id, LimitsMemory: 512}, nil)

	rr, _ := f.do(t, http.MethodPut, "/deploy_group_roles/"+id.String(), `{"limits_memory":512}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	f.svc.AssertExpectations(t)
}

func TestDelete(t *testing.T) {
	f := newFixture()
	id := uuid.New()
	f.svc.On("Delete", mock.Anything, id).Return(nil)

	rr, env := f.do(t, http.MethodDelete, "/deploy_group_roles/"+id.String(), "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, env.Success)
}

func TestBulkUpdateSuccess(t *testing.T) {
	f := newFixture()
	projectID, id := uuid.New(), uuid.New()
	f.bulk.On("UpdateMany", mock.Anything, projectID, mock.MatchedBy(func(p map[uuid.UUID]services.ConfigPatch) bool {
		return len(p) == 1 && p[id].Replicas != nil && *p[id].Replicas == 4
	})).Return(&services.BulkResult{Items: []services.BulkItem{{ID: id, Config: &models.DeployGroupRole{ID: id, Replicas: 4}}}}, nil)

	rr, env := f.do(t, http.MethodPut, "/projects/"+projectID.String()+"/deploy_group_roles",
		`{"deploy_group_roles":{"`+id.String()+`":{"replicas":4}}}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var got types.BulkUpdateResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.True(t, got.Success)
	require.Len(t, got.Items, 1)
	assert.Equal(t, id.String(), got.Items[0].Key)
}

func TestBulkUpdatePartialFailure(t *testing.T) {
	f := newFixture()
	projectID := uuid.New()
	ok, bad := uuid.New(), uuid.New()
	verr := &appErr.ValidationError{}
	verr.Add("replicas", "must be greater than or equal to 0")

	res := &services.BulkResult{
		Items: []services.BulkItem{
			{ID: ok, Config: &models.DeployGroupRole{ID: ok}},
			{ID: bad, Config: &models.DeployGroupRole{ID: bad}, Err: verr},
		},
		Failure: &appErr.PartialBatchFailure{
			Op:        "bulk update",
			Attempted: 2,
			Items:     []appErr.ItemFailure{{Key: bad.String(), Label: "server for pod1", Err: verr}},
		},
	}
	f.bulk.On("UpdateMany", mock.Anything, projectID, mock.Anything).Return(res, nil)

	body := `{"deploy_group_roles":{"` + ok.String() + `":{"replicas":1},"` + bad.String() + `":{"replicas":-1}}}`
	rr, env := f.do(t, http.MethodPut, "/projects/"+projectID.String()+"/deploy_group_roles", body)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "partial_failure", env.Error.Code)
	assert.Equal(t, []string{BulkFailureHeader, "server for pod1: Replicas must be greater than or equal to 0"}, env.Error.Messages)

	var got types.BulkUpdateResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.False(t, got.Success)
	require.Len(t, got.Items, 2)
	assert.NotNil(t, got.Items[0].DeployGroupRole)
	assert.Nil(t, got.Items[1].DeployGroupRole)
	assert.Equal(t, "Replicas must be greater than or equal to 0", got.Items[1].Error)
}

func TestBulkUpdateRejectsInvalidKeys(t *testing.T) {
	f := newFixture()
	rr, env := f.do(t, http.MethodPut, "/projects/"+uuid.NewString()+"/deploy_group_roles",
		`{"deploy_group_roles":{"not-an-id":{"replicas":1}}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "invalid", env.Error.Code)
	f.bulk.AssertNotCalled(t, "UpdateMany", mock.Anything, mock.Anything, mock.Anything)
}

func TestBulkUpdateStoreFailure(t *testing.T) {
	f := newFixture()
	projectID := uuid.New()
	f.bulk.On("UpdateMany", mock.Anything, projectID, mock.Anything).Return(nil, errors.New("connection reset"))

	rr, env := f.do(t, http.MethodPut, "/projects/"+projectID.String()+"/deploy_group_roles",
		`{"deploy_group_roles":{"`+uuid.NewString()+`":{"replicas":1}}}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.False(t, env.Success)
}
