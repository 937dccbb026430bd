package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"compucobano/internal/domain"
	"compucobano/internal/middleware"
	"compucobano/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAdminRouter(reader *fakeReader, writer *fakeWriter, exposeDetails bool) chi.Router {
	h := NewAdminHandler(reader, writer, zap.NewNop(), exposeDetails)
	r := chi.NewRouter()
	r.Route("/api/admin", func(r chi.Router) {
		h.RegisterRoutes(r, passThrough)
	})
	return r
}

func TestGetStats(t *testing.T) {
	reader := &fakeReader{stats: domain.Stats{TotalProducts: 1, TotalCategories: 2, TotalStock: 0, OutOfStock: 1}}
	router := newAdminRouter(reader, &fakeWriter{}, false)

	rec, _ := doJSON(t, router, http.MethodGet, "/api/admin", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"totalProductos":1,"totalCategorias":2,"totalStock":0,"sinStock":1}`, rec.Body.String())
}

func TestGetStatsFailure(t *testing.T) {
	reader := &fakeReader{statsErr: domain.Wrap(domain.KindInternal, errors.New("connection refused"))}

	rec, env := doJSON(t, newAdminRouter(reader, &fakeWriter{}, false), http.MethodGet, "/api/admin", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", env.Error)
	assert.Empty(t, env.Details)

	rec, env = doJSON(t, newAdminRouter(reader, &fakeWriter{}, true), http.MethodGet, "/api/admin", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `"connection refused"`, string(env.Details))
}

func TestPostCreateProduct(t *testing.T) {
	writer := &fakeWriter{}
	router := newAdminRouter(&fakeReader{}, writer, false)

	rec, env := doJSON(t, router, http.MethodPost, "/api/admin", map[string]interface{}{
		"action": "create_product",
		"data": map[string]interface{}{
			"id":           "P2",
			"nombre":       "Mouse",
			"categoria_id": "1",
			"precio":       "10.5",
			"stock":        3,
			"foto":         []string{"https://img/1.png"},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, env.Success)
	assert.Equal(t, []string{"create_product"}, writer.calls)
	assert.Equal(t, "P2", writer.productInput.ID)
	assert.Equal(t, domain.Scalar("1"), writer.productInput.CategoryID)
	assert.Equal(t, domain.Scalar("10.5"), writer.productInput.Price)
	assert.Equal(t, domain.Scalar("3"), writer.productInput.Stock)

	var product domain.Product
	require.NoError(t, json.Unmarshal(env.Data, &product))
	assert.Equal(t, "Mouse", product.Name)
}

func TestPostCreateCategory(t *testing.T) {
	writer := &fakeWriter{}
	router := newAdminRouter(&fakeReader{}, writer, false)

	rec, env := doJSON(t, router, http.MethodPost, "/api/admin",
		`{"action":"create_category","data":{"nombre":"Redes","descripcion":"Routers"}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"id":3,"nombre":"Redes","descripcion":"Routers"}`, string(env.Data))
}

func TestPostUpdateAndDelete(t *testing.T) {
	writer := &fakeWriter{}
	router := newAdminRouter(&fakeReader{}, writer, false)

	rec, env := doJSON(t, router, http.MethodPost, "/api/admin",
		`{"action":"update_product","data":{"id":"P1","data":{"nombre":"Laptop Pro","foto":[]}}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "P1", writer.targetID)
	require.NotNil(t, writer.productPatch.Name)
	assert.Equal(t, "Laptop Pro", *writer.productPatch.Name)
	require.NotNil(t, writer.productPatch.Images)
	assert.Empty(t, *writer.productPatch.Images)
	assert.Nil(t, writer.productPatch.Price)

	rec, _ = doJSON(t, router, http.MethodPost, "/api/admin",
		`{"action":"update_category","data":{"id":"2","data":{"descripcion":"Cuadernos"}}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(2), writer.categoryID)

	rec, env = doJSON(t, router, http.MethodPost, "/api/admin",
		`{"action":"delete_product","data":{"id":"P1"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "product deleted", env.Message)
	assert.Empty(t, env.Data)

	rec, env = doJSON(t, router, http.MethodPost, "/api/admin",
		`{"action":"delete_category","data":{"id":2}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "category deleted", env.Message)
	assert.Equal(t, int64(2), writer.categoryID)

	assert.Equal(t, []string{"update_product", "update_category", "delete_product", "delete_category"}, writer.calls)
}

func TestPostRejectsMalformedRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
		field   string
	}{
		{name: "malformed json", body: `{"action":`, message: "invalid request body"},
		{name: "missing action", body: `{"data":{}}`, message: "validation failed", field: "action"},
		{name: "unknown action", body: `{"action":"drop_tables","data":{}}`, message: "invalid action"},
		{name: "missing data", body: `{"action":"create_product"}`, message: "data is required", field: "data"},
		{name: "data of wrong shape", body: `{"action":"create_product","data":[1,2]}`, message: "data has an invalid shape", field: "data"},
		{name: "update without id", body: `{"action":"update_product","data":{"data":{"nombre":"x"}}}`, message: "id is required", field: "id"},
		{name: "update without changes", body: `{"action":"update_product","data":{"id":"P1"}}`, message: "data is required", field: "data"},
		{name: "non numeric category id", body: `{"action":"delete_category","data":{"id":"abc"}}`, message: "category id must be a positive integer", field: "id"},
		{name: "negative category id", body: `{"action":"update_category","data":{"id":-4,"data":{"nombre":"x"}}}`, message: "category id must be a positive integer", field: "id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer := &fakeWriter{}
			rec, env := doJSON(t, newAdminRouter(&fakeReader{}, writer, false), http.MethodPost, "/api/admin", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.message, env.Error)
			assert.Empty(t, writer.calls, "writer must not be reached")

			if tt.field != "" {
				var details []middleware.ValidationError
				require.NoError(t, json.Unmarshal(env.Details, &details))
				require.NotEmpty(t, details)
				assert.Equal(t, tt.field, details[0].Field)
			}
		})
	}
}

func TestPostMapsWriterErrors(t *testing.T) {
	tests := []struct {
		name   string
		action string
		err    error
		status int
	}{
		{"duplicate product", `{"action":"create_product","data":{"id":"P1","nombre":"Dup"}}`, domain.Wrap(domain.KindDuplicateKey, errors.New("23505")), http.StatusConflict},
		{"unknown category", `{"action":"create_product","data":{"id":"P9","nombre":"X","categoria_id":99}}`, domain.Wrap(domain.KindInvalidReference, errors.New("23503")), http.StatusBadRequest},
		{"category in use", `{"action":"delete_category","data":{"id":1}}`, domain.Wrap(domain.KindReferentialConflict, errors.New("23503")), http.StatusBadRequest},
		{"missing product", `{"action":"delete_product","data":{"id":"nope"}}`, domain.Wrap(domain.KindNotFound, errors.New("no rows")), http.StatusNotFound},
		{"bad price", `{"action":"create_product","data":{"id":"P9","nombre":"X","precio":"abc"}}`, domain.NewValidationError("precio", "precio must be a number"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := doJSON(t, newAdminRouter(&fakeReader{}, &fakeWriter{err: tt.err}, true), http.MethodPost, "/api/admin", tt.action)

			assert.Equal(t, tt.status, rec.Code)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Error)
		})
	}
}

func TestPostBlockedCategoryDeleteKeepsItsMessage(t *testing.T) {
	writer := &fakeWriter{err: domain.Wrap(domain.KindReferentialConflict, errors.New("23503"))}

	rec, env := doJSON(t, newAdminRouter(&fakeReader{}, writer, false), http.MethodPost, "/api/admin",
		`{"action":"delete_category","data":{"id":1}}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.ErrReferentialConflict.Message, env.Error)
	assert.NotEqual(t, domain.ErrInvalidReference.Message, env.Error)
}

func TestPostUpdateRecordsExplicitNullCategory(t *testing.T) {
	writer := &fakeWriter{}

	rec, _ := doJSON(t, newAdminRouter(&fakeReader{}, writer, false), http.MethodPost, "/api/admin",
		`{"action":"update_product","data":{"id":"P1","data":{"categoria_id":null}}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, writer.productPatch.CategoryID.Present)
	assert.True(t, writer.productPatch.CategoryID.Value.Blank())
}

func TestPostValidationErrorNamesField(t *testing.T) {
	writer := &fakeWriter{err: domain.NewValidationError("precio", "precio must be a number")}

	rec, env := doJSON(t, newAdminRouter(&fakeReader{}, writer, false), http.MethodPost, "/api/admin",
		`{"action":"create_product","data":{"id":"P9","nombre":"X","precio":"abc"}}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "precio must be a number", env.Error)
	assert.JSONEq(t, `[{"field":"precio","message":"precio must be a number"}]`, string(env.Details))
}

func TestPostUnclassifiedErrorIsInternal(t *testing.T) {
	writer := &fakeWriter{err: errors.New("driver: bad connection")}

	rec, env := doJSON(t, newAdminRouter(&fakeReader{}, writer, false), http.MethodPost, "/api/admin",
		`{"action":"delete_product","data":{"id":"P1"}}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", env.Error)
	assert.Empty(t, env.Details)
}

func TestAdminRoutesRequireAdminToken(t *testing.T) {
	tokens := service.NewTokenService("panel-secret")
	h := NewAdminHandler(&fakeReader{}, &fakeWriter{}, zap.NewNop(), false)

	router := chi.NewRouter()
	router.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.AdminGuard(tokens, zap.NewNop()))
		h.RegisterRoutes(r, passThrough)
	})

	rec, env := doJSON(t, router, http.MethodGet, "/api/admin", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, env.Error)

	viewer, err := tokens.IssueToken("bob", "viewer", 0)
	require.NoError(t, err)
	rec = serve(router, authorizedRequest(http.MethodGet, "/api/admin", viewer))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin, err := tokens.IssueToken("ana", service.RoleAdmin, 0)
	require.NoError(t, err)
	rec = serve(router, authorizedRequest(http.MethodGet, "/api/admin", admin))
	assert.Equal(t, http.StatusOK, rec.Code)
}

// Every classified failure reaches the client with the status of its kind
// and the canonical message of that kind.
func TestProperty_ErrorKindsMapToStatus(t *testing.T) {
	properties := gopter.NewProperties(nil)

	kinds := []struct {
		kind   domain.ErrorKind
		status int
	}{
		{domain.KindDuplicateKey, http.StatusConflict},
		{domain.KindInvalidReference, http.StatusBadRequest},
		{domain.KindNotFound, http.StatusNotFound},
		{domain.KindReferentialConflict, http.StatusBadRequest},
		{domain.KindInternal, http.StatusInternalServerError},
	}

	properties.Property("status and message follow the error kind", prop.ForAll(
		func(i int, expose bool) bool {
			kind, status := kinds[i].kind, kinds[i].status
			classified := domain.Wrap(kind, errors.New("cause"))
			writer := &fakeWriter{err: classified}

			rec, env := doJSON(t, newAdminRouter(&fakeReader{}, writer, expose), http.MethodPost, "/api/admin",
				`{"action":"delete_product","data":{"id":"P1"}}`)

			if rec.Code != status || rec.Code != StatusFor(kind) || env.Error != classified.Message {
				return false
			}
			// details only ever leak for internal failures outside production
			hasDetails := len(env.Details) > 0
			return hasDetails == (expose && kind == domain.KindInternal)
		},
		gen.IntRange(0, len(kinds)-1),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
