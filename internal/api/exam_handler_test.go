package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exam-mex-backend/internal/client"
	"exam-mex-backend/internal/model"
	"exam-mex-backend/internal/service"
)

const validUUID = "5f0c7d1e-3a2b-4c5d-8e9f-0a1b2c3d4e5f"

type stubMasterer struct {
	results []model.MasteringResult
	err     error
	echo    bool
}

func (s *stubMasterer) MasterExam(_ context.Context, xml string, _ func() string, _ model.MediaMetadataResolver, _ model.MasteringOptions) ([]model.MasteringResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.echo {
		return []model.MasteringResult{{XML: xml}}, nil
	}
	return s.results, nil
}

func newTestEngine(m service.Masterer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewExamHandler(service.NewExamService(service.NewMasteringService(m, "secret"), 2))
	r := gin.New()
	r.POST("/exams/xml", h.GenerateXMLHandler)
	r.POST("/exams/mex", h.ConvertToMexHandler)
	r.POST("/exams/mex/batch", h.ConvertBatchHandler)
	r.POST("/exams/master", h.MasterXMLHandler)
	return r
}

func examBody(examUUID string) map[string]any {
	return map[string]any{
		"examUuid": examUUID,
		"content": map[string]any{
			"title":       "Maantieto",
			"instruction": "Vastaa",
			"sections": []any{map[string]any{
				"questions": []any{
					map[string]any{"type": "text", "id": 9, "text": "Kerro", "maxScore": 3},
				},
			}},
		},
	}
}

func doJSON(t *testing.T, r http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGenerateXMLHandler(t *testing.T) {
	r := newTestEngine(&stubMasterer{})

	w := doJSON(t, r, "/exams/xml", examBody(validUUID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result model.GeneratedXML
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Contains(t, result.XML, `<e:exam-title>Maantieto</e:exam-title>`)
}

func TestConvertToMexHandler(t *testing.T) {
	r := newTestEngine(&stubMasterer{echo: true})

	w := doJSON(t, r, "/exams/mex", examBody(validUUID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result model.MexConversionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Contains(t, result.XML, `question-id="9"`)
}

func TestHandlersRejectInvalidUUID(t *testing.T) {
	r := newTestEngine(&stubMasterer{})

	for _, path := range []string{"/exams/xml", "/exams/mex", "/exams/master"} {
		w := doJSON(t, r, path, examBody("not-a-uuid"))
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.Contains(t, w.Body.String(), "not a valid UUID", path)
	}
}

func TestHandlersRejectMalformedBody(t *testing.T) {
	r := newTestEngine(&stubMasterer{})

	req := httptest.NewRequest(http.MethodPost, "/exams/mex", bytes.NewBufferString(`{"examUuid":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConvertToMexHandlerErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		masterer *stubMasterer
		want     int
	}{
		{"rate limited", &stubMasterer{err: client.ErrRateLimited}, http.StatusTooManyRequests},
		{"multi-language", &stubMasterer{results: []model.MasteringResult{{}, {}}}, http.StatusBadRequest},
		{"mastering down", &stubMasterer{err: assert.AnError}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, newTestEngine(tt.masterer), "/exams/mex", examBody(validUUID))
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestMasterXMLHandler(t *testing.T) {
	r := newTestEngine(&stubMasterer{results: []model.MasteringResult{{XML: "<mastered/>", Title: "Maantieto"}}})

	body := map[string]any{"examUuid": validUUID, "contentXml": "<e:exam/>"}
	w := doJSON(t, r, "/exams/master", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result model.XMLMasteringResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "<mastered/>", result.XML)
	assert.Equal(t, "Maantieto", result.ExamTitle)
}

func TestMasterXMLHandlerMissingContent(t *testing.T) {
	r := newTestEngine(&stubMasterer{})

	w := doJSON(t, r, "/exams/master", map[string]any{"examUuid": validUUID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "XML mastering failed")
}

func TestConvertBatchHandler(t *testing.T) {
	r := newTestEngine(&stubMasterer{echo: true})

	noContent := map[string]any{"examUuid": validUUID}
	w := doJSON(t, r, "/exams/mex/batch", map[string]any{
		"exams": []any{examBody(validUUID), noContent},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Results []model.BatchItemResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	require.NotNil(t, resp.Results[0].Result)
	assert.Contains(t, resp.Results[0].Result.XML, `question-id="9"`)
	assert.NotEmpty(t, resp.Results[1].Error)
}

func TestConvertBatchHandlerRejectsInvalidUUID(t *testing.T) {
	r := newTestEngine(&stubMasterer{echo: true})

	w := doJSON(t, r, "/exams/mex/batch", map[string]any{
		"exams": []any{examBody(validUUID), examBody("nope")},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "exam 1")
}
