package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mmDiagnosis/business/diagnosis"
	"mmDiagnosis/business/search"
	"mmDiagnosis/domain"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDiagnosis struct {
	gotAnswers     domain.Answers
	gotProvisional []domain.Provisional
	gotAsked       []string
	err            error
}

func (f *fakeDiagnosis) Score(ctx context.Context, sid string, a domain.Answers) (diagnosis.ScoreOutcome, error) {
	f.gotAnswers = a
	return diagnosis.ScoreOutcome{
		SessionID: "sess",
		Result: domain.ScoreResult{Provisional: []domain.Provisional{
			{Category: domain.CategorySideContour, Score: 1},
		}},
	}, f.err
}

func (f *fakeDiagnosis) SelectQuestion(ctx context.Context, sid string, p []domain.Provisional, asked []string) (domain.QuestionDecision, error) {
	f.gotProvisional = p
	f.gotAsked = asked
	return domain.QuestionDecision{Reason: "meets threshold"}, f.err
}

func (f *fakeDiagnosis) Reconcile(ctx context.Context, sid string, p []domain.Provisional, qid, cid string) ([]domain.Provisional, error) {
	f.gotProvisional = p
	if qid == "nope" {
		return nil, fmt.Errorf("%w: %s", diagnosis.ErrUnknownQuestion, qid)
	}
	return p, f.err
}

func (f *fakeDiagnosis) Recommend(ctx context.Context, sid string, a domain.Answers, p []domain.Provisional) (diagnosis.Recommendation, error) {
	f.gotAnswers = a
	f.gotProvisional = p
	return diagnosis.Recommendation{SessionID: sid, Rung: search.RungStrict}, f.err
}

func doJSON(t *testing.T, h echo.HandlerFunc, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	require.NoError(t, h(e.NewContext(req, rec)))

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return rec, out
}

func TestDiagnosisHandler_Score(t *testing.T) {
	svc := &fakeDiagnosis{}
	h := NewDiagnosisHandler(svc, time.Second)

	rec, _ := doJSON(t, h.Score, `{"answers":{"posture":["side","back"],"rollover":"mid","unknown":1}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "side-contour")
	assert.Equal(t, "side", svc.gotAnswers.Posture)
	assert.Equal(t, "mid", svc.gotAnswers.Rollover)
}

func TestDiagnosisHandler_ScoreServiceError(t *testing.T) {
	h := NewDiagnosisHandler(&fakeDiagnosis{err: errors.New("boom")}, time.Second)

	rec, out := doJSON(t, h.Score, `{"answers":{}}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "failed to score answers", out["message"])
}

func TestDiagnosisHandler_BadBody(t *testing.T) {
	h := NewDiagnosisHandler(&fakeDiagnosis{}, time.Second)

	rec, out := doJSON(t, h.Score, `{"answers":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", out["message"])
}

func TestDiagnosisHandler_QuestionValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"ok", `{"provisional":[{"category":"side-contour","score":0.9},{"category":"back-contour","score":0.85}],"asked":["x"]}`, http.StatusOK},
		{"empty provisional", `{"provisional":[]}`, http.StatusBadRequest},
		{"unknown category", `{"provisional":[{"category":"waterbed","score":0.5}]}`, http.StatusBadRequest},
		{"score out of range", `{"provisional":[{"category":"cooling","score":1.5}]}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeDiagnosis{}
			h := NewDiagnosisHandler(svc, time.Second)

			rec, _ := doJSON(t, h.Question, tt.body)
			assert.Equal(t, tt.code, rec.Code)
			if tt.code == http.StatusOK {
				require.Len(t, svc.gotProvisional, 2)
				assert.Equal(t, domain.CategorySideContour, svc.gotProvisional[0].Category)
				assert.Equal(t, []string{"x"}, svc.gotAsked)
			}
		})
	}
}

func TestDiagnosisHandler_Reconcile(t *testing.T) {
	h := NewDiagnosisHandler(&fakeDiagnosis{}, time.Second)
	base := `"provisional":[{"category":"side-contour","score":0.9}]`

	rec, _ := doJSON(t, h.Reconcile, `{`+base+`,"question_id":"side_ratio","choice_id":"mostly_back"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, out := doJSON(t, h.Reconcile, `{`+base+`,"question_id":"nope","choice_id":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, out["message"], "unknown clarifying question")

	rec, _ = doJSON(t, h.Reconcile, `{`+base+`,"question_id":"side_ratio"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDiagnosisHandler_RecommendWithoutProvisional(t *testing.T) {
	svc := &fakeDiagnosis{}
	h := NewDiagnosisHandler(svc, time.Second)

	rec, _ := doJSON(t, h.Recommend, `{"session_id":"s1","answers":{"budget":"3k-6k"}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3k-6k", svc.gotAnswers.Budget)
	assert.Empty(t, svc.gotProvisional)
	assert.Contains(t, rec.Body.String(), `"rung":"strict"`)
}
