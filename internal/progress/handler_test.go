package progress

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qudrat-academy/qudrat/internal/access"
)

func newTestRouter(f *fixture, p *access.Principal) http.Handler {
	h := NewHandler(nil, f.svc)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(access.ContextWithPrincipal(r.Context(), p)))
		})
	})
	r.Route("/section/{sectionId}/subject/{subjectId}/category/{categoryId}/chapter/{chapterId}/item/{itemId}", h.MountLesson)
	r.Route("/progress", h.MountRoutes)
	r.Route("/admin/progress", h.MountAdmin)
	return r
}

const (
	lessonURL   = "/section/section_qudrat/subject/subject_verbal/category/cat_foundation/chapter/ch_1/item/item_1"
	answersPath = lessonURL + "/answers"
)

func TestSubmitAnswerEndpoint(t *testing.T) {
	f := newFixture(t, false)
	router := newTestRouter(f, student())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, answersPath, strings.NewReader(`{"questionId":"q1","selected":"a"}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res SubmitResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Correct)
	assert.Equal(t, "b", res.CorrectAnswer)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, answersPath, strings.NewReader(`{"questionId":"q1","selected":"e"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, answersPath, strings.NewReader(`{"questionId":"q9","selected":"a"}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProgressEndpoint(t *testing.T) {
	f := newFixture(t, false)
	router := newTestRouter(f, student())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, answersPath, strings.NewReader(`{"questionId":"q2","selected":"a"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/progress", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Lessons []LessonProgress `json:"lessons"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Lessons, 1)
	assert.Equal(t, 1, body.Lessons[0].CorrectAnswers)

	anon := newTestRouter(f, nil)
	rec = httptest.NewRecorder()
	anon.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/progress", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestQuizAttemptEndpoints(t *testing.T) {
	f := newFixture(t, false)
	router := newTestRouter(f, student())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, answersPath, strings.NewReader(`{"questionId":"q1","selected":"c"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, lessonURL+"/attempts", strings.NewReader(`{"startedAt":"2025-05-01T08:00:00Z"}`)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var qa QuizAttempt
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &qa))
	assert.Equal(t, 0, qa.CorrectCount)
	assert.Equal(t, 2, qa.TotalQuestions)
	assert.Zero(t, qa.Score)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, lessonURL+"/attempts", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/progress/attempts?itemId=item_1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var attempts struct {
		Attempts []QuizAttempt `json:"attempts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &attempts))
	require.Len(t, attempts.Attempts, 1)
	assert.Equal(t, qa.ID, attempts.Attempts[0].ID)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/progress/incorrect", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var incorrect struct {
		Questions []IncorrectAnswer `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &incorrect))
	require.Len(t, incorrect.Questions, 1)
	assert.Equal(t, "q1", incorrect.Questions[0].QuestionID)
	assert.Equal(t, "b", incorrect.Questions[0].CorrectAnswer)
}

func TestAdminProgressEndpoints(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.svc.Recalculate(context.Background(), 7, "item_1")
	require.NoError(t, err)
	_, err = f.svc.Recalculate(context.Background(), 8, "item_1")
	require.NoError(t, err)
	admin := access.NewPrincipal(1, access.RoleAdmin, true, nil)
	router := newTestRouter(f, admin)

	var body struct {
		Lessons []StudentLesson `json:"lessons"`
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/progress", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Lessons, 2)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/progress?userId=8", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Lessons, 1)
	assert.Equal(t, int64(8), body.Lessons[0].UserID)
	assert.Contains(t, rec.Body.String(), `"userId":8`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/progress?userId=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/progress/attempts?userId=7", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"attempts":[]}`, rec.Body.String())
}
