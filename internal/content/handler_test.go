package content_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qudrat-academy/qudrat/internal/access"
	"github.com/qudrat-academy/qudrat/internal/content"
)

func newRouter(repo *memRepo, p *access.Principal) http.Handler {
	h := content.NewHandler(nil, content.NewService(repo, items, nil))
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(access.ContextWithPrincipal(req.Context(), p)))
		})
	})
	r.Route("/section/{sectionId}/subject/{subjectId}/category/{categoryId}/chapter/{chapterId}/item/{itemId}", h.MountLesson)
	r.Route("/admin/content", h.MountAdmin)
	return r
}

const lessonURL = "/section/section_qudrat/subject/subject_verbal/category/cat_1/chapter/ch_1/item/item_1"

func TestQuizPayloadOmitsCorrectness(t *testing.T) {
	repo := newMemRepo()
	repo.questions["q1"] = content.Question{ID: "q1", ItemID: "item_1", Body: "?", Explanation: "because", Answers: []content.Answer{
		{Label: "a", Body: "x", IsCorrect: true},
		{Label: "b", Body: "y"},
	}}

	rr := httptest.NewRecorder()
	newRouter(repo, student).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, lessonURL+"/quiz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "isCorrect")
	assert.NotContains(t, rr.Body.String(), "because")
}

func TestLessonEndpoint(t *testing.T) {
	repo := newMemRepo()
	repo.files["item_1"] = content.File{ID: "f1", ItemID: "item_1", URL: "https://cdn.example.com/f.pdf"}

	rr := httptest.NewRecorder()
	newRouter(repo, student).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, lessonURL+"/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"actions":["readFile"]`)
}

func TestLessonEndpointWrongChapter(t *testing.T) {
	rr := httptest.NewRecorder()
	url := strings.Replace(lessonURL, "ch_1", "ch_9", 1)
	newRouter(newMemRepo(), student).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, url+"/", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAdminCreateQuestionValidation(t *testing.T) {
	repo := newMemRepo()
	body := `{"body":"?","answers":[{"label":"a","body":"x","isCorrect":true},{"label":"b","body":"y","isCorrect":true}]}`

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/content/items/item_1/questions", strings.NewReader(body))
	newRouter(repo, admin).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, repo.questions)

	body = strings.Replace(body, `"y","isCorrect":true`, `"y","isCorrect":false`, 1)
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/admin/content/items/item_1/questions", strings.NewReader(body))
	newRouter(repo, admin).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Len(t, repo.questions, 1)
}
