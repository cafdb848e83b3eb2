package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/courseloom/courseloom-backend/internal/authz"
	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ─── Fakes ──────────────────────────────────────────────────────────────────

type fakeQuizStore struct {
	quizzes map[uuid.UUID]*model.Quiz
}

func newFakeQuizStore() *fakeQuizStore {
	return &fakeQuizStore{quizzes: make(map[uuid.UUID]*model.Quiz)}
}

func (s *fakeQuizStore) Create(ctx context.Context, q *model.Quiz) error {
	q.ID = uuid.New()
	s.quizzes[q.ID] = q
	return nil
}

func (s *fakeQuizStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	q, ok := s.quizzes[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return q, nil
}

func (s *fakeQuizStore) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]model.Quiz, error) {
	var out []model.Quiz
	for _, q := range s.quizzes {
		if q.CourseID == courseID {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (s *fakeQuizStore) Update(ctx context.Context, q *model.Quiz) error {
	s.quizzes[q.ID] = q
	return nil
}

func (s *fakeQuizStore) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.quizzes, id)
	return nil
}

type fakeQuestionStore struct {
	questions map[uuid.UUID][]model.Question
}

func newFakeQuestionStore() *fakeQuestionStore {
	return &fakeQuestionStore{questions: make(map[uuid.UUID][]model.Question)}
}

func (s *fakeQuestionStore) ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.Question, error) {
	return s.questions[quizID], nil
}

func (s *fakeQuestionStore) Create(ctx context.Context, q *model.Question) error {
	q.ID = uuid.New()
	s.questions[q.QuizID] = append(s.questions[q.QuizID], *q)
	return nil
}

func (s *fakeQuestionStore) ReplaceAll(ctx context.Context, quizID uuid.UUID, questions []model.Question) error {
	for i := range questions {
		questions[i].ID = uuid.New()
	}
	s.questions[quizID] = questions
	return nil
}

func (s *fakeQuestionStore) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

type attemptKey struct {
	quizID    uuid.UUID
	studentID int
}

type fakeAttemptStore struct {
	attempts map[attemptKey]*model.QuizAttempt
}

func newFakeAttemptStore() *fakeAttemptStore {
	return &fakeAttemptStore{attempts: make(map[attemptKey]*model.QuizAttempt)}
}

func (s *fakeAttemptStore) GetByQuizAndStudent(ctx context.Context, quizID uuid.UUID, studentID int) (*model.QuizAttempt, error) {
	a, ok := s.attempts[attemptKey{quizID, studentID}]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return a, nil
}

func (s *fakeAttemptStore) Create(ctx context.Context, a *model.QuizAttempt) error {
	key := attemptKey{a.QuizID, a.StudentID}
	if _, exists := s.attempts[key]; exists {
		return errors.New("duplicate attempt")
	}
	a.ID = uuid.New()
	s.attempts[key] = a
	return nil
}

type fakeProgress struct {
	enrolled   bool
	recomputed []uuid.UUID
}

func (p *fakeProgress) IsEnrolled(ctx context.Context, studentID int, courseID uuid.UUID) (bool, error) {
	return p.enrolled, nil
}

func (p *fakeProgress) Recompute(ctx context.Context, studentID int, courseID uuid.UUID) (*model.Enrollment, error) {
	p.recomputed = append(p.recomputed, courseID)
	return &model.Enrollment{StudentID: studentID, CourseID: courseID}, nil
}

type fakeNotifier struct {
	sent []model.NotificationType
}

func (n *fakeNotifier) Notify(ctx context.Context, accountID int, t model.NotificationType, title, body string) {
	n.sent = append(n.sent, t)
}

type fakeCourseStore struct {
	courses map[uuid.UUID]*model.Course
}

func newFakeCourseStore() *fakeCourseStore {
	return &fakeCourseStore{courses: make(map[uuid.UUID]*model.Course)}
}

func (s *fakeCourseStore) Create(ctx context.Context, c *model.Course) error {
	c.ID = uuid.New()
	s.courses[c.ID] = c
	return nil
}

func (s *fakeCourseStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	c, ok := s.courses[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return c, nil
}

func (s *fakeCourseStore) Update(ctx context.Context, c *model.Course) error {
	s.courses[c.ID] = c
	return nil
}

func (s *fakeCourseStore) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.courses, id)
	return nil
}

func (s *fakeCourseStore) ListPublished(ctx context.Context, page, perPage int, category string) ([]model.Course, int64, error) {
	var out []model.Course
	for _, c := range s.courses {
		if c.Published {
			out = append(out, *c)
		}
	}
	return out, int64(len(out)), nil
}

func (s *fakeCourseStore) ListByInstructor(ctx context.Context, instructorID int) ([]model.Course, error) {
	var out []model.Course
	for _, c := range s.courses {
		if c.InstructorID == instructorID {
			out = append(out, *c)
		}
	}
	return out, nil
}

// ─── Fixture ────────────────────────────────────────────────────────────────

type quizFixture struct {
	svc       *QuizService
	quizzes   *fakeQuizStore
	questions *fakeQuestionStore
	attempts  *fakeAttemptStore
	progress  *fakeProgress
	notifier  *fakeNotifier
	courses   *fakeCourseStore
	courseID  uuid.UUID
	quizID    uuid.UUID
}

// newQuizFixture builds a quiz with questionCount questions whose
// correct option is always "A", owned by instructor 1.
func newQuizFixture(t *testing.T, questionCount, passingScore int) *quizFixture {
	t.Helper()

	courses := newFakeCourseStore()
	courseService := NewCourseService(courses)

	course := &model.Course{Title: "Go Basics", InstructorID: 1, Published: true}
	if err := courses.Create(context.Background(), course); err != nil {
		t.Fatalf("seed course: %v", err)
	}

	quizzes := newFakeQuizStore()
	quiz := &model.Quiz{CourseID: course.ID, Title: "Week 1", PassingScore: passingScore}
	if err := quizzes.Create(context.Background(), quiz); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}

	questions := newFakeQuestionStore()
	for i := 0; i < questionCount; i++ {
		q := &model.Question{
			QuizID:        quiz.ID,
			QuestionText:  fmt.Sprintf("Question %d", i+1),
			Options:       json.RawMessage(`["A","B","C","D"]`),
			CorrectOption: "A",
			OrderNum:      i,
		}
		if err := questions.Create(context.Background(), q); err != nil {
			t.Fatalf("seed question: %v", err)
		}
	}

	attempts := newFakeAttemptStore()
	progress := &fakeProgress{enrolled: true}
	notifier := &fakeNotifier{}

	return &quizFixture{
		svc:       NewQuizService(quizzes, questions, attempts, progress, courseService, notifier),
		quizzes:   quizzes,
		questions: questions,
		attempts:  attempts,
		progress:  progress,
		notifier:  notifier,
		courses:   courses,
		courseID:  course.ID,
		quizID:    quiz.ID,
	}
}

func (f *quizFixture) answers(correct int) map[string]string {
	answers := make(map[string]string)
	for i, q := range f.questions.questions[f.quizID] {
		if i < correct {
			answers[q.ID.String()] = "A"
		} else {
			answers[q.ID.String()] = "B"
		}
	}
	return answers
}

func submitRequest(answers map[string]string) *model.SubmitQuizRequest {
	started := time.Now().Add(-10 * time.Minute)
	return &model.SubmitQuizRequest{
		Answers:   answers,
		StartedAt: started,
		EndedAt:   started.Add(9 * time.Minute),
	}
}

// ─── Submission and grading ─────────────────────────────────────────────────

func TestSubmitGradesAnswers(t *testing.T) {
	f := newQuizFixture(t, 10, 6)

	attempt, err := f.svc.Submit(context.Background(), 42, f.quizID, submitRequest(f.answers(7)))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if attempt.Score != 7 {
		t.Fatalf("Score = %d, want 7", attempt.Score)
	}
	if len(f.progress.recomputed) != 1 || f.progress.recomputed[0] != f.courseID {
		t.Fatalf("progress recompute not triggered for course")
	}
	if len(f.notifier.sent) != 1 || f.notifier.sent[0] != model.NotificationQuizGraded {
		t.Fatalf("graded notification not sent")
	}
}

func TestSecondSubmissionRejected(t *testing.T) {
	f := newQuizFixture(t, 5, 3)
	ctx := context.Background()

	first, err := f.svc.Submit(ctx, 42, f.quizID, submitRequest(f.answers(5)))
	if err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}

	if _, err := f.svc.Submit(ctx, 42, f.quizID, submitRequest(f.answers(0))); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("second submit error = %v, want ErrAlreadySubmitted", err)
	}

	// The first attempt stays authoritative.
	stored, err := f.attempts.GetByQuizAndStudent(ctx, f.quizID, 42)
	if err != nil {
		t.Fatalf("stored attempt missing: %v", err)
	}
	if stored.Score != first.Score {
		t.Fatalf("stored score changed: %d != %d", stored.Score, first.Score)
	}
}

func TestSubmitRequiresEnrollment(t *testing.T) {
	f := newQuizFixture(t, 5, 3)
	f.progress.enrolled = false
	ctx := context.Background()

	if _, err := f.svc.Submit(ctx, 42, f.quizID, submitRequest(f.answers(5))); !errors.Is(err, ErrNotEnrolled) {
		t.Fatalf("unenrolled submit error = %v, want ErrNotEnrolled", err)
	}

	// The rejected submission leaves no trace: no stored attempt, no
	// progress recompute.
	if _, err := f.attempts.GetByQuizAndStudent(ctx, f.quizID, 42); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("attempt was persisted for an unenrolled student: %v", err)
	}
	if len(f.progress.recomputed) != 0 {
		t.Fatalf("progress recomputed for an unenrolled student")
	}

	// After enrolling, the same submission goes through instead of
	// colliding with a leftover attempt.
	f.progress.enrolled = true
	attempt, err := f.svc.Submit(ctx, 42, f.quizID, submitRequest(f.answers(5)))
	if err != nil {
		t.Fatalf("submit after enrolling failed: %v", err)
	}
	if attempt.Score != 5 {
		t.Fatalf("Score = %d, want 5", attempt.Score)
	}
}

func TestSubmitUnknownQuiz(t *testing.T) {
	f := newQuizFixture(t, 5, 3)

	_, err := f.svc.Submit(context.Background(), 42, uuid.New(), submitRequest(nil))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestSubmitEmptyQuizRejected(t *testing.T) {
	f := newQuizFixture(t, 0, 0)

	_, err := f.svc.Submit(context.Background(), 42, f.quizID, submitRequest(map[string]string{}))
	if !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("error = %v, want ErrNoQuestions", err)
	}
}

func TestGetResultBreakdown(t *testing.T) {
	f := newQuizFixture(t, 10, 7)
	ctx := context.Background()

	if _, err := f.svc.Submit(ctx, 42, f.quizID, submitRequest(f.answers(7))); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	result, err := f.svc.GetResult(ctx, 42, f.quizID)
	if err != nil {
		t.Fatalf("GetResult failed: %v", err)
	}

	if result.TotalQuestions != 10 {
		t.Fatalf("TotalQuestions = %d, want 10", result.TotalQuestions)
	}
	if result.CorrectAnswers != 7 || result.WrongAnswers != 3 {
		t.Fatalf("breakdown = %d/%d, want 7/3", result.CorrectAnswers, result.WrongAnswers)
	}
	if result.CorrectAnswers+result.WrongAnswers != result.TotalQuestions {
		t.Fatalf("correct+wrong != total")
	}
	if result.Percentage != 70 {
		t.Fatalf("Percentage = %v, want 70", result.Percentage)
	}
	if !result.Passed {
		t.Fatalf("score 7 with passing score 7 should pass")
	}
}

func TestGetResultUnansweredCountWrong(t *testing.T) {
	f := newQuizFixture(t, 4, 2)
	ctx := context.Background()

	// Answer only one question; the three unanswered ones count wrong.
	qs := f.questions.questions[f.quizID]
	answers := map[string]string{qs[0].ID.String(): "A"}

	if _, err := f.svc.Submit(ctx, 42, f.quizID, submitRequest(answers)); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	result, err := f.svc.GetResult(ctx, 42, f.quizID)
	if err != nil {
		t.Fatalf("GetResult failed: %v", err)
	}
	if result.CorrectAnswers != 1 || result.WrongAnswers != 3 {
		t.Fatalf("breakdown = %d/%d, want 1/3", result.CorrectAnswers, result.WrongAnswers)
	}
	if result.Passed {
		t.Fatalf("score 1 with passing score 2 should fail")
	}
}

func TestGetResultNoAttempt(t *testing.T) {
	f := newQuizFixture(t, 3, 2)

	if _, err := f.svc.GetResult(context.Background(), 42, f.quizID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestCheckStatus(t *testing.T) {
	f := newQuizFixture(t, 3, 2)
	ctx := context.Background()

	status, err := f.svc.CheckStatus(ctx, 42, f.quizID)
	if err != nil {
		t.Fatalf("CheckStatus failed: %v", err)
	}
	if status.Status != model.AttemptStatusNotAttempted || status.Score != nil {
		t.Fatalf("fresh status = %+v, want not_attempted with no score", status)
	}

	if _, err := f.svc.Submit(ctx, 42, f.quizID, submitRequest(f.answers(2))); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	status, err = f.svc.CheckStatus(ctx, 42, f.quizID)
	if err != nil {
		t.Fatalf("CheckStatus after submit failed: %v", err)
	}
	if status.Status != model.AttemptStatusSubmitted {
		t.Fatalf("status = %q, want submitted", status.Status)
	}
	if status.Score == nil || *status.Score != 2 {
		t.Fatalf("score = %v, want 2", status.Score)
	}
}

func TestGradeAnswersIgnoresUnknownQuestionIDs(t *testing.T) {
	q1 := model.Question{ID: uuid.New(), CorrectOption: "A"}
	q2 := model.Question{ID: uuid.New(), CorrectOption: "C"}

	answers := map[string]string{
		q1.ID.String():   "A",
		q2.ID.String():   "B",
		uuid.NewString(): "A", // not part of the quiz
	}

	if got := gradeAnswers([]model.Question{q1, q2}, answers); got != 1 {
		t.Fatalf("gradeAnswers = %d, want 1", got)
	}
}

// ─── Management authorization ───────────────────────────────────────────────

func TestQuizManagementOwnership(t *testing.T) {
	f := newQuizFixture(t, 1, 1)
	ctx := context.Background()

	owner := authz.Actor{ID: 1, Role: model.RoleInstructor}
	stranger := authz.Actor{ID: 2, Role: model.RoleInstructor}
	admin := authz.Actor{ID: 3, Role: model.RoleAdmin}

	req := &model.CreateQuizRequest{Title: "Week 2", PassingScore: 1}

	if _, err := f.svc.Create(ctx, stranger, f.courseID, req); !errors.Is(err, authz.ErrForbidden) {
		t.Fatalf("stranger create error = %v, want ErrForbidden", err)
	}
	if _, err := f.svc.Create(ctx, owner, f.courseID, req); err != nil {
		t.Fatalf("owner create failed: %v", err)
	}
	if _, err := f.svc.Create(ctx, admin, f.courseID, req); err != nil {
		t.Fatalf("admin create failed: %v", err)
	}

	if err := f.svc.Delete(ctx, stranger, f.quizID); !errors.Is(err, authz.ErrForbidden) {
		t.Fatalf("stranger delete error = %v, want ErrForbidden", err)
	}
}

func TestQuestionsForStudentStripsAnswers(t *testing.T) {
	f := newQuizFixture(t, 3, 2)

	questions, err := f.svc.QuestionsForStudent(context.Background(), f.quizID)
	if err != nil {
		t.Fatalf("QuestionsForStudent failed: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("len = %d, want 3", len(questions))
	}

	raw, err := json.Marshal(questions)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if containsCorrectOption(raw) {
		t.Fatalf("student payload leaks correct_option: %s", raw)
	}
}

func containsCorrectOption(raw []byte) bool {
	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return false
	}
	for _, entry := range entries {
		if _, ok := entry["correct_option"]; ok {
			return true
		}
	}
	return false
}
