package service

import (
	"context"
	"errors"
	"testing"

	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/courseloom/courseloom-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type enrollmentKey struct {
	studentID int
	courseID  uuid.UUID
}

type fakeEnrollmentStore struct {
	enrollments map[enrollmentKey]*model.Enrollment
	completions map[uuid.UUID]bool
	counts      repository.ProgressCounts
	nextID      int
}

func newFakeEnrollmentStore() *fakeEnrollmentStore {
	return &fakeEnrollmentStore{
		enrollments: make(map[enrollmentKey]*model.Enrollment),
		completions: make(map[uuid.UUID]bool),
	}
}

func (s *fakeEnrollmentStore) Create(ctx context.Context, e *model.Enrollment) (bool, error) {
	key := enrollmentKey{e.StudentID, e.CourseID}
	if _, exists := s.enrollments[key]; exists {
		return false, nil
	}
	s.nextID++
	e.ID = s.nextID
	s.enrollments[key] = e
	return true, nil
}

func (s *fakeEnrollmentStore) GetByStudentAndCourse(ctx context.Context, studentID int, courseID uuid.UUID) (*model.Enrollment, error) {
	e, ok := s.enrollments[enrollmentKey{studentID, courseID}]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return e, nil
}

func (s *fakeEnrollmentStore) ListByStudent(ctx context.Context, studentID int) ([]model.Enrollment, error) {
	var out []model.Enrollment
	for _, e := range s.enrollments {
		if e.StudentID == studentID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *fakeEnrollmentStore) ListByCourse(ctx context.Context, courseID uuid.UUID, page, perPage int) ([]model.Enrollment, int64, error) {
	var out []model.Enrollment
	for _, e := range s.enrollments {
		if e.CourseID == courseID {
			out = append(out, *e)
		}
	}
	return out, int64(len(out)), nil
}

func (s *fakeEnrollmentStore) UpdateProgress(ctx context.Context, studentID int, courseID uuid.UUID, progress float64, completed bool) error {
	e, ok := s.enrollments[enrollmentKey{studentID, courseID}]
	if !ok {
		return pgx.ErrNoRows
	}
	e.Progress = progress
	e.Completed = completed
	return nil
}

func (s *fakeEnrollmentStore) CompleteLesson(ctx context.Context, studentID int, lessonID uuid.UUID) (bool, error) {
	if s.completions[lessonID] {
		return false, nil
	}
	s.completions[lessonID] = true
	s.counts.CompletedLessons++
	return true, nil
}

func (s *fakeEnrollmentStore) CountProgress(ctx context.Context, studentID int, courseID uuid.UUID) (repository.ProgressCounts, error) {
	return s.counts, nil
}

type fakeLessonGetter struct {
	lessons map[uuid.UUID]*model.Lesson
}

func (g *fakeLessonGetter) GetByID(ctx context.Context, id uuid.UUID) (*model.Lesson, error) {
	l, ok := g.lessons[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return l, nil
}

type fakePaymentChecker struct {
	paid bool
}

func (c *fakePaymentChecker) HasCompletedPayment(ctx context.Context, studentID int, courseID uuid.UUID) (bool, error) {
	return c.paid, nil
}

type enrollmentFixture struct {
	svc      *EnrollmentService
	store    *fakeEnrollmentStore
	lessons  *fakeLessonGetter
	payments *fakePaymentChecker
	notifier *fakeNotifier
	courses  *fakeCourseStore
	course   *model.Course
}

func newEnrollmentFixture(t *testing.T, price float64, published bool) *enrollmentFixture {
	t.Helper()

	courses := newFakeCourseStore()
	course := &model.Course{Title: "Distributed Systems", InstructorID: 1, Price: price, Published: published}
	if err := courses.Create(context.Background(), course); err != nil {
		t.Fatalf("seed course: %v", err)
	}

	store := newFakeEnrollmentStore()
	lessons := &fakeLessonGetter{lessons: make(map[uuid.UUID]*model.Lesson)}
	payments := &fakePaymentChecker{}
	notifier := &fakeNotifier{}

	return &enrollmentFixture{
		svc:      NewEnrollmentService(store, lessons, payments, NewCourseService(courses), notifier),
		store:    store,
		lessons:  lessons,
		payments: payments,
		notifier: notifier,
		courses:  courses,
		course:   course,
	}
}

func TestEnrollFreeCourse(t *testing.T) {
	f := newEnrollmentFixture(t, 0, true)

	enrollment, err := f.svc.Enroll(context.Background(), 42, f.course.ID)
	if err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}
	if enrollment.Progress != 0 || enrollment.Completed {
		t.Fatalf("fresh enrollment = %+v, want zero progress", enrollment)
	}
	if len(f.notifier.sent) != 1 || f.notifier.sent[0] != model.NotificationEnrollment {
		t.Fatalf("enrollment notification not sent")
	}
}

func TestEnrollUnpublishedCourseHidden(t *testing.T) {
	f := newEnrollmentFixture(t, 0, false)

	if _, err := f.svc.Enroll(context.Background(), 42, f.course.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestEnrollPaidCourseRequiresPayment(t *testing.T) {
	f := newEnrollmentFixture(t, 49.99, true)
	ctx := context.Background()

	if _, err := f.svc.Enroll(ctx, 42, f.course.ID); !errors.Is(err, ErrPaymentRequired) {
		t.Fatalf("unpaid error = %v, want ErrPaymentRequired", err)
	}

	f.payments.paid = true
	if _, err := f.svc.Enroll(ctx, 42, f.course.ID); err != nil {
		t.Fatalf("paid Enroll failed: %v", err)
	}
}

func TestEnrollTwiceRejected(t *testing.T) {
	f := newEnrollmentFixture(t, 0, true)
	ctx := context.Background()

	if _, err := f.svc.Enroll(ctx, 42, f.course.ID); err != nil {
		t.Fatalf("first Enroll failed: %v", err)
	}
	if _, err := f.svc.Enroll(ctx, 42, f.course.ID); !errors.Is(err, ErrAlreadyEnrolled) {
		t.Fatalf("second Enroll error = %v, want ErrAlreadyEnrolled", err)
	}
}

func TestIsEnrolled(t *testing.T) {
	f := newEnrollmentFixture(t, 0, true)
	ctx := context.Background()

	enrolled, err := f.svc.IsEnrolled(ctx, 42, f.course.ID)
	if err != nil {
		t.Fatalf("IsEnrolled failed: %v", err)
	}
	if enrolled {
		t.Fatalf("IsEnrolled = true before enrolling")
	}

	if _, err := f.svc.Enroll(ctx, 42, f.course.ID); err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}

	enrolled, err = f.svc.IsEnrolled(ctx, 42, f.course.ID)
	if err != nil {
		t.Fatalf("IsEnrolled failed: %v", err)
	}
	if !enrolled {
		t.Fatalf("IsEnrolled = false after enrolling")
	}
}

func TestCompleteLessonNotEnrolled(t *testing.T) {
	f := newEnrollmentFixture(t, 0, true)

	lesson := &model.Lesson{ID: uuid.New(), CourseID: f.course.ID, Title: "Intro"}
	f.lessons.lessons[lesson.ID] = lesson

	if _, err := f.svc.CompleteLesson(context.Background(), 42, lesson.ID); !errors.Is(err, ErrNotEnrolled) {
		t.Fatalf("error = %v, want ErrNotEnrolled", err)
	}
}

func TestCompleteLessonUpdatesProgress(t *testing.T) {
	f := newEnrollmentFixture(t, 0, true)
	ctx := context.Background()

	if _, err := f.svc.Enroll(ctx, 42, f.course.ID); err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}

	lesson := &model.Lesson{ID: uuid.New(), CourseID: f.course.ID, Title: "Intro"}
	f.lessons.lessons[lesson.ID] = lesson

	// Course content: 3 lessons and 1 quiz, nothing done yet.
	f.store.counts = repository.ProgressCounts{TotalLessons: 3, TotalQuizzes: 1}

	enrollment, err := f.svc.CompleteLesson(ctx, 42, lesson.ID)
	if err != nil {
		t.Fatalf("CompleteLesson failed: %v", err)
	}
	if enrollment.Progress != 25 {
		t.Fatalf("Progress = %v, want 25", enrollment.Progress)
	}
	if enrollment.Completed {
		t.Fatalf("enrollment marked completed at 25%%")
	}

	// Completing the same lesson again is a no-op but still recomputes.
	again, err := f.svc.CompleteLesson(ctx, 42, lesson.ID)
	if err != nil {
		t.Fatalf("repeat CompleteLesson failed: %v", err)
	}
	if again.Progress != 25 {
		t.Fatalf("repeat Progress = %v, want 25", again.Progress)
	}
}

func TestRecomputeMarksCompletedAtFull(t *testing.T) {
	f := newEnrollmentFixture(t, 0, true)
	ctx := context.Background()

	if _, err := f.svc.Enroll(ctx, 42, f.course.ID); err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}

	f.store.counts = repository.ProgressCounts{
		TotalLessons:     2,
		TotalQuizzes:     1,
		CompletedLessons: 2,
		SubmittedQuizzes: 1,
	}

	enrollment, err := f.svc.Recompute(ctx, 42, f.course.ID)
	if err != nil {
		t.Fatalf("Recompute failed: %v", err)
	}
	if enrollment.Progress != 100 || !enrollment.Completed {
		t.Fatalf("enrollment = %+v, want 100%% completed", enrollment)
	}
}

func TestProgressPercent(t *testing.T) {
	cases := []struct {
		name   string
		counts repository.ProgressCounts
		want   float64
	}{
		{"empty course", repository.ProgressCounts{}, 0},
		{"half done", repository.ProgressCounts{TotalLessons: 2, TotalQuizzes: 2, CompletedLessons: 1, SubmittedQuizzes: 1}, 50},
		{"lessons only", repository.ProgressCounts{TotalLessons: 4, CompletedLessons: 3}, 75},
		{"all done", repository.ProgressCounts{TotalLessons: 1, TotalQuizzes: 1, CompletedLessons: 1, SubmittedQuizzes: 1}, 100},
	}

	for _, tc := range cases {
		if got := progressPercent(tc.counts); got != tc.want {
			t.Fatalf("%s: progressPercent = %v, want %v", tc.name, got, tc.want)
		}
	}
}
