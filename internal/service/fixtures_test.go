package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/college-ledger-api/internal/models"
	"github.com/noah-isme/college-ledger-api/internal/repository"
)

func intPtr(v int) *int { return &v }

// memoryCatalogRepo is an in-memory catalogRepository. List methods return rows in
// map order so callers must sort.
type memoryCatalogRepo struct {
	streams   []models.Stream
	courses   map[string]models.Course
	years     map[string]models.AcademicYear
	semesters map[string]models.Semester
	subjects  map[string]models.Subject
	fees      map[string]int64
	calls     map[string]int
}

func newMemoryCatalogRepo() *memoryCatalogRepo {
	return &memoryCatalogRepo{
		courses:   map[string]models.Course{},
		years:     map[string]models.AcademicYear{},
		semesters: map[string]models.Semester{},
		subjects:  map[string]models.Subject{},
		fees:      map[string]int64{},
		calls:     map[string]int{},
	}
}

func feeKey(courseID, category string) string {
	return courseID + "|" + strings.ToLower(category)
}

func (r *memoryCatalogRepo) addCourse(streamID, id string) {
	r.courses[id] = models.Course{ID: id, StreamID: streamID, Code: strings.ToUpper(id), Name: id}
}

func (r *memoryCatalogRepo) addYear(courseID, id, name string, semesterNames ...string) {
	r.years[id] = models.AcademicYear{ID: id, CourseID: courseID, Name: name}
	for i, semName := range semesterNames {
		semID := fmt.Sprintf("%s-s%d", id, i+1)
		r.semesters[semID] = models.Semester{ID: semID, AcademicYearID: id, Name: semName}
	}
}

func (r *memoryCatalogRepo) ListStreams(ctx context.Context) ([]models.Stream, error) {
	r.calls["ListStreams"]++
	return r.streams, nil
}

func (r *memoryCatalogRepo) CoursesByStream(ctx context.Context, streamID string) ([]models.Course, error) {
	var result []models.Course
	for _, course := range r.courses {
		if course.StreamID == streamID {
			result = append(result, course)
		}
	}
	return result, nil
}

func (r *memoryCatalogRepo) FindCourse(ctx context.Context, id string) (*models.Course, error) {
	course, ok := r.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &course, nil
}

func (r *memoryCatalogRepo) AcademicYearsByCourse(ctx context.Context, courseID string) ([]models.AcademicYear, error) {
	r.calls["AcademicYearsByCourse"]++
	var result []models.AcademicYear
	for _, year := range r.years {
		if year.CourseID == courseID {
			result = append(result, year)
		}
	}
	return result, nil
}

func (r *memoryCatalogRepo) FindAcademicYear(ctx context.Context, id string) (*models.AcademicYear, error) {
	year, ok := r.years[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &year, nil
}

func (r *memoryCatalogRepo) SemestersByAcademicYear(ctx context.Context, academicYearID string) ([]models.Semester, error) {
	r.calls["SemestersByAcademicYear"]++
	var result []models.Semester
	for _, sem := range r.semesters {
		if sem.AcademicYearID == academicYearID {
			result = append(result, sem)
		}
	}
	return result, nil
}

func (r *memoryCatalogRepo) FindSemester(ctx context.Context, id string) (*models.Semester, error) {
	sem, ok := r.semesters[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &sem, nil
}

func (r *memoryCatalogRepo) SubjectsBySemester(ctx context.Context, semesterID string) ([]models.Subject, error) {
	var result []models.Subject
	for _, subject := range r.subjects {
		if subject.SemesterID == semesterID {
			result = append(result, subject)
		}
	}
	return result, nil
}

func (r *memoryCatalogRepo) SubjectsByAcademicYear(ctx context.Context, academicYearID string) ([]models.Subject, error) {
	var result []models.Subject
	for _, subject := range r.subjects {
		if r.semesters[subject.SemesterID].AcademicYearID == academicYearID {
			result = append(result, subject)
		}
	}
	return result, nil
}

func (r *memoryCatalogRepo) FeeAmount(ctx context.Context, courseID, categoryName string) (*models.FeeAmount, error) {
	amount, ok := r.fees[feeKey(courseID, categoryName)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.FeeAmount{CourseID: courseID, CategoryName: categoryName, Amount: amount}, nil
}

// collegeCatalog builds a two-year BSc (two semesters each) and a one-year BCom.
func collegeCatalog() *memoryCatalogRepo {
	repo := newMemoryCatalogRepo()
	repo.streams = []models.Stream{{ID: "science", Name: "Science"}, {ID: "commerce", Name: "Commerce"}}
	repo.addCourse("science", "bsc")
	repo.addYear("bsc", "bsc-y2", "Second Year", "Semester 1", "Semester 2")
	repo.addYear("bsc", "bsc-y1", "First Year", "Semester 1", "Semester 2")
	repo.addCourse("commerce", "bcom")
	repo.addYear("bcom", "bcom-y1", "First Year", "Semester 1")
	repo.fees[feeKey("bsc", "Open")] = 100000
	repo.fees[feeKey("bsc", "SC")] = 30000
	repo.fees[feeKey("bcom", "Open")] = 80000
	repo.subjects["math"] = models.Subject{ID: "math", SemesterID: "bsc-y1-s1", Code: "MTH101", Name: "Mathematics", IsCompulsory: true}
	repo.subjects["physics"] = models.Subject{ID: "physics", SemesterID: "bsc-y1-s1", Code: "PHY101", Name: "Physics"}
	repo.subjects["art"] = models.Subject{ID: "art", SemesterID: "bsc-y1-s2", Code: "ART101", Name: "Art"}
	return repo
}

// memoryEnrollmentStore runs each unit of work on a copy of its rows and only
// publishes the copy on success. Inserts enforce the one-active-row constraints the
// database enforces with partial unique indexes.
type memoryEnrollmentStore struct {
	mu        sync.Mutex
	years     map[string]models.AcademicYearEnrollment
	semesters map[string]models.SemesterEnrollment
	subjects  map[string][]models.RegistrationSubject
	seq       int
	failOn    string
	failErr   error
}

func newMemoryEnrollmentStore() *memoryEnrollmentStore {
	return &memoryEnrollmentStore{
		years:     map[string]models.AcademicYearEnrollment{},
		semesters: map[string]models.SemesterEnrollment{},
		subjects:  map[string][]models.RegistrationSubject{},
	}
}

var fixtureEpoch = time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

// seedActive admits a student directly into a semester, bypassing the engine.
func (s *memoryEnrollmentStore) seedActive(studentID, courseID, yearName, semesterID string, status models.PromotionStatus, totalFee int64, scholarshipName string, scholarship int64) (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	year := models.AcademicYearEnrollment{
		ID:                  fmt.Sprintf("aye-%d", s.seq),
		StudentID:           studentID,
		CourseID:            courseID,
		AcademicYearName:    yearName,
		AcademicYearSession: "2024-2025",
		Status:              models.AcademicYearStatusActive,
		CreatedAt:           fixtureEpoch.Add(time.Duration(s.seq) * time.Second),
	}
	year.SetFees(totalFee, scholarshipName, scholarship)
	s.years[year.ID] = year
	s.seq++
	sem := models.SemesterEnrollment{
		ID:                       fmt.Sprintf("se-%d", s.seq),
		StudentID:                studentID,
		SemesterID:               semesterID,
		AcademicYearEnrollmentID: year.ID,
		Status:                   models.SemesterStatusActive,
		PromotionStatus:          status,
		CreatedAt:                fixtureEpoch.Add(time.Duration(s.seq) * time.Second),
	}
	s.semesters[sem.ID] = sem
	return year.ID, sem.ID
}

func (s *memoryEnrollmentStore) year(id string) models.AcademicYearEnrollment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.years[id]
}

func (s *memoryEnrollmentStore) semester(id string) models.SemesterEnrollment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.semesters[id]
}

func (s *memoryEnrollmentStore) rowCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.years) + len(s.semesters)
}

func (s *memoryEnrollmentStore) RunInTx(ctx context.Context, fn func(tx repository.EnrollmentTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &memoryTx{
		store:     s,
		years:     make(map[string]models.AcademicYearEnrollment, len(s.years)),
		semesters: make(map[string]models.SemesterEnrollment, len(s.semesters)),
		subjects:  make(map[string][]models.RegistrationSubject, len(s.subjects)),
		seq:       s.seq,
	}
	for k, v := range s.years {
		tx.years[k] = v
	}
	for k, v := range s.semesters {
		tx.semesters[k] = v
	}
	for k, v := range s.subjects {
		tx.subjects[k] = v
	}
	if err := fn(tx); err != nil {
		return err
	}
	s.years, s.semesters, s.subjects, s.seq = tx.years, tx.semesters, tx.subjects, tx.seq
	return nil
}

func (s *memoryEnrollmentStore) FindActive(ctx context.Context, studentID string) (*models.CurrentEnrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return activeIn(s.years, s.semesters, studentID)
}

func (s *memoryEnrollmentStore) FindAcademicYearEnrollment(ctx context.Context, id string) (*models.AcademicYearEnrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	year, ok := s.years[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &year, nil
}

func (s *memoryEnrollmentStore) ListAcademicYearEnrollments(ctx context.Context, studentID string) ([]models.AcademicYearEnrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.AcademicYearEnrollment
	for _, year := range s.years {
		if year.StudentID == studentID {
			result = append(result, year)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *memoryEnrollmentStore) History(ctx context.Context, studentID string) ([]models.AcademicYearHistory, error) {
	years, _ := s.ListAcademicYearEnrollments(ctx, studentID)
	s.mu.Lock()
	defer s.mu.Unlock()
	history := make([]models.AcademicYearHistory, 0, len(years))
	for _, year := range years {
		entry := models.AcademicYearHistory{AcademicYearEnrollment: year, Semesters: []models.SemesterEnrollment{}}
		for _, sem := range s.semesters {
			if sem.AcademicYearEnrollmentID == year.ID {
				entry.Semesters = append(entry.Semesters, sem)
			}
		}
		sort.Slice(entry.Semesters, func(i, j int) bool { return entry.Semesters[i].CreatedAt.Before(entry.Semesters[j].CreatedAt) })
		history = append(history, entry)
	}
	return history, nil
}

func (s *memoryEnrollmentStore) RegistrationSubjects(ctx context.Context, yearEnrollmentID string) ([]models.RegistrationSubject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subjects[yearEnrollmentID], nil
}

func activeIn(years map[string]models.AcademicYearEnrollment, semesters map[string]models.SemesterEnrollment, studentID string) (*models.CurrentEnrollment, error) {
	for _, year := range years {
		if year.StudentID != studentID || year.Status != models.AcademicYearStatusActive {
			continue
		}
		for _, sem := range semesters {
			if sem.AcademicYearEnrollmentID == year.ID && sem.Status == models.SemesterStatusActive {
				return &models.CurrentEnrollment{AcademicYear: year, Semester: sem}, nil
			}
		}
	}
	return nil, sql.ErrNoRows
}

type memoryTx struct {
	store     *memoryEnrollmentStore
	years     map[string]models.AcademicYearEnrollment
	semesters map[string]models.SemesterEnrollment
	subjects  map[string][]models.RegistrationSubject
	seq       int
}

func (t *memoryTx) fail(op string) error {
	if t.store.failOn == op {
		return t.store.failErr
	}
	return nil
}

func (t *memoryTx) now() time.Time {
	return fixtureEpoch.Add(time.Duration(t.seq) * time.Second)
}

func (t *memoryTx) LockStudent(ctx context.Context, studentID string) error {
	return t.fail("LockStudent")
}

func (t *memoryTx) ActiveEnrollment(ctx context.Context, studentID string) (*models.CurrentEnrollment, error) {
	if err := t.fail("ActiveEnrollment"); err != nil {
		return nil, err
	}
	return activeIn(t.years, t.semesters, studentID)
}

func (t *memoryTx) LockAcademicYearEnrollment(ctx context.Context, id string) (*models.AcademicYearEnrollment, error) {
	if err := t.fail("LockAcademicYearEnrollment"); err != nil {
		return nil, err
	}
	year, ok := t.years[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &year, nil
}

func (t *memoryTx) InsertAcademicYearEnrollment(ctx context.Context, enrollment *models.AcademicYearEnrollment) error {
	if err := t.fail("InsertAcademicYearEnrollment"); err != nil {
		return err
	}
	for _, year := range t.years {
		if year.StudentID == enrollment.StudentID && year.Status == models.AcademicYearStatusActive && enrollment.Status == models.AcademicYearStatusActive {
			return errors.New("duplicate key value violates unique constraint \"academic_year_enrollments_one_active\"")
		}
	}
	t.seq++
	enrollment.ID = fmt.Sprintf("aye-%d", t.seq)
	enrollment.CreatedAt = t.now()
	enrollment.UpdatedAt = enrollment.CreatedAt
	t.years[enrollment.ID] = *enrollment
	return nil
}

func (t *memoryTx) UpdateAcademicYearStatus(ctx context.Context, id string, status models.AcademicYearStatus) error {
	if err := t.fail("UpdateAcademicYearStatus"); err != nil {
		return err
	}
	year, ok := t.years[id]
	if !ok {
		return sql.ErrNoRows
	}
	year.Status = status
	t.years[id] = year
	return nil
}

func (t *memoryTx) InsertSemesterEnrollment(ctx context.Context, enrollment *models.SemesterEnrollment) error {
	if err := t.fail("InsertSemesterEnrollment"); err != nil {
		return err
	}
	for _, sem := range t.semesters {
		if sem.AcademicYearEnrollmentID == enrollment.AcademicYearEnrollmentID && sem.Status == models.SemesterStatusActive {
			return errors.New("duplicate key value violates unique constraint \"semester_enrollments_one_active\"")
		}
	}
	t.seq++
	enrollment.ID = fmt.Sprintf("se-%d", t.seq)
	enrollment.CreatedAt = t.now()
	enrollment.UpdatedAt = enrollment.CreatedAt
	t.semesters[enrollment.ID] = *enrollment
	return nil
}

func (t *memoryTx) UpdateSemesterEnrollment(ctx context.Context, id string, status models.SemesterStatus, promotion models.PromotionStatus) error {
	if err := t.fail("UpdateSemesterEnrollment"); err != nil {
		return err
	}
	sem, ok := t.semesters[id]
	if !ok {
		return sql.ErrNoRows
	}
	sem.Status = status
	sem.PromotionStatus = promotion
	t.semesters[id] = sem
	return nil
}

func (t *memoryTx) UpdateRegistration(ctx context.Context, update models.RegistrationUpdate) error {
	if err := t.fail("UpdateRegistration"); err != nil {
		return err
	}
	year, ok := t.years[update.AcademicYearEnrollmentID]
	if !ok || year.IsRegistered {
		return sql.ErrNoRows
	}
	plan := update.PaymentPlan
	registeredAt := update.RegisteredAt
	year.IsRegistered = true
	year.PaymentPlan = &plan
	year.UndertakingRef = update.UndertakingRef
	year.RegisteredAt = &registeredAt
	year.SetFees(year.TotalFee, update.ScholarshipName, update.ScholarshipAmount)
	t.years[year.ID] = year
	t.subjects[year.ID] = append([]models.RegistrationSubject(nil), update.Subjects...)
	return nil
}

// requireEnrollmentInvariants checks that a student has at most one active year,
// exactly one active semester under it, and that every fee row reconciles.
func requireEnrollmentInvariants(t *testing.T, store *memoryEnrollmentStore, studentID string) {
	t.Helper()
	store.mu.Lock()
	defer store.mu.Unlock()
	activeYears := 0
	for _, year := range store.years {
		require.True(t, year.FeesReconcile(), "fees of %s do not reconcile", year.ID)
		if year.StudentID != studentID || year.Status != models.AcademicYearStatusActive {
			continue
		}
		activeYears++
		activeSemesters := 0
		for _, sem := range store.semesters {
			if sem.AcademicYearEnrollmentID == year.ID && sem.Status == models.SemesterStatusActive {
				activeSemesters++
			}
		}
		require.Equal(t, 1, activeSemesters, "active semesters under %s", year.ID)
	}
	require.LessOrEqual(t, activeYears, 1)
}

type recordedEvent struct {
	Type    string
	Payload interface{}
}

type eventRecorder struct {
	events []recordedEvent
	err    error
}

func (r *eventRecorder) Publish(ctx context.Context, eventType string, payload interface{}) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, recordedEvent{Type: eventType, Payload: payload})
	return nil
}
