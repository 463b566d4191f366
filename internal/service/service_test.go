package service

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/hongminglow/student-life-be/internal/auth"
	"github.com/hongminglow/student-life-be/internal/events"
	"github.com/hongminglow/student-life-be/internal/models"
	"github.com/hongminglow/student-life-be/internal/models/dto"
	"github.com/hongminglow/student-life-be/internal/storage"
	"github.com/hongminglow/student-life-be/internal/storage/memory"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

// txTrackingStore counts user lookups made on the outer store while a
// transaction is open or closed.
type txTrackingStore struct {
	storage.Store
	inTx           atomic.Bool
	lookupsInTx    atomic.Int32
	lookupsOutside atomic.Int32
}

func (s *txTrackingStore) Users() storage.UserStore {
	return trackingUsers{UserStore: s.Store.Users(), parent: s}
}

func (s *txTrackingStore) WithinTx(ctx context.Context, fn func(tx storage.Store) error) error {
	return s.Store.WithinTx(ctx, func(tx storage.Store) error {
		s.inTx.Store(true)
		defer s.inTx.Store(false)
		return fn(tx)
	})
}

type trackingUsers struct {
	storage.UserStore
	parent *txTrackingStore
}

func (u trackingUsers) FindByUsername(ctx context.Context, username string) (models.User, error) {
	if u.parent.inTx.Load() {
		u.parent.lookupsInTx.Add(1)
	} else {
		u.parent.lookupsOutside.Add(1)
	}
	return u.UserStore.FindByUsername(ctx, username)
}

type ServiceSuite struct {
	suite.Suite
	ctx       context.Context
	store     *memory.Store
	tokens    *auth.TokenManager
	published *recordingPublisher

	users    *UserService
	courses  *CourseService
	tasks    *TaskService
	expenses *ExpenseService

	alice auth.Principal
	bob   auth.Principal
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewStore()
	s.tokens = auth.NewTokenManager(testSecret, "test", 15*time.Minute, 7*24*time.Hour)
	s.published = &recordingPublisher{}

	s.users = NewUserService(s.store, s.tokens, s.published)
	s.courses = NewCourseService(s.store, s.published)
	s.tasks = NewTaskService(s.store, s.published)
	s.expenses = NewExpenseService(s.store, s.published)

	s.alice = s.register("alice", "pw1")
	s.bob = s.register("bob", "pw2")
}

func (s *ServiceSuite) register(name, password string) auth.Principal {
	_, err := s.users.Register(s.ctx, dto.RegisterRequest{
		Username: name, Email: name + "@example.com", Password: password, RePassword: password,
	})
	s.Require().NoError(err)
	return auth.Principal{Username: name}
}

func ptr[T any](v T) *T { return &v }

func (s *ServiceSuite) TestRegisterAndLoginScenario() {
	_, err := s.users.Register(s.ctx, dto.RegisterRequest{
		Username: "alice", Email: "alice@example.com", Password: "pw1", RePassword: "pw1",
	})
	s.ErrorIs(err, ErrDuplicateUsername)

	_, err = s.users.Register(s.ctx, dto.RegisterRequest{
		Username: "carol", Email: "carol@example.com", Password: "pw1", RePassword: "pw2",
	})
	s.ErrorIs(err, ErrPasswordMismatch)

	_, err = s.users.Login(s.ctx, dto.LoginRequest{Username: "alice", Password: "wrong"})
	s.ErrorIs(err, ErrInvalidCredentials)

	_, err = s.users.Login(s.ctx, dto.LoginRequest{Username: "nobody", Password: "pw1"})
	s.ErrorIs(err, ErrInvalidCredentials)

	login, err := s.users.Login(s.ctx, dto.LoginRequest{Username: "alice", Password: "pw1"})
	s.Require().NoError(err)
	s.NotEmpty(login.AccessToken)
	s.NotEmpty(login.RefreshToken)
	s.Equal("alice", login.User.Username)

	claims, err := s.tokens.VerifyAccess(login.AccessToken)
	s.Require().NoError(err)
	s.Equal("alice", claims.Username())
}

func (s *ServiceSuite) TestLoginChecksPasswordOutsideTransaction() {
	tracked := &txTrackingStore{Store: s.store}
	users := NewUserService(tracked, s.tokens, s.published)

	_, err := users.Login(s.ctx, dto.LoginRequest{Username: "alice", Password: "wrong"})
	s.ErrorIs(err, ErrInvalidCredentials)
	out, err := users.Login(s.ctx, dto.LoginRequest{Username: "alice", Password: "pw1"})
	s.Require().NoError(err)
	s.NotEmpty(out.RefreshToken)

	s.EqualValues(2, tracked.lookupsOutside.Load())
	s.EqualValues(0, tracked.lookupsInTx.Load())

	// The token written by the short transaction is usable.
	_, err = users.Refresh(s.ctx, out.RefreshToken)
	s.NoError(err)
}

func (s *ServiceSuite) TestLoginUnknownUserSpendsBcrypt() {
	// Warm the fixed comparison hash so both timings measure one comparison.
	auth.RejectPassword("warm-up")

	start := time.Now()
	_, err := s.users.Login(s.ctx, dto.LoginRequest{Username: "alice", Password: "wrong"})
	wrongPassword := time.Since(start)
	s.ErrorIs(err, ErrInvalidCredentials)

	start = time.Now()
	_, err = s.users.Login(s.ctx, dto.LoginRequest{Username: "nobody", Password: "wrong"})
	unknownUser := time.Since(start)
	s.ErrorIs(err, ErrInvalidCredentials)

	s.Greater(unknownUser, wrongPassword/4, "unknown usernames must not answer measurably faster")
}

func (s *ServiceSuite) TestRegisterStoresHashAndValidates() {
	stored, err := s.store.Users().FindByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.NotEqual("pw1", stored.PasswordHash)
	s.True(auth.CheckPassword("pw1", stored.PasswordHash))

	_, err = s.users.Register(s.ctx, dto.RegisterRequest{Username: "dave", Email: "not-an-email", Password: "x", RePassword: "x"})
	s.ErrorIs(err, ErrValidation)

	_, err = s.users.Register(s.ctx, dto.RegisterRequest{Username: "  ", Email: "e@example.com", Password: "x", RePassword: "x"})
	s.ErrorIs(err, ErrValidation)

	_, err = s.users.Register(s.ctx, dto.RegisterRequest{
		Username: "erin", Email: "erin@example.com", Password: "x", RePassword: "x", YearOfStudy: ptr(11),
	})
	s.ErrorIs(err, ErrValidation)
}

func (s *ServiceSuite) TestRefreshRotatesAndRevokes() {
	login, err := s.users.Login(s.ctx, dto.LoginRequest{Username: "alice", Password: "pw1"})
	s.Require().NoError(err)

	pair, err := s.users.Refresh(s.ctx, login.RefreshToken)
	s.Require().NoError(err)
	s.NotEqual(login.RefreshToken, pair.RefreshToken)

	_, err = s.users.Refresh(s.ctx, login.RefreshToken)
	s.ErrorIs(err, ErrTokenRevoked, "a used refresh token cannot be replayed")

	_, err = s.users.Refresh(s.ctx, pair.AccessToken)
	s.ErrorIs(err, auth.ErrWrongTokenType)

	s.Require().NoError(s.users.Logout(s.ctx, pair.RefreshToken))
	s.Require().NoError(s.users.Logout(s.ctx, pair.RefreshToken))
	_, err = s.users.Refresh(s.ctx, pair.RefreshToken)
	s.ErrorIs(err, ErrTokenRevoked)

	_, err = s.users.Refresh(s.ctx, "garbage")
	s.ErrorIs(err, auth.ErrMalformedToken)
}

func (s *ServiceSuite) TestRefreshExpired() {
	past := time.Now().Add(-8 * 24 * time.Hour)
	oldTokens := auth.NewTokenManager(testSecret, "test", 15*time.Minute, 7*24*time.Hour,
		auth.WithClock(func() time.Time { return past }))
	stale, err := oldTokens.IssueRefreshToken("alice")
	s.Require().NoError(err)

	_, err = s.users.Refresh(s.ctx, stale.Value)
	s.ErrorIs(err, auth.ErrTokenExpired)
}

func (s *ServiceSuite) TestUpdateProfileIsPartial() {
	updated, err := s.users.UpdateProfile(s.ctx, s.alice, dto.UpdateProfileRequest{Major: ptr("Physics"), YearOfStudy: ptr(2)})
	s.Require().NoError(err)
	s.Equal("Physics", updated.Major)
	s.Equal("alice@example.com", updated.Email)
	s.Equal(2, *updated.YearOfStudy)

	me, err := s.users.Me(s.ctx, s.alice)
	s.Require().NoError(err)
	s.Equal("Physics", me.Major)

	_, err = s.users.UpdateProfile(s.ctx, s.alice, dto.UpdateProfileRequest{YearOfStudy: ptr(0)})
	s.ErrorIs(err, ErrValidation)
}

func (s *ServiceSuite) TestCourseOwnership() {
	course, err := s.courses.Create(s.ctx, s.alice, dto.CreateCourseRequest{Name: "Algorithms", Room: "A-101"})
	s.Require().NoError(err)
	s.Equal("alice", course.CreatedBy)

	_, err = s.courses.Update(s.ctx, s.bob, course.ID, dto.UpdateCourseRequest{Room: ptr("Z")})
	s.ErrorIs(err, ErrForbidden)
	s.ErrorIs(s.courses.Delete(s.ctx, s.bob, course.ID), ErrForbidden)

	_, err = s.courses.Update(s.ctx, s.alice, "missing", dto.UpdateCourseRequest{Room: ptr("Z")})
	s.ErrorIs(err, ErrNotFound)

	updated, err := s.courses.Update(s.ctx, s.alice, course.ID, dto.UpdateCourseRequest{Room: ptr("B-204")})
	s.Require().NoError(err)
	s.Equal("B-204", updated.Room)
	s.Equal("Algorithms", updated.Name)
	s.Equal(course.CreatedDate, updated.CreatedDate)

	bobs, err := s.courses.ListMine(s.ctx, s.bob)
	s.Require().NoError(err)
	s.Empty(bobs)
}

func (s *ServiceSuite) TestCourseValidation() {
	_, err := s.courses.Create(s.ctx, s.alice, dto.CreateCourseRequest{Name: "  "})
	s.ErrorIs(err, ErrValidation)

	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)
	_, err = s.courses.Create(s.ctx, s.alice, dto.CreateCourseRequest{Name: "X", TimeStudy: &start, TimeStudyEnd: &end})
	s.ErrorIs(err, ErrValidation)
}

func (s *ServiceSuite) TestDeleteCourseCascadesTasks() {
	course, err := s.courses.Create(s.ctx, s.alice, dto.CreateCourseRequest{Name: "Algorithms"})
	s.Require().NoError(err)
	task, err := s.tasks.Create(s.ctx, s.alice, dto.CreateTaskRequest{Title: "Homework", CourseID: course.ID})
	s.Require().NoError(err)
	s.Equal(models.TaskTodo, task.Status)

	s.Require().NoError(s.courses.Delete(s.ctx, s.alice, course.ID))

	_, err = s.tasks.Update(s.ctx, s.alice, task.ID, dto.UpdateTaskRequest{Title: ptr("x")})
	s.ErrorIs(err, ErrNotFound)
	s.ErrorIs(s.courses.Delete(s.ctx, s.alice, course.ID), ErrNotFound)
}

func (s *ServiceSuite) TestExactDeadlineFilterEchoesCreatedValue() {
	course, err := s.courses.Create(s.ctx, s.alice, dto.CreateCourseRequest{Name: "Physics"})
	s.Require().NoError(err)
	deadline := time.Date(2025, 5, 2, 17, 30, 0, 987654321, time.UTC)

	task, err := s.tasks.Create(s.ctx, s.alice, dto.CreateTaskRequest{Title: "Lab", CourseID: course.ID, Deadline: &deadline})
	s.Require().NoError(err)
	s.Require().NotNil(task.Deadline)
	s.Equal(deadline.Truncate(time.Microsecond), *task.Deadline)
	s.Zero(task.CreatedDate.Nanosecond() % 1000)

	for _, want := range []time.Time{deadline, *task.Deadline} {
		page, err := s.tasks.Search(s.ctx, s.alice, dto.SearchTaskRequest{PageSize: 10, Deadline: &want})
		s.Require().NoError(err)
		s.EqualValues(1, page.TotalElements, "deadline %s", want)
	}
}

func (s *ServiceSuite) TestTaskOwnershipThroughCourse() {
	bobsCourse, err := s.courses.Create(s.ctx, s.bob, dto.CreateCourseRequest{Name: "Chemistry"})
	s.Require().NoError(err)

	_, err = s.tasks.Create(s.ctx, s.alice, dto.CreateTaskRequest{Title: "Sneaky", CourseID: bobsCourse.ID})
	s.ErrorIs(err, ErrForbidden)

	_, err = s.tasks.Create(s.ctx, s.alice, dto.CreateTaskRequest{Title: "Lost", CourseID: "missing"})
	s.ErrorIs(err, ErrNotFound)

	task, err := s.tasks.Create(s.ctx, s.bob, dto.CreateTaskRequest{Title: "Lab report", CourseID: bobsCourse.ID, Priority: "high"})
	s.Require().NoError(err)
	s.Equal(models.PriorityHigh, task.Priority)

	_, err = s.tasks.Update(s.ctx, s.alice, task.ID, dto.UpdateTaskRequest{Status: ptr("DONE")})
	s.ErrorIs(err, ErrForbidden)
	s.ErrorIs(s.tasks.Delete(s.ctx, s.alice, task.ID), ErrForbidden)

	page, err := s.tasks.Search(s.ctx, s.alice, dto.SearchTaskRequest{PageSize: 10})
	s.Require().NoError(err)
	s.Empty(page.Items)

	updated, err := s.tasks.Update(s.ctx, s.bob, task.ID, dto.UpdateTaskRequest{Status: ptr("DONE")})
	s.Require().NoError(err)
	s.Equal(models.TaskDone, updated.Status)
	s.Equal("Lab report", updated.Title)
	s.Equal(bobsCourse.ID, updated.CourseID)
}

func (s *ServiceSuite) TestExpenseSearchScenario() {
	date := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	created, err := s.expenses.Create(s.ctx, s.alice, dto.CreateExpenseRequest{
		Amount: ptr(decimal.RequireFromString("12.50")), Category: "FOOD", ExpenseDate: &date,
	})
	s.Require().NoError(err)
	s.Equal("12.50", created.Amount.String())

	hit, err := s.expenses.Search(s.ctx, s.alice, dto.SearchExpenseRequest{PageSize: 10, MinAmount: ptr(decimal.NewFromInt(10))})
	s.Require().NoError(err)
	s.Require().Len(hit.Items, 1)
	s.Equal(created.ID, hit.Items[0].ID)

	miss, err := s.expenses.Search(s.ctx, s.alice, dto.SearchExpenseRequest{PageSize: 10, MinAmount: ptr(decimal.NewFromInt(20))})
	s.Require().NoError(err)
	s.Empty(miss.Items)
	s.EqualValues(0, miss.TotalElements)

	exact, err := s.expenses.Search(s.ctx, s.alice, dto.SearchExpenseRequest{
		PageSize: 10, MinAmount: ptr(decimal.RequireFromString("12.5")), MaxAmount: ptr(decimal.RequireFromString("12.50")),
	})
	s.Require().NoError(err)
	s.Len(exact.Items, 1, "amount bounds are inclusive")

	others, err := s.expenses.Search(s.ctx, s.bob, dto.SearchExpenseRequest{PageSize: 10})
	s.Require().NoError(err)
	s.Empty(others.Items)
}

func (s *ServiceSuite) TestExpenseOwnershipAndPartialUpdate() {
	date := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	created, err := s.expenses.Create(s.ctx, s.alice, dto.CreateExpenseRequest{
		Amount: ptr(decimal.RequireFromString("8")), Category: "TRANSPORT", Description: "bus", ExpenseDate: &date,
	})
	s.Require().NoError(err)

	_, err = s.expenses.Update(s.ctx, s.bob, created.ID, dto.UpdateExpenseRequest{Description: ptr("mine now")})
	s.ErrorIs(err, ErrForbidden)
	s.ErrorIs(s.expenses.Delete(s.ctx, s.bob, created.ID), ErrForbidden)

	updated, err := s.expenses.Update(s.ctx, s.alice, created.ID, dto.UpdateExpenseRequest{Amount: ptr(decimal.RequireFromString("9.25"))})
	s.Require().NoError(err)
	s.Equal("9.25", updated.Amount.String())
	s.Equal("bus", updated.Description)
	s.Equal(models.CategoryTransport, updated.Category)

	_, err = s.expenses.Update(s.ctx, s.alice, created.ID, dto.UpdateExpenseRequest{Amount: ptr(decimal.NewFromInt(-1))})
	s.ErrorIs(err, ErrValidation)

	s.Require().NoError(s.expenses.Delete(s.ctx, s.alice, created.ID))
	s.ErrorIs(s.expenses.Delete(s.ctx, s.alice, created.ID), ErrNotFound)
}

func (s *ServiceSuite) TestExpenseSummary() {
	for _, in := range []struct {
		amount, category string
		day              int
		month            time.Month
	}{
		{"10.00", "FOOD", 1, time.March},
		{"2.50", "FOOD", 31, time.March},
		{"40", "STUDY", 15, time.March},
		{"99", "FOOD", 1, time.April},
	} {
		date := time.Date(2025, in.month, in.day, 12, 0, 0, 0, time.UTC)
		_, err := s.expenses.Create(s.ctx, s.alice, dto.CreateExpenseRequest{
			Amount: ptr(decimal.RequireFromString(in.amount)), Category: in.category, ExpenseDate: &date,
		})
		s.Require().NoError(err)
	}

	summary, err := s.expenses.Summary(s.ctx, s.alice, 2025, 3)
	s.Require().NoError(err)
	s.Equal("52.50", summary.Total.String())
	s.Require().Len(summary.ByCategory, 2)
	s.Equal(models.CategoryFood, summary.ByCategory[0].Category)
	s.Equal("12.50", summary.ByCategory[0].Total.String())
	s.Equal(2, summary.ByCategory[0].Count)

	_, err = s.expenses.Summary(s.ctx, s.alice, 2025, 13)
	s.ErrorIs(err, ErrValidation)
}

func (s *ServiceSuite) TestSearchRejectsBadPaging() {
	_, err := s.courses.Search(s.ctx, s.alice, dto.SearchCourseRequest{PageSize: 0})
	s.ErrorIs(err, ErrValidation)
	_, err = s.tasks.Search(s.ctx, s.alice, dto.SearchTaskRequest{PageIndex: -1, PageSize: 5})
	s.ErrorIs(err, ErrValidation)
	_, err = s.expenses.Search(s.ctx, s.alice, dto.SearchExpenseRequest{PageSize: models.MaxPageSize + 1})
	s.ErrorIs(err, ErrValidation)

	_, err = s.expenses.Create(s.ctx, s.alice, dto.CreateExpenseRequest{
		Amount:      ptr(decimal.RequireFromString("5")),
		ExpenseDate: ptr(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)),
	})
	s.Require().NoError(err)
	_, err = s.expenses.Search(s.ctx, s.alice, dto.SearchExpenseRequest{PageIndex: math.MaxInt64 / 2, PageSize: 4})
	s.ErrorIs(err, ErrValidation)
	_, err = s.courses.Search(s.ctx, s.alice, dto.SearchCourseRequest{PageIndex: models.MaxPageIndex + 1, PageSize: 1})
	s.ErrorIs(err, ErrValidation)

	page, err := s.expenses.Search(s.ctx, s.alice, dto.SearchExpenseRequest{PageIndex: models.MaxPageIndex, PageSize: models.MaxPageSize})
	s.Require().NoError(err)
	s.Empty(page.Items)
	s.EqualValues(1, page.TotalElements)
}

func (s *ServiceSuite) TestUnsetFilterNeverExcludes() {
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	course, err := s.courses.Create(s.ctx, s.alice, dto.CreateCourseRequest{
		Name: "Linear Algebra", Description: "MATH-210", Room: "C-3", DayOfWeek: "TUESDAY",
		TimeStudy: &start, TimeStudyEnd: &end, Color: "blue",
	})
	s.Require().NoError(err)

	full := dto.SearchCourseRequest{
		PageSize: 10, Name: ptr("algebra"), Description: ptr("math"), Room: ptr("c-3"),
		DayOfWeek: ptr("tues"), Color: ptr("BLUE"), TimeStudy: &start, TimeStudyEnd: &end,
	}
	fields := []func(*dto.SearchCourseRequest){
		func(r *dto.SearchCourseRequest) { r.Name = nil },
		func(r *dto.SearchCourseRequest) { r.Description = nil },
		func(r *dto.SearchCourseRequest) { r.Room = nil },
		func(r *dto.SearchCourseRequest) { r.DayOfWeek = nil },
		func(r *dto.SearchCourseRequest) { r.Color = nil },
		func(r *dto.SearchCourseRequest) { r.TimeStudy = nil },
		func(r *dto.SearchCourseRequest) { r.TimeStudyEnd = nil },
	}
	for mask := 0; mask < 1<<len(fields); mask++ {
		req := full
		for i, clear := range fields {
			if mask&(1<<i) != 0 {
				clear(&req)
			}
		}
		page, err := s.courses.Search(s.ctx, s.alice, req)
		s.Require().NoError(err)
		s.Require().Len(page.Items, 1, "mask %b", mask)
		s.Equal(course.ID, page.Items[0].ID)
	}
}

func (s *ServiceSuite) TestEventsPublishedAfterCommit() {
	course, err := s.courses.Create(s.ctx, s.alice, dto.CreateCourseRequest{Name: "Algorithms"})
	s.Require().NoError(err)
	_, err = s.courses.Update(s.ctx, s.bob, course.ID, dto.UpdateCourseRequest{Name: ptr("x")})
	s.Require().Error(err)
	s.Require().NoError(s.courses.Delete(s.ctx, s.alice, course.ID))

	s.Equal([]string{
		events.UserRegistered, events.UserRegistered,
		events.CourseCreated, events.CourseDeleted,
	}, s.published.types())
}
