package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/hongminglow/student-life-be/internal/models"
	"github.com/hongminglow/student-life-be/internal/storage"
)

type userRepo struct{ s *Store }

func (r userRepo) CreateUser(_ context.Context, u models.User) (models.User, error) {
	err := r.s.write(func(st *state) error {
		if _, ok := st.users[u.ID]; ok {
			return storage.ErrAlreadyExists
		}
		for _, existing := range st.users {
			if existing.Username == u.Username {
				return storage.ErrAlreadyExists
			}
		}
		st.users[u.ID] = u
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (r userRepo) UpdateUser(_ context.Context, u models.User) (models.User, error) {
	var out models.User
	err := r.s.write(func(st *state) error {
		cur, ok := st.users[u.ID]
		if !ok {
			return storage.ErrNotFound
		}
		cur.Email = u.Email
		cur.University = u.University
		cur.Major = u.Major
		cur.YearOfStudy = u.YearOfStudy
		cur.LastModifiedBy = u.LastModifiedBy
		cur.LastModifiedDate = u.LastModifiedDate
		st.users[u.ID] = cur
		out = cur
		return nil
	})
	return out, err
}

func (r userRepo) FindByID(_ context.Context, id string) (models.User, error) {
	var (
		u  models.User
		ok bool
	)
	r.s.read(func(st *state) { u, ok = st.users[id] })
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (r userRepo) FindByUsername(_ context.Context, username string) (models.User, error) {
	var (
		u  models.User
		ok bool
	)
	r.s.read(func(st *state) {
		for _, candidate := range st.users {
			if candidate.Username == username {
				u, ok = candidate, true
				return
			}
		}
	})
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return u, nil
}

type courseRepo struct{ s *Store }

func (r courseRepo) CreateCourse(_ context.Context, c models.Course) (models.Course, error) {
	err := r.s.write(func(st *state) error {
		if _, ok := st.users[c.UserID]; !ok {
			return storage.ErrNotFound
		}
		if _, ok := st.courses[c.ID]; ok {
			return storage.ErrAlreadyExists
		}
		st.courses[c.ID] = c
		return nil
	})
	if err != nil {
		return models.Course{}, err
	}
	return c, nil
}

func (r courseRepo) UpdateCourse(_ context.Context, c models.Course) (models.Course, error) {
	err := r.s.write(func(st *state) error {
		cur, ok := st.courses[c.ID]
		if !ok {
			return storage.ErrNotFound
		}
		c.UserID = cur.UserID
		c.CreatedBy, c.CreatedDate = cur.CreatedBy, cur.CreatedDate
		st.courses[c.ID] = c
		return nil
	})
	if err != nil {
		return models.Course{}, err
	}
	return c, nil
}

func (r courseRepo) DeleteCourse(_ context.Context, id string) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.courses[id]; !ok {
			return storage.ErrNotFound
		}
		delete(st.courses, id)
		for tid, t := range st.tasks {
			if t.CourseID == id {
				delete(st.tasks, tid)
			}
		}
		return nil
	})
}

func (r courseRepo) FindCourse(_ context.Context, id string) (models.Course, error) {
	var (
		c  models.Course
		ok bool
	)
	r.s.read(func(st *state) { c, ok = st.courses[id] })
	if !ok {
		return models.Course{}, storage.ErrNotFound
	}
	return c, nil
}

func (r courseRepo) ListCoursesByUser(_ context.Context, userID string) ([]models.Course, error) {
	out := []models.Course{}
	r.s.read(func(st *state) {
		for _, c := range st.courses {
			if c.UserID == userID {
				out = append(out, c)
			}
		}
	})
	slices.SortFunc(out, func(a, b models.Course) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r courseRepo) SearchCourses(_ context.Context, f models.CourseFilter, page models.PageRequest) (models.Page[models.Course], error) {
	var hits []models.Course
	r.s.read(func(st *state) {
		for _, c := range st.courses {
			if f.Match(c) {
				hits = append(hits, c)
			}
		}
	})
	slices.SortFunc(hits, func(a, b models.Course) int { return cmp.Compare(a.ID, b.ID) })
	return models.Paginate(hits, page), nil
}

type taskRepo struct{ s *Store }

func (r taskRepo) CreateTask(_ context.Context, t models.Task) (models.Task, error) {
	err := r.s.write(func(st *state) error {
		if _, ok := st.courses[t.CourseID]; !ok {
			return storage.ErrNotFound
		}
		if _, ok := st.tasks[t.ID]; ok {
			return storage.ErrAlreadyExists
		}
		st.tasks[t.ID] = t
		return nil
	})
	if err != nil {
		return models.Task{}, err
	}
	return t, nil
}

func (r taskRepo) UpdateTask(_ context.Context, t models.Task) (models.Task, error) {
	err := r.s.write(func(st *state) error {
		cur, ok := st.tasks[t.ID]
		if !ok {
			return storage.ErrNotFound
		}
		t.CourseID = cur.CourseID
		t.CreatedBy, t.CreatedDate = cur.CreatedBy, cur.CreatedDate
		st.tasks[t.ID] = t
		return nil
	})
	if err != nil {
		return models.Task{}, err
	}
	return t, nil
}

func (r taskRepo) DeleteTask(_ context.Context, id string) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.tasks[id]; !ok {
			return storage.ErrNotFound
		}
		delete(st.tasks, id)
		return nil
	})
}

func (r taskRepo) FindTask(_ context.Context, id string) (models.Task, error) {
	var (
		t  models.Task
		ok bool
	)
	r.s.read(func(st *state) { t, ok = st.tasks[id] })
	if !ok {
		return models.Task{}, storage.ErrNotFound
	}
	return t, nil
}

func (r taskRepo) SearchTasks(_ context.Context, f models.TaskFilter, page models.PageRequest) (models.Page[models.Task], error) {
	var hits []models.Task
	r.s.read(func(st *state) {
		for _, t := range st.tasks {
			if f.Match(t, st.courses[t.CourseID].UserID) {
				hits = append(hits, t)
			}
		}
	})
	slices.SortFunc(hits, func(a, b models.Task) int { return cmp.Compare(a.ID, b.ID) })
	return models.Paginate(hits, page), nil
}

type expenseRepo struct{ s *Store }

func (r expenseRepo) CreateExpense(_ context.Context, e models.Expense) (models.Expense, error) {
	err := r.s.write(func(st *state) error {
		if _, ok := st.users[e.UserID]; !ok {
			return storage.ErrNotFound
		}
		if _, ok := st.expenses[e.ID]; ok {
			return storage.ErrAlreadyExists
		}
		st.expenses[e.ID] = e
		return nil
	})
	if err != nil {
		return models.Expense{}, err
	}
	return e, nil
}

func (r expenseRepo) UpdateExpense(_ context.Context, e models.Expense) (models.Expense, error) {
	err := r.s.write(func(st *state) error {
		cur, ok := st.expenses[e.ID]
		if !ok {
			return storage.ErrNotFound
		}
		e.UserID = cur.UserID
		e.CreatedBy, e.CreatedDate = cur.CreatedBy, cur.CreatedDate
		st.expenses[e.ID] = e
		return nil
	})
	if err != nil {
		return models.Expense{}, err
	}
	return e, nil
}

func (r expenseRepo) DeleteExpense(_ context.Context, id string) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.expenses[id]; !ok {
			return storage.ErrNotFound
		}
		delete(st.expenses, id)
		return nil
	})
}

func (r expenseRepo) FindExpense(_ context.Context, id string) (models.Expense, error) {
	var (
		e  models.Expense
		ok bool
	)
	r.s.read(func(st *state) { e, ok = st.expenses[id] })
	if !ok {
		return models.Expense{}, storage.ErrNotFound
	}
	return e, nil
}

// SearchExpenses orders newest first, ties broken by descending id.
func (r expenseRepo) SearchExpenses(_ context.Context, f models.ExpenseFilter, page models.PageRequest) (models.Page[models.Expense], error) {
	var hits []models.Expense
	r.s.read(func(st *state) {
		for _, e := range st.expenses {
			if f.Match(e) {
				hits = append(hits, e)
			}
		}
	})
	slices.SortFunc(hits, func(a, b models.Expense) int {
		if c := b.ExpenseDate.Compare(a.ExpenseDate); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return models.Paginate(hits, page), nil
}

func (r expenseRepo) CategoryTotals(_ context.Context, userID string, from, to time.Time) ([]models.CategoryTotal, error) {
	byCategory := map[models.ExpenseCategory]models.CategoryTotal{}
	r.s.read(func(st *state) {
		for _, e := range st.expenses {
			if e.UserID != userID || e.ExpenseDate.Before(from) || !e.ExpenseDate.Before(to) {
				continue
			}
			ct := byCategory[e.Category]
			ct.Category = e.Category
			ct.Total = ct.Total.Add(e.Amount)
			ct.Count++
			byCategory[e.Category] = ct
		}
	})
	var out []models.CategoryTotal
	for _, c := range models.ExpenseCategories {
		if ct, ok := byCategory[c]; ok {
			out = append(out, ct)
		}
	}
	return out, nil
}

type tokenRepo struct{ s *Store }

func (r tokenRepo) SaveRefreshToken(_ context.Context, t models.RefreshToken) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.tokens[t.ID]; ok {
			return storage.ErrAlreadyExists
		}
		st.tokens[t.ID] = t
		return nil
	})
}

func (r tokenRepo) FindRefreshToken(_ context.Context, id string) (models.RefreshToken, error) {
	var (
		t  models.RefreshToken
		ok bool
	)
	r.s.read(func(st *state) { t, ok = st.tokens[id] })
	if !ok {
		return models.RefreshToken{}, storage.ErrNotFound
	}
	return t, nil
}

func (r tokenRepo) RevokeRefreshToken(_ context.Context, id string, at time.Time) error {
	return r.s.write(func(st *state) error {
		t, ok := st.tokens[id]
		if !ok {
			return storage.ErrNotFound
		}
		if t.RevokedAt == nil {
			at = at.UTC()
			t.RevokedAt = &at
			st.tokens[id] = t
		}
		return nil
	})
}
