package server

import (
	"context"
	"fmt"

	"github.com/pallavilagisetti/admin-control-sub001/internal/db/models"
	"github.com/pallavilagisetti/admin-control-sub001/internal/repository"
)

// In-memory repository fakes. Pagination mirrors the SQL implementations:
// 1-based pages, stable order as inserted.

func paginate[T any](items []T, page, limit int) []T {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return nil
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

type mockUserRepo struct {
	users []models.User
	err   error
}

func (m *mockUserRepo) Create(_ context.Context, user *models.User) error {
	m.users = append(m.users, *user)
	return m.err
}

func (m *mockUserRepo) find(match func(*models.User) bool, what string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.users {
		if match(&m.users[i]) {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", what, repository.ErrNotFound)
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.ID == id }, "user "+id)
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Email == email }, "user "+email)
}

func (m *mockUserRepo) GetBySubject(_ context.Context, subject string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Subject != nil && *u.Subject == subject }, "user "+subject)
}

func (m *mockUserRepo) UpdateLastLogin(context.Context, string) error { return m.err }

func (m *mockUserRepo) SetPasswordHash(context.Context, string, string) error { return m.err }

func (m *mockUserRepo) List(_ context.Context, page, limit int) ([]models.User, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	return paginate(m.users, page, limit), len(m.users), nil
}

func (m *mockUserRepo) CountByStatus(context.Context) (map[string]int, error) {
	if m.err != nil {
		return nil, m.err
	}
	counts := map[string]int{}
	for _, u := range m.users {
		counts[u.Status]++
	}
	return counts, nil
}

type mockResumeRepo struct {
	resumes []models.Resume
	err     error
}

func (m *mockResumeRepo) Create(_ context.Context, resume *models.Resume) error {
	m.resumes = append(m.resumes, *resume)
	return m.err
}

func (m *mockResumeRepo) GetByID(_ context.Context, id string) (*models.Resume, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.resumes {
		if m.resumes[i].ID == id {
			res := m.resumes[i]
			return &res, nil
		}
	}
	return nil, fmt.Errorf("resume %s: %w", id, repository.ErrNotFound)
}

func (m *mockResumeRepo) List(_ context.Context, page, limit int) ([]models.Resume, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	return paginate(m.resumes, page, limit), len(m.resumes), nil
}

func (m *mockResumeRepo) ListByUser(_ context.Context, userID string, page, limit int) ([]models.Resume, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	var owned []models.Resume
	for _, res := range m.resumes {
		if res.UserID == userID {
			owned = append(owned, res)
		}
	}
	return paginate(owned, page, limit), len(owned), nil
}

func (m *mockResumeRepo) CountByStatus(context.Context) (map[string]int, error) {
	if m.err != nil {
		return nil, m.err
	}
	counts := map[string]int{}
	for _, res := range m.resumes {
		counts[res.Status]++
	}
	return counts, nil
}

type mockJobRepo struct {
	jobs []models.Job
	err  error
}

func (m *mockJobRepo) Create(_ context.Context, job *models.Job) error {
	m.jobs = append(m.jobs, *job)
	return m.err
}

func (m *mockJobRepo) GetByID(_ context.Context, id string) (*models.Job, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.jobs {
		if m.jobs[i].ID == id {
			j := m.jobs[i]
			return &j, nil
		}
	}
	return nil, fmt.Errorf("job %s: %w", id, repository.ErrNotFound)
}

func (m *mockJobRepo) List(_ context.Context, page, limit int) ([]models.Job, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	return paginate(m.jobs, page, limit), len(m.jobs), nil
}

func (m *mockJobRepo) CountByStatus(context.Context) (map[string]int, error) {
	if m.err != nil {
		return nil, m.err
	}
	counts := map[string]int{}
	for _, j := range m.jobs {
		counts[j.Status]++
	}
	return counts, nil
}

type mockSkillRepo struct {
	skills []models.Skill
	err    error
}

func (m *mockSkillRepo) Create(_ context.Context, skill *models.Skill) error {
	m.skills = append(m.skills, *skill)
	return m.err
}

func (m *mockSkillRepo) List(_ context.Context, page, limit int) ([]models.Skill, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	return paginate(m.skills, page, limit), len(m.skills), nil
}

func (m *mockSkillRepo) TopByUsage(_ context.Context, n int) ([]models.Skill, error) {
	if m.err != nil {
		return nil, m.err
	}
	if n > len(m.skills) {
		n = len(m.skills)
	}
	return m.skills[:n], nil
}

type mockPaymentRepo struct {
	payments []models.Payment
	err      error
}

func (m *mockPaymentRepo) Create(_ context.Context, payment *models.Payment) error {
	m.payments = append(m.payments, *payment)
	return m.err
}

func (m *mockPaymentRepo) Update(_ context.Context, payment *models.Payment) error {
	if m.err != nil {
		return m.err
	}
	for i := range m.payments {
		if m.payments[i].ID == payment.ID {
			m.payments[i] = *payment
			return nil
		}
	}
	return fmt.Errorf("payment %s: %w", payment.ID, repository.ErrNotFound)
}

func (m *mockPaymentRepo) GetByID(_ context.Context, id string) (*models.Payment, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.payments {
		if m.payments[i].ID == id {
			p := m.payments[i]
			return &p, nil
		}
	}
	return nil, fmt.Errorf("payment %s: %w", id, repository.ErrNotFound)
}

func (m *mockPaymentRepo) List(_ context.Context, page, limit int) ([]models.Payment, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	return paginate(m.payments, page, limit), len(m.payments), nil
}

func (m *mockPaymentRepo) CountByStatus(context.Context) (map[string]int, error) {
	if m.err != nil {
		return nil, m.err
	}
	counts := map[string]int{}
	for _, p := range m.payments {
		counts[p.Status]++
	}
	return counts, nil
}

func (m *mockPaymentRepo) RevenueCents(context.Context) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	var total int64
	for _, p := range m.payments {
		if p.Status == models.PaymentStatusSucceeded {
			total += p.AmountCents
		}
	}
	return total, nil
}
