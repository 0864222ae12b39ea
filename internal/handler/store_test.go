package handler

import (
	"database/sql"
	"errors"

	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/domain"
)

// fakeStore 只实现测试中用到的方法，调用其余方法会因为 Store 为 nil 而 panic
type fakeStore struct {
	Store

	allocationExists bool
	students         []*domain.Student
	classrooms       []*domain.Classroom
	staff            []*domain.Staff
	insertErr        error
	inserted         *domain.Allocation

	users         map[string]*domain.User
	createUserErr error
	updateRoleErr error
}

func (s *fakeStore) ExistsAllocationForExam(examID int64) (bool, error) {
	return s.allocationExists, nil
}

func (s *fakeStore) GetStudentsBySemester(semester int32) ([]*domain.Student, error) {
	return s.students, nil
}

func (s *fakeStore) GetAllClassrooms() ([]*domain.Classroom, error) {
	return s.classrooms, nil
}

func (s *fakeStore) GetAvailableStaff() ([]*domain.Staff, error) {
	return s.staff, nil
}

func (s *fakeStore) InsertAllocation(a *domain.Allocation) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	a.ID = 1
	s.inserted = a
	return nil
}

func (s *fakeStore) GetUserByUsername(username string) (*domain.User, error) {
	user, ok := s.users[username]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (s *fakeStore) CreateUser(user *domain.User) error {
	if !user.Role.Valid() {
		return domain.ErrInvalidRole
	}
	if s.createUserErr != nil {
		return s.createUserErr
	}
	user.ID = int64(len(s.users) + 1)
	if s.users == nil {
		s.users = make(map[string]*domain.User)
	}
	s.users[user.Username] = user
	return nil
}

func (s *fakeStore) UpdateUserRole(user *domain.User) error {
	if !user.Role.Valid() {
		return domain.ErrInvalidRole
	}
	if s.updateRoleErr != nil {
		return s.updateRoleErr
	}
	user.Version++
	return nil
}

type fakeLocker struct {
	held     bool
	err      error
	released []string
}

func (l *fakeLocker) Acquire(examID int64) (string, bool, error) {
	if l.err != nil {
		return "", false, l.err
	}
	if l.held {
		return "", false, nil
	}
	l.held = true
	return "token-1", true, nil
}

func (l *fakeLocker) Release(examID int64, token string) error {
	l.held = false
	l.released = append(l.released, token)
	return nil
}

type fakeMailer struct {
	sent []domain.MailMessage
	err  error
}

func (m *fakeMailer) Publish(msg domain.MailMessage) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

var errBrokerDown = errors.New("broker down")
