package handler

import (
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/domain"
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/repository"
)

var _ Store = (*repository.Repository)(nil)

// Store 是 handler 用到的全部数据访问方法
type Store interface {
	GetUserByID(id int64) (*domain.User, error)
	GetUserByUsername(username string) (*domain.User, error)
	GetAllUsers() ([]*domain.User, error)
	CreateUser(user *domain.User) error
	UpdateUserRole(user *domain.User) error
	DeleteUser(id int64) error

	CreateStaff(s *domain.Staff) error
	GetStaffByID(id int64) (*domain.Staff, error)
	GetAllStaff() ([]*domain.Staff, error)
	GetAvailableStaff() ([]*domain.Staff, error)
	GetStaffByIDs(ids []int64) ([]*domain.Staff, error)
	UpdateStaff(s *domain.Staff) error
	DeleteStaff(id int64) error

	CreateStudent(s *domain.Student) error
	CreateStudents(students []*domain.Student) error
	GetStudentByID(id int64) (*domain.Student, error)
	GetStudentByNumber(number string) (*domain.Student, error)
	GetStudents(filter domain.StudentFilter) ([]*domain.Student, error)
	GetStudentsBySemester(semester int32) ([]*domain.Student, error)
	GetStudentsByIDs(ids []int64) ([]*domain.Student, error)
	UpdateStudent(s *domain.Student) error
	DeleteStudent(id int64) error

	CreateClassroom(c *domain.Classroom) error
	GetClassroomByID(id int64) (*domain.Classroom, error)
	GetAllClassrooms() ([]*domain.Classroom, error)
	UpdateClassroom(c *domain.Classroom) error
	DeleteClassroom(id int64) error

	CreateExam(exam *domain.Exam) error
	GetExamByID(id int64) (*domain.Exam, error)
	GetAllExams() ([]*domain.Exam, error)
	UpdateExam(exam *domain.Exam) error
	DeleteExam(id int64) error

	InsertAllocation(a *domain.Allocation) error
	GetAllocationByExamID(examID int64) (*domain.Allocation, error)
	ExistsAllocationForExam(examID int64) (bool, error)
	GetAllAllocations() ([]*domain.Allocation, error)
	DeleteAllocation(id int64) error
}
