package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/lo"
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/domain"
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/utils"
)

type studentRequest struct {
	StudentNumber string `json:"studentNumber" validate:"required,len=10"`
	Name          string `json:"name" validate:"required"`
	Semester      int32  `json:"semester" validate:"required,min=1,max=8"`
	Department    string `json:"department" validate:"required"`
}

func (req studentRequest) toStudent() *domain.Student {
	return &domain.Student{
		StudentNumber: req.StudentNumber,
		Name:          req.Name,
		Semester:      req.Semester,
		Department:    req.Department,
	}
}

// 学号重复等约束冲突属于业务错误，其余错误属于服务器内部错误
func (h *Handler) handleStudentWriteError(w http.ResponseWriter, r *http.Request, err error) {
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr):
		switch pgErr.ConstraintName {
		case "students_student_number_key":
			h.errorResponse(w, r, "学号已存在")
		case "students_semester_check":
			h.errorResponse(w, r, "学期必须在 1 到 8 之间")
		default:
			h.internalServerError(w, r, err)
		}
	case errors.Is(err, sql.ErrNoRows):
		h.errorResponse(w, r, "更新学生信息失败，请重试")
	default:
		h.internalServerError(w, r, err)
	}
}

func (h *Handler) GetStudents(w http.ResponseWriter, r *http.Request) {
	filter := domain.StudentFilter{}

	if s := r.URL.Query().Get("semester"); s != "" {
		semester, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			h.errorResponse(w, r, "学期无效")
			return
		}
		filter.Semester = lo.ToPtr(int32(semester))
	}
	if d := r.URL.Query().Get("department"); d != "" {
		filter.Department = lo.ToPtr(d)
	}

	students, err := h.repository.GetStudents(filter)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取学生列表成功", students)
}

func (h *Handler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req studentRequest

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := utils.ValidateStudentNumber(req.StudentNumber); err != nil {
		h.badRequest(w, r, err)
		return
	}

	student := req.toStudent()
	if err := h.repository.CreateStudent(student); err != nil {
		h.handleStudentWriteError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建学生成功", student)
}

// CreateStudents 批量导入学生，任意一个学生不合法则整体失败
func (h *Handler) CreateStudents(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Students []studentRequest `json:"students" validate:"required,min=1,dive"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	for i, s := range req.Students {
		if err := utils.ValidateStudentNumber(s.StudentNumber); err != nil {
			h.badRequest(w, r, fmt.Errorf("第 %d 个学生: %w", i+1, err))
			return
		}
	}

	numbers := lo.Map(req.Students, func(s studentRequest, _ int) string { return s.StudentNumber })
	if dup := lo.FindDuplicates(numbers); len(dup) > 0 {
		h.errorResponse(w, r, fmt.Sprintf("学号 %s 重复", dup[0]))
		return
	}

	students := lo.Map(req.Students, func(s studentRequest, _ int) *domain.Student { return s.toStudent() })
	if err := h.repository.CreateStudents(students); err != nil {
		h.handleStudentWriteError(w, r, err)
		return
	}

	h.successResponse(w, r, fmt.Sprintf("成功导入 %d 个学生", len(students)), students)
}

func (h *Handler) GetStudentByNumber(w http.ResponseWriter, r *http.Request) {
	student, err := h.repository.GetStudentByNumber(chi.URLParam(r, "number"))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "学生不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取学生成功", student)
}

func (h *Handler) GetStudent(w http.ResponseWriter, r *http.Request) {
	student := r.Context().Value(StudentCtx).(*domain.Student)
	h.successResponse(w, r, "获取学生成功", student)
}

func (h *Handler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StudentNumber *string `json:"studentNumber" validate:"omitempty,len=10"`
		Name          *string `json:"name" validate:"omitempty,min=1"`
		Semester      *int32  `json:"semester" validate:"omitempty,min=1,max=8"`
		Department    *string `json:"department" validate:"omitempty,min=1"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	student := r.Context().Value(StudentCtx).(*domain.Student)

	if req.StudentNumber != nil {
		if err := utils.ValidateStudentNumber(*req.StudentNumber); err != nil {
			h.badRequest(w, r, err)
			return
		}
		student.StudentNumber = *req.StudentNumber
	}
	if req.Name != nil {
		student.Name = *req.Name
	}
	if req.Semester != nil {
		student.Semester = *req.Semester
	}
	if req.Department != nil {
		student.Department = *req.Department
	}

	if err := h.repository.UpdateStudent(student); err != nil {
		h.handleStudentWriteError(w, r, err)
		return
	}

	h.successResponse(w, r, "更新学生信息成功", student)
}

func (h *Handler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	student := r.Context().Value(StudentCtx).(*domain.Student)

	if err := h.repository.DeleteStudent(student.ID); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "allocation_room_students_student_id_fkey":
			h.errorResponse(w, r, "该学生已被分配到考场中，请先删除相关分配结果")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "删除学生成功", nil)
}
