package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/domain"
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/utils"
)

func (h *Handler) GetAllExams(w http.ResponseWriter, r *http.Request) {
	exams, err := h.repository.GetAllExams()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取考试列表成功", exams)
}

func (h *Handler) CreateExam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string    `json:"name" validate:"required"`
		Date     time.Time `json:"date" validate:"required"`
		Semester int32     `json:"semester" validate:"required,min=1,max=8"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	exam := &domain.Exam{
		Name:     req.Name,
		Date:     req.Date,
		Semester: req.Semester,
	}

	if err := utils.ValidateExamDate(exam, time.Now()); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.CreateExam(exam); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建考试成功", exam)
}

func (h *Handler) GetExam(w http.ResponseWriter, r *http.Request) {
	exam := r.Context().Value(ExamCtx).(*domain.Exam)
	h.successResponse(w, r, "获取考试成功", exam)
}

func (h *Handler) UpdateExam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     *string    `json:"name" validate:"omitempty,min=1"`
		Date     *time.Time `json:"date"`
		Semester *int32     `json:"semester" validate:"omitempty,min=1,max=8"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	exam := r.Context().Value(ExamCtx).(*domain.Exam)

	if req.Name != nil {
		exam.Name = *req.Name
	}
	if req.Date != nil {
		exam.Date = *req.Date
		if err := utils.ValidateExamDate(exam, time.Now()); err != nil {
			h.badRequest(w, r, err)
			return
		}
	}
	if req.Semester != nil {
		exam.Semester = *req.Semester
	}

	if err := h.repository.UpdateExam(exam); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "更新考试信息失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新考试信息成功", exam)
}

func (h *Handler) DeleteExam(w http.ResponseWriter, r *http.Request) {
	exam := r.Context().Value(ExamCtx).(*domain.Exam)

	if err := h.repository.DeleteExam(exam.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除考试成功", nil)
}
