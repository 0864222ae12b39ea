package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/allocator"
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/config"
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/domain"
)

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	repository Store
	translator ut.Translator
	allocator  *allocator.Allocator
	locker     allocationLocker
	mailer     mailPublisher

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo Store, mailCh *amqp.Channel, rdb *redis.Client, alloc *allocator.Allocator) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		repository: repo,
		translator: trans,
		allocator:  alloc,
		locker:     &redisLocker{client: rdb, cfg: cfg},
		mailer:     &amqpMailPublisher{channel: mailCh, cfg: cfg},

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)
	h.Mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	adminOnly := h.RequiredRole([]domain.Role{domain.RoleAdmin})

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用，教务员只能查看，管理员才能修改
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Route("/users", func(r chi.Router) {
			r.With(adminOnly).Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetUserInfo)
				r.With(h.preventOperateInitialAdmin).With(adminOnly).Patch("/role", h.UpdateUserRole)
				r.With(h.preventOperateInitialAdmin).With(adminOnly).Delete("/", h.DeleteUser)
			})
		})

		r.Route("/staff", func(r chi.Router) {
			r.Get("/", h.GetAllStaff)
			r.With(adminOnly).Post("/", h.CreateStaff)
			r.Get("/available", h.GetAvailableStaff)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.staffInfo)
				r.Get("/", h.GetStaff)
				r.With(adminOnly).Patch("/", h.UpdateStaff)
				r.With(adminOnly).Delete("/", h.DeleteStaff)
			})
		})

		r.Route("/students", func(r chi.Router) {
			r.Get("/", h.GetStudents)
			r.With(adminOnly).Post("/", h.CreateStudent)
			r.With(adminOnly).Post("/bulk", h.CreateStudents)
			r.Get("/number/{number}", h.GetStudentByNumber)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.studentInfo)
				r.Get("/", h.GetStudent)
				r.With(adminOnly).Patch("/", h.UpdateStudent)
				r.With(adminOnly).Delete("/", h.DeleteStudent)
			})
		})

		r.Route("/classrooms", func(r chi.Router) {
			r.Get("/", h.GetAllClassrooms)
			r.With(adminOnly).Post("/", h.CreateClassroom)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.classroomInfo)
				r.Get("/", h.GetClassroom)
				r.With(adminOnly).Patch("/", h.UpdateClassroom)
				r.With(adminOnly).Delete("/", h.DeleteClassroom)
			})
		})

		r.Route("/exams", func(r chi.Router) {
			r.Get("/", h.GetAllExams)
			r.With(adminOnly).Post("/", h.CreateExam)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.examInfo)
				r.Get("/", h.GetExam)
				r.With(adminOnly).Patch("/", h.UpdateExam)
				r.With(adminOnly).Delete("/", h.DeleteExam)
				r.Route("/allocation", func(r chi.Router) {
					r.Get("/", h.GetExamAllocation)
					r.With(adminOnly).Post("/generate", h.GenerateAllocation)
					r.With(adminOnly).Delete("/", h.DeleteExamAllocation)
				})
			})
		})

		r.Route("/allocations", func(r chi.Router) {
			r.Get("/", h.GetAllAllocations)
			r.With(adminOnly).Delete("/{id}", h.DeleteAllocation)
		})
	})
}
