package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/database"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/logger"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/models"
)

type StudentHandler struct {
	repo    database.Repository
	log     *zap.Logger
	timeout time.Duration
}

func NewStudentHandler(repo database.Repository, log *zap.Logger, timeout time.Duration) *StudentHandler {
	return &StudentHandler{repo: repo, log: log, timeout: timeout}
}

type studentList struct {
	Students []models.Student `json:"students"`
	Total    int64            `json:"total"`
}

// GetStudents lists active students, optionally of one batch.
func (h *StudentHandler) GetStudents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	q := database.StudentQuery{
		BatchID: r.URL.Query().Get("batch_id"),
		Limit:   int64(queryInt(r, "limit", 0, 500)),
	}
	students, err := h.repo.ListStudents(ctx, q)
	if err != nil {
		h.log.Error("list students", zap.String(logger.FieldOperation, "get_students"), zap.Error(err))
		http.Error(w, "Failed to fetch students", http.StatusInternalServerError)
		return
	}
	total, err := h.repo.CountStudents(ctx, database.StudentQuery{BatchID: q.BatchID})
	if err != nil {
		h.log.Error("count students", zap.String(logger.FieldOperation, "get_students"), zap.Error(err))
		http.Error(w, "Failed to fetch students", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, studentList{Students: students, Total: total})
}

type createStudentRequest struct {
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone"`
	Code      string `json:"code" validate:"required"`
	BatchID   string `json:"batch_id" validate:"required"`
	ProgramID string `json:"program_id"`
}

// CreateStudent registers a student in a batch.
func (h *StudentHandler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req createStudentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	raw, err := h.repo.FindByID(ctx, models.EntityBatch, req.BatchID)
	if errors.Is(err, database.ErrNotFound) {
		http.Error(w, "Batch not found", http.StatusNotFound)
		return
	} else if err != nil {
		h.log.Error("find batch", zap.String(logger.FieldOperation, "create_student"), zap.Error(err))
		http.Error(w, "Failed to check batch existence", http.StatusInternalServerError)
		return
	}

	_, err = h.repo.FindStudentByCode(ctx, req.Code)
	if err == nil {
		http.Error(w, "Student code already in use", http.StatusConflict)
		return
	} else if !errors.Is(err, database.ErrNotFound) {
		h.log.Error("find student by code", zap.String(logger.FieldOperation, "create_student"), zap.Error(err))
		http.Error(w, "Failed to check student code", http.StatusInternalServerError)
		return
	}

	batchName, _ := raw.Lookup("name").StringValueOK()
	student := models.Student{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Code:      req.Code,
		Batch:     models.BatchRef{ID: req.BatchID, Name: batchName},
		ProgramID: req.ProgramID,
	}
	err = h.repo.CreateStudent(ctx, &student)
	if errors.Is(err, database.ErrDuplicate) {
		http.Error(w, "Student code already in use", http.StatusConflict)
		return
	} else if err != nil {
		h.log.Error("create student", zap.String(logger.FieldOperation, "create_student"), zap.Error(err))
		http.Error(w, "Failed to create student", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, student)
}

// DeleteStudent soft-deletes a student.
func (h *StudentHandler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	err := h.repo.SoftDeleteStudent(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		http.Error(w, "Student not found", http.StatusNotFound)
		return
	} else if err != nil {
		h.log.Error("delete student", zap.String(logger.FieldOperation, "delete_student"), zap.String("id", id), zap.Error(err))
		http.Error(w, "Failed to delete student", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetStudentByCode resolves a scanned card code.
func (h *StudentHandler) GetStudentByCode(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	student, err := h.repo.FindStudentByCode(ctx, code)
	if errors.Is(err, database.ErrNotFound) {
		http.Error(w, "Student not found", http.StatusNotFound)
		return
	} else if err != nil {
		h.log.Error("find student by code", zap.String(logger.FieldOperation, "scan_student"), zap.Error(err))
		http.Error(w, "Failed to look up student", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, student)
}
