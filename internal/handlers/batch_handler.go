package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/database"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/logger"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/models"
)

// BatchHandler serves batches, programs and the dashboard counters.
type BatchHandler struct {
	repo    database.Repository
	log     *zap.Logger
	timeout time.Duration
}

func NewBatchHandler(repo database.Repository, log *zap.Logger, timeout time.Duration) *BatchHandler {
	return &BatchHandler{repo: repo, log: log, timeout: timeout}
}

func (h *BatchHandler) GetBatches(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	batches, err := h.repo.ListBatches(ctx)
	if err != nil {
		h.log.Error("list batches", zap.String(logger.FieldOperation, "get_batches"), zap.Error(err))
		http.Error(w, "Failed to fetch batches", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, batches)
}

type createBatchRequest struct {
	Name      string    `json:"name" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtefield=StartDate"`
	ProgramID string    `json:"program_id"`
}

func (h *BatchHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req createBatchRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	batch := models.Batch{
		Name:      req.Name,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		ProgramID: req.ProgramID,
	}
	if err := h.repo.CreateBatch(ctx, &batch); err != nil {
		h.log.Error("create batch", zap.String(logger.FieldOperation, "create_batch"), zap.Error(err))
		http.Error(w, "Failed to create batch", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, batch)
}

func (h *BatchHandler) GetPrograms(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	programs, err := h.repo.ListPrograms(ctx)
	if err != nil {
		h.log.Error("list programs", zap.String(logger.FieldOperation, "get_programs"), zap.Error(err))
		http.Error(w, "Failed to fetch programs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, programs)
}

type createProgramRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (h *BatchHandler) CreateProgram(w http.ResponseWriter, r *http.Request) {
	var req createProgramRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	program := models.Program{Name: req.Name, Description: req.Description}
	if err := h.repo.CreateProgram(ctx, &program); err != nil {
		h.log.Error("create program", zap.String(logger.FieldOperation, "create_program"), zap.Error(err))
		http.Error(w, "Failed to create program", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, program)
}

type dashboard struct {
	Students int64 `json:"students"`
	Batches  int64 `json:"batches"`
	Programs int64 `json:"programs"`
	Sessions int64 `json:"sessions"`
}

// GetDashboard returns the home screen totals.
func (h *BatchHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	var d dashboard
	for _, c := range []struct {
		entity models.EntityType
		dst    *int64
	}{
		{models.EntityStudent, &d.Students},
		{models.EntityBatch, &d.Batches},
		{models.EntityProgram, &d.Programs},
		{models.EntityAttendance, &d.Sessions},
	} {
		n, err := h.repo.Count(ctx, c.entity)
		if err != nil {
			h.log.Error("count", zap.String(logger.FieldOperation, "get_dashboard"), zap.String(logger.FieldEntity, string(c.entity)), zap.Error(err))
			http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
			return
		}
		*c.dst = n
	}
	writeJSON(w, http.StatusOK, d)
}
