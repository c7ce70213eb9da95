package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"studyhelper/errs"
	"studyhelper/models"
	"studyhelper/services"

	"github.com/gorilla/mux"
)

type QuizHandler struct {
	service *services.QuizService
}

func NewQuizHandler(service *services.QuizService) *QuizHandler {
	return &QuizHandler{service: service}
}

func (h *QuizHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/quiz/generate", h.GenerateQuiz).Methods("POST")
	router.HandleFunc("/quiz/submit", h.SubmitQuiz).Methods("POST")
	router.HandleFunc("/quiz/attempts/{user_id}", h.GetUserAttempts).Methods("GET")
	router.HandleFunc("/quiz/{id:[0-9]+}", h.GetQuiz).Methods("GET")
	router.HandleFunc("/quiz/{id:[0-9]+}", h.DeleteQuiz).Methods("DELETE")
}

func (h *QuizHandler) GenerateQuiz(w http.ResponseWriter, r *http.Request) {
	var req models.QuizGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	resp, err := h.service.GenerateQuiz(r.Context(), &req)
	if err != nil {
		h.writeErrorResponse(w, statusForError(err), err.Error())
		return
	}

	h.writeJSONResponse(w, http.StatusCreated, resp)
}

func (h *QuizHandler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid quiz ID")
		return
	}

	quiz, err := h.service.GetQuizForTaking(r.Context(), id)
	if err != nil {
		h.writeErrorResponse(w, statusForError(err), err.Error())
		return
	}

	h.writeJSONResponse(w, http.StatusOK, quiz)
}

func (h *QuizHandler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	var req models.QuizSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	report, err := h.service.SubmitQuiz(r.Context(), &req)
	if err != nil {
		h.writeErrorResponse(w, statusForError(err), err.Error())
		return
	}

	h.writeJSONResponse(w, http.StatusOK, report)
}

func (h *QuizHandler) GetUserAttempts(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.writeErrorResponse(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	attempts, err := h.service.GetUserAttempts(r.Context(), vars["user_id"], limit)
	if err != nil {
		h.writeErrorResponse(w, statusForError(err), "Failed to retrieve attempts")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, attempts)
}

func (h *QuizHandler) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid quiz ID")
		return
	}

	if err := h.service.DeleteQuiz(r.Context(), id); err != nil {
		h.writeErrorResponse(w, statusForError(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// statusForError maps the error kind onto an HTTP status.
func statusForError(err error) int {
	switch errs.KindOf(err) {
	case errs.ValidationFailed:
		return http.StatusBadRequest
	case errs.NotFound:
		return http.StatusNotFound
	case errs.SourceUnavailable, errs.MalformedGeneration:
		return http.StatusBadGateway
	case errs.TransactionAborted, errs.PersistenceFailed, errs.InconsistentQuizState:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func (h *QuizHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (h *QuizHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
