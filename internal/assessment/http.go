// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package assessment

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/talentgate/internal/platform/apperr"
	"github.com/taibuivan/talentgate/internal/platform/middleware"
	requestutil "github.com/taibuivan/talentgate/internal/platform/request"
	"github.com/taibuivan/talentgate/internal/platform/respond"
	"github.com/taibuivan/talentgate/internal/platform/sec"
	"github.com/taibuivan/talentgate/internal/platform/validate"
	"github.com/taibuivan/talentgate/internal/session"
	"github.com/taibuivan/talentgate/pkg/pagination"
)

// Handler exposes the assessment API to candidates.
type Handler struct {
	service *Service
}

// NewHandler constructs an assessment [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router mounted under /api/assessment.
//
// # Endpoints
//   - GET    /{stage}?track=&retry=   : Stage entry decision
//   - POST   /{stage}/attempts        : Start (or resume) a timed attempt
//   - GET    /attempts                : Journaled attempts, paginated
//   - GET    /attempts/{id}           : One attempt with its live timer
//   - DELETE /attempts/{id}           : Abandon a running attempt
//   - PUT    /attempts/{id}/answers   : Save draft answers
//   - POST   /attempts/{id}/submit    : Submit and gate
//   - GET    /feedback?stage=&score=  : Feedback screen data
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireRole(sec.RoleCandidate))

	router.Get("/feedback", handler.feedback)

	router.Route("/attempts", func(attempts chi.Router) {
		attempts.Get("/", handler.listAttempts)
		attempts.Get("/{id}", handler.getAttempt)
		attempts.Delete("/{id}", handler.abandon)
		attempts.Put("/{id}/answers", handler.saveAnswers)
		attempts.Post("/{id}/submit", handler.submit)
	})

	router.Get("/{stage}", handler.enter)
	router.Post("/{stage}/attempts", handler.startAttempt)

	return router
}

// stageParam parses the {stage} URL parameter.
func stageParam(request *http.Request) (Stage, error) {
	stage, ok := ParseStage(requestutil.Param(request, "stage"))
	if !ok {
		return "", apperr.NotFound("Stage")
	}
	return stage, nil
}

// enterStage runs the entry decision for the request's candidate.
func (handler *Handler) enterStage(request *http.Request, current session.Session, stage Stage) StageView {
	ctx := request.Context()
	track := requestutil.Query(request, FieldTrack)

	// No resume lookup without a track: the stage is blocked either way.
	var resume *Resume
	if track != "" && stage.Scored() {
		resume = handler.service.LoadResume(ctx)
	}

	retry, _ := strconv.ParseBool(requestutil.Query(request, "retry"))

	return handler.service.Enter(ctx, EnterInput{
		CandidateID: current.UserID,
		Stage:       stage,
		Track:       track,
		Resume:      resume,
		Retry:       retry,
	})
}

/*
Enter returns what the stage screen shows.

GET /api/assessment/{stage}?track=backend[&retry=1]

Response:
  - 200: StageView
  - 404: Unknown stage
*/
func (handler *Handler) enter(writer http.ResponseWriter, request *http.Request) {
	current, err := session.Required(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	stage, err := stageParam(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, handler.enterStage(request, current, stage))
}

type startAttemptPayload struct {
	Track string `json:"track"`
}

func (handler *Handler) startAttempt(writer http.ResponseWriter, request *http.Request) {
	current, err := session.Required(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	stage, err := stageParam(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input startAttemptPayload
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	view, err := handler.service.StartAttempt(request.Context(), current, stage, input.Track)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, view)
}

func (handler *Handler) listAttempts(writer http.ResponseWriter, request *http.Request) {
	current, err := session.Required(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	filter := Filter{CandidateID: current.UserID}
	if raw := requestutil.Query(request, FieldStage); raw != "" {
		stage, ok := ParseStage(raw)
		if !ok {
			respond.Error(writer, request, apperr.ValidationError("Validation failed", apperr.FieldError{Field: FieldStage, Message: "Unknown stage"}))
			return
		}
		filter.Stage = stage
	}

	paginationParams := pagination.FromRequest(request)
	attempts, total, err := handler.service.ListAttempts(request.Context(), filter, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, attempts, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

func (handler *Handler) getAttempt(writer http.ResponseWriter, request *http.Request) {
	current, err := session.Required(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	view, err := handler.service.GetAttempt(request.Context(), current.UserID, requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, view)
}

func (handler *Handler) abandon(writer http.ResponseWriter, request *http.Request) {
	current, err := session.Required(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Abandon(request.Context(), current.UserID, requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

type answersPayload struct {
	Answers map[string]string `json:"answers"`
}

func (handler *Handler) saveAnswers(writer http.ResponseWriter, request *http.Request) {
	current, err := session.Required(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input answersPayload
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	view, err := handler.service.SaveAnswers(request.Context(), current.UserID, requestutil.Param(request, "id"), input.Answers)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, view)
}

/*
Submit grades the attempt and returns the next navigation.

POST /api/assessment/attempts/{id}/submit

Response:
  - 200: SubmitResult
  - 404: Unknown attempt
  - 409: Attempt already finishing
  - 502: Backend failure (attempt stays open)
*/
func (handler *Handler) submit(writer http.ResponseWriter, request *http.Request) {
	current, err := session.Required(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.Submit(request.Context(), current.UserID, requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, result)
}

// feedbackInput parses stage and score from the query string.
func feedbackInput(request *http.Request) (Stage, float64, error) {
	rawStage := requestutil.Query(request, FieldStage)
	rawScore := requestutil.Query(request, "score")

	stage, stageOK := ParseStage(rawStage)
	score, scoreErr := strconv.ParseFloat(rawScore, 64)

	validator := &validate.Validator{}
	validator.Custom(FieldStage, !stageOK || !stage.Scored(), "Unknown scored stage").
		Custom("score", scoreErr != nil || score < 0 || score > 100, "Score must be between 0 and 100")
	if err := validator.Err(); err != nil {
		return "", 0, err
	}
	return stage, score, nil
}

func (handler *Handler) feedback(writer http.ResponseWriter, request *http.Request) {
	stage, score, err := feedbackInput(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, handler.service.Feedback(request.Context(), stage, score, requestutil.Query(request, FieldTrack)))
}

// # Pages

// Page is the descriptor a client renders for a guarded page route.
type Page struct {
	Name string `json:"page"`
	Path string `json:"path"`
	Data any    `json:"data"`
}

// PageHandler serves the guarded /candidate/assessment pages.
//
// The access guard runs in front of it, so the session is always a candidate.
type PageHandler struct {
	api *Handler
}

// NewPageHandler constructs the page handler.
func NewPageHandler(service *Service) *PageHandler {
	return &PageHandler{api: NewHandler(service)}
}

// Routes returns the router mounted under /candidate/assessment.
func (pages *PageHandler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/feedback", pages.feedback)
	router.Get("/{stage}", pages.stage)
	return router
}

// stage serves a stage page; gate decisions become real redirects.
func (pages *PageHandler) stage(writer http.ResponseWriter, request *http.Request) {
	current, err := session.Required(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	stage, err := stageParam(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	view := pages.api.enterStage(request, current, stage)
	if view.Kind == ViewRedirect && view.Navigation != nil {
		http.Redirect(writer, request, view.Navigation.Location, http.StatusFound)
		return
	}

	respond.OK(writer, Page{Name: "assessment_" + string(stage), Path: request.URL.Path, Data: view})
}

func (pages *PageHandler) feedback(writer http.ResponseWriter, request *http.Request) {
	stage, score, err := feedbackInput(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	view := pages.api.service.Feedback(request.Context(), stage, score, requestutil.Query(request, FieldTrack))
	respond.OK(writer, Page{Name: "assessment_feedback", Path: request.URL.Path, Data: view})
}
