package controller

import (
	"bufio"
	"fmt"

	"chartnotes-be/internal/dto"
	"chartnotes-be/internal/pkg/serverutils"
	"chartnotes-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

type IAssistantController interface {
	RegisterRoutes(r fiber.Router)
	AnswerQuery(ctx *fiber.Ctx) error
	SummarizeText(ctx *fiber.Ctx) error
	Briefing(ctx *fiber.Ctx) error
	QuestionSuggestions(ctx *fiber.Ctx) error
	RecentTopics(ctx *fiber.Ctx) error
	TopicsInsights(ctx *fiber.Ctx) error
	AttendanceInsights(ctx *fiber.Ctx) error
	SoapNote(ctx *fiber.Ctx) error
	SessionMiniSummary(ctx *fiber.Ctx) error
	Greeting(ctx *fiber.Ctx) error
	IndexSession(ctx *fiber.Ctx) error
	IndexSessionAsync(ctx *fiber.Ctx) error
	IndexHistory(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	DeleteHistory(ctx *fiber.Ctx) error
	DeletePatient(ctx *fiber.Ctx) error
}

type assistantController struct {
	assistantService service.IAssistantService
}

func NewAssistantController(assistantService service.IAssistantService) IAssistantController {
	return &assistantController{
		assistantService: assistantService,
	}
}

func (c *assistantController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/assistant/v1")
	h.Post("query", c.AnswerQuery)
	h.Post("summarize", c.SummarizeText)
	h.Post("briefing", c.Briefing)
	h.Post("question-suggestions", c.QuestionSuggestions)
	h.Post("recent-topics", c.RecentTopics)
	h.Post("topics-insights", c.TopicsInsights)
	h.Post("attendance-insights", c.AttendanceInsights)
	h.Post("soap-note", c.SoapNote)
	h.Post("mini-summary", c.SessionMiniSummary)
	h.Post("greeting", c.Greeting)
	h.Post("sessions", c.IndexSession)
	h.Post("sessions/async", c.IndexSessionAsync)
	h.Post("history", c.IndexHistory)
	h.Delete("sessions", c.DeleteSession)
	h.Delete("history", c.DeleteHistory)
	h.Delete("patient", c.DeletePatient)
}

func (c *assistantController) AnswerQuery(ctx *fiber.Ctx) error {
	var req dto.AnswerQueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if req.Stream {
		return c.streamAnswer(ctx, req)
	}

	res, err := c.assistantService.AnswerQuery(ctx.Context(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success answer query", res))
}

// streamAnswer writes answer tokens as server-sent events.
func (c *assistantController) streamAnswer(ctx *fiber.Ctx, req dto.AnswerQueryRequest) error {
	ctx.Set("Content-Type", "text/event-stream")
	ctx.Set("Cache-Control", "no-cache")
	ctx.Set("Connection", "keep-alive")

	svc := c.assistantService
	userCtx := ctx.Context()

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		textCh, errCh := svc.AnswerQueryStream(userCtx, req)
		for token := range textCh {
			fmt.Fprintf(w, "data: %s\n\n", token)
			if err := w.Flush(); err != nil {
				return
			}
		}
		if err := <-errCh; err != nil {
			fmt.Fprintf(w, "event: error\ndata: %s\n\n", err.Error())
		} else {
			fmt.Fprint(w, "data: [DONE]\n\n")
		}
		w.Flush()
	}))
	return nil
}

func (c *assistantController) SummarizeText(ctx *fiber.Ctx) error {
	var req dto.SummarizeTextRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.SummarizeText(ctx.Context(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success summarize text", res))
}

func (c *assistantController) Briefing(ctx *fiber.Ctx) error {
	var req dto.BriefingRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.CreateBriefing(ctx.Context(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success create briefing", res))
}

func (c *assistantController) QuestionSuggestions(ctx *fiber.Ctx) error {
	var req dto.QuestionSuggestionsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.CreateQuestionSuggestions(ctx.Context(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success create question suggestions", res))
}

func (c *assistantController) RecentTopics(ctx *fiber.Ctx) error {
	var req dto.RecentTopicsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.FetchRecentTopics(ctx.Context(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success fetch recent topics", res))
}

func (c *assistantController) TopicsInsights(ctx *fiber.Ctx) error {
	var req dto.TopicsInsightsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.CreateTopicsInsights(ctx.Context(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success create topics insights", res))
}

func (c *assistantController) AttendanceInsights(ctx *fiber.Ctx) error {
	var req dto.AttendanceInsightsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.CreateAttendanceInsights(ctx.Context(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success create attendance insights", res))
}

func (c *assistantController) SoapNote(ctx *fiber.Ctx) error {
	var req dto.SoapNoteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.CreateSoapNote(ctx.Context(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success create SOAP note", res))
}

func (c *assistantController) SessionMiniSummary(ctx *fiber.Ctx) error {
	var req dto.SessionMiniSummaryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.CreateSessionMiniSummary(ctx.Context(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success create mini summary", res))
}

func (c *assistantController) Greeting(ctx *fiber.Ctx) error {
	var req dto.GreetingRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.CreateGreeting(ctx.Context(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success create greeting", res))
}

func (c *assistantController) IndexSession(ctx *fiber.Ctx) error {
	var req dto.IndexSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.IndexSession(ctx.Context(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success index session", res))
}

func (c *assistantController) IndexSessionAsync(ctx *fiber.Ctx) error {
	var req dto.IndexSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	err := c.assistantService.EnqueueIndexSession(ctx.Context(), dto.IndexSessionMessage{
		TenantID:    req.TenantID,
		PatientID:   req.PatientID,
		SessionDate: req.SessionDate,
		Text:        req.Text,
		Reindex:     req.Reindex,
	})
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse[any]("Session queued for indexing", nil))
}

func (c *assistantController) IndexHistory(ctx *fiber.Ctx) error {
	var req dto.IndexHistoryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.IndexHistory(ctx.Context(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success index history", res))
}

func (c *assistantController) DeleteSession(ctx *fiber.Ctx) error {
	var req dto.DeleteSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.assistantService.DeleteSession(ctx.Context(), req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete session", nil))
}

func (c *assistantController) DeleteHistory(ctx *fiber.Ctx) error {
	var scope dto.Scope
	if err := ctx.BodyParser(&scope); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(scope); err != nil {
		return err
	}

	if err := c.assistantService.DeleteHistory(ctx.Context(), scope); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete history", nil))
}

func (c *assistantController) DeletePatient(ctx *fiber.Ctx) error {
	var scope dto.Scope
	if err := ctx.BodyParser(&scope); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(scope); err != nil {
		return err
	}

	if err := c.assistantService.DeletePatient(ctx.Context(), scope); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete patient data", nil))
}
