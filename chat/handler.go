// Package chat is the pipeline orchestrator: it sequences extraction, session
// state, prompt building, chain invocation and coercion per request type, and
// maps every outcome to the uniform {status, ...} envelope.
package chat

import (
	"context"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"meddy-backend/files"
	"meddy-backend/prompts"
	"meddy-backend/session"
	"meddy-backend/structured"
)

// Chain is the minimal invocation surface the orchestrator needs; it is
// implemented by *openai.Invoker and mocked in tests.
type Chain interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// DefaultUserInput is used when an ingest request carries no user_input field.
const DefaultUserInput = "Please explain this report."

// invokeTimeout bounds a single request's model call, retries included.
const invokeTimeout = 90 * time.Second

type Handler struct {
	chain    Chain
	sessions *session.Store

	// extract is injectable so handler tests don't need real PDFs.
	extract func(filePath string, maxChars int) ([]files.Page, error)
	// resetMemory, when set, clears the chain's conversational memory on
	// session reset.
	resetMemory func()
}

func NewHandler(chain Chain, sessions *session.Store) *Handler {
	return &Handler{chain: chain, sessions: sessions, extract: files.ExtractPages}
}

// SetExtractor replaces the document extraction call (used by tests).
func (h *Handler) SetExtractor(fn func(filePath string, maxChars int) ([]files.Page, error)) {
	h.extract = fn
}

// SetMemoryReset injects the chain-memory reset hook wired in main.
func (h *Handler) SetMemoryReset(fn func()) {
	h.resetMemory = fn
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.Root)
	r.POST("/chat/", h.Chat)
	r.POST("/cardio_view", h.CardioView)
	r.POST("/followup/", h.Followup)
	r.GET("/health", h.Health)
	r.POST("/session/reset", h.ResetSession)
}

// sessionID resolves the caller's session slot. Callers that send no
// X-Session-ID header all share the default slot, which reproduces the
// process-wide single-session behavior (and its last-write-wins race) for
// legacy clients.
func sessionID(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader("X-Session-ID")); id != "" {
		return id
	}
	return session.DefaultID
}

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Meddy backend is live!"})
}

// Chat ingests an uploaded report and answers the patient's query about it.
// The session record is updated as soon as extraction succeeds, before the
// model call: a failed call still leaves the ingested report usable by a later
// /cardio_view or retried chat.
func (h *Handler) Chat(c *gin.Context) {
	userInput := c.DefaultPostForm("user_input", DefaultUserInput)
	history := c.PostForm("medical_history")
	if strings.TrimSpace(userInput) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "User input cannot be empty"})
		return
	}

	upFile, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "A report file is required"})
		return
	}

	tmpDir := "./tmp"
	_ = os.MkdirAll(tmpDir, 0o755)
	tmpPath := filepath.Join(tmpDir, uuid.NewString()+".pdf")
	if err := c.SaveUploadedFile(upFile, tmpPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "failed to store uploaded file"})
		return
	}
	defer func() {
		// Cleanup failures never fail the request.
		if err := os.Remove(tmpPath); err != nil {
			log.Printf("WARN failed to delete temp file %s: %v", tmpPath, err)
		}
	}()

	pages, err := h.extract(tmpPath, 0)
	if err != nil {
		log.Printf("ERROR extracting report: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}
	report := files.JoinPages(pages)
	log.Printf("parsed %d page(s) from uploaded report", len(pages))

	prompt, err := prompts.Build(prompts.ModeGeneral, prompts.Inputs{Report: report, History: history, Query: userInput})
	if err != nil {
		// Extraction produced nothing usable (e.g. a blank document); no
		// session update, no invocation.
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": err.Error()})
		return
	}

	h.sessions.SetReport(sessionID(c), report, history)

	ctx, cancel := context.WithTimeout(c.Request.Context(), invokeTimeout)
	defer cancel()
	raw, err := h.chain.Invoke(ctx, prompt)
	if err != nil {
		log.Printf("ERROR processing chat: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}

	outcome := structured.Coerce(raw)
	if !outcome.IsStructured() {
		log.Printf("WARN model output was not parseable as the report schema; returning unstructured")
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "structured_data": outcome.Payload()})
}

// CardioView re-interprets the session's already-ingested report through the
// cardiology prompt. No report means a caller error; the chain is not invoked.
func (h *Handler) CardioView(c *gin.Context) {
	rec, ok := h.sessions.Report(sessionID(c))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "No report available. Upload a report first."})
		return
	}

	prompt, err := prompts.Build(prompts.ModeSpecialist, prompts.Inputs{Specialty: prompts.Cardiology, Report: rec.Report, History: rec.History})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), invokeTimeout)
	defer cancel()
	raw, err := h.chain.Invoke(ctx, prompt)
	if err != nil {
		log.Printf("ERROR in cardio_view: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "structured_data": structured.Coerce(raw).Payload()})
}

// Followup answers a conversational question about the earlier interpretation.
// Responses stay free text: follow-ups are conversation, not reports.
func (h *Handler) Followup(c *gin.Context) {
	userInput := c.PostForm("user_input")
	if strings.TrimSpace(userInput) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Follow-up input cannot be empty"})
		return
	}

	prompt, err := prompts.Build(prompts.ModeFollowup, prompts.Inputs{Query: userInput})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), invokeTimeout)
	defer cancel()
	raw, err := h.chain.Invoke(ctx, prompt)
	if err != nil {
		log.Printf("ERROR in follow-up: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "response": raw})
}

// Health probes the chain with a fixed token and classifies the outcome:
// 200 healthy (non-empty text), 206 degraded (call succeeded, no usable text),
// 500 unhealthy (call failed after retries).
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), invokeTimeout)
	defer cancel()
	raw, err := h.chain.Invoke(ctx, prompts.HealthProbe)
	if err != nil {
		log.Printf("ERROR health check failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":     "unhealthy",
			"llm_status": "down",
			"message":    "LLM or system issue detected",
			"error":      err.Error(),
		})
		return
	}
	if strings.TrimSpace(raw) == "" {
		log.Printf("WARN health check: LLM responded but returned no text")
		c.JSON(http.StatusPartialContent, gin.H{
			"status":     "degraded",
			"llm_status": "unresponsive",
			"message":    "API is running, but LLM didn't return a valid response",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"llm_status": "responsive",
		"message":    "API is up and running",
	})
}

// ResetSession discards the caller's session record and, when wired, the
// chain's conversational memory. Best-effort cleanup, always 204.
func (h *Handler) ResetSession(c *gin.Context) {
	h.sessions.Reset(sessionID(c))
	if h.resetMemory != nil {
		h.resetMemory()
	}
	c.Status(http.StatusNoContent)
}
