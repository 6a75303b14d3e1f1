package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/ruteri/contract-analysis-backend/common"
	"github.com/ruteri/contract-analysis-backend/gate"
	"github.com/ruteri/contract-analysis-backend/interfaces"
	"github.com/ruteri/contract-analysis-backend/orchestrator"
	"github.com/ruteri/contract-analysis-backend/payments"
)

const (
	// DefaultMaxUploadBytes bounds the multipart body of an analysis request.
	DefaultMaxUploadBytes = 20 << 20

	// maxBodySize bounds the non-upload request bodies (forms, webhooks).
	maxBodySize = 1 << 20

	// multipartMemory is how much of a multipart body is kept in memory before
	// spilling file parts to disk.
	multipartMemory = 8 << 20
)

// RequestError provides structured error information for HTTP responses.
type RequestError struct {
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	return e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func badRequest(format string, args ...any) *RequestError {
	return &RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf(format, args...)}
}

// AnalysisRunner runs one orchestrated analysis.
type AnalysisRunner interface {
	Run(ctx context.Context, req interfaces.AnalysisRequest) orchestrator.Outcome
}

// PaymentService creates checkouts and processes provider webhooks.
type PaymentService interface {
	CreateCheckout(ctx context.Context, req interfaces.CheckoutRequest) (*interfaces.Checkout, error)
	HandleNotification(ctx context.Context, req payments.WebhookRequest) payments.WebhookResult
}

// StatusChecker answers payment status queries from the ledger.
type StatusChecker interface {
	Status(ctx context.Context, userID string, policy gate.Policy) (*interfaces.Transaction, error)
	Policy() gate.Policy
}

// Handler serves the public API.
type Handler struct {
	runner         AnalysisRunner
	payments       PaymentService
	status         StatusChecker
	maxUploadBytes int64
	log            *slog.Logger
}

// NewHandler creates a handler. A non-positive maxUploadBytes selects DefaultMaxUploadBytes.
func NewHandler(runner AnalysisRunner, payments PaymentService, status StatusChecker, maxUploadBytes int64, log *slog.Logger) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handler{
		runner:         runner,
		payments:       payments,
		status:         status,
		maxUploadBytes: maxUploadBytes,
		log:            log,
	}
}

type errorResponse struct {
	OK        bool   `json:"ok"`
	Outcome   string `json:"outcome,omitempty"`
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
	Version   string `json:"version"`
}

type analysisResponse struct {
	OK              bool    `json:"ok"`
	Message         string  `json:"mensagem"`
	HTML            string  `json:"html"`
	EmailSent       bool    `json:"email_enviado"`
	EmailError      *string `json:"email_erro"`
	PaymentBypassed bool    `json:"bypass_pagamento"`
	RequestID       string  `json:"request_id"`
	Version         string  `json:"version"`
}

// HandleRoot reports the service name and version.
//
// URL format: GET /
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"service": common.ServiceName,
		"version": common.Version,
	})
}

// HandleAnalyze runs a contract analysis for an uploaded document.
//
// URL format: POST /api/contrato/analisar
// Request body: multipart form with requester_name (nome), requester_email
// (email), party_perspective (parte), user_identity (user_id), optional
// voucher and the document in file (arquivo).
//
// The status code reflects the outcome: 200 on success (whether or not the
// email was delivered), 400 for client errors, 403 when no payment or voucher
// grants access, 500 for ledger, generation and internal failures.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, reqErr := h.parseAnalysisRequest(w, r)
	if reqErr != nil {
		h.log.Warn("Rejected analysis request", "err", reqErr)
		h.writeError(w, reqErr.StatusCode, string(orchestrator.OutcomeClientError), reqErr.Error(), "")
		return
	}

	out := h.runner.Run(r.Context(), req)

	if out.Kind != orchestrator.OutcomeSucceeded {
		h.writeError(w, outcomeStatus(out.Kind), string(out.Kind), outcomeMessage(out.Kind), out.RequestID)
		return
	}

	resp := analysisResponse{
		OK:              true,
		Message:         "Análise concluída. Confira o resultado abaixo.",
		HTML:            out.HTML,
		PaymentBypassed: out.Bypass(),
		RequestID:       out.RequestID,
		Version:         common.Version,
	}
	if out.Delivery != nil {
		resp.EmailSent = out.Delivery.Delivered
		resp.EmailError = out.Delivery.Error
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) parseAnalysisRequest(w http.ResponseWriter, r *http.Request) (interfaces.AnalysisRequest, *RequestError) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return interfaces.AnalysisRequest{}, &RequestError{
				StatusCode: http.StatusRequestEntityTooLarge,
				Err:        fmt.Errorf("upload exceeds %d bytes", h.maxUploadBytes),
			}
		}
		return interfaces.AnalysisRequest{}, badRequest("invalid multipart form: %v", err)
	}

	req := interfaces.AnalysisRequest{
		RequesterName:  formValue(r, "requester_name", "nome"),
		RequesterEmail: formValue(r, "requester_email", "email"),
		Party:          formValue(r, "party_perspective", "parte"),
		UserID:         formValue(r, "user_identity", "user_id"),
		Voucher:        r.FormValue("voucher"),
	}
	if req.UserID == "" {
		return req, badRequest("user_identity is required")
	}
	if req.RequesterEmail == "" {
		return req, badRequest("requester_email is required")
	}

	// A missing file is left to the orchestrator so that authorization is
	// still decided first.
	file, header, err := formFile(r, "file", "arquivo")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		return req, badRequest("invalid file part: %v", err)
	default:
		defer file.Close()
		content, err := io.ReadAll(file)
		if err != nil {
			return req, badRequest("failed to read upload: %v", err)
		}
		req.FileName = header.Filename
		req.FileContent = content
	}

	return req, nil
}

func outcomeStatus(kind orchestrator.OutcomeKind) int {
	switch kind {
	case orchestrator.OutcomeSucceeded:
		return http.StatusOK
	case orchestrator.OutcomeClientError:
		return http.StatusBadRequest
	case orchestrator.OutcomeDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func outcomeMessage(kind orchestrator.OutcomeKind) string {
	switch kind {
	case orchestrator.OutcomeClientError:
		return "Arquivo não enviado."
	case orchestrator.OutcomeDenied:
		return "Pagamento não confirmado para este serviço. Por favor, conclua o pagamento."
	case orchestrator.OutcomeUnavailable:
		return "Serviço de banco de dados indisponível para verificar pagamento."
	case orchestrator.OutcomeGenerationFailed:
		return "IA não retornou conteúdo."
	default:
		return "Erro interno ao analisar contrato."
	}
}

// HandleCreateCheckout creates a payment checkout for a user.
//
// URL format: POST /api/pagamento/criar-checkout
// Request body: form with item_title, item_price, user_email, user_id
//
// Response: JSON containing checkout_url and payment_id
func (h *Handler) HandleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	checkout, err := h.createCheckout(w, r)
	if err != nil {
		status := http.StatusInternalServerError
		var reqErr *RequestError
		if errors.As(err, &reqErr) {
			status = reqErr.StatusCode
		}
		h.log.Error("Checkout creation failed", "err", err)
		h.writeError(w, status, "", err.Error(), "")
		return
	}

	h.writeJSON(w, http.StatusOK, checkout)
}

func (h *Handler) createCheckout(w http.ResponseWriter, r *http.Request) (*interfaces.Checkout, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := parseForm(r); err != nil {
		return nil, badRequest("invalid form: %v", err)
	}

	req := interfaces.CheckoutRequest{
		ItemTitle: r.FormValue("item_title"),
		UserEmail: r.FormValue("user_email"),
		UserID:    r.FormValue("user_id"),
	}
	if req.ItemTitle == "" || req.UserID == "" {
		return nil, badRequest("item_title and user_id are required")
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("item_price")), 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return nil, badRequest("item_price inválido")
	}
	req.ItemPrice = price

	checkout, err := h.payments.CreateCheckout(r.Context(), req)
	switch {
	case err == nil:
		return checkout, nil
	case errors.Is(err, interfaces.ErrProviderNotConfigured):
		return nil, &RequestError{StatusCode: http.StatusInternalServerError, Err: errors.New("Configuração ausente: MERCADOPAGO_ACCESS_TOKEN não está definido no servidor.")}
	case errors.Is(err, interfaces.ErrProviderResponse):
		return nil, &RequestError{StatusCode: http.StatusBadGateway, Err: errors.New("Resposta do Mercado Pago incompleta")}
	case errors.Is(err, interfaces.ErrLedgerUnavailable):
		return nil, &RequestError{StatusCode: http.StatusInternalServerError, Err: errors.New("Falha ao registrar transação")}
	default:
		return nil, &RequestError{StatusCode: http.StatusBadGateway, Err: fmt.Errorf("Falha ao criar preferência Mercado Pago: %w", err)}
	}
}

// HandleStatus reports whether a user has an approved payment.
//
// URL format: GET /api/pagamento/verificar-status?user_id=...[&policy=latest]
//
// Response: JSON containing status (approved or pending_or_rejected) and message
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, "", "user_id is required", "")
		return
	}

	policy := h.status.Policy()
	if p := r.URL.Query().Get("policy"); p != "" {
		parsed, err := gate.ParsePolicy(p)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "", err.Error(), "")
			return
		}
		policy = parsed
	}

	tx, err := h.status.Status(r.Context(), userID, policy)
	if err != nil {
		h.log.Error("Status check failed", slog.String("user_id", userID), "err", err)
		h.writeError(w, http.StatusInternalServerError, string(orchestrator.OutcomeUnavailable), "Erro interno ao verificar status de pagamento.", "")
		return
	}

	h.writeJSON(w, http.StatusOK, payments.ReportStatus(tx))
}

// HandleWebhook accepts payment provider notifications. It always answers
// 200 so the provider never redelivers.
//
// URL format: POST /api/pagamento/webhook-mercadopago?type=payment&data.id=...
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		h.log.Warn("Failed to read webhook body", "err", err)
	}

	result := h.payments.HandleNotification(r.Context(), payments.WebhookRequest{
		Notification: payments.ParseNotification(r.URL.Query(), body),
		Signature:    r.Header.Get("x-signature"),
		RequestID:    r.Header.Get("x-request-id"),
	})
	h.log.Debug("Webhook processed", slog.String("result", string(result)))

	h.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, outcome, msg, requestID string) {
	h.writeJSON(w, status, errorResponse{
		OK:        false,
		Outcome:   outcome,
		Error:     msg,
		RequestID: requestID,
		Version:   common.Version,
	})
}

func parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(multipartMemory)
	}
	return r.ParseForm()
}

// formValue returns the first non-empty value among the given field names.
func formValue(r *http.Request, names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(r.FormValue(name)); v != "" {
			return v
		}
	}
	return ""
}

func formFile(r *http.Request, names ...string) (multipart.File, *multipart.FileHeader, error) {
	for _, name := range names {
		file, header, err := r.FormFile(name)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		return file, header, err
	}
	return nil, nil, http.ErrMissingFile
}
