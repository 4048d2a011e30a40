package webhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	svix "github.com/svix/svix-webhooks/go"

	"github.com/evently/webhook-service/internal/clerk"
	"github.com/evently/webhook-service/internal/idempotency"
	"github.com/evently/webhook-service/internal/metrics"
	"github.com/evently/webhook-service/internal/user"
	"github.com/evently/webhook-service/pkg/dto"
	apperrors "github.com/evently/webhook-service/pkg/errors"
	"github.com/evently/webhook-service/pkg/logging"
	"github.com/evently/webhook-service/pkg/server"
)

// Signature headers sent with every delivery.
const (
	HeaderID        = "svix-id"
	HeaderTimestamp = "svix-timestamp"
	HeaderSignature = "svix-signature"
)

const (
	maxBodyBytes         = 1 << 20
	defaultDeliveryTTL   = 24 * time.Hour
	metadataWriteTimeout = 10 * time.Second

	errMissingHeaders = "Error occured -- no svix headers"
)

// ErrMissingSecret is returned when the handler is built without a signing secret.
var ErrMissingSecret = errors.New("webhook signing secret is missing")

// Verifier checks a raw payload against the signature headers.
type Verifier interface {
	Verify(payload []byte, headers http.Header) error
}

// Config wires a Handler. Secret and Users are required.
type Config struct {
	Secret      string
	Users       user.Service
	Metadata    clerk.MetadataWriter
	Deliveries  idempotency.Store
	DeliveryTTL time.Duration
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// Handler synchronizes identity provider users from signed webhook deliveries.
type Handler struct {
	verifier    Verifier
	users       user.Service
	metadata    clerk.MetadataWriter
	deliveries  idempotency.Store
	deliveryTTL time.Duration
	metrics     *metrics.Metrics
	logger      *slog.Logger

	writes sync.WaitGroup
}

// NewHandler validates cfg and builds the signature verifier.
func NewHandler(cfg Config) (*Handler, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	if cfg.Users == nil {
		return nil, errors.New("webhook handler requires a user service")
	}

	wh, err := svix.NewWebhook(cfg.Secret)
	if err != nil {
		return nil, err
	}

	h := &Handler{
		verifier:    wh,
		users:       cfg.Users,
		metadata:    cfg.Metadata,
		deliveries:  cfg.Deliveries,
		deliveryTTL: cfg.DeliveryTTL,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
	}
	if h.deliveries == nil {
		h.deliveries = idempotency.Noop()
	}
	if h.deliveryTTL <= 0 {
		h.deliveryTTL = defaultDeliveryTTL
	}
	if h.logger == nil {
		h.logger = logging.Discard()
	}
	return h, nil
}

// Register mounts the handler on its public path and the legacy misspelled one.
func (h *Handler) Register(r chi.Router) {
	r.HandleFunc("/api/webhook/clerk", h.ServeHTTP)
	r.HandleFunc("/api/webhook/cleck", h.ServeHTTP)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	logger := logging.WithRequestID(r.Context(), h.logger)

	msgID := r.Header.Get(HeaderID)
	msgTimestamp := r.Header.Get(HeaderTimestamp)
	msgSignature := r.Header.Get(HeaderSignature)
	if msgID == "" || msgTimestamp == "" || msgSignature == "" {
		h.metrics.Webhook("", metrics.OutcomeRejected)
		writeError(w, http.StatusBadRequest, errMissingHeaders)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.metrics.Webhook("", metrics.OutcomeRejected)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "unable to read body")
		return
	}

	headers := http.Header{}
	headers.Set(HeaderID, msgID)
	headers.Set(HeaderTimestamp, msgTimestamp)
	headers.Set(HeaderSignature, msgSignature)
	if err := h.verifier.Verify(body, headers); err != nil {
		logger.Warn("error verifying webhook", slog.String("svixId", msgID), slog.Any("error", err))
		h.metrics.Webhook("", metrics.OutcomeRejected)
		server.WriteJSON(w, http.StatusBadRequest, map[string]string{"Error": err.Error()})
		return
	}

	evt, err := ParseEvent(body)
	if err != nil {
		logger.Warn("invalid webhook payload", slog.String("svixId", msgID), slog.Any("error", err))
		h.metrics.Webhook("", metrics.OutcomeRejected)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	eventType := string(evt.Type)
	logger = logger.With(slog.String("svixId", msgID), slog.String("eventType", eventType))

	first, err := h.deliveries.Claim(r.Context(), msgID, h.deliveryTTL)
	if err != nil {
		// Without the store we cannot tell duplicates apart; process anyway.
		logger.Warn("delivery claim failed", slog.Any("error", err))
		first = true
	}
	if !first {
		logger.Info("duplicate delivery ignored")
		h.metrics.Webhook(eventType, metrics.OutcomeDuplicate)
		server.WriteJSON(w, http.StatusOK, dto.AckResponse{Response: "Duplicate"})
		return
	}

	if err := h.dispatch(w, r, logger, evt); err != nil {
		if relErr := h.deliveries.Release(context.WithoutCancel(r.Context()), msgID); relErr != nil {
			logger.Warn("delivery release failed", slog.Any("error", relErr))
		}
		status, message := classify(err)
		if status >= http.StatusInternalServerError {
			logger.Error("webhook processing failed", slog.Any("error", err))
			h.metrics.Webhook(eventType, metrics.OutcomeFailed)
		} else {
			logger.Warn("webhook rejected", slog.Any("error", err))
			h.metrics.Webhook(eventType, metrics.OutcomeRejected)
		}
		writeError(w, status, message)
	}
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, logger *slog.Logger, evt Event) error {
	ctx := r.Context()

	switch evt.Type {
	case EventUserCreated:
		data, err := decodeData[UserData](evt)
		if err != nil {
			return err
		}
		record, err := data.NewUser()
		if err != nil {
			return err
		}
		created, err := h.users.Create(ctx, record)
		if err != nil {
			return err
		}
		if created != nil {
			h.writeBackLocalID(ctx, logger, created)
		}
		logger.Info("user created", slog.String("clerkId", record.ClerkID))
		h.metrics.Webhook(string(evt.Type), metrics.OutcomeProcessed)
		server.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "Ok", User: created})

	case EventUserUpdated:
		data, err := decodeData[UserData](evt)
		if err != nil {
			return err
		}
		updated, err := h.users.Update(ctx, data.ID, data.Update())
		if err != nil {
			return err
		}
		logger.Info("user updated", slog.String("clerkId", data.ID))
		h.metrics.Webhook(string(evt.Type), metrics.OutcomeProcessed)
		server.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "OK", User: updated})

	case EventUserDeleted:
		data, err := decodeData[DeletedData](evt)
		if err != nil {
			return err
		}
		deleted, err := h.users.Delete(ctx, data.ID)
		if err != nil {
			return err
		}
		logger.Info("user deleted", slog.String("clerkId", data.ID), slog.Bool("existed", deleted != nil))
		h.metrics.Webhook(string(evt.Type), metrics.OutcomeProcessed)
		server.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "OK", User: deleted})

	default:
		logger.Info("webhook received", slog.String("dataId", evt.DataID()), slog.Int("bodyBytes", len(evt.Data)))
		h.metrics.Webhook(string(evt.Type), metrics.OutcomeIgnored)
		server.WriteJSON(w, http.StatusOK, dto.AckResponse{Response: "Success"})
	}
	return nil
}

// writeBackLocalID tags the provider user with the local id in the background.
// Failures are logged and never change the webhook response.
func (h *Handler) writeBackLocalID(ctx context.Context, logger *slog.Logger, created *user.User) {
	if h.metadata == nil {
		h.metrics.MetadataWrite(metrics.OutcomeSkipped)
		return
	}

	ctx = context.WithoutCancel(ctx)
	h.writes.Add(1)
	go func() {
		defer h.writes.Done()

		ctx, cancel := context.WithTimeout(ctx, metadataWriteTimeout)
		defer cancel()

		err := h.metadata.UpdatePublicMetadata(ctx, created.ClerkID, map[string]any{"userId": created.ID})
		switch {
		case errors.Is(err, clerk.ErrDisabled):
			h.metrics.MetadataWrite(metrics.OutcomeSkipped)
		case err != nil:
			logger.Error("metadata write-back failed", slog.String("clerkId", created.ClerkID), slog.Any("error", err))
			h.metrics.MetadataWrite(metrics.OutcomeFailed)
		default:
			h.metrics.MetadataWrite(metrics.OutcomeSucceeded)
		}
	}()
}

// Wait blocks until in-flight metadata write-backs finish or ctx expires.
func (h *Handler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.writes.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// classify maps a dispatch error to a status and a client-safe message.
// Persistence failures are reported as 500 without their details.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, errInvalidPayload), errors.Is(err, user.ErrInvalidInput):
		return apperrors.ToStatusCode(apperrors.CodeBadRequest), err.Error()
	case errors.Is(err, user.ErrNotFound):
		return apperrors.ToStatusCode(apperrors.CodeNotFound), err.Error()
	case errors.Is(err, user.ErrConflict):
		return apperrors.ToStatusCode(apperrors.CodeConflict), err.Error()
	default:
		return apperrors.ToStatusCode(apperrors.CodeInternal), "failed to sync user"
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	server.WriteJSON(w, status, apperrors.ErrorResponse{Error: message})
}
