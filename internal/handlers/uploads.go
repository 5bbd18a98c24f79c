package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/raman-prints/api/internal/platform/auth"
	"github.com/raman-prints/api/internal/platform/httpx"
	"github.com/raman-prints/api/internal/platform/storage"
)

const (
	maxUploadBodySize    = 8 * 1024
	defaultUploadMaxSize = 25 << 20
	defaultUploadTTL     = 15 * time.Minute
	uploadIDPrefix       = "up_"
)

var defaultUploadContentTypes = []string{
	"application/pdf",
	"image/png",
	"image/jpeg",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// UploadURLSigner issues signed URLs for direct-to-bucket uploads.
type UploadURLSigner interface {
	SignedURL(ctx context.Context, bucket, object string, opts storage.SignedURLOptions) (storage.SignedURLResult, error)
}

// UploadHandlersDeps bundles constructor inputs for UploadHandlers.
type UploadHandlersDeps struct {
	Authn               *auth.Authenticator
	Signer              UploadURLSigner
	Bucket              string
	TTL                 time.Duration
	MaxSizeBytes        int64
	AllowedContentTypes []string
	IDGenerator         func() string
}

// UploadHandlers signs upload URLs so order documents go straight to Cloud Storage.
type UploadHandlers struct {
	authn        *auth.Authenticator
	signer       UploadURLSigner
	bucket       string
	ttl          time.Duration
	maxSize      int64
	contentTypes []string
	newID        func() string
}

// NewUploadHandlers constructs a new UploadHandlers instance.
func NewUploadHandlers(deps UploadHandlersDeps) (*UploadHandlers, error) {
	if deps.Signer == nil {
		return nil, errors.New("upload handlers: signer is required")
	}
	if strings.TrimSpace(deps.Bucket) == "" {
		return nil, errors.New("upload handlers: bucket is required")
	}

	ttl := deps.TTL
	if ttl <= 0 {
		ttl = defaultUploadTTL
	}
	maxSize := deps.MaxSizeBytes
	if maxSize <= 0 {
		maxSize = defaultUploadMaxSize
	}
	contentTypes := deps.AllowedContentTypes
	if len(contentTypes) == 0 {
		contentTypes = defaultUploadContentTypes
	}
	newID := deps.IDGenerator
	if newID == nil {
		newID = func() string {
			return uploadIDPrefix + ulid.Make().String()
		}
	}

	return &UploadHandlers{
		authn:        deps.Authn,
		signer:       deps.Signer,
		bucket:       strings.TrimSpace(deps.Bucket),
		ttl:          ttl,
		maxSize:      maxSize,
		contentTypes: contentTypes,
		newID:        newID,
	}, nil
}

// Routes registers the /uploads endpoints.
func (h *UploadHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth())
	}
	r.Post("/sign", h.sign)
}

type signUploadRequest struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	ContentMD5  string `json:"content_md5"`
	SizeBytes   int64  `json:"size_bytes"`
}

type signUploadResponse struct {
	UploadID   string            `json:"upload_id"`
	ObjectName string            `json:"object_name"`
	URL        string            `json:"url"`
	Method     string            `json:"method"`
	Headers    map[string]string `json:"headers,omitempty"`
	ExpiresAt  string            `json:"expires_at"`
}

func (h *UploadHandlers) sign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := requireIdentity(ctx, w)
	if identity == nil {
		return
	}

	var req signUploadRequest
	if err := decodeJSONBody(r, maxUploadBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	fileName := strings.TrimSpace(req.FileName)
	if fileName == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "file_name is required", http.StatusBadRequest))
		return
	}
	contentType := strings.TrimSpace(req.ContentType)
	if contentType == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "content_type is required", http.StatusBadRequest))
		return
	}
	if req.SizeBytes > h.maxSize {
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "file exceeds the allowed upload size", http.StatusRequestEntityTooLarge))
		return
	}

	uploadID := h.newID()
	object, err := storage.BuildObjectPath(storage.PurposeOrderUpload, storage.PathParams{
		UserID:   identity.UID,
		UploadID: uploadID,
		FileName: fileName,
	})
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	result, err := h.signer.SignedURL(ctx, h.bucket, object, storage.SignedURLOptions{
		Upload: &storage.UploadOptions{
			Method:              http.MethodPut,
			ContentType:         contentType,
			ContentMD5:          strings.TrimSpace(req.ContentMD5),
			AllowedContentTypes: h.contentTypes,
			MaxSize:             h.maxSize,
			ExpiresIn:           h.ttl,
		},
	})
	if err != nil {
		writeUploadError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, signUploadResponse{
		UploadID:   uploadID,
		ObjectName: object,
		URL:        result.URL,
		Method:     result.Method,
		Headers:    result.Headers,
		ExpiresAt:  formatTime(result.ExpiresAt),
	})
}

func writeUploadError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case storage.IsValidationError(err):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("upload_error", "failed to sign upload url", http.StatusInternalServerError))
	}
}
