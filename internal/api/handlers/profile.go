package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wealthwise/wealthwise/internal/api/middleware"
	"github.com/wealthwise/wealthwise/internal/blobstore"
	"github.com/wealthwise/wealthwise/internal/domain"
	"github.com/wealthwise/wealthwise/internal/gateway"
)

// maxAvatarBytes caps avatar uploads at 5 MiB.
const maxAvatarBytes = 5 << 20

// ProfileHandler serves the profile document and avatar uploads.
type ProfileHandler struct {
	registry *Registry
	gw       *gateway.Gateway
	blobs    blobstore.Uploader
	log      zerolog.Logger
}

// NewProfileHandler creates a profile handler.
func NewProfileHandler(registry *Registry, gw *gateway.Gateway, blobs blobstore.Uploader, log zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{registry: registry, gw: gw, blobs: blobs, log: log}
}

// Get handles GET /api/profile. A missing profile document is "none yet",
// not an error.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	doc, found, state, err := h.registry.For(uid).Profile.Snapshot()
	if writeBindingState(w, state, err) {
		return
	}
	if !found {
		middleware.WriteJSON(w, http.StatusOK, map[string]any{"profile": nil})
		return
	}

	p := domain.ProfileFromFields(doc.Fields)
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"profile": map[string]string{
			"name":   p.Name,
			"email":  p.Email,
			"avatar": p.Avatar,
		},
	})
}

// Update handles PUT /api/profile: a merge, never a full overwrite.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.gw.SaveProfile(r.Context(), uid, domain.UserProfile{Name: req.Name, Email: req.Email})
	if err != nil {
		writeMutationError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// UploadAvatar handles POST /api/profile/avatar: multipart upload to blob
// storage, then the download URL is merged into the profile document.
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "avatar file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAvatarBytes+1))
	if err != nil {
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to read upload")
		return
	}
	if len(data) > maxAvatarBytes {
		middleware.WriteError(w, http.StatusRequestEntityTooLarge, "Avatar exceeds size limit")
		return
	}

	objectName := fmt.Sprintf("avatars/%s/%s%s", uid, uuid.New().String(), filepath.Ext(header.Filename))
	contentType := header.Header.Get("Content-Type")

	url, err := h.blobs.Upload(r.Context(), objectName, contentType, data)
	if err != nil {
		h.log.Error().Err(err).Str("uid", uid).Msg("Avatar upload failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Avatar upload failed")
		return
	}

	if err := h.gw.SetAvatar(r.Context(), uid, url); err != nil {
		writeMutationError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"avatar": url})
}
