package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/profiledesk/apiserver/internal/services"
)

const (
	maxMultipartMemory = 8 << 20
	maxUploadBodyBytes = 24 << 20
	formFieldAvatar    = "avatar"
	formFieldBanner    = "banner"
)

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	profileService *services.ProfileService
	logger         *slog.Logger
}

func NewProfileHandler(profileService *services.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		logger:         loggerOrDefault(logger),
	}
}

// ProfileRouter registers profile routes. Every route requires a session.
func ProfileRouter(r chi.Router, profileService *services.ProfileService, authMiddleware func(http.Handler) http.Handler, logger *slog.Logger) {
	handler := NewProfileHandler(profileService, logger)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/profile", handler.GetProfile)
		r.Put("/profile", handler.UpdateProfile)
		r.Put("/password", handler.ChangePassword)
		r.Put("/avatar", handler.uploadImage(services.MediaAvatar, formFieldAvatar))
		r.Put("/banner", handler.uploadImage(services.MediaBanner, formFieldBanner))
	})
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	account, err := h.profileService.Get(r.Context(), accountID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{User: account.Profile()})
}

func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, err := h.profileService.Update(r.Context(), accountID, services.ProfileUpdate{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Bio:        req.Bio,
		Position:   req.Position,
		Department: req.Department,
		Avatar:     req.Avatar,
		Banner:     req.Banner,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{
		Message: "Profile updated successfully",
		User:    account.Profile(),
	})
}

func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.profileService.ChangePassword(r.Context(), accountID, services.PasswordChange{
		Current: req.CurrentPassword,
		New:     req.NewPassword,
		Confirm: req.ConfirmPassword,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Password updated successfully"})
}

func (h *ProfileHandler) uploadImage(kind services.MediaKind, field string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := accountIDFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBodyBytes)
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusBadRequest, "Request body too large")
				return
			}
			writeError(w, http.StatusBadRequest, "No file provided")
			return
		}
		defer func() {
			_ = r.MultipartForm.RemoveAll()
		}()

		file, header, err := r.FormFile(field)
		if err != nil {
			writeError(w, http.StatusBadRequest, "No file provided")
			return
		}
		defer file.Close()

		url, err := h.profileService.SetImage(r.Context(), accountID, kind, services.Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		})
		if err != nil {
			writeServiceError(w, r, h.logger, err)
			return
		}

		resp := ImageResponse{}
		if kind == services.MediaBanner {
			resp.Message = "Banner updated successfully"
			resp.Banner = url
		} else {
			resp.Message = "Avatar updated successfully"
			resp.Avatar = url
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// UpdateProfileRequest uses pointers so omitted fields stay untouched.
type UpdateProfileRequest struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
	Bio        *string `json:"bio"`
	Position   *string `json:"position"`
	Department *string `json:"department"`
	Avatar     *string `json:"avatar"`
	Banner     *string `json:"banner"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type ImageResponse struct {
	Message string `json:"message"`
	Avatar  string `json:"avatar,omitempty"`
	Banner  string `json:"banner,omitempty"`
}
