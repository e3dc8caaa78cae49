package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/astroprofile/internal/common"
	"github.com/dmitrijs2005/astroprofile/internal/server/models"
	"github.com/dmitrijs2005/astroprofile/internal/server/profile"
	"github.com/dmitrijs2005/astroprofile/internal/server/services"
)

const (
	maxJSONBody      = 1 << 20
	maxMultipartBody = 10 << 20
)

type messageResponse struct {
	Message string `json:"message"`
}

type validationResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type registerResponse struct {
	Message string             `json:"message"`
	User    *models.PublicUser `json:"user"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type updateProfileResponse struct {
	Message string         `json:"message"`
	Profile models.Profile `json:"profile"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(v)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := s.users.Register(r.Context(), services.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
	})
	if err != nil {
		var verr *common.ValidationError
		switch {
		case errors.As(err, &verr):
			s.metrics.observeOperation("register", OutcomeRejected)
			writeJSON(w, http.StatusBadRequest, validationResponse{Message: "Validation failed", Errors: verr.Violations})
		case errors.Is(err, common.ErrDuplicateUsername):
			s.metrics.observeOperation("register", OutcomeRejected)
			writeMessage(w, http.StatusBadRequest, "Username already exists")
		default:
			s.metrics.observeOperation("register", OutcomeError)
			writeMessage(w, http.StatusInternalServerError, "Registration failed")
		}
		return
	}

	s.metrics.observeOperation("register", OutcomeSuccess)
	writeJSON(w, http.StatusCreated, registerResponse{Message: "Registration successful", User: user})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := s.users.Login(r.Context(), services.LoginInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrUserNotFound):
			s.metrics.observeOperation("login", OutcomeRejected)
			writeMessage(w, http.StatusUnauthorized, "User not found")
		case errors.Is(err, common.ErrInvalidCredentials):
			s.metrics.observeOperation("login", OutcomeRejected)
			writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
		default:
			s.metrics.observeOperation("login", OutcomeError)
			writeMessage(w, http.StatusInternalServerError, "Server error")
		}
		return
	}

	s.metrics.observeOperation("login", OutcomeSuccess)
	writeJSON(w, http.StatusOK, loginResponse{Message: "Login successful", Token: token})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	view, err := s.users.GetProfile(r.Context(), SessionFrom(r.Context()))
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// handleUpdateProfile accepts either a JSON object or a multipart form whose
// text fields become profile entries and whose profilePicture file part is
// stored as an attachment.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		update     map[string]any
		attachment *profile.Attachment
	)

	if isMultipart(r) {
		r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBody)
		if err := r.ParseMultipartForm(maxMultipartBody); err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		update = make(map[string]any, len(r.MultipartForm.Value))
		for k, vs := range r.MultipartForm.Value {
			if len(vs) > 0 {
				update[k] = vs[0]
			}
		}

		// reject a bad birthday before anything is written to storage
		if raw, ok := update[common.ProfileKeyBirthday]; ok && strings.TrimSpace(raw.(string)) != "" {
			if _, err := profile.ParseBirthday(raw); err != nil {
				writeMessage(w, http.StatusBadRequest, "Invalid birthday date")
				return
			}
		}

		if files := r.MultipartForm.File[common.ProfileKeyProfilePicture]; len(files) > 0 {
			f, err := files[0].Open()
			if err != nil {
				writeMessage(w, http.StatusBadRequest, "Invalid request body")
				return
			}
			defer f.Close()

			path, err := s.attachments.Save(ctx, f, files[0].Header.Get("Content-Type"))
			if err != nil {
				s.logger.Error(ctx, "store attachment failed", "error", err.Error())
				writeMessage(w, http.StatusInternalServerError, "Server error")
				return
			}
			attachment = &profile.Attachment{Path: path}
		}
	} else {
		if err := decodeJSON(w, r, &update); err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	next, err := s.users.UpdateProfile(ctx, SessionFrom(ctx), update, attachment)
	if err != nil {
		if attachment != nil {
			s.discardAttachment(ctx, attachment.Path)
		}
		switch {
		case errors.Is(err, common.ErrInvalidDate):
			s.metrics.observeOperation("update_profile", OutcomeRejected)
			writeMessage(w, http.StatusBadRequest, "Invalid birthday date")
		case errors.Is(err, common.ErrUserNotFound):
			s.metrics.observeOperation("update_profile", OutcomeRejected)
			writeMessage(w, http.StatusNotFound, "User not found")
		default:
			s.metrics.observeOperation("update_profile", OutcomeError)
			writeMessage(w, http.StatusInternalServerError, "Server error")
		}
		return
	}

	s.metrics.observeOperation("update_profile", OutcomeSuccess)
	writeJSON(w, http.StatusOK, updateProfileResponse{Message: "Profile updated successfully", Profile: next})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.users.Logout(r.Context(), SessionFrom(r.Context())); err != nil {
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}
	s.metrics.observeOperation("logout", OutcomeSuccess)
	writeMessage(w, http.StatusOK, "Logout successful")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data")
}

// discardAttachment removes an upload that no profile ended up referencing.
func (s *Server) discardAttachment(ctx context.Context, path string) {
	if err := s.attachments.Delete(context.WithoutCancel(ctx), path); err != nil {
		s.logger.Error(ctx, "orphaned attachment left in storage", "path", path, "error", err.Error())
		return
	}
	s.logger.Info(ctx, "discarded unreferenced attachment", "path", path)
}
