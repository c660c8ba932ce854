package ui

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/de-tools/alm-console/pkg/format"
	"github.com/de-tools/alm-console/pkg/models/api"
	"github.com/de-tools/alm-console/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type conversationResponse struct {
	fragment
	Documents string `json:"documents,omitempty"`
}

func (h *Handler) conversation(state *session.State, n ...format.Notification) (conversationResponse, error) {
	html, err := h.renderer.Messages(state.Chat.Messages(), state.Chat.Typing())
	if err != nil {
		return conversationResponse{}, err
	}
	docs, err := h.renderer.Documents(state.Chat.Documents())
	if err != nil {
		return conversationResponse{}, err
	}
	return conversationResponse{
		fragment:  fragment{HTML: html, Notifications: notices(n...)},
		Documents: docs,
	}, nil
}

func readMessage(r *http.Request) (string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req api.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", fmt.Errorf("%w: %v", errBadRequest, err)
		}
		return req.Message, nil
	}
	return r.FormValue("message"), nil
}

// SendMessage posts the user's message to the assistant and returns the updated conversation.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	state, ok := h.state(w, r)
	if !ok {
		return
	}

	text, err := readMessage(r)
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	h.chat.Send(r.Context(), state.Chat, text)

	body, err := h.conversation(state)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeJSON(w, r, http.StatusOK, body)
}

// ClearChat requires ?confirm=true. Local history survives a failed backend reset.
func (h *Handler) ClearChat(w http.ResponseWriter, r *http.Request) {
	state, ok := h.state(w, r)
	if !ok {
		return
	}

	confirmed := r.URL.Query().Get("confirm") == "true"
	notice, err := h.chat.Clear(r.Context(), state.Chat, confirmed)
	if err != nil {
		writeError(w, r, err, "", notice)
		return
	}

	body, err := h.conversation(state, notice)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeJSON(w, r, http.StatusOK, body)
}

func (h *Handler) documents(w http.ResponseWriter, r *http.Request, state *session.State, n ...format.Notification) {
	html, err := h.renderer.Documents(state.Chat.Documents())
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeJSON(w, r, http.StatusOK, fragment{HTML: html, Notifications: notices(n...)})
}

func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	state, ok := h.state(w, r)
	if !ok {
		return
	}

	if err := h.chat.RefreshDocuments(r.Context(), state.Chat); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("failed to refresh documents")
	}
	h.documents(w, r, state)
}

func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	state, ok := h.state(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err), "", format.Error("Invalid upload request"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	f, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err), "", format.Error("No document selected"))
		return
	}
	defer f.Close()

	notice, err := h.chat.UploadDocument(r.Context(), state.Chat, header.Filename, f)
	if err != nil {
		writeError(w, r, err, "", notice)
		return
	}
	h.documents(w, r, state, notice)
}

type previewResponse struct {
	fragment
	Filename string `json:"filename"`
}

func (h *Handler) PreviewDocument(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	preview, err := h.chat.Preview(r.Context(), name)
	if err != nil {
		writeError(w, r, err, "", format.Error("Preview not available"))
		return
	}

	html, err := h.renderer.DocumentPreview(preview)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeJSON(w, r, http.StatusOK, previewResponse{
		fragment: fragment{HTML: html, Notifications: notices()},
		Filename: preview.Filename,
	})
}

func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	state, ok := h.state(w, r)
	if !ok {
		return
	}

	notice, err := h.chat.DeleteDocument(r.Context(), state.Chat, chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, err, "", notice)
		return
	}
	h.documents(w, r, state, notice)
}
