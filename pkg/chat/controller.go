package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/de-tools/alm-console/pkg/format"
	"github.com/de-tools/alm-console/pkg/models/api"
	"github.com/de-tools/alm-console/pkg/models/domain"
	"github.com/de-tools/alm-console/pkg/store/client"
	"github.com/rs/zerolog"
)

const (
	ErrorReply      = "Sorry, I encountered an error. Please try again."
	ConnectionReply = "Connection error. Please check your network."
)

var ErrNotConfirmed = errors.New("chat clear requires confirmation")

type Backend interface {
	Chat(ctx context.Context, message string) (api.ChatResponse, error)
	UploadDocument(ctx context.Context, fileName string, file io.Reader) (api.DocumentUploadResponse, error)
	ChatHistory(ctx context.Context) (api.ChatHistory, error)
	UploadedDocuments(ctx context.Context) (api.UploadedDocuments, error)
	PreviewDocument(ctx context.Context, fileName string) (api.DocumentPreview, error)
	DeleteDocument(ctx context.Context, fileName string) error
	ClearChat(ctx context.Context) error
}

type Controller struct {
	backend Backend
}

func NewController(backend Backend) *Controller {
	return &Controller{backend: backend}
}

// Send posts text to the assistant and appends both sides of the exchange.
// Blank input is ignored and reported with false.
func (c *Controller) Send(ctx context.Context, conv *Conversation, text string) (domain.ChatMessage, bool) {
	logger := zerolog.Ctx(ctx)

	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ChatMessage{}, false
	}

	conv.add(domain.MessageUser, text)
	conv.setTyping(true)
	defer conv.setTyping(false)

	resp, err := c.backend.Chat(ctx, text)
	reply := resp.Response
	if err != nil {
		logger.Warn().Err(err).Msg("chat request failed")
		reply = ConnectionReply
		if client.IsStatus(err) {
			reply = ErrorReply
		}
	}

	return conv.add(domain.MessageAssistant, reply), true
}

func (c *Controller) UploadDocument(ctx context.Context, conv *Conversation, fileName string, file io.Reader) (format.Notification, error) {
	if fileName == "" || file == nil {
		return format.Error("No document selected"), errors.New("no document provided")
	}

	resp, err := c.backend.UploadDocument(ctx, fileName, file)
	if err != nil {
		return format.Error(fmt.Sprintf("Error uploading %s: %s", fileName, reason(err))), err
	}

	if err := c.RefreshDocuments(ctx, conv); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to refresh documents after upload")
	}

	msg := resp.Message
	if msg == "" {
		msg = fmt.Sprintf("%s uploaded", fileName)
	}
	return format.Success(msg), nil
}

// Restore reloads the document list when the backend still holds documents
// for this user.
func (c *Controller) Restore(ctx context.Context, conv *Conversation) error {
	history, err := c.backend.ChatHistory(ctx)
	if err != nil {
		return fmt.Errorf("failed to read chat history: %w", err)
	}
	if !history.Success || history.DocumentsCount == 0 {
		conv.setDocuments(nil)
		return nil
	}
	return c.RefreshDocuments(ctx, conv)
}

// RefreshDocuments replaces the local document list with the backend's. The
// list is left untouched when the backend cannot be reached.
func (c *Controller) RefreshDocuments(ctx context.Context, conv *Conversation) error {
	resp, err := c.backend.UploadedDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to list uploaded documents: %w", err)
	}

	if !resp.Success || resp.Count == 0 {
		conv.setDocuments(nil)
		return nil
	}
	conv.setDocuments(resp.Documents)
	return nil
}

func (c *Controller) Preview(ctx context.Context, fileName string) (api.DocumentPreview, error) {
	preview, err := c.backend.PreviewDocument(ctx, fileName)
	if err != nil {
		return preview, fmt.Errorf("failed to preview %s: %w", fileName, err)
	}
	if !preview.Success {
		return preview, fmt.Errorf("preview of %s is not available", fileName)
	}
	if preview.Filename == "" {
		preview.Filename = fileName
	}
	return preview, nil
}

func (c *Controller) DeleteDocument(ctx context.Context, conv *Conversation, fileName string) (format.Notification, error) {
	if err := c.backend.DeleteDocument(ctx, fileName); err != nil {
		return format.Error("Error deleting document"), fmt.Errorf("failed to delete %s: %w", fileName, err)
	}

	if err := c.RefreshDocuments(ctx, conv); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to refresh documents after delete")
	}
	return format.Success("Document deleted"), nil
}

// Clear wipes the conversation once the backend has accepted the reset.
func (c *Controller) Clear(ctx context.Context, conv *Conversation, confirmed bool) (format.Notification, error) {
	if !confirmed {
		return format.Notification{}, ErrNotConfirmed
	}

	if err := c.backend.ClearChat(ctx); err != nil {
		return format.Error("Error clearing chat"), fmt.Errorf("failed to clear chat: %w", err)
	}

	conv.clear()
	return format.Success("Chat history cleared"), nil
}

func reason(err error) string {
	var se *client.StatusError
	if errors.As(err, &se) {
		return se.Message
	}
	return "Upload failed"
}
