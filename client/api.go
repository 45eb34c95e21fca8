// Copyright (C) 2025 chatlink.net <dev@chatlink.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/chatlinknet/chatlink/backend/models"
)

// API calls the message delivery endpoints. Messages are sent over HTTP
// rather than the socket so a send is durable before anyone is notified.
type API struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewAPI(baseURL, token string) *API {
	return &API{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SendResult is the server's synchronous answer to a send; the caller's
// UI reflects Message immediately, without waiting for any socket event.
type SendResult struct {
	Message        models.Message
	ConversationID string
}

// SendMessage posts a message to receiverID. image, when non-empty, is a
// base64 payload the server stores before the message is persisted.
func (a *API) SendMessage(ctx context.Context, receiverID, message, image, imageContentType string) (*SendResult, error) {
	body, err := json.Marshal(map[string]string{
		"message":          message,
		"image":            image,
		"imageContentType": imageContentType,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode send request")
	}

	var resp struct {
		Success        bool           `json:"success"`
		Message        string         `json:"message"`
		ConversationID string         `json:"conversationId"`
		ResponseData   models.Message `json:"responseData"`
	}
	if err := a.do(ctx, http.MethodPost, "/api/chat/message/send/"+url.PathEscape(receiverID), body, &resp); err != nil {
		return nil, err
	}

	return &SendResult{Message: resp.ResponseData, ConversationID: resp.ConversationID}, nil
}

// GetMessages fetches one cursor page of history with partnerID, newest
// first. A nil returned cursor means history is exhausted.
func (a *API) GetMessages(ctx context.Context, partnerID string, cursor *time.Time, limit int) (*models.MessagePage, error) {
	q := url.Values{}
	if cursor != nil {
		q.Set("cursor", cursor.UTC().Format(time.RFC3339Nano))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	path := "/api/chat/message/get-messages/" + url.PathEscape(partnerID)
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}

	var resp struct {
		Success    bool             `json:"success"`
		Messages   []models.Message `json:"messages"`
		NextCursor *string          `json:"nextCursor"`
	}
	if err := a.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	page := &models.MessagePage{Messages: resp.Messages}
	if resp.NextCursor != nil {
		ts, err := time.Parse(time.RFC3339Nano, *resp.NextCursor)
		if err != nil {
			return nil, errors.Wrap(err, "server returned malformed cursor")
		}
		page.NextCursor = &ts
	}
	return page, nil
}

// ClearChat deletes the whole conversation with partnerID.
func (a *API) ClearChat(ctx context.Context, partnerID string) error {
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	return a.do(ctx, http.MethodDelete, "/api/chat/message/clear-chat/"+url.PathEscape(partnerID), nil, &resp)
}

func (a *API) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.token)

	res, err := a.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		var apiErr struct {
			Message string `json:"message"`
		}
		json.NewDecoder(res.Body).Decode(&apiErr)
		if apiErr.Message == "" {
			apiErr.Message = res.Status
		}
		if res.StatusCode < 500 {
			return models.Validationf("%s", apiErr.Message)
		}
		return errors.Errorf("server error: %s", apiErr.Message)
	}

	if out == nil {
		return nil
	}
	return errors.Wrap(json.NewDecoder(res.Body).Decode(out), "failed to decode response")
}
