package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/itchan-dev/discussion/shared/api"
	"github.com/itchan-dev/discussion/shared/domain"
	internal_errors "github.com/itchan-dev/discussion/shared/errors"
	"github.com/itchan-dev/discussion/shared/utils"
)

func (c *APIClient) threadURL(id domain.ThreadId, suffix string) string {
	return c.ThreadsURL + strconv.FormatInt(id, 10) + "/" + suffix
}

func (c *APIClient) ListThreads(ctx context.Context, category domain.Category, sort domain.Sort) ([]domain.Thread, error) {
	params := url.Values{}
	if category != "" && category != domain.CategoryAll {
		params.Set("category", category)
	}
	if sort == "" {
		sort = domain.SortRecent
	}
	params.Set("sort", string(sort))

	r := request{op: "list_threads", method: http.MethodGet, url: c.ThreadsURL + "?" + params.Encode()}
	var raw json.RawMessage
	if err := c.call(ctx, r, &raw); err != nil {
		return nil, err
	}
	return decodeThreadList(raw)
}

// decodeThreadList accepts both a bare array and a {"results": [...]} envelope.
func decodeThreadList(raw json.RawMessage) ([]domain.Thread, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var threads []domain.Thread
		if err := json.Unmarshal(trimmed, &threads); err != nil {
			return nil, fmt.Errorf("cannot decode thread list: %w", err)
		}
		return threads, nil
	}
	var envelope api.ThreadListResponse
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("cannot decode thread list: %w", err)
	}
	if envelope.Results == nil {
		return []domain.Thread{}, nil
	}
	return envelope.Results, nil
}

func (c *APIClient) GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	var thread domain.Thread
	r := request{op: "get_thread", method: http.MethodGet, url: c.threadURL(id, "")}
	if err := c.call(ctx, r, &thread); err != nil {
		return thread, err
	}
	return thread, nil
}

func (c *APIClient) CreateThread(ctx context.Context, data api.CreateThreadRequest, image *domain.PendingFile) (domain.Thread, error) {
	var thread domain.Thread
	if err := validatePayload(&data); err != nil {
		return thread, err
	}

	r, err := c.createRequest("create_thread", c.ThreadsURL, data, map[string]string{
		"title":    data.Title,
		"body":     data.Body,
		"category": data.Category,
	}, image)
	if err != nil {
		return thread, err
	}
	if err := c.call(ctx, r, &thread); err != nil {
		return thread, err
	}
	return thread, nil
}

func (c *APIClient) UpdateThread(ctx context.Context, id domain.ThreadId, data api.UpdateThreadRequest) (domain.Thread, error) {
	var thread domain.Thread
	if err := validatePayload(&data); err != nil {
		return thread, err
	}
	r, err := jsonRequest("update_thread", http.MethodPatch, c.threadURL(id, ""), data)
	if err != nil {
		return thread, err
	}
	if err := c.call(ctx, r, &thread); err != nil {
		return thread, err
	}
	return thread, nil
}

func (c *APIClient) DeleteThread(ctx context.Context, id domain.ThreadId) error {
	return c.call(ctx, request{op: "delete_thread", method: http.MethodDelete, url: c.threadURL(id, "")}, nil)
}

func (c *APIClient) LikeThread(ctx context.Context, id domain.ThreadId) (int, error) {
	var resp api.LikeResponse
	r := request{op: "like_thread", method: http.MethodPost, url: c.threadURL(id, "like/")}
	if err := c.call(ctx, r, &resp); err != nil {
		return 0, err
	}
	return resp.Likes, nil
}

// createRequest sends JSON without an image and multipart/form-data with one.
func (c *APIClient) createRequest(op, target string, payload any, fields map[string]string, image *domain.PendingFile) (request, error) {
	if image == nil {
		return jsonRequest(op, http.MethodPost, target, payload)
	}
	body, contentType := multipartBody(fields, image)
	return request{op: op, method: http.MethodPost, url: target, body: body, contentType: contentType}, nil
}

func validatePayload(payload any) error {
	if err := utils.Validate(payload); err != nil {
		return &internal_errors.ValidationError{Message: err.Error()}
	}
	return nil
}
