package apitest

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/itchan-dev/discussion/shared/api"
	"github.com/itchan-dev/discussion/shared/domain"
	internal_errors "github.com/itchan-dev/discussion/shared/errors"
	mw "github.com/itchan-dev/discussion/shared/middleware"
	"github.com/itchan-dev/discussion/shared/utils"
	"github.com/itchan-dev/discussion/shared/validation"
)

// Handler serves the forum REST contract from a Store.
type Handler struct {
	store *Store
	opts  Options
}

func (h *Handler) ListThreads(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category != "" && category != domain.CategoryAll && !domain.IsCategory(category) {
		utils.WriteDetail(w, "Unknown category.", http.StatusBadRequest)
		return
	}
	order := domain.SortRecent
	if s := r.URL.Query().Get("sort"); s != "" {
		parsed, ok := domain.ParseSort(s)
		if !ok {
			utils.WriteDetail(w, "Unknown sort order.", http.StatusBadRequest)
			return
		}
		order = parsed
	}

	threads := h.store.Threads(category, order)
	if h.opts.Envelope {
		utils.WriteJSON(w, api.ThreadListResponse{Results: threads}, http.StatusOK)
		return
	}
	utils.WriteJSON(w, threads, http.StatusOK)
}

func (h *Handler) CreateThread(w http.ResponseWriter, r *http.Request) {
	viewer := mw.GetViewerFromContext(r)

	var body api.CreateThreadRequest
	image, err := h.parseCreate(w, r, &body, func(form *multipart.Form) {
		body.Title = formValue(form, "title")
		body.Body = formValue(form, "body")
		body.Category = formValue(form, "category")
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	body.Title = strings.TrimSpace(body.Title)
	body.Body = strings.TrimSpace(body.Body)
	if body.Title == "" || body.Body == "" {
		utils.WriteDetail(w, "Title and body are required.", http.StatusBadRequest)
		return
	}
	if body.Category == "" {
		body.Category = domain.DefaultCategory
	}
	if err := utils.Validate(&body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	thread := h.store.AddThread(viewer.Username, body.Title, body.Body, body.Category, image)
	utils.WriteJSON(w, thread, http.StatusCreated)
}

func (h *Handler) GetThread(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	thread, err := h.store.Thread(id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, thread, http.StatusOK)
}

func (h *Handler) UpdateThread(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var body api.UpdateThreadRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	thread, err := h.store.UpdateThread(mw.GetViewerFromContext(r), id, ThreadPatch{
		Title:    body.Title,
		Body:     body.Body,
		Category: body.Category,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, thread, http.StatusOK)
}

func (h *Handler) DeleteThread(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteThread(mw.GetViewerFromContext(r), id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) LikeThread(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	likes, err := h.store.LikeThread(id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, api.LikeResponse{Likes: likes}, http.StatusOK)
}

func (h *Handler) ListReplies(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	replies, err := h.store.Replies(id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, replies, http.StatusOK)
}

func (h *Handler) CreateReply(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if _, err := h.store.Thread(id); err != nil {
		utils.WriteDetail(w, "Thread not found.", http.StatusNotFound)
		return
	}

	var body api.CreateReplyRequest
	image, err := h.parseCreate(w, r, &body, func(form *multipart.Form) {
		body.Body = formValue(form, "body")
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	body.Body = strings.TrimSpace(body.Body)
	if body.Body == "" {
		utils.WriteDetail(w, "Body is required.", http.StatusBadRequest)
		return
	}

	reply, err := h.store.AddReply(id, mw.GetViewerFromContext(r).Username, body.Body, image)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, reply, http.StatusCreated)
}

func (h *Handler) UpdateReply(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var body api.UpdateReplyRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	reply, err := h.store.UpdateReply(mw.GetViewerFromContext(r), id, body.Body)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, reply, http.StatusOK)
}

func (h *Handler) DeleteReply(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteReply(mw.GetViewerFromContext(r), id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) LikeReply(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	likes, err := h.store.LikeReply(id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, api.LikeResponse{Likes: likes}, http.StatusOK)
}

func (h *Handler) GetMedia(w http.ResponseWriter, r *http.Request) {
	m, ok := h.store.Media(chi.URLParam(r, "name"))
	if !ok {
		utils.WriteDetail(w, "Not found.", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", m.MimeType)
	_, _ = w.Write(m.Data)
}

// parseCreate decodes either a JSON body into body or a multipart form through
// fromForm, storing the optional image part. It returns the image URL, if any.
func (h *Handler) parseCreate(w http.ResponseWriter, r *http.Request, body any, fromForm func(*multipart.Form)) (*string, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return nil, utils.Decode(r.Body, body)
	}

	maxRequestSize := validation.CalculateMaxRequestSize(h.opts.MaxImageBytes, 1<<20)
	if err := validation.ValidateAndParseMultipart(r, w, maxRequestSize); err != nil {
		return nil, badRequest(fmt.Sprintf("Request is too large (max %d bytes).", maxRequestSize))
	}
	fromForm(r.MultipartForm)

	files := r.MultipartForm.File["image"]
	if len(files) == 0 {
		return nil, nil
	}
	return h.storeImage(files[0])
}

func (h *Handler) storeImage(fh *multipart.FileHeader) (*string, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded image: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded image: %w", err)
	}

	mimeType, err := validation.DetectMimeType(fh.Filename, fh.Header.Get("Content-Type"), data)
	if err != nil {
		return nil, badRequest("Could not determine the image type.")
	}
	meta := domain.FileCommonMetadata{Filename: fh.Filename, SizeBytes: int64(len(data)), MimeType: mimeType}
	if err := validation.ValidateImage(meta, validation.ImageRules{
		AllowedMimeTypes: h.opts.AllowedMimeTypes,
		MaxBytes:         h.opts.MaxImageBytes,
	}); err != nil {
		var attachmentErr *validation.AttachmentError
		if errors.As(err, &attachmentErr) {
			return nil, badRequest(attachmentErr.Reason)
		}
		return nil, err
	}

	name := uuid.NewString()
	if _, sub, ok := strings.Cut(mimeType, "/"); ok {
		name += "." + sub
	}
	h.store.PutMedia(name, Media{MimeType: mimeType, Data: data})
	url := MediaPrefix + name
	return &url, nil
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		utils.WriteDetail(w, "Not found.", http.StatusNotFound)
		return 0, false
	}
	return id, true
}

func badRequest(detail string) error {
	return &internal_errors.ErrorWithStatusCode{Message: detail, StatusCode: http.StatusBadRequest}
}
