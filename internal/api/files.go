package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"

	"github.com/nhle/workhub/internal/model"
)

// MaxUploadSize is the largest attachment the server accepts.
const MaxUploadSize = 10 << 20

// Upload rejections returned by CheckUpload.
var (
	ErrUploadEmpty    = errors.New("file is empty")
	ErrUploadTooLarge = errors.New("file too large")
	ErrUploadType     = errors.New("file type not allowed")
)

var allowedUploadTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.",
}

// UploadInput is a file attached to a task.
type UploadInput struct {
	TaskID     int64  `json:"task_id" validate:"gt=0"`
	UploadedBy int64  `json:"uploaded_by" validate:"gt=0"`
	Filename   string `json:"filename" validate:"required"`
	Content    []byte `json:"-"`
}

// CheckUpload rejects files over MaxUploadSize or whose detected content
// type is not an image, PDF or Word/Office document. It returns the
// detected MIME type.
func CheckUpload(content []byte) (string, error) {
	if len(content) == 0 {
		return "", ErrUploadEmpty
	}
	if len(content) > MaxUploadSize {
		return "", fmt.Errorf("%w: size must be less than %s", ErrUploadTooLarge, humanize.IBytes(MaxUploadSize))
	}

	mtype := mimetype.Detect(content)
	for m := mtype; m != nil; m = m.Parent() {
		if allowedMIME(m.String()) {
			return mtype.String(), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUploadType, mtype.String())
}

func allowedMIME(mime string) bool {
	mime = strings.SplitN(mime, ";", 2)[0]
	if strings.HasPrefix(mime, "image/") {
		return true
	}
	for _, allowed := range allowedUploadTypes {
		if strings.HasSuffix(allowed, ".") {
			if strings.HasPrefix(mime, allowed) {
				return true
			}
			continue
		}
		if mime == allowed {
			return true
		}
	}
	return false
}

// UploadFile sends a multipart upload after checking size and type.
func (g *Gateway) UploadFile(ctx context.Context, in UploadInput) (*model.UploadedFile, error) {
	const endpoint = "/files/upload"
	if err := check(http.MethodPost, endpoint, in); err != nil {
		return nil, err
	}
	if _, err := CheckUpload(in.Content); err != nil {
		return nil, errRejected(http.MethodPost, endpoint, err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", in.Filename)
	if err != nil {
		return nil, errRejected(http.MethodPost, endpoint, fmt.Errorf("creating form file: %w", err))
	}
	if _, err := part.Write(in.Content); err != nil {
		return nil, errRejected(http.MethodPost, endpoint, fmt.Errorf("writing form file: %w", err))
	}
	_ = w.WriteField("task_id", strconv.FormatInt(in.TaskID, 10))
	_ = w.WriteField("uploaded_by", strconv.FormatInt(in.UploadedBy, 10))
	if err := w.Close(); err != nil {
		return nil, errRejected(http.MethodPost, endpoint, fmt.Errorf("closing form: %w", err))
	}

	var out model.UploadedFile
	err = g.Request(ctx, endpoint, &RequestOptions{
		Method:  http.MethodPost,
		Header:  http.Header{"Content-Type": []string{w.FormDataContentType()}},
		RawBody: buf.Bytes(),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UserFiles lists the files uploaded by a user.
func (g *Gateway) UserFiles(ctx context.Context, userID int64) (*model.UserFiles, error) {
	var out model.UserFiles
	if err := g.Request(ctx, fmt.Sprintf("/files/user/%d", userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
