package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/AnshRaj112/profiledir-backend/internal/models"
	"github.com/AnshRaj112/profiledir-backend/internal/services"
)

// sniffLen is how much of an upload http.DetectContentType looks at.
const sniffLen = 512

// parseRegistrationForm reads a multipart or urlencoded sign-up submission.
// The returned close func releases the uploaded file and must always be called.
func parseRegistrationForm(r *http.Request, maxUpload int64) (services.RegistrationForm, func(), error) {
	noop := func() {}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		// Parse multipart form; anything above maxUpload spills to disk and is rejected by validation
		if err := r.ParseMultipartForm(maxUpload); err != nil {
			return services.RegistrationForm{}, noop, fmt.Errorf("parse form: %w", err)
		}
	} else if err := r.ParseForm(); err != nil {
		return services.RegistrationForm{}, noop, fmt.Errorf("parse form: %w", err)
	}

	form := services.RegistrationForm{
		FullName:        r.FormValue("full_name"),
		Email:           r.FormValue("email"),
		Password:        r.FormValue("password"),
		ConfirmPassword: r.FormValue("confirm_password"),
		Phone:           r.FormValue("phone"),
		Gender:          models.Gender(strings.ToLower(strings.TrimSpace(r.FormValue("gender")))),
		Interests:       parseInterests(r.Form["interests"]),
	}

	if r.MultipartForm == nil {
		return form, noop, nil
	}
	files := r.MultipartForm.File["file"]
	form.PictureCount = len(files)
	if len(files) == 0 {
		return form, noop, nil
	}

	pic, file, err := openUpload(files[0])
	if err != nil {
		return services.RegistrationForm{}, noop, err
	}
	form.Picture = pic
	return form, func() { _ = file.Close() }, nil
}

// openUpload opens an uploaded file and sniffs its content type.
func openUpload(fh *multipart.FileHeader) (*services.Upload, multipart.File, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		_ = file.Close()
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}

	return &services.Upload{
		Filename:    fh.Filename,
		ContentType: http.DetectContentType(head[:n]),
		Size:        fh.Size,
		Body:        file,
	}, file, nil
}

// parseInterests accepts repeated values and comma-separated lists.
func parseInterests(values []string) []models.Interest {
	out := []models.Interest{}
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part != "" {
				out = append(out, models.Interest(part))
			}
		}
	}
	return out
}
