package remote

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"time"
)

// File is an opaque blob destined for a multipart request.
type File struct {
	Name        string
	ContentType string
	Content     io.Reader
}

// Form builds a multipart payload out of mixed-type values the way the
// workspace API expects them: array-valued fields flatten into repeated
// "key[]" parts, dates serialize to RFC 3339, files become file parts,
// everything else is stringified. Field order is preserved.
type Form struct {
	parts []formPart
}

type formPart struct {
	key   string
	value any
}

// NewForm returns an empty form.
func NewForm() *Form { return &Form{} }

// Set appends a field. Calling Set twice with the same key produces two
// parts, matching browser FormData semantics.
func (f *Form) Set(key string, value any) *Form {
	f.parts = append(f.parts, formPart{key: key, value: value})
	return f
}

// Encode serializes the form and returns the body with its content type.
func (f *Form) Encode() (io.Reader, string, error) {
	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)
	for _, p := range f.parts {
		if err := writePart(w, p.key, p.value); err != nil {
			return nil, "", fmt.Errorf("multipart field %q: %w", p.key, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

func writePart(w *multipart.Writer, key string, value any) error {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return w.WriteField(key, v)
	case time.Time:
		return w.WriteField(key, v.UTC().Format(time.RFC3339))
	case *time.Time:
		if v == nil {
			return nil
		}
		return w.WriteField(key, v.UTC().Format(time.RFC3339))
	case []string:
		for _, item := range v {
			if err := w.WriteField(key+"[]", item); err != nil {
				return err
			}
		}
		return nil
	case File:
		return writeFile(w, key, v)
	case []File:
		for _, file := range v {
			if err := writeFile(w, key, file); err != nil {
				return err
			}
		}
		return nil
	case fmt.Stringer:
		return w.WriteField(key, v.String())
	default:
		return w.WriteField(key, fmt.Sprint(v))
	}
}

func writeFile(w *multipart.Writer, key string, f File) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, key, f.Name))
	if f.ContentType != "" {
		h.Set("Content-Type", f.ContentType)
	} else {
		h.Set("Content-Type", "application/octet-stream")
	}
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	if f.Content == nil {
		return nil
	}
	_, err = io.Copy(part, f.Content)
	return err
}
