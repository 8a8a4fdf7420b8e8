package api

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
)

const (
	maxFormBytes      = 10 << 20
	maxMultipartBytes = 32 << 20
)

// Form returns the request's form fields regardless of method. Values come
// from an urlencoded or multipart body, then from the URL query; for a key
// present in both, the body values come first. net/http only reads the body
// of POST, PUT and PATCH requests, while clients of this API also send form
// bodies with GET and DELETE.
func Form(r *http.Request) (url.Values, error) {
	values, err := bodyForm(r)
	if err != nil {
		return nil, err
	}
	for k, v := range r.URL.Query() {
		values[k] = append(values[k], v...)
	}
	return values, nil
}

func bodyForm(r *http.Request) (url.Values, error) {
	values := url.Values{}
	if r.Body == nil || r.Body == http.NoBody {
		return values, nil
	}

	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return values, nil
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return nil, fmt.Errorf("parsing content type: %w", err)
	}

	switch mediaType {
	case "application/x-www-form-urlencoded":
		body, err := io.ReadAll(io.LimitReader(r.Body, maxFormBytes+1))
		if err != nil {
			return nil, fmt.Errorf("reading form body: %w", err)
		}
		if len(body) > maxFormBytes {
			return nil, fmt.Errorf("form body too large")
		}
		parsed, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, fmt.Errorf("parsing form body: %w", err)
		}
		for k, v := range parsed {
			values[k] = append(values[k], v...)
		}
	case "multipart/form-data":
		mr, err := r.MultipartReader()
		if err != nil {
			return nil, fmt.Errorf("reading multipart body: %w", err)
		}
		form, err := mr.ReadForm(maxMultipartBytes)
		if err != nil {
			return nil, fmt.Errorf("parsing multipart body: %w", err)
		}
		defer form.RemoveAll()
		for k, v := range form.Value {
			values[k] = append(values[k], v...)
		}
	}

	return values, nil
}
