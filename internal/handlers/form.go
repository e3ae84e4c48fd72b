package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/shopspring/decimal"
)

// fields are the scalar values of a request body, read from a multipart
// form, a urlencoded form or a JSON object alike. Admin screens send
// multipart when a file is attached and JSON otherwise.
type fields map[string]string

func readFields(c *gin.Context) (fields, error) {
	f := fields{}
	switch c.ContentType() {
	case binding.MIMEMultipartPOSTForm:
		form, err := c.MultipartForm()
		if err != nil {
			return nil, badRequest("Invalid form data")
		}
		for k, v := range form.Value {
			if len(v) > 0 {
				f[k] = v[0]
			}
		}
	case binding.MIMEPOSTForm:
		if err := c.Request.ParseForm(); err != nil {
			return nil, badRequest("Invalid form data")
		}
		for k, v := range c.Request.PostForm {
			if len(v) > 0 {
				f[k] = v[0]
			}
		}
	default:
		var raw map[string]interface{}
		dec := json.NewDecoder(c.Request.Body)
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, badRequest("Invalid request")
		}
		for k, v := range raw {
			switch t := v.(type) {
			case string:
				f[k] = t
			case json.Number:
				f[k] = t.String()
			case bool:
				f[k] = strconv.FormatBool(t)
			}
		}
	}
	return f, nil
}

// str returns the trimmed value of key, or nil when absent.
func (f fields) str(key string) *string {
	v, ok := f[key]
	if !ok {
		return nil
	}
	v = strings.TrimSpace(v)
	return &v
}

// decimal parses key. Absent and empty values yield nil.
func (f fields) decimal(key string) (*decimal.Decimal, error) {
	v := strings.TrimSpace(f[key])
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// quote parses key as a price-like value where zero means "not supplied".
func (f fields) quote(key string) (*decimal.Decimal, error) {
	d, err := f.decimal(key)
	if err != nil || d == nil || d.IsZero() {
		return nil, err
	}
	return d, nil
}

// savedUpload stores the multipart file named field and returns its URL,
// or nil when the request carries no such file.
func (h *Handler) savedUpload(c *gin.Context, field string) (*string, error) {
	if c.ContentType() != binding.MIMEMultipartPOSTForm {
		return nil, nil
	}
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, badRequest("Invalid upload")
	}
	url, err := h.uploads.Save(fh)
	if err != nil {
		return nil, err
	}
	return &url, nil
}

// bindJSON decodes the JSON body into v. Field validation errors pass
// through unchanged; a body that does not decode is a plain 400.
func bindJSON(c *gin.Context, v interface{}) error {
	if err := c.ShouldBindJSON(v); err != nil {
		if validationFields(err) != nil {
			return err
		}
		return badRequest("Invalid request")
	}
	return nil
}

// validate runs the binding validator over v so multipart and JSON bodies
// report field errors the same way.
func validate(v interface{}) error {
	return binding.Validator.ValidateStruct(v)
}

// nonEmpty is str without the empty value, for fields that may not be
// blanked.
func (f fields) nonEmpty(key string) *string {
	v := f.str(key)
	if v == nil || *v == "" {
		return nil
	}
	return v
}
