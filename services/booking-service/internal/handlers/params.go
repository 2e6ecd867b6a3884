package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/practiceops/practiceops/libs/apperr"
	"github.com/practiceops/practiceops/services/booking-service/internal/availability"
	"github.com/practiceops/practiceops/services/booking-service/internal/model"
)

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation(key, key+" must be an integer")
	}
	return n, nil
}

func queryDate(r *http.Request, key string) (string, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return "", nil
	}
	d, err := availability.ParseDate(raw)
	if err != nil {
		return "", apperr.Validation(key, key+" must be YYYY-MM-DD")
	}
	return availability.FormatDate(d), nil
}

// listFilter reads status, unread, from, to, limit and offset.
func listFilter(r *http.Request) (model.ListFilter, error) {
	q := r.URL.Query()
	f := model.ListFilter{Status: strings.TrimSpace(q.Get("status"))}
	switch strings.ToLower(strings.TrimSpace(q.Get("unread"))) {
	case "", "0", "false":
	case "1", "true":
		f.UnreadOnly = true
	default:
		return f, apperr.Validation("unread", "unread must be true or false")
	}
	var err error
	if f.From, err = queryDate(r, "from"); err != nil {
		return f, err
	}
	if f.To, err = queryDate(r, "to"); err != nil {
		return f, err
	}
	if f.Limit, err = queryInt(r, "limit", 0); err != nil {
		return f, err
	}
	if f.Offset, err = queryInt(r, "offset", 0); err != nil {
		return f, err
	}
	return f, nil
}
