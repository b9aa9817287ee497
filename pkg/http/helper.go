package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/model"
	"strconv"
)

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64 = 0
	if s := query.Get("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = v
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return limit, offset, nil
}

// ExtractDateRange reads check_in and check_out query parameters.
func ExtractDateRange(r *http.Request) (model.Date, model.Date, error) {
	query := r.URL.Query()

	checkIn, err := model.ParseDate(query.Get("check_in"))
	if err != nil {
		return model.Date{}, model.Date{}, apperrors.InvalidInput("invalid check_in parameter: " + err.Error())
	}
	checkOut, err := model.ParseDate(query.Get("check_out"))
	if err != nil {
		return model.Date{}, model.Date{}, apperrors.InvalidInput("invalid check_out parameter: " + err.Error())
	}
	return checkIn, checkOut, nil
}

// DecodeJSON decodes the request body into target, rejecting unknown fields.
func DecodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.InvalidInput("Request body is empty")
		}
		return apperrors.InvalidInput(fmt.Sprintf("Invalid JSON: %v", err))
	}
	return nil
}
