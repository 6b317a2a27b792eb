package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"dormhub-backend/internal/domain"
	"dormhub-backend/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	maxBodyBytes    = 1 << 20
	defaultPageSize = 20
	maxPageSize     = 100
	dateLayout      = "2006-01-02"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type createReservationRequest struct {
	PropertyID string `json:"property_id" validate:"required,uuid"`
	Message    string `json:"message" validate:"max=2000"`
}

type reasonRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type createBookingRequest struct {
	PropertyID     string  `json:"property_id" validate:"required,uuid"`
	PaymentType    string  `json:"payment_type" validate:"required,oneof=full downpayment"`
	MoveInDate     string  `json:"move_in_date" validate:"required,datetime=2006-01-02"`
	DurationMonths int32   `json:"duration_months" validate:"required,min=1,max=60"`
	ReservationID  *string `json:"reservation_id" validate:"omitempty,uuid"`
}

func (req createBookingRequest) toService() (service.CreateBookingRequest, error) {
	out := service.CreateBookingRequest{
		PaymentType:    domain.PaymentType(req.PaymentType),
		DurationMonths: req.DurationMonths,
	}
	var err error
	if out.PropertyID, err = uuid.Parse(req.PropertyID); err != nil {
		return out, err
	}
	if out.MoveInDate, err = time.Parse(dateLayout, req.MoveInDate); err != nil {
		return out, err
	}
	if req.ReservationID != nil {
		id, err := uuid.Parse(*req.ReservationID)
		if err != nil {
			return out, err
		}
		out.ReservationID = &id
	}
	return out, nil
}

type listResponse[T any] struct {
	Items    []T   `json:"items"`
	Total    int32 `json:"total"`
	Page     int32 `json:"page"`
	PageSize int32 `json:"page_size"`
}

type listQuery struct {
	Status   string
	Page     int32
	PageSize int32
}

// decodeBody reads a JSON body into dst and validates it. An empty body is
// accepted when optional is set, leaving dst at its zero value.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if !(optional && errors.Is(err, io.EOF)) {
			writeBadRequest(w, "malformed JSON body", nil)
			return false
		}
	}
	if err := validate.Struct(dst); err != nil {
		writeBadRequest(w, "validation failed", validationFields(err))
		return false
	}
	return true
}

func validationFields(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		msg := fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		fields[fe.Field()] = msg
	}
	return fields
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		writeBadRequest(w, "invalid "+toSnake(name), nil)
		return uuid.Nil, false
	}
	return id, true
}

func parseListQuery(w http.ResponseWriter, r *http.Request) (listQuery, bool) {
	q := r.URL.Query()
	out := listQuery{Status: q.Get("status"), Page: 1, PageSize: defaultPageSize}
	if v := q.Get("page"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 1 {
			writeBadRequest(w, "invalid page", nil)
			return out, false
		}
		out.Page = int32(n)
	}
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 1 {
			writeBadRequest(w, "invalid page_size", nil)
			return out, false
		}
		out.PageSize = int32(min(n, maxPageSize))
	}
	return out, true
}
