package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopfront/internal/domain"
)

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// classify maps a service error to a status code and a client-safe body.
func classify(err error) (int, errorBody) {
	var (
		ve *domain.ValidationError
		se *domain.StockError
		pe *domain.ProcessorError
		ne *domain.NotFoundError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, errorBody{Error: "invalid request", Fields: ve.Fields}
	case errors.As(err, &se):
		return http.StatusBadRequest, errorBody{Error: se.Error()}
	case errors.As(err, &pe):
		return http.StatusBadRequest, errorBody{Error: pe.Msg}
	case errors.As(err, &ne):
		return http.StatusNotFound, errorBody{Error: ne.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorBody{Error: "not found"}
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, errorBody{Error: detail(err, domain.ErrValidation, "invalid request")}
	case errors.Is(err, domain.ErrEmptyCart):
		return http.StatusBadRequest, errorBody{Error: "Cart is empty"}
	case errors.Is(err, domain.ErrEmptyMessage):
		return http.StatusBadRequest, errorBody{Error: "Message cannot be empty"}
	case errors.Is(err, domain.ErrAlreadyPaid):
		return http.StatusBadRequest, errorBody{Error: "Order already paid"}
	case errors.Is(err, domain.ErrInvalidStatus):
		return http.StatusBadRequest, errorBody{Error: "Invalid status"}
	case errors.Is(err, domain.ErrInvalidSignature):
		return http.StatusBadRequest, errorBody{Error: "Invalid signature"}
	case errors.Is(err, domain.ErrInvalidPayload):
		return http.StatusBadRequest, errorBody{Error: "Invalid payload"}
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, errorBody{Error: detail(err, domain.ErrUnauthorized, "authentication required")}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorBody{Error: detail(err, domain.ErrForbidden, "forbidden")}
	}
	return http.StatusInternalServerError, errorBody{Error: "internal server error"}
}

// detail returns the text that follows the sentinel in err's message, or def.
func detail(err, sentinel error, def string) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if i := strings.LastIndex(msg, prefix); i >= 0 {
		if d := msg[i+len(prefix):]; d != "" {
			return d
		}
	}
	return def
}

// fail logs err under op and writes the mapped response.
func fail(c echo.Context, l *slog.Logger, op string, err error) error {
	code, body := classify(err)
	if code >= http.StatusInternalServerError {
		l.Error(op+"_error", "status", code, "error", err)
	} else {
		l.Warn(op+"_error", "status", code, "error", err)
	}
	return c.JSON(code, body)
}

func badRequest(c echo.Context, l *slog.Logger, op, msg string, err error) error {
	l.Warn(op+"_error", "status", http.StatusBadRequest, "error", err)
	return c.JSON(http.StatusBadRequest, errorBody{Error: msg})
}

func parseID(s string) (uint, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(n), nil
}
