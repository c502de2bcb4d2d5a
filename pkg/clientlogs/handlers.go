// Package clientlogs accepts diagnostic log lines from the reader UI and
// writes them through the server's logger.
package clientlogs

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

const (
	maxContextKeys  = 32
	maxDataValueLen = 1024
)

type WriteResponse struct {
	Success bool `json:"success"`
}

type handler struct{}

func (h *handler) write(c echo.Context) error {
	params := WritePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	log := logger.FromContext(c.Request().Context())
	data := contextData(params.Context)

	switch params.Level {
	case "debug":
		log.Debug(params.Message, data)
	case "warn":
		log.Warn(params.Message, data)
	case "error":
		log.Error(params.Message, data)
	default:
		log.Info(params.Message, data)
	}

	return errors.WithStack(c.JSON(http.StatusOK, WriteResponse{Success: true}))
}

// contextData tags the entry as coming from the client and bounds what a
// client can push into the log.
func contextData(ctx map[string]any) logger.Data {
	data := logger.Data{"source": "client"}
	n := 0
	for k, v := range ctx {
		if n == maxContextKeys {
			data["truncated"] = true
			break
		}
		data["client_"+k] = truncate(v)
		n++
	}
	return data
}

func truncate(v any) any {
	switch v := v.(type) {
	case nil, bool, float64:
		return v
	case string:
		if len(v) > maxDataValueLen {
			return v[:maxDataValueLen] + "..."
		}
		return v
	default:
		s := fmt.Sprintf("%v", v)
		if len(s) > maxDataValueLen {
			return s[:maxDataValueLen] + "..."
		}
		return v
	}
}
