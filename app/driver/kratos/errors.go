package kratos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	kratosclient "github.com/ory/kratos-client-go"

	"github.com/sua-a1/cram-app-sub001/app/domain"
)

// errNotFound is internal; callers decide what a missing resource means.
var errNotFound = errors.New("kratos resource not found")

// transformKratosError maps a failed call onto the domain taxonomy. Timeouts
// become domain.ErrUpstreamTimeout so the gateway can retry them.
func (a *KratosClientAdapter) transformKratosError(err error, httpResp *http.Response, operation string) error {
	status := getHTTPStatus(httpResp)
	message := kratosMessage(err)

	a.logger.Warn("kratos call failed",
		"operation", operation,
		"http_status", status,
		"kratos_message", message,
		"error", err)

	if isTimeout(err) || status == http.StatusGatewayTimeout {
		return fmt.Errorf("kratos %s: %w", operation, domain.ErrUpstreamTimeout)
	}

	switch status {
	case 0:
		return fmt.Errorf("kratos %s: %w: %v", operation, domain.ErrUpstreamUnavailable, err)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("kratos %s: %w: %s", operation, domain.ErrInvalidInput, message)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("kratos %s: %w", operation, domain.ErrSessionInvalid)
	case http.StatusNotFound, http.StatusGone:
		return fmt.Errorf("kratos %s: %w", operation, errNotFound)
	case http.StatusConflict:
		return fmt.Errorf("kratos %s: %w", operation, domain.ErrDuplicateIdentity)
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return fmt.Errorf("kratos %s: %w", operation, domain.ErrUpstreamUnavailable)
	default:
		return domain.NewAuthError(domain.ErrCodeInternal, fmt.Sprintf("kratos %s failed with status %d", operation, status), err)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// kratosMessage extracts a human readable reason from an error body. It never
// includes request data.
func kratosMessage(err error) string {
	var apiErr *kratosclient.GenericOpenAPIError
	if !errors.As(err, &apiErr) {
		return ""
	}

	var body struct {
		Error struct {
			Message string `json:"message"`
			Reason  string `json:"reason"`
		} `json:"error"`
		UI struct {
			Messages []struct {
				ID   int64  `json:"id"`
				Text string `json:"text"`
			} `json:"messages"`
		} `json:"ui"`
	}
	if jsonErr := json.Unmarshal(apiErr.Body(), &body); jsonErr != nil {
		return apiErr.Error()
	}

	if len(body.UI.Messages) > 0 {
		return body.UI.Messages[0].Text
	}
	if body.Error.Reason != "" {
		return body.Error.Reason
	}
	return body.Error.Message
}

func getHTTPStatus(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}
