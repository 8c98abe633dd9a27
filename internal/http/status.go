package http

import (
	"net/http"

	"github.com/jmehdipour/installbase-sync/internal/status"
	"github.com/labstack/echo/v4"
)

type statusResponse struct {
	status.Snapshot
	LeaseHolder string `json:"lease_holder,omitempty"`
}

func statusHandler(tracker *status.Tracker, cycleLease LeaseReader) echo.HandlerFunc {
	return func(c echo.Context) error {
		resp := statusResponse{Snapshot: tracker.Snapshot()}

		// best effort: a lease read failure must not break the status page
		if cycleLease != nil {
			holder, err := cycleLease.Holder(c.Request().Context())
			if err != nil {
				c.Logger().Warnf("lease holder read failed: %v", err)
			}
			resp.LeaseHolder = holder
		}

		return c.JSON(http.StatusOK, resp)
	}
}
