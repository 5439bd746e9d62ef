package inbound

import (
	"net/http"

	"github.com/hatolabs/hato/internal/pkg/router"
)

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/notifications", end.Submit)
	r.POST("/api/v1/notifications/bulk", end.SubmitBulk)
	r.GET("/api/v1/notifications/jobs/:id", end.JobStatus)
	r.DELETE("/api/v1/notifications/jobs/:id", end.CancelJob)
	r.GET("/api/v1/notifications/stats", end.EngineStats)

	r.GET("/api/v1/notifications/preferences", end.ListPreferences)
	r.PUT("/api/v1/notifications/preferences", end.UpdatePreferences)

	r.POST("/api/v1/notifications/device", end.DeviceRegister)
	r.DELETE("/api/v1/notifications/device", end.DeviceRemove)

	r.GET("/api/v1/notifications/inbox", end.ListInbox)
	r.PATCH("/api/v1/notifications/inbox/:id/read", end.MarkInboxRead)
	r.PUT("/api/v1/notifications/inbox/read-all", end.MarkInboxReadAll)
	r.DELETE("/api/v1/notifications/inbox/:id", end.DeleteInboxItem)

	r.GETRaw("/api/v1/notifications/stream", http.HandlerFunc(end.StreamInbox))
	r.GETRaw("/api/v1/notifications/events", http.HandlerFunc(end.StreamLifecycle))
}
