package app

import (
	"log/slog"
	"os"

	"github.com/hatolabs/hato/internal/notification"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.notification.enabled") {
		if err := notification.New(notification.Dependency{
			Ctx:        a.ctx,
			DBConn:     a.dbConn,
			Redis:      a.cacheConn,
			Messaging:  a.messaging,
			Config:     a.config,
			Instrument: a.ins,
			Idem:       a.idemp,
			UID:        a.uid,
			UUID:       a.uuid,
			OID:        a.oid,
			Clock:      a.clock,
			Goroutine:  a.goroutine,
			Validator:  a.validator,
			Router:     a.router,
			Mail:       a.mail,
			Storage:    a.storage,
			Logger:     slog.Default(),
		}); err != nil {
			slog.Error("failed to init module notification", "error", err)
			os.Exit(1)
		}
	}
}
