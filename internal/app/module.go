package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/gofactor/internal/credential"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.credential.enabled") {
		if err := credential.New(credential.Dependency{
			Store:      a.store,
			Goroutine:  a.goroutine,
			Router:     a.router,
			Messaging:  a.messaging,
			Config:     a.config,
			Instrument: a.ins,
			UUID:       a.uuid,
			Clock:      a.clock,
			Totp:       a.totp,
			Validator:  a.validator,
		}); err != nil {
			slog.Error("failed to init module credential", "error", err)
			os.Exit(1)
		}
	}
}
