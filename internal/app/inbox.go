package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/corey/titlelab/internal/ports"
)

// inboxImportTimeout bounds one import triggered by the inbox watcher.
const inboxImportTimeout = time.Minute

// onInboxFile imports a keyword export dropped into the inbox directory.
// Called from the watcher once the file has stopped changing.
func (a *App) onInboxFile(absPath string) {
	ctx, cancel := context.WithTimeout(context.Background(), inboxImportTimeout)
	defer cancel()

	res, err := a.importFile(ctx, absPath, ports.SourceInbox)
	if err != nil {
		a.log.Error("inbox import", zap.String("file", absPath), zap.Error(err))
		return
	}
	if res.Fallback {
		a.log.Warn("inbox file unreadable, sample dataset loaded",
			zap.String("file", absPath), zap.String("reason", res.Warning))
	}
}
