package notes

import (
	"context"
	"fmt"
	"milk2meat/internal/environment"
	"milk2meat/internal/logging"
	"time"
)

// TagHousekeeper defines methods for cleaning up tags left behind by deleted or edited notes.
type TagHousekeeper interface {
	// DeleteOrphanedTags removes every tag no note references anymore.
	//
	// param ctx param context.Context true "the context used for request-scoped operations"
	// return error if deletion or lookup operations fail
	DeleteOrphanedTags(ctx context.Context) error
}

// DefaultTagHousekeeper provides a default implementation of TagHousekeeper.
type DefaultTagHousekeeper struct {
	*environment.Env
}

func (hk *DefaultTagHousekeeper) DeleteOrphanedTags(ctx context.Context) error {
	hk.LogDebug(logging.GetLogTypeHousekeeping(), "start orphaned tag clean up")

	orphanedTagIds := make([]uint, 0)
	err := hk.FindOrphanedTagIds(ctx, &orphanedTagIds)
	if err != nil {
		hk.LogError(logging.GetLogTypeHousekeeping(), err.Error())
		return fmt.Errorf("error fetching orphaned tags from the database: %w", err)
	}

	if len(orphanedTagIds) == 0 {
		hk.LogDebug(logging.GetLogTypeHousekeeping(), "no cleanup for tags needed; early return")
		return nil
	}

	start := time.Now()
	msg := fmt.Sprintf("deleting %d orphaned tag(s)", len(orphanedTagIds))
	hk.LogInfo(logging.GetLogTypeHousekeeping(), "start "+msg)

	err = hk.DeleteTagsByIds(ctx, orphanedTagIds)
	if err != nil {
		hk.LogError(logging.GetLogTypeHousekeeping(), err.Error())
		return fmt.Errorf("error deleting orphaned tags from the database: %w", err)
	}

	hk.LogInfo(logging.GetLogTypeHousekeeping(), "finished "+msg)
	hk.LogInfo(logging.GetLogTypeHousekeeping(), fmt.Sprintf("duration: %dms", time.Since(start).Milliseconds()))

	return nil
}
