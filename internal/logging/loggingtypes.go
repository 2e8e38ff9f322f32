package logging

import (
	"fmt"
	"log/slog"
	"sync"
)

var ProgressMapMutex sync.RWMutex
var currentProgressIds = make(map[string]string)

// GetLogType creates a slice which can be used for logging
// it takes 3 arguments: subtype, contextId1 and correlationId/progressName
// if no correlationId is given, the one registered for the subtype via SetCorrelationId is used
func GetLogType(logType ...string) []any {
	var temp []interface{}
	for i := 0; i < len(logType); i++ {
		if i == 0 {
			temp = append(temp, "subType")
		} else if i == 1 {
			temp = append(temp, "contextId1")
		} else if i == 2 {
			if len(logType[i]) <= 0 {
				break
			}
			ProgressMapMutex.RLock()
			if val, ok := currentProgressIds[logType[i]]; ok {
				// progressName found in memory, use that id
				temp = append(temp, "correlationId")
				temp = append(temp, val)
				ProgressMapMutex.RUnlock()
				continue
			}
			ProgressMapMutex.RUnlock()

			// id was supplied, use the supplied id
			temp = append(temp, "correlationId")
		} else {
			slog.Warn(fmt.Sprintf("getLogType: 4th parameter unknown: %v", logType[i]))
			break
		}
		temp = append(temp, logType[i])
	}
	if len(logType) > 0 && len(temp) <= 4 {
		// get current progress id if id was not specified
		ProgressMapMutex.RLock()
		if val, ok := currentProgressIds[logType[0]]; ok {
			temp = append(temp, "correlationId")
			temp = append(temp, val)
		}
		ProgressMapMutex.RUnlock()
	}
	return temp
}

// SetCorrelationId registers id for every following log entry of progressName
// until ClearCorrelationId is called.
func SetCorrelationId(progressName, id string) {
	ProgressMapMutex.Lock()
	defer ProgressMapMutex.Unlock()
	currentProgressIds[progressName] = id
}

func ClearCorrelationId(progressName string) {
	ProgressMapMutex.Lock()
	defer ProgressMapMutex.Unlock()
	delete(currentProgressIds, progressName)
}

func GetLogTypeInitialization() []any {
	return GetLogType("initialization")
}

func GetLogTypeHousekeeping() []any {
	return GetLogType("housekeeping")
}

func GetLogTypeNotes(noteId ...string) []any {
	return GetLogType(append([]string{"notes"}, noteId...)...)
}

func GetLogTypeBible() []any {
	return GetLogType("bible")
}

func GetLogTypeAuth() []any {
	return GetLogType("auth")
}

func GetLogTypeSearch() []any {
	return GetLogType("search")
}

func GetLogTypeStorage() []any {
	return GetLogType("storage")
}
