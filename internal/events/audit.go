package events

import (
	console "cms0/internal/utils/logger"

	"go.uber.org/zap"
)

// Audit forwards every domain event of bus to the info level of sink.
func (bus *EventBus) Audit(sink *console.Sink) {
	handler := func(event string, data interface{}) {
		switch v := data.(type) {
		case CatalogChange:
			sink.Info(event,
				zap.String("module", v.Module),
				zap.Uint64("user_id", v.OwnerID),
				zap.Uint64s("ids", v.IDs),
				zap.Int64("affected", v.Affected),
			)
		default:
			sink.Info(event, zap.Any("data", data))
		}
	}
	for _, prefix := range []string{"users", "plugins", "media", "catalog"} {
		bus.On(prefix+".*", handler)
	}
}

// Audit wires the default bus to sink.
func Audit(sink *console.Sink) {
	defaultBus.Audit(sink)
}
