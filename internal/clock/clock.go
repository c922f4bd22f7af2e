package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock supplies the current time. Services take it as a dependency so tests
// can pin "today".
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

var Module = fx.Module("clock",
	fx.Provide(func() Clock { return SystemClock{} }),
)
