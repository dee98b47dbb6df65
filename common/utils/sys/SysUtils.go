package sys

import (
	"autotune/common/logger"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/petermattis/goid"
)

func GetGID() uint64 {
	id := goid.Get()
	return uint64(id)
}

// CatchPanic converts a panic raised while loading or tuning into an error
// stored in *errp. Config getters panic with a typed error, so the loader
// boundary defers this instead of checking every getter.
func CatchPanic(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	var err error
	switch v := r.(type) {
	case error:
		err = v
	case string:
		if v == "exit" {
			panic(v)
		}
		err = errors.New(v)
	default:
		err = fmt.Errorf("%v", v)
	}
	logger.Debugf("panic on thread %d: %v\n%s", GetGID(), err, debug.Stack())
	if errp != nil {
		*errp = err
	}
}
