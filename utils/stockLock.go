package utils

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/billsync/billsync_backend/config"
)

// ObtainStockLock serializes stock-summary writes across processes.
// Redis is a best-effort optimization: correctness must not depend on it,
// the invoice transaction also takes FOR UPDATE row locks on products.
// Returns a release func; release is a no-op when no lock was obtained.
func ObtainStockLock(ctx context.Context, moduleName string, funcName string) (func(), error) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		return func() {}, nil
	}

	lock, err := locker.Obtain(ctx, "stockLock", 30*time.Second, nil)
	if err == redislock.ErrNotObtained {
		config.LogError(logger, moduleName, funcName, "Could not obtain stock lock", nil, err)
		return nil, errors.New("could not obtain stock lock")
	} else if err != nil {
		// Redis unavailable mid-flight: proceed, row locks still serialize.
		config.LogError(logger, moduleName, funcName, "Error obtaining stock lock; proceeding without it", nil, err)
		return func() {}, nil
	}

	return func() { _ = lock.Release(ctx) }, nil
}
