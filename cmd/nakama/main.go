package main

import (
	"context"
	"database/sql"

	"royale/internal/ports/nakama"

	"github.com/heroiclabs/nakama-common/runtime"
)

// InitModule is the symbol Nakama loads from the plugin; registration
// lives in the nakama adapter package.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	return nakama.InitModule(ctx, logger, db, nk, initializer)
}

// main is required for the package to link under the default buildmode;
// it is never invoked when the module is loaded as a Nakama plugin.
func main() {}
