package main

import (
	"context"

	"guaymallen-backend/cmd/guaymallen/commands"
	"guaymallen-backend/lib/serviceutil"
	"guaymallen-backend/lib/telemetry"
)

func main() {
	// ctrl+c cancels the context so a running extraction drains
	// instead of dying mid-fetch
	ctx := serviceutil.SignalContext()

	tel, err := telemetry.SetupFromEnv(ctx, "guaymallen")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	defer tel.Shutdown(context.Background())
	telemetry.InstrumentPerfStats(ctx)

	commands.ExecuteContext(ctx)
}
