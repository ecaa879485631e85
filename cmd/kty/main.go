// Command kty builds Yomitan dictionaries from kaikki.org Wiktionary
// extracts.
//
//	kty build -p de-en,el-en          filter, normalize and serialize
//	kty filter -p de-en --cap 1000    write the filtered extract only
//	kty normalize -p de-en            fold the filtered extract into entries
//	kty serialize -p de-en --plain    write the archive from stored entries
//	kty publish -p de-en              upload built archives
//
// Settings come from kty.yaml (or CONFIG_PATH) and KTY_* environment
// variables; flags override both.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
