// Command bufferpool demonstrates the buffer pool manager end to end:
// allocate a page, write through a guard, flush it, and read it back.
package main

import (
	"log"
	"os"

	"github.com/nodalite/bufferpool/internal/common"
	"github.com/nodalite/bufferpool/internal/storage/buffer"
	"github.com/nodalite/bufferpool/internal/storage/disk"
)

func main() {
	path, cleanup := tempDBPath()
	defer cleanup()

	dm, err := disk.NewFileManager(path)
	if err != nil {
		log.Fatalf("open disk manager: %v", err)
	}
	defer dm.Close()

	telemetry, err := buffer.NewTelemetry(64)
	if err != nil {
		log.Fatalf("start telemetry: %v", err)
	}
	defer telemetry.Close()

	cfg := common.DefaultConfig()
	cfg.PoolSize = 4
	bp := buffer.NewBufferPoolManager(cfg, dm, buffer.WithTelemetry(telemetry))

	guard, err := bp.NewPageGuarded()
	if err != nil {
		log.Fatalf("new page: %v", err)
	}
	copy(guard.Data(), []byte("hello, buffer pool"))
	id := guard.PageID()
	guard.Drop()

	if err := bp.FlushPage(id); err != nil {
		log.Fatalf("flush page %d: %v", id, err)
	}

	reader, err := bp.FetchPageRead(id)
	if err != nil {
		log.Fatalf("fetch page %d: %v", id, err)
	}
	log.Printf("page %d: %q", id, reader.Data()[:18])
	reader.Drop()

	stats := telemetry.Stats()
	log.Printf("telemetry: hits=%d misses=%d ratio=%.2f", stats.Hits, stats.Misses, stats.Ratio)
}

func tempDBPath() (string, func()) {
	f, err := os.CreateTemp("", "bufferpool-demo-*.dat")
	if err != nil {
		log.Fatalf("create scratch db file: %v", err)
	}
	path := f.Name()
	f.Close()
	return path, func() { os.Remove(path) }
}
