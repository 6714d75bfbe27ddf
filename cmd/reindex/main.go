package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"guardcam/internal/config"
	"guardcam/internal/model"
	"guardcam/internal/repository/sqlite"
	"guardcam/internal/service/storage"
)

// reindex records snapshot files that are on disk but missing from the
// alarm log, e.g. after the database was deleted.
func main() {
	cfg := config.Load()
	snapshotDir := flag.String("snapshots", cfg.SnapshotDir, "Directory containing alarm snapshots")
	dbPath := flag.String("db", cfg.DatabasePath, "Database path")
	flag.Parse()

	fmt.Printf("Indexing snapshots from %s into %s\n", *snapshotDir, *dbPath)

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	alarms := sqlite.NewAlarmRepository(db)

	files, err := os.ReadDir(*snapshotDir)
	if err != nil {
		log.Fatalf("Failed to read snapshot directory: %v", err)
	}

	recorded, err := alarms.GetAll(nil)
	if err != nil {
		log.Fatalf("Failed to list alarms: %v", err)
	}
	known := lo.SliceToMap(recorded, func(a model.Alarm) (string, bool) {
		return a.Filename, true
	})

	added, skipped := 0, 0
	for _, file := range files {
		if file.IsDir() || !strings.EqualFold(filepath.Ext(file.Name()), ".jpg") {
			continue
		}

		if known[file.Name()] {
			continue
		}

		timestamp, camera, err := storage.ParseSnapshotFilename(file.Name())
		if err != nil {
			log.Printf("⚠️  Skipping %s: %v", file.Name(), err)
			skipped++
			continue
		}

		info, err := file.Info()
		if err != nil {
			log.Printf("⚠️  Failed to get info for %s: %v", file.Name(), err)
			skipped++
			continue
		}

		// Event ids are not on disk; the file name stands in for one.
		if _, err := alarms.Insert(&model.Alarm{
			EventID:   strings.TrimSuffix(file.Name(), filepath.Ext(file.Name())),
			Camera:    camera,
			Timestamp: timestamp,
			Filename:  file.Name(),
			FilePath:  filepath.Join(*snapshotDir, file.Name()),
			FileSize:  info.Size(),
		}); err != nil {
			log.Printf("⚠️  Failed to record %s: %v", file.Name(), err)
			skipped++
			continue
		}
		added++
	}

	fmt.Printf("✅ Recorded %d snapshots\n", added)
	if skipped > 0 {
		fmt.Printf("⚠️  Skipped %d files (invalid name or errors)\n", skipped)
	}

	stats, err := alarms.GetStats()
	if err == nil {
		fmt.Printf("\n📊 Alarm log:\n")
		fmt.Printf("   Total alarms: %d\n", stats.TotalAlarms)
		for camera, count := range stats.PerCamera {
			fmt.Printf("      - %s: %d alarms\n", camera, count)
		}
	}
}

