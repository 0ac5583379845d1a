package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tuannm99/mikedb"
)

// Writes a few rows with a tiny page size, reopens the store and reads them
// back by row id.
func main() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	slog.SetDefault(slog.New(handler))

	dataDir := filepath.Join("data/test", "manual_db")
	_ = os.RemoveAll(dataDir)

	db := mikedb.Open(dataDir, 64)
	if err := db.LoadAll(); err != nil {
		log.Fatalf("LoadAll: %v", err)
	}
	if err := db.CreateDataspace("demo"); err != nil {
		log.Fatalf("CreateDataspace: %v", err)
	}
	_, err := db.CreateTable("demo", "users",
		[]mikedb.FieldType{mikedb.String, mikedb.Integer},
		[]string{"name", "age"})
	if err != nil {
		log.Fatalf("CreateTable: %v", err)
	}

	fmt.Println("Inserting rows...")
	var ids []string
	for i := 1; i <= 10; i++ {
		row, err := db.Insert("users", "demo", [][]byte{
			[]byte(fmt.Sprintf("user-%d", i)),
			[]byte(fmt.Sprint(20 + i)),
		})
		if err != nil {
			log.Fatalf("Insert %d: %v", i, err)
		}
		ids = append(ids, row.ID)
	}

	if _, err := db.Insert("users", "demo", [][]byte{[]byte("short")}); err != nil {
		fmt.Println("rejected as expected:", err)
	}

	fmt.Println("Reopening...")
	again := mikedb.Open(dataDir, 64)
	if err := again.LoadAll(); err != nil {
		log.Fatalf("LoadAll: %v", err)
	}
	for _, id := range ids {
		row, ok, err := again.SelectByRowID("users", "demo", id)
		if err != nil || !ok {
			log.Fatalf("SelectByRowID %s: ok=%v err=%v", id, ok, err)
		}
		fmt.Println(row)
	}
}
