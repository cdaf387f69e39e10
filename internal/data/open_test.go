package data

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/kawasa9350-svg/albion-assistance-bot-sub001/internal/config"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     config.Config
		wantErr error
	}{
		{"memory", config.Config{StorageDriver: config.StorageMemory}, nil},
		{"sqlite", config.Config{StorageDriver: config.StorageSQLite, SQLitePath: filepath.Join(t.TempDir(), "open.db")}, nil},
		{"unknown", config.Config{StorageDriver: "redis"}, config.ErrUnknownStorageDriver},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(ctx, &tt.cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Open() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer store.Close()

			if ok, err := store.IsGuildRegistered(ctx, "900000000000000001"); err != nil || ok {
				t.Errorf("IsGuildRegistered() = %v, %v on a fresh store", ok, err)
			}
		})
	}
}
