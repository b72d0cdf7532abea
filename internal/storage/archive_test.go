package storage

import (
	"context"
	"testing"
	"time"

	"treasury-backend/internal/config"
)

func TestObjectKey(t *testing.T) {
	at := time.Date(2024, 7, 5, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		prefix   string
		fileName string
		want     string
	}{
		{"plain", "imports/", "dues.xlsx", "imports/2024/07/20240705_143000_dues.xlsx"},
		{"spaces", "imports/", "Field Trip (final).xlsx", "imports/2024/07/20240705_143000_Field_Trip_final_.xlsx"},
		{"path stripped", "", "../../etc/passwd", "2024/07/20240705_143000_passwd"},
		{"empty name", "x/", "", "x/2024/07/20240705_143000_upload.xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ObjectKey(tt.prefix, tt.fileName, at); got != tt.want {
				t.Errorf("ObjectKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNew_DisabledIsNoop(t *testing.T) {
	cfg := &config.Config{}
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := a.(NoopArchiver); !ok {
		t.Fatalf("expected NoopArchiver, got %T", a)
	}
	key, err := a.Archive(context.Background(), "a.xlsx", "", []byte("x"))
	if err != nil || key != "" {
		t.Errorf("Archive() = %q, %v", key, err)
	}
}
