package gcp

import (
	"errors"
	"testing"

	apperr "github.com/yungbote/docqa-backend/internal/pkg/errors"
)

func TestResolveObjectStorageConfigFromEnvDefaultGCS(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "")

	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: %v", err)
	}
	if cfg.Mode != ObjectStorageModeGCS {
		t.Fatalf("mode: want=%q got=%q", ObjectStorageModeGCS, cfg.Mode)
	}
}

func TestResolveObjectStorageConfigFromEnvExplicitGCS(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "gcs")
	t.Setenv("STORAGE_EMULATOR_HOST", "http://fake-gcs:4443")

	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: %v", err)
	}
	if cfg.Mode != ObjectStorageModeGCS {
		t.Fatalf("mode: want=%q got=%q", ObjectStorageModeGCS, cfg.Mode)
	}
}

func TestResolveObjectStorageConfigFromEnvExplicitEmulator(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "gcs_emulator")
	t.Setenv("STORAGE_EMULATOR_HOST", "http://fake-gcs:4443")

	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: %v", err)
	}
	if cfg.Mode != ObjectStorageModeGCSEmulator {
		t.Fatalf("mode: want=%q got=%q", ObjectStorageModeGCSEmulator, cfg.Mode)
	}
}

func TestResolveObjectStorageConfigFromEnvImpliedByEmulatorHost(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "http://fake-gcs:4443")

	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: %v", err)
	}
	if cfg.Mode != ObjectStorageModeGCSEmulator {
		t.Fatalf("mode: want=%q got=%q", ObjectStorageModeGCSEmulator, cfg.Mode)
	}
}

func TestResolveObjectStorageConfigFromEnvInvalidMode(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "local")
	t.Setenv("STORAGE_EMULATOR_HOST", "")

	_, err := ResolveObjectStorageConfigFromEnv()
	if err == nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: expected error, got nil")
	}
}

func TestResolveObjectStorageConfigFromEnvMissingEmulatorHost(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "gcs_emulator")
	t.Setenv("STORAGE_EMULATOR_HOST", "")

	_, err := ResolveObjectStorageConfigFromEnv()
	if err == nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: expected error, got nil")
	}
}

func TestResolveObjectStorageConfigFromEnvInvalidEmulatorHost(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "gcs_emulator")
	t.Setenv("STORAGE_EMULATOR_HOST", "fake-gcs:4443")

	_, err := ResolveObjectStorageConfigFromEnv()
	if err == nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: expected error, got nil")
	}
}

func TestObjectStorageConfigErrorIsConfiguration(t *testing.T) {
	err := ValidateObjectStorageConfig(ObjectStorageConfig{Mode: ObjectStorageModeGCSEmulator})
	var cfgErr *ObjectStorageConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ObjectStorageConfigError, got=%T", err)
	}
	if cfgErr.Code != ObjectStorageConfigErrorMissingEmulatorHost {
		t.Fatalf("code: want=%q got=%q", ObjectStorageConfigErrorMissingEmulatorHost, cfgErr.Code)
	}
	if !errors.Is(err, apperr.ErrConfiguration) {
		t.Fatalf("errors.Is(ErrConfiguration): want=true got=false")
	}
}
