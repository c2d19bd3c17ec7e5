package models_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"whisperbatch/internal/logging"
	"whisperbatch/internal/models"
	"whisperbatch/internal/testsupport"
)

func noGPU() ([]models.GPU, error) { return nil, nil }

func nvidia() ([]models.GPU, error) {
	return []models.GPU{{Vendor: "NVIDIA Corporation", Product: "AD102"}}, nil
}

func TestResolvePlacement(t *testing.T) {
	tests := []struct {
		name      string
		requested models.Placement
		detect    func() ([]models.GPU, error)
		want      models.Placement
	}{
		{"cuda stays", models.Placement{Device: "cuda", ComputeType: "float16"}, noGPU, models.Placement{Device: "cuda", ComputeType: "float16"}},
		{"cpu downgrades half", models.Placement{Device: "cpu", ComputeType: "float16"}, nvidia, models.Placement{Device: "cpu", ComputeType: "float32"}},
		{"cpu keeps int8", models.Placement{Device: "CPU", ComputeType: "int8"}, noGPU, models.Placement{Device: "cpu", ComputeType: "int8"}},
		{"auto with nvidia", models.Placement{Device: "auto", ComputeType: "float16"}, nvidia, models.Placement{Device: "cuda", ComputeType: "float16"}},
		{"auto without gpu", models.Placement{Device: "auto", ComputeType: "float16"}, noGPU, models.Placement{Device: "cpu", ComputeType: "float32"}},
		{"auto detect error", models.Placement{Device: "auto"}, func() ([]models.GPU, error) { return nil, errors.New("no pci") }, models.Placement{Device: "cpu", ComputeType: "float32"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := models.ResolvePlacement(tt.requested, tt.detect)
			if got != tt.want {
				t.Fatalf("ResolvePlacement = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func newManager(backend *testsupport.FakeBackend) *models.Manager {
	return models.NewManager(backend, models.Placement{Device: "cpu", ComputeType: "float16"}, logging.NewNop(),
		models.WithGPUDetector(noGPU))
}

func TestTranscriptionModelCached(t *testing.T) {
	backend := &testsupport.FakeBackend{}
	m := newManager(backend)
	ctx := context.Background()

	if _, err := m.TranscriptionModel(); !errors.Is(err, models.ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
	first, err := m.LoadTranscriptionModel(ctx, "tiny", "pt")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	second, err := m.LoadTranscriptionModel(ctx, "tiny", "pt")
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if first != second || backend.SpeechLoads != 1 {
		t.Fatalf("expected cached model, loads=%d", backend.SpeechLoads)
	}
	if backend.LastPlacement.ComputeType != "float32" {
		t.Fatalf("expected downgraded compute type, got %+v", backend.LastPlacement)
	}
	if m.Device() != "cpu" || m.ComputeType() != "float32" {
		t.Fatalf("unexpected placement %s/%s", m.Device(), m.ComputeType())
	}
	got, err := m.TranscriptionModel()
	if err != nil || got != first {
		t.Fatalf("TranscriptionModel = %v, %v", got, err)
	}
}

func TestTranscriptionLoadFailure(t *testing.T) {
	backend := &testsupport.FakeBackend{LoadSpeechErr: testsupport.ErrFake}
	m := newManager(backend)
	if _, err := m.LoadTranscriptionModel(context.Background(), "tiny", ""); !errors.Is(err, testsupport.ErrFake) {
		t.Fatalf("expected wrapped load error, got %v", err)
	}
	if _, err := m.TranscriptionModel(); !errors.Is(err, models.ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded after failure, got %v", err)
	}
}

func TestAlignmentModelKeyedByLanguage(t *testing.T) {
	backend := &testsupport.FakeBackend{}
	m := newManager(backend)
	ctx := context.Background()

	if _, _, err := m.LoadAlignmentModel(ctx, "pt"); err != nil {
		t.Fatal(err)
	}
	_, meta, err := m.LoadAlignmentModel(ctx, "por")
	if err != nil {
		t.Fatal(err)
	}
	if meta.Language != "pt" || meta.Model != "fake-align-pt" {
		t.Fatalf("unexpected metadata %+v", meta)
	}
	if _, _, err := m.LoadAlignmentModel(ctx, "en"); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(backend.AlignLoads, []string{"pt", "en"}) {
		t.Fatalf("unexpected loads %v", backend.AlignLoads)
	}
	if !reflect.DeepEqual(backend.Unloads, []string{"align-pt"}) {
		t.Fatalf("expected previous language unloaded, got %v", backend.Unloads)
	}
	if _, _, err := m.LoadAlignmentModel(ctx, ""); !errors.Is(err, models.ErrLanguageRequired) {
		t.Fatalf("expected ErrLanguageRequired, got %v", err)
	}
}

func TestDiarizationRequiresCredential(t *testing.T) {
	backend := &testsupport.FakeBackend{}
	m := newManager(backend)
	ctx := context.Background()

	if _, err := m.LoadDiarizationModel(ctx, " "); !errors.Is(err, models.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if backend.DiarizeLoads != 0 {
		t.Fatal("backend must not be called without a credential")
	}
	a, err := m.LoadDiarizationModel(ctx, "hf_x")
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.LoadDiarizationModel(ctx, "hf_x")
	if err != nil {
		t.Fatal(err)
	}
	if a != b || backend.DiarizeLoads != 1 {
		t.Fatalf("expected cached diarization model, loads=%d", backend.DiarizeLoads)
	}
}

func TestCleanupIdempotent(t *testing.T) {
	backend := &testsupport.FakeBackend{}
	m := newManager(backend)
	ctx := context.Background()

	if _, err := m.LoadTranscriptionModel(ctx, "tiny", "pt"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := m.LoadAlignmentModel(ctx, "pt"); err != nil {
		t.Fatal(err)
	}
	if err := m.Cleanup(ctx); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if err := m.Cleanup(ctx); err != nil {
		t.Fatalf("second Cleanup: %v", err)
	}
	if !reflect.DeepEqual(backend.Unloads, []string{"align-pt", "speech"}) {
		t.Fatalf("unexpected unloads %v", backend.Unloads)
	}
	if backend.Closed != 1 {
		t.Fatalf("expected backend closed once, got %d", backend.Closed)
	}
	if _, err := m.TranscriptionModel(); !errors.Is(err, models.ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded after cleanup, got %v", err)
	}
}

func TestCleanupWithoutLoads(t *testing.T) {
	backend := &testsupport.FakeBackend{}
	if err := newManager(backend).Cleanup(context.Background()); err != nil {
		t.Fatal(err)
	}
	if backend.Closed != 1 || len(backend.Unloads) != 0 {
		t.Fatalf("unexpected state closed=%d unloads=%v", backend.Closed, backend.Unloads)
	}
}
