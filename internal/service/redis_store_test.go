package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"sems-converter/internal/entity"
	"sems-converter/internal/repository/redisstore"
	"sems-converter/internal/service"
)

func newRedisRegistry(t *testing.T) (*service.Registry, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	election := &fakeConverter{output: []byte(`{"title":"General"}`)}
	tallies := &fakeConverter{output: []byte("23,6525,775\n")}
	reg, err := service.NewRegistry(redisstore.New(rdb, "sems-converter:"), service.NopRecorder(), zap.NewNop(),
		service.JobSpec{Descriptor: entity.ElectionJob(), Convert: election.convert},
		service.JobSpec{Descriptor: entity.TalliesJob(), Convert: tallies.convert},
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg, mr
}

func TestRedisRegistry_ResetClearsEverything(t *testing.T) {
	ctx := context.Background()
	reg, mr := newRedisRegistry(t)
	// left by an earlier process
	if err := mr.Set("sems-converter:tallies/SEMS Results", "stale"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := mr.Set("unrelated", "keep"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	ej, _ := reg.Dispatch(entity.KindElection)
	mustAssign(t, ej, entity.SlotSEMSMain, "a")
	mustAssign(t, ej, entity.SlotSEMSMapping, "b")
	if _, err := ej.Process(ctx); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !mr.Exists("sems-converter:election/Vx Election Definition") {
		t.Fatalf("expected output stored in redis, keys=%v", mr.Keys())
	}

	for i := 0; i < 2; i++ {
		if err := reg.Reset(ctx); err != nil {
			t.Fatalf("Reset #%d: %v", i+1, err)
		}
		if keys := mr.Keys(); len(keys) != 1 || keys[0] != "unrelated" {
			t.Fatalf("Reset #%d: unexpected keys %v", i+1, keys)
		}
	}
	if ej.IsReady() {
		t.Fatalf("ready after reset")
	}
	if _, err := ej.RetrieveOutput(ctx, entity.SlotVxDefinition); !errors.Is(err, service.ErrNotAvailable) {
		t.Fatalf("expected ErrNotAvailable, got %v", err)
	}
}

func TestRedisRegistry_OverwriteKeepsCurrentBlob(t *testing.T) {
	ctx := context.Background()
	reg, mr := newRedisRegistry(t)
	j, _ := reg.Dispatch(entity.KindElection)

	mustAssign(t, j, entity.SlotSEMSMain, "one")
	if err := reg.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	mustAssign(t, j, entity.SlotSEMSMain, "two")
	mustAssign(t, j, entity.SlotSEMSMain, "three")

	if v, err := mr.Get("sems-converter:election/SEMS main file"); err != nil || v != "three" {
		t.Fatalf("expected latest upload stored, got %q, %v", v, err)
	}
	if keys := mr.Keys(); len(keys) != 1 {
		t.Fatalf("expected a single blob, got %v", keys)
	}
}
