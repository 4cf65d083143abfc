package game

import (
	"math/rand"
	"testing"

	"tank-arena/internal/arena"
	"tank-arena/internal/geom"
)

// =============================================================================
// BENCHMARK SUITE: CRITICAL PATH PERFORMANCE TESTS
// Run with: go test -bench=. -benchmem ./internal/game/...
// =============================================================================

// newBenchSession builds a session on the bundled layout with an immortal
// player and n enemies scattered around the arena.
func newBenchSession(b *testing.B, enemies int) *Session {
	b.Helper()
	layout, err := arena.LoadFile("../../configs/arena.yaml")
	if err != nil {
		b.Fatalf("LoadFile: %v", err)
	}
	a, err := layout.Build()
	if err != nil {
		b.Fatalf("Build: %v", err)
	}
	cfg := DefaultSessionConfig(a)
	cfg.Seed = 1
	cfg.EnemyCount = 0
	cfg.KillsToWin = 1 << 30
	cfg.Limits.MaxEnemies = enemies
	s, err := NewSession(cfg)
	if err != nil {
		b.Fatalf("NewSession: %v", err)
	}
	s.debug.Immortal = true

	rng := rand.New(rand.NewSource(2))
	for range enemies {
		pos := geom.V3((rng.Float64()*2-1)*40, 0, (rng.Float64()*2-1)*40)
		if a.Blocked(pos, spawnProbe) {
			continue
		}
		addEnemy(s, pos)
	}
	return s
}

// -----------------------------------------------------------------------------
// SESSION TICK BENCHMARKS
// -----------------------------------------------------------------------------

func BenchmarkSessionTick_6Enemies(b *testing.B)   { benchmarkSessionTick(b, 6) }
func BenchmarkSessionTick_32Enemies(b *testing.B)  { benchmarkSessionTick(b, 32) }
func BenchmarkSessionTick_128Enemies(b *testing.B) { benchmarkSessionTick(b, 128) }

func benchmarkSessionTick(b *testing.B, enemies int) {
	s := newBenchSession(b, enemies)
	in := Input{Fire: true, LookDelta: 0.01}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		s.tick(in)
	}
}

// -----------------------------------------------------------------------------
// SNAPSHOT BENCHMARKS
// -----------------------------------------------------------------------------

func BenchmarkPublishSnapshot_6Enemies(b *testing.B)  { benchmarkPublish(b, 6) }
func BenchmarkPublishSnapshot_32Enemies(b *testing.B) { benchmarkPublish(b, 32) }

func benchmarkPublish(b *testing.B, enemies int) {
	s := newBenchSession(b, enemies)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		s.publish()
	}
}

func BenchmarkSnapshotClone(b *testing.B) {
	s := newBenchSession(b, 32)
	for range 30 {
		s.tick(Input{Fire: true})
	}
	snap := s.snapshots.AcquireRead()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = snap.Clone()
	}
}

// -----------------------------------------------------------------------------
// COMMAND QUEUE BENCHMARKS
// -----------------------------------------------------------------------------

func BenchmarkQueuePushPop(b *testing.B) {
	q := NewMPSCQueue[Command](1024)
	cmd := InputCommand(Input{Forward: true})

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		q.TryPush(cmd)
		q.TryPop()
	}
}

func BenchmarkQueueParallelPush(b *testing.B) {
	q := NewMPSCQueue[Command](1 << 16)
	done := make(chan struct{})
	go func() {
		buf := make([]Command, 256)
		for {
			select {
			case <-done:
				return
			default:
				q.DrainTo(buf)
			}
		}
	}()
	defer close(done)

	b.ResetTimer()
	b.ReportAllocs()

	b.RunParallel(func(pb *testing.PB) {
		cmd := PauseCommand()
		for pb.Next() {
			q.TryPush(cmd)
		}
	})
}

// -----------------------------------------------------------------------------
// EVENT LOG BENCHMARKS
// -----------------------------------------------------------------------------

func BenchmarkEventLogEmit(b *testing.B) {
	log := NewEventLog(nil)
	if err := log.Start(""); err != nil {
		b.Fatalf("Start: %v", err)
	}
	defer log.Stop()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		log.EmitSimple(EventTypeShot, uint64(i), "bench", "", nil)
	}
}
